package kafka_test

import (
	"context"
	"errors"
	"testing"

	"tms/internal/adapters/in/kafka"
	"tms/internal/core/application/usecases/commands"
	"tms/internal/core/domain/model/kernel"
	"tms/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap/zaptest"
)

type fakeFetcher struct {
	batches   [][]*kgo.Record
	cancel    context.CancelFunc
	committed []*kgo.Record
	commitErr error
	polls     int
	allowed   int
}

func (f *fakeFetcher) PollFetches(context.Context) kgo.Fetches {
	f.polls++
	if len(f.batches) == 0 {
		f.cancel()
		return kgo.Fetches{}
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      "tms.commands",
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: batch}},
	}}}}
}

func (f *fakeFetcher) CommitRecords(_ context.Context, rs ...*kgo.Record) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, rs...)
	return nil
}

func (f *fakeFetcher) AllowRebalance() { f.allowed++ }

type MockDeadLetterWriter struct{ mock.Mock }

func (m *MockDeadLetterWriter) DeadLetter(ctx context.Context, rec *kgo.Record, cause error) error {
	args := m.Called(ctx, rec, cause)
	return args.Error(0)
}

type MockCreateHandler struct{ mock.Mock }

func (m *MockCreateHandler) Handle(ctx context.Context, cmd commands.CreateTransportOrderCommand) (kernel.UUID, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(kernel.UUID), args.Error(1)
}

type MockUpdateHandler struct{ mock.Mock }

func (m *MockUpdateHandler) Handle(ctx context.Context, cmd commands.UpdateTransportOrderCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

type MockChangeStateHandler struct{ mock.Mock }

func (m *MockChangeStateHandler) Handle(ctx context.Context, cmd commands.ChangeTransportOrderStateCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

type MockRemoveUnitHandler struct{ mock.Mock }

func (m *MockRemoveUnitHandler) Handle(ctx context.Context, cmd commands.RemoveTransportUnitCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

type fixture struct {
	fetcher *fakeFetcher
	dlq     *MockDeadLetterWriter
	create  *MockCreateHandler
	update  *MockUpdateHandler
	change  *MockChangeStateHandler
	remove  *MockRemoveUnitHandler
}

func record(offset int64, value string) *kgo.Record {
	return &kgo.Record{Topic: "tms.commands", Offset: offset, Value: []byte(value)}
}

func run(t *testing.T, batches ...[]*kgo.Record) (*fixture, func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)

	f := &fixture{
		fetcher: &fakeFetcher{batches: batches, cancel: cancel},
		dlq:     new(MockDeadLetterWriter),
		create:  new(MockCreateHandler),
		update:  new(MockUpdateHandler),
		change:  new(MockChangeStateHandler),
		remove:  new(MockRemoveUnitHandler),
	}
	consumer, err := kafka.NewCommandConsumer(f.fetcher, f.dlq, kafka.Handlers{
		Create:      f.create,
		Update:      f.update,
		ChangeState: f.change,
		RemoveUnit:  f.remove,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	return f, func() error { return consumer.Run(ctx) }
}

func TestNewCommandConsumer(t *testing.T) {
	_, err := kafka.NewCommandConsumer(nil, new(MockDeadLetterWriter), kafka.Handlers{}, zaptest.NewLogger(t))
	require.Error(t, err)

	_, err = kafka.NewCommandConsumer(&fakeFetcher{}, new(MockDeadLetterWriter), kafka.Handlers{}, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestCommandConsumer_Run(t *testing.T) {
	const key = "0b8f3b5c-3a57-4a8e-9a69-6a3c2a6f9f10"

	t.Run("should dispatch every command type and commit", func(t *testing.T) {
		recs := []*kgo.Record{
			record(1, `{"type":"CREATE_TRANSPORT_ORDER","payload":{"pKey":"`+key+`","barcode":"4711","target":"AREA","priority":"HIGH"}}`),
			record(2, `{"type":"UPDATE_TRANSPORT_ORDER","payload":{"pKey":"`+key+`","targetLocationGroup":"PICK"}}`),
			record(3, `{"type":"CHANGE_STATE","payload":{"pKey":"`+key+`","state":"CANCELED"}}`),
			record(4, `{"type":"REMOVE_TRANSPORT_UNIT","payload":{"transportUnitBK":"4711"}}`),
		}
		f, runConsumer := run(t, recs)
		f.create.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.CreateTransportOrderCommand) bool {
			return cmd.PKey().String() == key && cmd.Barcode() == "4711" && cmd.TargetLocationGroup() == "AREA"
		})).Return(kernel.UUID{}, nil).Once()
		f.update.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.UpdateTransportOrderCommand) bool {
			return cmd.TargetLocationGroup() != nil && *cmd.TargetLocationGroup() == "PICK" && cmd.Priority() == nil
		})).Return(nil).Once()
		f.change.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.ChangeTransportOrderStateCommand) bool {
			return cmd.State().String() == "CANCELED"
		})).Return(nil).Once()
		f.remove.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.RemoveTransportUnitCommand) bool {
			return cmd.UnitBK() == "4711"
		})).Return(nil).Once()

		require.NoError(t, runConsumer())

		assert.Equal(t, recs, f.fetcher.committed)
		assert.Equal(t, 1, f.fetcher.allowed)
		f.dlq.AssertNotCalled(t, "DeadLetter", mock.Anything, mock.Anything, mock.Anything)
		mock.AssertExpectationsForObjects(t, f.create, f.update, f.change, f.remove)
	})

	t.Run("should create a keyless order once across redelivery", func(t *testing.T) {
		value := `{"type":"CREATE_TRANSPORT_ORDER","payload":{"barcode":"4711","target":"AREA"}}`
		first := record(7, value)
		redelivered := record(7, value)
		f, runConsumer := run(t, []*kgo.Record{first}, []*kgo.Record{redelivered})
		var keys []kernel.UUID
		f.create.On("Handle", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				keys = append(keys, args.Get(1).(commands.CreateTransportOrderCommand).PKey())
			}).
			Return(kernel.UUID{}, nil).Once()
		f.create.On("Handle", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				keys = append(keys, args.Get(1).(commands.CreateTransportOrderCommand).PKey())
			}).
			Return(kernel.UUID{}, errs.NewAlreadyExistsError("transport order", "k")).Once()

		require.NoError(t, runConsumer())

		require.Len(t, keys, 2)
		assert.True(t, keys[0].IsEqual(keys[1]))
		assert.False(t, keys[0].IsEqual(kernel.UUIDFromName("tms.commands/0/8")))
		assert.Equal(t, []*kgo.Record{first, redelivered}, f.fetcher.committed)
		f.dlq.AssertNotCalled(t, "DeadLetter", mock.Anything, mock.Anything, mock.Anything)
		f.create.AssertExpectations(t)
	})

	t.Run("should dead letter malformed and rejected commands", func(t *testing.T) {
		garbage := record(1, `not json`)
		unknown := record(2, `{"type":"MOVE","payload":{}}`)
		badKey := record(3, `{"type":"CHANGE_STATE","payload":{"pKey":"nope","state":"CANCELED"}}`)
		denied := record(4, `{"type":"UPDATE_TRANSPORT_ORDER","payload":{"pKey":"`+key+`","targetLocationGroup":"X"}}`)
		f, runConsumer := run(t, []*kgo.Record{garbage, unknown, badKey, denied})
		f.update.On("Handle", mock.Anything, mock.Anything).
			Return(errs.NewDeniedError("TARGET_BLOCKED", key, "blocked")).Once()
		for _, rec := range []*kgo.Record{garbage, unknown, badKey} {
			f.dlq.On("DeadLetter", mock.Anything, rec, mock.MatchedBy(errs.IsValidation)).Return(nil).Once()
		}
		f.dlq.On("DeadLetter", mock.Anything, denied, mock.MatchedBy(func(err error) bool {
			return errors.Is(err, errs.ErrDenied)
		})).Return(nil).Once()

		require.NoError(t, runConsumer())

		assert.Len(t, f.fetcher.committed, 4)
		f.dlq.AssertExpectations(t)
	})

	t.Run("should stop without committing when dead lettering fails", func(t *testing.T) {
		ok := record(1, `{"type":"REMOVE_TRANSPORT_UNIT","payload":{"transportUnitBK":"4711"}}`)
		bad := record(2, `{"type":"REMOVE_TRANSPORT_UNIT","payload":{}}`)
		never := record(3, `{"type":"REMOVE_TRANSPORT_UNIT","payload":{"transportUnitBK":"4712"}}`)
		f, runConsumer := run(t, []*kgo.Record{ok, bad, never})
		f.remove.On("Handle", mock.Anything, mock.Anything).Return(nil).Once()
		f.dlq.On("DeadLetter", mock.Anything, bad, mock.Anything).Return(errors.New("broker down")).Once()

		err := runConsumer()

		require.ErrorContains(t, err, "broker down")
		assert.Equal(t, []*kgo.Record{ok}, f.fetcher.committed)
		f.remove.AssertExpectations(t)
	})

	t.Run("should return when the context ends", func(t *testing.T) {
		f, runConsumer := run(t)

		require.NoError(t, runConsumer())

		assert.Equal(t, 1, f.fetcher.polls)
		assert.Empty(t, f.fetcher.committed)
	})
}
