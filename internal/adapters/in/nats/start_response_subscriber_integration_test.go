package nats_test

import (
	"context"
	"testing"
	"time"

	natsadapter "tms/internal/adapters/in/nats"
	"tms/internal/core/application/usecases/commands"
	"tms/internal/pkg/errs"
	"tms/internal/pkg/natstest"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

const (
	responses  = "tms.start.response"
	deadLetter = "tms.start.dlq"
	orderKey   = "0b8f3b5c-3a57-4a8e-9a69-6a3c2a6f9f10"
)

type MockStartResponseHandler struct{ mock.Mock }

func (m *MockStartResponseHandler) Handle(ctx context.Context, cmd commands.HandleStartResponseCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

type StartResponseSubscriberTestSuite struct {
	suite.Suite
	conn *nats.Conn
	stop func()
}

func TestStartResponseSubscriberTestSuite(t *testing.T) {
	suite.Run(t, new(StartResponseSubscriberTestSuite))
}

func (s *StartResponseSubscriberTestSuite) SetupSuite() {
	server, err := natstest.Start()
	s.Require().NoError(err)

	s.conn, err = nats.Connect(server.ClientURL())
	s.Require().NoError(err)

	s.stop = func() {
		s.conn.Close()
		server.Shutdown()
		server.WaitForShutdown()
	}
}

func (s *StartResponseSubscriberTestSuite) TearDownSuite() {
	s.stop()
}

func (s *StartResponseSubscriberTestSuite) subscribe(handler natsadapter.StartResponseHandler) (chan *nats.Msg, func()) {
	dead := make(chan *nats.Msg, 4)
	dlqSub, err := s.conn.ChanSubscribe(deadLetter, dead)
	s.Require().NoError(err)

	subscriber, err := natsadapter.NewStartResponseSubscriber(s.conn,
		natsadapter.Subjects{Responses: responses, DeadLetter: deadLetter}, handler, zaptest.NewLogger(s.T()))
	s.Require().NoError(err)
	s.Require().NoError(subscriber.Start(s.T().Context()))

	return dead, func() {
		s.Require().NoError(subscriber.Stop())
		s.Require().NoError(dlqSub.Unsubscribe())
	}
}

func (s *StartResponseSubscriberTestSuite) TestHandle_Accepted() {
	handler := new(MockStartResponseHandler)
	handled := make(chan struct{})
	handler.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.HandleStartResponseCommand) bool {
		return cmd.OrderKey().String() == orderKey && cmd.AcceptedState() == "STARTED" && cmd.Rejection() == nil
	})).Return(nil).Once().Run(func(mock.Arguments) { close(handled) })
	dead, cleanup := s.subscribe(handler)
	defer cleanup()

	s.Require().NoError(s.conn.Publish(responses, []byte(`{"orderKey":"`+orderKey+`","acceptedState":"STARTED"}`)))

	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		s.FailNow("start response not handled")
	}
	s.Require().NoError(s.conn.Flush())
	s.Empty(dead)
	handler.AssertExpectations(s.T())
}

func (s *StartResponseSubscriberTestSuite) TestHandle_CommittedRejectionIsNotDeadLettered() {
	handler := new(MockStartResponseHandler)
	handled := make(chan struct{})
	handler.On("Handle", mock.Anything, mock.Anything).
		Return(errs.NewStateChangeError("TARGET_BLOCKED", orderKey, "location group AREA blocked for incoming")).
		Once().Run(func(mock.Arguments) { close(handled) })
	dead, cleanup := s.subscribe(handler)
	defer cleanup()

	s.Require().NoError(s.conn.Publish(responses, []byte(`{"orderKey":"`+orderKey+`","acceptedState":"STARTED"}`)))

	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		s.FailNow("start response not handled")
	}

	select {
	case msg := <-dead:
		s.Failf("rejection dead-lettered", "header %s", msg.Header.Get(natsadapter.HeaderError))
	case <-time.After(200 * time.Millisecond):
	}
	handler.AssertExpectations(s.T())
}

func (s *StartResponseSubscriberTestSuite) TestHandle_DeadLetters() {
	handler := new(MockStartResponseHandler)
	handler.On("Handle", mock.Anything, mock.Anything).
		Return(errs.NewProtocolError("unexpected accepted state FINISHED")).Once()
	dead, cleanup := s.subscribe(handler)
	defer cleanup()

	for _, data := range []string{
		`not json`,
		`{"orderKey":"nope"}`,
		`{"orderKey":"` + orderKey + `","acceptedState":"FINISHED"}`,
	} {
		s.Require().NoError(s.conn.Publish(responses, []byte(data)))

		select {
		case msg := <-dead:
			assert.Equal(s.T(), data, string(msg.Data))
			assert.NotEmpty(s.T(), msg.Header.Get(natsadapter.HeaderError))
		case <-time.After(5 * time.Second):
			s.FailNow("dead letter not received", data)
		}
	}
	handler.AssertExpectations(s.T())
}
