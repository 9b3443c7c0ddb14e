package order

import (
	"errors"
	"strings"
	"time"

	"tms/internal/pkg/errs"
	"tms/internal/pkg/guard"
)

var ErrMessageIsNotConstructed = errors.New("Message must be created via NewMessage constructor")

// Message is an immutable failure or info note attached to a transport order.
type Message struct { //nolint:recvcheck //using for validation
	occurredAt time.Time
	code       string
	text       string
	orderKey   string
	guard      guard.ConstructorGuard
}

// NewMessage creates a message for the order identified by orderKey. Either a
// code or a text must be given.
func NewMessage(occurredAt time.Time, code, text, orderKey string) (Message, error) {
	code = strings.TrimSpace(code)
	if code == "" && strings.TrimSpace(text) == "" {
		return Message{}, errs.NewValueIsRequiredError("message code or text")
	}
	if occurredAt.IsZero() {
		return Message{}, errs.NewValueIsRequiredError("message occurrence")
	}
	return Message{
		occurredAt: occurredAt.UTC(),
		code:       code,
		text:       text,
		orderKey:   orderKey,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (m Message) Validate() error {
	return m.guard.Validate(ErrMessageIsNotConstructed)
}

func (m Message) OccurredAt() time.Time { return m.occurredAt }
func (m Message) Code() string          { return m.code }
func (m Message) Text() string          { return m.text }
func (m Message) OrderKey() string      { return m.orderKey }

// IsEqual compares all fields of two messages.
func (m Message) IsEqual(other Message) bool {
	return m.occurredAt.Equal(other.occurredAt) &&
		m.code == other.code &&
		m.text == other.text &&
		m.orderKey == other.orderKey
}
