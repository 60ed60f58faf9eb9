package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"spesebot/internal/core"
)

// EventExpenseRecorded is the type and routing key of ExpenseRecordedMessage.
const EventExpenseRecorded = "expense.recorded"

// ExpenseRecordedMessage is published after an expense reached the record store.
type ExpenseRecordedMessage struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	RecordedAt time.Time `json:"recorded_at"`
	Category   string    `json:"category,omitempty"`
	Item       string    `json:"item"`
	Amount     string    `json:"amount"`
	Ref        string    `json:"ref,omitempty"`
	Platform   string    `json:"platform,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
}

// NewExpenseRecordedMessage creates an event with a fresh id for e.
func NewExpenseRecordedMessage(e core.Expense, ref, platform, userID string) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		EventID:    uuid.NewString(),
		Type:       EventExpenseRecorded,
		Timestamp:  time.Now(),
		RecordedAt: e.Timestamp,
		Category:   e.Category,
		Item:       e.Item,
		Amount:     e.Amount.String(),
		Ref:        ref,
		Platform:   platform,
		UserID:     userID,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseRecordedMessageFromJSON decodes and checks a message body.
func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.EventID); err != nil {
		return nil, errors.New("missing or malformed event_id")
	}
	if msg.Type != EventExpenseRecorded {
		return nil, errors.New("unexpected event type " + msg.Type)
	}
	return &msg, nil
}
