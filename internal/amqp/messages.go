package amqp

import (
	"encoding/json"
	"time"

	"expenseadvisor/internal/core"
)

// EventExpenseAppended is the message type published after a ledger append.
const EventExpenseAppended = "expense.appended"

// ExpenseAppendedMessage describes one entry appended to a session ledger.
type ExpenseAppendedMessage struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"session_id"`
	Date        string    `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseAppendedMessage(sessionID string, e core.ExpenseEntry) *ExpenseAppendedMessage {
	return &ExpenseAppendedMessage{
		Type:        EventExpenseAppended,
		SessionID:   sessionID,
		Date:        e.Date.String(),
		Category:    e.Category.String(),
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseAppendedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseAppendedMessageFromJSON(data []byte) (*ExpenseAppendedMessage, error) {
	var msg ExpenseAppendedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
