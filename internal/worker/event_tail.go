package worker

import (
	"context"
	"fmt"
	"io"
	"sync"

	"expenseadvisor/internal/amqp"
	applog "expenseadvisor/internal/log"
)

// EventTail writes every consumed expense.appended event to out as one JSON
// line, for auditing or piping into other tools.
type EventTail struct {
	mu     sync.Mutex
	out    io.Writer
	logger *applog.Logger
	count  int64
}

func NewEventTail(out io.Writer, logger *applog.Logger) *EventTail {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &EventTail{out: out, logger: logger.WithComponent(applog.ComponentAMQP)}
}

// Handle matches the handler signature of amqp.Client.ConsumeExpenseAppended.
// A write error requeues the event.
func (t *EventTail) Handle(ctx context.Context, msg *amqp.ExpenseAppendedMessage) error {
	line, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.out.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	t.count++

	t.logger.DebugContext(ctx, "Expense event received",
		applog.FieldSessionID, msg.SessionID,
		applog.FieldCategory, msg.Category,
		applog.FieldAmountCents, msg.AmountCents)
	return nil
}

// Count returns how many events were written.
func (t *EventTail) Count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}
