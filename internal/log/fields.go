package log

import "log/slog"

// Attribute keys shared by every component.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldSessionID   = "session_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldExpenseDate = "expense_date"
	FieldExpenseDesc = "expense_description"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldIncomeCents = "income_cents"
	FieldSavingsGoal = "savings_cents"
	FieldOverBudget  = "over_budget"
	FieldTemplate    = "template"
)

// Component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentSession   = "session"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentScheduler = "scheduler"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTemplate  = "template"
	ComponentExport    = "export"
)

// Operation names.
const (
	OpRead   = "read"
	OpUpdate = "update"
	OpAppend = "append"
	OpExport = "export"
	OpSweep  = "sweep"
)

const ErrorTypeValidation = "validation_error"

// LogFields is an ordered list of attributes built up before a log call.
type LogFields []slog.Attr

func NewFields() LogFields {
	return make(LogFields, 0, 8)
}

func (f LogFields) With(key string, value any) LogFields {
	return append(f, slog.Any(key, value))
}

func (f LogFields) WithSessionID(id string) LogFields {
	if id == "" {
		return f
	}
	return append(f, slog.String(FieldSessionID, id))
}

func (f LogFields) WithError(err error) LogFields {
	if err == nil {
		return f
	}
	return append(f, slog.String(FieldError, err.Error()))
}

func (f LogFields) WithOperation(op string) LogFields {
	return append(f, slog.String(FieldOperation, op))
}

// WithExpense adds the fields of one ledger entry. An empty date is omitted.
func (f LogFields) WithExpense(date, category, desc string, amountCents int64) LogFields {
	if date != "" {
		f = append(f, slog.String(FieldExpenseDate, date))
	}
	return append(f,
		slog.String(FieldCategory, category),
		slog.String(FieldExpenseDesc, desc),
		slog.Int64(FieldAmountCents, amountCents))
}

func (f LogFields) WithBudget(incomeCents, savingsCents int64) LogFields {
	return append(f,
		slog.Int64(FieldIncomeCents, incomeCents),
		slog.Int64(FieldSavingsGoal, savingsCents))
}

// WithRequest adds method, path and, when present, query and user agent.
func (f LogFields) WithRequest(method, path, query, userAgent string) LogFields {
	f = append(f, slog.String(FieldMethod, method), slog.String(FieldPath, path))
	if query != "" {
		f = append(f, slog.String(FieldQuery, query))
	}
	if userAgent != "" {
		f = append(f, slog.String(FieldUserAgent, userAgent))
	}
	return f
}

// Args converts the fields to slog's alternating argument form.
func (f LogFields) Args() []any {
	args := make([]any, len(f))
	for i, a := range f {
		args[i] = a
	}
	return args
}
