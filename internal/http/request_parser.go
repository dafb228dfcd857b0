// Package http provides the HTTP server, session handling and HTMX handlers.
//
// This file implements utilities for parsing and validating HTTP request data:
// the expense and budget forms, body decoding and method checks.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"expenseadvisor/internal/core"
)

const (
	maxBodyBytes         = 64 << 10
	maxDescriptionLength = 200
)

// FieldError reports which form field failed validation. Message is safe to
// show to the user.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ExpenseForm is the validated input of the expense form. The date is not part
// of the form; the service stamps today's date.
type ExpenseForm struct {
	Category    core.Category
	Description string
	Amount      core.Money
}

// Entry converts the form to a ledger entry with a zero date.
func (f ExpenseForm) Entry() core.ExpenseEntry {
	return core.ExpenseEntry{
		Category:    f.Category,
		Description: f.Description,
		Amount:      f.Amount,
	}
}

// ParseExpenseForm reads category, description and amount. The amount must be
// a number of at least zero.
func ParseExpenseForm(p *RequestBodyParser) (ExpenseForm, error) {
	var f ExpenseForm

	cat, err := core.ParseCategory(p.Get("category"))
	if err != nil {
		return f, &FieldError{Field: "category", Message: "Choose one of: Food, Transport, Entertainment, Bills, Other", Err: err}
	}
	f.Category = cat

	f.Description = p.Get("description")
	if utf8.RuneCountInString(f.Description) > maxDescriptionLength {
		return f, &FieldError{Field: "description", Message: "Description is too long (max 200 characters)"}
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return f, &FieldError{Field: "amount", Message: "Amount must be a number of at least 0", Err: err}
	}
	f.Amount = amount

	return f, nil
}

// ParseBudgetForm reads monthly income and savings goal. Missing values count
// as zero.
func ParseBudgetForm(p *RequestBodyParser) (core.BudgetSettings, error) {
	var b core.BudgetSettings

	income, err := parseOptionalAmount(p.Get("income"))
	if err != nil {
		return b, &FieldError{Field: "income", Message: "Monthly income must be a number of at least 0", Err: err}
	}
	savings, err := parseOptionalAmount(p.Get("savings"))
	if err != nil {
		return b, &FieldError{Field: "savings", Message: "Savings goal must be a number of at least 0", Err: err}
	}

	b.MonthlyIncome = income
	b.SavingsGoal = savings
	return b, nil
}

func parseOptionalAmount(s string) (core.Money, error) {
	if strings.TrimSpace(s) == "" {
		return core.Money{}, nil
	}
	return core.ParseAmount(s)
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads at most maxBodyBytes of the body once.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

var errBodyTooLarge = errors.New("request body too large")

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *Response {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *Response {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET accepts GET and HEAD.
func RequireGET(r *http.Request) *Response {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// ParseBodyOrFail parses the request body and returns an error response on
// failure. Returns the parser and nil on success.
func ParseBodyOrFail(r *http.Request) (*RequestBodyParser, *Response) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			return nil, ErrorResponse(http.StatusRequestEntityTooLarge, "Request too large")
		}
		return nil, BadRequestError("Invalid request format")
	}
	return p, nil
}
