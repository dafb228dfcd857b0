// Package http provides the HTTP server, session handling and HTMX handlers.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMX events the page listens for.
const (
	EventExpenseCreated = "expense:created"
	EventBudgetUpdated  = "budget:updated"
	EventFormReset      = "form:reset"
	EventNotification   = "show-notification"
)

// NotificationType selects the style of a toast in the page.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is the payload of a show-notification event.
type Notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

type expenseCreatedEvent struct {
	Date     string `json:"date"`
	Category string `json:"category"`
}

type budgetUpdatedEvent struct {
	OverBudget bool `json:"over_budget"`
}

// Response collects status, headers, HX-Trigger events and body, and writes
// them in one go.
type Response struct {
	status int
	header http.Header
	events map[string]any
	body   []byte
}

// NewResponse starts a 200 response with no body.
func NewResponse() *Response {
	return &Response{status: http.StatusOK, header: make(http.Header)}
}

func (b *Response) Status(code int) *Response {
	b.status = code
	return b
}

func (b *Response) Header(name, value string) *Response {
	b.header.Set(name, value)
	return b
}

// Trigger queues an HX-Trigger event. A repeated name keeps the last payload.
func (b *Response) Trigger(name string, payload any) *Response {
	if b.events == nil {
		b.events = make(map[string]any)
	}
	b.events[name] = payload
	return b
}

// TriggerExpenseCreated tells the ledger, summary and chart partials to reload.
func (b *Response) TriggerExpenseCreated(date, category string) *Response {
	return b.Trigger(EventExpenseCreated, expenseCreatedEvent{Date: date, Category: category})
}

func (b *Response) TriggerBudgetUpdated(overBudget bool) *Response {
	return b.Trigger(EventBudgetUpdated, budgetUpdatedEvent{OverBudget: overBudget})
}

// TriggerFormReset clears the expense form.
func (b *Response) TriggerFormReset() *Response {
	return b.Trigger(EventFormReset, struct{}{})
}

// TriggerNotification shows a toast for durationMs milliseconds.
func (b *Response) TriggerNotification(kind NotificationType, message string, durationMs int) *Response {
	return b.Trigger(EventNotification, Notification{Type: kind, Message: message, Duration: durationMs})
}

func (b *Response) TriggerSuccessNotification(message string) *Response {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *Response) TriggerWarningNotification(message string) *Response {
	return b.TriggerNotification(NotificationWarning, message, 5000)
}

func (b *Response) TriggerErrorNotification(message string) *Response {
	return b.TriggerNotification(NotificationError, message, 5000)
}

func (b *Response) Body(content []byte) *Response {
	b.body = content
	return b
}

// BodyHTML sets an HTML body and its content type.
func (b *Response) BodyHTML(html string) *Response {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(html)
	return b
}

func (b *Response) Write(w http.ResponseWriter) {
	dst := w.Header()
	for name, values := range b.header {
		dst[name] = values
	}
	if len(b.events) > 0 {
		if raw, err := json.Marshal(b.events); err == nil {
			dst.Set("HX-Trigger", string(raw))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse renders message, escaped, inside an error div.
func ErrorResponse(code int, message string) *Response {
	return NewResponse().
		Status(code).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(message string) *Response {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *Response {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *Response {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *Response {
	return ErrorResponse(http.StatusNotFound, message)
}

// MethodNotAllowedError answers 405 with an empty body and the Allow header.
func MethodNotAllowedError(allowed string) *Response {
	return NewResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowed)
}
