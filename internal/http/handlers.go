package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"expenseadvisor/internal/core"
	"expenseadvisor/internal/export"
	applog "expenseadvisor/internal/log"
	"expenseadvisor/internal/services"
	"expenseadvisor/internal/sessions"
)

const (
	msgExpenseAdded = "Expense added successfully!"
	msgOverBudget   = "You have exceeded your monthly budget after savings!"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if fail := RequireGET(r); fail != nil {
		fail.Write(w)
		return
	}
	sess, _ := sessionFrom(r.Context())
	s.render(w, r, "index.html", s.newPageData(services.NewView(sess)))
}

// handlePartial re-renders one block of the page from the current session.
func (s *Server) handlePartial(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fail := RequireGET(r); fail != nil {
			fail.Write(w)
			return
		}
		sess, _ := sessionFrom(r.Context())
		s.render(w, r, name, s.newPageData(services.NewView(sess)))
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if fail := RequirePOST(r); fail != nil {
		fail.Write(w)
		return
	}
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)
	sess, _ := sessionFrom(ctx)

	form, err := ParseExpenseForm(p)
	if err != nil {
		s.validationError(w, r, err)
		return
	}

	e, err := s.svc.AddExpense(ctx, sess.ID, form.Entry())
	switch {
	case err == nil:
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrInvalidDescription):
		s.validationError(w, r, err)
		return
	case errors.Is(err, sessions.ErrSessionNotFound):
		sessionExpired(w)
		return
	default:
		applog.NewStructuredLogger(logger).LogError(ctx, "Failed to save expense", err,
			applog.ComponentLedger, applog.OpAppend,
			applog.NewFields().WithExpense("", form.Category.String(), form.Description, form.Amount.Cents))
		InternalServerError("Error saving expense").
			TriggerErrorNotification("Error saving expense").
			Write(w)
		return
	}

	applog.NewStructuredLogger(logger).LogExpenseAppended(ctx, sess.ID,
		e.Date.String(), e.Category.String(), e.Description, e.Amount.Cents)

	NewResponse().
		TriggerExpenseCreated(e.Date.String(), e.Category.String()).
		TriggerFormReset().
		TriggerSuccessNotification(msgExpenseAdded).
		BodyHTML(`<div class="success">` + msgExpenseAdded + `</div>`).
		Write(w)
}

// handleUpdateBudget stores income and savings goal and answers with the
// refreshed summary block.
func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	if fail := RequirePOST(r); fail != nil {
		fail.Write(w)
		return
	}
	p, fail := ParseBodyOrFail(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)
	sess, _ := sessionFrom(ctx)

	settings, err := ParseBudgetForm(p)
	if err != nil {
		s.validationError(w, r, err)
		return
	}

	if err := s.svc.UpdateBudget(ctx, sess.ID, settings); err != nil {
		switch {
		case errors.Is(err, core.ErrNegativeBudget):
			s.validationError(w, r, err)
		case errors.Is(err, sessions.ErrSessionNotFound):
			sessionExpired(w)
		default:
			applog.NewStructuredLogger(logger).LogError(ctx, "Failed to update budget", err,
				applog.ComponentLedger, applog.OpUpdate,
				applog.NewFields().WithBudget(settings.MonthlyIncome.Cents, settings.SavingsGoal.Cents))
			InternalServerError("Error saving budget").Write(w)
		}
		return
	}

	view, err := s.svc.Snapshot(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			sessionExpired(w)
			return
		}
		logger.ErrorContext(ctx, "Failed to load session after budget update", applog.FieldError, err)
		InternalServerError("Error loading summary").Write(w)
		return
	}

	applog.NewStructuredLogger(logger).LogBudgetUpdated(ctx, sess.ID,
		settings.MonthlyIncome.Cents, settings.SavingsGoal.Cents, view.Status.OverBudget)

	body, err := s.renderString("summary", s.newPageData(view))
	if err != nil {
		logger.ErrorContext(ctx, "Template execution failed", applog.FieldError, err, applog.FieldTemplate, "summary")
		InternalServerError("Error rendering summary").Write(w)
		return
	}
	resp := NewResponse().
		TriggerBudgetUpdated(view.Status.OverBudget).
		BodyHTML(body)
	if view.Status.OverBudget {
		resp.TriggerWarningNotification(msgOverBudget)
	}
	resp.Write(w)
}

// handleExportCSV downloads the session's ledger. An empty ledger yields the
// header row only.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if fail := RequireGET(r); fail != nil {
		fail.Write(w)
		return
	}
	ctx := r.Context()
	sess, _ := sessionFrom(ctx)
	entries := sess.Ledger.Entries()

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, entries); err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "CSV export failed", err,
			applog.ComponentExport, applog.OpExport, nil)
		InternalServerError("Export failed").Write(w)
		return
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentExport).DebugContext(ctx, "CSV exported",
		"rows", len(entries))

	NewResponse().
		Header("Content-Type", export.ContentType+"; charset=utf-8").
		Header("Content-Disposition", `attachment; filename="`+export.FileName+`"`).
		Header("Cache-Control", "no-store").
		Body(buf.Bytes()).
		Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.svc.Ping(ctx); err != nil {
		checks["session_store"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["session_store"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}
	checks["security"] = map[string]any{
		"suspicious_requests": s.detector.GetMetrics().SuspiciousRequests,
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// validationError answers 422 with the user-facing message of err.
func (s *Server) validationError(w http.ResponseWriter, r *http.Request, err error) {
	msg := "Invalid input"
	var fe *FieldError
	switch {
	case errors.As(err, &fe):
		msg = fe.Message
	case errors.Is(err, core.ErrInvalidAmount):
		msg = "Amount must be a number of at least 0"
	case errors.Is(err, core.ErrInvalidCategory):
		msg = "Choose one of: Food, Transport, Entertainment, Bills, Other"
	case errors.Is(err, core.ErrInvalidDescription):
		msg = "Description must be a single line"
	case errors.Is(err, core.ErrNegativeBudget):
		msg = "Income and savings goal must be at least 0"
	}

	applog.FromContext(r.Context()).DebugContext(r.Context(), "Rejected input",
		applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeValidation)

	UnprocessableEntityError(msg).
		TriggerErrorNotification(msg).
		Write(w)
}

func sessionExpired(w http.ResponseWriter) {
	ErrorResponse(http.StatusConflict, "Your session expired. Reload the page to start a new one.").Write(w)
}

// render executes a template into a buffer first so that a failure turns
// into a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		InternalServerError("templates not loaded").Write(w)
		return
	}
	body, err := s.renderString(name, data)
	if err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).ErrorContext(r.Context(),
			"Template execution failed", applog.FieldError, err, applog.FieldTemplate, name)
		InternalServerError("Error rendering page").Write(w)
		return
	}
	NewResponse().BodyHTML(body).Write(w)
}

func (s *Server) renderString(name string, data any) (string, error) {
	if s.templates == nil {
		return "", errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
