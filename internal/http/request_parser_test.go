package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"expenseadvisor/internal/core"
)

func formParser(t *testing.T, values url.Values) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestParseExpenseForm(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		wantField string
		wantErr   error
		want      ExpenseForm
	}{
		{
			name: "valid",
			form: url.Values{"category": {"Food"}, "description": {" Lunch "}, "amount": {"250"}},
			want: ExpenseForm{Category: core.Food, Description: "Lunch", Amount: core.Money{Cents: 25000}},
		},
		{
			name: "zero amount and empty description",
			form: url.Values{"category": {"Other"}, "amount": {"0"}},
			want: ExpenseForm{Category: core.Other, Amount: core.Money{}},
		},
		{
			name: "comma decimal",
			form: url.Values{"category": {"Bills"}, "amount": {"12,5"}},
			want: ExpenseForm{Category: core.Bills, Amount: core.Money{Cents: 1250}},
		},
		{
			name:      "unknown category",
			form:      url.Values{"category": {"Rent"}, "amount": {"1"}},
			wantField: "category",
			wantErr:   core.ErrInvalidCategory,
		},
		{
			name:      "negative amount",
			form:      url.Values{"category": {"Food"}, "amount": {"-1"}},
			wantField: "amount",
			wantErr:   core.ErrInvalidAmount,
		},
		{
			name:      "garbage amount",
			form:      url.Values{"category": {"Food"}, "amount": {"abc"}},
			wantField: "amount",
			wantErr:   core.ErrInvalidAmount,
		},
		{
			name:      "missing amount",
			form:      url.Values{"category": {"Food"}},
			wantField: "amount",
			wantErr:   core.ErrInvalidAmount,
		},
		{
			name:      "description too long",
			form:      url.Values{"category": {"Food"}, "amount": {"1"}, "description": {strings.Repeat("x", 201)}},
			wantField: "description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExpenseForm(formParser(t, tt.form))

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %+v, want %+v", got, tt.want)
				}
				return
			}

			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %v, want *FieldError", err)
			}
			if fe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", fe.Field, tt.wantField)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpenseForm_EntryLeavesDateForService(t *testing.T) {
	e := ExpenseForm{Category: core.Transport, Description: "Bus", Amount: core.Money{Cents: 5000}}.Entry()
	if !e.Date.IsZero() {
		t.Errorf("Date = %v, want zero", e.Date)
	}
	if e.Category != core.Transport || e.Amount.Cents != 5000 || e.Description != "Bus" {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestParseBudgetForm(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		want      core.BudgetSettings
		wantField string
	}{
		{
			name: "both values",
			form: url.Values{"income": {"1000"}, "savings": {"200"}},
			want: core.BudgetSettings{MonthlyIncome: core.Money{Cents: 100000}, SavingsGoal: core.Money{Cents: 20000}},
		},
		{
			name: "missing values default to zero",
			form: url.Values{},
			want: core.BudgetSettings{},
		},
		{
			name: "savings above income is allowed",
			form: url.Values{"income": {"100"}, "savings": {"150"}},
			want: core.BudgetSettings{MonthlyIncome: core.Money{Cents: 10000}, SavingsGoal: core.Money{Cents: 15000}},
		},
		{
			name:      "negative income",
			form:      url.Values{"income": {"-5"}},
			wantField: "income",
		},
		{
			name:      "bad savings",
			form:      url.Values{"income": {"5"}, "savings": {"lots"}},
			wantField: "savings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBudgetForm(formParser(t, tt.form))
			if tt.wantField != "" {
				var fe *FieldError
				if !errors.As(err, &fe) || fe.Field != tt.wantField {
					t.Fatalf("error = %v, want field %q", err, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}

	if name := parser.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}

	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}

	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}

	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantErr bool
	}{
		{"POST allowed", http.MethodPost, []string{http.MethodPost}, false},
		{"DELETE allowed with multiple", http.MethodDelete, []string{http.MethodDelete, http.MethodPost}, false},
		{"GET not allowed", http.MethodGet, []string{http.MethodPost}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireMethod(req, tt.allowed...)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestRequirePOST(t *testing.T) {
	postReq := httptest.NewRequest(http.MethodPost, "/test", nil)
	if result := RequirePOST(postReq); result != nil {
		t.Error("RequirePOST should allow POST requests")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/test", nil)
	if result := RequirePOST(getReq); result == nil {
		t.Error("RequirePOST should reject GET requests")
	}
}

func TestRequireGET(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodHead} {
		if RequireGET(httptest.NewRequest(m, "/test", nil)) != nil {
			t.Errorf("RequireGET should allow %s", m)
		}
	}
	if RequireGET(httptest.NewRequest(http.MethodPost, "/test", nil)) == nil {
		t.Error("RequireGET should reject POST")
	}
}

func TestParseBodyOrFail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("amount=1"))
	p, fail := ParseBodyOrFail(req)
	if fail != nil {
		t.Fatal("Expected nil for valid form, got error response")
	}
	if p.Get("amount") != "1" {
		t.Errorf("Get('amount') = %q, want '1'", p.Get("amount"))
	}

	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"amount":`))
	if _, fail := ParseBodyOrFail(req); fail == nil {
		t.Error("Expected error response for malformed JSON")
	} else {
		w := httptest.NewRecorder()
		fail.Write(w)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status code = %d, want %d", w.Code, http.StatusBadRequest)
		}
	}

	big := "description=" + strings.Repeat("a", maxBodyBytes+10)
	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(big))
	_, fail = ParseBodyOrFail(req)
	if fail == nil {
		t.Fatal("Expected error response for oversized body")
	}
	w := httptest.NewRecorder()
	fail.Write(w)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestRequestBodyParser_StripsControlCharacters(t *testing.T) {
	p := formParser(t, url.Values{"description": {"Tea\x00\x07 time"}})
	if got := p.Get("description"); got != "Tea time" {
		t.Errorf("Get('description') = %q, want %q", got, "Tea time")
	}
}

func TestSanitizeInput_FoldsLineBreaks(t *testing.T) {
	tests := map[string]string{
		"line1\r\nline2":   "line1 line2",
		"a\rb\nc":          "a b c",
		"tab\tseparated":   "tab separated",
		"  \r\npadded\n  ": "padded",
		"del\x7f":          "del",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseExpenseForm_JSONDescriptionIsSingleLine(t *testing.T) {
	body := `{"category":"Food","description":"line1\r\nline2","amount":"12.50"}`
	req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	form, err := ParseExpenseForm(p)
	if err != nil {
		t.Fatalf("ParseExpenseForm() error = %v", err)
	}
	if form.Description != "line1 line2" {
		t.Errorf("Description = %q, want %q", form.Description, "line1 line2")
	}
}
