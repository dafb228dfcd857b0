package http

import (
	"html/template"

	"expenseadvisor/internal/charts"
	"expenseadvisor/internal/core"
	"expenseadvisor/internal/services"
	appweb "expenseadvisor/web"
)

const (
	pieRadius = 120
	barWidth  = 640
	barHeight = 220
)

func parseTemplates(currency string) (*template.Template, error) {
	funcs := template.FuncMap{
		"money": func(m core.Money) string { return formatMoney(currency, m) },
		"plain": func(m core.Money) string { return m.String() },
	}
	return template.New("").Funcs(funcs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// pageData feeds index.html and every partial.
type pageData struct {
	Currency   string
	Categories []core.Category
	View       services.View
	Pie        charts.PieChart
	Bars       charts.BarChart
}

func (s *Server) newPageData(v services.View) pageData {
	return pageData{
		Currency:   s.currency,
		Categories: core.Categories(),
		View:       v,
		Pie:        charts.Pie(v.ByCategory, pieRadius),
		Bars:       charts.Bars(v.ByDate, barWidth, barHeight),
	}
}

// Empty reports whether the ledger has no entries yet.
func (p pageData) Empty() bool {
	return len(p.View.Entries) == 0
}
