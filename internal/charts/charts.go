// Package charts computes the geometry of the category pie chart and the
// daily bar chart. Templates render the results as inline SVG.
package charts

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"expenseadvisor/internal/core"
)

// Palette follows the default matplotlib color cycle.
var Palette = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b"}

const (
	startAngle    = 90.0
	pctDistance   = 0.6
	labelDistance = 1.1
)

// PieSlice is one wedge of the category pie.
type PieSlice struct {
	Category string
	Amount   string
	Percent  float64
	Label    string // e.g. "83.3%"
	Color    string
	Path     string // SVG path; empty when Full is set
	Full     bool   // the only slice, drawn as a circle
	PctX     float64
	PctY     float64
	NameX    float64
	NameY    float64
}

// PieChart is a pie centered at (CX, CY).
type PieChart struct {
	CX, CY, R float64
	Slices    []PieSlice
}

// Pie lays out one slice per category, starting at 12 o'clock and going
// counter-clockwise. A zero total yields no slices.
func Pie(totals []core.CategoryAmount, radius float64) PieChart {
	margin := radius * 0.5
	pc := PieChart{CX: radius + margin, CY: radius + margin, R: radius}

	var total int64
	for _, t := range totals {
		total += t.Amount.Cents
	}
	if total <= 0 {
		return pc
	}

	angle := startAngle
	for i, t := range totals {
		frac := float64(t.Amount.Cents) / float64(total)
		sweep := frac * 360
		mid := angle + sweep/2

		s := PieSlice{
			Category: t.Category.String(),
			Amount:   t.Amount.String(),
			Percent:  frac * 100,
			Label:    fmt.Sprintf("%1.1f%%", frac*100),
			Color:    Palette[i%len(Palette)],
		}
		s.PctX, s.PctY = pc.point(mid, radius*pctDistance)
		s.NameX, s.NameY = pc.point(mid, radius*labelDistance)

		if frac >= 1 {
			s.Full = true
		} else if frac > 0 {
			s.Path = pc.wedge(angle, angle+sweep)
		}
		pc.Slices = append(pc.Slices, s)
		angle += sweep
	}
	return pc
}

// Size is the width and height of the square viewBox holding the pie and its labels.
func (pc PieChart) Size() float64 {
	return round2(pc.CX * 2)
}

// point converts a polar position to SVG coordinates (y grows downwards).
func (pc PieChart) point(deg, r float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return round2(pc.CX + r*math.Cos(rad)), round2(pc.CY - r*math.Sin(rad))
}

func (pc PieChart) wedge(from, to float64) string {
	x1, y1 := pc.point(from, pc.R)
	x2, y2 := pc.point(to, pc.R)
	large := 0
	if to-from > 180 {
		large = 1
	}
	var b strings.Builder
	b.WriteString("M " + num(pc.CX) + " " + num(pc.CY))
	b.WriteString(" L " + num(x1) + " " + num(y1))
	// sweep flag 0 draws counter-clockwise on screen
	b.WriteString(" A " + num(pc.R) + " " + num(pc.R) + " 0 " + strconv.Itoa(large) + " 0 " + num(x2) + " " + num(y2))
	b.WriteString(" Z")
	return b.String()
}

// Bar is one column of the daily chart.
type Bar struct {
	Label  string
	Amount string
	X, Y   float64
	W, H   float64
}

// BarChart holds bars scaled into a Width x Height plot area.
type BarChart struct {
	Width, Height float64
	Bars          []Bar
}

// Bars lays out one bar per date; the largest total spans the full height.
func Bars(totals []core.DateAmount, width, height float64) BarChart {
	bc := BarChart{Width: width, Height: height}
	if len(totals) == 0 {
		return bc
	}

	var peak int64
	for _, t := range totals {
		if t.Amount.Cents > peak {
			peak = t.Amount.Cents
		}
	}

	slot := width / float64(len(totals))
	barW := slot * 0.7
	for i, t := range totals {
		h := 0.0
		if peak > 0 {
			h = float64(t.Amount.Cents) / float64(peak) * height
		}
		bc.Bars = append(bc.Bars, Bar{
			Label:  t.Date.String(),
			Amount: t.Amount.String(),
			X:      round2(float64(i)*slot + (slot-barW)/2),
			Y:      round2(height - h),
			W:      round2(barW),
			H:      round2(h),
		})
	}
	return bc
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CenterX is the horizontal middle of the bar, where its labels go.
func (b Bar) CenterX() float64 {
	return round2(b.X + b.W/2)
}
