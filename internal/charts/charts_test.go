package charts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseadvisor/internal/core"
)

func TestPie_TwoCategories(t *testing.T) {
	pc := Pie([]core.CategoryAmount{
		{Category: core.Food, Amount: core.Money{Cents: 25000}},
		{Category: core.Transport, Amount: core.Money{Cents: 5000}},
	}, 100)

	require.Len(t, pc.Slices, 2)
	assert.Equal(t, 300.0, pc.Size())

	food := pc.Slices[0]
	assert.Equal(t, "Food", food.Category)
	assert.Equal(t, "83.3%", food.Label)
	assert.Equal(t, "250.00", food.Amount)
	// first wedge starts at 12 o'clock and is the large arc
	assert.True(t, strings.HasPrefix(food.Path, "M 150 150 L 150 50 A 100 100 0 1 0 "), food.Path)

	transport := pc.Slices[1]
	assert.Equal(t, "16.7%", transport.Label)
	assert.Contains(t, transport.Path, " A 100 100 0 0 0 ")
	assert.NotEqual(t, food.Color, transport.Color)

	assert.InDelta(t, 100.0, food.Percent+transport.Percent, 1e-9)
}

func TestPie_SingleCategoryIsFullCircle(t *testing.T) {
	pc := Pie([]core.CategoryAmount{{Category: core.Bills, Amount: core.Money{Cents: 1}}}, 80)

	require.Len(t, pc.Slices, 1)
	assert.True(t, pc.Slices[0].Full)
	assert.Empty(t, pc.Slices[0].Path)
	assert.Equal(t, "100.0%", pc.Slices[0].Label)
}

func TestPie_ZeroTotalHasNoSlices(t *testing.T) {
	assert.Empty(t, Pie(nil, 100).Slices)
	assert.Empty(t, Pie([]core.CategoryAmount{{Category: core.Food}}, 100).Slices)
}

func TestBars_ScaledToPeak(t *testing.T) {
	bc := Bars([]core.DateAmount{
		{Date: core.NewDate(2025, 3, 14), Amount: core.Money{Cents: 10000}},
		{Date: core.NewDate(2025, 3, 15), Amount: core.Money{Cents: 5000}},
	}, 200, 100)

	require.Len(t, bc.Bars, 2)
	assert.Equal(t, Bar{Label: "2025-03-14", Amount: "100.00", X: 15, Y: 0, W: 70, H: 100}, bc.Bars[0])
	assert.Equal(t, Bar{Label: "2025-03-15", Amount: "50.00", X: 115, Y: 50, W: 70, H: 50}, bc.Bars[1])
	assert.Equal(t, 50.0, bc.Bars[0].CenterX())
	assert.Equal(t, 150.0, bc.Bars[1].CenterX())
}

func TestBars_AllZero(t *testing.T) {
	bc := Bars([]core.DateAmount{{Date: core.NewDate(2025, 1, 1)}}, 100, 50)
	require.Len(t, bc.Bars, 1)
	assert.Equal(t, 0.0, bc.Bars[0].H)
	assert.Equal(t, 50.0, bc.Bars[0].Y)
	assert.Empty(t, Bars(nil, 100, 50).Bars)
}
