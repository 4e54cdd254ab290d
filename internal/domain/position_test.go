package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuaranteedFloor(t *testing.T) {
	tests := []struct {
		name     string
		movement float64
		spread   float64
		volume   float64
		want     float64
	}{
		{"movement beats spread", 2.0, 0.5, 1.0, 1.0},
		{"movement down beats spread", -2.0, 0.5, 1.0, 1.0},
		{"spread eats the movement", 0.8, 0.5, 1.0, 0},
		{"exactly at break even", 1.0, 0.5, 1.0, 0},
		{"volume scales the floor", 2.0, 0.5, 3.0, 3.0},
		{"no movement", 0, 0.5, 1.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, GuaranteedFloor(tt.movement, tt.spread, tt.volume), 1e-9)
		})
	}
}

func TestLegProfit(t *testing.T) {
	// A buy leg gains when price rises, a sell leg when it falls; the
	// losing side is always clamped at zero.
	assert.InDelta(t, 1.55, LegProfit(SideBuy, 102.25, 103.80, 1.0), 1e-9)
	assert.Zero(t, LegProfit(SideSell, 101.75, 103.90, 1.0))

	assert.InDelta(t, 2.0, LegProfit(SideSell, 102.0, 100.0, 1.0), 1e-9)
	assert.Zero(t, LegProfit(SideBuy, 102.0, 100.0, 1.0))

	// Volume scales the winning side.
	assert.InDelta(t, 3.1, LegProfit(SideBuy, 102.25, 103.80, 2.0), 1e-9)
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, SideSell, SideBuy.Opposite())
	assert.Equal(t, SideBuy, SideSell.Opposite())
}
