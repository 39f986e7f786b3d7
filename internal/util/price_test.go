package util

import (
	"math"
	"testing"
)

func TestTickRounding(t *testing.T) {
	tests := []struct {
		name               string
		x, tick            float64
		round, floor, ceil float64
	}{
		{"penny premium", 2.347, 0.01, 2.35, 2.34, 2.35},
		{"tie rounds away from zero", 1.235, 0.01, 1.24, 1.23, 1.24},
		{"nickel tick", 5.27, 0.05, 5.25, 5.25, 5.30},
		{"exact multiple", 1.25, 0.05, 1.25, 1.25, 1.25},
		{"negative premium", -1.237, 0.01, -1.24, -1.24, -1.23},
		{"negative exact multiple", -1.25, 0.05, -1.25, -1.25, -1.25},
		{"noise just below boundary", 1.2999999999999, 0.05, 1.30, 1.25, 1.30},
		{"noise just above boundary", 1.2500000000001, 0.05, 1.25, 1.25, 1.30},
	}

	check := func(t *testing.T, fn string, got, want float64) {
		t.Helper()
		if math.Abs(got-want) > 1e-10 {
			t.Errorf("%s = %v, want %v", fn, got, want)
		}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check(t, "RoundToTick", RoundToTick(tt.x, tt.tick), tt.round)
			check(t, "FloorToTick", FloorToTick(tt.x, tt.tick), tt.floor)
			check(t, "CeilToTick", CeilToTick(tt.x, tt.tick), tt.ceil)
		})
	}
}

func TestTickRoundingDegenerateInputs(t *testing.T) {
	t.Run("zero tick returns input", func(t *testing.T) {
		for _, fn := range []func(float64, float64) float64{RoundToTick, FloorToTick, CeilToTick} {
			if got := fn(1.2345, 0); got != 1.2345 {
				t.Errorf("got %v, want input unchanged", got)
			}
		}
	})

	t.Run("NaN passes through", func(t *testing.T) {
		for _, fn := range []func(float64, float64) float64{RoundToTick, FloorToTick, CeilToTick} {
			if got := fn(math.NaN(), 0.01); !math.IsNaN(got) {
				t.Errorf("got %v, want NaN", got)
			}
		}
	})

	t.Run("infinities pass through", func(t *testing.T) {
		if got := RoundToTick(math.Inf(1), 0.01); !math.IsInf(got, 1) {
			t.Errorf("got %v, want +Inf", got)
		}
		if got := RoundToTick(math.Inf(-1), 0.01); !math.IsInf(got, -1) {
			t.Errorf("got %v, want -Inf", got)
		}
	})

	t.Run("negative tick uses magnitude", func(t *testing.T) {
		if got := RoundToTick(1.235, -0.01); math.Abs(got-1.24) > 1e-10 {
			t.Errorf("got %v, want 1.24", got)
		}
	})
}
