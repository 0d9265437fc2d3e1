package engine

import (
	"testing"
	"time"
)

func TestClockBudget(t *testing.T) {
	tests := []struct {
		name   string
		limits ClockLimits
		side   Side
		ply    int
		want   time.Duration
		ok     bool
	}{
		{"movetime", ClockLimits{MoveTime: 700 * time.Millisecond}, White, 0, 700 * time.Millisecond, true},
		{"infinite", ClockLimits{Infinite: true}, Black, 0, InfiniteBudget, true},
		{"no clock", ClockLimits{}, White, 10, 0, false},
		{"moves to go", ClockLimits{Time: [2]time.Duration{0, 20 * time.Second}, MovesToGo: 10}, Black, 40, 2 * time.Second, true},
		{"increment", ClockLimits{Time: [2]time.Duration{10 * time.Second}, Inc: [2]time.Duration{time.Second}, MovesToGo: 10}, White, 40, 1900 * time.Millisecond, true},
		{"reserve", ClockLimits{Time: [2]time.Duration{100 * time.Millisecond}, Inc: [2]time.Duration{time.Second}, MovesToGo: 1}, White, 40, 80 * time.Millisecond, true},
		{"floor", ClockLimits{Time: [2]time.Duration{5 * time.Millisecond}}, White, 40, minBudget, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.limits.Budget(tt.side, tt.ply)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Budget = %v %v, want %v %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
