package levels_test

import (
	"testing"

	"github.com/maestros-community/backend/internal/app/system/levels"
)

func TestFromXP(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{-50, 0},
		{0, 0},
		{99, 0},
		{100, 1},
		{399, 1},
		{400, 2},
		{2500, 5},
		{10000, 10},
	}
	for _, c := range cases {
		if got := levels.FromXP(c.xp); got != c.want {
			t.Errorf("FromXP(%d): got %d, want %d", c.xp, got, c.want)
		}
	}
}

func TestXPFor(t *testing.T) {
	if got := levels.XPFor(0); got != 0 {
		t.Errorf("XPFor(0): got %d, want 0", got)
	}
	if got := levels.XPFor(3); got != 900 {
		t.Errorf("XPFor(3): got %d, want 900", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for level := 1; level <= 20; level++ {
		xp := levels.XPFor(level)
		if got := levels.FromXP(xp); got != level {
			t.Errorf("FromXP(XPFor(%d)): got %d", level, got)
		}
		if got := levels.FromXP(xp - 1); got != level-1 {
			t.Errorf("FromXP(XPFor(%d)-1): got %d, want %d", level, got, level-1)
		}
	}
}
