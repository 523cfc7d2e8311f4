package capsule

import (
	"testing"
	"time"
)

func TestEnvelope_Unlockable(t *testing.T) {
	t.Parallel()

	unlock := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	env := &Envelope{UnlockDate: unlock}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before", now: unlock.Add(-time.Second), want: false},
		{name: "exactly at", now: unlock, want: true},
		{name: "after", now: unlock.Add(time.Second), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := env.Unlockable(tt.now); got != tt.want {
				t.Errorf("Unlockable(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestEnvelope_Remaining(t *testing.T) {
	t.Parallel()

	unlock := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	env := &Envelope{UnlockDate: unlock}

	if got := env.Remaining(unlock.Add(-90 * time.Second)); got != 90*time.Second {
		t.Errorf("Remaining() = %v, want 90s", got)
	}
	if got := env.Remaining(unlock); got != 0 {
		t.Errorf("Remaining() at unlock date = %v, want 0", got)
	}
	if got := env.Remaining(unlock.Add(time.Hour)); got != 0 {
		t.Errorf("Remaining() after unlock date = %v, want 0", got)
	}
}
