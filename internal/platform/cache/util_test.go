package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeUntilNextSession(t *testing.T) {
	t.Parallel()

	pkt := karachi()

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{
			name: "before open on a weekday",
			now:  time.Date(2025, 1, 15, 8, 30, 0, 0, pkt), // Wednesday
			want: time.Hour,
		},
		{
			name: "after open rolls to next day",
			now:  time.Date(2025, 1, 15, 15, 30, 0, 0, pkt),
			want: 18 * time.Hour,
		},
		{
			name: "exactly at open rolls to next day",
			now:  time.Date(2025, 1, 15, 9, 30, 0, 0, pkt),
			want: 24 * time.Hour,
		},
		{
			name: "friday evening skips the weekend",
			now:  time.Date(2025, 1, 17, 17, 30, 0, 0, pkt),
			want: 64 * time.Hour,
		},
		{
			name: "saturday morning waits for monday",
			now:  time.Date(2025, 1, 18, 9, 0, 0, 0, pkt),
			want: 48*time.Hour + 30*time.Minute,
		},
		{
			name: "utc input is converted",
			now:  time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC), // 08:00 PKT
			want: 90 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TimeUntilNextSession(tt.now))
		})
	}
}

func TestTimeUntilNextSession_AlwaysPositive(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7*24; i++ {
		d := TimeUntilNextSession(start.Add(time.Duration(i) * time.Hour))
		if d <= 0 || d > 4*24*time.Hour {
			t.Fatalf("hour %d: unexpected duration %v", i, d)
		}
	}
}
