package age

import (
	"testing"
	"time"
)

func TestAgeData(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	created := now.Add(-4 * time.Minute)
	future := now.Add(2 * time.Minute)

	cases := []struct {
		name  string
		since time.Time
		want  time.Duration
		ok    bool
	}{
		{
			name:  "uses created time",
			since: created,
			want:  4 * time.Minute,
			ok:    true,
		},
		{
			name:  "clamps future time",
			since: future,
			want:  0,
			ok:    true,
		},
		{
			name:  "missing time",
			since: time.Time{},
			want:  0,
			ok:    false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := AgeData(tc.since, now)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("expected %s/%t, got %s/%t", tc.want, tc.ok, got, ok)
			}
		})
	}
}

func TestFirstSeen(t *testing.T) {
	early := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)

	if got := FirstSeen(late, time.Time{}, early); !got.Equal(early) {
		t.Fatalf("expected %v, got %v", early, got)
	}
	if got := FirstSeen(); !got.IsZero() {
		t.Fatalf("expected zero time, got %v", got)
	}
}
