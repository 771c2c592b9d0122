package schedule

import (
	"errors"
	"testing"
	"time"

	"moneta/internal/core"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	now := date(2023, 6, 15)

	tests := []struct {
		name  string
		start time.Time
		freq  core.Frequency
		want  time.Time
	}{
		{
			name:  "future start returned unchanged",
			start: date(2023, 9, 1),
			freq:  core.Monthly,
			want:  date(2023, 9, 1),
		},
		{
			name:  "monthly from january",
			start: date(2023, 1, 1),
			freq:  core.Monthly,
			want:  date(2023, 7, 1),
		},
		{
			name:  "daily advances to tomorrow",
			start: date(2023, 6, 15),
			freq:  core.Daily,
			want:  date(2023, 6, 16),
		},
		{
			name:  "weekly keeps weekday phase",
			start: date(2023, 6, 1),
			freq:  core.Weekly,
			want:  date(2023, 6, 22),
		},
		{
			name:  "yearly",
			start: date(2021, 3, 10),
			freq:  core.Yearly,
			want:  date(2024, 3, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(tt.start, tt.freq, now)
			if err != nil {
				t.Fatalf("NextOccurrence() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextOccurrenceUnknownFrequency(t *testing.T) {
	_, err := NextOccurrence(date(2023, 1, 1), "bogus", date(2023, 6, 15))
	if !errors.Is(err, ErrUnknownFrequency) {
		t.Errorf("error = %v, want ErrUnknownFrequency", err)
	}
}

func TestNextOccurrenceStrictlyAfterNow(t *testing.T) {
	now := date(2024, 2, 29)
	for _, freq := range []core.Frequency{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		start := date(2020, 1, 31)
		got, err := NextOccurrence(start, freq, now)
		if err != nil {
			t.Fatalf("%s: %v", freq, err)
		}
		if !got.After(now) {
			t.Errorf("%s: NextOccurrence() = %s, not after now %s", freq, got, now)
		}
	}
}

func TestNextOccurrenceReachableByWholeSteps(t *testing.T) {
	now := date(2023, 11, 5)
	start := date(2022, 4, 18)

	got, err := NextOccurrence(start, core.Weekly, now)
	if err != nil {
		t.Fatal(err)
	}
	if hours := got.Sub(start).Hours(); int(hours)%(7*24) != 0 {
		t.Errorf("result %s not a whole number of weeks from %s", got, start)
	}
}

func TestNextOccurrenceMonthEndNormalization(t *testing.T) {
	// Jan 31 + 1 month normalizes per time.AddDate: Mar 3 in a
	// non-leap year.
	got, err := NextOccurrence(date(2023, 1, 31), core.Monthly, date(2023, 2, 28))
	if err != nil {
		t.Fatal(err)
	}
	if want := date(2023, 3, 3); !got.Equal(want) {
		t.Errorf("NextOccurrence() = %s, want %s", got, want)
	}
}

func TestNextOccurrenceDeterministic(t *testing.T) {
	now := date(2023, 6, 15)
	a, _ := NextOccurrence(date(2023, 1, 1), core.Monthly, now)
	b, _ := NextOccurrence(date(2023, 1, 1), core.Monthly, now)
	if !a.Equal(b) {
		t.Errorf("projection not deterministic: %s != %s", a, b)
	}
}

func TestNextForRule(t *testing.T) {
	now := date(2023, 6, 15)

	rule := core.RecurrenceRule{
		StartDate: core.NewDate(2023, 1, 1),
		Frequency: core.Monthly,
	}
	next, ok, err := NextForRule(rule, now)
	if err != nil || !ok {
		t.Fatalf("NextForRule() = %v, %v", ok, err)
	}
	if want := date(2023, 7, 1); !next.Equal(want) {
		t.Errorf("NextForRule() = %s, want %s", next, want)
	}

	lapsed := rule
	lapsed.EndDate = core.NewDate(2023, 6, 30)
	if _, ok, _ := NextForRule(lapsed, now); ok {
		t.Error("rule past its end date should report no next occurrence")
	}
}
