package scores

import (
	"fmt"
	"testing"
)

func entries(scores ...int) []Entry {
	out := make([]Entry, len(scores))
	for i, s := range scores {
		out[i] = Entry{SessionID: fmt.Sprint(i), Score: s}
	}
	return out
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		in   []Entry
		want Summary
	}{
		{"empty", nil, Summary{}},
		{"single", entries(4), Summary{Games: 1, Best: 4, Worst: 4, Average: 4, Median: 4}},
		{"odd", entries(5, 1, 3), Summary{Games: 3, Best: 5, Worst: 1, Average: 3, Median: 3}},
		{"even", entries(1, 2, 4, 10), Summary{Games: 4, Best: 10, Worst: 1, Average: 4.25, Median: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.in); got != tt.want {
				t.Errorf("Summarize = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRankOrdersByScoreThenTime(t *testing.T) {
	in := []Entry{
		{ID: 1, Score: 2, RecordedAt: t0},
		{ID: 2, Score: 9, RecordedAt: t0},
		{ID: 3, Score: 2, RecordedAt: t0.Add(-1)},
		{ID: 4, Score: 2, RecordedAt: t0.Add(-1)},
	}
	Rank(in)
	want := []int64{2, 3, 4, 1}
	for i, id := range want {
		if in[i].ID != id {
			t.Fatalf("rank %d = id %d, want %d (%+v)", i, in[i].ID, id, in)
		}
	}
}
