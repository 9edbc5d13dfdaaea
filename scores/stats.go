package scores

import "sort"

// Summary aggregates a ranking
type Summary struct {
	Games   int     `json:"games"`
	Best    int     `json:"best"`
	Worst   int     `json:"worst"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
}

// Summarize computes aggregate statistics over entries in any order
func Summarize(entries []Entry) Summary {
	if len(entries) == 0 {
		return Summary{}
	}

	all := make([]float64, 0, len(entries))
	var total float64
	best, worst := entries[0].Score, entries[0].Score
	for _, e := range entries {
		total += float64(e.Score)
		all = append(all, float64(e.Score))
		best = max(best, e.Score)
		worst = min(worst, e.Score)
	}

	return Summary{
		Games:   len(entries),
		Best:    best,
		Worst:   worst,
		Average: total / float64(len(entries)),
		Median:  median(all),
	}
}

func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 0 {
		return (values[n/2-1] + values[n/2]) / 2
	}
	return values[n/2]
}
