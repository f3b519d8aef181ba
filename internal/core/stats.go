package core

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summarize computes summary statistics over the logical samples.
// Padding cells of a grid are not included; pass the flat sequence.
func Summarize(seq Sequence) Stats {
	if len(seq) == 0 {
		return Stats{}
	}
	mean, std := stat.MeanStdDev(seq, nil)
	if len(seq) == 1 {
		std = 0
	}
	return Stats{
		Min:    floats.Min(seq),
		Max:    floats.Max(seq),
		Mean:   mean,
		StdDev: std,
	}
}
