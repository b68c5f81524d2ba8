package dataset

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Summary holds descriptive statistics of one numeric column over its
// non-missing cells.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
}

// Describe summarises every numeric column, in column order. Columns with no
// non-missing cells report Count 0 and NaN statistics.
func (f *Frame) Describe() []Summary {
	var out []Summary
	for _, c := range f.cols {
		if c.Kind != Numeric {
			continue
		}
		data := make(stats.Float64Data, 0, len(c.Num))
		for _, v := range c.Num {
			if !math.IsNaN(v) {
				data = append(data, v)
			}
		}
		s := Summary{Column: c.Name, Count: len(data)}
		if len(data) == 0 {
			s.Mean, s.Std, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
			out = append(out, s)
			continue
		}
		// errors are only returned for empty input, excluded above
		s.Mean, _ = stats.Mean(data)
		s.Std, _ = stats.StandardDeviationSample(data)
		s.Min, _ = stats.Min(data)
		s.Max, _ = stats.Max(data)
		out = append(out, s)
	}
	return out
}
