package sweep

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics of a sweep.
type Summary struct {
	Count      int
	Mean       float64
	StdDev     float64
	Min        float64
	Max        float64
	MaxDelta   float64 // largest |value[i+1] - value[i]|
	TotalSteps int
}

// Summarize computes statistics over samples in step order.
func Summarize(samples []Sample) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, ErrEmpty
	}
	vals := values(samples)
	s := Summary{
		Count: len(vals),
		Mean:  stat.Mean(vals, nil),
		Min:   floats.Min(vals),
		Max:   floats.Max(vals),
	}
	if len(vals) > 1 {
		s.StdDev = stat.StdDev(vals, nil)
	}
	for i, smp := range samples {
		s.TotalSteps += smp.Steps
		if i > 0 {
			s.MaxDelta = math.Max(s.MaxDelta, math.Abs(vals[i]-vals[i-1]))
		}
	}
	return s, nil
}

func values(samples []Sample) []float64 {
	vals := make([]float64, len(samples))
	for i, s := range samples {
		vals[i] = s.Value
	}
	return vals
}

// WriteCSV writes samples with a header row.
func WriteCSV(w io.Writer, samples []Sample) error {
	if err := gocsv.Marshal(samples, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ReadCSV reads samples written by WriteCSV.
func ReadCSV(r io.Reader) ([]Sample, error) {
	var samples []Sample
	if err := gocsv.Unmarshal(r, &samples); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return samples, nil
}

// WriteChart renders the sweep as an interactive HTML line chart.
func WriteChart(w io.Writer, title string, samples []Sample) error {
	if len(samples) == 0 {
		return ErrEmpty
	}
	page := components.NewPage().SetPageTitle(title)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "step"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "noise"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside"},
			opts.DataZoom{Type: "slider"},
		),
	)

	steps := make([]int, len(samples))
	data := make([]opts.LineData, len(samples))
	for i, s := range samples {
		steps[i] = s.Step
		data[i] = opts.LineData{Value: s.Value}
	}
	line.SetXAxis(steps).AddSeries("value", data)
	page.AddCharts(line)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
