// Package report renders a recorded session as a standalone HTML page
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/models"
	"github.com/synheart/synheart-breath/internal/recorder"
)

// MaxPoints caps the samples per series; longer recordings are decimated
const MaxPoints = 3000

// Build assembles the report page
func Build(title string, frames []models.Frame, a recorder.Analysis) *components.Page {
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(
		pressureChart(title, frames, a),
		normalizedChart(frames),
		phaseChart(a),
	)
	return page
}

// Write renders the report as HTML
func Write(w io.Writer, title string, frames []models.Frame, a recorder.Analysis) error {
	if err := Build(title, frames, a).Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func decimate(frames []models.Frame) []models.Frame {
	if len(frames) <= MaxPoints {
		return frames
	}
	step := (len(frames) + MaxPoints - 1) / MaxPoints
	out := make([]models.Frame, 0, MaxPoints)
	for i := 0; i < len(frames); i += step {
		out = append(out, frames[i])
	}
	return out
}

func xAxis(frames []models.Frame) []string {
	if len(frames) == 0 {
		return nil
	}
	start := frames[0].AtMs
	labels := make([]string, len(frames))
	for i, f := range frames {
		labels[i] = strconv.FormatFloat(float64(f.AtMs-start)/1000, 'f', 2, 64)
	}
	return labels
}

func series(frames []models.Frame, value func(models.Frame) float64) []opts.LineData {
	items := make([]opts.LineData, 0, len(frames))
	for _, f := range frames {
		items = append(items, opts.LineData{Value: value(f)})
	}
	return items
}

func baseLine(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "macarons", Width: "1100px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "s"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, NameLocation: "middle", NameGap: 40}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	return line
}

func pressureChart(title string, frames []models.Frame, a recorder.Analysis) *charts.Line {
	frames = decimate(frames)
	subtitle := fmt.Sprintf("%d breaths, avg cycle %.0f ms, %.1f bpm", a.BreathCount, a.AvgCycleMs, a.BreathsPerMinute())
	line := baseLine(title, subtitle, "Pa")
	line.SetXAxis(xAxis(frames)).
		AddSeries("delta", series(frames, func(f models.Frame) float64 { return f.Breath.DeltaPa })).
		AddSeries("min bound", series(frames, func(f models.Frame) float64 { return f.Breath.MinDelta })).
		AddSeries("max bound", series(frames, func(f models.Frame) float64 { return f.Breath.MaxDelta }))
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

func normalizedChart(frames []models.Frame) *charts.Line {
	frames = decimate(frames)
	line := baseLine("Normalized signal", "phase: 0 idle, 1 inhale, 2 exhale, 3 hold", "")
	line.SetXAxis(xAxis(frames)).
		AddSeries("normalized", series(frames, func(f models.Frame) float64 { return f.Breath.Normalized })).
		AddSeries("phase", series(frames, func(f models.Frame) float64 { return float64(f.Breath.Phase) }))
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

func phaseChart(a recorder.Analysis) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "macarons", Width: "1100px"}),
		charts.WithTitleOpts(opts.Title{Title: "Time per phase", Subtitle: "share of ticks after re-detection"}),
		charts.WithYAxisOpts(opts.YAxis{AxisLabel: &opts.AxisLabel{Formatter: "{value}%"}}),
	)

	phases := []breath.Phase{breath.Idle, breath.Inhale, breath.Exhale, breath.Hold}
	labels := make([]string, len(phases))
	data := make([]opts.BarData, len(phases))
	for i, p := range phases {
		labels[i] = p.String()
		share := 0.0
		if a.Frames > 0 {
			share = float64(a.PhaseTicks[p]) * 100 / float64(a.Frames)
		}
		data[i] = opts.BarData{Value: fmt.Sprintf("%.1f", share)}
	}
	bar.SetXAxis(labels).AddSeries("ticks", data)
	return bar
}
