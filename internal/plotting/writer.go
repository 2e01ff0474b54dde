// Package plotting renders diagnostic images for processed recordings. The
// writer is an explicit collaborator: the extractor hands it the processing
// result and a target path, there is no shared figure state to save.
package plotting

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"biosignal-insights-go/internal/extractor"
	"biosignal-insights-go/internal/types"
)

type Writer struct {
	Width  vg.Length
	Height vg.Length
}

func NewWriter() *Writer {
	return &Writer{Width: 10 * vg.Inch, Height: 4 * vg.Inch}
}

// SavePlot writes one PNG per call: the cleaned signal plus a kind-specific
// overlay (heart rate for ECG, phasic component for EDA). The overlay is
// best-effort; a processor that does not emit it still gets a plot.
func (w *Writer) SavePlot(res extractor.Result, kind types.SignalKind, samplingRate int, path string) error {
	if samplingRate <= 0 {
		return fmt.Errorf("sampling rate must be positive, got %d", samplingRate)
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%s features", kind)
	pl.X.Label.Text = "time (s)"

	overlay := "Rate"
	if kind == types.SignalEDA {
		overlay = "Phasic"
	}

	if err := addLine(pl, res, "Clean", samplingRate, color.RGBA{B: 200, A: 255}); err != nil {
		return err
	}
	_ = addLine(pl, res, overlay, samplingRate, color.RGBA{R: 200, A: 255})

	return pl.Save(w.Width, w.Height, path)
}

func addLine(pl *plot.Plot, res extractor.Result, col string, samplingRate int, c color.Color) error {
	s := res.Features.Col(col)
	if s.Err != nil {
		return fmt.Errorf("plot column %q: %w", col, s.Err)
	}
	vals := s.Float()
	xys := make(plotter.XYs, 0, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(i) / float64(samplingRate), Y: v})
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("plot line %q: %w", col, err)
	}
	line.Color = c
	pl.Add(line)
	pl.Legend.Add(col, line)
	return nil
}
