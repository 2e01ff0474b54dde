// Package signalproc is the built-in biosignal toolkit: per-sample ECG and
// EDA feature extraction over raw sample slices. It implements
// extractor.SignalProcessor; swap in another toolkit behind that interface
// if higher-fidelity processing is needed.
package signalproc

import "math"

const toolkitName = "signalproc"

type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

// Toolkit tags warnings re-emitted by callers.
func (p *Processor) Toolkit() string {
	return toolkitName
}

// movingMean is a centered moving average over a window of the given width,
// shrinking at the edges. O(n) via a running sum.
func movingMean(x []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	half := window / 2
	out := make([]float64, len(x))
	var sum float64
	lo, hi := 0, 0 // current window is x[lo:hi]
	for i := range x {
		wantLo, wantHi := i-half, i+half+1
		if wantLo < 0 {
			wantLo = 0
		}
		if wantHi > len(x) {
			wantHi = len(x)
		}
		for hi < wantHi {
			sum += x[hi]
			hi++
		}
		for lo < wantLo {
			sum -= x[lo]
			lo++
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// markers expands peak indexes into a per-sample 0/1 column.
func markers(peaks []int, n int) []int {
	out := make([]int, n)
	for _, p := range peaks {
		if p >= 0 && p < n {
			out[p] = 1
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
