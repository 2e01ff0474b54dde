package signalproc

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"

	"biosignal-insights-go/internal/extractor"
)

// ProcessECG detrends the signal, detects R peaks with an adaptive threshold
// and a refractory window, and derives a per-sample heart rate stepped
// between beats. Feature columns: Raw, Clean, Rate, R_Peaks.
func (p *Processor) ProcessECG(signal []float64, samplingRate int) (extractor.Result, error) {
	if err := checkInput(signal, samplingRate); err != nil {
		return extractor.Result{}, err
	}

	// baseline wander sits well below the QRS band; a ~0.6 s moving mean
	// tracks it without flattening the complexes
	baseline := movingMean(signal, int(0.6*float64(samplingRate)))
	clean := sub(signal, baseline)

	peaks, warns := detectRPeaks(clean, samplingRate)
	rate := instantaneousRate(peaks, samplingRate, len(signal))

	feats := dataframe.New(
		series.New(signal, series.Float, "Raw"),
		series.New(clean, series.Float, "Clean"),
		series.New(rate, series.Float, "Rate"),
		series.New(markers(peaks, len(signal)), series.Int, "R_Peaks"),
	)
	if feats.Err != nil {
		return extractor.Result{}, fmt.Errorf("ecg features: %w", feats.Err)
	}

	info := map[string]interface{}{
		"R_Peaks":       peaks,
		"sampling_rate": samplingRate,
	}
	return extractor.Result{Features: feats, Info: info, Warnings: warns}, nil
}

func checkInput(signal []float64, samplingRate int) error {
	if len(signal) == 0 {
		return fmt.Errorf("empty signal")
	}
	if samplingRate <= 0 {
		return fmt.Errorf("sampling rate must be positive, got %d", samplingRate)
	}
	return nil
}

// detectRPeaks keeps local maxima above mean + 1.5*std, collapsing candidates
// closer than a 250 ms refractory window to the taller one.
func detectRPeaks(x []float64, samplingRate int) ([]int, []string) {
	var warns []string

	mean := stat.Mean(x, nil)
	sd := stat.StdDev(x, nil)
	if sd == 0 || math.IsNaN(sd) {
		warns = append(warns, "flat ECG signal, no R peaks detected")
		return nil, warns
	}
	thr := mean + 1.5*sd

	minDist := samplingRate / 4
	if minDist < 1 {
		minDist = 1
	}

	var peaks []int
	for i := 1; i < len(x)-1; i++ {
		if x[i] < thr || x[i] < x[i-1] || x[i] <= x[i+1] {
			continue
		}
		if len(peaks) > 0 && i-peaks[len(peaks)-1] < minDist {
			if x[i] > x[peaks[len(peaks)-1]] {
				peaks[len(peaks)-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}

	if len(peaks) < 2 {
		warns = append(warns, fmt.Sprintf("only %d R peaks detected, heart rate is unreliable", len(peaks)))
	}
	return peaks, warns
}

// instantaneousRate converts RR intervals to bpm, held constant between
// beats and extended to the edges. All-NaN when fewer than two peaks exist.
func instantaneousRate(peaks []int, samplingRate, n int) []float64 {
	rate := nanSlice(n)
	if len(peaks) < 2 {
		return rate
	}
	for k := 1; k < len(peaks); k++ {
		bpm := 60 * float64(samplingRate) / float64(peaks[k]-peaks[k-1])
		from := peaks[k-1]
		if k == 1 {
			from = 0
		}
		to := peaks[k]
		if k == len(peaks)-1 {
			to = n
		}
		for i := from; i < to; i++ {
			rate[i] = bpm
		}
	}
	return rate
}
