package signalproc

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"

	"biosignal-insights-go/internal/extractor"
)

// ProcessEDA splits skin conductance into a slow tonic level and a phasic
// response component, then marks SCR peaks in the phasic part. Feature
// columns: Raw, Clean, Tonic, Phasic, SCR_Peaks.
func (p *Processor) ProcessEDA(signal []float64, samplingRate int) (extractor.Result, error) {
	if err := checkInput(signal, samplingRate); err != nil {
		return extractor.Result{}, err
	}

	clean := movingMean(signal, maxInt(1, samplingRate/4))
	// tonic level moves over seconds, not samples
	tonic := movingMean(clean, 4*samplingRate)
	phasic := sub(clean, tonic)

	peaks, warns := detectSCRPeaks(phasic, samplingRate)

	feats := dataframe.New(
		series.New(signal, series.Float, "Raw"),
		series.New(clean, series.Float, "Clean"),
		series.New(tonic, series.Float, "Tonic"),
		series.New(phasic, series.Float, "Phasic"),
		series.New(markers(peaks, len(signal)), series.Int, "SCR_Peaks"),
	)
	if feats.Err != nil {
		return extractor.Result{}, fmt.Errorf("eda features: %w", feats.Err)
	}

	info := map[string]interface{}{
		"SCR_Peaks":     peaks,
		"sampling_rate": samplingRate,
	}
	return extractor.Result{Features: feats, Info: info, Warnings: warns}, nil
}

// detectSCRPeaks keeps phasic local maxima above one standard deviation,
// at least one second apart.
func detectSCRPeaks(phasic []float64, samplingRate int) ([]int, []string) {
	var warns []string

	sd := stat.StdDev(phasic, nil)
	if sd == 0 || math.IsNaN(sd) {
		warns = append(warns, "flat EDA signal, no skin conductance responses detected")
		return nil, warns
	}
	thr := sd

	minDist := samplingRate
	if minDist < 1 {
		minDist = 1
	}

	var peaks []int
	for i := 1; i < len(phasic)-1; i++ {
		if phasic[i] < thr || phasic[i] < phasic[i-1] || phasic[i] <= phasic[i+1] {
			continue
		}
		if len(peaks) > 0 && i-peaks[len(peaks)-1] < minDist {
			if phasic[i] > phasic[peaks[len(peaks)-1]] {
				peaks[len(peaks)-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}

	if len(peaks) == 0 {
		warns = append(warns, "no skin conductance responses detected")
	}
	return peaks, warns
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
