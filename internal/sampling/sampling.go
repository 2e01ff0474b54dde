// Package sampling holds the rate estimator and the fixed-grid resampler for
// irregularly-sampled recordings.
package sampling

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// MissingColumnError reports a required column absent from a recording.
type MissingColumnError struct {
	Column string
}

func (e MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found in recording", e.Column)
}

// EstimateSamplingRate returns one empirical rate per recording, computed as
// the reciprocal of the mean consecutive timestamp difference. Order is
// preserved; a missing time column aborts the whole call with no partial
// list. Timestamps are assumed sorted ascending; unsorted or irregular input
// is not validated and yields a misleading rate. Recordings with fewer than
// two samples get NaN.
func EstimateSamplingRate(recs []dataframe.DataFrame, timeCol string) ([]float64, error) {
	rates := make([]float64, 0, len(recs))
	for _, rec := range recs {
		if !hasColumn(rec, timeCol) {
			return nil, MissingColumnError{Column: timeCol}
		}
		ts := rec.Col(timeCol).Float()
		if len(ts) < 2 {
			rates = append(rates, math.NaN())
			continue
		}
		var sum float64
		for i := 1; i < len(ts); i++ {
			sum += ts[i] - ts[i-1]
		}
		mean := sum / float64(len(ts)-1)
		rates = append(rates, 1/mean)
	}
	return rates, nil
}

// Resample aggregates a recording onto a fixed grid of 1/targetFreqHz-wide
// bins in the timestamp column's unit. Per bin, participant and group take
// the first value and the value column takes the mean; every other column is
// dropped from the output. Bins covering no samples appear as NA rows so the
// grid stays regular. The input frame is not modified; the bin start time is
// returned under the timestamp column's name.
func Resample(rec dataframe.DataFrame, timestampCol, valueCol, groupCol, participantCol string, targetFreqHz float64) (dataframe.DataFrame, error) {
	for _, c := range []string{timestampCol, valueCol, groupCol, participantCol} {
		if !hasColumn(rec, c) {
			return dataframe.DataFrame{}, MissingColumnError{Column: c}
		}
	}
	if targetFreqHz <= 0 {
		return dataframe.DataFrame{}, fmt.Errorf("target frequency must be positive, got %v", targetFreqHz)
	}
	if rec.Nrow() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("recording has no rows")
	}
	binWidth := 1 / targetFreqHz

	ts := rec.Col(timestampCol).Float()
	vals := rec.Col(valueCol).Float()
	groups := rec.Col(groupCol).Records()
	parts := rec.Col(participantCol).Records()

	type bin struct {
		sum         float64
		n           int
		group       string
		participant string
	}
	bins := map[int64]*bin{}
	minIdx, maxIdx := int64(math.MaxInt64), int64(math.MinInt64)
	for i, t := range ts {
		idx := int64(math.Floor(t / binWidth))
		b, ok := bins[idx]
		if !ok {
			b = &bin{group: groups[i], participant: parts[i]}
			bins[idx] = b
		}
		b.sum += vals[i]
		b.n++
		if idx < minIdx {
			minIdx = idx
		}
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	var (
		outTS   []float64
		outVal  []float64
		outPart []string
		outGrp  []string
	)
	for idx := minIdx; idx <= maxIdx; idx++ {
		outTS = append(outTS, float64(idx)*binWidth)
		if b, ok := bins[idx]; ok {
			outVal = append(outVal, b.sum/float64(b.n))
			outPart = append(outPart, b.participant)
			outGrp = append(outGrp, b.group)
		} else {
			outVal = append(outVal, math.NaN())
			outPart = append(outPart, "NaN")
			outGrp = append(outGrp, "NaN")
		}
	}

	out := dataframe.New(
		series.New(outTS, series.Float, timestampCol),
		series.New(outPart, rec.Col(participantCol).Type(), participantCol),
		series.New(outGrp, rec.Col(groupCol).Type(), groupCol),
		series.New(outVal, series.Float, valueCol),
	)
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("build resampled frame: %w", out.Err)
	}
	return out, nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}
