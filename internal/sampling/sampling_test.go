package sampling_test

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biosignal-insights-go/internal/sampling"
)

func uniformRecording(n int, delta float64) dataframe.DataFrame {
	ts := make([]float64, n)
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		ts[i] = float64(i) * delta
		vals[i] = float64(i)
	}
	return dataframe.New(
		series.New(ts, series.Float, "timestamp"),
		series.New(vals, series.Float, "ecg"),
	)
}

func TestEstimateSamplingRateUniformSpacing(t *testing.T) {
	recs := []dataframe.DataFrame{
		uniformRecording(100, 0.01), // 100 Hz
		uniformRecording(50, 0.004), // 250 Hz
	}
	rates, err := sampling.EstimateSamplingRate(recs, "timestamp")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.InDelta(t, 100, rates[0], 1e-9)
	assert.InDelta(t, 250, rates[1], 1e-9)
}

func TestEstimateSamplingRateMissingColumn(t *testing.T) {
	recs := []dataframe.DataFrame{
		uniformRecording(10, 0.01),
		dataframe.New(series.New([]float64{1, 2, 3}, series.Float, "ecg")),
	}
	rates, err := sampling.EstimateSamplingRate(recs, "timestamp")

	var missing sampling.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "timestamp", missing.Column)
	assert.Nil(t, rates, "no partial list on failure")
}

func TestEstimateSamplingRateTooFewSamples(t *testing.T) {
	rates, err := sampling.EstimateSamplingRate(
		[]dataframe.DataFrame{uniformRecording(1, 0.01)}, "timestamp")
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.True(t, math.IsNaN(rates[0]))
}

func resampleInput() dataframe.DataFrame {
	return dataframe.New(
		series.New([]float64{0.0, 0.25, 0.5, 0.75}, series.Float, "timestamp"),
		series.New([]float64{10, 20, 30, 50}, series.Float, "ecg"),
		series.New([]string{"a", "b", "c", "d"}, series.String, "scenario"),
		series.New([]string{"P01", "P01", "P01", "P01"}, series.String, "participant"),
		series.New([]int{1, 2, 3, 4}, series.Int, "extra"),
	)
}

func TestResampleAggregatesPerBin(t *testing.T) {
	out, err := sampling.Resample(resampleInput(), "timestamp", "ecg", "scenario", "participant", 2)
	require.NoError(t, err)

	// two rows per half-second bin
	require.Equal(t, 2, out.Nrow())
	assert.InDelta(t, 15, out.Col("ecg").Elem(0).Float(), 1e-9) // mean(10, 20)
	assert.InDelta(t, 40, out.Col("ecg").Elem(1).Float(), 1e-9) // mean(30, 50)
	assert.Equal(t, "a", out.Col("scenario").Elem(0).String())  // first of bin
	assert.Equal(t, "c", out.Col("scenario").Elem(1).String())
	assert.Equal(t, "P01", out.Col("participant").Elem(0).String())
	assert.InDelta(t, 0.0, out.Col("timestamp").Elem(0).Float(), 1e-9)
	assert.InDelta(t, 0.5, out.Col("timestamp").Elem(1).Float(), 1e-9)
}

func TestResampleDropsUnnamedColumns(t *testing.T) {
	out, err := sampling.Resample(resampleInput(), "timestamp", "ecg", "scenario", "participant", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"timestamp", "participant", "scenario", "ecg"}, out.Names())
	assert.NotContains(t, out.Names(), "extra")
}

func TestResampleDoesNotMutateInput(t *testing.T) {
	in := resampleInput()
	before := in.Records()

	_, err := sampling.Resample(in, "timestamp", "ecg", "scenario", "participant", 2)
	require.NoError(t, err)

	assert.Equal(t, before, in.Records())
	assert.Equal(t, 4, in.Nrow())
}

func TestResampleKeepsEmptyBinsOnGrid(t *testing.T) {
	in := dataframe.New(
		series.New([]float64{0.1, 2.1}, series.Float, "timestamp"),
		series.New([]float64{10, 30}, series.Float, "ecg"),
		series.New([]string{"a", "a"}, series.String, "scenario"),
		series.New([]string{"P01", "P01"}, series.String, "participant"),
	)
	out, err := sampling.Resample(in, "timestamp", "ecg", "scenario", "participant", 1)
	require.NoError(t, err)

	require.Equal(t, 3, out.Nrow())
	assert.True(t, out.Col("ecg").Elem(1).IsNA(), "bin with no samples is NA")
}

func TestResampleMissingColumn(t *testing.T) {
	in := uniformRecording(4, 0.25)
	_, err := sampling.Resample(in, "timestamp", "ecg", "scenario", "participant", 2)

	var missing sampling.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "scenario", missing.Column)
}

func TestResampleRejectsNonPositiveFrequency(t *testing.T) {
	_, err := sampling.Resample(resampleInput(), "timestamp", "ecg", "scenario", "participant", 0)
	require.Error(t, err)
}
