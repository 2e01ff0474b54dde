package types

// SignalKind selects the processing path for a recording.
type SignalKind string

const (
	SignalECG SignalKind = "ECG"
	SignalEDA SignalKind = "EDA"
)

// Valid reports whether the kind names a supported processing path.
func (k SignalKind) Valid() bool {
	return k == SignalECG || k == SignalEDA
}

// RecordingFeatures summarizes one extracted feature table in API responses.
type RecordingFeatures struct {
	Scenario string   `json:"scenario"`
	Mode     string   `json:"mode"`
	Rows     int      `json:"rows"`
	Columns  []string `json:"columns"`
}

type ExtractResponse struct {
	Participant    string              `json:"participant"`
	SignalKind     SignalKind          `json:"signal_kind"`
	SamplingRateHz float64             `json:"sampling_rate_hz"`
	Recordings     []RecordingFeatures `json:"recordings"`
	PlotsWritten   bool                `json:"plots_written"`
	DurationMs     int64               `json:"duration_ms"`
}

type SamplingRateResponse struct {
	TimeColumn string    `json:"time_column"`
	RatesHz    []float64 `json:"rates_hz"`
}
