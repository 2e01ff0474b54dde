package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"biosignal-insights-go/internal/logger"
	"biosignal-insights-go/internal/types"
)

// Result is what a signal processor hands back for one recording: per-sample
// feature columns, auxiliary info (peak indexes and the like), and any
// warnings the toolkit raised while processing. Warnings are carried here so
// the caller decides where they go; the processor never prints.
type Result struct {
	Features dataframe.DataFrame
	Info     map[string]interface{}
	Warnings []string
}

// SignalProcessor computes per-sample features for a raw biosignal.
type SignalProcessor interface {
	ProcessECG(signal []float64, samplingRate int) (Result, error)
	ProcessEDA(signal []float64, samplingRate int) (Result, error)
	Toolkit() string
}

// Plotter persists one diagnostic image for a processed recording. The target
// path is decided by the extractor; the plotter only renders and writes.
type Plotter interface {
	SavePlot(res Result, kind types.SignalKind, samplingRate int, path string) error
}

// ErrInvalidSignalKind rejects a call before any recording is touched.
var ErrInvalidSignalKind = errors.New(`invalid signal kind: must be "ECG" or "EDA"`)

// ModeLookupError reports a mode code with no entry in the mode map.
type ModeLookupError struct {
	Code string
}

func (e ModeLookupError) Error() string {
	return fmt.Sprintf("mode code %q not present in mode map", e.Code)
}

// Params configures one extraction call. Column names address the recording
// frames; Modes maps mode codes (by their string form) to readable names.
type Params struct {
	SamplingRateHz float64
	SignalCol      string
	TargetCol      string
	TimeCol        string
	Participant    string
	ScenarioCol    string
	ModeCol        string
	Modes          map[string]string
	GraphPath      string
	SignalKind     types.SignalKind
	// Offline enables diagnostic plots; keep false on the inference path.
	Offline bool
}

type Extractor struct {
	proc SignalProcessor
	plt  Plotter
	log  *logger.Logger
}

func New(proc SignalProcessor, plt Plotter, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.New()
	}
	return &Extractor{proc: proc, plt: plt, log: log}
}

// ExtractFeaturesSingle is the one-recording form of ExtractFeatures.
func (e *Extractor) ExtractFeaturesSingle(rec dataframe.DataFrame, p Params) (dataframe.DataFrame, error) {
	out, err := e.ExtractFeatures([]dataframe.DataFrame{rec}, p)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return out[0], nil
}

// ExtractFeatures runs the processor over each recording and returns one
// feature table per recording, input order preserved. Each table is the
// recording's time/scenario/mode/target columns on the left and the
// kind-prefixed feature columns on the right.
//
// Failures are fail-fast: the first bad recording aborts the call with no
// partial result. Plots already written for earlier recordings stay on disk.
func (e *Extractor) ExtractFeatures(recs []dataframe.DataFrame, p Params) ([]dataframe.DataFrame, error) {
	if !p.SignalKind.Valid() {
		return nil, ErrInvalidSignalKind
	}
	sr := int(p.SamplingRateHz)

	out := make([]dataframe.DataFrame, 0, len(recs))
	for i, rec := range recs {
		ft, warns, err := e.extractOne(rec, p, sr)
		if err != nil {
			return nil, fmt.Errorf("recording %d: %w", i, err)
		}
		out = append(out, ft)

		for _, w := range warns {
			e.log.WithComponent("extractor").Warnf("%s: %s", e.proc.Toolkit(), w)
		}
	}
	return out, nil
}

func (e *Extractor) extractOne(rec dataframe.DataFrame, p Params, sr int) (dataframe.DataFrame, []string, error) {
	scenario, err := firstElem(rec, p.ScenarioCol)
	if err != nil {
		return dataframe.DataFrame{}, nil, err
	}
	code, err := firstElem(rec, p.ModeCol)
	if err != nil {
		return dataframe.DataFrame{}, nil, err
	}
	modeName, ok := p.Modes[code]
	if !ok {
		return dataframe.DataFrame{}, nil, ModeLookupError{Code: code}
	}

	sig := rec.Col(p.SignalCol)
	if sig.Err != nil {
		return dataframe.DataFrame{}, nil, fmt.Errorf("signal column %q: %w", p.SignalCol, sig.Err)
	}

	var res Result
	switch p.SignalKind {
	case types.SignalECG:
		res, err = e.proc.ProcessECG(sig.Float(), sr)
	case types.SignalEDA:
		res, err = e.proc.ProcessEDA(sig.Float(), sr)
	}
	if err != nil {
		return dataframe.DataFrame{}, nil, fmt.Errorf("%s processing: %w", p.SignalKind, err)
	}
	if res.Features.Err != nil {
		return dataframe.DataFrame{}, nil, fmt.Errorf("%s features: %w", p.SignalKind, res.Features.Err)
	}

	if p.Offline && e.plt != nil {
		subjDir := filepath.Join(p.GraphPath, fmt.Sprintf("SUBJ_%s_features", p.Participant))
		if err := os.MkdirAll(subjDir, 0o755); err != nil {
			return dataframe.DataFrame{}, nil, fmt.Errorf("create plot dir: %w", err)
		}
		name := fmt.Sprintf("%s_FEATS_SUBJ_%s_SCEN_%s_MODE_%s.png",
			p.SignalKind, p.Participant, scenario, modeName)
		if err := e.plt.SavePlot(res, p.SignalKind, sr, filepath.Join(subjDir, name)); err != nil {
			return dataframe.DataFrame{}, nil, fmt.Errorf("save plot: %w", err)
		}
	}

	feats := prefixColumns(res.Features, string(p.SignalKind)+"_")

	raw := rec.Select([]string{p.TimeCol, p.ScenarioCol, p.ModeCol, p.TargetCol})
	if raw.Err != nil {
		return dataframe.DataFrame{}, nil, fmt.Errorf("select context columns: %w", raw.Err)
	}

	joined := cbindPadded(raw, feats)
	if joined.Err != nil {
		return dataframe.DataFrame{}, nil, fmt.Errorf("concat features: %w", joined.Err)
	}
	return joined, res.Warnings, nil
}

// firstElem returns the first row's value of a column as its string form.
func firstElem(rec dataframe.DataFrame, col string) (string, error) {
	s := rec.Col(col)
	if s.Err != nil {
		return "", fmt.Errorf("column %q: %w", col, s.Err)
	}
	if s.Len() == 0 {
		return "", fmt.Errorf("column %q: recording has no rows", col)
	}
	return s.Elem(0).String(), nil
}

func prefixColumns(df dataframe.DataFrame, prefix string) dataframe.DataFrame {
	for _, name := range df.Names() {
		df = df.Rename(prefix+name, name)
	}
	return df
}

// cbindPadded concatenates two frames column-wise, padding the shorter one
// with NA rows. The processor may emit a different sample count than the
// source recording; alignment is positional.
func cbindPadded(left, right dataframe.DataFrame) dataframe.DataFrame {
	n := left.Nrow()
	if right.Nrow() > n {
		n = right.Nrow()
	}
	return padRows(left, n).CBind(padRows(right, n))
}

func padRows(df dataframe.DataFrame, n int) dataframe.DataFrame {
	if df.Err != nil || df.Nrow() >= n {
		return df
	}
	cols := make([]series.Series, 0, df.Ncol())
	for _, name := range df.Names() {
		s := df.Col(name)
		recs := s.Records()
		for len(recs) < n {
			recs = append(recs, "NaN")
		}
		cols = append(cols, series.New(recs, s.Type(), name))
	}
	return dataframe.New(cols...)
}
