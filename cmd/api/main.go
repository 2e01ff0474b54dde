package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"biosignal-insights-go/internal/dataset"
	"biosignal-insights-go/internal/extractor"
	"biosignal-insights-go/internal/logger"
	"biosignal-insights-go/internal/plotting"
	"biosignal-insights-go/internal/sampling"
	"biosignal-insights-go/internal/signalproc"
	"biosignal-insights-go/internal/types"
)

type columns struct {
	Signal   string
	Time     string
	Scenario string
	Mode     string
	Target   string
}

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "biosignal-insights-go").Info("starting service")

	dataPath := envOr("DATASET_PATH", "recordings.xlsx")
	graphPath := envOr("GRAPH_PATH", "graphs")
	participant := envOr("PARTICIPANT", "P01")
	cols := columnsFromEnv()
	modes := modeMapFromEnv()

	log.WithField("dataset_path", dataPath).Info("loading recordings")
	df, err := dataset.Load(dataPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load recordings")
	}
	recs, err := dataset.SplitByScenario(df, cols.Scenario, cols.Mode)
	if err != nil {
		log.WithError(err).Fatal("failed to split recordings")
	}
	if len(recs) == 0 {
		log.Fatal("dataset contains no recordings")
	}
	log.WithField("recordings", len(recs)).Info("recordings loaded")

	rates, err := sampling.EstimateSamplingRate(recs, cols.Time)
	if err != nil {
		log.WithError(err).Fatal("failed to estimate sampling rate")
	}
	// recordings from one participant share the device rate; use the first
	srHz := rates[0]
	log.WithField("sampling_rate_hz", srHz).Info("sampling rate estimated")

	ext := extractor.New(signalproc.NewProcessor(), plotting.NewWriter(), log)

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		fmt.Fprint(w, "ok")
	})

	// dataset summary
	mux.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "summary")
		reqLog.Info("summary requested")
		s, err := dataset.Summarize(df, cols.Scenario, cols.Mode)
		if err != nil {
			reqLog.WithError(err).Error("summarize failed")
			http.Error(w, "summarize failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, s, reqLog)
	})

	// estimated sampling rates per recording
	mux.HandleFunc("/sampling-rate", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "sampling-rate")
		reqLog.Info("sampling rates requested")
		writeJSON(w, types.SamplingRateResponse{TimeColumn: cols.Time, RatesHz: rates}, reqLog)
	})

	// feature extraction over all loaded recordings
	mux.HandleFunc("/extract", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "extract")

		kind := types.SignalKind(strings.ToUpper(r.URL.Query().Get("signal_kind")))
		offline := r.URL.Query().Get("offline") == "true" || envOr("OFFLINE", "false") == "true"
		reqLog = reqLog.WithField("signal_kind", string(kind)).WithField("offline", offline)
		reqLog.Info("extraction requested")

		p := extractor.Params{
			SamplingRateHz: srHz,
			SignalCol:      cols.Signal,
			TargetCol:      cols.Target,
			TimeCol:        cols.Time,
			Participant:    participant,
			ScenarioCol:    cols.Scenario,
			ModeCol:        cols.Mode,
			Modes:          modes,
			GraphPath:      graphPath,
			SignalKind:     kind,
			Offline:        offline,
		}

		start := time.Now()
		tables, err := ext.ExtractFeatures(recs, p)
		duration := time.Since(start)
		reqLog.WithField("duration_ms", duration.Milliseconds()).Info("extraction finished")
		if err != nil {
			reqLog.WithError(err).Warn("extraction failed")
			status := http.StatusInternalServerError
			if errors.Is(err, extractor.ErrInvalidSignalKind) {
				status = http.StatusBadRequest
			}
			var lookupErr extractor.ModeLookupError
			if errors.As(err, &lookupErr) {
				status = http.StatusUnprocessableEntity
			}
			http.Error(w, err.Error(), status)
			return
		}

		resp := types.ExtractResponse{
			Participant:    participant,
			SignalKind:     kind,
			SamplingRateHz: srHz,
			PlotsWritten:   offline,
			DurationMs:     duration.Milliseconds(),
		}
		for i, t := range tables {
			resp.Recordings = append(resp.Recordings, summarizeTable(t, recs[i], cols, modes))
		}
		writeJSON(w, resp, reqLog)
	})

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func summarizeTable(t, rec dataframe.DataFrame, cols columns, modes map[string]string) types.RecordingFeatures {
	scenario := rec.Col(cols.Scenario).Elem(0).String()
	mode := modes[rec.Col(cols.Mode).Elem(0).String()]
	return types.RecordingFeatures{
		Scenario: scenario,
		Mode:     mode,
		Rows:     t.Nrow(),
		Columns:  t.Names(),
	}
}

func writeJSON(w http.ResponseWriter, v interface{}, reqLog *logrus.Entry) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		reqLog.Error("failed to write response: ", err)
	}
}

func columnsFromEnv() columns {
	return columns{
		Signal:   envOr("SIGNAL_COL", "ecg"),
		Time:     envOr("TIME_COL", "timestamp"),
		Scenario: envOr("SCENARIO_COL", "scenario"),
		Mode:     envOr("MODE_COL", "mode"),
		Target:   envOr("TARGET_COL", "stress"),
	}
}

// MODE_MAP is "code=name" pairs separated by commas, e.g. "0=eco,1=sport".
func modeMapFromEnv() map[string]string {
	m := map[string]string{"0": "eco", "1": "sport"}
	raw := os.Getenv("MODE_MAP")
	if raw == "" {
		return m
	}
	m = map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			m[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
	return m
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
