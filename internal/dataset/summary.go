package dataset

import (
	"github.com/go-gota/gota/dataframe"

	"biosignal-insights-go/internal/logger"
)

// Summary is a compact description of a loaded dataset, exposed by the API
// for quick sanity checks before kicking off extraction.
type Summary struct {
	TotalRows  int            `json:"total_rows"`
	Columns    []string       `json:"columns"`
	Recordings int            `json:"recordings"`
	ByScenario map[string]int `json:"rows_by_scenario"`
}

// Summarize counts rows, recordings, and per-scenario volume for a frame.
func Summarize(df dataframe.DataFrame, scenarioCol, modeCol string) (Summary, error) {
	log := logger.New().WithComponent("dataset.summary")

	recs, err := SplitByScenario(df, scenarioCol, modeCol)
	if err != nil {
		log.WithError(err).Error("split failed")
		return Summary{}, err
	}

	by := map[string]int{}
	for _, v := range df.Col(scenarioCol).Records() {
		by[v]++
	}

	s := Summary{
		TotalRows:  df.Nrow(),
		Columns:    df.Names(),
		Recordings: len(recs),
		ByScenario: by,
	}
	log.WithField("total_rows", s.TotalRows).WithField("recordings", s.Recordings).Info("dataset summarized")
	return s, nil
}
