package dataset

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"biosignal-insights-go/internal/logger"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Load reads the first sheet of an xlsx workbook into a dataframe. The header
// row supplies column names and cell types are auto-detected. Remote http(s)
// paths are fetched to a temp file first.
func Load(path string) (dataframe.DataFrame, error) {
	if isURL(path) {
		local, err := Fetch(path)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		defer os.Remove(local)
		path = local
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return dataframe.DataFrame{}, fmt.Errorf("no data rows")
	}

	// excelize drops trailing empty cells, pad short rows to header width
	header := rows[0]
	for i, r := range rows {
		for len(r) < len(header) {
			r = append(r, "")
		}
		rows[i] = r
	}

	df := dataframe.LoadRecords(rows)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("build frame: %w", df.Err)
	}
	return df, nil
}

// Fetch downloads a remote workbook with exponential-backoff retry and
// returns the temp file path. The caller removes the file.
func Fetch(url string) (string, error) {
	log := logger.New().WithComponent("dataset.fetch").WithField("url", url)

	tmp, err := os.CreateTemp("", "recordings-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}

	op := func() error {
		resp, err := httpClient.Get(url)
		if err != nil {
			log.WithError(err).Warn("fetch attempt failed")
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			err := fmt.Errorf("server error: %s", resp.Status)
			log.WithError(err).Warn("fetch attempt failed")
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status: %s", resp.Status))
		}
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return backoff.Permanent(err)
		}
		if err := tmp.Truncate(0); err != nil {
			return backoff.Permanent(err)
		}
		_, err = io.Copy(tmp, resp.Body)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 60 * time.Second
	if err := backoff.Retry(op, b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("fetch dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}

// SplitByScenario groups rows into one recording per (scenario, mode) pair,
// first-seen order, row order preserved within each recording.
func SplitByScenario(df dataframe.DataFrame, scenarioCol, modeCol string) ([]dataframe.DataFrame, error) {
	sc := df.Col(scenarioCol)
	if sc.Err != nil {
		return nil, fmt.Errorf("scenario column %q: %w", scenarioCol, sc.Err)
	}
	mc := df.Col(modeCol)
	if mc.Err != nil {
		return nil, fmt.Errorf("mode column %q: %w", modeCol, mc.Err)
	}
	scr, mcr := sc.Records(), mc.Records()

	var keys []string
	rowsByKey := map[string][]int{}
	for i := 0; i < df.Nrow(); i++ {
		k := scr[i] + "\x00" + mcr[i]
		if _, ok := rowsByKey[k]; !ok {
			keys = append(keys, k)
		}
		rowsByKey[k] = append(rowsByKey[k], i)
	}

	out := make([]dataframe.DataFrame, 0, len(keys))
	for _, k := range keys {
		sub := df.Subset(rowsByKey[k])
		if sub.Err != nil {
			return nil, fmt.Errorf("subset recording: %w", sub.Err)
		}
		out = append(out, sub)
	}
	return out, nil
}

func isURL(path string) bool {
	l := strings.ToLower(path)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
