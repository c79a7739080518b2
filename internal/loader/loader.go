// Package loader fetches the wide-format case-count CSV and
// materializes it as an in-memory table.
//
// The loader performs a single fetch attempt with no retries: the
// pipeline is a one-shot batch job and a failed fetch aborts the run.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"covidtrends/internal/config"
	apperrors "covidtrends/internal/errors"
)

// Loader fetches and parses the source table.
type Loader struct {
	logger *slog.Logger
	client *http.Client
	cfg    config.SourceConfig
}

// New creates a loader for the given source configuration.
func New(logger *slog.Logger, cfg config.SourceConfig) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger,
		client: &http.Client{Timeout: cfg.FetchTimeout},
		cfg:    cfg,
	}
}

// Fetch retrieves the configured source and parses it into a DataFrame.
// All columns are kept as strings; numeric parsing happens during the
// reshape so that missing cells can be treated as zero there.
func (l *Loader) Fetch(ctx context.Context) (dataframe.DataFrame, error) {
	l.logger.InfoContext(ctx, "fetching source table", slog.String("source", l.cfg.URL))

	body, err := l.open(ctx, l.cfg.URL)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer body.Close()

	df := dataframe.ReadCSV(body,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, apperrors.DataUnavailable("malformed CSV", df.Err)
	}

	if err := l.checkSchema(df); err != nil {
		return dataframe.DataFrame{}, err
	}

	l.logger.InfoContext(ctx, "source table loaded",
		slog.Int("rows", df.Nrow()),
		slog.Int("columns", len(df.Names())))

	return df, nil
}

// open returns a reader over the source, which may be an http(s) URL,
// a file:// URL, or a plain filesystem path.
func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, apperrors.DataUnavailable("invalid source URL", err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, apperrors.DataUnavailable("fetch failed", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, apperrors.DataUnavailable(
				fmt.Sprintf("unexpected status %d fetching source", resp.StatusCode), nil).
				WithContext("url", source)
		}
		return resp.Body, nil
	case strings.HasPrefix(source, "file://"):
		return l.openFile(strings.TrimPrefix(source, "file://"))
	default:
		return l.openFile(source)
	}
}

func (l *Loader) openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.DataUnavailable("cannot open source file", err)
	}
	return f, nil
}

// checkSchema verifies the expected identifier columns are present and
// that at least one date column exists beyond them.
func (l *Loader) checkSchema(df dataframe.DataFrame) error {
	names := df.Names()
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	for _, col := range l.cfg.IdentifierColumns {
		if !present[col] {
			return apperrors.DataUnavailable(
				fmt.Sprintf("schema mismatch: missing identifier column %q", col), nil).
				WithContext("columns", names)
		}
	}

	if len(names) <= len(l.cfg.IdentifierColumns) {
		return apperrors.DataUnavailable("schema mismatch: no date columns in source", nil)
	}

	return nil
}
