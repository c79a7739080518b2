package loader

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidtrends/internal/config"
	apperrors "covidtrends/internal/errors"
)

const sampleCSV = `Province/State,Country/Region,Lat,Long,1/22/20,1/23/20,1/24/20
,Afghanistan,33.0,65.0,0,0,0
Hubei,China,30.97,112.27,444,444,549
,Italy,41.87,12.56,0,0,0
`

func testConfig(url string) config.SourceConfig {
	return config.SourceConfig{
		URL:               url,
		DateLayout:        "1/2/06",
		EntityColumn:      "Country/Region",
		SubEntityColumn:   "Province/State",
		IdentifierColumns: []string{"Province/State", "Country/Region", "Lat", "Long"},
	}
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "confirmed.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFetch_LocalFile(t *testing.T) {
	path := writeTempCSV(t, sampleCSV)
	l := New(slog.Default(), testConfig(path))

	df, err := l.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, df.Nrow())
	assert.Len(t, df.Names(), 7)
	assert.Contains(t, df.Names(), "1/22/20")
}

func TestFetch_FileURL(t *testing.T) {
	path := writeTempCSV(t, sampleCSV)
	l := New(slog.Default(), testConfig("file://"+path))

	df, err := l.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, df.Nrow())
}

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	l := New(slog.Default(), testConfig(srv.URL))
	df, err := l.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, df.Nrow())
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	l := New(slog.Default(), testConfig(srv.URL))
	_, err := l.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataUnavailable))
}

func TestFetch_MissingFile(t *testing.T) {
	l := New(slog.Default(), testConfig(filepath.Join(t.TempDir(), "absent.csv")))
	_, err := l.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataUnavailable))
}

func TestFetch_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{
			name: "missing identifier column",
			csv:  "Region,1/22/20\nAfghanistan,0\n",
		},
		{
			name: "no date columns",
			csv:  "Province/State,Country/Region,Lat,Long\n,Afghanistan,33.0,65.0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempCSV(t, tt.csv)
			l := New(slog.Default(), testConfig(path))
			_, err := l.Fetch(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeDataUnavailable))
		})
	}
}
