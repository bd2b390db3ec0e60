package export

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automacao-f5/dashboard-v1/internal/ingest"
	"github.com/automacao-f5/dashboard-v1/internal/models"
)

type stubReports struct {
	c     models.ConsolidatedMetrics
	perf  []models.CampaignPerformance
	err   error
	calls *int
}

func (s stubReports) AdsReport(context.Context, models.DatePreset) (models.ConsolidatedMetrics, []models.CampaignPerformance, error) {
	if s.calls != nil {
		*s.calls++
	}
	return s.c, s.perf, s.err
}

func discard() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }

func TestExporterPostsSignedSnapshot(t *testing.T) {
	var (
		gotSig  string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	var calls int
	rep := stubReports{
		c: models.ConsolidatedMetrics{Spend: 100, ROAS: 10.0 / 3.0},
		perf: []models.CampaignPerformance{
			{ID: "1", ROAS: 2.345},
			{ID: "2", ROAS: 1},
		},
		calls: &calls,
	}
	e := NewExporter(ingest.NewHTTPClient(2*time.Second, nil), rep, discard(), srv.URL, "s3cret")
	n, err := e.Run(context.Background(), models.PresetLast7d)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, Sign("s3cret", gotBody), gotSig)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(gotBody, &snap))
	assert.Equal(t, models.PresetLast7d, snap.Preset)
	assert.Equal(t, 3.33, snap.Metrics.ROAS)
	assert.Equal(t, 2.35, snap.Campaigns[0].ROAS)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 1, calls)
}

func TestExporterReportError(t *testing.T) {
	e := NewExporter(http.DefaultClient, stubReports{err: errors.New("meta down")}, discard(), "http://127.0.0.1:1", "k")
	_, err := e.Build(context.Background(), models.PresetLast7d)
	assert.EqualError(t, err, "meta down")
}

func TestExporterNotConfigured(t *testing.T) {
	e := NewExporter(http.DefaultClient, stubReports{}, discard(), "", "")
	_, err := e.Run(context.Background(), models.PresetLast7d)
	assert.ErrorIs(t, err, ErrSinkNotConfigured)
}

func TestExporterSinkRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad signature", http.StatusUnauthorized)
	}))
	defer srv.Close()

	e := NewExporter(ingest.NewHTTPClient(2*time.Second, nil), stubReports{}, discard(), srv.URL, "k")
	_, err := e.Run(context.Background(), models.PresetLast7d)
	require.Error(t, err)
	assert.True(t, ingest.IsStatus(err, http.StatusUnauthorized))
}

func TestSignIsStable(t *testing.T) {
	assert.Equal(t, Sign("key", []byte("{}")), Sign("key", []byte("{}")))
	assert.NotEqual(t, Sign("key", []byte("{}")), Sign("other", []byte("{}")))
	assert.Len(t, Sign("key", nil), 64)
}
