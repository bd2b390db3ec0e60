package export

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/automacao-f5/dashboard-v1/internal/ingest"
	"github.com/automacao-f5/dashboard-v1/internal/models"
)

var ErrSinkNotConfigured = errors.New("sink not configured")

// Reports is the part of the metrics service a snapshot is built from. Both
// halves of a snapshot come from one AdsReport call so they see the same data.
type Reports interface {
	AdsReport(ctx context.Context, preset models.DatePreset) (models.ConsolidatedMetrics, []models.CampaignPerformance, error)
}

// Snapshot is the document pushed to the sink. Figures are display-rounded.
type Snapshot struct {
	ID          string                       `json:"id"`
	Preset      models.DatePreset            `json:"preset"`
	GeneratedAt time.Time                    `json:"generated_at"`
	Metrics     models.ConsolidatedMetrics   `json:"metrics"`
	Campaigns   []models.CampaignPerformance `json:"campaigns"`
}

type Exporter struct {
	c      ingest.HTTPClient
	rep    Reports
	log    *slog.Logger
	url    string
	secret string
	now    func() time.Time
}

func NewExporter(c ingest.HTTPClient, rep Reports, log *slog.Logger, sinkURL, secret string) *Exporter {
	return &Exporter{c: c, rep: rep, log: log, url: sinkURL, secret: secret, now: time.Now}
}

func (e *Exporter) Configured() bool { return e.url != "" && e.secret != "" }

// Run builds a snapshot for preset and posts it signed with HMAC-SHA256 in
// X-Signature. It returns the number of campaign rows exported.
func (e *Exporter) Run(ctx context.Context, preset models.DatePreset) (int, error) {
	if !e.Configured() {
		return 0, ErrSinkNotConfigured
	}
	snap, err := e.Build(ctx, preset)
	if err != nil {
		return 0, err
	}
	if err := e.Push(ctx, snap); err != nil {
		return 0, err
	}
	e.log.Info("snapshot exported",
		slog.String("id", snap.ID),
		slog.String("preset", string(preset)),
		slog.Int("campaigns", len(snap.Campaigns)))
	return len(snap.Campaigns), nil
}

func (e *Exporter) Build(ctx context.Context, preset models.DatePreset) (Snapshot, error) {
	c, perf, err := e.rep.AdsReport(ctx, preset)
	if err != nil {
		return Snapshot{}, err
	}
	rows := make([]models.CampaignPerformance, len(perf))
	for i, p := range perf {
		rows[i] = p.Rounded()
	}
	return Snapshot{
		ID:          uuid.NewString(),
		Preset:      preset,
		GeneratedAt: e.now().UTC(),
		Metrics:     c.Rounded(),
		Campaigns:   rows,
	}, nil
}

func (e *Exporter) Push(ctx context.Context, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("sink: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", Sign(e.secret, b))
	req.Header.Set("Idempotency-Key", snap.ID)
	resp, err := e.c.Do(req)
	if err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &ingest.StatusError{Provider: "sink", Code: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
