package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/automacao-f5/dashboard-v1/internal/models"
)

const (
	VturbAPIURL = "https://api.vturb.com.br/v1"

	vturbDefaultPageSize = 50
)

var ErrVturbConfigMissingAPIKey = errors.New("vturb: API key is required")

type VturbConfig struct {
	APIKey  string
	BaseURL string
}

func (c *VturbConfig) Validate() error {
	if c.APIKey == "" {
		return ErrVturbConfigMissingAPIKey
	}
	if c.BaseURL == "" {
		c.BaseURL = VturbAPIURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

type VturbClient struct {
	cfg VturbConfig
	c   HTTPClient
	now func() time.Time
}

func NewVturbClient(cfg VturbConfig, c HTTPClient) (*VturbClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &VturbClient{cfg: cfg, c: c, now: time.Now}, nil
}

type vturbStats struct {
	TotalViews     Number `json:"total_views"`
	TotalPlays     Number `json:"total_plays"`
	AvgWatchTime   Number `json:"avg_watch_time"`
	AvgRetention   Number `json:"avg_retention"`
	TotalVideos    Number `json:"total_videos"`
	EngagementRate Number `json:"engagement_rate"`
}

// Stats are served either bare or wrapped in "data".
type vturbStatsResp struct {
	vturbStats
	Data *vturbStats `json:"data"`
}

// EngagementStats returns account-wide video stats, optionally scoped to r.
func (v *VturbClient) EngagementStats(ctx context.Context, r *models.DateRange) (models.VideoEngagement, error) {
	q := url.Values{}
	if r != nil {
		abs, err := r.Resolve(v.now())
		if err != nil {
			return models.VideoEngagement{}, fmt.Errorf("vturb: %w", err)
		}
		q.Set("start_date", abs.StartDate)
		q.Set("end_date", abs.EndDate)
	}
	u := v.cfg.BaseURL + "/videos/stats"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var resp vturbStatsResp
	if err := getJSON(ctx, v.c, "vturb", u, v.header(), &resp); err != nil {
		return models.VideoEngagement{}, err
	}
	s := resp.vturbStats
	if resp.Data != nil {
		s = *resp.Data
	}
	return models.VideoEngagement{
		TotalViews:     s.TotalViews.Int(),
		TotalPlays:     s.TotalPlays.Int(),
		AvgWatchTime:   s.AvgWatchTime.Float(),
		AvgRetention:   s.AvgRetention.Float(),
		TotalVideos:    s.TotalVideos.Int(),
		EngagementRate: s.EngagementRate.Float(),
	}, nil
}

func (v *VturbClient) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+v.cfg.APIKey)
	return h
}

// flexString accepts a JSON string or a bare number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if uq, err := strconv.Unquote(s); err == nil {
		s = uq
	}
	*f = flexString(s)
	return nil
}

type vturbVideo struct {
	ID         flexString `json:"id"`
	Name       string     `json:"name"`
	Title      string     `json:"title"`
	Duration   Number     `json:"duration"`
	TotalViews Number     `json:"total_views"`
	TotalPlays Number     `json:"total_plays"`
}

// Videos lists one page of the catalogue. Pages start at 1.
func (v *VturbClient) Videos(ctx context.Context, limit, page int) ([]models.Video, error) {
	if limit <= 0 {
		limit = vturbDefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))

	var raw json.RawMessage
	if err := getJSON(ctx, v.c, "vturb", v.cfg.BaseURL+"/videos?"+q.Encode(), v.header(), &raw); err != nil {
		return nil, err
	}
	list, err := decodeVturbVideos(raw)
	if err != nil {
		return nil, fmt.Errorf("vturb: decode videos: %w", err)
	}
	out := make([]models.Video, len(list))
	for i, vid := range list {
		name := vid.Name
		if name == "" {
			name = vid.Title
		}
		out[i] = models.Video{
			ID:         string(vid.ID),
			Name:       name,
			Duration:   vid.Duration.Float(),
			TotalViews: vid.TotalViews.Int(),
			TotalPlays: vid.TotalPlays.Int(),
		}
	}
	return out, nil
}

// The list comes bare or wrapped in "data" or "videos".
func decodeVturbVideos(raw json.RawMessage) ([]vturbVideo, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []vturbVideo
		err := json.Unmarshal(raw, &list)
		return list, err
	}
	var wrapped struct {
		Data   []vturbVideo `json:"data"`
		Videos []vturbVideo `json:"videos"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return wrapped.Videos, nil
}
