package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/automacao-f5/dashboard-v1/internal/models"
)

const (
	GA4APIURL = "https://analyticsdata.googleapis.com"

	ga4Scope = "https://www.googleapis.com/auth/analytics.readonly"
)

var (
	ErrGA4ConfigMissingProperty    = errors.New("ga4: property ID is required")
	ErrGA4ConfigMissingCredentials = errors.New("ga4: set client email and private key, or credentials JSON")
)

type GA4Config struct {
	PropertyID  string
	ClientEmail string
	// PrivateKey is PEM; literal "\n" sequences are accepted as newlines.
	PrivateKey      string
	CredentialsJSON string
	BaseURL         string
	TokenURL        string
}

func (c *GA4Config) Validate() error {
	if c.PropertyID == "" {
		return ErrGA4ConfigMissingProperty
	}
	hasKey := c.ClientEmail != "" && c.PrivateKey != ""
	if !hasKey && c.CredentialsJSON == "" {
		return ErrGA4ConfigMissingCredentials
	}
	if c.BaseURL == "" {
		c.BaseURL = GA4APIURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.TokenURL == "" {
		c.TokenURL = google.JWTTokenURL
	}
	return nil
}

func (c *GA4Config) jwtConfig() (*jwt.Config, error) {
	if c.ClientEmail != "" && c.PrivateKey != "" {
		return &jwt.Config{
			Email:      c.ClientEmail,
			PrivateKey: []byte(strings.ReplaceAll(c.PrivateKey, `\n`, "\n")),
			Scopes:     []string{ga4Scope},
			TokenURL:   c.TokenURL,
		}, nil
	}
	jc, err := google.JWTConfigFromJSON([]byte(c.CredentialsJSON), ga4Scope)
	if err != nil {
		return nil, fmt.Errorf("ga4: invalid credentials JSON: %w", err)
	}
	return jc, nil
}

// GA4Client issues Data API runReport calls as a service account.
type GA4Client struct {
	cfg GA4Config
	svc *analyticsdata.Service
}

func NewGA4Client(cfg GA4Config, base *http.Client) (*GA4Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	jc, err := cfg.jwtConfig()
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	hc := jc.Client(ctx)
	if base != nil {
		hc.Timeout = base.Timeout
	}
	return newGA4Client(cfg, hc)
}

// newGA4Client builds the Data API service on an already authorised client.
func newGA4Client(cfg GA4Config, hc *http.Client) (*GA4Client, error) {
	svc, err := analyticsdata.NewService(context.Background(),
		option.WithHTTPClient(hc),
		option.WithEndpoint(cfg.BaseURL+"/"))
	if err != nil {
		return nil, fmt.Errorf("ga4: %w", err)
	}
	return &GA4Client{cfg: cfg, svc: svc}, nil
}

// ---------------------------------------------------------------------------
// runReport helpers
// ---------------------------------------------------------------------------

type ga4Row struct {
	dims    []string
	metrics []Number
}

func (r ga4Row) dim(i int) string {
	if i < 0 || i >= len(r.dims) {
		return ""
	}
	return r.dims[i]
}

// metric returns zero for a missing column.
func (r ga4Row) metric(i int) Number {
	if i < 0 || i >= len(r.metrics) {
		return Number{}
	}
	return r.metrics[i]
}

func dimensions(ns ...string) []*analyticsdata.Dimension {
	out := make([]*analyticsdata.Dimension, len(ns))
	for i, n := range ns {
		out[i] = &analyticsdata.Dimension{Name: n}
	}
	return out
}

func metrics(ns ...string) []*analyticsdata.Metric {
	out := make([]*analyticsdata.Metric, len(ns))
	for i, n := range ns {
		out[i] = &analyticsdata.Metric{Name: n}
	}
	return out
}

func inList(field string, values []string) *analyticsdata.FilterExpression {
	return &analyticsdata.FilterExpression{Filter: &analyticsdata.Filter{
		FieldName:    field,
		InListFilter: &analyticsdata.InListFilter{Values: values},
	}}
}

func contains(field, value string) *analyticsdata.FilterExpression {
	return &analyticsdata.FilterExpression{Filter: &analyticsdata.Filter{
		FieldName:    field,
		StringFilter: &analyticsdata.StringFilter{MatchType: "CONTAINS", Value: value},
	}}
}

func byMetricDesc(metric string) []*analyticsdata.OrderBy {
	return []*analyticsdata.OrderBy{{Metric: &analyticsdata.MetricOrderBy{MetricName: metric}, Desc: true}}
}

func rangeOf(r models.DateRange) []*analyticsdata.DateRange {
	return []*analyticsdata.DateRange{{StartDate: r.StartDate, EndDate: r.EndDate}}
}

func (g *GA4Client) runReport(ctx context.Context, req *analyticsdata.RunReportRequest) ([]ga4Row, error) {
	for _, dr := range req.DateRanges {
		if err := (models.DateRange{StartDate: dr.StartDate, EndDate: dr.EndDate}).Validate(); err != nil {
			return nil, fmt.Errorf("ga4: %w", err)
		}
	}
	resp, err := g.svc.Properties.RunReport("properties/"+g.cfg.PropertyID, req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			body := gerr.Body
			if len(body) > 1024 {
				body = body[:1024]
			}
			return nil, &StatusError{Provider: "ga4", Code: gerr.Code, Body: body}
		}
		return nil, fmt.Errorf("ga4: %w", err)
	}
	rows := make([]ga4Row, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		if r == nil {
			continue
		}
		row := ga4Row{dims: make([]string, len(r.DimensionValues)), metrics: make([]Number, len(r.MetricValues))}
		for i, d := range r.DimensionValues {
			if d != nil {
				row.dims[i] = d.Value
			}
		}
		for i, m := range r.MetricValues {
			if m != nil {
				row.metrics[i] = ParseNumber(m.Value)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

// FunnelEventCounts returns active users per event name. Events without data
// are absent from the map.
func (g *GA4Client) FunnelEventCounts(ctx context.Context, eventNames []string, r models.DateRange) (map[string]int64, error) {
	out := make(map[string]int64, len(eventNames))
	if len(eventNames) == 0 {
		return out, nil
	}
	rows, err := g.runReport(ctx, &analyticsdata.RunReportRequest{
		DateRanges:      rangeOf(r),
		Dimensions:      dimensions("eventName"),
		Metrics:         metrics("activeUsers"),
		DimensionFilter: inList("eventName", eventNames),
	})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.dim(0)] = row.metric(0).Int()
	}
	return out, nil
}

func (g *GA4Client) Summary(ctx context.Context, r models.DateRange) (models.TrafficSummary, error) {
	rows, err := g.runReport(ctx, &analyticsdata.RunReportRequest{
		DateRanges: rangeOf(r),
		Metrics: metrics("sessions", "activeUsers", "newUsers", "screenPageViews", "engagementRate",
			"averageSessionDuration", "bounceRate", "sessionsPerUser", "screenPageViewsPerSession"),
	})
	if err != nil {
		return models.TrafficSummary{}, err
	}
	var row ga4Row
	if len(rows) > 0 {
		row = rows[0]
	}
	return models.TrafficSummary{
		Sessions:                  row.metric(0).Int(),
		ActiveUsers:               row.metric(1).Int(),
		NewUsers:                  row.metric(2).Int(),
		ScreenPageViews:           row.metric(3).Int(),
		EngagementRate:            row.metric(4).Float(),
		AverageSessionDuration:    row.metric(5).Float(),
		BounceRate:                row.metric(6).Float(),
		SessionsPerUser:           row.metric(7).Float(),
		ScreenPageViewsPerSession: row.metric(8).Float(),
	}, nil
}

func (g *GA4Client) PageViews(ctx context.Context, r models.DateRange, limit int) ([]models.PageView, error) {
	rows, err := g.runReport(ctx, &analyticsdata.RunReportRequest{
		DateRanges: rangeOf(r),
		Dimensions: dimensions("pagePath", "pageTitle"),
		Metrics:    metrics("screenPageViews", "sessions", "activeUsers", "averageSessionDuration", "bounceRate"),
		OrderBys:   byMetricDesc("screenPageViews"),
		Limit:      int64(limit),
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.PageView, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.PageView{
			PagePath:               row.dim(0),
			PageTitle:              row.dim(1),
			ScreenPageViews:        row.metric(0).Int(),
			Sessions:               row.metric(1).Int(),
			ActiveUsers:            row.metric(2).Int(),
			AverageSessionDuration: row.metric(3).Float(),
			BounceRate:             row.metric(4).Float(),
		})
	}
	return out, nil
}

// PageDetail reports the busiest page whose path contains path. With no
// matching page the figures are zero and PagePath echoes path.
func (g *GA4Client) PageDetail(ctx context.Context, path string, r models.DateRange) (models.PageDetail, error) {
	rows, err := g.runReport(ctx, &analyticsdata.RunReportRequest{
		DateRanges:      rangeOf(r),
		Dimensions:      dimensions("pagePath"),
		Metrics:         metrics("screenPageViews", "activeUsers", "averageSessionDuration", "bounceRate", "engagementRate"),
		DimensionFilter: contains("pagePath", path),
		OrderBys:        byMetricDesc("screenPageViews"),
		Limit:           1,
	})
	if err != nil {
		return models.PageDetail{}, err
	}
	if len(rows) == 0 {
		return models.PageDetail{PagePath: path}, nil
	}
	row := rows[0]
	return models.PageDetail{
		PagePath:               row.dim(0),
		ScreenPageViews:        row.metric(0).Int(),
		ActiveUsers:            row.metric(1).Int(),
		AverageSessionDuration: row.metric(2).Float(),
		BounceRate:             row.metric(3).Float(),
		EngagementRate:         row.metric(4).Float(),
	}, nil
}

// Events lists event counts; an empty eventNames means every event.
func (g *GA4Client) Events(ctx context.Context, r models.DateRange, eventNames []string) ([]models.EventCount, error) {
	req := &analyticsdata.RunReportRequest{
		DateRanges: rangeOf(r),
		Dimensions: dimensions("eventName"),
		Metrics:    metrics("eventCount", "totalUsers"),
		OrderBys:   byMetricDesc("eventCount"),
	}
	if len(eventNames) > 0 {
		req.DimensionFilter = inList("eventName", eventNames)
	}
	rows, err := g.runReport(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]models.EventCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.EventCount{
			EventName:  row.dim(0),
			EventCount: row.metric(0).Int(),
			TotalUsers: row.metric(1).Int(),
		})
	}
	return out, nil
}

func (g *GA4Client) TrafficSources(ctx context.Context, r models.DateRange, limit int) ([]models.TrafficSource, error) {
	rows, err := g.runReport(ctx, &analyticsdata.RunReportRequest{
		DateRanges: rangeOf(r),
		Dimensions: dimensions("sessionSource", "sessionMedium"),
		Metrics:    metrics("sessions", "activeUsers", "newUsers", "bounceRate"),
		OrderBys:   byMetricDesc("sessions"),
		Limit:      int64(limit),
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.TrafficSource, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.TrafficSource{
			Source:     row.dim(0),
			Medium:     row.dim(1),
			Sessions:   row.metric(0).Int(),
			Users:      row.metric(1).Int(),
			NewUsers:   row.metric(2).Int(),
			BounceRate: row.metric(3).Float(),
		})
	}
	return out, nil
}

// Devices breaks traffic down by device category, busiest first.
func (g *GA4Client) Devices(ctx context.Context, r models.DateRange) ([]models.DeviceTraffic, error) {
	rows, err := g.runReport(ctx, &analyticsdata.RunReportRequest{
		DateRanges: rangeOf(r),
		Dimensions: dimensions("deviceCategory"),
		Metrics:    metrics("sessions", "activeUsers", "screenPageViews", "averageSessionDuration", "bounceRate"),
		OrderBys:   byMetricDesc("sessions"),
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.DeviceTraffic, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.DeviceTraffic{
			Device:                 row.dim(0),
			Sessions:               row.metric(0).Int(),
			Users:                  row.metric(1).Int(),
			PageViews:              row.metric(2).Int(),
			AverageSessionDuration: row.metric(3).Float(),
			BounceRate:             row.metric(4).Float(),
		})
	}
	return out, nil
}

// Geography breaks traffic down by country and region, busiest first.
func (g *GA4Client) Geography(ctx context.Context, r models.DateRange, limit int) ([]models.GeoTraffic, error) {
	rows, err := g.runReport(ctx, &analyticsdata.RunReportRequest{
		DateRanges: rangeOf(r),
		Dimensions: dimensions("country", "region"),
		Metrics:    metrics("sessions", "activeUsers", "keyEvents"),
		OrderBys:   byMetricDesc("sessions"),
		Limit:      int64(limit),
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.GeoTraffic, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.GeoTraffic{
			Country:     row.dim(0),
			Region:      row.dim(1),
			Sessions:    row.metric(0).Int(),
			Users:       row.metric(1).Int(),
			Conversions: row.metric(2).Int(),
		})
	}
	return out, nil
}

// DailyTraffic returns one row per day, oldest first.
func (g *GA4Client) DailyTraffic(ctx context.Context, r models.DateRange) ([]models.DailyTraffic, error) {
	rows, err := g.runReport(ctx, &analyticsdata.RunReportRequest{
		DateRanges: rangeOf(r),
		Dimensions: dimensions("date"),
		Metrics: metrics("sessions", "activeUsers", "screenPageViews", "newUsers",
			"engagementRate", "averageSessionDuration"),
		OrderBys: []*analyticsdata.OrderBy{{Dimension: &analyticsdata.DimensionOrderBy{DimensionName: "date"}}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.DailyTraffic, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.DailyTraffic{
			Date:                   formatGA4Date(row.dim(0)),
			Sessions:               row.metric(0).Int(),
			ActiveUsers:            row.metric(1).Int(),
			ScreenPageViews:        row.metric(2).Int(),
			NewUsers:               row.metric(3).Int(),
			EngagementRate:         row.metric(4).Float(),
			AverageSessionDuration: row.metric(5).Float(),
		})
	}
	return out, nil
}

// CampaignTraffic returns UTM campaign rows; ConversionRate is left for the caller.
func (g *GA4Client) CampaignTraffic(ctx context.Context, r models.DateRange, limit int) ([]models.CampaignTraffic, error) {
	rows, err := g.runReport(ctx, &analyticsdata.RunReportRequest{
		DateRanges: rangeOf(r),
		Dimensions: dimensions("sessionCampaignName", "sessionSource", "sessionMedium"),
		Metrics:    metrics("sessions", "activeUsers", "keyEvents"),
		OrderBys:   byMetricDesc("sessions"),
		Limit:      int64(limit),
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.CampaignTraffic, 0, len(rows))
	for _, row := range rows {
		campaign := row.dim(0)
		if campaign == "" {
			campaign = "(not set)"
		}
		out = append(out, models.CampaignTraffic{
			Campaign:    campaign,
			Source:      row.dim(1),
			Medium:      row.dim(2),
			Sessions:    row.metric(0).Int(),
			Users:       row.metric(1).Int(),
			Conversions: row.metric(2).Int(),
		})
	}
	return out, nil
}

const (
	currentRangeName  = "current"
	previousRangeName = "previous"
)

// PeriodTotals fetches the comparison metrics for two ranges in one report.
func (g *GA4Client) PeriodTotals(ctx context.Context, current, previous models.DateRange) (models.PeriodTotals, models.PeriodTotals, error) {
	rows, err := g.runReport(ctx, &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{
			{StartDate: current.StartDate, EndDate: current.EndDate, Name: currentRangeName},
			{StartDate: previous.StartDate, EndDate: previous.EndDate, Name: previousRangeName},
		},
		Metrics: metrics("sessions", "activeUsers", "screenPageViews", "keyEvents", "engagementRate"),
	})
	if err != nil {
		return models.PeriodTotals{}, models.PeriodTotals{}, err
	}
	var cur, prev models.PeriodTotals
	for _, row := range rows {
		t := models.PeriodTotals{
			Sessions:       row.metric(0).Float(),
			Users:          row.metric(1).Float(),
			PageViews:      row.metric(2).Float(),
			Conversions:    row.metric(3).Float(),
			EngagementRate: row.metric(4).Float(),
		}
		// With several date ranges the report appends a dateRange dimension.
		switch row.dim(len(row.dims) - 1) {
		case currentRangeName:
			cur = t
		case previousRangeName:
			prev = t
		}
	}
	return cur, prev, nil
}

// formatGA4Date turns YYYYMMDD into YYYY-MM-DD and leaves anything else as is.
func formatGA4Date(s string) string {
	if len(s) != 8 {
		return s
	}
	return s[:4] + "-" + s[4:6] + "-" + s[6:]
}
