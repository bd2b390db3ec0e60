package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/automacao-f5/dashboard-v1/internal/models"
	"github.com/automacao-f5/dashboard-v1/internal/telemetry"
)

// ErrSourceNotConfigured is returned when a report needs a platform that was
// not configured at startup.
var ErrSourceNotConfigured = errors.New("source not configured")

// ErrInvalidPeriod marks a request for an unknown preset or malformed range.
var ErrInvalidPeriod = errors.New("invalid period")

type AdsSource interface {
	ListCampaigns(ctx context.Context, limit int) ([]models.Campaign, error)
	CampaignInsights(ctx context.Context, campaignID string, preset models.DatePreset) (models.CampaignInsight, error)
}

type SalesSource interface {
	ApprovedSalesSummary(ctx context.Context, r *models.DateRange) (models.SalesSummary, error)
	SalesHistory(ctx context.Context, r *models.DateRange) (models.SalesHistory, error)
	Products(ctx context.Context) ([]models.Product, error)
}

type VideoSource interface {
	EngagementStats(ctx context.Context, r *models.DateRange) (models.VideoEngagement, error)
	Videos(ctx context.Context, limit, page int) ([]models.Video, error)
}

type WebAnalytics interface {
	FunnelEventCounts(ctx context.Context, eventNames []string, r models.DateRange) (map[string]int64, error)
	Summary(ctx context.Context, r models.DateRange) (models.TrafficSummary, error)
	PageViews(ctx context.Context, r models.DateRange, limit int) ([]models.PageView, error)
	Events(ctx context.Context, r models.DateRange, eventNames []string) ([]models.EventCount, error)
	TrafficSources(ctx context.Context, r models.DateRange, limit int) ([]models.TrafficSource, error)
	DailyTraffic(ctx context.Context, r models.DateRange) ([]models.DailyTraffic, error)
	CampaignTraffic(ctx context.Context, r models.DateRange, limit int) ([]models.CampaignTraffic, error)
	PeriodTotals(ctx context.Context, current, previous models.DateRange) (models.PeriodTotals, models.PeriodTotals, error)
	Devices(ctx context.Context, r models.DateRange) ([]models.DeviceTraffic, error)
	Geography(ctx context.Context, r models.DateRange, limit int) ([]models.GeoTraffic, error)
	PageDetail(ctx context.Context, path string, r models.DateRange) (models.PageDetail, error)
}

// Sources holds the platform adapters. Leave a field nil to disable it.
type Sources struct {
	Ads   AdsSource
	Sales SalesSource
	Video VideoSource
	Web   WebAnalytics
}

type Options struct {
	// Concurrency bounds in-flight per-campaign requests.
	Concurrency int
	// CampaignLimit is passed to the campaign listing.
	CampaignLimit int
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	src  Sources
	log  *slog.Logger
	rec  telemetry.Recorder
	opts Options
}

func NewService(src Sources, log *slog.Logger, rec telemetry.Recorder, opts Options) *Service {
	if log == nil {
		log = slog.Default()
	}
	if rec == nil {
		rec = telemetry.Nop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.CampaignLimit <= 0 {
		opts.CampaignLimit = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{src: src, log: log, rec: rec, opts: opts}
}

func (s *Service) observe(report string, err *error) { s.rec.Observe(report, *err) }

// campaignResults lists campaigns, keeps those accepted by keep, and fetches
// their insights. Failed items are logged and counted.
func (s *Service) campaignResults(ctx context.Context, preset models.DatePreset, keep func(models.Campaign) bool) ([]InsightResult, error) {
	campaigns, err := s.src.Ads.ListCampaigns(ctx, s.opts.CampaignLimit)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	selected := campaigns[:0:0]
	for _, c := range campaigns {
		if keep == nil || keep(c) {
			selected = append(selected, c)
		}
	}
	results, err := FetchInsights(ctx, s.src.Ads, selected, preset, s.opts.Concurrency)
	if err != nil {
		return nil, err
	}
	for _, f := range Failed(results) {
		s.rec.ItemFailed("campaign_insights")
		s.log.Warn("campaign insights skipped",
			slog.String("campaign_id", f.Campaign.ID),
			slog.String("err", f.Err.Error()))
	}
	return results, nil
}

// sales resolves preset to calendar days so the checkout platform sees the
// same window as the ads platform.
func (s *Service) sales(ctx context.Context, preset models.DatePreset) (models.SalesSummary, error) {
	r, err := preset.Range(s.opts.Now())
	if err != nil {
		return models.SalesSummary{}, err
	}
	sum, err := s.src.Sales.ApprovedSalesSummary(ctx, &r)
	if err != nil {
		return models.SalesSummary{}, fmt.Errorf("sales summary: %w", err)
	}
	if sum.Truncated {
		s.rec.ItemFailed("sales_history_pages")
		s.log.Warn("sales history truncated, totals undercount",
			slog.String("preset", string(preset)),
			slog.Int64("sales_read", sum.TotalSales))
	}
	return sum, nil
}

// consolidate folds fetched insights into the headline KPIs. Failed active
// campaigns count as active with zero figures.
func consolidate(results []InsightResult, sales models.SalesSummary) models.ConsolidatedMetrics {
	c := ComputeConsolidated(ZeroFilled(results), sales)
	for _, f := range Failed(results) {
		if f.Campaign.Status == models.StatusActive {
			c.FailedCampaignCount++
		}
	}
	return c
}

func (s *Service) checkAds(preset models.DatePreset) error {
	if s.src.Ads == nil || s.src.Sales == nil {
		return ErrSourceNotConfigured
	}
	if !preset.Valid() {
		return fmt.Errorf("%w: unknown date preset %q", ErrInvalidPeriod, preset)
	}
	return nil
}

func (s *Service) Consolidated(ctx context.Context, preset models.DatePreset) (c models.ConsolidatedMetrics, err error) {
	defer s.observe("consolidated", &err)
	if err := s.checkAds(preset); err != nil {
		return c, err
	}
	results, err := s.campaignResults(ctx, preset, func(c models.Campaign) bool {
		return c.Status == models.StatusActive
	})
	if err != nil {
		return c, err
	}
	sales, err := s.sales(ctx, preset)
	if err != nil {
		return c, err
	}
	return consolidate(results, sales), nil
}

func (s *Service) AdsFunnel(ctx context.Context, preset models.DatePreset) ([]models.AdsFunnelStage, error) {
	c, err := s.Consolidated(ctx, preset)
	if err != nil {
		return nil, err
	}
	return AdsFunnel(c), nil
}

// CampaignPerformance estimates per-campaign sales for every listed campaign.
// Campaigns whose insights could not be fetched are left out.
func (s *Service) CampaignPerformance(ctx context.Context, preset models.DatePreset) (out []models.CampaignPerformance, err error) {
	defer s.observe("campaigns", &err)
	if err := s.checkAds(preset); err != nil {
		return nil, err
	}
	results, err := s.campaignResults(ctx, preset, nil)
	if err != nil {
		return nil, err
	}
	sales, err := s.sales(ctx, preset)
	if err != nil {
		return nil, err
	}
	return EstimateCampaignAttribution(Succeeded(results), sales.ApprovedSales, sales.AverageTicket), nil
}

// AdsReport computes the consolidated metrics and the campaign performance
// from one campaign listing, one insight fetch per campaign and one sales read.
func (s *Service) AdsReport(ctx context.Context, preset models.DatePreset) (c models.ConsolidatedMetrics, perf []models.CampaignPerformance, err error) {
	defer s.observe("ads_report", &err)
	if err := s.checkAds(preset); err != nil {
		return c, nil, err
	}
	results, err := s.campaignResults(ctx, preset, nil)
	if err != nil {
		return c, nil, err
	}
	sales, err := s.sales(ctx, preset)
	if err != nil {
		return c, nil, err
	}
	c = consolidate(results, sales)
	perf = EstimateCampaignAttribution(Succeeded(results), sales.ApprovedSales, sales.AverageTicket)
	return c, perf, nil
}

// SalesHistory lists purchases in r; nil means all time.
func (s *Service) SalesHistory(ctx context.Context, r *models.DateRange) (h models.SalesHistory, err error) {
	defer s.observe("sales_history", &err)
	if s.src.Sales == nil {
		return h, ErrSourceNotConfigured
	}
	h, err = s.src.Sales.SalesHistory(ctx, r)
	if err != nil {
		return h, err
	}
	if h.Truncated {
		s.rec.ItemFailed("sales_history_pages")
		s.log.Warn("sales history truncated", slog.Int("sales_read", len(h.Sales)))
	}
	return h, nil
}

func (s *Service) Products(ctx context.Context) (out []models.Product, err error) {
	defer s.observe("products", &err)
	if s.src.Sales == nil {
		return nil, ErrSourceNotConfigured
	}
	return s.src.Sales.Products(ctx)
}

// WebFunnel counts users per funnel event. An empty steps list uses DefaultFunnelSteps.
func (s *Service) WebFunnel(ctx context.Context, steps []string, r models.DateRange) (rep models.FunnelReport, err error) {
	defer s.observe("web_funnel", &err)
	if s.src.Web == nil {
		return rep, ErrSourceNotConfigured
	}
	if len(steps) == 0 {
		steps = DefaultFunnelSteps
	}
	counts, err := s.src.Web.FunnelEventCounts(ctx, steps, r)
	if err != nil {
		return rep, err
	}
	rep.Steps = FunnelSteps(steps, counts)
	rep.Summary = BuildFunnel(rep.Steps)
	return rep, nil
}

func (s *Service) Video(ctx context.Context, r *models.DateRange) (rep models.VideoReport, err error) {
	defer s.observe("video", &err)
	if s.src.Video == nil {
		return rep, ErrSourceNotConfigured
	}
	v, err := s.src.Video.EngagementStats(ctx, r)
	if err != nil {
		return rep, err
	}
	return ClassifyVideo(v), nil
}

func (s *Service) Videos(ctx context.Context, limit, page int) (out []models.Video, err error) {
	defer s.observe("videos", &err)
	if s.src.Video == nil {
		return nil, ErrSourceNotConfigured
	}
	return s.src.Video.Videos(ctx, limit, page)
}

func (s *Service) TrafficSummary(ctx context.Context, r models.DateRange) (sum models.TrafficSummary, err error) {
	defer s.observe("traffic_summary", &err)
	if s.src.Web == nil {
		return sum, ErrSourceNotConfigured
	}
	return s.src.Web.Summary(ctx, r)
}

func (s *Service) Trend(ctx context.Context, r models.DateRange) (rep models.TrendReport, err error) {
	defer s.observe("trend", &err)
	if s.src.Web == nil {
		return rep, ErrSourceNotConfigured
	}
	daily, err := s.src.Web.DailyTraffic(ctx, r)
	if err != nil {
		return rep, err
	}
	return models.TrendReport{Daily: daily, Summary: SummarizeTrend(daily)}, nil
}

func (s *Service) TrafficSources(ctx context.Context, r models.DateRange, limit int) (out []models.TrafficSource, err error) {
	defer s.observe("traffic_sources", &err)
	if s.src.Web == nil {
		return nil, ErrSourceNotConfigured
	}
	return s.src.Web.TrafficSources(ctx, r, limit)
}

func (s *Service) PageViews(ctx context.Context, r models.DateRange, limit int) (out []models.PageView, err error) {
	defer s.observe("page_views", &err)
	if s.src.Web == nil {
		return nil, ErrSourceNotConfigured
	}
	return s.src.Web.PageViews(ctx, r, limit)
}

func (s *Service) Devices(ctx context.Context, r models.DateRange) (out []models.DeviceTraffic, err error) {
	defer s.observe("devices", &err)
	if s.src.Web == nil {
		return nil, ErrSourceNotConfigured
	}
	return s.src.Web.Devices(ctx, r)
}

func (s *Service) Geography(ctx context.Context, r models.DateRange, limit int) (out []models.GeoTraffic, err error) {
	defer s.observe("geography", &err)
	if s.src.Web == nil {
		return nil, ErrSourceNotConfigured
	}
	return s.src.Web.Geography(ctx, r, limit)
}

// PageDetail reports the traffic of the busiest page whose path contains path.
func (s *Service) PageDetail(ctx context.Context, path string, r models.DateRange) (d models.PageDetail, err error) {
	defer s.observe("page_detail", &err)
	if s.src.Web == nil {
		return d, ErrSourceNotConfigured
	}
	return s.src.Web.PageDetail(ctx, path, r)
}

func (s *Service) Events(ctx context.Context, r models.DateRange, names []string) (out []models.EventCount, err error) {
	defer s.observe("events", &err)
	if s.src.Web == nil {
		return nil, ErrSourceNotConfigured
	}
	return s.src.Web.Events(ctx, r, names)
}

func (s *Service) CampaignTraffic(ctx context.Context, r models.DateRange, limit int) (rep models.CampaignTrafficReport, err error) {
	defer s.observe("campaign_traffic", &err)
	if s.src.Web == nil {
		return rep, ErrSourceNotConfigured
	}
	rows, err := s.src.Web.CampaignTraffic(ctx, r, limit)
	if err != nil {
		return rep, err
	}
	return SummarizeCampaignTraffic(rows), nil
}

func (s *Service) Compare(ctx context.Context, current, previous models.DateRange) (cmp models.PeriodComparison, err error) {
	defer s.observe("compare", &err)
	if s.src.Web == nil {
		return cmp, ErrSourceNotConfigured
	}
	cur, prev, err := s.src.Web.PeriodTotals(ctx, current, previous)
	if err != nil {
		return cmp, err
	}
	return ComparePeriods(cur, prev), nil
}
