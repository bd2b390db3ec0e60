package metrics

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/automacao-f5/dashboard-v1/internal/models"
)

type fakeAds struct {
	campaigns []models.Campaign
	listErr   error
	insights  map[string]models.CampaignInsight
	fail      map[string]error
	delay     time.Duration

	lists    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	presets  []models.DatePreset
}

func (f *fakeAds) ListCampaigns(ctx context.Context, limit int) ([]models.Campaign, error) {
	f.lists.Add(1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > 0 && len(f.campaigns) > limit {
		return f.campaigns[:limit], nil
	}
	return f.campaigns, nil
}

func (f *fakeAds) CampaignInsights(ctx context.Context, id string, preset models.DatePreset) (models.CampaignInsight, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	f.mu.Lock()
	f.presets = append(f.presets, preset)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.CampaignInsight{}, ctx.Err()
		}
	}
	if err := f.fail[id]; err != nil {
		return models.CampaignInsight{}, err
	}
	in := f.insights[id]
	in.ID = id
	return in, nil
}

type fakeSales struct {
	summary  models.SalesSummary
	history  models.SalesHistory
	products []models.Product
	err      error
	got      *models.DateRange
	calls    int
}

func (f *fakeSales) ApprovedSalesSummary(ctx context.Context, r *models.DateRange) (models.SalesSummary, error) {
	f.calls++
	f.got = r
	return f.summary, f.err
}

func (f *fakeSales) SalesHistory(ctx context.Context, r *models.DateRange) (models.SalesHistory, error) {
	f.got = r
	return f.history, f.err
}

func (f *fakeSales) Products(ctx context.Context) ([]models.Product, error) {
	return f.products, f.err
}

type fakeVideo struct {
	stats  models.VideoEngagement
	videos []models.Video
	err    error
	page   int
}

func (f *fakeVideo) EngagementStats(ctx context.Context, r *models.DateRange) (models.VideoEngagement, error) {
	return f.stats, f.err
}

func (f *fakeVideo) Videos(ctx context.Context, limit, page int) ([]models.Video, error) {
	f.page = page
	return f.videos, f.err
}

var errUpstream = errors.New("upstream exploded")

type fakeWeb struct {
	counts  map[string]int64
	daily   []models.DailyTraffic
	camps   []models.CampaignTraffic
	cur     models.PeriodTotals
	prev    models.PeriodTotals
	err     error
	gotStep []string
}

func (f *fakeWeb) FunnelEventCounts(ctx context.Context, names []string, r models.DateRange) (map[string]int64, error) {
	f.gotStep = names
	return f.counts, f.err
}

func (f *fakeWeb) Summary(ctx context.Context, r models.DateRange) (models.TrafficSummary, error) {
	return models.TrafficSummary{Sessions: 42}, f.err
}

func (f *fakeWeb) PageViews(ctx context.Context, r models.DateRange, limit int) ([]models.PageView, error) {
	return []models.PageView{{PagePath: "/vsl"}}, f.err
}

func (f *fakeWeb) Events(ctx context.Context, r models.DateRange, names []string) ([]models.EventCount, error) {
	return []models.EventCount{{EventName: "purchase", EventCount: 3}}, f.err
}

func (f *fakeWeb) TrafficSources(ctx context.Context, r models.DateRange, limit int) ([]models.TrafficSource, error) {
	return []models.TrafficSource{{Source: "facebook", Medium: "paid"}}, f.err
}

func (f *fakeWeb) DailyTraffic(ctx context.Context, r models.DateRange) ([]models.DailyTraffic, error) {
	return f.daily, f.err
}

func (f *fakeWeb) CampaignTraffic(ctx context.Context, r models.DateRange, limit int) ([]models.CampaignTraffic, error) {
	return f.camps, f.err
}

func (f *fakeWeb) PeriodTotals(ctx context.Context, current, previous models.DateRange) (models.PeriodTotals, models.PeriodTotals, error) {
	return f.cur, f.prev, f.err
}

func (f *fakeWeb) Devices(ctx context.Context, r models.DateRange) ([]models.DeviceTraffic, error) {
	return []models.DeviceTraffic{{Device: "mobile", Sessions: 9}}, f.err
}

func (f *fakeWeb) Geography(ctx context.Context, r models.DateRange, limit int) ([]models.GeoTraffic, error) {
	return []models.GeoTraffic{{Country: "Brazil", Sessions: 7}}, f.err
}

func (f *fakeWeb) PageDetail(ctx context.Context, path string, r models.DateRange) (models.PageDetail, error) {
	return models.PageDetail{PagePath: path, ScreenPageViews: 5}, f.err
}
