package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automacao-f5/dashboard-v1/internal/models"
)

func TestComputeConsolidated(t *testing.T) {
	insights := []models.CampaignInsight{
		{ID: "1", Status: models.StatusActive, Spend: 150, Impressions: 6000, Clicks: 100},
		{ID: "2", Status: models.StatusActive, Spend: 250, Impressions: 4000, Clicks: 150},
		// paused campaigns never count
		{ID: "3", Status: "PAUSED", Spend: 999, Impressions: 999, Clicks: 999},
	}
	sales := models.SalesSummary{ApprovedSales: 20, TotalSales: 25, TotalRevenue: 1200}

	c := ComputeConsolidated(insights, sales)
	assert.Equal(t, 2, c.ActiveCampaignCount)
	assert.InDelta(t, 400.0, c.Spend, 1e-9)
	assert.Equal(t, int64(10000), c.Impressions)
	assert.Equal(t, int64(250), c.Clicks)
	assert.InDelta(t, 2.5, c.CTR, 1e-9)
	assert.InDelta(t, 3.0, c.ROAS, 1e-9)
	assert.InDelta(t, 20.0, c.CPA, 1e-9)
	assert.InDelta(t, 8.0, c.FunnelConversionRate, 1e-9)
	assert.InDelta(t, 200.0, c.ROI, 1e-9)
	assert.Equal(t, sales, c.Sales)
}

func TestComputeConsolidatedZeroDenominators(t *testing.T) {
	c := ComputeConsolidated(nil, models.SalesSummary{TotalRevenue: 500})
	if c.ROAS != 0 || c.CTR != 0 || c.CPA != 0 || c.FunnelConversionRate != 0 {
		t.Fatalf("expected zero ratios, got %+v", c)
	}
	// roi follows roas
	assert.Equal(t, -100.0, c.ROI)
}

func TestROASIsRevenueOverSpend(t *testing.T) {
	for _, tc := range []struct{ spend, revenue float64 }{
		{1, 0}, {10, 35}, {0.5, 1000}, {123.45, 67.89},
	} {
		c := ComputeConsolidated(
			[]models.CampaignInsight{{Status: models.StatusActive, Spend: tc.spend}},
			models.SalesSummary{TotalRevenue: tc.revenue},
		)
		assert.InDelta(t, tc.revenue/tc.spend, c.ROAS, 1e-9)
	}
}

func TestConsolidatedRounded(t *testing.T) {
	c := ComputeConsolidated(
		[]models.CampaignInsight{{Status: models.StatusActive, Spend: 300, Impressions: 3, Clicks: 1}},
		models.SalesSummary{ApprovedSales: 3, TotalRevenue: 1000},
	)
	r := c.Rounded()
	assert.Equal(t, 33.33, r.CTR)
	assert.Equal(t, 3.33, r.ROAS)
	assert.Equal(t, 233.33, r.ROI)
	// the source keeps full precision
	assert.InDelta(t, 1000.0/300.0, c.ROAS, 1e-12)
}

func TestFunnelSteps(t *testing.T) {
	steps := FunnelSteps(
		[]string{"page_view", "vsl_play", "click_checkout", "purchase"},
		map[string]int64{"page_view": 1000, "vsl_play": 400, "purchase": 10},
	)
	require.Len(t, steps, 4)
	assert.Equal(t, 100.0, steps[0].CompletionRate)
	assert.InDelta(t, 40.0, steps[1].CompletionRate, 1e-9)
	// missing event counts as zero
	assert.Equal(t, int64(0), steps[2].ActiveUsers)
	assert.Equal(t, 0.0, steps[2].CompletionRate)
	// previous step is zero
	assert.Equal(t, 0.0, steps[3].CompletionRate)
}

func TestFunnelFirstStepAlwaysHundred(t *testing.T) {
	steps := FunnelSteps([]string{"page_view"}, nil)
	require.Len(t, steps, 1)
	assert.Equal(t, 100.0, steps[0].CompletionRate)
}

func TestBuildFunnel(t *testing.T) {
	for _, counts := range []map[string]int64{
		{"a": 1000, "b": 500, "c": 37},
		{"a": 3, "b": 3, "c": 3},
		{"a": 7, "b": 0, "c": 0},
	} {
		s := BuildFunnel(FunnelSteps([]string{"a", "b", "c"}, counts))
		assert.Equal(t, counts["a"], s.TotalEntries)
		assert.Equal(t, counts["c"], s.TotalConversions)
		assert.InDelta(t, 100.0, s.OverallConversionRate+s.DropOffRate, 1e-9)
	}

	s := BuildFunnel(nil)
	assert.Equal(t, 0.0, s.OverallConversionRate)
}

func TestEstimateCampaignAttribution(t *testing.T) {
	out := EstimateCampaignAttribution([]models.CampaignInsight{
		{ID: "a", Status: models.StatusActive, Spend: 100},
		{ID: "b", Status: models.StatusActive, Spend: 300},
	}, 40, 50)

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, int64(10), out[0].EstimatedSales)
	assert.Equal(t, int64(30), out[1].EstimatedSales)
	assert.InDelta(t, 500.0, out[0].EstimatedRevenue, 1e-9)
	assert.InDelta(t, 1500.0, out[1].EstimatedRevenue, 1e-9)
	assert.Equal(t, 5.0, out[0].Rounded().ROAS)
	assert.Equal(t, 5.0, out[1].Rounded().ROAS)
	assert.InDelta(t, 10.0, out[0].CPA, 1e-9)
	assert.Equal(t, models.RecommendScale, out[0].Recommendation)
}

func TestAttributionNeverExceedsApprovedSales(t *testing.T) {
	cases := []struct {
		spends []float64
		total  int64
	}{
		{[]float64{1, 1}, 1},
		{[]float64{1, 1, 1}, 2},
		{[]float64{10, 10, 10, 10, 10}, 7},
		{[]float64{0.3, 99.7}, 3},
		{[]float64{5, 15, 25, 55}, 13},
	}
	for _, tc := range cases {
		var insights []models.CampaignInsight
		for _, s := range tc.spends {
			insights = append(insights, models.CampaignInsight{Spend: s})
		}
		var sum int64
		for _, p := range EstimateCampaignAttribution(insights, tc.total, 10) {
			assert.GreaterOrEqual(t, p.EstimatedSales, int64(0))
			sum += p.EstimatedSales
		}
		assert.LessOrEqual(t, sum, tc.total, "spends=%v", tc.spends)
	}
}

func TestAttributionWithoutSpend(t *testing.T) {
	out := EstimateCampaignAttribution([]models.CampaignInsight{{ID: "a"}, {ID: "b"}}, 12, 97)
	for _, p := range out {
		assert.Equal(t, int64(0), p.EstimatedSales)
		assert.Equal(t, 0.0, p.ROAS)
		assert.Equal(t, 0.0, p.CPA)
		assert.Equal(t, models.RecommendPause, p.Recommendation)
	}
}

func TestAttributionSortedByROAS(t *testing.T) {
	out := EstimateCampaignAttribution([]models.CampaignInsight{
		{ID: "low", Spend: 100},
		{ID: "zero", Spend: 1},
		{ID: "high", Spend: 50},
	}, 10, 30)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].ROAS, out[i].ROAS)
	}
}

func TestRecommend(t *testing.T) {
	assert.Equal(t, models.RecommendScale, Recommend(3.0))
	assert.Equal(t, models.RecommendScale, Recommend(2.999))
	assert.Equal(t, models.RecommendPause, Recommend(1.49))
	assert.Equal(t, models.RecommendMaintain, Recommend(1.5))
	assert.Equal(t, models.RecommendMaintain, Recommend(2.0))
}

func TestPeriodChange(t *testing.T) {
	assert.Equal(t, 100.0, PeriodChange(5, 0))
	assert.Equal(t, 0.0, PeriodChange(0, 0))
	assert.InDelta(t, 50.0, PeriodChange(150, 100), 1e-9)
	assert.InDelta(t, -25.0, PeriodChange(75, 100), 1e-9)
}

func TestComparePeriods(t *testing.T) {
	cmp := ComparePeriods(
		models.PeriodTotals{Sessions: 200, Users: 90, Conversions: 3},
		models.PeriodTotals{Sessions: 100, Users: 120},
	)
	assert.InDelta(t, 100.0, cmp.Changes.Sessions, 1e-9)
	assert.InDelta(t, -25.0, cmp.Changes.Users, 1e-9)
	assert.Equal(t, 100.0, cmp.Changes.Conversions)
	assert.Equal(t, 0.0, cmp.Changes.PageViews)
}

func TestAdsFunnel(t *testing.T) {
	stages := AdsFunnel(models.ConsolidatedMetrics{
		Impressions: 10000,
		Clicks:      250,
		Sales:       models.SalesSummary{ApprovedSales: 5},
	})
	require.Len(t, stages, 3)
	assert.Equal(t, 100.0, stages[0].Percentage)
	assert.InDelta(t, 2.5, stages[1].Percentage, 1e-9)
	assert.InDelta(t, 2.0, stages[2].Percentage, 1e-9)
	assert.Equal(t, "hotmart", stages[2].Source)
}

func TestClassifyVideo(t *testing.T) {
	cases := []struct {
		retention, engagement float64
		status, level         string
	}{
		{50, 60, "excellent", "very_high"},
		{49.9, 40, "good", "high"},
		{30, 20, "good", "medium"},
		{29, 19.99, "low", "low"},
	}
	for _, tc := range cases {
		r := ClassifyVideo(models.VideoEngagement{AvgRetention: tc.retention, EngagementRate: tc.engagement})
		assert.Equal(t, tc.status, r.RetentionStatus)
		assert.Equal(t, tc.level, r.EngagementLevel)
	}

	r := ClassifyVideo(models.VideoEngagement{TotalViews: 400, TotalPlays: 100})
	assert.InDelta(t, 25.0, r.PlayRate, 1e-9)
	assert.Equal(t, 0.0, ClassifyVideo(models.VideoEngagement{TotalPlays: 3}).PlayRate)
}

func TestSummarizeTrend(t *testing.T) {
	s := SummarizeTrend([]models.DailyTraffic{
		{Sessions: 10, ActiveUsers: 8, ScreenPageViews: 30, EngagementRate: 0.5},
		{Sessions: 20, ActiveUsers: 12, ScreenPageViews: 50, EngagementRate: 0.25},
	})
	assert.Equal(t, int64(30), s.TotalSessions)
	assert.Equal(t, int64(20), s.TotalUsers)
	assert.Equal(t, int64(80), s.TotalPageViews)
	assert.InDelta(t, 37.5, s.AvgEngagementRate, 1e-9)
	assert.Equal(t, 2, s.Days)

	assert.Equal(t, 0.0, SummarizeTrend(nil).AvgEngagementRate)
}

func TestTrendRoundedAtBoundary(t *testing.T) {
	rep := models.TrendReport{Daily: []models.DailyTraffic{
		{EngagementRate: 0.5}, {EngagementRate: 0.5}, {EngagementRate: 0.0},
	}}
	rep.Summary = SummarizeTrend(rep.Daily)
	assert.InDelta(t, 100.0/3, rep.Summary.AvgEngagementRate, 1e-9)
	assert.NotEqual(t, 33.33, rep.Summary.AvgEngagementRate)
	assert.Equal(t, 33.33, rep.Rounded().Summary.AvgEngagementRate)
}

func TestSummarizeCampaignTraffic(t *testing.T) {
	rep := SummarizeCampaignTraffic([]models.CampaignTraffic{
		{Campaign: "launch", Sessions: 200, Users: 150, Conversions: 5},
		{Campaign: "(not set)", Sessions: 0, Users: 0, Conversions: 0},
	})
	assert.InDelta(t, 2.5, rep.Campaigns[0].ConversionRate, 1e-9)
	assert.Equal(t, 0.0, rep.Campaigns[1].ConversionRate)
	assert.Equal(t, int64(200), rep.Totals.Sessions)
	assert.InDelta(t, 2.5, rep.Totals.ConversionRate, 1e-9)

	rep = SummarizeCampaignTraffic([]models.CampaignTraffic{{Sessions: 3, Conversions: 1}})
	assert.InDelta(t, 100.0/3, rep.Totals.ConversionRate, 1e-9)
	rounded := rep.Rounded()
	assert.Equal(t, 33.33, rounded.Totals.ConversionRate)
	assert.Equal(t, 33.33, rounded.Campaigns[0].ConversionRate)
	assert.InDelta(t, 100.0/3, rep.Campaigns[0].ConversionRate, 1e-9)
}
