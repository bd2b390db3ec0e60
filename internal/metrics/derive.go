package metrics

import (
	"math"
	"sort"

	"github.com/automacao-f5/dashboard-v1/internal/models"
)

// Recommendation thresholds on estimated ROAS.
const (
	scaleROAS = 3.0
	pauseROAS = 1.5
)

// DefaultFunnelSteps is the sales-page funnel tracked in web analytics.
var DefaultFunnelSteps = []string{
	"page_view",
	"vsl_play",
	"vsl_25_percent",
	"vsl_50_percent",
	"vsl_75_percent",
	"vsl_complete",
	"click_checkout",
	"begin_checkout",
	"purchase",
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// ComputeConsolidated folds ACTIVE campaign insights and the sales summary
// into the headline KPIs. Values are unrounded; see ConsolidatedMetrics.Rounded.
func ComputeConsolidated(insights []models.CampaignInsight, sales models.SalesSummary) models.ConsolidatedMetrics {
	var c models.ConsolidatedMetrics
	for _, in := range insights {
		if in.Status != models.StatusActive {
			continue
		}
		c.ActiveCampaignCount++
		c.Spend += in.Spend
		c.Impressions += in.Impressions
		c.Clicks += in.Clicks
	}
	c.Sales = sales
	c.CTR = safeDiv(float64(c.Clicks), float64(c.Impressions)) * 100
	c.ROAS = safeDiv(sales.TotalRevenue, c.Spend)
	c.CPA = safeDiv(c.Spend, float64(sales.ApprovedSales))
	c.FunnelConversionRate = safeDiv(float64(sales.ApprovedSales), float64(c.Clicks)) * 100
	c.ROI = (c.ROAS - 1) * 100
	return c
}

// AdsFunnel lays out impressions -> clicks -> sales with the conversion
// between adjacent stages.
func AdsFunnel(c models.ConsolidatedMetrics) []models.AdsFunnelStage {
	return []models.AdsFunnelStage{
		{Stage: "Impressions", Value: c.Impressions, Percentage: 100, Source: "meta"},
		{Stage: "Clicks", Value: c.Clicks, Percentage: safeDiv(float64(c.Clicks), float64(c.Impressions)) * 100, Source: "meta"},
		{Stage: "Sales", Value: c.Sales.ApprovedSales, Percentage: safeDiv(float64(c.Sales.ApprovedSales), float64(c.Clicks)) * 100, Source: "hotmart"},
	}
}

// FunnelSteps orders the counts by names. Missing events count as zero.
func FunnelSteps(names []string, counts map[string]int64) []models.FunnelStep {
	steps := make([]models.FunnelStep, len(names))
	var prev int64
	for i, name := range names {
		users := counts[name]
		rate := 100.0
		if i > 0 {
			rate = safeDiv(float64(users), float64(prev)) * 100
		}
		steps[i] = models.FunnelStep{StepName: name, ActiveUsers: users, CompletionRate: rate}
		prev = users
	}
	return steps
}

func BuildFunnel(steps []models.FunnelStep) models.FunnelSummary {
	var s models.FunnelSummary
	if len(steps) > 0 {
		s.TotalEntries = steps[0].ActiveUsers
		s.TotalConversions = steps[len(steps)-1].ActiveUsers
	}
	s.OverallConversionRate = safeDiv(float64(s.TotalConversions), float64(s.TotalEntries)) * 100
	s.DropOffRate = 100 - s.OverallConversionRate
	return s
}

// EstimateCampaignAttribution splits approved sales across campaigns by their
// share of total spend. It is an estimate: the checkout platform reports no
// per-campaign conversions. The result is sorted by ROAS, highest first.
func EstimateCampaignAttribution(insights []models.CampaignInsight, totalApprovedSales int64, averageTicket float64) []models.CampaignPerformance {
	var totalSpend float64
	for _, in := range insights {
		totalSpend += in.Spend
	}
	sales := allocateSales(insights, totalSpend, totalApprovedSales)

	out := make([]models.CampaignPerformance, len(insights))
	for i, in := range insights {
		revenue := float64(sales[i]) * averageTicket
		roas := safeDiv(revenue, in.Spend)
		out[i] = models.CampaignPerformance{
			ID:               in.ID,
			Name:             in.Name,
			Status:           in.Status,
			Spend:            in.Spend,
			Impressions:      in.Impressions,
			Clicks:           in.Clicks,
			CTR:              in.CTR,
			EstimatedSales:   sales[i],
			EstimatedRevenue: revenue,
			ROAS:             roas,
			CPA:              safeDiv(in.Spend, float64(sales[i])),
			Recommendation:   Recommend(roas),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ROAS > out[j].ROAS })
	return out
}

// allocateSales rounds each spend share to the nearest sale and then takes
// back the most over-rounded units until the total is not exceeded.
func allocateSales(insights []models.CampaignInsight, totalSpend float64, total int64) []int64 {
	sales := make([]int64, len(insights))
	if totalSpend <= 0 || total <= 0 {
		return sales
	}
	over := make([]float64, len(insights))
	var sum int64
	for i, in := range insights {
		share := in.Spend / totalSpend * float64(total)
		sales[i] = int64(math.Round(share))
		over[i] = float64(sales[i]) - share
		sum += sales[i]
	}
	if sum <= total {
		return sales
	}
	idx := make([]int, len(insights))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return over[idx[a]] > over[idx[b]] })
	for _, i := range idx {
		if sum <= total {
			break
		}
		if sales[i] > 0 {
			sales[i]--
			sum--
		}
	}
	return sales
}

// Recommend tags a campaign from its ROAS as displayed (two decimals).
func Recommend(roas float64) string {
	r := models.Round2(roas)
	switch {
	case r >= scaleROAS:
		return models.RecommendScale
	case r < pauseROAS:
		return models.RecommendPause
	default:
		return models.RecommendMaintain
	}
}

// PeriodChange is the percentage change from previous to current. With no
// previous value any growth counts as 100%.
func PeriodChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

func ComparePeriods(current, previous models.PeriodTotals) models.PeriodComparison {
	return models.PeriodComparison{
		Current:  current,
		Previous: previous,
		Changes: models.PeriodTotals{
			Sessions:       PeriodChange(current.Sessions, previous.Sessions),
			Users:          PeriodChange(current.Users, previous.Users),
			PageViews:      PeriodChange(current.PageViews, previous.PageViews),
			Conversions:    PeriodChange(current.Conversions, previous.Conversions),
			EngagementRate: PeriodChange(current.EngagementRate, previous.EngagementRate),
		},
	}
}

// Video classification tiers, in percent.
const (
	retentionExcellent = 50
	retentionGood      = 30

	engagementVeryHigh = 60
	engagementHigh     = 40
	engagementMedium   = 20
)

func ClassifyVideo(v models.VideoEngagement) models.VideoReport {
	r := models.VideoReport{
		VideoEngagement: v,
		PlayRate:        safeDiv(float64(v.TotalPlays), float64(v.TotalViews)) * 100,
	}
	switch {
	case v.AvgRetention >= retentionExcellent:
		r.RetentionStatus = "excellent"
	case v.AvgRetention >= retentionGood:
		r.RetentionStatus = "good"
	default:
		r.RetentionStatus = "low"
	}
	switch {
	case v.EngagementRate >= engagementVeryHigh:
		r.EngagementLevel = "very_high"
	case v.EngagementRate >= engagementHigh:
		r.EngagementLevel = "high"
	case v.EngagementRate >= engagementMedium:
		r.EngagementLevel = "medium"
	default:
		r.EngagementLevel = "low"
	}
	return r
}

// SummarizeTrend totals the daily rows. AvgEngagementRate is a percentage.
// Values are unrounded; see TrendReport.Rounded.
func SummarizeTrend(daily []models.DailyTraffic) models.TrendSummary {
	s := models.TrendSummary{Days: len(daily)}
	var engagement float64
	for _, d := range daily {
		s.TotalSessions += d.Sessions
		s.TotalUsers += d.ActiveUsers
		s.TotalPageViews += d.ScreenPageViews
		engagement += d.EngagementRate
	}
	s.AvgEngagementRate = safeDiv(engagement, float64(len(daily))) * 100
	return s
}

// SummarizeCampaignTraffic fills each row's conversion rate and the totals.
func SummarizeCampaignTraffic(rows []models.CampaignTraffic) models.CampaignTrafficReport {
	out := models.CampaignTrafficReport{Campaigns: make([]models.CampaignTraffic, len(rows))}
	for i, r := range rows {
		r.ConversionRate = safeDiv(float64(r.Conversions), float64(r.Sessions)) * 100
		out.Campaigns[i] = r
		out.Totals.Sessions += r.Sessions
		out.Totals.Users += r.Users
		out.Totals.Conversions += r.Conversions
	}
	out.Totals.ConversionRate = safeDiv(float64(out.Totals.Conversions), float64(out.Totals.Sessions)) * 100
	return out
}
