package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to two decimals. NaN and ±Inf become 0.
func Round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// Rounded returns the display copy of the summary. Computations keep using
// the full-precision receiver.
func (s SalesSummary) Rounded() SalesSummary {
	s.TotalRevenue = Round2(s.TotalRevenue)
	s.ConversionRate = Round2(s.ConversionRate)
	s.AverageTicket = Round2(s.AverageTicket)
	return s
}

func (c ConsolidatedMetrics) Rounded() ConsolidatedMetrics {
	c.Spend = Round2(c.Spend)
	c.CTR = Round2(c.CTR)
	c.Sales = c.Sales.Rounded()
	c.ROAS = Round2(c.ROAS)
	c.CPA = Round2(c.CPA)
	c.FunnelConversionRate = Round2(c.FunnelConversionRate)
	c.ROI = Round2(c.ROI)
	return c
}

func (p CampaignPerformance) Rounded() CampaignPerformance {
	p.Spend = Round2(p.Spend)
	p.CTR = Round2(p.CTR)
	p.EstimatedRevenue = Round2(p.EstimatedRevenue)
	p.ROAS = Round2(p.ROAS)
	p.CPA = Round2(p.CPA)
	return p
}

func (r FunnelReport) Rounded() FunnelReport {
	steps := make([]FunnelStep, len(r.Steps))
	for i, s := range r.Steps {
		s.CompletionRate = Round2(s.CompletionRate)
		steps[i] = s
	}
	r.Steps = steps
	r.Summary.OverallConversionRate = Round2(r.Summary.OverallConversionRate)
	r.Summary.DropOffRate = Round2(r.Summary.DropOffRate)
	return r
}

func (v VideoReport) Rounded() VideoReport {
	v.AvgRetention = Round2(v.AvgRetention)
	v.EngagementRate = Round2(v.EngagementRate)
	v.PlayRate = Round2(v.PlayRate)
	return v
}

func (p PeriodComparison) Rounded() PeriodComparison {
	p.Changes = PeriodTotals{
		Sessions:       Round2(p.Changes.Sessions),
		Users:          Round2(p.Changes.Users),
		PageViews:      Round2(p.Changes.PageViews),
		Conversions:    Round2(p.Changes.Conversions),
		EngagementRate: Round2(p.Changes.EngagementRate),
	}
	return p
}

func (r TrendReport) Rounded() TrendReport {
	daily := make([]DailyTraffic, len(r.Daily))
	for i, d := range r.Daily {
		d.EngagementRate = Round2(d.EngagementRate)
		d.AverageSessionDuration = Round2(d.AverageSessionDuration)
		daily[i] = d
	}
	r.Daily = daily
	r.Summary.AvgEngagementRate = Round2(r.Summary.AvgEngagementRate)
	return r
}

func (r CampaignTrafficReport) Rounded() CampaignTrafficReport {
	rows := make([]CampaignTraffic, len(r.Campaigns))
	for i, c := range r.Campaigns {
		c.ConversionRate = Round2(c.ConversionRate)
		rows[i] = c
	}
	r.Campaigns = rows
	r.Totals.ConversionRate = Round2(r.Totals.ConversionRate)
	return r
}
