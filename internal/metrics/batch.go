package metrics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/automacao-f5/dashboard-v1/internal/models"
)

// InsightResult is the outcome of fetching one campaign's insights.
// Err is set when the fetch failed; Insight is then zero apart from identity.
type InsightResult struct {
	Campaign models.Campaign
	Insight  models.CampaignInsight
	Err      error
}

// FetchInsights fetches insights for every campaign with at most limit
// requests in flight. Results keep the order of campaigns. A failed item
// never cancels the others; only cancellation of ctx fails the batch.
func FetchInsights(ctx context.Context, ads AdsSource, campaigns []models.Campaign, preset models.DatePreset, limit int) ([]InsightResult, error) {
	out := make([]InsightResult, len(campaigns))
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, c := range campaigns {
		g.Go(func() error {
			res := InsightResult{Campaign: c}
			if err := ctx.Err(); err != nil {
				res.Err = err
			} else if in, err := ads.CampaignInsights(ctx, c.ID, preset); err != nil {
				res.Err = fmt.Errorf("campaign %s: %w", c.ID, err)
			} else {
				res.Insight = in
			}
			res.Insight.ID = c.ID
			res.Insight.Name = c.Name
			res.Insight.Status = c.Status
			out[i] = res
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ZeroFilled returns one insight per result; failed items contribute zero.
func ZeroFilled(results []InsightResult) []models.CampaignInsight {
	out := make([]models.CampaignInsight, len(results))
	for i, r := range results {
		if r.Err != nil {
			out[i] = models.CampaignInsight{ID: r.Campaign.ID, Name: r.Campaign.Name, Status: r.Campaign.Status}
			continue
		}
		out[i] = r.Insight
	}
	return out
}

// Succeeded drops failed items.
func Succeeded(results []InsightResult) []models.CampaignInsight {
	out := make([]models.CampaignInsight, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Insight)
		}
	}
	return out
}

func Failed(results []InsightResult) []InsightResult {
	var out []InsightResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
