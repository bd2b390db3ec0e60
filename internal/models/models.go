package models

import "time"

const StatusActive = "ACTIVE"

type Campaign struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// CampaignInsight is the ads platform snapshot of one campaign for one date window.
type CampaignInsight struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
}

type SalesSummary struct {
	ApprovedSales  int64   `json:"approved_sales"`
	TotalSales     int64   `json:"total_sales"`
	RefundedSales  int64   `json:"refunded_sales"`
	TotalRevenue   float64 `json:"total_revenue"`
	ConversionRate float64 `json:"conversion_rate"`
	AverageTicket  float64 `json:"average_ticket"`
	// Truncated is set when the history had more pages than were read.
	Truncated bool `json:"truncated,omitempty"`
}

// Sale is one purchase from the checkout platform's sales history.
type Sale struct {
	Transaction string    `json:"transaction"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Status      string    `json:"status"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	PaymentType string    `json:"payment_type"`
	OrderDate   time.Time `json:"order_date,omitzero"`
}

type SalesHistory struct {
	Sales     []Sale `json:"sales"`
	Truncated bool   `json:"truncated,omitempty"`
}

type Product struct {
	ID             int64  `json:"id"`
	UCode          string `json:"ucode"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	Format         string `json:"format"`
	IsSubscription bool   `json:"is_subscription"`
}

type ConsolidatedMetrics struct {
	Spend               float64 `json:"spend"`
	Impressions         int64   `json:"impressions"`
	Clicks              int64   `json:"clicks"`
	CTR                 float64 `json:"ctr"`
	ActiveCampaignCount int     `json:"active_campaigns"`
	FailedCampaignCount int     `json:"failed_campaigns"`

	Sales SalesSummary `json:"sales"`

	ROAS                 float64 `json:"roas"`
	CPA                  float64 `json:"cpa"`
	FunnelConversionRate float64 `json:"funnel_conversion_rate"`
	ROI                  float64 `json:"roi"`
}

// Recommendation tags assigned from a campaign's estimated ROAS.
const (
	RecommendScale    = "Scale"
	RecommendMaintain = "Maintain"
	RecommendPause    = "Pause/Optimize"
)

// CampaignPerformance carries per-campaign sales figures estimated from the
// campaign's share of total spend. They are not measured attribution.
type CampaignPerformance struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Status           string  `json:"status"`
	Spend            float64 `json:"spend"`
	Impressions      int64   `json:"impressions"`
	Clicks           int64   `json:"clicks"`
	CTR              float64 `json:"ctr"`
	EstimatedSales   int64   `json:"estimated_sales"`
	EstimatedRevenue float64 `json:"estimated_revenue"`
	ROAS             float64 `json:"roas"`
	CPA              float64 `json:"cpa"`
	Recommendation   string  `json:"recommendation"`
}

type FunnelStep struct {
	StepName       string  `json:"step_name"`
	ActiveUsers    int64   `json:"active_users"`
	CompletionRate float64 `json:"completion_rate"`
}

type FunnelSummary struct {
	TotalEntries          int64   `json:"total_entries"`
	TotalConversions      int64   `json:"total_conversions"`
	OverallConversionRate float64 `json:"overall_conversion_rate"`
	DropOffRate           float64 `json:"drop_off_rate"`
}

type FunnelReport struct {
	Steps   []FunnelStep  `json:"steps"`
	Summary FunnelSummary `json:"summary"`
}

// AdsFunnelStage is one stage of the impressions -> clicks -> sales funnel.
type AdsFunnelStage struct {
	Stage      string  `json:"stage"`
	Value      int64   `json:"value"`
	Percentage float64 `json:"percentage"`
	Source     string  `json:"source"`
}

type VideoEngagement struct {
	TotalViews     int64   `json:"total_views"`
	TotalPlays     int64   `json:"total_plays"`
	AvgWatchTime   float64 `json:"avg_watch_time"`
	AvgRetention   float64 `json:"avg_retention"`
	TotalVideos    int64   `json:"total_videos"`
	EngagementRate float64 `json:"engagement_rate"`
}

// Video is one entry of the video platform's catalogue.
type Video struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Duration   float64 `json:"duration"`
	TotalViews int64   `json:"total_views"`
	TotalPlays int64   `json:"total_plays"`
}

type VideoReport struct {
	VideoEngagement
	PlayRate        float64 `json:"play_rate"`
	RetentionStatus string  `json:"retention_status"`
	EngagementLevel string  `json:"engagement_level"`
}
