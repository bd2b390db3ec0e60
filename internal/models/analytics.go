package models

// Web analytics records, one per report row.

type TrafficSummary struct {
	Sessions                  int64   `json:"sessions"`
	ActiveUsers               int64   `json:"active_users"`
	NewUsers                  int64   `json:"new_users"`
	ScreenPageViews           int64   `json:"screen_page_views"`
	EngagementRate            float64 `json:"engagement_rate"`
	AverageSessionDuration    float64 `json:"average_session_duration"`
	BounceRate                float64 `json:"bounce_rate"`
	SessionsPerUser           float64 `json:"sessions_per_user"`
	ScreenPageViewsPerSession float64 `json:"screen_page_views_per_session"`
}

type PageView struct {
	PagePath               string  `json:"page_path"`
	PageTitle              string  `json:"page_title"`
	ScreenPageViews        int64   `json:"screen_page_views"`
	Sessions               int64   `json:"sessions"`
	ActiveUsers            int64   `json:"active_users"`
	AverageSessionDuration float64 `json:"average_session_duration"`
	BounceRate             float64 `json:"bounce_rate"`
}

// PageDetail is the traffic of the pages whose path contains a fragment.
type PageDetail struct {
	PagePath               string  `json:"page_path"`
	ScreenPageViews        int64   `json:"screen_page_views"`
	ActiveUsers            int64   `json:"active_users"`
	AverageSessionDuration float64 `json:"average_session_duration"`
	BounceRate             float64 `json:"bounce_rate"`
	EngagementRate         float64 `json:"engagement_rate"`
}

type DeviceTraffic struct {
	Device                 string  `json:"device"`
	Sessions               int64   `json:"sessions"`
	Users                  int64   `json:"users"`
	PageViews              int64   `json:"page_views"`
	AverageSessionDuration float64 `json:"average_session_duration"`
	BounceRate             float64 `json:"bounce_rate"`
}

type GeoTraffic struct {
	Country     string `json:"country"`
	Region      string `json:"region"`
	Sessions    int64  `json:"sessions"`
	Users       int64  `json:"users"`
	Conversions int64  `json:"conversions"`
}

type EventCount struct {
	EventName  string `json:"event_name"`
	EventCount int64  `json:"event_count"`
	TotalUsers int64  `json:"total_users"`
}

type TrafficSource struct {
	Source     string  `json:"source"`
	Medium     string  `json:"medium"`
	Sessions   int64   `json:"sessions"`
	Users      int64   `json:"users"`
	NewUsers   int64   `json:"new_users"`
	BounceRate float64 `json:"bounce_rate"`
}

type DailyTraffic struct {
	Date                   string  `json:"date"`
	Sessions               int64   `json:"sessions"`
	ActiveUsers            int64   `json:"active_users"`
	ScreenPageViews        int64   `json:"screen_page_views"`
	NewUsers               int64   `json:"new_users"`
	EngagementRate         float64 `json:"engagement_rate"`
	AverageSessionDuration float64 `json:"average_session_duration"`
}

type TrendSummary struct {
	TotalSessions     int64   `json:"total_sessions"`
	TotalUsers        int64   `json:"total_users"`
	TotalPageViews    int64   `json:"total_page_views"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	Days              int     `json:"days"`
}

type TrendReport struct {
	Daily   []DailyTraffic `json:"daily"`
	Summary TrendSummary   `json:"summary"`
}

type CampaignTraffic struct {
	Campaign       string  `json:"campaign"`
	Source         string  `json:"source"`
	Medium         string  `json:"medium"`
	Sessions       int64   `json:"sessions"`
	Users          int64   `json:"users"`
	Conversions    int64   `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

type CampaignTotals struct {
	Sessions       int64   `json:"sessions"`
	Users          int64   `json:"users"`
	Conversions    int64   `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

type CampaignTrafficReport struct {
	Campaigns []CampaignTraffic `json:"campaigns"`
	Totals    CampaignTotals    `json:"totals"`
}

// PeriodTotals is the set of metrics compared between two date ranges.
type PeriodTotals struct {
	Sessions       float64 `json:"sessions"`
	Users          float64 `json:"users"`
	PageViews      float64 `json:"page_views"`
	Conversions    float64 `json:"conversions"`
	EngagementRate float64 `json:"engagement_rate"`
}

type PeriodComparison struct {
	Current  PeriodTotals `json:"current"`
	Previous PeriodTotals `json:"previous"`
	// Changes holds the percentage change of each field from Previous to Current.
	Changes PeriodTotals `json:"changes"`
}
