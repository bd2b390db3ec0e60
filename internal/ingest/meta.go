package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/automacao-f5/dashboard-v1/internal/models"
)

const (
	// MetaGraphURL is the production Graph API host.
	MetaGraphURL = "https://graph.facebook.com"
	// DefaultMetaAPIVersion is used when the config leaves the version empty.
	DefaultMetaAPIVersion = "v19.0"
)

var (
	ErrMetaConfigMissingToken   = errors.New("meta: access token is required")
	ErrMetaConfigMissingAccount = errors.New("meta: ad account ID is required")
)

// MetaConfig holds credentials for the Meta Marketing (Graph) API.
type MetaConfig struct {
	AccessToken string
	// AdAccountID may be given with or without the "act_" prefix.
	AdAccountID string
	APIVersion  string
	BaseURL     string
}

// Validate checks required fields and fills defaults.
func (c *MetaConfig) Validate() error {
	if c.AccessToken == "" {
		return ErrMetaConfigMissingToken
	}
	if c.AdAccountID == "" {
		return ErrMetaConfigMissingAccount
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultMetaAPIVersion
	}
	if c.BaseURL == "" {
		c.BaseURL = MetaGraphURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

func (c *MetaConfig) accountPath() string {
	if strings.HasPrefix(c.AdAccountID, "act_") {
		return c.AdAccountID
	}
	return "act_" + c.AdAccountID
}

type MetaClient struct {
	cfg MetaConfig
	c   HTTPClient
}

func NewMetaClient(cfg MetaConfig, c HTTPClient) (*MetaClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MetaClient{cfg: cfg, c: c}, nil
}

type metaCampaignsResp struct {
	Data []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"data"`
}

type metaInsightsResp struct {
	Data []struct {
		Spend       Number `json:"spend"`
		Impressions Number `json:"impressions"`
		Clicks      Number `json:"clicks"`
		CTR         Number `json:"ctr"`
	} `json:"data"`
}

func (m *MetaClient) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+m.cfg.AccessToken)
	return h
}

// ListCampaigns returns up to limit campaigns of the ad account, any status.
func (m *MetaClient) ListCampaigns(ctx context.Context, limit int) ([]models.Campaign, error) {
	q := url.Values{}
	q.Set("fields", "id,name,status")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u := fmt.Sprintf("%s/%s/%s/campaigns?%s", m.cfg.BaseURL, m.cfg.APIVersion, m.cfg.accountPath(), q.Encode())

	var resp metaCampaignsResp
	if err := getJSON(ctx, m.c, "meta", u, m.header(), &resp); err != nil {
		return nil, err
	}
	out := make([]models.Campaign, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, models.Campaign{
			ID:     strings.TrimSpace(d.ID),
			Name:   d.Name,
			Status: strings.ToUpper(strings.TrimSpace(d.Status)),
		})
	}
	return out, nil
}

// CampaignInsights fetches spend/impressions/clicks/ctr for one campaign.
// A campaign without delivery in the window yields a zero insight.
func (m *MetaClient) CampaignInsights(ctx context.Context, campaignID string, preset models.DatePreset) (models.CampaignInsight, error) {
	if campaignID == "" {
		return models.CampaignInsight{}, errors.New("meta: empty campaign id")
	}
	q := url.Values{}
	q.Set("fields", "spend,impressions,clicks,ctr")
	q.Set("date_preset", string(preset))
	u := fmt.Sprintf("%s/%s/%s/insights?%s", m.cfg.BaseURL, m.cfg.APIVersion, url.PathEscape(campaignID), q.Encode())

	var resp metaInsightsResp
	if err := getJSON(ctx, m.c, "meta", u, m.header(), &resp); err != nil {
		return models.CampaignInsight{}, err
	}
	ins := models.CampaignInsight{ID: campaignID}
	if len(resp.Data) == 0 {
		return ins, nil
	}
	d := resp.Data[0]
	ins.Spend = d.Spend.Float()
	ins.Impressions = d.Impressions.Int()
	ins.Clicks = d.Clicks.Int()
	ins.CTR = d.CTR.Float()
	return ins, nil
}
