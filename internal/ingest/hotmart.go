package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/automacao-f5/dashboard-v1/internal/models"
)

const (
	HotmartAPIURL   = "https://developers.hotmart.com"
	HotmartTokenURL = "https://api-sec-vlc.hotmart.com/security/oauth/token"

	hotmartPageSize     = 500
	hotmartDefaultPages = 20

	// PurchaseApproved is the status counted as an approved sale.
	PurchaseApproved = "APPROVED"
	PurchaseRefunded = "REFUNDED"
)

var (
	ErrHotmartConfigMissingClientID     = errors.New("hotmart: client ID is required")
	ErrHotmartConfigMissingClientSecret = errors.New("hotmart: client secret is required")
)

type HotmartConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	// MaxPages caps how many sales history pages one summary reads.
	MaxPages int
}

func (c *HotmartConfig) Validate() error {
	if c.ClientID == "" {
		return ErrHotmartConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrHotmartConfigMissingClientSecret
	}
	if c.BaseURL == "" {
		c.BaseURL = HotmartAPIURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.TokenURL == "" {
		c.TokenURL = HotmartTokenURL
	}
	if c.MaxPages <= 0 {
		c.MaxPages = hotmartDefaultPages
	}
	return nil
}

type HotmartClient struct {
	cfg HotmartConfig
	c   HTTPClient
	now func() time.Time
}

// NewHotmartClient authenticates with OAuth2 client credentials. Tokens are
// fetched through base and cached until they expire.
func NewHotmartClient(cfg HotmartConfig, base *http.Client) (*HotmartClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
		EndpointParams: url.Values{
			"client_id":     {cfg.ClientID},
			"client_secret": {cfg.ClientSecret},
		},
	}
	ctx := context.Background()
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	hc := cc.Client(ctx)
	if base != nil {
		hc.Timeout = base.Timeout
	}
	return &HotmartClient{cfg: cfg, c: hc, now: time.Now}, nil
}

type hotmartPageInfo struct {
	NextPageToken string `json:"next_page_token"`
}

type hotmartSalesResp struct {
	Items []hotmartSale   `json:"items"`
	Page  hotmartPageInfo `json:"page_info"`
}

type hotmartSale struct {
	Product struct {
		ID   Number `json:"id"`
		Name string `json:"name"`
	} `json:"product"`
	Purchase struct {
		Transaction string `json:"transaction"`
		OrderDate   Number `json:"order_date"`
		Status      string `json:"status"`
		Price       struct {
			Value        Number `json:"value"`
			CurrencyCode string `json:"currency_code"`
		} `json:"price"`
		Payment struct {
			Type string `json:"type"`
		} `json:"payment"`
	} `json:"purchase"`
}

// ApprovedSalesSummary reads the sales history for the range (nil means all
// time) and sums the approved purchases.
func (h *HotmartClient) ApprovedSalesSummary(ctx context.Context, r *models.DateRange) (models.SalesSummary, error) {
	sales, truncated, err := h.salesHistory(ctx, r)
	if err != nil {
		return models.SalesSummary{}, err
	}
	s := summarizeSales(sales)
	s.Truncated = truncated
	return s, nil
}

// SalesHistory lists the purchases in the range in platform order.
func (h *HotmartClient) SalesHistory(ctx context.Context, r *models.DateRange) (models.SalesHistory, error) {
	sales, truncated, err := h.salesHistory(ctx, r)
	if err != nil {
		return models.SalesHistory{}, err
	}
	out := models.SalesHistory{Sales: make([]models.Sale, len(sales)), Truncated: truncated}
	for i, sale := range sales {
		p := sale.Purchase
		out.Sales[i] = models.Sale{
			Transaction: p.Transaction,
			ProductID:   sale.Product.ID.Int(),
			ProductName: sale.Product.Name,
			Status:      strings.ToUpper(strings.TrimSpace(p.Status)),
			Price:       p.Price.Value.Float(),
			Currency:    p.Price.CurrencyCode,
			PaymentType: p.Payment.Type,
		}
		if ms := p.OrderDate.Int(); ms > 0 {
			out.Sales[i].OrderDate = time.UnixMilli(ms).UTC()
		}
	}
	return out, nil
}

// salesHistory pages through /sales/history. The bool is set when MaxPages
// was reached while more pages remained.
func (h *HotmartClient) salesHistory(ctx context.Context, r *models.DateRange) ([]hotmartSale, bool, error) {
	q := url.Values{}
	q.Set("max_results", strconv.Itoa(hotmartPageSize))
	if r != nil {
		from, to, err := r.Bounds(h.now())
		if err != nil {
			return nil, false, fmt.Errorf("hotmart: %w", err)
		}
		q.Set("start_date", strconv.FormatInt(from.UnixMilli(), 10))
		q.Set("end_date", strconv.FormatInt(to.UnixMilli()-1, 10))
	}

	var sales []hotmartSale
	for page := 0; page < h.cfg.MaxPages; page++ {
		u := h.cfg.BaseURL + "/payments/api/v1/sales/history?" + q.Encode()
		var resp hotmartSalesResp
		if err := getJSON(ctx, h.c, "hotmart", u, nil, &resp); err != nil {
			return nil, false, err
		}
		sales = append(sales, resp.Items...)
		if resp.Page.NextPageToken == "" {
			return sales, false, nil
		}
		q.Set("page_token", resp.Page.NextPageToken)
	}
	return sales, true, nil
}

type hotmartProduct struct {
	ID             Number `json:"id"`
	UCode          string `json:"ucode"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	Format         string `json:"format"`
	IsSubscription bool   `json:"is_subscription"`
}

type hotmartProductsResp struct {
	Items []hotmartProduct `json:"items"`
	Page  hotmartPageInfo  `json:"page_info"`
}

// Products lists the account's products, up to MaxPages pages.
func (h *HotmartClient) Products(ctx context.Context) ([]models.Product, error) {
	q := url.Values{}
	q.Set("max_results", strconv.Itoa(hotmartPageSize))
	var out []models.Product
	for page := 0; page < h.cfg.MaxPages; page++ {
		u := h.cfg.BaseURL + "/payments/api/v1/products?" + q.Encode()
		var resp hotmartProductsResp
		if err := getJSON(ctx, h.c, "hotmart", u, nil, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Items {
			out = append(out, models.Product{
				ID:             p.ID.Int(),
				UCode:          p.UCode,
				Name:           p.Name,
				Status:         p.Status,
				Format:         p.Format,
				IsSubscription: p.IsSubscription,
			})
		}
		if resp.Page.NextPageToken == "" {
			break
		}
		q.Set("page_token", resp.Page.NextPageToken)
	}
	return out, nil
}

func summarizeSales(sales []hotmartSale) models.SalesSummary {
	var s models.SalesSummary
	revenue := decimal.Zero
	for _, sale := range sales {
		s.TotalSales++
		switch strings.ToUpper(strings.TrimSpace(sale.Purchase.Status)) {
		case PurchaseApproved:
			s.ApprovedSales++
			revenue = revenue.Add(sale.Purchase.Price.Value.Decimal())
		case PurchaseRefunded:
			s.RefundedSales++
		}
	}
	s.TotalRevenue = revenue.InexactFloat64()
	if s.TotalSales > 0 {
		s.ConversionRate = float64(s.ApprovedSales) / float64(s.TotalSales) * 100
	}
	if s.ApprovedSales > 0 {
		s.AverageTicket = revenue.Div(decimal.NewFromInt(s.ApprovedSales)).InexactFloat64()
	}
	return s
}
