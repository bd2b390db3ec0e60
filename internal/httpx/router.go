package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/automacao-f5/dashboard-v1/internal/export"
	"github.com/automacao-f5/dashboard-v1/internal/metrics"
	"github.com/automacao-f5/dashboard-v1/internal/models"
	"github.com/automacao-f5/dashboard-v1/internal/telemetry"
	"github.com/automacao-f5/dashboard-v1/internal/utils"
)

const (
	defaultListLimit = 10
	maxListLimit     = 1000
)

type Deps struct {
	Log      *slog.Logger
	Service  *metrics.Service
	Exporter *export.Exporter
	// Telemetry is optional; without it /metrics is not mounted.
	Telemetry     *telemetry.Metrics
	DefaultPreset models.DatePreset
	Now           func() time.Time
}

type api struct {
	log    *slog.Logger
	svc    *metrics.Service
	exp    *export.Exporter
	preset models.DatePreset
	now    func() time.Time
}

// envelope wraps every /api response.
type envelope struct {
	Success   bool              `json:"success"`
	Data      any               `json:"data,omitempty"`
	Error     string            `json:"error,omitempty"`
	DateRange *models.DateRange `json:"dateRange,omitempty"`
}

func NewRouter(d Deps) http.Handler {
	a := &api{log: d.Log, svc: d.Service, exp: d.Exporter, preset: d.DefaultPreset, now: d.Now}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.preset == "" {
		a.preset = models.PresetLast7d
	}
	if a.now == nil {
		a.now = time.Now
	}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(a.log))
	mux.Use(middleware.Recoverer)
	if d.Telemetry != nil {
		mux.Use(d.Telemetry.Middleware)
		mux.Method(http.MethodGet, "/metrics", d.Telemetry.Handler())
	}

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })

	mux.Route("/api/dashboard", func(r chi.Router) {
		r.Get("/consolidated", a.consolidated)
		r.Get("/funnel", a.adsFunnel)
		r.Get("/campaigns", a.campaigns)
		r.Get("/video", a.video)
		r.Get("/videos", a.videos)
		r.Get("/sales", a.salesHistory)
		r.Get("/products", a.products)
	})

	mux.Route("/api/analytics", func(r chi.Router) {
		r.Get("/", a.trafficSummary)
		r.Get("/funnel", a.webFunnel)
		r.Get("/trend", a.trend)
		r.Get("/sources", a.sources)
		r.Get("/pageviews", a.pageViews)
		r.Get("/page", a.pageDetail)
		r.Get("/devices", a.devices)
		r.Get("/geo", a.geography)
		r.Get("/events", a.events)
		r.Get("/campaigns", a.campaignTraffic)
		r.Get("/compare", a.compare)
	})

	mux.Post("/export/run", a.exportRun)

	return mux
}

// ---------------------------------------------------------------------------
// ads + sales

func (a *api) consolidated(w http.ResponseWriter, r *http.Request) {
	preset, dr, ok := a.presetParam(w, r)
	if !ok {
		return
	}
	c, err := a.svc.Consolidated(r.Context(), preset)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, c.Rounded(), dr)
}

func (a *api) adsFunnel(w http.ResponseWriter, r *http.Request) {
	preset, dr, ok := a.presetParam(w, r)
	if !ok {
		return
	}
	stages, err := a.svc.AdsFunnel(r.Context(), preset)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	for i := range stages {
		stages[i].Percentage = models.Round2(stages[i].Percentage)
	}
	a.ok(w, stages, dr)
}

func (a *api) campaigns(w http.ResponseWriter, r *http.Request) {
	preset, dr, ok := a.presetParam(w, r)
	if !ok {
		return
	}
	perf, err := a.svc.CampaignPerformance(r.Context(), preset)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]models.CampaignPerformance, len(perf))
	for i, p := range perf {
		out[i] = p.Rounded()
	}
	a.ok(w, out, dr)
}

func (a *api) video(w http.ResponseWriter, r *http.Request) {
	dr, ok := a.optionalRange(w, r)
	if !ok {
		return
	}
	rep, err := a.svc.Video(r.Context(), dr)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, rep.Rounded(), dr)
}

func (a *api) videos(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	out, err := a.svc.Videos(r.Context(), limitParam(r), page)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, out, nil)
}

func (a *api) salesHistory(w http.ResponseWriter, r *http.Request) {
	dr, ok := a.optionalRange(w, r)
	if !ok {
		return
	}
	h, err := a.svc.SalesHistory(r.Context(), dr)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, h, dr)
}

func (a *api) products(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.Products(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, out, nil)
}

// ---------------------------------------------------------------------------
// web analytics

func (a *api) trafficSummary(w http.ResponseWriter, r *http.Request) {
	dr, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	sum, err := a.svc.TrafficSummary(r.Context(), dr)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, sum, &dr)
}

func (a *api) webFunnel(w http.ResponseWriter, r *http.Request) {
	dr, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	rep, err := a.svc.WebFunnel(r.Context(), listParam(r, "steps"), dr)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, rep.Rounded(), &dr)
}

func (a *api) trend(w http.ResponseWriter, r *http.Request) {
	dr, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	rep, err := a.svc.Trend(r.Context(), dr)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, rep.Rounded(), &dr)
}

func (a *api) sources(w http.ResponseWriter, r *http.Request) {
	dr, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	rows, err := a.svc.TrafficSources(r.Context(), dr, limitParam(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, rows, &dr)
}

func (a *api) pageViews(w http.ResponseWriter, r *http.Request) {
	dr, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	rows, err := a.svc.PageViews(r.Context(), dr, limitParam(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, rows, &dr)
}

func (a *api) pageDetail(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		a.badRequest(w, "path is required")
		return
	}
	dr, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	d, err := a.svc.PageDetail(r.Context(), path, dr)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, d, &dr)
}

func (a *api) devices(w http.ResponseWriter, r *http.Request) {
	dr, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	rows, err := a.svc.Devices(r.Context(), dr)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, rows, &dr)
}

func (a *api) geography(w http.ResponseWriter, r *http.Request) {
	dr, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	rows, err := a.svc.Geography(r.Context(), dr, limitParam(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, rows, &dr)
}

func (a *api) events(w http.ResponseWriter, r *http.Request) {
	dr, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	rows, err := a.svc.Events(r.Context(), dr, listParam(r, "events"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, rows, &dr)
}

func (a *api) campaignTraffic(w http.ResponseWriter, r *http.Request) {
	dr, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	rep, err := a.svc.CampaignTraffic(r.Context(), dr, limitParam(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, rep.Rounded(), &dr)
}

func (a *api) compare(w http.ResponseWriter, r *http.Request) {
	cur, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return
	}
	q := r.URL.Query()
	if q.Get("previousStartDate") == "" || q.Get("previousEndDate") == "" {
		a.badRequest(w, "previousStartDate and previousEndDate are required")
		return
	}
	prev, ok := a.rangeParams(w, r, "previousStartDate", "previousEndDate")
	if !ok {
		return
	}
	cmp, err := a.svc.Compare(r.Context(), cur, prev)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, cmp.Rounded(), &cur)
}

// ---------------------------------------------------------------------------
// export

func (a *api) exportRun(w http.ResponseWriter, r *http.Request) {
	preset, _, ok := a.presetParam(w, r)
	if !ok {
		return
	}
	if a.exp == nil {
		a.fail(w, r, export.ErrSinkNotConfigured)
		return
	}
	n, err := a.exp.Run(r.Context(), preset)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exported": n})
}

// ---------------------------------------------------------------------------
// params and responses

// presetParam reads ?preset= and resolves it to the calendar range it covers.
func (a *api) presetParam(w http.ResponseWriter, r *http.Request) (models.DatePreset, *models.DateRange, bool) {
	preset := a.preset
	if v := strings.TrimSpace(r.URL.Query().Get("preset")); v != "" {
		preset = models.DatePreset(v)
	}
	dr, err := preset.Range(a.now())
	if err != nil {
		a.badRequest(w, err.Error())
		return "", nil, false
	}
	return preset, &dr, true
}

func (a *api) rangeParams(w http.ResponseWriter, r *http.Request, startKey, endKey string) (models.DateRange, bool) {
	dr := models.DefaultAnalyticsRange()
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get(startKey)); v != "" {
		dr.StartDate = v
	}
	if v := strings.TrimSpace(q.Get(endKey)); v != "" {
		dr.EndDate = v
	}
	if _, _, err := dr.Bounds(a.now()); err != nil {
		a.badRequest(w, err.Error())
		return models.DateRange{}, false
	}
	return dr, true
}

// optionalRange is rangeParams for the Hotmart and Vturb routes, where no
// dates at all means an unbounded query.
func (a *api) optionalRange(w http.ResponseWriter, r *http.Request) (*models.DateRange, bool) {
	q := r.URL.Query()
	if q.Get("startDate") == "" && q.Get("endDate") == "" {
		return nil, true
	}
	dr, ok := a.rangeParams(w, r, "startDate", "endDate")
	if !ok {
		return nil, false
	}
	return &dr, true
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func listParam(r *http.Request, key string) []string {
	var out []string
	for _, p := range strings.Split(r.URL.Query().Get(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (a *api) ok(w http.ResponseWriter, data any, dr *models.DateRange) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, DateRange: dr})
}

func (a *api) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, envelope{Error: msg})
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	a.log.Warn("request failed",
		slog.String("path", r.URL.Path),
		slog.String("rid", utils.RID(r.Context())),
		slog.Int("status", status),
		slog.String("err", err.Error()))
	writeJSON(w, status, envelope{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, metrics.ErrSourceNotConfigured), errors.Is(err, export.ErrSinkNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, metrics.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
