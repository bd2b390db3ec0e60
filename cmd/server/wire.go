package main

import (
	"log/slog"
	"net/http"

	"github.com/automacao-f5/dashboard-v1/internal/config"
	"github.com/automacao-f5/dashboard-v1/internal/export"
	"github.com/automacao-f5/dashboard-v1/internal/ingest"
	"github.com/automacao-f5/dashboard-v1/internal/metrics"
	"github.com/automacao-f5/dashboard-v1/internal/telemetry"
)

type app struct {
	svc *metrics.Service
	exp *export.Exporter
}

// wire builds one client per configured platform. A platform with no
// settings is disabled; one with partial settings is an error.
func wire(cfg config.Config, log *slog.Logger, tel *telemetry.Metrics) (*app, error) {
	client := func(provider string) *http.Client {
		return ingest.NewHTTPClient(cfg.HTTPTimeout, tel.Transport(provider, nil))
	}

	var src metrics.Sources
	if cfg.MetaEnabled() {
		m, err := ingest.NewMetaClient(cfg.Meta, client("meta"))
		if err != nil {
			return nil, err
		}
		src.Ads = m
	} else {
		log.Warn("meta disabled: no credentials")
	}
	if cfg.HotmartEnabled() {
		h, err := ingest.NewHotmartClient(cfg.Hotmart, client("hotmart"))
		if err != nil {
			return nil, err
		}
		src.Sales = h
	} else {
		log.Warn("hotmart disabled: no credentials")
	}
	if cfg.VturbEnabled() {
		v, err := ingest.NewVturbClient(cfg.Vturb, client("vturb"))
		if err != nil {
			return nil, err
		}
		src.Video = v
	} else {
		log.Warn("vturb disabled: no credentials")
	}
	if cfg.GA4Enabled() {
		g, err := ingest.NewGA4Client(cfg.GA4, client("ga4"))
		if err != nil {
			return nil, err
		}
		src.Web = g
	} else {
		log.Warn("ga4 disabled: no credentials")
	}

	svc := metrics.NewService(src, log, tel, metrics.Options{
		Concurrency:   cfg.FetchConcurrency,
		CampaignLimit: cfg.CampaignLimit,
	})
	exp := export.NewExporter(client("sink"), svc, log, cfg.SinkURL, cfg.SinkSecret)
	return &app{svc: svc, exp: exp}, nil
}
