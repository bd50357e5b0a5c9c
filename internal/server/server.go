package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/medisearch/config"
	"github.com/mohammad-safakhou/medisearch/internal/research"
	"github.com/mohammad-safakhou/medisearch/internal/store"
	"github.com/mohammad-safakhou/medisearch/internal/telemetry"
	"github.com/mohammad-safakhou/medisearch/provider"
	"github.com/mohammad-safakhou/medisearch/session"
)

// Run assembles the full service from config and serves HTTP until the
// listener fails.
func Run(cfg config.Config, addr string) error {
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	pipeLogger := log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)

	llm, err := provider.NewProvider(provider.OpenAI, cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}
	sessions, err := session.NewStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		metrics = telemetry.New(cfg.Telemetry.Namespace, prometheus.DefaultRegisterer)
	}

	var chatLog research.ExchangeLogger
	if cfg.Storage.Postgres.URL != "" {
		if err := store.Migrate("file://migrations", cfg.Storage.Postgres.URL, "up", 0); err != nil {
			return fmt.Errorf("migrate chat log: %w", err)
		}
		pg, err := store.NewWithDSN(cfg.Storage.Postgres.URL, cfg.Storage.Postgres.Timeout)
		if err != nil {
			return fmt.Errorf("chat log store: %w", err)
		}
		chatLog = pg
	}

	adapters := research.NewAdapters(cfg.Sources, pipeLogger)
	classifier := research.NewClassifier(llm, cfg, pipeLogger)
	aggregator := research.NewAggregator(adapters, cfg.Sources.Expression.TriggerWords, cfg.General.SourceCallTimeout, pipeLogger)
	synthesizer := research.NewSynthesizer(llm, cfg.LLM.SynthesizeTimeout)
	svc := research.NewService(cfg, classifier, aggregator, synthesizer, sessions, chatLog, metrics, pipeLogger)

	e := newEcho(cfg, baseLogger)
	h := &ChatHandler{Service: svc}
	h.Register(e.Group("/api"))

	if addr == "" {
		addr = cfg.Server.Address
	}
	if addr == "" {
		addr = ":10002"
	}
	baseLogger.Printf("listening on %s", addr)
	return e.Start(addr)
}

// newEcho builds the echo instance with the shared middleware stack and the
// unified error handler. Split out so handler tests can reuse it.
func newEcho(cfg config.Config, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"status": "error", "message": msg})
		}
	}

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}
