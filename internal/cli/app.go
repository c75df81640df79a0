package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/lagna/internal/cache"
	"github.com/ppiankov/lagna/internal/chart"
	"github.com/ppiankov/lagna/internal/metrics"
	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/question"
	"github.com/ppiankov/lagna/internal/rectify"
	"github.com/ppiankov/lagna/internal/score"
	"github.com/ppiankov/lagna/internal/session"
	"github.com/ppiankov/lagna/internal/worker"
)

// app wires the components one command run needs
type app struct {
	cfg      *model.Config
	builder  *chart.Builder
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func newApp(cfg *model.Config) *app {
	var opts []chart.Option
	if c := cache.New(cfg.Cache); c != nil {
		opts = append(opts, chart.WithCache(c, cfg.Cache.MemoryTTL))
	}
	reg := prometheus.NewRegistry()
	return &app{
		cfg:      cfg,
		builder:  chart.NewBuilder(opts...),
		registry: reg,
		metrics:  metrics.New(reg),
	}
}

// sessions builds a session manager whose transits use opts
func (a *app) sessions(bank []question.Question, opts model.ChartOptions) *session.Manager {
	workers := a.cfg.Concurrency.Workers
	if workers < 1 {
		workers = 1
	}
	scorer := score.NewScorer(a.builder, opts, a.cfg.Rectification.EventOrb)
	engine := rectify.NewEngine(a.cfg.Rectification, scorer)

	grid := worker.NewGridBuilder(a.builder, workers)
	grid.OnBuilt(a.metrics.GridBuilt)

	selector := question.NewSelector(bank, scorer, a.cfg.Questions, workers)
	return session.NewManager(a.cfg.Session, engine, grid, selector, a.cfg.Chart,
		session.WithLogger(slog.Default()),
		session.WithMetrics(a.metrics))
}

// writeMetrics dumps the run's metrics in the Prometheus text format
func (a *app) writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func loadBank(path string) ([]question.Question, error) {
	if path == "" {
		return question.DefaultBank()
	}
	return question.LoadBank(path)
}

func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
