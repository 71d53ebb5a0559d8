package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vindicatenyc/vindicate-app/internal/aiextract"
	"github.com/vindicatenyc/vindicate-app/internal/analysis"
	"github.com/vindicatenyc/vindicate-app/internal/audit"
	"github.com/vindicatenyc/vindicate-app/internal/chart"
	"github.com/vindicatenyc/vindicate-app/internal/config"
	"github.com/vindicatenyc/vindicate-app/internal/extract"
	"github.com/vindicatenyc/vindicate-app/internal/logger"
	"github.com/vindicatenyc/vindicate-app/internal/metrics"
	"github.com/vindicatenyc/vindicate-app/internal/reader"
)

// caseEnv is everything a command needs to run against a case directory.
type caseEnv struct {
	dir      string
	cfg      *config.Config
	log      zerolog.Logger
	ctx      context.Context
	registry *reader.Registry
	gatherer *prometheus.Registry
	metrics  *metrics.Metrics
}

// openCase loads .env and vindicate.yaml from dir. A missing config file
// means defaults.
func openCase(cmd *cobra.Command, dir string) (*caseEnv, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	_ = godotenv.Load(filepath.Join(absDir, ".env"))

	cfg, err := config.Load(filepath.Join(absDir, config.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Out: cmd.ErrOrStderr()})
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	reg := prometheus.NewRegistry()
	return &caseEnv{
		dir:      absDir,
		cfg:      cfg,
		log:      log,
		ctx:      logger.WithContext(ctx, log),
		registry: reader.DefaultRegistry(),
		gatherer: reg,
		metrics:  metrics.New(reg),
	}, nil
}

func (e *caseEnv) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.dir, p)
}

func (e *caseEnv) newTrail() *audit.Trail {
	return audit.NewTrail(audit.Options{Logger: &e.log})
}

// pipeline builds the analysis pipeline, with the model extractor when
// enabled.
func (e *caseEnv) pipeline() (*analysis.Pipeline, error) {
	var ai extract.AIExtractor
	if e.cfg.AI.Enabled {
		gem, err := aiextract.NewGemini(e.ctx, os.Getenv(e.cfg.AI.APIKeyEnv), e.cfg.AI.Model)
		if err != nil {
			return nil, err
		}
		ai = gem
	}
	ch, err := e.chart()
	if err != nil {
		return nil, err
	}
	return analysis.FromConfig(e.cfg, ch, e.registry, ai, e.metrics)
}

// chart loads the case's category chart, falling back to the built-in one.
func (e *caseEnv) chart() (*chart.Chart, error) {
	ch, err := chart.Load(e.path(chart.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return chart.Default(), nil
	}
	return ch, err
}

// finish seals the trail and appends it to the audit log, whatever err is.
func (e *caseEnv) finish(trail *audit.Trail, auditPath string, err error) error {
	trail.Complete(analysis.FinalStatus(err, trail))
	if auditPath == "" {
		return err
	}
	if werr := audit.AppendFile(e.path(auditPath), trail.Snapshot()); werr != nil {
		e.log.Error().Err(werr).Str("path", auditPath).Msg("writing audit log")
		return errors.Join(err, werr)
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
