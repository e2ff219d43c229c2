package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/loanguard/billcheck/internal/assess"
	"github.com/loanguard/billcheck/internal/compare"
	"github.com/loanguard/billcheck/internal/config"
	"github.com/loanguard/billcheck/internal/loans"
	"github.com/loanguard/billcheck/internal/ocr"
)

// env is everything a command needs to assess documents in one repo.
type env struct {
	repo    string
	cfg     *config.Config
	logger  *slog.Logger
	ocr     *ocr.Router
	service *assess.Service
	close   func() error
}

// openEnv loads configuration and wires the loan store, OCR and assessment
// service for repoDir.
func openEnv(opts *globalOptions, repoDir string) (*env, error) {
	repo, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := loadConfig(opts.configPath, repo)
	if err != nil {
		return nil, err
	}

	if opts.logOut != nil {
		if err := opts.configureLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
			return nil, err
		}
	}
	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}

	store, closeStore, err := openStore(cfg, repo, logger)
	if err != nil {
		return nil, err
	}

	runner := ocr.ExecRunner{Logger: logger}
	router := ocr.DefaultRouter(
		ocr.Tesseract{
			Binary:   cfg.OCR.Tesseract,
			Language: cfg.OCR.Language,
			Runner:   runner,
		},
		ocr.ScannedPDF{
			Binary:   cfg.OCR.Pdftoppm,
			DPI:      cfg.OCR.DPI,
			MaxPages: cfg.OCR.MaxPages,
			Runner:   runner,
		},
	)

	svc := assess.NewService(assess.Options{
		Engine:  compare.NewEngine(cfg.EngineSettings()),
		Loans:   store,
		OCR:     router,
		Logger:  logger,
		Retries: cfg.OCR.Retries,
		Workers: cfg.Batch.Workers,
	})

	return &env{
		repo:    repo,
		cfg:     cfg,
		logger:  logger,
		ocr:     router,
		service: svc,
		close:   closeStore,
	}, nil
}

// loadConfig reads the explicit config path, else <repo>/billcheck.yaml if
// present, else defaults.
func loadConfig(path, repo string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	path = filepath.Join(repo, config.FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.Default(""), nil
	}
	return config.Load(path)
}

// openStore returns the configured loan store. A CSV repo without loan files
// yields a nil store so documents can still be scored without a cross-check.
func openStore(cfg *config.Config, repo string, logger *slog.Logger) (loans.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Loans.Driver {
	case config.DriverSQLite:
		dsn := cfg.Loans.DSN
		if !filepath.IsAbs(dsn) {
			dsn = filepath.Join(repo, dsn)
		}
		db, err := loans.OpenSQLite(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("opening loan database: %w", err)
		}
		return db, db.Close, nil
	default:
		svc, err := loans.Load(repo)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("loans.unavailable", "repo", repo)
			return nil, noop, nil
		}
		if err != nil {
			return nil, nil, err
		}
		return svc, noop, nil
	}
}
