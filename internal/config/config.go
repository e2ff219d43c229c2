package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/loanguard/billcheck/internal/compare"
	"github.com/loanguard/billcheck/internal/match"
)

// FileName is the configuration file created by init.
const FileName = "billcheck.yaml"

// Config represents the top-level billcheck.yaml configuration.
type Config struct {
	Lender   LenderConfig   `yaml:"lender"`
	Itemized ItemizedConfig `yaml:"itemized"`
	FreeText FreeTextConfig `yaml:"free_text"`
	Loans    LoansConfig    `yaml:"loans"`
	OCR      OCRConfig      `yaml:"ocr"`
	Batch    BatchConfig    `yaml:"batch"`
	Log      LogConfig      `yaml:"log"`
}

// LenderConfig identifies the lending office running the checks.
type LenderConfig struct {
	Name   string `yaml:"name"`
	Branch string `yaml:"branch,omitempty"`
}

// ItemizedConfig calibrates itemized bill comparison.
type ItemizedConfig struct {
	TotalTolerance        float64           `yaml:"total_tolerance"` // fraction, e.g. 0.05
	PriceTolerance        float64           `yaml:"price_tolerance"`
	MatchThreshold        int               `yaml:"match_threshold_percent"`
	MinKeyWordLen         int               `yaml:"min_key_word_len"`
	InsufficientDataScore int               `yaml:"insufficient_data_score"`
	Penalties             ItemizedPenalties `yaml:"penalties"`
}

// ItemizedPenalties are the risk points added per discrepancy.
type ItemizedPenalties struct {
	TotalMismatch int `yaml:"total_mismatch"`
	MissingItem   int `yaml:"missing_item"`
	Quantity      int `yaml:"quantity"`
	Price         int `yaml:"price"`
}

// FreeTextConfig calibrates free-text scoring.
type FreeTextConfig struct {
	Penalties       FreeTextPenalties `yaml:"penalties"`
	TotalBands      []TotalBand       `yaml:"total_bands"`
	VeryPoorTextLen int               `yaml:"very_poor_text_len"`
	PoorTextLen     int               `yaml:"poor_text_len"`
}

// FreeTextPenalties are the risk points added per finding.
type FreeTextPenalties struct {
	MissingInvoice int `yaml:"missing_invoice"`
	MissingDate    int `yaml:"missing_date"`
	MissingTotal   int `yaml:"missing_total"`
	MissingVendor  int `yaml:"missing_vendor"`
	VendorMismatch int `yaml:"vendor_mismatch"`
	VeryPoorText   int `yaml:"very_poor_text"`
	PoorText       int `yaml:"poor_text"`
	NoDigits       int `yaml:"no_digits"`
}

// TotalBand penalizes a relative total difference strictly above Over.
type TotalBand struct {
	Over        float64 `yaml:"over"`
	Penalty     int     `yaml:"penalty"`
	Description string  `yaml:"description"`
}

// LoansConfig selects the loan-record store.
type LoansConfig struct {
	Driver string `yaml:"driver"`        // "csv" or "sqlite"
	DSN    string `yaml:"dsn,omitempty"` // sqlite database path
}

// OCRConfig controls text recognition.
type OCRConfig struct {
	Tesseract string `yaml:"tesseract"`
	Language  string `yaml:"language"`
	Retries   int    `yaml:"retries"`
	Pdftoppm  string `yaml:"pdftoppm"` // renders scanned PDF pages
	DPI       int    `yaml:"dpi"`
	MaxPages  int    `yaml:"max_pages"` // 0 means all pages
}

// BatchConfig controls inbox processing.
type BatchConfig struct {
	Workers  int    `yaml:"workers"`
	AuditLog string `yaml:"audit_log"`
}

// LogConfig sets the default log output. The --log-level and --log-format
// flags override it.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Loan store drivers.
const (
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
)

// Load reads a billcheck.yaml file from disk. Sections missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the standard calibration for a new project.
func Default(lenderName string) *Config {
	s := compare.DefaultSettings()

	bands := make([]TotalBand, len(s.FreeText.TotalBands))
	for i, b := range s.FreeText.TotalBands {
		bands[i] = TotalBand{Over: b.Over.InexactFloat64(), Penalty: b.Penalty, Description: b.Description}
	}

	return &Config{
		Lender: LenderConfig{Name: lenderName},
		Itemized: ItemizedConfig{
			TotalTolerance:        s.Itemized.TotalTolerance.InexactFloat64(),
			PriceTolerance:        s.Itemized.PriceTolerance.InexactFloat64(),
			MatchThreshold:        s.Matcher.ThresholdPercent,
			MinKeyWordLen:         s.Matcher.MinKeyWordLen,
			InsufficientDataScore: s.Itemized.InsufficientDataScore,
			Penalties: ItemizedPenalties{
				TotalMismatch: s.Itemized.TotalMismatchPenalty,
				MissingItem:   s.Itemized.MissingItemPenalty,
				Quantity:      s.Itemized.QuantityPenalty,
				Price:         s.Itemized.PricePenalty,
			},
		},
		FreeText: FreeTextConfig{
			Penalties: FreeTextPenalties{
				MissingInvoice: s.FreeText.MissingInvoicePenalty,
				MissingDate:    s.FreeText.MissingDatePenalty,
				MissingTotal:   s.FreeText.MissingTotalPenalty,
				MissingVendor:  s.FreeText.MissingVendorPenalty,
				VendorMismatch: s.FreeText.VendorMismatchPenalty,
				VeryPoorText:   s.FreeText.VeryPoorTextPenalty,
				PoorText:       s.FreeText.PoorTextPenalty,
				NoDigits:       s.FreeText.NoDigitPenalty,
			},
			TotalBands:      bands,
			VeryPoorTextLen: s.FreeText.VeryPoorTextLen,
			PoorTextLen:     s.FreeText.PoorTextLen,
		},
		Loans: LoansConfig{
			Driver: DriverCSV,
		},
		OCR: OCRConfig{
			Tesseract: "tesseract",
			Language:  "eng",
			Retries:   2,
			Pdftoppm:  "pdftoppm",
			DPI:       300,
		},
		Batch: BatchConfig{
			Workers:  4,
			AuditLog: "logs/assessments.csv",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Itemized.TotalTolerance < 0 {
		fail("itemized.total_tolerance must not be negative")
	}
	if c.Itemized.PriceTolerance < 0 {
		fail("itemized.price_tolerance must not be negative")
	}
	if c.Itemized.MatchThreshold < 1 || c.Itemized.MatchThreshold > 100 {
		fail("itemized.match_threshold_percent must be within 1..100, got %d", c.Itemized.MatchThreshold)
	}
	if c.Itemized.MinKeyWordLen < 1 {
		fail("itemized.min_key_word_len must be at least 1, got %d", c.Itemized.MinKeyWordLen)
	}
	for i, b := range c.FreeText.TotalBands {
		if b.Over < 0 {
			fail("free_text.total_bands[%d].over must not be negative", i)
		}
		if i > 0 && b.Over >= c.FreeText.TotalBands[i-1].Over {
			fail("free_text.total_bands must be ordered from largest to smallest difference")
		}
	}
	if c.FreeText.PoorTextLen < c.FreeText.VeryPoorTextLen {
		fail("free_text.poor_text_len must not be below very_poor_text_len")
	}
	switch c.Loans.Driver {
	case DriverCSV:
	case DriverSQLite:
		if c.Loans.DSN == "" {
			fail("loans.dsn is required for the sqlite driver")
		}
	default:
		fail("loans.driver must be %q or %q, got %q", DriverCSV, DriverSQLite, c.Loans.Driver)
	}
	if c.OCR.Retries < 0 {
		fail("ocr.retries must not be negative")
	}
	if c.OCR.DPI < 72 {
		fail("ocr.dpi must be at least 72, got %d", c.OCR.DPI)
	}
	if c.OCR.MaxPages < 0 {
		fail("ocr.max_pages must not be negative")
	}
	if c.Batch.Workers < 1 {
		fail("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		fail("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		fail("log.format must be text or json, got %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

// EngineSettings converts the calibration sections into comparison settings.
func (c *Config) EngineSettings() compare.Settings {
	s := compare.DefaultSettings()

	s.Matcher = match.Matcher{
		ThresholdPercent: c.Itemized.MatchThreshold,
		MinKeyWordLen:    c.Itemized.MinKeyWordLen,
	}
	s.Itemized.TotalTolerance = decimal.NewFromFloat(c.Itemized.TotalTolerance)
	s.Itemized.PriceTolerance = decimal.NewFromFloat(c.Itemized.PriceTolerance)
	s.Itemized.InsufficientDataScore = c.Itemized.InsufficientDataScore
	s.Itemized.TotalMismatchPenalty = c.Itemized.Penalties.TotalMismatch
	s.Itemized.MissingItemPenalty = c.Itemized.Penalties.MissingItem
	s.Itemized.QuantityPenalty = c.Itemized.Penalties.Quantity
	s.Itemized.PricePenalty = c.Itemized.Penalties.Price

	p := c.FreeText.Penalties
	s.FreeText.MissingInvoicePenalty = p.MissingInvoice
	s.FreeText.MissingDatePenalty = p.MissingDate
	s.FreeText.MissingTotalPenalty = p.MissingTotal
	s.FreeText.MissingVendorPenalty = p.MissingVendor
	s.FreeText.VendorMismatchPenalty = p.VendorMismatch
	s.FreeText.VeryPoorTextPenalty = p.VeryPoorText
	s.FreeText.PoorTextPenalty = p.PoorText
	s.FreeText.NoDigitPenalty = p.NoDigits
	s.FreeText.VeryPoorTextLen = c.FreeText.VeryPoorTextLen
	s.FreeText.PoorTextLen = c.FreeText.PoorTextLen

	s.FreeText.TotalBands = make([]compare.TotalBand, len(c.FreeText.TotalBands))
	for i, b := range c.FreeText.TotalBands {
		s.FreeText.TotalBands[i] = compare.TotalBand{
			Over:        decimal.NewFromFloat(b.Over),
			Penalty:     b.Penalty,
			Description: b.Description,
		}
	}
	return s
}
