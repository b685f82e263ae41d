package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/adnsv/xlstream/xl"
)

// Config is a report definition: workbook properties, an optional
// database and the sheets to produce.
type Config struct {
	Name     string          `yaml:"name"`
	Workbook WorkbookConfig  `yaml:"workbook"`
	Database *DatabaseConfig `yaml:"database"`
	Sheets   []SheetConfig   `yaml:"sheets" validate:"required,min=1,unique=Name,dive"`

	// BaseDir anchors relative CSV paths. Load sets it to the directory of
	// the config file.
	BaseDir string `yaml:"-"`
}

type WorkbookConfig struct {
	Title       string   `yaml:"title"`
	Subject     string   `yaml:"subject"`
	Author      string   `yaml:"author"`
	Company     string   `yaml:"company"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
	RightToLeft bool     `yaml:"right_to_left"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=sqlite3 postgres"`
	DSN    string `yaml:"dsn" validate:"required"`
}

type SheetConfig struct {
	Name          string         `yaml:"name" validate:"required"`
	Columns       []ColumnConfig `yaml:"columns" validate:"dive"`
	NoHeader      bool           `yaml:"no_header"`
	AutoFilter    bool           `yaml:"auto_filter"`
	FreezeRows    int            `yaml:"freeze_rows" validate:"gte=0"`
	FreezeColumns int            `yaml:"freeze_columns" validate:"gte=0"`
	HeaderStyle   *xl.Style      `yaml:"header_style"`
	RowStyle      *xl.Style      `yaml:"row_style"`
	Source        SourceConfig   `yaml:"source"`
	Merges        []MergeConfig  `yaml:"merges" validate:"dive"`
}

type ColumnConfig struct {
	Label  string    `yaml:"label"`
	Format string    `yaml:"format"`
	Width  float64   `yaml:"width" validate:"gte=0"`
	Style  *xl.Style `yaml:"style"`
}

// SourceConfig selects where the rows of a sheet come from: a CSV file or
// a query against the report database.
type SourceConfig struct {
	CSV        string `yaml:"csv" validate:"required_without=Query,excluded_with=Query"`
	SkipHeader bool   `yaml:"skip_header"`
	Query      string `yaml:"query" validate:"required_without=CSV"`
}

// MergeConfig is a zero-based inclusive cell range.
type MergeConfig struct {
	FromRow int `yaml:"from_row" validate:"gte=0"`
	FromCol int `yaml:"from_col" validate:"gte=0"`
	ToRow   int `yaml:"to_row" validate:"gtefield=FromRow"`
	ToCol   int `yaml:"to_col" validate:"gtefield=FromCol"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a report definition.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.BaseDir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes a report definition. Unknown keys are rejected and
// environment references in the database DSN are expanded.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty report definition")
		}
		return nil, err
	}
	if cfg.Database != nil {
		cfg.Database.DSN = os.ExpandEnv(cfg.Database.DSN)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and the rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid report definition: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid report definition: %s", strings.Join(msgs, "; "))
	}
	for _, s := range c.Sheets {
		if s.Source.Query != "" && c.Database == nil {
			return fmt.Errorf("sheet '%s' uses a query but no database is configured", s.Name)
		}
	}
	return nil
}

// Sheet returns the sheet definition with the given name.
func (c *Config) Sheet(name string) (SheetConfig, bool) {
	for _, s := range c.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return SheetConfig{}, false
}

// FileName is the download name of the whole report.
func (c *Config) FileName() string {
	if c.Name != "" {
		return c.Name + ".xlsx"
	}
	return "report.xlsx"
}
