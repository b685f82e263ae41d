package report

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Source yields the data rows of one sheet.
type Source interface {
	// Each calls fn for every row, in order, and stops at the first error.
	Each(ctx context.Context, fn func(row []any) error) error
}

// CSVSource reads rows from a CSV file. Cells are passed on as strings and
// typed by the column format or by value classification.
type CSVSource struct {
	Path       string
	SkipHeader bool
}

func (s *CSVSource) Each(ctx context.Context, fn func(row []any) error) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	for line := 0; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", s.Path, err)
		}
		if line == 0 && s.SkipHeader {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// SQLSource runs a query and yields one row per result row.
type SQLSource struct {
	DB    *sql.DB
	Query string
}

func (s *SQLSource) Each(ctx context.Context, fn func(row []any) error) error {
	rows, err := s.DB.QueryContext(ctx, s.Query)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = cellValue(v)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// cellValue maps driver values onto the scalars the cell writer knows.
func cellValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	}
	return v
}

// OpenDB opens and pings the report database.
func OpenDB(ctx context.Context, cfg *DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", cfg.Driver, err)
	}
	return db, nil
}

// sourceFor builds the row source of a sheet definition.
func sourceFor(cfg *Config, sheet SheetConfig, db *sql.DB) (Source, error) {
	switch {
	case sheet.Source.Query != "":
		if db == nil {
			return nil, fmt.Errorf("sheet '%s': no database connection", sheet.Name)
		}
		return &SQLSource{DB: db, Query: sheet.Source.Query}, nil
	case sheet.Source.CSV != "":
		path := sheet.Source.CSV
		if !filepath.IsAbs(path) && cfg.BaseDir != "" {
			path = filepath.Join(cfg.BaseDir, path)
		}
		return &CSVSource{Path: path, SkipHeader: sheet.Source.SkipHeader}, nil
	}
	return nil, fmt.Errorf("sheet '%s' has no source", sheet.Name)
}
