package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/fleet-carrier-cli/internal/application"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	reportFileMode  = 0o644
	reportDirMode   = 0o755
	tempFilePattern = ".fc-report-*.toml.tmp"
)

// Exporter writes carrier views to a TOML report, replacing the file
// atomically so readers never see a partial report.
type Exporter struct {
	path string
}

func NewExporter(path string) (*Exporter, error) {
	if path == "" {
		return nil, errors.New("report path is empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve report path: %w", err)
	}

	return &Exporter{path: filepath.Clean(absPath)}, nil
}

func (e *Exporter) Path() string {
	return e.path
}

func (e *Exporter) Export(ctx context.Context, views []application.CarrierView, generatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	report := reportSchema{
		GeneratedAt: formatTime(generatedAt),
		Carriers:    make([]carrierSchema, 0, len(views)),
	}
	for _, view := range views {
		report.Carriers = append(report.Carriers, toSchema(view))
	}

	return e.writeSchema(report)
}

func (e *Exporter) readSchema() (reportSchema, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return reportSchema{}, fmt.Errorf("read report file: %w", err)
	}

	var report reportSchema
	if err := toml.Unmarshal(data, &report); err != nil {
		return reportSchema{}, fmt.Errorf("decode report file: %w", err)
	}
	if err := report.validateVersion(); err != nil {
		return reportSchema{}, err
	}
	report.applyDefaults()

	return report, nil
}

func (e *Exporter) writeSchema(report reportSchema) error {
	report.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(e.path), reportDirMode); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	data, err := toml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(e.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp report file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp report file: %w", err)
	}

	if err := tempFile.Chmod(reportFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp report file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp report file: %w", err)
	}

	if err := os.Rename(tempName, e.path); err != nil {
		return fmt.Errorf("replace report file: %w", err)
	}

	cleanup = false
	return nil
}
