// Package service runs the report job: fetch the source workbook, render
// the report, upload the artifacts, archive them.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"reportmill/internal/archive"
	"reportmill/internal/dataset"
	"reportmill/internal/layout"
	"reportmill/internal/report"
	"reportmill/internal/sharepoint"
	"reportmill/pkg/apperror"
	"reportmill/pkg/config"
	"reportmill/pkg/logger"
	"reportmill/pkg/metrics"
	"reportmill/pkg/telemetry"
)

// Service is the report job. One Run per invocation; errors surface to the
// caller, nothing is retried internally.
type Service struct {
	cfg      *config.Config
	transfer sharepoint.Transfer
	repo     archive.Repository // nil disables archiving

	pdf   *report.PDFGenerator
	excel *report.ExcelGenerator

	metrics *metrics.Metrics
	log     *slog.Logger
}

// Result summarizes one completed run.
type Result struct {
	Pages     int
	PDFBytes  int
	Excel     bool
	ArchiveID string
}

// New wires the job. repo may be nil when archiving is disabled.
func New(cfg *config.Config, transfer sharepoint.Transfer, repo archive.Repository) *Service {
	return &Service{
		cfg:      cfg,
		transfer: transfer,
		repo:     repo,
		pdf:      report.NewPDFGenerator(),
		excel:    report.NewExcelGenerator(),
		metrics:  metrics.Get(),
		log:      logger.WithComponent("service"),
	}
}

// Run executes the full pipeline once.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "report.run")
	defer span.End()

	ds, err := s.fetchDataset(ctx)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	spec, err := s.buildSpec(ds)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	genStart := time.Now()
	artifact, err := s.generate(ctx, spec)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	genMs := time.Since(genStart).Milliseconds()

	result := &Result{Pages: artifact.Pages, PDFBytes: len(artifact.Bytes)}

	if err := s.upload(ctx, s.uploadName(artifact.Extension), artifact.Bytes); err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	if s.cfg.Report.ExportExcelCopy {
		if err := s.exportExcel(ctx, spec); err != nil {
			telemetry.SetError(ctx, err)
			return nil, err
		}
		result.Excel = true
	}

	if s.repo != nil && s.cfg.Report.SaveToStorage {
		id, err := s.archive(ctx, spec, artifact, genMs)
		if err != nil {
			telemetry.SetError(ctx, err)
			return nil, err
		}
		result.ArchiveID = id
	}

	s.log.Info("report run finished",
		"pages", result.Pages,
		"pdf_bytes", result.PDFBytes,
		"excel_copy", result.Excel,
		"archive_id", result.ArchiveID,
	)

	return result, nil
}

func (s *Service) fetchDataset(ctx context.Context) (layout.Dataset, error) {
	ctx, span := telemetry.StartSpan(ctx, "report.fetch",
		telemetry.WithAttributes(attribute.String("path", s.cfg.Report.SourcePath)))
	defer span.End()

	start := time.Now()
	raw, err := s.transfer.FetchBytes(ctx, s.cfg.Report.SourcePath)
	s.metrics.ObserveTransfer("download", err, time.Since(start).Seconds(), len(raw))
	if err != nil {
		return layout.Dataset{}, err
	}

	s.log.Info("source workbook fetched", "path", s.cfg.Report.SourcePath, "bytes", len(raw))

	return dataset.ParseWorkbook(bytes.NewReader(raw))
}

// buildSpec translates the configuration into a report spec.
func (s *Service) buildSpec(ds layout.Dataset) (*report.Spec, error) {
	pdf := s.cfg.Report.PDF

	style := layout.DefaultStyle()
	if pdf.FontSize > 0 {
		style.FontSize = pdf.FontSize
	}
	if pdf.HeaderFont > 0 {
		style.HeaderFontSize = pdf.HeaderFont
	}

	for _, c := range []struct {
		hex  string
		dest *layout.Color
	}{
		{pdf.HeaderBackground, &style.HeaderBackground},
		{pdf.HeaderTextColor, &style.HeaderText},
		{pdf.OddRowColor, &style.OddRow},
		{pdf.EvenRowColor, &style.EvenRow},
		{pdf.BorderColor, &style.Border},
	} {
		if c.hex == "" {
			continue
		}
		color, err := layout.ParseHexColor(c.hex)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInvalidInput, "bad color in configuration")
		}
		*c.dest = color
	}

	return &report.Spec{
		Title:        s.cfg.App.Name,
		Dataset:      ds,
		HeaderTexts:  s.cfg.Report.HeaderTexts,
		FooterText:   s.cfg.Report.FooterText,
		LogoPath:     s.cfg.Report.LogoPath,
		IncludeChart: s.cfg.Report.IncludeChart,
		Page:         layout.PageSize{Width: pdf.PageWidth, Height: pdf.PageHeight},
		Margins: layout.Margins{
			Top:    pdf.MarginTop,
			Bottom: pdf.MarginBottom,
			Left:   pdf.MarginLeft,
			Right:  pdf.MarginRight,
		},
		HeaderBand: pdf.HeaderBand,
		FooterBand: pdf.FooterBand,
		FontFamily: pdf.FontFamily,
		Style:      style,
	}, nil
}

func (s *Service) generate(ctx context.Context, spec *report.Spec) (*report.Artifact, error) {
	ctx, span := telemetry.StartSpan(ctx, "report.generate")
	defer span.End()

	start := time.Now()
	artifact, err := s.pdf.Generate(ctx, spec)

	pages, size := 0, 0
	if artifact != nil {
		pages, size = artifact.Pages, len(artifact.Bytes)
	}
	s.metrics.ObserveReport(string(report.FormatPDF), err, time.Since(start).Seconds(), pages, size)

	if err != nil {
		return nil, err
	}

	s.log.Info("pdf rendered", "pages", artifact.Pages, "bytes", len(artifact.Bytes))
	return artifact, nil
}

func (s *Service) exportExcel(ctx context.Context, spec *report.Spec) error {
	ctx, span := telemetry.StartSpan(ctx, "report.export_excel")
	defer span.End()

	start := time.Now()
	artifact, err := s.excel.Generate(ctx, spec)
	size := 0
	if artifact != nil {
		size = len(artifact.Bytes)
	}
	s.metrics.ObserveReport(string(report.FormatExcel), err, time.Since(start).Seconds(), 1, size)
	if err != nil {
		return err
	}

	return s.upload(ctx, s.uploadName(artifact.Extension), artifact.Bytes)
}

func (s *Service) upload(ctx context.Context, filename string, data []byte) error {
	ctx, span := telemetry.StartSpan(ctx, "report.upload",
		telemetry.WithAttributes(attribute.String("filename", filename)))
	defer span.End()

	start := time.Now()
	err := s.transfer.StoreBytes(ctx, s.cfg.Report.UploadLibrary, s.cfg.Report.UploadSubfolder, filename, data)
	s.metrics.ObserveTransfer("upload", err, time.Since(start).Seconds(), len(data))
	if err != nil {
		return err
	}

	s.log.Info("artifact uploaded", "filename", filename, "bytes", len(data))
	return nil
}

func (s *Service) archive(ctx context.Context, spec *report.Spec, artifact *report.Artifact, genMs int64) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "report.archive")
	defer span.End()

	stored, err := s.repo.Create(ctx, &archive.CreateParams{
		Title:            spec.Title,
		Format:           string(report.FormatPDF),
		Content:          artifact.Bytes,
		ContentType:      artifact.ContentType,
		Filename:         s.uploadName(artifact.Extension),
		PageCount:        artifact.Pages,
		GenerationTimeMs: genMs,
		TTL:              s.cfg.Report.DefaultTTL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive report: %w", err)
	}

	s.log.Info("report archived", "id", stored.ID)
	return stored.ID.String(), nil
}

// uploadName swaps the configured upload filename's extension for the
// artifact's.
func (s *Service) uploadName(ext string) string {
	name := s.cfg.Report.UploadFilename
	if name == "" {
		name = "report"
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name + ext
}
