package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
	"github.com/noah-isme/sma-patrol-api/pkg/export"
)

// Print formats for submission receipts.
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// RenderedDocument is a print sheet ready to download. It is never stored.
type RenderedDocument struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders submission receipts into printable documents.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("", "")
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

// Receipt renders the session's latest receipt of kind in format.
func (s *ExportService) Receipt(sess *Session, kind, format string) (*RenderedDocument, error) {
	receipt, ok := sess.Receipt(kind)
	if !ok || receipt == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no submitted batch to print in this session")
	}
	return s.Render(receipt, format)
}

// Render turns a receipt into a PDF or CSV document.
func (s *ExportService) Render(receipt *models.SubmitReceipt, format string) (*RenderedDocument, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatPDF
	}

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case FormatCSV:
		payload, err = s.csv.Render(receipt.Dataset)
		contentType = "text/csv; charset=utf-8"
	case FormatPDF:
		subtitle := fmt.Sprintf("%s  %s  %d", receipt.Submitter, receipt.SubmittedAt.Format("2006-01-02 15:04"), receipt.Rows)
		payload, err = s.pdf.Render(receipt.Dataset, receipt.Title, subtitle)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		s.logger.Error("render receipt failed", zap.String("batch_id", receipt.BatchID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render document")
	}

	return &RenderedDocument{
		Filename:    buildFilename(receipt, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func buildFilename(receipt *models.SubmitReceipt, format string) string {
	timestamp := receipt.SubmittedAt.UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(receipt.Table), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
