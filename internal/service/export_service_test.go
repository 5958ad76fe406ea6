package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
	"github.com/noah-isme/sma-patrol-api/pkg/export"
)

type csvRendererMock struct {
	data export.Dataset
}

func (m *csvRendererMock) Render(data export.Dataset) ([]byte, error) {
	m.data = data
	return []byte("csv"), nil
}

type pdfRendererMock struct {
	title, subtitle string
	err             error
}

func (m *pdfRendererMock) Render(data export.Dataset, title, subtitle string) ([]byte, error) {
	m.title, m.subtitle = title, subtitle
	if m.err != nil {
		return nil, m.err
	}
	return []byte("%PDF"), nil
}

func sampleReceipt() *models.SubmitReceipt {
	return &models.SubmitReceipt{
		BatchID:     "b1",
		Table:       "leave requests",
		Title:       "學生請假外宿登記表",
		Rows:        1,
		SubmittedAt: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		Submitter:   "輔導老師-黃輔導",
		Dataset:     export.FromRows([]string{"學號"}, [][]string{{"100001"}}),
	}
}

func TestExportServiceReceiptNeedsSubmission(t *testing.T) {
	svc := NewExportService(zap.NewNop(), &csvRendererMock{}, &pdfRendererMock{})
	_, err := svc.Receipt(newTestSession(counselor), ReceiptLeave, FormatPDF)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceRendersPDFByDefault(t *testing.T) {
	pdf := &pdfRendererMock{}
	svc := NewExportService(zap.NewNop(), &csvRendererMock{}, pdf)
	sess := newTestSession(counselor)
	sess.SetReceipt(ReceiptLeave, sampleReceipt())

	doc, err := svc.Receipt(sess, ReceiptLeave, "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "leave_requests_20261018_120000.pdf", doc.Filename)
	assert.Equal(t, "學生請假外宿登記表", pdf.title)
	assert.Contains(t, pdf.subtitle, "輔導老師-黃輔導")
}

func TestExportServiceRendersCSV(t *testing.T) {
	csv := &csvRendererMock{}
	svc := NewExportService(zap.NewNop(), csv, &pdfRendererMock{})

	doc, err := svc.Render(sampleReceipt(), "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", doc.ContentType)
	assert.Equal(t, []string{"學號"}, csv.data.Headers)

	_, err = svc.Render(sampleReceipt(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceRenderFailure(t *testing.T) {
	svc := NewExportService(zap.NewNop(), &csvRendererMock{}, &pdfRendererMock{err: errors.New("font missing")})
	_, err := svc.Render(sampleReceipt(), FormatPDF)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
