package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
	"github.com/javedansari81/sunrise-school-management-sub000/pkg/export"
	appErrors "github.com/javedansari81/sunrise-school-management-sub000/pkg/errors"
)

// ReportFormat enumerates supported export encodings.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type collectionReader interface {
	ListBySession(ctx context.Context, sessionID, classID string) ([]models.CollectionEntry, error)
}

type receiptReader interface {
	Receipt(ctx context.Context, transactionID string) (*models.ReceiptDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderReceipt(receipt export.Receipt) ([]byte, error)
}

// ExportResult is a rendered document ready to stream to the caller.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders collection reports and payment receipts. Documents
// are built in memory and streamed straight back; nothing is persisted.
type ExportService struct {
	payments collectionReader
	receipts receiptReader
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(payments collectionReader, receipts receiptReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		payments: payments,
		receipts: receipts,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
		now:      time.Now,
	}
}

// CollectionReport renders the payment ledger of a session in the requested
// format, optionally narrowed to a class.
func (s *ExportService) CollectionReport(ctx context.Context, sessionID, classID string, format ReportFormat) (*ExportResult, error) {
	if sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessionId is required")
	}

	entries, err := s.payments.ListBySession(ctx, sessionID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collection entries")
	}

	dataset := buildCollectionDataset(entries)
	title := fmt.Sprintf("Fee Collection Report %s", sessionID)

	var payload []byte
	var contentType string
	switch format {
	case ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render collection report")
	}

	filename := fmt.Sprintf("collection_%s_%s.%s", sanitizeFilename(sessionID), s.now().UTC().Format("20060102_150405"), format)
	return &ExportResult{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

// Receipt renders a PDF receipt for one payment transaction.
func (s *ExportService) Receipt(ctx context.Context, transactionID string) (*ExportResult, error) {
	detail, err := s.receipts.Receipt(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	lines := make([]export.ReceiptLine, 0, len(detail.Lines))
	for _, line := range detail.Lines {
		lines = append(lines, export.ReceiptLine{
			Label:  models.MonthLabel(line.Month, line.Year),
			Amount: FormatAmount(line.AllocatedAmount),
		})
	}

	receipt := export.Receipt{
		Title:         "Fee Payment Receipt",
		TransactionID: detail.Transaction.ID,
		StudentName:   detail.StudentName,
		AdmissionNo:   detail.AdmissionNo,
		SessionID:     detail.SessionID,
		Method:        string(detail.Transaction.Method),
		PaidAt:        detail.Transaction.PaidAt.UTC().Format("02 Jan 2006 15:04"),
		Total:         FormatAmount(detail.Transaction.Amount),
		Lines:         lines,
	}
	if detail.Transaction.Reference != nil {
		receipt.Reference = *detail.Transaction.Reference
	}

	payload, err := s.pdf.RenderReceipt(receipt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}

	filename := fmt.Sprintf("receipt_%s.pdf", sanitizeFilename(transactionID))
	return &ExportResult{Filename: filename, ContentType: "application/pdf", Payload: payload}, nil
}

func buildCollectionDataset(entries []models.CollectionEntry) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		reference := ""
		if entry.Reference != nil {
			reference = *entry.Reference
		}
		rows = append(rows, map[string]string{
			"Transaction ID": entry.TransactionID,
			"Student":        entry.StudentName,
			"Admission No":   entry.AdmissionNo,
			"Class":          entry.ClassID,
			"Amount":         FormatAmount(entry.Amount),
			"Method":         string(entry.Method),
			"Reference":      reference,
			"Paid At":        entry.PaidAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Headers: []string{"Transaction ID", "Student", "Admission No", "Class", "Amount", "Method", "Reference", "Paid At"},
		Rows:    rows,
	}
}

// FormatAmount renders an amount held in the smallest currency unit as a
// decimal string, e.g. 123450 -> "1234.50".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	out := make([]rune, 0, len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) > 100 {
		out = out[:100]
	}
	return string(out)
}
