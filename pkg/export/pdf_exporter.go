package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Receipt is the content of a single payment receipt document.
type Receipt struct {
	Title         string
	TransactionID string
	StudentName   string
	AdmissionNo   string
	SessionID     string
	Method        string
	Reference     string
	PaidAt        string
	Total         string
	Lines         []ReceiptLine
}

// ReceiptLine is one allocation row of a receipt.
type ReceiptLine struct {
	Label  string
	Amount string
}

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderReceipt creates a single-payment receipt document.
func (e *PDFExporter) RenderReceipt(receipt Receipt) ([]byte, error) {
	if receipt.TransactionID == "" {
		return nil, fmt.Errorf("receipt requires a transaction id")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	title := receipt.Title
	if title == "" {
		title = "Payment Receipt"
	}
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	meta := [][2]string{
		{"Transaction", receipt.TransactionID},
		{"Student", receipt.StudentName},
		{"Admission No", receipt.AdmissionNo},
		{"Session", receipt.SessionID},
		{"Method", receipt.Method},
		{"Reference", receipt.Reference},
		{"Paid At", receipt.PaidAt},
	}
	pdf.SetFont("Arial", "", 10)
	for _, pair := range meta {
		if pair[1] == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 7, pair[0], "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, pair[1], "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(120, 8, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 8, "Amount", "1", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, line := range receipt.Lines {
		pdf.CellFormat(120, 7, line.Label, "1", 0, "", false, 0, "")
		pdf.CellFormat(60, 7, line.Amount, "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(120, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 8, receipt.Total, "1", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
