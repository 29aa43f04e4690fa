package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
	appErrors "github.com/javedansari81/sunrise-school-management-sub000/pkg/errors"
)

type mockCollectionReader struct {
	entries []models.CollectionEntry
}

func (m *mockCollectionReader) ListBySession(ctx context.Context, sessionID, classID string) ([]models.CollectionEntry, error) {
	return m.entries, nil
}

type mockReceiptReader struct {
	detail *models.ReceiptDetail
}

func (m *mockReceiptReader) Receipt(ctx context.Context, transactionID string) (*models.ReceiptDetail, error) {
	if m.detail == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment transaction not found")
	}
	return m.detail, nil
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "1234.50", FormatAmount(123450))
	assert.Equal(t, "-12.34", FormatAmount(-1234))
}

func TestCollectionReportCSV(t *testing.T) {
	ref := "UPI-99"
	payments := &mockCollectionReader{entries: []models.CollectionEntry{
		{TransactionID: "txn-1", StudentName: "Asha Verma", AdmissionNo: "ADM-7", ClassID: "class-5", Amount: 150050, Method: models.MethodUPI, Reference: &ref, PaidAt: time.Date(2025, time.May, 3, 10, 0, 0, 0, time.UTC)},
	}}
	svc := NewExportService(payments, &mockReceiptReader{}, nil, nil, nil)

	result, err := svc.CollectionReport(context.Background(), "session-2025", "", ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "collection_session-2025_"))

	body := string(result.Payload)
	assert.Contains(t, body, "Transaction ID,Student,Admission No,Class,Amount,Method,Reference,Paid At")
	assert.Contains(t, body, "txn-1,Asha Verma,ADM-7,class-5,1500.50,UPI,UPI-99")
}

func TestCollectionReportValidation(t *testing.T) {
	svc := NewExportService(&mockCollectionReader{}, &mockReceiptReader{}, nil, nil, nil)

	_, err := svc.CollectionReport(context.Background(), "", "", ReportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CollectionReport(context.Background(), "session-2025", "", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReceiptRendersPDF(t *testing.T) {
	ref := "CHQ-42"
	receipts := &mockReceiptReader{detail: &models.ReceiptDetail{
		Transaction: models.PaymentTransaction{ID: "txn-1", Amount: 150000, Method: models.MethodCheque, Reference: &ref, PaidAt: time.Now()},
		StudentName: "Asha Verma",
		AdmissionNo: "ADM-7",
		SessionID:   "session-2025",
		Lines: []models.AllocationLine{
			{Month: 5, Year: 2025, AllocatedAmount: 100000},
			{Month: 6, Year: 2025, AllocatedAmount: 50000},
		},
	}}
	svc := NewExportService(&mockCollectionReader{}, receipts, nil, nil, nil)

	result, err := svc.Receipt(context.Background(), "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "receipt_txn-1.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
}

func TestReceiptNotFound(t *testing.T) {
	svc := NewExportService(&mockCollectionReader{}, &mockReceiptReader{}, nil, nil, nil)

	_, err := svc.Receipt(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
