package service

import (
	"context"
	"strings"
	"testing"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextNumber(t *testing.T) {
	tests := []struct {
		name string
		last string
		want string
	}{
		{"first of year", "", "INV-2025-0001"},
		{"increments", "INV-2025-0009", "INV-2025-0010"},
		{"garbage suffix restarts", "INV-2025-abc", "INV-2025-0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextNumber("INV", 2025, tt.last))
		})
	}
}

func invoiceRequest() *CreateDocumentRequest {
	return &CreateDocumentRequest{
		Type:       entity.DocTypeInvoice,
		ClientName: "ООО Берёза",
		Items: []DocumentLine{
			{Name: "Кухонный гарнитур", Article: "K-01", Quantity: 1, Price: decimal.RequireFromString("185000.50")},
			{Name: "Стул", Article: "S-02", Quantity: 4, Price: decimal.RequireFromString("3500")},
		},
	}
}

func TestDocumentCreateNumbersAndTotals(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	first, err := svc.Document.Create(ctx, invoiceRequest(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0001", first.Number)
	assert.Equal(t, entity.DocStatusDraft, first.Status)
	assert.True(t, first.Total.Equal(decimal.RequireFromString("199000.50")), "total=%s", first.Total)

	second, err := svc.Document.Create(ctx, invoiceRequest(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0002", second.Number)

	quote, err := svc.Document.Create(ctx, &CreateDocumentRequest{Type: entity.DocTypeQuote}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "QUO-2025-0001", quote.Number)
	assert.True(t, quote.Total.IsZero())

	_, err = svc.Document.Create(ctx, &CreateDocumentRequest{Type: "receipt"}, "u1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDocumentStatusTransitions(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	doc, err := svc.Document.Create(ctx, invoiceRequest(), "u1")
	require.NoError(t, err)

	_, err = svc.Document.UpdateStatus(ctx, doc.ID, entity.DocStatusPaid)
	assert.ErrorIs(t, err, ErrValidation, "draft cannot jump to paid")

	_, err = svc.Document.UpdateStatus(ctx, doc.ID, entity.DocStatusSent)
	require.NoError(t, err)
	signed, err := svc.Document.UpdateStatus(ctx, doc.ID, entity.DocStatusSigned)
	require.NoError(t, err)
	assert.Equal(t, entity.DocStatusSigned, signed.Status)

	notes := "изменено"
	_, err = svc.Document.Update(ctx, doc.ID, &UpdateDocumentRequest{Notes: &notes})
	assert.ErrorIs(t, err, ErrValidation, "signed document is read-only")

	assert.ErrorIs(t, svc.Document.Delete(ctx, doc.ID), ErrValidation)
}

func TestDocumentUpdateReplacesLines(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	doc, err := svc.Document.Create(ctx, invoiceRequest(), "u1")
	require.NoError(t, err)

	updated, err := svc.Document.Update(ctx, doc.ID, &UpdateDocumentRequest{
		Items: []DocumentLine{{Name: "Шкаф-купе", Quantity: 2, Price: decimal.NewFromInt(60000)}},
	})
	require.NoError(t, err)
	assert.True(t, updated.Total.Equal(decimal.NewFromInt(120000)))

	got, err := svc.Document.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Шкаф-купе", got.Items[0].Name)
}

func TestDocumentAttachmentWithoutStorage(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	doc, err := svc.Document.Create(ctx, invoiceRequest(), "u1")
	require.NoError(t, err)

	_, err = svc.Document.UploadAttachment(ctx, doc.ID, "scan.pdf", strings.NewReader("pdf"), 3, "application/pdf")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, _, err = svc.Document.DownloadAttachment(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestExportDocument(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	doc, err := svc.Document.Create(ctx, invoiceRequest(), "u1")
	require.NoError(t, err)

	f, name, err := svc.Export.ExportDocument(ctx, doc.ID)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "INV-2025-0001.xlsx", name)

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(rows), 3, "header, two lines and a summary row")

	_, _, err = svc.Export.ExportDocument(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
