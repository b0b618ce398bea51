package service

import (
	"context"
	"fmt"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var warehouseExportHeaders = []string{"SKU", "名称", "分类", "数量", "单位", "最低库存", "单价", "库位", "状态"}

var documentExportHeaders = []string{"序号", "名称", "型号", "数量", "单价", "金额"}

// ExportService Excel 导出
type ExportService struct {
	stockRepo *repository.WarehouseRepository
	docRepo   *repository.DocumentRepository
}

// NewExportService 创建导出服务
func NewExportService(stockRepo *repository.WarehouseRepository, docRepo *repository.DocumentRepository) *ExportService {
	return &ExportService{stockRepo: stockRepo, docRepo: docRepo}
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}
}

// ExportWarehouse 导出库存清单
func (s *ExportService) ExportWarehouse(ctx context.Context) (*excelize.File, string, error) {
	items, _, err := s.stockRepo.List(ctx, repository.WarehouseListParams{})
	if err != nil {
		return nil, "", fmt.Errorf("list warehouse items: %w", err)
	}

	f := excelize.NewFile()
	sheet := "库存"
	f.SetSheetName("Sheet1", sheet)
	writeHeader(f, sheet, warehouseExportHeaders)

	for rowIdx, item := range items {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.SKU)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Name)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Category)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Quantity.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Unit)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.MinStock.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.Price.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), item.Location)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), item.Status)
	}

	colWidths := []float64{14, 28, 14, 10, 8, 10, 10, 14, 10}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, "warehouse.xlsx", nil
}

// ExportDocument 导出单据（报价/发票/合同）明细
func (s *ExportService) ExportDocument(ctx context.Context, id string) (*excelize.File, string, error) {
	doc, err := s.docRepo.FindByID(ctx, id)
	if err != nil {
		return nil, "", translate(err, "document")
	}

	f := excelize.NewFile()
	sheet := doc.Number
	f.SetSheetName("Sheet1", sheet)
	writeHeader(f, sheet, documentExportHeaders)

	total := decimal.Zero
	for rowIdx, item := range doc.Items {
		row := rowIdx + 2
		line := item.LineTotal()
		total = total.Add(line)
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), rowIdx+1)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Name)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Article)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Price.StringFixed(2))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), line.StringFixed(2))
	}

	// 底部汇总行
	summaryRow := len(doc.Items) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), DocumentTypeName(doc.Type)+"合计")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow), doc.ClientName)
	f.SetCellValue(sheet, fmt.Sprintf("F%d", summaryRow), total.StringFixed(2))
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("F%d", summaryRow), summaryStyle)

	colWidths := []float64{6, 30, 14, 8, 12, 14}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, doc.Number + ".xlsx", nil
}

// DocumentTypeName 单据类型显示名
func DocumentTypeName(docType string) string {
	switch docType {
	case entity.DocTypeQuote:
		return "报价单"
	case entity.DocTypeInvoice:
		return "发票"
	case entity.DocTypeContract:
		return "合同"
	}
	return docType
}
