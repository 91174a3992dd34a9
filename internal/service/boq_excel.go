package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"erpledger/internal/model"

	"github.com/xuri/excelize/v2"
)

// ImportBOQRequest wraps an uploaded workbook plus the document header
// fields that a spreadsheet cannot carry.
type ImportBOQRequest struct {
	ProjectID          string
	ContractorName     string
	ContractorContact  string
	BOQDate            string
	ContingencyPercent string
	File               io.Reader
}

// BOQImportReport summarizes an import: rows that parsed cleanly became
// line items, the rest are reported with their row number so the user
// can fix the sheet and retry.
type BOQImportReport struct {
	TotalRows    int      `json:"total_rows"`
	ImportedRows int      `json:"imported_rows"`
	SkippedRows  int      `json:"skipped_rows"`
	Errors       []string `json:"errors,omitempty"`
}

// importHeaderIndex maps recognized column headings (case-insensitive,
// with common aliases) to their column index.
func importHeaderIndex(headerRow []string) map[string]int {
	aliases := map[string]string{
		"item code":     "item_code",
		"code":          "item_code",
		"description":   "description",
		"item":          "description",
		"specification": "specification",
		"spec":          "specification",
		"unit":          "unit",
		"quantity":      "quantity",
		"qty":           "quantity",
		"unit rate":     "unit_rate",
		"rate":          "unit_rate",
	}
	index := make(map[string]int)
	for col, header := range headerRow {
		key, ok := aliases[strings.ToLower(strings.TrimSpace(header))]
		if !ok {
			continue
		}
		if _, exists := index[key]; !exists {
			index[key] = col
		}
	}
	return index
}

func cellAt(row []string, index map[string]int, key string) string {
	col, ok := index[key]
	if !ok || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// ImportFromExcel reads line items from the first sheet of an uploaded
// workbook and creates a BOQ from them. Amounts in the sheet are
// ignored; every derived value is recomputed server side.
func (s *boqService) ImportFromExcel(ctx context.Context, req ImportBOQRequest, userID string) (BOQResponse, *BOQImportReport, error) {
	report := &BOQImportReport{}

	f, err := excelize.OpenReader(req.File)
	if err != nil {
		return BOQResponse{}, report, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return BOQResponse{}, report, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return BOQResponse{}, report, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return BOQResponse{}, report, fmt.Errorf("sheet must have a header row and at least one data row")
	}

	index := importHeaderIndex(rows[0])
	if _, ok := index["description"]; !ok {
		return BOQResponse{}, report, fmt.Errorf("sheet is missing a Description column")
	}

	var items []BOQItemInput
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		report.TotalRows++

		description := cellAt(row, index, "description")
		if description == "" {
			report.SkippedRows++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: description is required", i+1))
			continue
		}

		items = append(items, BOQItemInput{
			ItemCode:      cellAt(row, index, "item_code"),
			Description:   description,
			Specification: cellAt(row, index, "specification"),
			Unit:          cellAt(row, index, "unit"),
			Quantity:      cellAt(row, index, "quantity"),
			UnitRate:      cellAt(row, index, "unit_rate"),
		})
		report.ImportedRows++
	}

	if len(items) == 0 {
		return BOQResponse{}, report, fmt.Errorf("no importable rows found")
	}

	res, err := s.CreateBOQ(ctx, CreateBOQRequest{
		ProjectID:          req.ProjectID,
		ContractorName:     req.ContractorName,
		ContractorContact:  req.ContractorContact,
		BOQDate:            req.BOQDate,
		ContingencyPercent: req.ContingencyPercent,
		Items:              items,
	}, userID)
	if err != nil {
		return BOQResponse{}, report, err
	}

	s.audit.Record(ctx, userID, model.ActionImportBOQ, res.ID, res.BOQNumber, report)
	return res, report, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

var exportColumns = []string{"A", "B", "C", "D", "E", "F", "G"}

// ExportToExcel renders a BOQ into a workbook and returns the file
// bytes with a suggested filename.
func (s *boqService) ExportToExcel(ctx context.Context, id string) ([]byte, string, error) {
	boq, err := s.GetBOQ(ctx, id)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create header style: %w", err)
	}

	f.SetCellValue(sheet, "A1", boq.BOQNumber)
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	f.SetCellValue(sheet, "A2", "Contractor: "+boq.ContractorName)
	f.SetCellValue(sheet, "A3", "Date: "+boq.BOQDate)

	headers := []string{"Item Code", "Description", "Specification", "Unit", "Quantity", "Unit Rate", "Amount"}
	headerRow := 5
	for col, h := range headers {
		cell := fmt.Sprintf("%s%d", exportColumns[col], headerRow)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	rowNum := headerRow + 1
	for _, it := range boq.Items {
		values := []interface{}{it.ItemCode, it.Description, it.Specification, it.Unit, it.Quantity, it.UnitRate, it.Amount}
		for col, v := range values {
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", exportColumns[col], rowNum), v)
		}
		rowNum++
	}

	rowNum++
	summary := []struct {
		label string
		value string
	}{
		{"Subtotal", boq.Subtotal},
		{fmt.Sprintf("Contingency (%s%%)", boq.ContingencyPercent), boq.ContingencyAmount},
		{"Total", boq.Total},
	}
	for _, line := range summary {
		f.SetCellValue(sheet, fmt.Sprintf("F%d", rowNum), line.label)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", rowNum), line.value)
		rowNum++
	}
	totalCell := fmt.Sprintf("F%d", rowNum-1)
	f.SetCellStyle(sheet, totalCell, fmt.Sprintf("G%d", rowNum-1), headerStyle)

	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", "C", 40)
	f.SetColWidth(sheet, "D", "G", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("%s.xlsx", boq.BOQNumber)
	return buf.Bytes(), filename, nil
}
