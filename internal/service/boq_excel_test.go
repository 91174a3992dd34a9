package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"erpledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestImportFromExcel_CreatesBOQ(t *testing.T) {
	projectID := uuid.New()
	boqID := uuid.New()

	boqRepo := new(mockBOQRepo)
	projectRepo := new(mockProjectRepo)
	svc, _ := newBOQServiceForTest(boqRepo, projectRepo)

	projectRepo.On("FindByID", mock.Anything, projectID).Return(&model.Project{ID: projectID}, nil)
	boqRepo.On("CountByPrefix", mock.Anything, mock.AnythingOfType("string")).Return(int64(0), nil)

	var saved *model.BOQ
	boqRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.BOQ")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.BOQ)
		saved.ID = boqID
	}).Return(nil)
	boqRepo.On("FindByIDWithItems", mock.Anything, boqID).Return(&model.BOQ{ID: boqID, ProjectID: projectID, BOQDate: time.Now()}, nil)

	// Header aliases and an Amount column the importer must ignore.
	file := buildWorkbook(t, [][]interface{}{
		{"Code", "Item", "Spec", "Unit", "Qty", "Rate", "Amount"},
		{"E-01", "Excavation", "up to 1.5m", "cum", 2.5, 100, 99999},
		{"", "", "", "", "", "", ""},
		{"", "", "", "cum", 3, 50, 0}, // no description, reported
		{"B-02", "Backfill", "", "cum", 4, 12.345, 0},
	})

	_, report, err := svc.ImportFromExcel(context.Background(), ImportBOQRequest{
		ProjectID:          projectID.String(),
		ContractorName:     "Apex Contractors",
		ContingencyPercent: "5",
		File:               file,
	}, uuid.New().String())
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 2, report.ImportedRows)
	assert.Equal(t, 1, report.SkippedRows)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "description is required")

	require.NotNil(t, saved)
	require.Len(t, saved.Items, 2)
	assert.Equal(t, "E-01", saved.Items[0].ItemCode)
	// Sheet amounts are ignored; everything is recomputed.
	assert.True(t, saved.Items[0].Amount.Equal(decimal.NewFromInt(250)), "amount was %s", saved.Items[0].Amount)
	assert.True(t, saved.Subtotal.Equal(decimal.RequireFromString("299.38")), "subtotal was %s", saved.Subtotal)
}

func TestImportFromExcel_MissingDescriptionColumn(t *testing.T) {
	boqRepo := new(mockBOQRepo)
	projectRepo := new(mockProjectRepo)
	svc, _ := newBOQServiceForTest(boqRepo, projectRepo)

	file := buildWorkbook(t, [][]interface{}{
		{"Qty", "Rate"},
		{2, 10},
	})

	_, _, err := svc.ImportFromExcel(context.Background(), ImportBOQRequest{
		ProjectID:      uuid.New().String(),
		ContractorName: "Apex Contractors",
		File:           file,
	}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Description column")
}

func TestImportFromExcel_NoImportableRows(t *testing.T) {
	boqRepo := new(mockBOQRepo)
	projectRepo := new(mockProjectRepo)
	svc, _ := newBOQServiceForTest(boqRepo, projectRepo)

	file := buildWorkbook(t, [][]interface{}{
		{"Description", "Qty", "Rate"},
		{"", 2, 10},
	})

	_, report, err := svc.ImportFromExcel(context.Background(), ImportBOQRequest{
		ProjectID:      uuid.New().String(),
		ContractorName: "Apex Contractors",
		File:           file,
	}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no importable rows")
	assert.Equal(t, 1, report.SkippedRows)
}

func TestExportToExcel_RendersWorkbook(t *testing.T) {
	boqID := uuid.New()
	projectID := uuid.New()

	boqRepo := new(mockBOQRepo)
	projectRepo := new(mockProjectRepo)
	svc, _ := newBOQServiceForTest(boqRepo, projectRepo)

	boqRepo.On("FindByIDWithItems", mock.Anything, boqID).Return(&model.BOQ{
		ID:                 boqID,
		BOQNumber:          "BOQ-20260801-0001",
		ProjectID:          projectID,
		ContractorName:     "Apex Contractors",
		BOQDate:            time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ContingencyPercent: decimal.NewFromInt(5),
		Subtotal:           decimal.RequireFromString("299.38"),
		ContingencyAmount:  decimal.RequireFromString("14.97"),
		Total:              decimal.RequireFromString("314.35"),
		Items: []model.BOQItem{
			{ItemCode: "E-01", Description: "Excavation", Unit: "cum", Quantity: decimal.RequireFromString("2.5"), UnitRate: decimal.NewFromInt(100), Amount: decimal.NewFromInt(250)},
		},
	}, nil)

	data, filename, err := svc.ExportToExcel(context.Background(), boqID.String())
	require.NoError(t, err)
	assert.Equal(t, "BOQ-20260801-0001.xlsx", filename)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "BOQ-20260801-0001", title)

	header, err := f.GetCellValue(sheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "Description", header)

	desc, err := f.GetCellValue(sheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "Excavation", desc)

	total, err := f.GetCellValue(sheet, "G10")
	require.NoError(t, err)
	assert.Equal(t, "314.35", total)
}
