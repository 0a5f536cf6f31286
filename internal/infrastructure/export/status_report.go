// Package export renders migration reports for data-quality audits.
package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/migration"
	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// Sheet names
const (
	SummarySheet = "Summary"
	EntriesSheet = "Entries"
	UnknownSheet = "Unknown"
)

// StatusReportWorkbook builds a workbook with a summary, per-input entries and
// the distinct unknown inputs. The caller closes the returned file.
func StatusReportWorkbook(report migration.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	// NewFile starts with Sheet1
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := writeSummary(f, report); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeEntries(f, report.Entries); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeUnknown(f, report.Unknown); err != nil {
		_ = f.Close()
		return nil, err
	}

	return f, nil
}

// WriteStatusReport saves the report workbook to path
func WriteStatusReport(report migration.Report, path string) error {
	f, err := StatusReportWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report to %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, report migration.Report) error {
	rows := [][]interface{}{
		{"Metric", "Count"},
		{"Total", report.Total},
		{"Canonical", report.Canonical},
		{"Migrated", report.Migrated},
		{"Fallback", report.Fallback},
		{},
		{"Status", "Count"},
	}

	statuses := make([]workflow.Status, 0, len(report.ByStatus))
	for s := range report.ByStatus {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	for _, s := range statuses {
		rows = append(rows, []interface{}{s.String(), report.ByStatus[s]})
	}

	return writeRows(f, SummarySheet, rows)
}

func writeEntries(f *excelize.File, entries []migration.Result) error {
	if _, err := f.NewSheet(EntriesSheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", EntriesSheet, err)
	}

	rows := make([][]interface{}, 0, len(entries)+1)
	rows = append(rows, []interface{}{"Input", "Status", "Outcome"})
	for _, e := range entries {
		rows = append(rows, []interface{}{e.Input, e.Status.String(), string(e.Outcome)})
	}
	return writeRows(f, EntriesSheet, rows)
}

func writeUnknown(f *excelize.File, unknown []string) error {
	if _, err := f.NewSheet(UnknownSheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", UnknownSheet, err)
	}

	rows := make([][]interface{}, 0, len(unknown)+1)
	rows = append(rows, []interface{}{"Raw status", "Folded to"})
	for _, raw := range unknown {
		rows = append(rows, []interface{}{raw, migration.FallbackStatus.String()})
	}
	return writeRows(f, UnknownSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
