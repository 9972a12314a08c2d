package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/fieldprofile/internal/profile"
	"github.com/xuri/excelize/v2"
)

const (
	clustersSheet = "Clusters"
	rejectedSheet = "Rejected"
)

// WriteXLSX writes a workbook with one row per cluster member and a sheet
// listing rejected rows.
func WriteXLSX(w io.Writer, rep *profile.Report, meta Metadata) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", clustersSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []string{
		"Cluster", "Cluster Weight", "Cluster Count", "Always Missing",
		"Fingerprint", "Fields", "Length", "Count", "Weight",
	}
	if err := writeHeader(f, clustersSheet, headers, headerStyle); err != nil {
		return err
	}

	row := 2
	for _, c := range rep.Clusters {
		for _, m := range c.Members {
			values := []interface{}{
				c.Rank, c.Weight, c.Count, strings.Join(c.Missing, ";"),
				m.Fingerprint.String(), strings.Join(m.Fields, ";"), m.Length, m.Count, m.Weight,
			}
			if err := writeRow(f, clustersSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}

	if _, err := f.NewSheet(rejectedSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeHeader(f, rejectedSheet, []string{"Line", "Row", "Error"}, headerStyle); err != nil {
		return err
	}
	for i, r := range rep.Rejected {
		if err := writeRow(f, rejectedSheet, i+2, []interface{}{r.LineNumber, r.Line, r.Message()}); err != nil {
			return err
		}
	}

	if meta.RunID != "" {
		if err := f.SetDocProps(&excelize.DocProperties{
			Title:       "Field pattern clusters",
			Identifier:  meta.RunID,
			Description: meta.ProfilesFile,
		}); err != nil {
			return fmt.Errorf("failed to set document properties: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 15)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}
