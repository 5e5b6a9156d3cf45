package overview

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Overdracht"

var exportHeader = []interface{}{
	"Patiënt",
	"Geboortedatum",
	"Geslacht",
	"Hoog risico",
	"Afwijkende vitale functies",
	"Overdracht",
	"Incidenten",
	"Totaal",
}

var exportColumnWidths = []float64{30, 14, 10, 12, 26, 12, 12, 10}

func ExportFilename(res *Result) string {
	return fmt.Sprintf("overdracht-%s-%dd.xlsx", res.Date, res.Period)
}

// WriteXLSX writes the overview as a single-sheet workbook, one row per
// patient in rank order.
func WriteXLSX(w io.Writer, res *Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(exportHeader))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, width := range exportColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for i, p := range res.Patients {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			p.DisplayName(),
			formatDate(p),
			derefString(p.Gender),
			p.HighRiskCount,
			p.AbnormalVitalsCount,
			p.MarkedForHandoverCount,
			p.IncidentCount,
			p.TotalAlerts,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func formatDate(p PatientOverview) string {
	if p.BirthDate == nil {
		return ""
	}
	return p.BirthDate.Format(dateLayout)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
