package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/lexbot/internal/planner"
	"github.com/example/lexbot/pkg/dates"
	"github.com/example/lexbot/pkg/models"
)

const (
	scheduleSheet = "Schedule"
	totalsSheet   = "Totals"
)

// ExportSchedule writes a workbook with the day-by-day schedule of a plan
// and the total hours per subject.
func ExportSchedule(w io.Writer, plan models.StudyPlan, days []models.ScheduleDay) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", scheduleSheet)
	f.NewSheet(totalsSheet)

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	colors := newColorStyles(f)

	if err := writeRow(f, scheduleSheet, 1, "Date", "Subject", "Hours"); err != nil {
		return err
	}
	if err := f.SetCellStyle(scheduleSheet, "A1", "C1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	row := 2
	for _, day := range days {
		for _, a := range day.Allocations {
			if err := writeRow(f, scheduleSheet, row, dates.Format(day.Date), a.Subject, a.Hours); err != nil {
				return err
			}
			if style, ok := colors.get(a.Color); ok {
				cellName, _ := excelize.CoordinatesToCellName(2, row)
				if err := f.SetCellStyle(scheduleSheet, cellName, cellName, style); err != nil {
					return fmt.Errorf("failed to style row %d: %w", row, err)
				}
			}
			row++
		}
	}
	if err := f.SetColWidth(scheduleSheet, "A", "B", 24); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := writeRow(f, totalsSheet, 1, "Subject", "Hours"); err != nil {
		return err
	}
	if err := f.SetCellStyle(totalsSheet, "A1", "B1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	row = 2
	for _, total := range planner.Totals(days) {
		if err := writeRow(f, totalsSheet, row, total.Subject, total.Hours); err != nil {
			return err
		}
		row++
	}
	if err := writeRow(f, totalsSheet, row+1, plan.Title, fmt.Sprintf("Exam %s", plan.ExamDate)); err != nil {
		return err
	}
	if err := f.SetColWidth(totalsSheet, "A", "B", 24); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cellName, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cellName, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// colorStyles caches one fill style per subject color
type colorStyles struct {
	f      *excelize.File
	styles map[string]int
}

func newColorStyles(f *excelize.File) *colorStyles {
	return &colorStyles{f: f, styles: make(map[string]int)}
}

func (c *colorStyles) get(color string) (int, bool) {
	color = strings.ToUpper(strings.TrimSpace(color))
	if color == "" {
		return 0, false
	}
	if id, ok := c.styles[color]; ok {
		return id, true
	}
	id, err := c.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	if err != nil {
		return 0, false
	}
	c.styles[color] = id
	return id, true
}
