package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/lexbot/internal/spaced_repetition"
	"github.com/example/lexbot/pkg/dates"
	"github.com/example/lexbot/pkg/models"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv
var ErrUnsupportedFormat = errors.New("unsupported file format, use .xlsx or .csv")

// ImportConfig defines the import configuration
type ImportConfig struct {
	SubjectColumn   string // Column with the subject
	TopicColumn     string // Column with the topic
	DateColumn      string // Column with the study date
	IntervalsColumn string // Column with the completed intervals, e.g. "1,7"
	SheetName       string // Sheet to import, the first one when empty
	StartRow        int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SubjectColumn:   "A",
		TopicColumn:     "B",
		DateColumn:      "C",
		IntervalsColumn: "D",
		StartRow:        2, // skip header
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ReadTopics parses study topics from an Excel or CSV file. Rows without a
// subject or topic are skipped. Rows with an unreadable study date are kept
// and reported, since the review calculator ignores them.
func ReadTopics(r io.Reader, filename string, config ImportConfig) ([]models.StudyTopic, *ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		rows, err = readExcel(r, config.SheetName)
	default:
		return nil, nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, nil, err
	}

	cols, err := config.columns()
	if err != nil {
		return nil, nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	var topics []models.StudyTopic
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow || isBlank(row) {
			continue
		}
		result.TotalProcessed++

		topic, warning, err := parseRow(row, cols)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		if warning != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, warning))
		}
		topics = append(topics, topic)
	}
	return topics, result, nil
}

type columnIndexes struct {
	subject, topic, date, intervals int
}

func (c ImportConfig) columns() (columnIndexes, error) {
	var idx columnIndexes
	for _, col := range []struct {
		name string
		dst  *int
	}{
		{c.SubjectColumn, &idx.subject},
		{c.TopicColumn, &idx.topic},
		{c.DateColumn, &idx.date},
		{c.IntervalsColumn, &idx.intervals},
	} {
		n, err := excelize.ColumnNameToNumber(col.name)
		if err != nil {
			return idx, fmt.Errorf("invalid column %q: %w", col.name, err)
		}
		*col.dst = n - 1
	}
	return idx, nil
}

func readExcel(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	// Raw values keep date cells as serial numbers instead of locale formatted text.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(row []string, cols columnIndexes) (models.StudyTopic, string, error) {
	topic := models.StudyTopic{
		Subject: cell(row, cols.subject),
		Name:    cell(row, cols.topic),
	}
	if topic.Subject == "" {
		return topic, "", errors.New("subject cannot be empty")
	}
	if topic.Name == "" {
		return topic, "", errors.New("topic cannot be empty")
	}

	var warning string
	raw := cell(row, cols.date)
	if d, ok := parseStudyDate(raw); ok {
		topic.StudyDate = dates.Format(d)
	} else {
		topic.StudyDate = raw
		warning = fmt.Sprintf("study date %q is not a valid date, no reviews will be scheduled", raw)
	}

	intervals := cell(row, cols.intervals)
	if intervals == "" {
		return topic, warning, nil
	}
	for _, part := range strings.FieldsFunc(intervals, func(r rune) bool { return r == ',' || r == ';' || r == ' ' }) {
		n, err := strconv.Atoi(part)
		if err == nil {
			_, err = spaced_repetition.MarkComplete(&topic, n)
		}
		if err != nil {
			return topic, "", fmt.Errorf("invalid completed interval %q", part)
		}
	}
	return topic, warning, nil
}

// parseStudyDate accepts YYYY-MM-DD text or an Excel date serial number
func parseStudyDate(raw string) (t time.Time, ok bool) {
	if d, err := dates.Parse(raw); err == nil {
		return d, true
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || serial <= 0 {
		return t, false
	}
	d, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return t, false
	}
	return dates.Of(d), true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
