package excel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/lexbot/internal/planner"
	"github.com/example/lexbot/pkg/dates"
	"github.com/example/lexbot/pkg/models"
)

func TestReadTopics_CSV(t *testing.T) {
	input := strings.Join([]string{
		"Subject,Topic,Study date,Completed",
		"Civil,Contracts,2024-03-01,\"7,1\"",
		"Penal,Theft,someday,",
		",Orphan,2024-03-01,",
		"",
		"Civil,Torts,2024-03-02,2",
	}, "\n")

	topics, result, err := ReadTopics(strings.NewReader(input), "topics.CSV", DefaultImportConfig())
	require.NoError(t, err)

	require.Len(t, topics, 2)
	assert.Equal(t, "Contracts", topics[0].Name)
	assert.Equal(t, "2024-03-01", topics[0].StudyDate)
	assert.Equal(t, []int{1, 7}, topics[0].CompletedIntervals)
	assert.Equal(t, "someday", topics[1].StudyDate)

	assert.Equal(t, 4, result.TotalProcessed)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Row 3")
	assert.Contains(t, result.Errors[1], "subject cannot be empty")
	assert.Contains(t, result.Errors[2], `invalid completed interval "2"`)
}

func TestReadTopics_Excel(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Subject", "Topic", "Study date", "Completed"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Civil", "Contracts", "2024-03-01", "1"}))
	// 45353 is the Excel serial of 2024-03-02
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Penal", "Theft", 45353}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	topics, result, err := ReadTopics(&buf, "topics.xlsx", DefaultImportConfig())
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, []int{1}, topics[0].CompletedIntervals)
	assert.Equal(t, "2024-03-02", topics[1].StudyDate)
	assert.Empty(t, result.Errors)
}

func TestReadTopics_UnsupportedFormat(t *testing.T) {
	_, _, err := ReadTopics(strings.NewReader("x"), "topics.pdf", DefaultImportConfig())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportSchedule(t *testing.T) {
	plan := models.StudyPlan{
		Title:      "Bar exam",
		ExamDate:   "2024-06-13",
		DailyHours: 4,
		Subjects: []models.StudyPlanSubject{
			{Name: "Civil", Weight: 2, Color: "#ff0000"},
			{Name: "Penal", Weight: 1},
		},
	}
	today, err := dates.Parse("2024-06-10")
	require.NoError(t, err)
	days := planner.Generate(plan, today)
	require.Len(t, days, 3)

	var buf bytes.Buffer
	require.NoError(t, ExportSchedule(&buf, plan, days))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{scheduleSheet, totalsSheet}, f.GetSheetList())

	rows, err := f.GetRows(scheduleSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Subject", "Hours"}, rows[0])
	assert.Equal(t, []string{"2024-06-10", "Civil", "2"}, rows[1])

	scheduled := 0
	for _, day := range days {
		scheduled += len(day.Allocations)
	}
	assert.Len(t, rows, scheduled+1)

	totals, err := f.GetRows(totalsSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Civil", "8"}, totals[1])
	assert.Equal(t, []string{"Penal", "4"}, totals[2])
}
