package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "valid", input: "2024-03-01", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "surrounding spaces", input: " 2024-03-01 ", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "empty", input: "", wantErr: true},
		{name: "wrong layout", input: "01.03.2024", wantErr: true},
		{name: "impossible day", input: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestTodayIgnoresViewerOffset(t *testing.T) {
	// 23:30 in Sao Paulo is already the next day in UTC.
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2024, 5, 10, 2, 30, 0, 0, time.UTC)

	today := Today(now, loc)

	assert.Equal(t, "2024-05-09", Format(today))
}

func TestAddDaysAndDaysBetween(t *testing.T) {
	d, err := Parse("2024-02-28")
	require.NoError(t, err)

	assert.Equal(t, "2024-02-29", Format(AddDays(d, 1)))
	assert.Equal(t, "2024-03-29", Format(AddDays(d, 30)))
	assert.Equal(t, 30, DaysBetween(d, AddDays(d, 30)))
	assert.Equal(t, -1, DaysBetween(d, AddDays(d, -1)))
}
