package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectColumnsFromHeaders(t *testing.T) {
	cases := []struct {
		name    string
		headers []string
		want    ColumnRoles
	}{
		{
			name:    "vendor layout",
			headers: []string{"RDate", "RTime", "kWh+", "kWh-"},
			want: ColumnRoles{
				Date:    ColumnRole{0, SourceHeader},
				Time:    ColumnRole{1, SourceHeader},
				Value:   ColumnRole{2, SourceHeader},
				MeterID: ColumnRole{-1, SourceNone},
			},
		},
		{
			name:    "timestamp is not a time column",
			headers: []string{"Timestamp", "Meter Serial", "Consumption kWh"},
			want: ColumnRoles{
				Date:    ColumnRole{0, SourceHeader},
				Time:    ColumnRole{-1, SourceNone},
				Value:   ColumnRole{2, SourceHeader},
				MeterID: ColumnRole{1, SourceHeader},
			},
		},
		{
			name:    "date header claimed before time",
			headers: []string{"Date Time", "Active Power"},
			want: ColumnRoles{
				Date:    ColumnRole{0, SourceHeader},
				Time:    ColumnRole{-1, SourceNone},
				Value:   ColumnRole{1, SourceHeader},
				MeterID: ColumnRole{-1, SourceNone},
			},
		},
		{
			name:    "unit token outranks generic word",
			headers: []string{"Date", "Reading", "kWh"},
			want: ColumnRoles{
				Date:    ColumnRole{0, SourceHeader},
				Time:    ColumnRole{-1, SourceNone},
				Value:   ColumnRole{2, SourceHeader},
				MeterID: ColumnRole{-1, SourceNone},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectColumns(tc.headers, nil))
		})
	}
}

func TestDetectColumnsStatistical(t *testing.T) {
	headers := []string{"c1", "c2", "c3", "c4"}
	rows := [][]string{
		{"02/01/2024", "00:00", "0", "1.2"},
		{"02/01/2024", "00:30", "0", "1.7"},
		{"02/01/2024", "01:00", "0", "0.9"},
		{"02/01/2024", "01:30", "0", "2.4"},
		{"02/01/2024", "02:00", "0", "1.1"},
	}
	got := DetectColumns(headers, rows)
	assert.Equal(t, ColumnRole{0, SourceStatistical}, got.Date)
	assert.Equal(t, ColumnRole{1, SourceStatistical}, got.Time)
	assert.Equal(t, ColumnRole{3, SourceStatistical}, got.Value, "varying non-zero column beats the zero column")
}

func TestDetectColumnsDefaults(t *testing.T) {
	got := DetectColumns([]string{"x", "y"}, [][]string{{"foo", "bar"}, {"baz", "qux"}})
	assert.Equal(t, ColumnRole{0, SourceDefault}, got.Date)
	assert.Equal(t, ColumnRole{1, SourceDefault}, got.Value)

	single := DetectColumns([]string{"x"}, [][]string{{"foo"}})
	assert.Equal(t, 0, single.Value.Index)

	none := DetectColumns(nil, nil)
	assert.False(t, none.Date.Resolved())
	assert.False(t, none.Value.Resolved())
}

func TestDetectColumnsExcluding(t *testing.T) {
	headers := []string{"Date", "kWh", "Export kWh"}
	got := DetectColumnsExcluding(headers, nil, map[int]bool{1: true})
	assert.Equal(t, 2, got.Value.Index)
}
