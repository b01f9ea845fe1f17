package analysis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	cases := []struct {
		name      string
		date      string
		timeCell  string
		order     DateOrder
		want      Timestamp
		wantParse bool
	}{
		{"day-first combined", "31/12/2024 23:30:00", "", DMY, ts(2024, 12, 31, 23, 30), true},
		{"day over twelve beats MDY hint", "31/12/2024 23:30", "", MDY, ts(2024, 12, 31, 23, 30), true},
		{"ambiguous follows DMY", "01/02/2024", "", DMY, ts(2024, 2, 1, 0, 0), true},
		{"ambiguous follows MDY", "01/02/2024", "", MDY, ts(2024, 1, 2, 0, 0), true},
		{"second part over twelve forces MDY", "02/13/2024", "", DMY, ts(2024, 2, 13, 0, 0), true},
		{"iso date with time cell", "2024-01-02", "13:45", DMY, ts(2024, 1, 2, 13, 45), true},
		{"time cell overrides embedded midnight", "2024/01/02 00:00", "07:15", DMY, ts(2024, 1, 2, 7, 15), true},
		{"iso with T and zone", "2024-01-02T08:15:00Z", "", DMY, ts(2024, 1, 2, 8, 15), true},
		{"month name", "5-Mar-24 14:00", "", DMY, ts(2024, 3, 5, 14, 0), true},
		{"month name spaced", "05 January 2024", "", MDY, ts(2024, 1, 5, 0, 0), true},
		{"two digit year nineteen", "01/02/99", "", DMY, ts(1999, 2, 1, 0, 0), true},
		{"middle part is the year", "05/45/10", "", DMY, ts(2045, 10, 5, 0, 0), true},
		{"middle year with MDY hint", "05/45/10", "", MDY, ts(2045, 5, 10, 0, 0), true},
		{"middle year day over twelve", "10/45/25", "", MDY, ts(2045, 10, 25, 0, 0), true},
		{"24:00 rolls over", "2024-12-31 24:00", "", DMY, ts(2025, 1, 1, 0, 0), true},
		{"non-existent date", "31/02/2024", "", DMY, Timestamp{}, false},
		{"month thirteen everywhere", "13/13/2024", "", DMY, Timestamp{}, false},
		{"text", "hello", "", DMY, Timestamp{}, false},
		{"bare number", "12345678901", "", DMY, Timestamp{}, false},
		{"empty", "", "10:00", DMY, Timestamp{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDateTime(tc.date, tc.timeCell, tc.order)
			require.Equal(t, tc.wantParse, ok)
			if ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestParseDateTimeYearOverridesHint(t *testing.T) {
	for _, order := range []DateOrder{DMY, MDY, YMD} {
		got, ok := ParseDateTime("45/03/07", "", order)
		require.True(t, ok, "order %s", order)
		assert.Equal(t, CalendarDate{Year: 2045, Month: 3, Day: 7}, got.Date, "order %s", order)

		got, ok = ParseDateTime("07.03.1999", "", order)
		require.True(t, ok, "order %s", order)
		assert.Equal(t, 1999, got.Date.Year, "order %s", order)
	}
}

func TestParseDateOrder(t *testing.T) {
	cases := map[string]DateOrder{
		"":           DMY,
		"dmy":        DMY,
		"DD/MM/YYYY": DMY,
		"MM-DD-YY":   MDY,
		"YYYY-MM-DD": YMD,
		"mdy":        MDY,
	}
	for in, want := range cases {
		got, err := ParseDateOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDateOrder("XYZ")
	assert.Error(t, err)
}

func TestDateOrderUnmarshalText(t *testing.T) {
	var cfg struct {
		Order DateOrder `json:"order"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"order":"mdy"}`), &cfg))
	assert.Equal(t, MDY, cfg.Order)
	require.NoError(t, json.Unmarshal([]byte(`{"order":"YYYY-MM-DD"}`), &cfg))
	assert.Equal(t, YMD, cfg.Order)
	assert.Error(t, json.Unmarshal([]byte(`{"order":"XYZ"}`), &cfg))
}

func TestCalendarDate(t *testing.T) {
	tue := CalendarDate{Year: 2024, Month: 1, Day: 2}
	sat := CalendarDate{Year: 2024, Month: 1, Day: 6}

	assert.Equal(t, time.Tuesday, tue.Weekday())
	assert.False(t, tue.IsWeekend())
	assert.True(t, sat.IsWeekend())
	assert.True(t, sat.AddDays(1).IsWeekend())
	assert.Equal(t, "2024-01-02", tue.Key())
	assert.Equal(t, -1, tue.Compare(sat))
	assert.Equal(t, 1, sat.Compare(tue))
	assert.Equal(t, 0, tue.Compare(tue))
	assert.Equal(t, CalendarDate{Year: 2025, Month: 1, Day: 1}, CalendarDate{Year: 2024, Month: 12, Day: 31}.AddDays(1))

	assert.True(t, CalendarDate{Year: 2024, Month: 2, Day: 29}.Valid())
	assert.False(t, CalendarDate{Year: 2023, Month: 2, Day: 29}.Valid())
	assert.False(t, CalendarDate{Year: 2024, Month: 0, Day: 1}.Valid())

	b, err := json.Marshal(struct {
		D *CalendarDate `json:"d"`
	}{&tue})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-01-02"}`, string(b))

	var back CalendarDate
	require.NoError(t, back.UnmarshalText([]byte("2024-01-02")))
	assert.Equal(t, tue, back)
	assert.Error(t, back.UnmarshalText([]byte("02/01/2024")))
}

func TestInferDateOrder(t *testing.T) {
	assert.Equal(t, DMY, InferDateOrder([]string{"01/01/2024", "13/01/2024"}))
	assert.Equal(t, MDY, InferDateOrder([]string{"01/13/2024 00:30"}))
	assert.Equal(t, YMD, InferDateOrder([]string{"2024-01-13"}))
	assert.Equal(t, DMY, InferDateOrder([]string{"01/02/2024"}))
	assert.Equal(t, DMY, InferDateOrder(nil))
}

func ts(y, mo, d, h, mi int) Timestamp {
	return Timestamp{Date: CalendarDate{Year: y, Month: mo, Day: d}, Hour: h, Minute: mi}
}
