package calview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeDay(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	focus := time.Date(2020, time.July, 17, 14, 30, 0, 0, loc)
	start, end, err := Range(focus, GranularityDay, loc)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2020, time.July, 17, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2020, time.July, 18, 0, 0, 0, 0, loc), end)
}

func TestRangeWeekStartsSunday(t *testing.T) {
	loc := time.UTC
	// 2020-07-17 Cuma; haftanın Pazar'ı 2020-07-12.
	focus := time.Date(2020, time.July, 17, 10, 0, 0, 0, loc)
	start, end, err := Range(focus, GranularityWeek, loc)
	require.NoError(t, err)

	assert.Equal(t, time.Sunday, start.Weekday())
	assert.Equal(t, time.Date(2020, time.July, 12, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2020, time.July, 19, 0, 0, 0, 0, loc), end)
}

func TestRangeMonthSpansWholeWeeks(t *testing.T) {
	loc := time.UTC
	for month := time.January; month <= time.December; month++ {
		focus := time.Date(2020, month, 15, 12, 0, 0, 0, loc)
		start, end, err := Range(focus, GranularityMonth, loc)
		require.NoError(t, err)

		assert.Equal(t, time.Sunday, start.Weekday(), "ay: %s", month)
		// Yarı açık aralığın son günü Cumartesi olmalı.
		assert.Equal(t, time.Saturday, end.AddDate(0, 0, -1).Weekday(), "ay: %s", month)
		assert.Equal(t, time.Sunday, end.Weekday(), "ay: %s", month)

		// Aralık ayın tamamını kapsamalı.
		monthStart := time.Date(2020, month, 1, 0, 0, 0, 0, loc)
		monthEnd := monthStart.AddDate(0, 1, 0)
		assert.False(t, start.After(monthStart))
		assert.False(t, end.Before(monthEnd))
	}
}

func TestRangeUnknownGranularity(t *testing.T) {
	_, _, err := Range(time.Now(), Granularity("year"), time.UTC)
	assert.ErrorIs(t, err, ErrUnknownGranularity)
}

func TestDayLayoutSingleDay(t *testing.T) {
	loc := time.UTC
	start := time.Date(2020, time.July, 17, 9, 0, 0, 0, loc)
	end := time.Date(2020, time.July, 17, 10, 30, 0, 0, loc)
	focus := time.Date(2020, time.July, 17, 0, 0, 0, 0, loc)

	layout, ok := DayLayout(start, end, focus, loc, 5)
	require.True(t, ok)
	assert.Equal(t, 45.0, layout.Top)
	assert.Equal(t, 7.5, layout.Height)
}

func TestDayLayoutMultiDay(t *testing.T) {
	loc := time.UTC
	start := time.Date(2020, time.July, 16, 22, 0, 0, 0, loc)
	end := time.Date(2020, time.July, 18, 6, 0, 0, 0, loc)

	t.Run("middle day fills the grid", func(t *testing.T) {
		focus := time.Date(2020, time.July, 17, 0, 0, 0, 0, loc)
		layout, ok := DayLayout(start, end, focus, loc, 5)
		require.True(t, ok)
		assert.Equal(t, 0.0, layout.Top)
		assert.Equal(t, 120.0, layout.Height)
	})

	t.Run("first day runs to midnight", func(t *testing.T) {
		focus := time.Date(2020, time.July, 16, 0, 0, 0, 0, loc)
		layout, ok := DayLayout(start, end, focus, loc, 5)
		require.True(t, ok)
		assert.Equal(t, 110.0, layout.Top)
		assert.Equal(t, 10.0, layout.Height)
	})

	t.Run("last day starts at midnight", func(t *testing.T) {
		focus := time.Date(2020, time.July, 18, 0, 0, 0, 0, loc)
		layout, ok := DayLayout(start, end, focus, loc, 5)
		require.True(t, ok)
		assert.Equal(t, 0.0, layout.Top)
		assert.Equal(t, 30.0, layout.Height)
	})

	t.Run("unrelated day has no block", func(t *testing.T) {
		focus := time.Date(2020, time.July, 20, 0, 0, 0, 0, loc)
		_, ok := DayLayout(start, end, focus, loc, 5)
		assert.False(t, ok)
	})
}

func TestDayLayoutTimezoneConversion(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	// UTC 16:00 = PDT 09:00; yerleşim görüntüleme dilimine göre hesaplanır.
	start := time.Date(2020, time.July, 17, 16, 0, 0, 0, time.UTC)
	end := time.Date(2020, time.July, 17, 17, 0, 0, 0, time.UTC)
	focus := time.Date(2020, time.July, 17, 0, 0, 0, 0, loc)

	layout, ok := DayLayout(start, end, focus, loc, 5)
	require.True(t, ok)
	assert.Equal(t, 45.0, layout.Top)
	assert.Equal(t, 5.0, layout.Height)
}
