package types

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Unknown", FormatDate(nil))
	assert.Equal(t, "2024-01-15", FormatDate(NewDate(2024, time.January, 15)))
}

func TestDateOrdering_UnknownLast(t *testing.T) {
	dates := []*time.Time{
		nil,
		NewDate(2022, time.March, 1),
		NewDate(2020, time.June, 1),
		nil,
		NewDate(2024, time.February, 1),
	}

	asc := append([]*time.Time(nil), dates...)
	sort.SliceStable(asc, func(i, j int) bool { return DateBefore(asc[i], asc[j]) })
	assert.Equal(t, "2020-06-01", FormatDate(asc[0]))
	assert.Equal(t, "2024-02-01", FormatDate(asc[2]))
	assert.Nil(t, asc[3])
	assert.Nil(t, asc[4])

	desc := append([]*time.Time(nil), dates...)
	sort.SliceStable(desc, func(i, j int) bool { return DateAfter(desc[i], desc[j]) })
	assert.Equal(t, "2024-02-01", FormatDate(desc[0]))
	assert.Equal(t, "2020-06-01", FormatDate(desc[2]))
	assert.Nil(t, desc[3])
}

func TestDateRange(t *testing.T) {
	first, last := DateRange([]*time.Time{nil, nil})
	assert.Nil(t, first)
	assert.Nil(t, last)

	first, last = DateRange([]*time.Time{
		NewDate(2023, time.May, 2), nil, NewDate(2021, time.January, 9),
	})
	require.NotNil(t, first)
	require.NotNil(t, last)
	assert.Equal(t, "2021-01-09", FormatDate(first))
	assert.Equal(t, "2023-05-02", FormatDate(last))
}

func TestCountDistinctDates(t *testing.T) {
	d := NewDate(2023, time.May, 2)
	assert.Equal(t, 0, CountDistinctDates(nil))
	assert.Equal(t, 2, CountDistinctDates([]*time.Time{d, d, nil, NewDate(2020, time.May, 2)}))
}

func TestParseDocumentType(t *testing.T) {
	dt, err := ParseDocumentType("cover_letter")
	require.NoError(t, err)
	assert.Equal(t, DocCoverLetter, dt)

	dt, err = ParseDocumentType("memo")
	assert.Error(t, err)
	assert.Equal(t, DocUnknown, dt)
}

func TestFilterByType(t *testing.T) {
	docs := []Document{
		{Filepath: "a", DocType: DocResume},
		{Filepath: "b", DocType: DocCoverLetter},
		{Filepath: "c", DocType: DocResume},
	}
	got := FilterByType(docs, DocResume)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Filepath)
	assert.Equal(t, "c", got[1].Filepath)
}
