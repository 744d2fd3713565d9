package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBackendDate(t *testing.T) {
	got, err := ToBackendDate("16-10-2026")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", got)
}

func TestToBackendDate_Invalid(t *testing.T) {
	for _, in := range []string{"31-02-2026", "2026-10-16", "1-1-2026", "", "16/10/2026", "00-01-2026"} {
		_, err := ToBackendDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, in)
	}
}

func TestFromBackendDate(t *testing.T) {
	got, err := FromBackendDate("2026-10-16")
	require.NoError(t, err)
	assert.Equal(t, "16-10-2026", got)

	got, err = FromBackendDate("2026-10-16T00:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "16-10-2026", got)

	_, err = FromBackendDate("16-10-2026")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestEventDate_RoundTrip(t *testing.T) {
	for _, in := range []string{"01-01-2000", "29-02-2024", "31-12-1999", "16-10-2026", "30-04-2025"} {
		backend, err := ToBackendDate(in)
		require.NoError(t, err, in)
		back, err := FromBackendDate(backend)
		require.NoError(t, err, in)
		assert.Equal(t, in, back)
	}
}

func TestSortEventsByDateDesc(t *testing.T) {
	list := []Event{
		{ID: "a", EventDate: "2026-01-01", EventTime: "10:00"},
		{ID: "b", EventDate: "2026-03-01", EventTime: "09:00"},
		{ID: "c", EventDate: "2026-03-01", EventTime: "18:00"},
	}

	SortEventsByDateDesc(list)

	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestRemoveEvent(t *testing.T) {
	list := []Event{{ID: "a"}, {ID: "b"}}

	out := RemoveEvent(list, "a")

	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].ID)
	assert.Len(t, list, 2)
}
