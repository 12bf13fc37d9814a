package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/pipeline/internal/ports/outbound"
)

func TestAppendReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sink.csv")
	events := []outbound.FeedEvent{
		{
			Date:        "2026-08-25 12:00:00",
			NumComments: 4,
			Title:       "Weeknight Chickpea Curry",
			Author:      "cook_a",
			Text:        "Ingredients:\n- 2 cups chickpeas\n- 1 can coconut milk",
			CharCount:   52,
		},
		{
			Date:        "2026-08-25 12:05:00",
			NumComments: 0,
			Title:       `Best "Ever" Chili`,
			Author:      "cook_b",
			Text:        "a comment, with commas",
			CharCount:   22,
		},
	}
	require.NoError(t, AppendCSV(path, events))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events[0], got[0])
	assert.Equal(t, events[1], got[1])
}

func TestAppendCSVWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sink.csv")
	event := outbound.FeedEvent{Date: "2026-08-25 12:00:00", Title: "One", Author: "a", Text: "x", CharCount: 1}

	require.NoError(t, AppendCSV(path, []outbound.FeedEvent{event}))
	require.NoError(t, AppendCSV(path, []outbound.FeedEvent{event}))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAppendCSVEmptyPathDisabled(t *testing.T) {
	assert.NoError(t, AppendCSV("", []outbound.FeedEvent{{Title: "x"}}))
}

func TestReadCSVSkipsShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	raw := "date,num_comments,title,user,comment,n_char\n" +
		"2026-08-25 12:00:00,2,Miso Soup,cook_a,some text,9\n" +
		"broken,row\n" +
		"2026-08-25 12:01:00,notanumber,Beef Stew,cook_b,more text,9\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Miso Soup", got[0].Title)
	// Unparseable counters zero out instead of dropping the row.
	assert.Equal(t, "Beef Stew", got[1].Title)
	assert.Zero(t, got[1].NumComments)
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
