package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByDate(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	msgs := []Message{
		{ID: "1", SenderID: "G", CreatedAt: day1},
		{ID: "2", SenderID: "G", CreatedAt: day1.Add(time.Minute)},
		{ID: "3", SenderID: "H", CreatedAt: day1.Add(2 * time.Minute)},
		{ID: "4", SenderID: "H", CreatedAt: day2},
		{ID: "5", SenderID: "G", CreatedAt: day2.Add(time.Minute)},
	}

	groups := GroupByDate(msgs, time.UTC)
	require.Len(t, groups, 2)
	assert.Equal(t, "2024-03-01", groups[0].Date)
	assert.Equal(t, "2024-03-02", groups[1].Date)

	show := func(g DateGroup) []bool {
		out := make([]bool, 0, len(g.Entries))
		for _, e := range g.Entries {
			out = append(out, e.ShowSender)
		}
		return out
	}
	assert.Equal(t, []bool{true, false, true}, show(groups[0]))
	// H continues across midnight but the label resets with the new day.
	assert.Equal(t, []bool{true, true}, show(groups[1]))
}

func TestGroupByDate_Location(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	msgs := []Message{
		{ID: "1", SenderID: "G", CreatedAt: time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC)},
		{ID: "2", SenderID: "G", CreatedAt: time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC)},
	}
	groups := GroupByDate(msgs, loc)
	require.Len(t, groups, 2)
	assert.Equal(t, "2024-03-01", groups[0].Date)
}

func TestGroupByDate_Empty(t *testing.T) {
	assert.Empty(t, GroupByDate(nil, nil))
}
