package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() []Item {
	return []Item{
		{ID: "1", Snippet: Snippet{Title: "Beta", PublishedAt: "2019-05-01T00:00:00Z"}, Statistics: &Statistics{SubscriberCount: "500", VideoCount: "3"}},
		{ID: "2", Snippet: Snippet{Title: "alpha Music", PublishedAt: "2015-01-01T00:00:00Z"}, Statistics: &Statistics{SubscriberCount: "9000", VideoCount: "40"}},
		{ID: "3", Snippet: Snippet{Title: "Gamma", PublishedAt: "2021-11-30T12:00:00Z"}},
		{ID: "4", Snippet: Snippet{Title: "Delta MUSIC", PublishedAt: "2018-02-02T00:00:00Z"}, Statistics: &Statistics{SubscriberCount: "70", VideoCount: "900"}},
	}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestSort(t *testing.T) {
	tests := []struct {
		order Order
		want  []string
	}{
		{OrderDefault, []string{"1", "2", "3", "4"}},
		{OrderName, []string{"2", "1", "4", "3"}},
		{OrderDate, []string{"2", "4", "1", "3"}},
		{OrderSubscribers, []string{"2", "1", "4", "3"}},
		{OrderVideos, []string{"4", "2", "1", "3"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			in := fixture()
			got := Sort(in, tt.order)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, []string{"1", "2", "3", "4"}, ids(in), "input must not be reordered")
		})
	}
}

func TestFilterByTitle(t *testing.T) {
	assert.Equal(t, []string{"2", "4"}, ids(FilterByTitle(fixture(), "music")))
	assert.Len(t, FilterByTitle(fixture(), ""), 4)
	assert.Empty(t, FilterByTitle(fixture(), "zzz"))
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder(" Subscribers ")
	require.NoError(t, err)
	assert.Equal(t, OrderSubscribers, o)

	o, err = ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, OrderDefault, o)

	o, err = ParseOrder("Default")
	require.NoError(t, err)
	assert.Equal(t, OrderDefault, o)

	_, err = ParseOrder("popularity")
	assert.Error(t, err)
}
