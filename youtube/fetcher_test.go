package youtube

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytlists/catalog"
)

type staticCreds struct{ token string }

func (c staticCreds) Credential() (string, bool) { return c.token, c.token != "" }

// fakeSource serves pages keyed by page token and channel details keyed by
// channel id.
type fakeSource struct {
	mu       sync.Mutex
	pages    map[string]*Page
	pageErr  map[string]error
	details  map[string]*catalog.Details
	detailEr map[string]error
	deleteEr error

	listCalls  []string
	deleted    []string
	tokensSeen map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages:      map[string]*Page{},
		pageErr:    map[string]error{},
		details:    map[string]*catalog.Details{},
		detailEr:   map[string]error{},
		tokensSeen: map[string]int{},
	}
}

func (s *fakeSource) ListSubscriptions(ctx context.Context, token, pageToken string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls = append(s.listCalls, pageToken)
	s.tokensSeen[token]++
	if err := s.pageErr[pageToken]; err != nil {
		return nil, err
	}
	p, ok := s.pages[pageToken]
	if !ok {
		return nil, fmt.Errorf("unexpected page token %q", pageToken)
	}
	return p, nil
}

func (s *fakeSource) ChannelDetails(ctx context.Context, token, channelID string) (*catalog.Details, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokensSeen[token]++
	if err := s.detailEr[channelID]; err != nil {
		return nil, err
	}
	d, ok := s.details[channelID]
	if !ok {
		return nil, ErrChannelNotFound
	}
	return d, nil
}

func (s *fakeSource) DeleteSubscription(ctx context.Context, token, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return s.deleteEr
}

func sub(id string) catalog.Item {
	return catalog.Item{ID: id, Snippet: catalog.Snippet{Title: "title " + id, ResourceID: catalog.ResourceID{ChannelID: "UC" + id}}}
}

func itemIDs(items []catalog.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// twoPages is P1 (2 items, cursor c1) then P2 (1 item, no cursor).
func twoPages() *fakeSource {
	src := newFakeSource()
	src.pages[""] = &Page{Items: []catalog.Item{sub("a"), sub("b")}, NextPageToken: "c1"}
	src.pages["c1"] = &Page{Items: []catalog.Item{sub("c")}}
	for _, id := range []string{"a", "b", "c"} {
		src.details["UC"+id] = &catalog.Details{
			ChannelID:  "UC" + id,
			Statistics: &catalog.Statistics{SubscriberCount: "10", VideoCount: "1"},
		}
	}
	return src
}

func TestFetchAll_Pagination(t *testing.T) {
	src := twoPages()
	cache := catalog.NewCache()
	f := NewFetcher(src, staticCreds{"tok"}, cache, Config{})

	require.NoError(t, f.FetchAll(context.Background()))

	snap := f.Snapshot()
	require.True(t, snap.Available)
	assert.Equal(t, []string{"a", "b", "c"}, itemIDs(snap.Items))

	n, ok := cache.Count()
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"", "c1"}, src.listCalls)
	assert.Equal(t, "10", cache.Load().Items[2].Statistics.SubscriberCount)
}

func TestFetchAll_PageFailurePublishesUnavailable(t *testing.T) {
	src := twoPages()
	cache := catalog.NewCache()
	f := NewFetcher(src, staticCreds{"tok"}, cache, Config{})

	// A previous good fetch must not survive a failed one.
	require.NoError(t, f.FetchAll(context.Background()))
	src.pageErr["c1"] = errors.New("connection reset")

	err := f.FetchAll(context.Background())
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 2, fetchErr.Page)

	n, ok := cache.Count()
	assert.False(t, ok, "cache must be unavailable, not the items from page 1")
	assert.Zero(t, n)
	assert.False(t, f.Snapshot().Available)
	assert.Empty(t, f.Snapshot().Items)
}

func TestFetchAll_EnrichmentFailureDegradesItem(t *testing.T) {
	src := twoPages()
	src.detailEr["UCb"] = errors.New("quota")
	delete(src.details, "UCc")
	cache := catalog.NewCache()
	f := NewFetcher(src, staticCreds{"tok"}, cache, Config{})

	require.NoError(t, f.FetchAll(context.Background()))

	items := cache.Load().Items
	require.Len(t, items, 3)
	assert.NotNil(t, items[0].Statistics)
	assert.Nil(t, items[1].Statistics)
	assert.Nil(t, items[2].Statistics)
	assert.Equal(t, "title b", items[1].Snippet.Title)
}

func TestFetchAll_NoCredentialIsNoop(t *testing.T) {
	src := twoPages()
	cache := catalog.NewCache()
	cache.Publish([]catalog.Item{sub("old")})
	f := NewFetcher(src, staticCreds{}, cache, Config{})

	require.NoError(t, f.FetchAll(context.Background()))
	assert.Empty(t, src.listCalls)
	assert.Equal(t, []string{"old"}, itemIDs(cache.Load().Items))
}

func TestFetchAll_EmptyCatalogIsAvailable(t *testing.T) {
	src := newFakeSource()
	src.pages[""] = &Page{}
	cache := catalog.NewCache()
	f := NewFetcher(src, staticCreds{"tok"}, cache, Config{})

	require.NoError(t, f.FetchAll(context.Background()))
	n, ok := cache.Count()
	assert.True(t, ok)
	assert.Zero(t, n)
	assert.NotNil(t, f.Snapshot().Items)
}

func TestFetchAll_PageLimit(t *testing.T) {
	src := newFakeSource()
	src.pages[""] = &Page{Items: []catalog.Item{sub("a")}, NextPageToken: "loop"}
	src.pages["loop"] = &Page{Items: []catalog.Item{sub("a")}, NextPageToken: "loop"}
	cache := catalog.NewCache()
	f := NewFetcher(src, staticCreds{"tok"}, cache, Config{MaxPages: 3})

	err := f.FetchAll(context.Background())
	require.ErrorIs(t, err, ErrPageLimit)
	assert.Len(t, src.listCalls, 3)
	_, ok := cache.Count()
	assert.False(t, ok)
}

func TestUnsubscribe_AlwaysRefetches(t *testing.T) {
	src := twoPages()
	cache := catalog.NewCache()
	f := NewFetcher(src, staticCreds{"tok"}, cache, Config{})

	require.NoError(t, f.Unsubscribe(context.Background(), "b"))
	assert.Equal(t, []string{"b"}, src.deleted)
	assert.Equal(t, []string{"", "c1"}, src.listCalls)

	src.listCalls = nil
	src.deleteEr = errors.New("forbidden")
	err := f.Unsubscribe(context.Background(), "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
	assert.Equal(t, []string{"", "c1"}, src.listCalls, "refetch must run even when the delete fails")
	_, ok := cache.Count()
	assert.True(t, ok)
}

func TestUnsubscribe_NoCredential(t *testing.T) {
	src := twoPages()
	f := NewFetcher(src, staticCreds{}, catalog.NewCache(), Config{})
	require.NoError(t, f.Unsubscribe(context.Background(), "a"))
	assert.Empty(t, src.deleted)
}

func TestChannelDetails(t *testing.T) {
	src := twoPages()
	f := NewFetcher(src, staticCreds{"tok"}, catalog.NewCache(), Config{})

	d, err := f.ChannelDetails(context.Background(), "UCa")
	require.NoError(t, err)
	assert.Equal(t, "UCa", d.ChannelID)

	_, err = NewFetcher(src, staticCreds{}, catalog.NewCache(), Config{}).ChannelDetails(context.Background(), "UCa")
	assert.ErrorIs(t, err, ErrNoCredential)
}

// countingSource returns a one-item catalog whose id changes on every call.
type countingSource struct {
	mu sync.Mutex
	n  int
}

func (s *countingSource) ListSubscriptions(ctx context.Context, token, pageToken string) (*Page, error) {
	s.mu.Lock()
	s.n++
	id := fmt.Sprintf("s%d", s.n)
	s.mu.Unlock()
	return &Page{Items: []catalog.Item{{ID: id}}}, nil
}

func (s *countingSource) ChannelDetails(ctx context.Context, token, channelID string) (*catalog.Details, error) {
	return nil, ErrChannelNotFound
}

func (s *countingSource) DeleteSubscription(ctx context.Context, token, id string) error {
	return nil
}

func TestFetchAll_ConcurrentCallsAgreeWithCache(t *testing.T) {
	for round := 0; round < 20; round++ {
		cache := catalog.NewCache()
		f := NewFetcher(&countingSource{}, staticCreds{"tok"}, cache, Config{})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, f.FetchAll(context.Background()))
			}()
		}
		wg.Wait()

		own, shared := f.Snapshot(), cache.Load()
		require.True(t, own.Available)
		require.True(t, shared.Available)
		assert.Equal(t, itemIDs(own.Items), itemIDs(shared.Items))
		assert.Equal(t, own.UpdatedAt, shared.UpdatedAt)
	}
}
