package catalog

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, title string) Item {
	return Item{ID: id, Snippet: Snippet{Title: title, ResourceID: ResourceID{ChannelID: "UC" + id}}}
}

func TestCache_InitiallyUnavailable(t *testing.T) {
	c := NewCache()
	n, ok := c.Count()
	assert.Equal(t, 0, n)
	assert.False(t, ok)
	assert.False(t, c.Load().Available)
}

func TestCache_PublishAndMarkUnavailable(t *testing.T) {
	c := NewCache()
	items := []Item{item("a", "A"), item("b", "B")}
	c.Publish(items)

	// Later mutation of the caller's slice must not leak into the snapshot.
	items[0].Snippet.Title = "changed"

	snap := c.Load()
	require.True(t, snap.Available)
	assert.Equal(t, "A", snap.Items[0].Snippet.Title)
	n, ok := c.Count()
	assert.Equal(t, 2, n)
	assert.True(t, ok)

	c.MarkUnavailable()
	n, ok = c.Count()
	assert.Equal(t, 0, n)
	assert.False(t, ok)

	c.Publish(nil)
	n, ok = c.Count()
	assert.Equal(t, 0, n)
	assert.True(t, ok, "an empty catalog is available, not unknown")
}

func TestCache_SubscribeCoalesces(t *testing.T) {
	c := NewCache()
	ch, cancel := c.Subscribe()
	defer cancel()

	c.Publish([]Item{item("1", "one")})
	c.Publish([]Item{item("1", "one"), item("2", "two")})
	c.MarkUnavailable()

	select {
	case s := <-ch:
		assert.False(t, s.Available, "lagging reader sees only the newest snapshot")
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	select {
	case s := <-ch:
		t.Fatalf("unexpected extra snapshot %+v", s)
	default:
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestCache_ReadersNeverSeePartialState(t *testing.T) {
	c := NewCache()
	full := make([]Item, 50)
	for i := range full {
		full[i] = item(string(rune('a'+i%26)), "t")
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := c.Load()
				if s.Available {
					assert.Len(t, s.Items, 50)
				} else {
					assert.Empty(t, s.Items)
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			c.Publish(full)
		} else {
			c.MarkUnavailable()
		}
	}
	close(stop)
	wg.Wait()
}

func TestSnapshot_FindAndJSON(t *testing.T) {
	s := Snapshot{Items: []Item{item("x", "X")}, Available: true}

	it, ok := s.Find("x")
	require.True(t, ok)
	assert.Equal(t, "X", it.Snippet.Title)
	_, ok = s.Find("nope")
	assert.False(t, ok)

	it, ok = s.FindChannel("UCx")
	require.True(t, ok)
	assert.Equal(t, "x", it.ID)

	data, err := s.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"x","snippet":{"title":"X","thumbnails":{},"resourceId":{"channelId":"UCx"}}}]`, string(data))

	empty, err := Snapshot{}.JSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestItem_CloneIsDeep(t *testing.T) {
	orig := item("a", "A")
	orig.Statistics = &Statistics{SubscriberCount: "10"}
	orig.BrandingSettings = &Branding{Image: &BrandingImage{BannerExternalURL: "u"}}
	orig.Snippet.Thumbnails.High = &Thumbnail{URL: "h"}

	cp := orig.Clone()
	cp.Statistics.SubscriberCount = "99"
	cp.BrandingSettings.Image.BannerExternalURL = "v"
	cp.Snippet.Thumbnails.High.URL = "x"

	assert.Equal(t, "10", orig.Statistics.SubscriberCount)
	assert.Equal(t, "u", orig.BrandingSettings.Image.BannerExternalURL)
	assert.Equal(t, "h", orig.Snippet.Thumbnails.High.URL)
}

func TestCache_SubscriberEndsOnLoadedSnapshot(t *testing.T) {
	for round := 0; round < 50; round++ {
		c := NewCache()
		updates, cancel := c.Subscribe()

		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Publish([]Item{item(string(rune('a'+w)), "t")})
			}()
		}
		wg.Wait()

		var last Snapshot
		select {
		case last = <-updates:
		default:
			t.Fatal("no snapshot delivered")
		}
		require.Len(t, last.Items, 1)
		assert.Equal(t, c.Load().Items[0].ID, last.Items[0].ID)
		cancel()
	}
}

func TestCache_ReplaceCopiesItems(t *testing.T) {
	c := NewCache()
	items := []Item{item("a", "A")}
	c.Replace(Snapshot{Items: items, Available: true})
	items[0].ID = "changed"
	assert.Equal(t, "a", c.Load().Items[0].ID)

	c.Replace(Snapshot{Items: items})
	n, ok := c.Count()
	assert.False(t, ok)
	assert.Zero(t, n)
	assert.Empty(t, c.Load().Items)
}
