package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Order selects how a catalog is sorted for display.
type Order string

// Supported sort orders.
const (
	OrderDefault     Order = ""
	OrderName        Order = "name"
	OrderDate        Order = "date"
	OrderSubscribers Order = "subscribers"
	OrderVideos      Order = "videos"
)

// ParseOrder validates s as an Order. "default" is accepted for OrderDefault.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "default":
		return OrderDefault, nil
	case OrderDefault, OrderName, OrderDate, OrderSubscribers, OrderVideos:
		return o, nil
	default:
		return OrderDefault, fmt.Errorf("catalog: unknown sort order %q", s)
	}
}

// Sort returns a sorted copy of items. Name (ignoring case) and date sort ascending;
// subscribers and videos sort descending, with missing statistics last.
// The default order returns items unchanged.
func Sort(items []Item, order Order) []Item {
	out := make([]Item, len(items))
	copy(out, items)

	var less func(a, b Item) bool
	switch order {
	case OrderName:
		less = func(a, b Item) bool {
			return strings.ToLower(a.Snippet.Title) < strings.ToLower(b.Snippet.Title)
		}
	case OrderDate:
		less = func(a, b Item) bool { return published(a).Before(published(b)) }
	case OrderSubscribers:
		less = func(a, b Item) bool { return subscribers(a) > subscribers(b) }
	case OrderVideos:
		less = func(a, b Item) bool { return videos(a) > videos(b) }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// FilterByTitle returns the items whose title contains q, ignoring case.
// An empty query matches everything.
func FilterByTitle(items []Item, q string) []Item {
	q = strings.ToLower(q)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Snippet.Title), q) {
			out = append(out, it)
		}
	}
	return out
}

// published parses the RFC 3339 timestamp; unparseable values sort first.
func published(it Item) time.Time {
	t, err := time.Parse(time.RFC3339, it.Snippet.PublishedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

func subscribers(it Item) int64 {
	if it.Statistics == nil {
		return -1
	}
	return parseCount(it.Statistics.SubscriberCount)
}

func videos(it Item) int64 {
	if it.Statistics == nil {
		return -1
	}
	return parseCount(it.Statistics.VideoCount)
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1
	}
	return n
}
