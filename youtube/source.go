package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"ytlists/catalog"
	ythttp "ytlists/http"
	"ytlists/internal/logging"
)

// PageSize is the provider's maximum page size for subscriptions.list.
const PageSize = 50

// Page is one page of subscriptions.
type Page struct {
	Items         []catalog.Item
	NextPageToken string
}

// Source is the remote catalog provider. Every call carries the bearer
// credential it should be made with.
type Source interface {
	// ListSubscriptions returns one page of the caller's own subscriptions.
	ListSubscriptions(ctx context.Context, token, pageToken string) (*Page, error)
	// ChannelDetails looks up a single channel. It returns ErrChannelNotFound
	// when the provider answers with no item.
	ChannelDetails(ctx context.Context, token, channelID string) (*catalog.Details, error)
	// DeleteSubscription removes the subscription with the given id.
	DeleteSubscription(ctx context.Context, token, subscriptionID string) error
}

// Quota cost of each call in Data API units.
const (
	costList   = 1
	costDelete = 50
)

// APISource implements Source using YouTube Data API v3.
type APISource struct {
	base     *http.Client
	endpoint string
	log      zerolog.Logger

	mu        sync.Mutex
	svc       *youtube.Service
	svcToken  string
	quotaUsed int
}

// NewAPISource creates a Data API source whose requests go through base.
// An empty endpoint uses the library default.
func NewAPISource(base *ythttp.Client, endpoint string) *APISource {
	return &APISource{
		base:     base.HTTPClient(),
		endpoint: endpoint,
		log:      logging.For("youtube"),
	}
}

// service returns a client bound to token, reusing the previous one while
// the token is unchanged.
func (a *APISource) service(ctx context.Context, token string) (*youtube.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.svc != nil && a.svcToken == token {
		return a.svc, nil
	}

	hc := &http.Client{
		Timeout: a.base.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   a.base.Transport,
		},
	}
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if a.endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.endpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	a.svc, a.svcToken = svc, token
	return svc, nil
}

// ListSubscriptions calls subscriptions.list with mine=true.
func (a *APISource) ListSubscriptions(ctx context.Context, token, pageToken string) (*Page, error) {
	svc, err := a.service(ctx, token)
	if err != nil {
		return nil, err
	}

	call := svc.Subscriptions.List([]string{"snippet"}).
		Mine(true).
		MaxResults(PageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, apiError("subscriptions.list", err)
	}
	a.trackQuota(costList)

	page := &Page{NextPageToken: resp.NextPageToken, Items: make([]catalog.Item, 0, len(resp.Items))}
	for _, s := range resp.Items {
		page.Items = append(page.Items, subscriptionItem(s))
	}
	return page, nil
}

// ChannelDetails calls channels.list for snippet, statistics and branding.
func (a *APISource) ChannelDetails(ctx context.Context, token, channelID string) (*catalog.Details, error) {
	svc, err := a.service(ctx, token)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Channels.List([]string{"snippet", "statistics", "brandingSettings"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, apiError("channels.list", err)
	}
	a.trackQuota(costList)

	if len(resp.Items) == 0 {
		return nil, ErrChannelNotFound
	}
	return channelDetails(resp.Items[0]), nil
}

// DeleteSubscription calls subscriptions.delete.
func (a *APISource) DeleteSubscription(ctx context.Context, token, subscriptionID string) error {
	svc, err := a.service(ctx, token)
	if err != nil {
		return err
	}
	if err := svc.Subscriptions.Delete(subscriptionID).Context(ctx).Do(); err != nil {
		return apiError("subscriptions.delete", err)
	}
	a.trackQuota(costDelete)
	return nil
}

// QuotaUsed returns the Data API units spent by this source.
func (a *APISource) QuotaUsed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quotaUsed
}

func (a *APISource) trackQuota(units int) {
	a.mu.Lock()
	a.quotaUsed += units
	used := a.quotaUsed
	a.mu.Unlock()
	a.log.Debug().Int("units", units).Int("used", used).Msg("quota usage")
}

// apiError converts provider status failures into *ythttp.HTTPError so
// callers can classify them the same way as plain HTTP calls.
func apiError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("youtube: %s: %w", op, &ythttp.HTTPError{StatusCode: gerr.Code, Body: []byte(gerr.Body)})
	}
	return fmt.Errorf("youtube: %s: %w", op, err)
}

func subscriptionItem(s *youtube.Subscription) catalog.Item {
	it := catalog.Item{ID: s.Id}
	if sn := s.Snippet; sn != nil {
		it.Snippet = catalog.Snippet{
			Title:       sn.Title,
			Description: sn.Description,
			PublishedAt: sn.PublishedAt,
			Thumbnails:  thumbnails(sn.Thumbnails),
		}
		if sn.ResourceId != nil {
			it.Snippet.ResourceID = catalog.ResourceID{Kind: sn.ResourceId.Kind, ChannelID: sn.ResourceId.ChannelId}
		}
	}
	return it
}

func channelDetails(c *youtube.Channel) *catalog.Details {
	d := &catalog.Details{ChannelID: c.Id}
	if sn := c.Snippet; sn != nil {
		d.Snippet = catalog.Snippet{
			Title:       sn.Title,
			Description: sn.Description,
			PublishedAt: sn.PublishedAt,
			Thumbnails:  thumbnails(sn.Thumbnails),
			ResourceID:  catalog.ResourceID{ChannelID: c.Id},
		}
	}
	if st := c.Statistics; st != nil {
		d.Statistics = &catalog.Statistics{
			SubscriberCount: strconv.FormatUint(st.SubscriberCount, 10),
			VideoCount:      strconv.FormatUint(st.VideoCount, 10),
			ViewCount:       strconv.FormatUint(st.ViewCount, 10),
		}
		if st.HiddenSubscriberCount {
			d.Statistics.SubscriberCount = ""
		}
	}
	if bs := c.BrandingSettings; bs != nil && bs.Image != nil && bs.Image.BannerExternalUrl != "" {
		d.BrandingSettings = &catalog.Branding{
			Image: &catalog.BrandingImage{BannerExternalURL: bs.Image.BannerExternalUrl},
		}
	}
	return d
}

func thumbnails(td *youtube.ThumbnailDetails) catalog.Thumbnails {
	var t catalog.Thumbnails
	if td == nil {
		return t
	}
	if td.Default != nil {
		t.Default = &catalog.Thumbnail{URL: td.Default.Url}
	}
	if td.Medium != nil {
		t.Medium = &catalog.Thumbnail{URL: td.Medium.Url}
	}
	if td.High != nil {
		t.High = &catalog.Thumbnail{URL: td.High.Url}
	}
	return t
}
