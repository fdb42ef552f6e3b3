// Package youtube retrieves the signed-in user's subscription catalog from
// the YouTube Data API and publishes it to the shared catalog cache.
package youtube

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"ytlists/catalog"
	"ytlists/internal/logging"
)

// CredentialSource supplies the current bearer credential.
type CredentialSource interface {
	Credential() (string, bool)
}

// Config tunes the fetcher.
type Config struct {
	// MaxPages bounds pagination. Zero means follow the cursor until the
	// provider stops returning one.
	MaxPages int
}

// Fetcher owns the live subscription catalog for the session.
//
// FetchAll calls are not mutually excluded. Two overlapping calls each
// publish their own result and the later publish wins, in both the
// fetcher's state and the cache.
type Fetcher struct {
	source Source
	creds  CredentialSource
	cache  *catalog.Cache
	cfg    Config
	log    zerolog.Logger

	publishMu sync.Mutex
	state     atomic.Pointer[catalog.Snapshot]
}

// NewFetcher creates a fetcher publishing to cache. Its own state starts
// Unavailable, like the cache's.
func NewFetcher(source Source, creds CredentialSource, cache *catalog.Cache, cfg Config) *Fetcher {
	f := &Fetcher{
		source: source,
		creds:  creds,
		cache:  cache,
		cfg:    cfg,
		log:    logging.For("youtube"),
	}
	f.state.Store(&catalog.Snapshot{})
	return f
}

// Snapshot returns the fetcher's current catalog.
func (f *Fetcher) Snapshot() catalog.Snapshot {
	return *f.state.Load()
}

// FetchAll walks every page of the user's subscriptions, enriches each item
// with its channel details and publishes the complete catalog.
//
// Without a credential it does nothing and returns nil. If any page request
// fails, nothing from this call is published: both the fetcher state and the
// cache become Unavailable and a *FetchError is returned.
func (f *Fetcher) FetchAll(ctx context.Context) error {
	token, ok := f.creds.Credential()
	if !ok {
		f.log.Debug().Msg("fetch skipped: no credential")
		return nil
	}

	start := time.Now()
	var items []catalog.Item
	pageToken := ""
	for page := 1; ; page++ {
		if f.cfg.MaxPages > 0 && page > f.cfg.MaxPages {
			return f.fail(&FetchError{Page: page, Err: ErrPageLimit})
		}

		p, err := f.source.ListSubscriptions(ctx, token, pageToken)
		if err != nil {
			return f.fail(&FetchError{Page: page, Err: err})
		}

		items = append(items, f.enrich(ctx, token, p.Items)...)

		if p.NextPageToken == "" {
			break
		}
		pageToken = p.NextPageToken
	}

	if items == nil {
		items = []catalog.Item{}
	}
	f.publish(&catalog.Snapshot{Items: items, Available: true, UpdatedAt: time.Now()})

	f.log.Info().
		Int("items", len(items)).
		Dur("elapsed", time.Since(start)).
		Msg("subscriptions fetched")
	return nil
}

// enrich fetches channel details for every item concurrently and returns the
// items in their original order once all lookups have settled. A failed
// lookup leaves that item without statistics or branding.
func (f *Fetcher) enrich(ctx context.Context, token string, page []catalog.Item) []catalog.Item {
	out := make([]catalog.Item, len(page))
	copy(out, page)

	var wg conc.WaitGroup
	for i := range out {
		channelID := out[i].ChannelID()
		if channelID == "" {
			continue
		}
		wg.Go(func() {
			d, err := f.source.ChannelDetails(ctx, token, channelID)
			if err != nil {
				f.log.Warn().Err(err).Str("channel", channelID).Msg("channel enrichment failed")
				return
			}
			out[i].Statistics = d.Statistics
			out[i].BrandingSettings = d.BrandingSettings
		})
	}
	// A panicking lookup is re-raised here, after every sibling has settled.
	wg.Wait()
	return out
}

// publish installs snap as the fetcher state and the cache snapshot together,
// so both always hold the result of the same call.
func (f *Fetcher) publish(snap *catalog.Snapshot) {
	f.publishMu.Lock()
	defer f.publishMu.Unlock()
	f.state.Store(snap)
	f.cache.Replace(*snap)
}

func (f *Fetcher) fail(err *FetchError) error {
	f.publish(&catalog.Snapshot{UpdatedAt: time.Now()})
	f.log.Error().Err(err.Err).Int("page", err.Page).Msg("subscription fetch failed")
	return err
}

// Unsubscribe deletes the subscription and then refetches the whole catalog
// whether or not the delete succeeded. Without a credential it does nothing.
func (f *Fetcher) Unsubscribe(ctx context.Context, subscriptionID string) error {
	token, ok := f.creds.Credential()
	if !ok {
		return nil
	}

	delErr := f.source.DeleteSubscription(ctx, token, subscriptionID)
	if delErr != nil {
		f.log.Warn().Err(delErr).Str("subscription", subscriptionID).Msg("unsubscribe failed")
	} else {
		f.log.Info().Str("subscription", subscriptionID).Msg("unsubscribed")
	}
	return errors.Join(delErr, f.FetchAll(ctx))
}

// ChannelDetails looks up one channel on demand.
func (f *Fetcher) ChannelDetails(ctx context.Context, channelID string) (*catalog.Details, error) {
	token, ok := f.creds.Credential()
	if !ok {
		return nil, ErrNoCredential
	}
	return f.source.ChannelDetails(ctx, token, channelID)
}
