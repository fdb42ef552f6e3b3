// Package ytlists keeps a signed-in user's YouTube subscriptions in sync with
// a set of named, locally stored lists.
//
// # Overview
//
// The work is split across sub-packages:
//
//   - auth: the bearer credential taken from the OAuth implicit-grant
//     redirect, and the user's profile
//   - youtube: paginated subscription fetching with per-channel enrichment
//   - catalog: the in-memory subscription cache every reader observes
//   - lists: named lists of channels, persisted and reconciled across
//     processes
//   - storage: string records with change notification (in-process, file
//     watch or Redis pub/sub)
//   - server: a local JSON API over all of the above
//
// # Quick Start
//
// Build an instance from configuration and fetch the catalog:
//
//	cfg, err := config.Load("")
//	if err != nil {
//		log.Fatal(err)
//	}
//	a, err := app.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer a.Close()
//
//	if err := a.Fetcher.FetchAll(ctx); err != nil {
//		log.Fatal(err)
//	}
//	for _, it := range a.Catalog.Load().Items {
//		fmt.Println(it.Snippet.Title)
//	}
//
// Put a channel in a list:
//
//	item, _ := a.Catalog.Load().Find(subscriptionID)
//	added, err := a.Lists.ToggleChannel(ctx, "music", item)
//
// # Configuration
//
// Settings come from, in order of priority:
//
//  1. Environment variables prefixed with YTLISTS_
//  2. Config file (ytlists.json or ~/.config/ytlists/ytlists.json)
//  3. Default values
//
// Environment variables include:
//
//   - YTLISTS_CLIENT_ID: OAuth client id
//   - YTLISTS_REDIRECT_URI: Registered redirect URI
//   - YTLISTS_STORE_PATH: JSON file holding persisted records
//   - YTLISTS_REDIS_ADDR: Enables change notification over Redis
//   - YTLISTS_DATA_API_RPS: Data API request rate limit
//   - YTLISTS_MAX_PAGES: Upper bound on subscription pages
//
// # Error Handling
//
// Sentinel errors are re-exported here for errors.Is checks:
//
//	if errors.Is(err, ytlists.ErrCredentialRejected) {
//		// sign in again
//	}
//
// A failed subscription page is reported as a *FetchError:
//
//	var fe *ytlists.FetchError
//	if errors.As(err, &fe) {
//		fmt.Printf("page %d failed: %v\n", fe.Page, fe.Err)
//	}
package ytlists
