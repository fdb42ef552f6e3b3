// Package app wires the components into one running instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ytlists/auth"
	"ytlists/catalog"
	"ytlists/config"
	ythttp "ytlists/http"
	"ytlists/internal/logging"
	"ytlists/lists"
	"ytlists/storage"
	"ytlists/youtube"
)

// App holds every component of a running instance.
type App struct {
	Config  *config.Config
	HTTP    *ythttp.Client
	Records *storage.Records
	Session *auth.Session
	Agent   auth.UserAgent
	Catalog *catalog.Cache
	Source  youtube.Source
	Fetcher *youtube.Fetcher
	Lists   *lists.Store

	log     zerolog.Logger
	closers []func() error
}

// Option customizes New.
type Option func(*options)

type options struct {
	backend storage.Backend
	agent   auth.UserAgent
	source  youtube.Source
	out     io.Writer
}

// WithBackend replaces the file backend, e.g. with storage.NewMemoryBackend.
func WithBackend(b storage.Backend) Option { return func(o *options) { o.backend = b } }

// WithUserAgent replaces the terminal user agent.
func WithUserAgent(a auth.UserAgent) Option { return func(o *options) { o.agent = a } }

// WithSource replaces the Data API source.
func WithSource(s youtube.Source) Option { return func(o *options) { o.source = s } }

// WithOutput sets where the terminal user agent prints login URLs.
func WithOutput(w io.Writer) Option { return func(o *options) { o.out = w } }

// New builds an App from cfg and starts the auth session. The caller must
// Close it.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{out: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, log: logging.For("app")}

	httpCfg := ythttp.DefaultConfig()
	httpCfg.Timeout = cfg.HTTPTimeout
	httpCfg.RateLimiter.DataAPIRPS = cfg.DataAPIRPS
	httpCfg.RateLimiter.Burst = cfg.DataAPIBurst
	for _, r := range cfg.RateLimits {
		httpCfg.RateLimiter.CustomRates[r.Host] = r.RPS
	}
	a.HTTP = ythttp.New(httpCfg)
	a.closers = append(a.closers, a.HTTP.Close)

	notifier, err := a.notifier(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	backend := o.backend
	if backend == nil {
		fb := storage.NewFileBackend(cfg.StorePath)
		backend = fb
		if cfg.WatchStore {
			a.watch(fb, notifier)
		}
	}
	a.Records = storage.NewRecords(backend, notifier)

	a.Agent = o.agent
	if a.Agent == nil {
		a.Agent = auth.NewTerminalAgent(o.out)
	}
	a.Session = auth.NewSession(auth.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI,
		AuthURL:     cfg.AuthURL,
		UserInfoURL: cfg.UserInfoURL,
	}, a.Records, a.HTTP, a.Agent)
	a.Session.Start(ctx)

	a.Catalog = catalog.NewCache()
	a.Source = o.source
	if a.Source == nil {
		a.Source = youtube.NewAPISource(a.HTTP, cfg.APIEndpoint)
	}
	a.Fetcher = youtube.NewFetcher(a.Source, a.Session, a.Catalog, youtube.Config{MaxPages: cfg.MaxPages})

	a.Lists, err = lists.Open(ctx, a.Records)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open lists: %w", err)
	}
	a.closers = append(a.closers, func() error { a.Lists.Close(); return nil })

	return a, nil
}

// notifier picks Redis pub/sub when configured and the in-process bus
// otherwise.
func (a *App) notifier(ctx context.Context) (storage.Notifier, error) {
	if a.Config.RedisAddr == "" {
		return storage.NewLocalNotifier(), nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", a.Config.RedisAddr, err)
	}
	n := storage.NewRedisNotifier(rdb, a.Config.RedisChannel)
	if err := n.Start(ctx); err != nil {
		rdb.Close()
		return nil, err
	}
	a.closers = append(a.closers, rdb.Close, n.Close)
	a.log.Info().Str("addr", a.Config.RedisAddr).Str("channel", a.Config.RedisChannel).Msg("change notifications over redis")
	return n, nil
}

func (a *App) watch(fb *storage.FileBackend, notifier storage.Notifier) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := storage.Watch(ctx, fb, notifier); err != nil {
			a.log.Error().Err(err).Str("path", fb.Path()).Msg("store watcher stopped")
		}
	}()
	a.closers = append(a.closers, func() error {
		cancel()
		<-done
		return nil
	})
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
