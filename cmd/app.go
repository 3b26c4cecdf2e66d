package cmd

import (
	"context"
	"time"

	"github.com/iksnae/trompo-cli/internal"
	"github.com/iksnae/trompo-cli/internal/api"
	"github.com/iksnae/trompo-cli/internal/realtime"
)

// app bundles what a command needs: the persisted session, the REST client
// and the cache
type app struct {
	cfg    *internal.Config
	store  *internal.SessionStore
	client *api.Client
	cache  *internal.CacheManager
}

func newApp() (*app, error) {
	cfg := config
	if cfg == nil {
		var err error
		if cfg, err = resolveConfig(); err != nil {
			return nil, err
		}
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}
	store, err := internal.OpenSessionStore(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		store:  store,
		client: api.New(cfg.APIBaseURL, store, api.WithTimeout(cfg.HTTPTimeout)),
		cache:  internal.NewCacheManager(cfg.CacheDir()),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		internal.LogWarn("Failed to close session store: %v", err)
	}
}

// session loads the stored session and warns when its token has expired
func (a *app) session() (*internal.Session, error) {
	s, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	if s.Expired(time.Now()) {
		internal.LogWarn("Your session token has expired; run `trompo login` again if requests fail")
	}
	return s, nil
}

// requireLogin returns the session of any logged-in user
func (a *app) requireLogin() (*internal.Session, error) {
	s, err := a.session()
	if err != nil {
		return nil, err
	}
	if !s.IsAuthenticated() {
		return nil, &internal.AuthorizationError{}
	}
	return s, nil
}

// requireRole returns the session when its user type is one of roles
func (a *app) requireRole(roles ...string) (*internal.Session, error) {
	s, err := a.session()
	if err != nil {
		return nil, err
	}
	if err := internal.RequireRole(s, roles...); err != nil {
		return nil, err
	}
	return s, nil
}

// openChannel connects the realtime channel for s. The caller owns it and
// must Close it.
func (a *app) openChannel(ctx context.Context, s *internal.Session) (*realtime.Channel, error) {
	opts := realtime.DefaultOptions()
	opts.Token = s.Token
	opts.PingInterval = a.cfg.PingInterval
	ch := realtime.New(a.cfg.RealtimeURL, opts)
	if err := ch.Open(ctx); err != nil {
		return nil, err
	}
	return ch, nil
}
