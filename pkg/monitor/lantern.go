package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/breakerview/breakerview/pkg/common"
	"github.com/breakerview/breakerview/pkg/log"
	"github.com/breakerview/breakerview/pkg/types"
)

const (
	lanternAuthPath = "auth"

	// completed periods never change so they are kept around
	lanternPeriodCacheSize = 64
)

// ErrNoBreakerGroups is returned by DefaultGroup when the configuration has no
// breaker groups.
var ErrNoBreakerGroups = errors.New("config has no breaker groups")

// Lantern implements the Service interface for the Lantern current monitor API.
type Lantern struct {
	client    *http.Client
	baseURL   string
	username  string
	password  string
	location  *time.Location
	configTTL time.Duration
	now       func() time.Time

	mu           sync.Mutex
	authCode     string
	config       types.Config
	configExpiry time.Time
	periods      *lru.Cache
}

func newLantern() *Lantern {
	periods, err := lru.New(lanternPeriodCacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(fmt.Errorf("failed to create period cache: %w", err))
	}
	return &Lantern{
		client:    common.HTTPClient(time.Minute),
		baseURL:   "https://lanternsoftware.com/currentmonitor",
		location:  time.Local,
		configTTL: 5 * time.Minute,
		now:       time.Now,
		periods:   periods,
	}
}

// NewLantern returns a client for the service at baseURL. Requests are made
// with client and periods are computed in loc.
func NewLantern(client *http.Client, baseURL, username, password string, loc *time.Location) *Lantern {
	l := newLantern()
	l.client = client
	l.baseURL = baseURL
	l.username = username
	l.password = password
	if loc != nil {
		l.location = loc
	}
	return l
}

// Validate ensures the configuration is valid.
func (l *Lantern) Validate() error {
	if l.baseURL == "" {
		return errors.New("lantern-url is required")
	}
	if _, err := url.Parse(l.baseURL); err != nil {
		return fmt.Errorf("failed to parse lantern url (%s): %w", l.baseURL, err)
	}
	if l.username == "" {
		return errors.New("lantern-user is required")
	}
	if l.password == "" {
		return errors.New("lantern-password is required")
	}
	return nil
}

type authResult struct {
	AuthCode string `json:"auth_code"`
}

// Authenticate exchanges the username and password for an auth code that is
// sent with every following request.
func (l *Lantern) Authenticate(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.login(ctx)
}

// ensureLogin will not login again if we already have an auth code. Must be
// called with l.mu held.
func (l *Lantern) ensureLogin(ctx context.Context) error {
	if l.authCode != "" {
		return nil
	}
	if err := l.login(ctx); err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}
	return nil
}

func (l *Lantern) login(ctx context.Context) error {
	if l.username == "" {
		return errors.New("missing username")
	}
	if l.password == "" {
		return errors.New("missing password")
	}

	req, err := l.newGetRequest(ctx, lanternAuthPath)
	if err != nil {
		return err
	}
	req.SetBasicAuth(l.username, l.password)

	var res authResult
	if err := l.doRequest(req, &res); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "lantern login failed", slog.Any("error", err))
		return fmt.Errorf("login failed: %w", err)
	}
	if res.AuthCode == "" {
		return errors.New("login failed: empty auth code")
	}
	log.Ctx(ctx).DebugContext(ctx, "lantern login success", slog.String("username", l.username))

	l.authCode = res.AuthCode
	return nil
}

func (l *Lantern) newGetRequest(ctx context.Context, elem ...string) (*http.Request, error) {
	u, err := url.Parse(l.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path, err = url.JoinPath(u.Path, elem...)
	if err != nil {
		return nil, err
	}
	return http.NewRequestWithContext(ctx, "GET", u.String(), nil)
}

// doRequest sends req and decodes the JSON body into dest. Must be called with
// l.mu held.
func (l *Lantern) doRequest(req *http.Request, dest interface{}) error {
	ctx := req.Context()
	isLogin := strings.HasSuffix(req.URL.Path, "/"+lanternAuthPath)

	// we try up to 2 times because the auth code might have expired
	for i := 0; i < 2; i++ {
		if !isLogin {
			req.Header.Set("auth_code", l.authCode)
		}

		resp, err := l.client.Do(req)
		if err != nil {
			return err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized && !isLogin && l.authCode != "" && i == 0 {
			log.Ctx(ctx).DebugContext(ctx, "lantern auth code expired")
			l.authCode = ""
			if err := l.ensureLogin(ctx); err != nil {
				return err
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			log.Ctx(ctx).ErrorContext(
				ctx,
				"lantern api error",
				slog.Int("status", resp.StatusCode),
				slog.String("path", req.URL.Path),
			)
			return fmt.Errorf("status %d", resp.StatusCode)
		}

		if err := json.Unmarshal(body, dest); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to decode lantern response", slog.Any("error", err), slog.Int("length", len(body)))
			return fmt.Errorf("failed to decode lantern response: %w", err)
		}
		return nil
	}
	return errors.New("lantern request unauthorized")
}

// Config returns the account configuration. It is cached for configTTL.
func (l *Lantern) Config(ctx context.Context) (types.Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getConfigWithCache(ctx)
}

// getConfigWithCache must be called with l.mu held.
func (l *Lantern) getConfigWithCache(ctx context.Context) (types.Config, error) {
	if l.now().Before(l.configExpiry) {
		return l.config, nil
	}
	if err := l.ensureLogin(ctx); err != nil {
		return types.Config{}, err
	}

	req, err := l.newGetRequest(ctx, "config")
	if err != nil {
		return types.Config{}, err
	}
	var cfg types.Config
	if err := l.doRequest(req, &cfg); err != nil {
		return types.Config{}, fmt.Errorf("config failed: %w", err)
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"lantern config",
		slog.Int("panels", len(cfg.Panels)),
		slog.Int("breakerGroups", len(cfg.BreakerGroups)),
	)

	l.config = cfg
	l.configExpiry = l.now().Add(l.configTTL)
	return cfg, nil
}

// DefaultGroup returns the first breaker group of the configuration.
func (l *Lantern) DefaultGroup(ctx context.Context) (types.Group, error) {
	cfg, err := l.Config(ctx)
	if err != nil {
		return types.Group{}, err
	}
	if len(cfg.BreakerGroups) == 0 {
		return types.Group{}, ErrNoBreakerGroups
	}
	// TODO: let the caller pick a breaker group by name once accounts with several are seen
	return cfg.BreakerGroups[0], nil
}

// PeriodStart returns the start of the period of view containing t in the
// client's location.
func (l *Lantern) PeriodStart(view types.View, t time.Time) time.Time {
	return PeriodStart(view, t.In(l.location))
}

// Energy returns the energy tree of groupID for the period of view containing
// t. Periods that have already ended are served from a cache.
func (l *Lantern) Energy(ctx context.Context, groupID string, view types.View, t time.Time) (types.Group, error) {
	if groupID == "" {
		return types.Group{}, errors.New("groupID cannot be empty")
	}
	if err := validView(view); err != nil {
		return types.Group{}, err
	}
	start := l.PeriodStart(view, t)
	millis := strconv.FormatInt(start.UnixMilli(), 10)
	key := groupID + "/" + string(view) + "/" + millis

	log.Ctx(ctx).DebugContext(
		ctx,
		"getting lantern energy",
		slog.String("groupID", groupID),
		slog.String("view", string(view)),
		slog.Time("start", start),
	)

	if v, ok := l.periods.Get(key); ok {
		log.Ctx(ctx).DebugContext(ctx, "lantern energy served from cache", slog.String("key", key))
		return v.(types.Group), nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLogin(ctx); err != nil {
		return types.Group{}, err
	}

	req, err := l.newGetRequest(ctx, "energy", "group", groupID, string(view), millis)
	if err != nil {
		return types.Group{}, err
	}
	var g types.Group
	if err := l.doRequest(req, &g); err != nil {
		return types.Group{}, fmt.Errorf("energy failed: %w", err)
	}

	if !PeriodEnd(view, start).After(l.now()) {
		l.periods.Add(key, g)
	}
	return g, nil
}
