package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-splist/core"
	"golang.org/x/sync/singleflight"
)

// FallbackDigest is cached in place of a real digest when the contextinfo
// endpoint cannot be reached. Writes still proceed and the backend decides.
const FallbackDigest = "development-digest-fallback"

const (
	contextInfoPath  = "_api/contextinfo"
	digestFlightKey  = "digest"
	outcomeSuccess   = "success"
	outcomeFallback  = "fallback"
	outcomeSkipped   = "skipped"
	loggerName       = "splist.auth"
	digestSourceKey  = "digest_source"
	digestSourceLive = "contextinfo"
)

type CredentialStoreConfig struct {
	ListsBaseURL   string
	TokenURL       string
	DigestValidity time.Duration
	RequestTimeout time.Duration
	Transport      core.TransportAdapter
	Logger         core.Logger
	LoggerProvider core.LoggerProvider
	Metrics        core.MetricsRecorder
	Now            func() time.Time
}

// CredentialState is a point-in-time copy of the store.
type CredentialState struct {
	BaseHeaders    core.Headers
	DigestValue    string
	DigestIssuedAt time.Time
	DigestValidity time.Duration
}

// Fresh reports whether the digest may be handed out at now.
func (s CredentialState) Fresh(now time.Time) bool {
	return s.DigestValue != "" && now.Sub(s.DigestIssuedAt) <= s.DigestValidity
}

type CredentialStore struct {
	config  CredentialStoreConfig
	logger  core.Logger
	metrics core.MetricsRecorder
	flight  singleflight.Group

	mu             sync.Mutex
	baseHeaders    core.Headers
	digestValue    string
	digestIssuedAt time.Time
}

func NewCredentialStore(cfg CredentialStoreConfig) *CredentialStore {
	validity := cfg.DigestValidity
	if validity <= 0 {
		validity = core.DefaultDigestValidity
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	transport := cfg.Transport
	if transport == nil {
		transport = nopTransport{}
	}

	return &CredentialStore{
		config: CredentialStoreConfig{
			ListsBaseURL:   strings.TrimSpace(cfg.ListsBaseURL),
			TokenURL:       strings.TrimSpace(cfg.TokenURL),
			DigestValidity: validity,
			RequestTimeout: cfg.RequestTimeout,
			Transport:      transport,
			Now:            now,
		},
		logger:      core.ResolveLogger(loggerName, cfg.LoggerProvider, cfg.Logger),
		metrics:     core.EnsureMetrics(cfg.Metrics),
		baseHeaders: core.ODataHeaders(),
	}
}

// BaseHeaders returns a copy of the long-lived header set used by reads.
func (s *CredentialStore) BaseHeaders() core.Headers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseHeaders.Clone()
}

func (s *CredentialStore) State() CredentialState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *CredentialStore) stateLocked() CredentialState {
	return CredentialState{
		BaseHeaders:    s.baseHeaders.Clone(),
		DigestValue:    s.digestValue,
		DigestIssuedAt: s.digestIssuedAt,
		DigestValidity: s.config.DigestValidity,
	}
}

// Bootstrap fetches the development bearer token and adds it to the base
// headers. Failures are logged and leave the headers untouched.
func (s *CredentialStore) Bootstrap(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	tags := map[string]string{"outcome": outcomeSuccess}
	defer func() {
		core.RecordCounter(ctx, s.metrics, core.MetricTokenBootstrap, tags)
	}()

	if s.config.TokenURL == "" {
		tags["outcome"] = outcomeSkipped
		core.Log(ctx, s.logger, core.LevelWarn, "token bootstrap skipped: no token url configured", nil)
		return
	}

	token, err := s.fetchToken(ctx)
	if err != nil {
		tags["outcome"] = outcomeFallback
		core.Log(ctx, s.logger, core.LevelWarn, "token bootstrap failed, continuing without authorization", map[string]any{
			"url":   s.config.TokenURL,
			"error": err.Error(),
		})
		return
	}

	s.mu.Lock()
	s.baseHeaders.Set(core.HeaderAuthorization, "Bearer "+token)
	s.mu.Unlock()
	core.Log(ctx, s.logger, core.LevelDebug, "token bootstrap succeeded", nil)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (s *CredentialStore) fetchToken(ctx context.Context) (string, error) {
	res, err := s.config.Transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     s.config.TokenURL,
		Headers: s.BaseHeaders(),
		Timeout: s.config.RequestTimeout,
	})
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", errStatus(res.StatusCode)
	}
	var payload tokenResponse
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return "", err
	}
	token := strings.TrimSpace(payload.AccessToken)
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

// Digest returns a digest that is valid right now, refreshing it when the
// cached one is missing or expired. It never fails: when the refresh cannot
// complete, FallbackDigest is cached and returned.
func (s *CredentialStore) Digest(ctx context.Context) string {
	if ctx == nil {
		ctx = context.Background()
	}
	if value, ok := s.cachedDigest(); ok {
		core.RecordCounter(ctx, s.metrics, core.MetricDigestCacheHit, nil)
		return value
	}

	result, _, _ := s.flight.Do(digestFlightKey, func() (any, error) {
		if value, ok := s.cachedDigest(); ok {
			return value, nil
		}
		return s.refreshDigest(context.WithoutCancel(ctx)), nil
	})
	value, _ := result.(string)
	return value
}

func (s *CredentialStore) cachedDigest() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := CredentialState{
		DigestValue:    s.digestValue,
		DigestIssuedAt: s.digestIssuedAt,
		DigestValidity: s.config.DigestValidity,
	}
	if !state.Fresh(s.config.Now()) {
		return "", false
	}
	return s.digestValue, true
}

func (s *CredentialStore) refreshDigest(ctx context.Context) string {
	value, err := s.fetchDigest(ctx)
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFallback
		value = FallbackDigest
		core.Log(ctx, s.logger, core.LevelWarn, "digest refresh failed, using fallback digest", map[string]any{
			"url":   s.contextInfoURL(),
			"error": err.Error(),
		})
	}

	s.mu.Lock()
	s.digestValue = value
	s.digestIssuedAt = s.config.Now()
	s.mu.Unlock()

	core.RecordCounter(ctx, s.metrics, core.MetricDigestRefresh, map[string]string{"outcome": outcome})
	if err == nil {
		core.Log(ctx, s.logger, core.LevelDebug, "digest refreshed", map[string]any{digestSourceKey: digestSourceLive})
	}
	return value
}

type contextInfoResponse struct {
	D *struct {
		GetContextWebInformation *struct {
			FormDigestValue string `json:"FormDigestValue"`
		} `json:"GetContextWebInformation"`
	} `json:"d"`
}

func (s *CredentialStore) fetchDigest(ctx context.Context) (string, error) {
	if s.config.ListsBaseURL == "" {
		return "", errMissingBaseURL
	}
	res, err := s.config.Transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     s.contextInfoURL(),
		Headers: s.BaseHeaders(),
		Timeout: s.config.RequestTimeout,
	})
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", errStatus(res.StatusCode)
	}
	var payload contextInfoResponse
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return "", err
	}
	if payload.D == nil || payload.D.GetContextWebInformation == nil {
		return "", errUnexpectedShape
	}
	value := strings.TrimSpace(payload.D.GetContextWebInformation.FormDigestValue)
	if value == "" {
		return "", errEmptyDigest
	}
	return value, nil
}

func (s *CredentialStore) contextInfoURL() string {
	base := s.config.ListsBaseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + contextInfoPath
}
