package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kevin07696/globalpay-sdk/gpapi"
	"github.com/kevin07696/globalpay-sdk/jsondoc"
)

// Token request constants fixed by the service contract.
const (
	tokenNonce           = "transactionsapi"
	tokenGrantType       = "client_credentials"
	tokenSecondsToExpire = "60000"
	tokenInterval        = "WEEK"
)

// accessTokenSource caches the bearer token for one configuration. The
// first caller to need a token acquires it; concurrent callers share the
// same in-flight acquisition instead of issuing their own.
type accessTokenSource struct {
	appID  string
	appKey string
	client *restClient
	logger *zap.Logger

	mu     sync.RWMutex
	token  string
	flight singleflight.Group
}

func newAccessTokenSource(cfg *Config, client *restClient) *accessTokenSource {
	return &accessTokenSource{
		appID:  cfg.AppID,
		appKey: cfg.AppKey,
		client: client,
		logger: cfg.logger(),
	}
}

// Token returns the cached token, acquiring one if none is held.
func (s *accessTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token != "" {
		tokenCacheHitsTotal.Inc()
		return token, nil
	}
	return s.acquire(ctx)
}

// Invalidate drops the cached token if it still matches stale. A token
// already replaced by a concurrent acquisition is left alone.
func (s *accessTokenSource) Invalidate(stale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == stale {
		s.token = ""
	}
}

func (s *accessTokenSource) acquire(ctx context.Context) (string, error) {
	v, err, _ := s.flight.Do("token", func() (any, error) {
		token, err := s.request(ctx)
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.token = token
		s.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *accessTokenSource) request(ctx context.Context) (string, error) {
	tokenRequestsTotal.Inc()

	body := jsondoc.New().
		Set("app_id", s.appID).
		Set("nonce", tokenNonce).
		Set("secret", secretDigest(tokenNonce, s.appKey)).
		Set("grant_type", tokenGrantType).
		Set("seconds_to_expire", tokenSecondsToExpire).
		Set("interval_to_expire", tokenInterval)

	raw, err := body.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode token request: %w", err)
	}

	resp, err := s.client.send(ctx, http.MethodPost, "/accesstoken", raw, nil, nil)
	if err != nil {
		return "", err
	}
	doc, err := handleResponse(resp)
	if err != nil {
		return "", err
	}

	token := doc.GetString("token")
	if token == "" {
		return "", gpapi.WrapGatewayError("token response missing token", nil)
	}
	s.logger.Debug("acquired access token")
	return token, nil
}

// secretDigest derives the request secret: the lowercase hex SHA-512 of
// the nonce concatenated with the app key.
func secretDigest(nonce, appKey string) string {
	sum := sha512.Sum512([]byte(nonce + appKey))
	return hex.EncodeToString(sum[:])
}
