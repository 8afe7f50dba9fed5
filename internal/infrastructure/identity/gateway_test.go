package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheport "go-movement/internal/infrastructure/cache/port"
)

const testSecret = "test-session-secret"

func signToken(t *testing.T, secret string, userID, name string, expiresIn time.Duration) string {
	t.Helper()
	claims := &Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func handshake(token, cookie string) *http.Request {
	target := "/api/v1/live/ws"
	if token != "" {
		target += "?token=" + url.QueryEscape(token)
	}
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != "" {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	return r
}

type fakeNames struct {
	names map[string]string
	calls int
	err   error
}

func (f *fakeNames) GetDisplayName(_ context.Context, userID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.names[userID], nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache { return &memCache{data: make(map[string]string)} }

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Del(_ context.Context, keys ...string) (int64, error) { return 0, nil }
func (m *memCache) Ping(context.Context) error                           { return nil }

func TestGatewayAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token resolves identity", func(t *testing.T) {
		g := NewGateway(testSecret, nil, nil, zerolog.Nop())
		token := signToken(t, testSecret, "u1", "Ana", time.Hour)

		id := g.Authenticate(ctx, handshake(token, ""))
		assert.False(t, id.Anonymous())
		assert.Equal(t, "u1", id.UserID)
		assert.Equal(t, "Ana", id.Name)
	})

	t.Run("token from session cookie", func(t *testing.T) {
		g := NewGateway(testSecret, nil, nil, zerolog.Nop())
		token := signToken(t, testSecret, "u1", "Ana", time.Hour)

		id := g.Authenticate(ctx, handshake("", token))
		assert.Equal(t, "u1", id.UserID)
	})

	t.Run("explicit token field wins over cookie", func(t *testing.T) {
		g := NewGateway(testSecret, nil, nil, zerolog.Nop())
		queryToken := signToken(t, testSecret, "u1", "Ana", time.Hour)
		cookieToken := signToken(t, testSecret, "u2", "Bud", time.Hour)

		id := g.Authenticate(ctx, handshake(queryToken, cookieToken))
		assert.Equal(t, "u1", id.UserID)
	})

	t.Run("missing token yields anonymous, never a refusal", func(t *testing.T) {
		g := NewGateway(testSecret, nil, nil, zerolog.Nop())
		assert.True(t, g.Authenticate(ctx, handshake("", "")).Anonymous())
	})

	t.Run("expired token downgrades to anonymous", func(t *testing.T) {
		g := NewGateway(testSecret, nil, nil, zerolog.Nop())
		token := signToken(t, testSecret, "u1", "Ana", -time.Minute)
		assert.True(t, g.Authenticate(ctx, handshake(token, "")).Anonymous())
	})

	t.Run("malformed token downgrades to anonymous", func(t *testing.T) {
		g := NewGateway(testSecret, nil, nil, zerolog.Nop())
		assert.True(t, g.Authenticate(ctx, handshake("not-a-jwt", "")).Anonymous())
	})

	t.Run("signature mismatch downgrades to anonymous", func(t *testing.T) {
		g := NewGateway(testSecret, nil, nil, zerolog.Nop())
		token := signToken(t, "some-other-secret", "u1", "Ana", time.Hour)
		assert.True(t, g.Authenticate(ctx, handshake(token, "")).Anonymous())
	})
}

func TestGatewayNameEnrichment(t *testing.T) {
	ctx := context.Background()

	t.Run("display name comes from the resolver", func(t *testing.T) {
		names := &fakeNames{names: map[string]string{"u1": "Ana Fresh"}}
		g := NewGateway(testSecret, names, newMemCache(), zerolog.Nop())
		token := signToken(t, testSecret, "u1", "Ana Stale", time.Hour)

		id := g.Authenticate(ctx, handshake(token, ""))
		assert.Equal(t, "Ana Fresh", id.Name)
	})

	t.Run("repeat connects hit the cache", func(t *testing.T) {
		names := &fakeNames{names: map[string]string{"u1": "Ana"}}
		g := NewGateway(testSecret, names, newMemCache(), zerolog.Nop())
		token := signToken(t, testSecret, "u1", "Ana", time.Hour)

		g.Authenticate(ctx, handshake(token, ""))
		g.Authenticate(ctx, handshake(token, ""))
		assert.Equal(t, 1, names.calls)
	})

	t.Run("resolver failure keeps claims name", func(t *testing.T) {
		names := &fakeNames{err: errors.New("db down")}
		g := NewGateway(testSecret, names, newMemCache(), zerolog.Nop())
		token := signToken(t, testSecret, "u1", "Ana", time.Hour)

		id := g.Authenticate(ctx, handshake(token, ""))
		assert.Equal(t, "u1", id.UserID)
		assert.Equal(t, "Ana", id.Name)
	})
}
