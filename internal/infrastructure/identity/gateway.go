// Package identity resolves who is behind an inbound live connection.
package identity

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	cacheport "go-movement/internal/infrastructure/cache/port"
	live "go-movement/internal/pkg/live/application/domain"
)

// SessionCookie is the cookie carrying the session token when the client
// does not pass one explicitly.
const SessionCookie = "movement_session"

const nameCacheTTL = 10 * time.Minute

// Claims is the session token payload issued by the auth collaborator.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// NameResolver looks up a user's current display name. Implemented by the
// persistence layer; failures are tolerated, not surfaced.
type NameResolver interface {
	GetDisplayName(ctx context.Context, userID string) (string, error)
}

// Gateway authenticates inbound connections. A bad or missing credential is
// never grounds for refusal: the connection is accepted anonymously so
// unauthenticated visitors can still watch a movement page.
type Gateway struct {
	secret []byte
	names  NameResolver
	cache  cacheport.Cache
	log    zerolog.Logger
}

// NewGateway constructs a gateway verifying tokens against the shared
// session secret. names and cache may be nil; the gateway then falls back to
// the display name embedded in the token claims.
func NewGateway(secret string, names NameResolver, cache cacheport.Cache, log zerolog.Logger) *Gateway {
	return &Gateway{secret: []byte(secret), names: names, cache: cache, log: log}
}

// Authenticate resolves the identity for a handshake request. The explicit
// token query field wins over the session cookie. Any verification failure
// (missing, malformed, expired, signature mismatch) downgrades to the
// anonymous identity.
func (g *Gateway) Authenticate(ctx context.Context, r *http.Request) live.Identity {
	token := extractToken(r)
	if token == "" {
		return live.Identity{}
	}

	claims, err := g.verify(token)
	if err != nil {
		g.log.Debug().Err(err).Msg("handshake token rejected, accepting anonymously")
		return live.Identity{}
	}

	id := live.Identity{UserID: claims.UserID, Name: claims.Name}
	if name := g.resolveName(ctx, claims.UserID); name != "" {
		id.Name = name
	}
	return id
}

func (g *Gateway) verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return g.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, errors.New("token carries no subject")
	}
	return claims, nil
}

// resolveName enriches the claims name with the user's current display name,
// cached to keep the handshake path off the database on repeat connects.
func (g *Gateway) resolveName(ctx context.Context, userID string) string {
	if g.names == nil {
		return ""
	}
	key := "user:name:" + userID
	if g.cache != nil {
		if name, err := g.cache.Get(ctx, key); err == nil {
			return name
		} else if !errors.Is(err, cacheport.ErrMiss) {
			g.log.Debug().Err(err).Msg("name cache read failed")
		}
	}
	name, err := g.names.GetDisplayName(ctx, userID)
	if err != nil {
		g.log.Debug().Err(err).Str("user", userID).Msg("display name lookup failed")
		return ""
	}
	if g.cache != nil {
		if err := g.cache.Set(ctx, key, name, nameCacheTTL); err != nil {
			g.log.Debug().Err(err).Msg("name cache write failed")
		}
	}
	return name
}

// extractToken pulls the session token from the explicit query field first,
// falling back to the session cookie.
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
