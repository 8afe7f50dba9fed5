package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-movement/internal/infrastructure/identity"
	"go-movement/internal/infrastructure/realtime"
	live "go-movement/internal/pkg/live/application/domain"
	"go-movement/internal/pkg/live/presentation/controller"
)

const clientTestSecret = "client-test-secret"

type stubRepo struct {
	comments []live.Comment
}

func (s *stubRepo) MovementExists(context.Context, string) (bool, error) { return true, nil }
func (s *stubRepo) ListTasks(context.Context, string) ([]live.Task, error) {
	return nil, nil
}
func (s *stubRepo) ListSupports(context.Context, string) ([]live.Support, error) {
	return nil, nil
}
func (s *stubRepo) ListDonations(context.Context, string) ([]live.Donation, error) {
	return nil, nil
}
func (s *stubRepo) ListComments(context.Context, string) ([]live.Comment, error) {
	return s.comments, nil
}

type liveStack struct {
	srv         *httptest.Server
	wsURL       string
	broadcaster *realtime.Broadcaster
}

func newLiveStack(t *testing.T, repo *stubRepo) *liveStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := realtime.NewRoomRegistry(zerolog.Nop())
	broadcaster := realtime.NewBroadcaster(registry, nil, "test-node", zerolog.Nop())
	gateway := identity.NewGateway(clientTestSecret, nil, nil, zerolog.Nop())

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/movements/:movementId/activities", controller.NewGetActivitiesController(repo).Handle())
	v1.GET("/live/ws", controller.NewLiveSocketController(gateway, registry).Handle())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &liveStack{
		srv:         srv,
		wsURL:       "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/live/ws",
		broadcaster: broadcaster,
	}
}

func clientToken(t *testing.T, userID, name string) string {
	t.Helper()
	claims := &identity.Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(clientTestSecret))
	require.NoError(t, err)
	return token
}

func dialManager(t *testing.T, stack *liveStack, token string) *Manager {
	t.Helper()
	m, err := Dial(context.Background(), stack.wsURL, stack.srv.URL, token, 50, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestManagerJoinSeedsFeed(t *testing.T) {
	repo := &stubRepo{comments: []live.Comment{
		{ID: "c1", CreatedAt: time.Now().Add(-time.Minute), Content: "kickoff"},
	}}
	stack := newLiveStack(t, repo)

	m := dialManager(t, stack, clientToken(t, "u1", "Ana"))
	assert.Equal(t, "u1", m.Identity().UserID)

	require.NoError(t, m.Join(context.Background(), "42"))

	feed := m.Feed("42")
	require.Len(t, feed, 1)
	assert.Equal(t, "comment:c1", feed[0].ID)
	assert.Equal(t, "kickoff", feed[0].Preview)
}

func TestManagerPresence(t *testing.T) {
	stack := newLiveStack(t, &stubRepo{})

	m1 := dialManager(t, stack, clientToken(t, "u1", "Ana"))
	require.NoError(t, m1.Join(context.Background(), "42"))

	require.Eventually(t, func() bool {
		_, count := m1.Presence("42")
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	m2 := dialManager(t, stack, clientToken(t, "u2", "Bud"))
	require.NoError(t, m2.Join(context.Background(), "42"))

	require.Eventually(t, func() bool {
		_, count := m1.Presence("42")
		return count == 2
	}, 2*time.Second, 10*time.Millisecond)

	// Self sorts first on both sides regardless of join order.
	viewers, _ := m1.Presence("42")
	assert.Equal(t, "u1", viewers[0].UserID)

	require.Eventually(t, func() bool {
		viewers, count := m2.Presence("42")
		return count == 2 && len(viewers) == 2 && viewers[0].UserID == "u2"
	}, 2*time.Second, 10*time.Millisecond)

	// An explicit leave shrinks the other side's view.
	require.NoError(t, m2.Leave("42"))
	require.Eventually(t, func() bool {
		_, count := m1.Presence("42")
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Local state drops synchronously with the leave.
	viewers, count := m2.Presence("42")
	assert.Nil(t, viewers)
	assert.Zero(t, count)
}

func TestManagerLiveActivity(t *testing.T) {
	stack := newLiveStack(t, &stubRepo{})

	m := dialManager(t, stack, clientToken(t, "u1", "Ana"))
	require.NoError(t, m.Join(context.Background(), "42"))

	event := live.Activity{
		ID:         "comment:c9",
		MovementID: "42",
		Type:       live.ActivityComment,
		Timestamp:  time.Now(),
		Preview:    "fresh",
	}
	stack.broadcaster.PublishActivity(event, false)

	require.Eventually(t, func() bool {
		return len(m.Feed("42")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Duplicate delivery does not grow the feed.
	stack.broadcaster.PublishActivity(event, false)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, m.Feed("42"), 1)
}

func TestManagerMovementUpdated(t *testing.T) {
	stack := newLiveStack(t, &stubRepo{})

	m := dialManager(t, stack, clientToken(t, "u1", "Ana"))
	updates := make(chan string, 1)
	m.SetOnMovementUpdated(func(movementID string) { updates <- movementID })

	stack.broadcaster.PublishMovementUpdated("99")

	select {
	case id := <-updates:
		assert.Equal(t, "99", id)
	case <-time.After(2 * time.Second):
		t.Fatal("no movement:updated signal received")
	}
}

func TestManagerAnonymousDial(t *testing.T) {
	stack := newLiveStack(t, &stubRepo{})
	m := dialManager(t, stack, "")
	assert.True(t, m.Identity().Anonymous())
	require.NoError(t, m.Join(context.Background(), "42"))
}
