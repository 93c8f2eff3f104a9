package authclient

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/session_service/internal/httpserver"
	"github.com/Skotchmaster/session_service/internal/middleware"
	"github.com/Skotchmaster/session_service/internal/models"
	"github.com/Skotchmaster/session_service/internal/mykafka"
	"github.com/Skotchmaster/session_service/internal/repo"
	"github.com/Skotchmaster/session_service/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	svc := &service.TokenService{
		Repo:          &repo.GormRepo{DB: db},
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc, Producer: &mykafka.Producer{}},
		Guard:       middleware.NewRouteGuard(svc),
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestClient_RegisterLoginLogout(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	user, err := c.Register(ctx, "Ann", "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, 0, user.TokenVersion)
	require.NotNil(t, c.User())

	require.NoError(t, c.Logout(ctx))
	assert.Nil(t, c.User())

	_, err = c.Login(ctx, "a@x.com", "wrong")
	require.Error(t, err)
	assert.Nil(t, c.User())

	user, err = c.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
}

func TestClient_StartMaterializesExistingSession(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Register(ctx, "Ann", "a@x.com", "pw")
	require.NoError(t, err)

	// A fresh controller over the same jar: the mount sequence should
	// find the cookies and materialize the user without logging in again.
	c2 := &Client{
		baseURL:       c.baseURL,
		httpClient:    c.httpClient,
		refreshMargin: time.Minute,
	}
	require.NoError(t, c2.Start(ctx))
	user := c2.User()
	require.NotNil(t, user)
	assert.Equal(t, "a@x.com", user.Email)
	c2.Close()
}

func TestClient_StartUnauthenticated(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)

	require.NoError(t, c.Start(context.Background()))
	assert.Nil(t, c.User())
}

func TestClient_RefreshInFlightShortCircuits(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Register(ctx, "Ann", "a@x.com", "pw")
	require.NoError(t, err)

	c.mu.Lock()
	c.refreshing = true
	c.mu.Unlock()

	assert.False(t, c.Refresh(ctx))

	c.mu.Lock()
	c.refreshing = false
	c.mu.Unlock()

	assert.True(t, c.Refresh(ctx))
}

func TestClient_RefreshAfterLogoutFails(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Register(ctx, "Ann", "a@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, c.Logout(ctx))

	// Cookies are gone and the version counter moved on.
	assert.False(t, c.Refresh(ctx))
	assert.Nil(t, c.User())
}

func TestClient_RefreshTimerLifecycle(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Register(ctx, "Ann", "a@x.com", "pw")
	require.NoError(t, err)

	c.mu.Lock()
	armed := c.refreshTimer != nil
	c.mu.Unlock()
	assert.True(t, armed, "timer should be armed while a user is known")

	require.NoError(t, c.Logout(ctx))

	c.mu.Lock()
	armed = c.refreshTimer != nil
	c.mu.Unlock()
	assert.False(t, armed, "timer must be cancelled once unauthenticated")
}

func TestClient_ProactiveRefreshFires(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	c.refreshMargin = 0
	ctx := context.Background()

	_, err := c.Register(ctx, "Ann", "a@x.com", "pw")
	require.NoError(t, err)

	// Re-arm against an expiry moments away so the timer fires now.
	c.scheduleRefresh(time.Now().Add(50 * time.Millisecond).Format(time.RFC3339Nano))
	c.mu.Lock()
	before := c.refreshTimer
	c.mu.Unlock()
	require.NotNil(t, before)

	// A successful proactive refresh keeps the user and re-arms a fresh
	// timer against the rotated token's expiry.
	assert.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.user != nil && c.refreshTimer != nil && c.refreshTimer != before
	}, 2*time.Second, 50*time.Millisecond)
}
