package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchline/stitchline-erp/internal/auth"
	"github.com/stitchline/stitchline-erp/internal/masters"
	"github.com/stitchline/stitchline-erp/internal/orders"
	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
)

const testToken = "tok-123"

type fakeAPI struct {
	revoked     bool
	lastIdemKey string
	lastStyleID string
}

func (f *fakeAPI) router() http.Handler {
	r := chi.NewRouter()
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if f.revoked || r.Header.Get("Authorization") != "Bearer "+testToken {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token revoked")
				return
			}
			next(w, r)
		}
	}
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret-pass" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid username or password")
			return
		}
		f.revoked = false
		httpx.JSON(w, http.StatusOK, auth.LoginResponse{Token: testToken, User: auth.User{ID: 1, Username: req.Username}})
	})
	r.Get("/auth/me", authed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{"user": auth.User{ID: 1, Username: "ayu"}})
	}))
	r.Post("/auth/logout", authed(func(w http.ResponseWriter, r *http.Request) {
		f.revoked = true
		w.WriteHeader(http.StatusNoContent)
	}))
	r.Get("/it/masters/colours", authed(func(w http.ResponseWriter, r *http.Request) {
		f.lastStyleID = r.URL.Query().Get("styleId")
		httpx.JSON(w, http.StatusOK, []masters.Colour{{Code: "RED", Name: "Red", StyleID: 5}})
	}))
	r.Post("/it/orders", authed(func(w http.ResponseWriter, r *http.Request) {
		f.lastIdemKey = r.Header.Get(orders.IdempotencyHeader)
		var in orders.OrderInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.PO == "" {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "po is required")
			return
		}
		httpx.JSON(w, http.StatusCreated, orders.Order{ID: 9, PO: in.PO, OrderQuantity: 10})
	}))
	r.Delete("/it/orders/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	r.Get("/it/orders/{id}/sheet.pdf", authed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	r.Get("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	return r
}

func newTestSession(t *testing.T) (*Session, *Client, *fakeAPI, FileTokenStore) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.router())
	t.Cleanup(srv.Close)

	c := New(Config{BaseURL: srv.URL + "/", Timeout: time.Second})
	store := FileTokenStore{Path: filepath.Join(t.TempDir(), "stitchline", "token")}
	return NewSession(c, store), c, api, store
}

func TestSessionLoginRehydrateLogout(t *testing.T) {
	sess, c, _, store := newTestSession(t)
	ctx := context.Background()

	_, err := sess.Rehydrate(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	user, err := sess.Login(ctx, "ayu", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, "ayu", user.Username)
	assert.True(t, sess.Authenticated())

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, testToken, saved)

	again := NewSession(New(Config{BaseURL: c.baseURL, Timeout: time.Second}), store)
	user, err = again.Rehydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	require.NoError(t, again.Logout(ctx))
	assert.False(t, again.Authenticated())
	_, err = os.Stat(store.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestUnauthorizedAnswerEndsSession(t *testing.T) {
	sess, c, api, store := newTestSession(t)
	ctx := context.Background()

	_, err := sess.Login(ctx, "ayu", "secret-pass")
	require.NoError(t, err)

	api.revoked = true
	_, err = c.Colours(ctx, 5)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, sess.Authenticated())
	assert.Empty(t, c.Token())

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestLoginRejectedKeepsServerMessage(t *testing.T) {
	sess, _, _, _ := newTestSession(t)

	_, err := sess.Login(context.Background(), "ayu", "wrong")
	require.Error(t, err)
	assert.Equal(t, "invalid username or password", UserMessage(err, "login failed"))
}

func TestBackendMessageSurfacesVerbatim(t *testing.T) {
	sess, c, api, _ := newTestSession(t)
	ctx := context.Background()
	_, err := sess.Login(ctx, "ayu", "secret-pass")
	require.NoError(t, err)

	_, err = c.CreateOrder(ctx, orders.OrderInput{Buyer: "H&M", Brand: "Divided"}, "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "po is required", UserMessage(err, "could not save order"))
	assert.NotEmpty(t, api.lastIdemKey)

	order, err := c.CreateOrder(ctx, orders.OrderInput{Buyer: "H&M", Brand: "Divided", PO: "PO-1"}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, int64(9), order.ID)
	assert.Equal(t, "key-1", api.lastIdemKey)

	require.NoError(t, c.DeleteOrder(ctx, 9))

	pdf, err := c.OrderSheet(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
}

func TestColoursAreScopedByStyle(t *testing.T) {
	sess, c, api, _ := newTestSession(t)
	ctx := context.Background()
	_, err := sess.Login(ctx, "ayu", "secret-pass")
	require.NoError(t, err)

	colours, err := c.Colours(ctx, 5)
	require.NoError(t, err)
	require.Len(t, colours, 1)
	assert.Equal(t, "5", api.lastStyleID)
}

func TestAnswerWithoutDetailFallsBack(t *testing.T) {
	_, c, _, _ := newTestSession(t)

	err := c.doJSON(context.Background(), request{method: http.MethodGet, path: "/broken"}, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "could not load", UserMessage(err, "could not load"))
}

func TestTransportFailures(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer slow.Close()

	c := New(Config{BaseURL: slow.URL, Timeout: 20 * time.Millisecond})
	err := c.Logout(context.Background())
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "network error", UserMessage(err, "network error"))

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	_, err = New(Config{BaseURL: closed.URL, Timeout: time.Second}).Styles(context.Background())
	require.ErrorIs(t, err, ErrTransport)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil, "fallback"))
	assert.Equal(t, "buyer is required", UserMessage(errors.New("buyer is required"), "fallback"))
	assert.Equal(t, "fallback", UserMessage(&APIError{Status: 500}, "fallback"))
	assert.Equal(t, "fallback", UserMessage(context.DeadlineExceeded, "fallback"))
	assert.True(t, errors.Is(&APIError{Status: 401}, ErrUnauthorized))
	assert.False(t, errors.Is(&APIError{Status: 403}, ErrUnauthorized))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STITCHLINE_API", "http://api.test")
	t.Setenv("STITCHLINE_TOKEN_FILE", "")
	t.Setenv("STITCHLINE_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://api.test", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.NotEmpty(t, cfg.TokenFile)
}
