package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchline/stitchline-erp/internal/auth"
	"github.com/stitchline/stitchline-erp/internal/client"
	"github.com/stitchline/stitchline-erp/internal/hr"
	"github.com/stitchline/stitchline-erp/internal/masters"
	"github.com/stitchline/stitchline-erp/internal/orders"
	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
	"github.com/stitchline/stitchline-erp/internal/shared"
	"github.com/stitchline/stitchline-erp/internal/sizematrix"
)

const testToken = "tok-cli"

type fakeServer struct {
	mu       sync.Mutex
	loggedIn bool
	created  []orders.OrderInput
	updated  map[int64]orders.OrderInput
	deleted  []int64
	styles   []masters.Style
	colours  []masters.ColourInput
	mappings map[[2]int64]bool
	removals int
}

func (f *fakeServer) router() http.Handler {
	r := chi.NewRouter()
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			ok := f.loggedIn && r.Header.Get("Authorization") == "Bearer "+testToken
			f.mu.Unlock()
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token revoked")
				return
			}
			next(w, r)
		}
	}
	locked := func(next http.HandlerFunc) http.HandlerFunc {
		return authed(func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			next(w, r)
		})
	}

	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret-pass" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid username or password")
			return
		}
		f.mu.Lock()
		f.loggedIn = true
		f.mu.Unlock()
		httpx.JSON(w, http.StatusOK, auth.LoginResponse{Token: testToken, User: auth.User{ID: 1, Username: req.Username, EmployeeID: 7}})
	})
	r.Get("/auth/me", authed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{"user": auth.User{ID: 1, Username: "ayu", EmployeeID: 7}})
	}))
	r.Post("/auth/logout", locked(func(w http.ResponseWriter, r *http.Request) {
		f.loggedIn = false
		w.WriteHeader(http.StatusNoContent)
	}))

	r.Get("/it/masters/styles", locked(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, f.styles)
	}))
	r.Post("/it/masters/styles", locked(func(w http.ResponseWriter, r *http.Request) {
		var in masters.StyleInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		s := masters.Style{ID: int64(100 + len(f.styles)), Name: in.Name, Brand: in.Brand}
		f.styles = append(f.styles, s)
		httpx.JSON(w, http.StatusCreated, s)
	}))
	r.Get("/it/masters/colours", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("styleId") == "5" {
			httpx.JSON(w, http.StatusOK, []masters.Colour{{Code: "RED", Name: "Red", StyleID: 5}})
			return
		}
		httpx.JSON(w, http.StatusOK, []masters.Colour{})
	}))
	r.Post("/it/masters/colours", locked(func(w http.ResponseWriter, r *http.Request) {
		var in masters.ColourInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.colours = append(f.colours, in)
		httpx.JSON(w, http.StatusCreated, masters.Colour{Code: in.Code, Name: in.Name, StyleID: in.StyleID})
	}))
	r.Get("/it/masters/agelists", authed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, []masters.AgeGroup{{ID: 1, Name: "Adult"}})
	}))
	r.Get("/it/masters/categories", authed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, []masters.Category{{ID: 1, Name: "Tops"}})
	}))
	r.Get("/it/masters/size-categories", authed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, []masters.SizeCategory{{ID: 1, Name: "Adult", Sizes: "S,M,L"}})
	}))

	r.Get("/it/orders", authed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, shared.Page[orders.Order]{
			Items:      []orders.Order{{ID: 3, PO: "PO-3", Buyer: "Zara", Brand: "Zara", OrderQuantity: 40}},
			Pagination: shared.NewPagination(1, 20, 1),
		})
	}))
	r.Post("/it/orders", locked(func(w http.ResponseWriter, r *http.Request) {
		var in orders.OrderInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.created = append(f.created, in)
		total := 0
		for _, q := range in.Quantities {
			total += q
		}
		httpx.JSON(w, http.StatusCreated, orders.Order{ID: int64(len(f.created)), PO: in.PO, OrderQuantity: total})
	}))
	r.Get("/it/orders/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "3" {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "order not found")
			return
		}
		httpx.JSON(w, http.StatusOK, storedOrder())
	}))
	r.Put("/it/orders/{id}", locked(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		var in orders.OrderInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.updated[id] = in
		total := 0
		for _, q := range in.Quantities {
			total += q
		}
		httpx.JSON(w, http.StatusOK, orders.Order{ID: id, PO: in.PO, OrderQuantity: total})
	}))
	r.Delete("/it/orders/{id}", locked(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		f.deleted = append(f.deleted, id)
		w.WriteHeader(http.StatusNoContent)
	}))

	r.Get("/hr/departments", authed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, []hr.Department{{ID: 1, Name: "Cutting"}})
	}))
	r.Get("/hr/departments/{id}/designations", locked(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		out := []hr.Designation{}
		for _, d := range []hr.Designation{{ID: 10, Name: "Cutter"}, {ID: 11, Name: "Operator"}} {
			if f.mappings[[2]int64{id, d.ID}] {
				out = append(out, d)
			}
		}
		httpx.JSON(w, http.StatusOK, out)
	}))
	r.Get("/hr/designations", authed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, []hr.Designation{{ID: 10, Name: "Cutter"}, {ID: 11, Name: "Operator"}})
	}))
	r.Get("/hr/mappings", locked(func(w http.ResponseWriter, r *http.Request) {
		out := []hr.Mapping{}
		for k, ok := range f.mappings {
			if ok {
				out = append(out, hr.Mapping{DepartmentID: k[0], DesignationID: k[1]})
			}
		}
		httpx.JSON(w, http.StatusOK, out)
	}))
	r.Post("/hr/mappings", locked(func(w http.ResponseWriter, r *http.Request) {
		var m hr.Mapping
		_ = json.NewDecoder(r.Body).Decode(&m)
		f.mappings[[2]int64{m.DepartmentID, m.DesignationID}] = true
		httpx.JSON(w, http.StatusCreated, m)
	}))
	r.Delete("/hr/mappings/{dept}/{desig}", locked(func(w http.ResponseWriter, r *http.Request) {
		dept, _ := strconv.ParseInt(chi.URLParam(r, "dept"), 10, 64)
		desig, _ := strconv.ParseInt(chi.URLParam(r, "desig"), 10, 64)
		f.mappings[[2]int64{dept, desig}] = false
		f.removals++
		w.WriteHeader(http.StatusNoContent)
	}))
	return r
}

func storedOrder() orders.Order {
	return orders.Order{
		ID: 3, Buyer: "Zara", Brand: "Zara", PO: "PO-3", StyleID: 5, ColourCode: "RED",
		AgeGroupID: 1, CategoryID: 1, SizeCategoryID: 1,
		Quantities: sizematrix.Quantities{"s": 30, "m": 10, "l": 0}, OrderQuantity: 40,
	}
}

// snapshot copies the recorded requests under the lock.
func (f *fakeServer) snapshot() fakeServer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeServer{
		loggedIn: f.loggedIn,
		created:  append([]orders.OrderInput(nil), f.created...),
		updated:  maps.Clone(f.updated),
		deleted:  append([]int64(nil), f.deleted...),
		colours:  append([]masters.ColourInput(nil), f.colours...),
		removals: f.removals,
	}
}

type harness struct {
	cli    *CLI
	server *fakeServer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	server := &fakeServer{
		styles:   []masters.Style{{ID: 5, Name: "Polo", Brand: "Uniqlo"}},
		mappings: map[[2]int64]bool{{1, 10}: true},
		updated:  map[int64]orders.OrderInput{},
	}
	srv := httptest.NewServer(server.router())
	t.Cleanup(srv.Close)

	api := client.New(client.Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
	session := client.NewSession(api, client.FileTokenStore{Path: filepath.Join(t.TempDir(), "token")})
	return &harness{cli: New(api, session, nil), server: server}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (h *harness) run(stdin string, args ...string) result {
	var stdout, stderr bytes.Buffer
	code := h.cli.Run(context.Background(), args, Options{
		Stdout: &stdout,
		Stderr: &stderr,
		Stdin:  strings.NewReader(stdin),
	})
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	res := h.run("", "login", "--username", "ayu", "--password", "secret-pass")
	require.Equal(t, ExitOK, res.code, res.stderr)
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "whoami")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "not logged in")

	res = h.run("secret-pass\n", "login", "--username", "ayu")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "logged in as ayu")

	res = h.run("", "whoami")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "ayu (user 1, employee 7)\n", res.stdout)

	res = h.run("", "logout")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.False(t, h.server.snapshot().loggedIn)

	res = h.run("", "whoami")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "not logged in")
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "login", "--username", "ayu", "--password", "nope")
	assert.Equal(t, ExitError, res.code)
	assert.Equal(t, "login: invalid username or password\n", res.stderr)

	res = h.run("", "login")
	assert.Equal(t, ExitUsage, res.code)
}

func TestExpiredSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.server.mu.Lock()
	h.server.loggedIn = false
	h.server.mu.Unlock()

	res := h.run("", "orders", "list")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "session expired")

	res = h.run("", "whoami")
	assert.Contains(t, res.stderr, "not logged in", "the expired token was discarded")
}

func TestOrdersList(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("", "orders", "list")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "PO-3")
	assert.Contains(t, res.stdout, "page 1 of 1, 1 orders")

	res = h.run("", "orders", "list", "--json")
	require.Equal(t, ExitOK, res.code, res.stderr)
	var page shared.Page[orders.Order]
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &page))
	assert.Len(t, page.Items, 1)
}

func TestOrdersCreate(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("", "orders", "create",
		"--buyer", "H&M", "--po", "PO-1", "--style", "5", "--colour", "RED",
		"--size-category", "1", "--age-group", "1", "--qty", "S=10, m=5, l=x")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "order PO-1 created")
	assert.Contains(t, res.stdout, "quantity 15")

	require.Len(t, h.server.snapshot().created, 1)
	in := h.server.snapshot().created[0]
	assert.Equal(t, "Uniqlo", in.Brand, "brand follows the style")
	assert.Equal(t, "RED", in.ColourCode)
	assert.Equal(t, int64(1), in.AgeGroupID)
	assert.Equal(t, map[string]int{"s": 10, "m": 5, "l": 0}, in.Quantities)
}

func TestOrdersCreateSendsStoredColourCode(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("", "orders", "create", "--buyer", "H&M", "--po", "PO-2", "--style", "5", "--colour", "red")
	require.Equal(t, ExitOK, res.code, res.stderr)

	created := h.server.snapshot().created
	require.Len(t, created, 1)
	assert.Equal(t, "RED", created[0].ColourCode)
}

func TestOrdersCreateRejectedLocally(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("", "orders", "create", "--buyer", "H&M", "--brand", "Divided")
	assert.Equal(t, ExitError, res.code)
	assert.Equal(t, "orders create: po is required\n", res.stderr)

	res = h.run("", "orders", "create", "--buyer", "H&M", "--brand", "Divided", "--po", "P", "--size-category", "1", "--qty", "xl=2")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, `size "xl" is not in the selected size category`)

	res = h.run("", "orders", "create", "--style", "5", "--colour", "BLUE")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "colour BLUE is not defined")

	res = h.run("", "orders", "create", "--qty", "s10")
	assert.Equal(t, ExitUsage, res.code)

	assert.Empty(t, h.server.snapshot().created)
}

func TestOrdersShow(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("", "orders", "show", "3")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "order 3  po PO-3  buyer Zara  brand Zara  colour RED")
	assert.Regexp(t, `s\s+30\s+75\.0%`, res.stdout)
	assert.Regexp(t, `m\s+10\s+25\.0%`, res.stdout)
	assert.Regexp(t, `TOTAL\s+40`, res.stdout)

	res = h.run("", "orders", "show", "9")
	assert.Equal(t, ExitError, res.code)
	assert.Equal(t, "orders show: order not found\n", res.stderr)

	res = h.run("", "orders", "show")
	assert.Equal(t, ExitUsage, res.code)
}

func TestOrdersEditKeepsUnsetFields(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("", "orders", "edit", "3", "--po", "PO-3B", "--qty", "m=20")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "order id 3, quantity 50")

	in, ok := h.server.snapshot().updated[3]
	require.True(t, ok)
	assert.Equal(t, "PO-3B", in.PO)
	assert.Equal(t, "Zara", in.Brand)
	assert.Equal(t, "RED", in.ColourCode)
	assert.Equal(t, int64(5), in.StyleID)
	assert.Equal(t, 30, in.Quantities["s"])
	assert.Equal(t, 20, in.Quantities["m"])
	assert.Empty(t, h.server.snapshot().created)
}

func TestOrdersDeleteConfirmation(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("no\n", "orders", "delete", "4")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "cancelled by user")
	assert.Empty(t, h.server.snapshot().deleted)

	res = h.run("YES\n", "orders", "delete", "4")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Delete order 4? Type YES to confirm:")
	assert.Equal(t, []int64{4}, h.server.snapshot().deleted)

	res = h.run("", "orders", "delete", "abc")
	assert.Equal(t, ExitUsage, res.code)
}

func TestMastersAdd(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("", "masters", "add", "colour", "--code", "BLK", "--name", "Black")
	assert.Equal(t, ExitError, res.code)
	assert.Equal(t, "masters add: select a style before adding a colour\n", res.stderr)
	assert.Empty(t, h.server.snapshot().colours)

	res = h.run("", "masters", "add", "style", "--name", "Hoodie", "--brand", "Gap")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "style 101 created\n", res.stdout)

	res = h.run("", "masters", "add", "colour", "--style", "5", "--code", "BLK", "--name", "Black")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "colour BLK added to style 5\n", res.stdout)
	require.Len(t, h.server.snapshot().colours, 1)
	assert.Equal(t, int64(5), h.server.snapshot().colours[0].StyleID)

	res = h.run("", "masters", "add", "sizes", "--sizes", "XL")
	assert.Equal(t, ExitUsage, res.code)

	res = h.run("", "masters", "add", "fabric")
	assert.Equal(t, ExitUsage, res.code)
}

func TestMappingsToggle(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("no\n", "mappings", "toggle", "--dept", "1", "--desig", "10")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "cancelled by user")
	assert.Zero(t, h.server.snapshot().removals)

	res = h.run("YES\n", "mappings", "toggle", "--dept", "1", "--desig", "10")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "designation 10 is no longer allowed in department 1")
	assert.Equal(t, 1, h.server.snapshot().removals)

	res = h.run("", "mappings", "toggle", "--dept", "1", "--desig", "10")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "designation 10 is allowed in department 1")

	res = h.run("", "mappings", "list")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "1 Cutting: Cutter\n", res.stdout)

	res = h.run("", "mappings", "toggle", "--dept", "1")
	assert.Equal(t, ExitUsage, res.code)
}

func TestMappingsListForDepartment(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("", "mappings", "list", "--dept", "1")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "10 Cutter\n", res.stdout)

	res = h.run("", "mappings", "list")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "1 Cutting: Cutter\n", res.stdout)
}

func TestJobsWithoutRedis(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "jobs", "trigger", "masters:warm")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "client not configured")

	res = h.run("", "jobs", "stats")
	assert.Equal(t, ExitError, res.code)
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "orders", "archive")
	assert.Equal(t, ExitUsage, res.code)
	assert.Contains(t, res.stderr, `unknown command "orders archive"`)

	res = h.run("")
	assert.Equal(t, ExitUsage, res.code)
}

func TestParseQuantities(t *testing.T) {
	pairs, err := parseQuantities(" s=10, M = 5 ,,l=")
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"s", "10"}, {"M ", " 5"}, {"l", ""}}, pairs)

	_, err = parseQuantities("=4")
	assert.Error(t, err)
}
