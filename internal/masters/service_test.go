package masters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchline/stitchline-erp/internal/platform/cache"
	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
)

type mockRepo struct {
	mu         sync.Mutex
	styles     []Style
	colours    map[int64][]Colour
	ageGroups  []AgeGroup
	categories []Category
	sizeCats   map[int64]SizeCategory
	calls      map[string]int
	nextID     int64

	replaceFails bool
	listErr      error
}

func newMockRepo() *mockRepo {
	return &mockRepo{colours: map[int64][]Colour{}, sizeCats: map[int64]SizeCategory{}, calls: map[string]int{}, nextID: 1}
}

func (m *mockRepo) hit(name string) {
	m.calls[name]++
}

func (m *mockRepo) ListStyles(context.Context) ([]Style, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("styles")
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]Style{}, m.styles...), nil
}

func (m *mockRepo) CreateStyle(_ context.Context, s Style) (Style, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.nextID
	m.nextID++
	m.styles = append(m.styles, s)
	return s, nil
}

func (m *mockRepo) ListColours(_ context.Context, styleID int64) ([]Colour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit(fmt.Sprintf("colours:%d", styleID))
	return append([]Colour{}, m.colours[styleID]...), nil
}

func (m *mockRepo) CreateColour(_ context.Context, c Colour) (Colour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.colours[c.StyleID] {
		if existing.Code == c.Code {
			return Colour{}, fmt.Errorf("%w: colour already exists", httpx.ErrDuplicate)
		}
	}
	m.colours[c.StyleID] = append(m.colours[c.StyleID], c)
	return c, nil
}

func (m *mockRepo) ListAgeGroups(context.Context) ([]AgeGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("agelists")
	return append([]AgeGroup{}, m.ageGroups...), nil
}

func (m *mockRepo) CreateAgeGroup(_ context.Context, name string) (AgeGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := AgeGroup{ID: m.nextID, Name: name}
	m.nextID++
	m.ageGroups = append(m.ageGroups, a)
	return a, nil
}

func (m *mockRepo) ListCategories(context.Context) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("categories")
	return append([]Category{}, m.categories...), nil
}

func (m *mockRepo) CreateCategory(_ context.Context, name string) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := Category{ID: m.nextID, Name: name}
	m.nextID++
	m.categories = append(m.categories, c)
	return c, nil
}

func (m *mockRepo) ListSizeCategories(context.Context) ([]SizeCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hit("size-categories")
	out := []SizeCategory{}
	for id := int64(1); id < m.nextID; id++ {
		if sc, ok := m.sizeCats[id]; ok {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (m *mockRepo) GetSizeCategory(_ context.Context, id int64) (SizeCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.sizeCats[id]
	if !ok {
		return SizeCategory{}, fmt.Errorf("size category %d: %w", id, httpx.ErrNotFound)
	}
	return sc, nil
}

func (m *mockRepo) CreateSizeCategory(_ context.Context, sc SizeCategory) (SizeCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc.ID = m.nextID
	m.nextID++
	m.sizeCats[sc.ID] = sc
	return sc, nil
}

func (m *mockRepo) ReplaceSizes(_ context.Context, id int64, previous, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc := m.sizeCats[id]
	if m.replaceFails || sc.Sizes != previous {
		return false, nil
	}
	sc.Sizes = next
	m.sizeCats[id] = sc
	return true, nil
}

type countingWarmer struct {
	mu    sync.Mutex
	count int
	err   error
}

func (w *countingWarmer) EnqueueMastersWarm(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.count++
	return w.err
}

func newCachedService(t *testing.T) (*Service, *mockRepo, *countingWarmer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMockRepo()
	warmer := &countingWarmer{}
	return NewService(repo, cache.NewJSONCache(client, "masters", time.Minute), warmer, nil), repo, warmer
}

func TestListStylesServedFromCache(t *testing.T) {
	svc, repo, warmer := newCachedService(t)
	ctx := context.Background()
	_, err := svc.CreateStyle(ctx, StyleInput{Name: "Polo", Brand: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 1, warmer.count)

	first, err := svc.ListStyles(ctx)
	require.NoError(t, err)
	second, err := svc.ListStyles(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls["styles"])

	_, err = svc.CreateStyle(ctx, StyleInput{Name: "Tee"})
	require.NoError(t, err)
	styles, err := svc.ListStyles(ctx)
	require.NoError(t, err)
	assert.Len(t, styles, 2)
	assert.Equal(t, 2, repo.calls["styles"])
}

func TestColoursAreCachedPerStyle(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()
	_, err := svc.CreateColour(ctx, ColourInput{StyleID: 1, Code: "RED", Name: "Red"})
	require.NoError(t, err)
	_, err = svc.CreateColour(ctx, ColourInput{StyleID: 2, Code: "BLU", Name: "Blue"})
	require.NoError(t, err)

	one, err := svc.ListColours(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "RED", one[0].Code)

	_, err = svc.ListColours(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls["colours:1"])

	_, err = svc.CreateColour(ctx, ColourInput{StyleID: 2, Code: "GRN", Name: "Green"})
	require.NoError(t, err)
	_, err = svc.ListColours(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls["colours:1"], "creating a colour for style 2 must not evict style 1")

	_, err = svc.ListColours(ctx, 0)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAppendSizes(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()
	sc, err := svc.CreateSizeCategory(ctx, SizeCategoryInput{Name: "Adult", Sizes: " S, M ,L"})
	require.NoError(t, err)
	assert.Equal(t, "S,M,L", sc.Sizes)

	updated, err := svc.AppendSizes(ctx, sc.ID, AppendSizesInput{Sizes: "m, XL,xl"})
	require.NoError(t, err)
	assert.Equal(t, "S,M,L,XL", updated.Sizes)

	same, err := svc.AppendSizes(ctx, sc.ID, AppendSizesInput{Sizes: "s"})
	require.NoError(t, err)
	assert.Equal(t, "S,M,L,XL", same.Sizes)

	repo.replaceFails = true
	_, err = svc.AppendSizes(ctx, sc.ID, AppendSizesInput{Sizes: "XXL"})
	assert.ErrorIs(t, err, httpx.ErrConflict)

	_, err = svc.AppendSizes(ctx, 99, AppendSizesInput{Sizes: "XXL"})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateSizeCategoryRequiresLabels(t *testing.T) {
	svc, _, _ := newCachedService(t)
	_, err := svc.CreateSizeCategory(context.Background(), SizeCategoryInput{Name: "Empty", Sizes: " , ,"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestWarmRefillsEveryList(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()
	_, _ = svc.CreateStyle(ctx, StyleInput{Name: "Polo"})
	_, _ = svc.CreateStyle(ctx, StyleInput{Name: "Tee"})

	warmed, err := svc.Warm(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, warmed)
	assert.Equal(t, 1, repo.calls["colours:1"])
	assert.Equal(t, 1, repo.calls["colours:2"])

	_, err = svc.ListSizeCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls["size-categories"])
}

func TestWarmPropagatesRepositoryError(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	repo.listErr = errors.New("db down")
	_, err := svc.Warm(context.Background())
	assert.Error(t, err)
}

func TestServiceWithoutCache(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()
	_, err := svc.CreateCategory(ctx, CategoryInput{Name: "Knit"})
	require.NoError(t, err)
	_, _ = svc.ListCategories(ctx)
	items, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 2, repo.calls["categories"])
}

func TestHandlerRoutes(t *testing.T) {
	svc, _, _ := newCachedService(t)
	r := chi.NewRouter()
	r.Route("/it/masters", NewHandler(nil, svc).MountRoutes)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/it/masters/styles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(http.MethodPost, "/it/masters/styles", `{"styleName":"Polo","brand":"Acme"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"styleId":1,"styleName":"Polo","brand":"Acme"}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/it/masters/colours", `{"colourCode":"RED","colourName":"Red"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/it/masters/colours", "").Code)

	rec = do(http.MethodPost, "/it/masters/colours", `{"styleId":1,"colourCode":"RED","colourName":"Red"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusConflict, do(http.MethodPost, "/it/masters/colours", `{"styleId":1,"colourCode":"RED","colourName":"Red"}`).Code)

	rec = do(http.MethodGet, "/it/masters/colours?styleId=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"colourCode":"RED","colourName":"Red","styleId":1}]`, rec.Body.String())

	rec = do(http.MethodPost, "/it/masters/size-categories", `{"sizeCategoryName":"Kids","sizes":"2T,3T"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(http.MethodPut, "/it/masters/size-categories/2/sizes", `{"sizes":"4T"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"sizes":"2T,3T,4T"`)

	rec = do(http.MethodPost, "/it/masters/agelists", `{"ageGroupName":"Toddler"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = do(http.MethodPost, "/it/masters/categories", `{"categoryName":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
