package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iiroan/herodex/internal/metrics"
)

const (
	testPublic  = "pub"
	testPrivate = "priv"
)

var fixedNow = time.UnixMilli(1700000000000)

type fakeAPI struct {
	hits    atomic.Int32
	queries chan string
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeAPI) router(t *testing.T) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v1/public/characters", func(w http.ResponseWriter, req *http.Request) {
		f.hits.Add(1)
		q := req.URL.Query()
		ts := q.Get("ts")
		if q.Get("apikey") != testPublic || q.Get("hash") != Signature(ts, testPrivate, testPublic) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"InvalidCredentials","message":"That hash, timestamp and key combination is invalid."}`))
			return
		}
		if f.queries != nil {
			f.queries <- q.Get("nameStartsWith")
		}
		if f.entered != nil {
			select {
			case f.entered <- struct{}{}:
			default:
			}
		}
		if f.gate != nil {
			<-f.gate
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		writeJSON(t, w, map[string]any{
			"code":   200,
			"status": "Ok",
			"data": map[string]any{
				"offset": 0, "limit": limit, "total": 1, "count": 1,
				"results": []map[string]any{{
					"id":   1009610,
					"name": "Spider-Man",
					"thumbnail": map[string]string{
						"path":      "http://i.annihil.us/u/prod/marvel/i/mg/3/50/526548a343e4b",
						"extension": "jpg",
					},
					"comics": map[string]any{"available": 2, "items": []map[string]string{{"name": "Amazing Spider-Man"}}},
				}},
			},
		})
	}).Methods(http.MethodGet)
	r.HandleFunc("/v1/public/characters/{id:[0-9]+}", func(w http.ResponseWriter, req *http.Request) {
		f.hits.Add(1)
		if mux.Vars(req)["id"] != "1009368" {
			writeJSON(t, w, map[string]any{"code": 200, "data": map[string]any{"results": []any{}}})
			return
		}
		writeJSON(t, w, map[string]any{
			"code": 200,
			"data": map[string]any{"results": []map[string]any{{"id": 1009368, "name": "Iron Man"}}},
		})
	}).Methods(http.MethodGet)
	return r
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func newTestClient(t *testing.T, api *fakeAPI, m *metrics.Metrics) *Client {
	t.Helper()
	srv := httptest.NewServer(api.router(t))
	t.Cleanup(srv.Close)

	c := New(Options{
		BaseURL:    srv.URL + "/",
		PublicKey:  testPublic,
		PrivateKey: testPrivate,
		Limit:      25,
		HTTPClient: srv.Client(),
		Metrics:    m,
	})
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestSignature(t *testing.T) {
	// md5("1" + "abcd" + "1234")
	assert.Equal(t, "ffd275c5130566a2916217b101f26150", Signature("1", "abcd", "1234"))
}

func TestSearch(t *testing.T) {
	api := &fakeAPI{queries: make(chan string, 2)}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := newTestClient(t, api, m)

	page, err := c.Search(context.Background(), "  spi ")
	require.NoError(t, err)
	assert.Equal(t, "spi", <-api.queries)
	require.Len(t, page.Results, 1)

	spidey := page.Results[0]
	assert.Equal(t, 1009610, spidey.ID)
	assert.Equal(t, "https://i.annihil.us/u/prod/marvel/i/mg/3/50/526548a343e4b/standard_xlarge.jpg", spidey.ImageURL())
	assert.Equal(t, 2, spidey.Comics.Available)
	assert.Equal(t, 25, page.Limit)

	_, err = c.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "", <-api.queries)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CatalogRequests.WithLabelValues(metrics.ResultOK)))
}

func TestSearchAPIError(t *testing.T) {
	api := &fakeAPI{}
	m := metrics.New(nil)
	c := newTestClient(t, api, m)
	c.privateKey = "wrong"

	_, err := c.Search(context.Background(), "thor")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "InvalidCredentials", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "invalid")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogRequests.WithLabelValues(metrics.ResultError)))
}

func TestSearchRequiresCredentials(t *testing.T) {
	c := New(Options{PublicKey: testPublic})
	_, err := c.Search(context.Background(), "hulk")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestSearchCoalescesConcurrentCalls(t *testing.T) {
	api := &fakeAPI{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := newTestClient(t, api, nil)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*Page, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Search(context.Background(), "iron")
		}(i)
	}

	<-api.entered
	time.Sleep(100 * time.Millisecond)
	close(api.gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Len(t, results[i].Results, 1)
	}
	assert.Equal(t, int32(1), api.hits.Load())

	// each caller owns its slice
	results[0].Results[0].Name = "changed"
	assert.Equal(t, "Spider-Man", results[1].Results[0].Name)
}

func TestSearchSharedRequestSurvivesCancelledCaller(t *testing.T) {
	api := &fakeAPI{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := newTestClient(t, api, nil)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Search(ctx, "spider")
		firstErr <- err
	}()
	<-api.entered

	type result struct {
		page *Page
		err  error
	}
	second := make(chan result, 1)
	go func() {
		page, err := c.Search(context.Background(), "spider")
		second <- result{page, err}
	}()
	time.Sleep(100 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(api.gate)
	got := <-second
	require.NoError(t, got.err)
	require.Len(t, got.page.Results, 1)
	assert.Equal(t, int32(1), api.hits.Load())
}

func TestCharacter(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api, nil)

	ch, err := c.Character(context.Background(), 1009368)
	require.NoError(t, err)
	assert.Equal(t, "Iron Man", ch.Name)
	assert.Equal(t, "", ch.ImageURL())

	_, err = c.Character(context.Background(), 42)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
