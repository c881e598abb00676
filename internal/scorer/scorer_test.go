package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/model"
	"github.com/Veraticus/docmatch/internal/pairing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(name, value string) model.Field {
	return model.Field{Name: name, Value: value}
}

func item(fields ...model.Field) model.Item {
	return model.Item{Fields: fields}
}

func invoice(ref string, items ...model.Item) model.Document {
	doc := model.Document{ID: "inv-1", Kind: model.KindInvoice, Site: "acme", Items: items}
	if ref != "" {
		doc.Headers = []model.Field{f("orderReference", ref)}
	}
	return doc
}

func purchaseOrder(number string, items ...model.Item) model.Document {
	doc := model.Document{ID: "po-1", Kind: model.KindPurchaseOrder, Site: "acme", Items: items}
	if number != "" {
		doc.Headers = []model.Field{f("orderNumber", number)}
	}
	return doc
}

func TestFallback_Score(t *testing.T) {
	widget := item(f("description", "Widget Type A"), f("inventoryNumber", "W-100"), f("unitAmount", "10.00"))
	cable := item(f("description", "Power cable 2m"), f("inventoryNumber", "C-200"), f("unitAmount", "4.00"))
	bolt := item(f("description", "Hex bolt M8"), f("inventoryNumber", "B-8"), f("unitAmount", "0.20"))

	tests := []struct {
		name string
		a    model.Document
		b    model.Document
		want float64
	}{
		{
			name: "same order reference",
			a:    invoice("PO-4500"),
			b:    purchaseOrder("po4500"),
			want: ReferenceMatchCertainty,
		},
		{
			name: "conflicting order reference",
			a:    invoice("4500", widget),
			b:    purchaseOrder("4501", widget),
			want: ReferenceConflictCertainty,
		},
		{
			name: "no items and no references",
			a:    invoice(""),
			b:    purchaseOrder(""),
			want: MinCertainty,
		},
		{
			name: "all items paired",
			a:    invoice("", widget, cable),
			b:    purchaseOrder("", widget, cable),
			want: OverlapCeiling,
		},
		{
			name: "half the items paired",
			a:    invoice("", widget),
			b:    purchaseOrder("", widget, cable),
			want: OverlapCeiling * 0.5,
		},
		{
			name: "nothing paired falls to the floor",
			a:    invoice("", bolt),
			b:    purchaseOrder("", widget),
			want: MinCertainty,
		},
	}

	fb := NewFallback(pairing.DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fb.Score(context.Background(), tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBreaker_Transitions(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, SuccessThreshold: 2, ResetTimeout: time.Minute})
	b.now = func() time.Time { return now }

	fail := func() error { return errors.New("boom") }
	ok := func() error { return nil }

	require.Error(t, b.Do(fail))
	assert.Equal(t, StateClosed, b.State())
	require.Error(t, b.Do(fail))
	assert.Equal(t, StateOpen, b.State())

	calls := 0
	err := b.Do(func() error { calls++; return nil })
	require.ErrorIs(t, err, common.ErrCircuitOpen)
	assert.Zero(t, calls)

	now = now.Add(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Do(ok))
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, b.Do(ok))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	b.now = func() time.Time { return now }

	require.Error(t, b.Do(func() error { return errors.New("boom") }))
	now = now.Add(time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	require.Error(t, b.Do(func() error { return errors.New("again") }))
	assert.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2})

	require.Error(t, b.Do(func() error { return errors.New("boom") }))
	require.NoError(t, b.Do(func() error { return nil }))
	require.Error(t, b.Do(func() error { return errors.New("boom") }))

	assert.Equal(t, StateClosed, b.State())
}

func TestCache(t *testing.T) {
	c := newScoreCache(time.Hour)
	defer c.Close()

	a, b := invoice("1"), purchaseOrder("1")
	key := cacheKey(a, b)

	_, ok := c.get(key)
	assert.False(t, ok)

	c.set(key, 0.42)
	got, ok := c.get(key)
	require.True(t, ok)
	assert.InDelta(t, 0.42, got, 1e-9)
	assert.Equal(t, 1, c.size())

	edited := purchaseOrder("2")
	assert.NotEqual(t, key, cacheKey(a, edited))
	assert.NotEqual(t, key, cacheKey(b, a))

	c.Close()
	c.Close()
}

func TestCache_Expiry(t *testing.T) {
	c := newScoreCache(time.Millisecond)
	defer c.Close()

	c.set("k", 1)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.get("k")
	assert.False(t, ok)
}

func newTestClient(t *testing.T, url string, modify func(*ClientConfig)) *Client {
	t.Helper()
	cfg := ClientConfig{
		Endpoint:          url,
		Timeout:           time.Second,
		MaxAttempts:       3,
		RetryDelay:        time.Millisecond,
		MaxRetryDelay:     5 * time.Millisecond,
		RequestsPerSecond: 1000,
		Burst:             100,
	}
	if modify != nil {
		modify(&cfg)
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_Score(t *testing.T) {
	var received scoreRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"certainty": 0.83}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	got, err := c.Score(context.Background(), invoice("1"), purchaseOrder("1"))

	require.NoError(t, err)
	assert.InDelta(t, 0.83, got, 1e-9)
	assert.Equal(t, "inv-1", received.Documents[0].ID)
	assert.Equal(t, "po-1", received.Documents[1].ID)
}

func TestClient_CachesScores(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"certainty": 0.5}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	a, b := invoice("1"), purchaseOrder("1")
	for range 3 {
		_, err := c.Score(context.Background(), a, b)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  func(hit int32, w http.ResponseWriter)
		wantHits int32
		wantErr  error
		want     float64
	}{
		{
			name: "server error is retried",
			handler: func(hit int32, w http.ResponseWriter) {
				if hit < 3 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				_, _ = w.Write([]byte(`{"certainty": 0.7}`))
			},
			wantHits: 3,
			want:     0.7,
		},
		{
			name: "rate limit is retried",
			handler: func(hit int32, w http.ResponseWriter) {
				if hit == 1 {
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				_, _ = w.Write([]byte(`{"certainty": 0.2}`))
			},
			wantHits: 2,
			want:     0.2,
		},
		{
			name: "client error is not retried",
			handler: func(_ int32, w http.ResponseWriter) {
				w.WriteHeader(http.StatusBadRequest)
			},
			wantHits: 1,
			wantErr:  common.ErrScorerUnavailable,
		},
		{
			name: "retries exhausted",
			handler: func(_ int32, w http.ResponseWriter) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantHits: 3,
			wantErr:  common.ErrMaxRetries,
		},
		{
			name: "certainty out of range",
			handler: func(_ int32, w http.ResponseWriter) {
				_, _ = w.Write([]byte(`{"certainty": 1.5}`))
			},
			wantHits: 1,
			wantErr:  common.ErrScorerUnavailable,
		},
		{
			name: "missing certainty",
			handler: func(_ int32, w http.ResponseWriter) {
				_, _ = w.Write([]byte(`{}`))
			},
			wantHits: 1,
			wantErr:  common.ErrScorerUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				tt.handler(hits.Add(1), w)
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, func(cfg *ClientConfig) {
				cfg.Breaker = BreakerConfig{FailureThreshold: 10}
			})
			got, err := c.Score(context.Background(), invoice("1"), purchaseOrder("1"))

			assert.Equal(t, tt.wantHits, hits.Load())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestClient_CircuitOpens(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *ClientConfig) {
		cfg.MaxAttempts = 1
		cfg.Breaker = BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour}
	})

	for range 2 {
		_, err := c.Score(context.Background(), invoice("1"), purchaseOrder("1"))
		require.Error(t, err)
	}
	assert.Equal(t, StateOpen, c.BreakerState())

	_, err := c.Score(context.Background(), invoice("1"), purchaseOrder("1"))
	require.ErrorIs(t, err, common.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"certainty": 0.5}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Score(ctx, invoice("1"), purchaseOrder("1"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestRouter(t *testing.T) {
	remote := Func(func(context.Context, model.Document, model.Document) (float64, error) {
		return 0.99, nil
	})
	fallback := Func(func(context.Context, model.Document, model.Document) (float64, error) {
		return 0.15, nil
	})

	tests := []struct {
		name   string
		remote Scorer
		opts   RouterOptions
		site   string
		want   float64
	}{
		{name: "whitelisted site", remote: remote, opts: RouterOptions{Sites: []string{"acme"}}, site: "acme", want: 0.99},
		{name: "other site", remote: remote, opts: RouterOptions{Sites: []string{"acme"}}, site: "globex", want: 0.15},
		{name: "empty whitelist", remote: remote, site: "acme", want: 0.15},
		{name: "models disabled", remote: remote, opts: RouterOptions{Sites: []string{"acme"}, Disabled: true}, site: "acme", want: 0.15},
		{name: "no remote", opts: RouterOptions{Sites: []string{"acme"}}, site: "acme", want: 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(tt.remote, fallback, tt.opts)
			a := model.Document{ID: "a", Kind: model.KindInvoice, Site: tt.site}
			b := model.Document{ID: "b", Kind: model.KindPurchaseOrder}

			got, err := r.Score(context.Background(), a, b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRouter_SiteFromSecondDocument(t *testing.T) {
	remote := Func(func(context.Context, model.Document, model.Document) (float64, error) {
		return 0.99, nil
	})
	r := NewRouter(remote, NewFallback(pairing.DefaultOptions()), RouterOptions{Sites: []string{"acme"}})

	got, err := r.Score(context.Background(),
		model.Document{ID: "a", Kind: model.KindInvoice},
		model.Document{ID: "b", Kind: model.KindPurchaseOrder, Site: "acme"})
	require.NoError(t, err)
	assert.InDelta(t, 0.99, got, 1e-9)
}

func TestRouter_PropagatesRemoteErrors(t *testing.T) {
	boom := errors.New("model down")
	remote := Func(func(context.Context, model.Document, model.Document) (float64, error) {
		return 0, boom
	})
	r := NewRouter(remote, NewFallback(pairing.DefaultOptions()), RouterOptions{Sites: []string{"acme"}})

	_, err := r.Score(context.Background(), invoice("1"), purchaseOrder("1"))
	require.ErrorIs(t, err, boom)
}
