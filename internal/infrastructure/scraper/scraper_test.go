package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

const productPage = `<!DOCTYPE html>
<html>
<head>
  <title>Steel Bottle | Acme Store</title>
  <meta name="description" content="Double wall insulated steel bottle.">
  <meta property="og:title" content="Acme Steel Bottle">
  <meta property="og:image" content="https://cdn.acme.com/og.jpg">
</head>
<body>
  <nav>
    <table><tr><td>Menu</td><td>Shop</td></tr></table>
  </nav>
  <header><img src="/static/logo.png"></header>
  <div class="product-details">
    <h1>  Acme Steel
        Bottle 1L </h1>
    <span class="price">₹ 499</span>
    <img src="/img/bottle-front.jpg">
    <img data-src="https://cdn.acme.com/bottle-side.jpg">
    <img src="/img/bottle-front.jpg">
    <img src="/icons/cart-icon.svg">
    <table>
      <tr><th>Material</th><td>304 Stainless Steel</td></tr>
      <tr><td>Capacity</td><td>1000 ml</td></tr>
      <tr><td>Only one cell</td></tr>
    </table>
    <ul class="specs">
      <li>Colour: Blue</li>
      <li>Note: ships: fast</li>
    </ul>
    <p>Keeps drinks hot for 12 hours and cold for 24 hours. Leak proof lid with a carry loop for travel and office use.</p>
  </div>
  <footer>Copyright Acme</footer>
  <script>var tracking = true;</script>
</body>
</html>`

// prefixNormalizer marks keys so tests can see normalization was applied
type prefixNormalizer struct{}

func (prefixNormalizer) NormalizeSpecifications(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out["canon:"+k] = v
	}
	return out
}

func noRetryDelay(t *testing.T) {
	t.Helper()
	orig := retryDelay
	retryDelay = func(time.Duration, int) time.Duration { return 0 }
	t.Cleanup(func() { retryDelay = orig })
}

func TestParse(t *testing.T) {
	s := New(Config{}, nil)

	rec, err := s.Parse([]byte(productPage), "https://acme.com/products/steel-bottle")
	require.NoError(t, err)

	assert.Equal(t, "Acme Steel Bottle 1L", rec.Title)
	assert.Equal(t, "Double wall insulated steel bottle.", rec.Description)
	assert.Equal(t, "₹ 499", rec.Price)
	assert.Equal(t, domain.SourceWebsite, rec.Source)
	assert.False(t, rec.IsLimitedData)

	assert.Equal(t, map[string]string{
		"Material": "304 Stainless Steel",
		"Capacity": "1000 ml",
		"Colour":   "Blue",
	}, rec.Specifications, "nav tables and ambiguous list items are ignored")

	assert.Equal(t, []string{
		"https://acme.com/img/bottle-front.jpg",
		"https://cdn.acme.com/bottle-side.jpg",
	}, rec.Images)

	assert.Equal(t, "Double wall insulated steel bottle.", rec.MetaTags["description"])
	assert.Equal(t, "https://cdn.acme.com/og.jpg", rec.MetaTags["og:image"])

	assert.Contains(t, rec.RawText, "Keeps drinks hot for 12 hours")
	assert.NotContains(t, rec.RawText, "Copyright")
	assert.NotContains(t, rec.RawText, "tracking")
}

func TestParse_Limits(t *testing.T) {
	s := New(Config{MaxImages: 1, MaxRawText: 20}, prefixNormalizer{})

	rec, err := s.Parse([]byte(productPage), "https://acme.com/steel-bottle")
	require.NoError(t, err)

	assert.Len(t, rec.Images, 1)
	assert.Len(t, []rune(rec.RawText), 20)
	assert.Equal(t, "304 Stainless Steel", rec.Specifications["canon:Material"])
}

func TestParse_MinimalPage(t *testing.T) {
	page := `<html><head><title>Travel Mug</title></head><body>
	<nav>Home Shop Contact</nav>
	<div><p>A compact travel mug for daily commutes with a spill resistant lid and a double wall body that keeps coffee warm all morning long.</p></div>
	</body></html>`

	s := New(Config{}, nil)
	rec, err := s.Parse([]byte(page), "https://shop.example/mug")
	require.NoError(t, err)

	assert.Equal(t, "Travel Mug", rec.Title)
	assert.Empty(t, rec.Price)
	assert.Empty(t, rec.Specifications)
	assert.Contains(t, rec.Description, "compact travel mug")
	assert.Contains(t, rec.RawText, "spill resistant lid")
	assert.NotContains(t, rec.RawText, "Contact")
}

func TestScrape_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	s := New(Config{}, prefixNormalizer{})
	res := s.Scrape(context.Background(), server.URL+"/steel-bottle")

	require.NotNil(t, res.Record)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.Reason)
	assert.Equal(t, "Acme Steel Bottle 1L", res.Record.Title)
	assert.Equal(t, "1000 ml", res.Record.Specifications["canon:Capacity"])
	assert.Equal(t, server.URL+"/img/bottle-front.jpg", res.Record.Images[0])
}

func TestScrape_BlockedRetriesWithEachUserAgent(t *testing.T) {
	noRetryDelay(t)

	var (
		mu     sync.Mutex
		agents []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.Header.Get("User-Agent"))
		mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s := New(Config{MaxRetries: 2, UserAgents: []string{"ua-1", "ua-2"}}, nil)
	res := s.Scrape(context.Background(), server.URL+"/products/insulated-steel-bottle.html")

	assert.Equal(t, []string{"ua-1", "ua-2", "ua-1"}, agents)
	assert.True(t, res.Degraded)
	assert.Equal(t, reasonBlocked, res.Reason)

	rec := res.Record
	require.NotNil(t, rec)
	assert.True(t, rec.IsLimitedData)
	assert.Equal(t, reasonBlocked, rec.ScrapingError)
	assert.Equal(t, "Insulated Steel Bottle", rec.Title)
	assert.Empty(t, rec.Price)
	assert.Empty(t, rec.Specifications)
	assert.NotNil(t, rec.Specifications)
	assert.Equal(t, domain.SourceWebsite, rec.Source)
}

func TestScrape_NotFoundIsNotRetried(t *testing.T) {
	noRetryDelay(t)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer server.Close()

	s := New(Config{MaxRetries: 2}, nil)
	res := s.Scrape(context.Background(), server.URL+"/gone")

	assert.Equal(t, 1, calls)
	assert.True(t, res.Degraded)
	assert.Contains(t, res.Reason, "Failed to access website")
	assert.Contains(t, res.Reason, "404")
}

func TestScrape_Timeout(t *testing.T) {
	noRetryDelay(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	s := New(Config{Timeout: 50 * time.Millisecond, MaxRetries: 1}, nil)
	res := s.Scrape(context.Background(), server.URL+"/slow")

	assert.True(t, res.Degraded)
	assert.Equal(t, reasonTimeout, res.Reason)
	require.NotNil(t, res.Record)
	assert.Equal(t, "Slow", res.Record.Title)
}

func TestScrape_RecoversAfterBlock(t *testing.T) {
	noRetryDelay(t)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	s := New(Config{MaxRetries: 2}, nil)
	res := s.Scrape(context.Background(), server.URL+"/steel-bottle")

	assert.Equal(t, 2, calls)
	assert.False(t, res.Degraded)
	assert.Equal(t, "Acme Steel Bottle 1L", res.Record.Title)
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://acme.com/steel-bottle", "Steel Bottle"},
		{"https://acme.com/shop/travel_mug-350ml.html", "Travel Mug 350ml"},
		{"https://acme.com/", "Unknown Product"},
		{"https://acme.com", "Unknown Product"},
		{"::not a url", "Unknown Product"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, titleFromURL(tt.url))
		})
	}
}

func TestFallbackRecord(t *testing.T) {
	rec := FallbackRecord("https://acme.com/steel-bottle", "blocked")

	assert.True(t, strings.HasSuffix(rec.Description, "blocked"))
	assert.Contains(t, rec.RawText, "https://acme.com/steel-bottle")
	assert.Empty(t, rec.Images)
	assert.NotNil(t, rec.Images)
	assert.Empty(t, rec.MetaTags)
}
