package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNewsService(t *testing.T, handler http.HandlerFunc) *NewsService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ns := &NewsService{apiKey: "test-key", baseURL: server.URL, httpClient: server.Client()}
	return ns
}

func TestGetTopHeadlines_NormalizesArticles(t *testing.T) {
	ns := newTestNewsService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "business", r.URL.Query().Get("category"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		fmt.Fprint(w, `{"status": "ok", "articles": [
			{"title": "Markets rally", "description": "Stocks up.", "url": "https://example.com/1",
			 "urlToImage": "https://example.com/1.jpg", "publishedAt": "2026-08-28T12:00:00Z",
			 "source": {"name": "Example Wire"}},
			{"title": "", "description": "", "url": "", "urlToImage": "", "publishedAt": "", "source": {"name": ""}}
		]}`)
	})

	articles := ns.GetTopHeadlines()
	require.Len(t, articles, 2)

	assert.Equal(t, "Markets rally", articles[0].Title)
	assert.Equal(t, "Example Wire", articles[0].Source)

	// Missing fields get safe defaults
	assert.Equal(t, "No title", articles[1].Title)
	assert.Equal(t, "No description", articles[1].Description)
	assert.Equal(t, "#", articles[1].URL)
	assert.Equal(t, NewsImageFallback, articles[1].Image)
	assert.Equal(t, "Unknown", articles[1].Source)
	assert.NotEmpty(t, articles[1].PublishedAt)
}

func TestGetTopHeadlines_CapsArticleCount(t *testing.T) {
	ns := newTestNewsService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "ok", "articles": [`)
		for i := 0; i < MaxNewsArticles+5; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"title": "Headline %d", "url": "https://example.com/%d", "source": {"name": "Wire"}}`, i, i)
		}
		fmt.Fprint(w, `]}`)
	})

	articles := ns.GetTopHeadlines()
	assert.Len(t, articles, MaxNewsArticles)
}

func TestGetTopHeadlines_UpstreamFailureYieldsCannedArticle(t *testing.T) {
	ns := newTestNewsService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	articles := ns.GetTopHeadlines()
	require.Len(t, articles, 1)

	assert.Equal(t, "News Error", articles[0].Title)
	assert.Equal(t, "News service is currently unavailable. Try later.", articles[0].Description)
	assert.Equal(t, "#", articles[0].URL)
	assert.Equal(t, "System", articles[0].Source)
}
