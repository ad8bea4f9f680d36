package crawlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtraHeaderPairs(t *testing.T) {
	headers := http.Header{}
	headers.Set("Accept-Encoding", "gzip, deflate, br")
	headers.Set("User-Agent", "bot")

	assert.Equal(t, []string{"User-Agent", "bot"}, extraHeaderPairs(headers))
	assert.Empty(t, extraHeaderPairs(http.Header{}))
}

// 需要本机Chromium, 设置 NEWSHARVEST_BROWSER_TESTS=1 启用
func TestBrowserFetcher_Fetch(t *testing.T) {
	if os.Getenv("NEWSHARVEST_BROWSER_TESTS") == "" {
		t.Skip("跳过浏览器测试: 未设置 NEWSHARVEST_BROWSER_TESTS")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(listingHTML("/news/1/")))
	}))
	defer server.Close()

	fetcher, err := NewBrowserFetcher(FetcherOptions{Timeout: 20 * time.Second, VerifyTLS: true})
	require.NoError(t, err)
	defer fetcher.Close()

	outcome := fetcher.Fetch(context.Background(), server.URL)
	require.True(t, outcome.Usable(), "%v", outcome.Err())
	assert.Contains(t, outcome.Body, "news-teaser__link")

	missing := fetcher.Fetch(context.Background(), server.URL+"/missing")
	assert.Equal(t, models.OutcomeSuccess, missing.Kind)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	require.NoError(t, fetcher.Close())
	closed := fetcher.Fetch(context.Background(), server.URL)
	assert.Equal(t, models.OutcomeTransportFailure, closed.Kind)
}
