package core

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/newsharvest/internal/config"
	"github.com/RecoveryAshes/newsharvest/internal/crawlers"
	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullArticle = `<html><body>
<h1 class="article__title">Открытие навигации</h1>
<span class="article__date">01.06.2024 09:30</span>
<a class="article__tag">Байкал</a>
<div class="article__content clearfix"><p class="article__text">Текст статьи.</p></div>
</body></html>`

const incompleteArticle = `<html><body><h1 class="article__title">Без даты</h1></body></html>`

// newsServer 模拟新闻站点: 列表页3个链接, 一篇完整, 一篇不完整, 一篇500
func newsServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/news/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/news/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>
<a class="news-teaser__link" href="/news/1/">1</a>
<a class="news-teaser__link" href="/news/2/">2</a>
<a class="news-teaser__link" href="/news/1/">1 again</a>
<a class="news-teaser__link" href="/news/3/">3</a>
</body></html>`)
	})
	mux.HandleFunc("/news/1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, fullArticle)
	})
	mux.HandleFunc("/news/2/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, incompleteArticle)
	})
	mux.HandleFunc("/news/3/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	server := httptest.NewTLSServer(mux)
	t.Cleanup(server.Close)
	return server
}

func pipelineConfigs(t *testing.T, server *httptest.Server, target int) (*Config, *config.Configuration) {
	t.Helper()
	host := strings.TrimPrefix(server.URL, "https://")
	dir := t.TempDir()

	app := &Config{
		Site: SiteConfig{
			Host:         host,
			BaseURL:      server.URL,
			LinkSelector: crawlers.DefaultLinkSelector,
		},
		Crawl:  CrawlConfig{MaxPoliteness: 0},
		Output: OutputConfig{BaseDir: filepath.Join(dir, "articles"), ReportsDir: filepath.Join(dir, "reports")},
	}

	raw := map[string]interface{}{
		"seed_urls":                 []interface{}{server.URL + "/news/"},
		"total_articles":            target,
		"headers":                   map[string]interface{}{"Referer": server.URL},
		"encoding":                  "utf-8",
		"timeout":                   5,
		"should_verify_certificate": false,
		"headless_mode":             false,
	}
	scraper, err := config.NewValidator(host).Validate(raw)
	require.NoError(t, err)

	return app, scraper
}

func TestPipeline_Run(t *testing.T) {
	server := newsServer(t)
	app, scraper := pipelineConfigs(t, server, 3)

	// 残留文件应被清理
	require.NoError(t, os.MkdirAll(app.Output.BaseDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(app.Output.BaseDir, "stale_raw.txt"), []byte("x"), 0644))

	hm, err := NewHeaderManager(scraper.Headers(), []string{"User-Agent: pipeline-test"})
	require.NoError(t, err)

	pipeline, err := NewPipeline(PipelineOptions{App: app, Scraper: scraper, Headers: hm})
	require.NoError(t, err)
	defer pipeline.Close()

	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		server.URL + "/news/1/",
		server.URL + "/news/2/",
		server.URL + "/news/3/",
	}, report.URLs)
	assert.Equal(t, 3, report.Discovery.Discovered)
	assert.Equal(t, 1, report.Discovery.Duplicates)
	assert.False(t, report.Discovery.Exhausted)

	assert.Equal(t, 1, report.Parse.Parsed)
	assert.Equal(t, 1, report.Parse.Incomplete)
	assert.Equal(t, 1, report.Parse.Failed)
	assert.Len(t, report.FailedURLs, 2)
	assert.NotEmpty(t, report.RunID)

	raw, err := os.ReadFile(filepath.Join(app.Output.BaseDir, "1_raw.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Текст статьи.", string(raw))

	meta, err := os.ReadFile(filepath.Join(app.Output.BaseDir, "1_meta.json"))
	require.NoError(t, err)
	assert.Contains(t, string(meta), `"date": "2024-06-01 09:30:00"`)
	assert.Contains(t, string(meta), models.AuthorNotFound)

	entries, err := os.ReadDir(app.Output.BaseDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "只保存完整的文章, 旧文件被清理")

	_, err = os.Stat(filepath.Join(app.Output.ReportsDir, "crawl_report.json"))
	assert.NoError(t, err)
}

func TestPipeline_ExhaustionContinuesWithPartialSet(t *testing.T) {
	server := newsServer(t)
	app, scraper := pipelineConfigs(t, server, 10)

	pipeline, err := NewPipeline(PipelineOptions{App: app, Scraper: scraper})
	require.NoError(t, err)
	defer pipeline.Close()

	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Discovery.Exhausted)
	assert.Len(t, report.URLs, 3)
	assert.Equal(t, 1, report.Parse.Parsed)
}

func TestPipeline_Discover(t *testing.T) {
	server := newsServer(t)
	app, scraper := pipelineConfigs(t, server, 2)

	pipeline, err := NewPipeline(PipelineOptions{App: app, Scraper: scraper})
	require.NoError(t, err)
	defer pipeline.Close()

	urls, err := pipeline.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{server.URL + "/news/1/", server.URL + "/news/2/"}, urls)
	assert.Equal(t, 1, pipeline.DiscoveryStats().PagesFetched)

	discovered := pipeline.Discovered()
	require.Len(t, discovered, 2)
	assert.Equal(t, 1, discovered[0].Round)
	assert.Equal(t, 0, discovered[0].SeedIndex)
	assert.Equal(t, server.URL+"/news/", discovered[0].SourceURL)

	_, err = os.Stat(app.Output.BaseDir)
	assert.True(t, os.IsNotExist(err), "只发现链接时不创建文章目录")
}

// stubParser 返回预设文章
type stubParser struct {
	calls []string
}

func (p *stubParser) Parse(_ context.Context, url string, id int) (*models.Article, error) {
	p.calls = append(p.calls, url)
	return models.NewArticle(url, id), nil
}

func TestPipeline_InjectedCollaborators(t *testing.T) {
	server := newsServer(t)
	app, scraper := pipelineConfigs(t, server, 2)
	parser := &stubParser{}

	pipeline, err := NewPipeline(PipelineOptions{App: app, Scraper: scraper, Parser: parser})
	require.NoError(t, err)
	defer pipeline.Close()

	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, report.URLs, parser.calls, "按发现顺序解析")
	assert.Equal(t, 2, report.Parse.Incomplete)
}

func TestPipeline_CancelledContext(t *testing.T) {
	server := newsServer(t)
	app, scraper := pipelineConfigs(t, server, 3)

	pipeline, err := NewPipeline(PipelineOptions{App: app, Scraper: scraper})
	require.NoError(t, err)
	defer pipeline.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := pipeline.Run(ctx)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPipeline_RequiresConfigs(t *testing.T) {
	_, err := NewPipeline(PipelineOptions{})
	assert.Error(t, err)
}
