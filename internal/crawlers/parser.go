package crawlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/RecoveryAshes/newsharvest/internal/utils"
	"github.com/gocolly/colly/v2"
)

// Parser 下载并解析单篇文章
type Parser interface {
	Parse(ctx context.Context, url string, id int) (*models.Article, error)
}

// ArticleParser 基于Colly的文章解析器
// 请求参数和请求间隔都与HTTPFetcher一致
type ArticleParser struct {
	client     *http.Client
	headers    models.HeaderProvider
	fields     *FieldExtractor
	politeness *politeness
}

// NewArticleParser 创建文章解析器
// fields为nil时使用站点默认选择器
func NewArticleParser(opts FetcherOptions, fields *FieldExtractor) (*ArticleParser, error) {
	client, err := newHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = DefaultFieldExtractor()
	}

	headers := opts.Headers
	if headers == nil {
		headers = make(models.StaticHeaders)
	}

	return &ArticleParser{
		client:     client,
		headers:    headers,
		fields:     fields,
		politeness: newPoliteness(opts.MaxPoliteness),
	}, nil
}

// Parse 下载文章页并提取字段
// 非2xx状态码和传输失败都返回错误; 字段缺失不是错误, 由调用方检查IsComplete
func (p *ArticleParser) Parse(ctx context.Context, url string, id int) (*models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	article := models.NewArticle(url, id)
	c := p.newCollector(ctx)

	var headerErr error
	found := false

	c.OnRequest(func(r *colly.Request) {
		headers, err := p.headers.GetHeaders()
		if err != nil {
			headerErr = err
			r.Abort()
			return
		}
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
		utils.Debugf("访问文章: %s", r.URL.String())
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		found = true
		p.fields.Extract(e.DOM).Apply(article)
	})

	// 请求前等待, ctx取消时不发出请求
	if err := p.politeness.wait(ctx); err != nil {
		return nil, err
	}
	if err := c.Request(http.MethodGet, url, nil, colly.NewContext(), nil); err != nil {
		return nil, fmt.Errorf("请求文章失败 [%s]: %w", url, err)
	}
	if headerErr != nil {
		return nil, fmt.Errorf("获取请求头部失败: %w", headerErr)
	}
	if !found {
		return nil, fmt.Errorf("文章页不是HTML [%s]", url)
	}

	return article, nil
}

// newCollector 每篇文章使用独立的collector, 回调互不影响
func (p *ArticleParser) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
	)

	// 请求绑定到ctx, 取消时中断传输
	c.SetClient(&http.Client{
		Transport: &contextTransport{base: p.client.Transport, ctx: ctx},
		Timeout:   p.client.Timeout,
	})

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
	}); err != nil {
		utils.Warnf("设置并发限制失败: %v", err)
	}

	return c
}

// contextTransport 为请求附加调用方的ctx
type contextTransport struct {
	base http.RoundTripper
	ctx  context.Context
}

// RoundTrip 实现http.RoundTripper接口
func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// RenderedArticleParser 通过Fetcher(如无头浏览器)获取文章页后提取字段
type RenderedArticleParser struct {
	fetcher Fetcher
	fields  *FieldExtractor
}

// NewRenderedArticleParser 创建解析器
func NewRenderedArticleParser(fetcher Fetcher, fields *FieldExtractor) *RenderedArticleParser {
	if fields == nil {
		fields = DefaultFieldExtractor()
	}
	return &RenderedArticleParser{fetcher: fetcher, fields: fields}
}

// Parse 获取并解析文章
func (p *RenderedArticleParser) Parse(ctx context.Context, url string, id int) (*models.Article, error) {
	outcome := p.fetcher.Fetch(ctx, url)
	if !outcome.Usable() {
		return nil, outcome.Err()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outcome.Body))
	if err != nil {
		return nil, fmt.Errorf("解析文章页失败 [%s]: %w", url, err)
	}

	article := models.NewArticle(url, id)
	p.fields.Extract(doc.Selection).Apply(article)
	return article, nil
}
