package crawlers

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultLinkSelector 列表页文章链接选择器
	DefaultLinkSelector = ".news-teaser__link"

	// DefaultBaseURL 相对链接的解析基准
	DefaultBaseURL = "https://baikal24.ru"

	// SourceDateLayout 文章页日期格式 (如 21.03.2024 14:05)
	SourceDateLayout = "02.01.2006 15:04"
)

// LinkCursor 逐个产出候选链接
// 没有更多链接时ok为false
type LinkCursor interface {
	Next() (link string, ok bool)
}

// LinkExtractor 从列表页中提取文章链接
type LinkExtractor interface {
	Candidates(doc *goquery.Document, pageURL string) LinkCursor
}

// TeaserExtractor 按选择器提取链接并解析为绝对URL
type TeaserExtractor struct {
	// Selector 链接元素的CSS选择器
	Selector string

	// BaseURL 相对链接的基准, 为空时使用列表页URL
	BaseURL string
}

// NewTeaserExtractor 创建链接提取器, 参数为空时使用默认值
func NewTeaserExtractor(selector, baseURL string) *TeaserExtractor {
	if selector == "" {
		selector = DefaultLinkSelector
	}
	return &TeaserExtractor{Selector: selector, BaseURL: baseURL}
}

// Candidates 返回页面上候选链接的游标
// 链接在调用Next时才解析, 调用方停止调用后剩余元素不再处理
func (e *TeaserExtractor) Candidates(doc *goquery.Document, pageURL string) LinkCursor {
	baseRaw := e.BaseURL
	if baseRaw == "" {
		baseRaw = pageURL
	}

	base, err := url.Parse(baseRaw)
	if err != nil {
		log.Debug().Err(err).Str("base", baseRaw).Msg("解析基准URL失败")
		return NewSliceCursor(nil)
	}

	return &selectionCursor{
		sel:  doc.Find(e.Selector),
		base: base,
	}
}

// selectionCursor 在goquery选择结果上迭代
type selectionCursor struct {
	sel  *goquery.Selection
	pos  int
	base *url.URL
}

// Next 返回下一个可用的绝对链接
func (c *selectionCursor) Next() (string, bool) {
	for c.pos < c.sel.Length() {
		node := c.sel.Eq(c.pos)
		c.pos++

		href, exists := node.Attr("href")
		href = strings.TrimSpace(href)
		if !exists || href == "" {
			continue
		}

		link, err := resolveLink(c.base, href)
		if err != nil {
			log.Debug().Err(err).Str("href", href).Msg("跳过无效链接")
			continue
		}
		return link, true
	}
	return "", false
}

// resolveLink 把href解析为绝对http(s)链接, 去掉片段
func resolveLink(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("URL格式无效: %w", err)
	}

	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", fmt.Errorf("不支持的协议: %s", abs.Scheme)
	}
	abs.Fragment = ""
	return abs.String(), nil
}

// SliceCursor 在固定链接列表上迭代
type SliceCursor struct {
	links []string
	pos   int
}

// NewSliceCursor 创建列表游标
func NewSliceCursor(links []string) *SliceCursor {
	return &SliceCursor{links: links}
}

// Next 返回下一个链接
func (c *SliceCursor) Next() (string, bool) {
	if c.pos >= len(c.links) {
		return "", false
	}
	link := c.links[c.pos]
	c.pos++
	return link, true
}

// ArticleFields 从文章页提取的字段
type ArticleFields struct {
	Title  string
	Author []string
	Date   time.Time
	Topics []string
	Text   string
}

// Apply 把字段写入文章
func (f ArticleFields) Apply(article *models.Article) {
	article.Title = f.Title
	article.Author = append([]string{}, f.Author...)
	article.Date = f.Date
	article.Topics = append([]string{}, f.Topics...)
	article.Text = f.Text
}

// FieldExtractor 文章页字段提取器
type FieldExtractor struct {
	TitleSelector  string
	AuthorSelector string
	DateSelector   string
	DateLayout     string
	TopicSelector  string
	TextSelector   string

	// Location 日期所在时区, 为空时使用UTC
	Location *time.Location
}

// DefaultFieldExtractor 站点默认的选择器
func DefaultFieldExtractor() *FieldExtractor {
	return &FieldExtractor{
		TitleSelector:  ".article__title",
		AuthorSelector: ".article__author",
		DateSelector:   ".article__date",
		DateLayout:     SourceDateLayout,
		TopicSelector:  ".article__tag",
		TextSelector:   "div.article__content p.article__text",
	}
}

// Extract 提取字段
// 标题/作者/日期取第一个匹配元素; 没有作者时使用占位值; 日期无法解析时为零值
func (e *FieldExtractor) Extract(sel *goquery.Selection) ArticleFields {
	fields := ArticleFields{
		Author: []string{},
		Topics: []string{},
	}

	if title := sel.Find(e.TitleSelector).First(); title.Length() > 0 {
		fields.Title = strings.TrimSpace(title.Text())
	}

	if author := sel.Find(e.AuthorSelector).First(); author.Length() > 0 {
		fields.Author = append(fields.Author, strings.TrimSpace(author.Text()))
	} else {
		fields.Author = append(fields.Author, models.AuthorNotFound)
	}

	if date := sel.Find(e.DateSelector).First(); date.Length() > 0 {
		raw := strings.TrimSpace(date.Text())
		parsed, err := e.parseDate(raw)
		if err != nil {
			log.Debug().Err(err).Str("date", raw).Msg("日期解析失败")
		} else {
			fields.Date = parsed
		}
	}

	sel.Find(e.TopicSelector).Each(func(_ int, s *goquery.Selection) {
		if topic := strings.TrimSpace(s.Text()); topic != "" {
			fields.Topics = append(fields.Topics, topic)
		}
	})

	var text strings.Builder
	sel.Find(e.TextSelector).Each(func(_ int, s *goquery.Selection) {
		text.WriteString(s.Text())
	})
	fields.Text = text.String()

	return fields
}

func (e *FieldExtractor) parseDate(raw string) (time.Time, error) {
	layout := e.DateLayout
	if layout == "" {
		layout = SourceDateLayout
	}
	if e.Location != nil {
		return time.ParseInLocation(layout, raw, e.Location)
	}
	return time.Parse(layout, raw)
}
