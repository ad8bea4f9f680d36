package crawlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/newsharvest/internal/config"
	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/RecoveryAshes/newsharvest/internal/utils"
)

// Crawler 文章链接发现器
// 按顺序轮询种子页, 收集不重复的文章URL直到达到目标数量
type Crawler struct {
	seeds     []string
	seedSet   map[string]struct{}
	target    int
	fetcher   Fetcher
	extractor LinkExtractor

	urls *URLSet

	// 统计
	stats models.DiscoveryStats
	mu    sync.RWMutex
}

// NewCrawler 创建链接发现器
// extractor为nil时使用默认的TeaserExtractor
func NewCrawler(cfg *config.Configuration, fetcher Fetcher, extractor LinkExtractor) *Crawler {
	if extractor == nil {
		extractor = NewTeaserExtractor(DefaultLinkSelector, DefaultBaseURL)
	}

	seeds := cfg.SeedURLs()
	seedSet := make(map[string]struct{}, len(seeds))
	for _, seed := range seeds {
		seedSet[canonicalURL(seed)] = struct{}{}
	}

	return &Crawler{
		seeds:     seeds,
		seedSet:   seedSet,
		target:    cfg.TargetArticleCount(),
		fetcher:   fetcher,
		extractor: extractor,
		urls:      NewURLSet(),
	}
}

// Discover 发现文章链接
// 返回按发现顺序排列的URL, 数量不超过目标值.
// 一整轮没有新增链接时返回已发现的部分和*models.DiscoveryExhaustedError;
// ctx取消时返回已发现的部分和ctx的错误.
func (c *Crawler) Discover(ctx context.Context) ([]string, error) {
	c.urls.Reset()
	c.mu.Lock()
	c.stats = models.DiscoveryStats{}
	c.mu.Unlock()

	utils.Infof("开始发现文章链接: 种子页 %d 个, 目标 %d 篇", len(c.seeds), c.target)

	if c.target <= 0 {
		return c.urls.URLs(), nil
	}

	for round := 1; ; round++ {
		added := 0

		for i, seed := range c.seeds {
			if err := ctx.Err(); err != nil {
				return c.abort(round, err)
			}

			n, done, err := c.visitSeed(ctx, round, i, seed)
			if err != nil {
				return c.abort(round, err)
			}
			added += n

			if done {
				c.finishRound(round)
				utils.Infof("✅ 已发现 %d 篇文章链接 (第 %d 轮)", c.urls.Len(), round)
				return c.urls.URLs(), nil
			}
		}

		c.finishRound(round)

		if added == 0 {
			found := c.urls.Len()
			c.mu.Lock()
			c.stats.Exhausted = true
			c.mu.Unlock()

			utils.Warnf("第 %d 轮没有发现新链接, 停止发现: %d/%d", round, found, c.target)
			return c.urls.URLs(), &models.DiscoveryExhaustedError{
				Found:  found,
				Target: c.target,
				Rounds: round,
			}
		}

		utils.Debugf("第 %d 轮完成: 新增 %d, 累计 %d/%d", round, added, c.urls.Len(), c.target)
	}
}

// visitSeed 获取一个种子页并收集链接
// 返回新增数量, 以及是否已达到目标
func (c *Crawler) visitSeed(ctx context.Context, round, seedIndex int, seed string) (int, bool, error) {
	outcome := c.fetcher.Fetch(ctx, seed)
	if !outcome.Usable() {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		c.mu.Lock()
		c.stats.FailedFetches++
		c.mu.Unlock()
		utils.Warnf("跳过种子页: %v", outcome.Err())
		return 0, false, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outcome.Body))
	if err != nil {
		c.mu.Lock()
		c.stats.FailedFetches++
		c.mu.Unlock()
		utils.Warnf("解析种子页失败 [%s]: %v", seed, err)
		return 0, false, nil
	}

	c.mu.Lock()
	c.stats.PagesFetched++
	c.mu.Unlock()

	added := 0
	cursor := c.extractor.Candidates(doc, seed)
	for {
		link, ok := cursor.Next()
		if !ok {
			break
		}

		if _, isSeed := c.seedSet[canonicalURL(link)]; isSeed {
			c.mu.Lock()
			c.stats.SeedLinksSkipped++
			c.mu.Unlock()
			continue
		}

		if !c.urls.Add(models.DiscoveredURL{
			URL:       link,
			Round:     round,
			SeedIndex: seedIndex,
			SourceURL: seed,
		}) {
			c.mu.Lock()
			c.stats.Duplicates++
			c.mu.Unlock()
			continue
		}
		added++

		if c.urls.Len() >= c.target {
			return added, true, nil
		}
	}

	utils.Debugf("种子页 %s: 新增 %d 个链接", seed, added)
	return added, false, nil
}

// canonicalURL 比较种子页用的规范形式
// 主机名小写并去掉www.前缀, 空路径视为"/", 忽略片段
func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// finishRound 记录已完成的轮数
func (c *Crawler) finishRound(round int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Rounds = round
	c.stats.Discovered = c.urls.Len()
}

// abort ctx取消时返回部分结果
func (c *Crawler) abort(round int, err error) ([]string, error) {
	c.mu.Lock()
	c.stats.Rounds = round
	c.stats.Discovered = c.urls.Len()
	c.mu.Unlock()
	return c.urls.URLs(), fmt.Errorf("链接发现被中断: %w", err)
}

// Stats 返回统计信息副本
func (c *Crawler) Stats() models.DiscoveryStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Discovered 返回带来源信息的发现结果
func (c *Crawler) Discovered() []models.DiscoveredURL {
	return c.urls.Items()
}
