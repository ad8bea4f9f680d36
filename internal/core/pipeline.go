package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RecoveryAshes/newsharvest/internal/config"
	"github.com/RecoveryAshes/newsharvest/internal/crawlers"
	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/RecoveryAshes/newsharvest/internal/storage"
	"github.com/RecoveryAshes/newsharvest/internal/utils"
)

// PipelineOptions 流水线参数
type PipelineOptions struct {
	// App 应用配置
	App *Config

	// Scraper 已验证的爬虫配置
	Scraper *config.Configuration

	// Headers 请求头部来源, 为nil时只使用爬虫配置中的headers
	Headers models.HeaderProvider

	// Fetcher 和 Parser 为nil时按爬虫配置创建 (HTTP或无头浏览器)
	Fetcher crawlers.Fetcher
	Parser  crawlers.Parser

	// ShowProgress 显示文章解析进度条
	ShowProgress bool
}

// Pipeline 主流程协调器
// 执行流程:
//  1. 发现文章链接 (链接耗尽时记录警告并使用已发现的部分)
//  2. 准备文章目录
//  3. 按发现顺序解析并保存文章
//  4. 生成爬取报告
type Pipeline struct {
	app     *Config
	scraper *config.Configuration

	fetcher crawlers.Fetcher
	parser  crawlers.Parser
	crawler *crawlers.Crawler
	store   *storage.ArticleStore

	showProgress bool

	// 需要在结束时释放的资源 (浏览器)
	closers []io.Closer
}

// NewPipeline 创建流水线
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.App == nil || opts.Scraper == nil {
		return nil, fmt.Errorf("缺少应用配置或爬虫配置")
	}

	p := &Pipeline{
		app:          opts.App,
		scraper:      opts.Scraper,
		fetcher:      opts.Fetcher,
		parser:       opts.Parser,
		store:        storage.NewArticleStore(opts.App.Output.BaseDir),
		showProgress: opts.ShowProgress,
	}

	loc, err := opts.App.Location()
	if err != nil {
		return nil, err
	}
	fields := crawlers.DefaultFieldExtractor()
	fields.Location = loc

	fetchOpts := crawlers.OptionsFromConfig(opts.Scraper, opts.Headers, opts.App.Crawl.MaxPoliteness)

	if p.fetcher == nil {
		if opts.Scraper.Headless() {
			browser, err := crawlers.NewBrowserFetcher(fetchOpts)
			if err != nil {
				return nil, err
			}
			p.fetcher = browser
			p.closers = append(p.closers, browser)
		} else {
			fetcher, err := crawlers.NewHTTPFetcher(fetchOpts)
			if err != nil {
				return nil, err
			}
			p.fetcher = fetcher
		}
	}

	if p.parser == nil {
		if opts.Scraper.Headless() {
			p.parser = crawlers.NewRenderedArticleParser(p.fetcher, fields)
		} else {
			parser, err := crawlers.NewArticleParser(fetchOpts, fields)
			if err != nil {
				p.Close()
				return nil, err
			}
			p.parser = parser
		}
	}

	extractor := crawlers.NewTeaserExtractor(opts.App.Site.LinkSelector, opts.App.Site.BaseURL)
	p.crawler = crawlers.NewCrawler(opts.Scraper, p.fetcher, extractor)

	return p, nil
}

// Discover 只执行链接发现
// 链接耗尽时返回已发现的部分和*models.DiscoveryExhaustedError
func (p *Pipeline) Discover(ctx context.Context) ([]string, error) {
	return p.crawler.Discover(ctx)
}

// DiscoveryStats 链接发现统计
func (p *Pipeline) DiscoveryStats() models.DiscoveryStats {
	return p.crawler.Stats()
}

// Discovered 返回带来源信息的已发现链接
func (p *Pipeline) Discovered() []models.DiscoveredURL {
	return p.crawler.Discovered()
}

// Run 执行完整流程
// 单篇文章失败只记录和计数, 不会中断流程
func (p *Pipeline) Run(ctx context.Context) (*models.CrawlReport, error) {
	startTime := time.Now()

	report := &models.CrawlReport{
		RunID:      models.NewRunID(),
		SeedURLs:   p.scraper.SeedURLs(),
		Target:     p.scraper.TargetArticleCount(),
		Headless:   p.scraper.Headless(),
		AssetsDir:  p.store.Dir(),
		StartTime:  startTime,
		FailedURLs: []models.FailedURLInfo{},
	}

	utils.Infof("🚀 开始爬取任务 (run=%s)", report.RunID)
	utils.Infof("种子页: %d 个, 目标文章: %d 篇", len(report.SeedURLs), report.Target)
	utils.Infof("文章目录: %s", p.store.Dir())

	urls, err := p.crawler.Discover(ctx)
	report.Discovery = p.crawler.Stats()
	report.URLs = urls
	if err != nil {
		if !errors.Is(err, models.ErrDiscoveryExhausted) {
			return nil, err
		}
		utils.Warnf("⚠️  %v, 继续处理已发现的 %d 篇", err, len(urls))
	}

	if err := p.store.PrepareEnvironment(); err != nil {
		return nil, fmt.Errorf("准备文章目录失败: %w", err)
	}

	if err := p.parseAll(ctx, urls, report); err != nil {
		return nil, err
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(startTime).Seconds()

	reporter := utils.NewReporter(p.reportsDir())
	if err := reporter.GenerateReport(report); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}

	PrintSummary(report)
	return report, nil
}

// parseAll 按发现顺序解析并保存文章, 文章序号从1开始
func (p *Pipeline) parseAll(ctx context.Context, urls []string, report *models.CrawlReport) error {
	var bar interface {
		Add(int) error
		Finish() error
	}
	if p.showProgress && len(urls) > 0 {
		bar = utils.NewProgressBar(len(urls), "解析文章")
	}

	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("文章解析被中断: %w", err)
		}

		p.processArticle(ctx, url, i+1, report)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}
	return nil
}

// processArticle 解析并保存一篇文章, 结果计入报告
func (p *Pipeline) processArticle(ctx context.Context, url string, id int, report *models.CrawlReport) {
	article, err := p.parser.Parse(ctx, url, id)
	if err != nil {
		utils.Warnf("解析文章失败 [%s]: %v", url, err)
		report.Parse.Failed++
		report.FailedURLs = append(report.FailedURLs, models.FailedURLInfo{
			URL:       url,
			ErrorType: "fetch_failed",
			ErrorMsg:  err.Error(),
		})
		return
	}

	if !article.IsComplete() {
		utils.Debugf("跳过不完整的文章 [%s]: 缺少标题、日期或正文", url)
		report.Parse.Incomplete++
		report.FailedURLs = append(report.FailedURLs, models.FailedURLInfo{
			URL:       url,
			ErrorType: "incomplete",
			ErrorMsg:  "缺少标题、日期或正文",
		})
		return
	}

	if err := p.store.Save(article); err != nil {
		utils.Errorf("保存文章失败 [%s]: %v", url, err)
		report.Parse.Failed++
		report.FailedURLs = append(report.FailedURLs, models.FailedURLInfo{
			URL:       url,
			ErrorType: "write_failed",
			ErrorMsg:  err.Error(),
		})
		return
	}

	report.Parse.Parsed++
}

// reportsDir 报告目录
func (p *Pipeline) reportsDir() string {
	if p.app.Output.ReportsDir == "" {
		return "reports"
	}
	return p.app.Output.ReportsDir
}

// Close 释放资源
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

// PrintSummary 打印爬取摘要
func PrintSummary(report *models.CrawlReport) {
	utils.Info("==================================================")
	utils.Info("📊 爬取摘要")
	utils.Info("==================================================")
	utils.Infof("发现链接: %d/%d (轮数 %d, 列表页失败 %d)",
		report.Discovery.Discovered, report.Target, report.Discovery.Rounds, report.Discovery.FailedFetches)
	if report.Discovery.Exhausted {
		utils.Warn("⚠️  种子页链接已耗尽, 未达到目标数量")
	}
	utils.Infof("✅ 已保存: %d", report.Parse.Parsed)
	utils.Infof("⏭️  不完整: %d", report.Parse.Incomplete)
	utils.Infof("❌ 失败: %d", report.Parse.Failed)
	utils.Infof("⏱️  总耗时: %.2f秒", report.Duration)
	utils.Info("==================================================")

	if len(report.FailedURLs) > 0 {
		utils.Warn("未保存的文章:")
		for _, failed := range report.FailedURLs {
			utils.Warnf("  - %s: [%s] %s", failed.URL, failed.ErrorType, failed.ErrorMsg)
		}
	}
}
