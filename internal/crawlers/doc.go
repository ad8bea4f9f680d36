// Package crawlers 提供文章链接发现和文章解析功能
//
// # 概述
//
// crawlers包按顺序轮询一组列表页(种子页),从中收集不重复的文章链接,
// 直到达到目标数量; 随后逐篇下载文章并提取标题、作者、日期、标签和正文。
//
// # 核心组件
//
// ## Fetcher
//
// 获取单个页面,结果为models.FetchOutcome:
//   - OutcomeSuccess: 传输完成,StatusOK表示2xx
//   - OutcomeTransportFailure: DNS、超时、TLS等失败,Cause为原因
//
// HTTPFetcher基于net/http,负责请求头部、超时、证书校验、gzip/deflate/br解压
// 以及按配置字符集解码; BrowserFetcher基于go-rod,用无头Chromium渲染页面。
// 每次请求前等待[0, MaxPoliteness]秒的随机整数秒,MaxPoliteness为0时不等待。
//
//	fetcher, err := NewHTTPFetcher(OptionsFromConfig(cfg, headers, DefaultMaxPoliteness))
//	outcome := fetcher.Fetch(ctx, "https://baikal24.ru/news/")
//	if !outcome.Usable() { /* 跳过 */ }
//
// ## Crawler
//
// 链接发现器。每一轮按顺序访问所有种子页:
//   - 不可用的结果(传输失败或非2xx)记录后跳过
//   - 从页面游标逐个取候选链接,指向种子页自身的链接跳过,重复链接丢弃
//   - 达到目标数量立即返回,不再取候选链接,也不再发请求
//   - 整轮没有新增链接时返回已发现的部分和*models.DiscoveryExhaustedError
//
// 使用示例:
//
//	crawler := NewCrawler(cfg, fetcher, NewTeaserExtractor(DefaultLinkSelector, DefaultBaseURL))
//	urls, err := crawler.Discover(ctx)
//	if errors.Is(err, models.ErrDiscoveryExhausted) { /* 使用部分结果 */ }
//
// ## URLSet
//
// 有序URL集合,检查与追加在同一把锁内完成,并发Add不会重复插入。
//
// ## LinkExtractor / FieldExtractor
//
// 基于goquery的选择器提取。TeaserExtractor产出LinkCursor,链接在Next时才解析;
// FieldExtractor从文章页提取ArticleFields,缺少作者时使用"NOT FOUND"。
//
// ## ArticleParser
//
// 基于Colly的文章解析器,每篇文章使用独立的collector,请求前按与Fetcher相同的
// 规则等待整数秒,ctx取消时不发出请求。无头模式下使用RenderedArticleParser,
// 通过BrowserFetcher获取页面。
//
// # 并发安全
//
// Crawler按顺序请求,同一时刻只有一个请求在进行。URLSet和统计信息都有锁保护。
package crawlers
