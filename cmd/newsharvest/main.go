package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/newsharvest/internal/config"
	"github.com/RecoveryAshes/newsharvest/internal/core"
	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/RecoveryAshes/newsharvest/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 爬取参数
	scraperConfigFile string
	seedsFile         string
	articles          int
	politeness        int
	outputDir         string
	noProgress        bool
)

// appConfig 在PersistentPreRunE中加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "newsharvest",
	Short: "新闻列表页文章采集工具",
	Long: `newsharvest - 新闻站点文章采集工具

从分页的新闻列表页发现指定数量的文章链接, 然后逐篇下载并提取:
  • 标题、作者、发布时间、话题标签
  • 正文文本 (<id>_raw.txt) 和元数据 (<id>_meta.json)
  • 爬取报告 (reports/crawl_report.json)

爬虫配置示例 (configs/scraper_config.json):
  {
    "seed_urls": ["https://baikal24.ru/news/"],
    "total_articles": 10,
    "headers": {"User-Agent": "Mozilla/5.0"},
    "encoding": "utf-8",
    "timeout": 10,
    "should_verify_certificate": true,
    "headless_mode": false
  }

使用示例:
  # 按配置文件采集
  newsharvest

  # 覆盖种子页和文章数量
  newsharvest --seeds-file seeds.txt -n 20 -o tmp/articles

  # 只输出发现的链接
  newsharvest discover

  # 验证配置文件
  newsharvest --validate-config -H "Cookie: session=abc"

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		cfg, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		cfg.MergeCLIFlags(outputDir, politeness, logLevel, scraperConfigFile)
		if verbose {
			cfg.Logging.Level = "debug"
		}

		// 初始化日志系统
		if err := utils.InitLogger(cfg.LogConfig()); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		appConfig = cfg
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		scraper, hm, err := prepare()
		if err != nil {
			return err
		}

		if validateConfig {
			return printValidation(scraper, hm)
		}

		ctx, stop := signalContext()
		defer stop()

		pipeline, err := core.NewPipeline(core.PipelineOptions{
			App:          appConfig,
			Scraper:      scraper,
			Headers:      hm,
			ShowProgress: !noProgress,
		})
		if err != nil {
			return fmt.Errorf("创建采集流程失败: %w", err)
		}
		defer pipeline.Close()

		utils.Infof("开始采集: %d个种子页, 目标 %d 篇", len(scraper.SeedURLs()), scraper.TargetArticleCount())

		if _, err := pipeline.Run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				utils.Warn("采集已中断, 已保存的文章保留在输出目录")
				return nil
			}
			return fmt.Errorf("采集失败: %w", err)
		}

		return nil
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "只发现文章链接并输出到标准输出",
	RunE: func(cmd *cobra.Command, args []string) error {
		scraper, hm, err := prepare()
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		pipeline, err := core.NewPipeline(core.PipelineOptions{
			App:     appConfig,
			Scraper: scraper,
			Headers: hm,
		})
		if err != nil {
			return fmt.Errorf("创建采集流程失败: %w", err)
		}
		defer pipeline.Close()

		urls, err := pipeline.Discover(ctx)
		for _, u := range urls {
			fmt.Fprintln(cmd.OutOrStdout(), u)
		}
		for _, item := range pipeline.Discovered() {
			utils.Debugf("第%d轮 种子#%d %s -> %s", item.Round, item.SeedIndex+1, item.SourceURL, item.URL)
		}

		stats := pipeline.DiscoveryStats()
		utils.Infof("发现 %d/%d 个链接 (轮数 %d, 列表页 %d, 失败 %d, 重复 %d)",
			len(urls), scraper.TargetArticleCount(), stats.Rounds, stats.PagesFetched,
			stats.FailedFetches, stats.Duplicates)

		var exhausted *models.DiscoveryExhaustedError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &exhausted):
			utils.Warnf("⚠️  %v", err)
			return nil
		case errors.Is(err, context.Canceled):
			utils.Warn("链接发现已中断")
			return nil
		default:
			return fmt.Errorf("链接发现失败: %w", err)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	// 不需要加载配置
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "newsharvest %s (构建时间: %s)\n", Version, BuildTime)
	},
}

// prepare 加载并验证爬虫配置, 创建头部管理器
// 任何配置错误都在发起网络请求之前返回
func prepare() (*config.Configuration, *core.HeaderManager, error) {
	if err := ValidateFlags(politeness, articles, seedsFile); err != nil {
		return nil, nil, err
	}

	loader := config.NewScraperConfigLoader(appConfig.Crawl.ScraperConfig)
	scraper, err := loader.Load(config.NewValidator(appConfig.Site.Host), applyOverrides)
	if err != nil {
		return nil, nil, fmt.Errorf("爬虫配置无效 [%s]: %w", loader.Path(), err)
	}

	hm, err := core.NewHeaderManager(scraper.Headers(), headers)
	if err != nil {
		return nil, nil, err
	}
	if err := hm.Validate(); err != nil {
		return nil, nil, fmt.Errorf("HTTP头部无效: %w", err)
	}

	utils.Debugf("生效的HTTP头部: %s", hm.SafeString())
	return scraper, hm, nil
}

// applyOverrides 用命令行参数覆盖爬虫配置中的字段
// 覆盖后的值同样经过校验器
func applyOverrides(raw map[string]interface{}) error {
	if seedsFile != "" {
		seeds, err := utils.ReadSeedURLs(seedsFile)
		if err != nil {
			return err
		}
		raw[config.FieldSeedURLs] = utils.ToInterfaceSlice(seeds)
	}

	if articles > 0 {
		raw[config.FieldTotalArticles] = articles
	}

	return nil
}

// printValidation 打印验证结果
func printValidation(scraper *config.Configuration, hm *core.HeaderManager) error {
	utils.Info("✅ 配置文件验证通过")
	utils.Infof("种子URL: %d个", len(scraper.SeedURLs()))
	for _, u := range scraper.SeedURLs() {
		utils.Infof("  - %s", u)
	}
	utils.Infof("目标文章数: %d", scraper.TargetArticleCount())
	utils.Infof("编码: %s, 超时: %d秒, 校验证书: %v, 无头模式: %v",
		scraper.Encoding(), scraper.TimeoutSeconds(), scraper.VerifyTLS(), scraper.Headless())

	utils.Info("生效的HTTP头部 (已脱敏):")
	safe := hm.GetSafeHeaders()
	for _, name := range utils.SortedKeys(safe) {
		utils.Infof("  %s: %s", name, safe[name])
	}
	return nil
}

// signalContext 返回在Ctrl+C或SIGTERM时取消的上下文
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "应用配置文件路径 (默认搜索 configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 爬取参数
	rootCmd.PersistentFlags().StringVarP(&scraperConfigFile, "scraper-config", "s", "", "爬虫配置文件路径 (默认 "+config.DefaultScraperConfigFile+")")
	rootCmd.PersistentFlags().StringVarP(&seedsFile, "seeds-file", "f", "", "种子URL列表文件,每行一个,覆盖配置中的seed_urls")
	rootCmd.PersistentFlags().IntVarP(&articles, "articles", "n", -1, "目标文章数量,覆盖配置中的total_articles")
	rootCmd.PersistentFlags().IntVar(&politeness, "politeness", -1, "请求前随机等待的最大秒数 (0表示不等待)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "文章输出目录")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "不显示进度条")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
