package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // site.timezone 在没有系统时区库的环境中也可用

	"github.com/RecoveryAshes/newsharvest/internal/config"
	"github.com/RecoveryAshes/newsharvest/internal/crawlers"
	"github.com/RecoveryAshes/newsharvest/internal/utils"
	"github.com/spf13/viper"
)

// Config 应用程序配置
// 与爬虫配置(种子页、文章数量等)分开, 描述站点结构、输出位置和日志
type Config struct {
	Site    SiteConfig    `mapstructure:"site"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
}

// SiteConfig 目标站点
type SiteConfig struct {
	Host         string `mapstructure:"host"`
	BaseURL      string `mapstructure:"base_url"`
	LinkSelector string `mapstructure:"link_selector"`
	Timezone     string `mapstructure:"timezone"` // 文章日期所在时区, 为空时按UTC解析
}

// CrawlConfig 爬取参数
type CrawlConfig struct {
	ScraperConfig string `mapstructure:"scraper_config"`
	MaxPoliteness int    `mapstructure:"max_politeness"` // 请求前随机等待的最大秒数
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir    string `mapstructure:"base_dir"`
	ReportsDir string `mapstructure:"reports_dir"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".newsharvest"))
		}
	}

	setDefaults(v)

	// 环境变量覆盖, 如 NEWSHARVEST_OUTPUT_BASE_DIR
	v.SetEnvPrefix("newsharvest")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		utils.Debugf("使用配置文件: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 站点默认值
	v.SetDefault("site.host", config.DefaultSiteHost)
	v.SetDefault("site.base_url", crawlers.DefaultBaseURL)
	v.SetDefault("site.link_selector", crawlers.DefaultLinkSelector)
	v.SetDefault("site.timezone", "")

	// 爬取配置默认值
	v.SetDefault("crawl.scraper_config", config.DefaultScraperConfigFile)
	v.SetDefault("crawl.max_politeness", crawlers.DefaultMaxPoliteness)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "tmp/articles")
	v.SetDefault("output.reports_dir", "reports")
}

// Validate 检查应用配置
func (c *Config) Validate() error {
	if c.Site.Host == "" {
		return fmt.Errorf("site.host 不能为空")
	}
	if c.Crawl.MaxPoliteness < 0 {
		return fmt.Errorf("crawl.max_politeness 不能为负数: %d", c.Crawl.MaxPoliteness)
	}
	if c.Output.BaseDir == "" {
		return fmt.Errorf("output.base_dir 不能为空")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location 文章日期时区
func (c *Config) Location() (*time.Location, error) {
	if c.Site.Timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return nil, fmt.Errorf("site.timezone 无效: %w", err)
	}
	return loc, nil
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

// MergeCLIFlags 合并命令行参数到配置
// 空字符串和负数表示未指定
func (c *Config) MergeCLIFlags(outputDir string, politeness int, logLevel string, scraperConfig string) {
	if outputDir != "" {
		c.Output.BaseDir = outputDir
	}
	if politeness >= 0 {
		c.Crawl.MaxPoliteness = politeness
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if scraperConfig != "" {
		c.Crawl.ScraperConfig = scraperConfig
	}
}
