package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/RecoveryAshes/newsharvest/internal/utils"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultScraperConfigFile 默认爬虫配置文件路径
	DefaultScraperConfigFile = "configs/scraper_config.json"

	// MaxConfigFileSize 配置文件最大大小 (1MB)
	MaxConfigFileSize = 1 * 1024 * 1024
)

//go:embed scraper_config_template.json
var defaultScraperTemplate string

// ScraperConfigLoader 爬虫配置文件加载器
// 只负责把文件解析为无类型的键值结构,校验交给Validator
type ScraperConfigLoader struct {
	configPath string
}

// NewScraperConfigLoader 创建配置文件加载器
func NewScraperConfigLoader(configPath string) *ScraperConfigLoader {
	if configPath == "" {
		configPath = DefaultScraperConfigFile
	}
	return &ScraperConfigLoader{
		configPath: configPath,
	}
}

// Path 返回配置文件路径
func (l *ScraperConfigLoader) Path() string {
	return l.configPath
}

// EnsureConfigExists 确保配置文件存在,如不存在则自动生成模板
func (l *ScraperConfigLoader) EnsureConfigExists() error {
	if _, err := os.Stat(l.configPath); os.IsNotExist(err) {
		dir := filepath.Dir(l.configPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("无法创建配置目录 [%s]: %w", dir, err)
		}

		if err := os.WriteFile(l.configPath, []byte(defaultScraperTemplate), 0644); err != nil {
			return fmt.Errorf("无法生成配置文件 [%s]: %w", l.configPath, err)
		}
		utils.Warnf("爬虫配置文件不存在,已生成模板: %s", l.configPath)
	}
	return nil
}

// ValidateFileSize 验证配置文件大小是否在限制内
func (l *ScraperConfigLoader) ValidateFileSize() error {
	info, err := os.Stat(l.configPath)
	if err != nil {
		return fmt.Errorf("无法读取配置文件信息 [%s]: %w", l.configPath, err)
	}

	if info.Size() > MaxConfigFileSize {
		return &models.ConfigFileError{
			FilePath: l.configPath,
			Cause: fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)",
				info.Size(), MaxConfigFileSize),
		}
	}

	return nil
}

// LoadRaw 读取配置文件为无类型键值结构
// JSON是YAML的子集,因此同一个解码器可以处理两种格式,
// 并保留键名大小写与整数类型
func (l *ScraperConfigLoader) LoadRaw() (map[string]interface{}, error) {
	if err := l.EnsureConfigExists(); err != nil {
		return nil, err
	}

	if err := l.ValidateFileSize(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return nil, &models.ConfigFileError{FilePath: l.configPath, Cause: err}
	}

	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &models.ConfigFileError{
			FilePath: l.configPath,
			Cause:    fmt.Errorf("配置解析失败: %w", err),
		}
	}

	return raw, nil
}

// Override 在校验前修改原始配置 (如命令行覆盖种子URL)
type Override func(raw map[string]interface{}) error

// Load 读取配置文件, 依次应用覆盖后校验
func (l *ScraperConfigLoader) Load(validator *Validator, overrides ...Override) (*Configuration, error) {
	raw, err := l.LoadRaw()
	if err != nil {
		return nil, err
	}

	for _, override := range overrides {
		if err := override(raw); err != nil {
			return nil, err
		}
	}

	cfg, err := validator.Validate(raw)
	if err != nil {
		return nil, err
	}

	utils.Debugf("爬虫配置校验通过: %d个种子URL, 目标 %d 篇", len(cfg.seedURLs), cfg.targetArticleCount)
	return cfg, nil
}
