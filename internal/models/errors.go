package models

import (
	"errors"
	"fmt"
)

// 配置校验错误种类
// 每条校验规则对应一个独立的错误种类,通过errors.Is区分
var (
	ErrIncorrectSeedURL           = errors.New("种子URL不符合站点格式")
	ErrIncorrectNumberOfArticles  = errors.New("文章数量必须为正整数")
	ErrNumberOfArticlesOutOfRange = errors.New("文章数量超出范围")
	ErrIncorrectHeaders           = errors.New("请求头必须是字符串到字符串的映射")
	ErrIncorrectEncoding          = errors.New("编码必须是非空字符串")
	ErrIncorrectTimeout           = errors.New("超时时间必须是0-60之间的整数")
	ErrIncorrectVerify            = errors.New("证书校验与无头模式必须是布尔值")
)

// ErrDiscoveryExhausted 列表页已无新链接但未达到目标数量
var ErrDiscoveryExhausted = errors.New("链接发现已耗尽")

// ConfigError 配置校验错误
// 表示某个字段未通过校验,Kind为上面定义的错误种类之一
type ConfigError struct {
	// Field 出错的配置字段 (如 "seed_urls")
	Field string

	// Kind 错误种类
	Kind error

	// Reason 具体原因
	Reason string
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("配置字段 [%s] 校验失败: %v", e.Field, e.Kind)
	}
	return fmt.Sprintf("配置字段 [%s] 校验失败: %v (%s)", e.Field, e.Kind, e.Reason)
}

// Unwrap 支持errors.Is匹配错误种类
func (e *ConfigError) Unwrap() error {
	return e.Kind
}

// ConfigFileError 配置文件错误
// 表示配置文件读取或解析失败
type ConfigFileError struct {
	// FilePath 配置文件路径
	FilePath string

	// Cause 底层错误
	Cause error
}

// Error 实现error接口
func (e *ConfigFileError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigFileError) Unwrap() error {
	return e.Cause
}

// DiscoveryExhaustedError 发现阶段耗尽错误
// 一整轮种子页都没有带来新链接,且数量仍未达到目标
type DiscoveryExhaustedError struct {
	Found  int // 已发现的文章数
	Target int // 目标文章数
	Rounds int // 已完成的轮数
}

// Error 实现error接口
func (e *DiscoveryExhaustedError) Error() string {
	return fmt.Sprintf("链接发现已耗尽: 第%d轮无新链接, 已发现 %d/%d", e.Rounds, e.Found, e.Target)
}

// Is 使errors.Is(err, ErrDiscoveryExhausted)成立
func (e *DiscoveryExhaustedError) Is(target error) bool {
	return target == ErrDiscoveryExhausted
}
