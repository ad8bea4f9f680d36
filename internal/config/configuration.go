package config

import "time"

// Configuration 经过校验的爬虫配置
// 只能由Validator.Validate构造,构造后只读
type Configuration struct {
	seedURLs           []string
	targetArticleCount int
	headers            map[string]string
	encoding           string
	timeoutSeconds     int
	verifyTLS          bool
	headless           bool
}

// SeedURLs 返回种子URL列表副本(顺序即优先级)
func (c *Configuration) SeedURLs() []string {
	out := make([]string, len(c.seedURLs))
	copy(out, c.seedURLs)
	return out
}

// TargetArticleCount 返回需要发现的文章数量
func (c *Configuration) TargetArticleCount() int {
	return c.targetArticleCount
}

// Headers 返回请求头副本
func (c *Configuration) Headers() map[string]string {
	out := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		out[k] = v
	}
	return out
}

// Encoding 返回页面编码
func (c *Configuration) Encoding() string {
	return c.encoding
}

// TimeoutSeconds 返回请求超时秒数
func (c *Configuration) TimeoutSeconds() int {
	return c.timeoutSeconds
}

// Timeout 返回请求超时时间,0表示不限制
func (c *Configuration) Timeout() time.Duration {
	return time.Duration(c.timeoutSeconds) * time.Second
}

// VerifyTLS 是否校验证书
func (c *Configuration) VerifyTLS() bool {
	return c.verifyTLS
}

// Headless 是否使用无头浏览器
func (c *Configuration) Headless() bool {
	return c.headless
}
