package config

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/newsharvest/internal/models"
)

const (
	// DefaultSiteHost 默认目标站点
	DefaultSiteHost = "baikal24.ru"

	// MinArticles 文章数量下限(不含)
	MinArticles = 1

	// MaxArticles 文章数量上限(含)
	MaxArticles = 150

	// MaxTimeout 超时上限(秒)
	MaxTimeout = 60
)

// 配置字段名
const (
	FieldSeedURLs      = "seed_urls"
	FieldTotalArticles = "total_articles"
	FieldHeaders       = "headers"
	FieldEncoding      = "encoding"
	FieldTimeout       = "timeout"
	FieldVerifyCert    = "should_verify_certificate"
	FieldHeadlessMode  = "headless_mode"

	// fieldTotalArticlesLong 旧版配置文件使用的字段名
	fieldTotalArticlesLong = "total_articles_to_find_and_parse"
)

// Validator 爬虫配置校验器
// 所有规则都会执行,返回按字段顺序的第一个错误
type Validator struct {
	host      string
	seedRegex *regexp.Regexp
}

// NewValidator 创建校验器,host为目标站点主机名
func NewValidator(host string) *Validator {
	if host == "" {
		host = DefaultSiteHost
	}
	return &Validator{
		host: host,
		// https + 站点主机名 + 可选路径 + 可选分页参数
		seedRegex: regexp.MustCompile(`^https://(www\.)?` + regexp.QuoteMeta(host) +
			`(/[A-Za-z0-9\-._~/%]*)?(\?[A-Za-z0-9_]+=\d+)?$`),
	}
}

// Validate 校验原始配置并构造Configuration
// 任一规则失败时不返回任何Configuration
func (v *Validator) Validate(raw map[string]interface{}) (*Configuration, error) {
	if raw == nil {
		raw = map[string]interface{}{}
	}

	seedURLs, seedErr := v.ValidateSeedURLs(raw[FieldSeedURLs])
	total, totalErr := ValidateTotalArticles(lookupTotalArticles(raw))
	headers, headersErr := ValidateHeaders(raw[FieldHeaders])
	encoding, encodingErr := ValidateEncoding(raw[FieldEncoding])
	timeout, timeoutErr := ValidateTimeout(raw[FieldTimeout])
	verify, headless, flagsErr := ValidateFlags(raw[FieldVerifyCert], raw[FieldHeadlessMode])

	for _, err := range []error{seedErr, totalErr, headersErr, encodingErr, timeoutErr, flagsErr} {
		if err != nil {
			return nil, err
		}
	}

	return &Configuration{
		seedURLs:           seedURLs,
		targetArticleCount: total,
		headers:            headers,
		encoding:           encoding,
		timeoutSeconds:     timeout,
		verifyTLS:          verify,
		headless:           headless,
	}, nil
}

// lookupTotalArticles 兼容旧版字段名
func lookupTotalArticles(raw map[string]interface{}) interface{} {
	if value, ok := raw[FieldTotalArticles]; ok {
		return value
	}
	return raw[fieldTotalArticlesLong]
}

// ValidateSeedURLs 校验种子URL列表
func (v *Validator) ValidateSeedURLs(value interface{}) ([]string, error) {
	var items []interface{}
	switch list := value.(type) {
	case []interface{}:
		items = list
	case []string:
		for _, s := range list {
			items = append(items, s)
		}
	default:
		return nil, configError(FieldSeedURLs, models.ErrIncorrectSeedURL, "必须是字符串列表")
	}

	if len(items) == 0 {
		return nil, configError(FieldSeedURLs, models.ErrIncorrectSeedURL, "列表为空")
	}

	urls := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, configError(FieldSeedURLs, models.ErrIncorrectSeedURL,
				fmt.Sprintf("第%d项不是字符串", i+1))
		}
		if !v.seedRegex.MatchString(s) {
			return nil, configError(FieldSeedURLs, models.ErrIncorrectSeedURL,
				fmt.Sprintf("第%d项 %q 不是 https://%s 下的地址", i+1, s, v.host))
		}
		urls = append(urls, s)
	}

	return urls, nil
}

// ValidateTotalArticles 校验文章数量的类型与范围
func ValidateTotalArticles(value interface{}) (int, error) {
	n, ok := asInt(value)
	if !ok || n <= 0 {
		return 0, configError(FieldTotalArticles, models.ErrIncorrectNumberOfArticles,
			fmt.Sprintf("当前值: %v", value))
	}
	if err := ValidateArticleRange(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ValidateArticleRange 校验文章数量在(1, 150]之间
func ValidateArticleRange(n int) error {
	if n <= MinArticles || n > MaxArticles {
		return configError(FieldTotalArticles, models.ErrNumberOfArticlesOutOfRange,
			fmt.Sprintf("必须在(%d, %d]之间,当前值: %d", MinArticles, MaxArticles, n))
	}
	return nil
}

// ValidateHeaders 校验请求头映射
func ValidateHeaders(value interface{}) (map[string]string, error) {
	headers := make(map[string]string)

	switch m := value.(type) {
	case map[string]string:
		for k, v := range m {
			headers[k] = v
		}
	case map[string]interface{}:
		for k, raw := range m {
			s, ok := raw.(string)
			if !ok {
				return nil, configError(FieldHeaders, models.ErrIncorrectHeaders,
					fmt.Sprintf("头部 %q 的值不是字符串", k))
			}
			headers[k] = s
		}
	case map[interface{}]interface{}:
		for rawKey, raw := range m {
			k, ok := rawKey.(string)
			if !ok {
				return nil, configError(FieldHeaders, models.ErrIncorrectHeaders,
					fmt.Sprintf("头部名称 %v 不是字符串", rawKey))
			}
			s, ok := raw.(string)
			if !ok {
				return nil, configError(FieldHeaders, models.ErrIncorrectHeaders,
					fmt.Sprintf("头部 %q 的值不是字符串", k))
			}
			headers[k] = s
		}
	default:
		return nil, configError(FieldHeaders, models.ErrIncorrectHeaders, "必须是映射")
	}

	return headers, nil
}

// ValidateEncoding 校验编码
func ValidateEncoding(value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok || s == "" {
		return "", configError(FieldEncoding, models.ErrIncorrectEncoding,
			fmt.Sprintf("当前值: %v", value))
	}
	return s, nil
}

// ValidateTimeout 校验超时时间在[0, 60]之间
func ValidateTimeout(value interface{}) (int, error) {
	n, ok := asInt(value)
	if !ok || n < 0 || n > MaxTimeout {
		return 0, configError(FieldTimeout, models.ErrIncorrectTimeout,
			fmt.Sprintf("当前值: %v", value))
	}
	return n, nil
}

// ValidateFlags 校验证书校验与无头模式开关
func ValidateFlags(verify, headless interface{}) (bool, bool, error) {
	v, ok := verify.(bool)
	if !ok {
		return false, false, configError(FieldVerifyCert, models.ErrIncorrectVerify,
			fmt.Sprintf("必须是布尔值,当前值: %v", verify))
	}
	h, ok := headless.(bool)
	if !ok {
		return false, false, configError(FieldHeadlessMode, models.ErrIncorrectVerify,
			fmt.Sprintf("必须是布尔值,当前值: %v", headless))
	}
	return v, h, nil
}

// asInt 将原始值转换为整数
// 布尔值不视为整数;浮点数仅在没有小数部分时接受(JSON解码器无法区分3与3.0).
// 超出int范围的整数截断到上下限, 由范围检查给出结果
func asInt(value interface{}) (int, bool) {
	switch n := value.(type) {
	case bool:
		return 0, false
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return clampInt64(n), true
	case uint:
		return clampUint64(uint64(n)), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return clampUint64(uint64(n)), true
	case uint64:
		return clampUint64(n), true
	case float64:
		return floatToInt(n)
	case json.Number:
		// 只接受整数字面量, "10.0" 和 "1e3" 保留小数写法, 不视为整数
		if i, err := n.Int64(); err == nil {
			return clampInt64(i), true
		}
		digits := strings.TrimPrefix(string(n), "-")
		if digits == "" || strings.Trim(digits, "0123456789") != "" {
			return 0, false
		}
		if strings.HasPrefix(string(n), "-") {
			return math.MinInt, true
		}
		return math.MaxInt, true
	default:
		return 0, false
	}
}

func clampInt64(n int64) int {
	switch {
	case n > math.MaxInt:
		return math.MaxInt
	case n < math.MinInt:
		return math.MinInt
	}
	return int(n)
}

func clampUint64(n uint64) int {
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

// floatToInt 只接受有限的整数值
func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt, true
	case f <= math.MinInt64:
		return math.MinInt, true
	}
	return clampInt64(int64(f)), true
}

func configError(field string, kind error, reason string) error {
	return &models.ConfigError{Field: field, Kind: kind, Reason: reason}
}
