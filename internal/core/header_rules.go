package core

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/RecoveryAshes/newsharvest/internal/models"
	"golang.org/x/net/http/httpguts"
)

// 头部来源, 出现在验证错误中
const (
	SourceDefaults      = "默认头部"
	SourceScraperConfig = "scraper_config.headers"
	SourceCLI           = "--header"
)

// MaxHeaderValueLength 头部值最大长度 (8KB)
const MaxHeaderValueLength = 8192

// clientManagedHeaders 由HTTP客户端管理的头部, 不允许配置
var clientManagedHeaders = map[string]bool{
	"Host":              true,
	"Content-Length":    true,
	"Transfer-Encoding": true,
	"Connection":        true,
	"Proxy-Connection":  true,
	"Keep-Alive":        true,
	"Upgrade":           true,
	"Te":                true,
	"Trailer":           true,
}

// decodableEncodings 抓取器能解压的内容编码
var decodableEncodings = map[string]bool{
	"gzip":     true,
	"deflate":  true,
	"br":       true,
	"identity": true,
	"*":        true,
}

// checkHeaderLayer 验证一层头部
// 按名称排序检查, 返回第一个错误
func checkHeaderLayer(source string, headers http.Header) error {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range headers[name] {
			if err := checkHeader(source, name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkHeader 验证单个头部
func checkHeader(source, name, value string) error {
	invalid := func(field, reason, suggestion string) error {
		return &models.ValidationError{
			Source:     source,
			Field:      field,
			HeaderName: name,
			Reason:     reason,
			Suggestion: suggestion,
		}
	}

	if name == "" {
		return invalid("name", "头部名称不能为空", "")
	}
	if clientManagedHeaders[http.CanonicalHeaderKey(name)] {
		return invalid("name", "此头部由HTTP客户端自动管理,不允许自定义",
			fmt.Sprintf("移除 '%s' 头部配置", name))
	}
	if !httpguts.ValidHeaderFieldName(name) {
		return invalid("name", "头部名称包含非法字符",
			"使用字母、数字和连字符 (如 'User-Agent', 'X-Requested-With')")
	}

	if len(value) > MaxHeaderValueLength {
		return invalid("value",
			fmt.Sprintf("头部值过长: %d 字节 (最大 %d)", len(value), MaxHeaderValueLength),
			fmt.Sprintf("将值缩短至 %d 字节以内", MaxHeaderValueLength))
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return invalid("value", "头部值包含控制字符", "移除换行符和其他控制字符")
	}
	for i := 0; i < len(value); i++ {
		if value[i] >= 0x80 {
			// 西里尔字母等需要先做百分号编码
			return invalid("value", "头部值包含非ASCII字符", "使用ASCII或百分号编码后的值")
		}
	}

	if http.CanonicalHeaderKey(name) == "Accept-Encoding" {
		for _, coding := range strings.Split(value, ",") {
			coding, _, _ = strings.Cut(coding, ";")
			coding = strings.ToLower(strings.TrimSpace(coding))
			if coding != "" && !decodableEncodings[coding] {
				return invalid("value",
					fmt.Sprintf("不支持的内容编码: %s", coding),
					"仅使用 gzip, deflate, br")
			}
		}
	}

	return nil
}

// sensitiveHeaders 整个值都需要脱敏的头部
var sensitiveHeaders = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"Cookie":              true,
}

// sensitiveKeywords 名称中包含这些片段的头部也视为敏感
var sensitiveKeywords = []string{"token", "secret", "password", "credential", "key", "session", "auth"}

// isSensitiveHeader 判断头部是否需要脱敏
func isSensitiveHeader(name string) bool {
	if sensitiveHeaders[http.CanonicalHeaderKey(name)] {
		return true
	}
	lower := strings.ToLower(name)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// redactValue 脱敏单个头部值
func redactValue(name, value string) string {
	if !isSensitiveHeader(name) {
		return value
	}

	switch http.CanonicalHeaderKey(name) {
	case "Cookie":
		// 保留cookie名称 (PHPSESSID, BITRIX_SM_*), 便于排查会话问题
		pairs := strings.Split(value, ";")
		for i, pair := range pairs {
			cookieName, _, _ := strings.Cut(strings.TrimSpace(pair), "=")
			pairs[i] = cookieName + "=***"
		}
		return strings.Join(pairs, "; ")
	case "Authorization", "Proxy-Authorization":
		if scheme, _, ok := strings.Cut(value, " "); ok {
			return scheme + " ***"
		}
		return "***"
	}

	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}
	return "***"
}

// redactHeaders 返回脱敏后的头部 (多个值以逗号连接)
func redactHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		redacted := make([]string, len(values))
		for i, value := range values {
			redacted[i] = redactValue(name, value)
		}
		result[name] = strings.Join(redacted, ", ")
	}
	return result
}

// redactedString 按名称排序的 "Name: value, ..." 形式
func redactedString(headers http.Header) string {
	redacted := redactHeaders(headers)
	names := make([]string, 0, len(redacted))
	for name := range redacted {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+redacted[name])
	}
	return strings.Join(parts, ", ")
}
