package models

import "fmt"

// OutcomeKind 请求结果类型
type OutcomeKind int

const (
	OutcomeSuccess          OutcomeKind = iota // 传输完成(状态码见StatusOK)
	OutcomeTransportFailure                    // DNS、超时、连接重置、TLS失败等
)

// String 返回结果类型名称
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// FetchOutcome 单次GET请求的结果
// 调用方必须根据Kind分支处理,失败不会被转换为空内容
type FetchOutcome struct {
	Kind       OutcomeKind
	URL        string
	Body       string // 解码后的响应正文
	StatusCode int
	StatusOK   bool  // 状态码为2xx
	Cause      error // 仅在OutcomeTransportFailure时非空
}

// Success 构造传输成功的结果
func Success(url, body string, statusCode int) FetchOutcome {
	return FetchOutcome{
		Kind:       OutcomeSuccess,
		URL:        url,
		Body:       body,
		StatusCode: statusCode,
		StatusOK:   statusCode >= 200 && statusCode < 300,
	}
}

// TransportFailure 构造传输失败的结果
func TransportFailure(url string, cause error) FetchOutcome {
	return FetchOutcome{
		Kind:  OutcomeTransportFailure,
		URL:   url,
		Cause: cause,
	}
}

// Usable 传输成功且状态码为2xx
func (o FetchOutcome) Usable() bool {
	return o.Kind == OutcomeSuccess && o.StatusOK
}

// Err 将不可用的结果转换为错误,可用时返回nil
func (o FetchOutcome) Err() error {
	switch {
	case o.Kind == OutcomeTransportFailure:
		return fmt.Errorf("请求失败 [%s]: %w", o.URL, o.Cause)
	case !o.StatusOK:
		return fmt.Errorf("请求失败 [%s]: HTTP %d", o.URL, o.StatusCode)
	default:
		return nil
	}
}
