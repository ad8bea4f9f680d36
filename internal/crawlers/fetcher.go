package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/newsharvest/internal/config"
	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/RecoveryAshes/newsharvest/internal/utils"
	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

const (
	// DefaultMaxPoliteness 默认最大请求间隔(秒)
	DefaultMaxPoliteness = 2

	// MaxBodySize 单个响应体的读取上限 (16MB)
	MaxBodySize = 16 * 1024 * 1024
)

// Fetcher 获取单个页面
// 结果总是FetchOutcome,调用方按Kind分支处理
type Fetcher interface {
	Fetch(ctx context.Context, url string) models.FetchOutcome
}

// FetcherOptions 请求参数
type FetcherOptions struct {
	// Timeout 单次请求超时, 0表示不限制
	Timeout time.Duration

	// VerifyTLS 是否校验证书
	VerifyTLS bool

	// Encoding 响应正文字符集标签 (如 utf-8, windows-1251)
	Encoding string

	// MaxPoliteness 请求前随机等待的最大秒数, 0表示不等待
	MaxPoliteness int

	// Headers 请求头部来源
	Headers models.HeaderProvider
}

// OptionsFromConfig 从已验证的配置构造请求参数
func OptionsFromConfig(cfg *config.Configuration, headers models.HeaderProvider, maxPoliteness int) FetcherOptions {
	if headers == nil {
		h := make(models.StaticHeaders)
		for name, value := range cfg.Headers() {
			http.Header(h).Set(name, value)
		}
		headers = h
	}

	return FetcherOptions{
		Timeout:       cfg.Timeout(),
		VerifyTLS:     cfg.VerifyTLS(),
		Encoding:      cfg.Encoding(),
		MaxPoliteness: maxPoliteness,
		Headers:       headers,
	}
}

// politeness 请求间隔
// 每次请求前等待[0, max]秒之间的随机整数秒
type politeness struct {
	max   int
	rng   *rand.Rand
	mu    sync.Mutex
	sleep func(ctx context.Context, d time.Duration) error
}

func newPoliteness(max int) *politeness {
	if max < 0 {
		max = 0
	}
	return &politeness{
		max:   max,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
	}
}

// delay 计算下一次等待时间
func (p *politeness) delay() time.Duration {
	if p.max == 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Duration(p.rng.Intn(p.max+1)) * time.Second
}

// wait 等待随机时间, ctx取消时提前返回
func (p *politeness) wait(ctx context.Context) error {
	d := p.delay()
	if d == 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, d)
}

// sleepContext 可取消的等待
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// decodingTransport 解压响应体并按配置字符集转换为UTF-8
// 返回的响应不再带Content-Encoding, Content-Type的charset改为utf-8
type decodingTransport struct {
	base     http.RoundTripper
	decoder  encoding.Encoding
	encoding string
}

// RoundTrip 实现http.RoundTripper接口
func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	body, err := decompressResponse(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, err
	}

	decoded, err := t.decoder.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("按%s解码失败: %w", t.encoding, err)
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.Header.Set("Content-Type", utf8ContentType(resp.Header.Get("Content-Type")))
	resp.ContentLength = int64(len(decoded))
	resp.Uncompressed = true
	resp.Body = io.NopCloser(bytes.NewReader(decoded))
	return resp, nil
}

// utf8ContentType 保留媒体类型, charset替换为utf-8
func utf8ContentType(contentType string) string {
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if mediaType == "" {
		mediaType = "text/html"
	}
	return mediaType + "; charset=utf-8"
}

// newHTTPClient 按请求参数创建HTTP客户端
// 字符集标签无法识别时返回错误
func newHTTPClient(opts FetcherOptions) (*http.Client, error) {
	enc, name := charset.Lookup(opts.Encoding)
	if enc == nil {
		return nil, fmt.Errorf("不支持的字符集: %q", opts.Encoding)
	}

	// 自己处理Content-Encoding, 关闭Transport的自动gzip解压
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !opts.VerifyTLS,
		},
		DisableCompression:  true,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	utils.Debugf("HTTP客户端: 超时=%v, 校验证书=%v, 字符集=%s", opts.Timeout, opts.VerifyTLS, name)

	return &http.Client{
		Transport: &decodingTransport{base: base, decoder: enc, encoding: name},
		Timeout:   opts.Timeout,
	}, nil
}

// HTTPFetcher 基于net/http的页面获取器
type HTTPFetcher struct {
	client     *http.Client
	headers    models.HeaderProvider
	politeness *politeness
}

// NewHTTPFetcher 创建页面获取器
func NewHTTPFetcher(opts FetcherOptions) (*HTTPFetcher, error) {
	client, err := newHTTPClient(opts)
	if err != nil {
		return nil, err
	}

	headers := opts.Headers
	if headers == nil {
		headers = make(models.StaticHeaders)
	}

	return &HTTPFetcher{
		client:     client,
		headers:    headers,
		politeness: newPoliteness(opts.MaxPoliteness),
	}, nil
}

// Fetch 获取页面
// 等待随机间隔后发送GET请求; 状态码非2xx时仍返回OutcomeSuccess, 由StatusOK区分
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) models.FetchOutcome {
	if err := f.politeness.wait(ctx); err != nil {
		return models.TransportFailure(url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.TransportFailure(url, fmt.Errorf("创建请求失败: %w", err))
	}

	headers, err := f.headers.GetHeaders()
	if err != nil {
		return models.TransportFailure(url, fmt.Errorf("获取请求头部失败: %w", err))
	}
	applyHeaders(req.Header, headers)

	resp, err := f.client.Do(req)
	if err != nil {
		return models.TransportFailure(url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.TransportFailure(url, fmt.Errorf("读取响应失败: %w", err))
	}

	utils.Debugf("获取页面: %s (HTTP %d, %d 字节)", url, resp.StatusCode, len(body))
	return models.Success(url, string(body), resp.StatusCode)
}

// applyHeaders 把头部写入请求, 同名头部以新值为准
func applyHeaders(dst, src http.Header) {
	for name, values := range src {
		dst.Del(name)
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}

// ErrBodyTooLarge 响应体(解压前或解压后)超过MaxBodySize
var ErrBodyTooLarge = fmt.Errorf("响应体超过 %d 字节", MaxBodySize)

// readLimited 最多读取MaxBodySize字节, 超出时返回ErrBodyTooLarge而不是截断
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBodySize {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := readLimited(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := readLimited(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := readLimited(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "", "identity":
		return body, nil

	default:
		// 未知编码,返回警告但仍然返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
