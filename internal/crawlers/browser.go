package crawlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/RecoveryAshes/newsharvest/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserFetcher 基于go-rod的页面获取器
// 通过无头Chromium渲染页面, 结果约定与HTTPFetcher相同
type BrowserFetcher struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	opts       FetcherOptions
	politeness *politeness
	mu         sync.Mutex
	closed     bool
}

// NewBrowserFetcher 启动浏览器并创建页面获取器
func NewBrowserFetcher(opts FetcherOptions) (*BrowserFetcher, error) {
	l := launcher.New().Headless(true)

	if !opts.VerifyTLS {
		l = l.Set("ignore-certificate-errors")
		utils.Debugf("浏览器启动参数: --ignore-certificate-errors (跳过TLS证书验证)")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	if !opts.VerifyTLS {
		if err := browser.IgnoreCertErrors(true); err != nil {
			utils.Warnf("设置忽略证书错误失败: %v", err)
		}
	}

	utils.Debugf("浏览器已启动: %s", controlURL)

	return &BrowserFetcher{
		browser:    browser,
		launcher:   l,
		opts:       opts,
		politeness: newPoliteness(opts.MaxPoliteness),
	}, nil
}

// Fetch 在新标签页中打开URL并返回渲染后的HTML
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (outcome models.FetchOutcome) {
	// 浏览器崩溃等情况下rod可能panic, 转换为传输失败
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("捕获panic: URL=%s, 错误=%v", url, r)
			outcome = models.TransportFailure(url, fmt.Errorf("页面渲染panic: %v", r))
		}
	}()

	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return models.TransportFailure(url, fmt.Errorf("浏览器已关闭"))
	}

	if err := f.politeness.wait(ctx); err != nil {
		return models.TransportFailure(url, err)
	}

	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return models.TransportFailure(url, fmt.Errorf("创建标签页失败(浏览器可能已崩溃): %w", err))
	}
	defer page.Close()

	p := page.Context(ctx)
	if f.opts.Timeout > 0 {
		p = p.Timeout(f.opts.Timeout)
		defer p.CancelTimeout()
	}

	if f.opts.Headers != nil {
		headers, err := f.opts.Headers.GetHeaders()
		if err != nil {
			return models.TransportFailure(url, fmt.Errorf("获取请求头部失败: %w", err))
		}
		if kv := extraHeaderPairs(headers); len(kv) > 0 {
			cleanup, err := p.SetExtraHeaders(kv)
			if err != nil {
				return models.TransportFailure(url, fmt.Errorf("设置请求头部失败: %w", err))
			}
			defer cleanup()
		}
	}

	if err := (proto.NetworkEnable{}).Call(p); err != nil {
		return models.TransportFailure(url, fmt.Errorf("启用网络域失败: %w", err))
	}

	// 记录主文档的状态码
	status := 0
	waitDocument := p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			status = e.Response.Status
			return true
		}
		return false
	})

	if err := p.Navigate(url); err != nil {
		return models.TransportFailure(url, fmt.Errorf("导航失败: %w", err))
	}
	waitDocument()

	if err := p.WaitLoad(); err != nil {
		return models.TransportFailure(url, fmt.Errorf("等待页面加载失败: %w", err))
	}

	html, err := p.HTML()
	if err != nil {
		return models.TransportFailure(url, fmt.Errorf("读取页面HTML失败: %w", err))
	}

	if status == 0 {
		// 没有收到文档响应 (如缓存命中), 页面已成功加载
		status = http.StatusOK
	}

	utils.Debugf("渲染页面: %s (HTTP %d, %d 字节)", url, status, len(html))
	return models.Success(url, html, status)
}

// Close 关闭浏览器
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	err := f.browser.Close()
	f.launcher.Cleanup()
	utils.Debugf("浏览器已关闭")
	return err
}

// extraHeaderPairs 把头部展开为SetExtraHeaders需要的[name, value, ...]
// Accept-Encoding由浏览器自己协商
func extraHeaderPairs(headers http.Header) []string {
	kv := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		if http.CanonicalHeaderKey(name) == "Accept-Encoding" || len(values) == 0 {
			continue
		}
		kv = append(kv, name, values[0])
	}
	return kv
}
