package models

import (
	"encoding/json"
	"time"
)

// DiscoveryStats 链接发现阶段统计
type DiscoveryStats struct {
	Rounds           int  `json:"rounds"`             // 完成的轮数
	PagesFetched     int  `json:"pages_fetched"`      // 成功获取的列表页数
	FailedFetches    int  `json:"failed_fetches"`     // 失败的列表页请求
	Duplicates       int  `json:"duplicates"`         // 被去重丢弃的链接
	SeedLinksSkipped int  `json:"seed_links_skipped"` // 指向种子页自身的链接
	Discovered       int  `json:"discovered"`         // 已发现的文章数
	Exhausted        bool `json:"exhausted"`          // 是否因无新链接而终止
}

// ParseStats 文章解析阶段统计
type ParseStats struct {
	Parsed     int `json:"parsed"`     // 成功解析并保存的文章
	Incomplete int `json:"incomplete"` // 缺少标题/日期/正文而跳过
	Failed     int `json:"failed"`     // 请求或写入失败
}

// CrawlReport 爬取报告
type CrawlReport struct {
	// 任务信息
	RunID     string   `json:"run_id"`
	SeedURLs  []string `json:"seed_urls"`
	Target    int      `json:"target"`
	Headless  bool     `json:"headless"`
	AssetsDir string   `json:"assets_dir"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Discovery DiscoveryStats `json:"discovery"`
	Parse     ParseStats     `json:"parse"`

	// 链接列表
	URLs       []string        `json:"urls"`
	FailedURLs []FailedURLInfo `json:"failed_urls"`
}

// FailedURLInfo 失败文章信息
type FailedURLInfo struct {
	URL       string `json:"url"`
	ErrorType string `json:"error_type"` // fetch_failed, incomplete, write_failed
	ErrorMsg  string `json:"error_msg"`
}

// ToJSON 序列化为JSON
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
