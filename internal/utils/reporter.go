package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	reportsDir string
}

// NewReporter 创建报告生成器
func NewReporter(reportsDir string) *Reporter {
	return &Reporter{reportsDir: reportsDir}
}

// Dir 报告目录
func (r *Reporter) Dir() string {
	return r.reportsDir
}

// GenerateReport 生成爬取报告
// 主报告 crawl_report.json, 另外单独保存发现的链接和失败的文章
func (r *Reporter) GenerateReport(report *models.CrawlReport) error {
	if err := os.MkdirAll(r.reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	reportData, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	if err := r.writeReportFile("crawl_report.json", reportData); err != nil {
		return err
	}

	urls := report.URLs
	if urls == nil {
		urls = []string{}
	}
	if err := r.saveJSONReport("discovered_urls.json", urls); err != nil {
		return err
	}

	failed := report.FailedURLs
	if failed == nil {
		failed = []models.FailedURLInfo{}
	}
	if err := r.saveJSONReport("failed_urls.json", failed); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", r.reportsDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(filename string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	return r.writeReportFile(filename, jsonData)
}

// writeReportFile 写入报告文件
func (r *Reporter) writeReportFile(filename string, jsonData []byte) error {
	path := filepath.Join(r.reportsDir, filename)
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
