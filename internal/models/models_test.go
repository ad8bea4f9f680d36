package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://example.com", false},
		{"带路径的URL", "https://example.com/path/to/resource", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigError_Is(t *testing.T) {
	kinds := []error{
		ErrIncorrectSeedURL,
		ErrIncorrectNumberOfArticles,
		ErrNumberOfArticlesOutOfRange,
		ErrIncorrectHeaders,
		ErrIncorrectEncoding,
		ErrIncorrectTimeout,
		ErrIncorrectVerify,
	}

	for i, kind := range kinds {
		err := fmt.Errorf("加载失败: %w", &ConfigError{Field: "f", Kind: kind})
		for j, other := range kinds {
			if got := errors.Is(err, other); got != (i == j) {
				t.Errorf("errors.Is(%v, %v) = %v", kind, other, got)
			}
		}
	}
}

func TestDiscoveryExhaustedError_Is(t *testing.T) {
	err := fmt.Errorf("发现失败: %w", &DiscoveryExhaustedError{Found: 2, Target: 5, Rounds: 2})

	if !errors.Is(err, ErrDiscoveryExhausted) {
		t.Fatal("期望匹配ErrDiscoveryExhausted")
	}

	var exhausted *DiscoveryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatal("期望errors.As成功")
	}
	if exhausted.Found != 2 || exhausted.Target != 5 {
		t.Errorf("字段不匹配: %+v", exhausted)
	}
}

func TestFetchOutcome(t *testing.T) {
	tests := []struct {
		name       string
		outcome    FetchOutcome
		wantUsable bool
	}{
		{"200", Success("https://a", "body", 200), true},
		{"204", Success("https://a", "", 204), true},
		{"404", Success("https://a", "not found", 404), false},
		{"500", Success("https://a", "", 500), false},
		{"传输失败", TransportFailure("https://a", errors.New("dial tcp: timeout")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.Usable(); got != tt.wantUsable {
				t.Errorf("Usable() = %v, want %v", got, tt.wantUsable)
			}
			if (tt.outcome.Err() == nil) != tt.wantUsable {
				t.Errorf("Err() = %v", tt.outcome.Err())
			}
		})
	}
}

func TestArticle_MetaJSON(t *testing.T) {
	article := NewArticle("https://baikal24.ru/text/01-01-2024/news/", 3)
	article.Title = "Заголовок"
	article.Author = append(article.Author, AuthorNotFound)
	article.Topics = append(article.Topics, "Общество")
	article.Date = time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	article.Text = "Текст"

	if !article.IsComplete() {
		t.Fatal("期望文章完整")
	}

	data, err := article.MetaJSON()
	if err != nil {
		t.Fatalf("MetaJSON() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}

	if decoded["date"] != "2024-01-01 10:30:00" {
		t.Errorf("date不匹配: %v", decoded["date"])
	}
	if decoded["id"] != float64(3) {
		t.Errorf("id不匹配: %v", decoded["id"])
	}
	if _, ok := decoded["text"]; ok {
		t.Error("元数据不应包含正文")
	}
}

func TestArticle_IsComplete(t *testing.T) {
	article := NewArticle("https://baikal24.ru/a", 1)
	article.Title = "t"
	article.Text = "x"

	if article.IsComplete() {
		t.Error("缺少日期时不应视为完整")
	}
}

func TestCrawlReport_JSON(t *testing.T) {
	report := &CrawlReport{
		RunID:     "run-123",
		SeedURLs:  []string{"https://baikal24.ru/news/"},
		Target:    10,
		StartTime: time.Now(),
		EndTime:   time.Now().Add(5 * time.Minute),
		Duration:  300.5,
		Discovery: DiscoveryStats{
			Rounds:     2,
			Discovered: 10,
		},
		Parse: ParseStats{Parsed: 9, Incomplete: 1},
		URLs:  []string{"https://baikal24.ru/a"},
	}

	jsonData, err := report.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded CrawlReport
	if err := json.Unmarshal(jsonData, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded.RunID != report.RunID {
		t.Errorf("RunID不匹配: got %v, want %v", decoded.RunID, report.RunID)
	}
	if decoded.Discovery.Discovered != report.Discovery.Discovered {
		t.Errorf("Discovered不匹配: got %v, want %v", decoded.Discovery.Discovered, report.Discovery.Discovered)
	}
}
