package models

import (
	"encoding/json"
	"time"
)

// DateLayout 元数据文件中的日期格式
const DateLayout = "2006-01-02 15:04:05"

// AuthorNotFound 页面上没有作者时使用的占位值
const AuthorNotFound = "NOT FOUND"

// Article 文章
type Article struct {
	// 标识信息
	ID  int    `json:"id"`  // 文章序号(从1开始)
	URL string `json:"url"` // 文章URL

	// 元数据
	Title  string    `json:"title"`
	Author []string  `json:"author"`
	Date   time.Time `json:"-"`
	Topics []string  `json:"topics"`

	// 正文
	Text string `json:"-"`
}

// articleMeta 元数据文件结构
type articleMeta struct {
	ID     int      `json:"id"`
	URL    string   `json:"url"`
	Title  string   `json:"title"`
	Author []string `json:"author"`
	Date   string   `json:"date"`
	Topics []string `json:"topics"`
}

// NewArticle 创建文章
func NewArticle(url string, id int) *Article {
	return &Article{
		ID:     id,
		URL:    url,
		Author: []string{},
		Topics: []string{},
	}
}

// IsComplete 标题、日期和正文都已提取
func (a *Article) IsComplete() bool {
	return a.Title != "" && !a.Date.IsZero() && a.Text != ""
}

// MetaJSON 序列化元数据(不含正文)
func (a *Article) MetaJSON() ([]byte, error) {
	meta := articleMeta{
		ID:     a.ID,
		URL:    a.URL,
		Title:  a.Title,
		Author: a.Author,
		Topics: a.Topics,
	}
	if !a.Date.IsZero() {
		meta.Date = a.Date.Format(DateLayout)
	}
	return json.MarshalIndent(meta, "", "  ")
}
