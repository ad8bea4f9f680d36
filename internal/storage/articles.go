// Package storage 负责把解析后的文章保存到磁盘
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/RecoveryAshes/newsharvest/internal/models"
	"github.com/RecoveryAshes/newsharvest/internal/utils"
)

const (
	rawSuffix  = "_raw.txt"
	metaSuffix = "_meta.json"
)

// ArticleStore 文章存储目录
// 每篇文章对应 <id>_raw.txt (正文) 和 <id>_meta.json (元数据)
type ArticleStore struct {
	dir string
}

// NewArticleStore 创建文章存储
func NewArticleStore(dir string) *ArticleStore {
	return &ArticleStore{dir: dir}
}

// Dir 存储目录
func (s *ArticleStore) Dir() string {
	return s.dir
}

// PrepareEnvironment 准备存储目录
// 目录不存在时创建; 已存在且非空时清空后重建
func (s *ArticleStore) PrepareEnvironment() error {
	entries, err := os.ReadDir(s.dir)
	switch {
	case os.IsNotExist(err):
		// 首次运行
	case err != nil:
		return fmt.Errorf("读取存储目录失败: %w", err)
	case len(entries) > 0:
		utils.Infof("清空存储目录: %s (%d 项)", s.dir, len(entries))
		if err := os.RemoveAll(s.dir); err != nil {
			return fmt.Errorf("清空存储目录失败: %w", err)
		}
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("创建存储目录失败: %w", err)
	}
	return nil
}

// RawPath 正文文件路径
func (s *ArticleStore) RawPath(id int) string {
	return filepath.Join(s.dir, strconv.Itoa(id)+rawSuffix)
}

// MetaPath 元数据文件路径
func (s *ArticleStore) MetaPath(id int) string {
	return filepath.Join(s.dir, strconv.Itoa(id)+metaSuffix)
}

// WriteRaw 保存正文
func (s *ArticleStore) WriteRaw(article *models.Article) error {
	path := s.RawPath(article.ID)
	if err := os.WriteFile(path, []byte(article.Text), 0644); err != nil {
		return fmt.Errorf("写入正文失败 [%s]: %w", path, err)
	}
	utils.Debugf("保存正文: %s", path)
	return nil
}

// WriteMeta 保存元数据
func (s *ArticleStore) WriteMeta(article *models.Article) error {
	data, err := article.MetaJSON()
	if err != nil {
		return fmt.Errorf("序列化元数据失败: %w", err)
	}

	path := s.MetaPath(article.ID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入元数据失败 [%s]: %w", path, err)
	}
	utils.Debugf("保存元数据: %s", path)
	return nil
}

// Save 保存正文和元数据
func (s *ArticleStore) Save(article *models.Article) error {
	if err := s.WriteRaw(article); err != nil {
		return err
	}
	return s.WriteMeta(article)
}
