package crawlers

import (
	"sync"

	"github.com/RecoveryAshes/newsharvest/internal/models"
)

// URLSet 有序URL集合
// 职责: 按发现顺序保存文章URL,保证唯一性; 检查与追加在同一把锁内完成
type URLSet struct {
	// 按插入顺序保存的URL
	items []models.DiscoveredURL

	// 已有URL标记
	index map[string]struct{}

	// 保护items和index的读写锁
	mu sync.RWMutex
}

// NewURLSet 创建空集合
func NewURLSet() *URLSet {
	return &URLSet{
		items: make([]models.DiscoveredURL, 0),
		index: make(map[string]struct{}),
	}
}

// Add 添加URL
// 返回: URL此前不存在并被追加时为true, 重复时为false
func (s *URLSet) Add(item models.DiscoveredURL) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[item.URL]; exists {
		return false
	}
	s.index[item.URL] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Len 当前URL数量
func (s *URLSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// URLs 按发现顺序返回URL副本
func (s *URLSet) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make([]string, len(s.items))
	for i, item := range s.items {
		urls[i] = item.URL
	}
	return urls
}

// Items 返回带来源信息的条目副本
func (s *URLSet) Items() []models.DiscoveredURL {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.DiscoveredURL, len(s.items))
	copy(items, s.items)
	return items
}

// Reset 清空集合
func (s *URLSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]models.DiscoveredURL, 0)
	s.index = make(map[string]struct{})
}
