package models

// DiscoveredURL 已发现的文章链接
// 用途:
//   - 记录链接首次出现的轮次和种子序号
//   - 并行抓取时可按(Round, SeedIndex)稳定排序
type DiscoveredURL struct {
	// URL 完整的文章URL
	URL string

	// Round 首次发现时的轮次(从1开始)
	Round int

	// SeedIndex 发现该链接的种子页序号
	SeedIndex int

	// SourceURL 发现此链接的列表页
	SourceURL string
}
