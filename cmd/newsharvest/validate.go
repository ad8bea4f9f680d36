package main

import (
	"fmt"
	"os"
)

// MaxPolitenessFlag 命令行允许的最大请求间隔(秒)
const MaxPolitenessFlag = 60

// ValidateFlags 验证命令行标志
// politeness 和 articles 为 -1 时表示未指定
func ValidateFlags(politeness int, articles int, seedsFile string) error {
	// 验证请求间隔
	if politeness < -1 || politeness > MaxPolitenessFlag {
		return fmt.Errorf("请求间隔必须在0-%d秒之间,当前值: %d", MaxPolitenessFlag, politeness)
	}

	// 文章数量的范围由爬虫配置校验器负责, 这里只拦截明显的误用
	if articles < -1 || articles == 0 {
		return fmt.Errorf("文章数量必须为正数,当前值: %d", articles)
	}

	// 验证种子URL文件
	if seedsFile != "" {
		info, err := os.Stat(seedsFile)
		if err != nil {
			return fmt.Errorf("种子URL文件不可用: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("种子URL文件路径是目录: %s", seedsFile)
		}
	}

	return nil
}
