package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateFlags(t *testing.T) {
	dir := t.TempDir()
	seeds := filepath.Join(dir, "seeds.txt")
	if err := os.WriteFile(seeds, []byte("https://baikal24.ru/news/\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		politeness int
		articles   int
		seedsFile  string
		wantErr    bool
	}{
		{"全部未指定", -1, -1, "", false},
		{"关闭等待", 0, 10, "", false},
		{"最大等待", MaxPolitenessFlag, 150, seeds, false},
		{"等待为负", -2, -1, "", true},
		{"等待过长", MaxPolitenessFlag + 1, -1, "", true},
		{"文章数为0", -1, 0, "", true},
		{"文章数为负", -1, -5, "", true},
		{"种子文件不存在", -1, -1, filepath.Join(dir, "missing.txt"), true},
		{"种子文件是目录", -1, -1, dir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFlags(tt.politeness, tt.articles, tt.seedsFile)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seeds.txt")
	if err := os.WriteFile(path, []byte("https://baikal24.ru/news/\nhttps://baikal24.ru/news/?PAGEN_1=2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	oldSeeds, oldArticles := seedsFile, articles
	defer func() { seedsFile, articles = oldSeeds, oldArticles }()

	seedsFile = path
	articles = 7

	raw := map[string]interface{}{
		"seed_urls":      []interface{}{"https://baikal24.ru/"},
		"total_articles": 3,
	}
	if err := applyOverrides(raw); err != nil {
		t.Fatalf("applyOverrides() error = %v", err)
	}

	seeds, ok := raw["seed_urls"].([]interface{})
	if !ok || len(seeds) != 2 || seeds[1] != "https://baikal24.ru/news/?PAGEN_1=2" {
		t.Errorf("seed_urls 未被覆盖: %v", raw["seed_urls"])
	}
	if raw["total_articles"] != 7 {
		t.Errorf("total_articles = %v, want 7", raw["total_articles"])
	}
}

func TestApplyOverrides_Unset(t *testing.T) {
	oldSeeds, oldArticles := seedsFile, articles
	defer func() { seedsFile, articles = oldSeeds, oldArticles }()

	seedsFile, articles = "", -1
	raw := map[string]interface{}{"total_articles": 3}
	if err := applyOverrides(raw); err != nil {
		t.Fatalf("applyOverrides() error = %v", err)
	}
	if raw["total_articles"] != 3 {
		t.Errorf("total_articles 不应被修改: %v", raw["total_articles"])
	}
	if _, ok := raw["seed_urls"]; ok {
		t.Error("未指定种子文件时不应设置 seed_urls")
	}
}
