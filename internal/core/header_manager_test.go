package core

import (
	"errors"
	"testing"

	"github.com/RecoveryAshes/newsharvest/internal/models"
)

func TestHeaderManager_GetMergedHeaders(t *testing.T) {
	t.Run("默认头部存在", func(t *testing.T) {
		hm, err := NewHeaderManager(nil, nil)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		headers := hm.GetMergedHeaders()
		if headers.Get("User-Agent") != DefaultUserAgent {
			t.Error("期望默认User-Agent存在")
		}
		if headers.Get("Accept-Encoding") == "" {
			t.Error("期望默认Accept-Encoding存在")
		}
	})

	t.Run("优先级 默认 < 配置 < 命令行", func(t *testing.T) {
		configHeaders := map[string]string{
			"User-Agent": "config-agent",
			"Referer":    "https://baikal24.ru/",
			"Accept":     "text/html",
		}
		cliHeaders := []string{
			"User-Agent: cli-agent",
			"X-CLI: from-cli",
		}

		hm, err := NewHeaderManager(configHeaders, cliHeaders)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		merged := hm.GetMergedHeaders()

		if val := merged.Get("User-Agent"); val != "cli-agent" {
			t.Errorf("命令行头部应该覆盖配置文件, 得到: %s", val)
		}
		if val := merged.Get("Accept"); val != "text/html" {
			t.Errorf("配置文件头部应该覆盖默认, 得到: %s", val)
		}
		if merged.Get("Referer") == "" || merged.Get("X-CLI") == "" {
			t.Error("应该同时包含配置文件和命令行头部")
		}
	})

	t.Run("配置头部名称不区分大小写", func(t *testing.T) {
		hm, err := NewHeaderManager(map[string]string{"user-agent": "lower"}, nil)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}
		if val := hm.GetMergedHeaders().Get("User-Agent"); val != "lower" {
			t.Errorf("期望User-Agent='lower', 实际='%s'", val)
		}
	})
}

func TestHeaderManager_GetSafeHeaders(t *testing.T) {
	cliHeaders := []string{
		"User-Agent: CustomBot/1.0",
		"Authorization: Bearer secret-token-12345",
		"X-API-Key: api-key-67890",
	}

	hm, err := NewHeaderManager(nil, cliHeaders)
	if err != nil {
		t.Fatalf("创建HeaderManager失败: %v", err)
	}

	safeHeaders := hm.GetSafeHeaders()

	if safeHeaders["User-Agent"] != "CustomBot/1.0" {
		t.Error("普通头部不应该被脱敏")
	}
	if safeHeaders["Authorization"] != "Bearer ***" {
		t.Errorf("期望Authorization='Bearer ***', 实际='%s'", safeHeaders["Authorization"])
	}
	if safeHeaders["X-Api-Key"] == "api-key-67890" {
		t.Error("X-API-Key应该被脱敏")
	}
}

func TestHeaderManager_GetHeaders(t *testing.T) {
	t.Run("非法命令行参数返回错误", func(t *testing.T) {
		_, err := NewHeaderManager(nil, []string{"InvalidFormat"})
		if err == nil {
			t.Error("期望返回错误, 但成功了")
		}
	})

	t.Run("禁止头部返回验证错误", func(t *testing.T) {
		hm, err := NewHeaderManager(map[string]string{"Host": "baikal24.ru"}, nil)
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		_, err = hm.GetHeaders()
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("期望ValidationError, 得到 %v", err)
		}
		if verr.Source != SourceScraperConfig {
			t.Errorf("错误应指向爬虫配置的headers字段, 得到 %q", verr.Source)
		}
	})

	t.Run("命令行头部错误指向--header", func(t *testing.T) {
		hm, err := NewHeaderManager(nil, []string{"Accept-Encoding: zstd"})
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		err = hm.Validate()
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("期望ValidationError, 得到 %v", err)
		}
		if verr.Source != SourceCLI {
			t.Errorf("期望来源 %s, 得到 %q", SourceCLI, verr.Source)
		}
	})

	t.Run("返回副本", func(t *testing.T) {
		hm, err := NewHeaderManager(nil, []string{"X-Custom: test-value"})
		if err != nil {
			t.Fatalf("创建HeaderManager失败: %v", err)
		}

		first, err := hm.GetHeaders()
		if err != nil {
			t.Fatalf("GetHeaders失败: %v", err)
		}
		first.Set("X-Custom", "changed")

		second, _ := hm.GetHeaders()
		if second.Get("X-Custom") != "test-value" {
			t.Error("修改返回值不应影响HeaderManager")
		}
	})
}
