package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"

	"github.com/gin-gonic/gin"
)

func newTestContext(acceptLanguage string, query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	if acceptLanguage != "" {
		c.Request.Header.Set("Accept-Language", acceptLanguage)
	}
	return c
}

func TestResolveLocaleQueryFirst(t *testing.T) {
	c := newTestContext("zh-CN,zh;q=0.9", "lang=en-US")
	if got := ResolveLocale(c); got != constants.LocaleEnUS {
		t.Fatalf("expected en-US, got %s", got)
	}
}

func TestResolveLocaleAcceptLanguage(t *testing.T) {
	c := newTestContext("en-GB,en;q=0.8", "")
	if got := ResolveLocale(c); got != constants.LocaleEnUS {
		t.Fatalf("expected en-US, got %s", got)
	}
}

func TestResolveLocaleDefault(t *testing.T) {
	c := newTestContext("fr-FR", "")
	if got := ResolveLocale(c); got != constants.LocaleZhCN {
		t.Fatalf("expected zh-CN fallback, got %s", got)
	}
}

func TestTFallback(t *testing.T) {
	if got := T(constants.LocaleEnUS, "error.not_found"); got != "resource not found" {
		t.Fatalf("unexpected message: %s", got)
	}
	if got := T("ja-JP", "error.not_found"); got != "资源不存在" {
		t.Fatalf("expected zh-CN fallback, got %s", got)
	}
	if got := T(constants.LocaleZhCN, "error.no_such_key"); got != "error.no_such_key" {
		t.Fatalf("expected key fallback, got %s", got)
	}
}

func TestSprintfWithArgs(t *testing.T) {
	got := Sprintf(constants.LocaleEnUS, "error.password_min_length", 8)
	if got != "password must be at least 8 characters" {
		t.Fatalf("unexpected message: %s", got)
	}
}
