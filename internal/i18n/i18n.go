package i18n

import (
	"fmt"
	"strings"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"

	"github.com/gin-gonic/gin"
)

// ResolveLocale 解析请求语言：优先 lang 查询参数，其次 Accept-Language 头。
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return constants.LocaleZhCN
	}
	if lang := normalizeLocale(c.Query("lang")); lang != "" {
		return lang
	}
	accept := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(accept, ",") {
		tag := part
		if idx := strings.Index(tag, ";"); idx >= 0 {
			tag = tag[:idx]
		}
		if lang := normalizeLocale(tag); lang != "" {
			return lang
		}
	}
	return constants.LocaleZhCN
}

func normalizeLocale(raw string) string {
	tag := strings.TrimSpace(raw)
	if tag == "" {
		return ""
	}
	lower := strings.ToLower(tag)
	switch {
	case strings.HasPrefix(lower, "zh"):
		return constants.LocaleZhCN
	case strings.HasPrefix(lower, "en"):
		return constants.LocaleEnUS
	}
	return ""
}

// T 返回指定语言的文案，找不到时回退 zh-CN，再回退 key 本身。
func T(locale string, key string) string {
	if catalog, ok := catalogs[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[constants.LocaleZhCN][key]; ok {
		return msg
	}
	return key
}

// Sprintf 返回带参数的国际化文案。
func Sprintf(locale string, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

var catalogs = map[string]map[string]string{
	constants.LocaleZhCN: {
		"error.internal":              "服务器内部错误",
		"error.bad_request":           "请求参数无效",
		"error.unauthorized":          "未登录或登录已过期",
		"error.forbidden":             "没有权限执行该操作",
		"error.not_found":             "资源不存在",
		"error.conflict":              "资源状态冲突",
		"error.rate_limited":          "请求过于频繁，请稍后再试",
		"error.rate_limit_unavailable": "限流服务不可用",

		"error.jwt_secret_missing":   "JWT 密钥未配置",
		"error.token_invalid":        "登录凭证无效",
		"error.token_revoked":        "登录凭证已失效，请重新登录",
		"error.auth_header_missing":  "缺少认证头",
		"error.auth_header_invalid":  "认证头格式无效",
		"error.login_failed":         "用户名或密码错误",
		"error.operator_disabled":    "操作员已被禁用",
		"error.password_incorrect":   "原密码不正确",
		"error.password_min_length":  "密码长度不能少于 %d 位",
		"error.password_need_letter": "密码必须包含字母",
		"error.password_need_digit":  "密码必须包含数字",

		"error.store_not_found":   "店铺不存在",
		"error.carrier_not_found": "承运商不存在",
		"error.carrier_disabled":  "承运商已停用",
		"error.carrier_has_refs":  "承运商存在关联数据，无法删除",
		"error.zone_not_found":    "配送区域不存在",
		"error.zone_conflict":     "同一承运商下区域名称已存在",
		"error.courier_not_found": "配送员不存在",

		"error.order_not_found":      "订单不存在",
		"error.order_no_conflict":    "订单号已存在",
		"error.order_status_invalid": "订单状态不允许该操作",

		"error.dispatch_session_not_found":      "派送批次不存在",
		"error.dispatch_session_status_invalid": "派送批次状态不允许该操作",
		"error.dispatch_orders_empty":           "派送订单列表不能为空",
		"error.dispatch_order_conflict":         "部分订单已在其他未完成批次中",
		"error.import_file_invalid":             "导入文件格式无效",
		"error.import_no_rows":                  "导入文件没有有效数据行",

		"error.settlement_not_found":               "结算单不存在",
		"error.settlement_orders_empty":            "结算订单列表不能为空",
		"error.settlement_already_paid":            "结算单已完成付款",
		"error.settlement_not_deletable":           "当前状态的结算单不允许删除",
		"error.settlement_date_invalid":            "结算日期无效",
		"error.discrepancy_confirmation_required":  "存在金额差异，请填写备注或确认差异后提交",
		"error.payment_amount_invalid":             "付款金额无效",
		"error.export_failed":                      "导出失败",
	},
	constants.LocaleEnUS: {
		"error.internal":              "internal server error",
		"error.bad_request":           "invalid request parameters",
		"error.unauthorized":          "not logged in or session expired",
		"error.forbidden":             "permission denied",
		"error.not_found":             "resource not found",
		"error.conflict":              "resource state conflict",
		"error.rate_limited":          "too many requests, try again later",
		"error.rate_limit_unavailable": "rate limiter unavailable",

		"error.jwt_secret_missing":   "JWT secret not configured",
		"error.token_invalid":        "invalid token",
		"error.token_revoked":        "token revoked, please login again",
		"error.auth_header_missing":  "missing authorization header",
		"error.auth_header_invalid":  "invalid authorization header",
		"error.login_failed":         "invalid username or password",
		"error.operator_disabled":    "operator disabled",
		"error.password_incorrect":   "current password incorrect",
		"error.password_min_length":  "password must be at least %d characters",
		"error.password_need_letter": "password must contain a letter",
		"error.password_need_digit":  "password must contain a digit",

		"error.store_not_found":   "store not found",
		"error.carrier_not_found": "carrier not found",
		"error.carrier_disabled":  "carrier disabled",
		"error.carrier_has_refs":  "carrier has related records and cannot be deleted",
		"error.zone_not_found":    "zone not found",
		"error.zone_conflict":     "zone name already exists for this carrier",
		"error.courier_not_found": "courier not found",

		"error.order_not_found":      "order not found",
		"error.order_no_conflict":    "order number already exists",
		"error.order_status_invalid": "order status does not allow this operation",

		"error.dispatch_session_not_found":      "dispatch session not found",
		"error.dispatch_session_status_invalid": "dispatch session status does not allow this operation",
		"error.dispatch_orders_empty":           "dispatch order list cannot be empty",
		"error.dispatch_order_conflict":         "some orders already belong to another open session",
		"error.import_file_invalid":             "invalid import file",
		"error.import_no_rows":                  "import file has no valid data rows",

		"error.settlement_not_found":               "settlement not found",
		"error.settlement_orders_empty":            "settlement order list cannot be empty",
		"error.settlement_already_paid":            "settlement already paid",
		"error.settlement_not_deletable":           "settlement in current status cannot be deleted",
		"error.settlement_date_invalid":            "invalid settlement date",
		"error.discrepancy_confirmation_required":  "cash discrepancy detected, add notes or confirm to proceed",
		"error.payment_amount_invalid":             "invalid payment amount",
		"error.export_failed":                      "export failed",
	},
}
