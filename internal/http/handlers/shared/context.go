package shared

import (
	"github.com/T0MGL/0rdefy-sub018/internal/http/response"
	"github.com/T0MGL/0rdefy-sub018/internal/service"

	"github.com/gin-gonic/gin"
)

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
}

// TenantContext 从认证中间件写入的上下文构造租户上下文。
// 店铺与操作员缺失时已由上面的统一错误响应处理。
func TenantContext(c *gin.Context) (service.TenantContext, bool) {
	storeID, ok := GetContextUintWithKeys(c, "store_id", "error.bad_request", "error.internal")
	if !ok {
		return service.TenantContext{}, false
	}
	operatorID, ok := GetContextUintWithKeys(c, "operator_id", "error.bad_request", "error.internal")
	if !ok {
		return service.TenantContext{}, false
	}
	return service.TenantContext{StoreID: storeID, OperatorID: operatorID}, true
}
