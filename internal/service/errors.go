package service

import "errors"

// 服务层哨兵错误，handler 据此映射业务状态码
var (
	ErrValidation         = errors.New("参数校验失败")
	ErrNotFound           = errors.New("资源不存在")
	ErrConflict           = errors.New("资源状态冲突")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidPassword    = errors.New("原密码不正确")
	ErrWeakPassword       = errors.New("密码不符合安全策略")
	ErrOperatorDisabled   = errors.New("操作员已被禁用")

	ErrCarrierDisabled      = errors.New("承运商已停用")
	ErrCarrierHasReferences = errors.New("承运商存在关联数据")
	ErrZoneConflict         = errors.New("区域名称已存在")

	ErrStatusInvalid = errors.New("当前状态不允许该操作")
	ErrOrdersBusy    = errors.New("部分订单已在其他未完成批次中")
	ErrEmptyOrders   = errors.New("订单列表不能为空")

	ErrDiscrepancyConfirmationRequired = errors.New("存在金额差异，需备注或确认")
	ErrSettlementPaid                  = errors.New("结算单已完成付款")
	ErrSettlementNotDeletable          = errors.New("结算单当前状态不允许删除")
	ErrPaymentAmountInvalid            = errors.New("付款金额无效")

	ErrEmailServiceDisabled      = errors.New("邮件服务未启用")
	ErrEmailServiceNotConfigured = errors.New("邮件服务未配置")
	ErrInvalidEmail              = errors.New("邮箱地址无效")
	ErrEmailRecipientRejected    = errors.New("收件人地址被拒绝")
)
