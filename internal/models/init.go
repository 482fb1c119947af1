package models

import (
	"strings"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultOperator 初始化默认店铺与默认操作员账号
func InitDefaultOperator(username, password string) error {
	var count int64
	DB.Model(&Operator{}).Count(&count)

	// 如果已有操作员，确保默认 admin 拥有超级操作员权限
	if count > 0 {
		if err := DB.Model(&Operator{}).Where("username = ?", "admin").Update("is_super", true).Error; err != nil {
			logger.Warnw("ensure_default_operator_super_failed", "error", err)
		}
		return nil
	}

	store := Store{
		Name:     "默认店铺",
		Currency: constants.SiteCurrencyDefault,
		IsActive: true,
	}
	if err := DB.Create(&store).Error; err != nil {
		return err
	}

	if username == "" {
		username = "admin"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	operator := Operator{
		StoreID:      store.ID,
		Username:     username,
		PasswordHash: string(hash),
		IsSuper:      strings.EqualFold(strings.TrimSpace(username), "admin"),
		IsActive:     true,
	}
	if err := DB.Create(&operator).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_operator_created_with_default_password", "username", username, "password", password)
		logger.Warnw("default_operator_password_change_required", "username", username)
	} else {
		logger.Warnw("default_operator_created", "username", username, "password_hidden", true)
	}

	return nil
}
