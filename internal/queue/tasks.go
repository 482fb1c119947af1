package queue

import (
	"encoding/json"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSettlementDiscrepancy 结算差异邮件通知任务
	TaskSettlementDiscrepancy = constants.TaskSettlementDiscrepancy
)

// SettlementDiscrepancyPayload 结算差异任务载荷
type SettlementDiscrepancyPayload struct {
	SettlementID uint `json:"settlement_id"`
}

// NewSettlementDiscrepancyTask 创建结算差异通知任务
func NewSettlementDiscrepancyTask(payload SettlementDiscrepancyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementDiscrepancy, body), nil
}
