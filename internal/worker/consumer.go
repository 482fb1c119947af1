package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/logger"
	"github.com/T0MGL/0rdefy-sub018/internal/provider"
	"github.com/T0MGL/0rdefy-sub018/internal/queue"
	"github.com/T0MGL/0rdefy-sub018/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSettlementDiscrepancy, c.handleSettlementDiscrepancy)
}

func (c *Consumer) handleSettlementDiscrepancy(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_discrepancy_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SettlementDiscrepancyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_settlement_discrepancy_unmarshal_failed", "error", err)
		return err
	}
	if payload.SettlementID == 0 {
		logger.Debugw("worker_settlement_discrepancy_skip_invalid_payload", "settlement_id", payload.SettlementID)
		return nil
	}
	settlement, err := c.SettlementRepo.FindByID(payload.SettlementID)
	if err != nil {
		logger.Warnw("worker_settlement_discrepancy_fetch_failed", "settlement_id", payload.SettlementID, "error", err)
		return err
	}
	if settlement == nil {
		logger.Debugw("worker_settlement_discrepancy_skip_not_found", "settlement_id", payload.SettlementID)
		return nil
	}
	if settlement.Discrepancy.IsZero() {
		logger.Debugw("worker_settlement_discrepancy_skip_balanced", "settlement_id", settlement.ID)
		return nil
	}

	store, err := c.StoreRepo.GetByID(settlement.StoreID)
	if err != nil {
		logger.Warnw("worker_settlement_discrepancy_fetch_store_failed", "settlement_id", settlement.ID, "store_id", settlement.StoreID, "error", err)
		return err
	}
	if store == nil {
		logger.Debugw("worker_settlement_discrepancy_skip_store_not_found", "settlement_id", settlement.ID, "store_id", settlement.StoreID)
		return nil
	}
	receiverEmail := strings.TrimSpace(store.NotificationEmail)
	if receiverEmail == "" {
		logger.Debugw("worker_settlement_discrepancy_skip_empty_receiver", "settlement_id", settlement.ID, "store_id", store.ID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_settlement_discrepancy_skip_email_service_nil", "settlement_id", settlement.ID)
		return nil
	}

	carrierName := ""
	if settlement.Carrier != nil {
		carrierName = settlement.Carrier.Name
	}
	dispatchCode := ""
	if settlement.DispatchSessionID != nil {
		session, err := c.DispatchSessionRepo.GetByID(settlement.StoreID, *settlement.DispatchSessionID)
		if err != nil {
			logger.Warnw("worker_settlement_discrepancy_fetch_session_failed", "settlement_id", settlement.ID, "session_id", *settlement.DispatchSessionID, "error", err)
		} else if session != nil {
			dispatchCode = session.Code
		}
	}

	input := service.SettlementDiscrepancyEmailInput{
		CarrierName:    carrierName,
		SettlementDate: settlement.SettlementDate,
		Expected:       settlement.ExpectedCash,
		Collected:      settlement.CollectedCash,
		Discrepancy:    settlement.Discrepancy,
		DispatchCode:   dispatchCode,
	}
	if err := c.EmailService.SendSettlementDiscrepancyEmail(receiverEmail, input, constants.LocaleZhCN); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
			logger.Debugw("worker_settlement_discrepancy_skip_email_disabled", "settlement_id", settlement.ID, "error", err)
			return nil
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrEmailRecipientRejected):
			logger.Warnw("worker_settlement_discrepancy_skip_bad_receiver", "settlement_id", settlement.ID, "receiver_email", receiverEmail, "error", err)
			return nil
		default:
			logger.Warnw("worker_settlement_discrepancy_send_failed",
				"settlement_id", settlement.ID,
				"receiver_email", receiverEmail,
				"error", err,
			)
			return err
		}
	}
	return nil
}
