package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/T0MGL/0rdefy-sub018/internal/config"
	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/models"
)

func TestBuildSettlementDiscrepancyContent(t *testing.T) {
	input := SettlementDiscrepancyEmailInput{
		CarrierName:    "顺达物流",
		SettlementDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Expected:       models.NewMoneyFromInt(150000),
		Collected:      models.NewMoneyFromInt(100000),
		Discrepancy:    models.NewMoneyFromInt(-50000),
		DispatchCode:   "DISP-01072026-01",
	}

	tests := []struct {
		name                string
		locale              string
		wantSubjectContains []string
		wantBodyContains    []string
	}{
		{
			name:   "zh",
			locale: constants.LocaleZhCN,
			wantSubjectContains: []string{
				"结算差异提醒",
				"顺达物流",
				"2026-07-01",
			},
			wantBodyContains: []string{
				"应收金额：150000",
				"实收金额：100000",
				"差异金额：-50000",
				"DISP-01072026-01",
			},
		},
		{
			name:   "en",
			locale: constants.LocaleEnUS,
			wantSubjectContains: []string{
				"Settlement discrepancy",
				"顺达物流",
			},
			wantBodyContains: []string{
				"Expected: 150000",
				"Collected: 100000",
				"Discrepancy: -50000",
				"Dispatch session: DISP-01072026-01",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := buildSettlementDiscrepancyContent(input, tt.locale)
			for _, want := range tt.wantSubjectContains {
				if !strings.Contains(subject, want) {
					t.Fatalf("subject %q should contain %q", subject, want)
				}
			}
			for _, want := range tt.wantBodyContains {
				if !strings.Contains(body, want) {
					t.Fatalf("body %q should contain %q", body, want)
				}
			}
		})
	}

	// 无批次编号时不输出批次行
	input.DispatchCode = ""
	_, body := buildSettlementDiscrepancyContent(input, constants.LocaleZhCN)
	if strings.Contains(body, "关联派送批次") {
		t.Fatalf("body without dispatch code should omit session line, got %q", body)
	}
}

func TestSendSettlementDiscrepancyEmailConfigGuards(t *testing.T) {
	input := SettlementDiscrepancyEmailInput{
		CarrierName:    "顺达物流",
		SettlementDate: time.Now(),
	}

	svc := NewEmailService(&config.EmailConfig{Enabled: false})
	err := svc.SendSettlementDiscrepancyEmail("ops@example.com", input, constants.LocaleZhCN)
	if !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("expected ErrEmailServiceDisabled, got %v", err)
	}

	svc.SetConfig(&config.EmailConfig{Enabled: true})
	err = svc.SendSettlementDiscrepancyEmail("ops@example.com", input, constants.LocaleZhCN)
	if !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("expected ErrEmailServiceNotConfigured, got %v", err)
	}

	svc.SetConfig(&config.EmailConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "noreply@example.com",
	})
	err = svc.SendSettlementDiscrepancyEmail("not-an-email", input, constants.LocaleZhCN)
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestIsEmailRecipientRejected(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"550 5.1.1 recipient address rejected", true},
		{"user unknown", true},
		{"550 mailbox unavailable", true},
		{"connection refused", false},
		{"", false},
	}
	for _, tc := range cases {
		var err error
		if tc.message != "" {
			err = errors.New(tc.message)
		}
		if got := isEmailRecipientRejected(err); got != tc.want {
			t.Fatalf("isEmailRecipientRejected(%q) want %v got %v", tc.message, tc.want, got)
		}
	}
}
