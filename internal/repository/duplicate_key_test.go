package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/T0MGL/0rdefy-sub018/internal/constants"
	"github.com/T0MGL/0rdefy-sub018/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"gorm wrapped", fmt.Errorf("create session: %w", gorm.ErrDuplicatedKey), true},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"postgres other code", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("connection reset by peer"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDuplicateKeyError(tc.err); got != tc.want {
				t.Fatalf("IsDuplicateKeyError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsDuplicateKeyErrorSQLiteDriver(t *testing.T) {
	dsn := fmt.Sprintf("file:dupkey_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.DispatchSession{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	session := models.DispatchSession{
		StoreID: 1,
		Code:    "DISP-01012026-01",
		Status:  constants.DispatchStatusOpen,
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	clash := models.DispatchSession{
		StoreID: 1,
		Code:    "DISP-01012026-01",
		Status:  constants.DispatchStatusOpen,
	}
	err = db.Create(&clash).Error
	if err == nil {
		t.Fatalf("expected unique index violation")
	}
	if !IsDuplicateKeyError(err) {
		t.Fatalf("sqlite unique violation not recognized: %v", err)
	}
}
