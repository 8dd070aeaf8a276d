package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/snapquest/go-snapquest-backend/internal/domain"
)

func newDeviceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("device_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.PlayerDevice{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestRegisterDevice_InsertAndRefresh(t *testing.T) {
	db := newDeviceDB(t)
	ctx := context.Background()

	d, err := RegisterDevice(ctx, db, "p1", "tok-1", "ios")
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if d.ID == "" || d.Platform != "ios" {
		t.Fatalf("unexpected device %+v", d)
	}

	// Same (player, token) refreshes instead of duplicating.
	again, err := RegisterDevice(ctx, db, "p1", "tok-1", "android")
	if err != nil {
		t.Fatalf("RegisterDevice (refresh): %v", err)
	}
	if again.ID != d.ID {
		t.Fatalf("expected refresh of existing row, got new id %s", again.ID)
	}

	var rows int64
	if err := db.Model(&domain.PlayerDevice{}).Count(&rows).Error; err != nil || rows != 1 {
		t.Fatalf("expected 1 row, got %d err=%v", rows, err)
	}
	var got domain.PlayerDevice
	if err := db.First(&got, "id = ?", d.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Platform != "android" {
		t.Fatalf("platform not refreshed: %+v", got)
	}
}

func TestRegisterDevice_DefaultsPlatform(t *testing.T) {
	db := newDeviceDB(t)
	d, err := RegisterDevice(context.Background(), db, "p1", "tok-2", "")
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if d.Platform != "unknown" {
		t.Fatalf("expected platform fallback, got %q", d.Platform)
	}
}

func TestListDeviceTokens(t *testing.T) {
	db := newDeviceDB(t)
	ctx := context.Background()

	tokens, err := ListDeviceTokens(ctx, db, "p1")
	if err != nil || len(tokens) != 0 {
		t.Fatalf("empty list: %v err=%v", tokens, err)
	}

	if _, err := RegisterDevice(ctx, db, "p1", "tok-a", "ios"); err != nil {
		t.Fatalf("seed a: %v", err)
	}
	if _, err := RegisterDevice(ctx, db, "p1", "tok-b", "android"); err != nil {
		t.Fatalf("seed b: %v", err)
	}
	if _, err := RegisterDevice(ctx, db, "p2", "tok-c", "ios"); err != nil {
		t.Fatalf("seed other player: %v", err)
	}

	tokens, err = ListDeviceTokens(ctx, db, "p1")
	if err != nil {
		t.Fatalf("ListDeviceTokens: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %v", tokens)
	}
	for _, tok := range tokens {
		if tok == "tok-c" {
			t.Fatalf("other player's token leaked: %v", tokens)
		}
	}
}
