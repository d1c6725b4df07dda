//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"page-auth-service/internal/domain/model"
)

func TestServiceAccountRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewServiceAccountRepo(testPool)

	t.Run("upsert never creates a second row per identity", func(t *testing.T) {
		cleanup(t)

		now := time.Now()
		sa := &model.ServiceAccount{IdentityID: "naver:abc123", PageID: "p1", OwnerName: "Hong", CreatedAt: now, UpdatedAt: now}
		if err := repo.Upsert(ctx, nil, sa); err != nil {
			t.Fatalf("first upsert failed: %v", err)
		}

		sa.OwnerName = "Hong Gildong"
		sa.UpdatedAt = time.Now()
		if err := repo.Upsert(ctx, nil, sa); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		got, err := repo.FindByIdentityID(ctx, nil, "naver:abc123")
		if err != nil {
			t.Fatalf("find failed: %v", err)
		}
		if got.OwnerName != "Hong Gildong" {
			t.Errorf("expected update in place, got %q", got.OwnerName)
		}

		var n int
		if err := testPool.QueryRow(ctx, `SELECT COUNT(*) FROM service_accounts`).Scan(&n); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 row, got %d", n)
		}
	})
}

func TestPageConfigRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewPageConfigRepo(testPool)

	t.Run("upsert preserves theme and created_at on update", func(t *testing.T) {
		cleanup(t)

		pc := model.NewPageConfig("p1", "Our Page", "Hong", "welcome")
		if err := repo.Upsert(ctx, nil, pc); err != nil {
			t.Fatalf("first upsert failed: %v", err)
		}

		update := model.NewPageConfig("p1", "Renamed Page", "Hong", "hello again")
		update.Theme = "ignored-on-update"
		if err := repo.Upsert(ctx, nil, update); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		got, err := repo.FindByPageID(ctx, nil, "p1")
		if err != nil {
			t.Fatalf("find failed: %v", err)
		}
		if got.Title != "Renamed Page" {
			t.Errorf("expected title update, got %q", got.Title)
		}
		if got.Theme != model.DefaultPageTheme {
			t.Errorf("theme must keep its original value, got %q", got.Theme)
		}

		var n int
		if err := testPool.QueryRow(ctx, `SELECT COUNT(*) FROM page_configs`).Scan(&n); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 row, got %d", n)
		}
	})
}
