//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
)

func newPendingPurchase(session string, created time.Time) *model.Purchase {
	return &model.Purchase{
		ID: uuid.NewString(), StripeSessionID: session, CustomerEmail: "buyer@example.com",
		AmountCents: 4900, Currency: "usd", Status: model.PurchaseStatusPending,
		VisitorID: "v-1", CreatedAt: created, UpdatedAt: created,
	}
}

func TestPurchaseRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	repo := NewPurchaseRepo(testPool)
	ctx := context.Background()
	cleanup(t)
	now := time.Now().UTC()

	p := newPendingPurchase("cs_test_1", now)
	if err := repo.Save(ctx, repository.NoTX, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	t.Run("duplicate session id is rejected", func(t *testing.T) {
		dup := newPendingPurchase("cs_test_1", now)
		if err := repo.Save(ctx, repository.NoTX, dup); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("transition applies once", func(t *testing.T) {
		from := model.SourceStatuses(model.PurchaseStatusPaid)
		ok, err := repo.TransitionBySession(ctx, repository.NoTX, "cs_test_1", from, model.PurchaseStatusPaid, "pi_1", now)
		if err != nil || !ok {
			t.Fatalf("first transition: %v %v", ok, err)
		}
		ok, err = repo.TransitionBySession(ctx, repository.NoTX, "cs_test_1", from, model.PurchaseStatusPaid, "pi_1", now)
		if err != nil || ok {
			t.Fatalf("replayed transition should be a no-op: %v %v", ok, err)
		}
		got, err := repo.FindByPaymentIntent(ctx, repository.NoTX, "pi_1")
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != model.PurchaseStatusPaid || got.PaidAt == nil {
			t.Errorf("unexpected purchase %+v", got)
		}
	})

	t.Run("refund by payment intent", func(t *testing.T) {
		ok, err := repo.TransitionByPaymentIntent(ctx, repository.NoTX, "pi_1", model.SourceStatuses(model.PurchaseStatusRefunded), model.PurchaseStatusRefunded, now)
		if err != nil || !ok {
			t.Fatalf("refund: %v %v", ok, err)
		}
	})

	t.Run("expire stale pending and list", func(t *testing.T) {
		old := newPendingPurchase("cs_test_old", now.Add(-48*time.Hour))
		if err := repo.Save(ctx, repository.NoTX, old); err != nil {
			t.Fatal(err)
		}
		n, err := repo.ExpirePendingBefore(ctx, repository.NoTX, now.Add(-24*time.Hour))
		if err != nil || n != 1 {
			t.Fatalf("expired %d, err %v", n, err)
		}
		list, total, err := repo.List(ctx, repository.NoTX, model.PurchaseFilter{Status: model.PurchaseStatusExpired, Limit: 10})
		if err != nil {
			t.Fatal(err)
		}
		if total != 1 || len(list) != 1 || list[0].StripeSessionID != "cs_test_old" {
			t.Errorf("unexpected list %d %+v", total, list)
		}
	})

	t.Run("find within a transaction", func(t *testing.T) {
		tm := NewTxManager(testPool)
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			_, err := repo.FindBySessionID(ctx, tx, "cs_test_1")
			return err
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestProcessedEventRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	repo := NewProcessedEventRepo(testPool)
	ctx := context.Background()
	cleanup(t)

	ev := &model.ProcessedEvent{EventID: "evt_1", EventType: "checkout.session.completed"}
	first, err := repo.MarkProcessed(ctx, repository.NoTX, ev)
	if err != nil || !first {
		t.Fatalf("first mark: %v %v", first, err)
	}
	second, err := repo.MarkProcessed(ctx, repository.NoTX, ev)
	if err != nil || second {
		t.Fatalf("second mark should report duplicate: %v %v", second, err)
	}

	t.Run("rolled back marker is not kept", func(t *testing.T) {
		tm := NewTxManager(testPool)
		boom := errors.New("dispatch failed")
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if _, err := repo.MarkProcessed(ctx, tx, &model.ProcessedEvent{EventID: "evt_2", EventType: "x"}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected %v, got %v", boom, err)
		}
		again, err := repo.MarkProcessed(ctx, repository.NoTX, &model.ProcessedEvent{EventID: "evt_2", EventType: "x"})
		if err != nil || !again {
			t.Fatalf("marker should be insertable after rollback: %v %v", again, err)
		}
	})
}
