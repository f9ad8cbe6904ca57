package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
)

// NewStore 開店參數
type NewStore struct {
	ID      string
	Name    string
	OwnerID string
}

// OpenStore 建立商店與其唯一的錢櫃 (初始餘額 0)
func (e *LedgerEngine) OpenStore(ctx context.Context, in NewStore) (*domain.Store, *domain.CashDesk, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, nil, domain.InvalidArgument("store name is required")
	}

	now := e.now().UTC()
	store := &domain.Store{
		ID:        in.ID,
		Name:      in.Name,
		OwnerID:   in.OwnerID,
		CreatedAt: now,
	}
	if store.ID == "" {
		store.ID = e.newID()
	}
	desk := &domain.CashDesk{
		ID:        e.newID(),
		StoreID:   store.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := e.atomic(ctx, "open_store", func(tx Tx) error {
		_, err := tx.StoreCashDeskForUpdate(ctx, store.ID)
		switch {
		case err == nil:
			return domain.InvalidState(domain.EntityStore, store.ID, "store already exists")
		case domain.KindOf(err) != domain.KindNotFound:
			return err
		}
		return tx.CreateStore(ctx, store, desk)
	})
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info("store opened", zap.String("store_id", store.ID), zap.String("cash_desk_id", desk.ID))
	return store, desk, nil
}
