package memory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-store-ledger/pkg/wal"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *MutexStore) {
	t.Helper()
	err := s.Atomic(context.Background(), func(tx usecase.Tx) error {
		if err := tx.CreateStore(context.Background(),
			&domain.Store{ID: "s1", Name: "Shop", CreatedAt: t0},
			&domain.CashDesk{ID: "d1", StoreID: "s1", CurrentAmount: 100, CreatedAt: t0, UpdatedAt: t0},
		); err != nil {
			return err
		}
		return tx.CreateArticle(context.Background(), &domain.Article{ID: "a1", StoreID: "s1", Stock: 5, CreatedAt: t0, UpdatedAt: t0})
	})
	require.NoError(t, err)
}

func TestMutexStore_AtomicCommit(t *testing.T) {
	s, err := NewMutexStore(nil, nil)
	require.NoError(t, err)
	seed(t, s)
	ctx := context.Background()

	desk, err := s.GetCashDesk(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), desk.CurrentAmount)

	err = s.Atomic(ctx, func(tx usecase.Tx) error {
		d, err := tx.StoreCashDeskForUpdate(ctx, "s1")
		if err != nil {
			return err
		}
		assert.Equal(t, "d1", d.ID)
		d.CurrentAmount = 60
		return tx.UpdateCashDesk(ctx, d)
	})
	require.NoError(t, err)

	desk, err = s.GetCashDesk(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(60), desk.CurrentAmount)
}

func TestMutexStore_RollbackOnError(t *testing.T) {
	s, err := NewMutexStore(nil, nil)
	require.NoError(t, err)
	seed(t, s)
	ctx := context.Background()

	boom := errors.New("boom")
	err = s.Atomic(ctx, func(tx usecase.Tx) error {
		if err := tx.DeleteArticle(ctx, "a1"); err != nil {
			return err
		}
		// 同一單元內看得到自己的刪除
		found, _ := tx.ArticlesForUpdate(ctx, []string{"a1"})
		assert.Empty(t, found)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetArticle(ctx, "a1")
	assert.NoError(t, err)
}

func TestMutexStore_TxErrors(t *testing.T) {
	s, err := NewMutexStore(nil, nil)
	require.NoError(t, err)
	seed(t, s)
	ctx := context.Background()

	err = s.Atomic(ctx, func(tx usecase.Tx) error {
		return tx.CreateArticle(ctx, &domain.Article{ID: "a1"})
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	err = s.Atomic(ctx, func(tx usecase.Tx) error {
		return tx.UpdateArticle(ctx, &domain.Article{ID: "ghost"})
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = s.Atomic(ctx, func(tx usecase.Tx) error {
		_, err := tx.StoreCashDeskForUpdate(ctx, "nope")
		return err
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = s.Atomic(canceled, func(tx usecase.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMutexStore_RecoverFromWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	ctx := context.Background()

	w, err := wal.Open(path)
	require.NoError(t, err)
	s, err := NewMutexStore(w, nil)
	require.NoError(t, err)
	seed(t, s)

	err = s.Atomic(ctx, func(tx usecase.Tx) error {
		if err := tx.DeleteArticle(ctx, "a1"); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, &domain.Transaction{
			ID: "t1", Type: domain.TransactionTypeIn, Amount: 5, Label: "X",
			ArticleIDs: []string{"a1"}, CashDeskID: "d1", CreatedAt: t0,
		})
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w, err = wal.Open(path)
	require.NoError(t, err)
	defer w.Close()
	recovered, err := NewMutexStore(w, nil)
	require.NoError(t, err)

	_, err = recovered.GetArticle(ctx, "a1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	desk, err := recovered.GetCashDesk(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), desk.CurrentAmount)

	store, storeDesk, err := recovered.GetStore(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Shop", store.Name)
	assert.Equal(t, "d1", storeDesk.ID)
	_, _, err = recovered.GetStore(ctx, "s9")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	trans, err := recovered.ListTransactions(ctx, domain.TransactionQuery{CashDeskID: "d1"})
	require.NoError(t, err)
	require.Len(t, trans, 1)
	assert.Equal(t, []string{"a1"}, trans[0].ArticleIDs)
	assert.Equal(t, uint64(2), recovered.sequence)
}

func TestMutexStore_WALFailureLeavesStateUnchanged(t *testing.T) {
	w, err := wal.Open(filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, err)
	s, err := NewMutexStore(w, nil)
	require.NoError(t, err)
	seed(t, s)
	require.NoError(t, w.Close())

	ctx := context.Background()
	err = s.Atomic(ctx, func(tx usecase.Tx) error {
		return tx.DeleteArticle(ctx, "a1")
	})
	require.Error(t, err)

	_, err = s.GetArticle(ctx, "a1")
	assert.NoError(t, err)
}

func TestMutexStore_ListOrderingAndPaging(t *testing.T) {
	s, err := NewMutexStore(nil, nil)
	require.NoError(t, err)
	seed(t, s)
	ctx := context.Background()

	err = s.Atomic(ctx, func(tx usecase.Tx) error {
		for i, id := range []string{"b", "c", "d"} {
			ts := t0.Add(time.Duration(i+1) * time.Minute)
			if err := tx.CreateArticle(ctx, &domain.Article{ID: id, StoreID: "s1", CreatedAt: ts, UpdatedAt: ts}); err != nil {
				return err
			}
		}
		// 與 a1 同時間，依 ID 由大到小排在 a1 之前
		return tx.CreateArticle(ctx, &domain.Article{ID: "z", StoreID: "s1", CreatedAt: t0, UpdatedAt: t0})
	})
	require.NoError(t, err)

	all, err := s.ListArticles(ctx, domain.ArticleQuery{StoreID: "s1"})
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, a := range all {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"d", "c", "b", "z", "a1"}, ids)

	page, err := s.ListArticles(ctx, domain.ArticleQuery{StoreID: "s1", Page: domain.Page{Page: 2, PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].ID)

	empty, err := s.ListArticles(ctx, domain.ArticleQuery{StoreID: "s1", Page: domain.Page{Page: 9, PageSize: 2}})
	require.NoError(t, err)
	assert.Empty(t, empty)

	// 溢位成負數的略過筆數不可 panic
	empty, err = s.ListArticles(ctx, domain.ArticleQuery{StoreID: "s1", Page: domain.Page{Page: 1 << 62, PageSize: 4}})
	require.NoError(t, err)
	assert.Empty(t, empty)

	n, err := s.CountArticles(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
