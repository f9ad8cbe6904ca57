package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-store-ledger/pkg/wal"
)

// MutexStore 是一個使用 Mutex 實現的記憶體實體儲存
//
// 結構:
//
//	mu: 寫入互斥、讀取共享
//	wal: Write-Ahead Log 實例 (nil 表示不持久化)
//	sequence: 已提交的單元序號
type MutexStore struct {
	mu sync.RWMutex

	stores       map[string]*domain.Store
	cashDesks    map[string]*domain.CashDesk
	storeDesk    map[string]string // storeID -> cashDeskID
	articles     map[string]*domain.Article
	transactions map[string]*domain.Transaction

	wal      *wal.WAL
	sequence uint64
	logger   *zap.Logger
}

// NewMutexStore 建立一個新的 MutexStore 實例，並從 WAL 恢復狀態
//
// 參數:
//
//	w: Write-Ahead Log 實例，可為 nil
//	logger: zap logger
//
// 回傳:
//
//	*MutexStore: MutexStore 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewMutexStore(w *wal.WAL, logger *zap.Logger) (*MutexStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MutexStore{
		stores:       make(map[string]*domain.Store),
		cashDesks:    make(map[string]*domain.CashDesk),
		storeDesk:    make(map[string]string),
		articles:     make(map[string]*domain.Article),
		transactions: make(map[string]*domain.Transaction),
		wal:          w,
		logger:       logger,
	}
	if w != nil {
		if err := s.recoverFromWAL(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// recoverFromWAL 從 WAL 檔案恢復狀態
// 只有 NewMutexStore 呼叫，無需 Lock (單執行緒)
func (s *MutexStore) recoverFromWAL() error {
	var units int
	err := s.wal.Replay(func(raw json.RawMessage) error {
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decode wal unit: %w", err)
		}
		if rec.Seq <= s.sequence {
			return nil
		}
		s.apply(rec.Ops)
		s.sequence = rec.Seq
		units++
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("recovered from wal", zap.Int("units", units), zap.Uint64("sequence", s.sequence))
	return nil
}

// Atomic 在寫鎖內執行 fn
//
// fn 的寫入先暫存在 memTx，成功後寫入 WAL，最後才套用到記憶體。
// WAL 寫入失敗時記憶體狀態完全不變。
func (s *MutexStore) Atomic(ctx context.Context, fn func(tx usecase.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newMemTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.ops) == 0 {
		return nil
	}

	rec := record{Seq: s.sequence + 1, Ops: tx.ops}
	// 1. 寫入 WAL (Critical Path)
	if s.wal != nil {
		if err := s.wal.Append(rec); err != nil {
			return fmt.Errorf("append wal: %w", err)
		}
	}
	// 2. 套用到記憶體
	s.apply(rec.Ops)
	s.sequence = rec.Seq
	return nil
}

// apply 套用一組已提交的寫入，呼叫端需持有寫鎖
func (s *MutexStore) apply(ops []op) {
	for _, o := range ops {
		switch o.Kind {
		case opCreateStore:
			st := *o.Store
			s.stores[st.ID] = &st
			s.cashDesks[o.CashDesk.ID] = o.CashDesk.Clone()
			s.storeDesk[o.Store.ID] = o.CashDesk.ID
		case opPutArticle:
			s.articles[o.Article.ID] = o.Article.Clone()
		case opDeleteArticle:
			delete(s.articles, o.ID)
		case opPutCashDesk:
			s.cashDesks[o.CashDesk.ID] = o.CashDesk.Clone()
		case opAppendTransaction:
			s.transactions[o.Transaction.ID] = o.Transaction.Clone()
		}
	}
}

// GetArticle 取得商品
func (s *MutexStore) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, domain.NotFound(domain.EntityArticle, id)
	}
	return a.Clone(), nil
}

// GetStore 取得商店與其錢櫃
func (s *MutexStore) GetStore(ctx context.Context, id string) (*domain.Store, *domain.CashDesk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stores[id]
	if !ok {
		return nil, nil, domain.NotFound(domain.EntityStore, id)
	}
	d, ok := s.cashDesks[s.storeDesk[id]]
	if !ok {
		return nil, nil, domain.NotFound(domain.EntityCashDesk, "store:"+id)
	}
	cp := *st
	return &cp, d.Clone(), nil
}

// GetCashDesk 取得錢櫃
func (s *MutexStore) GetCashDesk(ctx context.Context, id string) (*domain.CashDesk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.cashDesks[id]
	if !ok {
		return nil, domain.NotFound(domain.EntityCashDesk, id)
	}
	return d.Clone(), nil
}

// ListArticles 依 UpdatedAt 新到舊 (同時間依 ID 由大到小)
func (s *MutexStore) ListArticles(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error) {
	s.mu.RLock()
	out := make([]domain.Article, 0)
	for _, a := range s.articles {
		if a.StoreID == q.StoreID {
			out = append(out, *a)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, q.Page), nil
}

// CountArticles 商店商品數
func (s *MutexStore) CountArticles(ctx context.Context, storeID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, a := range s.articles {
		if a.StoreID == storeID {
			n++
		}
	}
	return n, nil
}

// ListTransactions 依 CreatedAt 新到舊 (同時間依 ID 由大到小)
func (s *MutexStore) ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.Transaction, error) {
	s.mu.RLock()
	out := make([]domain.Transaction, 0)
	for _, t := range s.transactions {
		if matchTransaction(t, q) {
			out = append(out, *t.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, q.Page), nil
}

// CountTransactions 錢櫃流水筆數
func (s *MutexStore) CountTransactions(ctx context.Context, q domain.TransactionQuery) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, t := range s.transactions {
		if matchTransaction(t, q) {
			n++
		}
	}
	return n, nil
}

func matchTransaction(t *domain.Transaction, q domain.TransactionQuery) bool {
	if t.CashDeskID != q.CashDeskID {
		return false
	}
	if q.Type != "" && t.Type != q.Type {
		return false
	}
	return q.Period.Contains(t.CreatedAt)
}

func paginate[T any](items []T, p domain.Page) []T {
	if !p.Enabled() {
		return items
	}
	offset := p.Offset()
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + p.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

var _ usecase.Store = (*MutexStore)(nil)
