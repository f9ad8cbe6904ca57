package memory

import (
	"context"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/usecase"
)

type opKind uint8

const (
	opCreateStore opKind = iota + 1
	opPutArticle
	opDeleteArticle
	opPutCashDesk
	opAppendTransaction
)

// op 單一寫入，同時也是 WAL 的紀錄格式
type op struct {
	Kind        opKind              `json:"kind"`
	ID          string              `json:"id,omitempty"`
	Store       *domain.Store       `json:"store,omitempty"`
	CashDesk    *domain.CashDesk    `json:"cashDesk,omitempty"`
	Article     *domain.Article     `json:"article,omitempty"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
}

// record 一個已提交的 Atomic 單元
type record struct {
	Seq uint64 `json:"seq"`
	Ops []op   `json:"ops"`
}

// memTx 暫存單元內的寫入，讀取時先看暫存再看已提交狀態
type memTx struct {
	s   *MutexStore
	ops []op

	articles  map[string]*domain.Article // nil 值代表已刪除
	cashDesks map[string]*domain.CashDesk
	storeDesk map[string]string
	trans     map[string]*domain.Transaction
}

func newMemTx(s *MutexStore) *memTx {
	return &memTx{
		s:         s,
		articles:  make(map[string]*domain.Article),
		cashDesks: make(map[string]*domain.CashDesk),
		storeDesk: make(map[string]string),
		trans:     make(map[string]*domain.Transaction),
	}
}

func (t *memTx) cashDesk(id string) (*domain.CashDesk, bool) {
	if d, ok := t.cashDesks[id]; ok {
		return d, true
	}
	d, ok := t.s.cashDesks[id]
	return d, ok
}

func (t *memTx) CashDeskForUpdate(ctx context.Context, id string) (*domain.CashDesk, error) {
	d, ok := t.cashDesk(id)
	if !ok {
		return nil, domain.NotFound(domain.EntityCashDesk, id)
	}
	return d.Clone(), nil
}

func (t *memTx) StoreCashDeskForUpdate(ctx context.Context, storeID string) (*domain.CashDesk, error) {
	deskID, ok := t.storeDesk[storeID]
	if !ok {
		if _, exists := t.s.stores[storeID]; !exists {
			return nil, domain.NotFound(domain.EntityStore, storeID)
		}
		if deskID, ok = t.s.storeDesk[storeID]; !ok {
			return nil, domain.NotFound(domain.EntityCashDesk, "store:"+storeID)
		}
	}
	return t.CashDeskForUpdate(ctx, deskID)
}

func (t *memTx) ArticlesForUpdate(ctx context.Context, ids []string) (map[string]*domain.Article, error) {
	out := make(map[string]*domain.Article, len(ids))
	for _, id := range ids {
		if a, staged := t.articles[id]; staged {
			if a != nil {
				out[id] = a.Clone()
			}
			continue
		}
		if a, ok := t.s.articles[id]; ok {
			out[id] = a.Clone()
		}
	}
	return out, nil
}

func (t *memTx) TransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if tr, ok := t.trans[id]; ok {
		return tr.Clone(), nil
	}
	if tr, ok := t.s.transactions[id]; ok {
		return tr.Clone(), nil
	}
	return nil, domain.NotFound(domain.EntityTransaction, id)
}

func (t *memTx) CreateStore(ctx context.Context, store *domain.Store, desk *domain.CashDesk) error {
	st := *store
	t.storeDesk[store.ID] = desk.ID
	t.cashDesks[desk.ID] = desk.Clone()
	t.ops = append(t.ops, op{Kind: opCreateStore, Store: &st, CashDesk: desk.Clone()})
	return nil
}

func (t *memTx) CreateArticle(ctx context.Context, article *domain.Article) error {
	if a, _ := t.ArticlesForUpdate(ctx, []string{article.ID}); len(a) > 0 {
		return domain.InvalidState(domain.EntityArticle, article.ID, "article already exists")
	}
	return t.putArticle(article)
}

func (t *memTx) UpdateArticle(ctx context.Context, article *domain.Article) error {
	if a, _ := t.ArticlesForUpdate(ctx, []string{article.ID}); len(a) == 0 {
		return domain.NotFound(domain.EntityArticle, article.ID)
	}
	return t.putArticle(article)
}

func (t *memTx) putArticle(article *domain.Article) error {
	t.articles[article.ID] = article.Clone()
	t.ops = append(t.ops, op{Kind: opPutArticle, Article: article.Clone()})
	return nil
}

func (t *memTx) DeleteArticle(ctx context.Context, id string) error {
	if a, _ := t.ArticlesForUpdate(ctx, []string{id}); len(a) == 0 {
		return domain.NotFound(domain.EntityArticle, id)
	}
	t.articles[id] = nil
	t.ops = append(t.ops, op{Kind: opDeleteArticle, ID: id})
	return nil
}

func (t *memTx) UpdateCashDesk(ctx context.Context, desk *domain.CashDesk) error {
	if _, ok := t.cashDesk(desk.ID); !ok {
		return domain.NotFound(domain.EntityCashDesk, desk.ID)
	}
	t.cashDesks[desk.ID] = desk.Clone()
	t.ops = append(t.ops, op{Kind: opPutCashDesk, CashDesk: desk.Clone()})
	return nil
}

func (t *memTx) AppendTransaction(ctx context.Context, tran *domain.Transaction) error {
	if _, err := t.TransactionByID(ctx, tran.ID); err == nil {
		return domain.InvalidState(domain.EntityTransaction, tran.ID, "transaction already exists")
	}
	t.trans[tran.ID] = tran.Clone()
	t.ops = append(t.ops, op{Kind: opAppendTransaction, Transaction: tran.Clone()})
	return nil
}

var _ usecase.Tx = (*memTx)(nil)
