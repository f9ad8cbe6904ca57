package usecase

import (
	"context"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
)

// Store 是實體儲存的介面 (Entity Store)
//
// Atomic 內的所有寫入要嘛全部成功，要嘛全部不生效；
// fn 回傳錯誤時整個單元回滾。
type Store interface {
	Reader
	// Atomic 在單一交易 (或單一鎖) 內執行 fn
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Tx 是 Atomic 單元內可用的操作
//
// 讀取方法會鎖定讀到的資料列直到單元結束，避免 read-modify-write 交錯。
// 找不到資料時回傳 domain.NotFound。
type Tx interface {
	// CashDeskForUpdate 依 ID 鎖定錢櫃
	CashDeskForUpdate(ctx context.Context, id string) (*domain.CashDesk, error)
	// StoreCashDeskForUpdate 依商店鎖定其錢櫃，商店或錢櫃不存在皆回傳 NotFound
	StoreCashDeskForUpdate(ctx context.Context, storeID string) (*domain.CashDesk, error)
	// ArticlesForUpdate 鎖定多個商品，只回傳存在者
	ArticlesForUpdate(ctx context.Context, ids []string) (map[string]*domain.Article, error)
	// TransactionByID 查詢已存在的流水 (冪等檢查)
	TransactionByID(ctx context.Context, id string) (*domain.Transaction, error)

	CreateStore(ctx context.Context, store *domain.Store, desk *domain.CashDesk) error
	CreateArticle(ctx context.Context, article *domain.Article) error
	UpdateArticle(ctx context.Context, article *domain.Article) error
	DeleteArticle(ctx context.Context, id string) error
	UpdateCashDesk(ctx context.Context, desk *domain.CashDesk) error
	AppendTransaction(ctx context.Context, tran *domain.Transaction) error
}

// Reader 唯讀查詢，不需與寫入同步
type Reader interface {
	// GetStore 取得商店與其錢櫃
	GetStore(ctx context.Context, id string) (*domain.Store, *domain.CashDesk, error)
	GetArticle(ctx context.Context, id string) (*domain.Article, error)
	GetCashDesk(ctx context.Context, id string) (*domain.CashDesk, error)
	ListArticles(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error)
	CountArticles(ctx context.Context, storeID string) (int64, error)
	ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.Transaction, error)
	CountTransactions(ctx context.Context, q domain.TransactionQuery) (int64, error)
}
