package usecase

import (
	"context"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
)

// Reporting 唯讀查詢 (商品 / 流水列表與筆數)
type Reporting struct {
	reader Reader
}

func NewReporting(reader Reader) *Reporting {
	return &Reporting{reader: reader}
}

// ListArticles 依更新時間新到舊列出商店的商品
func (r *Reporting) ListArticles(ctx context.Context, storeID string, page domain.Page) ([]domain.Article, error) {
	if storeID == "" {
		return nil, domain.InvalidArgument("storeId is required")
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}
	articles, err := r.reader.ListArticles(ctx, domain.ArticleQuery{StoreID: storeID, Page: page})
	return articles, domain.PersistenceFailure(err)
}

// CountArticles 商店的商品數
func (r *Reporting) CountArticles(ctx context.Context, storeID string) (int64, error) {
	if storeID == "" {
		return 0, domain.InvalidArgument("storeId is required")
	}
	n, err := r.reader.CountArticles(ctx, storeID)
	return n, domain.PersistenceFailure(err)
}

// ListTransactions 依建立時間新到舊列出錢櫃的流水
func (r *Reporting) ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.Transaction, error) {
	if q.CashDeskID == "" {
		return nil, domain.InvalidArgument("cashDeskId is required")
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, domain.InvalidArgument("transaction type must be IN or OUT")
	}
	if err := q.Page.Validate(); err != nil {
		return nil, err
	}
	trans, err := r.reader.ListTransactions(ctx, q)
	return trans, domain.PersistenceFailure(err)
}

// CountTransactions 錢櫃的流水筆數 (只套用日期條件)
func (r *Reporting) CountTransactions(ctx context.Context, cashDeskID string, period domain.Period) (int64, error) {
	if cashDeskID == "" {
		return 0, domain.InvalidArgument("cashDeskId is required")
	}
	n, err := r.reader.CountTransactions(ctx, domain.TransactionQuery{CashDeskID: cashDeskID, Period: period})
	return n, domain.PersistenceFailure(err)
}

// GetStore 取得商店與其錢櫃，前端以此取得 cashDeskId
func (r *Reporting) GetStore(ctx context.Context, id string) (*domain.Store, *domain.CashDesk, error) {
	store, desk, err := r.reader.GetStore(ctx, id)
	if err != nil {
		return nil, nil, domain.PersistenceFailure(err)
	}
	return store, desk, nil
}

// GetArticle 取得單一商品
func (r *Reporting) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	a, err := r.reader.GetArticle(ctx, id)
	if err != nil {
		return nil, domain.PersistenceFailure(err)
	}
	return a, nil
}

// GetCashDesk 取得錢櫃 (含目前餘額)
func (r *Reporting) GetCashDesk(ctx context.Context, id string) (*domain.CashDesk, error) {
	d, err := r.reader.GetCashDesk(ctx, id)
	if err != nil {
		return nil, domain.PersistenceFailure(err)
	}
	return d, nil
}
