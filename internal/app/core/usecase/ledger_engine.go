package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
)

// LedgerEngine 是核心業務邏輯層
//
// 每個操作都在單一 Store.Atomic 內完成：先驗證，再一次寫入
// 商品、錢櫃與流水，任何一步失敗整個單元回滾。
type LedgerEngine struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option 定義 LedgerEngine 的配置選項函數
type Option func(*LedgerEngine)

// WithClock 替換時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(e *LedgerEngine) {
		e.now = now
	}
}

// WithIDGenerator 替換 ID 產生器
func WithIDGenerator(newID func() string) Option {
	return func(e *LedgerEngine) {
		e.newID = newID
	}
}

func NewLedgerEngine(store Store, logger *zap.Logger, opts ...Option) *LedgerEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &LedgerEngine{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewArticle 建立商品的參數，ID 為空時自動產生
type NewArticle struct {
	ID            string
	Name          string
	PurchasePrice int64
	SellingPrice  int64
	Stock         int64
	Unit          string
	StoreID       string
}

func (in NewArticle) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return domain.InvalidArgument("name is required")
	case strings.TrimSpace(in.Unit) == "":
		return domain.InvalidArgument("unit is required")
	case in.StoreID == "":
		return domain.InvalidArgument("storeId is required")
	case in.PurchasePrice < 0 || in.SellingPrice < 0:
		return domain.InvalidArgument("prices must not be negative")
	case in.Stock < 0:
		return domain.InvalidArgument("stock must not be negative")
	}
	return nil
}

// NewTransaction 手動記帳的參數，ID 為空時自動產生
type NewTransaction struct {
	ID         string
	Type       domain.TransactionType
	Amount     int64
	Label      string
	ArticleIDs []string
	CashDeskID string
}

func (in NewTransaction) validate() error {
	switch {
	case !in.Type.Valid():
		return domain.InvalidArgument("transaction type must be IN or OUT")
	case in.Amount < 0:
		return domain.InvalidArgument("amount must not be negative")
	case strings.TrimSpace(in.Label) == "":
		return domain.InvalidArgument("label is required")
	case in.CashDeskID == "":
		return domain.InvalidArgument("cashDeskId is required")
	}
	for _, id := range in.ArticleIDs {
		if id == "" {
			return domain.InvalidArgument("article ids must not be empty")
		}
	}
	return nil
}

// CreateArticle 進貨建立商品
//
// 成本 = 進價 * 數量，從錢櫃扣款並寫一筆 OUT / STOCK IN 流水。
func (e *LedgerEngine) CreateArticle(ctx context.Context, in NewArticle) (*domain.Article, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	cost, err := domain.Cost(in.PurchasePrice, in.Stock)
	if err != nil {
		return nil, err
	}

	id := in.ID
	if id == "" {
		id = e.newID()
	}
	now := e.now().UTC()
	article := &domain.Article{
		ID:            id,
		Name:          in.Name,
		PurchasePrice: in.PurchasePrice,
		SellingPrice:  in.SellingPrice,
		Stock:         in.Stock,
		Unit:          in.Unit,
		StoreID:       in.StoreID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var tran *domain.Transaction
	err = e.atomic(ctx, "create_article", func(tx Tx) error {
		desk, err := tx.StoreCashDeskForUpdate(ctx, in.StoreID)
		if err != nil {
			return err
		}
		existing, err := tx.ArticlesForUpdate(ctx, []string{id})
		if err != nil {
			return err
		}
		if _, ok := existing[id]; ok {
			return domain.InvalidState(domain.EntityArticle, id, "article already exists")
		}
		if err := desk.Debit(cost); err != nil {
			return err
		}
		desk.UpdatedAt = now

		if err := tx.CreateArticle(ctx, article); err != nil {
			return err
		}
		if err := tx.UpdateCashDesk(ctx, desk); err != nil {
			return err
		}
		tran = e.newTransaction(domain.TransactionTypeOut, cost, domain.LabelStockIn, []string{id}, desk.ID, now)
		return tx.AppendTransaction(ctx, tran)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("article created",
		zap.String("article_id", id),
		zap.String("store_id", in.StoreID),
		zap.Int64("stock", in.Stock),
		zap.Int64("cost", cost),
		zap.String("transaction_id", tran.ID))
	return article, nil
}

// Replenish 補貨
//
// 參數:
//
//	articleID: 商品 ID
//	qty: 補貨數量 (>= 1)
//	cashDeskID: 付款的錢櫃
//
// 回傳:
//
//	*domain.Article: 補貨後的商品
//	error: NotFound / InsufficientFunds
func (e *LedgerEngine) Replenish(ctx context.Context, articleID string, qty int64, cashDeskID string) (*domain.Article, error) {
	switch {
	case articleID == "":
		return nil, domain.InvalidArgument("article id is required")
	case cashDeskID == "":
		return nil, domain.InvalidArgument("cashDeskId is required")
	case qty < 1:
		return nil, domain.InvalidArgument("replenishQuantity must be at least 1")
	}

	now := e.now().UTC()
	var article *domain.Article
	var cost int64
	err := e.atomic(ctx, "replenish", func(tx Tx) error {
		desk, err := tx.CashDeskForUpdate(ctx, cashDeskID)
		if err != nil {
			return err
		}
		found, err := tx.ArticlesForUpdate(ctx, []string{articleID})
		if err != nil {
			return err
		}
		a, ok := found[articleID]
		if !ok {
			return domain.NotFound(domain.EntityArticle, articleID)
		}

		cost, err = domain.Cost(a.PurchasePrice, qty)
		if err != nil {
			return err
		}
		if err := desk.Debit(cost); err != nil {
			return err
		}
		if err := a.AddStock(qty); err != nil {
			return err
		}
		a.UpdatedAt = now
		desk.UpdatedAt = now

		if err := tx.UpdateArticle(ctx, a); err != nil {
			return err
		}
		if err := tx.UpdateCashDesk(ctx, desk); err != nil {
			return err
		}
		article = a
		return tx.AppendTransaction(ctx, e.newTransaction(domain.TransactionTypeOut, cost, domain.LabelStockIn, []string{articleID}, desk.ID, now))
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("article replenished",
		zap.String("article_id", articleID),
		zap.Int64("quantity", qty),
		zap.Int64("cost", cost),
		zap.Int64("stock", article.Stock))
	return article, nil
}

// Sell 銷貨 (兩階段：先全部驗證，再全部寫入)
//
// 任何一個商品不存在回傳 NotFound，庫存不足回傳 InsufficientStock
// (指出第一個不足的商品)，此時不會有任何資料被修改。
// 同一商品重複出現時數量累加後再檢查庫存。
func (e *LedgerEngine) Sell(ctx context.Context, articleIDs []string, quantities []int64, cashDeskID string) (*domain.CashDesk, error) {
	switch {
	case cashDeskID == "":
		return nil, domain.InvalidArgument("cashDeskId is required")
	case len(articleIDs) == 0:
		return nil, domain.InvalidArgument("at least one article is required")
	case len(articleIDs) != len(quantities):
		return nil, domain.InvalidArgument("articles and sellQuantities must have the same length")
	}
	for i, id := range articleIDs {
		if id == "" {
			return nil, domain.InvalidArgument("article ids must not be empty")
		}
		if quantities[i] < 1 {
			return nil, domain.InvalidArgument("sell quantities must be at least 1")
		}
	}

	// 依出現順序去重
	ids := uniqueIDs(articleIDs)

	now := e.now().UTC()
	var desk *domain.CashDesk
	var sellCost int64
	err := e.atomic(ctx, "sell", func(tx Tx) error {
		var err error
		desk, err = tx.CashDeskForUpdate(ctx, cashDeskID)
		if err != nil {
			return err
		}
		articles, err := tx.ArticlesForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := articles[id]; !ok {
				return domain.NotFound(domain.EntityArticle, id)
			}
		}

		// Phase 1: 驗證
		requested := make(map[string]int64, len(ids))
		for i, id := range articleIDs {
			a := articles[id]
			total, err := domain.AddAmount(requested[id], quantities[i])
			if err != nil {
				return err
			}
			requested[id] = total
			if a.Stock < total {
				return domain.InsufficientStock(id, a.Stock, total)
			}
			line, err := domain.Cost(a.SellingPrice, quantities[i])
			if err != nil {
				return err
			}
			if sellCost, err = domain.AddAmount(sellCost, line); err != nil {
				return err
			}
		}

		// Phase 2: 寫入
		for _, id := range ids {
			a := articles[id]
			if err := a.RemoveStock(requested[id]); err != nil {
				return err
			}
			a.UpdatedAt = now
			if err := tx.UpdateArticle(ctx, a); err != nil {
				return err
			}
		}
		if err := desk.Credit(sellCost); err != nil {
			return err
		}
		desk.UpdatedAt = now
		if err := tx.UpdateCashDesk(ctx, desk); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, e.newTransaction(domain.TransactionTypeIn, sellCost, domain.LabelStockOut, ids, desk.ID, now))
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("articles sold",
		zap.String("cash_desk_id", cashDeskID),
		zap.Strings("article_ids", ids),
		zap.Int64("amount", sellCost),
		zap.Int64("balance", desk.CurrentAmount))
	return desk, nil
}

// RemoveArticle 刪除庫存為 0 的商品，不產生流水
func (e *LedgerEngine) RemoveArticle(ctx context.Context, articleID string) (*domain.Article, error) {
	if articleID == "" {
		return nil, domain.InvalidArgument("article id is required")
	}

	var removed *domain.Article
	err := e.atomic(ctx, "remove_article", func(tx Tx) error {
		found, err := tx.ArticlesForUpdate(ctx, []string{articleID})
		if err != nil {
			return err
		}
		a, ok := found[articleID]
		if !ok {
			return domain.NotFound(domain.EntityArticle, articleID)
		}
		if !a.CanRemove() {
			return domain.InvalidState(domain.EntityArticle, articleID, "stock must be 0 to remove an article")
		}
		if err := tx.DeleteArticle(ctx, articleID); err != nil {
			return err
		}
		removed = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("article removed", zap.String("article_id", articleID))
	return removed, nil
}

// RecordTransaction 手動記帳
//
// OUT 需檢查餘額，IN 直接入帳。帶入已存在的 ID 時視為重送，
// 直接回傳原流水 (不重複入帳)；內容不一致則回傳 InvalidState。
func (e *LedgerEngine) RecordTransaction(ctx context.Context, in NewTransaction) (*domain.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	var tran *domain.Transaction
	var replayed, lostRace bool
	record := func(tx Tx) error {
		tran, replayed, lostRace = nil, false, false
		if in.ID != "" {
			existing, err := tx.TransactionByID(ctx, in.ID)
			switch {
			case err == nil:
				if !samePayload(existing, in) {
					return domain.InvalidState(domain.EntityTransaction, in.ID, "transaction id already used")
				}
				tran, replayed = existing, true
				return nil
			case domain.KindOf(err) != domain.KindNotFound:
				return err
			}
		}

		desk, err := tx.CashDeskForUpdate(ctx, in.CashDeskID)
		if err != nil {
			return err
		}
		ids := uniqueIDs(in.ArticleIDs)
		if len(ids) > 0 {
			found, err := tx.ArticlesForUpdate(ctx, ids)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, ok := found[id]; !ok {
					return domain.NotFound(domain.EntityArticle, id)
				}
			}
		}

		switch in.Type {
		case domain.TransactionTypeOut:
			err = desk.Debit(in.Amount)
		case domain.TransactionTypeIn:
			err = desk.Credit(in.Amount)
		}
		if err != nil {
			return err
		}
		desk.UpdatedAt = now
		if err := tx.UpdateCashDesk(ctx, desk); err != nil {
			return err
		}

		tran = e.newTransaction(in.Type, in.Amount, in.Label, ids, desk.ID, now)
		if in.ID != "" {
			tran.ID = in.ID
		}
		err = tx.AppendTransaction(ctx, tran)
		lostRace = in.ID != "" && domain.KindOf(err) == domain.KindInvalidState
		return err
	}

	err := e.atomic(ctx, "record_transaction", record)
	if lostRace {
		// 同一個 ID 被並行寫入搶先，重跑一次以走重播 / 衝突判斷
		err = e.atomic(ctx, "record_transaction", record)
	}
	if err != nil {
		return nil, err
	}

	if replayed {
		e.logger.Info("transaction already recorded", zap.String("transaction_id", tran.ID))
		return tran, nil
	}
	e.logger.Info("transaction recorded",
		zap.String("transaction_id", tran.ID),
		zap.String("type", string(tran.Type)),
		zap.Int64("amount", tran.Amount),
		zap.String("cash_desk_id", tran.CashDeskID))
	return tran, nil
}

// atomic 包裝 Store.Atomic：非帳務錯誤一律轉成 PersistenceFailure
func (e *LedgerEngine) atomic(ctx context.Context, op string, fn func(tx Tx) error) error {
	err := e.store.Atomic(ctx, fn)
	if err == nil {
		return nil
	}
	err = domain.PersistenceFailure(err)
	if domain.KindOf(err) == domain.KindPersistenceFailure {
		e.logger.Error("atomic unit failed", zap.String("op", op), zap.Error(err))
	} else {
		e.logger.Debug("operation rejected", zap.String("op", op), zap.Error(err))
	}
	return err
}

func (e *LedgerEngine) newTransaction(t domain.TransactionType, amount int64, label string, articleIDs []string, cashDeskID string, now time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:         e.newID(),
		Type:       t,
		Amount:     amount,
		Label:      label,
		ArticleIDs: append(make([]string, 0, len(articleIDs)), articleIDs...),
		CashDeskID: cashDeskID,
		CreatedAt:  now,
	}
}

func samePayload(t *domain.Transaction, in NewTransaction) bool {
	return t.Type == in.Type && t.Amount == in.Amount && t.CashDeskID == in.CashDeskID && t.Label == in.Label
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
