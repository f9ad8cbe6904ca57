package mysql

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/usecase"
)

// GormStore 以 GORM 實作的實體儲存 (MySQL，測試時可用 SQLite)
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewGormStore(db *gorm.DB, logger *zap.Logger) *GormStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormStore{
		db:     db,
		logger: logger,
	}
}

// Migrate 建立 / 更新資料表
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&sqlStore{},
		&sqlCashDesk{},
		&sqlArticle{},
		&sqlTransaction{},
		&sqlTransactionArticle{},
	)
}

// Atomic 在單一資料庫交易內執行 fn，fn 回傳錯誤即 Rollback
func (s *GormStore) Atomic(ctx context.Context, fn func(tx usecase.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

// GetArticle 取得商品
func (s *GormStore) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	var row sqlArticle
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound(domain.EntityArticle, id)
	}
	if err != nil {
		return nil, err
	}
	return toArticle(&row), nil
}

// GetStore 取得商店與其錢櫃
func (s *GormStore) GetStore(ctx context.Context, id string) (*domain.Store, *domain.CashDesk, error) {
	db := s.db.WithContext(ctx)

	var store sqlStore
	err := db.Where("id = ?", id).Take(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, domain.NotFound(domain.EntityStore, id)
	}
	if err != nil {
		return nil, nil, err
	}

	var desk sqlCashDesk
	err = db.Where("store_id = ?", id).Take(&desk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, domain.NotFound(domain.EntityCashDesk, "store:"+id)
	}
	if err != nil {
		return nil, nil, err
	}
	return toStore(&store), toCashDesk(&desk), nil
}

// GetCashDesk 取得錢櫃
func (s *GormStore) GetCashDesk(ctx context.Context, id string) (*domain.CashDesk, error) {
	var row sqlCashDesk
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound(domain.EntityCashDesk, id)
	}
	if err != nil {
		return nil, err
	}
	return toCashDesk(&row), nil
}

// ListArticles 依 updated_at 新到舊
func (s *GormStore) ListArticles(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error) {
	var rows []sqlArticle
	query := s.db.WithContext(ctx).
		Where("store_id = ?", q.StoreID).
		Order("updated_at DESC").
		Order("id DESC")
	query = withPage(query, q.Page)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Article, 0, len(rows))
	for i := range rows {
		out = append(out, *toArticle(&rows[i]))
	}
	return out, nil
}

// CountArticles 商店商品數
func (s *GormStore) CountArticles(ctx context.Context, storeID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&sqlArticle{}).Where("store_id = ?", storeID).Count(&n).Error
	return n, err
}

// ListTransactions 依 created_at 新到舊，並帶出參照的商品 ID
func (s *GormStore) ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.Transaction, error) {
	var rows []sqlTransaction
	query := transactionFilter(s.db.WithContext(ctx), q, true).
		Order("created_at DESC").
		Order("id DESC")
	query = withPage(query, q.Page)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []domain.Transaction{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	refs, err := loadArticleRefs(s.db.WithContext(ctx), ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, *toTransaction(&rows[i], refs[rows[i].ID]))
	}
	return out, nil
}

// CountTransactions 錢櫃流水筆數
func (s *GormStore) CountTransactions(ctx context.Context, q domain.TransactionQuery) (int64, error) {
	var n int64
	err := transactionFilter(s.db.WithContext(ctx), q, false).Count(&n).Error
	return n, err
}

func transactionFilter(db *gorm.DB, q domain.TransactionQuery, withType bool) *gorm.DB {
	query := db.Model(&sqlTransaction{}).Where("cash_desk_id = ?", q.CashDeskID)
	if withType && q.Type != "" {
		query = query.Where("type = ?", string(q.Type))
	}
	if q.Period.Enabled() {
		query = query.Where("created_at BETWEEN ? AND ?", q.Period.Start.UTC(), q.Period.End.UTC())
	}
	return query
}

func withPage(db *gorm.DB, p domain.Page) *gorm.DB {
	if !p.Enabled() {
		return db
	}
	return db.Offset(p.Offset()).Limit(p.Limit())
}

// loadArticleRefs 批次讀取流水參照的商品 ID，依寫入順序排列
func loadArticleRefs(db *gorm.DB, transactionIDs []string) (map[string][]string, error) {
	var refs []sqlTransactionArticle
	err := db.Where("transaction_id IN ?", transactionIDs).
		Order("transaction_id").
		Order("position").
		Find(&refs).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(transactionIDs))
	for _, r := range refs {
		out[r.TransactionID] = append(out[r.TransactionID], r.ArticleID)
	}
	return out, nil
}

var _ usecase.Store = (*GormStore)(nil)
