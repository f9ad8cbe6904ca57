package mysql

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/usecase"
)

// gormTx 單一資料庫交易內的操作，讀取一律 SELECT ... FOR UPDATE (悲觀鎖)
type gormTx struct {
	db *gorm.DB
}

// duplicated 主鍵衝突轉成與記憶體儲存相同的 InvalidState (需開啟 TranslateError)
func duplicated(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.InvalidState(entity, id, entity+" already exists")
	}
	return err
}

func (t *gormTx) locked(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *gormTx) CashDeskForUpdate(ctx context.Context, id string) (*domain.CashDesk, error) {
	var row sqlCashDesk
	err := t.locked(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound(domain.EntityCashDesk, id)
	}
	if err != nil {
		return nil, err
	}
	return toCashDesk(&row), nil
}

func (t *gormTx) StoreCashDeskForUpdate(ctx context.Context, storeID string) (*domain.CashDesk, error) {
	var store sqlStore
	err := t.db.WithContext(ctx).Where("id = ?", storeID).Take(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound(domain.EntityStore, storeID)
	}
	if err != nil {
		return nil, err
	}

	var row sqlCashDesk
	err = t.locked(ctx).Where("store_id = ?", storeID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound(domain.EntityCashDesk, "store:"+storeID)
	}
	if err != nil {
		return nil, err
	}
	return toCashDesk(&row), nil
}

// ArticlesForUpdate 依 ID 排序後鎖定，確保鎖定順序一致以避免死鎖
func (t *gormTx) ArticlesForUpdate(ctx context.Context, ids []string) (map[string]*domain.Article, error) {
	out := make(map[string]*domain.Article, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	lockIDs := append([]string(nil), ids...)
	sort.Strings(lockIDs)

	var rows []sqlArticle
	if err := t.locked(ctx).Where("id IN ?", lockIDs).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = toArticle(&rows[i])
	}
	return out, nil
}

func (t *gormTx) TransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var row sqlTransaction
	err := t.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound(domain.EntityTransaction, id)
	}
	if err != nil {
		return nil, err
	}
	refs, err := loadArticleRefs(t.db.WithContext(ctx), []string{id})
	if err != nil {
		return nil, err
	}
	return toTransaction(&row, refs[id]), nil
}

func (t *gormTx) CreateStore(ctx context.Context, store *domain.Store, desk *domain.CashDesk) error {
	db := t.db.WithContext(ctx)
	if err := db.Create(&sqlStore{
		ID:        store.ID,
		Name:      store.Name,
		OwnerID:   store.OwnerID,
		CreatedAt: store.CreatedAt,
	}).Error; err != nil {
		return duplicated(err, domain.EntityStore, store.ID)
	}
	return db.Create(&sqlCashDesk{
		ID:            desk.ID,
		StoreID:       desk.StoreID,
		CurrentAmount: desk.CurrentAmount,
		CreatedAt:     desk.CreatedAt,
		UpdatedAt:     desk.UpdatedAt,
	}).Error
}

func (t *gormTx) CreateArticle(ctx context.Context, article *domain.Article) error {
	err := t.db.WithContext(ctx).Create(fromArticle(article)).Error
	return duplicated(err, domain.EntityArticle, article.ID)
}

func (t *gormTx) UpdateArticle(ctx context.Context, article *domain.Article) error {
	return t.db.WithContext(ctx).Model(&sqlArticle{}).
		Where("id = ?", article.ID).
		Updates(map[string]any{
			"stock":      article.Stock,
			"updated_at": article.UpdatedAt,
		}).Error
}

func (t *gormTx) DeleteArticle(ctx context.Context, id string) error {
	return t.db.WithContext(ctx).Where("id = ?", id).Delete(&sqlArticle{}).Error
}

func (t *gormTx) UpdateCashDesk(ctx context.Context, desk *domain.CashDesk) error {
	return t.db.WithContext(ctx).Model(&sqlCashDesk{}).
		Where("id = ?", desk.ID).
		Updates(map[string]any{
			"current_amount": desk.CurrentAmount,
			"updated_at":     desk.UpdatedAt,
		}).Error
}

func (t *gormTx) AppendTransaction(ctx context.Context, tran *domain.Transaction) error {
	db := t.db.WithContext(ctx)
	if err := db.Create(&sqlTransaction{
		ID:         tran.ID,
		Type:       string(tran.Type),
		Amount:     tran.Amount,
		Label:      tran.Label,
		CashDeskID: tran.CashDeskID,
		CreatedAt:  tran.CreatedAt,
	}).Error; err != nil {
		return duplicated(err, domain.EntityTransaction, tran.ID)
	}
	if len(tran.ArticleIDs) == 0 {
		return nil
	}
	refs := make([]sqlTransactionArticle, 0, len(tran.ArticleIDs))
	for i, id := range tran.ArticleIDs {
		refs = append(refs, sqlTransactionArticle{TransactionID: tran.ID, ArticleID: id, Position: i})
	}
	return db.Create(&refs).Error
}

var _ usecase.Tx = (*gormTx)(nil)
