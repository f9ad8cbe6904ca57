package mysql

import (
	"time"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
)

// 時間欄位由核心層決定，關閉 GORM 自動寫入時間

// sqlStore 對應資料庫的 stores 表
type sqlStore struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"size:255;not null"`
	OwnerID   string    `gorm:"size:64;index"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;precision:6"`
}

func (*sqlStore) TableName() string {
	return "stores"
}

// sqlCashDesk 對應資料庫的 cash_desks 表，一個商店只有一個錢櫃
type sqlCashDesk struct {
	ID            string    `gorm:"primaryKey;size:64"`
	StoreID       string    `gorm:"size:64;not null;uniqueIndex"`
	CurrentAmount int64     `gorm:"not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false;precision:6"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false;precision:6"`
}

func (*sqlCashDesk) TableName() string {
	return "cash_desks"
}

// sqlArticle 對應資料庫的 articles 表
type sqlArticle struct {
	ID            string    `gorm:"primaryKey;size:64"`
	Name          string    `gorm:"size:255;not null"`
	PurchasePrice int64     `gorm:"not null"`
	SellingPrice  int64     `gorm:"not null"`
	Stock         int64     `gorm:"not null"`
	Unit          string    `gorm:"size:64;not null"`
	StoreID       string    `gorm:"size:64;not null;index:idx_articles_store_updated,priority:1"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false;precision:6"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false;precision:6;index:idx_articles_store_updated,priority:2"`
}

func (*sqlArticle) TableName() string {
	return "articles"
}

// sqlTransaction 對應資料庫的 transactions 表 (只新增，不更新不刪除)
type sqlTransaction struct {
	ID         string    `gorm:"primaryKey;size:64"`
	Type       string    `gorm:"size:8;not null"`
	Amount     int64     `gorm:"not null"`
	Label      string    `gorm:"size:255;not null"`
	CashDeskID string    `gorm:"size:64;not null;index:idx_transactions_desk_created,priority:1"`
	CreatedAt  time.Time `gorm:"autoCreateTime:false;precision:6;index:idx_transactions_desk_created,priority:2"`
}

func (*sqlTransaction) TableName() string {
	return "transactions"
}

// sqlTransactionArticle 流水與商品的參照 (不建外鍵，商品刪除不影響流水)
type sqlTransactionArticle struct {
	TransactionID string `gorm:"primaryKey;size:64"`
	ArticleID     string `gorm:"primaryKey;size:64;index"`
	Position      int    `gorm:"not null"`
}

func (*sqlTransactionArticle) TableName() string {
	return "transaction_articles"
}

func toArticle(r *sqlArticle) *domain.Article {
	return &domain.Article{
		ID:            r.ID,
		Name:          r.Name,
		PurchasePrice: r.PurchasePrice,
		SellingPrice:  r.SellingPrice,
		Stock:         r.Stock,
		Unit:          r.Unit,
		StoreID:       r.StoreID,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func fromArticle(a *domain.Article) *sqlArticle {
	return &sqlArticle{
		ID:            a.ID,
		Name:          a.Name,
		PurchasePrice: a.PurchasePrice,
		SellingPrice:  a.SellingPrice,
		Stock:         a.Stock,
		Unit:          a.Unit,
		StoreID:       a.StoreID,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toStore(r *sqlStore) *domain.Store {
	return &domain.Store{
		ID:        r.ID,
		Name:      r.Name,
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func toCashDesk(r *sqlCashDesk) *domain.CashDesk {
	return &domain.CashDesk{
		ID:            r.ID,
		CurrentAmount: r.CurrentAmount,
		StoreID:       r.StoreID,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func toTransaction(r *sqlTransaction, articleIDs []string) *domain.Transaction {
	if articleIDs == nil {
		articleIDs = []string{}
	}
	return &domain.Transaction{
		ID:         r.ID,
		Type:       domain.TransactionType(r.Type),
		Amount:     r.Amount,
		Label:      r.Label,
		ArticleIDs: articleIDs,
		CashDeskID: r.CashDeskID,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}
