package domain

import "time"

// 錯誤訊息中使用的資料名稱
const (
	EntityStore       = "store"
	EntityCashDesk    = "cash desk"
	EntityArticle     = "article"
	EntityTransaction = "transaction"
)

// Store 商店，擁有一個錢櫃與多個商品
type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}
