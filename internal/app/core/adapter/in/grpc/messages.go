package grpc

import "github.com/JoeShih716/go-store-ledger/internal/app/core/domain"

type OpenStoreRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}

type OpenStoreResponse struct {
	Store    *domain.Store    `json:"store"`
	CashDesk *domain.CashDesk `json:"cashDesk"`
}

type CreateArticleRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PurchasePrice int64  `json:"purchasePrice"`
	SellingPrice  int64  `json:"sellingPrice"`
	Stock         int64  `json:"stock"`
	Unit          string `json:"unit"`
	StoreID       string `json:"storeId"`
}

type ReplenishRequest struct {
	ArticleID  string `json:"articleId"`
	Quantity   int64  `json:"replenishQuantity"`
	CashDeskID string `json:"cashDeskId"`
}

type SellRequest struct {
	ArticleIDs []string `json:"articles"`
	Quantities []int64  `json:"sellQuantities"`
	CashDeskID string   `json:"cashDeskId"`
}

type RemoveArticleRequest struct {
	ArticleID string `json:"articleId"`
}

type RecordTransactionRequest struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Amount     int64    `json:"amount"`
	Label      string   `json:"label"`
	ArticleIDs []string `json:"articles"`
	CashDeskID string   `json:"cashDeskId"`
}

type GetArticleRequest struct {
	ArticleID string `json:"articleId"`
}

type GetCashDeskRequest struct {
	CashDeskID string `json:"cashDeskId"`
}

type GetStoreRequest struct {
	StoreID string `json:"storeId"`
}
