package domain

import (
	"math"
	"math/bits"
	"time"
)

const maxAmount = math.MaxInt64

// Article 庫存商品
type Article struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	PurchasePrice int64     `json:"purchasePrice"`
	SellingPrice  int64     `json:"sellingPrice"`
	Stock         int64     `json:"stock"`
	Unit          string    `json:"unit"`
	StoreID       string    `json:"storeId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AddStock 補貨
func (a *Article) AddStock(qty int64) error {
	if qty < 1 {
		return InvalidArgument("quantity must be at least 1")
	}
	if a.Stock > maxAmount-qty {
		return InvalidArgument("article stock overflow")
	}
	a.Stock += qty
	return nil
}

// RemoveStock 出貨，庫存不可為負
func (a *Article) RemoveStock(qty int64) error {
	if qty < 1 {
		return InvalidArgument("quantity must be at least 1")
	}
	if a.Stock < qty {
		return InsufficientStock(a.ID, a.Stock, qty)
	}
	a.Stock -= qty
	return nil
}

// CanRemove 只有庫存為 0 的商品可以刪除
func (a *Article) CanRemove() bool {
	return a.Stock == 0
}

// Clone 複製一份
func (a *Article) Clone() *Article {
	cp := *a
	return &cp
}

// Cost 計算 price * qty，溢位時回傳錯誤
func Cost(price, qty int64) (int64, error) {
	if price < 0 || qty < 0 {
		return 0, InvalidArgument("price and quantity must not be negative")
	}
	hi, lo := bits.Mul64(uint64(price), uint64(qty))
	if hi != 0 || lo > maxAmount {
		return 0, InvalidArgument("amount overflow")
	}
	return int64(lo), nil
}

// AddAmount 金額相加，溢位時回傳錯誤
func AddAmount(a, b int64) (int64, error) {
	if a > maxAmount-b {
		return 0, InvalidArgument("amount overflow")
	}
	return a + b, nil
}
