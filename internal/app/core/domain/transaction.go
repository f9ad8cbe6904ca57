package domain

import (
	"strings"
	"time"
)

// TransactionType 交易方向
type TransactionType string

const (
	// 入帳 (錢櫃增加)
	TransactionTypeIn TransactionType = "IN"
	// 出帳 (錢櫃減少)
	TransactionTypeOut TransactionType = "OUT"
)

// 進貨 / 銷貨的交易標籤
const (
	LabelStockIn  = "STOCK IN"
	LabelStockOut = "STOCK OUT"
)

// ParseTransactionType 解析交易方向 (不分大小寫)
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionTypeIn:
		return TransactionTypeIn, nil
	case TransactionTypeOut:
		return TransactionTypeOut, nil
	default:
		return "", InvalidArgument("transaction type must be IN or OUT")
	}
}

// Valid 是否為合法方向
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIn || t == TransactionTypeOut
}

// Transaction 帳務流水，建立後不可修改或刪除
//
// ArticleIDs 只是參照 (弱關聯)，商品被刪除不影響已存在的流水。
type Transaction struct {
	ID         string          `json:"id"`
	Type       TransactionType `json:"type"`
	Amount     int64           `json:"amount"`
	Label      string          `json:"label"`
	ArticleIDs []string        `json:"articles"`
	CashDeskID string          `json:"cashDeskId"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Clone 深拷貝
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.ArticleIDs = append(make([]string, 0, len(t.ArticleIDs)), t.ArticleIDs...)
	return &c
}
