package domain

import (
	"math"
	"time"
)

// Page 分頁參數，Page 與 PageSize 都大於 0 才分頁
type Page struct {
	Page     int
	PageSize int
}

// Enabled 是否需要分頁
func (p Page) Enabled() bool {
	return p.Page > 0 && p.PageSize > 0
}

// Validate 略過筆數必須能以 int 表示
func (p Page) Validate() error {
	if p.Enabled() && p.Page-1 > math.MaxInt/p.PageSize {
		return InvalidArgument("page out of range")
	}
	return nil
}

// Offset 略過筆數
func (p Page) Offset() int {
	if !p.Enabled() {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Limit 取回筆數，-1 表示不限
func (p Page) Limit() int {
	if !p.Enabled() {
		return -1
	}
	return p.PageSize
}

// Period 日期區間 [Start, End]，任一端為零值則不過濾
type Period struct {
	Start time.Time
	End   time.Time
}

// Enabled 是否需要過濾日期
func (p Period) Enabled() bool {
	return !p.Start.IsZero() && !p.End.IsZero()
}

// Contains 是否落在區間內 (含頭尾)
func (p Period) Contains(t time.Time) bool {
	if !p.Enabled() {
		return true
	}
	return !t.Before(p.Start) && !t.After(p.End)
}

// ArticleQuery 商品查詢條件
type ArticleQuery struct {
	StoreID string
	Page    Page
}

// TransactionQuery 流水查詢條件，Type 為空表示不過濾
type TransactionQuery struct {
	CashDeskID string
	Type       TransactionType
	Period     Period
	Page       Page
}
