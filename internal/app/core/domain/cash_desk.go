package domain

import "time"

// CashDesk 商店的錢櫃，每個商店恰好一個
type CashDesk struct {
	ID            string    `json:"id"`
	CurrentAmount int64     `json:"currentAmount"`
	StoreID       string    `json:"storeId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Credit 入帳
func (c *CashDesk) Credit(amount int64) error {
	if amount < 0 {
		return InvalidArgument("amount must not be negative")
	}
	if c.CurrentAmount > maxAmount-amount {
		return InvalidArgument("cash desk amount overflow")
	}
	c.CurrentAmount += amount
	return nil
}

// Debit 出帳，餘額不可為負
func (c *CashDesk) Debit(amount int64) error {
	if amount < 0 {
		return InvalidArgument("amount must not be negative")
	}
	if c.CurrentAmount < amount {
		return InsufficientFunds(c.ID, c.CurrentAmount, amount)
	}
	c.CurrentAmount -= amount
	return nil
}

// Clone 複製一份
func (c *CashDesk) Clone() *CashDesk {
	cp := *c
	return &cp
}
