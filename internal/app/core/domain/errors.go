package domain

import (
	"errors"
	"fmt"
)

// ErrorKind 錯誤分類，呼叫端依此分辨失敗原因
type ErrorKind uint8

const (
	KindNotFound ErrorKind = iota + 1
	KindInsufficientFunds
	KindInsufficientStock
	KindInvalidState
	KindPersistenceFailure
	KindInvalidArgument
)

// String 回傳穩定的錯誤代碼 (對外協定使用，不可任意更改)
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case KindInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case KindInvalidState:
		return "INVALID_STATE"
	case KindPersistenceFailure:
		return "PERSISTENCE_FAILURE"
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrNotFound 找不到商店 / 錢櫃 / 商品
	ErrNotFound = &Error{Kind: KindNotFound}

	// ErrInsufficientFunds 錢櫃餘額不足
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}

	// ErrInsufficientStock 商品庫存不足
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}

	// ErrInvalidState 違反狀態前置條件 (例如刪除仍有庫存的商品)
	ErrInvalidState = &Error{Kind: KindInvalidState}

	// ErrPersistenceFailure 底層儲存寫入失敗
	ErrPersistenceFailure = &Error{Kind: KindPersistenceFailure}

	// ErrInvalidArgument 參數不合法
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
)

// Error 帳務錯誤
//
// Entity/ID 指出出問題的資料 (例如庫存不足的商品)，Err 為底層原因。
type Error struct {
	Kind   ErrorKind
	Entity string
	ID     string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Entity != "" {
		msg = fmt.Sprintf("%s: %s %q", msg, e.Entity, e.ID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 只比對 Kind，讓 errors.Is(err, ErrNotFound) 對任何 NotFound 都成立
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf 取出錯誤分類，非帳務錯誤回傳 0
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// NotFound 建立找不到資料的錯誤
func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Msg: "not found", Entity: entity, ID: id}
}

// InsufficientFunds 建立餘額不足的錯誤
func InsufficientFunds(cashDeskID string, balance, required int64) error {
	return &Error{
		Kind:   KindInsufficientFunds,
		Msg:    fmt.Sprintf("insufficient funds (balance %d, required %d)", balance, required),
		Entity: EntityCashDesk,
		ID:     cashDeskID,
	}
}

// InsufficientStock 建立庫存不足的錯誤，ID 為第一個不足的商品
func InsufficientStock(articleID string, stock, requested int64) error {
	return &Error{
		Kind:   KindInsufficientStock,
		Msg:    fmt.Sprintf("insufficient stock (stock %d, requested %d)", stock, requested),
		Entity: EntityArticle,
		ID:     articleID,
	}
}

// InvalidState 建立狀態錯誤
func InvalidState(entity, id, msg string) error {
	return &Error{Kind: KindInvalidState, Msg: msg, Entity: entity, ID: id}
}

// InvalidArgument 建立參數錯誤
func InvalidArgument(msg string) error {
	return &Error{Kind: KindInvalidArgument, Msg: msg}
}

// PersistenceFailure 將底層錯誤包成寫入失敗，已是帳務錯誤者原樣回傳
func PersistenceFailure(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != 0 {
		return err
	}
	return &Error{Kind: KindPersistenceFailure, Msg: "persistence failure", Err: err}
}
