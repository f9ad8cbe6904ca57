package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := NotFound(EntityArticle, "a1")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, `not found: article "a1"`, err.Error())

	wrapped := fmt.Errorf("load: %w", InsufficientStock("b", 1, 2))
	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))
	assert.Equal(t, KindInsufficientStock, KindOf(wrapped))

	var de *Error
	require.True(t, errors.As(wrapped, &de))
	assert.Equal(t, "b", de.ID)
}

func TestPersistenceFailure(t *testing.T) {
	assert.NoError(t, PersistenceFailure(nil))

	cause := errors.New("connection reset")
	err := PersistenceFailure(cause)
	assert.True(t, errors.Is(err, ErrPersistenceFailure))
	assert.True(t, errors.Is(err, cause))

	// 已分類的錯誤不會被重新包裝
	funds := InsufficientFunds("d", 0, 1)
	assert.Same(t, funds, PersistenceFailure(funds))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("x")))
	assert.Equal(t, "UNKNOWN", ErrorKind(0).String())
}

func TestCost(t *testing.T) {
	got, err := Cost(250, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got)

	got, err = Cost(0, 99)
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = Cost(math.MaxInt64, 2)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = Cost(-1, 2)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestAddAmount_Overflow(t *testing.T) {
	_, err := AddAmount(math.MaxInt64, 1)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	got, err := AddAmount(40, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestArticle_Stock(t *testing.T) {
	a := &Article{ID: "a", Stock: 3}

	require.NoError(t, a.AddStock(2))
	assert.Equal(t, int64(5), a.Stock)

	err := a.RemoveStock(6)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, int64(5), a.Stock)

	require.NoError(t, a.RemoveStock(5))
	assert.True(t, a.CanRemove())

	assert.Error(t, a.AddStock(0))
}

func TestCashDesk_DebitCredit(t *testing.T) {
	d := &CashDesk{ID: "d", CurrentAmount: 10}

	err := d.Debit(11)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, int64(10), d.CurrentAmount)

	require.NoError(t, d.Debit(10))
	assert.Zero(t, d.CurrentAmount)

	require.NoError(t, d.Credit(7))
	assert.Equal(t, int64(7), d.CurrentAmount)

	d.CurrentAmount = math.MaxInt64
	assert.True(t, errors.Is(d.Credit(1), ErrInvalidArgument))
}

func TestPage(t *testing.T) {
	p := Page{Page: 2, PageSize: 5}
	assert.True(t, p.Enabled())
	assert.Equal(t, 5, p.Offset())
	assert.Equal(t, 5, p.Limit())

	for _, off := range []Page{{}, {Page: 1}, {PageSize: 5}, {Page: -1, PageSize: 5}} {
		assert.False(t, off.Enabled())
		assert.Equal(t, 0, off.Offset())
		assert.Equal(t, -1, off.Limit())
	}
}

func TestPage_Validate(t *testing.T) {
	assert.NoError(t, Page{}.Validate())
	assert.NoError(t, Page{Page: 3, PageSize: 10}.Validate())
	assert.NoError(t, Page{Page: 1, PageSize: math.MaxInt}.Validate())

	err := Page{Page: 1 << 62, PageSize: 4}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	err = Page{Page: 2, PageSize: math.MaxInt}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestPeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	p := Period{Start: start, End: end}

	assert.True(t, p.Contains(start))
	assert.True(t, p.Contains(end))
	assert.True(t, p.Contains(start.Add(time.Hour)))
	assert.False(t, p.Contains(end.Add(time.Nanosecond)))
	assert.False(t, p.Contains(start.Add(-time.Nanosecond)))

	// 只給一端時不過濾
	assert.True(t, Period{Start: start}.Contains(start.AddDate(-1, 0, 0)))
}

func TestParseTransactionType(t *testing.T) {
	got, err := ParseTransactionType(" out ")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeOut, got)

	_, err = ParseTransactionType("refund")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestTransaction_CloneIsDeep(t *testing.T) {
	tr := &Transaction{ID: "t", ArticleIDs: []string{"a"}}
	cp := tr.Clone()
	cp.ArticleIDs[0] = "b"
	assert.Equal(t, "a", tr.ArticleIDs[0])
}
