package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/usecase"
)

// Ledger 寫入操作 (由 usecase.LedgerEngine 實作)
type Ledger interface {
	OpenStore(ctx context.Context, in usecase.NewStore) (*domain.Store, *domain.CashDesk, error)
	CreateArticle(ctx context.Context, in usecase.NewArticle) (*domain.Article, error)
	Replenish(ctx context.Context, articleID string, qty int64, cashDeskID string) (*domain.Article, error)
	Sell(ctx context.Context, articleIDs []string, quantities []int64, cashDeskID string) (*domain.CashDesk, error)
	RemoveArticle(ctx context.Context, articleID string) (*domain.Article, error)
	RecordTransaction(ctx context.Context, in usecase.NewTransaction) (*domain.Transaction, error)
}

// Reports 唯讀查詢 (由 usecase.Reporting 實作)
type Reports interface {
	ListArticles(ctx context.Context, storeID string, page domain.Page) ([]domain.Article, error)
	CountArticles(ctx context.Context, storeID string) (int64, error)
	ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.Transaction, error)
	CountTransactions(ctx context.Context, cashDeskID string, period domain.Period) (int64, error)
	GetArticle(ctx context.Context, id string) (*domain.Article, error)
	GetCashDesk(ctx context.Context, id string) (*domain.CashDesk, error)
	GetStore(ctx context.Context, id string) (*domain.Store, *domain.CashDesk, error)
}

// Handler 把 HTTP 請求轉成 ledger / reporting 呼叫
type Handler struct {
	ledger  Ledger
	reports Reports
	logger  *zap.Logger
}

func NewHandler(ledger Ledger, reports Reports, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ledger: ledger, reports: reports, logger: logger}
}

type openStoreRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}

type openStoreResponse struct {
	Store    *domain.Store    `json:"store"`
	CashDesk *domain.CashDesk `json:"cashDesk"`
}

type createArticleRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PurchasePrice int64  `json:"purchasePrice"`
	SellingPrice  int64  `json:"sellingPrice"`
	Stock         int64  `json:"stock"`
	Unit          string `json:"unit"`
	StoreID       string `json:"storeId"`
}

type sellRequest struct {
	Articles       []string `json:"articles"`
	SellQuantities []int64  `json:"sellQuantities"`
	CashDeskID     string   `json:"cashDeskId" binding:"required"`
}

type replenishRequest struct {
	ReplenishQuantity int64  `json:"replenishQuantity" binding:"required,min=1"`
	CashDeskID        string `json:"cashDeskId" binding:"required"`
}

type createTransactionRequest struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Amount     int64    `json:"amount"`
	Label      string   `json:"label"`
	Articles   []string `json:"articles"`
	CashDeskID string   `json:"cashDeskId" binding:"required"`
}

// OpenStore POST /stores
func (h *Handler) OpenStore(c *gin.Context) {
	var req openStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	store, desk, err := h.ledger.OpenStore(c.Request.Context(), usecase.NewStore{
		ID:      req.ID,
		Name:    req.Name,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, openStoreResponse{Store: store, CashDesk: desk})
}

// GetStore GET /stores/:id (回傳商店與其錢櫃)
func (h *Handler) GetStore(c *gin.Context) {
	store, desk, err := h.reports.GetStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, openStoreResponse{Store: store, CashDesk: desk})
}

// GetCashDesk GET /cash-desks/:id
func (h *Handler) GetCashDesk(c *gin.Context) {
	desk, err := h.reports.GetCashDesk(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, desk)
}

// CreateArticle POST /articles
func (h *Handler) CreateArticle(c *gin.Context) {
	var req createArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	article, err := h.ledger.CreateArticle(c.Request.Context(), usecase.NewArticle{
		ID:            req.ID,
		Name:          req.Name,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		Stock:         req.Stock,
		Unit:          req.Unit,
		StoreID:       req.StoreID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// ListArticles GET /articles?storeId&page&pageSize
func (h *Handler) ListArticles(c *gin.Context) {
	page, ok := h.parsePage(c)
	if !ok {
		return
	}

	articles, err := h.reports.ListArticles(c.Request.Context(), c.Query("storeId"), page)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if articles == nil {
		articles = []domain.Article{}
	}
	c.JSON(http.StatusOK, articles)
}

// Sell POST /articles/sell
func (h *Handler) Sell(c *gin.Context) {
	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	desk, err := h.ledger.Sell(c.Request.Context(), req.Articles, req.SellQuantities, req.CashDeskID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, desk)
}

// CountArticles GET /articles/count?storeId
func (h *Handler) CountArticles(c *gin.Context) {
	n, err := h.reports.CountArticles(c.Request.Context(), c.Query("storeId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// GetArticle GET /articles/:id
func (h *Handler) GetArticle(c *gin.Context) {
	article, err := h.reports.GetArticle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Replenish PATCH /articles/:id
func (h *Handler) Replenish(c *gin.Context) {
	var req replenishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	article, err := h.ledger.Replenish(c.Request.Context(), c.Param("id"), req.ReplenishQuantity, req.CashDeskID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// RemoveArticle DELETE /articles/:id
func (h *Handler) RemoveArticle(c *gin.Context) {
	article, err := h.ledger.RemoveArticle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// RecordTransaction POST /transactions
func (h *Handler) RecordTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	tran, err := h.ledger.RecordTransaction(c.Request.Context(), usecase.NewTransaction{
		ID:         req.ID,
		Type:       domain.TransactionType(req.Type),
		Amount:     req.Amount,
		Label:      req.Label,
		ArticleIDs: req.Articles,
		CashDeskID: req.CashDeskID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tran)
}

// ListTransactions GET /transactions?cashDeskId&page&pageSize&type&startDate&endDate
func (h *Handler) ListTransactions(c *gin.Context) {
	page, ok := h.parsePage(c)
	if !ok {
		return
	}
	period, ok := h.parsePeriod(c)
	if !ok {
		return
	}
	var tranType domain.TransactionType
	if v := c.Query("type"); v != "" {
		var err error
		if tranType, err = domain.ParseTransactionType(v); err != nil {
			h.writeError(c, err)
			return
		}
	}

	trans, err := h.reports.ListTransactions(c.Request.Context(), domain.TransactionQuery{
		CashDeskID: c.Query("cashDeskId"),
		Type:       tranType,
		Period:     period,
		Page:       page,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	if trans == nil {
		trans = []domain.Transaction{}
	}
	c.JSON(http.StatusOK, trans)
}

// CountTransactions GET /transactions/count?cashDeskId&startDate&endDate
func (h *Handler) CountTransactions(c *gin.Context) {
	period, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	n, err := h.reports.CountTransactions(c.Request.Context(), c.Query("cashDeskId"), period)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}
