package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
)

// Client storeledger.v1.Ledger 的用戶端
//
// 回傳的錯誤已經過 FromError 還原，可直接用 errors.Is(err, domain.ErrInsufficientStock) 判斷。
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, FromError(err)
	}
	return out, nil
}

func (c *Client) OpenStore(ctx context.Context, in *OpenStoreRequest, opts ...grpc.CallOption) (*OpenStoreResponse, error) {
	return invoke[OpenStoreResponse](ctx, c, "OpenStore", in, opts)
}

func (c *Client) CreateArticle(ctx context.Context, in *CreateArticleRequest, opts ...grpc.CallOption) (*domain.Article, error) {
	return invoke[domain.Article](ctx, c, "CreateArticle", in, opts)
}

func (c *Client) Replenish(ctx context.Context, in *ReplenishRequest, opts ...grpc.CallOption) (*domain.Article, error) {
	return invoke[domain.Article](ctx, c, "Replenish", in, opts)
}

func (c *Client) Sell(ctx context.Context, in *SellRequest, opts ...grpc.CallOption) (*domain.CashDesk, error) {
	return invoke[domain.CashDesk](ctx, c, "Sell", in, opts)
}

func (c *Client) RemoveArticle(ctx context.Context, in *RemoveArticleRequest, opts ...grpc.CallOption) (*domain.Article, error) {
	return invoke[domain.Article](ctx, c, "RemoveArticle", in, opts)
}

func (c *Client) RecordTransaction(ctx context.Context, in *RecordTransactionRequest, opts ...grpc.CallOption) (*domain.Transaction, error) {
	return invoke[domain.Transaction](ctx, c, "RecordTransaction", in, opts)
}

func (c *Client) GetArticle(ctx context.Context, in *GetArticleRequest, opts ...grpc.CallOption) (*domain.Article, error) {
	return invoke[domain.Article](ctx, c, "GetArticle", in, opts)
}

func (c *Client) GetCashDesk(ctx context.Context, in *GetCashDeskRequest, opts ...grpc.CallOption) (*domain.CashDesk, error) {
	return invoke[domain.CashDesk](ctx, c, "GetCashDesk", in, opts)
}

func (c *Client) GetStore(ctx context.Context, in *GetStoreRequest, opts ...grpc.CallOption) (*OpenStoreResponse, error) {
	return invoke[OpenStoreResponse](ctx, c, "GetStore", in, opts)
}
