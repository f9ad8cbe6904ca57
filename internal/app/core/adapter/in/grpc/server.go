package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/usecase"
)

// ServiceName gRPC 服務全名
const ServiceName = "storeledger.v1.Ledger"

// Ledger 寫入操作 (由 usecase.LedgerEngine 實作)
type Ledger interface {
	OpenStore(ctx context.Context, in usecase.NewStore) (*domain.Store, *domain.CashDesk, error)
	CreateArticle(ctx context.Context, in usecase.NewArticle) (*domain.Article, error)
	Replenish(ctx context.Context, articleID string, qty int64, cashDeskID string) (*domain.Article, error)
	Sell(ctx context.Context, articleIDs []string, quantities []int64, cashDeskID string) (*domain.CashDesk, error)
	RemoveArticle(ctx context.Context, articleID string) (*domain.Article, error)
	RecordTransaction(ctx context.Context, in usecase.NewTransaction) (*domain.Transaction, error)
}

// Reports 點查 (由 usecase.Reporting 實作)
type Reports interface {
	GetArticle(ctx context.Context, id string) (*domain.Article, error)
	GetCashDesk(ctx context.Context, id string) (*domain.CashDesk, error)
	GetStore(ctx context.Context, id string) (*domain.Store, *domain.CashDesk, error)
}

// LedgerService 是 ServiceDesc 的 HandlerType
type LedgerService interface {
	OpenStore(context.Context, *OpenStoreRequest) (*OpenStoreResponse, error)
	CreateArticle(context.Context, *CreateArticleRequest) (*domain.Article, error)
	Replenish(context.Context, *ReplenishRequest) (*domain.Article, error)
	Sell(context.Context, *SellRequest) (*domain.CashDesk, error)
	RemoveArticle(context.Context, *RemoveArticleRequest) (*domain.Article, error)
	RecordTransaction(context.Context, *RecordTransactionRequest) (*domain.Transaction, error)
	GetArticle(context.Context, *GetArticleRequest) (*domain.Article, error)
	GetCashDesk(context.Context, *GetCashDeskRequest) (*domain.CashDesk, error)
	GetStore(context.Context, *GetStoreRequest) (*OpenStoreResponse, error)
}

type GrpcServer struct {
	ledger  Ledger
	reports Reports
}

func NewGrpcServer(ledger Ledger, reports Reports) *GrpcServer {
	return &GrpcServer{
		ledger:  ledger,
		reports: reports,
	}
}

// Register 將服務掛到 grpc.Server
func Register(s grpc.ServiceRegistrar, srv LedgerService) {
	s.RegisterService(&ServiceDesc, srv)
}

func (s *GrpcServer) OpenStore(ctx context.Context, req *OpenStoreRequest) (*OpenStoreResponse, error) {
	store, desk, err := s.ledger.OpenStore(ctx, usecase.NewStore{
		ID:      req.ID,
		Name:    req.Name,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &OpenStoreResponse{Store: store, CashDesk: desk}, nil
}

func (s *GrpcServer) CreateArticle(ctx context.Context, req *CreateArticleRequest) (*domain.Article, error) {
	article, err := s.ledger.CreateArticle(ctx, usecase.NewArticle{
		ID:            req.ID,
		Name:          req.Name,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		Stock:         req.Stock,
		Unit:          req.Unit,
		StoreID:       req.StoreID,
	})
	return article, toStatus(err)
}

func (s *GrpcServer) Replenish(ctx context.Context, req *ReplenishRequest) (*domain.Article, error) {
	article, err := s.ledger.Replenish(ctx, req.ArticleID, req.Quantity, req.CashDeskID)
	return article, toStatus(err)
}

func (s *GrpcServer) Sell(ctx context.Context, req *SellRequest) (*domain.CashDesk, error) {
	desk, err := s.ledger.Sell(ctx, req.ArticleIDs, req.Quantities, req.CashDeskID)
	return desk, toStatus(err)
}

func (s *GrpcServer) RemoveArticle(ctx context.Context, req *RemoveArticleRequest) (*domain.Article, error) {
	article, err := s.ledger.RemoveArticle(ctx, req.ArticleID)
	return article, toStatus(err)
}

func (s *GrpcServer) RecordTransaction(ctx context.Context, req *RecordTransactionRequest) (*domain.Transaction, error) {
	tran, err := s.ledger.RecordTransaction(ctx, usecase.NewTransaction{
		ID:         req.ID,
		Type:       domain.TransactionType(req.Type),
		Amount:     req.Amount,
		Label:      req.Label,
		ArticleIDs: req.ArticleIDs,
		CashDeskID: req.CashDeskID,
	})
	return tran, toStatus(err)
}

func (s *GrpcServer) GetArticle(ctx context.Context, req *GetArticleRequest) (*domain.Article, error) {
	if req.ArticleID == "" {
		return nil, toStatus(domain.InvalidArgument("articleId is required"))
	}
	article, err := s.reports.GetArticle(ctx, req.ArticleID)
	return article, toStatus(err)
}

func (s *GrpcServer) GetCashDesk(ctx context.Context, req *GetCashDeskRequest) (*domain.CashDesk, error) {
	if req.CashDeskID == "" {
		return nil, toStatus(domain.InvalidArgument("cashDeskId is required"))
	}
	desk, err := s.reports.GetCashDesk(ctx, req.CashDeskID)
	return desk, toStatus(err)
}

// GetStore 回傳商店與其錢櫃，回應格式與 OpenStore 相同
func (s *GrpcServer) GetStore(ctx context.Context, req *GetStoreRequest) (*OpenStoreResponse, error) {
	if req.StoreID == "" {
		return nil, toStatus(domain.InvalidArgument("storeId is required"))
	}
	store, desk, err := s.reports.GetStore(ctx, req.StoreID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OpenStoreResponse{Store: store, CashDesk: desk}, nil
}

// unary 產生 MethodDesc，取代 protoc 產生的 _Handler 函式
func unary[Req, Resp any](name string, call func(LedgerService, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerService), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerService), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc storeledger.v1.Ledger 的服務描述
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerService)(nil),
	Methods: []grpc.MethodDesc{
		unary("OpenStore", LedgerService.OpenStore),
		unary("CreateArticle", LedgerService.CreateArticle),
		unary("Replenish", LedgerService.Replenish),
		unary("Sell", LedgerService.Sell),
		unary("RemoveArticle", LedgerService.RemoveArticle),
		unary("RecordTransaction", LedgerService.RecordTransaction),
		unary("GetArticle", LedgerService.GetArticle),
		unary("GetCashDesk", LedgerService.GetCashDesk),
		unary("GetStore", LedgerService.GetStore),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storeledger/v1/ledger.json",
}

// LoggingInterceptor 記錄每次呼叫的 method / code / 耗時
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
		}
		if code == codes.Internal || code == codes.Unknown {
			logger.Error("rpc failed", append(fields, zap.Error(err))...)
		} else {
			logger.Info("rpc completed", fields...)
		}
		return resp, err
	}
}
