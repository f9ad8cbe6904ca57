package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/usecase"
)

const bufSize = 1024 * 1024

// startServer 在 bufconn 上啟動服務並回傳連線
func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()

	store, err := memory.NewMutexStore(nil, nil)
	require.NoError(t, err)
	engine := usecase.NewLedgerEngine(store, nil)

	lis := bufconn.Listen(bufSize)
	s := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(nil)))
	Register(s, NewGrpcServer(engine, usecase.NewReporting(store)))
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthSrv)

	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGrpcServer_SellFlow(t *testing.T) {
	conn := startServer(t)
	client := NewClient(conn)
	ctx := testContext(t)

	opened, err := client.OpenStore(ctx, &OpenStoreRequest{ID: "s1", Name: "Kiosk", OwnerID: "u1"})
	require.NoError(t, err)
	deskID := opened.CashDesk.ID
	assert.Equal(t, "s1", opened.Store.ID)

	_, err = client.RecordTransaction(ctx, &RecordTransactionRequest{Type: "IN", Amount: 100, Label: "OPENING", CashDeskID: deskID})
	require.NoError(t, err)

	article, err := client.CreateArticle(ctx, &CreateArticleRequest{
		ID: "cola", Name: "Cola", PurchasePrice: 2, SellingPrice: 3, Stock: 10, Unit: "can", StoreID: "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), article.Stock)

	desk, err := client.Sell(ctx, &SellRequest{ArticleIDs: []string{"cola"}, Quantities: []int64{4}, CashDeskID: deskID})
	require.NoError(t, err)
	assert.Equal(t, int64(100-20+12), desk.CurrentAmount)

	article, err = client.Replenish(ctx, &ReplenishRequest{ArticleID: "cola", Quantity: 1, CashDeskID: deskID})
	require.NoError(t, err)
	assert.Equal(t, int64(7), article.Stock)

	got, err := client.GetCashDesk(ctx, &GetCashDeskRequest{CashDeskID: deskID})
	require.NoError(t, err)
	assert.Equal(t, int64(90), got.CurrentAmount)
}

func TestGrpcServer_GetStore(t *testing.T) {
	conn := startServer(t)
	client := NewClient(conn)
	ctx := testContext(t)

	opened, err := client.OpenStore(ctx, &OpenStoreRequest{ID: "s1", Name: "Kiosk", OwnerID: "u1"})
	require.NoError(t, err)

	got, err := client.GetStore(ctx, &GetStoreRequest{StoreID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "Kiosk", got.Store.Name)
	assert.Equal(t, opened.CashDesk.ID, got.CashDesk.ID)

	_, err = client.GetStore(ctx, &GetStoreRequest{StoreID: "s2"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = client.GetStore(ctx, &GetStoreRequest{})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestGrpcServer_ErrorDetails(t *testing.T) {
	conn := startServer(t)
	client := NewClient(conn)
	ctx := testContext(t)

	opened, err := client.OpenStore(ctx, &OpenStoreRequest{ID: "s1", Name: "Kiosk"})
	require.NoError(t, err)
	_, err = client.CreateArticle(ctx, &CreateArticleRequest{ID: "gum", Name: "Gum", SellingPrice: 1, Stock: 1, Unit: "pcs", StoreID: "s1"})
	require.NoError(t, err)

	_, err = client.Sell(ctx, &SellRequest{ArticleIDs: []string{"gum"}, Quantities: []int64{2}, CashDeskID: opened.CashDesk.ID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "gum", de.ID)

	_, err = client.GetArticle(ctx, &GetArticleRequest{ArticleID: "missing"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = client.Sell(ctx, &SellRequest{ArticleIDs: []string{"gum"}, Quantities: []int64{}, CashDeskID: opened.CashDesk.ID})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestGrpcServer_RawStatus(t *testing.T) {
	conn := startServer(t)
	ctx := testContext(t)

	out := new(domain.CashDesk)
	err := conn.Invoke(ctx, "/"+ServiceName+"/GetCashDesk", &GetCashDeskRequest{CashDeskID: "nope"}, out,
		grpc.CallContentSubtype(CodecName))
	require.Error(t, err)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())
	require.Len(t, st.Details(), 1)
	info, ok := st.Details()[0].(*errdetails.ErrorInfo)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", info.GetReason())
	assert.Equal(t, domain.EntityCashDesk, info.GetMetadata()["entity"])
}

func TestGrpcServer_Health(t *testing.T) {
	conn := startServer(t)
	resp, err := healthpb.NewHealthClient(conn).Check(testContext(t), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"not found", domain.NotFound(domain.EntityArticle, "a"), codes.NotFound},
		{"funds", domain.InsufficientFunds("d", 1, 2), codes.FailedPrecondition},
		{"state", domain.InvalidState(domain.EntityArticle, "a", "stock must be 0"), codes.FailedPrecondition},
		{"argument", domain.InvalidArgument("bad"), codes.InvalidArgument},
		{"persistence", domain.PersistenceFailure(errors.New("disk full")), codes.Internal},
		{"plain", errors.New("boom"), codes.Internal},
		{"canceled", context.Canceled, codes.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := status.Convert(toStatus(tt.err))
			assert.Equal(t, tt.code, st.Code())
			if tt.code == codes.Internal {
				assert.Equal(t, "internal error", st.Message())
			}
		})
	}
	assert.NoError(t, toStatus(nil))
}

func TestFromError_RoundTrip(t *testing.T) {
	orig := domain.InsufficientStock("b", 1, 3)
	back := FromError(toStatus(orig))
	assert.Equal(t, orig.Error(), back.Error())
	assert.Equal(t, domain.KindInsufficientStock, domain.KindOf(back))

	plain := status.Error(codes.Unavailable, "down")
	assert.Equal(t, plain, FromError(plain))
}
