package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	grpc_adapter "github.com/JoeShih716/go-store-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-store-ledger/pkg/logger"
	grpcpool "github.com/JoeShih716/go-store-ledger/pkg/grpc"
)

func main() {
	target := flag.String("target", "localhost:50051", "ledger grpc address")
	totalCount := flag.Int("n", 10000, "number of sell requests")
	concurrency := flag.Int("c", 100, "concurrent requests")
	stock := flag.Int64("stock", 5000, "initial article stock")
	flag.Parse()

	log := logger.Must(logger.New("info"))
	defer func() { _ = log.Sync() }()

	pool := grpcpool.NewPool(
		grpcpool.WithInterceptor(grpcpool.LoggingInterceptor(logger.Named(log, "grpc"))),
		grpcpool.WithDefaultCallOptions(grpc.CallContentSubtype(grpc_adapter.CodecName)),
		grpcpool.WithLogger(log),
	)
	defer func() { _ = pool.Close() }()

	conn, err := pool.GetConnection(*target)
	if err != nil {
		log.Fatal("did not connect", zap.Error(err))
	}
	c := grpc_adapter.NewClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	// 1. 開店並存入足夠的進貨資金
	storeID := uuid.New().String()
	opened, err := c.OpenStore(ctx, &grpc_adapter.OpenStoreRequest{ID: storeID, Name: "load-test", OwnerID: "ledger_client"})
	if err != nil {
		log.Fatal("open store failed", zap.Error(err))
	}
	deskID := opened.CashDesk.ID

	const purchasePrice, sellingPrice = 7, 10
	if _, err := c.RecordTransaction(ctx, &grpc_adapter.RecordTransactionRequest{
		Type:       string(domain.TransactionTypeIn),
		Amount:     *stock * purchasePrice,
		Label:      "SEED",
		CashDeskID: deskID,
	}); err != nil {
		log.Fatal("seed cash failed", zap.Error(err))
	}

	// 2. 建立商品
	article, err := c.CreateArticle(ctx, &grpc_adapter.CreateArticleRequest{
		Name:          "load-test article",
		PurchasePrice: purchasePrice,
		SellingPrice:  sellingPrice,
		Stock:         *stock,
		Unit:          "pcs",
		StoreID:       storeID,
	})
	if err != nil {
		log.Fatal("create article failed", zap.Error(err))
	}

	// 3. 併發銷貨，庫存用完後的請求應回傳 InsufficientStock
	var sold, outOfStock, failed atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, *concurrency)
	startTime := time.Now()

	for i := 0; i < *totalCount; i++ {
		sem <- struct{}{}
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := c.Sell(ctx, &grpc_adapter.SellRequest{
				ArticleIDs: []string{article.ID},
				Quantities: []int64{1},
				CashDeskID: deskID,
			})
			switch {
			case err == nil:
				sold.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				outOfStock.Add(1)
			default:
				failed.Add(1)
				if idx%1000 == 0 {
					log.Warn("sell failed", zap.Int("idx", idx), zap.Error(err))
				}
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	// 4. 檢查最終狀態：庫存 = 初始 - 售出，餘額 = 售出 * 售價
	final, err := c.GetArticle(ctx, &grpc_adapter.GetArticleRequest{ArticleID: article.ID})
	if err != nil {
		log.Fatal("get article failed", zap.Error(err))
	}
	desk, err := c.GetCashDesk(ctx, &grpc_adapter.GetCashDeskRequest{CashDeskID: deskID})
	if err != nil {
		log.Fatal("get cash desk failed", zap.Error(err))
	}

	fmt.Printf("Completed %d requests in %v\n", *totalCount, elapsed)
	fmt.Printf("TPS: %.2f\n", float64(*totalCount)/elapsed.Seconds())
	fmt.Printf("sold=%d out_of_stock=%d failed=%d\n", sold.Load(), outOfStock.Load(), failed.Load())
	fmt.Printf("final stock=%d (expected %d)\n", final.Stock, *stock-sold.Load())
	fmt.Printf("final balance=%d (expected %d)\n", desk.CurrentAmount, sold.Load()*sellingPrice)
}
