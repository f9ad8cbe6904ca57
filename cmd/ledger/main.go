package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpc_adapter "github.com/JoeShih716/go-store-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/adapter/in/rest"
	memory_adapter "github.com/JoeShih716/go-store-ledger/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-store-ledger/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-store-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-store-ledger/internal/config"
	"github.com/JoeShih716/go-store-ledger/pkg/logger"
	"github.com/JoeShih716/go-store-ledger/pkg/mysql"
	"github.com/JoeShih716/go-store-ledger/pkg/wal"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the yaml config file")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. 初始化實體儲存
	store, closeStore, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	// 3. 初始化 UseCase
	engine := usecase.NewLedgerEngine(store, logger.Named(baseLogger, "svc.ledger"))
	reporting := usecase.NewReporting(store)

	// 4. HTTP Adapter
	handler := rest.NewHandler(engine, reporting, logger.Named(baseLogger, "http"))
	srv := &http.Server{
		Addr:         ":" + cfg.Server.HTTPPort,
		Handler:      rest.NewRouter(handler, logger.Named(baseLogger, "http")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. gRPC Adapter
	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		baseLogger.Fatal("failed to listen", zap.String("port", cfg.Server.GRPCPort), zap.Error(err))
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpc_adapter.LoggingInterceptor(logger.Named(baseLogger, "grpc"))))
	grpc_adapter.Register(grpcServer, grpc_adapter.NewGrpcServer(engine, reporting))
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(grpc_adapter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	go func() {
		baseLogger.Info("http server starting", zap.String("port", cfg.Server.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()
	go func() {
		baseLogger.Info("grpc server starting", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			baseLogger.Fatal("grpc server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")
	healthSrv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	baseLogger.Info("server exited")
}

// openStore 依設定建立 MySQL 或記憶體 (WAL) 儲存，回傳關閉函式
func openStore(ctx context.Context, cfg *config.Config, baseLogger *zap.Logger) (usecase.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMySQL:
		dbClient, err := mysql.NewClient(ctx, cfg.MySQL, logger.Named(baseLogger, "mysql"))
		if err != nil {
			return nil, nil, err
		}
		gormStore := mysql_adapter.NewGormStore(dbClient.DB(), logger.Named(baseLogger, "store.mysql"))
		if cfg.Store.Migrate {
			if err := gormStore.Migrate(ctx); err != nil {
				_ = dbClient.Close()
				return nil, nil, err
			}
		}
		return gormStore, func() {
			if err := dbClient.Close(); err != nil {
				baseLogger.Error("failed to close mysql", zap.Error(err))
			}
		}, nil

	case config.DriverMemory:
		walFile, err := wal.Open(cfg.Store.WALPath)
		if err != nil {
			return nil, nil, err
		}
		mutexStore, err := memory_adapter.NewMutexStore(walFile, logger.Named(baseLogger, "store.memory"))
		if err != nil {
			_ = walFile.Close()
			return nil, nil, err
		}
		return mutexStore, func() {
			if err := walFile.Close(); err != nil {
				baseLogger.Error("failed to close wal", zap.Error(err))
			}
		}, nil
	}
	return nil, nil, errors.New("unsupported store driver: " + cfg.Store.Driver)
}
