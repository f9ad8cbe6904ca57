package grpc

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// 預設 keepalive：閒置 10 秒送一次 ping，1 秒內沒回應視為斷線
var defaultKeepalive = keepalive.ClientParameters{
	Time:                10 * time.Second,
	Timeout:             time.Second,
	PermitWithoutStream: true,
}

// Pool 依目標地址快取 gRPC 連線，同一個 target 只會有一條 ClientConn
//
// 結構:
//
//	conns: target -> 連線，已 Shutdown 的連線會在下次取用時重建
//	dialOpts: 建立連線時固定帶上的選項 (由 PoolOption 組成)
type Pool struct {
	mu       sync.Mutex
	conns    map[string]*grpc.ClientConn
	dialOpts []grpc.DialOption
	logger   *zap.Logger
}

// PoolOption 定義了 Pool 的配置選項函數
type PoolOption func(*poolConfig)

type poolConfig struct {
	interceptors []grpc.UnaryClientInterceptor
	callOpts     []grpc.CallOption
	keepalive    keepalive.ClientParameters
	logger       *zap.Logger
}

// WithInterceptor 加入 UnaryClientInterceptor，多次呼叫依加入順序串接
func WithInterceptor(interceptor grpc.UnaryClientInterceptor) PoolOption {
	return func(c *poolConfig) {
		c.interceptors = append(c.interceptors, interceptor)
	}
}

// WithDefaultCallOptions 每次呼叫預設帶上的選項
// 帳務服務走 JSON codec，client 需要 grpc.CallContentSubtype("json")。
func WithDefaultCallOptions(opts ...grpc.CallOption) PoolOption {
	return func(c *poolConfig) {
		c.callOpts = append(c.callOpts, opts...)
	}
}

// WithKeepalive 覆寫預設的 keepalive 參數
func WithKeepalive(params keepalive.ClientParameters) PoolOption {
	return func(c *poolConfig) {
		c.keepalive = params
	}
}

func WithLogger(logger *zap.Logger) PoolOption {
	return func(c *poolConfig) {
		c.logger = logger
	}
}

// NewPool 建立連線池
//
// 參數:
//
//	opts: 攔截器、預設 CallOption、keepalive、logger
//
// 回傳值:
//
//	*Pool: 尚未建立任何連線的連線池
func NewPool(opts ...PoolOption) *Pool {
	cfg := &poolConfig{keepalive: defaultKeepalive}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	// 內網服務不走 TLS
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(cfg.keepalive),
	}
	if len(cfg.interceptors) > 0 {
		dialOpts = append(dialOpts, grpc.WithChainUnaryInterceptor(cfg.interceptors...))
	}
	if len(cfg.callOpts) > 0 {
		dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(cfg.callOpts...))
	}

	return &Pool{
		conns:    make(map[string]*grpc.ClientConn),
		dialOpts: dialOpts,
		logger:   cfg.logger,
	}
}

// GetConnection 取得 target 的連線，沒有或已關閉時建立新的
//
// grpc.NewClient 不會立即連線，第一次呼叫 RPC 時才真正建立 TCP。
//
// 參數:
//
//	target: 伺服器地址 (e.g., "localhost:50051")
//	opts: 只套用在這次新建連線的額外選項
//
// 回傳值:
//
//	*grpc.ClientConn: 共用的連線，呼叫端不要自行 Close
//	error: 建立失敗
func (p *Pool) GetConnection(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[target]; ok {
		if conn.GetState() != connectivity.Shutdown {
			return conn, nil
		}
		delete(p.conns, target)
		p.logger.Warn("grpc client was shut down, recreating", zap.String("target", target))
	}

	dialOpts := append(append([]grpc.DialOption(nil), p.dialOpts...), opts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("create grpc client for %s: %w", target, err)
	}
	p.conns[target] = conn
	p.logger.Info("grpc client created", zap.String("target", target))
	return conn, nil
}

// Close 關閉所有連線，回傳所有關閉錯誤
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for target, conn := range p.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", target, err))
		}
		p.logger.Info("grpc client closed", zap.String("target", target))
	}
	clear(p.conns)
	return errors.Join(errs...)
}
