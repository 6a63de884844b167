package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
)

// Pinger 外部依赖连通性检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 函数形式的 Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Status 健康状态
type Status struct {
	Node     string `json:"node"`
	NATS     string `json:"nats"`
	Redis    string `json:"redis"`
	Database string `json:"database"`
	Sessions int    `json:"sessions"`
	Queue    int    `json:"queue"`
}

func (s *Status) healthy() bool {
	return s.NATS == statusConnected &&
		s.Redis == statusConnected &&
		s.Database == statusConnected
}

// Stats 节点运行时数据
type Stats struct {
	Sessions func() int // 本地在线会话数
	Queue    func() int // 分发队列长度
}

// Checker 健康检查器
type Checker struct {
	node  string
	nats  Pinger
	redis Pinger
	db    Pinger
	stats Stats
}

// NewChecker 创建健康检查器
func NewChecker(node string, nats, redis, db Pinger, stats Stats) *Checker {
	return &Checker{
		node:  node,
		nats:  nats,
		redis: redis,
		db:    db,
		stats: stats,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		Node:     h.node,
		NATS:     ping(ctx, h.nats),
		Redis:    ping(ctx, h.redis),
		Database: ping(ctx, h.db),
	}
	if h.stats.Sessions != nil {
		status.Sessions = h.stats.Sessions()
	}
	if h.stats.Queue != nil {
		status.Queue = h.stats.Queue()
	}
	return status
}

func ping(ctx context.Context, p Pinger) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		return statusDisconnected
	}
	return statusConnected
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).healthy()
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

// NewMux 注册 /health、/ready、/metrics
func NewMux(checker *Checker, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/health", checker)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if checker.IsHealthy(r.Context()) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Not Ready"))
		}
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}
