package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chat_logic"

// 业务指标
// Gauge: 瞬时值    Counter: 累计值
var (
	// DispatchQueueDepth 分发队列当前长度
	DispatchQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dispatch_queue_depth",
		Help:      "Number of inbound messages waiting for the dispatch worker",
	})

	// DispatchHandled 已处理消息数，result: ok / unknown / panic
	DispatchHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_handled_total",
		Help:      "Inbound messages processed by the dispatch worker",
	}, []string{"msg_id", "result"})

	// PeerRPC 跨节点 RPC 调用结果
	PeerRPC = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "peer_rpc_total",
		Help:      "Outbound peer RPC calls by peer, method and result code",
	}, []string{"peer", "method", "code"})

	// LockAcquire 分布式锁获取结果，result: acquired / timeout / error
	LockAcquire = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lock_acquire_total",
		Help:      "Distributed lock acquisition attempts by outcome",
	}, []string{"result"})

	// OnlineSessions 本节点在线会话数
	OnlineSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "online_sessions",
		Help:      "Sessions currently bound in the local session directory",
	})
)

// Register 注册所有指标
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		DispatchQueueDepth,
		DispatchHandled,
		PeerRPC,
		LockAcquire,
		OnlineSessions,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
