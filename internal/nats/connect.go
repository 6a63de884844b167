package nats

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"sudooom.im.chat/internal/config"
)

const (
	connectTimeout = 10 * time.Second
	drainTimeout   = 5 * time.Second
)

// Connect 以本节点名连接 NATS，连接名即节点名，便于在服务端按节点排查
func Connect(cfg config.NATSConfig, node string) (*nats.Conn, error) {
	return nats.Connect(cfg.URL, connectOptions(cfg, node, slog.Default().With("node", node))...)
}

func connectOptions(cfg config.NATSConfig, node string, logger *slog.Logger) []nats.Option {
	opts := []nats.Option{
		nats.Name(node),
		nats.Timeout(connectTimeout),
		nats.DrainTimeout(drainTimeout),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("Gateway link lost", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Gateway link restored", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("Gateway link closed")
		}),
		// 上行订阅消费过慢等异步错误
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("Gateway link error", "subject", subject, "error", err)
		}),
	}
	if cfg.ReconnectWait > 0 {
		opts = append(opts, nats.ReconnectWait(cfg.ReconnectWait))
	}
	return opts
}

// Shutdown 先把未发送的下行帧刷出再断开
func Shutdown(nc *nats.Conn) {
	if nc == nil || nc.IsClosed() {
		return
	}
	if err := nc.Drain(); err != nil {
		slog.Warn("NATS drain failed", "error", err)
		nc.Close()
	}
}
