package pool

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/puddle/v2"
)

var (
	// ErrPoolClosed 连接池已关闭，不再允许借出
	ErrPoolClosed = errors.New("pool: closed")
	// ErrPoolTimeout 在借出超时内没有空闲连接
	ErrPoolTimeout = errors.New("pool: checkout timeout")
)

// Config 连接池配置
type Config struct {
	Size            int           // 固定连接数
	CheckoutTimeout time.Duration // 借出等待上限，<=0 表示只受 ctx 约束
}

// Pool 固定大小的连接池，构造时即建立全部连接
type Pool[T any] struct {
	p               *puddle.Pool[T]
	checkoutTimeout time.Duration
	closing         context.Context
	markClosing     context.CancelFunc
	logger          *slog.Logger
}

// New 创建连接池并预先建立 Size 个连接
func New[T any](ctx context.Context, cfg Config, dial func(ctx context.Context) (T, error), closeFn func(T)) (*Pool[T], error) {
	if cfg.Size <= 0 {
		cfg.Size = 5
	}

	p, err := puddle.NewPool(&puddle.Config[T]{
		Constructor: dial,
		Destructor:  closeFn,
		MaxSize:     int32(cfg.Size),
	})
	if err != nil {
		return nil, err
	}

	// 预建全部连接
	for i := 0; i < cfg.Size; i++ {
		if err := p.CreateResource(ctx); err != nil {
			p.Close()
			return nil, err
		}
	}

	closing, markClosing := context.WithCancel(context.Background())
	return &Pool[T]{
		p:               p,
		checkoutTimeout: cfg.CheckoutTimeout,
		closing:         closing,
		markClosing:     markClosing,
		logger:          slog.Default(),
	}, nil
}

// Get 借出连接，池耗尽时阻塞到超时或池关闭
func (p *Pool[T]) Get(ctx context.Context) (*puddle.Resource[T], error) {
	if p.closing.Err() != nil {
		return nil, ErrPoolClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.closing, cancel)
	defer stop()

	if p.checkoutTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, p.checkoutTimeout)
		defer cancelTimeout()
	}

	res, err := p.p.Acquire(ctx)
	switch {
	case err == nil:
		return res, nil
	case p.closing.Err() != nil, errors.Is(err, puddle.ErrClosedPool):
		return nil, ErrPoolClosed
	case errors.Is(err, context.DeadlineExceeded):
		return nil, ErrPoolTimeout
	default:
		return nil, err
	}
}

// Put 归还连接
func (p *Pool[T]) Put(res *puddle.Resource[T]) {
	if res == nil {
		return
	}
	res.Release()
}

// Idle 当前空闲连接数
func (p *Pool[T]) Idle() int {
	return int(p.p.Stat().IdleResources())
}

// Size 连接总数
func (p *Pool[T]) Size() int {
	return int(p.p.Stat().TotalResources())
}

// Close 关闭连接池：正在等待的借出立即返回 ErrPoolClosed，
// 随后等待已借出的连接归还并销毁全部连接
func (p *Pool[T]) Close() {
	p.markClosing()
	p.p.Close()
	p.logger.Debug("Pool closed")
}
