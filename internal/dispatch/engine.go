package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"sudooom.im.chat/internal/metrics"
	"sudooom.im.chat/internal/session"
)

// ErrStopped 引擎已停止，不再接收消息
var ErrStopped = errors.New("dispatch: engine stopped")

// Message 一条待处理的上行消息
type Message struct {
	Session session.Session
	MsgID   uint16
	Data    []byte
	Seq     uint64 // 入队序号，全局单调递增
}

// HandlerFunc 消息处理函数，运行在唯一的工作协程上
type HandlerFunc func(ctx context.Context, msg *Message)

// Engine 单消费者消息分发引擎
// 所有连接的消息进入同一个 FIFO 队列，由一个工作协程按入队顺序逐条处理
type Engine struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*Message
	seq      uint64
	started  bool
	stopped  bool
	done     chan struct{}
	handlers map[uint16]HandlerFunc

	handleTimeout time.Duration
	logger        *slog.Logger
}

// New 创建分发引擎，handleTimeout<=0 表示不限制单条处理时间
func New(handleTimeout time.Duration) *Engine {
	e := &Engine{
		done:          make(chan struct{}),
		handlers:      make(map[uint16]HandlerFunc),
		handleTimeout: handleTimeout,
		logger:        slog.Default(),
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Register 注册消息处理函数，须在 Start 之前调用
func (e *Engine) Register(msgID uint16, h HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		panic("dispatch: Register called after Start")
	}
	e.handlers[msgID] = h
}

// Post 入队，返回分配的序号
func (e *Engine) Post(sess session.Session, msgID uint16, data []byte) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return 0, ErrStopped
	}

	e.seq++
	e.queue = append(e.queue, &Message{
		Session: sess,
		MsgID:   msgID,
		Data:    data,
		Seq:     e.seq,
	})
	metrics.DispatchQueueDepth.Set(float64(len(e.queue)))

	// 只有队列由空变为非空时才需要唤醒
	if len(e.queue) == 1 {
		e.cond.Signal()
	}
	return e.seq, nil
}

// Start 启动工作协程
func (e *Engine) Start() {
	e.mu.Lock()
	if e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	go e.run()
	e.logger.Info("Dispatch engine started", "handlers", len(e.handlers))
}

// Stop 停止接收新消息，处理完队列中剩余的消息后返回
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.stopped = true
	if !e.started {
		// 从未启动：在当前协程处理完已入队的消息
		e.started = true
		e.mu.Unlock()
		e.run()
		e.logger.Info("Dispatch engine stopped")
		return
	}
	e.cond.Broadcast()
	e.mu.Unlock()

	<-e.done
	e.logger.Info("Dispatch engine stopped")
}

// Len 队列中等待处理的消息数
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) run() {
	defer close(e.done)

	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.stopped {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			// 已停止且队列已清空
			e.mu.Unlock()
			return
		}
		msg := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		metrics.DispatchQueueDepth.Set(float64(len(e.queue)))
		e.mu.Unlock()

		e.handle(msg)
	}
}

func (e *Engine) handle(msg *Message) {
	msgLabel := strconv.Itoa(int(msg.MsgID))

	h, ok := e.handlers[msg.MsgID]
	if !ok {
		e.logger.Warn("No handler for message", "msgId", msg.MsgID, "seq", msg.Seq)
		metrics.DispatchHandled.WithLabelValues(msgLabel, "unknown").Inc()
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Handler panic", "msgId", msg.MsgID, "seq", msg.Seq, "panic", r)
			metrics.DispatchHandled.WithLabelValues(msgLabel, "panic").Inc()
		}
	}()

	ctx := context.Background()
	if e.handleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.handleTimeout)
		defer cancel()
	}

	h(ctx, msg)
	metrics.DispatchHandled.WithLabelValues(msgLabel, "ok").Inc()
}
