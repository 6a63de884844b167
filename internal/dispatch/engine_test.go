package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.chat/internal/session"
)

const testMsgID uint16 = 1023

func TestEngine_FIFOAcrossProducers(t *testing.T) {
	const producers = 8
	const perProducer = 200

	e := New(time.Second)

	var mu sync.Mutex
	var seen []uint64
	e.Register(testMsgID, func(_ context.Context, msg *Message) {
		mu.Lock()
		seen = append(seen, msg.Seq)
		mu.Unlock()
	})
	e.Start()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			sess := session.NewRecorder("conn")
			for i := 0; i < perProducer; i++ {
				_, err := e.Post(sess, testMsgID, nil)
				assert.NoError(t, err)
			}
		}(p)
	}
	wg.Wait()
	e.Stop()

	require.Len(t, seen, producers*perProducer)
	for i, seq := range seen {
		assert.Equal(t, uint64(i+1), seq, "message %d processed out of order", i)
	}
}

func TestEngine_StopDrainsQueue(t *testing.T) {
	e := New(0)

	var handled int
	e.Register(testMsgID, func(_ context.Context, _ *Message) {
		handled++
	})

	sess := session.NewRecorder("conn")
	for i := 0; i < 100; i++ {
		_, err := e.Post(sess, testMsgID, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 100, e.Len())

	e.Start()
	e.Stop()

	assert.Equal(t, 100, handled)
	assert.Equal(t, 0, e.Len())

	_, err := e.Post(sess, testMsgID, nil)
	assert.ErrorIs(t, err, ErrStopped)
}

func TestEngine_UnknownMessageDropped(t *testing.T) {
	e := New(0)

	var got []uint16
	e.Register(testMsgID, func(_ context.Context, msg *Message) {
		got = append(got, msg.MsgID)
	})
	e.Start()

	sess := session.NewRecorder("conn")
	_, err := e.Post(sess, 9999, []byte("ignored"))
	require.NoError(t, err)
	_, err = e.Post(sess, testMsgID, nil)
	require.NoError(t, err)
	e.Stop()

	assert.Equal(t, []uint16{testMsgID}, got)
}

func TestEngine_PanicRecovered(t *testing.T) {
	e := New(0)

	var after int
	e.Register(1, func(_ context.Context, _ *Message) {
		panic("boom")
	})
	e.Register(2, func(_ context.Context, _ *Message) {
		after++
	})
	e.Start()

	sess := session.NewRecorder("conn")
	_, _ = e.Post(sess, 1, nil)
	_, _ = e.Post(sess, 2, nil)
	e.Stop()

	assert.Equal(t, 1, after)
}

func TestEngine_HandlerContextDeadline(t *testing.T) {
	e := New(50 * time.Millisecond)

	var hasDeadline bool
	e.Register(testMsgID, func(ctx context.Context, _ *Message) {
		_, hasDeadline = ctx.Deadline()
	})
	e.Start()

	_, _ = e.Post(session.NewRecorder("conn"), testMsgID, nil)
	e.Stop()

	assert.True(t, hasDeadline)
}

func TestEngine_StopWithoutStart(t *testing.T) {
	e := New(0)

	var handled int
	e.Register(testMsgID, func(_ context.Context, _ *Message) {
		handled++
	})
	_, err := e.Post(session.NewRecorder("conn"), testMsgID, nil)
	require.NoError(t, err)

	// 未启动时 Stop 也要处理完已入队的消息
	e.Stop()
	e.Stop()
	assert.Equal(t, 1, handled)
	assert.Equal(t, 0, e.Len())

	e.Start()
	assert.Equal(t, 1, handled)

	_, err = e.Post(session.NewRecorder("conn"), testMsgID, nil)
	assert.ErrorIs(t, err, ErrStopped)
}

func TestEngine_RegisterAfterStartPanics(t *testing.T) {
	e := New(0)
	e.Start()
	defer e.Stop()

	assert.Panics(t, func() {
		e.Register(testMsgID, func(context.Context, *Message) {})
	})
}
