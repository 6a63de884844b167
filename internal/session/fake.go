package session

import (
	"sync"
)

// SentFrame Recorder 记录下来的一帧
type SentFrame struct {
	MsgID   uint16
	Payload []byte
}

// Recorder 记录所有发送内容的内存会话，测试和本地调试使用
type Recorder struct {
	id  string
	uid int64

	mu       sync.Mutex
	frames   []SentFrame
	offlines []int64
	closed   bool
}

// NewRecorder 创建内存会话
func NewRecorder(id string) *Recorder {
	return &Recorder{id: id}
}

func (r *Recorder) ID() string { return r.id }

func (r *Recorder) UserID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uid
}

func (r *Recorder) SetUserID(uid int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uid = uid
}

func (r *Recorder) Send(payload []byte, msgID uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	r.frames = append(r.frames, SentFrame{MsgID: msgID, Payload: cp})
}

func (r *Recorder) NotifyOffline(uid int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offlines = append(r.offlines, uid)
}

func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Frames 已发送的帧
func (r *Recorder) Frames() []SentFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SentFrame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Last 最后一帧
func (r *Recorder) Last() (SentFrame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return SentFrame{}, false
	}
	return r.frames[len(r.frames)-1], true
}

// Offlines 收到的下线通知
func (r *Recorder) Offlines() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.offlines...)
}

// Closed 是否已请求断开
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
