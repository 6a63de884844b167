package session

import (
	"sync"

	"sudooom.im.chat/internal/metrics"
)

// Directory 本节点 uid -> 会话 映射
// 分发线程与 RPC 服务线程会并发访问
type Directory struct {
	sessions map[int64]Session
	mu       sync.RWMutex
}

// NewDirectory 创建会话目录
func NewDirectory() *Directory {
	return &Directory{
		sessions: make(map[int64]Session),
	}
}

// Get 查找本地会话
func (d *Directory) Get(uid int64) (Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[uid]
	return s, ok
}

// Set 绑定 uid 到会话，返回被替换的旧会话
func (d *Directory) Set(uid int64, s Session) Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	old := d.sessions[uid]
	d.sessions[uid] = s
	metrics.OnlineSessions.Set(float64(len(d.sessions)))
	return old
}

// Remove 移除 uid
func (d *Directory) Remove(uid int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.sessions, uid)
	metrics.OnlineSessions.Set(float64(len(d.sessions)))
}

// RemoveIf 仅当 uid 仍绑定在 s 上时移除，避免误删重新登录后的新会话
func (d *Directory) RemoveIf(uid int64, s Session) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, ok := d.sessions[uid]
	if !ok || cur.ID() != s.ID() {
		return false
	}
	delete(d.sessions, uid)
	metrics.OnlineSessions.Set(float64(len(d.sessions)))
	return true
}

// Count 在线会话数
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}
