package memory

import (
	"sync"
	"time"

	"github.com/qwqdev/livestatus/pkg/status"
	"github.com/qwqdev/livestatus/services/status_service/internal/domain/entity"
)

// SingleSlotKey 单槽位模式下唯一的设备键
const SingleSlotKey = "default"

// PresenceStore 进程内的设备状态表，一把互斥锁保护整张 map
// 条目不会被删除，过期只在读取时判断
type PresenceStore struct {
	mu      sync.Mutex
	entries map[string]entity.DeviceEntry
	keyOf   func(status.Status) string
}

// Option 构造选项
type Option func(*PresenceStore)

// WithFixedKey 所有上报写入同一个键，用于单槽位模式
func WithFixedKey(key string) Option {
	return func(s *PresenceStore) {
		s.keyOf = func(status.Status) string { return key }
	}
}

// NewPresenceStore 默认按 os_name 区分设备
func NewPresenceStore(opts ...Option) *PresenceStore {
	s := &PresenceStore{
		entries: make(map[string]entity.DeviceEntry),
		keyOf:   func(st status.Status) string { return st.OSName },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStoreForMode 按聚合模式构造
func NewStoreForMode(mode entity.Mode) *PresenceStore {
	if mode == entity.ModeSingle {
		return NewPresenceStore(WithFixedKey(SingleSlotKey))
	}
	return NewPresenceStore()
}

func (s *PresenceStore) Upsert(st status.Status, now time.Time) {
	key := s.keyOf(st)

	s.mu.Lock()
	s.entries[key] = entity.DeviceEntry{Status: st, LastUpdate: now}
	s.mu.Unlock()
}

func (s *PresenceStore) SnapshotFresh(now time.Time, timeout time.Duration) []status.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]status.Status, 0, len(s.entries))
	for _, e := range s.entries {
		if e.FreshAt(now, timeout) {
			fresh = append(fresh, e.Status)
		}
	}
	return fresh
}

// Entry 取单个设备的记录副本
func (s *PresenceStore) Entry(key string) (entity.DeviceEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	return e, ok
}

// Len 曾上报过的设备数量（含已过期）
func (s *PresenceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
