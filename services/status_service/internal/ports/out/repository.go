package out

import (
	"time"

	"github.com/qwqdev/livestatus/pkg/status"
)

// PresenceRepository 设备最新状态仓储
// 实现必须保证单条记录的原子性：读方不会看到写了一半的记录
type PresenceRepository interface {
	// Upsert 按设备标识整条插入或覆盖，并把 now 记为接收时间
	Upsert(st status.Status, now time.Time)
	// SnapshotFresh 返回 now 时刻仍在 timeout 内的所有状态副本，顺序不保证
	SnapshotFresh(now time.Time, timeout time.Duration) []status.Status
}
