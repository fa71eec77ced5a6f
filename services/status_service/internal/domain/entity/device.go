package entity

import (
	"time"

	"github.com/qwqdev/livestatus/pkg/status"
)

// DeviceEntry 某个设备最近一次上报（已脱敏）及接收时间
type DeviceEntry struct {
	Status     status.Status `json:"status"`
	LastUpdate time.Time     `json:"last_update"`
}

// Age 距上次上报的时长；LastUpdate 在 now 之后（时钟回拨）时视为 0
func (e DeviceEntry) Age(now time.Time) time.Duration {
	if now.Before(e.LastUpdate) {
		return 0
	}
	return now.Sub(e.LastUpdate)
}

// FreshAt 在 now 时刻是否仍在超时阈值内，边界值算新鲜
func (e DeviceEntry) FreshAt(now time.Time, timeout time.Duration) bool {
	return e.Age(now) <= timeout
}

// Mode 聚合模式
type Mode string

const (
	// ModeMulti 多设备，按设备标识分别保存
	ModeMulti Mode = "multi"
	// ModeSingle 单槽位，只有一个隐式设备，无新鲜上报时返回离线占位
	ModeSingle Mode = "single"
)

// Valid 是否为已知模式
func (m Mode) Valid() bool {
	return m == ModeMulti || m == ModeSingle
}
