package in

import (
	"context"

	"github.com/qwqdev/livestatus/pkg/status"
)

// StatusUseCase 状态聚合用例接口
type StatusUseCase interface {
	// Report 脱敏后写入最新状态，返回实际落表的（已脱敏）状态
	Report(ctx context.Context, raw status.Status) status.Status
	// Query 返回所有新鲜设备的状态
	Query(ctx context.Context) []status.Status
	// Current 单槽位视图：有新鲜状态则返回它，否则返回离线占位
	Current(ctx context.Context) status.Status
}
