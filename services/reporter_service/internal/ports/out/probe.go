package out

import (
	"context"

	"github.com/qwqdev/livestatus/pkg/status"
)

// Probe 采集本机当前活动窗口
type Probe interface {
	Current(ctx context.Context) (status.Status, error)
}

// StatusPublisher 把状态推送到聚合服务
type StatusPublisher interface {
	Publish(ctx context.Context, st status.Status) error
}
