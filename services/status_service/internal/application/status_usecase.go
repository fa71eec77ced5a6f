package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/qwqdev/livestatus/pkg/status"
	"github.com/qwqdev/livestatus/pkg/zlog"
	"github.com/qwqdev/livestatus/services/status_service/internal/domain/filter"
	"github.com/qwqdev/livestatus/services/status_service/internal/ports/in"
	"github.com/qwqdev/livestatus/services/status_service/internal/ports/out"
)

// StatusUseCaseImpl 状态聚合用例实现：写入时先脱敏再落表，读取时按新鲜度过滤
type StatusUseCaseImpl struct {
	redactor     *filter.Redactor
	presenceRepo out.PresenceRepository
	timeout      time.Duration
	now          func() time.Time
}

// Option 用例构造选项
type Option func(*StatusUseCaseImpl)

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(uc *StatusUseCaseImpl) { uc.now = now }
}

// NewStatusUseCase 创建状态聚合用例，timeout 在整个生命周期内不变
func NewStatusUseCase(
	redactor *filter.Redactor,
	presenceRepo out.PresenceRepository,
	timeout time.Duration,
	opts ...Option,
) *StatusUseCaseImpl {
	uc := &StatusUseCaseImpl{
		redactor:     redactor,
		presenceRepo: presenceRepo,
		timeout:      timeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

var _ in.StatusUseCase = (*StatusUseCaseImpl)(nil)

// Report 脱敏后整条写入，调用方只能拿到脱敏后的结果
func (uc *StatusUseCaseImpl) Report(ctx context.Context, raw status.Status) status.Status {
	redacted := uc.redactor.RedactStatus(raw)
	now := uc.now()
	uc.presenceRepo.Upsert(redacted, now)

	// 只记录脱敏后的内容
	zlog.C(ctx).Info("status updated",
		zap.String("title", redacted.Title),
		zap.String("app_name", redacted.AppName),
		zap.String("os_name", redacted.OSName),
		zap.String("force_status_type", redacted.ForceStatusType),
		zap.Time("received_at", now),
	)
	return redacted
}

// Query 返回所有新鲜设备的状态
func (uc *StatusUseCaseImpl) Query(ctx context.Context) []status.Status {
	return uc.presenceRepo.SnapshotFresh(uc.now(), uc.timeout)
}

// Current 单槽位视图
func (uc *StatusUseCaseImpl) Current(ctx context.Context) status.Status {
	fresh := uc.Query(ctx)
	if len(fresh) == 0 {
		return status.Offline()
	}
	return fresh[0]
}

// Timeout 配置的新鲜度阈值
func (uc *StatusUseCaseImpl) Timeout() time.Duration {
	return uc.timeout
}
