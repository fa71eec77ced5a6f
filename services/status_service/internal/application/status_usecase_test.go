package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwqdev/livestatus/pkg/status"
	"github.com/qwqdev/livestatus/services/status_service/internal/adapters/out/memory"
	"github.com/qwqdev/livestatus/services/status_service/internal/domain/entity"
	"github.com/qwqdev/livestatus/services/status_service/internal/domain/filter"
)

// fakeClock 手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.cur = t
	c.mu.Unlock()
}

func newUseCase(t *testing.T, mode entity.Mode, timeout time.Duration, rules ...filter.Rule) (*StatusUseCaseImpl, *fakeClock) {
	t.Helper()
	redactor, err := filter.Compile(rules)
	require.NoError(t, err)

	clock := &fakeClock{cur: time.UnixMilli(0)}
	uc := NewStatusUseCase(redactor, memory.NewStoreForMode(mode), timeout, WithClock(clock.Now))
	return uc, clock
}

func TestEndToEndMultiDevice(t *testing.T) {
	ctx := context.Background()
	uc, clock := newUseCase(t, entity.ModeMulti, 20000*time.Millisecond,
		filter.Rule{Regex: `secret-\d+`, Replacement: "REDACTED"})

	stored := uc.Report(ctx, status.Status{Title: "secret-42 window", AppName: "Notes", OSName: "mac", ForceStatusType: "N/A"})
	assert.Equal(t, "REDACTED window", stored.Title)

	clock.Set(time.UnixMilli(5000))
	got := uc.Query(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, status.Status{Title: "REDACTED window", AppName: "Notes", OSName: "mac", ForceStatusType: "N/A"}, got[0])

	clock.Set(time.UnixMilli(25000))
	assert.Empty(t, uc.Query(ctx))
}

func TestEndToEndSingleSlot(t *testing.T) {
	ctx := context.Background()
	uc, clock := newUseCase(t, entity.ModeSingle, 20000*time.Millisecond,
		filter.Rule{Regex: `secret-\d+`, Replacement: "REDACTED"})

	assert.Equal(t, status.Offline(), uc.Current(ctx))

	uc.Report(ctx, status.Status{Title: "secret-42 window", AppName: "Notes", OSName: "mac", ForceStatusType: "N/A"})

	clock.Set(time.UnixMilli(5000))
	assert.Equal(t, "REDACTED window", uc.Current(ctx).Title)

	clock.Set(time.UnixMilli(25000))
	assert.Equal(t, status.Offline(), uc.Current(ctx))
}

func TestReportRedactsBeforeKeying(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t, entity.ModeMulti, time.Minute,
		filter.Rule{Regex: `^host-\d+$`, Replacement: "host"})

	uc.Report(ctx, status.WithOS("a", "x", "host-1"))
	uc.Report(ctx, status.WithOS("b", "x", "host-2"))

	got := uc.Query(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "host", got[0].OSName)
	assert.Equal(t, "b", got[0].Title)
}

func TestQueryKeepsDevicesSeparate(t *testing.T) {
	ctx := context.Background()
	uc, clock := newUseCase(t, entity.ModeMulti, 10*time.Second)

	uc.Report(ctx, status.WithOS("t1", "a", "linux"))
	clock.Set(time.UnixMilli(8000))
	uc.Report(ctx, status.WithOS("t2", "b", "windows"))

	assert.Len(t, uc.Query(ctx), 2)

	clock.Set(time.UnixMilli(15000))
	got := uc.Query(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "windows", got[0].OSName)
}

func TestConcurrentReports(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t, entity.ModeMulti, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uc.Report(ctx, status.WithOS("t", "a", fmt.Sprintf("device-%d", i)))
		}(i)
	}
	wg.Wait()

	assert.Len(t, uc.Query(ctx), 32)
	assert.Equal(t, time.Minute, uc.Timeout())
}
