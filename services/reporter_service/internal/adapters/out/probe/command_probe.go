package probe

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/qwqdev/livestatus/pkg/status"
)

// Runner 执行一条 shell 命令并返回标准输出
type Runner func(ctx context.Context, command string) (string, error)

// CommandProbe 通过外部命令取活动窗口标题和应用名（例如 xdotool）
type CommandProbe struct {
	titleCommand string
	appCommand   string
	osName       string
	run          Runner
}

// NewCommandProbe 创建命令探针，osName 为空时使用当前运行系统
func NewCommandProbe(titleCommand, appCommand, osName string) *CommandProbe {
	if osName == "" {
		osName = runtime.GOOS
	}
	return &CommandProbe{
		titleCommand: titleCommand,
		appCommand:   appCommand,
		osName:       osName,
		run:          shellRunner,
	}
}

func shellRunner(ctx context.Context, command string) (string, error) {
	out, err := exec.CommandContext(ctx, "sh", "-c", command).Output()
	return string(out), err
}

// Current 两条命令都成功才返回状态
func (p *CommandProbe) Current(ctx context.Context) (status.Status, error) {
	if p.titleCommand == "" || p.appCommand == "" {
		return status.Status{}, fmt.Errorf("probe commands are not configured")
	}

	title, err := p.run(ctx, p.titleCommand)
	if err != nil {
		return status.Status{}, fmt.Errorf("title command: %w", err)
	}
	app, err := p.run(ctx, p.appCommand)
	if err != nil {
		return status.Status{}, fmt.Errorf("app command: %w", err)
	}

	return status.WithOS(strings.TrimSpace(title), strings.TrimSpace(app), p.osName), nil
}
