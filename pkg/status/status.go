// Package status 定义客户端上报、服务端聚合共用的状态结构
package status

import "runtime"

// NotAvailable 表示未知或未强制指定
const NotAvailable = "N/A"

// Status 一次用户活动快照，四个字段始终存在
type Status struct {
	Title           string `json:"title"`
	AppName         string `json:"app_name"`
	OSName          string `json:"os_name"`
	ForceStatusType string `json:"force_status_type"`
}

// New 以当前运行系统作为设备标识
func New(title, appName string) Status {
	return WithOS(title, appName, runtime.GOOS)
}

// WithOS 指定设备标识
func WithOS(title, appName, osName string) Status {
	return Status{
		Title:           title,
		AppName:         appName,
		OSName:          osName,
		ForceStatusType: NotAvailable,
	}
}

// NA 采集失败时的占位状态
func NA() Status {
	return New(NotAvailable, NotAvailable)
}

// Offline 没有新鲜上报时的占位状态
func Offline() Status {
	return Status{
		Title:           "Client is currently offline.",
		AppName:         "Offline",
		OSName:          "Offline",
		ForceStatusType: NotAvailable,
	}
}
