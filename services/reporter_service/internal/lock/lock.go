// Package lock 保证同一台机器上只有一个上报进程
package lock

import "errors"

// ErrLocked 锁已被其他进程持有
var ErrLocked = errors.New("another instance is already running")
