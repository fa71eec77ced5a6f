//go:build !unix

package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileLock 非 unix 平台退化为独占创建文件
type FileLock struct {
	path string
}

// Acquire 文件已存在即视为被占用
func Acquire(path string) (*FileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	f.Close()
	return &FileLock{path: path}, nil
}

// Release 删除锁文件
func (l *FileLock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	defer func() { l.path = "" }()
	return os.Remove(l.path)
}
