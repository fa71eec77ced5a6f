package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qwqdev/livestatus/pkg/status"
)

// StatusPublisher 通过 PUT /api/status 上报
type StatusPublisher struct {
	client *http.Client
	url    string
	key    string
}

// NewStatusPublisher 创建上报客户端
func NewStatusPublisher(url, key string, timeout time.Duration) *StatusPublisher {
	return &StatusPublisher{
		client: &http.Client{Timeout: timeout},
		url:    url,
		key:    key,
	}
}

// Publish 非 2xx 响应视为失败
func (p *StatusPublisher) Publish(ctx context.Context, st status.Status) error {
	body, err := json.Marshal(st)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", p.key)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// 读完响应体以复用连接
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, p.url)
	}
	return nil
}
