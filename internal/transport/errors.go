package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// 传输层错误分类（调用方用 errors.Is / errors.As 判断）
var (
	// ErrNetworkUnavailable 后端不可达（连接被拒绝、DNS 失败等）
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrTimeout 请求超过该客户端的超时时间
	ErrTimeout = errors.New("request timed out")
	// ErrParse 响应体无法解析
	ErrParse = errors.New("failed to parse response")
	// ErrAuthInvalid 认证无效（401/403 或 verify 返回 invalid）
	ErrAuthInvalid = errors.New("authentication invalid")
	// ErrNotFound 资源不存在（未知患者等）
	ErrNotFound = errors.New("resource not found")
)

// HTTPError 其他非 2xx 响应
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d: %s", e.Status, e.Detail)
}

// classifyTransportError 将底层网络错误归入错误分类
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
}

// classifyStatus 将非 2xx 状态码归入错误分类
func classifyStatus(status int, detail string) error {
	switch {
	case status == 401 || status == 403:
		return fmt.Errorf("%w: status %d: %s", ErrAuthInvalid, status, detail)
	case status == 404:
		return fmt.Errorf("%w: status %d: %s", ErrNotFound, status, detail)
	default:
		return &HTTPError{Status: status, Detail: detail}
	}
}

// IsUnreachable 判断错误是否应触发降级数据（网络不可达与超时同等处理）
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrNetworkUnavailable) || errors.Is(err, ErrTimeout)
}
