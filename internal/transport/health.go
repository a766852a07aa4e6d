package transport

import (
	"context"
	"sync"
)

// BackendHealth 单个后端的健康检查结果
type BackendHealth struct {
	Name   string
	Status string
	Err    error
}

// healthChecker 可被健康检查探测的客户端
type healthChecker interface {
	Health(ctx context.Context) (string, error)
}

// CheckHealth 并发探测全部后端的存活状态
// 只用于启动时的整体健康报告，单个后端失败不影响其他探测
func CheckHealth(ctx context.Context, vitals *VitalsClient, alerts *AlertsClient, summarizer *SummarizerClient, auth *AuthClient) []BackendHealth {
	backends := []struct {
		name   string
		client healthChecker
	}{
		{"vitals", vitals},
		{"alerts", alerts},
		{"summarizer", summarizer},
		{"auth", auth},
	}

	results := make([]BackendHealth, len(backends))
	var wg sync.WaitGroup
	for i, backend := range backends {
		wg.Add(1)
		go func(i int, name string, client healthChecker) {
			defer wg.Done()
			status, err := client.Health(ctx)
			results[i] = BackendHealth{Name: name, Status: status, Err: err}
		}(i, backend.name, backend.client)
	}
	wg.Wait()
	return results
}
