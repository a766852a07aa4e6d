package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"vitalwatch-client/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// VitalStream 单患者体征推送订阅句柄
// 由持有方负责在退出时调用 Close()，不依赖 GC 释放连接
type VitalStream struct {
	patientID string
	conn      *websocket.Conn
	fragments chan models.VitalSnapshot
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger

	mu  sync.Mutex
	err error
}

// SubscribeVitals 打开患者体征推送通道
// 地址由体征服务基础地址派生：http→ws（https→wss），路径 /ws/vitals/{id}
// 推送消息为 VitalSnapshot 字段的任意子集，按到达顺序投递
func (c *VitalsClient) SubscribeVitals(ctx context.Context, patientID string) (*VitalStream, error) {
	wsURL, err := deriveStreamURL(c.baseURL, patientID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	stream := &VitalStream{
		patientID: patientID,
		conn:      conn,
		fragments: make(chan models.VitalSnapshot, 16),
		done:      make(chan struct{}),
		logger:    c.logger,
	}
	go stream.readLoop()
	return stream, nil
}

// deriveStreamURL 把 http 基础地址转换为 ws 推送地址
func deriveStreamURL(baseURL, patientID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse vitals base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws/vitals/" + patientID
	return u.String(), nil
}

// readLoop 读取推送消息直到连接关闭
// 解析失败的消息记录后跳过，不中断订阅
func (s *VitalStream) readLoop() {
	defer close(s.fragments)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// 主动关闭，不视为错误
			default:
				s.setErr(err)
			}
			return
		}

		var fragment models.VitalSnapshot
		if err := json.Unmarshal(data, &fragment); err != nil {
			s.logger.Warn("Failed to parse vitals fragment",
				zap.String("patient_id", s.patientID),
				zap.Error(err),
			)
			continue
		}

		select {
		case s.fragments <- fragment:
		case <-s.done:
			return
		}
	}
}

// Fragments 推送消息通道
// 通道关闭表示订阅结束，结束原因通过 Err() 区分（nil 为正常关闭）
func (s *VitalStream) Fragments() <-chan models.VitalSnapshot {
	return s.fragments
}

// Err 返回导致订阅结束的错误（正常关闭为 nil）
func (s *VitalStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close 关闭订阅（幂等）
func (s *VitalStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *VitalStream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}
