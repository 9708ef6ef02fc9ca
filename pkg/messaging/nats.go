package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"StockRadar/pkg/model"
)

// 任务状态事件的主题
const (
	SubjectChangeCompleted = "stockchanges.completed"
	SubjectChangeFailed    = "stockchanges.failed"
)

// Publisher NATS JetStream发布端
// 为 nil 时所有操作都是空操作, 事件发布失败不影响任务本身
type Publisher struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewPublisher 创建新的NATS发布端
func NewPublisher(natsURL, clientID string) (*Publisher, error) {
	// 连接NATS
	nc, err := nats.Connect(natsURL,
		nats.Name(clientID),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // 无限重连
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS连接断开: %v\n", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Println("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	// 创建JetStream上下文
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Publisher{
		conn:      nc,
		jetStream: js,
		ctx:       ctx,
		cancel:    cancel,
	}

	// 初始化任务状态事件Stream
	if err := p.setupStream(); err != nil {
		log.Printf("警告: 设置Stream失败: %v\n", err)
	}

	return p, nil
}

// setupStream 设置任务状态事件Stream
func (p *Publisher) setupStream() error {
	_, err := p.jetStream.CreateOrUpdateStream(p.ctx, jetstream.StreamConfig{
		Name:        "STOCK_CHANGES",
		Subjects:    []string{"stockchanges.*"},
		Description: "股价变动任务状态事件流",
		Retention:   jetstream.LimitsPolicy,
		MaxMsgs:     50000,
		MaxBytes:    50 * 1024 * 1024,   // 50MB
		MaxAge:      7 * 24 * time.Hour, // 保留7天
	})
	if err != nil {
		return fmt.Errorf("创建/更新Stream失败: %w", err)
	}

	return nil
}

// PublishChangeEvent 发布任务状态变更事件
func (p *Publisher) PublishChangeEvent(event model.StockChangeEvent) error {
	if p == nil {
		return nil
	}

	subject := SubjectChangeFailed
	if event.Status == model.StatusCompleted {
		subject = SubjectChangeCompleted
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	if _, err := p.jetStream.Publish(p.ctx, subject, payload); err != nil {
		return fmt.Errorf("发布事件到 %s 失败: %w", subject, err)
	}

	return nil
}

// Close 关闭连接
func (p *Publisher) Close() {
	if p == nil {
		return
	}

	p.cancel()
	if p.conn != nil {
		p.conn.Close()
	}
}

// IsConnected 检查连接状态
func (p *Publisher) IsConnected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}
