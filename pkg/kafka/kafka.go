// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/config"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/events"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/log"
)

// 同一条消息处理失败达到该次数后提交 offset，不再重试。
const maxAttempts = 3

// EventSink 处理从 Kafka 收到的回合事件。
type EventSink interface {
	Record(ctx context.Context, event events.TurnEvent) error
}

// Producer 把回合事件写入 Kafka。
type Producer struct {
	writer *kafka.Writer
}

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// NewProducer 初始化 Kafka 生产者。以会话 ID 作为消息 key，同一会话的事件保持顺序。
func NewProducer(cfg config.KafkaConfig) *Producer {
	p := &Producer{writer: &kafka.Writer{
		Addr:     kafka.TCP(brokers(cfg)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},

		// 默认 1s 的批量等待会直接叠加到每个回合的响应时间上
		BatchTimeout: 10 * time.Millisecond,
	}}
	log.Info("Kafka 生产者初始化成功")
	return p
}

// Publish 发送一条回合事件。
func (p *Producer) Publish(ctx context.Context, event events.TurnEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: value,
	})
}

// Close 关闭生产者，刷新未发送的消息。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// 读取失败后的重试间隔，按次数翻倍，上限 fetchRetryMax。
var (
	fetchRetryBase = 200 * time.Millisecond
	fetchRetryMax  = 10 * time.Second
)

// messageReader 是 consume 用到的 *kafka.Reader 方法子集。
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// StartConsumer 启动消费循环，直到 ctx 被取消。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, sink EventSink) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Error("关闭 Kafka 消费者失败", err)
		}
	}()

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)
	consume(ctx, r, sink)
	log.Info("Kafka 消费者已停止")
}

func consume(ctx context.Context, r messageReader, sink EventSink) {
	failures := 0
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			failures++
			wait := retryDelay(failures)
			log.Errorf("从 Kafka 读取消息失败，%s 后重试: %v", wait, err)
			if !sleep(ctx, wait) {
				return
			}
			continue
		}
		failures = 0

		var event events.TurnEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			commit(ctx, r, m)
			continue
		}

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			err = sink.Record(ctx, event)
			if err == nil {
				break
			}
			log.Errorf("处理回合事件失败: session=%s, attempt=%d, error=%v", event.SessionID, attempt, err)
			if attempt == maxAttempts {
				break
			}
			if !sleep(ctx, time.Duration(attempt)*200*time.Millisecond) {
				return
			}
		}
		if err != nil {
			log.Errorf("回合事件多次失败(>=%d)，提交 offset 终止重试: session=%s", maxAttempts, event.SessionID)
		}
		commit(ctx, r, m)
	}
}

func retryDelay(failures int) time.Duration {
	d := fetchRetryBase
	for i := 1; i < failures && d < fetchRetryMax; i++ {
		d *= 2
	}
	if d > fetchRetryMax {
		d = fetchRetryMax
	}
	return d
}

// sleep 等待 d，ctx 先被取消时返回 false。
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func commit(ctx context.Context, r messageReader, m kafka.Message) {
	if err := r.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
