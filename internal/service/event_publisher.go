package service

import (
	"context"

	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/events"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/kafka"
)

// TurnEventPublisher 把回合事件交给分析链路。kafka.Producer 实现了该接口。
type TurnEventPublisher interface {
	Publish(ctx context.Context, event events.TurnEvent) error
}

// directPublisher 在未配置 Kafka 时同步写入分析存储。
type directPublisher struct {
	sink kafka.EventSink
}

// NewDirectPublisher 返回一个直接调用 sink 的发布器。
func NewDirectPublisher(sink kafka.EventSink) TurnEventPublisher {
	return &directPublisher{sink: sink}
}

func (p *directPublisher) Publish(ctx context.Context, event events.TurnEvent) error {
	return p.sink.Record(ctx, event)
}

type nopPublisher struct{}

// NewNopPublisher 返回一个丢弃所有事件的发布器。
func NewNopPublisher() TurnEventPublisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, events.TurnEvent) error { return nil }
