package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"resume-advisor/internal/config"
	"resume-advisor/internal/logger"
)

// Message 从队列取出的一条消息，处理完成后必须 Ack 或 Nack
type Message struct {
	ID   string
	Body []byte
	Ack  func() error
	Nack func(requeue bool) error
}

// MessageQueue 消息队列接口
type MessageQueue interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}) error
	Consume(ctx context.Context, queueName string, prefetchCount int) (<-chan Message, error)
	Close() error
}

var _ MessageQueue = (*RabbitMQ)(nil)

// RabbitMQ 提供消息队列功能
type RabbitMQ struct {
	conn      *amqp.Connection
	pubCh     *amqp.Channel
	pubMutex  sync.Mutex // amqp.Channel 不允许并发发布
	declared  map[string]bool
	declMutex sync.Mutex
	logger    zerolog.Logger
}

// NewRabbitMQ 建立连接并声明请求队列、结果交换机及其绑定
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("无法创建RabbitMQ通道: %w", err)
	}

	mq := &RabbitMQ{
		conn:     conn,
		pubCh:    ch,
		declared: make(map[string]bool),
		logger:   logger.Component("storage.rabbitmq"),
	}

	if err := mq.EnsureQueue(cfg.RequestQueue); err != nil {
		mq.Close()
		return nil, err
	}
	if cfg.ResultExchange != "" {
		if err := mq.EnsureExchange(cfg.ResultExchange, amqp.ExchangeTopic); err != nil {
			mq.Close()
			return nil, err
		}
	}

	mq.logger.Info().Str("request_queue", cfg.RequestQueue).Str("result_exchange", cfg.ResultExchange).Msg("成功连接到RabbitMQ服务器")
	return mq, nil
}

// Close 关闭通道和连接
func (r *RabbitMQ) Close() error {
	if r.pubCh != nil {
		_ = r.pubCh.Close()
	}
	return r.conn.Close()
}

// EnsureExchange 声明持久化交换机，同名只声明一次
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string) error {
	if exchangeName == "" {
		return fmt.Errorf("exchange名称不能为空")
	}
	return r.declareOnce("exchange:"+exchangeName, func(ch *amqp.Channel) error {
		return ch.ExchangeDeclare(exchangeName, exchangeType, true, false, false, false, nil)
	})
}

// EnsureQueue 声明持久化队列
func (r *RabbitMQ) EnsureQueue(queueName string) error {
	if queueName == "" {
		return fmt.Errorf("queue名称不能为空")
	}
	return r.declareOnce("queue:"+queueName, func(ch *amqp.Channel) error {
		_, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
		return err
	})
}

// BindQueue 绑定队列到交换机
func (r *RabbitMQ) BindQueue(queueName, exchangeName, routingKey string) error {
	return r.declareOnce("binding:"+exchangeName+":"+queueName+":"+routingKey, func(ch *amqp.Channel) error {
		return ch.QueueBind(queueName, routingKey, exchangeName, false, nil)
	})
}

func (r *RabbitMQ) declareOnce(key string, declare func(ch *amqp.Channel) error) error {
	r.declMutex.Lock()
	defer r.declMutex.Unlock()
	if r.declared[key] {
		return nil
	}

	r.pubMutex.Lock()
	err := declare(r.pubCh)
	r.pubMutex.Unlock()
	if err != nil {
		return fmt.Errorf("声明 %s 失败: %w", key, err)
	}
	r.declared[key] = true
	return nil
}

// PublishJSON 发布持久化的 JSON 消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}

	r.pubMutex.Lock()
	defer r.pubMutex.Unlock()

	return r.pubCh.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Consume 在独立通道上消费队列，ctx 取消后关闭通道并结束输出
func (r *RabbitMQ) Consume(ctx context.Context, queueName string, prefetchCount int) (<-chan Message, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("无法获取RabbitMQ通道: %w", err)
	}
	if prefetchCount > 0 {
		if err := ch.Qos(prefetchCount, 0, false); err != nil {
			ch.Close()
			return nil, fmt.Errorf("设置QoS失败: %w", err)
		}
	}

	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("注册消费者失败: %w", err)
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		defer ch.Close()
		r.logger.Info().Str("queue", queueName).Int("prefetch", prefetchCount).Msg("RabbitMQ消费者已启动")

		for {
			select {
			case <-ctx.Done():
				r.logger.Info().Str("queue", queueName).Msg("RabbitMQ消费者已停止")
				return
			case d, ok := <-deliveries:
				if !ok {
					r.logger.Warn().Str("queue", queueName).Msg("RabbitMQ通道已关闭")
					return
				}
				msg := Message{
					ID:   d.MessageId,
					Body: d.Body,
					Ack:  func() error { return d.Ack(false) },
					Nack: func(requeue bool) error { return d.Nack(false, requeue) },
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}
