package rabbitmq

import (
	"github.com/streadway/amqp"
)

// InitRabbitMQ 初始化RabbitMQ连接
func InitRabbitMQ(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// DeclareQueues 幂等声明durable队列，发布端和消费端都声明，谁先启动都行
func DeclareQueues(conn *amqp.Connection, queues ...string) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	for _, queue := range queues {
		// durable队列，RabbitMQ重启后队列本身不丢
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return err
		}
	}
	return nil
}

// Publisher 事件发布器。构造时把要用的队列声明好，
// 之后每条消息走一个临时Channel，消息之间互不影响
type Publisher struct {
	conn *amqp.Connection
}

func NewPublisher(conn *amqp.Connection, queues ...string) (*Publisher, error) {
	if err := DeclareQueues(conn, queues...); err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

// Publish 把消息体投到指定队列，消息持久化
func (p *Publisher) Publish(queue string, body []byte) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	return ch.Publish(
		"",    // exchange默认交换机
		queue, // routing key即队列名
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		})
}
