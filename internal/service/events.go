package service

// EventPublisher 向消息队列投递序列化好的事件体。
// amqp实现在pkg/rabbitmq，service层只依赖这个窄接口，单测注入假实现。
type EventPublisher interface {
	Publish(queue string, body []byte) error
}
