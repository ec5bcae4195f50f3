package notification

import "errors"

// Topology names the broker destination. It is passed explicitly to the
// publisher and the consumer; on Redis the exchange and routing key select the
// stream and the queue is the consumer group.
type Topology struct {
	Exchange   string
	RoutingKey string
	Queue      string
}

func DefaultTopology() Topology {
	return Topology{
		Exchange:   "appointment.exchange",
		RoutingKey: "appointment.notification",
		Queue:      "appointment.queue",
	}
}

func (t Topology) Stream() string {
	return t.Exchange + ":" + t.RoutingKey
}

func (t Topology) Group() string {
	return t.Queue
}

func (t Topology) Validate() error {
	if t.Exchange == "" || t.RoutingKey == "" || t.Queue == "" {
		return errors.New("notification topology requires exchange, routing key and queue")
	}
	return nil
}
