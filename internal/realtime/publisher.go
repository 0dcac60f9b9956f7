package realtime

import "context"

// Publisher delivers a message to every subscriber of msg.Channel, on this
// instance or, with a bus, on every instance.
type Publisher interface {
	Publish(ctx context.Context, msg SSEMessage) error
}

type localPublisher struct {
	hub *SSEHub
}

func NewLocalPublisher(hub *SSEHub) Publisher {
	return &localPublisher{hub: hub}
}

func (p *localPublisher) Publish(_ context.Context, msg SSEMessage) error {
	p.hub.Broadcast(msg)
	return nil
}
