package services

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/dojoquest-backend/internal/observability"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/platform/sendgrid"
	"github.com/yungbote/dojoquest-backend/internal/realtime"
)

type EmailMessage struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

// EmailDispatcher hands an email to a delivery path (direct provider call or a
// durable workflow).
type EmailDispatcher interface {
	DispatchEmail(ctx context.Context, msg EmailMessage) error
}

// Notification is one domain event. Channels get the realtime event; Email,
// when set, is dispatched as well.
type Notification struct {
	Event    realtime.SSEEvent
	Channels []string
	Data     map[string]any
	Email    *EmailMessage
}

// Notifier is fire-and-forget: delivery runs detached from the caller's
// context and failures are only logged.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NotifierDeps struct {
	Log      *logger.Logger
	Realtime realtime.Publisher
	Email    EmailDispatcher
	Timeout  time.Duration
}

type notifier struct {
	log      *logger.Logger
	realtime realtime.Publisher
	email    EmailDispatcher
	timeout  time.Duration
}

func NewNotifier(deps NotifierDeps) Notifier {
	if deps.Timeout <= 0 {
		deps.Timeout = 10 * time.Second
	}
	return &notifier{
		log:      deps.Log.With("service", "Notifier"),
		realtime: deps.Realtime,
		email:    deps.Email,
		timeout:  deps.Timeout,
	}
}

func (n *notifier) Notify(ctx context.Context, note Notification) {
	if n == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(base, n.timeout)
		defer cancel()
		n.deliver(ctx, note)
	}()
}

func (n *notifier) deliver(ctx context.Context, note Notification) {
	if n.realtime != nil {
		for _, ch := range note.Channels {
			if strings.TrimSpace(ch) == "" {
				continue
			}
			err := n.realtime.Publish(ctx, realtime.SSEMessage{Channel: ch, Event: note.Event, Data: note.Data})
			n.record("realtime", err)
			if err != nil {
				n.log.Warn("Realtime notification failed", "event", note.Event, "channel", ch, "error", err)
			}
		}
	}
	if note.Email != nil && strings.TrimSpace(note.Email.To) != "" {
		if n.email == nil {
			n.record("email", nil)
			return
		}
		err := n.email.DispatchEmail(ctx, *note.Email)
		n.record("email", err)
		if err != nil {
			n.log.Warn("Email notification failed", "event", note.Event, "category", note.Email.Category, "error", err)
		}
	}
}

func (n *notifier) record(channel string, err error) {
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case channel == "email" && n.email == nil:
		status = "skipped"
	}
	observability.Current().IncNotification(channel, status)
}

type sendGridDispatcher struct {
	client    sendgrid.Client
	fromEmail string
	fromName  string
}

// NewSendGridDispatcher sends synchronously through SendGrid. An empty
// fromEmail uses the client's default sender.
func NewSendGridDispatcher(client sendgrid.Client, fromEmail, fromName string) EmailDispatcher {
	return &sendGridDispatcher{client: client, fromEmail: fromEmail, fromName: fromName}
}

func (d *sendGridDispatcher) DispatchEmail(ctx context.Context, msg EmailMessage) error {
	req := sendgrid.SendEmailRequest{
		From:    sendgrid.EmailAddress{Email: d.fromEmail, Name: d.fromName},
		To:      []sendgrid.EmailAddress{{Email: msg.To}},
		Subject: msg.Subject,
		Text:    msg.Text,
	}
	if msg.Category != "" {
		req.Categories = []string{msg.Category}
	}
	_, err := d.client.Send(ctx, req)
	return err
}
