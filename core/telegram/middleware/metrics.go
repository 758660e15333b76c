package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const (
	keyMessages = "metrics.messages"
	keyKeyboard = "metrics.kb"
	keyAnswered = "metrics.answered"
)

// Counters describes what a handler sent back for one update.
type Counters struct {
	Messages int
	Keyboard bool
	// Answered is set once a callback query was acknowledged. Pager control
	// presses that stay unanswered leave a spinner on the client.
	Answered bool
}

// metricsContext wraps tele.Context and records outgoing traffic.
type metricsContext struct{ tele.Context }

func (m metricsContext) count(opts []interface{}) {
	n, _ := m.Get(keyMessages).(int)
	m.Set(keyMessages, n+1)
	if hasKeyboard(opts) {
		m.Set(keyKeyboard, true)
	}
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) Send(what interface{}, opts ...interface{}) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.count(opts)
	}
	return err
}

func (m metricsContext) Reply(what interface{}, opts ...interface{}) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.count(opts)
	}
	return err
}

func (m metricsContext) Edit(what interface{}, opts ...interface{}) error {
	err := m.Context.Edit(what, opts...)
	if err == nil {
		m.count(opts)
	}
	return err
}

// Respond acknowledges the callback query and marks the update answered.
func (m metricsContext) Respond(resp ...*tele.CallbackResponse) error {
	err := m.Context.Respond(resp...)
	if err == nil {
		m.Set(keyAnswered, true)
	}
	return err
}

// MessageMetricsMiddleware counts replies, keyboards and callback answers per update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(keyMessages, 0)
		c.Set(keyKeyboard, false)
		c.Set(keyAnswered, false)
		return next(metricsContext{Context: c})
	}
}

// GetCounters reads the counters collected by MessageMetricsMiddleware.
func GetCounters(c tele.Context) Counters {
	var out Counters
	out.Messages, _ = c.Get(keyMessages).(int)
	out.Keyboard, _ = c.Get(keyKeyboard).(bool)
	out.Answered, _ = c.Get(keyAnswered).(bool)
	return out
}
