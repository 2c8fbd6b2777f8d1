package market

import (
	"sync"

	"github.com/GoPolymarket/auctionbot/internal/model"
)

// Mailer delivers auction mail. Nothing is ever sent to the bot's own
// character; those mails (and any items they carry) are dropped.
type Mailer struct {
	mu         sync.RWMutex
	botChar    uint64
	sinks      []NotificationSink
	suppressed uint64
	delivered  uint64
}

func NewMailer(botCharacter uint64) *Mailer {
	return &Mailer{botChar: botCharacter}
}

func (m *Mailer) AddSink(sink NotificationSink) {
	if sink == nil {
		return
	}
	m.mu.Lock()
	m.sinks = append(m.sinks, sink)
	m.mu.Unlock()
}

// Send applies the bot policy and fans out to the sinks. Reports whether the mail was delivered.
func (m *Mailer) Send(n model.Notification) bool {
	m.mu.Lock()
	if n.Recipient == 0 || n.Recipient == m.botChar {
		m.suppressed++
		m.mu.Unlock()
		return false
	}
	m.delivered++
	sinks := append([]NotificationSink(nil), m.sinks...)
	m.mu.Unlock()

	for _, sink := range sinks {
		sink(n)
	}
	return true
}

// Stats returns delivered and suppressed counts.
func (m *Mailer) Stats() (delivered, suppressed uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.delivered, m.suppressed
}
