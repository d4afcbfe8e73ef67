package clock

import (
	"sync"
	"time"
)

// Clock es la única fuente de "ahora" para los servicios del core.
// Ningún servicio llama time.Now() directamente.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System devuelve el reloj real (UTC).
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Manual es un reloj controlado a mano, pensado para tests deterministas.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance mueve el reloj hacia adelante (o atrás si d < 0).
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC()
}
