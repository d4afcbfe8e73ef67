package ids

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Generator produce identificadores para logs/sesiones y códigos de invitación.
type Generator interface {
	NewID() string
	NewCode() string
}

type uuidGenerator struct{}

// UUID usa uuid v4 (crypto/rand por debajo).
func UUID() Generator { return uuidGenerator{} }

func (uuidGenerator) NewID() string { return uuid.NewString() }

// NewCode devuelve un token de 128 bits (uuid v4 en hex, sin guiones, mayúsculas).
// Los códigos cortos alfanuméricos no alcanzan para unicidad en producción.
func (uuidGenerator) NewCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Sequence genera ids predecibles: "<prefix>-1", "<prefix>-2", ...
// Solo para tests.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewSequence(prefix string) *Sequence {
	if strings.TrimSpace(prefix) == "" {
		prefix = "id"
	}
	return &Sequence{prefix: prefix}
}

func (s *Sequence) next(kind string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%s%d", s.prefix, kind, s.n)
}

func (s *Sequence) NewID() string   { return s.next("") }
func (s *Sequence) NewCode() string { return strings.ToUpper(s.next("code")) }
