// Package persistence define el contrato de errores que comparten los adapters de storage
// (memory, postgres, sqlite). Cada módulo de dominio declara su propio Repository.
package persistence

import "errors"

var (
	// ErrNotFound: el registro pedido no existe para esa cuenta.
	ErrNotFound = errors.New("persistence: not found")

	// ErrStale: un compare-and-set perdió contra otra escritura.
	ErrStale = errors.New("persistence: stale write")
)

// ErrUnavailable envuelve cualquier falla del store inyectado (red, disco, driver).
// Los servicios de dominio la devuelven con fmt.Errorf("%w: %v", ErrUnavailable, err).
var ErrUnavailable = errors.New("persistence unavailable")
