package audit

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// chainKey separa el dominio de estos hashes de cualquier otro BLAKE3 keyed.
// Cambiarlo invalida todas las cadenas existentes.
var chainKey = [32]byte{
	's', 'h', 'a', 'r', 'e', 'd', '-', 'a', 'c', 'c', 'e', 's', 's', '.',
	'a', 'u', 'd', 'i', 't', '.', 'c', 'h', 'a', 'i', 'n', 0, 0, 0, 0, 0, 0, 0,
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("audit: CBOR encoder initialization failed: " + err.Error())
	}
}

// hashedEntry es todo lo que cubre el hash. Tiempo en nanos Unix (UTC) para no
// depender de la representación de zona horaria.
type hashedEntry struct {
	LogID         string `cbor:"1,keyasint"`
	Seq           int64  `cbor:"2,keyasint"`
	TimestampNano int64  `cbor:"3,keyasint"`
	AccountID     string `cbor:"4,keyasint"`
	ActorID       string `cbor:"5,keyasint"`
	Role          string `cbor:"6,keyasint"`
	Action        string `cbor:"7,keyasint"`
	Details       []byte `cbor:"8,keyasint"`
	RecordID      string `cbor:"9,keyasint"`
	RecordType    string `cbor:"10,keyasint"`
	Reason        string `cbor:"11,keyasint"`
	SessionID     string `cbor:"12,keyasint"`
	ChangesBefore []byte `cbor:"13,keyasint"`
	ChangesAfter  []byte `cbor:"14,keyasint"`
	PrevHash      string `cbor:"15,keyasint"`
}

func computeHash(e Entry) (string, error) {
	b, err := encMode.Marshal(hashedEntry{
		LogID:         e.LogID,
		Seq:           e.Seq,
		TimestampNano: e.Timestamp.UTC().UnixNano(),
		AccountID:     e.AccountID,
		ActorID:       e.ActorID,
		Role:          string(e.Role),
		Action:        string(e.Action),
		Details:       nilIfEmpty(e.Details),
		RecordID:      e.RecordID,
		RecordType:    e.RecordType,
		Reason:        e.Reason,
		SessionID:     e.SessionID,
		ChangesBefore: nilIfEmpty(e.ChangesBefore),
		ChangesAfter:  nilIfEmpty(e.ChangesAfter),
		PrevHash:      e.PrevHash,
	})
	if err != nil {
		return "", err
	}

	hasher, err := blake3.NewKeyed(chainKey[:])
	if err != nil {
		return "", err
	}
	_, _ = hasher.Write(b)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// NULL y payload vacío son lo mismo para el hash (los drivers no coinciden en cuál devuelven).
func nilIfEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
