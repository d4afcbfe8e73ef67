// Package rowcodec serializa las partes anidadas de un grant (slots y hogar) a JSON
// para los adapters SQL. El formato es interno al storage.
package rowcodec

import (
	"encoding/json"
	"time"

	"shared-access-core/internal/domain/grants"
	"shared-access-core/internal/domain/permissions"
)

type slotRow struct {
	ID             string               `json:"id"`
	Name           string               `json:"name,omitempty"`
	Phone          string               `json:"phone,omitempty"`
	GrantedAt      time.Time            `json:"granted_at"`
	Permissions    []permissions.Action `json:"permissions"`
	InvitationCode string               `json:"invitation_code,omitempty"`
}

type memberRow struct {
	ID          string               `json:"id"`
	Name        string               `json:"name,omitempty"`
	GrantedAt   time.Time            `json:"granted_at"`
	Permissions []permissions.Action `json:"permissions"`
}

// EncodeSlot devuelve nil para un slot vacío (columna NULL).
func EncodeSlot(s *grants.Slot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(slotRow{
		ID:             s.ID,
		Name:           s.Name,
		Phone:          s.Phone,
		GrantedAt:      s.GrantedAt.UTC(),
		Permissions:    s.Permissions,
		InvitationCode: s.InvitationCode,
	})
}

func DecodeSlot(b []byte) (*grants.Slot, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	var row slotRow
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, err
	}
	return &grants.Slot{
		Identity:       grants.Identity{ID: row.ID, Name: row.Name, Phone: row.Phone},
		GrantedAt:      row.GrantedAt.UTC(),
		Permissions:    row.Permissions,
		InvitationCode: row.InvitationCode,
	}, nil
}

// EncodeHousehold siempre escribe un array (nunca NULL) para conservar el orden de alta.
func EncodeHousehold(members []grants.HouseholdMember) ([]byte, error) {
	rows := make([]memberRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, memberRow{
			ID:          m.ID,
			Name:        m.Name,
			GrantedAt:   m.GrantedAt.UTC(),
			Permissions: m.Permissions,
		})
	}
	return json.Marshal(rows)
}

func DecodeHousehold(b []byte) ([]grants.HouseholdMember, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	var rows []memberRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]grants.HouseholdMember, 0, len(rows))
	for _, r := range rows {
		out = append(out, grants.HouseholdMember{
			ID:          r.ID,
			Name:        r.Name,
			GrantedAt:   r.GrantedAt.UTC(),
			Permissions: r.Permissions,
		})
	}
	return out, nil
}
