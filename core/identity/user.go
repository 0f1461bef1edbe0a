package identity

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// adminRole is the role value that routes to the administrative landing.
const adminRole = "admin"

// User is the decoded identity record held by an authenticated session.
// Attributes beyond the known fields are preserved in Extra so the identity
// service can evolve its payload without breaking cached snapshots.
type User struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  string

	// Extra holds open-ended attributes the service returned alongside the
	// known fields.
	Extra map[string]any
}

// IsAdmin reports whether the user carries the administrative role.
func (u *User) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, adminRole)
}

// DisplayName returns the user's name, falling back to the email address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

type userJSON struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"`
	Role  string    `json:"role,omitempty"`
}

// MarshalJSON flattens Extra back into the top-level object so a cached
// snapshot round-trips to the service's wire shape.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+4)
	for k, v := range u.Extra {
		out[k] = v
	}
	out["id"] = u.ID
	out["email"] = u.Email
	if u.Name != "" {
		out["name"] = u.Name
	}
	if u.Role != "" {
		out["role"] = u.Role
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the known fields and collects everything else into Extra.
func (u *User) UnmarshalJSON(data []byte) error {
	var known userJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, "id")
	delete(raw, "email")
	delete(raw, "name")
	delete(raw, "role")

	var extra map[string]any
	if len(raw) > 0 {
		extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			extra[k] = val
		}
	}

	*u = User{
		ID:    known.ID,
		Email: known.Email,
		Name:  known.Name,
		Role:  known.Role,
		Extra: extra,
	}
	return nil
}
