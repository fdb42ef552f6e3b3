package auth

import "encoding/json"

// Profile is the signed-in user's identity as reported by the userinfo
// endpoint. Fields the provider adds beyond the known ones are kept in Extra
// and written back unchanged.
type Profile struct {
	ID      string
	Name    string
	Email   string
	Picture string
	Locale  string
	Extra   map[string]any
}

var profileFields = []string{"id", "name", "email", "picture", "locale"}

func (p *Profile) field(name string) *string {
	switch name {
	case "id":
		return &p.ID
	case "name":
		return &p.Name
	case "email":
		return &p.Email
	case "picture":
		return &p.Picture
	case "locale":
		return &p.Locale
	}
	return nil
}

// UnmarshalJSON decodes a userinfo object.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*p = Profile{}
	for _, name := range profileFields {
		if v, ok := m[name].(string); ok {
			*p.field(name) = v
			delete(m, name)
		}
	}
	if len(m) > 0 {
		p.Extra = m
	}
	return nil
}

// MarshalJSON encodes the profile as a single flat object.
func (p Profile) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Extra)+len(profileFields))
	for k, v := range p.Extra {
		m[k] = v
	}
	for _, name := range profileFields {
		if v := *p.field(name); v != "" {
			m[name] = v
		}
	}
	return json.Marshal(m)
}
