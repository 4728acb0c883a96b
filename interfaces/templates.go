package interfaces

import "fmt"

// Template is a reusable document template.
type Template struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Builtin   bool   `json:"builtin"`
	IsDefault bool   `json:"isDefault"`
}

// TemplatesStore holds the templates of a vault. Exactly one template is the
// default and built-in templates are never removed.
type TemplatesStore struct {
	Templates []Template `json:"templates"`
}

// Clone returns a copy of the store.
func (s TemplatesStore) Clone() TemplatesStore {
	return TemplatesStore{Templates: append([]Template(nil), s.Templates...)}
}

// Find returns the template with id.
func (s *TemplatesStore) Find(id string) (Template, bool) {
	if i := s.index(id); i >= 0 {
		return s.Templates[i], true
	}
	return Template{}, false
}

// Default returns the default template.
func (s *TemplatesStore) Default() (Template, bool) {
	for _, t := range s.Templates {
		if t.IsDefault {
			return t, true
		}
	}
	return Template{}, false
}

// SetDefault marks id as the only default template.
func (s *TemplatesStore) SetDefault(id string) error {
	if s.index(id) < 0 {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	for i := range s.Templates {
		s.Templates[i].IsDefault = s.Templates[i].ID == id
	}
	return nil
}

// Upsert replaces the template with the same id or appends it. Builtin and
// default flags of an existing template are kept; use SetDefault to move the default.
func (s *TemplatesStore) Upsert(t Template) {
	if i := s.index(t.ID); i >= 0 {
		t.Builtin = s.Templates[i].Builtin
		t.IsDefault = s.Templates[i].IsDefault
		s.Templates[i] = t
		return
	}
	t.Builtin = false
	t.IsDefault = false
	s.Templates = append(s.Templates, t)
}

// Remove deletes a user template. If it was the default, the first built-in
// template (or the first remaining one) becomes the default.
func (s *TemplatesStore) Remove(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	if s.Templates[i].Builtin {
		return fmt.Errorf("%w: %s", ErrBuiltinTemplate, id)
	}

	wasDefault := s.Templates[i].IsDefault
	s.Templates = append(s.Templates[:i:i], s.Templates[i+1:]...)
	if wasDefault && len(s.Templates) > 0 {
		next := s.Templates[0].ID
		for _, t := range s.Templates {
			if t.Builtin {
				next = t.ID
				break
			}
		}
		return s.SetDefault(next)
	}
	return nil
}

// Validate checks ids are present and unique and exactly one template is the default.
func (s *TemplatesStore) Validate() error {
	seen := make(map[string]struct{}, len(s.Templates))
	defaults := 0
	for _, t := range s.Templates {
		if t.ID == "" {
			return fmt.Errorf("%w: template without id", ErrInvalidTemplates)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: duplicate template id %s", ErrInvalidTemplates, t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		return fmt.Errorf("%w: expected exactly one default template, got %d", ErrInvalidTemplates, defaults)
	}
	return nil
}

// KeepsBuiltins reports whether every built-in template of prev is still in s.
func (s *TemplatesStore) KeepsBuiltins(prev TemplatesStore) error {
	for _, t := range prev.Templates {
		if !t.Builtin {
			continue
		}
		cur, ok := s.Find(t.ID)
		if !ok || !cur.Builtin {
			return fmt.Errorf("%w: %s", ErrBuiltinTemplate, t.ID)
		}
	}
	return nil
}

func (s *TemplatesStore) index(id string) int {
	for i, t := range s.Templates {
		if t.ID == id {
			return i
		}
	}
	return -1
}
