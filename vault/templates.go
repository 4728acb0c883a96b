package vault

import "github.com/ruteri/docvault/interfaces"

// Built-in template ids. They are stable across releases because stored
// vaults refer to them.
const (
	TemplateLetter  = "builtin-letter"
	TemplateInvoice = "builtin-invoice"
	TemplateNDA     = "builtin-nda"
)

func builtinTemplates() []interfaces.Template {
	return []interfaces.Template{
		{
			ID:        TemplateLetter,
			Name:      "Letter",
			Subject:   "{{subject}}",
			Body:      "Dear {{recipient}},\n\n{{content}}\n\nKind regards,\n{{sender}}",
			Builtin:   true,
			IsDefault: true,
		},
		{
			ID:      TemplateInvoice,
			Name:    "Invoice",
			Subject: "Invoice {{number}}",
			Body:    "Invoice {{number}}\nDate: {{date}}\nBill to: {{recipient}}\n\n{{items}}\n\nTotal: {{total}}",
			Builtin: true,
		},
		{
			ID:      TemplateNDA,
			Name:    "Non-disclosure agreement",
			Subject: "Mutual non-disclosure agreement",
			Body:    "This agreement is made on {{date}} between {{sender}} and {{recipient}}.\n\n{{content}}",
			Builtin: true,
		},
	}
}

// DefaultTemplatesStore returns the template set of a freshly created vault.
func DefaultTemplatesStore() interfaces.TemplatesStore {
	return interfaces.TemplatesStore{Templates: builtinTemplates()}
}

// withBuiltins returns store with every missing built-in template prepended
// and exactly one default, preferring an existing default.
func withBuiltins(store interfaces.TemplatesStore) interfaces.TemplatesStore {
	out := interfaces.TemplatesStore{}
	for _, b := range builtinTemplates() {
		if _, ok := store.Find(b.ID); !ok {
			b.IsDefault = false
			out.Templates = append(out.Templates, b)
		}
	}
	for _, t := range store.Templates {
		if isBuiltinID(t.ID) {
			t.Builtin = true
		}
		out.Templates = append(out.Templates, t)
	}

	defaultID := TemplateLetter
	for _, t := range out.Templates {
		if t.IsDefault {
			defaultID = t.ID
			break
		}
	}
	_ = out.SetDefault(defaultID)
	return out
}

func isBuiltinID(id string) bool {
	for _, b := range builtinTemplates() {
		if b.ID == id {
			return true
		}
	}
	return false
}
