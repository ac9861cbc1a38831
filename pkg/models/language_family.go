package models

// Language is a member of a language family
type Language struct {
	Code    string   `json:"code" yaml:"code"`                           // ISO 639-3
	Name    string   `json:"name" yaml:"name"`                           // English display name
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"` // e.g. ISO 639-1
}

// LanguageFamily is static reference data about related languages
type LanguageFamily struct {
	Name           string     `json:"name" yaml:"name"`
	Languages      []Language `json:"languages" yaml:"languages"`
	SharedConcepts []string   `json:"shared_concepts" yaml:"shared_concepts"`
}

// HasConcept reports whether conceptID transfers across the family
func (f LanguageFamily) HasConcept(conceptID string) bool {
	for _, c := range f.SharedConcepts {
		if c == conceptID {
			return true
		}
	}
	return false
}
