// Package model contains domain models passed between layers.
package model

// Gender is the normalized gender bucket of an individual. Values other
// than Male and Female carry the lowercased raw label.
type Gender string

// Known gender buckets.
const (
	Male   Gender = "male"
	Female Gender = "female"
)

// IsKnown reports whether g is one of the two breeding buckets.
func (g Gender) IsKnown() bool {
	return g == Male || g == Female
}

// Individual is one breeding candidate as loaded from a dataset row.
// Numeric traits keep the raw cell text so that malformed values are
// rejected at scoring time instead of being coerced to zero.
type Individual struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Gender     string `json:"gender" yaml:"gender"`           // raw label, lowercased
	NormGender Gender `json:"norm_gender" yaml:"norm_gender"` // male, female or the raw label
	Color      string `json:"color" yaml:"color"`
	Weight     string `json:"weight" yaml:"weight"` // grams
	Head       string `json:"head" yaml:"head"`
	Feather    string `json:"feather" yaml:"feather"`
	Power      string `json:"power" yaml:"power"`
	Health     string `json:"health" yaml:"health"`
	ImagePath  string `json:"image_path,omitempty" yaml:"image_path,omitempty"`
}

// Label returns the display label used by reports: the name, a dash and the ID.
func (i Individual) Label() string {
	if i.Name == "" {
		return i.ID
	}
	return i.Name + " — " + i.ID
}
