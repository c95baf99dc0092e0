// Package dataset validates raw tabular records and turns them into individuals.
package dataset

import (
	"strings"

	"github.com/okian/loftmatch/internal/domain/model"
)

// Required column names, in canonical order.
const (
	FieldID        = "ID"
	FieldName      = "Name"
	FieldGender    = "Gender"
	FieldColor     = "Color"
	FieldWeight    = "Weight"
	FieldHead      = "Head"
	FieldFeather   = "Feather"
	FieldPower     = "Power"
	FieldHealth    = "Health"
	FieldImagePath = "Image_Path"
)

// RequiredFields lists every column a dataset must provide.
var RequiredFields = []string{
	FieldID, FieldName, FieldGender, FieldColor, FieldWeight,
	FieldHead, FieldFeather, FieldPower, FieldHealth, FieldImagePath,
}

// Table is a loader-independent record set: a header row plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Dataset is a validated, read-only population.
type Dataset struct {
	Individuals []model.Individual
	Males       int
	Females     int
	Unknown     int
}

// Len returns the number of individuals.
func (d *Dataset) Len() int { return len(d.Individuals) }

// Validate checks the required columns, normalizes genders and verifies that
// both breeding sides are populated. The input table is not modified.
func Validate(t Table) (*Dataset, error) {
	index, missing := columnIndex(t.Header)
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	ds := &Dataset{Individuals: make([]model.Individual, 0, len(t.Rows))}
	for _, row := range t.Rows {
		cell := func(field string) string {
			i := index[field]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}

		gender := strings.ToLower(cell(FieldGender))
		ind := model.Individual{
			ID:         strings.TrimSpace(cell(FieldID)),
			Name:       strings.TrimSpace(cell(FieldName)),
			Gender:     gender,
			NormGender: ClassifyGender(gender),
			Color:      cell(FieldColor),
			Weight:     strings.TrimSpace(cell(FieldWeight)),
			Head:       cell(FieldHead),
			Feather:    cell(FieldFeather),
			Power:      strings.TrimSpace(cell(FieldPower)),
			Health:     strings.TrimSpace(cell(FieldHealth)),
			ImagePath:  strings.TrimSpace(cell(FieldImagePath)),
		}

		switch ind.NormGender {
		case model.Male:
			ds.Males++
		case model.Female:
			ds.Females++
		default:
			ds.Unknown++
		}
		ds.Individuals = append(ds.Individuals, ind)
	}

	if ds.Males == 0 || ds.Females == 0 {
		return nil, &InsufficientPopulationError{Males: ds.Males, Females: ds.Females}
	}
	return ds, nil
}

// ClassifyGender lowercases raw and buckets it. Any label containing "m" is
// male, even when it also contains "f"; otherwise a label containing "f" is
// female; anything else passes through lowercased.
func ClassifyGender(raw string) model.Gender {
	g := strings.ToLower(raw)
	switch {
	case strings.Contains(g, "m"):
		return model.Male
	case strings.Contains(g, "f"):
		return model.Female
	default:
		return model.Gender(g)
	}
}

// columnIndex maps canonical field names to header positions. Header names
// are trimmed and compared case-insensitively; the first occurrence wins.
func columnIndex(header []string) (map[string]int, []string) {
	index := make(map[string]int, len(RequiredFields))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		for _, field := range RequiredFields {
			if _, seen := index[field]; seen {
				continue
			}
			if strings.EqualFold(name, field) {
				index[field] = i
			}
		}
	}

	var missing []string
	for _, field := range RequiredFields {
		if _, ok := index[field]; !ok {
			missing = append(missing, field)
		}
	}
	return index, missing
}
