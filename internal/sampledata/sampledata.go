// Package sampledata generates synthetic loft populations for demos and tests.
package sampledata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/loftmatch/internal/domain/dataset"
	"github.com/okian/loftmatch/internal/domain/model"
	"github.com/okian/loftmatch/internal/domain/traits"
	"github.com/xuri/excelize/v2"
)

// Generation ranges.
const (
	minCount         = 2
	baseWeightGrams  = 340
	weightSpanGrams  = 120
	maxScore         = 10
	defaultUnknownPc = 0.1
	sheetName        = "Sheet1"
)

// Gender labels as written to the dataset. "female" would classify as male.
const (
	maleLabel   = "m"
	femaleLabel = "f"
)

// ErrTooFew is returned when fewer than two individuals are requested.
var ErrTooFew = errors.New("sample needs at least two individuals")

var names = []string{
	"Ace", "Bella", "Comet", "Dove", "Ember", "Flint", "Ginger", "Hazel",
	"Indigo", "Juno", "Kestrel", "Luna", "Maverick", "Nimbus", "Opal", "Pepper",
}

// Labels absent from the default tables, scored with the fallback value.
var unknownLabels = map[traits.Trait]string{
	traits.Color:   "blue bar",
	traits.Head:    "crested",
	traits.Feather: "silky",
}

// Option applies a configuration option to the generator.
type Option func(*generator)

// WithSeed makes generation deterministic.
func WithSeed(seed uint64) Option {
	return func(g *generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithUnknownRate sets the probability of emitting a label missing from the
// trait tables. Values outside [0, 1] are ignored.
func WithUnknownRate(p float64) Option {
	return func(g *generator) {
		if p >= 0 && p <= 1 {
			g.unknownRate = p
		}
	}
}

// WithIDGenerator overrides the uuid based ID source.
func WithIDGenerator(gen func() string) Option {
	return func(g *generator) {
		if gen != nil {
			g.newID = gen
		}
	}
}

type generator struct {
	rng         *rand.Rand
	unknownRate float64
	newID       func() string
	labels      map[traits.Trait][]string
}

// Generate returns n individuals with alternating genders, starting male.
func Generate(n int, opts ...Option) ([]model.Individual, error) {
	if n < minCount {
		return nil, fmt.Errorf("%w: got %d", ErrTooFew, n)
	}

	g := &generator{
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		unknownRate: defaultUnknownPc,
		newID:       uuid.NewString,
		labels:      make(map[traits.Trait][]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	for trait, table := range traits.DefaultTables() {
		labels := make([]string, 0, len(table))
		for label := range table {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		g.labels[trait] = labels
	}

	out := make([]model.Individual, 0, n)
	for i := 0; i < n; i++ {
		gender := maleLabel
		if i%2 == 1 {
			gender = femaleLabel
		}
		ind := model.Individual{
			ID:         g.newID(),
			Name:       names[i%len(names)],
			Gender:     gender,
			NormGender: dataset.ClassifyGender(gender),
			Color:      g.label(traits.Color),
			Weight:     strconv.Itoa(baseWeightGrams + g.rng.IntN(weightSpanGrams+1)),
			Head:       g.label(traits.Head),
			Feather:    g.label(traits.Feather),
			Power:      strconv.Itoa(1 + g.rng.IntN(maxScore)),
			Health:     strconv.Itoa(1 + g.rng.IntN(maxScore)),
		}
		ind.ImagePath = "images/" + ind.ID + ".png"
		out = append(out, ind)
	}
	return out, nil
}

func (g *generator) label(trait traits.Trait) string {
	if g.rng.Float64() < g.unknownRate {
		return unknownLabels[trait]
	}
	labels := g.labels[trait]
	return labels[g.rng.IntN(len(labels))]
}

// Row returns the dataset row of ind in required-field order.
func Row(ind model.Individual) []string {
	return []string{
		ind.ID, ind.Name, ind.Gender, ind.Color, ind.Weight,
		ind.Head, ind.Feather, ind.Power, ind.Health, ind.ImagePath,
	}
}

// Table converts individuals into a raw dataset table.
func Table(individuals []model.Individual) dataset.Table {
	t := dataset.Table{Header: append([]string(nil), dataset.RequiredFields...)}
	for _, ind := range individuals {
		t.Rows = append(t.Rows, Row(ind))
	}
	return t
}

// WriteCSV writes individuals as a CSV dataset with a header row.
func WriteCSV(w io.Writer, individuals []model.Individual) error {
	cw := csv.NewWriter(w)
	t := Table(individuals)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteXLSX writes individuals as a single-sheet workbook.
func WriteXLSX(w io.Writer, individuals []model.Individual) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	t := Table(individuals)
	rows := append([][]string{t.Header}, t.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
