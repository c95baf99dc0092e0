package pairing_test

import (
	"errors"
	"testing"

	"github.com/okian/loftmatch/internal/domain/model"
	"github.com/okian/loftmatch/internal/domain/pairing"
	. "github.com/smartystreets/goconvey/convey"
)

func population() []model.Individual {
	return []model.Individual{
		{ID: "M1", Name: "Ace", NormGender: model.Male},
		{ID: "F1", Name: "Bee", NormGender: model.Female},
		{ID: "X1", Name: "Cee", NormGender: model.Gender("x")},
		{ID: "M2", Name: "Dee", NormGender: model.Male},
		{ID: "F2", Name: "Eve", NormGender: model.Female},
		{ID: "M2", Name: "Dee II", NormGender: model.Male},
	}
}

func TestPartitionByGender(t *testing.T) {
	Convey("Given a mixed population", t, func() {
		males, females := pairing.PartitionByGender(population())

		Convey("Then males keep dataset order", func() {
			So(len(males), ShouldEqual, 3)
			So(males[0].Name, ShouldEqual, "Ace")
			So(males[1].Name, ShouldEqual, "Dee")
			So(males[2].Name, ShouldEqual, "Dee II")
		})

		Convey("And females keep dataset order", func() {
			So(len(females), ShouldEqual, 2)
			So(females[0].ID, ShouldEqual, "F1")
			So(females[1].ID, ShouldEqual, "F2")
		})

		Convey("And unknown individuals are on neither side", func() {
			for _, ind := range append(males, females...) {
				So(ind.ID, ShouldNotEqual, "X1")
			}
		})
	})

	Convey("Given an empty population", t, func() {
		males, females := pairing.PartitionByGender(nil)

		Convey("Then both sides are empty", func() {
			So(males, ShouldBeEmpty)
			So(females, ShouldBeEmpty)
		})
	})
}

func TestSelectPair(t *testing.T) {
	Convey("Given a partitioned population", t, func() {
		males, females := pairing.PartitionByGender(population())

		Convey("When both IDs are unique", func() {
			m, f, err := pairing.SelectPair(males, females, "M1", " F2 ")

			Convey("Then the pair is returned", func() {
				So(err, ShouldBeNil)
				So(m.Name, ShouldEqual, "Ace")
				So(f.Name, ShouldEqual, "Eve")
			})
		})

		Convey("When the male ID is missing", func() {
			_, _, err := pairing.SelectPair(males, females, "M9", "F1")

			Convey("Then selection fails naming the side", func() {
				So(errors.Is(err, pairing.ErrAmbiguousOrMissingID), ShouldBeTrue)
				var ae *pairing.AmbiguousOrMissingIDError
				So(errors.As(err, &ae), ShouldBeTrue)
				So(ae.Side, ShouldEqual, model.Male)
				So(ae.Matches, ShouldEqual, 0)
			})
		})

		Convey("When a female ID is looked up among females only", func() {
			_, _, err := pairing.SelectPair(males, females, "M1", "M1")

			Convey("Then selection fails on the female side", func() {
				var ae *pairing.AmbiguousOrMissingIDError
				So(errors.As(err, &ae), ShouldBeTrue)
				So(ae.Side, ShouldEqual, model.Female)
			})
		})

		Convey("When the male ID is duplicated", func() {
			_, _, err := pairing.SelectPair(males, females, "M2", "F1")

			Convey("Then the strict selector rejects it", func() {
				var ae *pairing.AmbiguousOrMissingIDError
				So(errors.As(err, &ae), ShouldBeTrue)
				So(ae.Matches, ShouldEqual, 2)
				So(err.Error(), ShouldContainSubstring, "share id")
			})
		})

		Convey("When the selector accepts the first match", func() {
			sel := pairing.NewSelector(pairing.WithFirstMatch())
			m, _, err := sel.SelectPair(males, females, "M2", "F1")

			Convey("Then the first duplicate in dataset order wins", func() {
				So(err, ShouldBeNil)
				So(m.Name, ShouldEqual, "Dee")
			})
		})

		Convey("When an ID is blank", func() {
			_, _, err := pairing.SelectPair(males, females, "  ", "F1")

			Convey("Then selection fails", func() {
				So(errors.Is(err, pairing.ErrAmbiguousOrMissingID), ShouldBeTrue)
			})
		})
	})
}

func TestSelect(t *testing.T) {
	Convey("Given the female side of a population", t, func() {
		_, females := pairing.PartitionByGender(population())
		sel := pairing.NewSelector()

		Convey("When the ID is present once", func() {
			f, err := sel.Select(females, model.Female, "F1")

			Convey("Then the individual is returned", func() {
				So(err, ShouldBeNil)
				So(f.Name, ShouldEqual, "Bee")
			})
		})

		Convey("When the ID belongs to the other side", func() {
			_, err := sel.Select(females, model.Female, "M1")

			Convey("Then it is missing", func() {
				var ae *pairing.AmbiguousOrMissingIDError
				So(errors.As(err, &ae), ShouldBeTrue)
				So(ae.Side, ShouldEqual, model.Female)
				So(ae.Matches, ShouldEqual, 0)
			})
		})
	})
}

func TestParseSide(t *testing.T) {
	Convey("Given side names", t, func() {
		for in, want := range map[string]model.Gender{
			"male": model.Male, " M ": model.Male,
			"Female": model.Female, "f": model.Female,
		} {
			g, err := pairing.ParseSide(in)
			So(err, ShouldBeNil)
			So(g, ShouldEqual, want)
		}

		Convey("Then anything else is rejected", func() {
			for _, in := range []string{"", "x", "fem", "unknown"} {
				_, err := pairing.ParseSide(in)
				So(errors.Is(err, pairing.ErrInvalidSide), ShouldBeTrue)
			}
		})
	})
}
