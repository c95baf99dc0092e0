package traits_test

import (
	"testing"

	"github.com/okian/loftmatch/internal/domain/model"
	"github.com/okian/loftmatch/internal/domain/traits"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizer_Normalize(t *testing.T) {
	Convey("Given the default normalizer", t, func() {
		n := traits.NewNormalizer()

		Convey("When normalizing known labels", func() {
			Convey("Then each table resolves its score", func() {
				So(n.Normalize(traits.Color, "white"), ShouldEqual, 10)
				So(n.Normalize(traits.Color, "gray"), ShouldEqual, 8)
				So(n.Normalize(traits.Color, "black"), ShouldEqual, 6)
				So(n.Normalize(traits.Head, "short"), ShouldEqual, 5)
				So(n.Normalize(traits.Feather, "rough"), ShouldEqual, 4)
			})

			Convey("And case and surrounding whitespace are ignored", func() {
				So(n.Normalize(traits.Color, "  WHITE\t"), ShouldEqual, 10)
				So(n.Normalize(traits.Head, "Long "), ShouldEqual, 10)
				So(n.Normalize(traits.Feather, " Smooth"), ShouldEqual, 10)
			})
		})

		Convey("When the label is unknown", func() {
			Convey("Then it degrades to the default", func() {
				So(n.Normalize(traits.Color, "purple"), ShouldEqual, 7)
				So(n.Normalize(traits.Head, ""), ShouldEqual, 7)
				So(n.Normalize(traits.Feather, "\x00??"), ShouldEqual, 7)
			})
		})

		Convey("When the trait is unknown", func() {
			Convey("Then it degrades to the default", func() {
				So(n.Normalize(traits.Trait("beak"), "white"), ShouldEqual, traits.DefaultValue)
			})
		})

		Convey("When a label is shared between tables", func() {
			Convey("Then each trait uses its own table", func() {
				So(n.Normalize(traits.Head, "medium"), ShouldEqual, 7)
				So(n.Normalize(traits.Color, "medium"), ShouldEqual, 7)
			})
		})
	})
}

func TestNormalizer_Options(t *testing.T) {
	Convey("Given a normalizer with custom tables", t, func() {
		custom := map[string]float64{"Red Checker ": 9, "silver": 5}
		n := traits.NewNormalizer(
			traits.WithTable(traits.Color, custom),
			traits.WithDefault(3),
		)

		Convey("Then custom labels resolve after key normalization", func() {
			So(n.Normalize(traits.Color, "red checker"), ShouldEqual, 9)
			So(n.Normalize(traits.Color, "SILVER"), ShouldEqual, 5)
		})

		Convey("And the replaced table drops the built-in labels", func() {
			So(n.Normalize(traits.Color, "white"), ShouldEqual, 3)
		})

		Convey("And untouched tables keep their defaults", func() {
			So(n.Normalize(traits.Head, "long"), ShouldEqual, 10)
		})

		Convey("And the custom default is used for unknown labels", func() {
			So(n.Default(), ShouldEqual, 3)
			So(n.Normalize(traits.Feather, "curly"), ShouldEqual, 3)
		})

		Convey("When the source map is mutated after construction", func() {
			custom["silver"] = 1

			Convey("Then the normalizer is unaffected", func() {
				So(n.Normalize(traits.Color, "silver"), ShouldEqual, 5)
			})
		})

		Convey("When the returned table copy is mutated", func() {
			tbl := n.Table(traits.Color)
			tbl["silver"] = 0

			Convey("Then the normalizer is unaffected", func() {
				So(n.Normalize(traits.Color, "silver"), ShouldEqual, 5)
			})
		})
	})

	Convey("Given WithTables with a nil entry", t, func() {
		n := traits.NewNormalizer(traits.WithTables(map[traits.Trait]traits.Table{
			traits.Head: nil,
		}))

		Convey("Then the built-in table is kept", func() {
			So(n.Normalize(traits.Head, "long"), ShouldEqual, 10)
		})
	})
}

func TestNormalizer_Profile(t *testing.T) {
	Convey("Given an individual", t, func() {
		n := traits.NewNormalizer()
		ind := model.Individual{ID: "1", Color: "Black", Head: "short", Feather: "purple"}

		Convey("Then the profile holds all three categorical scores", func() {
			v := n.Profile(ind)
			So(v, ShouldResemble, traits.Values{Color: 6, Head: 5, Feather: 7})
		})
	})
}
