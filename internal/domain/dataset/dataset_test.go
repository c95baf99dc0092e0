package dataset_test

import (
	"errors"
	"testing"

	"github.com/okian/loftmatch/internal/domain/dataset"
	"github.com/okian/loftmatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func header() []string {
	return []string{"ID", "Name", "Gender", "Color", "Weight", "Head", "Feather", "Power", "Health", "Image_Path"}
}

func TestValidate_RequiredFields(t *testing.T) {
	Convey("Given a table without a Health column", t, func() {
		tbl := dataset.Table{
			Header: []string{"ID", "Name", "Gender", "Color", "Weight", "Head", "Feather", "Power", "Image_Path"},
			Rows:   [][]string{{"1", "A", "m", "white", "400", "long", "smooth", "8", "a.png"}},
		}

		Convey("When validating", func() {
			ds, err := dataset.Validate(tbl)

			Convey("Then it fails naming Health", func() {
				So(ds, ShouldBeNil)
				So(errors.Is(err, dataset.ErrMissingFields), ShouldBeTrue)
				var mf *dataset.MissingFieldsError
				So(errors.As(err, &mf), ShouldBeTrue)
				So(mf.Fields, ShouldResemble, []string{"Health"})
				So(err.Error(), ShouldContainSubstring, "Health")
			})
		})
	})

	Convey("Given an empty header", t, func() {
		_, err := dataset.Validate(dataset.Table{})

		Convey("Then every field is reported in canonical order", func() {
			var mf *dataset.MissingFieldsError
			So(errors.As(err, &mf), ShouldBeTrue)
			So(mf.Fields, ShouldResemble, dataset.RequiredFields)
		})
	})

	Convey("Given header names with padding and mixed case", t, func() {
		tbl := dataset.Table{
			Header: []string{" id", "NAME ", "gender", "Color", "weight", "HEAD", "Feather", "power", " Health ", "image_path", "Notes"},
			Rows: [][]string{
				{"1", "Ace", "Male", "white", "400", "long", "smooth", "8", "9", "ace.png", "x"},
				{"2", "Bee", "F", "black", "380", "short", "rough", "6", "7", "bee.png", "y"},
			},
		}

		Convey("Then the columns are matched and extras are ignored", func() {
			ds, err := dataset.Validate(tbl)
			So(err, ShouldBeNil)
			So(ds.Len(), ShouldEqual, 2)
			So(ds.Individuals[0].Name, ShouldEqual, "Ace")
			So(ds.Individuals[1].ImagePath, ShouldEqual, "bee.png")
		})
	})

	Convey("Given columns in a different order", t, func() {
		tbl := dataset.Table{
			Header: []string{"Health", "Power", "Feather", "Head", "Weight", "Color", "Gender", "Name", "ID", "Image_Path"},
			Rows:   [][]string{{"9", "8", "smooth", "long", "400", "white", "m", "Ace", "1", ""}, {"7", "6", "rough", "short", "380", "black", "f", "Bee", "2", ""}},
		}

		Convey("Then fields are read by name", func() {
			ds, err := dataset.Validate(tbl)
			So(err, ShouldBeNil)
			So(ds.Individuals[0], ShouldResemble, model.Individual{
				ID: "1", Name: "Ace", Gender: "m", NormGender: model.Male,
				Color: "white", Weight: "400", Head: "long", Feather: "smooth",
				Power: "8", Health: "9",
			})
		})
	})
}

func TestValidate_Population(t *testing.T) {
	Convey("Given a table with only males", t, func() {
		tbl := dataset.Table{
			Header: header(),
			Rows: [][]string{
				{"1", "A", "male", "white", "400", "long", "smooth", "8", "9", ""},
				{"2", "B", "M", "gray", "410", "long", "smooth", "8", "9", ""},
			},
		}

		Convey("When validating", func() {
			_, err := dataset.Validate(tbl)

			Convey("Then it fails with an insufficient population", func() {
				So(errors.Is(err, dataset.ErrInsufficientPopulation), ShouldBeTrue)
				var ip *dataset.InsufficientPopulationError
				So(errors.As(err, &ip), ShouldBeTrue)
				So(ip.Males, ShouldEqual, 2)
				So(ip.Females, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a table with no rows", t, func() {
		_, err := dataset.Validate(dataset.Table{Header: header()})

		Convey("Then it fails with an insufficient population", func() {
			So(errors.Is(err, dataset.ErrInsufficientPopulation), ShouldBeTrue)
		})
	})

	Convey("Given a mixed population with unknown labels and a short row", t, func() {
		tbl := dataset.Table{
			Header: header(),
			Rows: [][]string{
				{"1", "A", "Male", "white", "400", "long", "smooth", "8", "9", ""},
				{"2", "B", "hen/f", "black", "380", "short", "rough", "6", "7", ""},
				{"3", "C", "X"},
			},
		}

		Convey("When validating", func() {
			ds, err := dataset.Validate(tbl)

			Convey("Then counts reflect each bucket", func() {
				So(err, ShouldBeNil)
				So(ds.Males, ShouldEqual, 1)
				So(ds.Females, ShouldEqual, 1)
				So(ds.Unknown, ShouldEqual, 1)
			})

			Convey("And the short row is padded with empty cells", func() {
				So(ds.Individuals[2].NormGender, ShouldEqual, model.Gender("x"))
				So(ds.Individuals[2].Weight, ShouldEqual, "")
			})

			Convey("And the input table is not mutated", func() {
				So(tbl.Rows[0][2], ShouldEqual, "Male")
				So(len(tbl.Rows[2]), ShouldEqual, 3)
			})
		})
	})
}

func TestClassifyGender(t *testing.T) {
	Convey("Given raw gender labels", t, func() {
		Convey("Then the male substring wins over the female one", func() {
			So(dataset.ClassifyGender("Mf"), ShouldEqual, model.Male)
			So(dataset.ClassifyGender("fm"), ShouldEqual, model.Male)
			So(dataset.ClassifyGender("female"), ShouldEqual, model.Male)
		})

		Convey("And a lone f is female", func() {
			So(dataset.ClassifyGender("f"), ShouldEqual, model.Female)
			So(dataset.ClassifyGender("F"), ShouldEqual, model.Female)
		})

		Convey("And anything else passes through lowercased", func() {
			So(dataset.ClassifyGender("x"), ShouldEqual, model.Gender("x"))
			So(dataset.ClassifyGender("Unsexed"), ShouldEqual, model.Gender("unsexed"))
			So(dataset.ClassifyGender(""), ShouldEqual, model.Gender(""))
		})
	})
}
