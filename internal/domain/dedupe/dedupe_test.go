package dedupe_test

import (
	"sync"
	"testing"

	"github.com/okian/loftmatch/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	Convey("Given a tracker", t, func() {
		tr := dedupe.NewTracker()

		Convey("When recording a new ID", func() {
			seen := tr.SeenAndRecord("M1")

			Convey("Then it was not seen before", func() {
				So(seen, ShouldBeFalse)
				So(tr.Count("M1"), ShouldEqual, 1)
				So(tr.Duplicates(), ShouldBeEmpty)
			})
		})

		Convey("When an ID repeats", func() {
			tr.SeenAndRecord("M2")
			tr.SeenAndRecord("M1")
			first := tr.SeenAndRecord("M1")
			second := tr.SeenAndRecord("M1")
			tr.SeenAndRecord("M2")

			Convey("Then it is reported once, in first-repeat order", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeTrue)
				So(tr.Count("M1"), ShouldEqual, 3)
				So(tr.Size(), ShouldEqual, 2)
				So(tr.Duplicates(), ShouldResemble, []string{"M1", "M2"})
			})
		})

		Convey("When recording concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					tr.SeenAndRecord("same")
				}()
			}
			wg.Wait()

			Convey("Then every record is counted", func() {
				So(tr.Count("same"), ShouldEqual, 50)
				So(tr.Duplicates(), ShouldResemble, []string{"same"})
			})
		})
	})
}

func TestDuplicates(t *testing.T) {
	Convey("Given a list of IDs", t, func() {
		Convey("Then repeated IDs are returned sorted", func() {
			So(dedupe.Duplicates([]string{"b", "a", "b", "c", "a", "a"}), ShouldResemble, []string{"a", "b"})
			So(dedupe.Duplicates(nil), ShouldBeEmpty)
		})
	})
}
