package ledger_test

import (
	"errors"
	"testing"

	"github.com/okian/tally/internal/domain/ledger"
	model "github.com/okian/tally/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLedger(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		l := ledger.New("s1")

		So(l.Len(), ShouldEqual, 0)
		So(l.SessionID(), ShouldEqual, "s1")
		So(l.Closed(), ShouldBeFalse)

		Convey("When entries for two players are appended", func() {
			a1, err := l.Append(model.ScoreEntry{ID: "a1", PlayerID: 1, Round: 0, Amount: 10})
			So(err, ShouldBeNil)
			_, err = l.Append(model.ScoreEntry{ID: "b1", PlayerID: 2, Round: 0, Amount: 15})
			So(err, ShouldBeNil)
			_, err = l.Append(model.ScoreEntry{ID: "a2", PlayerID: 1, Round: 1, Amount: 20})
			So(err, ShouldBeNil)

			Convey("Then positions follow insertion order", func() {
				So(a1.Position, ShouldEqual, 0)
				So(a1.SessionID, ShouldEqual, "s1")
				So(l.Next(), ShouldEqual, 3)

				all := l.All()
				So(len(all), ShouldEqual, 3)
				So(all[0].ID, ShouldEqual, "a1")
				So(all[1].ID, ShouldEqual, "b1")
				So(all[2].ID, ShouldEqual, "a2")
				So(all[2].Position, ShouldEqual, 2)
			})

			Convey("Then entries can be read per player", func() {
				a := l.EntriesFor(1)
				So(len(a), ShouldEqual, 2)
				So(a[0].ID, ShouldEqual, "a1")
				So(a[1].ID, ShouldEqual, "a2")
				So(l.EntriesFor(3), ShouldBeEmpty)
			})

			Convey("Then All returns a copy", func() {
				all := l.All()
				all[0].Amount = 999
				So(l.All()[0].Amount, ShouldEqual, 10)
			})
		})

		Convey("When the ledger is closed", func() {
			l.Close()
			_, err := l.Append(model.ScoreEntry{ID: "x", PlayerID: 1})

			Convey("Then appends fail with ErrSessionClosed", func() {
				So(errors.Is(err, model.ErrSessionClosed), ShouldBeTrue)
				So(l.Len(), ShouldEqual, 0)
				So(l.Closed(), ShouldBeTrue)
			})
		})
	})

	Convey("Given persisted entries", t, func() {
		stored := []model.ScoreEntry{
			{ID: "a", PlayerID: 1, Amount: 1, Position: 4},
			{ID: "b", PlayerID: 2, Amount: 2, Position: 9},
		}

		Convey("When the ledger is restored", func() {
			l := ledger.Restore("s1", stored, true)

			Convey("Then order is kept and positions are renumbered", func() {
				all := l.All()
				So(all[0].Position, ShouldEqual, 0)
				So(all[1].Position, ShouldEqual, 1)
				So(l.Closed(), ShouldBeTrue)
			})
		})
	})
}
