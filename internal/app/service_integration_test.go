package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	repository "github.com/okian/tally/internal/adapters/repository"
	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/scorecard"
)

func waitForRecord(ctx context.Context, svc *service.Service, name string, played int) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rec, err := svc.PlayerRecord(ctx, name); err == nil && rec.GamesPlayed == played {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func playSession(ctx context.Context, svc *service.Service, game string, names []string, totals []int) string {
	board, err := svc.StartSession(ctx, gameNamed(ctx, svc, game).ID, names, nil)
	So(err, ShouldBeNil)
	scores := make([]scorecard.Score, len(totals))
	for i, v := range totals {
		scores[i] = scorecard.Score{PlayerID: i + 1, Raw: fmt.Sprint(v)}
	}
	_, err = svc.SubmitRound(ctx, board.Session.ID, nil, scores)
	So(err, ShouldBeNil)
	_, _, err = svc.Complete(ctx, board.Session.ID)
	So(err, ShouldBeNil)
	return board.Session.ID
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		svc, ctx := startService(service.WithWorkerCount(2))

		Convey("When sessions are completed", func() {
			playSession(ctx, svc, "Poker", []string{"Ann", "Ben"}, []int{30, 10})
			playSession(ctx, svc, "UNO", []string{"Ann", "Ben", "Cat"}, []int{50, 5, 20})
			playSession(ctx, svc, "Poker", []string{"ben", "Cat"}, []int{40, 1})

			Convey("Then the player records follow the results", func() {
				So(waitForRecord(ctx, svc, "Ann", 2), ShouldBeTrue)
				So(waitForRecord(ctx, svc, "Ben", 3), ShouldBeTrue)
				So(waitForRecord(ctx, svc, "Cat", 2), ShouldBeTrue)

				ben, err := svc.PlayerRecord(ctx, "BEN")
				So(err, ShouldBeNil)
				So(ben.GamesWon, ShouldEqual, 2)
				So(ben.Rank, ShouldEqual, 1)

				top, err := svc.Leaderboard(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
				So(top[0].Name, ShouldEqual, "Ben")
				So(top[1].Name, ShouldEqual, "Ann")
				So(top[2].Name, ShouldEqual, "Cat")

				So(svc.GetStats()["players"], ShouldEqual, 3)
			})
		})

		Convey("When many scores hit one session concurrently", func() {
			board, err := svc.StartSession(ctx, gameNamed(ctx, svc, "Darts").ID, []string{"A", "B", "C", "D"}, nil)
			So(err, ShouldBeNil)
			id := board.Session.ID

			var wg sync.WaitGroup
			for p := 1; p <= 4; p++ {
				wg.Add(1)
				go func(pid int) {
					defer wg.Done()
					for i := 0; i < 25; i++ {
						_, _ = svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: pid, Raw: "2"})
					}
				}(p)
			}
			wg.Wait()

			Convey("Then every entry lands exactly once", func() {
				entries, err := svc.Scores(ctx, id)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 100)
				for i, e := range entries {
					So(e.Position, ShouldEqual, i)
				}
				st, err := svc.Standings(ctx, id)
				So(err, ShouldBeNil)
				for _, s := range st {
					So(s.Total, ShouldEqual, 50)
				}
			})
		})
	})
}

func TestServiceRestore(t *testing.T) {
	Convey("Given a service on a SQLite store", t, func() {
		ctx := context.Background()
		dsn := filepath.Join(t.TempDir(), "tally.db")
		open := func() *service.Service {
			store, err := repository.OpenSQLStore(ctx, repository.DriverSQLite, dsn)
			So(err, ShouldBeNil)
			svc := service.New(service.WithStore(store))
			So(svc.Start(ctx), ShouldBeNil)
			return svc
		}

		first := open()
		board, err := first.StartSession(ctx, gameNamed(ctx, first, "Hearts").ID, []string{"A", "B", "C"}, intPtr(100))
		So(err, ShouldBeNil)
		id := board.Session.ID
		_, err = first.SubmitRound(ctx, id, nil, []scorecard.Score{
			{PlayerID: 1, Raw: "13"}, {PlayerID: 2, Raw: "0"}, {PlayerID: 3, Raw: "13"},
		})
		So(err, ShouldBeNil)
		_, err = first.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 2, Raw: "26"})
		So(err, ShouldBeNil)
		_, err = first.Undo(ctx, id)
		So(err, ShouldBeNil)
		want, err := first.Standings(ctx, id)
		So(err, ShouldBeNil)
		So(first.Stop(ctx), ShouldBeNil)

		Convey("When the service restarts", func() {
			second := open()
			Reset(func() { _ = second.Stop(ctx) })

			Convey("Then games are not seeded twice", func() {
				games, err := second.ListGames(ctx)
				So(err, ShouldBeNil)
				So(len(games), ShouldEqual, 10)
			})

			Convey("Then the session is rebuilt from its ledger", func() {
				got, err := second.Standings(ctx, id)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, want)

				b, err := second.Board(ctx, id)
				So(err, ShouldBeNil)
				So(b.Round.Round, ShouldEqual, 1)
				So(*b.Session.ScoreLimit, ShouldEqual, 100)
				So(b.CanUndo, ShouldBeFalse)
			})

			Convey("Then completion survives another restart", func() {
				_, winner, err := second.Complete(ctx, id)
				So(err, ShouldBeNil)
				So(winner.Name, ShouldEqual, "B")
				So(second.Stop(ctx), ShouldBeNil)

				third := open()
				Reset(func() { _ = third.Stop(ctx) })
				w, err := third.Winner(ctx, id)
				So(err, ShouldBeNil)
				So(w.PlayerID, ShouldEqual, winner.PlayerID)
			})
		})
	})
}

func TestServiceRedisRecords(t *testing.T) {
	Convey("Given a service with Redis player records", t, func() {
		mr, err := miniredis.Run()
		So(err, ShouldBeNil)
		Reset(mr.Close)

		ctx := context.Background()
		records, err := repository.NewRedisStore(ctx, &repository.RedisConfig{
			RedisClient: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		})
		So(err, ShouldBeNil)
		svc, _ := startService(service.WithRecordsStore(records))

		Convey("When a session completes", func() {
			playSession(ctx, svc, "Golf", []string{"Ann", "Ben"}, []int{30, 40})

			Convey("Then the lowest total wins in the records", func() {
				So(waitForRecord(ctx, svc, "Ann", 1), ShouldBeTrue)
				ann, err := svc.PlayerRecord(ctx, "ann")
				So(err, ShouldBeNil)
				So(ann.GamesWon, ShouldEqual, 1)
				So(ann.Rank, ShouldEqual, 1)
			})
		})
	})
}
