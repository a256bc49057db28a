package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/internal/domain/scorecard"
	"github.com/okian/tally/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func intPtr(v int) *int { return &v }

func startService(opts ...service.Option) (*service.Service, context.Context) {
	ctx := context.Background()
	svc := service.New(opts...)
	So(svc.Start(ctx), ShouldBeNil)
	Reset(func() { _ = svc.Stop(ctx) })
	return svc, ctx
}

func gameNamed(ctx context.Context, svc *service.Service, name string) model.Game {
	games, err := svc.ListGames(ctx)
	So(err, ShouldBeNil)
	for _, g := range games {
		if g.Name == name {
			return g
		}
	}
	panic("game not seeded: " + name)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithDedupeSize(32),
		)

		Convey("Then stats reflect the options before start", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["queueSize"], ShouldEqual, 16)
			So(stats["dedupeSize"], ShouldEqual, 32)
		})

		Convey("Then operations fail until it is started", func() {
			_, err := svc.ListGames(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Board(context.Background(), "x")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx := startService()

		Convey("Then the default games are seeded", func() {
			games, err := svc.ListGames(ctx)
			So(err, ShouldBeNil)
			So(len(games), ShouldEqual, 10)
			So(svc.GetStats()["started"], ShouldEqual, true)
		})

		Convey("When starting twice", func() {
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then games are not seeded again", func() {
				games, _ := svc.ListGames(ctx)
				So(len(games), ShouldEqual, 10)
			})
		})

		Convey("When stopping", func() {
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Games(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx := startService()

		Convey("When a custom game is created", func() {
			g, err := svc.CreateGame(ctx, model.Game{Name: "  Mölkky ", MinPlayers: 2, MaxPlayers: 6, HighestWins: true})

			Convey("Then it is stored as custom", func() {
				So(err, ShouldBeNil)
				So(g.ID, ShouldBeGreaterThan, 0)
				So(g.Name, ShouldEqual, "Mölkky")
				So(g.IsCustom, ShouldBeTrue)

				got, err := svc.GetGame(ctx, g.ID)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, g)
			})

			Convey("Then its info falls back to direction rules", func() {
				info, err := svc.GameInfo(ctx, g.ID)
				So(err, ShouldBeNil)
				So(info.Rules.WinCondition, ShouldEqual, "Highest score wins")
				So(info.Resources, ShouldBeNil)
			})
		})

		Convey("When a custom game is invalid", func() {
			_, err := svc.CreateGame(ctx, model.Game{Name: "Broken", MinPlayers: 3, MaxPlayers: 2})

			Convey("Then it is a validation error", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When a seeded game has resources", func() {
			info, err := svc.GameInfo(ctx, gameNamed(ctx, svc, "UNO").ID)

			Convey("Then they are returned", func() {
				So(err, ShouldBeNil)
				So(info.Resources, ShouldNotBeNil)
			})
		})

		Convey("When the game does not exist", func() {
			_, err := svc.GameInfo(ctx, 9999)

			Convey("Then it is not found", func() {
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_CatalogFile(t *testing.T) {
	Convey("Given a catalog file", t, func() {
		path := filepath.Join(t.TempDir(), "games.yaml")
		So(os.WriteFile(path, []byte(`
games:
  - name: Carrom
    description: Strike coins into pockets
    min_players: 2
    max_players: 4
    highest_wins: true
`), 0o600), ShouldBeNil)

		svc, ctx := startService(service.WithCatalogFile(path))

		Convey("Then its games are seeded with the defaults", func() {
			games, err := svc.ListGames(ctx)
			So(err, ShouldBeNil)
			So(len(games), ShouldEqual, 11)
			So(gameNamed(ctx, svc, "Carrom").HighestWins, ShouldBeTrue)
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx := startService()
		poker := gameNamed(ctx, svc, "Poker")

		Convey("When a session starts with a valid roster", func() {
			board, err := svc.StartSession(ctx, poker.ID, []string{"A", "B"}, nil)
			So(err, ShouldBeNil)
			id := board.Session.ID

			Convey("Then it has a code and an empty ledger", func() {
				So(board.Session.Code, ShouldHaveLength, 6)
				So(board.Players, ShouldHaveLength, 2)
				So(board.Round.Round, ShouldEqual, 0)
				So(board.CanUndo, ShouldBeFalse)
				So(board.Standings[0].Total, ShouldEqual, 0)
			})

			Convey("Then the A/B scenario holds", func() {
				_, err := svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 1, Raw: "10"})
				So(err, ShouldBeNil)
				out, err := svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 2, Raw: "15"})
				So(err, ShouldBeNil)
				So(out.Standings[0].Name, ShouldEqual, "B")
				So(out.Notice, ShouldNotBeNil)
				So(out.Notice.Message, ShouldEqual, "Round 0 Complete!")

				_, err = svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 1, Raw: "20"})
				So(err, ShouldBeNil)
				out, err = svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 2, Raw: "5", Kind: "penalty"})
				So(err, ShouldBeNil)
				So(out.Standings[0].Name, ShouldEqual, "A")
				So(out.Standings[0].Total, ShouldEqual, 30)
				So(out.Standings[1].Total, ShouldEqual, 10)

				out, err = svc.Undo(ctx, id)
				So(err, ShouldBeNil)
				So(out.Applied, ShouldBeTrue)
				So(out.Standings[0].Total, ShouldEqual, 30)
				So(out.Standings[1].Total, ShouldEqual, 15)

				out, err = svc.Redo(ctx, id)
				So(err, ShouldBeNil)
				So(out.Standings[1].Total, ShouldEqual, 10)

				entries, err := svc.Scores(ctx, id)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 6)

				mine, err := svc.PlayerScores(ctx, id, 2)
				So(err, ShouldBeNil)
				So(mine, ShouldHaveLength, 4)

				st, err := svc.Standings(ctx, id)
				So(err, ShouldBeNil)
				So(st, ShouldResemble, out.Standings)
			})

			Convey("Then an empty history is a no-op", func() {
				out, err := svc.Undo(ctx, id)
				So(err, ShouldBeNil)
				So(out.Applied, ShouldBeFalse)
				out, err = svc.Redo(ctx, id)
				So(err, ShouldBeNil)
				So(out.Applied, ShouldBeFalse)
			})

			Convey("Then a whole round can be submitted at once", func() {
				out, err := svc.SubmitRound(ctx, id, intPtr(0), []scorecard.Score{
					{PlayerID: 1, Raw: "7"},
					{PlayerID: 2, Raw: "3", Kind: "bonus"},
				})
				So(err, ShouldBeNil)
				So(out.Entries, ShouldHaveLength, 2)
				So(out.Notice, ShouldNotBeNil)
				So(out.Round.Round, ShouldEqual, 1)
			})

			Convey("Then invalid input is rejected without effect", func() {
				_, err := svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 1, Raw: "abc"})
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				_, err = svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 9, Raw: "1"})
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)

				entries, _ := svc.Scores(ctx, id)
				So(entries, ShouldBeEmpty)
			})

			Convey("Then completion freezes the winner", func() {
				_, err := svc.Winner(ctx, id)
				So(errors.Is(err, model.ErrSessionOpen), ShouldBeTrue)

				_, _ = svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 2, Raw: "40"})
				sess, winner, err := svc.Complete(ctx, id)
				So(err, ShouldBeNil)
				So(sess.IsComplete, ShouldBeTrue)
				So(winner.Name, ShouldEqual, "B")

				w, err := svc.Winner(ctx, id)
				So(err, ShouldBeNil)
				So(w, ShouldResemble, winner)

				_, _, err = svc.Complete(ctx, id)
				So(errors.Is(err, model.ErrSessionClosed), ShouldBeTrue)
				_, err = svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 1, Raw: "1"})
				So(errors.Is(err, model.ErrSessionClosed), ShouldBeTrue)
			})
		})

		Convey("When the roster is invalid", func() {
			_, err := svc.StartSession(ctx, poker.ID, []string{"A"}, nil)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)

			_, err = svc.StartSession(ctx, poker.ID, []string{"A", "a"}, nil)
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)

			_, err = svc.StartSession(ctx, poker.ID, []string{"A", "B"}, intPtr(0))
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When the session does not exist", func() {
			_, err := svc.Board(ctx, "missing")

			Convey("Then it is not found", func() {
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_LiveSessions(t *testing.T) {
	Convey("Given two started sessions", t, func() {
		svc, ctx := startService()
		poker := gameNamed(ctx, svc, "Poker")
		first, err := svc.StartSession(ctx, poker.ID, []string{"A", "B"}, nil)
		So(err, ShouldBeNil)
		_, err = svc.StartSession(ctx, poker.ID, []string{"C", "D"}, nil)
		So(err, ShouldBeNil)
		So(svc.GetStats()["loadedSessions"], ShouldEqual, 2)
		id := first.Session.ID

		Convey("When one of them is completed", func() {
			_, _ = svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 2, Raw: "9"})
			_, winner, err := svc.Complete(ctx, id)
			So(err, ShouldBeNil)

			Convey("Then it is no longer held in memory", func() {
				stats := svc.GetStats()
				So(stats["loadedSessions"], ShouldEqual, 1)
				So(stats["openSessions"], ShouldEqual, 1)
			})

			Convey("Then reads rebuild it without caching it again", func() {
				board, err := svc.Board(ctx, id)
				So(err, ShouldBeNil)
				So(board.Session.IsComplete, ShouldBeTrue)
				So(board.Winner, ShouldNotBeNil)
				So(*board.Winner, ShouldResemble, winner)

				w, err := svc.Winner(ctx, id)
				So(err, ShouldBeNil)
				So(w.Name, ShouldEqual, "B")
				So(svc.GetStats()["loadedSessions"], ShouldEqual, 1)
			})
		})
	})
}

func TestService_ScoreRules(t *testing.T) {
	Convey("Given a service with bounds, a round limit and one entry per round", t, func() {
		svc, ctx := startService(
			service.WithScoreBounds(intPtr(-10), intPtr(100)),
			service.WithMaxRound(5),
			service.WithOneEntryPerRound(true),
		)
		board, err := svc.StartSession(ctx, gameNamed(ctx, svc, "Golf").ID, []string{"A", "B"}, intPtr(50))
		So(err, ShouldBeNil)
		id := board.Session.ID

		Convey("Then rounds beyond the limit are rejected", func() {
			_, err := svc.SubmitScore(ctx, id, intPtr(6), scorecard.Score{PlayerID: 1, Raw: "1"})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			_, err = svc.SubmitScore(ctx, id, intPtr(5), scorecard.Score{PlayerID: 1, Raw: "1"})
			So(err, ShouldBeNil)
		})

		Convey("Then amounts outside the bounds are rejected", func() {
			_, err := svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 1, Raw: "101"})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("Then a second entry in the same round is a duplicate", func() {
			_, err := svc.SubmitScore(ctx, id, intPtr(0), scorecard.Score{PlayerID: 1, Raw: "4"})
			So(err, ShouldBeNil)
			_, err = svc.SubmitScore(ctx, id, intPtr(0), scorecard.Score{PlayerID: 1, Raw: "5"})
			So(errors.Is(err, model.ErrDuplicateEntry), ShouldBeTrue)
		})

		Convey("Then reaching the limit is flagged", func() {
			out, err := svc.SubmitScore(ctx, id, nil, scorecard.Score{PlayerID: 1, Raw: "60"})
			So(err, ShouldBeNil)
			So(out.LimitReached, ShouldBeTrue)
		})
	})
}

func TestService_Clock(t *testing.T) {
	Convey("Given a service with a fixed clock", t, func() {
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		svc, ctx := startService(service.WithClock(func() time.Time { return at }))
		board, err := svc.StartSession(ctx, gameNamed(ctx, svc, "Darts").ID, []string{"A", "B"}, nil)
		So(err, ShouldBeNil)

		Convey("Then timestamps come from it", func() {
			So(board.Session.StartTime, ShouldEqual, at)
			out, err := svc.SubmitScore(ctx, board.Session.ID, nil, scorecard.Score{PlayerID: 1, Raw: "3"})
			So(err, ShouldBeNil)
			So(out.Entries[0].CreatedAt, ShouldEqual, at)
		})
	})
}
