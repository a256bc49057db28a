package playthrough

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tally/internal/adapters/http/api"
	service "github.com/okian/tally/internal/app"
	"github.com/okian/tally/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func newTestServer() (*httptest.Server, func()) {
	ctx := context.Background()
	svc := service.New(service.WithWorkerCount(2))
	So(svc.Start(ctx), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	return srv, func() {
		srv.Close()
		_ = svc.Stop(ctx)
	}
}

func TestRunner(t *testing.T) {
	Convey("Given a running tally server", t, func() {
		srv, stop := newTestServer()
		Reset(stop)

		Convey("When a seeded playthrough runs", func() {
			runner := NewRunner(Config{
				BaseURL:  srv.URL,
				Sessions: 12,
				Rounds:   4,
				Players:  3,
				Workers:  4,
				Timeout:  5 * time.Second,
				Seed:     42,
			}, logger.Get())
			stats, err := runner.Run(context.Background())

			Convey("Then every session matches the local ledger", func() {
				So(err, ShouldBeNil)
				So(stats.SessionsStarted, ShouldEqual, 12)
				So(stats.SessionsCompleted, ShouldEqual, 12)
				So(stats.Mismatches, ShouldEqual, 0)
				So(stats.ScoresSubmitted, ShouldBeGreaterThan, 12*4)
			})
		})

		Convey("When the server is unreachable", func() {
			url := srv.URL
			srv.Close()
			runner := NewRunner(Config{BaseURL: url, Sessions: 1, Timeout: time.Second}, logger.Get())
			_, err := runner.Run(context.Background())

			Convey("Then the health check fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestShadow(t *testing.T) {
	Convey("Given a shadow ledger for two players", t, func() {
		sh := newShadow(2, true)

		Convey("When scores, undo and redo are applied", func() {
			sh.submit(1, "", 10)
			sh.submit(2, "", 15)
			sh.submit(1, "", 20)
			sh.submit(2, "penalty", 5)
			So(sh.undoLast(), ShouldBeTrue)

			Convey("Then totals follow the history", func() {
				So(sh.totals, ShouldResemble, map[int]int{1: 30, 2: 15})
				So(sh.redoLast(), ShouldBeTrue)
				So(sh.totals[2], ShouldEqual, 10)
				So(sh.redoLast(), ShouldBeFalse)
			})

			Convey("Then a new score clears redo", func() {
				sh.submit(2, "bonus", 1)
				So(sh.redoLast(), ShouldBeFalse)
			})
		})

		Convey("When standings disagree", func() {
			sh.submit(1, "", 5)

			Convey("Then verify reports the difference", func() {
				So(sh.verify([]standing{{PlayerID: 1, Total: 5}, {PlayerID: 2, Total: 0}}), ShouldBeNil)
				So(sh.verify([]standing{{PlayerID: 1, Total: 4}, {PlayerID: 2, Total: 0}}), ShouldNotBeNil)
				So(sh.verify([]standing{{PlayerID: 2, Total: 0}, {PlayerID: 1, Total: 5}}), ShouldNotBeNil)
				So(sh.verify([]standing{{PlayerID: 1, Total: 5}}), ShouldNotBeNil)
			})
		})

		Convey("Then penalties are always negative", func() {
			So(amount("penalty", 7), ShouldEqual, -7)
			So(amount("penalty", -7), ShouldEqual, -7)
			So(amount("bonus", 7), ShouldEqual, 7)
		})
	})
}

func TestClientErrors(t *testing.T) {
	Convey("Given a server that rejects requests", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"code":"conflict","message":"session closed"}`))
		}))
		Reset(srv.Close)
		c := newClient(srv.URL, time.Second)

		Convey("Then the API error is decoded", func() {
			err := c.post(context.Background(), "/api/scores", map[string]int{"playerId": 1}, nil)
			var apiErr *APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Status, ShouldEqual, http.StatusConflict)
			So(apiErr.Code, ShouldEqual, "conflict")
		})
	})
}
