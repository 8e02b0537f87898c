package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/octagon/internal/cli"
	"github.com/okian/octagon/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// newBenchServer answers every third prediction with 429.
func newBenchServer(healthy bool) (*httptest.Server, *atomic.Int64, *atomic.Value) {
	var n atomic.Int64
	var last atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	handler := func(w http.ResponseWriter, r *http.Request) {
		var req types.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		last.Store(r.URL.Path + ":" + req.Fighter1 + ":" + req.PredictionType)
		if n.Add(1)%3 == 0 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}
	mux.HandleFunc("/predict", handler)
	mux.HandleFunc("/explain", handler)
	return httptest.NewServer(mux), &n, &last
}

func TestRunBench(t *testing.T) {
	Convey("Given a server that sheds every third request", t, func() {
		srv, n, last := newBenchServer(true)
		defer srv.Close()
		req := types.PredictRequest{Fighter1: "Alpha", Fighter2: "Bravo", EventDate: "2024-01-01", PredictionType: "method"}

		Convey("every request is counted by status", func() {
			res, err := cli.RunBench(context.Background(), cli.BenchConfig{
				BaseURL: srv.URL + "/", Requests: 30, Workers: 4, Timeout: time.Second,
			}, req)
			So(err, ShouldBeNil)
			So(n.Load(), ShouldEqual, int64(30))
			So(res.Statuses[http.StatusOK], ShouldEqual, 20)
			So(res.Statuses[http.StatusTooManyRequests], ShouldEqual, 10)
			So(res.Succeeded(), ShouldEqual, 20)
			So(res.Latencies, ShouldHaveLength, 30)
			So(res.Quantile(0.5), ShouldBeLessThanOrEqualTo, res.Quantile(1))
			So(res.Quantile(1), ShouldEqual, res.Latencies[29])
			So(last.Load(), ShouldEqual, "/predict:Alpha:method")
		})

		Convey("explain runs drop the prediction type", func() {
			_, err := cli.RunBench(context.Background(), cli.BenchConfig{
				BaseURL: srv.URL, Requests: 2, Workers: 1, Timeout: time.Second, Explain: true,
			}, req)
			So(err, ShouldBeNil)
			So(last.Load(), ShouldEqual, "/explain:Alpha:")
		})

		Convey("the bench command prints the summary", func() {
			cmd := cli.NewRootCommand(nil)
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{"bench", "Alpha", "Bravo", "--url", srv.URL, "--requests", "3", "--workers", "1"})
			So(cmd.ExecuteContext(context.Background()), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "200")
			So(out.String(), ShouldContainSubstring, "429")
		})
	})

	Convey("Given an unhealthy server", t, func() {
		srv, n, _ := newBenchServer(false)
		defer srv.Close()

		_, err := cli.RunBench(context.Background(), cli.BenchConfig{
			BaseURL: srv.URL, Requests: 5, Workers: 1, Timeout: time.Second,
		}, types.PredictRequest{})
		So(errors.Is(err, cli.ErrUnhealthy), ShouldBeTrue)
		So(n.Load(), ShouldEqual, int64(0))
	})

	Convey("Given an empty run", t, func() {
		_, err := cli.RunBench(context.Background(), cli.BenchConfig{Workers: 1}, types.PredictRequest{})
		So(errors.Is(err, cli.ErrBenchSize), ShouldBeTrue)
	})
}
