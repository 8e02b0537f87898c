package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/octagon/internal/domain/types"
	"github.com/okian/octagon/pkg/logger"
)

// statusTransport labels requests that never got a response.
const statusTransport = 0

// BenchConfig drives a load run against a running server.
type BenchConfig struct {
	BaseURL  string
	Requests int
	Workers  int
	Timeout  time.Duration
	Explain  bool
}

// BenchResult summarizes a load run. Latencies are in milliseconds.
type BenchResult struct {
	Statuses  map[int]int
	Latencies []float64
	Duration  time.Duration
}

// Succeeded counts 2xx replies.
func (r *BenchResult) Succeeded() int {
	var n int
	for code, c := range r.Statuses {
		if code >= http.StatusOK && code < http.StatusMultipleChoices {
			n += c
		}
	}
	return n
}

// Quantile returns the q-th latency quantile, or 0 without samples.
func (r *BenchResult) Quantile(q float64) float64 {
	if len(r.Latencies) == 0 {
		return 0
	}
	return stat.Quantile(q, stat.Empirical, r.Latencies, nil)
}

func benchCmd() *cobra.Command {
	var (
		f   boutFlags
		cfg = BenchConfig{
			BaseURL:  "http://localhost:9080",
			Requests: 1000,
			Workers:  runtime.NumCPU() * 2,
			Timeout:  30 * time.Second,
		}
	)
	cmd := &cobra.Command{
		Use:   "bench <fighter_1> <fighter_2>",
		Short: "Send concurrent prediction requests to a running server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			res, err := RunBench(cmd.Context(), cfg, f.request(args))
			if err != nil {
				return err
			}
			printBench(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the server")
	cmd.Flags().IntVar(&cfg.Requests, "requests", cfg.Requests, "number of requests to send")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "number of concurrent senders")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per request timeout")
	cmd.Flags().BoolVar(&cfg.Explain, "explain", false, "hit /explain instead of /predict")
	f.register(cmd, true)
	return cmd
}

// RunBench checks the server is up, then sends cfg.Requests copies of req
// from cfg.Workers goroutines and records every status and latency.
func RunBench(ctx context.Context, cfg BenchConfig, req types.PredictRequest) (*BenchResult, error) {
	if cfg.Requests <= 0 || cfg.Workers <= 0 {
		return nil, ErrBenchSize
	}
	log := logger.Get().Named("bench")
	base := strings.TrimRight(cfg.BaseURL, "/")
	client := &http.Client{Timeout: cfg.Timeout}

	if err := checkHealth(ctx, client, base); err != nil {
		return nil, err
	}

	path := "/predict"
	if cfg.Explain {
		path = "/explain"
		req.PredictionType = ""
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	log.Info(ctx, "starting load run",
		logger.String("url", base+path),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
	)

	res := &BenchResult{Statuses: make(map[int]int), Latencies: make([]float64, 0, cfg.Requests)}
	var mu sync.Mutex
	jobs := make(chan struct{}, cfg.Workers*2)
	var wg sync.WaitGroup

	start := time.Now()
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				t := time.Now()
				code := send(ctx, client, base+path, body)
				ms := float64(time.Since(t).Microseconds()) / 1000

				mu.Lock()
				res.Statuses[code]++
				res.Latencies = append(res.Latencies, ms)
				mu.Unlock()
			}
		}()
	}

feed:
	for range cfg.Requests {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- struct{}{}:
		}
	}
	close(jobs)
	wg.Wait()
	res.Duration = time.Since(start)

	slices.Sort(res.Latencies)
	log.Info(ctx, "load run finished",
		logger.Int("sent", len(res.Latencies)),
		logger.Int("succeeded", res.Succeeded()),
		logger.Duration("duration", res.Duration),
	)
	return res, ctx.Err()
}

func checkHealth(ctx context.Context, client *http.Client, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// send posts body and returns the status code, or statusTransport when the
// request failed before a reply.
func send(ctx context.Context, client *http.Client, url string, body []byte) int {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return statusTransport
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return statusTransport
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func printBench(w io.Writer, r *BenchResult) {
	codes := make([]int, 0, len(r.Statuses))
	for code := range r.Statuses {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	table := newTable(w)
	table.Header("STATUS", "COUNT")
	for _, code := range codes {
		label := strconv.Itoa(code)
		if code == statusTransport {
			label = "error"
		}
		table.Append(label, strconv.Itoa(r.Statuses[code]))
	}
	table.Render()

	var rps float64
	if r.Duration > 0 {
		rps = float64(len(r.Latencies)) / r.Duration.Seconds()
	}
	fmt.Fprintln(w)
	lt := newTable(w)
	lt.Header("P50_MS", "P90_MS", "P99_MS", "MAX_MS", "REQ/S")
	lt.Append(
		fmt.Sprintf("%.2f", r.Quantile(0.5)),
		fmt.Sprintf("%.2f", r.Quantile(0.9)),
		fmt.Sprintf("%.2f", r.Quantile(0.99)),
		fmt.Sprintf("%.2f", r.Quantile(1)),
		fmt.Sprintf("%.1f", rps),
	)
	lt.Render()
}
