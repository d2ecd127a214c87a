package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Miller-Media/lambda-watchtower/internal/config"
	"github.com/Miller-Media/lambda-watchtower/internal/incident"
	"github.com/Miller-Media/lambda-watchtower/internal/metrics"
	"github.com/Miller-Media/lambda-watchtower/internal/metrics/cloudwatch"
	"github.com/Miller-Media/lambda-watchtower/internal/runner"
	"github.com/Miller-Media/lambda-watchtower/internal/statuspage"
)

// Runs one probe pass from a JSON payload (file argument or stdin) and
// prints the results. Handy for cron and for trying payloads locally.
func main() {
	raw, err := readPayload()
	if err != nil {
		fmt.Fprintln(os.Stderr, "read payload:", err)
		os.Exit(1)
	}

	var req runner.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		fmt.Fprintln(os.Stderr, "parse payload:", err)
		os.Exit(1)
	}

	cfg := config.FromEnv()
	if req.Namespace == "" {
		req.Namespace = cfg.Namespace
	}
	if len(req.LogTimings) == 0 {
		req.LogTimings = cfg.LogTimings
	}
	if req.TimeoutMS <= 0 {
		req.TimeoutMS = cfg.Timeout.Milliseconds()
	}

	ctx := context.Background()

	var sink metrics.Sink
	if cfg.CloudWatch {
		cw, err := cloudwatch.New(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cloudwatch:", err)
			os.Exit(1)
		}
		sink = cw
	} else {
		sink = metrics.NewLogSink(zap.NewNop())
	}

	r := runner.New(zap.NewNop(), sink, func(host, key string) incident.StatusAPI {
		c := statuspage.NewClient(host, key)
		if c == nil {
			return nil
		}
		return c
	})
	r.APIHost, r.APIKey = cfg.APIHost, cfg.APIKey

	results, err := r.Run(ctx, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(out))

	for _, res := range results {
		if !res.Healthy() {
			os.Exit(2)
		}
	}
}

func readPayload() ([]byte, error) {
	if len(os.Args) > 1 && os.Args[1] != "-" {
		return os.ReadFile(os.Args[1])
	}
	return io.ReadAll(os.Stdin)
}
