package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/Miller-Media/lambda-watchtower/internal/config"
	"github.com/Miller-Media/lambda-watchtower/internal/httpapi"
	"github.com/Miller-Media/lambda-watchtower/internal/incident"
	"github.com/Miller-Media/lambda-watchtower/internal/logging"
	"github.com/Miller-Media/lambda-watchtower/internal/metrics"
	"github.com/Miller-Media/lambda-watchtower/internal/metrics/cloudwatch"
	"github.com/Miller-Media/lambda-watchtower/internal/runner"
	"github.com/Miller-Media/lambda-watchtower/internal/statuspage"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	var sink metrics.Sink
	if cfg.CloudWatch {
		cw, err := cloudwatch.New(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		sink = cw
	} else {
		sink = metrics.NewLogSink(logger)
	}

	r := runner.New(logger, sink, func(host, key string) incident.StatusAPI {
		c := statuspage.NewClient(host, key)
		if c == nil {
			return nil
		}
		return c
	})
	r.APIHost, r.APIKey = cfg.APIHost, cfg.APIKey

	api := httpapi.NewServer(logger, r, cfg.APIKeys)

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
