// streamprobe connects to a single channel address and prints every
// subscribed envelope to the console.
// Usage: go run ./cmd/streamprobe --address wss://host/live/fixtures/12/ --subscribe fixtures,results
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/eventdash/livechannel/internal/channel"
	"github.com/eventdash/livechannel/internal/router"
)

func main() {
	address := flag.String("address", "", "channel address (required)")
	subscribe := flag.String("subscribe", "", "comma-separated message types or categories")
	heartbeat := flag.Duration("heartbeat", 25*time.Second, "heartbeat interval (0 disables)")
	verbose := flag.Bool("verbose", false, "print full envelope payloads")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	if *address == "" {
		logger.Error("missing --address")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	opts := channel.DefaultOptions(*address)
	opts.HeartbeatInterval = *heartbeat
	opts.OnStatus = func(status channel.Status, detail string) {
		logger.Info("status changed", "status", string(status), "detail", detail)
	}

	client := channel.New(opts, logger)
	defer client.Close()

	for _, sub := range strings.Split(*subscribe, ",") {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}
		client.Subscribe(sub, func(env router.Envelope) {
			if *verbose {
				fmt.Printf("%s %s %s\n", env.ReceivedAt.Format(time.RFC3339Nano), env.Type, env.Data)
			} else {
				fmt.Printf("%s %s (%d bytes)\n", env.ReceivedAt.Format(time.RFC3339), env.Type, len(env.Data))
			}
		})
	}

	client.Connect()
	<-ctx.Done()

	stats := client.Stats()
	logger.Info("probe finished",
		"received", stats.Received,
		"delivered", stats.Delivered,
		"parse_errors", stats.ParseErrors,
		"dropped", stats.Dropped,
	)
}
