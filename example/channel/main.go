package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	statsdash "github.com/netcriptus/raiden-services"
)

func main() {
	flow, err := statsdash.Conf("../../statsdash.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, updates, closeUpdates := statsdash.NewChannelSink("alerts", 32)
	defer closeUpdates()

	go alertWorker("online_nodes", 1, updates)

	if err := flow.Run(ctx, statsdash.StreamOutSink(sink)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

// alertWorker reports ticks where key drops below min.
func alertWorker(key string, min float64, updates <-chan statsdash.Update) {
	for u := range updates {
		for _, p := range u.Points {
			if p.Key == key && p.Value < min {
				fmt.Printf("[%s] %s=%g below %g\n", time.Now().Format(time.RFC3339), key, p.Value, min)
			}
		}
	}
}
