package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/netcriptus/raiden-services/pkg/statsdash"
)

func main() {
	flow, err := statsdash.Conf("../../statsdash.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(u statsdash.Update) error {
		for _, p := range u.Points {
			fmt.Printf("%s tick=%d %s=%g\n",
				p.Timestamp.Format(time.RFC3339),
				u.Tick,
				p.Key,
				p.Value,
			)
		}
		for _, t := range u.Texts {
			fmt.Printf("tick=%d %s=%s\n", u.Tick, t.Key, t.Value)
		}
		return nil
	}

	if err := flow.Run(ctx,
		statsdash.StreamOutHeadless(),
		statsdash.StreamOutCallback("stdout", callback),
	); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
