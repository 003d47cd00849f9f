// Command carbon-spammer periodically sends test measurements and the process's own
// runtime stats to a carbon backend. It is meant for smoke testing a relay.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/mixpanel/carbon"
	"github.com/mixpanel/carbon/logging"
)

type Options struct {
	carbon.Options

	Interval time.Duration `long:"interval" description:"Time between two rounds" default:"60s"`
}

func main() {
	var options Options
	if _, err := flags.NewParser(&options, flags.Default).Parse(); err != nil {
		os.Exit(1)
	}
	if options.Prefix == "" {
		options.Prefix = "carbon-spammer"
	}

	l, err := logging.New(options.LogLevel, options.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	options.Logger = l

	ctx := context.Background()
	client, err := carbon.New(ctx, options.Options)
	if err != nil {
		l.Criticalf("error creating carbon client", logging.Fields{}.WithError(err))
		os.Exit(1)
	}
	defer client.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	gc := &gcReporter{}
	tick := time.After(0)
	for {
		select {
		case <-sig:
			l.Info("clean shutdown")
			return
		case <-tick:
			spam(ctx, client, l)
			if err := gc.report(ctx, client, time.Now()); err != nil {
				l.Warnf("error reporting runtime stats", logging.Fields{}.WithError(err))
			}
			tick = time.After(options.Interval)
		}
	}
}

func spam(ctx context.Context, s sender, l logging.Logger) {
	now := time.Now()
	start := now
	measurements := []struct {
		name  string
		value interface{}
	}{
		{"test_counter", 1},
		{"test_gauge", 1.2345},
		{"test_random", rand.Float64()},
		{"test_flag", true},
	}
	for _, m := range measurements {
		if err := s.SendAt(ctx, m.name, m.value, now); err != nil {
			l.Warnf("error sending test measurement", logging.Fields{"name": m.name}.WithError(err))
		}
	}
	if err := s.SendAt(ctx, "latency", time.Since(start), now); err != nil {
		l.Warnf("error sending test measurement", logging.Fields{"name": "latency"}.WithError(err))
	}
	l.Debugf("sent test measurements", logging.Fields{"count": len(measurements) + 1})
}
