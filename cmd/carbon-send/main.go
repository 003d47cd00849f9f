// Command carbon-send delivers measurements to a carbon backend.
//
// With positional arguments it sends a single measurement:
//
//	carbon-send --carbon.address graphite:2003 servers.web01.load 0.42 [unix-seconds]
//
// Without them it reads "name value [unix-seconds]" lines from stdin, skipping blank
// lines and lines starting with '#'.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/mixpanel/carbon"
	"github.com/mixpanel/carbon/logging"
	"github.com/mixpanel/carbon/obserr"
)

type Options struct {
	carbon.Options

	Config string `long:"config" description:"YAML file with carbon options; replaces the carbon.* flags"`
	DryRun bool   `long:"dry-run" description:"Print the encoded lines instead of sending them"`

	Args struct {
		Name      string `positional-arg-name:"name"`
		Value     string `positional-arg-name:"value"`
		Timestamp string `positional-arg-name:"unix-seconds"`
	} `positional-args:"yes"`
}

func initOptions() *Options {
	var options Options
	parser := flags.NewParser(&options, flags.Default)

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	if options.Config != "" {
		fileOpts, err := carbon.ParseOptionsFile(options.Config)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		options.Options = fileOpts
	}
	return &options
}

func main() {
	options := initOptions()

	l, err := logging.New(options.LogLevel, options.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	options.Logger = l

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, os.Stdin, os.Stdout); err != nil {
		l.Criticalf("exiting with error", logging.Fields{}.WithError(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, options *Options, in io.Reader, out io.Writer) error {
	client, err := carbon.New(ctx, options.Options)
	if err != nil {
		return err
	}
	defer client.Close()

	l := options.Logger
	if l == nil {
		l = logging.Null
	}

	send := func(m measurement) error {
		if options.DryRun {
			lines, err := client.Encode(m.name, m.value, m.ts)
			if err != nil {
				return err
			}
			for _, line := range lines {
				if _, err := out.Write(line); err != nil {
					return err
				}
			}
			return nil
		}
		return client.SendAt(ctx, m.name, m.value, m.ts)
	}

	if options.Args.Name != "" {
		m, err := parseMeasurement([]string{options.Args.Name, options.Args.Value, options.Args.Timestamp})
		if err != nil {
			return err
		}
		return send(m)
	}

	failed := 0
	scanner := bufio.NewScanner(in)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		m, err := parseMeasurement(strings.Fields(text))
		if err == nil {
			err = send(m)
		}
		if err != nil {
			failed++
			l.Warnf("error sending measurement", logging.Fields{"line": lineNo}.WithError(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return obserr.New("some measurements were not sent").Set("failed", failed)
	}
	return nil
}

type measurement struct {
	name  string
	value string
	ts    time.Time
}

// parseMeasurement accepts name, value and an optional unix timestamp.
func parseMeasurement(fields []string) (measurement, error) {
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) < 2 || len(fields) > 3 {
		return measurement{}, obserr.Kind(obserr.ErrInvalidValue, "expected: name value [unix-seconds]").Set("fields", len(fields))
	}

	m := measurement{name: fields[0], value: fields[1]}
	if len(fields) == 3 {
		secs, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return measurement{}, obserr.Kind(obserr.ErrInvalidValue, err).Set("timestamp", fields[2])
		}
		m.ts = time.Unix(secs, 0)
	}
	return m, nil
}
