// Command pressme replays a one-button A/B test from the command line.
//
// Every line read from stdin is one press of the button. A press resolves
// the live variable "myKey" (default "myValue"), shows the alert when the
// value is "VarA", and tracks the custom event "Pressed Button". Values come
// from a datafile, or are allocated at random from -variations. Tracked
// events are flushed to NATS when -nats.url is set, and to the log
// otherwise.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	natsgo "github.com/nats-io/nats.go"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/flagkit/flagkit/client"
	"github.com/flagkit/flagkit/datafile"
	"github.com/flagkit/flagkit/delivery"
	"github.com/flagkit/flagkit/delivery/nats"
	"github.com/flagkit/flagkit/flags"
	"github.com/flagkit/flagkit/flags/random"
)

var liveVariable = flags.NewKey("myKey", "myValue")

func main() {
	fs := flag.NewFlagSet("pressme", flag.ExitOnError)
	var (
		datafilePath  = fs.String("datafile", envString("PRESSME_DATAFILE", ""), "YAML or JSON datafile with live variable values")
		pollInterval  = fs.Duration("datafile.interval", datafile.DefaultPollInterval, "How often to reload the datafile")
		variations    = fs.String("variations", envString("PRESSME_VARIATIONS", "VarA,VarB"), "Comma-separated variations allocated when no datafile is given")
		presses       = fs.Int("presses", 0, "Press the button this many times instead of reading stdin")
		natsURL       = fs.String("nats.url", envString("NATS_URL", ""), "NATS server to deliver events to; empty logs them instead")
		natsSubject   = fs.String("nats.subject", envString("NATS_SUBJECT", "flagkit.events"), "NATS subject for event batches")
		flushInterval = fs.Duration("flush.interval", delivery.DefaultFlushInterval, "How often to deliver tracked events")
		flushRate     = fs.Float64("flush.rate", 1, "Maximum batches delivered per second")
		queueCapacity = fs.Int("queue.capacity", envInt("PRESSME_QUEUE_CAPACITY", 10000), "Maximum pending events; the oldest are evicted beyond it")
		debugAddr     = fs.String("debug.addr", envString("PRESSME_DEBUG_ADDR", ""), "Address for the /metrics endpoint; empty disables it")
		debug         = fs.Bool("debug", false, "Log at debug level")
	)
	fs.Usage = usageFor(fs, "pressme [flags]")
	fs.Parse(os.Args[1:])

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
		if *debug {
			logger = level.NewFilter(logger, level.AllowDebug())
		} else {
			logger = level.NewFilter(logger, level.AllowInfo())
		}
	}

	c := client.New(
		client.WithLogger(logger),
		client.WithQueueCapacity(*queueCapacity),
		client.WithMetrics(newMetrics()),
	)

	var publisher delivery.Publisher
	{
		if *natsURL != "" {
			nc, err := natsgo.Connect(*natsURL, natsgo.Name("pressme"))
			if err != nil {
				level.Error(logger).Log("msg", "connecting to NATS", "url", *natsURL, "err", err)
				os.Exit(1)
			}
			defer nc.Close()
			publisher = nats.NewPublisher(nc, *natsSubject)
		} else {
			publisher = delivery.LogPublisher(log.With(logger, "component", "delivery"))
		}
		publisher = delivery.Chain(
			delivery.Logging(level.Debug(log.With(logger, "component", "delivery"))),
			delivery.Limit(rate.NewLimiter(rate.Limit(*flushRate), 1)),
			delivery.Breaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "delivery"})),
		)(publisher)
	}

	var g run.Group
	{
		// Sync side: datafile poller, or a one-off random allocation.
		if *datafilePath != "" {
			poller := datafile.NewPoller(*datafilePath, c.Store(),
				datafile.PollerInterval(*pollInterval),
				datafile.PollerLogger(log.With(logger, "component", "datafile")),
			)
			ctx, cancel := context.WithCancel(context.Background())
			g.Add(func() error {
				return poller.Run(ctx)
			}, func(error) {
				cancel()
			})
		} else if opts := splitList(*variations); len(opts) > 0 {
			a := random.NewAllocator(rand.New(rand.NewSource(time.Now().UnixNano())))
			v := a.Allocate(c.Store(), liveVariable.ID, opts...)
			level.Info(logger).Log("msg", "allocated variation", "key", liveVariable.ID, "value", v)
		}
	}
	{
		// Delivery side.
		f := delivery.NewFlusher(c, publisher,
			delivery.FlushInterval(*flushInterval),
			delivery.FlushLogger(log.With(logger, "component", "flusher")),
		)
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return f.Run(ctx)
		}, func(error) {
			cancel()
		})
	}
	{
		// The button.
		var in io.Reader = os.Stdin
		if *presses > 0 {
			in = strings.NewReader(strings.Repeat("\n", *presses))
		}
		done := make(chan struct{})
		g.Add(func() error {
			return pressAll(in, c, logger, done)
		}, func(error) {
			close(done)
		})
	}
	if *debugAddr != "" {
		ln, err := net.Listen("tcp", *debugAddr)
		if err != nil {
			level.Error(logger).Log("transport", "debug/HTTP", "during", "Listen", "err", err)
			os.Exit(1)
		}
		g.Add(func() error {
			level.Info(logger).Log("transport", "debug/HTTP", "addr", *debugAddr)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			return http.Serve(ln, mux)
		}, func(error) {
			ln.Close()
		})
	}
	{
		g.Add(run.SignalHandler(context.Background(), os.Interrupt))
	}

	err := g.Run()
	level.Info(logger).Log("exit", err)

	// Anything tracked after the flusher's last pass goes out here.
	if pending := c.Close(); len(pending) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), delivery.DefaultFinalTimeout)
		defer cancel()
		if err := publisher.Publish(ctx, pending); err != nil {
			level.Error(logger).Log("msg", "final delivery failed", "events", len(pending), "err", err)
		}
	}
}

// pressAll presses the button once per line of in, until in is exhausted or
// done is closed.
func pressAll(in io.Reader, c *client.Client, logger log.Logger, done <-chan struct{}) error {
	lines := make(chan struct{})
	go func() {
		defer close(lines)
		s := bufio.NewScanner(in)
		for s.Scan() {
			select {
			case lines <- struct{}{}:
			case <-done:
				return
			}
		}
	}()
	for {
		select {
		case _, ok := <-lines:
			if !ok {
				return nil
			}
			press(c, logger)
		case <-done:
			return nil
		}
	}
}

// press is the button handler.
func press(c *client.Client, logger log.Logger) {
	if c.Resolve(liveVariable) == "VarA" {
		logger.Log("msg", "AB Test", "detail", "This alert only shows if liveVariable equals VarA")
	}
	c.Track("Pressed Button")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envString(env, fallback string) string {
	e := os.Getenv(env)
	if e == "" {
		return fallback
	}
	return e
}

func envInt(env string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(env))
	if err != nil {
		return fallback
	}
	return n
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		fs.PrintDefaults()
	}
}
