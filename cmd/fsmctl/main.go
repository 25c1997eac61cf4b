// Command fsmctl loads a YAML machine definition, walks it through a list of
// states and prints the resulting history, graph or manifest.
//
//	fsmctl [-dot] [-yaml] [-snapshot] <definition.yaml> <state>...
//
// Settings are read from the environment (or a .env file):
//
//	FSMCTL_LOG_LEVEL     debug, info, warn or error (default info)
//	FSMCTL_LOG_FORMAT    text or json (default text)
//	FSMCTL_HISTORY_SIZE  history bound, 0 keeps the definition's value
//	FSMCTL_NOTIFY_DELAY  batch context notifications for this long (default: run them on a loop goroutine)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/librescoot/chainfsm"
	"github.com/librescoot/chainfsm/export"
	"github.com/librescoot/chainfsm/internal/config"
	"github.com/librescoot/chainfsm/internal/logger"
	"github.com/librescoot/chainfsm/observable"
)

type cliConfig struct {
	LogLevel    string        `env:"FSMCTL_LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"FSMCTL_LOG_FORMAT" envDefault:"text"`
	HistorySize int           `env:"FSMCTL_HISTORY_SIZE"`
	NotifyDelay time.Duration `env:"FSMCTL_NOTIFY_DELAY"`
}

var errRejected = errors.New("some transitions were rejected")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "fsmctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fsmctl", flag.ContinueOnError)
	dot := fs.Bool("dot", false, "print the machine as Graphviz DOT")
	manifest := fs.Bool("yaml", false, "print the final machine manifest")
	snapshot := fs.Bool("snapshot", false, "print the final store snapshot")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: fsmctl [-dot] [-yaml] [-snapshot] <definition.yaml> <state>...")
	}

	var cfg cliConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	def, err := chainfsm.LoadDefinitionFile(fs.Arg(0))
	if err != nil {
		return err
	}

	scheduler, flush, stop, err := newScheduler(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stop()

	var rejected int
	opts := []chainfsm.MachineOption{
		chainfsm.WithLogger(log),
		chainfsm.WithScheduler(scheduler),
		chainfsm.WithHistory(true),
		chainfsm.WithDiagnostics(func(err error) {
			rejected++
			log.Error("transition rejected", logger.Error(err))
		}),
		chainfsm.WithTransitionListener(func(from, to chainfsm.StateID, _ any) {
			log.Info("transition", "from", string(from), logger.State(string(to)))
		}),
	}
	if cfg.HistorySize > 0 {
		opts = append(opts, chainfsm.WithHistorySize(cfg.HistorySize))
	}

	m, err := def.Build(opts...)
	if err != nil {
		return err
	}
	m.OnContextChange(func(_ *chainfsm.Context, changes []chainfsm.Change) {
		for _, ch := range changes {
			log.Info("context changed", "key", ch.Key, "value", ch.Value, logger.State(string(m.Current())))
		}
	})

	for _, target := range fs.Args()[1:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.MoveTo(chainfsm.StateID(target), nil)
	}
	if err := flush(ctx); err != nil {
		return err
	}

	for _, rec := range m.History() {
		fmt.Fprintf(out, "%s %s -> %s\n", rec.Timestamp.Format(time.RFC3339Nano), rec.From, rec.To)
	}
	fmt.Fprintf(out, "current: %s\n", m.Current())

	if *dot {
		fmt.Fprint(out, export.DOT(m))
	}
	if *manifest {
		data, err := export.YAML(m)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
	}
	if *snapshot {
		if err := export.Snapshot(out, m.Store().Snapshot()); err != nil {
			return err
		}
	}

	if rejected > 0 {
		return fmt.Errorf("%w: %d", errRejected, rejected)
	}
	return nil
}

func newLogger(cfg cliConfig) (*slog.Logger, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format := logger.Format(cfg.LogFormat)
	if format != logger.FormatJSON && format != logger.FormatText {
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	return logger.New(
		logger.WithLevel(level),
		logger.WithFormat(format),
		logger.WithAttr(logger.Component("fsmctl")),
	), nil
}

// newScheduler returns the notification scheduler with a function that
// waits for pending notifications and one that releases it.
func newScheduler(ctx context.Context, cfg cliConfig, log *slog.Logger) (observable.Scheduler, func(context.Context) error, func(), error) {
	if cfg.NotifyDelay > 0 {
		t := observable.NewTimer(cfg.NotifyDelay)
		flush := func(context.Context) error {
			t.Flush()
			return nil
		}
		return t, flush, t.Stop, nil
	}

	loop := observable.NewLoop(observable.WithLoopLogger(log))
	if err := loop.Start(ctx); err != nil {
		return nil, nil, nil, err
	}
	stop := func() {
		if err := loop.Stop(); err != nil {
			log.Warn("stopping loop", logger.Error(err))
		}
	}
	return loop, loop.Flush, stop, nil
}
