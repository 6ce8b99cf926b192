package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mum4k/termdash"
	"github.com/mum4k/termdash/container"
	"github.com/mum4k/termdash/keyboard"
	"github.com/mum4k/termdash/terminal/termbox"
	"github.com/mum4k/termdash/terminal/terminalapi"

	statsdash "github.com/netcriptus/raiden-services"
	"github.com/netcriptus/raiden-services/internal/adapters/sink"
)

//go:embed assets/banner.txt
var banner string

func main() {
	if len(os.Args) < 2 {
		fmt.Print(banner)
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		fmt.Print(banner)
		err = runCommand(os.Args[2:])
	case "tui":
		err = tuiCommand(os.Args[2:])
	case "watch":
		err = watchCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("statsdash %s: %v", cmd, err)
	}
}

type commonFlags struct {
	cfgPath string
	baseURL string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.cfgPath, "config", "", "Path to configuration file (defaults are used when empty)")
	fs.StringVar(&c.baseURL, "base-url", "", "Base URL of the node to poll, overrides stats.base_url")
}

func (c *commonFlags) load() (*statsdash.Config, error) {
	cfg := statsdash.DefaultConfig()
	if c.cfgPath != "" {
		var err error
		cfg, err = statsdash.LoadConfig(c.cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if c.baseURL != "" {
		cfg.Stats.BaseURL = c.baseURL
	}
	return cfg, nil
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	addr := fs.String("addr", "", "Dashboard listen address, overrides web.addr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Web.Addr = *addr
	}

	flow, err := statsdash.ConfFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return flow.Run(ctx)
}

func tuiCommand(args []string) error {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	logFile := fs.String("log-file", "", "Write logs to this file, logs are discarded when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}

	// The terminal owns stdout.
	logs, closeLogs, err := openLogWriter(*logFile)
	if err != nil {
		return err
	}
	defer closeLogs()

	dash, err := sink.NewTermdashSink(cfg.Keys.Chart, cfg.Policy.WindowSize)
	if err != nil {
		return err
	}

	rt, err := statsdash.NewRuntime(cfg,
		statsdash.WithSink(dash),
		statsdash.WithLogWriter(logs),
		statsdash.WithoutWeb(),
	)
	if err != nil {
		return err
	}

	t, err := termbox.New()
	if err != nil {
		return err
	}
	defer t.Close()

	cont, err := container.New(t, dash.Layout("statsdash "+cfg.Stats.BaseURL)...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := rt.Start(runCtx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = rt.Shutdown(shutdownCtx)
	}()

	quit := func(k *terminalapi.Keyboard) {
		switch k.Key {
		case 'q', 'Q', keyboard.KeyEsc, keyboard.KeyCtrlC:
			cancel()
		}
	}

	return termdash.Run(runCtx, t, cont,
		termdash.KeyboardSubscriber(quit),
		termdash.RedrawInterval(500*time.Millisecond),
	)
}

func openLogWriter(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func watchCommand(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}

	flow, err := statsdash.ConfFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Polling %s every %s (Ctrl+C to stop)\n", cfg.Stats.BaseURL, cfg.Policy.Interval)
	return flow.Run(ctx,
		statsdash.StreamOutHeadless(),
		statsdash.StreamOutCallback("stdout", printUpdate),
	)
}

func printUpdate(u statsdash.Update) error {
	parts := make([]string, 0, len(u.Points)+len(u.Texts))
	ts := ""
	for _, p := range u.Points {
		ts = p.Timestamp.Format(time.RFC3339)
		parts = append(parts, fmt.Sprintf("%s=%g", p.Key, p.Value))
	}
	for _, t := range u.Texts {
		parts = append(parts, fmt.Sprintf("%s=%s", t.Key, t.Value))
	}
	fmt.Printf("[%d %s] %s\n", u.Tick, ts, strings.Join(parts, " "))
	return nil
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./statsdash.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := statsdash.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

func printUsage() {
	fmt.Printf(`statsdash CLI

Usage:
  statsdash <command> [flags]

Commands:
  run        Poll the node and serve the web dashboard
  tui        Poll the node and render charts in the terminal
  watch      Poll the node and print every update to stdout
  validate   Load and validate a config file without starting anything

Examples:
  statsdash run -config ./statsdash.yaml -addr :8080
  statsdash tui -base-url http://localhost:5001 -log-file ./statsdash.log
  statsdash watch -base-url http://localhost:5001
  statsdash validate -config ./statsdash.yaml
`)
}
