package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/gg"
	"golang.org/x/sync/errgroup"

	"potbrainz/render"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("potbrainz v%s\n", version)
	fmt.Println("Circular dial control daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  potbrainz [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Owns a single dial control. Drag, rotary and value input arrive from Linux")
	fmt.Println("  input devices, the IPC socket (see potctl) and websocket clients. The dial")
	fmt.Println("  is rendered in software; frames are served at /frame.png and value changes")
	fmt.Println("  are pushed to /ws subscribers (see potwatch).")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with a config file")
	fmt.Println("  potbrainz -config ~/.config/potbrainz.yaml")
	fmt.Println()
	fmt.Println("  # Centered variant driven by a touch strip")
	fmt.Println("  potbrainz -variant centered -input-device /dev/input/event3")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Reading input devices requires root or membership of the 'input' group")
	fmt.Println("  - -http-port 0 disables the HTTP server")
	fmt.Println()
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")

		variant       = flag.String("variant", "", "Dial variant: base|small|centered")
		value         = flag.Float64("value", 0, "Initial dial value in [0, 1]")
		lineWidthMode = flag.String("line-width-mode", "", "Line width mode: fixed|proportional")
		width         = flag.Int("width", 0, "View width in pixels")
		height        = flag.Int("height", 0, "View height in pixels")
		durationMS    = flag.Int("animation-ms", 0, "Animation duration for set_value and rotary input in ms")
		easing        = flag.String("easing", "", "Easing: linear|ease_in|ease_out|ease_in_out")
		inputDevice   = flag.String("input-device", "", "Linux input event device (e.g. /dev/input/event3)")
		ipcSocket     = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		httpPort      = flag.Int("http-port", 0, "HTTP listener port (0 disables)")
		logLevelStr   = flag.String("log-level", "", "Log level: error, warn, info, debug")

		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Only flags that were set on the command line override the file.
	var o FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "variant":
			o.Variant = variant
		case "value":
			o.Value = value
		case "line-width-mode":
			o.LineWidthMode = lineWidthMode
		case "width":
			o.Width = width
		case "height":
			o.Height = height
		case "animation-ms":
			o.DurationMS = durationMS
		case "easing":
			o.Easing = easing
		case "input-device":
			o.InputDevice = inputDevice
		case "ipc-socket":
			o.IPCSocketPath = ipcSocket
		case "http-port":
			o.HTTPPort = httpPort
		case "log-level":
			o.LogLevel = logLevelStr
		}
	})
	o.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error: invalid config:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logLevel)
	gg.SetLogger(logger.With("component", "gg"))

	if err := run(cfg, logger); err != nil {
		logger.Error("potbrainz stopped", "error", err)
		os.Exit(1)
	}
}

// run wires the daemon components together and blocks until a signal or the
// first component failure.
func run(cfg Config, logger *slog.Logger) error {
	background, err := parseHexColor(cfg.Dial.Colors.Background)
	if err != nil {
		return fmt.Errorf("dial.colors.background: %w", err)
	}
	labelColor, err := parseHexColor(cfg.Dial.Colors.Label)
	if err != nil {
		return fmt.Errorf("dial.colors.label: %w", err)
	}

	renderer, err := render.New(cfg.View.Width, cfg.View.Height,
		render.WithBackground(background),
		render.WithLabelColor(labelColor),
		render.WithLogger(logger.With("component", "render")),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	state, err := newDaemonState(cfg, renderer, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := make(chan Event, 64)
	broadcasts := make(chan StateBroadcast, 128)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runDaemon(ctx, events, state, broadcasts, logger)
		return nil
	})

	g.Go(func() error {
		return runIPCServer(ctx, ExpandPath(cfg.IPC.SocketPath), events, logger)
	})

	if cfg.HTTP.Port > 0 {
		ws := NewServer(logger, events, ServerConfig{})
		g.Go(func() error {
			ws.Hub().Run(ctx)
			return nil
		})
		g.Go(func() error {
			RunBroadcaster(ctx, ws.Hub(), broadcasts, logger)
			return nil
		})
		g.Go(func() error {
			return runHTTPServer(ctx, cfg.HTTP.Port, newHTTPMux(ws, renderer, logger), logger)
		})
	} else {
		// Nobody subscribes; keep the daemon's publish path from logging drops.
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-broadcasts:
				}
			}
		})
	}

	if len(cfg.Input.Devices) > 0 {
		g.Go(func() error {
			return runInputReader(ctx, cfg.Input, events, logger)
		})
	}

	logger.Info("potbrainz started",
		"version", version,
		"variant", cfg.Dial.Variant,
		"view", fmt.Sprintf("%dx%d", cfg.View.Width, cfg.View.Height),
		"ipc", cfg.IPC.SocketPath,
		"http_port", cfg.HTTP.Port,
		"input_devices", len(cfg.Input.Devices),
	)

	err = g.Wait()
	logger.Info("shutting down")
	return err
}
