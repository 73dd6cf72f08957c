// webcardd is the native-messaging helper: it bridges a browser extension
// (over stdin/stdout, length-framed JSON) to the host's PC/SC smart-card
// subsystem, and optionally exposes the identical command vocabulary over
// a WebSocket/SSE bridge for hosts that cannot launch a native-messaging
// subprocess.
//
// Usage:
//
//	webcardd [--config <path>] [--bridge-addr <addr>]
//
// webcardd is normally launched by the browser's native-messaging host
// manifest; you do not run it by hand except for local testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/ianremillard/webcardd/internal/bridge"
	"github.com/ianremillard/webcardd/internal/config"
	"github.com/ianremillard/webcardd/internal/dispatcher"
	"github.com/ianremillard/webcardd/internal/eventloop"
	"github.com/ianremillard/webcardd/internal/framer"
	"github.com/ianremillard/webcardd/internal/pcsc"
	"github.com/ianremillard/webcardd/internal/reconciler"
)

func main() {
	configPath := flag.String("config", "webcard.yaml", "optional config file (poll interval, debug, bridge settings)")
	bridgeAddr := flag.String("bridge-addr", "", "override the configured bridge listen address")
	flag.Parse()

	if err := run(*configPath, *bridgeAddr); err != nil {
		log.Fatalf("webcardd: %v", err)
	}
}

func run(configPath, bridgeAddrOverride string) error {
	if err := validateInputOutputPipes(); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("webcardd: received %v, shutting down", sig)
		cancel()
	}()

	adapter := pcsc.NewBreakingAdapter("pcsc", pcsc.NewPlatformAdapter())
	pctxHandle, err := adapter.EstablishContext(ctx)
	if err != nil {
		return fmt.Errorf("establish pc/sc context: %w", err)
	}
	defer adapter.ReleaseContext(ctx, pctxHandle)

	rec := reconciler.New(adapter, pctxHandle)
	rec.ListInterval = cfg.PollInterval()
	rec.Debug = cfg.Debug
	rec.DebugLog = log.Printf

	disp := dispatcher.New(adapter, pctxHandle, rec.Registry)

	loop := eventloop.New(framer.NewReader(os.Stdin), os.Stdout, rec, disp)
	loop.Debug = cfg.Debug
	loop.DebugLog = log.Printf

	if cfg.Bridge.Enabled || bridgeAddrOverride != "" {
		br := bridge.New(loop.Requests)
		addr := cfg.Bridge.Addr
		if bridgeAddrOverride != "" {
			addr = bridgeAddrOverride
		}
		loop.OnEvent = br.BroadcastEvent
		go func() {
			if err := br.Run(ctx, addr); err != nil {
				log.Printf("webcardd: bridge server stopped: %v", err)
			}
		}()
	}

	return loop.Run(ctx)
}

// validateInputOutputPipes ports os_specific.c's
// OSSpecific_validateTypesOfStreams: both streams must be pipes, not an
// interactive terminal and not a regular file. term.IsTerminal rules out
// the terminal case the way the original's Windows branch (GetConsoleMode)
// does; the ModeNamedPipe check below is this platform's analogue of the
// original's Linux branch (fstat + S_ISFIFO).
func validateInputOutputPipes() error {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("stdin must be a pipe, not an interactive terminal")
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout must be a pipe, not an interactive terminal")
	}
	if err := requirePipe(os.Stdin, "stdin"); err != nil {
		return err
	}
	if err := requirePipe(os.Stdout, "stdout"); err != nil {
		return err
	}
	return nil
}

func requirePipe(f *os.File, name string) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		return fmt.Errorf("%s must be a pipe, got mode %v", name, info.Mode())
	}
	return nil
}
