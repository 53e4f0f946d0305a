// Command wtmuxd is the server daemon: it loads configuration, opens the
// per-user transport listener, and serves client connections until signaled
// to stop (spec.md §1, §6). Grounded on the teacher's cmd/go-tmux/main.go
// (construct the long-lived components, start listening, block on an
// interrupt/TERM signal, stop cleanly), adapted from the teacher's
// log.Logger + single pipe server to slog + internal/server.Server.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"wtmux/internal/config"
	"wtmux/internal/server"
	"wtmux/internal/transport"
)

func main() {
	var (
		addr       string
		configPath string
	)
	flag.StringVar(&addr, "addr", "", "listen address (default: per-user socket/pipe name)")
	flag.StringVar(&configPath, "config", "", "path to a wtmux config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Error("[wtmuxd] load config", "path", configPath, "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if addr == "" {
		addr = transport.DefaultAddress()
	}

	l, err := transport.Listen(addr)
	if err != nil {
		log.Error("[wtmuxd] listen", "addr", addr, "err", err)
		os.Exit(1)
	}
	log.Info("[wtmuxd] listening", "addr", addr)

	srv := server.New(cfg, log)

	if configPath != "" {
		stopWatch, err := config.Watch(configPath, func(next *config.Config) {
			log.Info("[wtmuxd] config reloaded", "path", configPath)
			srv.SetConfig(next)
		})
		if err != nil {
			log.Warn("[wtmuxd] config watch unavailable", "path", configPath, "err", err)
		} else {
			defer stopWatch()
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(l)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("[wtmuxd] serve", "err", err)
		}
	case s := <-sig:
		log.Info("[wtmuxd] shutting down", "signal", s)
	}

	srv.Shutdown()
	fmt.Fprintln(os.Stdout, "[wtmuxd] stopped")
}
