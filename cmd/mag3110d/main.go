package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mag3110d/internal/config"
	"mag3110d/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./mag3110d.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logs := web.NewLogBuffer(cfg.Web.LogLines)
	log.SetOutput(io.MultiWriter(os.Stderr, logs))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("mag3110d starting")

	status := web.NewStatus()
	samples := web.NewSampleBroadcaster()
	rt, err := newRuntime(ctx, cfg, status, samples)
	if err != nil {
		log.Fatalf("mag3110 init failed: %v", err)
	}
	defer rt.Close()
	log.Printf("poll interval=%s", rt.poll.Interval())

	if cfg.Web.Listen != "" {
		go func() {
			handler := web.Handler(status, rt.ctl, rt.poll, logs, samples)
			log.Printf("web listening on %s", cfg.Web.Listen)
			if err := web.Serve(ctx, cfg.Web.Listen, handler); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("web server stopped: %v", err)
				cancel()
			}
		}()
	}

	<-ctx.Done()
	log.Printf("mag3110d stopping")
}
