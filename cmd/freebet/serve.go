package main

import (
	"os"

	"github.com/lox/freebet/internal/server"
)

// ServeCmd runs the WebSocket session server
type ServeCmd struct {
	Addr string `env:"FREEBET_ADDR" help:"Listen address (overrides config)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger := g.newLogger(os.Stderr, cfg)

	addr := cfg.Server.Address
	if c.Addr != "" {
		addr = c.Addr
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	srv := server.NewServer(server.Config{
		Addr:           addr,
		Rules:          cfg.Rules(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Seed:           g.seed(logger),
	}, logger)
	return srv.ListenAndServe(ctx)
}
