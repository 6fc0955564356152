package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command
type Globals struct {
	Config string `short:"c" default:"freebet.hcl" env:"FREEBET_CONFIG" help:"Path to HCL configuration file"`
	Debug  bool   `env:"FREEBET_DEBUG" help:"Enable debug logging"`
	Seed   *int64 `env:"FREEBET_SEED" help:"Deterministic RNG seed (optional)"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"1" help:"Play free bet blackjack in the terminal"`
	Serve    ServeCmd         `cmd:"" help:"Run the WebSocket session server"`
	Simulate SimulateCmd      `cmd:"" help:"Simulate rounds played with basic strategy"`
	Strategy StrategyCmd      `cmd:"" help:"Print a basic strategy chart"`
	Drill    DrillCmd         `cmd:"" help:"Practise the Hi-Lo running count"`
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("freebet"),
		kong.Description("Free bet blackjack: play, serve, simulate, study the strategy and drill the count"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
