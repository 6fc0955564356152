package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/lox/freebet/internal/strategy"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		command string
		check   func(t *testing.T, cli *CLI)
	}{
		{
			name:    "play by default",
			args:    []string{},
			command: "play",
		},
		{
			name:    "simulate flags",
			args:    []string{"--seed", "9", "simulate", "-n", "500", "--count-betting"},
			command: "simulate",
			check: func(t *testing.T, cli *CLI) {
				require.NotNil(t, cli.Seed)
				assert.Equal(t, int64(9), *cli.Seed)
				assert.Equal(t, 500, cli.Simulate.Rounds)
				assert.True(t, cli.Simulate.CountBetting)
			},
		},
		{
			name:    "serve address",
			args:    []string{"-c", "other.hcl", "serve", "--addr", ":9000"},
			command: "serve",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, "other.hcl", cli.Config)
				assert.Equal(t, ":9000", cli.Serve.Addr)
			},
		},
		{
			name:    "drill pace",
			args:    []string{"drill", "--pace", "500ms"},
			command: "drill",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, 500*time.Millisecond, cli.Drill.Pace)
			},
		},
		{
			name:    "strategy variant",
			args:    []string{"strategy", "--variant", "standard"},
			command: "strategy",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, "standard", cli.Strategy.Variant)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var cli CLI
			parser, err := kong.New(&cli, kong.Name("freebet"), kong.Vars{"version": "test"})
			require.NoError(t, err)
			ctx, err := parser.Parse(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.command, ctx.Command())
			if tt.check != nil {
				tt.check(t, &cli)
			}
		})
	}
}

func TestParseRejectsUnknownVariant(t *testing.T) {
	t.Parallel()
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = parser.Parse([]string{"strategy", "--variant", "european"})
	assert.Error(t, err)
}

func TestPrintChart(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	var buf bytes.Buffer
	require.NoError(t, printChart(&buf, strategy.FreeBet()))
	out := buf.String()
	assert.Contains(t, out, "Basic strategy: free")
	assert.Contains(t, out, "pairs")
	assert.Contains(t, out, "A,A")
	assert.Contains(t, out, "H hit, S stand, D double, P split")
}
