// Package statsfile persists game statistics as a JSON document.
package statsfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/lox/freebet/internal/fileutil"
	"github.com/lox/freebet/internal/game"
	"github.com/shopspring/decimal"
)

// DefaultName is the file name used when no path is configured
const DefaultName = "blackjack_stats.json"

// record is the on-disk shape. Balances are plain JSON numbers rather than
// the quoted strings decimal.Decimal encodes to.
type record struct {
	TotalHands        int           `json:"totalHands"`
	Wins              int           `json:"wins"`
	Losses            int           `json:"losses"`
	Pushes            int           `json:"pushes"`
	FreeDoubles       int           `json:"freeDoubles"`
	FreeSplits        int           `json:"freeSplits"`
	FreeSplitBothWins int           `json:"freeSplitBothWins"`
	Dealer22s         int           `json:"dealer22s"`
	Blackjacks        int           `json:"blackjacks"`
	BalanceHistory    []json.Number `json:"balanceHistory"`
}

// Load reads stats from path. A missing file yields empty stats.
func Load(path string) (game.Stats, error) {
	var rec record
	if err := fileutil.ReadJSON(path, &rec); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return game.Stats{}, nil
		}
		return game.Stats{}, fmt.Errorf("load stats: %w", err)
	}

	stats := game.Stats{
		TotalHands:        rec.TotalHands,
		Wins:              rec.Wins,
		Losses:            rec.Losses,
		Pushes:            rec.Pushes,
		FreeDoubles:       rec.FreeDoubles,
		FreeSplits:        rec.FreeSplits,
		FreeSplitBothWins: rec.FreeSplitBothWins,
		Dealer22s:         rec.Dealer22s,
		Blackjacks:        rec.Blackjacks,
	}
	for i, n := range rec.BalanceHistory {
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return game.Stats{}, fmt.Errorf("load stats: balanceHistory[%d]: %w", i, err)
		}
		stats.BalanceHistory = append(stats.BalanceHistory, d)
	}
	return stats, nil
}

// Save writes stats to path atomically
func Save(path string, stats game.Stats) error {
	rec := record{
		TotalHands:        stats.TotalHands,
		Wins:              stats.Wins,
		Losses:            stats.Losses,
		Pushes:            stats.Pushes,
		FreeDoubles:       stats.FreeDoubles,
		FreeSplits:        stats.FreeSplits,
		FreeSplitBothWins: stats.FreeSplitBothWins,
		Dealer22s:         stats.Dealer22s,
		Blackjacks:        stats.Blackjacks,
		BalanceHistory:    make([]json.Number, len(stats.BalanceHistory)),
	}
	for i, d := range stats.BalanceHistory {
		rec.BalanceHistory[i] = json.Number(d.String())
	}
	if err := fileutil.WriteJSONAtomic(path, rec, 0o644); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}
