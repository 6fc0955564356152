package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/freebet/internal/counting"
	"github.com/lox/freebet/internal/game"
	"github.com/lox/freebet/internal/hand"
	"github.com/lox/freebet/internal/randutil"
	"github.com/lox/freebet/internal/statistics"
	"github.com/lox/freebet/internal/strategy"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// engine stats are folded into the worker totals this often so the balance
// history does not grow with the run
const foldEvery = 10000

// bankroll is large enough that a simulated player never runs dry
var bankroll = decimal.NewFromInt(1 << 40)

// Config holds configuration for running simulations
type Config struct {
	Rounds       int
	Workers      int             // defaults to runtime.NumCPU()
	Bet          decimal.Decimal // base bet, defaults to the table minimum
	CountBetting bool            // size bets from the true count
	Seed         int64
	Rules        game.Rules
	Logger       *log.Logger
}

// Result is the outcome of a simulation run
type Result struct {
	Stats   *statistics.Statistics
	Table   game.Stats // engine counters summed over every worker
	Seed    int64
	Workers int
	Elapsed time.Duration
}

// Simulator plays rounds on autopilot following the recommended strategy
type Simulator struct {
	config Config
	logger *log.Logger
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.Workers > config.Rounds && config.Rounds > 0 {
		config.Workers = config.Rounds
	}
	if config.Rules.NumDecks == 0 {
		config.Rules = game.DefaultRules()
	}
	if config.Bet.IsZero() {
		config.Bet = config.Rules.MinBet
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Simulator{config: config, logger: logger.WithPrefix("simulator")}
}

type workerResult struct {
	stats *statistics.Statistics
	table game.Stats
}

// Run executes the simulation and returns merged results
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	cfg := s.config
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("rounds must be positive, got %d", cfg.Rounds)
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	if cfg.Bet.LessThan(cfg.Rules.MinBet) ||
		(cfg.Rules.MaxBet.IsPositive() && cfg.Bet.GreaterThan(cfg.Rules.MaxBet)) {
		return nil, &game.ValidationError{Field: "bet", Value: cfg.Bet.String(), Reason: "outside the table limits"}
	}

	start := time.Now()
	s.logger.Info("Starting simulation",
		"rounds", cfg.Rounds,
		"workers", cfg.Workers,
		"bet", cfg.Bet,
		"count_betting", cfg.CountBetting,
		"seed", cfg.Seed)

	perWorker := cfg.Rounds / cfg.Workers
	remainder := cfg.Rounds % cfg.Workers

	g, ctx := errgroup.WithContext(ctx)
	results := make(chan workerResult, cfg.Workers)

	for w := 0; w < cfg.Workers; w++ {
		rounds := perWorker
		if w < remainder {
			rounds++
		}
		seed := randutil.Derive(cfg.Seed, w)

		g.Go(func() error {
			result, err := s.runWorker(ctx, seed, rounds)
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			select {
			case results <- result:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	go func() {
		defer close(results)
		_ = g.Wait()
	}()

	merged := &statistics.Statistics{}
	var table game.Stats
	for r := range results {
		merged.Merge(r.stats)
		table = addStats(table, r.table)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	elapsed := time.Since(start)
	s.logger.Info("Simulation complete",
		"rounds", merged.Rounds,
		"mean", fmt.Sprintf("%.4f", merged.Mean()),
		"house_edge", fmt.Sprintf("%.4f", merged.HouseEdge()),
		"elapsed", elapsed)

	return &Result{
		Stats:   merged,
		Table:   table,
		Seed:    cfg.Seed,
		Workers: cfg.Workers,
		Elapsed: elapsed,
	}, nil
}

func (s *Simulator) runWorker(ctx context.Context, seed int64, rounds int) (workerResult, error) {
	e := game.NewEngine(randutil.New(seed), nil,
		game.WithRules(s.config.Rules),
		game.WithBalance(bankroll))

	stats := &statistics.Statistics{}
	var table game.Stats

	for i := 0; i < rounds; i++ {
		if err := ctx.Err(); err != nil {
			return workerResult{}, err
		}
		r, err := s.playRound(e)
		if err != nil {
			return workerResult{}, fmt.Errorf("round %d: %w", i+1, err)
		}
		r.Seed = seed
		stats.Add(r)

		if (i+1)%foldEvery == 0 {
			table = addStats(table, e.Stats())
			e.ResetStats()
		}
	}
	table = addStats(table, e.Stats())

	s.logger.Debug("Worker finished", "seed", seed, "rounds", rounds)
	return workerResult{stats: stats, table: table}, nil
}

// playRound plays one full round and reports it in base-bet units
func (s *Simulator) playRound(e *game.Engine) (statistics.RoundResult, error) {
	base := s.config.Bet
	trueCount := e.TrueCount()
	bet := base
	if s.config.CountBetting {
		bet = counting.RecommendedBet(trueCount, base, s.config.Rules.MaxBet)
	}

	if err := e.InitRound(bet); err != nil {
		return statistics.RoundResult{}, err
	}
	if err := e.DealInitial(); err != nil {
		return statistics.RoundResult{}, err
	}
	for e.Phase() == game.PhasePlayerTurn {
		if err := autoplay(e); err != nil {
			return statistics.RoundResult{}, err
		}
	}
	if err := e.DealerPlay(); err != nil {
		return statistics.RoundResult{}, err
	}
	settlement, err := e.Settle()
	if err != nil {
		return statistics.RoundResult{}, err
	}

	result := statistics.RoundResult{
		NetUnits:  settlement.Net().Div(base).InexactFloat64(),
		Wagered:   settlement.Staked.Div(base).InexactFloat64(),
		TrueCount: trueCount,
		Hands:     len(settlement.Hands),
		Dealer22:  settlement.Dealer22,
	}
	for _, h := range settlement.Hands {
		if h.FreeBet || h.FreeDoubled {
			result.FreeBet = true
		}
		if h.Result == hand.ResultBlackjack {
			result.Blackjack = true
		}
	}
	return result, nil
}

// autoplay applies the recommended action to the active hand. Free actions
// are taken whenever the hand qualifies; refused actions fall back to the
// hard or soft chart row.
func autoplay(e *game.Engine) error {
	h := e.ActiveHand()
	if h == nil {
		return errors.New("no active hand during player turn")
	}

	var err error
	switch e.Recommended() {
	case strategy.Double:
		err = e.Double(h.IsFreeDoubleEligible())
		if errors.Is(err, game.ErrInsufficientFunds) || errors.Is(err, game.ErrIllegalAction) {
			err = e.Hit()
		}
	case strategy.Split:
		if e.FreeSplitAvailable() {
			err = e.Split(true)
		} else {
			err = e.Split(false)
		}
		if errors.Is(err, game.ErrInsufficientFunds) || errors.Is(err, game.ErrIllegalAction) {
			err = playUnpaired(e, h)
		}
	case strategy.Stand:
		err = e.Stand()
	default:
		err = e.Hit()
	}
	return err
}

// playUnpaired plays a pair that could not be split as a plain total
func playUnpaired(e *game.Engine, h *hand.Hand) error {
	up, ok := e.Dealer().UpCard()
	if !ok {
		return e.Stand()
	}
	category := strategy.Hard
	if h.IsSoft() {
		category = strategy.Soft
	}
	action, ok := strategy.For(h.FreeBet).Lookup(category, h.Total(), up.Rank)
	if !ok {
		if h.Total() >= 17 {
			return e.Stand()
		}
		return e.Hit()
	}
	switch action {
	case strategy.Stand:
		return e.Stand()
	case strategy.Double:
		if err := e.Double(false); err == nil {
			return nil
		}
		return e.Hit()
	default:
		return e.Hit()
	}
}

func addStats(a, b game.Stats) game.Stats {
	a.TotalHands += b.TotalHands
	a.Wins += b.Wins
	a.Losses += b.Losses
	a.Pushes += b.Pushes
	a.FreeDoubles += b.FreeDoubles
	a.FreeSplits += b.FreeSplits
	a.FreeSplitBothWins += b.FreeSplitBothWins
	a.Dealer22s += b.Dealer22s
	a.Blackjacks += b.Blackjacks
	return a
}

// PrintSummary writes a summary of simulation results
func PrintSummary(w io.Writer, r *Result) {
	stats := r.Stats
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== FREE BET BLACKJACK SIMULATION ===\n")
	fmt.Fprintf(w, "Rounds played: %d (workers=%d, seed=%d, %s)\n",
		stats.Rounds, r.Workers, r.Seed, r.Elapsed.Round(time.Millisecond))

	fmt.Fprintf(w, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(w, "Mean: %.4f units/round\n", stats.Mean())
	fmt.Fprintf(w, "Median: %.4f units/round\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.4f units\n", stats.StdDev())
	fmt.Fprintf(w, "Std Error: %.4f units\n", stats.StdError())
	fmt.Fprintf(w, "95%% CI: [%.4f, %.4f] units/round\n", low, high)
	fmt.Fprintf(w, "House edge: %.3f%% of money wagered\n", stats.HouseEdge()*100)
	fmt.Fprintf(w, "Biggest win: %.1f units, biggest loss: %.1f units\n", stats.BiggestWin, stats.BiggestLoss)

	fmt.Fprintf(w, "\n=== OUTCOMES ===\n")
	pct := func(n int) float64 { return float64(n) / float64(stats.Rounds) * 100 }
	fmt.Fprintf(w, "Rounds won: %d (%.1f%%), lost: %d (%.1f%%), pushed: %d (%.1f%%)\n",
		stats.Wins, pct(stats.Wins), stats.Losses, pct(stats.Losses), stats.Pushes, pct(stats.Pushes))
	fmt.Fprintf(w, "Player blackjacks: %d (%.2f%%)\n", stats.Blackjacks, pct(stats.Blackjacks))
	fmt.Fprintf(w, "Dealer 22 pushes: %d rounds (%.2f%%)\n", stats.Dealer22s, pct(stats.Dealer22s))
	fmt.Fprintf(w, "Extra hands from splits: %d\n", stats.SplitHands)

	fmt.Fprintf(w, "\n=== FREE BET ANALYSIS ===\n")
	fmt.Fprintf(w, "Free doubles: %d, free splits: %d (both won: %d)\n",
		r.Table.FreeDoubles, r.Table.FreeSplits, r.Table.FreeSplitBothWins)
	fmt.Fprintf(w, "Rounds with a free bet: %d (%.1f%%), %.2f units\n",
		stats.FreeBetRounds, pct(stats.FreeBetRounds), stats.FreeBetUnits)
	fmt.Fprintf(w, "Rounds without: %.2f units\n", stats.PlainUnits)
	fmt.Fprintf(w, "Sanity check: %.2f + %.2f = %.2f (should equal %.2f)\n",
		stats.FreeBetUnits, stats.PlainUnits, stats.FreeBetUnits+stats.PlainUnits, stats.AllUnits)

	fmt.Fprintf(w, "\n=== TRUE COUNT ANALYSIS ===\n")
	for tc := statistics.MinBucket; tc <= statistics.MaxBucket; tc++ {
		b := stats.Buckets[tc-statistics.MinBucket]
		if b.Rounds == 0 {
			continue
		}
		label := fmt.Sprintf("%+d", tc)
		switch tc {
		case statistics.MinBucket:
			label += " or less"
		case statistics.MaxBucket:
			label += " or more"
		}
		fmt.Fprintf(w, "True count %s: %d rounds, %.4f units/round\n", label, b.Rounds, stats.BucketMean(tc))
	}
}
