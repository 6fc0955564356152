// Package game implements the free bet blackjack round engine.
//
// The main type is Engine, which owns the shoe, the Hi-Lo tracker, the
// balance and the statistics, and drives a round through its phases:
//
//	Betting -> PlayerTurn -> DealerTurn -> Settled -> Betting
//
// # Basic Usage
//
//	e := game.NewEngine(randutil.New(42), logger)
//	if err := e.InitRound(decimal.NewFromInt(10)); err != nil {
//	    // *ValidationError
//	}
//	_ = e.DealInitial()
//	for e.Phase() == game.PhasePlayerTurn {
//	    _ = e.Stand()
//	}
//	_ = e.DealerPlay()
//	settlement, _ := e.Settle()
//
// Every action checks the phase before it changes anything. An illegal call
// returns an error wrapping ErrIllegalAction and leaves the state untouched.
//
// # Deterministic Testing
//
// Inject a seeded RNG or a prepared shoe:
//
//	shoe := deck.NewShoe(6, randutil.New(1))
//	_ = shoe.Arrange(deck.MustParseCards("Ts 9h 7c 9d")...)
//	e := game.NewEngine(randutil.New(1), logger, game.WithShoe(shoe))
package game
