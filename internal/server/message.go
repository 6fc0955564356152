package server

import (
	"encoding/json"
	"time"

	"github.com/lox/freebet/internal/deck"
	"github.com/lox/freebet/internal/game"
	"github.com/lox/freebet/internal/hand"
	"github.com/lox/freebet/internal/strategy"
	"github.com/shopspring/decimal"
)

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeBet        MessageType = "bet"
	MessageTypeDeal       MessageType = "deal"
	MessageTypeHit        MessageType = "hit"
	MessageTypeStand      MessageType = "stand"
	MessageTypeDouble     MessageType = "double"
	MessageTypeSplit      MessageType = "split"
	MessageTypeDealerPlay MessageType = "dealer_play"
	MessageTypeDealerStep MessageType = "dealer_step"
	MessageTypeSettle     MessageType = "settle"
	MessageTypeSnapshot   MessageType = "snapshot"
	MessageTypeSetStats   MessageType = "set_stats"
	MessageTypeResetStats MessageType = "reset_stats"

	// Server to client messages
	MessageTypeSession    MessageType = "session"
	MessageTypeDealerCard MessageType = "dealer_card"
	MessageTypeSettlement MessageType = "settlement"
	MessageTypeError      MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

// BetData carries the amount as text so decimal bets survive JSON intact
type BetData struct {
	Amount string `json:"amount"`
}

// FreeData selects the free variant of double and split
type FreeData struct {
	Free bool `json:"free"`
}

type SetStatsData struct {
	Stats game.Stats `json:"stats"`
}

// Server → Client Messages

type SessionData struct {
	SessionID string     `json:"sessionId"`
	Rules     game.Rules `json:"rules"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DealerCardData struct {
	Card    string `json:"card,omitempty"`
	Total   int    `json:"total"`
	Pending int    `json:"pending"` // cards the dealer will still draw
	Done    bool   `json:"done"`
}

// HandState is a hand as seen by the client. Face-down cards are masked.
type HandState struct {
	Cards       []string        `json:"cards"`
	Total       int             `json:"total"`
	Soft        bool            `json:"soft"`
	Bet         decimal.Decimal `json:"bet"`
	FreeBet     bool            `json:"freeBet"`
	Busted      bool            `json:"busted"`
	Blackjack   bool            `json:"blackjack"`
	Doubled     bool            `json:"doubled"`
	FreeDoubled bool            `json:"freeDoubled"`
	Split       bool            `json:"split"`
	Stood       bool            `json:"stood"`
	Result      hand.Result     `json:"result"`
	Winnings    decimal.Decimal `json:"winnings"`
}

// SnapshotData is the engine snapshot sent after every action
type SnapshotData struct {
	RoundID        string           `json:"roundId,omitempty"`
	Phase          game.Phase       `json:"phase"`
	Balance        decimal.Decimal  `json:"balance"`
	Bet            decimal.Decimal  `json:"bet"`
	Hands          []HandState      `json:"hands"`
	ActiveIndex    int              `json:"activeIndex"`
	Dealer         HandState        `json:"dealer"`
	Recommended    strategy.Action  `json:"recommended"`
	Stats          game.Stats       `json:"stats"`
	RunningCount   int              `json:"runningCount"`
	TrueCount      float64          `json:"trueCount"`
	RemainingCards int              `json:"remainingCards"`
	RemainingDecks int              `json:"remainingDecks"`
	RecommendedBet decimal.Decimal  `json:"recommendedBet"`
	Settlement     *game.Settlement `json:"settlement,omitempty"`
}

func cardText(c deck.Card) string {
	if !c.FaceUp {
		return "??"
	}
	return c.String()
}

// HandStateFromHand masks face-down cards so the hole card never leaks
func HandStateFromHand(h *hand.Hand) HandState {
	cards := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		cards[i] = cardText(c)
	}
	return HandState{
		Cards:       cards,
		Total:       h.Total(),
		Soft:        h.IsSoft(),
		Bet:         h.Bet,
		FreeBet:     h.FreeBet,
		Busted:      h.Busted,
		Blackjack:   h.Blackjack,
		Doubled:     h.Doubled,
		FreeDoubled: h.FreeDoubled,
		Split:       h.Split,
		Stood:       h.Stood,
		Result:      h.Result,
		Winnings:    h.Winnings,
	}
}

// SnapshotDataFromGame converts an engine snapshot for the wire
func SnapshotDataFromGame(s game.Snapshot) SnapshotData {
	hands := make([]HandState, len(s.Hands))
	for i, h := range s.Hands {
		hands[i] = HandStateFromHand(h)
	}
	return SnapshotData{
		RoundID:        s.RoundID,
		Phase:          s.Phase,
		Balance:        s.Balance,
		Bet:            s.Bet,
		Hands:          hands,
		ActiveIndex:    s.ActiveIndex,
		Dealer:         HandStateFromHand(s.Dealer),
		Recommended:    s.Recommended,
		Stats:          s.Stats,
		RunningCount:   s.RunningCount,
		TrueCount:      s.TrueCount,
		RemainingCards: s.RemainingCards,
		RemainingDecks: s.RemainingDecks,
		RecommendedBet: s.RecommendedBet,
		Settlement:     s.Settlement,
	}
}

// StrategyData is the JSON form of a strategy chart
type StrategyData struct {
	Name    string         `json:"name"`
	Columns []string       `json:"columns"`
	Hard    []StrategyLine `json:"hard"`
	Soft    []StrategyLine `json:"soft"`
	Pairs   []StrategyLine `json:"pairs"`
}

type StrategyLine struct {
	Label   string   `json:"label"`
	Actions []string `json:"actions"`
}

// StrategyDataFromTable renders every category of t
func StrategyDataFromTable(t *strategy.Table) StrategyData {
	lines := func(c strategy.Category) []StrategyLine {
		rows := t.Rows(c)
		out := make([]StrategyLine, len(rows))
		for i, r := range rows {
			actions := make([]string, len(r.Actions))
			for j, a := range r.Actions {
				actions[j] = a.String()
			}
			out[i] = StrategyLine{Label: r.Label, Actions: actions}
		}
		return out
	}
	return StrategyData{
		Name:    t.Name(),
		Columns: strategy.DealerColumns[:],
		Hard:    lines(strategy.Hard),
		Soft:    lines(strategy.Soft),
		Pairs:   lines(strategy.Pairs),
	}
}
