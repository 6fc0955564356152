package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/freebet/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. set_stats carries the whole
	// balance history.
	maxMessageSize = 1 << 20
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// Connection is one WebSocket client and the blackjack session it owns.
// The engine is only touched from the read goroutine.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	sessionID string
	engine    *game.Engine
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, sessionID string, engine *game.Engine, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:      conn,
		send:      make(chan *Message, 256),
		sessionID: sessionID,
		engine:    engine,
		logger:    logger.WithPrefix("conn").With("session", sessionID),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed when the connection has shut down
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// send was closed by a concurrent Close
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.sendSession()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage applies one client message to the session engine
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "request", msg.RequestID)

	var err error
	switch msg.Type {
	case MessageTypeBet:
		var data BetData
		if !c.decode(msg, &data) {
			return
		}
		err = c.handleBet(data)

	case MessageTypeDeal:
		err = c.engine.DealInitial()

	case MessageTypeHit:
		err = c.engine.Hit()

	case MessageTypeStand:
		err = c.engine.Stand()

	case MessageTypeDouble:
		var data FreeData
		if !c.decode(msg, &data) {
			return
		}
		err = c.engine.Double(data.Free)

	case MessageTypeSplit:
		var data FreeData
		if !c.decode(msg, &data) {
			return
		}
		err = c.engine.Split(data.Free)

	case MessageTypeDealerPlay:
		err = c.engine.DealerPlay()

	case MessageTypeDealerStep:
		err = c.handleDealerStep(msg.RequestID)

	case MessageTypeSettle:
		err = c.handleSettle(msg.RequestID)

	case MessageTypeSnapshot:

	case MessageTypeSetStats:
		var data SetStatsData
		if !c.decode(msg, &data) {
			return
		}
		err = c.handleSetStats(data)

	case MessageTypeResetStats:
		c.engine.ResetStats()

	default:
		c.sendError(msg.RequestID, "unknown_message_type", "Unknown message type: "+msg.Type.String())
		return
	}

	if err != nil {
		c.logger.Warn("Action refused", "type", msg.Type, "error", err)
		c.sendError(msg.RequestID, errorCode(err), err.Error())
		return
	}
	c.sendSnapshot(msg.RequestID)
}

// decode unmarshals message data. A missing payload leaves v at its zero value.
func (c *Connection) decode(msg *Message, v any) bool {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendError(msg.RequestID, "invalid_message", "Failed to parse "+msg.Type.String()+" data")
		return false
	}
	return true
}

func (c *Connection) handleBet(data BetData) error {
	bet, err := game.ParseBet(data.Amount)
	if err != nil {
		return err
	}
	return c.engine.InitRound(bet)
}

func (c *Connection) handleDealerStep(requestID string) error {
	card, drew, err := c.engine.DealerDrawOne()
	if err != nil {
		return err
	}
	data := DealerCardData{
		Total: c.engine.Dealer().Total(),
		Done:  !drew,
	}
	if drew {
		data.Card = card.String()
		upcoming, err := c.engine.PreviewDealer()
		if err != nil {
			return err
		}
		data.Pending = len(upcoming)
	}
	c.reply(MessageTypeDealerCard, requestID, data)
	return nil
}

func (c *Connection) handleSettle(requestID string) error {
	settlement, err := c.engine.Settle()
	if err != nil {
		return err
	}
	c.reply(MessageTypeSettlement, requestID, settlement)
	return nil
}

// handleSetStats restores statistics between rounds only, since it also
// replaces the balance
func (c *Connection) handleSetStats(data SetStatsData) error {
	if c.engine.RoundID() != "" && c.engine.LastSettlement() == nil {
		return fmt.Errorf("%w: cannot restore stats during a round", game.ErrIllegalAction)
	}
	c.engine.SetStats(data.Stats)
	c.logger.Info("Stats restored", "hands", data.Stats.TotalHands, "balance", c.engine.Balance())
	return nil
}

func (c *Connection) sendSession() {
	c.reply(MessageTypeSession, "", SessionData{
		SessionID: c.sessionID,
		Rules:     c.engine.Rules(),
	})
	c.sendSnapshot("")
}

func (c *Connection) sendSnapshot(requestID string) {
	c.reply(MessageTypeSnapshot, requestID, SnapshotDataFromGame(c.engine.Snapshot()))
}

// sendError sends an error message to the client
func (c *Connection) sendError(requestID, code, message string) {
	c.reply(MessageTypeError, requestID, ErrorData{Code: code, Message: message})
}

func (c *Connection) reply(t MessageType, requestID string, data any) {
	msg, err := NewMessage(t, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", t, "error", err)
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg)
}

// errorCode maps engine errors to protocol error codes
func errorCode(err error) string {
	var verr *game.ValidationError
	switch {
	case errors.As(err, &verr):
		return "invalid_" + verr.Field
	case errors.Is(err, game.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, game.ErrSplitInProgress):
		return "split_in_progress"
	case errors.Is(err, game.ErrIllegalAction):
		return "illegal_action"
	default:
		return "internal_error"
	}
}
