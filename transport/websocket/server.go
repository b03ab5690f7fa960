package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/dotsandboxes-backend/internal/entity"
	"github.com/rocketscienceinc/dotsandboxes-backend/internal/usecase"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = time.Minute
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096

	defaultSendBuffer = 64
)

type uGame interface {
	CreateGame(ctx context.Context, playerID string) (*entity.Game, *entity.Player, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, *entity.Player, error)
	MakeMove(ctx context.Context, gameID, playerID string, lineType entity.LineType, index int) (*usecase.MoveResult, error)
	RestartGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	Disconnect(ctx context.Context, playerID string) (*usecase.DisconnectResult, error)
	ListGames(ctx context.Context) ([]*entity.Game, error)
}

type Options struct {
	RateLimit  float64
	RateBurst  int
	SendBuffer int
}

type client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

type inbound struct {
	client  *client
	data    []byte
	limited bool
}

// Server is the session gateway. Every inbound event, including connects
// and disconnects, is handled on the goroutine running Run.
type Server struct {
	logger   *slog.Logger
	uGame    uGame
	options  Options
	upgrader websocket.Upgrader

	clients map[string]*client

	register   chan *client
	unregister chan *client
	inbound    chan inbound
	done       chan struct{}

	handlers map[string]func(ctx context.Context, client *client, payload json.RawMessage) error
}

func New(logger *slog.Logger, uGame uGame, options Options) *Server {
	if options.SendBuffer <= 0 {
		options.SendBuffer = defaultSendBuffer
	}

	server := &Server{
		logger:  logger.With("component", "websocket"),
		uGame:   uGame,
		options: options,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		clients: make(map[string]*client),

		register:   make(chan *client),
		unregister: make(chan *client),
		inbound:    make(chan inbound),
		done:       make(chan struct{}),
	}

	server.handlers = map[string]func(context.Context, *client, json.RawMessage) error{
		actionCreateGame:  server.handleCreateGame,
		actionJoinGame:    server.handleJoinGame,
		actionMakeMove:    server.handleMakeMove,
		actionRestartGame: server.handleRestartGame,
		actionGetAllGames: server.handleGetAllGames,
	}

	return server
}

// Handler serves the websocket endpoint at /ws.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	return mux
}

// Start - runs the event loop and the websocket server until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go that.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}

		return nil
	}
}

// Run - processes events one at a time until ctx is canceled.
func (that *Server) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")
	defer close(that.done)

	for {
		select {
		case c := <-that.register:
			that.clients[c.id] = c
			log.Info("client connected", "player_id", c.id)

		case c := <-that.unregister:
			that.removeClient(ctx, c)

		case in := <-that.inbound:
			if _, ok := that.clients[in.client.id]; !ok {
				continue
			}

			if in.limited {
				that.sendError(in.client, errTooManyRequests)
				continue
			}

			that.handleMessage(ctx, in.client, in.data)

		case <-ctx.Done():
			for _, c := range that.clients {
				delete(that.clients, c.id)
				close(c.send)
			}

			log.Info("event loop stopped")

			return
		}
	}
}

func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := &client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, that.options.SendBuffer),
		limiter: that.newLimiter(),
	}

	select {
	case that.register <- c:
	case <-that.done:
		conn.Close()
		return
	}

	go that.writePump(c)
	go that.readPump(c)
}

// newLimiter returns the per connection token bucket. A non-positive rate disables limiting.
func (that *Server) newLimiter() *rate.Limiter {
	if that.options.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}

	return rate.NewLimiter(rate.Limit(that.options.RateLimit), that.options.RateBurst)
}

func (that *Server) readPump(c *client) {
	defer func() {
		select {
		case that.unregister <- c:
		case <-that.done:
		}

		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				that.logger.Warn("unexpected close", "player_id", c.id, "error", err)
			}

			return
		}

		select {
		case that.inbound <- inbound{client: c, data: data, limited: !c.limiter.Allow()}:
		case <-that.done:
			return
		}
	}
}

func (that *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (that *Server) removeClient(ctx context.Context, c *client) {
	if _, ok := that.clients[c.id]; !ok {
		return
	}

	delete(that.clients, c.id)
	close(c.send)

	that.logger.Info("client disconnected", "player_id", c.id)

	that.handleDisconnect(ctx, c)
}

// sendMessage queues a frame for the client. A client that cannot keep up is dropped.
func (that *Server) sendMessage(c *client, action string, payload any) {
	log := that.logger.With("method", "sendMessage", "player_id", c.id, "action", action)

	if _, ok := that.clients[c.id]; !ok {
		return
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal payload", "error", err)
		return
	}

	data, err := json.Marshal(Message{Action: action, Payload: payloadJSON})
	if err != nil {
		log.Error("failed to marshal message", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		log.Warn("send buffer full, dropping client")
		c.conn.Close()
	}
}

// broadcast sends the message to every connected seat of the game.
func (that *Server) broadcast(game *entity.Game, action string, payload any) {
	for _, player := range game.Players {
		if c, ok := that.clients[player.ID]; ok {
			that.sendMessage(c, action, payload)
		}
	}
}
