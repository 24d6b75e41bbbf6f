package wsbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/host"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8 << 20
)

// Config holds bridge configuration
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int

	// Origin check function
	CheckOrigin func(r *http.Request) bool

	// RequestTimeout caps each request; an earlier caller deadline still wins
	RequestTimeout time.Duration

	Logger *zap.Logger
}

// DefaultConfig returns default bridge configuration
func DefaultConfig() *Config {
	return &Config{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
		RequestTimeout:  10 * time.Second,
	}
}

// Bridge accepts the editor's websocket connection and forwards requests to
// it. A new connection replaces the previous one.
type Bridge struct {
	config   *Config
	upgrader *websocket.Upgrader
	logger   *zap.Logger

	mu   sync.RWMutex
	peer *peer
}

var _ host.Messenger = (*Bridge)(nil)

// New creates a bridge. A nil config uses DefaultConfig.
func New(config *Config) *Bridge {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		config: config,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the editor's connection
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("editor upgrade failed", zap.Error(err))
		return
	}

	p := newPeer(uuid.New().String(), conn, b.logger)

	b.mu.Lock()
	old := b.peer
	b.peer = p
	b.mu.Unlock()
	if old != nil {
		old.close()
	}

	b.logger.Info("editor connected",
		zap.String("peer", p.id),
		zap.String("remote", r.RemoteAddr),
	)

	go p.writePump()
	go func() {
		p.readPump()
		b.mu.Lock()
		if b.peer == p {
			b.peer = nil
		}
		b.mu.Unlock()
		b.logger.Info("editor disconnected", zap.String("peer", p.id))
	}()
}

// Connected reports whether an editor is attached
func (b *Bridge) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.peer != nil
}

// Request sends one request to the editor and waits for its response.
// Editor-side failures are returned as *host.RequestError.
func (b *Bridge) Request(ctx context.Context, channel, message string, args ...any) (json.RawMessage, error) {
	b.mu.RLock()
	p := b.peer
	b.mu.RUnlock()
	if p == nil {
		return nil, ErrNoEditor
	}

	f := Frame{ID: uuid.New().String(), Type: FrameRequest, Channel: channel, Message: message}
	for i, a := range args {
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		f.Args = append(f.Args, data)
	}

	if b.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.RequestTimeout)
		defer cancel()
	}

	resp, err := p.call(ctx, f)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &host.RequestError{Channel: channel, Message: message, Reason: resp.Error}
	}
	if len(resp.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return resp.Result, nil
}

// Close drops the current editor connection
func (b *Bridge) Close() {
	b.mu.Lock()
	p := b.peer
	b.peer = nil
	b.mu.Unlock()
	if p != nil {
		p.close()
	}
}

// peer is one editor connection with its in-flight requests
type peer struct {
	id     string
	conn   *websocket.Conn
	logger *zap.Logger
	send   chan []byte
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	pending map[string]chan Frame
}

func newPeer(id string, conn *websocket.Conn, logger *zap.Logger) *peer {
	return &peer{
		id:      id,
		conn:    conn,
		logger:  logger,
		send:    make(chan []byte, 64),
		done:    make(chan struct{}),
		pending: make(map[string]chan Frame),
	}
}

func (p *peer) call(ctx context.Context, f Frame) (Frame, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return Frame{}, err
	}

	reply := make(chan Frame, 1)
	p.mu.Lock()
	p.pending[f.ID] = reply
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, f.ID)
		p.mu.Unlock()
	}()

	select {
	case p.send <- data:
	case <-p.done:
		return Frame{}, ErrDisconnected
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}

	select {
	case resp := <-reply:
		return resp, nil
	case <-p.done:
		return Frame{}, ErrDisconnected
	case <-ctx.Done():
		return Frame{}, fmt.Errorf("%s/%s: %w", f.Channel, f.Message, ctx.Err())
	}
}

func (p *peer) close() {
	p.once.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}

func (p *peer) readPump() {
	defer p.close()

	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Warn("editor connection error", zap.String("peer", p.id), zap.Error(err))
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil || f.Type != FrameResponse {
			p.logger.Debug("ignoring editor frame", zap.String("peer", p.id))
			continue
		}

		p.mu.Lock()
		reply, ok := p.pending[f.ID]
		p.mu.Unlock()
		if ok {
			select {
			case reply <- f:
			default:
			}
		}
	}
}

func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.close()
	}()

	for {
		select {
		case <-p.done:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case data := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
