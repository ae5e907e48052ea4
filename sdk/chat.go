package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

// Reserved sentinel frames. They carry control meaning and are never
// appended to the message sequence.
const (
	frameThinkingStart = "@@@"
	frameThinkingStop  = "###"
)

// ConnectionState describes the chat channel lifecycle. The only
// observable states are Connecting, Open, and Closed.
type ConnectionState int

const (
	StateConnecting ConnectionState = iota
	StateOpen
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseReason records coarsely why the session reached Closed. No
// reconnection policy hangs off it; remounting is the consumer's job.
type CloseReason int

const (
	CloseReasonNone CloseReason = iota
	// CloseReasonLocal: explicit teardown via Close.
	CloseReasonLocal
	// CloseReasonRemote: clean close initiated by the server.
	CloseReasonRemote
	// CloseReasonError: abnormal drop or transport failure.
	CloseReasonError
)

// Origin identifies who produced a chat message.
type Origin int

const (
	OriginBot Origin = iota
	OriginUser
)

// ChatMessage is one entry in the append-only conversation sequence.
// Messages are never mutated or reordered after creation.
type ChatMessage struct {
	ID     string
	Text   string
	Origin Origin
	At     time.Time
}

// Event is one decoded occurrence on the chat channel. Frames are
// decoded into this closed union once, at the socket boundary.
type Event interface {
	chatEventType() string
}

// OpenEvent fires when the connection transitions Connecting -> Open.
type OpenEvent struct{}

func (OpenEvent) chatEventType() string { return "open" }

// MessageEvent fires for every appended message, bot or user.
type MessageEvent struct{ Message ChatMessage }

func (MessageEvent) chatEventType() string { return "message" }

// ThinkingEvent fires when a sentinel frame toggles the indicator.
type ThinkingEvent struct{ Thinking bool }

func (ThinkingEvent) chatEventType() string { return "thinking" }

// ClosedEvent fires exactly once, on the transition to Closed.
type ClosedEvent struct {
	Reason CloseReason
	Err    error
}

func (ClosedEvent) chatEventType() string { return "closed" }

// Snapshot is a point-in-time copy of the session's observable state.
// It is the authoritative view; the event channel is best-effort
// notification for consumers that poll Snapshot afterwards.
type Snapshot struct {
	Messages    []ChatMessage
	State       ConnectionState
	Thinking    bool
	CloseReason CloseReason
}

// ChatSession owns exactly one real-time connection per mount and
// translates raw inbound frames into the message/thinking model.
//
// The session performs no reconnection: any socket error or close is a
// terminal transition to Closed.
type ChatSession struct {
	assistant  Assistant
	customerID string

	mu          sync.Mutex
	state       ConnectionState
	thinking    bool
	messages    []ChatMessage
	closeReason CloseReason
	closeErr    error
	closed      bool
	welcomeSent bool

	conn    *websocket.Conn
	writeMu sync.Mutex

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	cancelDial context.CancelFunc

	client *Client
}

// OpenChat opens a chat session against an already-fetched assistant
// snapshot. A fresh anonymous customer id is minted for the session and
// never persisted beyond it.
//
// The returned session starts in Connecting; the dial completes in the
// background and surfaces as an OpenEvent or a ClosedEvent.
func (c *Client) OpenChat(ctx context.Context, a *Assistant) (*ChatSession, error) {
	if a == nil || a.ID == 0 {
		return nil, NewInvalidRequestError("assistant snapshot must carry an id")
	}

	s := &ChatSession{
		assistant:  *a,
		customerID: uuid.NewString(),
		state:      StateConnecting,
		events:     make(chan Event, 64),
		done:       make(chan struct{}),
		client:     c,
	}

	// The welcome message is appended at most once per session lifetime,
	// before the channel opens, so it is always the first bot message.
	if a.WelcomeMessage != "" && !s.welcomeSent {
		s.welcomeSent = true
		s.appendMessage(OriginBot, a.WelcomeMessage)
	}

	dialCtx, cancel := context.WithCancel(ctx)
	s.cancelDial = cancel
	go s.connect(dialCtx)

	return s, nil
}

// OpenEmbedChat bootstraps an assistant by its public embed link and
// opens a chat session against it.
func (c *Client) OpenEmbedChat(ctx context.Context, link string) (*ChatSession, error) {
	a, err := c.Assistants.EmbedBootstrap(ctx, link)
	if err != nil {
		return nil, err
	}
	return c.OpenChat(ctx, a)
}

// Assistant returns the immutable snapshot this session was opened with.
func (s *ChatSession) Assistant() Assistant {
	return s.assistant
}

// CustomerID returns the session's anonymous customer token.
func (s *ChatSession) CustomerID() string {
	return s.customerID
}

// Events yields session events. The channel is buffered and best-effort;
// Snapshot is the authoritative state.
func (s *ChatSession) Events() <-chan Event {
	return s.events
}

// Done is closed when the session reaches Closed.
func (s *ChatSession) Done() <-chan struct{} {
	return s.done
}

// Snapshot returns a copy of the current observable state.
func (s *ChatSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]ChatMessage, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{
		Messages:    msgs,
		State:       s.state,
		Thinking:    s.thinking,
		CloseReason: s.closeReason,
	}
}

// State returns the current connection state.
func (s *ChatSession) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ChatSession) channelURL() string {
	base := strings.TrimRight(s.client.wsURL, "/")
	return fmt.Sprintf("%s/ws/assistant/%d/%s", base, s.assistant.ID, s.customerID)
}

func (s *ChatSession) connect(ctx context.Context) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, s.channelURL(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		s.terminate(CloseReasonError, err)
		return
	}

	s.mu.Lock()
	if s.closed {
		// Torn down before the open transition; release the socket now.
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.state = StateOpen
	s.mu.Unlock()

	s.emit(OpenEvent{})
	go s.readLoop(conn)
}

// readLoop processes inbound frames strictly in arrival order.
func (s *ChatSession) readLoop(conn *websocket.Conn) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.terminate(CloseReasonRemote, nil)
			} else {
				s.terminate(CloseReasonError, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		s.handleFrame(string(data))
	}
}

// handleFrame decodes one frame. A text frame arriving before the stop
// sentinel leaves the thinking indicator up alongside the new message;
// only the explicit stop sentinel clears it.
func (s *ChatSession) handleFrame(frame string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	switch frame {
	case frameThinkingStart:
		s.thinking = true
		s.mu.Unlock()
		s.emit(ThinkingEvent{Thinking: true})
	case frameThinkingStop:
		s.thinking = false
		s.mu.Unlock()
		s.emit(ThinkingEvent{Thinking: false})
	default:
		msg := s.appendMessageLocked(OriginBot, frame)
		s.mu.Unlock()
		s.emit(MessageEvent{Message: msg})
	}
}

// Send transmits text verbatim as a single frame and appends the local
// user message. There is no delivery confirmation and no retry; a
// failed write surfaces as the transition to Closed.
//
// Sends while Connecting are rejected outright, never queued.
func (s *ChatSession) Send(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return NewInvalidRequestError("message text must not be empty")
	}

	s.mu.Lock()
	if s.closed || s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrSessionNotOpen
	}
	conn := s.conn
	s.mu.Unlock()

	s.writeMu.Lock()
	err := conn.WriteMessage(websocket.TextMessage, []byte(trimmed))
	s.writeMu.Unlock()
	if err != nil {
		s.terminate(CloseReasonError, err)
		return ErrSessionClosed
	}

	msg := s.appendMessage(OriginUser, trimmed)
	s.emit(MessageEvent{Message: msg})
	return nil
}

// Close tears the session down synchronously. Safe on every exit path,
// including before the Open transition, and idempotent.
func (s *ChatSession) Close() error {
	s.terminate(CloseReasonLocal, nil)
	return nil
}

func (s *ChatSession) terminate(reason CloseReason, err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.closed = true
		s.closeReason = reason
		s.closeErr = err
		conn := s.conn
		cancel := s.cancelDial
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if conn != nil {
			s.writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
			s.writeMu.Unlock()
			_ = conn.Close()
		}

		s.emit(ClosedEvent{Reason: reason, Err: err})
		close(s.done)
	})
}

// Err returns the terminal error, if the session closed abnormally.
func (s *ChatSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeErr
}

func (s *ChatSession) appendMessage(origin Origin, text string) ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendMessageLocked(origin, text)
}

func (s *ChatSession) appendMessageLocked(origin Origin, text string) ChatMessage {
	msg := ChatMessage{
		ID:     ulid.Make().String(),
		Text:   text,
		Origin: origin,
		At:     time.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// emit is a non-blocking send; a consumer that stops draining loses
// notifications but never stalls the read loop. Snapshot stays complete.
func (s *ChatSession) emit(event Event) {
	select {
	case s.events <- event:
	default:
	}
}
