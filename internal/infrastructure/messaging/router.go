package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/openswap-network/maker-daemon/pkg/jsonrpc"
)

// ErrRequestTimeout is returned when a peer does not answer a request within
// the timeout. Peers drop requests silently, so timeouts are routine.
var ErrRequestTimeout = errors.New("peer request timed out")

// DefaultRequestTimeout bounds how long an outbound peer request waits for
// its correlated response.
const DefaultRequestTimeout = 12 * time.Second

// envelope is the frame the relay routes between peers. Message holds a
// serialized JSON-RPC message.
type envelope struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

// Handler processes one inbound request from a peer.
type Handler func(ctx context.Context, msg *jsonrpc.Message, sender string)

// AuthFunc signs the relay's connection challenge, proving control of the
// announced address.
type AuthFunc func(challenge string) (string, error)

// Router maintains the websocket connection to the order relay, dispatches
// inbound requests to registered handlers and correlates responses to pending
// outbound requests by message id.
type Router struct {
	url     string
	address string
	auth    AuthFunc
	timeout time.Duration

	conn     *websocket.Conn
	writeMtx sync.Mutex

	handlersMtx sync.RWMutex
	handlers    map[string]Handler

	pendingMtx sync.Mutex
	pending    map[string]chan *jsonrpc.Message
}

func NewRouter(url, address string, auth AuthFunc) *Router {
	return &Router{
		url:      url,
		address:  address,
		auth:     auth,
		timeout:  DefaultRequestTimeout,
		handlers: make(map[string]Handler),
		pending:  make(map[string]chan *jsonrpc.Message),
	}
}

// Handle registers the handler answering the given RPC method. Registration
// must complete before Connect.
func (r *Router) Handle(method string, handler Handler) {
	r.handlersMtx.Lock()
	defer r.handlersMtx.Unlock()
	r.handlers[method] = handler
}

// Connect dials the relay and completes its challenge handshake: the relay
// sends a random challenge as the first frame and expects it signed back
// before routing any traffic to this address.
func (r *Router) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	_, challenge, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to read relay challenge: %w", err)
	}
	signed, err := r.auth(string(challenge))
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to sign relay challenge: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(signed)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to answer relay challenge: %w", err)
	}

	r.conn = conn
	log.WithFields(log.Fields{
		"relay":   r.url,
		"address": r.address,
	}).Info("connected to order relay")
	return nil
}

// Run reads frames until the context is cancelled or the connection drops.
func (r *Router) Run(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		for {
			_, raw, err := r.conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			r.dispatch(ctx, raw)
		}
	}()

	select {
	case <-ctx.Done():
		r.conn.Close()
		<-done
		return ctx.Err()
	case err := <-done:
		return fmt.Errorf("relay connection lost: %w", err)
	}
}

func (r *Router) dispatch(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.WithError(err).Warn("discarding unparseable relay frame")
		return
	}

	var msg jsonrpc.Message
	if err := json.Unmarshal([]byte(env.Message), &msg); err != nil {
		log.WithError(err).WithField("sender", env.Sender).
			Warn("discarding unparseable peer message")
		return
	}

	if msg.IsRequest() {
		r.handlersMtx.RLock()
		handler, ok := r.handlers[msg.Method]
		r.handlersMtx.RUnlock()
		if !ok {
			log.WithField("method", msg.Method).Debug("no handler for peer request")
			return
		}
		// Handlers run concurrently: a slow signature or balance lookup must
		// not block the read loop.
		go handler(ctx, &msg, env.Sender)
		return
	}

	r.pendingMtx.Lock()
	waiter, ok := r.pending[msg.IDKey()]
	if ok {
		delete(r.pending, msg.IDKey())
	}
	r.pendingMtx.Unlock()
	if !ok {
		log.WithField("id", msg.IDKey()).Debug("discarding uncorrelated response")
		return
	}
	waiter <- &msg
}

// Call implements ports.PeerCaller, delivering a message to a peer through
// the relay.
func (r *Router) Call(_ context.Context, peer string, msg *jsonrpc.Message) error {
	serialized, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	frame := envelope{
		Sender:   r.address,
		Receiver: peer,
		Message:  string(serialized),
	}

	r.writeMtx.Lock()
	defer r.writeMtx.Unlock()
	return r.conn.WriteJSON(frame)
}

// Request implements ports.PeerRequester: it sends a request and blocks until
// the correlated response arrives or the timeout elapses.
func (r *Router) Request(
	ctx context.Context, peer, method string, params interface{},
) (json.RawMessage, error) {
	req, err := jsonrpc.NewRequest(method, params)
	if err != nil {
		return nil, err
	}

	waiter := r.addPending(req.IDKey())
	defer r.removePending(req.IDKey())

	if err := r.Call(ctx, peer, req); err != nil {
		return nil, err
	}

	select {
	case resp := <-waiter:
		if resp.Error != nil {
			return nil, fmt.Errorf("peer %s: %s", peer, resp.Error)
		}
		return resp.Result, nil
	case <-time.After(r.timeout):
		return nil, fmt.Errorf("%w: %s to %s", ErrRequestTimeout, method, peer)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Router) addPending(id string) chan *jsonrpc.Message {
	waiter := make(chan *jsonrpc.Message, 1)
	r.pendingMtx.Lock()
	r.pending[id] = waiter
	r.pendingMtx.Unlock()
	return waiter
}

func (r *Router) removePending(id string) {
	r.pendingMtx.Lock()
	delete(r.pending, id)
	r.pendingMtx.Unlock()
}
