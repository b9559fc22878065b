package switcher

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lumacast/showrunner/common/config"
	"github.com/lumacast/showrunner/common/logger"
)

// ConnState is the explicit connection lifecycle state
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// Protocol op codes for the switcher's RPC envelope
const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opRequest         = 6
	opRequestResponse = 7
)

type envelope struct {
	Op   int             `json:"op"`
	Data json.RawMessage `json:"d"`
}

type helloData struct {
	RPCVersion     int `json:"rpcVersion"`
	Authentication *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication,omitempty"`
}

type requestData struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

type responseData struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment,omitempty"`
	} `json:"requestStatus"`
	ResponseData json.RawMessage `json:"responseData,omitempty"`
}

type callResult struct {
	data json.RawMessage
	err  error
}

// Client is the WebSocket implementation of Gateway. Concurrent callers
// share one connection: if a connect attempt is already in flight,
// callers wait on a broadcast channel that is closed exactly once when
// the attempt resolves, and every waiter observes the same outcome.
type Client struct {
	cfg config.SwitcherConfig
	log *logger.Logger

	mu      sync.Mutex
	state   ConnState
	conn    *websocket.Conn
	attempt chan struct{}
	// Outcome of the most recent resolved attempt; guarded by mu
	attemptErr error

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan callResult
}

// NewClient creates a switcher gateway client. The connection is
// established lazily on the first call.
func NewClient(cfg config.SwitcherConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:     cfg,
		log:     log,
		state:   StateDisconnected,
		pending: make(map[string]chan callResult),
	}
}

// IsConnected reports whether the connection is currently usable
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// Connect ensures the connection is established. If another caller is
// already connecting, this waits for that attempt instead of starting
// a second one.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		return nil

	case StateConnecting:
		wait := c.attempt
		c.mu.Unlock()

		select {
		case <-wait:
			c.mu.Lock()
			err := c.attemptErr
			c.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}

	default:
		c.state = StateConnecting
		c.attempt = make(chan struct{})
		done := c.attempt
		c.mu.Unlock()

		err := c.dial(ctx)

		c.mu.Lock()
		c.attemptErr = err
		if err != nil {
			c.state = StateDisconnected
		} else {
			c.state = StateConnected
		}
		close(done)
		c.mu.Unlock()

		return err
	}
}

// dial performs the full handshake: upgrade, hello, identify
func (c *Client) dial(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial switcher %s: %w", c.cfg.URL, err)
	}

	conn.SetReadDeadline(time.Now().Add(c.cfg.ConnectTimeout))

	var hello envelope
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		conn.Close()
		return fmt.Errorf("unexpected op %d during handshake", hello.Op)
	}

	var hd helloData
	if err := json.Unmarshal(hello.Data, &hd); err != nil {
		conn.Close()
		return fmt.Errorf("parse hello: %w", err)
	}

	identify := map[string]any{"rpcVersion": hd.RPCVersion}
	if hd.Authentication != nil {
		identify["authentication"] = authResponse(c.cfg.Password, hd.Authentication.Salt, hd.Authentication.Challenge)
	}

	if err := conn.WriteJSON(envelope{Op: opIdentify, Data: mustJSON(identify)}); err != nil {
		conn.Close()
		return fmt.Errorf("write identify: %w", err)
	}

	var identified envelope
	if err := conn.ReadJSON(&identified); err != nil {
		conn.Close()
		return fmt.Errorf("read identified: %w", err)
	}
	if identified.Op != opIdentified {
		conn.Close()
		return fmt.Errorf("identify rejected (op %d)", identified.Op)
	}

	conn.SetReadDeadline(time.Time{})
	c.conn = conn

	go c.readLoop(conn)

	c.log.Info("switcher connected", "url", c.cfg.URL)
	return nil
}

// readLoop dispatches responses to pending calls until the socket dies
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.teardown(conn, err)
			return
		}

		if env.Op != opRequestResponse {
			// Events and other server pushes are not consumed here
			continue
		}

		var resp responseData
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			c.log.Warn("undecodable switcher response", "error", err)
			continue
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[resp.RequestID]
		if ok {
			delete(c.pending, resp.RequestID)
		}
		c.pendingMu.Unlock()

		if !ok {
			continue
		}

		if !resp.RequestStatus.Result {
			ch <- callResult{err: fmt.Errorf("switcher request %s failed: code %d: %s",
				resp.RequestType, resp.RequestStatus.Code, resp.RequestStatus.Comment)}
			continue
		}

		ch <- callResult{data: resp.ResponseData}
	}
}

// teardown fails all pending calls and marks the connection dead
func (c *Client) teardown(conn *websocket.Conn, cause error) {
	conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.state = StateDisconnected
	}
	c.mu.Unlock()

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		ch <- callResult{err: fmt.Errorf("switcher connection lost: %w", cause)}
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	c.log.Warn("switcher disconnected", "error", cause)
}

// Call performs one RPC, connecting first if needed
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	ch := make(chan callResult, 1)

	c.pendingMu.Lock()
	c.pending[requestID] = ch
	c.pendingMu.Unlock()

	req := envelope{Op: opRequest, Data: mustJSON(requestData{
		RequestType: method,
		RequestID:   requestID,
		RequestData: params,
	})}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		c.dropPending(requestID)
		return nil, fmt.Errorf("switcher connection lost before call")
	}

	c.writeMu.Lock()
	err := conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.dropPending(requestID)
		return nil, fmt.Errorf("write request %s: %w", method, err)
	}

	select {
	case result := <-ch:
		return result.data, result.err
	case <-ctx.Done():
		c.dropPending(requestID)
		return nil, ctx.Err()
	}
}

// Close tears down the connection
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.teardown(conn, fmt.Errorf("closed"))
	}
	return nil
}

func (c *Client) dropPending(requestID string) {
	c.pendingMu.Lock()
	delete(c.pending, requestID)
	c.pendingMu.Unlock()
}

// authResponse computes the challenge response for password auth:
// base64(sha256(base64(sha256(password + salt)) + challenge))
func authResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	proof := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(proof[:])
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
