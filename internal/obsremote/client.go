package obsremote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"nhooyr.io/websocket"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/config"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/metrics"
)

// ErrNotConnected is returned for requests issued before Connect succeeds or
// after the connection drops.
var ErrNotConnected = errors.New("not connected to OBS WebSocket")

// replayBufferWarmup is how long CreateBufferClip waits after starting the
// replay buffer before saving from it.
const replayBufferWarmup = 500 * time.Millisecond

// RequestError is a request rejected by OBS, carrying the obs-websocket
// status code and comment.
type RequestError struct {
	RequestType string
	Code        int
	Comment     string
}

func (e *RequestError) Error() string {
	if e.Comment == "" {
		return fmt.Sprintf("%s rejected by OBS (code %d)", e.RequestType, e.Code)
	}
	return fmt.Sprintf("%s rejected by OBS (code %d): %s", e.RequestType, e.Code, e.Comment)
}

// Client is a minimal obs-websocket v5 client. A single read loop correlates
// responses to in-flight requests by request id; writes are serialized with
// a mutex because the connection allows one writer at a time.
type Client struct {
	config  *config.OBSConfig
	logger  *slog.Logger
	metrics *metrics.Metrics

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu        sync.Mutex
	pending   map[string]chan responseData
	connected bool

	breaker *gobreaker.CircuitBreaker[json.RawMessage]
	nextID  atomic.Uint64
	wg      sync.WaitGroup
}

// NewClient creates an OBS client from configuration. No connection is made
// until Connect is called.
func NewClient(cfg *config.OBSConfig, logger *slog.Logger, m *metrics.Metrics) *Client {
	settings := gobreaker.Settings{
		Name:        "obs",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	}

	return &Client{
		config:  cfg,
		logger:  logger,
		metrics: m,
		pending: make(map[string]chan responseData),
		breaker: gobreaker.NewCircuitBreaker[json.RawMessage](settings),
	}
}

// Connect dials the OBS WebSocket endpoint and performs the Hello/Identify
// handshake, answering the authentication challenge when the server poses
// one. On success a background read loop takes over the connection.
func (c *Client) Connect(ctx context.Context) error {
	addr := fmt.Sprintf("ws://%s:%d", c.config.Host, c.config.Port)

	c.logger.Info("Connecting to OBS WebSocket",
		slog.String("host", c.config.Host),
		slog.Int("port", c.config.Port))

	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("failed to dial OBS WebSocket: %w", err)
	}

	var hello helloData
	if err := readMessage(ctx, conn, opHello, &hello); err != nil {
		conn.Close(websocket.StatusProtocolError, "handshake failed")
		return fmt.Errorf("failed to read Hello: %w", err)
	}

	identify := identifyData{RPCVersion: rpcVersion}
	if hello.Authentication != nil {
		if c.config.Password == "" {
			conn.Close(websocket.StatusNormalClosure, "")
			return errors.New("OBS requires authentication but no password is configured")
		}
		identify.Authentication = authToken(c.config.Password,
			hello.Authentication.Salt, hello.Authentication.Challenge)
	}

	if err := writeMessage(ctx, conn, opIdentify, identify); err != nil {
		conn.Close(websocket.StatusProtocolError, "handshake failed")
		return fmt.Errorf("failed to send Identify: %w", err)
	}

	var identified identifiedData
	if err := readMessage(ctx, conn, opIdentified, &identified); err != nil {
		conn.Close(websocket.StatusProtocolError, "handshake failed")
		return fmt.Errorf("failed to read Identified: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop(conn)

	c.logger.Info("Successfully connected to OBS WebSocket",
		slog.String("obs_version", hello.OBSWebSocketVersion),
		slog.Int("rpc_version", identified.NegotiatedRPCVersion))

	return nil
}

// Close disconnects from OBS and fails any in-flight requests. Safe to call
// when never connected.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if conn == nil {
		return
	}

	conn.Close(websocket.StatusNormalClosure, "")
	c.wg.Wait()
	c.logger.Info("Disconnected from OBS WebSocket")
}

// Connected reports whether the client holds a live OBS connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// readLoop drains incoming messages, delivering request responses to their
// waiting callers. It exits when the connection closes.
func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			c.dropConnection(conn, err)
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("Failed to decode OBS message", slog.String("error", err.Error()))
			continue
		}

		switch env.Op {
		case opRequestResponse:
			var resp responseData
			if err := json.Unmarshal(env.D, &resp); err != nil {
				c.logger.Warn("Failed to decode OBS response", slog.String("error", err.Error()))
				continue
			}
			c.deliver(resp)
		case opEvent:
			// Not subscribed, but OBS may still announce output state changes.
		default:
			c.logger.Debug("Ignoring OBS message", slog.Int("op", env.Op))
		}
	}
}

func (c *Client) deliver(resp responseData) {
	c.mu.Lock()
	ch, ok := c.pending[resp.RequestID]
	if ok {
		delete(c.pending, resp.RequestID)
	}
	c.mu.Unlock()

	if ok {
		ch <- resp
	}
}

// dropConnection tears down state after a read failure. Closed pending
// channels surface as ErrNotConnected to their waiters.
func (c *Client) dropConnection(conn *websocket.Conn, err error) {
	c.mu.Lock()
	deliberate := c.conn != conn
	if !deliberate {
		c.conn = nil
		c.connected = false
	}
	pending := c.pending
	c.pending = make(map[string]chan responseData)
	c.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}

	if deliberate {
		return
	}
	c.logger.Warn("OBS WebSocket connection lost", slog.String("error", err.Error()))
}

// request issues one obs-websocket request and waits for its response. All
// requests pass through the circuit breaker, so a dead OBS stops being dialed
// into until it recovers.
func (c *Client) request(ctx context.Context, requestType string, payload any) (json.RawMessage, error) {
	result, err := c.breaker.Execute(func() (json.RawMessage, error) {
		return c.do(ctx, requestType, payload)
	})
	c.metrics.RecordOBSRequest(requestType, err == nil)
	if err != nil {
		c.logger.Warn("OBS request failed",
			slog.String("request", requestType),
			slog.String("error", err.Error()))
	}
	return result, err
}

func (c *Client) do(ctx context.Context, requestType string, payload any) (json.RawMessage, error) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	id := strconv.FormatUint(c.nextID.Add(1), 10)
	ch := make(chan responseData, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	req := requestData{RequestType: requestType, RequestID: id}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			c.forget(id)
			return nil, fmt.Errorf("failed to encode request data: %w", err)
		}
		req.RequestData = raw
	}

	data, err := marshalEnvelope(opRequest, req)
	if err != nil {
		c.forget(id)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.GetRequestTimeout())
	defer cancel()

	c.writeMu.Lock()
	err = conn.Write(ctx, websocket.MessageText, data)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("failed to send %s: %w", requestType, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrNotConnected
		}
		if !resp.RequestStatus.Result {
			return nil, &RequestError{
				RequestType: requestType,
				Code:        resp.RequestStatus.Code,
				Comment:     resp.RequestStatus.Comment,
			}
		}
		return resp.ResponseData, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, fmt.Errorf("%s: %w", requestType, ctx.Err())
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// SwitchScene makes the named scene the program scene.
func (c *Client) SwitchScene(ctx context.Context, sceneName string) error {
	_, err := c.request(ctx, "SetCurrentProgramScene", map[string]string{"sceneName": sceneName})
	if err != nil {
		return err
	}
	c.logger.Info("Switched OBS scene", slog.String("scene", sceneName))
	return nil
}

// CurrentScene returns the name of the current program scene.
func (c *Client) CurrentScene(ctx context.Context) (string, error) {
	raw, err := c.request(ctx, "GetCurrentProgramScene", nil)
	if err != nil {
		return "", err
	}

	var out struct {
		CurrentProgramSceneName string `json:"currentProgramSceneName"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode scene response: %w", err)
	}
	return out.CurrentProgramSceneName, nil
}

// ListScenes returns the names of all scenes in the current collection.
func (c *Client) ListScenes(ctx context.Context) ([]string, error) {
	raw, err := c.request(ctx, "GetSceneList", nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Scenes []struct {
			SceneName string `json:"sceneName"`
		} `json:"scenes"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode scene list: %w", err)
	}

	names := make([]string, 0, len(out.Scenes))
	for _, s := range out.Scenes {
		names = append(names, s.SceneName)
	}
	return names, nil
}

// StartRecording starts the OBS output recording.
func (c *Client) StartRecording(ctx context.Context) error {
	_, err := c.request(ctx, "StartRecord", nil)
	return err
}

// StopRecording stops the OBS output recording.
func (c *Client) StopRecording(ctx context.Context) error {
	_, err := c.request(ctx, "StopRecord", nil)
	return err
}

// StartReplayBuffer starts the rolling replay buffer.
func (c *Client) StartReplayBuffer(ctx context.Context) error {
	_, err := c.request(ctx, "StartReplayBuffer", nil)
	return err
}

// StopReplayBuffer stops the rolling replay buffer.
func (c *Client) StopReplayBuffer(ctx context.Context) error {
	_, err := c.request(ctx, "StopReplayBuffer", nil)
	return err
}

// SaveReplayBuffer writes the current replay buffer contents to disk.
func (c *Client) SaveReplayBuffer(ctx context.Context) error {
	_, err := c.request(ctx, "SaveReplayBuffer", nil)
	return err
}

// CreateBufferClip saves a replay clip. When the save fails, usually because
// the buffer is not running yet, it starts the buffer, waits for it to fill,
// and saves again.
func (c *Client) CreateBufferClip(ctx context.Context) error {
	if err := c.SaveReplayBuffer(ctx); err == nil {
		return nil
	}

	if err := c.StartReplayBuffer(ctx); err != nil {
		return err
	}

	select {
	case <-time.After(replayBufferWarmup):
	case <-ctx.Done():
		return ctx.Err()
	}

	return c.SaveReplayBuffer(ctx)
}

func readMessage(ctx context.Context, conn *websocket.Conn, wantOp int, d any) error {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Op != wantOp {
		return fmt.Errorf("unexpected opcode %d, want %d", env.Op, wantOp)
	}
	return json.Unmarshal(env.D, d)
}

func writeMessage(ctx context.Context, conn *websocket.Conn, op int, d any) error {
	data, err := marshalEnvelope(op, d)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
