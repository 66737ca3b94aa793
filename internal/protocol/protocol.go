package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/wagiedev/claude-code-sdk-go/internal/errors"
)

// defaultMessageBufferSize is the capacity of the forwarded-frame channel.
const defaultMessageBufferSize = 100

// Transport defines the minimal interface needed for protocol operations.
//
// This interface is satisfied by the CLITransport but allows for testing
// with mock transports.
type Transport interface {
	ReadMessages(ctx context.Context) (<-chan any, <-chan error)
	SendMessage(ctx context.Context, data []byte) error
}

// Controller multiplexes the CLI's output stream.
//
// It owns the only reader of the transport and routes each frame:
//   - control_response frames resolve pending requests through the Correlator
//   - control_request frames from the CLI go to the handler registered for their subtype
//   - control_cancel_request frames cancel the matching in-flight handler
//   - every other frame is forwarded in order on Messages()
//
// When the stream ends, fails, or Stop is called, every pending request is
// resolved with ErrConnectionClosed.
type Controller struct {
	log        *slog.Logger
	transport  Transport
	correlator *Correlator

	// In-flight incoming requests, for cancellation
	inFlightMu sync.Mutex
	inFlight   map[string]*inFlightOperation

	// Handler registry for incoming requests
	handlersMu sync.RWMutex
	handlers   map[string]RequestHandler

	// Non-control frames forwarded to consumers
	messages chan any

	// Fatal error handling - stores error and broadcasts via done channel
	errMu    sync.RWMutex
	fatalErr error

	// Lifecycle management
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// inFlightOperation tracks an incoming control request being handled.
type inFlightOperation struct {
	subtype   string
	cancel    context.CancelFunc
	startTime time.Time
	completed bool
}

// NewController creates a new protocol controller.
//
// The transport must be connected before calling Start().
func NewController(log *slog.Logger, transport Transport) *Controller {
	return &Controller{
		log:        log.With("component", "protocol"),
		transport:  transport,
		correlator: NewCorrelator(log),
		inFlight:   make(map[string]*inFlightOperation, 10),
		handlers:   make(map[string]RequestHandler, 10),
		messages:   make(chan any, defaultMessageBufferSize),
		done:       make(chan struct{}),
	}
}

// Correlator returns the correlator matching responses to outgoing requests.
func (c *Controller) Correlator() *Correlator {
	return c.correlator
}

// closeDone safely closes the done channel exactly once.
func (c *Controller) closeDone() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// SetFatalError stores a fatal error, fails every pending request, and
// broadcasts to all waiters by closing done. Only the first error is kept.
func (c *Controller) SetFatalError(err error) {
	c.errMu.Lock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}

	c.errMu.Unlock()

	c.correlator.CloseAll(fmt.Errorf("%w: %w", errors.ErrConnectionClosed, err))
	c.closeDone()
}

// FatalError returns the fatal error if one occurred.
func (c *Controller) FatalError() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// Done returns a channel that is closed when the controller stops.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Start begins reading frames from the transport.
//
// The read goroutine stops when the context is cancelled, the transport closes,
// or Stop is called. Start must be called before SendRequest or any handlers will work.
func (c *Controller) Start(ctx context.Context) error {
	c.log.Debug("Starting protocol controller")

	messages, errs := c.transport.ReadMessages(ctx)

	c.wg.Add(1)

	go c.readLoop(ctx, messages, errs)

	c.log.Info("Protocol controller started")

	return nil
}

// Stop shuts the controller down: pending requests fail with ErrConnectionClosed,
// in-flight handlers are cancelled, and Stop waits for all goroutines.
// It's safe to call Stop multiple times.
func (c *Controller) Stop() {
	c.log.Debug("Stopping protocol controller")

	c.correlator.CloseAll(errors.ErrConnectionClosed)
	c.closeDone()

	c.CancelAllInFlight()
	c.wg.Wait()
	c.log.Info("Protocol controller stopped")
}

// Messages returns the channel of forwarded (non-control) frames.
//
// The channel is closed when the controller stops or the transport closes.
// Use Done() and FatalError() to detect and retrieve transport errors.
func (c *Controller) Messages() <-chan any {
	return c.messages
}

// Send writes one frame to the transport.
func (c *Controller) Send(ctx context.Context, frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	return c.transport.SendMessage(ctx, data)
}

// SendRequest sends a control request and waits for its correlated response.
//
// A CLI-reported error, an expired timeout, or connection loss is returned as
// *errors.ControlRequestError naming the request id.
func (c *Controller) SendRequest(
	ctx context.Context,
	subtype string,
	payload map[string]any,
	timeout time.Duration,
) (*ControlResponse, error) {
	body := make(map[string]any, len(payload)+1)
	maps.Copy(body, payload)
	body["subtype"] = subtype

	req, pending := c.correlator.Begin(body)

	c.log.Debug("Sending control request", "request_id", req.RequestID, "subtype", subtype)

	if err := c.Send(ctx, req); err != nil {
		c.correlator.Cancel(req.RequestID)
		c.log.Error("Failed to send control request", "request_id", req.RequestID, "error", err)

		return nil, fmt.Errorf("send %s request: %w", subtype, err)
	}

	resp, err := pending.Wait(ctx, timeout)
	if err != nil {
		c.log.Warn("Control request failed", "request_id", req.RequestID, "subtype", subtype, "error", err)

		return nil, err
	}

	c.log.Debug("Received control response", "request_id", req.RequestID)

	return resp, nil
}

// RegisterHandler registers the handler for incoming control requests of subtype.
// A later registration for the same subtype replaces the earlier one.
func (c *Controller) RegisterHandler(subtype string, handler RequestHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.log.Debug("Registering control request handler", "subtype", subtype)
	c.handlers[subtype] = handler
}

// readLoop reads frames from the transport and routes them.
func (c *Controller) readLoop(
	ctx context.Context,
	messages <-chan any,
	errs <-chan error,
) {
	defer c.wg.Done()
	defer close(c.messages)
	defer c.correlator.CloseAll(errors.ErrConnectionClosed)
	defer c.log.Debug("Protocol read loop stopped")

	for {
		select {
		case frame, ok := <-messages:
			if !ok {
				c.log.Debug("Message channel closed")
				c.drainErrors(errs)

				return
			}

			c.handleFrame(ctx, frame)

		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			if err != nil {
				c.drainFrames(ctx, messages)
				c.log.Error("Transport error in protocol", "error", err)
				c.SetFatalError(err)

				return
			}

		case <-c.done:
			c.log.Debug("Protocol controller stop signal received")

			return

		case <-ctx.Done():
			c.log.Debug("Context cancelled in protocol read loop")

			return
		}
	}
}

// drainFrames routes frames the transport queued before reporting an error,
// keeping them ahead of the failure.
func (c *Controller) drainFrames(ctx context.Context, messages <-chan any) {
	for {
		select {
		case frame, ok := <-messages:
			if !ok {
				return
			}

			c.handleFrame(ctx, frame)
		default:
			return
		}
	}
}

// drainErrors picks up an error the transport reported alongside closing its
// frame channel, so a failed stream is not mistaken for a clean end.
func (c *Controller) drainErrors(errs <-chan error) {
	if errs == nil {
		return
	}

	select {
	case err, ok := <-errs:
		if ok && err != nil {
			c.log.Error("Transport error in protocol", "error", err)
			c.SetFatalError(err)
		}
	default:
	}
}

// handleFrame routes one frame based on its type.
func (c *Controller) handleFrame(ctx context.Context, frame any) {
	msg, isObject := frame.(map[string]any)

	var msgType string
	if isObject {
		msgType, _ = msg["type"].(string)
	}

	switch msgType {
	case MessageTypeControlResponse:
		c.correlator.Resolve(frame)

	case MessageTypeControlRequest:
		c.handleControlRequest(ctx, msg)

	case MessageTypeControlCancelRequest:
		c.handleCancelRequest(ctx, msg)

	default:
		select {
		case c.messages <- frame:
		case <-c.done:
		case <-ctx.Done():
		}
	}
}

// handleControlRequest invokes the registered handler for an incoming request.
func (c *Controller) handleControlRequest(ctx context.Context, msg map[string]any) {
	requestID, ok := msg["request_id"].(string)
	if !ok {
		c.log.Warn("Control request missing request_id")

		return
	}

	requestData, ok := msg["request"].(map[string]any)
	if !ok {
		c.log.Warn("Control request missing 'request' field", "request_id", requestID)
		c.reply(ctx, errorResponse(requestID, "missing request body"))

		return
	}

	req := &ControlRequest{
		Type:      MessageTypeControlRequest,
		RequestID: requestID,
		Request:   requestData,
	}

	subtype := req.Subtype()

	c.log.Debug("Received control request from CLI", "request_id", requestID, "subtype", subtype)

	c.handlersMu.RLock()
	handler, exists := c.handlers[subtype]
	c.handlersMu.RUnlock()

	if !exists {
		c.log.Warn("No handler registered for control request subtype", "subtype", subtype)
		c.reply(ctx, errorResponse(requestID, "unsupported control request subtype: "+subtype))

		return
	}

	opCtx, cancel := context.WithCancel(ctx)

	op := &inFlightOperation{
		subtype:   subtype,
		cancel:    cancel,
		startTime: time.Now(),
	}

	c.inFlightMu.Lock()
	c.inFlight[requestID] = op
	c.inFlightMu.Unlock()

	// Handlers run off the read loop so cancel requests can still be processed.
	c.wg.Go(func() {
		defer func() {
			c.inFlightMu.Lock()
			defer c.inFlightMu.Unlock()

			op.completed = true

			delete(c.inFlight, requestID)

			cancel()
		}()

		payload, err := handler(opCtx, req)

		if opCtx.Err() == context.Canceled {
			c.log.Debug("Handler was cancelled", "request_id", requestID,
				"elapsed", time.Since(op.startTime))
			c.reply(ctx, errorResponse(requestID, errors.ErrOperationCancelled.Error()))

			return
		}

		if err != nil {
			c.log.Warn("Handler returned error", "request_id", requestID, "subtype", subtype, "error", err)
			c.reply(ctx, errorResponse(requestID, err.Error()))

			return
		}

		c.reply(ctx, successResponse(requestID, payload))
	})
}

// reply writes a control response, staying quiet when shutdown already began.
func (c *Controller) reply(ctx context.Context, resp *ControlResponse) {
	if err := c.Send(ctx, resp); err != nil {
		if ctx.Err() != nil {
			c.log.Debug("Could not send control response during shutdown", "error", err)

			return
		}

		c.log.Error("Failed to send control response", "request_id", resp.RequestID(), "error", err)
	}
}

// handleCancelRequest cancels the in-flight handler named by a
// control_cancel_request and acknowledges it.
func (c *Controller) handleCancelRequest(ctx context.Context, msg map[string]any) {
	requestID, ok := msg["request_id"].(string)
	if !ok {
		c.log.Warn("Cancel request missing request_id")

		return
	}

	c.log.Debug("Received cancel request", "request_id", requestID)

	c.inFlightMu.Lock()

	op, exists := c.inFlight[requestID]

	alreadyCompleted := false
	if exists {
		alreadyCompleted = op.completed
		if !alreadyCompleted {
			op.cancel()
		}
	}

	c.inFlightMu.Unlock()

	c.log.Debug("Cancel request processed",
		"request_id", requestID,
		"found", exists,
		"already_completed", alreadyCompleted,
	)

	c.reply(ctx, &ControlResponse{
		Type: MessageTypeControlResponse,
		Response: map[string]any{
			"subtype":           "cancel_acknowledgment",
			"request_id":        requestID,
			"found":             exists,
			"already_completed": alreadyCompleted,
		},
	})
}

// CancelAllInFlight cancels all in-flight handlers.
func (c *Controller) CancelAllInFlight() {
	c.inFlightMu.Lock()
	defer c.inFlightMu.Unlock()

	for _, op := range c.inFlight {
		if !op.completed {
			op.cancel()
		}
	}
}
