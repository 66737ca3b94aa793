package protocol

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/claude-code-sdk-go/internal/errors"
)

// Pending is an outstanding control request waiting for its correlated response.
// It is resolved at most once.
type Pending struct {
	RequestID string
	Subtype   string
	CreatedAt time.Time

	owner  *Correlator
	result chan pendingResult
}

type pendingResult struct {
	resp *ControlResponse
	err  error
}

// Correlator matches control responses to the requests that caused them.
//
// It is safe for concurrent use: Begin is called from writer goroutines while
// Resolve runs on the reader goroutine.
type Correlator struct {
	log *slog.Logger

	mu       sync.Mutex
	pending  map[string]*Pending
	closeErr error

	newID func() string
}

// NewCorrelator creates an empty correlator issuing ULID request ids.
func NewCorrelator(log *slog.Logger) *Correlator {
	return &Correlator{
		log:     log.With("component", "correlator"),
		pending: make(map[string]*Pending, 8),
		newID:   func() string { return ulid.Make().String() },
	}
}

// Begin allocates a fresh request id, registers it as pending, and returns the
// frame to send. payload must carry the "subtype" field.
//
// After CloseAll the returned Pending is already resolved with the close error.
func (c *Correlator) Begin(payload map[string]any) (*ControlRequest, *Pending) {
	request := maps.Clone(payload)
	if request == nil {
		request = map[string]any{}
	}

	subtype, _ := request["subtype"].(string)

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.newID()
	for _, taken := c.pending[id]; taken; _, taken = c.pending[id] {
		id = c.newID()
	}

	p := &Pending{
		RequestID: id,
		Subtype:   subtype,
		CreatedAt: time.Now(),
		owner:     c,
		result:    make(chan pendingResult, 1),
	}

	if c.closeErr != nil {
		p.result <- pendingResult{err: c.closeErr}
	} else {
		c.pending[id] = p
	}

	req := &ControlRequest{
		Type:      MessageTypeControlRequest,
		RequestID: id,
		Request:   request,
	}

	return req, p
}

// Resolve delivers frame to the waiting request when it is a control_response
// whose request_id is pending. It reports whether the frame was consumed.
// Responses for unknown or already-finished requests are dropped.
func (c *Correlator) Resolve(frame any) bool {
	msg, ok := frame.(map[string]any)
	if !ok || msg["type"] != MessageTypeControlResponse {
		return false
	}

	response, ok := msg["response"].(map[string]any)
	if !ok {
		c.log.Warn("Control response missing 'response' field")

		return false
	}

	requestID, _ := response["request_id"].(string)

	c.mu.Lock()

	p, exists := c.pending[requestID]
	if exists {
		delete(c.pending, requestID)
	}

	c.mu.Unlock()

	if !exists {
		c.log.Warn("No pending request for control response", "request_id", requestID)

		return false
	}

	p.result <- pendingResult{resp: &ControlResponse{
		Type:     MessageTypeControlResponse,
		Response: response,
	}}

	return true
}

// Cancel forgets a pending request without resolving it. It reports whether
// the request was still pending.
func (c *Correlator) Cancel(requestID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := c.pending[requestID]
	delete(c.pending, requestID)

	return exists
}

// CloseAll resolves every pending request with err and makes later Begin calls
// resolve immediately with the same error. Only the first call has effect.
func (c *Correlator) CloseAll(err error) {
	c.mu.Lock()

	if c.closeErr != nil {
		c.mu.Unlock()

		return
	}

	c.closeErr = err
	pending := c.pending
	c.pending = make(map[string]*Pending)

	c.mu.Unlock()

	if len(pending) > 0 {
		c.log.Debug("Resolving pending control requests on close", "count", len(pending))
	}

	for _, p := range pending {
		p.result <- pendingResult{err: err}
	}
}

// Len returns the number of pending requests.
func (c *Correlator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

// Wait blocks until the request is resolved, the timeout elapses, or ctx is done.
// A non-positive timeout waits without a deadline.
//
// Error responses, timeouts and connection loss are returned as
// *errors.ControlRequestError; ctx cancellation returns ctx.Err().
func (p *Pending) Wait(ctx context.Context, timeout time.Duration) (*ControlResponse, error) {
	var expired <-chan time.Time

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		expired = timer.C
	}

	select {
	case r := <-p.result:
		return p.finish(r)

	case <-expired:
		if !p.owner.Cancel(p.RequestID) {
			// Resolved concurrently with the timeout.
			return p.finish(<-p.result)
		}

		return nil, &errors.ControlRequestError{
			RequestID: p.RequestID,
			Subtype:   p.Subtype,
			Message:   "no response after " + timeout.String(),
			Err:       errors.ErrRequestTimeout,
		}

	case <-ctx.Done():
		if !p.owner.Cancel(p.RequestID) {
			select {
			case r := <-p.result:
				return p.finish(r)
			default:
			}
		}

		return nil, ctx.Err()
	}
}

func (p *Pending) finish(r pendingResult) (*ControlResponse, error) {
	if r.err != nil {
		return nil, &errors.ControlRequestError{
			RequestID: p.RequestID,
			Subtype:   p.Subtype,
			Err:       r.err,
		}
	}

	if r.resp.IsError() {
		return nil, &errors.ControlRequestError{
			RequestID: p.RequestID,
			Subtype:   p.Subtype,
			Message:   r.resp.ErrorMessage(),
			Err:       errors.ErrControlResponse,
		}
	}

	return r.resp, nil
}
