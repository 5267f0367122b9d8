package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/internal/manifest"
)

// State is the lifecycle state of a submission
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateStreaming State = "streaming"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transitions can happen
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

var errStreamClosed = errors.New("stream closed before completion")

// Run is one in-flight submission. Events are delivered in stream order and
// the channel is closed after the terminal event.
type Run struct {
	events chan Event
	done   chan struct{}
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	payload json.RawMessage
	err     error
}

// Events returns the event channel
func (r *Run) Events() <-chan Event {
	return r.events
}

// Done is closed once the run reached a terminal state
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// State returns the current state
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Cancel abandons the run. The run ends as Failed unless it already finished.
func (r *Run) Cancel() {
	r.cancel()
}

// Wait drains remaining events and returns the completion payload
func (r *Run) Wait() (json.RawMessage, error) {
	for range r.events {
	}
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payload, r.err
}

// Submit validates and uploads a manifest, then opens the progress stream.
// Validation failures never touch the network. Upload failures are returned
// directly; once streaming, the outcome is delivered through the Run.
func (c *Client) Submit(ctx context.Context, file File) (*Run, error) {
	if err := manifest.Validate(file.Name, file.ContentType); err != nil {
		return nil, err
	}
	if !c.active.CompareAndSwap(false, true) {
		return nil, errs.Busy("channel.Submit", errs.ErrRunInProgress)
	}

	tel := c.tel()
	ctx, span := tel.start(ctx, "channel.Submit",
		attribute.String("file.name", file.Name),
		attribute.Int("file.size", len(file.Content)),
	)
	log := c.logger().With("file", file.Name)

	c.setState(StateUploading)
	upCtx, upSpan := tel.start(ctx, "channel.Upload")
	err := c.upload(upCtx, file)
	upSpan.End()
	if err != nil {
		log.Error("upload failed", "error", err)
		c.end(ctx, span, StateFailed, err)
		return nil, err
	}
	log.Debug("upload accepted")

	runCtx, cancel := context.WithCancel(ctx)
	streamCtx, cancelStream := runCtx, context.CancelFunc(func() {})
	if c.StreamTimeout > 0 {
		streamCtx, cancelStream = context.WithTimeout(runCtx, c.StreamTimeout)
	}

	body, err := c.openStream(streamCtx)
	if err != nil {
		err = streamError(runCtx, streamCtx, err)
		cancelStream()
		cancel()
		log.Error("stream failed", "error", err)
		c.end(ctx, span, StateFailed, err)
		return nil, err
	}

	buffer := c.EventBuffer
	if buffer < 0 {
		buffer = 0
	}
	run := &Run{
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
		cancel: cancel,
		state:  StateStreaming,
	}
	c.setState(StateStreaming)

	go func() {
		defer cancel()
		defer cancelStream()
		defer body.Close()
		c.stream(runCtx, streamCtx, span, body, run)
	}()
	return run, nil
}

func (c *Client) stream(runCtx, streamCtx context.Context, span trace.Span, body io.Reader, run *Run) {
	log := c.logger()
	reader := newSSEReader(body)

	for {
		ev, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errs.Transport("channel.Stream", errStreamClosed)
			}
			err = streamError(runCtx, streamCtx, err)
			log.Error("stream failed", "error", err)
			c.finish(runCtx, span, run, Event{Type: EventError, Message: err.Error()}, StateFailed, nil, err)
			return
		}

		switch EventType(ev.Name) {
		case EventStep:
			event := NewStageEvent(ev.Data)
			span.AddEvent("stage", trace.WithAttributes(attribute.String("stage", string(event.Stage))))
			log.Debug("stage", "label", ev.Data, "stage", event.Stage)
			if !send(runCtx, run.events, event) {
				err := streamError(runCtx, streamCtx, runCtx.Err())
				c.finish(runCtx, span, run, Event{Type: EventError, Message: err.Error()}, StateFailed, nil, err)
				return
			}
		case EventDone:
			event := NewDoneEvent(ev.Data)
			log.Info("analysis complete", "bytes", len(event.Payload))
			c.finish(runCtx, span, run, event, StateCompleted, event.Payload, nil)
			return
		case EventError:
			event := NewErrorEvent(ev.Data)
			err := errs.Transport("channel.Stream", errors.New(event.Message))
			log.Error("analysis failed", "error", event.Message)
			c.finish(runCtx, span, run, event, StateFailed, nil, err)
			return
		default:
			// unnamed messages carry nothing for us
		}
	}
}

// finish delivers the terminal event and releases the client for the next run
func (c *Client) finish(ctx context.Context, span trace.Span, run *Run, event Event, state State, payload json.RawMessage, err error) {
	if ctx.Err() == nil {
		send(ctx, run.events, event)
	} else {
		select {
		case run.events <- event:
		default:
		}
	}

	run.mu.Lock()
	run.state = state
	run.payload = payload
	run.err = err
	run.mu.Unlock()

	c.end(context.WithoutCancel(ctx), span, state, err)
	close(run.events)
	close(run.done)
}

// end records the outcome and frees the in-flight slot
func (c *Client) end(ctx context.Context, span trace.Span, state State, err error) {
	c.tel().finish(ctx, span, state, err)
	c.setState(state)
	c.active.Store(false)
}

func (c *Client) setState(s State) {
	if c.OnStateChange != nil {
		c.OnStateChange(s)
	}
}

func (c *Client) tel() *telemetry {
	if c.telemetry == nil {
		c.telemetry = newTelemetry()
	}
	return c.telemetry
}

func send(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// streamError classifies a stream failure by which context ended it
func streamError(runCtx, streamCtx context.Context, err error) error {
	switch {
	case runCtx.Err() != nil:
		return errs.Transport("channel.Stream", fmt.Errorf("run cancelled: %w", runCtx.Err()))
	case streamCtx.Err() != nil:
		return errs.Timeout("channel.Stream", fmt.Errorf("no result before deadline: %w", streamCtx.Err()))
	default:
		var e *errs.Error
		if errors.As(err, &e) {
			return err
		}
		return errs.Transport("channel.Stream", fmt.Errorf("failed to read stream: %w", err))
	}
}
