package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/classmate-dev/go-accounts"
)

// Dispatcher is the explicit form of fire-and-forget email: callers
// enqueue and move on, a worker delivers with bounded retries, and
// failures are logged here instead of propagating to the operation that
// triggered the message.
type Dispatcher struct {
	mailer      accounts.Mailer
	logger      accounts.Logger
	queue       chan accounts.Message
	maxAttempts int
	backoff     time.Duration
	sendTimeout time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

var _ accounts.Notifier = (*Dispatcher)(nil)

type DispatcherOption func(*Dispatcher)

// WithQueueSize bounds the in-flight message buffer.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan accounts.Message, n)
		}
	}
}

// WithMaxAttempts bounds delivery retries per message.
func WithMaxAttempts(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay between delivery attempts.
func WithBackoff(delay time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if delay > 0 {
			d.backoff = delay
		}
	}
}

// WithLogger overrides the logger used by the dispatcher.
func WithLogger(logger accounts.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher with sane defaults. Call Start to
// launch the delivery worker.
func NewDispatcher(mailer accounts.Mailer, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		mailer:      mailer,
		logger:      nopLogger{},
		queue:       make(chan accounts.Message, 64),
		maxAttempts: 3,
		backoff:     2 * time.Second,
		sendTimeout: 15 * time.Second,
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

// Start launches the delivery worker. It returns immediately; the worker
// runs until Close is called or ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.work(ctx)
}

// Enqueue submits a message for delivery. It never blocks: when the
// buffer is full the message is dropped and the drop is logged.
func (d *Dispatcher) Enqueue(msg accounts.Message) {
	select {
	case <-d.done:
		d.logger.Warn("mail dispatcher closed, dropping message", "to", msg.To, "subject", msg.Subject)
		return
	default:
	}

	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("mail queue full, dropping message", "to", msg.To, "subject", msg.Subject)
	}
}

// Close stops accepting messages and stops the worker after the current
// delivery attempt.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
	})
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg accounts.Message) {
	var lastErr error

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		lastErr = d.mailer.Send(sendCtx, msg)
		cancel()

		if lastErr == nil {
			return
		}

		d.logger.Warn("mail delivery attempt failed",
			"attempt", attempt, "to", msg.To, "subject", msg.Subject, "error", lastErr)

		if attempt == d.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case <-time.After(d.backoff * time.Duration(attempt)):
		}
	}

	d.logger.Error("mail delivery exhausted retries, dropping message",
		"to", msg.To, "subject", msg.Subject, "error", lastErr)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
