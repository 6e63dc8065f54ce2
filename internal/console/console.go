// Package console implements the command dispatch and reply interpretation
// pipeline of the RCON console: decoding formatting codes, classifying
// replies, tracking in-flight commands and keeping the exchange history.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPlaceholder is dispatched when the operator submits empty input.
	DefaultPlaceholder = "help"
	// CommunicationErrorKey is the localizer key used when a transport
	// failure carries no message.
	CommunicationErrorKey = "tk.console.error.communication"
)

// ErrClosed is returned by operations on a closed Console.
var ErrClosed = errors.New("console: closed")

// Transport delivers one command and settles exactly once with either the
// reply or a failure.
type Transport interface {
	Send(ctx context.Context, command string) (string, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, command string) (string, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, command string) (string, error) {
	return f(ctx, command)
}

// Translator resolves localization keys.
type Translator interface {
	Translate(key string) string
}

type keyTranslator struct{}

func (keyTranslator) Translate(key string) string { return key }

// Options configures a Console.
type Options struct {
	Transport  Transport
	Classifier *Classifier
	Decoder    *Decoder
	Localizer  Translator

	// Placeholder replaces blank input. Defaults to DefaultPlaceholder.
	Placeholder string
	// LoaderDelay defaults to DefaultLoaderDelay.
	LoaderDelay time.Duration
	// HistoryLimit caps the history; zero keeps everything.
	HistoryLimit int

	Clock  Clock
	NewID  func() string
	Logger *slog.Logger
}

// Console is the console controller. It owns the pending-command tracker,
// the history ledger and the input value. Every mutation happens under one
// lock; transport calls run on their own goroutines and take the lock again
// to settle.
type Console struct {
	mu     sync.Mutex
	closed bool

	transport   Transport
	classifier  *Classifier
	decoder     *Decoder
	localizer   Translator
	placeholder string
	newID       func() string
	logger      *slog.Logger

	tracker *Tracker
	ledger  *Ledger
	history *Signal[[]CommandResult]
	input   *Signal[string]

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

// New constructs a Console.
func New(opts Options) (*Console, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("console: transport must not be nil")
	}
	if opts.Classifier == nil {
		return nil, fmt.Errorf("console: classifier must not be nil")
	}
	if opts.Decoder == nil {
		return nil, fmt.Errorf("console: decoder must not be nil")
	}
	localizer := opts.Localizer
	if localizer == nil {
		localizer = keyTranslator{}
	}
	placeholder := strings.TrimSpace(opts.Placeholder)
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	delay := opts.LoaderDelay
	if delay == 0 {
		delay = DefaultLoaderDelay
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Console{
		transport:   opts.Transport,
		classifier:  opts.Classifier,
		decoder:     opts.Decoder,
		localizer:   localizer,
		placeholder: placeholder,
		newID:       newID,
		logger:      logger,
		tracker:     NewTracker(delay, opts.Clock),
		ledger:      NewLedger(opts.HistoryLimit),
		history:     NewSignal([]CommandResult{}),
		input:       NewSignal(""),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Pending exposes the number of unsettled commands.
func (c *Console) Pending() *Signal[int] { return c.tracker.Pending() }

// Loading exposes the debounced loader visibility.
func (c *Console) Loading() *Signal[bool] { return c.tracker.LoadingSignal() }

// History exposes the history snapshot, newest first.
func (c *Console) History() *Signal[[]CommandResult] { return c.history }

// Input exposes the value of the input control.
func (c *Console) Input() *Signal[string] { return c.input }

// Placeholder returns the command used for blank input.
func (c *Console) Placeholder() string { return c.placeholder }

// Submit normalizes raw and dispatches it. The pending count is incremented
// and the input cleared before Submit returns; the result lands in the
// history once the transport settles. It returns the dispatched command.
func (c *Console) Submit(raw string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitLocked(raw)
}

// SubmitInput dispatches the current input value.
func (c *Console) SubmitInput() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitLocked(c.input.Get())
}

// PrefillCommand replaces the input value without submitting.
func (c *Console) PrefillCommand(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.input.Set(text)
}

// Reset clears the input value.
func (c *Console) Reset() {
	c.PrefillCommand("")
}

// Autofill copies the source command of a record into the input, whatever
// its status. It reports whether the record exists.
func (c *Console) Autofill(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	record, ok := c.ledger.Get(id)
	if !ok {
		return false
	}
	c.input.Set(record.SourceCommand)
	return true
}

// Resend prefills and submits the source command of a resendable record.
// It is a no-op for unknown ids and for error or invalid results.
func (c *Console) Resend(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	record, ok := c.ledger.Get(id)
	if !ok || !record.Resendable() {
		return false
	}
	c.input.Set(record.SourceCommand)
	_, err := c.submitLocked(c.input.Get())
	return err == nil
}

// Remove drops a record from the history. It reports whether a record was
// removed.
func (c *Console) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if !c.ledger.RemoveByID(id) {
		return false
	}
	c.history.Set(c.ledger.Snapshot())
	return true
}

// Record returns the history record with the given id.
func (c *Console) Record(id string) (CommandResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Get(id)
}

// Close cancels outstanding dispatches, waits until every one of them has
// settled and then closes all signals.
func (c *Console) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.inflight.Wait()

	c.tracker.Close()
	c.history.Close()
	c.input.Close()
}

func (c *Console) submitLocked(raw string) (string, error) {
	if c.closed {
		return "", ErrClosed
	}
	command := strings.TrimSpace(raw)
	if command == "" {
		command = c.placeholder
	}

	pending := c.tracker.Begin()
	c.input.Set("")
	c.inflight.Add(1)
	c.logger.Debug("command dispatched", "command", command, "pending", pending)

	go c.dispatch(command)
	return command, nil
}

func (c *Console) dispatch(command string) {
	defer c.inflight.Done()
	reply, err := c.send(command)
	c.settle(command, reply, err)
}

func (c *Console) send(command string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("transport panic", "command", command, "panic", r)
			reply, err = "", errNoMessage
		}
	}()
	return c.transport.Send(c.ctx, command)
}

func (c *Console) settle(command, reply string, err error) {
	result := CommandResult{
		ID:            c.newID(),
		SourceCommand: command,
		SettledAt:     time.Now().UTC(),
	}
	if err != nil {
		result.MatchedStatus = StatusCom
		result.DecodedReply = failureMessage(err)
		if result.DecodedReply == "" {
			result.DecodedReply = c.localizer.Translate(CommunicationErrorKey)
		}
		c.logger.Warn("command failed", "command", command, "error", result.DecodedReply)
	} else {
		result.RawReply = reply
		result.MatchedStatus = c.classifier.Classify(reply)
		result.DecodedReply = c.decoder.Decode(reply)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ledger.Prepend(result)
	c.tracker.Settle()
	c.history.Set(c.ledger.Snapshot())
	c.logger.Debug("command settled", "command", command, "status", result.MatchedStatus)
}

type silentFailure struct{}

func (silentFailure) Error() string { return "" }

var errNoMessage error = silentFailure{}

// failureMessage extracts the message of err. A nil, typed-nil or
// message-less failure yields an empty string.
func failureMessage(err error) (msg string) {
	if err == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			msg = ""
		}
	}()
	return strings.TrimSpace(err.Error())
}
