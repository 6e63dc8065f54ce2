// Package rcon implements the Minecraft remote console protocol: one TCP
// connection per command, authenticated with the server password.
package rcon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

// DefaultTimeout bounds a whole exchange when the configuration leaves it
// unset.
const DefaultTimeout = 5000 * time.Millisecond

// authFailedID is the request id the server echoes for a rejected password.
const authFailedID int32 = -1

var (
	ErrConnection     = errors.New("rcon: failed to connect to the server")
	ErrSend           = errors.New("rcon: failed to send data to the server")
	ErrReceive        = errors.New("rcon: failed to receive data from the server")
	ErrTimeout        = errors.New("rcon: timeout waiting for the server")
	ErrAuthentication = errors.New("rcon: login failed")
	ErrShutdown       = errors.New("rcon: failed to shutdown the connection")
	ErrDecode         = errors.New("rcon: failed to decode the response")
	ErrCommandTooLong = errors.New("rcon: command too long")
)

// Configuration locates and authenticates against the server.
type Configuration struct {
	Host     string
	Port     uint16
	Password string
	Timeout  time.Duration
}

// Address returns host:port.
func (c Configuration) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// Response is the reply to an executed command.
type Response struct {
	ID      int32  `json:"id"`
	Payload string `json:"payload"`
}

// Client executes commands against one server. Exchanges are serialized.
type Client struct {
	cfg    Configuration
	logger *slog.Logger
	dialer net.Dialer
	nextID func() int32

	mu sync.Mutex
}

// NewClient returns a Client for cfg.
func NewClient(cfg Configuration, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger, nextID: randomID}
}

func randomID() int32 {
	return rand.Int32N(math.MaxInt32) + 1
}

// Exec connects, logs in, runs command and disconnects. The whole exchange
// is bounded by the configured timeout.
func (c *Client) Exec(ctx context.Context, command string) (Response, error) {
	if len(command) > MaxRequestPayload {
		return Response{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrCommandTooLong, len(command), MaxRequestPayload)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.cfg.Address())
	if err != nil {
		return Response{}, c.wrap(ctx, ErrConnection, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	resp, err := c.exchange(ctx, conn, command)
	if closeErr := conn.Close(); closeErr != nil && err == nil {
		return Response{}, fmt.Errorf("%w: %v", ErrShutdown, closeErr)
	}
	if err != nil {
		c.logger.Debug("rcon exchange failed", "address", c.cfg.Address(), "error", err)
		return Response{}, err
	}
	return resp, nil
}

func (c *Client) exchange(ctx context.Context, conn net.Conn, command string) (Response, error) {
	login := Packet{ID: c.nextID(), Type: TypeAuth, Payload: c.cfg.Password}
	if err := c.write(ctx, conn, login); err != nil {
		return Response{}, err
	}
	for {
		reply, err := c.read(ctx, conn)
		if err != nil {
			return Response{}, err
		}
		// Some servers send an empty response ahead of the login result.
		if reply.Type == TypeResponse {
			continue
		}
		if reply.Type != TypeAuthResponse {
			return Response{}, fmt.Errorf("%w: unexpected packet type %d during login", ErrReceive, reply.Type)
		}
		if reply.ID == authFailedID || reply.ID != login.ID {
			return Response{}, ErrAuthentication
		}
		break
	}

	request := Packet{ID: c.nextID(), Type: TypeExec, Payload: command}
	if err := c.write(ctx, conn, request); err != nil {
		return Response{}, err
	}
	reply, err := c.read(ctx, conn)
	if err != nil {
		return Response{}, err
	}
	if reply.Type == TypeAuthResponse {
		return Response{}, ErrAuthentication
	}
	return Response{ID: reply.ID, Payload: reply.Payload}, nil
}

func (c *Client) write(ctx context.Context, conn net.Conn, p Packet) error {
	buf, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := conn.Write(buf); err != nil {
		return c.wrap(ctx, ErrSend, err)
	}
	return nil
}

func (c *Client) read(ctx context.Context, conn net.Conn) (Packet, error) {
	p, err := ReadPacket(conn)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, ErrDecode) {
		return Packet{}, err
	}
	return Packet{}, c.wrap(ctx, ErrReceive, err)
}

func (c *Client) wrap(ctx context.Context, kind, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", kind, context.Canceled)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %v", ErrTimeout, c.cfg.Timeout, err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: connection closed by the server", kind)
	}
	return fmt.Errorf("%w: %v", kind, err)
}
