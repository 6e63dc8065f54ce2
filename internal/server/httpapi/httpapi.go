package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rauks/Minecraft-RCON-Console/internal/consoleconfig"
	"github.com/Rauks/Minecraft-RCON-Console/internal/i18n"
	"github.com/Rauks/Minecraft-RCON-Console/internal/rcon"
	"github.com/Rauks/Minecraft-RCON-Console/internal/server/eventbus"
)

// maxCommandBytes bounds the body of a command request.
const maxCommandBytes = 64 << 10

// Executor runs one command against the game server.
type Executor interface {
	Exec(ctx context.Context, command string) (rcon.Response, error)
}

// Options wires the API dependencies. UI may be nil.
type Options struct {
	Logger    *slog.Logger
	RCON      Executor
	Console   *consoleconfig.Config
	Localizer *i18n.Localizer
	Bus       eventbus.Bus
	UI        http.Handler
}

// New constructs the HTTP API router.
func New(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(opts.Logger))

	api := &apiServer{
		logger:    opts.Logger,
		rcon:      opts.RCON,
		console:   opts.Console,
		localizer: opts.Localizer,
		bus:       opts.Bus,
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/api-docs/openapi.json", api.serveOpenAPI)

	v1 := r.Group("/api")
	{
		v1.POST("/rcon", api.execCommand)
		v1.GET("/rcon/events", api.streamCommandEvents)
		v1.GET("/console/config", api.consoleConfig)
	}

	r.GET("/ws/console", api.consoleWebSocket)

	if opts.UI != nil {
		r.NoRoute(gin.WrapH(opts.UI))
	}
	return r
}

// requestLogger adapts slog to Gin's middleware interface.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.String("latency", latency.String()),
			slog.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			args = append(args, slog.String("error", c.Errors.String()))
			logger.Error("http request", args...)
		} else {
			logger.Debug("http request", args...)
		}
	}
}

type apiServer struct {
	logger    *slog.Logger
	rcon      Executor
	console   *consoleconfig.Config
	localizer *i18n.Localizer
	bus       eventbus.Bus
}

// CommandResponse is the reply to POST /api/rcon.
type CommandResponse struct {
	ID      int32  `json:"id"`
	Payload string `json:"payload"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (api *apiServer) execCommand(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCommandBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read command"})
		return
	}
	if len(body) > maxCommandBytes || len(body) > rcon.MaxRequestPayload {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "command too large"})
		return
	}

	resp, err := api.exec(c.Request.Context(), string(body), eventbus.OriginAPI)
	if err != nil {
		_ = c.Error(err)
		c.JSON(statusFromError(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, CommandResponse{ID: resp.ID, Payload: resp.Payload})
}

// exec runs command and publishes the outcome on the event bus.
func (api *apiServer) exec(ctx context.Context, command string, origin eventbus.Origin) (rcon.Response, error) {
	start := time.Now()
	resp, err := api.rcon.Exec(ctx, command)

	event := eventbus.CommandEvent{
		Command:   command,
		Origin:    origin,
		Status:    "ok",
		Duration:  time.Since(start),
		Timestamp: start.UTC(),
	}
	if err != nil {
		event.Status = http.StatusText(statusFromError(err))
		event.Error = err.Error()
		api.logger.Warn("rcon command failed", "command", command, "origin", origin, "error", err)
	}
	if api.bus != nil {
		if pubErr := api.bus.Publish(ctx, eventbus.TopicCommands, event); pubErr != nil {
			api.logger.Debug("publish command event", "error", pubErr)
		}
	}
	return resp, err
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, rcon.ErrCommandTooLong):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, rcon.ErrConnection):
		return http.StatusBadGateway
	case errors.Is(err, rcon.ErrAuthentication):
		return http.StatusNetworkAuthenticationRequired
	case errors.Is(err, rcon.ErrSend),
		errors.Is(err, rcon.ErrReceive),
		errors.Is(err, rcon.ErrTimeout),
		errors.Is(err, rcon.ErrDecode):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (api *apiServer) consoleConfig(c *gin.Context) {
	if api.console == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "console configuration not loaded"})
		return
	}
	c.JSON(http.StatusOK, api.console)
}

func (api *apiServer) streamCommandEvents(c *gin.Context) {
	if api.bus == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "event streaming not available"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "streaming unsupported"})
		return
	}

	ctx := c.Request.Context()
	eventsCh := make(chan any, 16)
	unsubscribe, err := api.bus.Subscribe(eventbus.TopicCommands, eventsCh)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to subscribe"})
		return
	}
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-eventsCh:
			event, ok := payload.(eventbus.CommandEvent)
			if !ok {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				api.logger.Error("marshal command event", "error", err)
				continue
			}
			var b strings.Builder
			b.WriteString("event: command\n")
			b.WriteString("data: ")
			b.Write(data)
			b.WriteString("\n\n")
			if _, err := io.WriteString(c.Writer, b.String()); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
