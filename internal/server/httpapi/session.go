package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Rauks/Minecraft-RCON-Console/internal/console"
	"github.com/Rauks/Minecraft-RCON-Console/internal/server/eventbus"
)

const (
	sessionReadLimit  = 64 << 10
	sessionWriteWait  = 10 * time.Second
	sessionPingPeriod = 30 * time.Second
)

// Intent types accepted on the console websocket.
const (
	IntentSubmit   = "submit"
	IntentPrefill  = "prefill"
	IntentReset    = "reset"
	IntentResend   = "resend"
	IntentRemove   = "remove"
	IntentAutofill = "autofill"
)

// Frame types sent on the console websocket.
const (
	FrameHistory = "history"
	FramePending = "pending"
	FrameLoading = "loading"
	FrameInput   = "input"
	FrameError   = "error"
)

// Intent is one operator action sent by the browser.
type Intent struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	ID      string `json:"id,omitempty"`
}

// Frame mirrors one piece of console state to the browser.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// consoleWebSocket runs one console per connection. Commands go to the
// game server one request at a time; the socket only mirrors state.
func (api *apiServer) consoleWebSocket(c *gin.Context) {
	if api.console == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "console configuration not loaded"})
		return
	}
	classifier, err := api.console.Classifier()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.logger.Error("console ws upgrade", "error", err)
		return
	}
	defer conn.Close()

	var localizer console.Translator
	if api.localizer != nil {
		localizer = api.localizer
	}
	session, err := console.New(console.Options{
		Transport: console.TransportFunc(func(ctx context.Context, command string) (string, error) {
			resp, err := api.exec(ctx, command, eventbus.OriginConsole)
			if err != nil {
				return "", err
			}
			return resp.Payload, nil
		}),
		Classifier:  classifier,
		Decoder:     api.console.Decoder(),
		Localizer:   localizer,
		Placeholder: api.console.Placeholder,
		Logger:      api.logger.With("component", "console-session"),
	})
	if err != nil {
		api.logger.Error("console session", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	notices := make(chan string, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		api.writeFrames(ctx, conn, session, notices)
		// Unblock the reader once nothing can be written anymore.
		_ = conn.SetReadDeadline(time.Now())
	}()

	api.readIntents(ctx, conn, session, notices)
	cancel()
	session.Close()
	wg.Wait()
}

func (api *apiServer) readIntents(ctx context.Context, conn *websocket.Conn, session *console.Console, notices chan<- string) {
	conn.SetReadLimit(sessionReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(2 * sessionPingPeriod))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * sessionPingPeriod))
	})
	for ctx.Err() == nil {
		var intent Intent
		if err := conn.ReadJSON(&intent); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				api.logger.Debug("console ws read", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * sessionPingPeriod))
		if err := applyIntent(session, intent); err != nil {
			api.logger.Debug("console intent rejected", "type", intent.Type, "error", err)
			select {
			case notices <- err.Error():
			default:
			}
		}
	}
}

func applyIntent(session *console.Console, intent Intent) error {
	switch intent.Type {
	case IntentSubmit:
		_, err := session.Submit(intent.Command)
		return err
	case IntentPrefill:
		session.PrefillCommand(intent.Command)
	case IntentReset:
		session.Reset()
	case IntentResend:
		if !session.Resend(intent.ID) {
			return fmt.Errorf("record %q cannot be resent", intent.ID)
		}
	case IntentRemove:
		if !session.Remove(intent.ID) {
			return fmt.Errorf("record %q not found", intent.ID)
		}
	case IntentAutofill:
		if !session.Autofill(intent.ID) {
			return fmt.Errorf("record %q not found", intent.ID)
		}
	default:
		return fmt.Errorf("unknown intent %q", intent.Type)
	}
	return nil
}

// writeFrames is the only writer of conn.
func (api *apiServer) writeFrames(ctx context.Context, conn *websocket.Conn, session *console.Console, notices <-chan string) {
	history, unsubscribeHistory := session.History().Subscribe()
	defer unsubscribeHistory()
	pending, unsubscribePending := session.Pending().Subscribe()
	defer unsubscribePending()
	loading, unsubscribeLoading := session.Loading().Subscribe()
	defer unsubscribeLoading()
	input, unsubscribeInput := session.Input().Subscribe()
	defer unsubscribeInput()

	ticker := time.NewTicker(sessionPingPeriod)
	defer ticker.Stop()

	write := func(frame Frame) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			api.logger.Debug("console ws write", "error", err)
			return false
		}
		return true
	}

	for {
		var frame Frame
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(sessionWriteWait))
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(sessionWriteWait)); err != nil {
				return
			}
			continue
		case msg := <-notices:
			frame = Frame{Type: FrameError, Data: msg}
		case v, ok := <-history:
			if !ok {
				return
			}
			frame = Frame{Type: FrameHistory, Data: v}
		case v, ok := <-pending:
			if !ok {
				return
			}
			frame = Frame{Type: FramePending, Data: v}
		case v, ok := <-loading:
			if !ok {
				return
			}
			frame = Frame{Type: FrameLoading, Data: v}
		case v, ok := <-input:
			if !ok {
				return
			}
			frame = Frame{Type: FrameInput, Data: v}
		}
		if !write(frame) {
			return
		}
	}
}
