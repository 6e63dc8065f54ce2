package eventbus

import (
	"context"
	"time"
)

// TopicCommands carries a CommandEvent for every command the daemon relays.
const TopicCommands = "rcon.commands"

// Bus is a thin abstraction over the internal event distribution mechanism.
type Bus interface {
	Publish(ctx context.Context, topic string, payload any) error
	Subscribe(topic string, ch chan<- any) (unsubscribe func(), err error)
}

// Origin names the surface a command came from.
type Origin string

const (
	OriginAPI     Origin = "api"
	OriginConsole Origin = "console"
)

// CommandEvent describes one relayed command once the server answered or
// the exchange failed.
type CommandEvent struct {
	Command   string        `json:"command"`
	Origin    Origin        `json:"origin"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}
