// Package bot defines the port to the game-protocol client. A Client is
// created by a Dialer and reports everything that happens to it as a
// single typed event stream.
package bot

import (
	"context"
	"fmt"
)

const DefaultPort = 25565

// AuthOffline selects the unauthenticated identity mode.
const AuthOffline = "offline"

type Options struct {
	Host     string
	Port     int
	Username string
	Version  string
	Auth     string
}

func (o Options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

type Control string

const (
	ControlForward Control = "forward"
	ControlBack    Control = "back"
	ControlLeft    Control = "left"
	ControlRight   Control = "right"
	ControlJump    Control = "jump"
)

type Position struct {
	X, Y, Z float64
}

// Client is a single protocol session. Its Events channel is live from
// the moment Dial returns and is closed after the final EventEnd.
type Client interface {
	Events() <-chan Event

	// Username is the identity the client logged in with.
	Username() string

	// Chat sends text as typed by a player; a leading "/" makes it a
	// command on the server side.
	Chat(text string) error
	SetControlState(c Control, on bool) error

	// Ping returns the last observed round-trip latency in milliseconds.
	Ping() int
	Position() (Position, bool)

	// Ready reports whether the client is logged in and not yet ended.
	Ready() bool

	// Quit ends the session. It must not wait for Events to be drained.
	Quit(reason string)
}

// Dialer creates clients. Dial must not block on the handshake: the
// returned client reports the outcome as EventLogin, EventError or
// EventEnd, and no event can be lost between Dial returning and the
// caller reading Events.
type Dialer interface {
	Dial(ctx context.Context, opts Options) (Client, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, opts Options) (Client, error)

func (f DialerFunc) Dial(ctx context.Context, opts Options) (Client, error) {
	return f(ctx, opts)
}
