// Package gomc implements bot.Dialer on top of the go-mc client library.
package gomc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bot-panel/internal/bot"
	"bot-panel/internal/logger"

	mcbot "github.com/Tnze/go-mc/bot"
	"github.com/Tnze/go-mc/bot/basic"
	"github.com/Tnze/go-mc/bot/msg"
	"github.com/Tnze/go-mc/bot/playerlist"
	"github.com/Tnze/go-mc/chat"
	"github.com/Tnze/go-mc/data/packetid"
	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/google/uuid"
)

// SupportedVersion is the game version this build of the adapter speaks.
const SupportedVersion = "1.20.2"

const eventBuffer = 64

var ErrNotReady = errors.New("gomc: client not logged in")

type Dialer struct{}

func NewDialer() Dialer { return Dialer{} }

// Dial starts the handshake in the background and returns at once. Only
// offline identities are supported.
func (Dialer) Dial(_ context.Context, opts bot.Options) (bot.Client, error) {
	if opts.Auth != "" && opts.Auth != bot.AuthOffline {
		return nil, errors.New("gomc: only offline auth is supported")
	}
	if opts.Version != "" && opts.Version != SupportedVersion {
		logger.Warn("requested version differs from adapter version", map[string]any{
			"requested": opts.Version,
			"supported": SupportedVersion,
		})
	}

	c := newClient(opts)
	go c.run()
	return c, nil
}

type Client struct {
	opts    bot.Options
	mc      *mcbot.Client
	player  *basic.Player
	players *playerlist.PlayerList
	chat    *msg.Manager

	events chan bot.Event
	done   chan struct{}
	quit   sync.Once

	ready atomic.Bool
	ping  atomic.Int64

	writeMu sync.Mutex

	mu       sync.Mutex
	pos      bot.Position
	hasPos   bool
	air      airtime
	controls map[bot.Control]bool
	reason   string
	joined   bool
	quitting bool
}

func newClient(opts bot.Options) *Client {
	c := &Client{
		opts:     opts,
		mc:       mcbot.NewClient(),
		events:   make(chan bot.Event, eventBuffer),
		done:     make(chan struct{}),
		controls: make(map[bot.Control]bool),
	}
	c.mc.Auth.Name = opts.Username

	c.player = basic.NewPlayer(c.mc, basic.DefaultSettings, basic.EventsListener{
		GameStart:  c.onGameStart,
		Disconnect: c.onDisconnect,
		Death:      c.onDeath,
	})
	c.players = playerlist.New(c.mc)
	c.chat = msg.New(c.mc, c.player, c.players, msg.EventsHandler{
		SystemChat:        c.onSystemChat,
		PlayerChatMessage: c.onPlayerChat,
		DisguisedChat:     c.onDisguisedChat,
	})
	c.mc.Events.AddListener(mcbot.PacketHandler{
		ID:       packetid.ClientboundPlayerPosition,
		Priority: 64,
		F:        c.onPosition,
	})
	// Runs after the player list has applied the same update.
	c.mc.Events.AddListener(mcbot.PacketHandler{
		ID:       packetid.ClientboundPlayerInfoUpdate,
		Priority: 0,
		F:        c.onPlayerInfo,
	})
	return c
}

func (c *Client) Events() <-chan bot.Event { return c.events }

func (c *Client) Username() string { return c.mc.Auth.Name }

func (c *Client) Ready() bool { return c.ready.Load() }

func (c *Client) Ping() int { return int(c.ping.Load()) }

func (c *Client) Position() (bot.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos, c.hasPos
}

// Chat sends text as a chat line, or as a command when it starts with "/".
func (c *Client) Chat(text string) error {
	if !c.ready.Load() {
		return ErrNotReady
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if cmd, ok := strings.CutPrefix(text, "/"); ok {
		return c.mc.Conn.WritePacket(pk.Marshal(
			packetid.ServerboundChatCommand,
			pk.String(cmd),
			pk.Long(time.Now().UnixMilli()),
			pk.Long(0),
			pk.VarInt(0),
			pk.VarInt(0),
			pk.NewFixedBitSet(20),
		))
	}
	return c.chat.SendMessage(text)
}

func (c *Client) SetControlState(control bot.Control, on bool) error {
	if !c.ready.Load() {
		return ErrNotReady
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controls[control] = on
	return nil
}

// Quit closes the connection. The event loop notices and emits the final
// EventEnd unless nobody is listening any more.
func (c *Client) Quit(reason string) {
	c.quit.Do(func() {
		c.mu.Lock()
		if c.reason == "" {
			c.reason = reason
		}
		c.quitting = true
		joined := c.joined
		c.mu.Unlock()

		c.ready.Store(false)
		close(c.done)
		if joined {
			_ = c.mc.Close()
		}
	})
}

func (c *Client) run() {
	defer close(c.events)

	if err := c.mc.JoinServer(c.opts.Addr()); err != nil {
		c.emit(bot.Event{Kind: bot.EventError, Err: err})
		return
	}

	c.mu.Lock()
	c.joined = true
	quitting := c.quitting
	c.mu.Unlock()
	if quitting {
		_ = c.mc.Close()
		return
	}

	go c.walk()

	err := c.mc.HandleGame()
	c.ready.Store(false)

	c.mu.Lock()
	reason := c.reason
	c.mu.Unlock()
	if reason == "" && err != nil {
		reason = err.Error()
	}
	c.emit(bot.Event{Kind: bot.EventEnd, Reason: reason})
}

// emit delivers ev unless the client has been quit.
func (c *Client) emit(ev bot.Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// latencyOf reports the latency the server lists for id.
func latencyOf(players map[uuid.UUID]*playerlist.PlayerInfo, id uuid.UUID) (int, bool) {
	p, ok := players[id]
	if !ok || p == nil {
		return 0, false
	}
	return int(p.Latency), true
}

// onPlayerInfo picks up the bot's own latency from the tab list. The list
// is only touched from the packet loop, as is this handler.
func (c *Client) onPlayerInfo(pk.Packet) error {
	if ms, ok := latencyOf(c.players.PlayerInfos, c.mc.UUID); ok {
		c.ping.Store(int64(ms))
	}
	return nil
}

func (c *Client) onGameStart() error {
	if c.ready.Swap(true) {
		return nil
	}
	c.emit(bot.Event{Kind: bot.EventLogin})
	return nil
}

func (c *Client) onDisconnect(reason chat.Message) error {
	c.mu.Lock()
	if c.reason == "" {
		c.reason = reason.ClearString()
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) onDeath() error {
	c.emit(bot.Event{Kind: bot.EventDeath})
	return c.player.Respawn()
}

func (c *Client) onSystemChat(m chat.Message, overlay bool) error {
	if overlay {
		return nil
	}
	for _, ev := range classifySystem(m) {
		c.emit(ev)
	}
	return nil
}

func (c *Client) onPlayerChat(m chat.Message, _ bool) error {
	for _, ev := range classifyPlayer(m) {
		c.emit(ev)
	}
	return nil
}

func (c *Client) onDisguisedChat(m chat.Message) error {
	c.emit(bot.Event{Kind: bot.EventMessage, Text: m.ClearString()})
	return nil
}

func (c *Client) onPosition(p pk.Packet) error {
	var x, y, z pk.Double
	if err := p.Scan(&x, &y, &z); err != nil {
		return err
	}
	c.mu.Lock()
	c.pos = bot.Position{X: float64(x), Y: float64(y), Z: float64(z)}
	c.hasPos = true
	c.air = airtime{}
	c.mu.Unlock()
	return nil
}
