package gomc

import (
	"time"

	"bot-panel/internal/bot"

	"github.com/Tnze/go-mc/data/packetid"
	pk "github.com/Tnze/go-mc/net/packet"
)

const (
	walkTick  = 50 * time.Millisecond
	walkSpeed = 0.2 // blocks per tick

	jumpVelocity = 0.42 // blocks per tick at takeoff
	gravity      = 0.08 // blocks per tick, per tick
)

// step returns the horizontal offset for the pressed controls. The bot
// always faces north, so forward is -Z.
func step(controls map[bot.Control]bool) (dx, dz float64) {
	if controls[bot.ControlForward] {
		dz -= walkSpeed
	}
	if controls[bot.ControlBack] {
		dz += walkSpeed
	}
	if controls[bot.ControlLeft] {
		dx -= walkSpeed
	}
	if controls[bot.ControlRight] {
		dx += walkSpeed
	}
	return dx, dz
}

// jumpHeight is the height above takeoff n ticks into a jump, or zero once
// the bot is back down.
func jumpHeight(n int) float64 {
	h := jumpVelocity*float64(n) - gravity*float64(n*(n-1))/2
	return max(h, 0)
}

// airtime tracks a jump arc. tick is zero while on the ground.
type airtime struct {
	tick    int
	groundY float64
}

// next returns the Y for the coming tick. A held jump starts an arc only
// from the ground, and releasing it mid-air does not cut the arc short.
func (a *airtime) next(y float64, jump bool) (float64, bool) {
	if a.tick == 0 {
		if !jump {
			return y, true
		}
		a.groundY = y
	}
	a.tick++
	h := jumpHeight(a.tick)
	if h == 0 {
		a.tick = 0
		return a.groundY, true
	}
	return a.groundY + h, false
}

// walk moves the bot while a control is held. There is no collision
// handling; the server corrects the position when it disagrees.
func (c *Client) walk() {
	t := time.NewTicker(walkTick)
	defer t.Stop()

	for {
		select {
		case <-t.C:
		case <-c.done:
			return
		}
		if !c.ready.Load() {
			continue
		}

		c.mu.Lock()
		if !c.hasPos {
			c.mu.Unlock()
			continue
		}
		dx, dz := step(c.controls)
		airborne := c.air.tick != 0
		y, onGround := c.air.next(c.pos.Y, c.controls[bot.ControlJump])
		if dx == 0 && dz == 0 && onGround && !airborne {
			c.mu.Unlock()
			continue
		}
		c.pos.X += dx
		c.pos.Y = y
		c.pos.Z += dz
		pos := c.pos
		c.mu.Unlock()

		c.writeMu.Lock()
		err := c.mc.Conn.WritePacket(pk.Marshal(
			packetid.ServerboundMovePlayerPos,
			pk.Double(pos.X),
			pk.Double(pos.Y),
			pk.Double(pos.Z),
			pk.Boolean(onGround),
		))
		c.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}
