package room

import (
	"errors"
	"log"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"skyraid/internal/entity"
	"skyraid/internal/protocol"
	"skyraid/internal/sim"
)

type Options struct {
	TickHz      int
	BroadcastHz int
	Seed        int64
	// IdleTicks is how long a room may run without members before it reports
	// itself empty. Zero means ten seconds of ticks.
	IdleTicks int
}

func DefaultOptions() Options {
	return Options{TickHz: protocol.SimTickHz, BroadcastHz: protocol.BroadcastHz, Seed: time.Now().UnixNano()}
}

// Room owns one sim.World. Only the Run goroutine touches the world and the
// member table; everything else talks to it through Inbox.
type Room struct {
	Inbox          chan any
	tickHz         int
	broadcastEvery int64
	idleTicks      int
	idle           int
	world          *sim.World
	members        map[string]Conn
	count          atomic.Int32
	quit           chan struct{}
	stopOnce       sync.Once

	Code    string
	OnEmpty func(code string) // called when the last member leaves
}

func New(opts Options) *Room {
	if opts.TickHz <= 0 {
		opts.TickHz = protocol.SimTickHz
	}
	if opts.BroadcastHz <= 0 || opts.BroadcastHz > opts.TickHz {
		opts.BroadcastHz = min(protocol.BroadcastHz, opts.TickHz)
	}
	if opts.IdleTicks <= 0 {
		opts.IdleTicks = 10 * opts.TickHz
	}
	wopts := sim.DefaultOptions()
	wopts.TickHz = opts.TickHz
	wopts.Seed = opts.Seed
	return &Room{
		Inbox:          make(chan any, 256),
		tickHz:         opts.TickHz,
		broadcastEvery: int64(opts.TickHz / opts.BroadcastHz),
		idleTicks:      opts.IdleTicks,
		world:          sim.New(wopts),
		members:        make(map[string]Conn),
		quit:           make(chan struct{}),
	}
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once the room stopped.
func (r *Room) Done() <-chan struct{} { return r.quit }

// NumPlayers is safe to call from any goroutine.
func (r *Room) NumPlayers() int { return int(r.count.Load()) }

// Submit queues a command unless the room already stopped.
func (r *Room) Submit(cmd any) bool {
	select {
	case r.Inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

func (r *Room) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(r.tickHz))
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			for id, c := range r.members {
				_ = c.Close()
				delete(r.members, id)
			}
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Room) tick() {
	if len(r.members) == 0 {
		r.idle++
		if r.idle == r.idleTicks {
			r.checkEmpty()
		}
	} else {
		r.idle = 0
	}
	for _, ev := range r.world.Step() {
		r.broadcast(protocol.MsgDefeated, ev, "")
	}
	if r.world.Tick%r.broadcastEvery == 0 {
		r.broadcast(protocol.MsgState, r.world.Snapshot(), "")
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		r.handleJoin(c)
	case Position:
		if !r.isMember(c.PlayerID) {
			return
		}
		if err := r.world.UpdatePlayer(c.PlayerID, c.Pos, c.Health); err != nil {
			r.sendError(c.PlayerID, err)
		}
	case Fire:
		if !r.isMember(c.PlayerID) {
			return
		}
		r.broadcast(protocol.MsgFired, protocol.Fired{PlayerID: c.PlayerID, Bullet: c.Bullet}, c.PlayerID)
	case Damage:
		if !r.isMember(c.PlayerID) {
			return
		}
		if ev, ok := r.world.DamageEnemy(c.PlayerID, c.EnemyID, c.Amount); ok {
			r.broadcast(protocol.MsgDefeated, ev, "")
		}
	case Ability:
		if !r.isMember(c.PlayerID) {
			return
		}
		events, err := r.world.UseAbility(c.PlayerID, c.Kind)
		if err != nil {
			r.sendError(c.PlayerID, err)
			return
		}
		for _, ev := range events {
			r.broadcast(protocol.MsgDefeated, ev, "")
		}
	case Upgrade:
		if !r.isMember(c.PlayerID) {
			return
		}
		if err := r.world.ChooseUpgrade(c.PlayerID, c.Kind); err != nil {
			r.sendError(c.PlayerID, err)
		}
	case Leave:
		r.handleLeave(c.PlayerID)
	default:
		log.Printf("[ROOM %s] unknown command %T", r.Code, cmd)
	}
}

func (r *Room) isMember(id string) bool {
	_, ok := r.members[id]
	return ok
}

func (r *Room) handleJoin(c Join) {
	// A join queued behind the leave that emptied the room gets no reply, so
	// the caller sees Done and retries on a fresh room.
	select {
	case <-r.quit:
		return
	default:
	}
	id := entity.NewID("p")
	p := r.world.Join(id, c.Name, c.Pos, c.Health)
	r.members[id] = c.Conn
	r.count.Store(int32(len(r.members)))
	if c.Reply != nil {
		c.Reply <- JoinResult{PlayerID: id}
	}
	log.Printf("[ROOM %s] %s joined as %s (%d members)", r.Code, p.Name, id, len(r.members))

	opts := r.world.Options()
	welcome := protocol.Welcome{PlayerID: id, Width: opts.Width, Height: opts.Height, TickHz: opts.TickHz}
	if err := r.sendTo(c.Conn, protocol.MsgWelcome, welcome); err != nil {
		r.dropAll([]string{id})
		return
	}
	r.broadcast(protocol.MsgJoined, protocol.Joined{PlayerID: id, Name: p.Name}, id)
	if err := r.sendTo(c.Conn, protocol.MsgState, r.world.Snapshot()); err != nil {
		r.dropAll([]string{id})
	}
}

func (r *Room) handleLeave(playerID string) {
	if !r.drop(playerID) {
		return
	}
	r.broadcast(protocol.MsgLeft, protocol.Left{PlayerID: playerID}, "")
	r.checkEmpty()
}

// drop removes a member and its player. It reports false for unknown ids.
func (r *Room) drop(playerID string) bool {
	c, ok := r.members[playerID]
	if !ok {
		return false
	}
	_ = c.Close()
	delete(r.members, playerID)
	r.count.Store(int32(len(r.members)))
	r.world.Leave(playerID)
	log.Printf("[ROOM %s] %s left (%d members)", r.Code, playerID, len(r.members))
	return true
}

// dropAll removes failed members and announces each departure. Announcing can
// fail further sends, so it drains until nothing new fails.
func (r *Room) dropAll(failed []string) {
	for len(failed) > 0 {
		id := failed[0]
		failed = failed[1:]
		if !r.drop(id) {
			continue
		}
		failed = append(failed, r.fanout(protocol.MsgLeft, protocol.Left{PlayerID: id}, "")...)
	}
	r.checkEmpty()
}

func (r *Room) checkEmpty() {
	if len(r.members) == 0 && r.OnEmpty != nil && r.Code != "" {
		r.OnEmpty(r.Code)
	}
}

func (r *Room) broadcast(t string, payload any, except string) {
	if failed := r.fanout(t, payload, except); len(failed) > 0 {
		r.dropAll(failed)
	}
}

// fanout encodes payload once per codec in use and sends it to every member
// except one. It returns the members whose send failed.
func (r *Room) fanout(t string, payload any, except string) []string {
	frames := make(map[string][]byte, 2)
	var failed []string
	for _, id := range slices.Sorted(maps.Keys(r.members)) {
		if id == except {
			continue
		}
		c := r.members[id]
		codec := c.Codec()
		b, ok := frames[codec.Name()]
		if !ok {
			var err error
			b, err = codec.Encode(t, payload)
			if err != nil {
				log.Printf("[ROOM %s] encode %s (%s): %v", r.Code, t, codec.Name(), err)
				return nil
			}
			frames[codec.Name()] = b
		}
		if err := c.Send(b); gone(err) {
			failed = append(failed, id)
		}
	}
	return failed
}

// gone reports whether a send error means the member disconnected. A skipped
// frame on a slow member is not one.
func gone(err error) bool {
	return err != nil && !errors.Is(err, ErrBackpressure)
}

func (r *Room) sendTo(c Conn, t string, payload any) error {
	b, err := c.Codec().Encode(t, payload)
	if err != nil {
		return err
	}
	if err := c.Send(b); gone(err) {
		return err
	}
	return nil
}

func (r *Room) sendError(playerID string, cause error) {
	c, ok := r.members[playerID]
	if !ok {
		return
	}
	if err := r.sendTo(c, protocol.MsgError, protocol.Error{Message: cause.Error()}); err != nil {
		r.dropAll([]string{playerID})
	}
}
