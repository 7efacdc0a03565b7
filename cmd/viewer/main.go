// Command viewer is the terminal client: a local single-player game or a
// live view of a multiplayer room.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"skyraid/internal/entity"
	"skyraid/internal/protocol"
)

// input is what the keyboard produced since the last frame.
type input struct {
	move    entity.Vec2
	fire    bool
	ability string
	upgrade string
}

type driver interface {
	frame(in input, cols, rows float64) scene
	close()
}

func main() {
	mode := flag.String("mode", "solo", "solo or remote")
	url := flag.String("url", "ws://localhost:8080/ws", "server websocket endpoint (remote mode)")
	room := flag.String("room", "", "room code to join (remote mode)")
	name := flag.String("name", "Pilot", "player name")
	codecName := flag.String("codec", "json", "wire codec: json or msgpack")
	scores := flag.String("scores", "", "leaderboard endpoint for single-player results, e.g. http://localhost:8080/api/scores")
	flag.Parse()

	// Logging to stderr would tear the screen.
	log.SetOutput(io.Discard)
	if f, err := os.CreateTemp("", "skyraid-viewer-*.log"); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "viewer:", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "viewer:", err)
		os.Exit(1)
	}
	screen.HideCursor()

	d, err := newDriver(*mode, *url, *room, *name, *codecName, *scores, screen)
	if err != nil {
		screen.Fini()
		fmt.Fprintln(os.Stderr, "viewer:", err)
		os.Exit(1)
	}
	run(screen, d)
	d.close()
	screen.Fini()
}

func newDriver(mode, url, room, name, codecName, scores string, screen tcell.Screen) (driver, error) {
	switch mode {
	case "solo":
		return newSolo(name, scores), nil
	case "remote":
		codec, err := protocol.CodecByName(codecName)
		if err != nil {
			return nil, err
		}
		cols, rows := arena(screen)
		return newRemote(context.Background(), url, room, name, codec, cols, rows)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func run(screen tcell.Screen, d driver) {
	ticker := time.NewTicker(time.Second / time.Duration(protocol.SimTickHz))
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	var in input
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if !handleKey(ev, &in) {
					return
				}
			}
		case <-ticker.C:
			cols, rows := arena(screen)
			draw(screen, d.frame(in, cols, rows))
			in = input{}
		}
	}
}

// handleKey folds one key press into in. It returns false on quit.
func handleKey(ev *tcell.EventKey, in *input) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		in.move.X--
	case tcell.KeyRight:
		in.move.X++
	case tcell.KeyUp:
		in.move.Y--
	case tcell.KeyDown:
		in.move.Y++
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return false
		case 'a':
			in.move.X--
		case 'd':
			in.move.X++
		case 'w':
			in.move.Y--
		case 's':
			in.move.Y++
		case ' ':
			in.fire = true
		case 'z':
			in.ability = protocol.KindLightning
		case 'x':
			in.ability = protocol.KindShield
		case 'c':
			in.ability = protocol.KindBlade
		case '1':
			in.upgrade = protocol.KindAlly
		case '2':
			in.upgrade = protocol.KindLightning
		case '3':
			in.upgrade = protocol.KindShield
		case '4':
			in.upgrade = protocol.KindBlade
		}
	}
	return true
}
