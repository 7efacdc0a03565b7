package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"skyraid/internal/entity"
	"skyraid/internal/reconcile"
	"skyraid/internal/sim"
	"skyraid/internal/wave"
)

var (
	styleSelf     = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	stylePlayer   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleAlly     = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleEnemyHit = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleEnemyBul = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleOwnBul   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleStrike   = tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true)
	styleBlade    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleHUD      = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

var classStyle = map[entity.Class]tcell.Style{
	entity.ClassNormal:   tcell.StyleDefault.Foreground(tcell.ColorOrange),
	entity.ClassSniper:   tcell.StyleDefault.Foreground(tcell.ColorPurple),
	entity.ClassRicochet: tcell.StyleDefault.Foreground(tcell.ColorBlue),
	entity.ClassBoss:     tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
}

var classGlyph = map[entity.Class]rune{
	entity.ClassNormal:   'v',
	entity.ClassSniper:   'Y',
	entity.ClassRicochet: 'W',
	entity.ClassBoss:     '#',
}

// sprite is a rectangle in cell units.
type sprite struct {
	rect  entity.Rect
	glyph rune
	style tcell.Style
}

// scene is what one frame draws, already in cell units.
type scene struct {
	sprites []sprite
	hud     string
	status  string
}

// sceneFromView builds a scene from reconciled state whose local units are cells.
func sceneFromView(v reconcile.View) scene {
	var sc scene
	for _, b := range v.Blades {
		sc.sprites = append(sc.sprites, sprite{b.Bounds(), '=', styleBlade})
	}
	for _, e := range v.Enemies {
		st := classStyle[e.Class]
		if e.HitFlash > 0 {
			st = styleEnemyHit
		}
		sc.sprites = append(sc.sprites, sprite{e.Bounds(), classGlyph[e.Class], st})
	}
	for _, p := range v.Projectiles {
		st := styleEnemyBul
		if p.Owner == entity.OwnerPlayer {
			st = styleOwnBul
		}
		sc.sprites = append(sc.sprites, sprite{p.Bounds(), '*', st})
	}
	for _, s := range v.Strikes {
		sc.sprites = append(sc.sprites, sprite{entity.Rect{X: s.Pos.X, Y: s.Pos.Y}, '%', styleStrike})
	}
	for _, p := range v.Players {
		sc.sprites = append(sc.sprites, sprite{p.Bounds(), 'A', stylePlayer})
		if p.Ally != nil {
			sc.sprites = append(sc.sprites, sprite{entity.Rect{X: p.Ally.Pos.X, Y: p.Ally.Pos.Y}, 'a', styleAlly})
		}
	}
	if v.Self != nil {
		sc.sprites = append(sc.sprites, sprite{v.Self.Bounds(), 'A', styleSelf})
		if v.Self.Ally != nil {
			sc.sprites = append(sc.sprites, sprite{entity.Rect{X: v.Self.Ally.Pos.X, Y: v.Self.Ally.Pos.Y}, 'a', styleAlly})
		}
		sc.hud = hudLine(&v.Self.Player, v.Wave, v.WavePhase, v.WaveTimer, v.GameTime)
	}
	return sc
}

func hudLine(p *entity.Player, waveNum int, phase string, timer int, gameTime float64) string {
	abilities := ""
	for _, a := range []struct {
		on    bool
		tag   string
		ready int
	}{
		{p.Upgrades.Lightning, "Z:lightning", p.LightningReadyWave},
		{p.Upgrades.Shield, "X:shield", p.ShieldReadyWave},
		{p.Upgrades.Blade, "C:blade", p.BladeReadyWave},
	} {
		switch {
		case !a.on:
		case waveNum >= a.ready:
			abilities += " " + a.tag
		default:
			abilities += fmt.Sprintf(" %s(w%d)", a.tag, a.ready)
		}
	}
	if p.ShieldActive {
		abilities += " [shield up]"
	}
	line := fmt.Sprintf(" HP %d/%d  LV %d  XP %d/%d  wave %d %s", p.Health, p.MaxHealth, p.Level, p.XP, sim.XPForLevel(p.Level), waveNum, phase)
	if phase == string(wave.PhaseIntermission) {
		line += fmt.Sprintf(" (%d)", timer)
	}
	line += fmt.Sprintf("  %.0fs%s", gameTime, abilities)
	if p.UpgradePoints > 0 {
		line += fmt.Sprintf("  upgrade points %d: 1 ally 2 lightning 3 shield 4 blade", p.UpgradePoints)
	}
	return line
}

// draw paints sc onto the screen. Row 0 is the HUD and the last row the status
// line; the arena rectangle sits between them.
func draw(s tcell.Screen, sc scene) {
	s.Clear()
	w, h := s.Size()
	for _, sp := range sc.sprites {
		x0 := int(math.Floor(sp.rect.X))
		y0 := int(math.Floor(sp.rect.Y))
		x1 := max(x0+1, int(math.Ceil(sp.rect.X+sp.rect.W)))
		y1 := max(y0+1, int(math.Ceil(sp.rect.Y+sp.rect.H)))
		for y := max(y0, 0); y < min(y1, h-2); y++ {
			for x := max(x0, 0); x < min(x1, w); x++ {
				s.SetContent(x, y+1, sp.glyph, nil, sp.style)
			}
		}
	}
	drawText(s, 0, 0, w, sc.hud, styleHUD)
	drawText(s, 0, h-1, w, sc.status, styleStatus)
	s.Show()
}

func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// arena is the drawable area in cells: everything but the HUD and status rows.
func arena(s tcell.Screen) (float64, float64) {
	w, h := s.Size()
	return float64(w), float64(max(h-2, 1))
}
