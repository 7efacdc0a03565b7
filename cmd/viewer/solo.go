package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"skyraid/internal/entity"
	"skyraid/internal/protocol"
	"skyraid/internal/reconcile"
	"skyraid/internal/solo"
)

// soloDriver runs the self-authoritative game in process.
type soloDriver struct {
	session   *solo.Session
	scoresURL string
	name      string
	submitted bool
	status    string
}

func newSolo(name, scoresURL string) *soloDriver {
	return &soloDriver{
		session:   solo.New(name, time.Now().UnixNano()),
		scoresURL: scoresURL,
		name:      name,
	}
}

func (d *soloDriver) frame(in input, cols, rows float64) scene {
	f := d.session.Tick(solo.Input{
		Move:    in.move,
		Fire:    in.fire,
		Ability: in.ability,
		Upgrade: in.upgrade,
	})
	switch {
	case f.Err != nil:
		d.status = f.Err.Error()
	case len(f.Defeated) > 0:
		d.status = fmt.Sprintf("%d down", len(f.Defeated))
	}
	if f.Over && !d.submitted {
		d.submitted = true
		d.status = fmt.Sprintf("game over: survived %.1fs", d.session.Survived())
		if d.scoresURL != "" {
			if err := postScore(d.scoresURL, d.name, d.session.Survived()); err != nil {
				d.status += " (score not saved: " + err.Error() + ")"
			} else {
				d.status += " (score saved)"
			}
		}
		d.status += ", q to quit"
	}

	sc := reconcile.NewScale(cols, rows, entity.LogicalWidth, entity.LogicalHeight)
	out := sceneFromView(scaledView(d.session.World().Snapshot(), solo.PlayerID, sc))
	out.status = d.status
	return out
}

func (d *soloDriver) close() {}

// scaledView converts an authoritative snapshot into local units.
func scaledView(s protocol.Snapshot, selfID string, sc reconcile.Scale) reconcile.View {
	v := reconcile.View{
		SelfID:    selfID,
		Wave:      s.Wave,
		WavePhase: s.WavePhase,
		WaveTimer: s.WaveTimer,
		GameTime:  s.GameTime,
	}
	for _, p := range s.Players {
		p.Pos, p.Size = sc.Vec(p.Pos), sc.Vec(p.Size)
		mp := reconcile.Player{Player: p}
		if p.Upgrades.Ally {
			mp.Ally = &reconcile.Ally{Pos: reconcile.AllyPos(p.Pos, sc)}
		}
		if p.ID == selfID {
			v.Self = &mp
			continue
		}
		v.Players = append(v.Players, mp)
	}
	for _, e := range s.Enemies {
		e.Pos, e.Size = sc.Vec(e.Pos), sc.Vec(e.Size)
		v.Enemies = append(v.Enemies, reconcile.Enemy{Enemy: e})
	}
	for _, list := range [][]entity.Projectile{s.EnemyProjectiles, s.PlayerProjectiles} {
		for _, p := range list {
			p.Pos, p.Radius = sc.Vec(p.Pos), sc.Radius(p.Radius)
			v.Projectiles = append(v.Projectiles, reconcile.Projectile{Projectile: p})
		}
	}
	for _, st := range s.LightningStrikes {
		st.Pos = sc.Vec(st.Pos)
		v.Strikes = append(v.Strikes, st)
	}
	for _, b := range s.ActiveBlades {
		b.Pos, b.Size = sc.Vec(b.Pos), sc.Vec(b.Size)
		v.Blades = append(v.Blades, b)
	}
	return v
}

func postScore(url, name string, secs float64) error {
	body, err := json.Marshal(map[string]any{"name": name, "timeSurvived": secs})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("server answered %s", resp.Status)
	}
	return nil
}
