package sim

import (
	"fmt"

	"github.com/OCAP2/artillery/internal/dispatcher"
	"github.com/OCAP2/artillery/internal/parser"
)

// Command names understood by RegisterHandlers.
const (
	CmdStart = ":START:"
	CmdTank  = ":TANK:"
	CmdAim   = ":AIM:"
	CmdFire  = ":FIRE:"
	CmdStep  = ":STEP:"
	CmdWind  = ":WIND:"
	CmdWorld = ":WORLD:"
	CmdEnd   = ":END:"
)

// RegisterHandlers registers all match commands with the dispatcher.
// Every command mutates the same world, so none of them is buffered.
func (s *Session) RegisterHandlers(d *dispatcher.Dispatcher, p *parser.Parser) {
	d.Register(CmdStart, s.handleStart(p), dispatcher.Logged())
	d.Register(CmdTank, s.handleTank(p), dispatcher.Logged())
	d.Register(CmdAim, s.handleAim(p), dispatcher.Logged())
	d.Register(CmdFire, s.handleFire(p), dispatcher.Logged())
	d.Register(CmdStep, s.handleStep(p), dispatcher.Logged())
	d.Register(CmdWind, s.handleWind(p), dispatcher.Logged())
	d.Register(CmdWorld, s.handleWorld, dispatcher.Logged())
	d.Register(CmdEnd, s.handleEnd(p), dispatcher.Logged())
}

func (s *Session) handleStart(p *parser.Parser) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		m, err := p.ParseMatch(e.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to parse match: %w", err)
		}
		if err := s.Start(m); err != nil {
			return nil, err
		}
		started, _ := s.Match()
		p.SetMatch(&started)
		return started.ID, nil
	}
}

func (s *Session) handleTank(p *parser.Parser) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		t, err := p.ParseTank(e.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tank: %w", err)
		}
		return s.AddTank(t)
	}
}

func (s *Session) handleAim(p *parser.Parser) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		cmd, err := p.ParseAim(e.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to parse aim: %w", err)
		}
		return nil, s.Aim(cmd.TankIndex, cmd.Angle)
	}
}

func (s *Session) handleFire(p *parser.Parser) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		cmd, err := p.ParseFire(e.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fire: %w", err)
		}
		return s.Fire(cmd.TankIndex, cmd.Power)
	}
}

func (s *Session) handleStep(p *parser.Parser) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		n, err := p.ParseStep(e.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to parse step: %w", err)
		}
		var hits int
		for i := 0; i < n; i++ {
			impacts, err := s.Step()
			hits += len(impacts)
			if err != nil {
				return hits, err
			}
		}
		return hits, nil
	}
}

func (s *Session) handleWind(p *parser.Parser) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		w, err := p.ParseWind(e.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to parse wind: %w", err)
		}
		return nil, s.SetWind(w)
	}
}

func (s *Session) handleWorld(dispatcher.Event) (any, error) {
	return s.World(), nil
}

func (s *Session) handleEnd(p *parser.Parser) dispatcher.HandlerFunc {
	return func(dispatcher.Event) (any, error) {
		if err := s.End(); err != nil {
			return nil, err
		}
		p.SetMatch(nil)
		return nil, nil
	}
}
