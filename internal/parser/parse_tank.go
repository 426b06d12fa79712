package parser

import (
	"fmt"
	"strconv"
	"time"

	"github.com/OCAP2/artillery/internal/geo"
	"github.com/OCAP2/artillery/internal/util"
	"github.com/OCAP2/artillery/pkg/core"
)

// ParseTank parses ["[x,y]", barrelAngle, barrelLength] into a tank with full health.
func (p *Parser) ParseTank(data []string) (core.Tank, error) {
	if err := requireArgs(data, 3); err != nil {
		return core.Tank{}, err
	}
	data = util.CleanArgs(data)

	pos, err := geo.PositionFromString(util.StripBrackets(data[0]))
	if err != nil {
		p.logger.Error("Error converting position", "data", data[0], "error", err)
		return core.Tank{}, err
	}

	angle, err := parseInt8(data[1])
	if err != nil {
		return core.Tank{}, fmt.Errorf("error converting barrel angle: %w", err)
	}

	length, err := strconv.ParseFloat(data[2], 64)
	if err != nil {
		return core.Tank{}, fmt.Errorf("error converting barrel length: %w", err)
	}

	return core.NewTank(angle, length, pos), nil
}

// AimCommand turns one tank's barrel.
type AimCommand struct {
	TankIndex int
	Angle     int8
}

// ParseAim parses [tankIndex, angle].
func (p *Parser) ParseAim(data []string) (AimCommand, error) {
	var cmd AimCommand
	if err := requireArgs(data, 2); err != nil {
		return cmd, err
	}
	data = util.CleanArgs(data)

	idx, err := parseIndex(data[0])
	if err != nil {
		return cmd, fmt.Errorf("error converting tank index: %w", err)
	}
	angle, err := parseInt8(data[1])
	if err != nil {
		return cmd, fmt.Errorf("error converting angle: %w", err)
	}
	cmd.TankIndex = idx
	cmd.Angle = angle
	return cmd, nil
}

// FireCommand fires one tank.
type FireCommand struct {
	MatchID   uint
	Time      time.Time
	TankIndex int
	Power     int8
}

// ParseFire parses [tankIndex, power]. Power is not clamped.
func (p *Parser) ParseFire(data []string) (FireCommand, error) {
	cmd := FireCommand{MatchID: p.getMatchID(), Time: time.Now()}
	if err := requireArgs(data, 2); err != nil {
		return cmd, err
	}
	data = util.CleanArgs(data)

	idx, err := parseIndex(data[0])
	if err != nil {
		return cmd, fmt.Errorf("error converting tank index: %w", err)
	}
	power, err := parseInt8(data[1])
	if err != nil {
		return cmd, fmt.Errorf("error converting power: %w", err)
	}
	cmd.TankIndex = idx
	cmd.Power = power
	return cmd, nil
}
