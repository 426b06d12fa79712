package parser

import (
	"fmt"

	"github.com/OCAP2/artillery/internal/util"
)

// ParseStep parses an optional [ticks]; no argument means one tick.
func (p *Parser) ParseStep(data []string) (int, error) {
	if len(data) == 0 {
		return 1, nil
	}
	data = util.CleanArgs(data)
	if data[0] == "" {
		return 1, nil
	}

	n, err := parseIntFromFloat(data[0])
	if err != nil {
		return 0, fmt.Errorf("error converting tick count: %w", err)
	}
	if n < 1 {
		return 0, fmt.Errorf("tick count must be at least 1, got %d", n)
	}
	return int(n), nil
}

// ParseWind parses [wind]. Wind is carried by the world but applies no force.
func (p *Parser) ParseWind(data []string) (int8, error) {
	if err := requireArgs(data, 1); err != nil {
		return 0, err
	}
	data = util.CleanArgs(data)

	wind, err := parseInt8(data[0])
	if err != nil {
		return 0, fmt.Errorf("error converting wind: %w", err)
	}
	return wind, nil
}
