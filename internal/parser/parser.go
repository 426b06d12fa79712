package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/OCAP2/artillery/internal/util"
	"github.com/OCAP2/artillery/pkg/core"
)

// ErrArgCount is returned when a command carries too few arguments.
var ErrArgCount = errors.New("wrong number of arguments")

// parseIntFromFloat parses a string that may be an integer ("32") or float ("32.00") into int64.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// parseInt8 parses an integral value that must fit in int8.
func parseInt8(s string) (int8, error) {
	v, err := parseIntFromFloat(s)
	if err != nil {
		return 0, err
	}
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, fmt.Errorf("parseInt8: %d out of range", v)
	}
	return int8(v), nil
}

// parseIndex parses a non-negative tank index.
func parseIndex(s string) (int, error) {
	v, err := parseIntFromFloat(s)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > math.MaxInt32 {
		return 0, fmt.Errorf("parseIndex: %d out of range", v)
	}
	return int(v), nil
}

func requireArgs(data []string, n int) error {
	if len(data) < n {
		return fmt.Errorf("%w: want %d, got %d", ErrArgCount, n, len(data))
	}
	return nil
}

// Parser provides pure []string -> core value conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
	match  atomic.Pointer[core.Match]

	// Static config set at creation time
	extensionVersion string
	defaultTag       string
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger, extensionVersion, defaultTag string) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger:           logger,
		extensionVersion: extensionVersion,
		defaultTag:       defaultTag,
	}
}

// SetMatch sets the current match for MatchID lookups
func (p *Parser) SetMatch(m *core.Match) {
	p.match.Store(m)
}

func (p *Parser) getMatchID() uint {
	m := p.match.Load()
	if m == nil {
		return 0
	}
	return m.ID
}

// ParseMatch parses [name, tag, wind, tickSeconds, rules JSON].
// Everything after the name is optional. Rule fields the document leaves out stay
// zero; the session fills them from the configured rules.
func (p *Parser) ParseMatch(data []string) (core.Match, error) {
	var match core.Match
	if err := requireArgs(data, 1); err != nil {
		return match, err
	}
	data = util.CleanArgs(data)

	match.Name = data[0]
	match.Tag = p.defaultTag
	match.StartTime = time.Now()
	match.ExtensionVersion = p.extensionVersion

	if len(data) > 1 && data[1] != "" {
		match.Tag = data[1]
	}
	if len(data) > 2 && data[2] != "" {
		wind, err := parseInt8(data[2])
		if err != nil {
			return match, fmt.Errorf("error converting wind: %w", err)
		}
		match.Wind = wind
	}
	if len(data) > 3 && data[3] != "" {
		tick, err := strconv.ParseFloat(data[3], 64)
		if err != nil {
			return match, fmt.Errorf("error converting tick length: %w", err)
		}
		if tick <= 0 {
			return match, fmt.Errorf("tick length must be positive, got %v", tick)
		}
		match.TickSeconds = tick
	}
	if len(data) > 4 && data[4] != "" {
		if err := json.Unmarshal([]byte(data[4]), &match.Rules); err != nil {
			return match, fmt.Errorf("error unmarshalling rules: %w", err)
		}
	}
	p.logger.Debug("Parsed match data", "matchName", match.Name, "tag", match.Tag, "wind", match.Wind)
	return match, nil
}

// ParseCommandLine splits a scenario line ":CMD: arg,arg" into its command and arguments.
// Blank lines and lines starting with '#' yield an empty command.
func ParseCommandLine(line string) (string, []string, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil, nil
	}

	command, rest, _ := strings.Cut(line, " ")
	if len(command) < 3 || !strings.HasPrefix(command, ":") || !strings.HasSuffix(command, ":") {
		return "", nil, fmt.Errorf("malformed command %q", command)
	}

	args, err := util.SplitArgs(rest)
	if err != nil {
		return "", nil, fmt.Errorf("command %s: %w", command, err)
	}
	return strings.ToUpper(command), args, nil
}
