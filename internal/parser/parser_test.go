package parser

import (
	"log/slog"
	"testing"

	"github.com/OCAP2/artillery/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.Default(), "2.0.0", "Skirmish")
}

func TestNewParser(t *testing.T) {
	require.NotNil(t, newTestParser())
	require.NotNil(t, NewParser(nil, "", ""))
}

func TestParseIntFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"integer", "32", 32, false},
		{"negative", "-5", -5, false},
		{"float with decimals", "32.00", 32, false},
		{"negative float", "-7.0", -7, false},
		{"fractional rejects", "10.5", 0, true},
		{"empty string", "", 0, true},
		{"non-numeric", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIntFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseInt8(t *testing.T) {
	v, err := parseInt8("127")
	require.NoError(t, err)
	assert.Equal(t, int8(127), v)

	v, err = parseInt8("-128")
	require.NoError(t, err)
	assert.Equal(t, int8(-128), v)

	_, err = parseInt8("128")
	assert.Error(t, err)
	_, err = parseInt8("-129")
	assert.Error(t, err)
}

func TestParseMatch(t *testing.T) {
	p := newTestParser()

	t.Run("name only uses defaults", func(t *testing.T) {
		m, err := p.ParseMatch([]string{`"duel"`})
		require.NoError(t, err)
		assert.Equal(t, "duel", m.Name)
		assert.Equal(t, "Skirmish", m.Tag)
		assert.Equal(t, "2.0.0", m.ExtensionVersion)
		assert.True(t, m.Rules.IsZero(), "rules are left for the session to fill")
		assert.False(t, m.StartTime.IsZero())
	})

	t.Run("all fields", func(t *testing.T) {
		m, err := p.ParseMatch([]string{"duel", "TvT", "-4", "0.05", `{"gravity":-1.62,"hitRadius":2,"hitDamage":25}`})
		require.NoError(t, err)
		assert.Equal(t, "TvT", m.Tag)
		assert.Equal(t, int8(-4), m.Wind)
		assert.Equal(t, 0.05, m.TickSeconds)
		assert.Equal(t, core.Rules{Gravity: -1.62, HitRadius: 2, HitDamage: 25}, m.Rules)
	})

	t.Run("empty rules object leaves rules unset", func(t *testing.T) {
		m, err := p.ParseMatch([]string{"duel", "", "", "", "{}"})
		require.NoError(t, err)
		assert.True(t, m.Rules.IsZero())
	})

	t.Run("partial rules only set the given field", func(t *testing.T) {
		m, err := p.ParseMatch([]string{"duel", "TvT", "0", "0.1", `{"hitRadius":2}`})
		require.NoError(t, err)
		assert.Equal(t, core.Rules{HitRadius: 2}, m.Rules)
		assert.Equal(t, core.Rules{Gravity: core.Gravity, HitRadius: 2, HitDamage: core.HitDamage},
			m.Rules.WithDefaults(core.DefaultRules()))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := p.ParseMatch(nil)
		assert.ErrorIs(t, err, ErrArgCount)
		_, err = p.ParseMatch([]string{"duel", "", "200"})
		assert.Error(t, err)
		_, err = p.ParseMatch([]string{"duel", "", "0", "-1"})
		assert.Error(t, err)
		_, err = p.ParseMatch([]string{"duel", "", "0", "0.1", "{bad"})
		assert.Error(t, err)
	})
}

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		cmd     string
		args    []string
		wantErr bool
	}{
		{"blank", "   ", "", nil, false},
		{"comment", "# setup", "", nil, false},
		{"no args", ":STEP:", ":STEP:", nil, false},
		{"lower case", ":step: 5", ":STEP:", []string{"5"}, false},
		{"tank", ":TANK: [0,0],45,1", ":TANK:", []string{"[0,0]", "45", "1"}, false},
		{"quoted", `:START: "duel, round 1",TvT`, ":START:", []string{`"duel, round 1"`, "TvT"}, false},
		{"missing colon", "FIRE 0,10", "", nil, true},
		{"bare colons", ":: 1", "", nil, true},
		{"unbalanced", ":TANK: [0,0,45", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := ParseCommandLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}
}
