package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStep(t *testing.T) {
	p := newTestParser()

	n, err := p.ParseStep(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = p.ParseStep([]string{""})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = p.ParseStep([]string{"25"})
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, err = p.ParseStep([]string{"0"})
	assert.Error(t, err)
	_, err = p.ParseStep([]string{"many"})
	assert.Error(t, err)
}

func TestParseWind(t *testing.T) {
	p := newTestParser()

	w, err := p.ParseWind([]string{"-12"})
	require.NoError(t, err)
	assert.Equal(t, int8(-12), w)

	_, err = p.ParseWind(nil)
	assert.ErrorIs(t, err, ErrArgCount)
	_, err = p.ParseWind([]string{"129"})
	assert.Error(t, err)
}
