package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tessera-themes/tessera/internal/render"
)

func TestWriteModeMapping(t *testing.T) {
	reset := func() { keep, clean, force = false, false, false }

	reset()
	assert.Equal(t, render.ModeSmart, writeMode())

	reset()
	keep = true
	assert.Equal(t, render.ModeSkip, writeMode())

	reset()
	force = true
	assert.Equal(t, render.ModeForce, writeMode())

	// --clean implies force: everything is regenerated from scratch.
	reset()
	clean = true
	assert.Equal(t, render.ModeForce, writeMode())

	t.Cleanup(reset)
}
