package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCmdRegistersAllSubcommands(t *testing.T) {
	root := newRootCmd(&AppContext{})

	names := make(map[string]bool)
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}

	assert.True(t, names["run"])
	assert.True(t, names["resume"])
	assert.True(t, names["validate"])
	assert.True(t, names["version"])
}
