package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "preflight", cmd.Use)
	assert.True(t, cmd.SilenceUsage)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"run", "reflect", "learn", "budget"} {
		assert.Contains(t, names, want)
	}
}

func TestBudgetCommandListsTiers(t *testing.T) {
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"budget"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "simple")
	assert.Contains(t, out, "200")
	assert.Contains(t, out, "medium")
	assert.Contains(t, out, "1000")
	assert.Contains(t, out, "complex")
	assert.Contains(t, out, "2500")
}

func TestBudgetCommandSingleTier(t *testing.T) {
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"budget", "complex"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "2500")
}

func TestRunCommandMissingFile(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "no-such-plan.md"})

	assert.Error(t, cmd.Execute())
}
