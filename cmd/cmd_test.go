package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacksim/stacksim/sim"
	"github.com/stacksim/stacksim/sim/scenario"
)

func TestWriteDefaults_RoundTripsThroughLoadConfig(t *testing.T) {
	// GIVEN the defaults written as YAML
	var buf bytes.Buffer
	require.NoError(t, writeDefaults(&buf))
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	// WHEN loaded back as a config file
	cfg, err := sim.LoadConfig(path)

	// THEN it is accepted by strict parsing and equals the built-in config
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultConfig(), cfg)
}

func TestEventLog_KeepsMostRecent(t *testing.T) {
	l := NewEventLog(3)
	for i := 1; i <= 5; i++ {
		l.Record(sim.Event{Kind: sim.EventPlaced, NodeID: sim.NodeID(string(rune('0' + i)))})
	}

	got := l.Events()
	require.Len(t, got, 3)
	assert.Equal(t, sim.NodeID("3"), got[0].NodeID)
	assert.Equal(t, sim.NodeID("5"), got[2].NodeID)

	l.Reset()
	assert.Empty(t, l.Events())
}

func TestHudLine(t *testing.T) {
	line := hudLine(sim.EconomySnapshot{
		Money: 99.9, Reputation: 42, Score: sim.Score{Total: 7.5, Web: 5},
		TimeScale: sim.ScaleFast, Running: false,
	})
	assert.Contains(t, line, "$99")
	assert.Contains(t, line, "x3")
	assert.Contains(t, line, "SYSTEM FAILURE")
}

func TestPrintReport_WritesRejectionsToStdout(t *testing.T) {
	// GIVEN a report with one rejected command
	report := scenario.RunReport{
		Applied: 2,
		Ticks:   10,
		Rejected: []scenario.Rejection{
			{Index: 3, Command: scenario.Command{Op: scenario.OpUpgrade, Node: "lb"}, Error: "node type cannot be upgraded"},
		},
	}

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// WHEN printed
	printReport(report)

	// Restore stdout and read captured output
	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	output := buf.String()

	// THEN the rejection is listed with its command
	assert.Contains(t, output, "=== Scenario ===")
	assert.Contains(t, output, "#3 upgrade lb: node type cannot be upgraded")
}
