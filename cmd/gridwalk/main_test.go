package main

import (
	"bytes"
	"context"
	"testing"

	"gridwalk/internal/geom"
	"gridwalk/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &buf
	cmd.ErrWriter = &buf
	err := cmd.Run(context.Background(), append([]string{"gridwalk", "--config", "../../config.yaml"}, args...))
	logging.Log.SetLevel(logrus.WarnLevel)
	return buf.String(), err
}

func TestParseTile(t *testing.T) {
	p, err := parseTile("3, 7")
	require.NoError(t, err)
	assert.Equal(t, geom.Point{X: 3, Y: 7}, p)

	for _, bad := range []string{"", "3", "x,1", "1,y"} {
		_, err := parseTile(bad)
		assert.Error(t, err, bad)
	}
}

func TestStatsCommand(t *testing.T) {
	out, err := run(t, "--map", "warehouse", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "map: warehouse (12x9 render tiles)")
	assert.Contains(t, out, "grid: 24x18 cells of 16px")
	assert.Contains(t, out, "actors: 2")
}

func TestPlanCommand(t *testing.T) {
	out, err := run(t, "plan", "--from", "2,2", "--to", "20,14")
	require.NoError(t, err)
	assert.Contains(t, out, "ideal: ")
	assert.Contains(t, out, "matrix distance: ")
	assert.Contains(t, out, "rerouted: ")
	assert.Contains(t, out, "found=true")
	assert.Contains(t, out, "(20,14)")
}

func TestPlanCommandRejectsBadTile(t *testing.T) {
	_, err := run(t, "plan", "--from", "2", "--to", "20,14")
	assert.ErrorContains(t, err, "not x,y")
}

func TestSimulateCommand(t *testing.T) {
	out, err := run(t, "simulate", "--ticks", "120", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "ticks: 120 (")
	assert.Contains(t, out, "searches: ideal=")
}
