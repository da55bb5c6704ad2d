package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corekpi "github.com/kilianp07/cabmatch/core/metrics/kpi"
	"github.com/kilianp07/cabmatch/core/model"
	"github.com/kilianp07/cabmatch/infra/kpi"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFareCommand(t *testing.T) {
	out, err := execute(t, "fare", "--distance", "10", "--surge", "1.5")
	require.NoError(t, err)
	assert.Equal(t, "255.00\n", out)
}

func TestFareCommandRejectsNegativeDistance(t *testing.T) {
	_, err := execute(t, "fare", "--distance=-1")
	assert.Error(t, err)
}

func TestScenarioRunCommand(t *testing.T) {
	out, err := execute(t, "scenario", "run", "../qa/scenarios/testdata")
	require.NoError(t, err, out)
	assert.Contains(t, out, "basic match")
	assert.NotContains(t, out, "FAIL")
}

func TestAllocateCommand(t *testing.T) {
	out, err := execute(t, "allocate", "../qa/scenarios/testdata/basic_match.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, `"driver_id": "d1"`)

	out, err = execute(t, "allocate", "../qa/scenarios/testdata/bike_exact.yaml")
	assert.EqualError(t, err, "no eligible driver")
	assert.Contains(t, out, "null")
}

func TestKPICommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.db")
	store, err := kpi.NewSQLiteStore(path)
	require.NoError(t, err)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Add(corekpi.Record{Category: model.CategoryMini, Date: day, Requests: 2, Matched: 1, FareTotal: 80, PickupKmTotal: 1}))
	require.NoError(t, store.Close())

	out, err := execute(t, "kpi", "--db", path, "--from", "2024-01-01", "--to", "2024-01-03", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-02,mini,2,1,0.5000,80.00,1.000")

	_, err = execute(t, "kpi", "--db", path, "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}
