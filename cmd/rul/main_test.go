package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DPFRUL_DATABASE_DRIVER", "sqlite3")
	t.Setenv("DPFRUL_DATABASE_PATH", filepath.Join(t.TempDir(), "rul.db"))
	t.Setenv("DPFRUL_APP_LOG_LEVEL", "error")
	t.Setenv("DPFRUL_APP_MODE", "test")
}

type runOutput struct {
	Run struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"run"`
	Risks []struct {
		VIN   string `json:"vin"`
		Level string `json:"level"`
	} `json:"risks"`
}

func TestCLI_StoreLifecycle(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 001_fleet.sql")

	out, err = execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")

	out, err = execute(t, "user", "create", "--username", "analyst", "--password", "S3cure!pass")
	require.NoError(t, err)
	assert.Contains(t, out, `Created analyst "analyst"`)

	_, err = execute(t, "user", "create", "--username", "analyst", "--password", "S3cure!pass")
	assert.Error(t, err, "usernames are unique")

	out, err = execute(t, "generate", "--vehicles", "8", "--days", "200", "--seed", "11")
	require.NoError(t, err)
	assert.Contains(t, out, "for 8 vehicles")

	out, err = execute(t, "run", "--source", "database", "--format", "json")
	require.NoError(t, err)

	var run runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, "completed", run.Run.Status)
	require.NotEmpty(t, run.Risks)

	vin := run.Risks[0].VIN
	out, err = execute(t, "predict", "--vin", vin, "--source", "database", "--format", "json")
	require.NoError(t, err)

	var predicted runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &predicted))
	require.Len(t, predicted.Risks, 1)
	assert.Equal(t, vin, predicted.Risks[0].VIN)
	assert.NotEmpty(t, predicted.Risks[0].Level)
}

func TestCLI_Errors(t *testing.T) {
	useSQLite(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown format", args: []string{"run", "--source", "simulated", "--format", "xml"}, wantErr: "unknown report format"},
		{name: "bad as-of", args: []string{"run", "--source", "simulated", "--as-of", "yesterday"}, wantErr: "as-of"},
		{name: "malformed vin", args: []string{"predict", "--vin", "IOQ", "--format", "table"}, wantErr: "vin"},
		{name: "weak password", args: []string{"user", "create", "--username", "analyst", "--password", "short"}, wantErr: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	// reset shared flag state for later tests
	runFlags.asOf = ""
	runFlags.format = "table"
}
