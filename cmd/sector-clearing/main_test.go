package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/sector-clearing/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testModel = filepath.Join("..", "..", "internal", "config", "testdata", "model.yaml")

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name     string
		conf     config.LoggingConfig
		override string
		wantErr  bool
	}{
		{name: "defaults"},
		{name: "console debug", conf: config.LoggingConfig{Level: "debug", Format: "console"}},
		{name: "override wins", conf: config.LoggingConfig{Level: "bogus"}, override: "WARN"},
		{name: "bad level", conf: config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", conf: config.LoggingConfig{Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.conf, tt.override)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestInitializeLoggerOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, err := initializeLogger(config.LoggingConfig{OutputFile: path}, "")
	require.NoError(t, err)
	logger.Info("written")
	_ = logger.Sync()
	assert.FileExists(t, path)
}

func TestRunModelJSON(t *testing.T) {
	var buf bytes.Buffer
	err := runModel(context.Background(), &buf, runFlags{configPath: testModel, outputFormat: "json"}, "error")
	require.NoError(t, err)

	var results []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &results))
	assert.NotEmpty(t, results)
}

func TestRunModelCSVFromConfig(t *testing.T) {
	var buf bytes.Buffer
	err := runModel(context.Background(), &buf, runFlags{configPath: testModel}, "error")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "region,"))
}

func TestRunModelErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags runFlags
	}{
		{name: "missing file", flags: runFlags{configPath: filepath.Join(t.TempDir(), "nope.yaml")}},
		{name: "bad output format", flags: runFlags{configPath: testModel, outputFormat: "xml"}},
		{name: "bad tolerance", flags: runFlags{configPath: testModel, tolerance: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Error(t, runModel(context.Background(), &buf, tt.flags, "error"))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", buf.String())
}
