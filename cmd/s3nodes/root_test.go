package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobstoit/s3nodes/nodes"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestConfigInfoCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s3_config.json")

	out, err := run(t, "config-info", "--json", "--config", path)
	require.NoError(t, err)

	var report nodes.ConfigReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, path, report.ConfigFilePath)
	assert.False(t, report.ConfigExists)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s3_config.json")
	t.Setenv("S3NODES_CONFIG", path)

	out, err := run(t, "config-info")
	require.NoError(t, err)
	assert.Contains(t, out, path)
}

func TestListWithPlaceholderProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s3_config.json")

	_, err := run(t, "list", "renders", "--config", path, "--profile", "aws_s3")
	require.Error(t, err)

	var exitErr exitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.code)
	assert.Contains(t, exitErr.message, "invalid access_key")

	_, err = os.Stat(path)
	assert.NoError(t, err, "first use seeds the config file")
}

func TestNodesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s3_config.json")

	out, err := run(t, "nodes", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "SaveImageToS3")
	assert.Contains(t, out, "📋 List S3 Objects")

	out, err = run(t, "nodes", "--json", "--config", path)
	require.NoError(t, err)

	var specs []nodes.Spec
	require.NoError(t, json.Unmarshal([]byte(out), &specs))
	assert.Len(t, specs, 4)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "nodes", "--log-level", "loud", "--config", filepath.Join(t.TempDir(), "c.json"))
	assert.ErrorContains(t, err, "invalid log level")
}
