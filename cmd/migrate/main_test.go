package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/docrisk/internal/config"
)

func TestResolveTarget(t *testing.T) {
	cfg := config.StorageConfig{ProjectID: "cfg-project", DatasetID: "cfg-dataset"}

	got, err := resolveTarget("", "", cfg)
	require.NoError(t, err)
	assert.Equal(t, target{projectID: "cfg-project", datasetID: "cfg-dataset"}, got)

	got, err = resolveTarget("flag-project", "flag-dataset", cfg)
	require.NoError(t, err)
	assert.Equal(t, target{projectID: "flag-project", datasetID: "flag-dataset"}, got)

	_, err = resolveTarget("", "", config.StorageConfig{DatasetID: "d"})
	assert.ErrorContains(t, err, "project ID is required")

	_, err = resolveTarget("p", "", config.StorageConfig{})
	assert.ErrorContains(t, err, "dataset ID is required")
}
