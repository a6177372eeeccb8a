package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

func writeTrainingData(t *testing.T, dir string) (xPath, yPath string) {
	t.Helper()
	var x, y strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&x, "%d,%d\n", i, i%3)
		label := 0
		if i >= 15 {
			label = 1
		}
		fmt.Fprintf(&y, "%d\n", label)
	}
	xPath = filepath.Join(dir, "X.csv")
	yPath = filepath.Join(dir, "y.csv")
	require.NoError(t, os.WriteFile(xPath, []byte(x.String()), 0o600))
	require.NoError(t, os.WriteFile(yPath, []byte(y.String()), 0o600))
	return xPath, yPath
}

func TestTrainPredictInspect(t *testing.T) {
	dir := t.TempDir()
	xPath, yPath := writeTrainingData(t, dir)
	cfgPath := filepath.Join(dir, "goboost.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[booster]
objective = "multi:logloss"
max_depth = 2
iterations = 5

[log]
level = "error"
`), 0o600))
	modelPath := filepath.Join(dir, "out", "model.gbdt")
	curvePath := filepath.Join(dir, "curve.png")
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	err := run(ctx, []string{"train", "-c", cfgPath, "-x", xPath, "-y", yPath, "-o", modelPath, "--curve", curvePath}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "trained 5 rounds")
	assert.FileExists(t, modelPath)
	assert.FileExists(t, curvePath)

	stdout.Reset()
	require.NoError(t, run(ctx, []string{"predict", "--log-level", "error", "-m", modelPath, "-x", xPath}, &stdout, &stderr))
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 30)
	assert.Equal(t, "0", lines[0])
	assert.Equal(t, "1", lines[29])

	stdout.Reset()
	require.NoError(t, run(ctx, []string{"predict", "--log-level", "error", "-m", modelPath, "-x", xPath, "--proba"}, &stdout, &stderr))
	lines = strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 30)
	assert.Len(t, strings.Split(lines[0], ","), 2)

	stdout.Reset()
	require.NoError(t, run(ctx, []string{"inspect", "--log-level", "error", "-m", modelPath}, &stdout, &stderr))
	out := stdout.String()
	assert.Contains(t, out, "multi:logloss")
	assert.Contains(t, out, "trees")
	assert.Contains(t, out, "classes")
}

func TestTrainWritesTrees(t *testing.T) {
	dir := t.TempDir()
	xPath, yPath := writeTrainingData(t, dir)
	treesDir := filepath.Join(dir, "trees")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"train", "--log-level", "error", "-x", xPath, "-y", yPath,
		"-o", filepath.Join(dir, "reg.gbdt"), "--trees", treesDir, "--trees-format", "dot",
	}, &stdout, &stderr)
	require.NoError(t, err)

	entries, err := os.ReadDir(treesDir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	var stdout, stderr bytes.Buffer

	assert.Error(t, run(ctx, nil, &stdout, &stderr))
	assert.Error(t, run(ctx, []string{"serve"}, &stdout, &stderr))
	assert.Error(t, run(ctx, []string{"train"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage of goboost train")
	assert.Contains(t, stderr.String(), "--features")

	stderr.Reset()
	assert.Error(t, run(ctx, []string{"predict", "-m", "model.gbdt"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage of goboost predict")

	err := run(ctx, []string{"inspect", "--log-level", "error", "-m", filepath.Join(t.TempDir(), "none.gbdt")}, &stdout, &stderr)
	assert.Error(t, err)

	err = run(ctx, []string{"inspect", "--log-level", "loud"}, &stdout, &stderr)
	assert.True(t, errors.IsInvalidConfig(err))

	err = run(ctx, []string{"inspect", "--log-level", "error", "-m", "s3://model"}, &stdout, &stderr)
	assert.True(t, errors.IsInvalidConfig(err), "s3 locations need a minio store")
}
