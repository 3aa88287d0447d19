package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viant/npaflow/config"
	"github.com/viant/npaflow/npa"
)

func TestNewInterprocDefaults(t *testing.T) {
	c := config.NewInterproc()
	assert.Equal(t, 0, c.KCFADepth)
	assert.Equal(t, npa.Worklist, c.LinearStrategy)
	assert.Equal(t, 64, c.MaxNewtonIter)
	assert.False(t, c.Verbose)
}

func TestInterprocOptionsOverrideIndependently(t *testing.T) {
	c := config.NewInterproc(
		config.WithKCFADepth(2),
		config.WithMaxNewtonIter(10),
		config.WithInterprocVerbose(true),
	)
	assert.Equal(t, 2, c.KCFADepth)
	assert.Equal(t, npa.Worklist, c.LinearStrategy, "untouched field keeps its default")
	assert.Equal(t, 10, c.MaxNewtonIter)
	assert.True(t, c.Verbose)
}

func TestNewIFDSDefaults(t *testing.T) {
	c := config.NewIFDS()
	assert.False(t, c.ShowProgress)
	assert.Equal(t, 0, c.StepBudget)
	assert.Nil(t, c.CancellationToken)
	assert.Equal(t, time.Duration(0), c.Timeout)
}

func TestIFDSOptionsOverrideIndependently(t *testing.T) {
	ch := make(chan struct{})
	c := config.NewIFDS(
		config.WithStepBudget(100),
		config.WithCancellationToken(ch),
	)
	assert.Equal(t, 100, c.StepBudget)
	assert.NotNil(t, c.CancellationToken)
	assert.False(t, c.ShowProgress, "untouched field keeps its default")
}

func TestNewSlicingDefaults(t *testing.T) {
	c := config.NewSlicing()
	assert.Nil(t, c.EdgeTypes)
	assert.Equal(t, 0, c.MaxDepth)
	assert.Equal(t, 0, c.MaxPaths)
	assert.Equal(t, 0, c.MaxStackDepth)
	assert.False(t, c.ContextSensitive)
}

func TestSlicingOptionsOverrideIndependently(t *testing.T) {
	c := config.NewSlicing(
		config.WithMaxDepth(5),
		config.WithContextSensitive(true),
		config.WithEdgeTypes("data", "control"),
	)
	assert.Equal(t, 5, c.MaxDepth)
	assert.True(t, c.ContextSensitive)
	assert.Equal(t, []string{"data", "control"}, c.EdgeTypes)
	assert.Equal(t, 0, c.MaxPaths, "untouched field keeps its default")
}

func TestErrorFormatting(t *testing.T) {
	plain := &config.Error{Reason: "-fn is required"}
	assert.Equal(t, "config: -fn is required", plain.Error())
	assert.Nil(t, plain.Unwrap())

	wrapped := &config.Error{Reason: "parsing spec.yaml", Err: assert.AnError}
	assert.Contains(t, wrapped.Error(), "parsing spec.yaml")
	assert.Contains(t, wrapped.Error(), assert.AnError.Error())
	assert.Equal(t, assert.AnError, wrapped.Unwrap())
}
