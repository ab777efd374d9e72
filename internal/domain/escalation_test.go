package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMatrix() EscalationMatrix {
	return EscalationMatrix{
		{Level: 1, Trigger: TriggerWarningThreshold, WarningThresholdPct: 50, Channel: "slack"},
		{Level: 2, Trigger: TriggerWarningThreshold, WarningThresholdPct: 80, Channel: "slack"},
		{Level: 2, Trigger: TriggerBreach, Channel: "pager"},
		{Level: 3, Trigger: TriggerBreach, Channel: "pager"},
	}
}

func TestNextRule(t *testing.T) {
	matrix := sampleMatrix()

	rule := matrix.NextRule(TriggerWarningThreshold, 0)
	require.NotNil(t, rule)
	assert.Equal(t, 1, rule.Level)

	rule = matrix.NextRule(TriggerWarningThreshold, 1)
	require.NotNil(t, rule)
	assert.Equal(t, 2, rule.Level)

	assert.Nil(t, matrix.NextRule(TriggerWarningThreshold, 2))

	rule = matrix.NextRule(TriggerBreach, 1)
	require.NotNil(t, rule)
	assert.Equal(t, 2, rule.Level)
}

func TestValidateMatrix(t *testing.T) {
	require.NoError(t, ValidateMatrix(sampleMatrix()))
}

func TestValidateMatrixRejectsEmpty(t *testing.T) {
	assert.Error(t, ValidateMatrix(nil))
}

func TestValidateMatrixRejectsGaps(t *testing.T) {
	rules := []EscalationRule{
		{Level: 1, Trigger: TriggerWarningThreshold, WarningThresholdPct: 50, Channel: "slack"},
		{Level: 3, Trigger: TriggerBreach, Channel: "pager"},
	}
	assert.Error(t, ValidateMatrix(rules))
}

func TestValidateMatrixRejectsDuplicateLevelTrigger(t *testing.T) {
	rules := []EscalationRule{
		{Level: 1, Trigger: TriggerBreach, Channel: "pager"},
		{Level: 1, Trigger: TriggerBreach, Channel: "email"},
	}
	assert.Error(t, ValidateMatrix(rules))
}

func TestValidateMatrixRejectsBadThreshold(t *testing.T) {
	rules := []EscalationRule{
		{Level: 1, Trigger: TriggerWarningThreshold, WarningThresholdPct: 0, Channel: "slack"},
	}
	assert.Error(t, ValidateMatrix(rules))
}

func TestValidateMatrixAcceptsFractionalThreshold(t *testing.T) {
	rules := []EscalationRule{
		{Level: 1, Trigger: TriggerWarningThreshold, WarningThresholdPct: 62.5, Channel: "slack"},
	}
	assert.NoError(t, ValidateMatrix(rules))
}
