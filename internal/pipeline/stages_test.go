package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageRegistry_Ordered(t *testing.T) {
	prev := -1
	for _, def := range StageRegistry {
		assert.Greater(t, def.Percent, prev, def.Name)
		assert.NotEmpty(t, def.Message, def.Name)
		prev = def.Percent
	}
	assert.Equal(t, StageInit, StageRegistry[0].Name)
	assert.Equal(t, StageCompleted, StageRegistry[len(StageRegistry)-1].Name)
}

func TestGetStage(t *testing.T) {
	def, ok := GetStage(StageComplianceChecked)
	assert.True(t, ok)
	assert.Equal(t, 50, def.Percent)
	assert.Equal(t, 95, StagePersisted.Percent())

	_, ok = GetStage("unknown")
	assert.False(t, ok)
}
