package network

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestMarkStage(t *testing.T) {
	cause := errors.New("boom")
	for stage, ref := range stageErrors {
		err := MarkStage(cause, stage)
		assert.ErrorIs(t, err, cause)
		assert.True(t, errors.Is(err, ref))
		assert.Equal(t, stage, StageOf(err))
		assert.Contains(t, err.Error(), string(stage))
	}
	assert.NoError(t, MarkStage(nil, StageEncode))
	assert.Equal(t, cause, MarkStage(cause, Stage("unknown")))
	assert.Equal(t, Stage(""), StageOf(cause))
}
