package shopagent

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRunLoggerFlush(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFileRunLogger(&buf)

	require.NoError(t, logger.LogStage(StageLog{Stage: StagePlan, Step: 1, Timestamp: time.Now()}))
	require.NoError(t, logger.LogStage(StageLog{Stage: StageRecipe, Step: 2, Timestamp: time.Now(), Error: "boom"}))
	assert.Zero(t, buf.Len(), "nothing written before flush")

	require.NoError(t, logger.Flush())

	var doc struct {
		Run struct {
			Stages []StageLog `json:"stages"`
		} `json:"run"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Run.Stages, 2)
	assert.Equal(t, StagePlan, doc.Run.Stages[0].Stage)
	assert.Equal(t, "boom", doc.Run.Stages[1].Error)

	// A second flush writes an empty document, not the old entries again.
	buf.Reset()
	require.NoError(t, logger.Flush())
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Empty(t, doc.Run.Stages)
}

func TestFileRunLoggerNilWriter(t *testing.T) {
	logger := NewFileRunLogger(nil)
	require.NoError(t, logger.LogStage(StageLog{Stage: StagePlan}))
	require.NoError(t, logger.Flush())
}

func TestNewRunLogFilePath(t *testing.T) {
	path := NewRunLogFilePath("mistral-small-latest")
	assert.Contains(t, path, "mistral-small-latest")
	assert.Contains(t, path, ".json")

	path = NewRunLogFilePath("Claude:3.7")
	assert.NotContains(t, path, ":", "colons are scrubbed for filesystem safety")
}
