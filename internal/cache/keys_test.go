package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCacheKey(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		objectType  string
		identifier  string
		paramsKey   []string
		expectedKey string
	}{
		{
			name:        "without paramsKey",
			serviceName: "outcome",
			objectType:  "artifact",
			identifier:  "a/1.mp4",
			expectedKey: "reelquiz:outcome:artifact:a/1.mp4",
		},
		{
			name:        "with empty paramsKey",
			serviceName: "outcome",
			objectType:  "run",
			identifier:  "01HZX",
			paramsKey:   []string{},
			expectedKey: "reelquiz:outcome:run:01HZX",
		},
		{
			name:        "with multiple paramsKey",
			serviceName: "entry",
			objectType:  "index",
			identifier:  "data",
			paramsKey:   []string{"v1", "lenient"},
			expectedKey: "reelquiz:entry:index:data:v1_lenient",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedKey, GenerateCacheKey(tt.serviceName, tt.objectType, tt.identifier, tt.paramsKey...))
		})
	}
}

func TestOutcomeKeys(t *testing.T) {
	assert.Equal(t, "reelquiz:outcome:artifact:lessons/reel 01.mp4", OutcomeArtifactKey("lessons/reel 01.mp4"))
	assert.Equal(t, "reelquiz:outcome:failed", OutcomeFailedSetKey())
	assert.Equal(t, "reelquiz:outcome:run:01RUN", OutcomeRunKey("01RUN"))
}
