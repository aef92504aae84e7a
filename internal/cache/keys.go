package cache

import "strings"

const (
	GlobalKeyPrefix = "reelquiz"

	outcomeService = "outcome"
)

// GenerateCacheKey generates a key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// OutcomeArtifactKey is the hash holding the latest outcome of one artifact.
func OutcomeArtifactKey(relPath string) string {
	return GenerateCacheKey(outcomeService, "artifact", relPath)
}

// OutcomeFailedSetKey is the set of artifacts whose latest RUN failed.
func OutcomeFailedSetKey() string {
	return strings.Join([]string{GlobalKeyPrefix, outcomeService, "failed"}, ":")
}

// OutcomeRunKey is the hash of per-run counters.
func OutcomeRunKey(runID string) string {
	return GenerateCacheKey(outcomeService, "run", runID)
}
