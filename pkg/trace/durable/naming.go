package durable

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/l7mp/ddflow/pkg/trace"
)

const (
	artifactPrefix = "durability/"
	artifactSuffix = ".abom"
)

// DurationString formats a duration as 20 digits of seconds followed by 9 digits of nanoseconds.
func DurationString(d time.Duration) string {
	return fmt.Sprintf("%020d%09d", int64(d/time.Second), int64(d%time.Second))
}

// ArtifactName returns the name of the artifact of a batch persisted at the given time since the
// Unix epoch.
func ArtifactName(id trace.BatchIdentifier, sinceEpoch time.Duration) string {
	return artifactPrefix + id.String() + "-" + DurationString(sinceEpoch) + artifactSuffix
}

// artifactPrefixFor returns the common prefix of all artifact names of an identifier.
func artifactPrefixFor(id trace.BatchIdentifier) string {
	return artifactPrefix + id.String() + "-"
}

// ParseArtifactName splits an artifact name into its batch identifier and timestamp.
func ParseArtifactName(name string) (trace.BatchIdentifier, time.Duration, error) {
	rest, ok := strings.CutPrefix(name, artifactPrefix)
	if !ok {
		return trace.BatchIdentifier{}, 0, fmt.Errorf("artifact name %q: missing prefix %q", name, artifactPrefix)
	}
	rest, ok = strings.CutSuffix(rest, artifactSuffix)
	if !ok {
		return trace.BatchIdentifier{}, 0, fmt.Errorf("artifact name %q: missing suffix %q", name, artifactSuffix)
	}
	i := strings.LastIndexByte(rest, '-')
	if i < 0 || len(rest)-i-1 != 29 {
		return trace.BatchIdentifier{}, 0, fmt.Errorf("artifact name %q: malformed timestamp", name)
	}
	id, err := trace.ParseBatchIdentifier(rest[:i])
	if err != nil {
		return trace.BatchIdentifier{}, 0, fmt.Errorf("artifact name %q: %w", name, err)
	}
	ts := rest[i+1:]
	secs, err := strconv.ParseInt(ts[:20], 10, 64)
	if err != nil {
		return trace.BatchIdentifier{}, 0, fmt.Errorf("artifact name %q: %w", name, err)
	}
	nanos, err := strconv.ParseInt(ts[20:], 10, 64)
	if err != nil {
		return trace.BatchIdentifier{}, 0, fmt.Errorf("artifact name %q: %w", name, err)
	}
	return id, time.Duration(secs)*time.Second + time.Duration(nanos), nil
}
