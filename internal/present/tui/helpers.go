package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mithrel/docman/internal/apperr"
	"github.com/mithrel/docman/internal/search"
)

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// statusFor renders an operation outcome for the footer. Stale responses
// are silent.
func statusFor(okMsg string, err error, dur time.Duration) string {
	if errors.Is(err, search.ErrStale) {
		return ""
	}
	if err != nil {
		return "Error: " + apperr.Message(err)
	}
	if dur > 0 {
		return fmt.Sprintf("%s (%s)", okMsg, dur.Round(time.Millisecond))
	}
	return okMsg
}
