// Summary text composition for aggregated reaction notifications.
package notify

import (
	"fmt"
	"strings"
)

// BatchTitle is the headline for an aggregated reaction notification.
// count is the total number of reaction events in the window, never the
// number of unique reactors.
func BatchTitle(count int) string {
	if count == 1 {
		return "1 new reaction"
	}
	return fmt.Sprintf("%d new reactions", count)
}

// BatchBody renders the reactor summary line:
//
//	one name    → "Ana reacted to your photo"
//	two names   → "Ana and Beto reacted to your photo"
//	three plus  → "Ana, Beto and 2 others reacted to your photo"
//
// names carries unique display names; order is preserved as given. An empty
// slice yields a generic line as a defensive fallback.
func BatchBody(names []string) string {
	switch len(names) {
	case 0:
		return "Someone reacted to your photo"
	case 1:
		return names[0] + " reacted to your photo"
	case 2:
		return names[0] + " and " + names[1] + " reacted to your photo"
	default:
		others := len(names) - 2
		noun := "others"
		if others == 1 {
			noun = "other"
		}
		return fmt.Sprintf("%s and %d %s reacted to your photo",
			strings.Join(names[:2], ", "), others, noun)
	}
}

// ImmediateBody renders the first-reaction line for a single reactor.
func ImmediateBody(reactorName string) string {
	if reactorName == "" {
		return "Someone reacted to your photo"
	}
	return reactorName + " reacted to your photo"
}
