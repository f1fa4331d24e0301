package account

import "strings"

// everyoneGroup is a synthetic provider group that every subject belongs to;
// it is never a real authority.
const everyoneGroup = "everyone"

// ReconcileAuthorities derives the caller's authority set. A group claim,
// when present, is authoritative and fully replaces the authentication
// layer's own list; without one the layer's list is used verbatim. The
// result is deduplicated and never contains the "everyone" sentinel.
func ReconcileAuthorities(claims map[string]any, granted []string) []string {
	groups, ok := groupsClaim(claims)
	if !ok {
		return dedup(granted)
	}

	filtered := make([]string, 0, len(groups))
	for _, g := range groups {
		if strings.EqualFold(g, everyoneGroup) {
			continue
		}
		filtered = append(filtered, g)
	}
	return dedup(filtered)
}

func groupsClaim(claims map[string]any) ([]string, bool) {
	raw, ok := claims[claimGroups].([]any)
	if !ok {
		return nil, false
	}
	groups := make([]string, 0, len(raw))
	for _, g := range raw {
		if s, ok := g.(string); ok {
			groups = append(groups, s)
		}
	}
	return groups, true
}

func dedup(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
