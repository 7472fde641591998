package indeed

import "strings"

// RemoteLocation is reported when a posting carries no location fields
const RemoteLocation = "Remote"

// FormatLocation joins city and state, falls back to country alone, and
// reports RemoteLocation when nothing is known.
func FormatLocation(city, state, country string) string {
	var parts []string
	for _, p := range []string{city, state} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if country = strings.TrimSpace(country); country != "" {
		return country
	}
	return RemoteLocation
}
