package topics

import "strings"

// Matches reports whether topic matches the MQTT topic filter.
// A filter without wildcards matches only the identical topic string.
// "+" matches exactly one level, "#" matches the remaining levels
// (including zero of them) and is only legal as the final level.
// Malformed filters never match.
func Matches(filter, topic string) bool {
	levels, ok := SplitFilter(filter)
	if !ok {
		return false
	}
	return matchLevels(levels, strings.Split(topic, "/"))
}

// SplitFilter splits filter into its topic levels and validates wildcard
// placement. A level containing "+" or "#" mixed with other characters,
// or a "#" anywhere but the final level, marks the filter malformed.
func SplitFilter(filter string) ([]string, bool) {
	levels := strings.Split(filter, "/")
	for i, l := range levels {
		if strings.Contains(l, "#") {
			if l != "#" || i != len(levels)-1 {
				return nil, false
			}
		}
		if strings.Contains(l, "+") && l != "+" {
			return nil, false
		}
	}
	return levels, true
}

func matchLevels(filter, topic []string) bool {
	for i, f := range filter {
		if f == "#" {
			return true
		}
		if i >= len(topic) {
			return false
		}
		if f != "+" && f != topic[i] {
			return false
		}
	}
	return len(filter) == len(topic)
}
