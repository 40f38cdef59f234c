package application

import "strings"

// unknownBucket collects attendees whose demographic field is absent or
// unparseable, so the bucket counts always sum to the population size.
const unknownBucket = "unknown"

// ageBucket maps an optional age to its reporting bucket. Every attendee
// lands in exactly one bucket.
func ageBucket(age *int) string {
	if age == nil || *age < 0 {
		return unknownBucket
	}
	switch {
	case *age < 18:
		return "0-17"
	case *age < 25:
		return "18-24"
	case *age < 35:
		return "25-34"
	case *age < 45:
		return "35-44"
	case *age < 55:
		return "45-54"
	default:
		return "55+"
	}
}

// genderBucket normalizes the free-text gender field into a counting key.
func genderBucket(gender string) string {
	normalized := strings.ToLower(strings.TrimSpace(gender))
	if normalized == "" {
		return unknownBucket
	}
	return normalized
}
