package coach

import (
	"math"
	"time"
)

// Time-of-day buckets. Night wraps past midnight.
const (
	WindowMorning        = "Morning (4-9 AM)"
	WindowLateMorning    = "Late Morning (9 AM-12 PM)"
	WindowEarlyAfternoon = "Early Afternoon (12-3 PM)"
	WindowMidAfternoon   = "Mid Afternoon (3-6 PM)"
	WindowEvening        = "Evening (6-10 PM)"
	WindowNight          = "Night (10 PM-4 AM)"
)

// PatternPolicy holds the inference thresholds. The defaults are tuned
// empirically; treat them as adjustable policy, not derived truths.
type PatternPolicy struct {
	MaxSamples  int     // most recent samples considered
	MinSamples  int     // below this, no opinion
	BucketShare float64 // bucket kept if count >= max(2, ceil(top*share))
}

// DefaultPatternPolicy matches the tuned production behavior.
func DefaultPatternPolicy() PatternPolicy {
	return PatternPolicy{MaxSamples: 12, MinSamples: 3, BucketShare: 0.5}
}

// PatternProfile is the inferred routine for one action: the usual
// weekdays and time-of-day windows, or empty when the signal is too
// thin to say anything.
type PatternProfile struct {
	Weekdays    []string `json:"weekdays"`
	TimeWindows []string `json:"time_windows"`
	SampleCount int      `json:"sample_count"`
	Confidence  float64  `json:"confidence"`
}

// Empty reports whether inference declined to guess.
func (p PatternProfile) Empty() bool {
	return len(p.Weekdays) == 0 && len(p.TimeWindows) == 0
}

// TimeWindowFor maps an hour of day to its bucket label.
func TimeWindowFor(hour int) string {
	switch {
	case hour >= 4 && hour < 9:
		return WindowMorning
	case hour >= 9 && hour < 12:
		return WindowLateMorning
	case hour >= 12 && hour < 15:
		return WindowEarlyAfternoon
	case hour >= 15 && hour < 18:
		return WindowMidAfternoon
	case hour >= 18 && hour < 22:
		return WindowEvening
	default:
		return WindowNight
	}
}

// weekdayOrder and windowOrder fix the emit order so two runs over the
// same samples produce identical profiles.
var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var windowOrder = []string{
	WindowMorning, WindowLateMorning, WindowEarlyAfternoon,
	WindowMidAfternoon, WindowEvening, WindowNight,
}

// InferPattern detects the recurring weekdays and time-of-day windows
// for an action from its historical timestamps. Samples must be sorted
// most recent first; only the newest MaxSamples count. A bucket is
// emitted when its count reaches max(2, ceil(top*BucketShare)), which
// allows two routines to surface (weekday mornings plus weekend
// afternoons) instead of a single best guess. Fewer than MinSamples
// events, or a modal bucket below 2, yields an empty profile: too
// little signal to guess.
func InferPattern(samples []time.Time, loc *time.Location, policy PatternPolicy) PatternProfile {
	if len(samples) < policy.MinSamples {
		return PatternProfile{SampleCount: len(samples)}
	}

	recent := samples
	if len(recent) > policy.MaxSamples {
		recent = recent[:policy.MaxSamples]
	}

	weekdayCounts := make(map[string]int)
	windowCounts := make(map[string]int)
	for _, s := range recent {
		lt := s.In(loc)
		weekdayCounts[lt.Weekday().String()]++
		windowCounts[TimeWindowFor(lt.Hour())]++
	}

	profile := PatternProfile{
		Weekdays:    keepBuckets(weekdayCounts, weekdayOrder, policy.BucketShare),
		TimeWindows: keepBuckets(windowCounts, windowOrder, policy.BucketShare),
		SampleCount: len(recent),
	}
	profile.Confidence = patternConfidence(weekdayCounts, len(recent))
	return profile
}

// keepBuckets emits every bucket whose count clears the share-of-modal
// threshold. Modal count below 2 means no bucket is emitted at all.
func keepBuckets(counts map[string]int, order []string, share float64) []string {
	top := 0
	for _, c := range counts {
		if c > top {
			top = c
		}
	}
	if top < 2 {
		return nil
	}

	threshold := int(math.Ceil(float64(top) * share))
	if threshold < 2 {
		threshold = 2
	}

	var kept []string
	for _, label := range order {
		if counts[label] >= threshold {
			kept = append(kept, label)
		}
	}
	return kept
}

// patternConfidence is the modal weekday's share of the sample, a
// cheap volume indicator carried into the cache fingerprint.
func patternConfidence(weekdayCounts map[string]int, n int) float64 {
	if n == 0 {
		return 0
	}
	top := 0
	for _, c := range weekdayCounts {
		if c > top {
			top = c
		}
	}
	return float64(top) / float64(n)
}
