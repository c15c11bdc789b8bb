package review

import "math"

const (
	// MinQuality and MaxQuality bound the self-assessed recall score.
	MinQuality int32 = 0
	MaxQuality int32 = 5

	// PassQuality is the lowest quality counted as a successful recall.
	PassQuality int32 = 3

	// DefaultEaseFactor seeds new progress records.
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor the ease factor never drops below.
	MinEaseFactor = 1.3

	firstInterval  int32 = 1
	secondInterval int32 = 6
)

// Schedule is the spaced repetition state carried on a progress record.
type Schedule struct {
	EaseFactor   float64
	IntervalDays int32
	Repetitions  int32
}

// ClampQuality forces a quality score into the valid 0-5 range.
func ClampQuality(quality int32) int32 {
	if quality < MinQuality {
		return MinQuality
	}
	if quality > MaxQuality {
		return MaxQuality
	}
	return quality
}

// NextSchedule advances the SM-2 state by one review of the given quality.
//
// A failed recall (quality < 3) resets the interval to one day and the
// repetition count to zero but leaves the ease factor untouched. A successful
// recall grows the interval through the fixed 1-day and 6-day steps, then
// multiplicatively by the ease factor as it stood before this review; the
// ease factor itself is adjusted afterwards and clamped at 1.3.
func NextSchedule(prev Schedule, quality int32) Schedule {
	quality = ClampQuality(quality)

	if quality < PassQuality {
		return Schedule{
			EaseFactor:   prev.EaseFactor,
			IntervalDays: firstInterval,
			Repetitions:  0,
		}
	}

	next := Schedule{Repetitions: prev.Repetitions + 1}
	switch next.Repetitions {
	case 1:
		next.IntervalDays = firstInterval
	case 2:
		next.IntervalDays = secondInterval
	default:
		next.IntervalDays = int32(math.Round(float64(prev.IntervalDays) * prev.EaseFactor))
	}
	if next.IntervalDays < firstInterval {
		next.IntervalDays = firstInterval
	}

	q := float64(quality)
	next.EaseFactor = prev.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if next.EaseFactor < MinEaseFactor {
		next.EaseFactor = MinEaseFactor
	}

	return next
}
