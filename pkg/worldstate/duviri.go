package worldstate

import "time"

// DuviriMood is a state of the Duviri spiral.
type DuviriMood string

const (
	MoodJoy    DuviriMood = "Joy"
	MoodAnger  DuviriMood = "Anger"
	MoodEnvy   DuviriMood = "Envy"
	MoodSorrow DuviriMood = "Sorrow"
	MoodFear   DuviriMood = "Fear"
)

var duviriMoods = [...]DuviriMood{MoodJoy, MoodAnger, MoodEnvy, MoodSorrow, MoodFear}

// Next returns the mood that follows m.
func (m DuviriMood) Next() DuviriMood {
	for i, v := range duviriMoods {
		if v == m {
			return duviriMoods[(i+1)%len(duviriMoods)]
		}
	}
	return MoodJoy
}

// MoodDuration is how long each Duviri mood lasts.
const MoodDuration = 2 * time.Hour

// knownJoyStart is an observed start of a Joy phase.
var knownJoyStart = time.Date(2026, time.February, 4, 22, 0, 0, 0, time.UTC)

// DuviriCycle is the Duviri mood active at a point in time.
type DuviriCycle struct {
	State      DuviriMood `json:"state"`
	Activation time.Time  `json:"activation"`
	Expiry     time.Time  `json:"expiry"`
}

// DuviriAt computes the Duviri mood at t. The cycle is periodic in both
// directions from the anchor, so times before it work too.
func DuviriAt(t time.Time) DuviriCycle {
	t = t.UTC().Truncate(time.Second)
	mood := int64(MoodDuration / time.Second)
	total := mood * int64(len(duviriMoods))

	elapsed := t.Unix() - knownJoyStart.Unix()
	offset := ((elapsed % total) + total) % total

	into := offset % mood
	activation := t.Add(-time.Duration(into) * time.Second)
	return DuviriCycle{
		State:      duviriMoods[offset/mood],
		Activation: activation,
		Expiry:     activation.Add(MoodDuration),
	}
}

// TimeLeft is the time from now until the mood ends.
func (c DuviriCycle) TimeLeft(now time.Time) time.Duration {
	return c.Expiry.Sub(now)
}
