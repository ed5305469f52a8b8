package worldstate

import (
	"testing"
	"time"
)

func TestDuviriAt(t *testing.T) {
	t.Parallel()
	anchor := knownJoyStart

	tests := []struct {
		name           string
		at             time.Time
		wantMood       DuviriMood
		wantActivation time.Time
	}{
		{name: "anchor", at: anchor, wantMood: MoodJoy, wantActivation: anchor},
		{name: "mid anger", at: anchor.Add(3 * time.Hour), wantMood: MoodAnger, wantActivation: anchor.Add(2 * time.Hour)},
		{name: "last second of fear", at: anchor.Add(10*time.Hour - time.Second), wantMood: MoodFear, wantActivation: anchor.Add(8 * time.Hour)},
		{name: "next cycle", at: anchor.Add(10 * time.Hour), wantMood: MoodJoy, wantActivation: anchor.Add(10 * time.Hour)},
		{name: "before anchor", at: anchor.Add(-time.Hour), wantMood: MoodFear, wantActivation: anchor.Add(-2 * time.Hour)},
		{name: "long before anchor", at: anchor.Add(-95 * time.Hour), wantMood: MoodEnvy, wantActivation: anchor.Add(-96 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DuviriAt(tt.at)
			if got.State != tt.wantMood {
				t.Errorf("state = %s, want %s", got.State, tt.wantMood)
			}
			if !got.Activation.Equal(tt.wantActivation) {
				t.Errorf("activation = %v, want %v", got.Activation, tt.wantActivation)
			}
			if !got.Expiry.Equal(tt.wantActivation.Add(MoodDuration)) {
				t.Errorf("expiry = %v, want activation + 2h", got.Expiry)
			}
		})
	}
}

func TestDuviriMood_Next(t *testing.T) {
	t.Parallel()
	if MoodFear.Next() != MoodJoy {
		t.Errorf("Fear.Next() = %s, want Joy", MoodFear.Next())
	}
	if MoodJoy.Next() != MoodAnger {
		t.Errorf("Joy.Next() = %s, want Anger", MoodJoy.Next())
	}
}
