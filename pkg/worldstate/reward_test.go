package worldstate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func rewardContext() *Context {
	row := func(label string, rot string, item string) Bounty {
		return Bounty{
			BountyLevel: label,
			Rewards:     map[string][]DropItem{rot: {{ItemName: item, Rarity: "Common", Chance: 25}}},
		}
	}
	return &Context{Data: WorldstateData{Bounties: BountyTables{
		Cetus: []Bounty{
			row("Level 5 - 15 Cetus Bounty", "B", "Wrong Band"),
			row("Level 10 - 15 Cetus Bounty", "B", "Cetus Wisp"),
			row("Level 10 - 15 Ghoul Bounty", "A", "Ghoul Item"),
		},
		Deimos: []Bounty{
			row("Level 30 - 40 Isolation Vault", "C", "Vault Item"),
			row("Level 30 - 40 Cambion Drift Bounty", "A", "Drift Item"),
		},
	}}}
}

func TestRewardPath_Resolve(t *testing.T) {
	t.Parallel()
	ctx := rewardContext()
	cetus := SyndicateType{Kind: SyndicateOstrons}
	entrati := SyndicateType{Kind: SyndicateEntrati}

	tests := []struct {
		name     string
		raw      string
		rc       RotationContext
		wantItem string
		wantOK   bool
	}{
		{
			name:     "standard table",
			raw:      "/Lotus/Types/Game/MissionDecks/EidolonJobMissionRewards/TierCTableBRewards",
			rc:       RotationContext{Syndicate: cetus, MinLevel: 10, MaxLevel: 15},
			wantItem: "Cetus Wisp",
			wantOK:   true,
		},
		{
			name:     "ghoul table",
			raw:      "/Lotus/Types/Game/MissionDecks/EidolonJobMissionRewards/GhoulBountyTableARewards",
			rc:       RotationContext{Syndicate: cetus, MinLevel: 10, MaxLevel: 15},
			wantItem: "Ghoul Item",
			wantOK:   true,
		},
		{
			name:     "isolation vault uses tier letter",
			raw:      "/Lotus/Types/Game/MissionDecks/DeimosMissionRewards/TierCTableARewards",
			rc:       RotationContext{Syndicate: entrati, MinLevel: 30, MaxLevel: 40, IsVault: true},
			wantItem: "Vault Item",
			wantOK:   true,
		},
		{
			name:     "cambion drift",
			raw:      "/Lotus/Types/Game/MissionDecks/DeimosMissionRewards/TierCTableARewards",
			rc:       RotationContext{Syndicate: entrati, MinLevel: 30, MaxLevel: 40},
			wantItem: "Drift Item",
			wantOK:   true,
		},
		{
			name: "missing level row",
			raw:  "/Lotus/Types/Game/MissionDecks/EidolonJobMissionRewards/TierCTableBRewards",
			rc:   RotationContext{Syndicate: cetus, MinLevel: 40, MaxLevel: 60},
		},
		{
			name: "missing rotation",
			raw:  "/Lotus/Types/Game/MissionDecks/EidolonJobMissionRewards/TierCTableCRewards",
			rc:   RotationContext{Syndicate: cetus, MinLevel: 10, MaxLevel: 15},
		},
		{
			name: "unmatched path",
			raw:  "/Lotus/Types/Game/MissionDecks/SomethingElse",
			rc:   RotationContext{Syndicate: cetus, MinLevel: 10, MaxLevel: 15},
		},
		{
			name: "syndicate without bounties",
			raw:  "/Lotus/Types/Game/MissionDecks/EidolonJobMissionRewards/TierCTableBRewards",
			rc:   RotationContext{Syndicate: SyndicateType{Kind: SyndicatePerrin}, MinLevel: 10, MaxLevel: 15},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			items, ok := RewardPath{raw: tt.raw}.Resolve(ctx, tt.rc)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if items != nil {
					t.Errorf("items = %v, want nil", items)
				}
				return
			}
			want := []DropItem{{ItemName: tt.wantItem, Rarity: "Common", Chance: 25}}
			if diff := cmp.Diff(want, items); diff != "" {
				t.Errorf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRewardPath_NilContext(t *testing.T) {
	t.Parallel()
	p := RewardPath{raw: "TierCTableBRewards"}
	if items, ok := p.Resolve(nil, RotationContext{}); ok || items != nil {
		t.Errorf("Resolve(nil) = %v, %v; want nil, false", items, ok)
	}
}
