package ranking

import (
	"reflect"
	"testing"

	"github.com/shiftstory/shiftstory/internal/catalog"
	"github.com/shiftstory/shiftstory/internal/onboarding"
)

func barPack(t *testing.T) catalog.ContentPack {
	t.Helper()
	registry, err := catalog.Load()
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	pack, ok := registry.Pack("bartender-craft", catalog.FamilyBar)
	if !ok {
		t.Fatal("missing bar content pack")
	}
	return pack
}

func barRankSignals() onboarding.Signals {
	signals := onboarding.NewSignals()
	signals.RoleID = "bartender-craft"
	signals.RoleFamily = "bar"
	signals.ShineKeys = []string{"creative"}
	signals.BusyKeys = []string{"rush"}
	signals.VibeKey = "menu"
	return signals
}

func TestRankIsDeterministic(t *testing.T) {
	t.Parallel()

	pack := barPack(t)
	signals := barRankSignals()
	first := Rank(signals, pack)
	second := Rank(signals, pack)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs must produce identical rankings")
	}
}

func TestRankScoresStayInBounds(t *testing.T) {
	t.Parallel()

	pack := barPack(t)
	signals := barRankSignals()
	signals.ShineKeys = []string{"creative", "speed", "rush"}
	signals.BusyKeys = []string{"volume", "menu"}

	result := Rank(signals, pack)
	for _, group := range result.Groups {
		for _, item := range group.Items {
			if item.Score < 0 || item.Score > maxScore {
				t.Fatalf("item %s score %d out of [0,%d]", item.ID, item.Score, maxScore)
			}
		}
	}
}

func TestRankGroupsSortedByScoreDescending(t *testing.T) {
	t.Parallel()

	result := Rank(barRankSignals(), barPack(t))
	for _, group := range result.Groups {
		for i := 1; i < len(group.Items); i++ {
			if group.Items[i].Score > group.Items[i-1].Score {
				t.Fatalf("group %s not sorted: %d before %d", group.ID, group.Items[i-1].Score, group.Items[i].Score)
			}
		}
	}
}

func TestRankPinsGlobalTopThree(t *testing.T) {
	t.Parallel()

	result := Rank(barRankSignals(), barPack(t))
	if len(result.PinnedIDs) != pinnedCount {
		t.Fatalf("pinned = %d, want %d", len(result.PinnedIDs), pinnedCount)
	}

	scores := make(map[string]int)
	pinnedFlags := make(map[string]bool)
	for _, group := range result.Groups {
		for _, item := range group.Items {
			scores[item.ID] = item.Score
			pinnedFlags[item.ID] = item.Pinned
		}
	}
	lowestPinned := scores[result.PinnedIDs[len(result.PinnedIDs)-1]]
	for id, score := range scores {
		if pinnedFlags[id] {
			continue
		}
		if score > lowestPinned {
			t.Fatalf("unpinned item %s (score %d) outranks pinned floor %d", id, score, lowestPinned)
		}
	}
	for _, id := range result.PinnedIDs {
		if !pinnedFlags[id] {
			t.Fatalf("pinned id %s not flagged on its item", id)
		}
	}
}

func TestRankRecommendedMixDiversifiesAcrossGroups(t *testing.T) {
	t.Parallel()

	result := Rank(barRankSignals(), barPack(t))
	if len(result.RecommendedMix) > mixGlobalLimit {
		t.Fatalf("mix = %d ids, cap is %d", len(result.RecommendedMix), mixGlobalLimit)
	}

	groupOf := make(map[string]string)
	for _, group := range result.Groups {
		for _, item := range group.Items {
			groupOf[item.ID] = item.Group
		}
	}
	seen := make(map[string]int)
	for _, id := range result.RecommendedMix {
		seen[groupOf[id]]++
	}
	// Three groups with two leading picks each fill six of the eight
	// slots, so every group must be represented at least twice.
	for _, group := range result.Groups {
		if seen[group.ID] < mixPerGroup {
			t.Fatalf("group %s has %d mix picks, want at least %d", group.ID, seen[group.ID], mixPerGroup)
		}
	}
}

func TestRankMatchingShineTagLiftsScore(t *testing.T) {
	t.Parallel()

	signals := onboarding.NewSignals()
	signals.RoleID = "bartender-craft"
	signals.ShineKeys = []string{"creative"}

	result := Rank(signals, barPack(t))
	var matched RankedItem
	for _, group := range result.Groups {
		for _, item := range group.Items {
			if item.ID == "built-seasonal-cocktails" {
				matched = item
			}
		}
	}
	if matched.ID == "" {
		t.Fatal("expected built-seasonal-cocktails in the bar pack")
	}
	if matched.Score < baseScore+shineWeight {
		t.Fatalf("score = %d, want at least %d for a shine match", matched.Score, baseScore+shineWeight)
	}
}

func TestRankEmptySignalsStillTotalOrder(t *testing.T) {
	t.Parallel()

	pack := barPack(t)
	first := Rank(onboarding.NewSignals(), pack)
	second := Rank(onboarding.NewSignals(), pack)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("tie-breaks must be stable with no signals at all")
	}
}

func TestMatchCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		keys []string
		tags []string
		want int
	}{
		{"exact", []string{"creative"}, []string{"creative"}, 1},
		{"key contains tag", []string{"high_volume"}, []string{"volume"}, 1},
		{"tag contains key", []string{"rush"}, []string{"rush_hour"}, 1},
		{"case insensitive", []string{"Creative"}, []string{"creative"}, 1},
		{"blank key skipped", []string{" ", "creative"}, []string{"creative"}, 1},
		{"one match per key", []string{"creative"}, []string{"creative", "creative_menu"}, 1},
		{"no match", []string{"mentor"}, []string{"speed"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := matchCount(tc.keys, tc.tags); got != tc.want {
				t.Fatalf("matchCount = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTieBreakStableAndBounded(t *testing.T) {
	t.Parallel()

	for _, seed := range []string{"", "a", "built-seasonal-cocktails|bartender-craft"} {
		first := tieBreak(seed, 100)
		second := tieBreak(seed, 100)
		if first != second {
			t.Fatalf("tieBreak(%q) unstable: %d then %d", seed, first, second)
		}
		if first < 0 || first >= 100 {
			t.Fatalf("tieBreak(%q) = %d out of [0,100)", seed, first)
		}
	}
}

func TestClampScore(t *testing.T) {
	t.Parallel()

	if got := clampScore(150); got != maxScore {
		t.Fatalf("clamp high = %d", got)
	}
	if got := clampScore(-5); got != 0 {
		t.Fatalf("clamp low = %d", got)
	}
	if got := clampScore(73); got != 73 {
		t.Fatalf("clamp passthrough = %d", got)
	}
}
