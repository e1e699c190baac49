// Package ranking scores catalog content against onboarding signals.
//
// Every ranking call is a pure function of its inputs and recomputes from
// scratch: identical signals and content yield byte-identical ordered
// output. Non-determinism here would make re-renders and tests flaky, so
// ties are broken by a stable hash, never by randomness.
package ranking

import (
	"sort"
	"strings"

	"github.com/shiftstory/shiftstory/internal/catalog"
	"github.com/shiftstory/shiftstory/internal/onboarding"
)

// Scoring weights. The tie-break term stays below the smallest weight so
// it nudges ordering among equals without dominating the signal terms.
const (
	baseScore   = 50
	shineWeight = 20
	busyWeight  = 15
	vibeWeight  = 10
	maxScore    = 100

	pinnedCount = 3
	mixPerGroup = 2
	mixGroupCap = 4

	// The mix stops at the selection count the wizard recommends.
	mixGlobalLimit = onboarding.RecommendedResponsibilities
)

// RankedItem is one scored responsibility line.
type RankedItem struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Group  string `json:"group"`
	Score  int    `json:"score"`
	Pinned bool   `json:"pinned"`
}

// RankedGroup holds one group's items in descending score order.
type RankedGroup struct {
	ID    string       `json:"id"`
	Label string       `json:"label"`
	Items []RankedItem `json:"items"`
}

// Result is a full responsibility ranking for one signals snapshot.
type Result struct {
	// Groups preserves pack group order; items within are score-sorted.
	Groups []RankedGroup `json:"groups"`
	// PinnedIDs are the three globally highest-scoring item ids.
	PinnedIDs []string `json:"pinned_ids"`
	// RecommendedMix is a diversified cross-group default selection,
	// capped at eight ids.
	RecommendedMix []string `json:"recommended_mix"`
}

// Rank scores every responsibility item in the pack against the signals.
func Rank(signals onboarding.Signals, pack catalog.ContentPack) Result {
	result := Result{}
	var flat []RankedItem

	for _, group := range pack.ResponsibilityGroups {
		ranked := RankedGroup{ID: group.ID, Label: group.Label}
		for _, item := range group.Items {
			ranked.Items = append(ranked.Items, RankedItem{
				ID:    item.ID,
				Label: item.Label,
				Group: group.ID,
				Score: scoreItem(signals, item),
			})
		}
		sortItems(ranked.Items, signals.RoleID)
		result.Groups = append(result.Groups, ranked)
		flat = append(flat, ranked.Items...)
	}

	sortItems(flat, signals.RoleID)
	pinned := make(map[string]struct{}, pinnedCount)
	for i := 0; i < len(flat) && i < pinnedCount; i++ {
		result.PinnedIDs = append(result.PinnedIDs, flat[i].ID)
		pinned[flat[i].ID] = struct{}{}
	}
	for gi := range result.Groups {
		for ii := range result.Groups[gi].Items {
			if _, ok := pinned[result.Groups[gi].Items[ii].ID]; ok {
				result.Groups[gi].Items[ii].Pinned = true
			}
		}
	}

	result.RecommendedMix = recommendedMix(result.Groups)
	return result
}

// recommendedMix takes the top two items from every group in group order,
// then backfills each group's 3rd and 4th ranked items until the global
// cap is reached.
func recommendedMix(groups []RankedGroup) []string {
	var mix []string
	for _, group := range groups {
		for i := 0; i < len(group.Items) && i < mixPerGroup; i++ {
			if len(mix) == mixGlobalLimit {
				return mix
			}
			mix = append(mix, group.Items[i].ID)
		}
	}
	for _, group := range groups {
		for i := mixPerGroup; i < len(group.Items) && i < mixGroupCap; i++ {
			if len(mix) == mixGlobalLimit {
				return mix
			}
			mix = append(mix, group.Items[i].ID)
		}
	}
	return mix
}

func scoreItem(signals onboarding.Signals, item catalog.ResponsibilityItem) int {
	score := baseScore
	score += shineWeight * matchCount(signals.ShineKeys, item.Tags)
	score += busyWeight * matchCount(signals.BusyKeys, item.Tags)
	if signals.VibeKey != "" && matchCount([]string{signals.VibeKey}, item.Tags) > 0 {
		score += vibeWeight
	}
	score += tieBreak(item.ID+"|"+signals.RoleID, 100)
	return clampScore(score)
}

// matchCount counts keys that match any tag, substring-inclusive in
// either direction and case-insensitive.
func matchCount(keys []string, tags []string) int {
	count := 0
	for _, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		for _, tag := range tags {
			tag = strings.ToLower(tag)
			if strings.Contains(tag, key) || strings.Contains(key, tag) {
				count++
				break
			}
		}
	}
	return count
}

func clampScore(score int) int {
	if score > maxScore {
		return maxScore
	}
	if score < 0 {
		return 0
	}
	return score
}

// sortItems orders by score descending, then stable hash descending, then
// id ascending as a final total-order anchor.
func sortItems(items []RankedItem, roleID string) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		ti := tieBreak(items[i].ID+"|"+roleID, 100)
		tj := tieBreak(items[j].ID+"|"+roleID, 100)
		if ti != tj {
			return ti > tj
		}
		return items[i].ID < items[j].ID
	})
}
