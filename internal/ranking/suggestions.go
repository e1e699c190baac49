package ranking

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/shiftstory/shiftstory/internal/onboarding"
)

//go:embed banks.yaml
var banksFS embed.FS

// fallbackFamily is used when the signals name an unknown family. The
// silent fallback mirrors long-standing client behavior; see DESIGN.md.
const fallbackFamily = "service"

const suggestionTieBound = 10

var loadBanks = sync.OnceValues(func() (map[string][]string, error) {
	raw, err := banksFS.ReadFile("banks.yaml")
	if err != nil {
		return nil, fmt.Errorf("read suggestion banks: %w", err)
	}
	var banks map[string][]string
	if err := yaml.Unmarshal(raw, &banks); err != nil {
		return nil, fmt.Errorf("decode suggestion banks: %w", err)
	}
	if len(banks[fallbackFamily]) == 0 {
		return nil, fmt.Errorf("suggestion banks missing %q fallback", fallbackFamily)
	}
	return banks, nil
})

// RankSuggestions scores the per-family highlight sentence bank against
// the signals and returns the top take candidates, best first. An unknown
// family falls back to the service bank.
func RankSuggestions(signals onboarding.Signals, take int) ([]string, error) {
	banks, err := loadBanks()
	if err != nil {
		return nil, err
	}
	bank := banks[strings.ToLower(strings.TrimSpace(signals.RoleFamily))]
	if len(bank) == 0 {
		bank = banks[fallbackFamily]
	}

	salt := serializeSignals(signals)
	type scored struct {
		text  string
		score int
		tie   int
	}
	candidates := make([]scored, 0, len(bank))
	for _, text := range bank {
		tie := tieBreak(text+salt, suggestionTieBound)
		candidates = append(candidates, scored{
			text:  text,
			score: scoreSuggestion(signals, text, tie),
			tie:   tie,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].tie != candidates[j].tie {
			return candidates[i].tie > candidates[j].tie
		}
		return candidates[i].text < candidates[j].text
	})

	if take <= 0 || take > len(candidates) {
		take = len(candidates)
	}
	out := make([]string, 0, take)
	for _, candidate := range candidates[:take] {
		out = append(out, candidate.text)
	}
	return out, nil
}

func scoreSuggestion(signals onboarding.Signals, text string, tie int) int {
	lower := strings.ToLower(text)
	score := baseScore + tie
	for _, key := range signals.ShineKeys {
		if containsKey(lower, key) {
			score += shineWeight
		}
	}
	for _, key := range signals.BusyKeys {
		if containsKey(lower, key) {
			score += busyWeight
		}
	}
	if containsKey(lower, signals.VibeKey) {
		score += vibeWeight
	}
	return clampScore(score)
}

// containsKey matches a selection key against candidate text. Keys use
// underscore separators while sentences use spaces, so both forms count.
func containsKey(lowerText, key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	if strings.Contains(lowerText, key) {
		return true
	}
	spaced := strings.ReplaceAll(key, "_", " ")
	return spaced != key && strings.Contains(lowerText, spaced)
}

// serializeSignals renders the ranking-relevant signal fields in a stable
// order for use as a hash salt.
func serializeSignals(signals onboarding.Signals) string {
	var b strings.Builder
	b.WriteString("|role=")
	b.WriteString(signals.RoleID)
	b.WriteString("|shine=")
	b.WriteString(strings.Join(signals.ShineKeys, ","))
	b.WriteString("|busy=")
	b.WriteString(strings.Join(signals.BusyKeys, ","))
	b.WriteString("|vibe=")
	b.WriteString(signals.VibeKey)
	return b.String()
}
