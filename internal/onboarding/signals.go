package onboarding

import "strings"

// Selection caps enforced when merging signal updates.
const (
	// MaxShineKeys caps trait selections.
	MaxShineKeys = 3
	// MaxBusyKeys caps scenario selections.
	MaxBusyKeys = 2
	// RecommendedResponsibilities is the soft cap surfaced to clients.
	RecommendedResponsibilities = 8
)

// Signals is the accumulated answer set for one role being onboarded.
// It is mutated only through Merge; dates use the YYYY-MM form.
type Signals struct {
	RoleID           string   `json:"role_id"`
	RoleFamily       string   `json:"role_family"`
	ShineKeys        []string `json:"shine_keys"`
	BusyKeys         []string `json:"busy_keys"`
	VibeKey          string   `json:"vibe_key,omitempty"`
	OrgName          string   `json:"org_name,omitempty"`
	StartDate        string   `json:"start_date,omitempty"`
	EndDate          string   `json:"end_date,omitempty"`
	HighlightText    string   `json:"highlight_text,omitempty"`
	Responsibilities []string `json:"responsibilities"`
}

// SignalsPatch carries a shallow partial update. Nil fields are left
// untouched; set fields replace the current value wholesale.
type SignalsPatch struct {
	RoleID           *string   `json:"role_id,omitempty"`
	RoleFamily       *string   `json:"role_family,omitempty"`
	ShineKeys        *[]string `json:"shine_keys,omitempty"`
	BusyKeys         *[]string `json:"busy_keys,omitempty"`
	VibeKey          *string   `json:"vibe_key,omitempty"`
	OrgName          *string   `json:"org_name,omitempty"`
	StartDate        *string   `json:"start_date,omitempty"`
	EndDate          *string   `json:"end_date,omitempty"`
	HighlightText    *string   `json:"highlight_text,omitempty"`
	Responsibilities *[]string `json:"responsibilities,omitempty"`
}

// NewSignals returns an empty Signals with non-nil selection slices.
func NewSignals() Signals {
	return Signals{
		ShineKeys:        []string{},
		BusyKeys:         []string{},
		Responsibilities: []string{},
	}
}

// Clone returns a deep copy of the signals.
func (s Signals) Clone() Signals {
	out := s
	out.ShineKeys = cloneKeys(s.ShineKeys)
	out.BusyKeys = cloneKeys(s.BusyKeys)
	out.Responsibilities = cloneKeys(s.Responsibilities)
	return out
}

// Merge applies a shallow patch and returns the merged signals. List
// selections are normalized to their caps; content validation stays the
// guard's job at transition time.
func (s Signals) Merge(patch SignalsPatch) Signals {
	out := s.Clone()
	if patch.RoleID != nil {
		out.RoleID = strings.TrimSpace(*patch.RoleID)
	}
	if patch.RoleFamily != nil {
		out.RoleFamily = strings.TrimSpace(*patch.RoleFamily)
	}
	if patch.ShineKeys != nil {
		out.ShineKeys = capKeys(*patch.ShineKeys, MaxShineKeys)
	}
	if patch.BusyKeys != nil {
		out.BusyKeys = capKeys(*patch.BusyKeys, MaxBusyKeys)
	}
	if patch.VibeKey != nil {
		out.VibeKey = strings.TrimSpace(*patch.VibeKey)
	}
	if patch.OrgName != nil {
		out.OrgName = strings.TrimSpace(*patch.OrgName)
	}
	if patch.StartDate != nil {
		out.StartDate = strings.TrimSpace(*patch.StartDate)
	}
	if patch.EndDate != nil {
		out.EndDate = strings.TrimSpace(*patch.EndDate)
	}
	if patch.HighlightText != nil {
		out.HighlightText = strings.TrimSpace(*patch.HighlightText)
	}
	if patch.Responsibilities != nil {
		out.Responsibilities = capKeys(*patch.Responsibilities, len(*patch.Responsibilities))
	}
	return out
}

func capKeys(keys []string, limit int) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
		if len(out) == limit {
			break
		}
	}
	return out
}

func cloneKeys(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}
