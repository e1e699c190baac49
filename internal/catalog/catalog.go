// Package catalog holds the static role and content-pack registry.
//
// The registry is immutable after Load: roles, families, and per-family
// content packs are parsed once from embedded YAML at process start and
// served by value afterwards. Lookups report absence explicitly; unknown
// roles or families never fall back to a default pack.
package catalog

import (
	"fmt"
	"strings"
)

// Family identifies a group of related roles sharing one content pack.
type Family int

const (
	// FamilyUnspecified represents an unknown or unset family value.
	FamilyUnspecified Family = iota
	// FamilyBar covers bartending roles.
	FamilyBar
	// FamilyService covers table-service roles.
	FamilyService
	// FamilyFrontDesk covers reception and front-of-house roles.
	FamilyFrontDesk
	// FamilyCoffee covers barista roles.
	FamilyCoffee
	// FamilyKitchen covers back-of-house roles.
	FamilyKitchen
	// FamilyManagement covers supervisory roles.
	FamilyManagement
)

// Label returns the stable lowercase label for a family.
func (f Family) Label() string {
	switch f {
	case FamilyBar:
		return "bar"
	case FamilyService:
		return "service"
	case FamilyFrontDesk:
		return "frontdesk"
	case FamilyCoffee:
		return "coffee"
	case FamilyKitchen:
		return "kitchen"
	case FamilyManagement:
		return "management"
	default:
		return "unspecified"
	}
}

// FamilyFromLabel parses a string label into a Family.
// It trims whitespace and matches case-insensitively.
func FamilyFromLabel(value string) (Family, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return FamilyUnspecified, fmt.Errorf("family is required")
	}
	switch strings.ToLower(trimmed) {
	case "bar":
		return FamilyBar, nil
	case "service":
		return FamilyService, nil
	case "frontdesk":
		return FamilyFrontDesk, nil
	case "coffee":
		return FamilyCoffee, nil
	case "kitchen":
		return FamilyKitchen, nil
	case "management":
		return FamilyManagement, nil
	default:
		return FamilyUnspecified, fmt.Errorf("unknown family: %s", trimmed)
	}
}

// Role is one selectable position in the role picker.
type Role struct {
	ID     string
	Label  string
	Family Family
	Active bool
}

// Option is one selectable trait, scenario, or vibe choice.
type Option struct {
	ID    string
	Label string
	Tags  []string
}

// ResponsibilityItem is one selectable responsibility line.
type ResponsibilityItem struct {
	ID    string
	Label string
	Tags  []string
}

// ResponsibilityGroup is an ordered cluster of responsibility items.
type ResponsibilityGroup struct {
	ID    string
	Label string
	Items []ResponsibilityItem
}

// ContentPack bundles every selectable option for one family.
type ContentPack struct {
	Family               Family
	Traits               []Option
	Scenarios            []Option
	Vibes                []Option
	ResponsibilityGroups []ResponsibilityGroup
}

// Registry resolves roles to families and families to content packs.
type Registry struct {
	roles []Role
	packs map[Family]ContentPack
}

// AvailableRoles returns active roles in declaration order.
func (r *Registry) AvailableRoles() []Role {
	if r == nil {
		return nil
	}
	out := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		if role.Active {
			out = append(out, role)
		}
	}
	return out
}

// Family resolves a role id to its family.
func (r *Registry) Family(roleID string) (Family, bool) {
	if r == nil {
		return FamilyUnspecified, false
	}
	roleID = strings.TrimSpace(roleID)
	for _, role := range r.roles {
		if role.ID == roleID {
			return role.Family, true
		}
	}
	return FamilyUnspecified, false
}

// Pack returns the content pack for a family. The role id is accepted for
// future per-role packs but does not affect selection today.
func (r *Registry) Pack(roleID string, family Family) (ContentPack, bool) {
	_ = roleID
	if r == nil {
		return ContentPack{}, false
	}
	pack, ok := r.packs[family]
	return pack, ok
}
