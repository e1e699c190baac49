package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed packs/*.yaml
var packsFS embed.FS

const rolesFile = "packs/roles.yaml"

// roleDoc mirrors the on-disk roles.yaml schema.
type roleDoc struct {
	ID     string `yaml:"id"`
	Label  string `yaml:"label"`
	Family string `yaml:"family"`
	Active *bool  `yaml:"active,omitempty"`
}

// optionDoc mirrors one trait/scenario/vibe entry.
type optionDoc struct {
	ID    string   `yaml:"id"`
	Label string   `yaml:"label"`
	Tags  []string `yaml:"tags,omitempty"`
}

// groupDoc mirrors one responsibility group entry.
type groupDoc struct {
	ID    string      `yaml:"id"`
	Label string      `yaml:"label"`
	Items []optionDoc `yaml:"items"`
}

// packDoc mirrors a per-family pack file.
type packDoc struct {
	Family    string      `yaml:"family"`
	Traits    []optionDoc `yaml:"traits"`
	Scenarios []optionDoc `yaml:"scenarios"`
	Vibes     []optionDoc `yaml:"vibes"`
	Groups    []groupDoc  `yaml:"responsibility_groups"`
}

// Load parses the embedded role table and content packs into a Registry.
func Load() (*Registry, error) {
	rolesRaw, err := packsFS.ReadFile(rolesFile)
	if err != nil {
		return nil, fmt.Errorf("read roles file: %w", err)
	}
	var roleDocs []roleDoc
	if err := yaml.Unmarshal(rolesRaw, &roleDocs); err != nil {
		return nil, fmt.Errorf("decode roles file: %w", err)
	}
	if len(roleDocs) == 0 {
		return nil, fmt.Errorf("roles file is empty")
	}

	registry := &Registry{packs: make(map[Family]ContentPack)}
	seenRoles := make(map[string]struct{}, len(roleDocs))
	for _, doc := range roleDocs {
		roleID := strings.TrimSpace(doc.ID)
		if roleID == "" {
			return nil, fmt.Errorf("role with empty id")
		}
		if _, dup := seenRoles[roleID]; dup {
			return nil, fmt.Errorf("duplicate role id %q", roleID)
		}
		seenRoles[roleID] = struct{}{}
		family, err := FamilyFromLabel(doc.Family)
		if err != nil {
			return nil, fmt.Errorf("role %q: %w", roleID, err)
		}
		active := true
		if doc.Active != nil {
			active = *doc.Active
		}
		registry.roles = append(registry.roles, Role{
			ID:     roleID,
			Label:  strings.TrimSpace(doc.Label),
			Family: family,
			Active: active,
		})
	}

	packFiles, err := fs.Glob(packsFS, "packs/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list pack files: %w", err)
	}
	sort.Strings(packFiles)
	for _, name := range packFiles {
		if name == rolesFile {
			continue
		}
		raw, err := packsFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read pack %s: %w", name, err)
		}
		pack, err := parsePack(raw)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", name, err)
		}
		if _, dup := registry.packs[pack.Family]; dup {
			return nil, fmt.Errorf("pack %s: duplicate family %s", name, pack.Family.Label())
		}
		registry.packs[pack.Family] = pack
	}

	for _, role := range registry.roles {
		if _, ok := registry.packs[role.Family]; !ok {
			return nil, fmt.Errorf("role %q references family %s with no pack", role.ID, role.Family.Label())
		}
	}
	return registry, nil
}

func parsePack(raw []byte) (ContentPack, error) {
	var doc packDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return ContentPack{}, fmt.Errorf("decode pack: %w", err)
	}
	family, err := FamilyFromLabel(doc.Family)
	if err != nil {
		return ContentPack{}, err
	}
	pack := ContentPack{
		Family:    family,
		Traits:    parseOptions(doc.Traits),
		Scenarios: parseOptions(doc.Scenarios),
		Vibes:     parseOptions(doc.Vibes),
	}
	if len(pack.Traits) == 0 {
		return ContentPack{}, fmt.Errorf("pack %s has no traits", family.Label())
	}
	for _, group := range doc.Groups {
		groupID := strings.TrimSpace(group.ID)
		if groupID == "" {
			return ContentPack{}, fmt.Errorf("pack %s has a group with empty id", family.Label())
		}
		parsed := ResponsibilityGroup{
			ID:    groupID,
			Label: strings.TrimSpace(group.Label),
		}
		for _, item := range group.Items {
			itemID := strings.TrimSpace(item.ID)
			if itemID == "" {
				return ContentPack{}, fmt.Errorf("pack %s group %s has an item with empty id", family.Label(), groupID)
			}
			parsed.Items = append(parsed.Items, ResponsibilityItem{
				ID:    itemID,
				Label: strings.TrimSpace(item.Label),
				Tags:  trimTags(item.Tags),
			})
		}
		pack.ResponsibilityGroups = append(pack.ResponsibilityGroups, parsed)
	}
	return pack, nil
}

func parseOptions(docs []optionDoc) []Option {
	if len(docs) == 0 {
		return nil
	}
	out := make([]Option, 0, len(docs))
	for _, doc := range docs {
		id := strings.TrimSpace(doc.ID)
		if id == "" {
			continue
		}
		out = append(out, Option{
			ID:    id,
			Label: strings.TrimSpace(doc.Label),
			Tags:  trimTags(doc.Tags),
		})
	}
	return out
}

func trimTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.ToLower(strings.TrimSpace(tag))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
