// Package diff compares two template drafts field by field.
//
// Top-level scalar fields are reported under the "draft" section; nested
// values keep their path, so a changed button label shows up as section
// "buttons.0", key "text".
package diff

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nebari-dev/wabastudio/internal/composer"
)

// ChangeType represents the type of change in a diff.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

const rootSection = "draft"

// Change is a single field difference.
type Change struct {
	Section  string     `json:"section"`
	Key      string     `json:"key"`
	Type     ChangeType `json:"type"`
	OldValue string     `json:"old_value,omitempty"`
	NewValue string     `json:"new_value,omitempty"`
}

// DraftDiff is the difference between two drafts.
type DraftDiff struct {
	Changes []Change `json:"changes"`
}

// HasChanges returns true if there are any differences.
func (d *DraftDiff) HasChanges() bool {
	return len(d.Changes) > 0
}

func (d *DraftDiff) Added() []Change    { return d.filterByType(ChangeAdded) }
func (d *DraftDiff) Removed() []Change  { return d.filterByType(ChangeRemoved) }
func (d *DraftDiff) Modified() []Change { return d.filterByType(ChangeModified) }

func (d *DraftDiff) filterByType(t ChangeType) []Change {
	var result []Change
	for _, c := range d.Changes {
		if c.Type == t {
			result = append(result, c)
		}
	}
	return result
}

// Compare produces the field-level diff from oldDraft to newDraft.
func Compare(oldDraft, newDraft composer.Draft) (*DraftDiff, error) {
	oldMap, err := toMap(oldDraft)
	if err != nil {
		return nil, fmt.Errorf("failed to read old draft: %w", err)
	}
	newMap, err := toMap(newDraft)
	if err != nil {
		return nil, fmt.Errorf("failed to read new draft: %w", err)
	}

	diff := &DraftDiff{}
	compareMaps(oldMap, newMap, "", diff)
	return diff, nil
}

// toMap flattens a draft into nested maps. Lists of objects (buttons) become
// maps keyed by index so each entry diffs on its own.
func toMap(d composer.Draft) (map[string]interface{}, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return normalize(m).(map[string]interface{}), nil
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, inner := range t {
			t[k] = normalize(inner)
		}
		return t
	case []interface{}:
		if len(t) == 0 {
			return nil
		}
		if _, ok := t[0].(map[string]interface{}); !ok {
			return t
		}
		indexed := make(map[string]interface{}, len(t))
		for i, item := range t {
			indexed[strconv.Itoa(i)] = normalize(item)
		}
		return indexed
	default:
		return v
	}
}

func compareMaps(oldMap, newMap map[string]interface{}, prefix string, diff *DraftDiff) {
	allKeys := make(map[string]bool)
	for k := range oldMap {
		allKeys[k] = true
	}
	for k := range newMap {
		allKeys[k] = true
	}
	keys := make([]string, 0, len(allKeys))
	for k := range allKeys {
		keys = append(keys, k)
	}
	sortKeys(keys)

	section := prefix
	if section == "" {
		section = rootSection
	}

	for _, key := range keys {
		oldVal, oldExists := oldMap[key]
		newVal, newExists := newMap[key]
		if oldVal == nil {
			oldExists = false
		}
		if newVal == nil {
			newExists = false
		}

		switch {
		case !oldExists && !newExists:
			continue
		case !oldExists:
			addChangesForValue(section, key, subPrefix(prefix, key), newVal, ChangeAdded, diff)
			continue
		case !newExists:
			addChangesForValue(section, key, subPrefix(prefix, key), oldVal, ChangeRemoved, diff)
			continue
		}

		oldSub, oldIsMap := oldVal.(map[string]interface{})
		newSub, newIsMap := newVal.(map[string]interface{})
		if oldIsMap && newIsMap {
			compareMaps(oldSub, newSub, subPrefix(prefix, key), diff)
			continue
		}

		oldStr, newStr := formatValue(oldVal), formatValue(newVal)
		if oldStr != newStr {
			diff.Changes = append(diff.Changes, Change{
				Section:  section,
				Key:      key,
				Type:     ChangeModified,
				OldValue: oldStr,
				NewValue: newStr,
			})
		}
	}
}

func subPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// addChangesForValue records a whole value appearing or disappearing. Maps
// expand to one change per leaf.
func addChangesForValue(section, key, path string, val interface{}, changeType ChangeType, diff *DraftDiff) {
	if sub, ok := val.(map[string]interface{}); ok {
		keys := make([]string, 0, len(sub))
		for k := range sub {
			keys = append(keys, k)
		}
		sortKeys(keys)
		for _, k := range keys {
			if sub[k] == nil {
				continue
			}
			addChangesForValue(path, k, path+"."+k, sub[k], changeType, diff)
		}
		return
	}

	change := Change{Section: section, Key: key, Type: changeType}
	if changeType == ChangeAdded {
		change.NewValue = formatValue(val)
	} else {
		change.OldValue = formatValue(val)
	}
	diff.Changes = append(diff.Changes, change)
}

// sortKeys orders keys alphabetically, with numeric keys (list indexes) in
// numeric order.
func sortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
}

func formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatUnifiedDiff formats a DraftDiff as a unified diff string.
func FormatUnifiedDiff(diff *DraftDiff, sourceLabel, targetLabel string) string {
	if !diff.HasChanges() {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n", sourceLabel)
	fmt.Fprintf(&sb, "+++ %s\n", targetLabel)

	sectionChanges := make(map[string][]Change)
	var sectionOrder []string
	for _, c := range diff.Changes {
		if _, exists := sectionChanges[c.Section]; !exists {
			sectionOrder = append(sectionOrder, c.Section)
		}
		sectionChanges[c.Section] = append(sectionChanges[c.Section], c)
	}

	for _, section := range sectionOrder {
		fmt.Fprintf(&sb, "@@ %s @@\n", section)
		for _, c := range sectionChanges[section] {
			switch c.Type {
			case ChangeAdded:
				fmt.Fprintf(&sb, "+%s = %q\n", c.Key, c.NewValue)
			case ChangeRemoved:
				fmt.Fprintf(&sb, "-%s = %q\n", c.Key, c.OldValue)
			case ChangeModified:
				fmt.Fprintf(&sb, "-%s = %q\n", c.Key, c.OldValue)
				fmt.Fprintf(&sb, "+%s = %q\n", c.Key, c.NewValue)
			}
		}
	}

	return sb.String()
}
