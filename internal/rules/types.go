package rules

// ConditionType represents the type of condition
type ConditionType string

const (
	ConditionExtensionAny      ConditionType = "extension_any"
	ConditionNameContains      ConditionType = "name_contains"
	ConditionKind              ConditionType = "kind"
	ConditionCreatedWithinDays ConditionType = "created_within_days"
	ConditionSizeGTE           ConditionType = "size_gte"
	ConditionSizeLTE           ConditionType = "size_lte"
	ConditionIsFolder          ConditionType = "is_folder"
	ConditionIsAlias           ConditionType = "is_alias"
	ConditionHasTag            ConditionType = "has_tag"
)

// Mode selects how a rule combines its conditions.
type Mode string

const (
	// ModeAll requires every condition to match (conjunction).
	ModeAll Mode = "all"
	// ModeAny requires at least one condition to match (disjunction).
	ModeAny Mode = "any"
)

// Condition is one atomic predicate within a rule. Which value field is
// meaningful depends on Type; the others are ignored. Conditions are immutable
// once constructed.
type Condition struct {
	Type ConditionType `yaml:"type"`
	// Values carries the extension list for extension_any and the substring
	// list for name_contains.
	Values []string `yaml:"values,omitempty"`
	// Kind names a symbolic kind (folder, alias, image, document, ...).
	Kind string `yaml:"kind,omitempty"`
	// Days is the window for created_within_days.
	Days float64 `yaml:"days,omitempty"`
	// Size is the byte threshold for size_gte / size_lte.
	Size int64 `yaml:"size,omitempty"`
	// Flag is the expected value for is_folder / is_alias / has_tag.
	Flag bool `yaml:"flag,omitempty"`
}

// Rule is a named predicate plus a destination subfolder used to classify
// items. Order within the active rule set is the authoritative priority.
type Rule struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	Subfolder   string      `yaml:"subfolder"`
	Enabled     bool        `yaml:"enabled"`
	BuiltIn     bool        `yaml:"-"`
	Mode        Mode        `yaml:"mode,omitempty"`
	Conditions  []Condition `yaml:"conditions,omitempty"`
}

// Clone returns a deep copy so override application never mutates the base
// rule list in place.
func (r Rule) Clone() Rule {
	clone := r
	clone.Conditions = make([]Condition, len(r.Conditions))
	for i, cond := range r.Conditions {
		clone.Conditions[i] = cond
		clone.Conditions[i].Values = append([]string(nil), cond.Values...)
	}
	return clone
}

// ExtCondition builds an extension_any condition from normalized extensions.
func ExtCondition(extensions ...string) Condition {
	return Condition{Type: ConditionExtensionAny, Values: extensions}
}

// NameContainsCondition builds a case-insensitive substring condition.
func NameContainsCondition(substrings ...string) Condition {
	return Condition{Type: ConditionNameContains, Values: substrings}
}

// KindCondition builds a symbolic kind condition.
func KindCondition(kind string) Condition {
	return Condition{Type: ConditionKind, Kind: kind}
}

// FlagCondition builds one of the structural boolean conditions.
func FlagCondition(ctype ConditionType, flag bool) Condition {
	return Condition{Type: ctype, Flag: flag}
}
