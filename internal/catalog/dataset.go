package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset is one purchasable data product family: its configurable options,
// conditional path template groups, and prerequisite subscriptions.
// Immutable once built from a catalog entry.
type Dataset struct {
	Name         string
	Vendor       string
	Categories   []string
	Options      []Option
	Paths        []Path
	Requirements map[string]string
}

type PathTemplates struct {
	All    []string `json:"all,omitempty" yaml:"all,omitempty"`
	Latest []string `json:"latest,omitempty" yaml:"latest,omitempty"`
}

// Path is a conditional group of path templates. The first path whose
// condition is absent or true for a product's options is the one used.
type Path struct {
	Condition *Condition
	Templates PathTemplates
}

func (d Dataset) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("dataset name is required")
	}
	if len(d.Paths) == 0 {
		return fmt.Errorf("dataset %q: at least one path is required", d.Name)
	}
	seen := make(map[string]struct{}, len(d.Options))
	for _, option := range d.Options {
		if err := option.Validate(); err != nil {
			return fmt.Errorf("dataset %q: %w", d.Name, err)
		}
		if _, ok := seen[option.ID]; ok {
			return fmt.Errorf("dataset %q: duplicate option id %q", d.Name, option.ID)
		}
		seen[option.ID] = struct{}{}
	}
	for i, path := range d.Paths {
		if path.Condition != nil {
			if err := path.Condition.Validate(); err != nil {
				return fmt.Errorf("dataset %q: paths[%d]: %w", d.Name, i, err)
			}
		}
	}
	return nil
}

// Option lookup by id; second return reports presence.
func (d Dataset) Option(id string) (Option, bool) {
	for _, option := range d.Options {
		if option.ID == id {
			return option, true
		}
	}
	return Option{}, false
}

// HasStartEnd reports whether the dataset declares a paired start/end date
// range.
func (d Dataset) HasStartEnd() bool {
	for _, option := range d.Options {
		if option.Kind == OptionDate && option.StartEnd {
			return true
		}
	}
	return false
}

// MultipleTextOption returns the dataset's multi-valued text option, if any.
// The catalog declares at most one per dataset.
func (d Dataset) MultipleTextOption() (Option, bool) {
	for _, option := range d.Options {
		if option.Kind == OptionText && option.Multiple {
			return option, true
		}
	}
	return Option{}, false
}

// ChoiceList preserves the declaration order of select choices, which both
// JSON objects and YAML mappings carry on the wire but Go maps would lose.
type ChoiceList []Choice

func (c *ChoiceList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("choices must be an object")
	}

	out := make(ChoiceList, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("choices keys must be strings")
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("choices[%q]: %w", key, err)
		}
		out = append(out, Choice{Key: key, Value: value})
	}
	*c = out
	return nil
}

func (c ChoiceList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, choice := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(choice.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(choice.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *ChoiceList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("choices must be a mapping")
	}
	out := make(ChoiceList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key, value string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&value); err != nil {
			return err
		}
		out = append(out, Choice{Key: key, Value: value})
	}
	*c = out
	return nil
}

// OptionDoc is the wire shape of one option in a catalog entry. The "type"
// discriminator selects the variant; "start-end" is a pseudo-option the
// catalog uses as shorthand for a paired start/end date range.
type OptionDoc struct {
	Type        string        `json:"type" yaml:"type"`
	ID          string        `json:"id,omitempty" yaml:"id,omitempty"`
	Label       string        `json:"label,omitempty" yaml:"label,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Condition   *ConditionDoc `json:"condition,omitempty" yaml:"condition,omitempty"`
	Transform   string        `json:"transform,omitempty" yaml:"transform,omitempty"`
	Multiple    bool          `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Choices     ChoiceList    `json:"choices,omitempty" yaml:"choices,omitempty"`
}

type PathDoc struct {
	Condition *ConditionDoc `json:"condition,omitempty" yaml:"condition,omitempty"`
	Templates PathTemplates `json:"templates" yaml:"templates"`
}

// EntryDoc is one datasource entry as served by the market API (JSON) or a
// mirror fixture file (YAML).
type EntryDoc struct {
	Options      []OptionDoc       `json:"options" yaml:"options"`
	Paths        []PathDoc         `json:"paths" yaml:"paths"`
	Requirements map[string]string `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

func ParseEntryJSON(raw []byte) (EntryDoc, error) {
	var doc EntryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return EntryDoc{}, fmt.Errorf("decode entry: %w", err)
	}
	return doc, nil
}

func ParseEntryYAML(raw []byte) (EntryDoc, error) {
	var doc EntryDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return EntryDoc{}, fmt.Errorf("decode entry: %w", err)
	}
	return doc, nil
}

// Resolutions that make a dataset eligible for start/end date expansion.
var startEndResolutions = []string{"tick", "second", "minute", "minute/second/tick"}

// BuildDataset assembles a Dataset from a catalog entry. The "start-end"
// pseudo-option expands into paired start/end date options conditioned on a
// tick/second/minute resolution, matching the upstream catalog's shorthand.
func BuildDataset(name, vendor string, categories []string, entry EntryDoc) (Dataset, error) {
	options := make([]Option, 0, len(entry.Options))

	for i, doc := range entry.Options {
		kind := strings.ToLower(strings.TrimSpace(doc.Type))
		if kind == "start-end" {
			options = append(options, buildStartEndOptions(options)...)
			continue
		}

		option, err := buildOption(doc)
		if err != nil {
			return Dataset{}, fmt.Errorf("dataset %q: options[%d]: %w", name, i, err)
		}
		options = append(options, option)
	}

	paths := make([]Path, 0, len(entry.Paths))
	for i, doc := range entry.Paths {
		path := Path{Templates: doc.Templates}
		if doc.Condition != nil {
			cond, err := buildCondition(*doc.Condition)
			if err != nil {
				return Dataset{}, fmt.Errorf("dataset %q: paths[%d]: %w", name, i, err)
			}
			path.Condition = &cond
		}
		paths = append(paths, path)
	}

	requirements := make(map[string]string, len(entry.Requirements))
	for id, url := range entry.Requirements {
		requirements[id] = url
	}

	ds := Dataset{
		Name:         strings.TrimSpace(name),
		Vendor:       strings.TrimSpace(vendor),
		Categories:   categories,
		Options:      options,
		Paths:        paths,
		Requirements: requirements,
	}
	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

func buildOption(doc OptionDoc) (Option, error) {
	option := Option{
		ID:          strings.TrimSpace(doc.ID),
		Label:       doc.Label,
		Description: doc.Description,
		Kind:        OptionKind(strings.ToLower(strings.TrimSpace(doc.Type))),
		Multiple:    doc.Multiple,
		Choices:     doc.Choices,
	}

	if doc.Condition != nil {
		cond, err := buildCondition(*doc.Condition)
		if err != nil {
			return Option{}, err
		}
		option.Condition = &cond
	}

	switch option.Kind {
	case OptionText:
		option.Transform = TextTransform(strings.ToLower(strings.TrimSpace(doc.Transform)))
	case OptionSelect, OptionDate:
	default:
		return Option{}, fmt.Errorf("unsupported option type: %q", doc.Type)
	}

	if err := option.Validate(); err != nil {
		return Option{}, err
	}
	return option, nil
}

func buildStartEndOptions(built []Option) []Option {
	suffix := ""
	for _, option := range built {
		if option.ID != "resolution" || option.Kind != OptionSelect {
			continue
		}
		for _, choice := range option.Choices {
			if !containsValue(startEndResolutions, choice.Value) {
				suffix = " (tick, second and minute resolutions only)"
				break
			}
		}
	}

	condition := Condition{
		Kind:   ConditionOneOf,
		Option: "resolution",
		Values: startEndResolutions,
	}

	return []Option{
		{
			ID:          "start",
			Label:       "Start date",
			Description: "The inclusive start date of the data that you want to download" + suffix,
			Condition:   &condition,
			Kind:        OptionDate,
			StartEnd:    true,
		},
		{
			ID:          "end",
			Label:       "End date",
			Description: "The inclusive end date of the data that you want to download" + suffix,
			Condition:   &condition,
			Kind:        OptionDate,
			StartEnd:    true,
		},
	}
}

func containsValue(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
