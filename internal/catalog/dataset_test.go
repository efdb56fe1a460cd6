package catalog

import (
	"strings"
	"testing"
)

const equityEntryJSON = `{
	"options": [
		{"id": "data-type", "type": "select", "label": "Data type", "description": "The type of data", "choices": {"Trade": "trade", "Quote": "quote"}},
		{"id": "ticker", "type": "text", "label": "Ticker", "description": "The ticker", "transform": "lowercase"},
		{"id": "resolution", "type": "select", "label": "Resolution", "description": "The resolution", "choices": {"Tick": "tick", "Minute": "minute", "Daily": "daily"}},
		{"type": "start-end"}
	],
	"paths": [
		{
			"condition": {"type": "oneof", "option": "resolution", "values": ["daily"]},
			"templates": {"all": ["equity/usa/daily/{ticker}.zip"]}
		},
		{"templates": {"all": ["equity/usa/{resolution}/{ticker}/{date}_trade.zip"]}}
	]
}`

func TestParseEntryJSON_BuildDataset(t *testing.T) {
	entry, err := ParseEntryJSON([]byte(equityEntryJSON))
	if err != nil {
		t.Fatalf("ParseEntryJSON() err=%v", err)
	}
	ds, err := BuildDataset("US Equities", "AlgoSeek", []string{"Equity"}, entry)
	if err != nil {
		t.Fatalf("BuildDataset() err=%v", err)
	}

	ids := make([]string, 0, len(ds.Options))
	for _, opt := range ds.Options {
		ids = append(ids, opt.ID)
	}
	if strings.Join(ids, ",") != "data-type,ticker,resolution,start,end" {
		t.Fatalf("option ids=%v", ids)
	}
	if !ds.HasStartEnd() {
		t.Fatalf("HasStartEnd()=false")
	}
	if len(ds.Paths) != 2 || ds.Paths[0].Condition == nil || ds.Paths[1].Condition != nil {
		t.Fatalf("paths=%+v", ds.Paths)
	}
}

func TestBuildDataset_StartEndExpansion(t *testing.T) {
	entry, err := ParseEntryJSON([]byte(equityEntryJSON))
	if err != nil {
		t.Fatalf("ParseEntryJSON() err=%v", err)
	}
	ds, err := BuildDataset("US Equities", "AlgoSeek", nil, entry)
	if err != nil {
		t.Fatalf("BuildDataset() err=%v", err)
	}

	start, ok := ds.Option("start")
	if !ok {
		t.Fatalf("start option not built")
	}
	if start.Kind != OptionDate || !start.StartEnd {
		t.Fatalf("start=%+v", start)
	}
	if start.Condition == nil || start.Condition.Kind != ConditionOneOf || start.Condition.Option != "resolution" {
		t.Fatalf("start condition=%+v", start.Condition)
	}

	// The resolution select includes "daily", which a date range does not
	// apply to, so the description carries the qualifier.
	if !strings.HasSuffix(start.Description, "(tick, second and minute resolutions only)") {
		t.Fatalf("description=%q", start.Description)
	}

	end, ok := ds.Option("end")
	if !ok || end.Kind != OptionDate || !end.StartEnd {
		t.Fatalf("end=%+v ok=%v", end, ok)
	}
}

func TestChoiceList_PreservesJSONOrder(t *testing.T) {
	raw := `{"Zulu": "z", "Alpha": "a", "Mike": "m"}`
	var choices ChoiceList
	if err := choices.UnmarshalJSON([]byte(raw)); err != nil {
		t.Fatalf("UnmarshalJSON() err=%v", err)
	}
	keys := make([]string, 0, len(choices))
	for _, c := range choices {
		keys = append(keys, c.Key)
	}
	if strings.Join(keys, ",") != "Zulu,Alpha,Mike" {
		t.Fatalf("keys=%v, want document order", keys)
	}
}

func TestParseEntryYAML(t *testing.T) {
	raw := `
options:
  - id: ticker
    type: text
    label: Ticker
    description: The ticker
    transform: uppercase
  - id: resolution
    type: select
    label: Resolution
    description: The resolution
    choices:
      Second: second
      Minute: minute
paths:
  - templates:
      all:
        - crypto/{resolution}/{ticker}.zip
`
	entry, err := ParseEntryYAML([]byte(raw))
	if err != nil {
		t.Fatalf("ParseEntryYAML() err=%v", err)
	}
	ds, err := BuildDataset("Crypto", "CoinAPI", nil, entry)
	if err != nil {
		t.Fatalf("BuildDataset() err=%v", err)
	}
	res, ok := ds.Option("resolution")
	if !ok || len(res.Choices) != 2 {
		t.Fatalf("resolution=%+v ok=%v", res, ok)
	}
	if res.Choices[0].Key != "Second" || res.Choices[1].Key != "Minute" {
		t.Fatalf("choices=%+v, want document order", res.Choices)
	}
}

func TestDatasetValidate_DuplicateOption(t *testing.T) {
	ds := Dataset{
		Name: "Dup",
		Options: []Option{
			{ID: "ticker", Kind: OptionText},
			{ID: "ticker", Kind: OptionText},
		},
		Paths: []Path{{Templates: PathTemplates{All: []string{"x/y/z.zip"}}}},
	}
	if err := ds.Validate(); err == nil {
		t.Fatalf("expected duplicate option error")
	}
}
