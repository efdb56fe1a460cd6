package catalog

import (
	"errors"
	"strings"
	"testing"
)

func testDataset(t *testing.T) Dataset {
	t.Helper()
	ds := Dataset{
		Name:   "US Equities",
		Vendor: "AlgoSeek",
		Options: []Option{
			{ID: "data-type", Kind: OptionSelect, Description: "The type of data", Choices: []Choice{
				{Key: "Trade", Value: "trade"},
				{Key: "Quote", Value: "quote"},
				{Key: "OpenInterest", Value: "openinterest"},
			}},
			{ID: "ticker", Kind: OptionText, Transform: TransformLowercase, Description: "The ticker of the data"},
			{
				ID: "resolution", Kind: OptionSelect, Description: "The resolution of the data",
				Condition: &Condition{Kind: ConditionOneOf, Option: "data-type", Values: []string{"trade", "quote"}},
				Choices: []Choice{
					{Key: "Minute", Value: "minute"},
					{Key: "Daily", Value: "daily"},
				},
			},
		},
		Paths: []Path{{Templates: PathTemplates{All: []string{"equity/usa/{resolution}/{ticker}.zip"}}}},
	}
	if err := ds.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
	return ds
}

func TestResolveOptions(t *testing.T) {
	ds := testDataset(t)

	results, err := ResolveOptions(ds, MapSource{
		"data-type":  "Trade",
		"ticker":     "SPY",
		"resolution": "minute",
	})
	if err != nil {
		t.Fatalf("ResolveOptions() err=%v", err)
	}

	if got := results.IDs(); strings.Join(got, ",") != "data-type,ticker,resolution" {
		t.Fatalf("IDs()=%v, want declaration order", got)
	}
	ticker, _ := results.Get("ticker")
	if ticker.Value != "spy" || ticker.Label != "SPY" {
		t.Fatalf("ticker=%+v", ticker)
	}
}

func TestResolveOptions_UnderscoreKeys(t *testing.T) {
	ds := testDataset(t)

	// CLI flag parsing hands keys over with underscores.
	_, err := ResolveOptions(ds, MapSource{
		"data_type":  "Trade",
		"ticker":     "SPY",
		"resolution": "minute",
	})
	if err != nil {
		t.Fatalf("ResolveOptions() err=%v", err)
	}
}

func TestResolveOptions_SkipsFalseConditions(t *testing.T) {
	ds := testDataset(t)

	// "openinterest" fails the resolution option's condition, so resolution
	// must be skipped entirely, not reported missing.
	results, err := ResolveOptions(ds, MapSource{
		"data-type": "OpenInterest",
		"ticker":    "SPY",
	})
	if err != nil {
		t.Fatalf("ResolveOptions() err=%v", err)
	}
	if _, ok := results.Get("resolution"); ok {
		t.Fatalf("resolution resolved, want skipped")
	}
}

func TestResolveOptions_AggregatesFailures(t *testing.T) {
	ds := testDataset(t)

	_, err := ResolveOptions(ds, MapSource{"data-type": "Bad"})
	if err == nil {
		t.Fatalf("expected error")
	}

	var optionErrs *OptionErrors
	if !errors.As(err, &optionErrs) {
		t.Fatalf("error is %T, want *OptionErrors", err)
	}
	if len(optionErrs.Invalid) != 1 || len(optionErrs.Missing) != 2 {
		t.Fatalf("invalid=%d missing=%d, want 1 and 2", len(optionErrs.Invalid), len(optionErrs.Missing))
	}

	msg := err.Error()
	if !strings.HasPrefix(msg, "Invalid option:\n--data-type: ") {
		t.Fatalf("message=%q", msg)
	}
	if !strings.Contains(msg, "\n\nMissing options:\n") {
		t.Fatalf("message missing grouped block: %q", msg)
	}
	if !strings.Contains(msg, "--ticker <value>: The ticker of the data") {
		t.Fatalf("message missing ticker line: %q", msg)
	}
	if !strings.Contains(msg, "--resolution <Minute|Daily>: The resolution of the data") {
		t.Fatalf("message missing resolution line: %q", msg)
	}
}
