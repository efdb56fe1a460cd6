package catalog

import (
	"strings"
	"testing"
	"time"
)

func TestParseText(t *testing.T) {
	opt := Option{ID: "ticker", Kind: OptionText, Transform: TransformLowercase}

	result, err := opt.Parse("SPY")
	if err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	if result.Value != "spy" || result.Label != "SPY" {
		t.Fatalf("Parse()=%+v, want value spy label SPY", result)
	}

	if _, err := opt.Parse("   "); err == nil {
		t.Fatalf("expected error for blank input")
	}
}

func TestParseText_Multiple(t *testing.T) {
	opt := Option{ID: "ticker", Kind: OptionText, Transform: TransformUppercase, Multiple: true}

	result, err := opt.Parse("spy, qqq,,aapl")
	if err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	values, ok := result.Value.([]string)
	if !ok {
		t.Fatalf("Parse() value is %T, want []string", result.Value)
	}
	if strings.Join(values, "|") != "SPY|QQQ|AAPL" {
		t.Fatalf("values=%v", values)
	}
	if result.Label != "spy, qqq, aapl" {
		t.Fatalf("label=%q", result.Label)
	}
}

func TestParseSelect(t *testing.T) {
	opt := Option{ID: "resolution", Kind: OptionSelect, Choices: []Choice{
		{Key: "Minute", Value: "minute"},
		{Key: "Hour", Value: "hour"},
	}}

	result, err := opt.Parse("minute")
	if err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	if result.Value != "minute" || result.Label != "Minute" {
		t.Fatalf("Parse()=%+v", result)
	}

	_, err = opt.Parse("daily")
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "'daily' is not a valid option, please choose one of the following: Minute, Hour"
	if err.Error() != want {
		t.Fatalf("error=%q, want %q", err.Error(), want)
	}
}

func TestParseSelect_ManyChoicesShowsExample(t *testing.T) {
	choices := make([]Choice, 0, 6)
	for _, key := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Mu"} {
		choices = append(choices, Choice{Key: key, Value: strings.ToLower(key)})
	}
	opt := Option{ID: "market", Kind: OptionSelect, Choices: choices}

	_, err := opt.Parse("nope")
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "'nope' is not a valid option, please specify a value like 'Mu'"
	if err.Error() != want {
		t.Fatalf("error=%q, want %q", err.Error(), want)
	}
}

func TestParseDate(t *testing.T) {
	opt := Option{ID: "start", Kind: OptionDate}

	for _, input := range []string{"20200102", "2020-01-02"} {
		result, err := opt.Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) err=%v", input, err)
		}
		date, ok := result.Value.(time.Time)
		if !ok {
			t.Fatalf("Parse(%q) value is %T, want time.Time", input, result.Value)
		}
		if !date.Equal(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("Parse(%q)=%v", input, date)
		}
		if result.Label != "2020-01-02" {
			t.Fatalf("label=%q", result.Label)
		}
	}

	_, err := opt.Parse("Jan 2 2020")
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "'Jan 2 2020' does not match the yyyyMMdd format" {
		t.Fatalf("error=%q", err.Error())
	}
}

func TestPlaceholder(t *testing.T) {
	if got := (Option{Kind: OptionText}).Placeholder(); got != "value" {
		t.Fatalf("text placeholder=%q", got)
	}
	if got := (Option{Kind: OptionText, Multiple: true}).Placeholder(); got != "values" {
		t.Fatalf("multiple text placeholder=%q", got)
	}
	if got := (Option{Kind: OptionDate}).Placeholder(); got != "yyyyMMdd" {
		t.Fatalf("date placeholder=%q", got)
	}

	short := Option{Kind: OptionSelect, Choices: []Choice{{Key: "A", Value: "a"}, {Key: "B", Value: "b"}}}
	if got := short.Placeholder(); got != "A|B" {
		t.Fatalf("select placeholder=%q", got)
	}
}
