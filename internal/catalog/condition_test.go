package catalog

import "testing"

func TestConditionCheck_OneOf(t *testing.T) {
	cond := Condition{Kind: ConditionOneOf, Option: "resolution", Values: []string{"minute", "second"}}

	results := NewResultSet()
	results.Put("resolution", OptionResult{Value: "minute", Label: "Minute"})
	if !cond.Check(results) {
		t.Fatalf("Check()=false, want true for allowed value")
	}

	results = NewResultSet()
	results.Put("resolution", OptionResult{Value: "daily", Label: "Daily"})
	if cond.Check(results) {
		t.Fatalf("Check()=true, want false for disallowed value")
	}
}

func TestConditionCheck_UnresolvedOptionPasses(t *testing.T) {
	// A oneof condition on an option that was never resolved passes. Catalog
	// entries rely on this; changing it would hide options that today show.
	cond := Condition{Kind: ConditionOneOf, Option: "resolution", Values: []string{"minute"}}
	if !cond.Check(NewResultSet()) {
		t.Fatalf("Check()=false, want true when the option is unresolved")
	}
}

func TestConditionCheck_AndOr(t *testing.T) {
	results := NewResultSet()
	results.Put("a", OptionResult{Value: "1"})
	results.Put("b", OptionResult{Value: "2"})

	onA := Condition{Kind: ConditionOneOf, Option: "a", Values: []string{"1"}}
	onB := Condition{Kind: ConditionOneOf, Option: "b", Values: []string{"9"}}

	and := Condition{Kind: ConditionAnd, Conditions: []Condition{onA, onB}}
	if and.Check(results) {
		t.Fatalf("and.Check()=true, want false")
	}

	or := Condition{Kind: ConditionOr, Conditions: []Condition{onA, onB}}
	if !or.Check(results) {
		t.Fatalf("or.Check()=false, want true")
	}
}

func TestConditionCheck_NonStringValueFails(t *testing.T) {
	cond := Condition{Kind: ConditionOneOf, Option: "values", Values: []string{"x"}}
	results := NewResultSet()
	results.Put("values", OptionResult{Value: []string{"x"}})
	if cond.Check(results) {
		t.Fatalf("Check()=true, want false for non-string result value")
	}
}

func TestBuildCondition_NestedUnderOptions(t *testing.T) {
	doc := ConditionDoc{
		Type: "and",
		Options: []ConditionDoc{
			{Type: "oneof", Option: "a", Values: []string{"1"}},
			{Type: "oneof", Option: "b", Values: []string{"2"}},
		},
	}
	cond, err := buildCondition(doc)
	if err != nil {
		t.Fatalf("buildCondition() err=%v", err)
	}
	if cond.Kind != ConditionAnd || len(cond.Conditions) != 2 {
		t.Fatalf("buildCondition()=%+v, want and with 2 children", cond)
	}

	if _, err := buildCondition(ConditionDoc{Type: "nope"}); err == nil {
		t.Fatalf("expected error for unknown condition type")
	}
}
