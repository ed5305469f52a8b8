package worldstate

import (
	"encoding/json"
	"fmt"
)

// CircuitCategory distinguishes the normal and steel path circuit.
type CircuitCategory string

const (
	CircuitNormal CircuitCategory = "EXC_NORMAL"
	CircuitHard   CircuitCategory = "EXC_HARD"
)

// UnmarshalJSON rejects unknown categories.
func (c *CircuitCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch CircuitCategory(s) {
	case CircuitNormal, CircuitHard:
		*c = CircuitCategory(s)
		return nil
	}
	return fmt.Errorf("circuit category: unknown %q", s)
}

// RawCircuitChoice is one EndlessXpChoices entry.
type RawCircuitChoice struct {
	Category CircuitCategory   `json:"Category"`
	Choices  []TitleCaseString `json:"Choices"`
}

func (c *RawCircuitChoice) UnmarshalJSON(data []byte) error {
	type plain RawCircuitChoice
	return decodeObject(data, (*plain)(c), "circuit choice", "Category", "Choices")
}

// Circuit holds the weekly Duviri circuit rewards.
type Circuit struct {
	NormalChoices    []string `json:"normalChoices"`
	SteelPathChoices []string `json:"steelPathChoices"`
}

// resolveCircuit requires one entry per category. A missing category is a
// *MissingVariantError.
func resolveCircuit(choices []RawCircuitChoice, ctx *Context) (Circuit, error) {
	var normal, hard *RawCircuitChoice
	for i := range choices {
		switch choices[i].Category {
		case CircuitNormal:
			if normal == nil {
				normal = &choices[i]
			}
		case CircuitHard:
			if hard == nil {
				hard = &choices[i]
			}
		}
	}
	if normal == nil {
		return Circuit{}, &MissingVariantError{Kind: "circuit", Variant: string(CircuitNormal)}
	}
	if hard == nil {
		return Circuit{}, &MissingVariantError{Kind: "circuit", Variant: string(CircuitHard)}
	}
	return Circuit{
		NormalChoices:    resolveAll(normal.Choices, ctx, TitleCaseString.Resolve),
		SteelPathChoices: resolveAll(hard.Choices, ctx, TitleCaseString.Resolve),
	}, nil
}
