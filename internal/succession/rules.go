package succession

import (
	"fmt"

	dErrors "stemma/pkg/domain-errors"
)

// RuleType names a dynastic succession rule.
type RuleType string

const (
	RuleAgnatic   RuleType = "agnatic"
	RuleSalic     RuleType = "salic"
	RuleSemiSalic RuleType = "semi_salic"
	RuleCognatic  RuleType = "cognatic"
	RuleCustom    RuleType = "custom"
)

// ParseRuleType validates a caller-supplied rule type.
func ParseRuleType(s string) (RuleType, error) {
	switch RuleType(s) {
	case RuleAgnatic, RuleSalic, RuleSemiSalic, RuleCognatic, RuleCustom:
		return RuleType(s), nil
	}
	return "", fmt.Errorf("unknown rule type %q", s)
}

// Depth bounds for path enumeration. Worst-case path count is exponential in
// branching times depth, so MaxDepthCeiling is the sole safety valve against
// unbounded blow-up and is enforced strictly.
const (
	DefaultMaxDepth = 12
	MinMaxDepth     = 1
	MaxDepthCeiling = 50
)

// RuleConfig is a data-only rule: new rule variants are table rows, not code
// paths. One evaluation function interprets every variant.
type RuleConfig struct {
	// AllowFemaleInheritance permits a female candidate (the path terminal).
	AllowFemaleInheritance bool `json:"allow_female_inheritance"`
	// AllowFemaleTransmission permits female non-terminal ancestors on the path.
	AllowFemaleTransmission bool `json:"allow_female_transmission"`
	// AllowAdoption admits adoption edges into the path.
	AllowAdoption bool `json:"allow_adoption"`
	// MaxDepth bounds path length in edges.
	MaxDepth int `json:"max_depth"`
}

// CustomRule is the caller-supplied rule fragment. Pointer fields distinguish
// "absent" from zero so defaults can differ per field: transmission defaults
// to allowed, inheritance and adoption to forbidden, depth to DefaultMaxDepth.
type CustomRule struct {
	AllowFemaleInheritance  *bool `json:"allow_female_inheritance"`
	AllowFemaleTransmission *bool `json:"allow_female_transmission"`
	AllowAdoption           *bool `json:"allow_adoption"`
	MaxDepth                *int  `json:"max_depth"`
}

func (c *CustomRule) normalize() RuleConfig {
	cfg := RuleConfig{
		AllowFemaleInheritance:  false,
		AllowFemaleTransmission: true,
		AllowAdoption:           false,
		MaxDepth:                DefaultMaxDepth,
	}
	if c == nil {
		return cfg
	}
	if c.AllowFemaleInheritance != nil {
		cfg.AllowFemaleInheritance = *c.AllowFemaleInheritance
	}
	if c.AllowFemaleTransmission != nil {
		cfg.AllowFemaleTransmission = *c.AllowFemaleTransmission
	}
	if c.AllowAdoption != nil {
		cfg.AllowAdoption = *c.AllowAdoption
	}
	if c.MaxDepth != nil {
		cfg.MaxDepth = *c.MaxDepth
	}
	return cfg
}

// resolveRule turns a rule type plus optional custom fragment into the config
// the evaluator runs with and the applied rule echoed back to the caller.
// When a custom fragment is supplied it is always what gets echoed, even for
// built-in rule types where only its max_depth participates.
func resolveRule(ruleType RuleType, custom *CustomRule) (cfg, applied RuleConfig, err error) {
	depth := DefaultMaxDepth
	if custom != nil && custom.MaxDepth != nil {
		depth = *custom.MaxDepth
	}
	if depth < MinMaxDepth || depth > MaxDepthCeiling {
		return RuleConfig{}, RuleConfig{}, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("max_depth must be between %d and %d", MinMaxDepth, MaxDepthCeiling))
	}

	switch ruleType {
	case RuleAgnatic, RuleSalic:
		cfg = RuleConfig{MaxDepth: depth}
	case RuleSemiSalic:
		// Claimant must be male; a female ancestor may still transmit.
		cfg = RuleConfig{AllowFemaleTransmission: true, MaxDepth: depth}
	case RuleCognatic:
		cfg = RuleConfig{
			AllowFemaleInheritance:  true,
			AllowFemaleTransmission: true,
			AllowAdoption:           true,
			MaxDepth:                depth,
		}
	case RuleCustom:
		cfg = custom.normalize()
	default:
		return RuleConfig{}, RuleConfig{}, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("unknown rule type %q", ruleType))
	}

	applied = cfg
	if custom != nil {
		applied = custom.normalize()
	}
	return cfg, applied, nil
}
