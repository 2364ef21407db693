package target

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"mne-tracker/internal/rules"
	"mne-tracker/internal/storage"
)

var (
	ErrNoRuleMatched = errors.New("no calculation rule matched baseline")
	// ErrZeroSpan базовая линия равна цели, прогресс считать не от чего
	ErrZeroSpan = errors.New("baseline equals target")
)

const (
	VerdictValid      = "valid"
	VerdictTooLenient = "too_lenient"
	VerdictTooStrict  = "too_strict"
)

const DefaultStrictMargin = 10

type RuleApplied struct {
	Index         int     `json:"index"`
	Condition     string  `json:"condition"`
	DescriptionKM string  `json:"description_km"`
	DescriptionEN string  `json:"description_en"`
	Mode          string  `json:"mode"`
	Value         float64 `json:"value"`
}

// Calculation результат расчёта цели. RuleApplied.Index == 0 означает,
// что ни одно правило не подошло и взята стандартная цель индикатора.
type Calculation struct {
	CalculatedTarget float64     `json:"calculated_target"`
	RuleApplied      RuleApplied `json:"rule_applied"`
	ExplanationKM    string      `json:"explanation_km"`
	ExplanationEN    string      `json:"explanation_en"`
	IsAutoCalculated bool        `json:"is_auto_calculated"`
}

type CustomTargetValidation struct {
	Verdict          string  `json:"verdict"`
	CustomTarget     float64 `json:"custom_target"`
	CalculatedTarget float64 `json:"calculated_target"`
	Difference       float64 `json:"difference"`
	MessageKM        string  `json:"message_km"`
	MessageEN        string  `json:"message_en"`
}

// SelectRule returns the 0-based index of the first rule whose condition
// holds for baseline.
func SelectRule(set []rules.Rule, baseline float64) (int, rules.Rule, error) {
	for i, rule := range set {
		if rule.Condition.Matches(baseline) {
			return i, rule, nil
		}
	}

	return -1, rules.Rule{}, fmt.Errorf("%w: %s", ErrNoRuleMatched, pct(baseline))
}

func CalculateTarget(ind storage.Indicator, baseline float64) Calculation {
	idx, rule, err := SelectRule(ind.CalculationRules, baseline)
	if err != nil {
		return Calculation{
			CalculatedTarget: Round1(ind.TargetPercentage),
			RuleApplied: RuleApplied{
				Condition:     "standard",
				DescriptionKM: "គោលដៅស្តង់ដាររបស់សូចនាករ",
				DescriptionEN: "Indicator standard target",
				Mode:          rules.ModeSet,
				Value:         ind.TargetPercentage,
			},
			ExplanationKM: fmt.Sprintf("គ្មានច្បាប់គណនាណាមួយត្រូវនឹងមូលដ្ឋាន %s ទេ។ ប្រើគោលដៅស្តង់ដារ %s។",
				pct(baseline), pct(ind.TargetPercentage)),
			ExplanationEN: fmt.Sprintf("No calculation rule matches baseline %s; the indicator standard target %s is used.",
				pct(baseline), pct(ind.TargetPercentage)),
			IsAutoCalculated: false,
		}
	}

	value := Round1(clamp(rule.Target(baseline)))

	return Calculation{
		CalculatedTarget: value,
		RuleApplied: RuleApplied{
			Index:         idx + 1,
			Condition:     rule.Condition.String(),
			DescriptionKM: rule.DescriptionKM,
			DescriptionEN: rule.DescriptionEN,
			Mode:          rule.Mode,
			Value:         rule.Value,
		},
		ExplanationKM: fmt.Sprintf("មូលដ្ឋាន %s ត្រូវនឹងច្បាប់ទី %d (%s)។ គោលដៅដែលបានគណនាដោយស្វ័យប្រវត្តិ៖ %s។",
			pct(baseline), idx+1, rule.Condition, pct(value)),
		ExplanationEN: fmt.Sprintf("Baseline %s matches rule %d (%s): %s.",
			pct(baseline), idx+1, rule.Condition, formulaEN(rule, value)),
		IsAutoCalculated: true,
	}
}

// Policy хранит допуск, на который пользовательская цель может превышать расчётную.
type Policy struct {
	StrictMargin float64
}

func DefaultPolicy() Policy {
	return Policy{StrictMargin: DefaultStrictMargin}
}

// ValidateCustomTarget compares a user supplied target with the calculated one.
// For reduction indicators a lower custom target is the more ambitious one.
func (p Policy) ValidateCustomTarget(calculated, custom float64, isReduction bool) CustomTargetValidation {
	diff := Round1(custom - calculated)
	improvement := diff
	if isReduction {
		improvement = -diff
	}

	res := CustomTargetValidation{
		CustomTarget:     custom,
		CalculatedTarget: calculated,
		Difference:       diff,
	}

	switch {
	case improvement < 0:
		res.Verdict = VerdictTooLenient
		res.MessageEN = fmt.Sprintf("Custom target %s is less ambitious than the calculated target %s.", pct(custom), pct(calculated))
		res.MessageKM = fmt.Sprintf("គោលដៅផ្ទាល់ខ្លួន %s ទាបជាងគោលដៅដែលបានគណនា %s។", pct(custom), pct(calculated))
	case improvement > p.StrictMargin:
		res.Verdict = VerdictTooStrict
		res.MessageEN = fmt.Sprintf("Custom target %s exceeds the calculated target %s by more than %s points.",
			pct(custom), pct(calculated), strconv.FormatFloat(p.StrictMargin, 'f', -1, 64))
		res.MessageKM = fmt.Sprintf("គោលដៅផ្ទាល់ខ្លួន %s តឹងរ៉ឹងពេកបើធៀបនឹងគោលដៅដែលបានគណនា %s។", pct(custom), pct(calculated))
	default:
		res.Verdict = VerdictValid
		res.MessageEN = fmt.Sprintf("Custom target %s is acceptable.", pct(custom))
		res.MessageKM = fmt.Sprintf("គោលដៅផ្ទាល់ខ្លួន %s អាចទទួលយកបាន។", pct(custom))
	}

	return res
}

func ValidateCustomTarget(calculated, custom float64, isReduction bool) CustomTargetValidation {
	return DefaultPolicy().ValidateCustomTarget(calculated, custom, isReduction)
}

// ProgressPercent how far actual moved from baseline towards target, in percent.
// Returns 0 and ErrZeroSpan when baseline equals target.
func ProgressPercent(baseline, target, actual float64, isReduction bool) (float64, error) {
	span := target - baseline
	moved := actual - baseline
	if isReduction {
		span = baseline - target
		moved = baseline - actual
	}

	if span == 0 {
		return 0, ErrZeroSpan
	}

	progress := moved / span * 100
	if progress < 0 {
		progress = 0
	}

	return Round1(progress), nil
}

func Round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formulaEN(rule rules.Rule, value float64) string {
	v := strconv.FormatFloat(rule.Value, 'f', -1, 64)
	switch rule.Mode {
	case rules.ModeAdditive:
		return fmt.Sprintf("target = baseline + %s = %s", v, pct(value))
	case rules.ModeMinus:
		return fmt.Sprintf("target = baseline - %s = %s", v, pct(value))
	case rules.ModeMultiplied:
		return fmt.Sprintf("target = baseline x %s = %s", v, pct(value))
	default:
		return "target set to " + pct(value)
	}
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
