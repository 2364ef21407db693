// Package rules holds the parsed form of indicator calculation rules.
//
// Conditions arrive as text ("baseline < 50", "50-80", ">= 80") or as a
// tagged JSON object and are parsed once, when the indicator is loaded or
// saved. Evaluation never touches the source text again.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidCondition = errors.New("invalid rule condition")

type Kind string

const (
	LessThan       Kind = "less_than"
	Between        Kind = "between"
	GreaterOrEqual Kind = "greater_or_equal"
)

// Condition is a comparison over the partner baseline.
// Between is half-open: Low <= baseline < High.
type Condition struct {
	Kind  Kind    `json:"kind"`
	Value float64 `json:"value,omitempty"`
	Low   float64 `json:"low,omitempty"`
	High  float64 `json:"high,omitempty"`
}

func Less(v float64) Condition { return Condition{Kind: LessThan, Value: v} }

func Range(low, high float64) Condition { return Condition{Kind: Between, Low: low, High: high} }

func AtLeast(v float64) Condition { return Condition{Kind: GreaterOrEqual, Value: v} }

func (c Condition) Matches(baseline float64) bool {
	switch c.Kind {
	case LessThan:
		return baseline < c.Value
	case Between:
		return baseline >= c.Low && baseline < c.High
	case GreaterOrEqual:
		return baseline >= c.Value
	default:
		return false
	}
}

func (c Condition) Validate() error {
	switch c.Kind {
	case LessThan, GreaterOrEqual:
		return nil
	case Between:
		if c.Low >= c.High {
			return fmt.Errorf("%w: between %v and %v is empty", ErrInvalidCondition, c.Low, c.High)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCondition, c.Kind)
	}
}

func (c Condition) String() string {
	switch c.Kind {
	case LessThan:
		return "baseline < " + formatNum(c.Value)
	case Between:
		return formatNum(c.Low) + " <= baseline < " + formatNum(c.High)
	case GreaterOrEqual:
		return "baseline >= " + formatNum(c.Value)
	default:
		return "unknown"
	}
}

const num = `(-?\d+(?:\.\d+)?)`

var (
	reLess       = regexp.MustCompile(`^(?:baseline)?<` + num + `$`)
	reAtLeast    = regexp.MustCompile(`^(?:baseline)?>=` + num + `$`)
	reDash       = regexp.MustCompile(`^` + num + `-` + num + `$`)
	reBetween    = regexp.MustCompile(`^(?:baseline)?between` + num + `and` + num + `$`)
	reDoubleSide = regexp.MustCompile(`^` + num + `<=baseline<` + num + `$`)
)

// Parse разбирает текстовое условие. Пробелы и знак % игнорируются.
func Parse(expr string) (Condition, error) {
	s := strings.ToLower(expr)
	s = strings.NewReplacer(" ", "", "\t", "", "%", "", "≥", ">=").Replace(s)

	var c Condition
	switch {
	case reLess.MatchString(s):
		m := reLess.FindStringSubmatch(s)
		c = Less(mustFloat(m[1]))
	case reAtLeast.MatchString(s):
		m := reAtLeast.FindStringSubmatch(s)
		c = AtLeast(mustFloat(m[1]))
	case reDash.MatchString(s):
		m := reDash.FindStringSubmatch(s)
		c = Range(mustFloat(m[1]), mustFloat(m[2]))
	case reBetween.MatchString(s):
		m := reBetween.FindStringSubmatch(s)
		c = Range(mustFloat(m[1]), mustFloat(m[2]))
	case reDoubleSide.MatchString(s):
		m := reDoubleSide.FindStringSubmatch(s)
		c = Range(mustFloat(m[1]), mustFloat(m[2]))
	default:
		return Condition{}, fmt.Errorf("%w: %q", ErrInvalidCondition, expr)
	}

	if err := c.Validate(); err != nil {
		return Condition{}, err
	}

	return c, nil
}

// UnmarshalJSON принимает и строку, и объект {"kind": ...}.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var expr string
	if err := json.Unmarshal(data, &expr); err == nil {
		parsed, err := Parse(expr)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	type plain Condition
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}

	parsed := Condition(p)
	if err := parsed.Validate(); err != nil {
		return err
	}
	*c = parsed

	return nil
}

func mustFloat(s string) float64 {
	// regexp уже гарантирует формат числа
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
