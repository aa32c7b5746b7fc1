package persona

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Placeholder specs may carry simple arithmetic on numeric fields,
// e.g. "number + 23" or "price number 1 * 1.5".
var mathExpr = regexp.MustCompile(`^([a-zA-Z0-9 _-]+)\s*([+\-*/])\s*([0-9.]+)$`)

// Stringify renders a value under the placeholder spec that selected it.
// The spec's leading word picks the rendering: location and name specs
// select a part, numeric specs may apply arithmetic, date specs render
// ordinals and year specs just the year.
func Stringify(v Value, spec string) string {
	switch {
	case strings.HasPrefix(spec, "location"):
		switch {
		case strings.Contains(spec, "city"):
			return v.Loc.City
		case strings.Contains(spec, "country"):
			return v.Loc.Country
		case strings.Contains(spec, "continent"):
			return v.Loc.Continent
		default:
			return v.Loc.Address
		}

	case strings.HasPrefix(spec, "name"):
		switch {
		case strings.Contains(spec, "last"):
			return v.Name.Last
		case strings.Contains(spec, "first"):
			return v.Name.First
		default:
			return v.Name.Full()
		}

	case strings.HasPrefix(spec, "number") || strings.HasPrefix(spec, "count") ||
		strings.HasPrefix(spec, "dollars") || strings.HasPrefix(spec, "price"):
		if m := mathExpr.FindStringSubmatch(spec); m != nil {
			if s, ok := applyMath(v, m[2], m[3]); ok {
				return s
			}
		}
		return v.String()

	case strings.HasPrefix(spec, "date"):
		if v.Kind != KindDate {
			return v.String()
		}
		return fmt.Sprintf("%s of %s", ordinal(v.Date.Day()), v.Date.Format("January 2006"))

	case strings.HasPrefix(spec, "year"):
		if v.Kind != KindDate {
			return v.String()
		}
		return strconv.Itoa(v.Date.Year())

	default:
		return v.String()
	}
}

func applyMath(v Value, op, operandStr string) (string, bool) {
	val, ok := numeric(v)
	if !ok {
		return "", false
	}
	operand, err := strconv.ParseFloat(operandStr, 64)
	if err != nil {
		return "", false
	}

	var res float64
	switch op {
	case "+":
		res = val + operand
	case "-":
		res = val - operand
	case "*":
		res = val * operand
	case "/":
		if operand == 0 {
			return "", false
		}
		res = val / operand
	default:
		return "", false
	}

	// Whole results render without a decimal point.
	if res == math.Trunc(res) && math.Abs(res) < 1e15 {
		return strconv.FormatInt(int64(res), 10), true
	}
	return strconv.FormatFloat(res, 'f', -1, 64), true
}

func numeric(v Value) (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindMoney:
		return v.Money, true
	default:
		f, err := strconv.ParseFloat(v.Text, 64)
		return f, err == nil
	}
}

// ordinal renders 1 as "1st", 22 as "22nd", 13 as "13th".
func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
