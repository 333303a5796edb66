package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/mistql/mistql-go/pkg/gardenwall"
	"github.com/mistql/mistql-go/pkg/types"
)

// FormatNumber implements §4.6's to_string rules for Numbers, in the exact
// order the spec lists them. Grounded on the teacher's
// formatNumberForString/roundNumberForJSON (pkg/evaluator/eval_utils.go),
// adapted from JSONata's 1e-6/1e21 thresholds to MistQL's 1e-7/1e21 ones and
// to add the "integral magnitudes render without a decimal point" rule,
// which JSONata's formatter doesn't have.
func FormatNumber(v float64) string {
	rounded := roundToSignificantDigits(v, 15)
	abs := math.Abs(rounded)

	if abs != 0 && rounded == math.Trunc(rounded) && abs < 1e21 {
		return strconv.FormatFloat(rounded, 'f', 0, 64)
	}
	if rounded == 0 {
		return "0"
	}

	if abs <= 1e-7 {
		return collapseExponent(strconv.FormatFloat(rounded, 'e', -1, 64))
	}

	if abs < 1 {
		str := strconv.FormatFloat(rounded, 'f', 15, 64)
		str = strings.TrimRight(str, "0")
		str = strings.TrimRight(str, ".")
		if str == "" || str == "-0" {
			return "0"
		}
		return str
	}

	return collapseExponent(strconv.FormatFloat(rounded, 'g', -1, 64))
}

// roundToSignificantDigits rounds v to n significant decimal digits, the
// same trick the teacher uses: format then re-parse.
func roundToSignificantDigits(v float64, n int) float64 {
	str := strconv.FormatFloat(v, 'g', n, 64)
	rounded, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return v
	}
	return rounded
}

// collapseExponent strips the leading zero from a scientific exponent
// (1e-08 → 1e-8, 1e+21 → 1e+21 stays, 1e+08 → 1e+8), matching §4.6.
func collapseExponent(s string) string {
	s = strings.ReplaceAll(s, "e-0", "e-")
	s = strings.ReplaceAll(s, "e+0", "e+")
	return s
}

// ToStringValue implements the `string` built-in / to_string method for
// every Value variant (§4.5's "string x returns x.to_string()"): Null and
// the primitives render directly, Array/Object render as compact JSON
// (matching the original implementation's behavior of JSON-stringifying
// composite values), Function and Regex cannot be stringified.
func ToStringValue(v types.Value) (string, error) {
	switch v.Kind() {
	case types.KindNull:
		return "null", nil
	case types.KindBoolean:
		if v.AsBool() {
			return "true", nil
		}
		return "false", nil
	case types.KindNumber:
		return FormatNumber(v.AsNumber()), nil
	case types.KindString:
		return v.AsString(), nil
	case types.KindArray, types.KindObject:
		return jsonStringify(v)
	default:
		return "", types.TypeErrorf("cannot convert %s to a string", v.Kind())
	}
}

// jsonStringify renders an Array/Object Value as compact JSON text, honoring
// Object insertion order (§3). Delegates to gardenwall.EncodeJSON's direct
// Value-tree walk rather than round-tripping through a Go map — a plain
// map[string]interface{} plus encoding/json.Marshal always emits keys
// alphabetically, which would silently violate the insertion-order
// invariant `string {z: 1, a: 2}` depends on.
func jsonStringify(v types.Value) (string, error) {
	b, err := gardenwall.EncodeJSON(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// floatFromValue implements the `float` built-in's coercion table (§4.5).
func floatFromValue(v types.Value) (float64, error) {
	switch v.Kind() {
	case types.KindNumber:
		return v.AsNumber(), nil
	case types.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.AsString()), 64)
		if err != nil {
			return 0, types.RuntimeErrorf("cannot convert string %q to a number", v.AsString())
		}
		return f, nil
	case types.KindBoolean:
		if v.AsBool() {
			return 1, nil
		}
		return 0, nil
	case types.KindNull:
		return 0, nil
	default:
		return 0, types.TypeErrorf("cannot convert %s to a number", v.Kind())
	}
}
