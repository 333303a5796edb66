package builtins

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/mistql/mistql-go/pkg/types"
)

func stringBuiltins() []*builtin {
	return []*builtin{
		newBuiltin("string", 1, 1, opString),
		newBuiltin("float", 1, 1, opFloat),
		newBuiltin("regex", 1, 2, opRegex),
		newBuiltin("match", 2, 2, opMatch),
		newBuiltin("=~", 2, 2, opMatchInfix),
		newBuiltin("replace", 3, 3, opReplace),
		newBuiltin("split", 2, 2, opSplit),
		newBuiltin("stringjoin", 2, 2, opStringJoin),
	}
}

func opString(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	s, err := ToStringValue(x)
	if err != nil {
		return types.Null, err
	}
	return types.String(s), nil
}

func opFloat(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	x, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	f, err := floatFromValue(x)
	if err != nil {
		return types.Null, err
	}
	return types.Number(f), nil
}

// compileRegex translates MistQL's flag letters (§4.5: i m s g) to
// regexp2.RegexOptions, compiling with regexp2 rather than the stdlib
// regexp package because `s` (dot-all) and the lookaround/backreference
// surface the flags imply need a backtracking engine, which Go's RE2-based
// stdlib regexp cannot provide.
func compileRegex(pattern, flags string) (*types.Regex, error) {
	opts := regexp2.None
	global := false
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'g':
			global = true
		default:
			return nil, types.RuntimeErrorf("unsupported regex flag %q", string(f))
		}
	}
	compiled, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, types.RuntimeErrorf("invalid regex pattern %q: %v", pattern, err).WithCause(err)
	}
	return &types.Regex{
		Source:  pattern,
		Flags:   flags,
		Global:  global,
		Pattern: &regexEngine{re: compiled},
	}, nil
}

// regexEngine adapts *regexp2.Regexp to types.RegexEngine.
type regexEngine struct {
	re *regexp2.Regexp
}

func (e *regexEngine) FindIndex(s string, start int) (int, int, []string, bool, error) {
	var m *regexp2.Match
	var err error
	if start <= 0 {
		m, err = e.re.FindStringMatch(s)
	} else {
		m, err = e.re.FindStringMatchStartingAt(s, start)
	}
	if err != nil {
		return 0, 0, nil, false, err
	}
	if m == nil {
		return 0, 0, nil, false, nil
	}
	groups := m.Groups()
	texts := make([]string, len(groups))
	for i, g := range groups {
		texts[i] = g.String()
	}
	return m.Index, m.Index + m.Length, texts, true, nil
}

// regexSplit splits s on every non-overlapping match of re, the way
// regexp2 has no built-in Split: walk matches with FindNextMatch and keep
// the gaps between them.
func regexSplit(re *regexp2.Regexp, s string) ([]string, error) {
	var parts []string
	pos := 0
	m, err := re.FindStringMatch(s)
	if err != nil {
		return nil, err
	}
	for m != nil {
		parts = append(parts, s[pos:m.Index])
		pos = m.Index + m.Length
		m, err = re.FindNextMatch(m)
		if err != nil {
			return nil, err
		}
	}
	parts = append(parts, s[pos:])
	return parts, nil
}

func opRegex(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	patVal, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if !patVal.IsString() {
		return types.Null, types.TypeErrorf("regex requires a string pattern, got %s", patVal.Kind())
	}
	flags := ""
	if len(args) == 2 {
		flagsVal, err := evalArg(args, 1, stack, ev)
		if err != nil {
			return types.Null, err
		}
		if !flagsVal.IsString() {
			return types.Null, types.TypeErrorf("regex flags must be a string, got %s", flagsVal.Kind())
		}
		flags = flagsVal.AsString()
	}
	re, err := compileRegex(patVal.AsString(), flags)
	if err != nil {
		return types.Null, err
	}
	return types.NewRegex(re), nil
}

// matchValue implements the `match`/`=~` truth table (§4.5): a Regex
// matches anywhere in target; a String pattern is matched literally.
func matchValue(pat, target types.Value) (bool, error) {
	if !target.IsString() {
		return false, types.TypeErrorf("match target must be a string, got %s", target.Kind())
	}
	switch {
	case pat.IsRegex():
		_, _, _, ok, err := pat.AsRegex().Pattern.FindIndex(target.AsString(), 0)
		if err != nil {
			return false, types.RuntimeErrorf("regex match failed: %v", err)
		}
		return ok, nil
	case pat.IsString():
		return strings.Contains(target.AsString(), pat.AsString()), nil
	default:
		return false, types.TypeErrorf("match pattern must be a regex or string, got %s", pat.Kind())
	}
}

func opMatch(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	pat, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	target, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	ok, err := matchValue(pat, target)
	if err != nil {
		return types.Null, err
	}
	return types.Bool(ok), nil
}

// opMatchInfix is `=~`, same as match with operand order swapped (§4.5):
// `target =~ pat` lowers to a Fncall with args (target, pat).
func opMatchInfix(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	target, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	pat, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	ok, err := matchValue(pat, target)
	if err != nil {
		return types.Null, err
	}
	return types.Bool(ok), nil
}

// opReplace implements §4.5: Regex with global=true replaces every
// non-overlapping match; Regex without, or a plain String pattern, replaces
// only the first occurrence.
func opReplace(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	pat, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	replVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if !replVal.IsString() {
		return types.Null, types.TypeErrorf("replace requires a string replacement, got %s", replVal.Kind())
	}
	target, err := evalArg(args, 2, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if !target.IsString() {
		return types.Null, types.TypeErrorf("replace requires a string target, got %s", target.Kind())
	}
	repl := replVal.AsString()

	switch {
	case pat.IsRegex():
		re := pat.AsRegex()
		engine, ok := re.Pattern.(*regexEngine)
		if !ok {
			return types.Null, types.InternalErrorf("unexpected regex engine implementation")
		}
		count := 1
		if re.Global {
			count = -1
		}
		out, err := engine.re.Replace(target.AsString(), repl, 0, count)
		if err != nil {
			return types.Null, types.RuntimeErrorf("regex replace failed: %v", err)
		}
		return types.String(out), nil
	case pat.IsString():
		return types.String(strings.Replace(target.AsString(), pat.AsString(), repl, 1)), nil
	default:
		return types.Null, types.TypeErrorf("replace pattern must be a regex or string, got %s", pat.Kind())
	}
}

// opSplit implements §4.5: a String delimiter splits literally (an empty
// delimiter explodes into characters); a Regex delimiter splits by pattern.
func opSplit(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	delim, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	targetVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if !targetVal.IsString() {
		return types.Null, types.TypeErrorf("split requires a string target, got %s", targetVal.Kind())
	}
	target := targetVal.AsString()

	var parts []string
	switch {
	case delim.IsString():
		if delim.AsString() == "" {
			for _, r := range target {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(target, delim.AsString())
		}
	case delim.IsRegex():
		engine, ok := delim.AsRegex().Pattern.(*regexEngine)
		if !ok {
			return types.Null, types.InternalErrorf("unexpected regex engine implementation")
		}
		parts, err = regexSplit(engine.re, target)
		if err != nil {
			return types.Null, types.RuntimeErrorf("regex split failed: %v", err)
		}
	default:
		return types.Null, types.TypeErrorf("split delimiter must be a regex or string, got %s", delim.Kind())
	}

	out := make([]types.Value, len(parts))
	for i, p := range parts {
		out[i] = types.String(p)
	}
	return types.NewArray(out), nil
}

func opStringJoin(args []*types.ASTNode, stack types.Stack, ev types.Evaluator) (types.Value, error) {
	delimVal, err := evalArg(args, 0, stack, ev)
	if err != nil {
		return types.Null, err
	}
	if !delimVal.IsString() {
		return types.Null, types.TypeErrorf("stringjoin requires a string delimiter, got %s", delimVal.Kind())
	}
	xsVal, err := evalArg(args, 1, stack, ev)
	if err != nil {
		return types.Null, err
	}
	xs, err := requireArray(xsVal, "stringjoin")
	if err != nil {
		return types.Null, err
	}
	parts := make([]string, len(xs))
	for i, item := range xs {
		s, err := ToStringValue(item)
		if err != nil {
			return types.Null, err
		}
		parts[i] = s
	}
	return types.String(strings.Join(parts, delimVal.AsString())), nil
}
