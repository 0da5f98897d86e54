// Package builtin implements the kernel's built-in functions as
// evaluation handlers registered on an Evaluator, plus the standard
// attribute and message-template assignments for the System` context.
// Each handler follows the same contract: it sees an expression whose
// head resolves to its symbol, leaves already evaluated (hold-permitting)
// and canonicalized, and either returns a rewritten value or passes so
// the symbol's DownValues get their turn.
package builtin

import (
	"symkernel/internal/atom"
	"symkernel/internal/eval"
	"symkernel/internal/symbol"
)

func sys(name string) *symbol.Symbol { return symbol.Lookup("System`" + name) }

// Install registers every built-in handler on ev and applies the standard
// System` attribute and message assignments. It is idempotent; the kernel
// calls it once at startup.
func Install(ev *eval.Evaluator) {
	installAttributes()
	installMessages()

	ev.RegisterBuiltin(sys("Plus"), plusHandler)
	ev.RegisterBuiltin(sys("Times"), timesHandler)
	ev.RegisterBuiltin(sys("Power"), powerHandler)
	ev.RegisterBuiltin(sys("N"), nHandler)

	ev.RegisterBuiltin(sys("Range"), rangeHandler)
	ev.RegisterBuiltin(sys("Thread"), threadHandler)
	ev.RegisterBuiltin(sys("Map"), mapHandler)
	ev.RegisterBuiltin(sys("Apply"), applyHandler)
	ev.RegisterBuiltin(sys("Head"), headHandler)
	ev.RegisterBuiltin(sys("Length"), lengthHandler)
	ev.RegisterBuiltin(sys("First"), firstHandler)
	ev.RegisterBuiltin(sys("Last"), lastHandler)
	ev.RegisterBuiltin(sys("Part"), partHandler)

	ev.RegisterBuiltin(sys("Set"), setHandler)
	ev.RegisterBuiltin(sys("SetDelayed"), setDelayedHandler)
	ev.RegisterBuiltin(sys("Unset"), unsetHandler)
	ev.RegisterBuiltin(sys("If"), ifHandler)
	ev.RegisterBuiltin(sys("CompoundExpression"), compoundHandler)
	ev.RegisterBuiltin(sys("SameQ"), sameQHandler)
	ev.RegisterBuiltin(sys("Equal"), equalHandler)
	ev.RegisterBuiltin(sys("Unequal"), unequalHandler)
	ev.RegisterBuiltin(sys("ReplaceAll"), replaceAllHandler)
	ev.RegisterBuiltin(sys("UnsameQ"), unsameQHandler)
	ev.RegisterBuiltin(sys("Less"), relationHandler(func(c int) bool { return c < 0 }))
	ev.RegisterBuiltin(sys("Greater"), relationHandler(func(c int) bool { return c > 0 }))
	ev.RegisterBuiltin(sys("LessEqual"), relationHandler(func(c int) bool { return c <= 0 }))
	ev.RegisterBuiltin(sys("GreaterEqual"), relationHandler(func(c int) bool { return c >= 0 }))
	ev.RegisterBuiltin(sys("Not"), notHandler)
	ev.RegisterBuiltin(sys("And"), andHandler)
	ev.RegisterBuiltin(sys("Or"), orHandler)
	ev.RegisterBuiltin(sys("NumberQ"), numberQHandler)
	ev.RegisterBuiltin(sys("IntegerQ"), integerQHandler)
	ev.RegisterBuiltin(sys("StringMatchQ"), stringMatchQHandler)
	ev.RegisterBuiltin(sys("StringLength"), stringLengthHandler)
	ev.RegisterBuiltin(sys("StringJoin"), stringJoinHandler)
	ev.RegisterBuiltin(sys("StringTake"), stringTakeHandler)
	ev.RegisterBuiltin(sys("Attributes"), attributesHandler)
	ev.RegisterBuiltin(sys("SetAttributes"), setAttributesHandler)
	ev.RegisterBuiltin(sys("ClearAttributes"), clearAttributesHandler)
}

// installAttributes assigns the conventional attribute sets to the
// System` built-ins. Protected is set in the same call as the other bits;
// SetAttributes refuses only Locked symbols, so Protected never blocks
// the assignments here.
func installAttributes() {
	set := func(name string, a symbol.Attributes) {
		// Ignore the error: none of these are Locked at install time.
		_ = sys(name).SetAttributes(a)
	}
	numericOps := symbol.Flat | symbol.Orderless | symbol.OneIdentity |
		symbol.Listable | symbol.NumericFunction | symbol.Protected
	set("Plus", numericOps)
	set("Times", numericOps)
	set("Power", symbol.Listable|symbol.NumericFunction|symbol.OneIdentity|symbol.Protected)
	set("List", symbol.Protected)
	set("Set", symbol.HoldFirst|symbol.SequenceHold|symbol.Protected)
	set("SetDelayed", symbol.HoldAll|symbol.SequenceHold|symbol.Protected)
	set("Unset", symbol.HoldFirst|symbol.Protected)
	set("If", symbol.HoldRest|symbol.Protected)
	set("CompoundExpression", symbol.HoldAll|symbol.Protected)
	set("Hold", symbol.HoldAll|symbol.Protected)
	set("HoldComplete", symbol.HoldAllComplete|symbol.Protected)
	set("Sequence", symbol.Protected)
	set("SameQ", symbol.Protected)
	set("Equal", symbol.Protected)
	set("Unequal", symbol.Protected)
	set("Pattern", symbol.HoldFirst|symbol.Protected)
	set("Condition", symbol.HoldAll|symbol.Protected)
	set("PatternTest", symbol.HoldRest|symbol.Protected)
	set("RuleDelayed", symbol.HoldRest|symbol.SequenceHold|symbol.Protected)
	set("Rule", symbol.SequenceHold|symbol.Protected)
	set("Blank", symbol.Protected)
	set("BlankSequence", symbol.Protected)
	set("BlankNullSequence", symbol.Protected)
	set("Attributes", symbol.HoldAll|symbol.Protected)
	set("SetAttributes", symbol.HoldFirst|symbol.Protected)
	set("ClearAttributes", symbol.HoldFirst|symbol.Protected)
	set("Timing", symbol.HoldAll|symbol.Protected)
	set("N", symbol.Protected)
	set("True", symbol.Constant|symbol.Protected)
	set("False", symbol.Constant|symbol.Protected)
	set("Null", symbol.Constant|symbol.Protected)
	set("Pi", symbol.Constant|symbol.NumericFunction|symbol.Protected)
	set("E", symbol.Constant|symbol.NumericFunction|symbol.Protected)
	set("Infinity", symbol.Constant|symbol.Protected)

	// Heads with no handler of their own still get interned (and
	// protected) so bare surface names resolve into System` rather than
	// Global`.
	set("And", symbol.HoldAll|symbol.Protected)
	set("Or", symbol.HoldAll|symbol.Protected)
	for _, name := range []string{
		"Integer", "Real", "Rational", "Complex", "String", "Symbol",
		"Optional", "Alternatives", "Except", "Verbatim", "Repeated",
		"RepeatedNull", "Shortest", "Longest", "OptionsPattern",
		"OptionValue", "Not", "Less", "Greater", "LessEqual",
		"GreaterEqual", "UnsameQ", "NumberQ", "IntegerQ", "RowBox",
		"StyleBox", "SuperscriptBox", "NumberForm", "General",
		"StringExpression", "StringMatchQ", "StringLength", "StringJoin",
		"StringTake", "IgnoreCase",
	} {
		set(name, symbol.Protected)
	}
}

// installMessages stores the message templates the built-ins emit.
func installMessages() {
	msg := func(name, tag, template string) {
		sys(name).SetMessage(tag, atom.NewString(template))
	}
	msg("Thread", "tdlen", "Objects of unequal length in `1` cannot be combined.")
	msg("Power", "infy", "Infinite expression `1` encountered.")
	msg("$RecursionLimit", "reclim", "Recursion depth of `1` exceeded.")
	msg("Part", "partw", "Part `1` of `2` does not exist.")
	msg("Set", "write", "Tag `1` in `2` is Protected.")
	msg("NumberForm", "optx", "Unknown option `1` in NumberForm.")
	msg("General", "argx", "`1` called with `2` arguments; `3` expected.")
}
