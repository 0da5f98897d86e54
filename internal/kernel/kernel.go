// Package kernel is the library surface the REPL (or any embedding host)
// programs against: construct a Kernel, parse text into expressions, run
// them through the evaluator, define symbols and rules, and report
// messages. Startup follows the conventional kernel sequence: intern the
// System` context, install built-ins, then accept input.
package kernel

import (
	"time"

	pkgerrors "github.com/pkg/errors"

	"symkernel/internal/boxes"
	"symkernel/internal/builtin"
	"symkernel/internal/eval"
	"symkernel/internal/langparser"
	"symkernel/internal/outsink"
	"symkernel/internal/pool"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// Options configures a Kernel. The zero value gives library defaults: the
// stock recursion limit, no timeout, stdout diagnostics.
type Options struct {
	RecursionLimit int
	Timeout        time.Duration // 0 = no deadline
	Sink           outsink.Sink  // nil = stdout
}

// Stats counts kernel activity; updated through a combiner so concurrent
// evaluations (Listable fan-out included) never contend on a lock.
type Stats struct {
	Evaluations int64
	ParseErrors int64
}

// Kernel owns one evaluator and its configuration.
type Kernel struct {
	ev      *eval.Evaluator
	sink    outsink.Sink
	timeout time.Duration
	stats   *pool.Combiner[Stats]
}

// New builds a Kernel: installs the built-in handlers, attributes and
// message templates, and wires the output sink.
func New(opts Options) *Kernel {
	var ev *eval.Evaluator
	if opts.RecursionLimit > 0 {
		ev = eval.NewWithLimit(opts.RecursionLimit)
	} else {
		ev = eval.New()
	}
	sink := opts.Sink
	if sink == nil {
		sink = &outsink.StdoutSink{}
	}
	ev.SetSink(sink)
	builtin.Install(ev)
	return &Kernel{
		ev:      ev,
		sink:    sink,
		timeout: opts.Timeout,
		stats:   pool.NewCombiner(&Stats{}),
	}
}

// Parse turns surface text into an expression tree.
func (k *Kernel) Parse(text string) (value.Value, error) {
	v, err := langparser.ParseText(text)
	if err != nil {
		k.stats.Do(func(s *Stats) { s.ParseErrors++ })
		return nil, pkgerrors.Wrap(err, "parse")
	}
	return v, nil
}

// Evaluate reduces an expression to its fixed point.
func (k *Kernel) Evaluate(v value.Value) (value.Value, error) {
	if k.timeout > 0 {
		k.ev.SetDeadline(time.Now().Add(k.timeout))
		defer k.ev.SetDeadline(time.Time{})
	}
	k.stats.Do(func(s *Stats) { s.Evaluations++ })
	out, err := k.ev.Eval(v)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "evaluate")
	}
	return out, nil
}

// EvaluateString parses and evaluates in one step, the REPL's whole job.
func (k *Kernel) EvaluateString(text string) (value.Value, error) {
	v, err := k.Parse(text)
	if err != nil {
		return nil, err
	}
	return k.Evaluate(v)
}

// Interrupt aborts any evaluation in progress at its next cooperative
// check point.
func (k *Kernel) Interrupt() { k.ev.Interrupt() }

// DefineSymbol interns (or retrieves) a symbol by full name.
func (k *Kernel) DefineSymbol(fullName string) *symbol.Symbol {
	return symbol.Lookup(fullName)
}

// AttributesSet replaces a symbol's attribute bitset.
func (k *Kernel) AttributesSet(s *symbol.Symbol, mask symbol.Attributes) error {
	return pkgerrors.Wrap(s.SetAttributes(mask), "set attributes")
}

// RuleKind selects which table RuleAdd targets.
type RuleKind int

const (
	OwnRule RuleKind = iota
	DownRule
	UpRule
	SubRule
	FormatRule
	NRule
)

// RuleAdd attaches pattern -> rhs to one of s's rule stores. OwnRule
// ignores the pattern and assigns the symbol's own-value.
func (k *Kernel) RuleAdd(s *symbol.Symbol, kind RuleKind, pattern, rhs value.Value) error {
	var err error
	switch kind {
	case OwnRule:
		err = s.SetOwnValue(rhs)
	case UpRule:
		err = s.AddRule(symbol.UpRule, pattern, rhs)
	case SubRule:
		err = s.AddRule(symbol.SubRule, pattern, rhs)
	case FormatRule:
		err = s.AddRule(symbol.FormatRule, pattern, rhs)
	case NRule:
		err = s.AddRule(symbol.NRule, pattern, rhs)
	default:
		err = s.AddRule(symbol.DownRule, pattern, rhs)
	}
	return pkgerrors.Wrap(err, "add rule")
}

// Message reports s::tag through the kernel's sink, expanding the
// symbol's stored template with the args' formatted forms.
func (k *Kernel) Message(s *symbol.Symbol, tag string, args ...value.Value) {
	k.ev.Message(s, tag, args...)
}

// Format renders a value for display: box expressions flatten per the
// box conventions, everything else prints in head[...] form. String
// characters stay hidden, the output-form convention; hosts that want
// input-form quoting render through internal/boxes directly.
func (k *Kernel) Format(v value.Value) string {
	return boxes.Render(v, boxes.RenderOptions{})
}

// Stats returns a snapshot of the kernel's activity counters.
func (k *Kernel) Stats() Stats {
	var out Stats
	k.stats.Do(func(s *Stats) { out = *s })
	return out
}
