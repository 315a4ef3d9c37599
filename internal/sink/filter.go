package sink

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/pkg/errors"
)

// Filter is a compiled boolean expression over Envelope.Fields.
// Variables missing from an event evaluate to nil.
// Filter 是基于 Envelope.Fields 编译的布尔表达式；事件中缺失的变量取 nil。
type Filter struct {
	src     string
	program *vm.Program
}

// CompileFilter compiles src, e.g. `source == "network" && kind == "arp"`.
func CompileFilter(src string) (*Filter, error) {
	program, err := expr.Compile(src,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, errors.NewConfigError("filter", fmt.Sprintf("%q: %v", src, err))
	}
	return &Filter{src: src, program: program}, nil
}

// Match evaluates the filter against env.
func (f *Filter) Match(env *event.Envelope) (bool, error) {
	out, err := expr.Run(f.program, env.Fields())
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.src, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

func (f *Filter) String() string {
	return f.src
}

// Filtered forwards only the envelopes its filter matches.
type Filtered struct {
	inner  Sink
	filter *Filter
}

func NewFiltered(inner Sink, filter *Filter) *Filtered {
	return &Filtered{inner: inner, filter: filter}
}

func (f *Filtered) Name() string {
	return f.inner.Name()
}

func (f *Filtered) Send(ctx context.Context, env *event.Envelope) error {
	ok, err := f.filter.Match(env)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return f.inner.Send(ctx, env)
}

func (f *Filtered) Close() error {
	return f.inner.Close()
}
