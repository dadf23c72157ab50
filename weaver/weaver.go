// Package weaver appends fluent "dutiful" variants to the types of a
// compiled module. A dutiful variant calls the original method, discards
// its result and returns the receiver, so calls can be chained.
package weaver

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/licshee/dutiful/ir"
	"github.com/licshee/dutiful/rules"
)

// LoggerName is the commonlog name used by the weaver.
const LoggerName = "dutiful.weaver"

// Woven records one appended wrapper.
type Woven struct {
	Type     string
	Original ir.MethodID
	Wrapper  ir.MethodID
	Name     string
}

// Collision records a wrapper that was not appended because its type
// already has a method with the same name and parameter types.
type Collision struct {
	Type      string
	Original  ir.MethodID
	Signature string
	Existing  ir.MethodID
}

// Report summarizes a weaving run.
type Report struct {
	Types      []string
	Woven      []Woven
	Collisions []Collision
}

// Option configures a Weaver.
type Option func(*Weaver)

// WithLogger replaces the default logger.
func WithLogger(log commonlog.Logger) Option {
	return func(w *Weaver) { w.log = log }
}

// Weaver runs one weaving pass over a module.
type Weaver struct {
	module *ir.Module
	config rules.Config
	log    commonlog.Logger

	rules  *rules.Set
	filter *Filter
}

// New creates a weaver for mod with raw configuration cfg.
func New(mod *ir.Module, cfg rules.Config, opts ...Option) *Weaver {
	w := &Weaver{
		module: mod,
		config: cfg,
		log:    commonlog.GetLogger(LoggerName),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Rules returns the compiled rule set of the last Execute, or nil.
func (w *Weaver) Rules() *rules.Set {
	return w.rules
}

// Execute compiles the configuration and appends a wrapper for every
// eligible method of every public class or struct. Configuration errors
// are returned before the module is modified.
func (w *Weaver) Execute() (*Report, error) {
	ts := w.module.TypeSystem

	set, err := rules.Compile(w.config, ts.Object.FullName())
	if err != nil {
		return nil, err
	}
	w.rules = set
	w.filter = NewFilter(w.module, set)

	report := &Report{}
	for _, t := range w.module.Types() {
		if !t.Public || t.IsEnum() || t.IsInterface() {
			continue
		}
		if err := w.addDutifulMethods(t, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// addDutifulMethods wraps the eligible methods of t. The method list is
// snapshotted first so wrappers are never wrapped themselves.
func (w *Weaver) addDutifulMethods(t *ir.Type, report *Report) error {
	w.log.Infof("Processing type %q...", t.FullName())
	report.Types = append(report.Types, t.FullName())

	for _, m := range w.module.MethodsOf(t) {
		if verdict := w.filter.Check(m); verdict != Eligible {
			w.log.Debugf("skipping %s: %s", m.Signature(), verdict)
			continue
		}

		name := w.rules.NameFormat.Apply(m.Name)
		dutiful, err := Synthesize(w.module, m, name)
		if err != nil {
			return err
		}

		sig := dutiful.Signature()
		if existing := w.module.FindMethodBySignature(t, sig); existing != nil {
			w.log.Warningf("not weaving %s::%s: name is taken by method %d", t.FullName(), sig, existing.ID)
			report.Collisions = append(report.Collisions, Collision{
				Type:      t.FullName(),
				Original:  m.ID,
				Signature: sig,
				Existing:  existing.ID,
			})
			continue
		}

		w.log.Infof("Weaving method %q...", name)
		w.module.AddMethod(t, dutiful)
		report.Woven = append(report.Woven, Woven{
			Type:     t.FullName(),
			Original: m.ID,
			Wrapper:  dutiful.ID,
			Name:     name,
		})
	}
	return nil
}

// String returns a one-line summary.
func (r *Report) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d types, %d methods woven", len(r.Types), len(r.Woven)))
	if n := len(r.Collisions); n > 0 {
		sb.WriteString(fmt.Sprintf(", %d collisions skipped", n))
	}
	return sb.String()
}
