// Package dump walks a PDB symbol graph and collects its classes, enums,
// functions, global variables and typedefs into a Document.
package dump

import (
	"errors"
	"fmt"

	"github.com/jtang613/pdbtojson/pkg/pdb"
)

// ErrEnumeration is returned by Dump when the children of the global scope
// cannot be listed.
var ErrEnumeration = errors.New("failed to enumerate symbols")

// Stats counts what happened to the top-level symbols of a dump.
type Stats struct {
	Visited  int
	Skipped  int // symbols of a kind that is not dumped
	Filtered int // symbols rejected by the source filter
}

// Option configures a Dumper.
type Option func(*Dumper)

// WithFilter restricts the dump to symbols accepted by f.
func WithFilter(f *Filter) Option {
	return func(d *Dumper) { d.filter = f }
}

// WithProgress registers fn to be called after each top-level symbol.
func WithProgress(fn func(processed, total int)) Option {
	return func(d *Dumper) { d.progress = fn }
}

// WithResolver shares a resolver, and its cache, with the dumper.
func WithResolver(r *Resolver) Option {
	return func(d *Dumper) { d.resolver = r }
}

// Dumper builds documents. It is not safe for concurrent use.
type Dumper struct {
	filter   *Filter
	progress func(processed, total int)
	resolver *Resolver
}

// New returns a Dumper. By default it keeps every symbol and uses a fresh
// resolver.
func New(opts ...Option) *Dumper {
	d := &Dumper{}
	for _, opt := range opts {
		opt(d)
	}
	if d.resolver == nil {
		d.resolver = NewResolver()
	}
	return d
}

// Resolver returns the resolver used for type names.
func (d *Dumper) Resolver() *Resolver {
	return d.resolver
}

// Dump visits the direct children of global in the order the session lists
// them. Only a failure to list those children is returned; failures further
// down leave the affected collection empty.
func (d *Dumper) Dump(global pdb.Symbol) (*Document, error) {
	symbols, err := global.Children(pdb.SymTagNull)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}

	doc := NewDocument()
	total := len(symbols)
	for i, sym := range symbols {
		doc.Stats.Visited++
		d.add(doc, sym)
		if d.progress != nil {
			d.progress(i+1, total)
		}
	}
	return doc, nil
}

func (d *Dumper) add(doc *Document, sym pdb.Symbol) {
	switch Classify(sym.Tag()) {
	case KindComposite:
		if info, ok := d.buildClass(sym); ok {
			doc.Classes = append(doc.Classes, info)
			return
		}
	case KindEnumeration:
		if info, ok := d.buildEnum(sym); ok {
			doc.Enums = append(doc.Enums, info)
			return
		}
	case KindFunction:
		if info, ok := d.buildFunction(sym); ok {
			doc.GlobalFunctions = append(doc.GlobalFunctions, info)
			return
		}
	case KindData:
		if info, ok := d.buildGlobalVariable(sym); ok {
			doc.GlobalVariables = append(doc.GlobalVariables, info)
			return
		}
	case KindTypedef:
		doc.Typedefs = append(doc.Typedefs, d.buildTypedef(sym))
		return
	case KindOther:
		doc.Stats.Skipped++
		return
	}
	doc.Stats.Filtered++
}
