package dump

import (
	"strconv"
	"sync"

	"github.com/jtang613/pdbtojson/pkg/pdb"
)

// Placeholder names a type reached again while its own name is still being
// built.
const Placeholder = "?"

// Resolver turns type symbols into display names. Names are cached by symbol
// id for the life of the resolver, so a type always resolves to the same
// string. A Resolver is safe for concurrent use.
type Resolver struct {
	mu    sync.Mutex
	names map[uint32]string
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{names: make(map[uint32]string)}
}

// Resolve returns the display name of t, or "" when t is nil.
func (r *Resolver) Resolve(t pdb.Symbol) string {
	return r.resolve(t, make(map[uint32]bool))
}

// Len returns the number of cached names.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

// resolve walks pointer and array chains. visiting holds the ids on the
// current path; a repeat means the graph is cyclic.
func (r *Resolver) resolve(t pdb.Symbol, visiting map[uint32]bool) string {
	if t == nil {
		return ""
	}
	id := t.ID()
	if name, ok := r.lookup(id); ok {
		return name
	}
	if visiting[id] {
		return Placeholder
	}
	visiting[id] = true
	defer delete(visiting, id)

	var name string
	switch t.Tag() {
	case pdb.SymTagPointerType:
		name = r.resolve(t.Type(), visiting) + "*"
	case pdb.SymTagArrayType:
		name = r.resolve(t.Type(), visiting) + "[" + strconv.FormatUint(uint64(t.Count()), 10) + "]"
	case pdb.SymTagBaseType:
		name = PrimitiveName(t.BaseType(), t.Length())
	default:
		name = t.Name()
	}

	r.store(id, name)
	return name
}

func (r *Resolver) lookup(id uint32) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[id]
	return name, ok
}

// store keeps the first name derived for id. Two goroutines racing on the
// same id derive the same string, so either write is correct.
func (r *Resolver) store(id uint32, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[id]; !ok {
		r.names[id] = name
	}
}
