package context

import (
	"sync"
)

// Store is the Context Store: a primary ueid→context index and a
// secondary guti→ueid index (spec.md §3, §4.2). Both indices are guarded
// by one RWMutex, following the teacher's UEContextManager pattern
// (nf/amf/internal/context/ue_context.go): reads take the read lock,
// writes take the write lock, and the store never exposes its maps
// directly.
type Store struct {
	mu        sync.RWMutex
	primary   map[UEID]*UEContext
	secondary map[GUTI]UEID
}

// NewStore creates an empty Context Store.
func NewStore() *Store {
	return &Store{
		primary:   make(map[UEID]*UEContext),
		secondary: make(map[GUTI]UEID),
	}
}

// Get looks up a context by ueid.
func (s *Store) Get(ueid UEID) (*UEContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, ok := s.primary[ueid]
	return ctx, ok
}

// GetByGUTI looks up a context by its currently-installed GUTI, following
// the secondary index.
func (s *Store) GetByGUTI(guti GUTI) (*UEContext, bool) {
	s.mu.RLock()
	ueid, ok := s.secondary[guti]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return s.Get(ueid)
}

// Insert adds a new context to the primary index, keyed by its own ueid.
func (s *Store) Insert(ctx *UEContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.primary[ctx.UEID] = ctx
}

// Rekey moves a context from its current ueid to newUEID: removes it from
// the primary index under the old key, rewrites context.UEID, reinserts it
// under the new key, and repoints the secondary index's entry for ctx's
// current GUTI (the GUTI value itself is unchanged, only which ueid it
// resolves to, spec.md §4.2).
func (s *Store) Rekey(ctx *UEContext, newUEID UEID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.primary, ctx.UEID)
	ctx.UEID = newUEID
	s.primary[newUEID] = ctx
	if ctx.GUTI != nil {
		s.secondary[*ctx.GUTI] = newUEID
	}
}

// SetGUTI installs guti as ctx's current GUTI and updates the secondary
// index to point at ctx's ueid. Any previous secondary-index entry for
// ctx's old GUTI is left alone unless the caller also clears it — the
// Context Updater is responsible for moving the old entry into old_guti
// bookkeeping (spec.md §4.4, §9 "secondary index consistency").
func (s *Store) SetGUTI(ctx *UEContext, guti GUTI) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx.GUTI = &guti
	s.secondary[guti] = ctx.UEID
}

// ClearGUTISecondary removes the secondary-index entry for guti, without
// touching the context's GUTI field. Used when a GUTI is superseded.
func (s *Store) ClearGUTISecondary(guti GUTI) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.secondary, guti)
}

// Remove deletes the context stored under ueid from the primary index and
// the secondary-index entry of its current GUTI; entries for GUTIs it held
// earlier (see SetGUTI) are not touched. Idempotent: removing an absent
// ueid is a no-op.
func (s *Store) Remove(ueid UEID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.primary[ueid]
	if !ok {
		return
	}
	if ctx.GUTI != nil {
		delete(s.secondary, *ctx.GUTI)
	}
	delete(s.primary, ueid)
}

// Len returns the number of contexts currently held (used by the debug
// HTTP API).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.primary)
}

// All returns every context currently in the store. Used by the debug
// HTTP API's list endpoint.
func (s *Store) All() []*UEContext {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*UEContext, 0, len(s.primary))
	for _, ctx := range s.primary {
		out = append(out, ctx)
	}
	return out
}

// RegisteredCount returns the number of contexts with IsAttached=true.
func (s *Store) RegisteredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, ctx := range s.primary {
		if ctx.IsAttached {
			count++
		}
	}
	return count
}
