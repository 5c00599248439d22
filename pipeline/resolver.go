package pipeline

import (
	"context"
	"log"
	"strings"

	"aqar_pipeline/normalize"
)

// Resolver maps a natural-key label to its surrogate id in a lookup table,
// creating the reference row on first sight when autoCreate is set.
// Matching is trimmed and case-insensitive, consistently across all lookup
// tables. Resolutions are cached for the lifetime of one run, so the same
// value never costs more than one round-trip and never creates a duplicate
// label.
type Resolver struct {
	store      TargetStore
	autoCreate bool
	cache      map[string]map[string]*int64
}

func NewResolver(store TargetStore, autoCreate bool) *Resolver {
	return &Resolver{
		store:      store,
		autoCreate: autoCreate,
		cache:      make(map[string]map[string]*int64),
	}
}

// Resolve returns the surrogate id for value in table, or nil when the value
// is empty, corrupted, or unresolved. A store failure during resolution is a
// per-field problem: the field nulls out and the row still migrates.
func (r *Resolver) Resolve(ctx context.Context, table, value string) *int64 {
	return r.resolve(ctx, table, value, r.autoCreate)
}

// ResolveExisting is find-only: it never creates a row regardless of the
// resolver's auto-create policy. Used where a second lookup table already
// captures the raw value and creating here would just mirror it.
func (r *Resolver) ResolveExisting(ctx context.Context, table, value string) *int64 {
	return r.resolve(ctx, table, value, false)
}

func (r *Resolver) resolve(ctx context.Context, table, value string, create bool) *int64 {
	value = strings.TrimSpace(value)
	if value == "" || normalize.IsCorruptedValue(value) {
		return nil
	}

	key := strings.ToLower(value)
	if byValue, ok := r.cache[table]; ok {
		if id, ok := byValue[key]; ok {
			return id
		}
	} else {
		r.cache[table] = make(map[string]*int64)
	}

	id, found, err := r.store.FindLookup(ctx, table, value)
	if err != nil {
		log.Printf("Warning: lookup %s %q: %v", table, value, err)
		return nil
	}

	if !found && create {
		id, err = r.store.CreateLookup(ctx, table, value)
		if err != nil {
			log.Printf("Warning: create lookup %s %q: %v", table, value, err)
			return nil
		}
		found = true
	}

	var resolved *int64
	if found {
		resolved = &id
	}
	r.cache[table][key] = resolved
	return resolved
}
