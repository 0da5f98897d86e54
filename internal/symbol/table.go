package symbol

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// hashFullName gives every Symbol a Hash() independent of the numeric
// atom/expression hash space, seeded distinctly from atom kinds so a
// Symbol can never collide by construction with a same-named String atom.
const symbolHashSeed = 0xc0ffee1234567890

func hashFullName(name string) uint64 {
	return symbolHashSeed ^ xxhash.Sum64String(name)
}

// table is the process-wide symbol-interning table: one *Symbol per full
// name, shared by every caller. Ordinary evaluation never removes a
// symbol (Unset clears a symbol's rules/own-value but the name stays
// interned); only Remove below deletes an entry.
type table struct {
	mu         sync.RWMutex
	byFullName map[string]*Symbol
}

var global = &table{byFullName: map[string]*Symbol{}}

// Lookup interns and returns the unique *Symbol for fullName, creating it
// on first use.
func Lookup(fullName string) *Symbol {
	global.mu.RLock()
	s, ok := global.byFullName[fullName]
	global.mu.RUnlock()
	if ok {
		return s
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	if s, ok := global.byFullName[fullName]; ok {
		return s
	}
	s = newSymbol(fullName)
	global.byFullName[fullName] = s
	return s
}

// LookupIn is a convenience wrapper for Lookup(context + "`" + name).
func LookupIn(context, name string) *Symbol {
	return Lookup(context + "`" + name)
}

// Exists reports whether fullName has already been interned, without
// creating it.
func Exists(fullName string) bool {
	global.mu.RLock()
	defer global.mu.RUnlock()
	_, ok := global.byFullName[fullName]
	return ok
}

// Remove deletes a symbol from the global table entirely. Used only by
// test setup and REPL session resets; ordinary evaluation never removes a
// symbol this way — clearing a symbol's values is Symbol.ClearOwnValue /
// RemoveRule instead.
func Remove(fullName string) {
	global.mu.Lock()
	defer global.mu.Unlock()
	delete(global.byFullName, fullName)
}
