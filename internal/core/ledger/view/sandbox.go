package view

import (
	"sort"

	"github.com/LeJamon/ripplecalc/internal/core/ledger/keylet"
)

// Sandbox provides isolated, reversible state changes on top of a parent
// sandbox or a base view. Changes reach the parent only through Apply; a
// sandbox that is dropped or Reset leaves its parent untouched.
type Sandbox struct {
	// parent is the parent Sandbox (nil for root sandbox)
	parent *Sandbox

	// view is the underlying ledger view (used only for root sandbox)
	view View

	// modifications holds modified ledger entries (key -> new data)
	modifications map[[32]byte][]byte

	// insertions holds newly created ledger entries
	insertions map[[32]byte][]byte

	// deletions holds deleted ledger entry keys
	deletions map[[32]byte]bool
}

// NewSandbox creates a root Sandbox over view.
func NewSandbox(view View) *Sandbox {
	return &Sandbox{
		view:          view,
		modifications: make(map[[32]byte][]byte),
		insertions:    make(map[[32]byte][]byte),
		deletions:     make(map[[32]byte]bool),
	}
}

// Child creates a Sandbox on top of s. Its changes are pushed to s when
// Apply is called.
func (s *Sandbox) Child() *Sandbox {
	return &Sandbox{
		parent:        s,
		modifications: make(map[[32]byte][]byte),
		insertions:    make(map[[32]byte][]byte),
		deletions:     make(map[[32]byte]bool),
	}
}

// Parent returns the parent sandbox, nil for a root.
func (s *Sandbox) Parent() *Sandbox {
	return s.parent
}

func (s *Sandbox) Read(k keylet.Keylet) ([]byte, error) {
	key := k.Key
	if s.deletions[key] {
		return nil, nil
	}
	if data, ok := s.modifications[key]; ok {
		return cloneBytes(data), nil
	}
	if data, ok := s.insertions[key]; ok {
		return cloneBytes(data), nil
	}
	if s.parent != nil {
		return s.parent.Read(k)
	}
	if s.view != nil {
		return s.view.Read(k)
	}
	return nil, nil
}

func (s *Sandbox) Exists(k keylet.Keylet) (bool, error) {
	key := k.Key
	if s.deletions[key] {
		return false, nil
	}
	if _, ok := s.modifications[key]; ok {
		return true, nil
	}
	if _, ok := s.insertions[key]; ok {
		return true, nil
	}
	if s.parent != nil {
		return s.parent.Exists(k)
	}
	if s.view != nil {
		return s.view.Exists(k)
	}
	return false, nil
}

func (s *Sandbox) Insert(k keylet.Keylet, data []byte) error {
	key := k.Key
	if s.deletions[key] {
		// Re-creating an entry deleted here replaces the parent's copy.
		delete(s.deletions, key)
		s.modifications[key] = cloneBytes(data)
		return nil
	}
	s.insertions[key] = cloneBytes(data)
	return nil
}

func (s *Sandbox) Update(k keylet.Keylet, data []byte) error {
	key := k.Key
	if _, ok := s.insertions[key]; ok {
		s.insertions[key] = cloneBytes(data)
		return nil
	}
	s.modifications[key] = cloneBytes(data)
	return nil
}

func (s *Sandbox) Erase(k keylet.Keylet) error {
	key := k.Key
	if _, ok := s.insertions[key]; ok {
		// Created and erased here: the parent never knew about it.
		delete(s.insertions, key)
		return nil
	}
	delete(s.modifications, key)
	s.deletions[key] = true
	return nil
}

func (s *Sandbox) parentSucc(after, before [32]byte) ([32]byte, bool, error) {
	if s.parent != nil {
		return s.parent.Succ(after, before)
	}
	if s.view != nil {
		return s.view.Succ(after, before)
	}
	return [32]byte{}, false, nil
}

func (s *Sandbox) Succ(after, before [32]byte) ([32]byte, bool, error) {
	var best [32]byte
	found := false

	cur := after
	for {
		key, ok, err := s.parentSucc(cur, before)
		if err != nil {
			return best, false, err
		}
		if !ok {
			break
		}
		if !s.deletions[key] {
			best, found = key, true
			break
		}
		cur = key
	}

	consider := func(key [32]byte) {
		if keyLess(after, key) && keyLess(key, before) && (!found || keyLess(key, best)) {
			best, found = key, true
		}
	}
	for key := range s.insertions {
		consider(key)
	}
	for key := range s.modifications {
		consider(key)
	}
	return best, found, nil
}

// Apply pushes the changes of s into its parent to.
func (s *Sandbox) Apply(to *Sandbox) {
	if s.parent != to {
		panic("Sandbox.Apply: parent mismatch")
	}

	for key := range s.deletions {
		if _, ok := to.insertions[key]; ok {
			delete(to.insertions, key)
			continue
		}
		delete(to.modifications, key)
		to.deletions[key] = true
	}

	for key, data := range s.insertions {
		if to.deletions[key] {
			delete(to.deletions, key)
			to.modifications[key] = data
			continue
		}
		to.insertions[key] = data
	}

	for key, data := range s.modifications {
		if _, ok := to.insertions[key]; ok {
			to.insertions[key] = data
			continue
		}
		delete(to.deletions, key)
		to.modifications[key] = data
	}

	s.Reset()
}

// ApplyToView writes the changes of a root sandbox into its base view in
// a fixed order: deletions, insertions, then modifications.
func (s *Sandbox) ApplyToView() error {
	if s.parent != nil {
		panic("Sandbox.ApplyToView: not a root sandbox")
	}

	for _, key := range sortedKeys(s.deletions) {
		if err := s.view.Erase(keylet.Keylet{Key: key}); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(s.insertions) {
		if err := s.view.Insert(keylet.Keylet{Key: key}, s.insertions[key]); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(s.modifications) {
		if err := s.view.Update(keylet.Keylet{Key: key}, s.modifications[key]); err != nil {
			return err
		}
	}

	s.Reset()
	return nil
}

// Reset discards every change held by s.
func (s *Sandbox) Reset() {
	s.modifications = make(map[[32]byte][]byte)
	s.insertions = make(map[[32]byte][]byte)
	s.deletions = make(map[[32]byte]bool)
}

// Changes lists the keys s touched, each list in key order.
type Changes struct {
	Inserted [][32]byte
	Modified [][32]byte
	Deleted  [][32]byte
}

// Changes returns the keys touched by s.
func (s *Sandbox) Changes() Changes {
	return Changes{
		Inserted: sortedKeys(s.insertions),
		Modified: sortedKeys(s.modifications),
		Deleted:  sortedKeys(s.deletions),
	}
}

// Empty reports whether s holds no changes.
func (s *Sandbox) Empty() bool {
	return len(s.insertions) == 0 && len(s.modifications) == 0 && len(s.deletions) == 0
}

func sortedKeys[V any](m map[[32]byte]V) [][32]byte {
	keys := make([][32]byte, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
	return keys
}
