package domain

import "time"

// State is the console's view of the api_keys table.
// It is a value: every With* method returns a new State and leaves the
// receiver untouched, so a snapshot handed out earlier never changes.
type State struct {
	Keys     []APIKey  `json:"keys"`
	LoadedAt time.Time `json:"loadedAt"`
}

// NewState builds a State from store rows.
func NewState(rows []*APIKey, loadedAt time.Time) State {
	keys := make([]APIKey, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			keys = append(keys, *r)
		}
	}
	return State{Keys: keys, LoadedAt: loadedAt}
}

// Len returns the number of keys.
func (s State) Len() int { return len(s.Keys) }

// Find returns the key with the given id.
func (s State) Find(id KeyID) (APIKey, bool) {
	for _, k := range s.Keys {
		if k.ID == id {
			return k, true
		}
	}
	return APIKey{}, false
}

// WithAppended returns a copy of s with k added at the end.
func (s State) WithAppended(k APIKey) State {
	keys := make([]APIKey, len(s.Keys), len(s.Keys)+1)
	copy(keys, s.Keys)
	return State{Keys: append(keys, k), LoadedAt: s.LoadedAt}
}

// WithReplaced returns a copy of s where the key sharing k's id is replaced by k.
// If no such key exists the copy is unchanged.
func (s State) WithReplaced(k APIKey) State {
	keys := make([]APIKey, len(s.Keys))
	for i, existing := range s.Keys {
		if existing.ID == k.ID {
			keys[i] = k
		} else {
			keys[i] = existing
		}
	}
	return State{Keys: keys, LoadedAt: s.LoadedAt}
}

// WithRemoved returns a copy of s without the key with the given id.
func (s State) WithRemoved(id KeyID) State {
	keys := make([]APIKey, 0, len(s.Keys))
	for _, k := range s.Keys {
		if k.ID != id {
			keys = append(keys, k)
		}
	}
	return State{Keys: keys, LoadedAt: s.LoadedAt}
}

// WithStatus returns a copy of s with the status of one key changed.
func (s State) WithStatus(id KeyID, status KeyStatus) State {
	keys := make([]APIKey, len(s.Keys))
	copy(keys, s.Keys)
	for i := range keys {
		if keys[i].ID == id {
			keys[i].Status = status
		}
	}
	return State{Keys: keys, LoadedAt: s.LoadedAt}
}
