package auth

import (
	"encoding/json"
	"sort"
)

// PermissionSet is a deduplicated set of permission keys. The zero
// value is empty and usable for lookups.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from the given keys, dropping duplicates.
func NewPermissionSet(keys ...string) PermissionSet {
	ps := make(PermissionSet, len(keys))
	for _, k := range keys {
		ps[k] = struct{}{}
	}
	return ps
}

// Has reports whether key is in the set.
func (ps PermissionSet) Has(key string) bool {
	_, ok := ps[key]
	return ok
}

// Add inserts key into the set.
func (ps PermissionSet) Add(key string) {
	ps[key] = struct{}{}
}

// Keys returns the keys in sorted order.
func (ps PermissionSet) Keys() []string {
	keys := make([]string, 0, len(ps))
	for k := range ps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the set as a sorted JSON array of keys.
func (ps PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(ps.Keys())
}

// UnmarshalJSON decodes a JSON array of keys into the set.
func (ps *PermissionSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*ps = NewPermissionSet(keys...)
	return nil
}
