package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// EntryID identifies an RPS child entry. It is either New (never persisted)
// or Persisted with the id the store assigned. The zero value is New.
type EntryID struct {
	id        int64
	persisted bool
}

// NewEntry returns the identity of an entry that has not been saved yet.
func NewEntry() EntryID { return EntryID{} }

// Persisted returns the identity of a stored entry.
func Persisted(id int64) EntryID { return EntryID{id: id, persisted: true} }

// IsNew reports whether the entry has never been persisted.
func (e EntryID) IsNew() bool { return !e.persisted }

// IsZero lets encoding/json omit New identities with the omitzero option.
func (e EntryID) IsZero() bool { return !e.persisted }

// Value returns the stored id and true, or 0 and false for a New entry.
func (e EntryID) Value() (int64, bool) { return e.id, e.persisted }

// Equal reports whether both identities are New or carry the same id.
func (e EntryID) Equal(o EntryID) bool { return e == o }

func (e EntryID) String() string {
	if !e.persisted {
		return "new"
	}
	return strconv.FormatInt(e.id, 10)
}

func (e EntryID) MarshalJSON() ([]byte, error) {
	if !e.persisted {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, e.id, 10), nil
}

func (e *EntryID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*e = EntryID{}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	id, err := n.Int64()
	if err != nil {
		return fmt.Errorf("entry id %q: %w", n, err)
	}
	*e = Persisted(id)
	return nil
}
