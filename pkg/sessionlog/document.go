package sessionlog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/advisor/pkg/session"
)

// SchemaVersion is the document version written by this package.
const SchemaVersion = 1

// Document is the full persisted state: every client's ordered sessions.
type Document struct {
	SchemaVersion int      `json:"schema_version"`
	Clients       *Clients `json:"clients"`
}

// NewDocument returns an empty document at the current schema version.
func NewDocument() *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		Clients:       NewClients(),
	}
}

// Len is the total number of sessions across all clients.
func (d *Document) Len() int {
	if d == nil || d.Clients == nil {
		return 0
	}
	return d.Clients.Len()
}

// Bucket holds one client's sessions in save order.
type Bucket struct {
	Sessions []session.Record `json:"sessions"`
}

// Clients maps client names to buckets and remembers the order in which
// names were first seen, both in memory and through JSON round trips.
type Clients struct {
	names   []string
	buckets map[string]*Bucket
}

// NewClients returns an empty client map.
func NewClients() *Clients {
	return &Clients{buckets: map[string]*Bucket{}}
}

// Names returns client names in document order.
func (c *Clients) Names() []string {
	return append([]string(nil), c.names...)
}

// Has reports whether the client has a bucket.
func (c *Clients) Has(name string) bool {
	_, ok := c.buckets[name]
	return ok
}

// Sessions returns the client's sessions. The slice is shared with the
// document and must not be modified.
func (c *Clients) Sessions(name string) []session.Record {
	b, ok := c.buckets[name]
	if !ok {
		return nil
	}
	return b.Sessions
}

// Len is the total number of sessions.
func (c *Clients) Len() int {
	n := 0
	for _, b := range c.buckets {
		n += len(b.Sessions)
	}
	return n
}

// Each calls fn for every session, clients in document order and sessions
// in bucket order. Iteration stops at the first error.
func (c *Clients) Each(fn func(r session.Record) error) error {
	for _, name := range c.names {
		for _, r := range c.buckets[name].Sessions {
			if err := fn(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// Append adds r to the end of its client's bucket, creating the bucket if
// needed. It returns a function that undoes the append.
func (c *Clients) Append(r session.Record) (undo func()) {
	name := r.ClientName
	b, ok := c.buckets[name]
	if !ok {
		b = &Bucket{}
		c.buckets[name] = b
		c.names = append(c.names, name)
	}
	b.Sessions = append(b.Sessions, r)

	return func() {
		b.Sessions = b.Sessions[:len(b.Sessions)-1]
		if !ok {
			delete(c.buckets, name)
			c.names = c.names[:len(c.names)-1]
		}
	}
}

// MarshalJSON writes the clients object with keys in document order.
func (c *Clients) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range c.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		bucket, err := json.Marshal(c.buckets[name])
		if err != nil {
			return nil, fmt.Errorf("encoding bucket %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(bucket)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the clients object keeping the key order of the input.
func (c *Clients) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = *NewClients()
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("clients: expected object, got %v", tok)
	}

	out := NewClients()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("clients: expected client name, got %v", tok)
		}

		var b Bucket
		if err := dec.Decode(&b); err != nil {
			return fmt.Errorf("clients: decoding bucket %q: %w", name, err)
		}
		if _, dup := out.buckets[name]; dup {
			return fmt.Errorf("clients: duplicate client %q", name)
		}
		out.buckets[name] = &b
		out.names = append(out.names, name)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = *out
	return nil
}
