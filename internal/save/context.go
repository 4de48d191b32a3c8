// Package save implements the hierarchical key/value document every
// persisted entity writes itself into, plus the YAML codec, compressed
// file IO and schema validation around it.
package save

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Root-level header keys.
const (
	KeyVersion   = "save-version"
	KeyTimestamp = "save-timestamp"
)

type kind uint8

const (
	kindString kind = iota
	kindInt
	kindUint
	kindDouble
	kindBool
)

type value struct {
	kind kind
	s    string
	i    int64
	u    uint64
	f    float64
	b    bool
}

type entry struct {
	key     string
	section *Section
	val     value
}

// Section is one node of the document tree. Entries keep insertion order.
type Section struct {
	name    string
	entries []entry
	index   map[string]int
}

func newSection(name string) *Section {
	return &Section{name: name, index: make(map[string]int)}
}

// Name returns the section's key in its parent.
func (s *Section) Name() string { return s.name }

func (s *Section) lookup(key string) (*entry, bool) {
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return &s.entries[i], true
}

func (s *Section) put(key string, v value) {
	if e, ok := s.lookup(key); ok {
		e.section = nil
		e.val = v
		return
	}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, entry{key: key, val: v})
}

func (s *Section) child(key string, create bool) *Section {
	if e, ok := s.lookup(key); ok {
		if e.section != nil {
			return e.section
		}
		if !create {
			return nil
		}
		e.section = newSection(key)
		return e.section
	}
	if !create {
		return nil
	}
	sec := newSection(key)
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, entry{key: key, section: sec})
	return sec
}

// Context is a cursor over a document: writes and reads address the
// current section, and sections are entered and left in balanced pairs.
type Context struct {
	root  *Section
	stack []*Section
	err   error
}

// NewContext returns an empty document positioned at its root.
func NewContext() *Context {
	return &Context{root: newSection("")}
}

func (c *Context) cur() *Section {
	if n := len(c.stack); n > 0 {
		return c.stack[n-1]
	}
	return c.root
}

// Err returns the first structural error recorded on the context.
func (c *Context) Err() error { return c.err }

// Depth is the number of open sections.
func (c *Context) Depth() int { return len(c.stack) }

// Rewind closes every open section and clears recorded errors, leaving
// the cursor at the root.
func (c *Context) Rewind() {
	c.stack = c.stack[:0]
	c.err = nil
}

func (c *Context) WriteString(key, v string) { c.cur().put(key, value{kind: kindString, s: v}) }
func (c *Context) WriteInt(key string, v int64) {
	c.cur().put(key, value{kind: kindInt, i: v})
}
func (c *Context) WriteUint(key string, v uint64) {
	c.cur().put(key, value{kind: kindUint, u: v})
}
func (c *Context) WriteDouble(key string, v float64) {
	c.cur().put(key, value{kind: kindDouble, f: v})
}
func (c *Context) WriteBool(key string, v bool) { c.cur().put(key, value{kind: kindBool, b: v}) }

func (c *Context) scalar(key string) (value, bool) {
	e, ok := c.cur().lookup(key)
	if !ok || e.section != nil {
		return value{}, false
	}
	return e.val, true
}

// Has reports whether key exists in the current section as a scalar or section.
func (c *Context) Has(key string) bool {
	_, ok := c.cur().lookup(key)
	return ok
}

// HasSection reports whether the current section holds a child section named key.
func (c *Context) HasSection(key string) bool {
	return c.cur().child(key, false) != nil
}

// Keys lists the current section's entries in insertion order.
func (c *Context) Keys() []string {
	sec := c.cur()
	keys := make([]string, len(sec.entries))
	for i, e := range sec.entries {
		keys[i] = e.key
	}
	return keys
}

func (c *Context) ReadString(key, def string) string {
	v, ok := c.scalar(key)
	if !ok || v.kind != kindString {
		return def
	}
	return v.s
}

// ReadInt returns key as a signed integer. Unsigned and whole double
// values are coerced when they fit.
func (c *Context) ReadInt(key string, def int64) int64 {
	v, ok := c.scalar(key)
	if !ok {
		return def
	}
	switch v.kind {
	case kindInt:
		return v.i
	case kindUint:
		if v.u <= math.MaxInt64 {
			return int64(v.u)
		}
	case kindDouble:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < math.MaxInt64 {
			return int64(v.f)
		}
	}
	return def
}

// ReadUint returns key as an unsigned integer; negative values yield def.
func (c *Context) ReadUint(key string, def uint64) uint64 {
	v, ok := c.scalar(key)
	if !ok {
		return def
	}
	switch v.kind {
	case kindUint:
		return v.u
	case kindInt:
		if v.i >= 0 {
			return uint64(v.i)
		}
	case kindDouble:
		if v.f >= 0 && v.f == math.Trunc(v.f) && v.f < math.MaxUint64 {
			return uint64(v.f)
		}
	}
	return def
}

func (c *Context) ReadDouble(key string, def float64) float64 {
	v, ok := c.scalar(key)
	if !ok {
		return def
	}
	switch v.kind {
	case kindDouble:
		return v.f
	case kindInt:
		return float64(v.i)
	case kindUint:
		return float64(v.u)
	}
	return def
}

func (c *Context) ReadBool(key string, def bool) bool {
	v, ok := c.scalar(key)
	if !ok || v.kind != kindBool {
		return def
	}
	return v.b
}

// BeginSection opens (creating if needed) a child section for writing.
func (c *Context) BeginSection(name string) {
	c.stack = append(c.stack, c.cur().child(name, true))
}

// EndSection closes the section opened by BeginSection.
func (c *Context) EndSection() {
	c.pop("end section")
}

// EnterSection opens an existing child section for reading. It reports
// false and leaves the cursor unchanged when the section is absent.
func (c *Context) EnterSection(name string) bool {
	sec := c.cur().child(name, false)
	if sec == nil {
		return false
	}
	c.stack = append(c.stack, sec)
	return true
}

// LeaveSection closes the section opened by EnterSection.
func (c *Context) LeaveSection() {
	c.pop("leave section")
}

func (c *Context) pop(op string) {
	if len(c.stack) == 0 {
		if c.err == nil {
			c.err = fmt.Errorf("%w: %s at root", ErrUnbalancedSection, op)
		}
		return
	}
	c.stack = c.stack[:len(c.stack)-1]
}

// WriteHeader stamps the root with the format version and write time.
func (c *Context) WriteHeader(version uint64, at time.Time) {
	c.root.put(KeyVersion, value{kind: kindUint, u: version})
	c.root.put(KeyTimestamp, value{kind: kindInt, i: at.Unix()})
}

// Version returns the root save-version, zero when absent.
func (c *Context) Version() uint64 {
	e, ok := c.root.lookup(KeyVersion)
	if !ok || e.section != nil {
		return 0
	}
	switch e.val.kind {
	case kindUint:
		return e.val.u
	case kindInt:
		if e.val.i > 0 {
			return uint64(e.val.i)
		}
	}
	return 0
}

// Timestamp returns the root save-timestamp, the zero time when absent.
func (c *Context) Timestamp() time.Time {
	e, ok := c.root.lookup(KeyTimestamp)
	if !ok || e.section != nil {
		return time.Time{}
	}
	switch e.val.kind {
	case kindInt:
		return time.Unix(e.val.i, 0)
	case kindUint:
		return time.Unix(int64(e.val.u), 0)
	}
	return time.Time{}
}

// CheckVersion fails with a *VersionError when the document is newer than supported.
func (c *Context) CheckVersion(supported uint64) error {
	if v := c.Version(); v > supported {
		return &VersionError{Found: v, Supported: supported}
	}
	return nil
}

func (c *Context) checkBalanced() error {
	if c.err != nil {
		return c.err
	}
	if len(c.stack) != 0 {
		return fmt.Errorf("%w: %d section(s) left open", ErrUnbalancedSection, len(c.stack))
	}
	return nil
}

// IsMissing reports whether err stems from an absent section.
func IsMissing(err error) bool { return errors.Is(err, ErrMissingSection) }
