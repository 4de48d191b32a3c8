package save

import (
	"fmt"
	"strconv"
)

// KeyCount holds the number of children in a list section.
const KeyCount = "count"

// Saveable is implemented by every persisted entity. Save writes into the
// context's current section; Load reads from it.
type Saveable interface {
	SaveID() string
	Save(c *Context) error
	Load(c *Context) error
}

// WriteSection saves s into a child section called name.
func WriteSection(c *Context, name string, s Saveable) error {
	c.BeginSection(name)
	err := s.Save(c)
	c.EndSection()
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// ReadSection loads s from the child section called name.
func ReadSection(c *Context, name string, s Saveable) error {
	if !c.EnterSection(name) {
		return MissingSection(name)
	}
	err := s.Load(c)
	c.LeaveSection()
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

// WriteList writes n children as sections "0".."n-1" under name, each
// filled by fn.
func WriteList(c *Context, name string, n int, fn func(i int) error) error {
	c.BeginSection(name)
	defer c.EndSection()
	c.WriteUint(KeyCount, uint64(n))
	for i := 0; i < n; i++ {
		c.BeginSection(strconv.Itoa(i))
		err := fn(i)
		c.EndSection()
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", name, i, err)
		}
	}
	return nil
}

// ReadList visits each child written by WriteList. An absent list reads
// as empty.
func ReadList(c *Context, name string, fn func(i int) error) error {
	if !c.EnterSection(name) {
		return nil
	}
	defer c.LeaveSection()
	n := c.ReadUint(KeyCount, 0)
	for i := uint64(0); i < n; i++ {
		key := strconv.FormatUint(i, 10)
		if !c.EnterSection(key) {
			return MissingSection(name + "/" + key)
		}
		err := fn(int(i))
		c.LeaveSection()
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", name, i, err)
		}
	}
	return nil
}

// WriteStrings stores an ordered string list as scalars "0".."n-1" under name.
func WriteStrings(c *Context, name string, vals []string) {
	c.BeginSection(name)
	c.WriteUint(KeyCount, uint64(len(vals)))
	for i, v := range vals {
		c.WriteString(strconv.Itoa(i), v)
	}
	c.EndSection()
}

// ReadStrings reads a list written by WriteStrings. Absent lists read as
// nil; a count the entries do not back is an invalid document.
func ReadStrings(c *Context, name string) ([]string, error) {
	if !c.EnterSection(name) {
		return nil, nil
	}
	defer c.LeaveSection()
	n := c.ReadUint(KeyCount, 0)
	var out []string
	for i := uint64(0); i < n; i++ {
		key := strconv.FormatUint(i, 10)
		if !c.Has(key) {
			return nil, fmt.Errorf("%w: %s has count %d but no entry %s", ErrInvalidDocument, name, n, key)
		}
		out = append(out, c.ReadString(key, ""))
	}
	return out, nil
}
