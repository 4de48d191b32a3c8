package save

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type ledgerEntry struct {
	id   string
	cost float64
}

func (l *ledgerEntry) SaveID() string { return "entry" }
func (l *ledgerEntry) Save(c *Context) error {
	c.WriteString("id", l.id)
	c.WriteDouble("cost", l.cost)
	return nil
}
func (l *ledgerEntry) Load(c *Context) error {
	l.id = c.ReadString("id", "")
	l.cost = c.ReadDouble("cost", 0)
	return nil
}

func sampleContext() *Context {
	c := NewContext()
	c.WriteHeader(1, time.Unix(1700000000, 0))
	c.BeginSection("game-data")
	c.WriteUint("total-years-played", 42)
	c.WriteInt("delta", -7)
	c.WriteDouble("gold", 1000)
	c.WriteDouble("rate", 0.035)
	c.WriteBool("at-war", true)
	c.WriteString("name", "847")
	c.BeginSection("nested")
	c.WriteString("empty", "")
	c.EndSection()
	c.EndSection()
	return c
}

func TestYAMLRoundTrip(t *testing.T) {
	c := sampleContext()
	data, err := Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Version() != 1 {
		t.Errorf("version = %d, want 1", back.Version())
	}
	if back.Timestamp().Unix() != 1700000000 {
		t.Errorf("timestamp = %v", back.Timestamp())
	}
	if !back.EnterSection("game-data") {
		t.Fatal("game-data section missing")
	}
	if got := back.ReadUint("total-years-played", 0); got != 42 {
		t.Errorf("years = %d, want 42", got)
	}
	if got := back.ReadInt("delta", 0); got != -7 {
		t.Errorf("delta = %d, want -7", got)
	}
	if got := back.ReadDouble("gold", 0); got != 1000 {
		t.Errorf("gold = %v, want 1000", got)
	}
	if got := back.ReadDouble("rate", 0); got != 0.035 {
		t.Errorf("rate = %v, want 0.035", got)
	}
	if !back.ReadBool("at-war", false) {
		t.Error("at-war lost")
	}
	if got := back.ReadString("name", ""); got != "847" {
		t.Errorf("numeric-looking string = %q, want \"847\"", got)
	}
	if !back.EnterSection("nested") || back.ReadString("empty", "x") != "" {
		t.Error("empty string did not survive")
	}
	back.LeaveSection()
	back.LeaveSection()

	again, err := Marshal(back)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Errorf("second encoding differs:\n%s\n---\n%s", data, again)
	}
}

func TestReadDefaultsAndCoercion(t *testing.T) {
	c := NewContext()
	c.WriteInt("n", 5)
	c.WriteUint("u", 9)
	if got := c.ReadString("missing", "def"); got != "def" {
		t.Errorf("missing string = %q", got)
	}
	if got := c.ReadDouble("n", 0); got != 5 {
		t.Errorf("int as double = %v", got)
	}
	if got := c.ReadUint("n", 0); got != 5 {
		t.Errorf("int as uint = %v", got)
	}
	if got := c.ReadInt("u", 0); got != 9 {
		t.Errorf("uint as int = %v", got)
	}
	c.WriteInt("neg", -1)
	if got := c.ReadUint("neg", 3); got != 3 {
		t.Errorf("negative as uint = %v, want default", got)
	}
	if got := c.ReadBool("n", true); !got {
		t.Error("int read as bool should yield default")
	}
}

func TestUnbalancedSections(t *testing.T) {
	c := NewContext()
	c.BeginSection("open")
	if _, err := Marshal(c); !errors.Is(err, ErrUnbalancedSection) {
		t.Errorf("open section: err = %v, want ErrUnbalancedSection", err)
	}

	c = NewContext()
	c.EndSection()
	if _, err := Marshal(c); !errors.Is(err, ErrUnbalancedSection) {
		t.Errorf("extra end: err = %v, want ErrUnbalancedSection", err)
	}
}

func TestListHelpers(t *testing.T) {
	items := []*ledgerEntry{{"a", 1.5}, {"b", 2}}
	c := NewContext()
	err := WriteList(c, "entries", len(items), func(i int) error { return items[i].Save(c) })
	if err != nil {
		t.Fatalf("write list: %v", err)
	}
	WriteStrings(c, "ids", []string{"x", "y", "z"})

	data, err := Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	var loaded []*ledgerEntry
	err = ReadList(back, "entries", func(int) error {
		e := &ledgerEntry{}
		loaded = append(loaded, e)
		return e.Load(back)
	})
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	if len(loaded) != 2 || loaded[1].id != "b" || loaded[0].cost != 1.5 {
		t.Errorf("loaded = %+v", loaded)
	}
	if got, err := ReadStrings(back, "ids"); err != nil || len(got) != 3 || got[2] != "z" {
		t.Errorf("ids = %v, %v", got, err)
	}
	if back.Depth() != 0 {
		t.Errorf("depth = %d after reads", back.Depth())
	}
	if err := ReadList(back, "absent", func(int) error { return errors.New("visited") }); err != nil {
		t.Errorf("absent list: %v", err)
	}
}

func TestReadStringsRejectsUnbackedCount(t *testing.T) {
	for _, count := range []uint64{3, 1 << 62, ^uint64(0)} {
		c := NewContext()
		c.BeginSection("ids")
		c.WriteUint(KeyCount, count)
		c.WriteString("0", "x")
		c.EndSection()

		got, err := ReadStrings(c, "ids")
		if !errors.Is(err, ErrInvalidDocument) || got != nil {
			t.Errorf("count %d: got %v, err = %v", count, got, err)
		}
		if c.Depth() != 0 {
			t.Errorf("count %d: depth = %d after failed read", count, c.Depth())
		}
	}

	data := []byte("ids:\n  count: 4611686018427387904\n")
	c, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ReadStrings(c, "ids"); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("decoded document: err = %v", err)
	}
	if got, err := ReadStrings(c, "absent"); got != nil || err != nil {
		t.Errorf("absent list = %v, %v", got, err)
	}
}

func TestReadSectionMissing(t *testing.T) {
	c := NewContext()
	err := ReadSection(c, "phylactery", &ledgerEntry{})
	if !errors.Is(err, ErrMissingSection) {
		t.Fatalf("err = %v, want ErrMissingSection", err)
	}
}

func TestCheckVersion(t *testing.T) {
	c := NewContext()
	c.WriteHeader(99, time.Now())
	err := c.CheckVersion(1)
	var verr *VersionError
	if !errors.As(err, &verr) || verr.Found != 99 || verr.Supported != 1 {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, ErrVersionTooNew) {
		t.Error("VersionError should unwrap to ErrVersionTooNew")
	}
	if err := c.CheckVersion(99); err != nil {
		t.Errorf("same version: %v", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"save1.yaml", "save1.yaml" + CompressedExt} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, sampleContext()); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		back, err := ReadFile(path)
		if err != nil {
			t.Fatalf("%s: read: %v", name, err)
		}
		if back.Version() != 1 {
			t.Errorf("%s: version = %d", name, back.Version())
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "save1.yaml"+CompressedExt))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, zstdMagic) {
		t.Error("compressed save lacks zstd magic")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestValidator(t *testing.T) {
	v, err := NewValidator("header", HeaderSchema)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := v.Validate(sampleContext()); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
	bare := NewContext()
	bare.WriteString("save-version", "one")
	if err := v.Validate(bare); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("err = %v, want ErrInvalidDocument", err)
	}
}

func TestUnmarshalRejectsNonMapping(t *testing.T) {
	if _, err := Unmarshal([]byte("- a\n- b\n")); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("err = %v, want ErrInvalidDocument", err)
	}
}
