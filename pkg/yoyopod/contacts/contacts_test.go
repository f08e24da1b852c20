package contacts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sip:mom@example.com", "mom@example.com"},
		{"SIP:MOM@EXAMPLE.COM", "mom@example.com"},
		{"<sip:mom@example.com>", "mom@example.com"},
		{"[sip:mom@example.com]", "mom@example.com"},
		{"  mom@example.com  ", "mom@example.com"},
		{"mom@example.com", "mom@example.com"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDirectoryLookupAcrossWireForms(t *testing.T) {
	d := NewDirectory([]Contact{
		{Name: "Mom", Address: "sip:mom@example.com", Favorite: true},
		{Name: "Dad", Address: "dad@example.org"},
	})

	for _, addr := range []string{
		"sip:mom@example.com",
		"SIP:MOM@EXAMPLE.COM",
		"<sip:mom@example.com>",
		"mom@example.com",
	} {
		c, ok := d.Lookup(addr)
		if !ok {
			t.Errorf("Lookup(%q) missed", addr)
			continue
		}
		if c.Name != "Mom" {
			t.Errorf("Lookup(%q) = %q, want Mom", addr, c.Name)
		}
	}

	if _, ok := d.Lookup("stranger@example.net"); ok {
		t.Error("Lookup of unknown address succeeded")
	}
}

func TestDirectoryFavoritesFirst(t *testing.T) {
	d := NewDirectory([]Contact{
		{Name: "Zoe", Address: "zoe@example.com"},
		{Name: "Dad", Address: "dad@example.org", Favorite: true},
		{Name: "Amy", Address: "amy@example.com"},
	})

	all := d.All()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Name != "Dad" {
		t.Errorf("first contact = %q, want favorite Dad", all[0].Name)
	}
	if all[1].Name != "Amy" || all[2].Name != "Zoe" {
		t.Errorf("non-favorites not sorted by name: %v", all[1:])
	}
}

func TestLoadMissingFileYieldsEmptyDirectory(t *testing.T) {
	d, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() != 0 {
		t.Errorf("Len = %d, want 0", d.Len())
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.toml")
	data := `
[[contacts]]
name = "Mom"
address = "sip:mom@example.com"
favorite = true

[[contacts]]
name = "Dad"
address = "sip:dad@example.org"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("Len = %d, want 2", d.Len())
	}
	c, ok := d.Lookup("MOM@EXAMPLE.COM")
	if !ok || !c.Favorite {
		t.Errorf("Lookup(mom) = %+v ok=%v", c, ok)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.toml")
	if err := os.WriteFile(path, []byte("contacts = not toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load of malformed file succeeded")
	}
}
