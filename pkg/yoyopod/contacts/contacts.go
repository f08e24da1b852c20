// Package contacts holds the read-only contact directory used for
// caller-name resolution and outgoing call placement.
package contacts

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Contact is one directory entry.
type Contact struct {
	Name     string `toml:"name"`
	Address  string `toml:"address"`
	Favorite bool   `toml:"favorite"`
}

func (c Contact) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Address)
}

// Normalize reduces a SIP address to its lookup key: scheme stripped,
// bracket/angle delimiters stripped, case-folded. `SIP:MOM@EXAMPLE.COM`
// and `<sip:mom@example.com>` normalize to the same key.
func Normalize(address string) string {
	addr := strings.TrimSpace(address)
	addr = strings.Trim(addr, "[]<>\"'")
	if len(addr) >= 4 && strings.EqualFold(addr[:4], "sip:") {
		addr = addr[4:]
	}
	return strings.ToLower(addr)
}

// Directory is an immutable set of contacts with normalized-address
// lookup. Favorites sort first.
type Directory struct {
	contacts []Contact
	byAddr   map[string]Contact
}

// NewDirectory builds a directory from the given contacts.
func NewDirectory(list []Contact) *Directory {
	contacts := make([]Contact, len(list))
	copy(contacts, list)
	sort.SliceStable(contacts, func(i, j int) bool {
		if contacts[i].Favorite != contacts[j].Favorite {
			return contacts[i].Favorite
		}
		return contacts[i].Name < contacts[j].Name
	})

	byAddr := make(map[string]Contact, len(contacts))
	for _, c := range contacts {
		byAddr[Normalize(c.Address)] = c
	}
	return &Directory{contacts: contacts, byAddr: byAddr}
}

// contactsFile is the on-disk TOML shape.
type contactsFile struct {
	Contacts []Contact `toml:"contacts"`
}

// Load reads a contacts TOML file. A missing file yields an empty
// directory, not an error: a device with no contacts still takes calls.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDirectory(nil), nil
		}
		return nil, fmt.Errorf("contacts: read %s: %w", path, err)
	}

	var file contactsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("contacts: parse %s: %w", path, err)
	}
	return NewDirectory(file.Contacts), nil
}

// Lookup resolves an address to a contact. The address may arrive in
// any admitted wire form.
func (d *Directory) Lookup(address string) (Contact, bool) {
	c, ok := d.byAddr[Normalize(address)]
	return c, ok
}

// All returns the contacts, favorites first.
func (d *Directory) All() []Contact {
	out := make([]Contact, len(d.contacts))
	copy(out, d.contacts)
	return out
}

// Len returns the number of contacts.
func (d *Directory) Len() int { return len(d.contacts) }
