// Package model holds the Ziskej domain types, their parsers and the
// request models sent to the service.
//
// Parsers take a decoded JSON object and follow the extraction rules of
// package extract: optional fields fall back to zero values, required
// fields and invalid enum values fail with an extract parse error.
package model

import "github.com/colthorp/ziskej-cli-go/internal/extract"

// Library is a library participating in Ziskej, identified by its sigla.
type Library struct {
	Sigla string `json:"sigla"`
}

// LibraryCollection is a sigla-keyed set of libraries in listing order.
type LibraryCollection struct {
	items map[string]Library
	order []string
}

// NewLibraryCollection returns an empty collection.
func NewLibraryCollection() *LibraryCollection {
	return &LibraryCollection{items: make(map[string]Library)}
}

// ParseLibraryCollection builds a collection from a libraries "items" array.
// Items are sigla strings; objects with a "sigla" string are accepted too.
// Anything else is skipped.
func ParseLibraryCollection(items []any) *LibraryCollection {
	c := NewLibraryCollection()
	for _, item := range items {
		var sigla string
		switch v := item.(type) {
		case string:
			sigla = v
		default:
			obj, ok := extract.AsObject(v)
			if !ok {
				continue
			}
			sigla = extract.OptionalString(obj, "sigla")
		}
		if sigla == "" {
			continue
		}
		c.Add(Library{Sigla: sigla})
	}
	return c
}

// Add inserts or replaces a library.
func (c *LibraryCollection) Add(l Library) {
	if _, ok := c.items[l.Sigla]; !ok {
		c.order = append(c.order, l.Sigla)
	}
	c.items[l.Sigla] = l
}

// Get returns the library with the given sigla, or nil.
func (c *LibraryCollection) Get(sigla string) *Library {
	l, ok := c.items[sigla]
	if !ok {
		return nil
	}
	return &l
}

// All returns the libraries in listing order.
func (c *LibraryCollection) All() []Library {
	out := make([]Library, 0, len(c.order))
	for _, s := range c.order {
		out = append(out, c.items[s])
	}
	return out
}

// Len returns the number of libraries.
func (c *LibraryCollection) Len() int { return len(c.order) }
