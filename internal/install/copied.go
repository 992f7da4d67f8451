package install

import "github.com/MrWong99/hmmvoice/pkg/schema"

// Copied is the installer's record for one role.
type Copied struct {
	Role schema.Role

	// Present reports whether a file was copied for the role.
	Present bool

	// Source is the file actually copied. For a substituted example
	// features file this is the fallback file, not the declared path.
	Source string

	// BaseName is the name of the copy inside the voice directory.
	BaseName string

	// Substituted is set when the file came from the fallback directory.
	Substituted bool
}

// CopiedSet records, per role, what the installer did. It is the single
// source of truth on optional-file presence for everything downstream of the
// installer.
type CopiedSet struct {
	order []schema.Role
	items map[schema.Role]Copied
}

func newCopiedSet(n int) *CopiedSet {
	return &CopiedSet{
		order: make([]schema.Role, 0, n),
		items: make(map[schema.Role]Copied, n),
	}
}

func (c *CopiedSet) add(rec Copied) {
	if _, ok := c.items[rec.Role]; !ok {
		c.order = append(c.order, rec.Role)
	}
	c.items[rec.Role] = rec
}

// Get returns the record for r.
func (c *CopiedSet) Get(r schema.Role) (Copied, bool) {
	rec, ok := c.items[r]
	return rec, ok
}

// Present reports whether a file was copied for r.
func (c *CopiedSet) Present(r schema.Role) bool {
	return c.items[r].Present
}

// Records returns all records in processing order.
func (c *CopiedSet) Records() []Copied {
	out := make([]Copied, 0, len(c.order))
	for _, r := range c.order {
		out = append(out, c.items[r])
	}
	return out
}

// BaseNames returns the names of all copied files in processing order.
func (c *CopiedSet) BaseNames() []string {
	var out []string
	for _, r := range c.order {
		if rec := c.items[r]; rec.Present {
			out = append(out, rec.BaseName)
		}
	}
	return out
}

// NewCopiedSet builds a CopiedSet from explicit records. It exists for
// callers that construct installation results without touching the
// filesystem, such as tests of the config synthesiser.
func NewCopiedSet(records ...Copied) *CopiedSet {
	c := newCopiedSet(len(records))
	for _, rec := range records {
		c.add(rec)
	}
	return c
}
