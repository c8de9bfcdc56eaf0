package path

import (
	"fmt"
	"strings"

	"github.com/laminadb/lamina/internal/domain"
)

// DefaultDatabase is the database name used when none is configured.
const DefaultDatabase = "(default)"

// DatabaseID identifies one database within one project. Document
// references embed it in their full resource names.
type DatabaseID struct {
	project  string
	database string
}

// NewDatabaseID creates a database id. The database name defaults to
// DefaultDatabase when empty.
func NewDatabaseID(project, database string) (DatabaseID, error) {
	if project == "" {
		return DatabaseID{}, fmt.Errorf("%w: empty project id", domain.ErrInvalidPath)
	}
	if database == "" {
		database = DefaultDatabase
	}
	return DatabaseID{project: project, database: database}, nil
}

// MustDatabaseID creates a database id and panics on error.
func MustDatabaseID(project, database string) DatabaseID {
	id, err := NewDatabaseID(project, database)
	if err != nil {
		panic(err)
	}
	return id
}

// Project returns the project id.
func (d DatabaseID) Project() string { return d.project }

// Database returns the database name.
func (d DatabaseID) Database() string { return d.database }

// IsZero reports whether d is the zero database id.
func (d DatabaseID) IsZero() bool { return d.project == "" && d.database == "" }

// Compare orders database ids by project, then database.
func (d DatabaseID) Compare(other DatabaseID) int {
	if c := strings.Compare(d.project, other.project); c != 0 {
		return c
	}
	return strings.Compare(d.database, other.database)
}

// Equal reports whether two database ids are identical.
func (d DatabaseID) Equal(other DatabaseID) bool { return d == other }

// String returns "projects/<project>/databases/<database>".
func (d DatabaseID) String() string {
	return "projects/" + d.project + "/databases/" + d.database
}

// ResourceName returns the full resource name of a document in this
// database: "projects/P/databases/D/documents/<path>".
func (d DatabaseID) ResourceName(key DocumentKey) string {
	return d.String() + "/documents/" + key.String()
}

// ParseResourceName splits a full document resource name into its database
// id and document key.
func ParseResourceName(name string) (DatabaseID, DocumentKey, error) {
	p, err := ParseResourcePath(name)
	if err != nil {
		return DatabaseID{}, DocumentKey{}, err
	}
	if p.Len() < 5 || p.Segment(0) != "projects" || p.Segment(2) != "databases" || p.Segment(4) != "documents" {
		return DatabaseID{}, DocumentKey{}, fmt.Errorf("%w: %q is not a document resource name", domain.ErrInvalidPath, name)
	}
	id, err := NewDatabaseID(p.Segment(1), p.Segment(3))
	if err != nil {
		return DatabaseID{}, DocumentKey{}, err
	}
	key, err := NewDocumentKey(p.PopFirst(5))
	if err != nil {
		return DatabaseID{}, DocumentKey{}, err
	}
	return id, key, nil
}

// KeyFromResourceName extracts just the document key from a full resource
// name.
func KeyFromResourceName(name string) (DocumentKey, error) {
	_, key, err := ParseResourceName(name)
	return key, err
}
