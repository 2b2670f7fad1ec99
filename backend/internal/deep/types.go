package deep

// Link is one row of the link graph: a typed node or edge addressed by an
// opaque integer id, optionally carrying a scalar string value and
// optionally participating as from/to endpoints of other links.
type Link struct {
	ID     int64
	TypeID int64
	FromID int64
	ToID   int64
	Value  string
}

// EdgeSpec describes an inbound edge created together with a new link.
// The edge's to endpoint is the link being inserted.
type EdgeSpec struct {
	TypeID int64
	FromID int64
}

// LinkSpec describes one insert operation. FromID/ToID are both zero for
// plain nodes and both non-zero for edges. In lists inbound edges created
// atomically with the link itself.
type LinkSpec struct {
	TypeID int64
	Value  *string
	FromID int64
	ToID   int64
	In     []EdgeSpec
}

// TreeQuery selects links of one type positioned under a root in a named
// tree index.
type TreeQuery struct {
	TreeID     int64
	RootID     int64
	LinkTypeID int64
}

// TreeRow is one result of a tree query: a link and its depth relative to
// the root. Rows are returned deepest first; ties at equal depth order by
// descending link id so the result is reproducible.
type TreeRow struct {
	Depth int64
	Link  Link
}

// String returns a pointer to s, for LinkSpec values.
func String(s string) *string {
	return &s
}
