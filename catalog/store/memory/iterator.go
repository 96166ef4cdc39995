package memory

import (
	"github.com/mycok/fincrawl/catalog"
)

// Static and compile-time check to ensure documentIterator implements
// catalog.DocumentIterator interface.
var _ catalog.DocumentIterator = (*documentIterator)(nil)

// documentIterator is a catalog.DocumentIterator implementation for the
// in-memory store. It iterates a pre-copied snapshot of the document set.
type documentIterator struct {
	docs    []*catalog.Document
	currIdx int
}

// Next loads the next document, returns false when no more documents
// are available.
func (i *documentIterator) Next() bool {
	if i.currIdx >= len(i.docs) {
		return false
	}

	i.currIdx++

	return true
}

// Error returns the last error encountered by the iterator.
func (i *documentIterator) Error() error {
	return nil
}

// Close releases any resources allocated to the iterator.
func (i *documentIterator) Close() error {
	return nil
}

// Document returns the currently fetched document object.
func (i *documentIterator) Document() *catalog.Document {
	return i.docs[i.currIdx-1]
}
