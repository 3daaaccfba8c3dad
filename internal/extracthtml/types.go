package extracthtml

// Field binds an output column name to an XPath query. Queries ending in a
// text() or @attr step yield strings directly; element queries yield the
// element's inner text.
type Field struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// Pair is one key/value association extracted from parallel queries.
type Pair struct {
	Key   string
	Value string
}

// MappingFile describes the mappings.json file.
//
// Field order in the file is preserved and defines CSV column order. If
// ProductSelector is set, extraction runs in record mode: the selector picks
// product container nodes and the fields are evaluated relative to each.
type MappingFile struct {
	ProductSelector string  `json:"product_selector,omitempty"`
	Fields          []Field `json:"fields"`
}
