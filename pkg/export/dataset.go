package export

// Dataset defines one tabular section of an export.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Document is an ordered collection of datasets rendered into one file.
type Document struct {
	Title    string
	Sections []Dataset
}

// Renderer turns a document into file bytes.
type Renderer interface {
	Render(doc Document) ([]byte, error)
	ContentType() string
	Extension() string
}
