package canonical

import (
	"fmt"

	"github.com/piprate/json-gold/ld"
)

// RDFCOpt configures an RDFC canonicalizer.
type RDFCOpt func(*rdfcOptions)

type rdfcOptions struct {
	documentLoader ld.DocumentLoader
	contexts       map[string]interface{}
}

// WithDocumentLoader sets the document loader used to dereference remote contexts.
func WithDocumentLoader(loader ld.DocumentLoader) RDFCOpt {
	return func(o *rdfcOptions) {
		o.documentLoader = loader
	}
}

// WithContext preloads a JSON-LD context document under url, so it is never fetched.
func WithContext(url string, doc map[string]interface{}) RDFCOpt {
	return func(o *rdfcOptions) {
		o.contexts[url] = doc
	}
}

// RDFC canonicalizes documents with RDF Dataset Canonicalization (URDNA2015)
// and emits the canonical N-Quads. Properties the active contexts do not
// define are an error, never dropped, so every member of the document ends up
// in the output.
type RDFC struct {
	loader ld.DocumentLoader
}

// NewRDFC creates an RDFC canonicalizer. Remote contexts are cached after the
// first fetch.
func NewRDFC(opts ...RDFCOpt) *RDFC {
	o := &rdfcOptions{contexts: map[string]interface{}{}}
	for _, opt := range opts {
		opt(o)
	}

	next := o.documentLoader
	if next == nil {
		next = ld.NewDefaultDocumentLoader(nil)
	}

	loader := ld.NewCachingDocumentLoader(next)
	for url, doc := range o.contexts {
		loader.AddDocument(url, doc)
	}

	return &RDFC{loader: loader}
}

// Canonicalize implements Canonicalizer.
func (r *RDFC) Canonicalize(doc map[string]interface{}) ([]byte, error) {
	input, err := normalize(doc)
	if err != nil {
		return nil, err
	}

	processor := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.Format = "application/n-quads"
	options.Algorithm = ld.AlgorithmURDNA2015
	options.DocumentLoader = r.loader
	options.SafeMode = true

	normalized, err := processor.Normalize(input, options)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}

	nquads, ok := normalized.(string)
	if !ok {
		return nil, fmt.Errorf("failed to normalize document: unexpected result type %T", normalized)
	}
	if nquads == "" {
		return nil, fmt.Errorf("failed to normalize document: no RDF statements produced")
	}

	return []byte(nquads), nil
}
