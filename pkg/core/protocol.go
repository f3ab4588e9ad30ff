package core

// Protocol defines the interface for exchange-specific protocol
// implementations: request building, signing, response classification, and
// normalization.
type Protocol interface {
	// Name returns the exchange identifier (e.g., "uex").
	Name() string

	// Version returns the API version being used.
	Version() string

	// BaseURL returns the API base URL.
	BaseURL() string

	// BuildRequest constructs a request descriptor for the specified
	// operation. The params map contains operation-specific parameters.
	BuildRequest(op Operation, params Params) (*Request, error)

	// Sign authenticates a request descriptor in place using the given
	// credentials. It must fail before any network activity when required
	// credentials are missing.
	Sign(req *Request, creds *Credentials) error

	// Classify inspects a response body and returns the mapped
	// ExchangeError for non-success envelopes, or nil when normalization
	// may proceed. Bodies that are not JSON objects are not this method's
	// concern and classify as nil.
	Classify(body []byte) error

	// SupportedOperations returns the list of operations this protocol
	// supports.
	SupportedOperations() []Operation
}
