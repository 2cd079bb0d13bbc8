package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures across the query pipeline. Controllers map
// them to response codes; the CLI maps TagConfig errors to startup failure.
var (
	// TagValidation marks caller faults, e.g. a query that is empty after cleaning
	TagValidation = goerr.NewTag("validation")

	// TagDownstream marks failures of the retrieval or generation capability.
	// The cause is preserved for logging but not exposed verbatim to callers.
	TagDownstream = goerr.NewTag("downstream")

	// TagConfig marks fatal configuration errors detected at startup
	TagConfig = goerr.NewTag("config")
)

// IsValidation reports whether err is tagged as a caller fault
func IsValidation(err error) bool {
	return goerr.HasTag(err, TagValidation)
}

// IsDownstream reports whether err is tagged as a downstream capability failure
func IsDownstream(err error) bool {
	return goerr.HasTag(err, TagDownstream)
}
