package metrics

import "errors"

var errCardinalityExceeded = errors.New("otel provider cardinality limit exceeded")
