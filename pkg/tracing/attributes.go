package tracing

// Attribute keys for query operations
const (
	// Query attributes
	AttrQueryElementType = "osm.query.element_type"
	AttrQueryRecurse     = "osm.query.recurse"
	AttrQueryTagCount    = "osm.query.tag_count"
	AttrQueryFormat      = "osm.query.format"

	// Overpass service attributes
	AttrServiceURL     = "osm.service.url"
	AttrElementCount   = "osm.service.element_count"
	AttrResponseRemark = "osm.service.remark"

	// Rate limiting attributes
	AttrRateLimitWaitMs = "osm.ratelimit.wait_ms"

	// HTTP attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// Status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
