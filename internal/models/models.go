package models

// Location is the geographic part of a lookup result
// JSON tags match the upstream geolocation API field names
type Location struct {
	City       string  `json:"city"`
	Region     string  `json:"region"`
	Country    string  `json:"country"`
	PostalCode string  `json:"postalCode"`
	Timezone   string  `json:"timezone"` // UTC offset, e.g. "-07:00"
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

// LookupResult is a single answer from the geolocation API
// A nil Location means "not found"
type LookupResult struct {
	IP       string    `json:"ip"`
	Location *Location `json:"location,omitempty"`
	ISP      string    `json:"isp"`
}

// HasLocation reports whether the result carries location data
func (r LookupResult) HasLocation() bool {
	return r.Location != nil
}

// NotFoundResult is the placeholder rendered when a lookup fails
func NotFoundResult() LookupResult {
	return LookupResult{IP: "Not found"}
}

// ErrorClass identifies why a lookup failed
type ErrorClass string

const (
	ClientInputError ErrorClass = "client_input"
	RateLimited      ErrorClass = "rate_limited"
	ServerError      ErrorClass = "server_error"
	UnknownHTTPError ErrorClass = "unknown_http"
	NoDataError      ErrorClass = "no_data"
	NetworkError     ErrorClass = "network"
	UnexpectedError  ErrorClass = "unexpected"
)

// ErrorDescriptor is a failed lookup classified for display
type ErrorDescriptor struct {
	Class     ErrorClass `json:"class"`
	Message   string     `json:"message"`
	Retriable bool       `json:"retriable"`
}

// ErrorResponse is the standard error response format of the HTTP host
type ErrorResponse struct {
	Error string `json:"error"` // Error message
}
