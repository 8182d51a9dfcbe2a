package httpapi

import "time"

// DefaultMaxUploadBytes caps multipart uploads when nothing is configured.
const DefaultMaxUploadBytes int64 = 32 << 20

// maxUploadBytes limits the /api/remove-bg request body.
var maxUploadBytes = DefaultMaxUploadBytes

// SetMaxUploadBytes configures the maximum upload size; n <= 0 restores the default.
func SetMaxUploadBytes(n int64) {
	if n <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
		return
	}
	maxUploadBytes = n
}

// requestTimeout bounds one removal request. Zero means no limit beyond
// server and connection timeouts.
var requestTimeout time.Duration

// SetRequestTimeoutSeconds sets the removal timeout in seconds (0 disables).
func SetRequestTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	requestTimeout = time.Duration(sec) * time.Second
}

var (
	corsAllowedOrigins = []string{"*"}
	corsAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	corsAllowedHeaders = []string{"*"}
)

// SetCORSOptions configures CORS. Empty origins disable the middleware;
// empty methods or headers keep the allow-all defaults.
func SetCORSOptions(origins, methods, headers []string) {
	corsAllowedOrigins = append([]string(nil), origins...)
	if len(methods) > 0 {
		corsAllowedMethods = append([]string(nil), methods...)
	} else {
		corsAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(headers) > 0 {
		corsAllowedHeaders = append([]string(nil), headers...)
	} else {
		corsAllowedHeaders = []string{"*"}
	}
}
