package errors

// ErrorCode identifies an error class in API responses and logs.
type ErrorCode int32

const (
	ErrorCode_UNSPECIFIED ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1
	ErrorCode_INVALID_ARGUMENT ErrorCode = 2
	ErrorCode_NOT_FOUND        ErrorCode = 3
	ErrorCode_HTTP_OK          ErrorCode = 200

	// Input
	ErrorCode_INPUT_MISSING          ErrorCode = 1000
	ErrorCode_INPUT_EMPTY_TRANSCRIPT ErrorCode = 1001
	ErrorCode_INPUT_EMPTY_TOPICS     ErrorCode = 1002
	ErrorCode_INPUT_INVALID_PAYLOAD  ErrorCode = 1003

	// Segmentation
	ErrorCode_SEGMENT_LLM_FAILED        ErrorCode = 2000
	ErrorCode_SEGMENT_EMBEDDING_FAILED  ErrorCode = 2001
	ErrorCode_SEGMENT_RECOVERY_FAILED   ErrorCode = 2002
	ErrorCode_SEGMENT_CHECKPOINT_FAILED ErrorCode = 2003
	ErrorCode_SEGMENT_PROCESSING_FAILED ErrorCode = 2004

	// Integration
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 3000
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = 3001

	// Database
	ErrorCode_DB_CONNECTION_FAILED ErrorCode = 4000
	ErrorCode_DB_QUERY_FAILED      ErrorCode = 4001
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:                "UNSPECIFIED",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_HTTP_OK:                    "OK",
	ErrorCode_INPUT_MISSING:              "INPUT_MISSING",
	ErrorCode_INPUT_EMPTY_TRANSCRIPT:     "INPUT_EMPTY_TRANSCRIPT",
	ErrorCode_INPUT_EMPTY_TOPICS:         "INPUT_EMPTY_TOPICS",
	ErrorCode_INPUT_INVALID_PAYLOAD:      "INPUT_INVALID_PAYLOAD",
	ErrorCode_SEGMENT_LLM_FAILED:         "SEGMENT_LLM_FAILED",
	ErrorCode_SEGMENT_EMBEDDING_FAILED:   "SEGMENT_EMBEDDING_FAILED",
	ErrorCode_SEGMENT_RECOVERY_FAILED:    "SEGMENT_RECOVERY_FAILED",
	ErrorCode_SEGMENT_CHECKPOINT_FAILED:  "SEGMENT_CHECKPOINT_FAILED",
	ErrorCode_SEGMENT_PROCESSING_FAILED:  "SEGMENT_PROCESSING_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_CONNECTION_FAILED:       "DB_CONNECTION_FAILED",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNSPECIFIED"
}
