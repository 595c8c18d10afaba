package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeConfigValidation Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"
	CodeNotImplemented   Code = "NOT_IMPLEMENTED"
	CodeTimeout          Code = "TIMEOUT_ERROR"

	CodePlatformAPIError  Code = "PLATFORM_API_ERROR"
	CodePlatformAuthError Code = "PLATFORM_AUTH_ERROR"
	CodePlatformThrottled Code = "PLATFORM_THROTTLED"
	CodeResourceNotFound  Code = "RESOURCE_NOT_FOUND"

	// Housekeeping task codes
	CodeInventoryPartial   Code = "INVENTORY_PARTIAL"
	CodeMutationFailed     Code = "MUTATION_FAILED"
	CodeNotificationFailed Code = "NOTIFICATION_FAILED"
	CodePayloadDecode      Code = "PAYLOAD_DECODE_ERROR"
	CodeTemplateRender     Code = "TEMPLATE_RENDER_ERROR"
	CodeInvalidParameter   Code = "INVALID_PARAMETER"
)

func (c Code) String() string {
	return string(c)
}

// Retryable reports whether an operation failing with this code may succeed on a later attempt.
func (c Code) Retryable() bool {
	switch c {
	case CodePlatformAPIError, CodePlatformThrottled, CodeTimeout, CodeUnknown:
		return true
	default:
		return false
	}
}
