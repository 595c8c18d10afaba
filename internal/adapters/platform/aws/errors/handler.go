package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

var (
	authCodes = map[string]struct{}{
		"AuthFailure":                 {},
		"UnauthorizedOperation":       {},
		"AccessDenied":                {},
		"AccessDeniedException":       {},
		"InvalidClientTokenId":        {},
		"SignatureDoesNotMatch":       {},
		"ExpiredToken":                {},
		"UnrecognizedClientException": {},
	}
	throttleCodes = map[string]struct{}{
		"Throttling":                            {},
		"ThrottlingException":                   {},
		"ThrottledException":                    {},
		"RequestLimitExceeded":                  {},
		"TooManyRequestsException":              {},
		"RequestThrottled":                      {},
		"SnapshotCreationPerVolumeRateExceeded": {},
	}
	notFoundCodes = map[string]struct{}{
		"InvalidInstanceID.NotFound":   {},
		"InvalidInstanceID.Malformed":  {},
		"InvalidVolume.NotFound":       {},
		"InvalidSnapshot.NotFound":     {},
		"InvalidAllocationID.NotFound": {},
		"DBInstanceNotFound":           {},
		"DBInstanceNotFoundFault":      {},
		"ResourceNotFoundException":    {},
		"NotFoundException":            {},
		"ResourceNotFound":             {},
	}
)

// HandleAWSError maps an SDK error onto an application code. The code decides
// whether the pager retries the call.
func HandleAWSError(resourceType string, resourceID string, err error, ctx context.Context) error {
	if err == nil {
		return errors.New(errors.CodeInternal, fmt.Sprintf("unexpected nil error in AWS error handler for %s", resourceType))
	}

	if ctx.Err() != nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.CodeTimeout,
			fmt.Sprintf("AWS %s call for %s interrupted", resourceType, resourceID))
	}

	code := errorCode(err)
	switch {
	case inSet(authCodes, code) || (code == "" && containsAny(err.Error(), "AuthFailure", "UnauthorizedOperation", "AccessDenied")):
		return errors.Wrap(err, errors.CodePlatformAuthError,
			fmt.Sprintf("AWS authentication error accessing %s %s", resourceType, resourceID))
	case inSet(throttleCodes, code):
		return errors.Wrap(err, errors.CodePlatformThrottled,
			fmt.Sprintf("AWS throttled %s call for %s", resourceType, resourceID))
	case inSet(notFoundCodes, code) || (code == "" && containsAny(err.Error(), "NotFound", "not found", "not exist")):
		return errors.Wrap(err, errors.CodeResourceNotFound,
			fmt.Sprintf("%s '%s' not found", resourceType, resourceID))
	}

	return errors.Wrap(err, errors.CodePlatformAPIError,
		fmt.Sprintf("failed to access %s '%s'", resourceType, resourceID))
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) && apiErr != nil {
		return apiErr.ErrorCode()
	}
	if coded, ok := err.(interface{ ErrorCode() string }); ok {
		return coded.ErrorCode()
	}
	return ""
}

func inSet(set map[string]struct{}, code string) bool {
	if code == "" {
		return false
	}
	_, ok := set[code]
	return ok
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// DefaultErrorHandler implements shared.ErrorHandler.
type DefaultErrorHandler struct{}

func (d *DefaultErrorHandler) Handle(service, operation string, err error, ctx context.Context) error {
	return HandleAWSError(service, operation, err, ctx)
}
