package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"github.com/olusolaa/cloud-housekeeper/internal/errors"
)

// MockErrorWithCode implements interface{ ErrorCode() string } without the rest of smithy.APIError.
type MockErrorWithCode struct {
	Code    string
	Message string
}

func (m *MockErrorWithCode) Error() string     { return m.Message }
func (m *MockErrorWithCode) ErrorCode() string { return m.Code }

func TestHandleAWSError(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name         string
		err          error
		ctx          context.Context
		expectedCode errors.Code
	}{
		{name: "nil error", err: nil, ctx: context.Background(), expectedCode: errors.CodeInternal},
		{name: "cancelled context", err: fmt.Errorf("boom"), ctx: cancelled, expectedCode: errors.CodeTimeout},
		{name: "deadline error", err: fmt.Errorf("wrapped: %w", context.DeadlineExceeded), ctx: context.Background(), expectedCode: errors.CodeTimeout},
		{name: "smithy auth", err: &smithy.GenericAPIError{Code: "UnauthorizedOperation", Message: "no"}, ctx: context.Background(), expectedCode: errors.CodePlatformAuthError},
		{name: "auth by message", err: fmt.Errorf("AccessDenied: nope"), ctx: context.Background(), expectedCode: errors.CodePlatformAuthError},
		{name: "throttled", err: &smithy.GenericAPIError{Code: "RequestLimitExceeded", Message: "slow"}, ctx: context.Background(), expectedCode: errors.CodePlatformThrottled},
		{name: "snapshot rate", err: &MockErrorWithCode{Code: "SnapshotCreationPerVolumeRateExceeded", Message: "wait"}, ctx: context.Background(), expectedCode: errors.CodePlatformThrottled},
		{name: "not found code", err: &smithy.GenericAPIError{Code: "InvalidSnapshot.NotFound", Message: "gone"}, ctx: context.Background(), expectedCode: errors.CodeResourceNotFound},
		{name: "not found message", err: fmt.Errorf("db instance not found"), ctx: context.Background(), expectedCode: errors.CodeResourceNotFound},
		{name: "other api error", err: &smithy.GenericAPIError{Code: "InternalError", Message: "oops"}, ctx: context.Background(), expectedCode: errors.CodePlatformAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleAWSError("EC2 volume", "vol-1", tt.err, tt.ctx)
			assert.Error(t, err)
			assert.Equal(t, tt.expectedCode, errors.GetCode(err))
		})
	}
}

func TestHandleAWSError_RetryClassification(t *testing.T) {
	throttled := HandleAWSError("EC2", "DescribeVolumes", &smithy.GenericAPIError{Code: "Throttling"}, context.Background())
	denied := HandleAWSError("EC2", "DescribeVolumes", &smithy.GenericAPIError{Code: "AccessDenied"}, context.Background())

	assert.True(t, errors.GetCode(throttled).Retryable())
	assert.False(t, errors.GetCode(denied).Retryable())
}

func TestDefaultErrorHandler(t *testing.T) {
	h := &DefaultErrorHandler{}
	err := h.Handle("RDS", "DescribeDBInstances", &smithy.GenericAPIError{Code: "DBInstanceNotFound"}, context.Background())
	assert.True(t, errors.Is(err, errors.CodeResourceNotFound))
}
