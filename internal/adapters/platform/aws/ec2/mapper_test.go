package ec2

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
)

func TestMapInstance_FallsBackToCPUOptions(t *testing.T) {
	s, ok := mapInstance(types.Instance{
		InstanceId:   aws.String("i-1"),
		InstanceType: types.InstanceTypeM5Large,
		CpuOptions:   &types.CpuOptions{CoreCount: aws.Int32(1), ThreadsPerCore: aws.Int32(2)},
	}, "r1", "acct", nil)

	assert.True(t, ok)
	assert.Equal(t, int32(2), s.VCPUs)
	assert.Zero(t, s.MemoryMiB)
}

func TestMapInstance_RequiresID(t *testing.T) {
	_, ok := mapInstance(types.Instance{}, "r1", "acct", nil)
	assert.False(t, ok)
}

func TestToEC2Tags(t *testing.T) {
	got := toEC2Tags(domain.Tags{"b": "2", "aws:x": "y", "a": "1"})
	assert.Equal(t, []types.Tag{
		{Key: aws.String("a"), Value: aws.String("1")},
		{Key: aws.String("b"), Value: aws.String("2")},
	}, got)
}

func TestUnknownTypes(t *testing.T) {
	reservations := []types.Reservation{{Instances: []types.Instance{
		{InstanceType: types.InstanceTypeT3Small},
		{InstanceType: types.InstanceTypeM5Large},
		{InstanceType: types.InstanceTypeT3Small},
		{InstanceType: types.InstanceTypeC5Xlarge},
	}}}
	known := func(t types.InstanceType) bool { return t == types.InstanceTypeC5Xlarge }

	assert.Equal(t, []types.InstanceType{types.InstanceTypeM5Large, types.InstanceTypeT3Small}, unknownTypes(reservations, known))
}
