package ec2

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
)

const reservedTagPrefix = "aws:"

// instanceSize is the size of an instance type as DescribeInstanceTypes reports it.
type instanceSize struct {
	VCPUs     int32
	MemoryMiB int64
}

func tagsOf(tags []types.Tag) domain.Tags {
	out := make(domain.Tags, len(tags))
	for _, t := range tags {
		if t.Key == nil {
			continue
		}
		out[*t.Key] = aws.ToString(t.Value)
	}
	return out
}

// toEC2Tags drops reserved keys, which CreateTags rejects, and orders the
// rest by key.
func toEC2Tags(tags domain.Tags) []types.Tag {
	out := make([]types.Tag, 0, len(tags))
	for _, k := range tags.Keys() {
		if strings.HasPrefix(k, reservedTagPrefix) {
			continue
		}
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}

func arn(region, accountID, resourceType, id string) string {
	return fmt.Sprintf("arn:aws:ec2:%s:%s:%s/%s", region, accountID, resourceType, id)
}

func mapInstance(instance types.Instance, region, accountID string, sizes map[types.InstanceType]instanceSize) (domain.Server, bool) {
	if instance.InstanceId == nil {
		return domain.Server{}, false
	}
	tags := tagsOf(instance.Tags)
	s := domain.Server{
		ID:           *instance.InstanceId,
		ARN:          arn(region, accountID, "instance", *instance.InstanceId),
		Region:       region,
		Name:         tags[domain.TagName],
		InstanceType: string(instance.InstanceType),
		PrivateIP:    aws.ToString(instance.PrivateIpAddress),
		PublicIP:     aws.ToString(instance.PublicIpAddress),
		Tags:         tags,
	}
	if instance.State != nil {
		s.Status = string(instance.State.Name)
	}
	if size, ok := sizes[instance.InstanceType]; ok {
		s.VCPUs = size.VCPUs
		s.MemoryMiB = size.MemoryMiB
	} else if instance.CpuOptions != nil {
		s.VCPUs = aws.ToInt32(instance.CpuOptions.CoreCount) * aws.ToInt32(instance.CpuOptions.ThreadsPerCore)
	}
	return s, true
}

func mapInstanceType(info types.InstanceTypeInfo) instanceSize {
	var size instanceSize
	if info.VCpuInfo != nil {
		size.VCPUs = aws.ToInt32(info.VCpuInfo.DefaultVCpus)
	}
	if info.MemoryInfo != nil {
		size.MemoryMiB = aws.ToInt64(info.MemoryInfo.SizeInMiB)
	}
	return size
}

func mapVolume(v types.Volume, region, accountID string) (domain.Volume, bool) {
	if v.VolumeId == nil {
		return domain.Volume{}, false
	}
	tags := tagsOf(v.Tags)
	vol := domain.Volume{
		ID:         *v.VolumeId,
		ARN:        arn(region, accountID, "volume", *v.VolumeId),
		Region:     region,
		Name:       tags[domain.TagName],
		Status:     string(v.State),
		VolumeType: string(v.VolumeType),
		SizeGiB:    aws.ToInt32(v.Size),
		Tags:       tags,
		CreatedAt:  aws.ToTime(v.CreateTime),
	}
	for _, a := range v.Attachments {
		vol.Attachments = append(vol.Attachments, domain.Attachment{
			ServerID: aws.ToString(a.InstanceId),
			Device:   aws.ToString(a.Device),
		})
	}
	return vol, true
}

func mapAddress(a types.Address, region, accountID string) (domain.PublicIP, bool) {
	if a.PublicIp == nil {
		return domain.PublicIP{}, false
	}
	tags := tagsOf(a.Tags)
	p := domain.PublicIP{
		AllocationID:       aws.ToString(a.AllocationId),
		Region:             region,
		Name:               tags[domain.TagName],
		Status:             domain.PublicIPStatusDown,
		PublicIP:           *a.PublicIp,
		PrivateIP:          aws.ToString(a.PrivateIpAddress),
		ServerID:           aws.ToString(a.InstanceId),
		NetworkInterfaceID: aws.ToString(a.NetworkInterfaceId),
		Domain:             string(a.Domain),
		BorderGroup:        aws.ToString(a.NetworkBorderGroup),
		Tags:               tags,
	}
	if a.AssociationId != nil {
		p.Status = domain.PublicIPStatusActive
	}
	if p.AllocationID != "" {
		p.ARN = arn(region, accountID, "elastic-ip", p.AllocationID)
	}
	return p, true
}

func mapSnapshot(s types.Snapshot, region string) (domain.Snapshot, bool) {
	if s.SnapshotId == nil {
		return domain.Snapshot{}, false
	}
	return domain.Snapshot{
		ID:        *s.SnapshotId,
		VolumeID:  aws.ToString(s.VolumeId),
		Region:    region,
		Name:      tagsOf(s.Tags)[domain.TagName],
		State:     string(s.State),
		StartedAt: aws.ToTime(s.StartTime),
	}, true
}

// unknownTypes returns the instance types of a page that are not yet cached,
// sorted for stable request bodies.
func unknownTypes(reservations []types.Reservation, known func(types.InstanceType) bool) []types.InstanceType {
	seen := map[types.InstanceType]struct{}{}
	var out []types.InstanceType
	for _, r := range reservations {
		for _, i := range r.Instances {
			if i.InstanceType == "" || known(i.InstanceType) {
				continue
			}
			if _, dup := seen[i.InstanceType]; dup {
				continue
			}
			seen[i.InstanceType] = struct{}{}
			out = append(out, i.InstanceType)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
