package resourcegroups

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroups"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroups/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	awserrors "github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/cloud-housekeeper/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/errors"
	"github.com/olusolaa/cloud-housekeeper/internal/log"
	"github.com/olusolaa/cloud-housekeeper/mocks"
)

type ProjectsTestSuite struct {
	suite.Suite
	api      *mocks.MockResourceGroupsClient
	projects *Projects
	ctx      context.Context
}

func (s *ProjectsTestSuite) SetupTest() {
	logger := log.NewNop()
	s.api = &mocks.MockResourceGroupsClient{}
	s.ctx = context.Background()
	s.projects = NewProjects(func(string) ResourceGroupsClientInterface { return s.api }, shared.Deps{
		Limiter:      limiter.New(100, logger),
		ErrorHandler: &awserrors.DefaultErrorHandler{},
		Logger:       logger,
	})
}

func TestProjectsTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectsTestSuite))
}

func (s *ProjectsTestSuite) TestListProjects() {
	s.api.On("ListGroups", mock.Anything, &resourcegroups.ListGroupsInput{MaxResults: aws.Int32(50)}).
		Return(&resourcegroups.ListGroupsOutput{
			NextToken: aws.String("next"),
			GroupIdentifiers: []types.GroupIdentifier{
				{GroupName: aws.String("payments"), GroupArn: aws.String("arn:rg:payments")},
				{GroupArn: aws.String("arn:rg:nameless")},
			},
		}, nil)

	page, err := s.projects.ListProjects(s.ctx, domain.PageRequest{Region: "r1", Limit: 200})

	s.Require().NoError(err)
	s.Equal("next", page.NextMarker)
	s.Equal([]domain.Project{{Name: "payments", ID: "arn:rg:payments", Region: "r1"}}, page.Items)
}

func (s *ProjectsTestSuite) TestListProjectMembers() {
	s.api.On("ListGroupResources", mock.Anything, &resourcegroups.ListGroupResourcesInput{
		Group:      aws.String("arn:rg:payments"),
		MaxResults: aws.Int32(20),
		NextToken:  aws.String("m1"),
	}).Return(&resourcegroups.ListGroupResourcesOutput{
		Resources: []types.ListGroupResourcesItem{
			{Identifier: &types.ResourceIdentifier{ResourceArn: aws.String("arn:aws:ec2:r1:1:instance/i-1")}},
			{Identifier: nil},
		},
	}, nil)

	page, err := s.projects.ListProjectMembers(s.ctx,
		domain.Project{Name: "payments", ID: "arn:rg:payments", Region: "r1"},
		domain.PageRequest{Region: "r1", Limit: 20, Marker: "m1"})

	s.Require().NoError(err)
	s.Equal([]string{"arn:aws:ec2:r1:1:instance/i-1"}, page.Items)
	s.Empty(page.NextMarker)
}

func (s *ProjectsTestSuite) TestMigrate_UngroupsThenGroups() {
	from := &domain.Project{Name: "ops", ID: "arn:rg:ops"}
	to := domain.Project{Name: "payments", ID: "arn:rg:payments"}
	arns := []string{"arn:1", "arn:2"}

	var order []string
	s.api.On("UngroupResources", mock.Anything, &resourcegroups.UngroupResourcesInput{Group: aws.String("arn:rg:ops"), ResourceArns: arns}).
		Run(func(mock.Arguments) { order = append(order, "ungroup") }).
		Return(&resourcegroups.UngroupResourcesOutput{}, nil)
	s.api.On("GroupResources", mock.Anything, &resourcegroups.GroupResourcesInput{Group: aws.String("arn:rg:payments"), ResourceArns: arns}).
		Run(func(mock.Arguments) { order = append(order, "group") }).
		Return(&resourcegroups.GroupResourcesOutput{}, nil)

	s.Require().NoError(s.projects.Migrate(s.ctx, "r1", from, to, arns))
	s.Equal([]string{"ungroup", "group"}, order)
}

func (s *ProjectsTestSuite) TestMigrate_NoSourceProject() {
	s.api.On("GroupResources", mock.Anything, mock.Anything).Return(&resourcegroups.GroupResourcesOutput{}, nil)

	s.Require().NoError(s.projects.Migrate(s.ctx, "r1", nil, domain.Project{Name: "payments"}, []string{"arn:1"}))
	s.api.AssertNotCalled(s.T(), "UngroupResources", mock.Anything, mock.Anything)
}

func (s *ProjectsTestSuite) TestMigrate_Batches() {
	arns := make([]string, 25)
	for i := range arns {
		arns[i] = fmt.Sprintf("arn:%d", i)
	}
	s.api.On("GroupResources", mock.Anything, mock.Anything).Return(&resourcegroups.GroupResourcesOutput{}, nil)

	s.Require().NoError(s.projects.Migrate(s.ctx, "r1", nil, domain.Project{ID: "arn:rg:payments"}, arns))
	s.api.AssertNumberOfCalls(s.T(), "GroupResources", 3)
}

func (s *ProjectsTestSuite) TestMigrate_PartialFailure() {
	s.api.On("GroupResources", mock.Anything, mock.Anything).Return(&resourcegroups.GroupResourcesOutput{
		Failed: []types.FailedResource{{ResourceArn: aws.String("arn:1"), ErrorMessage: aws.String("unsupported type")}},
	}, nil)

	err := s.projects.Migrate(s.ctx, "r1", nil, domain.Project{Name: "payments"}, []string{"arn:1"})

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodeMutationFailed))
	s.Contains(err.Error(), "unsupported type")
}

func (s *ProjectsTestSuite) TestMigrate_UngroupErrorStops() {
	s.api.On("UngroupResources", mock.Anything, mock.Anything).Return(nil, &smithy.GenericAPIError{Code: "AccessDeniedException"})

	err := s.projects.Migrate(s.ctx, "r1", &domain.Project{Name: "ops"}, domain.Project{Name: "payments"}, []string{"arn:1"})

	s.Require().Error(err)
	s.True(errors.Is(err, errors.CodePlatformAuthError))
	s.api.AssertNotCalled(s.T(), "GroupResources", mock.Anything, mock.Anything)
}

func TestMigrate_Empty(t *testing.T) {
	api := &mocks.MockResourceGroupsClient{}
	p := NewProjects(func(string) ResourceGroupsClientInterface { return api }, shared.Deps{})

	require.NoError(t, p.Migrate(context.Background(), "r1", nil, domain.Project{Name: "x"}, nil))
	assert.Empty(t, api.Calls)
}
