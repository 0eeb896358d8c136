package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
)

func TestDispatch(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	run.On("GetID").Return("profile-run-1")
	run.On("GetRunID").Return("temporal-run-1")

	c.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.ID == "profile-run-1" && o.TaskQueue == "company-profiles"
		}),
		WorkflowName,
		mock.MatchedBy(func(in ProfileInput) bool {
			return in.JobTimeout == 5*time.Minute && in.URL == "https://acme.com"
		}),
	).Return(run, nil).Once()

	d := NewDispatcher(c, "company-profiles", 5*time.Minute)
	id, err := d.Dispatch(context.Background(), ProfileInput{RunID: "run-1", URL: "https://acme.com"})
	require.NoError(t, err)
	assert.Equal(t, "temporal-run-1", id)
	c.AssertExpectations(t)
	run.AssertExpectations(t)
}

func TestDispatch_Error(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, WorkflowName, mock.Anything).
		Return(nil, assert.AnError).Once()

	d := NewDispatcher(c, "company-profiles", time.Minute)
	_, err := d.Dispatch(context.Background(), ProfileInput{URL: "https://acme.com"})
	assert.ErrorContains(t, err, "queue: start workflow for https://acme.com")
	c.AssertExpectations(t)
}
