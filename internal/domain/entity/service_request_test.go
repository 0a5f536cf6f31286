package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

func TestServiceRequest_Clone(t *testing.T) {
	pro := int64(7)
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	quote := decimal.RequireFromString("107.00")
	orig := &ServiceRequest{
		ID:                     "req-1",
		RequesterID:            1,
		AssignedProfessionalID: &pro,
		Status:                 workflow.StatusDateSet,
		History: []StatusHistoryEntry{
			{Seq: 1, Status: workflow.StatusRequested, Action: workflow.ActionCreate},
		},
		ScheduledStartAt: &start,
		QuotedAmount:     &quote,
	}

	c := orig.Clone()
	*c.AssignedProfessionalID = 8
	*c.ScheduledStartAt = start.Add(time.Hour)
	*c.QuotedAmount = decimal.NewFromInt(1)
	c.History[0].Notes = "changed"
	c.History = append(c.History, StatusHistoryEntry{Seq: 2})

	assert.Equal(t, int64(7), *orig.AssignedProfessionalID)
	assert.True(t, start.Equal(*orig.ScheduledStartAt))
	assert.True(t, quote.Equal(*orig.QuotedAmount))
	assert.Equal(t, "", orig.History[0].Notes)
	assert.Len(t, orig.History, 1)
}

func TestServiceRequest_Helpers(t *testing.T) {
	pro := int64(7)
	req := &ServiceRequest{AssignedProfessionalID: &pro}

	assert.True(t, req.IsAssignee(7))
	assert.False(t, req.IsAssignee(8))
	assert.Nil(t, req.LastEntry())

	req.History = []StatusHistoryEntry{
		{Seq: 1, ChangedByActorID: 1, ChangedByRole: workflow.RoleRequester},
		{Seq: 2, ChangedByActorID: 99, ChangedByRole: workflow.RoleAdministrator},
		{Seq: 3, ChangedByActorID: 7, ChangedByRole: workflow.RoleProfessional},
	}
	assert.Equal(t, 3, req.LastEntry().Seq)

	id, ok := req.LastActorWithRole(workflow.RoleAdministrator)
	assert.True(t, ok)
	assert.Equal(t, int64(99), id)

	req.AssignedProfessionalID = nil
	assert.False(t, req.IsAssignee(7))
}
