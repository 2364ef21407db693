package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{MilestoneNotStarted, MilestoneInProgress, true},
		{MilestoneNotStarted, MilestoneCompleted, false},
		{MilestoneNotStarted, MilestoneDelayed, false},
		{MilestoneInProgress, MilestoneDelayed, true},
		{MilestoneInProgress, MilestoneCompleted, true},
		{MilestoneInProgress, MilestoneNotStarted, false},
		{MilestoneDelayed, MilestoneInProgress, true},
		{MilestoneDelayed, MilestoneCompleted, true},
		{MilestoneCompleted, MilestoneInProgress, false},
		{MilestoneInProgress, MilestoneInProgress, true},
		{"unknown", "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}
