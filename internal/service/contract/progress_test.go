package contract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mne-tracker/internal/constants"
	"mne-tracker/internal/storage"
)

func milestone(status string) *storage.Milestone {
	return &storage.Milestone{
		ID:               21,
		ContractID:       1,
		IndicatorID:      1,
		PlannedStartDate: now.AddDate(0, -2, 0),
		PlannedEndDate:   now.AddDate(0, 1, 0),
		BaselineValue:    30,
		TargetValue:      80,
		OverallStatus:    status,
		HealthIndicator:  constants.HealthOnTrack,
	}
}

func TestReportProgress(t *testing.T) {
	tests := []struct {
		name       string
		milestone  *storage.Milestone
		indicator  *storage.Indicator
		input      ReportInput
		wantAch    float64
		wantStatus string
		wantHealth string
		wantStart  bool
		wantEnd    bool
	}{
		{
			name:       "first report starts the milestone",
			milestone:  milestone(constants.MilestoneNotStarted),
			indicator:  enrollment,
			input:      ReportInput{ReportingDate: now, ActualValue: 70},
			wantAch:    80,
			wantStatus: constants.MilestoneInProgress,
			wantHealth: constants.HealthOnTrack,
			wantStart:  true,
		},
		{
			name:       "target reached completes through in progress",
			milestone:  milestone(constants.MilestoneNotStarted),
			indicator:  enrollment,
			input:      ReportInput{ReportingDate: now, ActualValue: 85},
			wantAch:    110,
			wantStatus: constants.MilestoneCompleted,
			wantHealth: constants.HealthOnTrack,
			wantStart:  true,
			wantEnd:    true,
		},
		{
			name:      "reduction indicator",
			milestone: func() *storage.Milestone { m := milestone(constants.MilestoneInProgress); m.IndicatorID = 2; m.BaselineValue = 12; m.TargetValue = 5; return m }(),
			indicator: stunting,
			// (12 - 8) / (12 - 5)
			input:      ReportInput{ReportingDate: now, ActualValue: 8},
			wantAch:    57.1,
			wantStatus: constants.MilestoneInProgress,
			wantHealth: constants.HealthAtRisk,
			wantStart:  true,
		},
		{
			name:       "moving away from target floors at zero",
			milestone:  milestone(constants.MilestoneInProgress),
			indicator:  enrollment,
			input:      ReportInput{ReportingDate: now, ActualValue: 20},
			wantAch:    0,
			wantStatus: constants.MilestoneInProgress,
			wantHealth: constants.HealthCritical,
			wantStart:  true,
		},
		{
			name:       "late report marks delayed",
			milestone:  func() *storage.Milestone { m := milestone(constants.MilestoneInProgress); m.PlannedEndDate = now.AddDate(0, 0, -1); return m }(),
			indicator:  enrollment,
			input:      ReportInput{ReportingDate: now, ActualValue: 70},
			wantAch:    80,
			wantStatus: constants.MilestoneDelayed,
			wantHealth: constants.HealthAtRisk,
			wantStart:  true,
		},
		{
			name:       "undated late report marks delayed",
			milestone:  func() *storage.Milestone { m := milestone(constants.MilestoneInProgress); m.PlannedEndDate = now.AddDate(0, 0, -10); return m }(),
			indicator:  enrollment,
			input:      ReportInput{ActualValue: 70},
			wantAch:    80,
			wantStatus: constants.MilestoneDelayed,
			wantHealth: constants.HealthAtRisk,
			wantStart:  true,
		},
		{
			name:       "zero span gives zero",
			milestone:  func() *storage.Milestone { m := milestone(constants.MilestoneInProgress); m.TargetValue = 30; return m }(),
			indicator:  enrollment,
			input:      ReportInput{ReportingDate: now, ActualValue: 50},
			wantAch:    0,
			wantStatus: constants.MilestoneInProgress,
			wantHealth: constants.HealthCritical,
			wantStart:  true,
		},
		{
			name:       "explicit status",
			milestone:  milestone(constants.MilestoneInProgress),
			indicator:  enrollment,
			input:      ReportInput{ReportingDate: now, ActualValue: 60, Status: constants.MilestoneCompleted},
			wantAch:    60,
			wantStatus: constants.MilestoneCompleted,
			wantHealth: constants.HealthAtRisk,
			wantStart:  true,
			wantEnd:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(MockContractStorage)
			st.On("GetMilestoneByID", mock.Anything, int64(21)).Return(tt.milestone, nil)
			st.On("GetContractByID", mock.Anything, int64(1)).Return(&storage.Contract{ID: 1, Status: constants.ContractActive}, nil)
			st.On("GetIndicatorByID", mock.Anything, tt.milestone.IndicatorID).Return(tt.indicator, nil)
			st.On("SaveProgressReport", mock.Anything,
				mock.MatchedBy(func(r storage.ProgressReport) bool {
					return r.MilestoneID == 21 && r.ContractID == 1 && r.ActualValue == tt.input.ActualValue && !r.ReportingDate.IsZero()
				}),
				mock.MatchedBy(func(p storage.MilestoneProgress) bool {
					return p.MilestoneID == 21 && p.AchievementPercentage == tt.wantAch && p.OverallStatus == tt.wantStatus
				}),
			).Return(int64(1), nil)

			got, err := newTestService(st).ReportProgress(context.Background(), 21, tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantAch, got.AchievementPercentage)
			assert.Equal(t, tt.wantStatus, got.OverallStatus)
			assert.Equal(t, tt.wantHealth, got.HealthIndicator)
			assert.Equal(t, tt.wantStart, got.ActualStartDate != nil)
			assert.Equal(t, tt.wantEnd, got.ActualEndDate != nil)
			st.AssertExpectations(t)
		})
	}
}

func TestReportProgress_InvalidTransition(t *testing.T) {
	st := new(MockContractStorage)
	st.On("GetMilestoneByID", mock.Anything, int64(21)).Return(milestone(constants.MilestoneCompleted), nil)
	st.On("GetContractByID", mock.Anything, int64(1)).Return(&storage.Contract{ID: 1, Status: constants.ContractActive}, nil)
	st.On("GetIndicatorByID", mock.Anything, int64(1)).Return(enrollment, nil)

	_, err := newTestService(st).ReportProgress(context.Background(), 21, ReportInput{
		ReportingDate: now,
		ActualValue:   50,
		Status:        constants.MilestoneInProgress,
	})

	assert.ErrorIs(t, err, ErrInvalidTransition)
	st.AssertNotCalled(t, "SaveProgressReport", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportProgress_MilestoneNotFound(t *testing.T) {
	st := new(MockContractStorage)
	st.On("GetMilestoneByID", mock.Anything, int64(99)).Return(nil, storage.ErrNotFound)

	_, err := newTestService(st).ReportProgress(context.Background(), 99, ReportInput{ActualValue: 1})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReportProgress_ActivatesSignedContract(t *testing.T) {
	st := new(MockContractStorage)
	st.On("GetMilestoneByID", mock.Anything, int64(21)).Return(milestone(constants.MilestoneNotStarted), nil)
	st.On("GetContractByID", mock.Anything, int64(1)).Return(&storage.Contract{ID: 1, Status: constants.ContractSigned}, nil)
	st.On("GetIndicatorByID", mock.Anything, int64(1)).Return(enrollment, nil)
	st.On("SaveProgressReport", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	st.On("UpdateContractStatus", mock.Anything, int64(1), constants.ContractActive, (*time.Time)(nil)).Return(nil)

	_, err := newTestService(st).ReportProgress(context.Background(), 21, ReportInput{ReportingDate: now, ActualValue: 40})

	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestReportProgress_DraftContractRejected(t *testing.T) {
	st := new(MockContractStorage)
	st.On("GetMilestoneByID", mock.Anything, int64(21)).Return(milestone(constants.MilestoneNotStarted), nil)
	st.On("GetContractByID", mock.Anything, int64(1)).Return(&storage.Contract{ID: 1, Status: constants.ContractDraft}, nil)

	_, err := newTestService(st).ReportProgress(context.Background(), 21, ReportInput{ReportingDate: now, ActualValue: 40})

	assert.ErrorIs(t, err, ErrNotSigned)
	st.AssertNotCalled(t, "SaveProgressReport", mock.Anything, mock.Anything, mock.Anything)
}

func TestNextStatus_CompletedStaysCompleted(t *testing.T) {
	got, err := nextStatus(milestone(constants.MilestoneCompleted), ReportInput{ReportingDate: now}, 40)
	require.NoError(t, err)
	assert.Equal(t, constants.MilestoneCompleted, got)
}
