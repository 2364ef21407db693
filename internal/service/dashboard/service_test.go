package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mne-tracker/internal/constants"
	"mne-tracker/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type MockDashboardStorage struct {
	mock.Mock
}

func (m *MockDashboardStorage) GetAllIndicators(ctx context.Context) ([]*storage.Indicator, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Indicator), args.Error(1)
}

func (m *MockDashboardStorage) GetAllContractIndicators(ctx context.Context) ([]storage.ContractIndicator, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ContractIndicator), args.Error(1)
}

func (m *MockDashboardStorage) GetAllMilestones(ctx context.Context) ([]storage.Milestone, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Milestone), args.Error(1)
}

func (m *MockDashboardStorage) GetContracts(ctx context.Context, filter storage.ContractFilter) ([]*storage.Contract, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.Contract), args.Error(1)
}

func (m *MockDashboardStorage) GetLatestReports(ctx context.Context) ([]storage.ProgressReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ProgressReport), args.Error(1)
}

func newTestService(st DashboardStorage) *DashboardService {
	svc := NewDashboardService(st)
	svc.now = func() time.Time { return now }
	return svc
}

func TestIndicatorDashboard(t *testing.T) {
	st := new(MockDashboardStorage)

	st.On("GetAllIndicators", mock.Anything).Return([]*storage.Indicator{
		{ID: 1, Code: "EDU-01", BaselinePercentage: 30, TargetPercentage: 85},
		{ID: 2, Code: "HLT-02", BaselinePercentage: 12, TargetPercentage: 5, IsReductionTarget: true},
	}, nil)
	st.On("GetAllContractIndicators", mock.Anything).Return([]storage.ContractIndicator{
		{ContractID: 1, IndicatorID: 1, BaselinePercentage: 40, TargetPercentage: 90},
	}, nil)
	st.On("GetAllMilestones", mock.Anything).Return([]storage.Milestone{
		{ContractID: 1, IndicatorID: 1, AchievementPercentage: 60},
		{ContractID: 2, IndicatorID: 1, AchievementPercentage: 80},
	}, nil)

	got, err := newTestService(st).IndicatorDashboard(context.Background(), IndicatorFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "EDU-01", got[0].IndicatorCode)
	assert.Equal(t, 70.0, got[0].AverageAchievement)
	assert.Equal(t, 2, got[0].PartnersWorkingOn)
	assert.Equal(t, 40.0, got[0].AverageBaseline)

	assert.Equal(t, "HLT-02", got[1].IndicatorCode)
	assert.Equal(t, 0.0, got[1].AverageAchievement)
	assert.Equal(t, 5.0, got[1].AverageTarget)

	st.AssertExpectations(t)
}

func TestIndicatorDashboard_FilterByCode(t *testing.T) {
	st := new(MockDashboardStorage)

	st.On("GetAllIndicators", mock.Anything).Return([]*storage.Indicator{
		{ID: 1, Code: "EDU-01"},
		{ID: 2, Code: "HLT-02"},
	}, nil)
	st.On("GetAllContractIndicators", mock.Anything).Return([]storage.ContractIndicator{}, nil)
	st.On("GetAllMilestones", mock.Anything).Return([]storage.Milestone{}, nil)

	got, err := newTestService(st).IndicatorDashboard(context.Background(), IndicatorFilter{Codes: []string{"HLT-02"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "HLT-02", got[0].IndicatorCode)
}

func TestIndicatorDashboard_StorageError(t *testing.T) {
	st := new(MockDashboardStorage)

	st.On("GetAllIndicators", mock.Anything).Return(nil, errors.New("db is down"))
	st.On("GetAllContractIndicators", mock.Anything).Return([]storage.ContractIndicator{}, nil)
	st.On("GetAllMilestones", mock.Anything).Return([]storage.Milestone{}, nil)

	got, err := newTestService(st).IndicatorDashboard(context.Background(), IndicatorFilter{})
	assert.Nil(t, got)
	assert.ErrorContains(t, err, "db is down")
}

func TestPartnerDashboard_RanksAndFilters(t *testing.T) {
	st := new(MockDashboardStorage)

	reported := now.AddDate(0, 0, -5)
	st.On("GetContracts", mock.Anything, storage.ContractFilter{}).Return([]*storage.Contract{
		{ID: 1, PartnerID: 10, ContractNumber: "C-1"},
		{ID: 2, PartnerID: 20, ContractNumber: "C-2"},
		{ID: 3, PartnerID: 30, ContractNumber: "C-3"},
	}, nil)
	st.On("GetAllMilestones", mock.Anything).Return([]storage.Milestone{
		ms(1, 40, constants.MilestoneInProgress, constants.HealthCritical),
		ms(1, 60, constants.MilestoneInProgress, constants.HealthAtRisk),
		ms(1, 90, constants.MilestoneCompleted, constants.HealthOnTrack),
		ms(2, 95, constants.MilestoneInProgress, constants.HealthOnTrack),
	}, nil)
	st.On("GetLatestReports", mock.Anything).Return([]storage.ProgressReport{
		{ContractID: 2, ReportingDate: reported},
	}, nil)

	svc := newTestService(st)

	all, err := svc.PartnerDashboard(context.Background(), PartnerFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, int64(2), all[0].ContractID)
	assert.Equal(t, 1, all[0].Rank)
	assert.Equal(t, constants.OverallGreen, all[0].OverallHealth)
	require.NotNil(t, all[0].LastReportDate)
	assert.True(t, all[0].LastReportDate.Equal(reported))

	assert.Equal(t, int64(1), all[1].ContractID)
	assert.Equal(t, 63.3, all[1].AchievementRate)
	assert.Equal(t, constants.OverallRed, all[1].OverallHealth)

	// контракт без вех: 0 и green, последнее место
	assert.Equal(t, int64(3), all[2].ContractID)
	assert.Equal(t, 0.0, all[2].AchievementRate)
	assert.Equal(t, constants.OverallGreen, all[2].OverallHealth)

	red, err := svc.PartnerDashboard(context.Background(), PartnerFilter{Health: constants.OverallRed})
	require.NoError(t, err)
	require.Len(t, red, 1)
	assert.Equal(t, int64(1), red[0].ContractID)
	assert.Equal(t, 2, red[0].Rank)
}

func TestPartnerDashboard_StatusFilterKeepsOverallRank(t *testing.T) {
	st := new(MockDashboardStorage)

	st.On("GetContracts", mock.Anything, storage.ContractFilter{}).Return([]*storage.Contract{
		{ID: 1, PartnerID: 10, Status: constants.ContractActive},
		{ID: 2, PartnerID: 20, Status: constants.ContractCompleted},
	}, nil)
	st.On("GetAllMilestones", mock.Anything).Return([]storage.Milestone{
		ms(1, 60, constants.MilestoneInProgress, constants.HealthAtRisk),
		ms(2, 95, constants.MilestoneCompleted, constants.HealthOnTrack),
	}, nil)
	st.On("GetLatestReports", mock.Anything).Return([]storage.ProgressReport{}, nil)

	got, err := newTestService(st).PartnerDashboard(context.Background(), PartnerFilter{ContractStatus: constants.ContractActive})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ContractID)
	assert.Equal(t, 2, got[0].Rank)
	st.AssertExpectations(t)
}

func TestPartnerDashboard_ContextCanceled(t *testing.T) {
	st := new(MockDashboardStorage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st.On("GetContracts", mock.Anything, mock.Anything).Return(nil, context.Canceled)
	st.On("GetAllMilestones", mock.Anything).Return(nil, context.Canceled)
	st.On("GetLatestReports", mock.Anything).Return(nil, context.Canceled)

	_, err := newTestService(st).PartnerDashboard(ctx, PartnerFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}
