package get

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mne-tracker/internal/constants"
	"mne-tracker/internal/service/dashboard"
)

type MockDashboardProvider struct {
	mock.Mock
}

func (m *MockDashboardProvider) IndicatorDashboard(ctx context.Context, filter dashboard.IndicatorFilter) ([]dashboard.IndicatorSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.IndicatorSummary), args.Error(1)
}

func (m *MockDashboardProvider) PartnerDashboard(ctx context.Context, filter dashboard.PartnerFilter) ([]dashboard.PartnerSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.PartnerSummary), args.Error(1)
}

func TestGetIndicatorDashboard_CodeFilter(t *testing.T) {
	provider := new(MockDashboardProvider)
	provider.On("IndicatorDashboard", mock.Anything, dashboard.IndicatorFilter{Codes: []string{"EDU-01", "HLT-02"}}).
		Return([]dashboard.IndicatorSummary{{IndicatorID: 1, IndicatorCode: "EDU-01", AverageAchievement: 53.8}}, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/indicators?code=EDU-01,%20HLT-02,", nil)

	GetIndicatorDashboard(slog.Default(), provider).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, 53.8, resp[0]["average_achievement"])
	assert.Equal(t, float64(1), resp[0]["indicator_id"])

	provider.AssertExpectations(t)
}

func TestGetIndicatorDashboard_NoFilter(t *testing.T) {
	provider := new(MockDashboardProvider)
	provider.On("IndicatorDashboard", mock.Anything, dashboard.IndicatorFilter{}).Return([]dashboard.IndicatorSummary{}, nil)

	rr := httptest.NewRecorder()
	GetIndicatorDashboard(slog.Default(), provider).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard/indicators", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestGetPartnerDashboard(t *testing.T) {
	provider := new(MockDashboardProvider)
	provider.On("PartnerDashboard", mock.Anything, dashboard.PartnerFilter{Health: constants.OverallRed, ContractStatus: constants.ContractActive}).
		Return([]dashboard.PartnerSummary{{PartnerID: 10, ContractID: 1, AchievementRate: 63.3, OverallHealth: "red", Rank: 2}}, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/partners?health=RED&status=active", nil)

	GetPartnerDashboard(slog.Default(), provider).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp []dashboard.PartnerSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, 2, resp[0].Rank)
	assert.Equal(t, 63.3, resp[0].AchievementRate)
}

func TestGetPartnerDashboard_InvalidFilters(t *testing.T) {
	for _, url := range []string{
		"/api/dashboard/partners?health=blue",
		"/api/dashboard/partners?status=archived",
	} {
		provider := new(MockDashboardProvider)
		rr := httptest.NewRecorder()

		GetPartnerDashboard(slog.Default(), provider).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code, url)
		provider.AssertNotCalled(t, "PartnerDashboard", mock.Anything, mock.Anything)
	}
}

func TestGetPartnerDashboard_Error(t *testing.T) {
	provider := new(MockDashboardProvider)
	provider.On("PartnerDashboard", mock.Anything, dashboard.PartnerFilter{}).Return(nil, errors.New("timeout"))

	rr := httptest.NewRecorder()
	GetPartnerDashboard(slog.Default(), provider).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard/partners", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
