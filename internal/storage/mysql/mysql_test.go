package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mne-tracker/internal/constants"
	"mne-tracker/internal/rules"
	"mne-tracker/internal/storage"
)

var testDB *sql.DB

// MNE_TEST_DSN например: root:@tcp(localhost:3306)/mne_test
func TestMain(m *testing.M) {
	dsn := os.Getenv("MNE_TEST_DSN")
	if dsn == "" {
		fmt.Println("MNE_TEST_DSN не задан, интеграционные тесты mysql пропущены")
		os.Exit(0)
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		panic(fmt.Errorf("неверный MNE_TEST_DSN: %w", err))
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	cfg.ClientFoundRows = true
	cfg.Loc = time.UTC

	// Подключаемся к тестовой БД
	testDB, err = sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		panic(fmt.Errorf("не удалось подключиться к тестовой БД: %w", err))
	}

	if err := testDB.Ping(); err != nil {
		panic(fmt.Errorf("ping failed: %w", err))
	}

	schema, err := os.ReadFile("testdata/schema.sql")
	if err != nil {
		panic(err)
	}
	if _, err := testDB.Exec(string(schema)); err != nil {
		panic(fmt.Errorf("не удалось применить схему: %w", err))
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

const enrollmentRules = `[
	{"condition": "< 50", "description_en": "low", "mode": "set", "value": 80},
	{"condition": "50-80", "description_en": "mid", "mode": "set", "value": 90},
	{"condition": {"kind": "greater_or_equal", "value": 80}, "description_en": "high", "mode": "additive", "value": 5}
]`

func createIndicator(t *testing.T, s *Storage, code string) *storage.Indicator {
	t.Helper()

	_, err := s.CreateIndicatorAdmin(context.Background(), storage.IndicatorAdmin{
		Code:               code,
		NameKM:             "អត្រាចុះឈ្មោះ",
		NameEN:             "Enrollment rate",
		BaselinePercentage: 30,
		TargetPercentage:   85,
		Rules:              enrollmentRules,
		IsActive:           true,
	})
	require.NoError(t, err)

	ind, err := s.GetIndicatorByCode(context.Background(), code)
	require.NoError(t, err)
	return ind
}

func TestIndicators(t *testing.T) {
	s := NewWithDB(testDB)
	ctx := context.Background()

	ind := createIndicator(t, s, "IT-EDU-01")
	require.Len(t, ind.CalculationRules, 3)
	assert.Equal(t, rules.Less(50), ind.CalculationRules[0].Condition)
	assert.Equal(t, rules.Range(50, 80), ind.CalculationRules[1].Condition)
	assert.Equal(t, rules.AtLeast(80), ind.CalculationRules[2].Condition)

	_, err := s.CreateIndicatorAdmin(ctx, storage.IndicatorAdmin{Code: "IT-EDU-01", Rules: enrollmentRules})
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = s.GetIndicatorByCode(ctx, "IT-MISSING")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.UpdateIndicatorAdmin(ctx, "IT-EDU-01", storage.IndicatorAdmin{
		NameKM:             ind.NameKM,
		NameEN:             "Net enrollment rate",
		BaselinePercentage: 30,
		TargetPercentage:   88,
		Rules:              enrollmentRules,
		IsActive:           false,
	})
	require.NoError(t, err)

	// выключенный индикатор не виден по коду, но доступен по id
	_, err = s.GetIndicatorByCode(ctx, "IT-EDU-01")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	byID, err := s.GetIndicatorByID(ctx, ind.ID)
	require.NoError(t, err)
	assert.Equal(t, 88.0, byID.TargetPercentage)

	err = s.UpdateIndicatorAdmin(ctx, "IT-MISSING", storage.IndicatorAdmin{Rules: enrollmentRules})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestContractLifecycle(t *testing.T) {
	s := NewWithDB(testDB)
	ctx := context.Background()

	ind := createIndicator(t, s, "IT-EDU-02")

	contractID, err := s.CreateContract(ctx, storage.Contract{
		ContractNumber: "IT-C-001",
		PartnerID:      7,
		PartnerNameKM:  "ដៃគូ",
		PartnerNameEN:  "Partner",
		Status:         constants.ContractDraft,
		CreatedBy:      "tester",
	})
	require.NoError(t, err)

	_, err = s.CreateContract(ctx, storage.Contract{ContractNumber: "IT-C-001", Status: constants.ContractDraft})
	assert.ErrorIs(t, err, storage.ErrConflict)

	err = s.SaveContractIndicators(ctx, contractID, []storage.ContractIndicator{
		{IndicatorID: ind.ID, BaselinePercentage: 30, TargetPercentage: 80, CalculatedTarget: 80, SelectedRule: 1},
	})
	require.NoError(t, err)

	// повторное сохранение заменяет набор, а не дублирует
	err = s.SaveContractIndicators(ctx, contractID, []storage.ContractIndicator{
		{IndicatorID: ind.ID, BaselinePercentage: 60, TargetPercentage: 92, CalculatedTarget: 90, IsCustomTarget: true, SelectedRule: 2},
	})
	require.NoError(t, err)

	c, err := s.GetContractByID(ctx, contractID)
	require.NoError(t, err)
	assert.Nil(t, c.SignedAt)
	require.Len(t, c.Indicators, 1)
	assert.Equal(t, "IT-EDU-02", c.Indicators[0].IndicatorCode)
	assert.Equal(t, 2, c.Indicators[0].SelectedRule)
	assert.True(t, c.Indicators[0].IsCustomTarget)

	signedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateContractStatus(ctx, contractID, constants.ContractSigned, &signedAt))

	signed, err := s.GetContracts(ctx, storage.ContractFilter{Status: constants.ContractSigned})
	require.NoError(t, err)
	found := false
	for _, sc := range signed {
		if sc.ID == contractID {
			found = true
			require.NotNil(t, sc.SignedAt)
			assert.True(t, sc.SignedAt.Equal(signedAt))
		}
	}
	assert.True(t, found)

	assert.ErrorIs(t, s.UpdateContractStatus(ctx, 999999, constants.ContractSigned, nil), storage.ErrNotFound)

	_, err = s.GetContractByID(ctx, 999999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	msID, err := s.CreateMilestone(ctx, storage.Milestone{
		ContractID:       contractID,
		IndicatorID:      ind.ID,
		TitleKM:          "ដំណាក់កាលទី១",
		TitleEN:          "Phase 1",
		PlannedStartDate: signedAt,
		PlannedEndDate:   signedAt.AddDate(0, 6, 0),
		BaselineValue:    60,
		TargetValue:      92,
		OverallStatus:    constants.MilestoneNotStarted,
		HealthIndicator:  constants.HealthOnTrack,
	})
	require.NoError(t, err)

	reportDate := signedAt.AddDate(0, 2, 0)
	_, err = s.SaveProgressReport(ctx,
		storage.ProgressReport{ContractID: contractID, MilestoneID: msID, ReportingDate: reportDate, ActualValue: 76},
		storage.MilestoneProgress{
			MilestoneID:           msID,
			AchievementPercentage: 50,
			OverallStatus:         constants.MilestoneInProgress,
			HealthIndicator:       constants.HealthAtRisk,
			ActualStartDate:       &reportDate,
		},
	)
	require.NoError(t, err)

	m, err := s.GetMilestoneByID(ctx, msID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, m.AchievementPercentage)
	assert.Equal(t, constants.MilestoneInProgress, m.OverallStatus)
	require.NotNil(t, m.ActualStartDate)
	assert.Nil(t, m.ActualEndDate)

	byContract, err := s.GetMilestonesByContract(ctx, contractID)
	require.NoError(t, err)
	assert.Len(t, byContract, 1)

	latest, err := s.GetLatestReports(ctx)
	require.NoError(t, err)
	var last *storage.ProgressReport
	for i := range latest {
		if latest[i].ContractID == contractID {
			last = &latest[i]
		}
	}
	require.NotNil(t, last)
	assert.True(t, last.ReportingDate.Equal(reportDate))

	_, err = s.SaveProgressReport(ctx,
		storage.ProgressReport{ContractID: contractID, MilestoneID: msID, ReportingDate: reportDate},
		storage.MilestoneProgress{MilestoneID: 999999},
	)
	assert.Error(t, err)
}

func TestContentTexts(t *testing.T) {
	s := NewWithDB(testDB)
	ctx := context.Background()

	require.NoError(t, s.UpsertContentText(ctx, storage.ContentText{Key: "it.title", TextKM: "ចំណងជើង", TextEN: "Title"}))
	require.NoError(t, s.UpsertContentText(ctx, storage.ContentText{Key: "it.title", TextKM: "ចំណងជើង", TextEN: "Dashboard"}))
	require.NoError(t, s.UpsertContentText(ctx, storage.ContentText{Key: "it.footer", TextKM: "បាតកថា", TextEN: "Footer"}))

	texts, err := s.GetContentTexts(ctx, []string{"it.title"})
	require.NoError(t, err)
	require.Len(t, texts, 1)
	assert.Equal(t, "Dashboard", texts[0].TextEN)

	all, err := s.GetContentTexts(ctx, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 2)
}
