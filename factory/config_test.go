package factory_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "expected %s, got %s", want, got)
}

func TestParseJSON_Full(t *testing.T) {
	f := factory.NewConfigFactory()

	cfg, err := f.ParseJSON([]byte(`{
		"working_days_in_period": 22,
		"daily_hours": 7.5,
		"overtime_rates": {"weekday": 1.25, "weekend": 1.75, "holiday": 2.5}
	}`))

	require.NoError(t, err)
	assert.Equal(t, 22, cfg.WorkingDaysInPeriod)
	assertDecimal(t, "7.5", cfg.DailyHours)
	assertDecimal(t, "1.25", cfg.Rates.Weekday)
	assertDecimal(t, "1.75", cfg.Rates.Weekend)
	assertDecimal(t, "2.5", cfg.Rates.Holiday)
}

func TestParseJSON_MissingKeysTakeDefaults(t *testing.T) {
	f := factory.NewConfigFactory()

	cfg, err := f.ParseJSON([]byte(`{"overtime_rates": {"holiday": 3}}`))

	require.NoError(t, err)
	defaults := payroll.DefaultConfig()
	assert.Equal(t, defaults.WorkingDaysInPeriod, cfg.WorkingDaysInPeriod)
	assert.True(t, defaults.DailyHours.Equal(cfg.DailyHours))
	assert.True(t, defaults.Rates.Weekday.Equal(cfg.Rates.Weekday))
	assertDecimal(t, "3", cfg.Rates.Holiday)
}

func TestParseJSON_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		param string
	}{
		{"zero working days", `{"working_days_in_period": 0}`, "working_days_in_period"},
		{"too many working days", `{"working_days_in_period": 40}`, "working_days_in_period"},
		{"negative hours", `{"daily_hours": -8}`, "daily_hours"},
		{"zero weekend rate", `{"overtime_rates": {"weekend": 0}}`, "overtime_rates.weekend"},
	}

	f := factory.NewConfigFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseJSON([]byte(tt.doc))

			require.Error(t, err)
			var ipe *generic.InvalidParameterError
			require.True(t, errors.As(err, &ipe), "got %v", err)
			assert.Equal(t, tt.param, ipe.Name)
		})
	}
}

func TestParseJSON_Malformed(t *testing.T) {
	_, err := factory.NewConfigFactory().ParseJSON([]byte(`{"daily_hours": `))

	require.Error(t, err)
	assert.False(t, errors.Is(err, generic.ErrInvalidParameter))
}

func TestParseYAML(t *testing.T) {
	cfg, err := factory.NewConfigFactory().ParseYAML([]byte(`
working_days_in_period: 26
overtime_rates:
  weekday: 1.5
  weekend: 2
`))

	require.NoError(t, err)
	assert.Equal(t, 26, cfg.WorkingDaysInPeriod)
	assertDecimal(t, "8", cfg.DailyHours)
	assertDecimal(t, "2", cfg.Rates.Weekend)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	f := factory.NewConfigFactory()

	yamlPath := filepath.Join(dir, "payroll.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("daily_hours: 6\n"), 0o600))
	cfg, err := f.LoadFile(yamlPath)
	require.NoError(t, err)
	assertDecimal(t, "6", cfg.DailyHours)

	jsonPath := filepath.Join(dir, "payroll.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"daily_hours": 9}`), 0o600))
	cfg, err = f.LoadFile(jsonPath)
	require.NoError(t, err)
	assertDecimal(t, "9", cfg.DailyHours)

	_, err = f.LoadFile(filepath.Join(dir, "payroll.toml"))
	assert.Error(t, err)
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewConfigFactory()
	cfg := payroll.DefaultConfig()
	cfg.WorkingDaysInPeriod = 21

	back, err := f.FromJSON(f.ToJSON(cfg))

	require.NoError(t, err)
	assert.Equal(t, 21, back.WorkingDaysInPeriod)
	assert.True(t, cfg.Rates.Weekday.Equal(back.Rates.Weekday))
}
