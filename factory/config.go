/*
Package factory provides file to Go payroll configuration conversion.

PURPOSE:
  Converts JSON or YAML payroll settings into a payroll.Config. This lets
  HR change the working-day convention and the overtime multipliers without
  code changes.

SCHEMA (JSON, YAML uses the same keys):
  {
    "working_days_in_period": 30,
    "daily_hours": 8,
    "overtime_rates": {
      "weekday": 1.5,
      "weekend": 2,
      "holiday": 2
    }
  }

KEY FEATURES:
  - Every key is optional; missing keys take payroll.DefaultConfig values
  - Struct tags are checked with go-playground/validator
  - Validation failures come back as generic.InvalidParameterError, named
    after the offending key

USAGE:
  f := factory.NewConfigFactory()

  cfg, err := f.ParseJSON(data)
  cfg, err := f.LoadFile("payroll.yaml")

SEE ALSO:
  - payroll/config.go: Config type and defaults
  - cmd/server/main.go: -config flag
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// ConfigJSON is the file representation of payroll.Config.
type ConfigJSON struct {
	WorkingDaysInPeriod *int       `json:"working_days_in_period,omitempty" yaml:"working_days_in_period,omitempty" validate:"omitempty,min=1,max=31"`
	DailyHours          *float64   `json:"daily_hours,omitempty" yaml:"daily_hours,omitempty" validate:"omitempty,gt=0,lte=24"`
	Rates               *RatesJSON `json:"overtime_rates,omitempty" yaml:"overtime_rates,omitempty"`
}

// RatesJSON holds the overtime multipliers.
type RatesJSON struct {
	Weekday *float64 `json:"weekday,omitempty" yaml:"weekday,omitempty" validate:"omitempty,gt=0"`
	Weekend *float64 `json:"weekend,omitempty" yaml:"weekend,omitempty" validate:"omitempty,gt=0"`
	Holiday *float64 `json:"holiday,omitempty" yaml:"holiday,omitempty" validate:"omitempty,gt=0"`
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// ConfigFactory converts config files to payroll.Config.
type ConfigFactory struct {
	validate *validator.Validate
}

// NewConfigFactory creates a factory whose validation errors use the
// file's key names.
func NewConfigFactory() *ConfigFactory {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ConfigFactory{validate: v}
}

// ParseJSON parses a JSON document.
func (f *ConfigFactory) ParseJSON(data []byte) (payroll.Config, error) {
	var cj ConfigJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return payroll.Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// ParseYAML parses a YAML document.
func (f *ConfigFactory) ParseYAML(data []byte) (payroll.Config, error) {
	var cj ConfigJSON
	if err := yaml.Unmarshal(data, &cj); err != nil {
		return payroll.Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return f.FromJSON(cj)
}

// LoadFile reads a .json, .yaml or .yml file.
func (f *ConfigFactory) LoadFile(path string) (payroll.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return payroll.Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return f.ParseJSON(data)
	case ".yaml", ".yml":
		return f.ParseYAML(data)
	default:
		return payroll.Config{}, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// FromJSON validates cj and overlays it on payroll.DefaultConfig.
func (f *ConfigFactory) FromJSON(cj ConfigJSON) (payroll.Config, error) {
	if err := f.validate.Struct(cj); err != nil {
		return payroll.Config{}, toParameterError(err)
	}

	cfg := payroll.DefaultConfig()
	if cj.WorkingDaysInPeriod != nil {
		cfg.WorkingDaysInPeriod = *cj.WorkingDaysInPeriod
	}
	if cj.DailyHours != nil {
		cfg.DailyHours = decimal.NewFromFloat(*cj.DailyHours)
	}
	if r := cj.Rates; r != nil {
		if r.Weekday != nil {
			cfg.Rates.Weekday = decimal.NewFromFloat(*r.Weekday)
		}
		if r.Weekend != nil {
			cfg.Rates.Weekend = decimal.NewFromFloat(*r.Weekend)
		}
		if r.Holiday != nil {
			cfg.Rates.Holiday = decimal.NewFromFloat(*r.Holiday)
		}
	}

	if err := cfg.Validate(); err != nil {
		return payroll.Config{}, err
	}
	return cfg, nil
}

// ToJSON converts a Config back to its file representation.
func (f *ConfigFactory) ToJSON(cfg payroll.Config) ConfigJSON {
	days := cfg.WorkingDaysInPeriod
	daily := cfg.DailyHours.InexactFloat64()
	weekday := cfg.Rates.Weekday.InexactFloat64()
	weekend := cfg.Rates.Weekend.InexactFloat64()
	holiday := cfg.Rates.Holiday.InexactFloat64()
	return ConfigJSON{
		WorkingDaysInPeriod: &days,
		DailyHours:          &daily,
		Rates:               &RatesJSON{Weekday: &weekday, Weekend: &weekend, Holiday: &holiday},
	}
}

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

func toParameterError(err error) error {
	ve, ok := err.(validator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return err
	}
	fe := ve[0]
	return &generic.InvalidParameterError{Name: fieldPath(fe), Value: deref(fe.Value()), Reason: describe(fe)}
}

// fieldPath turns "ConfigJSON.overtime_rates.weekend" into "overtime_rates.weekend".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "failed validation for " + fe.Tag()
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return v
}
