/*
Package generic provides the domain-agnostic primitives of the payroll engine.

PURPOSE:
  Attendance, payroll and storage packages all speak in the same small set
  of types: quantities with a unit, calendar days, inclusive periods and a
  shared error vocabulary. Keeping them here lets the domain packages stay
  free of each other.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 4 hours of overtime)
  - EmployeeID / PaymentID / RecordID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, money and hours never touch float64
  2. Type Safety: Strong typing for IDs prevents mixing employee/payment IDs
  3. Values: Every type here is an immutable value, safe to share

USAGE:
  hours := generic.NewAmountFromDecimal(decimal.RequireFromString("3"), generic.UnitHours)
  total := hours.Add(generic.NewAmountFromInt(2, generic.UnitHours))

SEE ALSO:
  - time.go: TimePoint (calendar day)
  - period.go: Period and the month resolver
  - errors.go: Centralized error types
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

// UnitHours is the only unit attendance totals use.
const UnitHours Unit = "hours"

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

func NewAmountFromDecimal(value decimal.Decimal, unit Unit) Amount {
	return Amount{Value: value, Unit: unit}
}

// Add keeps the receiver's unit.
func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) IsNegative() bool    { return a.Value.IsNegative() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type PaymentID string
type RecordID string
