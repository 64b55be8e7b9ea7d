/**
 * @description
 * This file defines the core domain models for the ledger-service. These structs
 * represent the main entities used throughout the service's business logic,
 * storage layer, and API layers.
 *
 * @notes
 * - Balances and transfer amounts are stored as `int64` whole ATC units, which
 *   avoids floating-point inaccuracies with financial data.
 * - The account number is a 9-digit numeral string and doubles as the public
 *   routing address for transfers; it is assigned once and never reused.
 */

package domain

import (
	"strconv"
	"time"
)

// StartingGrantDefault is the balance credited to every newly created account.
const StartingGrantDefault int64 = 1000

// Account represents one user's identity and ATC balance.
type Account struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	DateOfBirth DateOfBirth `json:"dob"`
	Avatar      string      `json:"avatar,omitempty"`
	Balance     int64       `json:"balance"`
	Registered  bool        `json:"registered"`
	CreatedAt   time.Time   `json:"created_at"`
}

// PublicProfile is the subset of an account that may be shown to a
// counterparty. The email is deliberately excluded.
type PublicProfile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	Registered bool   `json:"registered"`
}

// Public returns the counterparty-visible view of the account.
func (a *Account) Public() PublicProfile {
	return PublicProfile{
		ID:         a.ID,
		Name:       a.Name,
		Avatar:     a.Avatar,
		Registered: a.Registered,
	}
}

// DateOfBirth holds the three free-text fields captured during profile setup.
// Each field is validated only for numeric range at entry time; combinations
// such as February 30th are intentionally not rejected.
type DateOfBirth struct {
	Day   string `json:"day"`
	Month string `json:"month"`
	Year  string `json:"year"`
}

// InRange reports whether every field parses to a number inside its allowed
// range (day 1-31, month 1-12, year 1900 through the current year).
func (d DateOfBirth) InRange(now time.Time) bool {
	day, err := strconv.Atoi(d.Day)
	if err != nil || day < 1 || day > 31 {
		return false
	}
	month, err := strconv.Atoi(d.Month)
	if err != nil || month < 1 || month > 12 {
		return false
	}
	year, err := strconv.Atoi(d.Year)
	if err != nil || year < 1900 || year > now.Year() {
		return false
	}
	return true
}
