package domain

import (
	"testing"
	"time"
)

func TestDateOfBirthInRange(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		dob  DateOfBirth
		want bool
	}{
		{"valid", DateOfBirth{Day: "10", Month: "12", Year: "1990"}, true},
		{"boundary low", DateOfBirth{Day: "1", Month: "1", Year: "1900"}, true},
		{"boundary high", DateOfBirth{Day: "31", Month: "12", Year: "2026"}, true},
		{"day zero", DateOfBirth{Day: "0", Month: "12", Year: "1990"}, false},
		{"day too large", DateOfBirth{Day: "32", Month: "12", Year: "1990"}, false},
		{"month too large", DateOfBirth{Day: "10", Month: "13", Year: "1990"}, false},
		{"year before 1900", DateOfBirth{Day: "10", Month: "12", Year: "1899"}, false},
		{"year in future", DateOfBirth{Day: "10", Month: "12", Year: "2027"}, false},
		{"non numeric", DateOfBirth{Day: "ten", Month: "12", Year: "1990"}, false},
		{"empty", DateOfBirth{}, false},
		// Per-field ranges only; impossible calendar dates pass.
		{"february 30th", DateOfBirth{Day: "30", Month: "2", Year: "1990"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.dob.InRange(now); got != tc.want {
				t.Errorf("InRange(%+v) = %t, want %t", tc.dob, got, tc.want)
			}
		})
	}
}

func TestPublicProfileOmitsEmailAndBalance(t *testing.T) {
	account := Account{
		ID:         "123456789",
		Email:      "ada@example.com",
		Name:       "Ada",
		Avatar:     "data:ada",
		Balance:    1000,
		Registered: true,
	}
	profile := account.Public()
	if profile.ID != account.ID || profile.Name != account.Name || profile.Avatar != account.Avatar || !profile.Registered {
		t.Errorf("public profile wrong: %+v", profile)
	}
}
