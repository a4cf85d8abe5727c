package domain

import "strings"

// VehicleClass is the closed set of vehicle categories the facility accepts.
// Each class has a fixed hourly billing rate.
type VehicleClass string

const (
	ClassTwoWheeler  VehicleClass = "two_wheeler"
	ClassFourWheeler VehicleClass = "four_wheeler"
	ClassHeavy       VehicleClass = "heavy"
)

// hourlyRates is the fixed per-class billing table, in whole currency
// units per hour.
var hourlyRates = map[VehicleClass]int{
	ClassTwoWheeler:  10,
	ClassFourWheeler: 20,
	ClassHeavy:       30,
}

// Valid reports whether c is one of the known vehicle classes.
func (c VehicleClass) Valid() bool {
	_, ok := hourlyRates[c]
	return ok
}

// HourlyRate returns the billing rate for the class. Unknown classes
// return 0; construction via NewVehicle rejects them before they can
// reach billing.
func (c VehicleClass) HourlyRate() int {
	return hourlyRates[c]
}

// Vehicle is an arriving or parked vehicle. Identity is the registration
// string alone: two records with the same registration are the same
// vehicle.
type Vehicle struct {
	Registration string
	Class        VehicleClass
	OwnerName    string
	Contact      string
}

// NewVehicle validates the registration and class and returns an
// immutable vehicle record. The stored registration is trimmed and
// upper-cased.
func NewVehicle(registration string, class VehicleClass) (Vehicle, error) {
	normalized, err := normalizeRegistration(registration)
	if err != nil {
		return Vehicle{}, err
	}
	if !class.Valid() {
		return Vehicle{}, &InvalidRegistrationError{
			Registration: normalized,
			Reason:       "unknown vehicle class " + string(class),
		}
	}
	return Vehicle{Registration: normalized, Class: class}, nil
}

// normalizeRegistration trims and upper-cases the registration and
// enforces the validation rules: non-empty, and at least 6 alphanumeric
// characters once whitespace is removed.
func normalizeRegistration(registration string) (string, error) {
	trimmed := strings.TrimSpace(registration)
	if trimmed == "" {
		return "", &InvalidRegistrationError{
			Registration: registration,
			Reason:       "registration cannot be empty",
		}
	}

	alnum := 0
	for _, r := range trimmed {
		if isAlnum(r) {
			alnum++
		}
	}
	if alnum == 0 {
		return "", &InvalidRegistrationError{
			Registration: trimmed,
			Reason:       "registration must contain alphanumeric characters",
		}
	}
	if alnum < 6 {
		return "", &InvalidRegistrationError{
			Registration: trimmed,
			Reason:       "registration must have at least 6 alphanumeric characters",
		}
	}

	return strings.ToUpper(trimmed), nil
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
