package kernel

import (
	"errors"
	"fmt"
	"strings"

	"tms/internal/pkg/errs"
	"tms/internal/pkg/guard"
)

const (
	// LocationPKSeparator separates the segments of a location coordinate.
	LocationPKSeparator = "/"

	locationPKSegments     = 5
	locationPKSegmentMin   = 1
	locationPKSegmentMax   = 4
	locationPKSegmentNames = "area,aisle,x,y,z"
)

var ErrLocationPKIsNotConstructed = errs.NewValueIsRequiredError(
	"location coordinate must be created via NewLocationPK or ParseLocationPK")

// LocationPK identifies a single addressable location by its coordinate,
// for example "EXT_/0000/0000/0000/0000".
type LocationPK struct { //nolint:recvcheck //using for validation
	area  string
	aisle string
	x     string
	y     string
	z     string
	guard guard.ConstructorGuard
}

// NewLocationPK builds a coordinate from its five segments. Each segment must
// hold between one and four characters and must not contain the separator.
func NewLocationPK(area, aisle, x, y, z string) (LocationPK, error) {
	names := strings.Split(locationPKSegmentNames, ",")
	segments := []string{area, aisle, x, y, z}

	validations := make([]error, 0, len(segments))
	for i, s := range segments {
		validations = append(validations, validateSegment(names[i], s))
	}
	if err := errors.Join(validations...); err != nil {
		return LocationPK{}, err
	}

	return LocationPK{
		area:  area,
		aisle: aisle,
		x:     x,
		y:     y,
		z:     z,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// ParseLocationPK parses the slash separated form of a coordinate.
func ParseLocationPK(s string) (LocationPK, error) {
	parts := strings.Split(strings.TrimSpace(s), LocationPKSeparator)
	if len(parts) != locationPKSegments {
		return LocationPK{}, errs.NewValueIsInvalidErrorWithCause(
			"location coordinate",
			fmt.Errorf("%q has %d segments, expected %d", s, len(parts), locationPKSegments),
		)
	}
	return NewLocationPK(parts[0], parts[1], parts[2], parts[3], parts[4])
}

// IsLocationPK reports whether s is a well-formed location coordinate.
func IsLocationPK(s string) bool {
	_, err := ParseLocationPK(s)
	return err == nil
}

func (l LocationPK) Validate() error {
	return l.guard.Validate(ErrLocationPKIsNotConstructed)
}

func (l LocationPK) Area() string  { return l.area }
func (l LocationPK) Aisle() string { return l.aisle }
func (l LocationPK) X() string     { return l.x }
func (l LocationPK) Y() string     { return l.y }
func (l LocationPK) Z() string     { return l.z }

func (l LocationPK) String() string {
	return strings.Join([]string{l.area, l.aisle, l.x, l.y, l.z}, LocationPKSeparator)
}

func (l LocationPK) IsEqual(other LocationPK) bool {
	return l.String() == other.String()
}

func validateSegment(name, s string) error {
	if s == "" {
		return errs.NewValueIsRequiredError(name)
	}
	if strings.Contains(s, LocationPKSeparator) {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%q contains %q", s, LocationPKSeparator))
	}
	if n := len(s); n < locationPKSegmentMin || n > locationPKSegmentMax {
		return errs.NewValueIsOutOfRangeError(name, n, locationPKSegmentMin, locationPKSegmentMax)
	}
	return nil
}
