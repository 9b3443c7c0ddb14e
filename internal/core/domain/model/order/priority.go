package order

import (
	"fmt"
	"strings"

	"tms/internal/pkg/errs"
)

// Priority is the urgency of a transport order. A higher weight is more urgent.
type Priority int

const (
	Lowest  Priority = 1
	Low     Priority = 2
	Normal  Priority = 3
	High    Priority = 4
	Highest Priority = 5
)

// DefaultPriority applies when a client does not ask for one.
const DefaultPriority = Normal

func getPriorityStrings() map[Priority]string {
	return map[Priority]string{
		Lowest:  "LOWEST",
		Low:     "LOW",
		Normal:  "NORMAL",
		High:    "HIGH",
		Highest: "HIGHEST",
	}
}

// ParsePriority maps a priority name to its level. An empty string yields the
// default priority, an unknown name is a validation error.
func ParsePriority(s string) (Priority, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return DefaultPriority, nil
	}
	for p, str := range getPriorityStrings() {
		if str == name {
			return p, nil
		}
	}
	return 0, errs.NewValueIsInvalidErrorWithCause("priority", fmt.Errorf("%q is not a priority level", s))
}

// Weight returns the numeric weight used for comparison.
func (p Priority) Weight() int {
	return int(p)
}

func (p Priority) String() string {
	if str, ok := getPriorityStrings()[p]; ok {
		return str
	}
	return "UNKNOWN"
}

func (p Priority) Validate() error {
	if _, ok := getPriorityStrings()[p]; !ok {
		return errs.NewValueIsOutOfRangeError("priority", int(p), int(Lowest), int(Highest))
	}
	return nil
}
