package subsector

import (
	"fmt"
	"strings"
)

// Kind selects how a subsector competes for market share.
type Kind int

const (
	// KindStandard competes through the logit share function and may also
	// carry fixed output.
	KindStandard Kind = iota
	// KindFixed produces only its fixed output and never competes.
	KindFixed
)

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindFixed:
		return "fixed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a configuration value to a Kind. An empty value is
// KindStandard.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "standard":
		return KindStandard, nil
	case "fixed":
		return KindFixed, nil
	default:
		return KindStandard, fmt.Errorf("unknown subsector kind %q (valid: standard, fixed)", value)
	}
}
