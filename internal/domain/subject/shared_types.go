// internal/domain/subject/shared_types.go
package subject

import (
	"fmt"
	"strings"
)

// Kind identifies which type of subject a reminder concerns.
type Kind string

const (
	KindDomain  Kind = "DOMAIN"
	KindHosting Kind = "HOSTING"
)

// Valid reports whether k is one of the known subject kinds.
func (k Kind) Valid() bool {
	return k == KindDomain || k == KindHosting
}

// BillingPeriod is how long a single payment keeps the subject active.
// Domains use year counts, hosting uses payment types.
type BillingPeriod string

const (
	PeriodOneYear    BillingPeriod = "1 year"
	PeriodTwoYears   BillingPeriod = "2 years"
	PeriodThreeYears BillingPeriod = "3 years"

	PeriodMonthly  BillingPeriod = "Monthly"
	PeriodAnnual   BillingPeriod = "Annual"
	PeriodBiennial BillingPeriod = "Biennial"
)

// DomainPeriods lists the billing periods accepted for domains.
var DomainPeriods = []BillingPeriod{PeriodOneYear, PeriodTwoYears, PeriodThreeYears}

// HostingPeriods lists the payment types accepted for hosting.
var HostingPeriods = []BillingPeriod{PeriodMonthly, PeriodAnnual, PeriodBiennial}

// ValidFor reports whether p is a recognized period for the given kind.
func (p BillingPeriod) ValidFor(kind Kind) bool {
	var known []BillingPeriod
	switch kind {
	case KindDomain:
		known = DomainPeriods
	case KindHosting:
		known = HostingPeriods
	}
	for _, candidate := range known {
		if p == candidate {
			return true
		}
	}
	return false
}

// ErrUnknownKind and ErrUnknownPeriod are wrapped by the Parse functions.
var (
	ErrUnknownKind   = fmt.Errorf("unknown subject kind")
	ErrUnknownPeriod = fmt.Errorf("unknown billing period")
)

// ParseKind accepts "domain" or "hosting" in any case.
func ParseKind(value string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(value)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, value)
	}
	return k, nil
}

// ParseDomainPeriod matches value against DomainPeriods, ignoring case.
func ParseDomainPeriod(value string) (BillingPeriod, error) {
	return parsePeriod(value, DomainPeriods)
}

// ParseHostingPeriod matches value against HostingPeriods, ignoring case.
func ParseHostingPeriod(value string) (BillingPeriod, error) {
	return parsePeriod(value, HostingPeriods)
}

func parsePeriod(value string, known []BillingPeriod) (BillingPeriod, error) {
	value = strings.TrimSpace(value)
	for _, p := range known {
		if strings.EqualFold(value, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, value)
}
