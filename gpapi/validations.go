package gpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/globalpay-sdk/paymethods"
)

// validations maps an operation kind to an ordered list of field checks.
// Rules are registered once at builder construction through the
// of(...).check(...).isNotNull()/.isNull() chain and evaluated once per
// Execute; a kind with no registered rules is vacuously valid.
//
// Checks are explicit (field name, accessor, predicate) tuples: the accessor
// closes over the builder's field, so no name-based lookup happens at
// execution time.
type validations struct {
	groups []*validationGroup
}

type validationGroup struct {
	set   *validations
	kind  string
	rules []*fieldRule
}

type fieldRule struct {
	field    string
	value    func() any
	required bool
}

type fieldClause struct {
	group *validationGroup
	rule  *fieldRule
}

func newValidations() *validations {
	return &validations{}
}

// of begins (or reopens) the rule group for an operation kind.
func (v *validations) of(kind string) *validationGroup {
	for _, g := range v.groups {
		if g.kind == kind {
			return g
		}
	}
	g := &validationGroup{set: v, kind: kind}
	v.groups = append(v.groups, g)
	return g
}

// check registers a field accessor to be constrained by the next predicate.
func (g *validationGroup) check(field string, value func() any) *fieldClause {
	r := &fieldRule{field: field, value: value}
	g.rules = append(g.rules, r)
	return &fieldClause{group: g, rule: r}
}

// isNotNull requires the field to be set.
func (c *fieldClause) isNotNull() *validationGroup {
	c.rule.required = true
	return c.group
}

// isNull requires the field to be absent.
func (c *fieldClause) isNull() *validationGroup {
	c.rule.required = false
	return c.group
}

// validate evaluates the rules registered for kind in registration order and
// returns the first violation, naming the field and the violated condition.
func (v *validations) validate(kind string) error {
	for _, g := range v.groups {
		if g.kind != kind {
			continue
		}
		for _, r := range g.rules {
			empty := isEmptyValue(r.value())
			if r.required && empty {
				return NewValidationError(r.field, "cannot be null for this transaction type")
			}
			if !r.required && !empty {
				return NewValidationError(r.field, "must be null for this transaction type")
			}
		}
	}
	return nil
}

// isEmptyValue treats nil, empty strings and nil pointers as unset. The
// accessors registered by the builders only produce the types listed here.
func isEmptyValue(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case *string:
		return value == nil || *value == ""
	case *decimal.Decimal:
		return value == nil
	case *time.Time:
		return value == nil
	case *paymethods.PaymentMethod:
		return value == nil
	default:
		return false
	}
}
