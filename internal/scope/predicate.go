package scope

import (
	"strings"

	"marketplace-backend/internal/entity"
)

// Logical field names predicates are built over. The storage adapter maps them
// to its own columns when compiling.
const (
	FieldCity    = "city"
	FieldState   = "state"
	FieldCountry = "country"
)

// Predicate is a small algebra over geographic fields: FieldIn leaves combined
// with And/Or nodes. Storage adapters compile it to their native query form.
type Predicate interface {
	isPredicate()
}

type FieldIn struct {
	Field  string
	Values []string
}

type And struct {
	Preds []Predicate
}

type Or struct {
	Preds []Predicate
}

func (FieldIn) isPredicate() {}
func (And) isPredicate()     {}
func (Or) isPredicate()      {}

type Effect int

const (
	Deny Effect = iota
	Global
	Restricted
)

// Decision is the outcome of BuildPredicate. Callers must treat Deny as an
// empty result set and never run an unguarded query.
type Decision struct {
	Effect Effect
	Pred   Predicate
}

// BuildPredicate computes the data-access predicate for an operator wanting
// the given actions on a resource. Unrestricted admins are global. For
// everyone else: no matching grant denies, any matching grant without a scope
// is global (profile restrictions notwithstanding), otherwise the grants'
// geographic constraints OR together and the operator's profile geography
// narrows the result.
func BuildPredicate(op entity.Operator, resource string, actions []string) Decision {
	if op.Role == entity.RoleAdmin {
		return Decision{Effect: Global}
	}

	var constraints []Predicate
	matched := false
	for _, grant := range op.Grants {
		if grant.Resource != resource || !intersects(grant.Actions, actions) {
			continue
		}
		matched = true
		if grant.Scope.Empty() {
			return Decision{Effect: Global}
		}
		constraints = append(constraints, geoPredicate(grant.Scope))
	}
	if !matched {
		return Decision{Effect: Deny}
	}

	pred := Predicate(Or{Preds: constraints})
	if len(constraints) == 1 {
		pred = constraints[0]
	}
	if !op.ProfileGeo.Empty() {
		pred = And{Preds: []Predicate{pred, geoPredicate(op.ProfileGeo)}}
	}
	return Decision{Effect: Restricted, Pred: pred}
}

func geoPredicate(g *entity.GeoScope) Predicate {
	var parts []Predicate
	if len(g.Cities) > 0 {
		parts = append(parts, FieldIn{Field: FieldCity, Values: g.Cities})
	}
	if len(g.States) > 0 {
		parts = append(parts, FieldIn{Field: FieldState, Values: g.States})
	}
	if len(g.Countries) > 0 {
		parts = append(parts, FieldIn{Field: FieldCountry, Values: g.Countries})
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return And{Preds: parts}
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}

// Eval checks one record's geography against a predicate in memory. Matching
// is case-insensitive; a record with no geography at all never matches a
// restricted predicate.
func Eval(p Predicate, fields map[string]string) bool {
	switch node := p.(type) {
	case FieldIn:
		val := fields[node.Field]
		if val == "" {
			return false
		}
		for _, v := range node.Values {
			if strings.EqualFold(v, val) {
				return true
			}
		}
		return false
	case And:
		for _, sub := range node.Preds {
			if !Eval(sub, fields) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range node.Preds {
			if Eval(sub, fields) {
				return true
			}
		}
		return false
	}
	return false
}
