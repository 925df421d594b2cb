package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/entity"
	"marketplace-backend/internal/scope"
)

func subAdmin(grants ...entity.ScopeGrant) entity.Operator {
	return entity.Operator{ID: 7, Role: entity.RoleSubAdmin, Grants: grants}
}

func ordersReadGrant(geo *entity.GeoScope) entity.ScopeGrant {
	return entity.ScopeGrant{Resource: "orders", Actions: []string{"read", "update"}, Scope: geo}
}

func TestBuildPredicate_AdminIsGlobal(t *testing.T) {
	decision := scope.BuildPredicate(entity.Operator{Role: entity.RoleAdmin}, "orders", []string{"read"})
	assert.Equal(t, scope.Global, decision.Effect)
}

func TestBuildPredicate_NoMatchingGrantDenies(t *testing.T) {
	op := subAdmin(entity.ScopeGrant{Resource: "products", Actions: []string{"read"}})
	decision := scope.BuildPredicate(op, "orders", []string{"read"})
	assert.Equal(t, scope.Deny, decision.Effect)

	op = subAdmin(entity.ScopeGrant{Resource: "orders", Actions: []string{"delete"}})
	decision = scope.BuildPredicate(op, "orders", []string{"read"})
	assert.Equal(t, scope.Deny, decision.Effect)
}

func TestBuildPredicate_ScopelessGrantIsGlobalDespiteProfile(t *testing.T) {
	op := subAdmin(ordersReadGrant(nil))
	op.ProfileGeo = &entity.GeoScope{Cities: []string{"Abuja"}}

	decision := scope.BuildPredicate(op, "orders", []string{"read"})
	assert.Equal(t, scope.Global, decision.Effect)
}

func TestBuildPredicate_CityScope(t *testing.T) {
	op := subAdmin(ordersReadGrant(&entity.GeoScope{Cities: []string{"Lagos"}}))

	decision := scope.BuildPredicate(op, "orders", []string{"read"})
	require.Equal(t, scope.Restricted, decision.Effect)

	assert.True(t, scope.Eval(decision.Pred, map[string]string{scope.FieldCity: "Lagos"}))
	assert.True(t, scope.Eval(decision.Pred, map[string]string{scope.FieldCity: "lagos"}), "matching is case-insensitive")
	assert.False(t, scope.Eval(decision.Pred, map[string]string{scope.FieldCity: "Ibadan"}))
}

func TestBuildPredicate_OrderWithoutLocationNeverMatches(t *testing.T) {
	op := subAdmin(ordersReadGrant(&entity.GeoScope{Cities: []string{"Lagos"}}))
	decision := scope.BuildPredicate(op, "orders", []string{"read"})
	require.Equal(t, scope.Restricted, decision.Effect)

	assert.False(t, scope.Eval(decision.Pred, map[string]string{}))
}

func TestBuildPredicate_GrantsWidenProfileNarrows(t *testing.T) {
	op := subAdmin(
		ordersReadGrant(&entity.GeoScope{Cities: []string{"Lagos"}}),
		ordersReadGrant(&entity.GeoScope{Cities: []string{"Kano"}}),
	)
	op.ProfileGeo = &entity.GeoScope{Countries: []string{"Nigeria"}}

	decision := scope.BuildPredicate(op, "orders", []string{"read"})
	require.Equal(t, scope.Restricted, decision.Effect)

	assert.True(t, scope.Eval(decision.Pred, map[string]string{
		scope.FieldCity: "Lagos", scope.FieldCountry: "Nigeria",
	}))
	assert.True(t, scope.Eval(decision.Pred, map[string]string{
		scope.FieldCity: "Kano", scope.FieldCountry: "Nigeria",
	}))
	// Profile geography ANDs on top: a granted city outside the profile
	// country is still out of reach.
	assert.False(t, scope.Eval(decision.Pred, map[string]string{
		scope.FieldCity: "Lagos", scope.FieldCountry: "Ghana",
	}))
}

func TestBuildPredicate_GrantConstraintIsConjunction(t *testing.T) {
	op := subAdmin(ordersReadGrant(&entity.GeoScope{
		Cities: []string{"Lagos"}, States: []string{"Lagos State"},
	}))
	decision := scope.BuildPredicate(op, "orders", []string{"read"})
	require.Equal(t, scope.Restricted, decision.Effect)

	assert.True(t, scope.Eval(decision.Pred, map[string]string{
		scope.FieldCity: "Lagos", scope.FieldState: "Lagos State",
	}))
	assert.False(t, scope.Eval(decision.Pred, map[string]string{
		scope.FieldCity: "Lagos", scope.FieldState: "Oyo",
	}))
}

func TestCompileSQL(t *testing.T) {
	columns := map[string]string{
		scope.FieldCity:    "shipping_city",
		scope.FieldState:   "shipping_state",
		scope.FieldCountry: "shipping_country",
	}

	op := subAdmin(ordersReadGrant(&entity.GeoScope{Cities: []string{"Lagos", "Kano"}}))
	op.ProfileGeo = &entity.GeoScope{Countries: []string{"Nigeria"}}
	decision := scope.BuildPredicate(op, "orders", []string{"read"})
	require.Equal(t, scope.Restricted, decision.Effect)

	where, args := scope.CompileSQL(decision.Pred, columns)

	assert.Equal(t, "(LOWER(shipping_city) IN (?,?) AND LOWER(shipping_country) IN (?))", where)
	assert.Equal(t, []interface{}{"lagos", "kano", "nigeria"}, args)
}

func TestCompileSQL_UnknownFieldMatchesNothing(t *testing.T) {
	where, args := scope.CompileSQL(scope.FieldIn{Field: "zip", Values: []string{"100"}}, map[string]string{})
	assert.Equal(t, "1=0", where)
	assert.Nil(t, args)
}
