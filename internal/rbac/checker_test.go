package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)

	assert.True(t, c.Has("student", "study:answer"))
	assert.True(t, c.Has("student", "study:reset-own"))
	assert.False(t, c.Has("student", "study:reset-any"))
	assert.False(t, c.Has("student", "catalog:edit"))

	assert.True(t, c.Has("teacher", "catalog:import"))
	assert.True(t, c.Has("teacher", "study:view-all"))
	assert.False(t, c.Has("teacher", "study:answer"))

	// wildcard admin
	assert.True(t, c.Has("admin", "catalog:edit"))
	assert.True(t, c.Has("admin", "anything:at-all"))

	assert.False(t, c.Has("", "catalog:view"))
	assert.False(t, c.Has("unknown-role", "catalog:view"))
}

func TestCheckerPrefixWildcard(t *testing.T) {
	c := NewChecker(map[string][]string{
		"grader": {"study:*"},
	})
	assert.True(t, c.Has("grader", "study:answer"))
	assert.True(t, c.Has("grader", "study:reset-any"))
	assert.False(t, c.Has("grader", "catalog:view"))
}

func TestCheckerAny(t *testing.T) {
	c := NewChecker(nil)
	assert.True(t, c.Any("student", "study:view-own", "study:view-all"))
	assert.False(t, c.Any("student", "study:view-all", "users:list"))
}

func TestRoleContextRoundTrip(t *testing.T) {
	ctx := WithRole(context.Background(), "teacher")
	assert.Equal(t, "teacher", RoleFromContext(ctx))
	assert.Equal(t, "", RoleFromContext(context.Background()))
}
