package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"catalog:view",
		"study:answer",
		"study:view-own",
		"study:reset-own",
		"user:change_password",
	},
	"teacher": {
		"catalog:view",
		"catalog:edit",
		"catalog:import",
		"catalog:export",
		"study:view-all",
		"study:reset-any",
		"users:bulk_upsert",
		"users:list",
		"assets:upload",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
