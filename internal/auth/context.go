package auth

import (
	"context"
)

// --- Context Helper Functions ---

// GetUserNameFromContext retrieves the user's display name from the request
// context. Returns the name and true if found, otherwise "" and false.
func GetUserNameFromContext(ctx context.Context) (string, bool) {
	userName, ok := ctx.Value(UserNameKey).(string)
	return userName, ok
}

// GetRoleFromContext retrieves the active role (the conversation role scope)
// from the request context. Returns the role and true if found, otherwise ""
// and false.
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}
