package handlers

import (
	"context"
	"fmt"

	"hrassist-backend/internal/auth"
)

// identityFromContext extracts the user name and active role (the
// conversation role scope) injected by the JWT middleware.
func identityFromContext(ctx context.Context) (userName, role string, err error) {
	userName, ok := auth.GetUserNameFromContext(ctx)
	if !ok {
		return "", "", fmt.Errorf("user name not found in context")
	}
	role, ok = auth.GetRoleFromContext(ctx)
	if !ok {
		return "", "", fmt.Errorf("role not found in context")
	}
	return userName, role, nil
}
