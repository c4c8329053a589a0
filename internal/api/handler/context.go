package handler

import (
	"context"

	"github.com/fuelsync/fuelsync/internal/api/middleware"
)

// GetAdminID retrieves the authenticated admin ID from the context.
// This is a convenience wrapper around middleware.GetAdminID.
func GetAdminID(ctx context.Context) string {
	return middleware.GetAdminID(ctx)
}
