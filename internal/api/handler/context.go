package handler

import (
	"context"

	"github.com/grownex/grownex/internal/analysis"
	"github.com/grownex/grownex/internal/api/middleware"
)

// GetUserID retrieves the authenticated user ID from the context.
// This is a convenience wrapper around middleware.GetUserID.
func GetUserID(ctx context.Context) string {
	return middleware.GetUserID(ctx)
}

// callerFrom builds the analysis caller for the authenticated principal.
func callerFrom(ctx context.Context) analysis.Caller {
	return analysis.Caller{
		UserID: middleware.GetUserID(ctx),
		Admin:  middleware.IsAdmin(ctx),
	}
}
