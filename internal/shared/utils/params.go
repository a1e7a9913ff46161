package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/clawncore/colabwize-backend/internal/shared/constants"
)

// GetUserIDFromContext extracts the authenticated user id set by the auth middleware.
func GetUserIDFromContext(c *gin.Context) (uint, error) {
	value, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, fmt.Errorf("user ID not found in context")
	}

	userID, ok := value.(uint)
	if !ok || userID == 0 {
		return 0, fmt.Errorf("invalid user ID in context")
	}

	return userID, nil
}

// GetUserEmailFromContext extracts the authenticated user email, if present.
func GetUserEmailFromContext(c *gin.Context) string {
	value, exists := c.Get(constants.ContextKeyUserEmail)
	if !exists {
		return ""
	}
	email, _ := value.(string)
	return email
}
