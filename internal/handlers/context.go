package handlers

import "github.com/gin-gonic/gin"

// UserIDKey is where the auth middleware stores the authenticated user's ID.
const UserIDKey = "userID"

// MustUserID returns the authenticated user ID. Routes using it sit behind
// the API-key middleware, so a missing value is a programming error and the
// zero value simply fails the subsequent lookup.
func MustUserID(c *gin.Context) uint {
	id, _ := c.Get(UserIDKey)
	userID, _ := id.(uint)
	return userID
}
