package middleware

import (
	"net/http"

	"bookhive/internal/handler/httperr"
	"bookhive/internal/pkg/errs"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserIDHeader carries the authenticated user's ID, set by the edge proxy
// after it has verified the session.
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

// RequireUser rejects requests without a parseable user identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			httperr.AbortWithError(c, http.StatusUnauthorized,
				errs.New("missing user header"), "Missing user identity", nil)
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusUnauthorized,
				errs.Wrap(err, "malformed user header"), "Invalid user identity", nil)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
