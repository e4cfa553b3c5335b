package daemon

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fetchd/internal/rpc"
)

const (
	tokenPrefix = "token:"
	// Set on RPC requests that arrived without a bearer header; the secret
	// must then be the first call parameter.
	tokenParamKey = "fetchd.tokenParam"
)

var errUnauthorized = errors.New("unauthorized")

// authMiddleware validates bearer tokens. An empty token disables the check.
// With allowParam, a request without an Authorization header is passed on
// and must authenticate with a "token:<secret>" first parameter instead.
func authMiddleware(token string, allowParam bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		if auth == "" && allowParam {
			c.Set(tokenParamKey, true)
			c.Next()
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		supplied := strings.TrimPrefix(auth, "Bearer ")
		if !secretMatches(supplied, token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// authorizeParams checks and strips the "token:<secret>" first parameter when
// the request was not authenticated by header.
func authorizeParams(c *gin.Context, token string, req *rpc.Request) error {
	if !c.GetBool(tokenParamKey) {
		return nil
	}
	if len(req.Params) == 0 {
		return errUnauthorized
	}
	text, err := req.Params[0].AsText()
	if err != nil || !strings.HasPrefix(text, tokenPrefix) {
		return errUnauthorized
	}
	if !secretMatches(strings.TrimPrefix(text, tokenPrefix), token) {
		return errUnauthorized
	}
	req.Params = req.Params[1:]
	return nil
}

func secretMatches(supplied, token string) bool {
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) == 1
}
