package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/ilix/server/src/keyphrase"
	"github.com/ilix/server/src/response"
)

const keyPhraseContextKey = "key_phrase"

// KeyPhraseAuth reads the raw Authorization header (no scheme prefix) and
// parses it as a key phrase. A missing header fails with the literal
// reason "missing 'Authorization' header"; a header present more than
// once fails with "invalid 'Authorization' header"; a header that does
// not parse as a 20-word key phrase surfaces the InvalidKeyPhrase
// ServerError reason, matching the extractor this is grounded on.
func KeyPhraseAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		values := c.Request.Header.Values("Authorization")
		if len(values) == 0 {
			response.FailWithReason(c, 401, "missing 'Authorization' header")
			c.Abort()
			return
		}
		if len(values) > 1 {
			response.FailWithReason(c, 401, "invalid 'Authorization' header")
			c.Abort()
			return
		}

		kp, err := keyphrase.Parse(values[0])
		if err != nil {
			response.Fail(c, err)
			c.Abort()
			return
		}

		c.Set(keyPhraseContextKey, string(kp))
		c.Next()
	}
}

// KeyPhrase retrieves the authenticated key phrase set by KeyPhraseAuth.
func KeyPhrase(c *gin.Context) string {
	return c.GetString(keyPhraseContextKey)
}
