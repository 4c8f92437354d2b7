package telephony

import (
	"net/http"
	"strings"

	"voice-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"
)

const headerTwilioSignature = "X-Twilio-Signature"

// SignatureValidator rejects webhooks not signed with the account's auth token.
// Twilio signs the public URL it called, so the URL is rebuilt from
// PublicBaseURL rather than the Host header seen behind a tunnel or proxy.
type SignatureValidator struct {
	validator     client.RequestValidator
	publicBaseURL string
}

func NewSignatureValidator(authToken, publicBaseURL string) *SignatureValidator {
	return &SignatureValidator{
		validator:     client.NewRequestValidator(authToken),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *SignatureValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sig := c.GetHeader(headerTwilioSignature)
		if sig == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing signature"})
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}

		params := map[string]string{}
		for k, vs := range c.Request.PostForm {
			if len(vs) > 0 {
				params[k] = vs[0]
			}
		}
		url := s.publicBaseURL + c.Request.URL.RequestURI()

		if !s.validator.Validate(url, params, sig) {
			logger.FromGin(c).Warn("twilio signature rejected", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}
