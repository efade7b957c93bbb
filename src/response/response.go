// Package response implements the envelope every ilix endpoint replies
// with: {success, status_code, reason?, data?}, where data is itself a
// JSON-serialized payload embedded as a string (a string payload is
// embedded as is, without JSON quoting).
package response

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	ilixerrors "github.com/ilix/server/src/errors"
	"github.com/sirupsen/logrus"
)

// Envelope is the wire shape of every response this server sends.
type Envelope struct {
	Success    bool    `json:"success"`
	StatusCode int     `json:"status_code"`
	Reason     *string `json:"reason,omitempty"`
	Data       *string `json:"data,omitempty"`
}

// OK serializes payload into the envelope's data field and writes 200. A
// string payload is stored unchanged rather than JSON-encoded.
func OK(c *gin.Context, payload any) {
	Status(c, http.StatusOK, payload)
}

// Status writes the envelope with an explicit success status code.
func Status(c *gin.Context, status int, payload any) {
	data := marshalData(c, payload)
	c.JSON(status, Envelope{
		Success:    true,
		StatusCode: status,
		Data:       data,
	})
}

// Fail writes the envelope for a *ServerError, mapping it to its status
// code and reason per the error taxonomy.
func Fail(c *gin.Context, err error) {
	se, ok := ilixerrors.As(err)
	if !ok {
		se = ilixerrors.Wrap(ilixerrors.MongoError, err)
	}
	if se.Wrapped != nil {
		logger, exists := c.Get("logger")
		if l, isLogger := logger.(*logrus.Logger); exists && isLogger {
			l.WithError(se.Wrapped).WithField("reason", se.Reason()).Warn("request failed")
		}
	}
	reason := se.Reason()
	c.JSON(se.StatusCode(), Envelope{
		Success:    false,
		StatusCode: se.StatusCode(),
		Reason:     &reason,
	})
}

// FailWithReason writes a failure envelope with a literal reason string
// rather than a ServerError kind, used for canned messages that aren't
// themselves one of the error taxonomy's kinds (e.g. "Empty Args",
// "Transfer was deleted but some files were not deleted").
func FailWithReason(c *gin.Context, status int, reason string) {
	c.JSON(status, Envelope{
		Success:    false,
		StatusCode: status,
		Reason:     &reason,
	})
}

func marshalData(c *gin.Context, payload any) *string {
	if payload == nil {
		return nil
	}
	if s, ok := payload.(string); ok {
		return &s
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		logger, exists := c.Get("logger")
		if l, isLogger := logger.(*logrus.Logger); exists && isLogger {
			l.WithError(err).Error("failed to marshal response payload")
		}
		empty := "null"
		return &empty
	}
	s := string(raw)
	return &s
}
