package http

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ibedc/change-management-backend/internal/domain"
)

const (
	requestBodyLogKey  = "http.request.body.summary"
	responseBodyLogKey = "http.response.body.summary"
	maxLoggedBody      = 2048
)

// registerLogging emits one JSON line per request. Request and response
// bodies are included only after redaction of credential material.
func registerLogging(e *echo.Echo) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			userID := "anonymous"
			if account, ok := c.Get(contextUserKey).(*domain.Account); ok && account != nil {
				userID = account.ID.String()
			}

			payload := struct {
				Time      string `json:"time"`
				UserUUID  string `json:"user_uuid"`
				LatencyMS int64  `json:"latency_ms"`
				Request   struct {
					Method string      `json:"method"`
					URI    string      `json:"uri"`
					Body   interface{} `json:"body,omitempty"`
				} `json:"request"`
				Response struct {
					Status int         `json:"status"`
					Body   interface{} `json:"body,omitempty"`
					Error  string      `json:"error,omitempty"`
				} `json:"response"`
			}{
				Time:      v.StartTime.Format(time.RFC3339),
				UserUUID:  userID,
				LatencyMS: v.Latency.Milliseconds(),
			}
			payload.Request.Method = v.Method
			payload.Request.URI = v.URI
			payload.Request.Body = c.Get(requestBodyLogKey)
			payload.Response.Status = v.Status
			payload.Response.Body = c.Get(responseBodyLogKey)
			if v.Error != nil {
				payload.Response.Error = v.Error.Error()
			}

			buf, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			log.Println(string(buf))
			return nil
		},
	}))

	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
		if summary := sanitizeBody(reqBody); summary != nil {
			c.Set(requestBodyLogKey, summary)
		}
		if summary := sanitizeBody(resBody); summary != nil {
			c.Set(responseBodyLogKey, summary)
		}
	}))
}

// sensitiveLogKeys are redacted from logged bodies. Reset codes and tokens
// are credentials and must never land in the log pipeline.
var sensitiveLogKeys = []string{"password", "code", "token", "otp", "secret"}

func sanitizeBody(body []byte) interface{} {
	if len(body) == 0 || len(body) > maxLoggedBody {
		return nil
	}
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil
	}
	return sanitizeJSON(data)
}

func sanitizeJSON(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			if isSensitiveLogKey(key) {
				out[key] = "redacted"
				continue
			}
			out[key] = sanitizeJSON(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = sanitizeJSON(item)
		}
		return out
	default:
		return v
	}
}

func isSensitiveLogKey(key string) bool {
	lowered := strings.ToLower(key)
	for _, marker := range sensitiveLogKeys {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
