package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextActivityLog = "activity_log"
	HeaderRequestID    = "X-Request-ID"
)

// bodyLogWriter 包装 ResponseWriter 以捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// AuditMiddleware journals every mutating API call as an api_call activity entry.
func AuditMiddleware(sink service.ActivitySink) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := uuid.New().String()
		c.Header(HeaderRequestID, reqID)

		if !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		// 读取请求体 (并写回以便后续 Bind 使用)
		var reqBodyBytes []byte
		if c.Request.Body != nil {
			reqBodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(reqBodyBytes))
		}

		// handler 可以往 Context 字段里塞额外信息
		entry := &model.ActivityLog{
			ID:        reqID,
			Kind:      model.ActivityAPICall,
			Actor:     "api:" + c.ClientIP(),
			Venue:     c.Param("venue"),
			CreatedAt: start,
			Context:   make(map[string]interface{}),
		}
		c.Set(ContextActivityLog, entry)

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if entry.Venue == "" {
			entry.Venue = c.Param("venue")
		}
		entry.Context["method"] = c.Request.Method
		entry.Context["path"] = c.Request.URL.Path
		entry.Context["status"] = c.Writer.Status()
		entry.Context["latency_ms"] = time.Since(start).Milliseconds()
		entry.Context["request_body"] = redactAuditBody(reqBodyBytes)
		entry.Context["response_body"] = redactAuditBody(blw.body.Bytes())

		// 异步写入
		sink.Log(entry)
	}
}

// AddAuditContext 辅助函数：允许 Handler 向活动日志添加业务上下文
func AddAuditContext(c *gin.Context, key string, value interface{}) {
	if val, exists := c.Get(ContextActivityLog); exists {
		if entry, ok := val.(*model.ActivityLog); ok {
			entry.Context[key] = value
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	default:
		return false
	}
}

func redactAuditBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	redacted, ok := redactJSON(body)
	if !ok {
		return "[redacted]"
	}
	return string(redacted)
}

func redactJSON(body []byte) ([]byte, bool) {
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false
	}
	redactValue(&data)
	out, err := json.Marshal(data)
	if err != nil {
		return nil, false
	}
	return out, true
}

func redactValue(v *interface{}) {
	switch raw := (*v).(type) {
	case map[string]interface{}:
		for key, val := range raw {
			if isSensitiveKey(key) {
				raw[key] = "***"
				continue
			}
			vv := val
			redactValue(&vv)
			raw[key] = vv
		}
	case []interface{}:
		for i, val := range raw {
			vv := val
			redactValue(&vv)
			raw[i] = vv
		}
	}
}

func isSensitiveKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "admin_key",
		"password",
		"dsn",
		"redis_password",
		"token":
		return true
	default:
		return false
	}
}
