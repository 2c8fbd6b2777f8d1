package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	HeaderIdempotencyKey   = "X-Idempotency-Key"
	// set on responses served from the cache
	HeaderIdempotentReplay = "X-Idempotent-Replay"

	defaultReplayTTL = 10 * time.Minute
)

// CommandReply is one cached admin response. Pending marks a request still running.
type CommandReply struct {
	Status   int
	Body     []byte
	Pending  bool
	StoredAt time.Time
}

type IdempotencyStore interface {
	// Begin returns the cached reply when the key is known; otherwise it reserves the key and returns false.
	Begin(key string) (*CommandReply, bool)
	Finish(key string, status int, body []byte)
	Release(key string)
}

// InMemIdempotencyStore 单进程够用, 命令只在一个进程里执行
type InMemIdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	replies map[string]*CommandReply
}

func NewInMemIdempotencyStore() *InMemIdempotencyStore {
	return NewInMemIdempotencyStoreTTL(defaultReplayTTL)
}

func NewInMemIdempotencyStoreTTL(ttl time.Duration) *InMemIdempotencyStore {
	if ttl <= 0 {
		ttl = defaultReplayTTL
	}
	return &InMemIdempotencyStore{ttl: ttl, now: time.Now, replies: make(map[string]*CommandReply)}
}

func (s *InMemIdempotencyStore) Begin(key string) (*CommandReply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evict(now)
	if r, ok := s.replies[key]; ok {
		copied := *r
		return &copied, true
	}
	s.replies[key] = &CommandReply{Pending: true, StoredAt: now}
	return nil, false
}

func (s *InMemIdempotencyStore) Finish(key string, status int, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[key] = &CommandReply{Status: status, Body: body, StoredAt: s.now()}
}

func (s *InMemIdempotencyStore) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.replies, key)
}

// Len counts cached and pending keys.
func (s *InMemIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}

// pending entries are never evicted, the request still owns them
func (s *InMemIdempotencyStore) evict(now time.Time) {
	for k, r := range s.replies {
		if !r.Pending && now.Sub(r.StoredAt) > s.ttl {
			delete(s.replies, k)
		}
	}
}

// IdempotencyMiddleware 防止客户端重试时同一条管理命令执行两次 (例如 percentages 重算)
func IdempotencyMiddleware(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		idemKey := c.GetHeader(HeaderIdempotencyKey)
		if idemKey == "" {
			c.Next()
			return
		}
		// venue 在 path 里, 同一个 key 对不同 venue 互不影响
		key := c.Request.Method + " " + c.Request.URL.Path + ":" + idemKey

		reply, seen := store.Begin(key)
		if seen {
			if reply.Pending {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"code": "IN_PROGRESS", "message": "command with this idempotency key is still running"})
				return
			}
			c.Header(HeaderIdempotentReplay, "true")
			c.Data(reply.Status, "application/json; charset=utf-8", reply.Body)
			c.Abort()
			return
		}

		rec := &replyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// 5xx (store failures) may be retried with the same key
		if c.Writer.Status() >= http.StatusInternalServerError {
			store.Release(key)
			return
		}
		store.Finish(key, c.Writer.Status(), rec.body)
	}
}

type replyRecorder struct {
	gin.ResponseWriter
	body []byte
}

func (w *replyRecorder) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}
