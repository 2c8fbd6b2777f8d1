package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
	"github.com/google/uuid"
)

// ActivityService 机器人活动日志: 内存环形缓冲 + 数据库 + jsonl 文件 + 实时订阅
type ActivityService struct {
	logChan  chan *model.ActivityLog
	logFile  *os.File
	buffer   *activityBuffer
	repo     ActivityRepo
	counters ActivityCounters

	subMu sync.RWMutex
	subs  map[int]chan *model.ActivityLog
	next  int

	closeMu sync.RWMutex
	closed  bool
	done    chan struct{}
}

type ActivityOptions struct {
	// empty disables the jsonl file
	LogDir     string
	BufferSize int
	Repo       ActivityRepo
	Counters   ActivityCounters
}

func NewActivityService(opts ActivityOptions) (*ActivityService, error) {
	svc := &ActivityService{
		logChan:  make(chan *model.ActivityLog, 1000), // 缓冲区 1000
		buffer:   newActivityBuffer(opts.BufferSize),
		repo:     opts.Repo,
		counters: opts.Counters,
		subs:     make(map[int]chan *model.ActivityLog),
		done:     make(chan struct{}),
	}

	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0755); err != nil {
			return nil, err
		}
		// 简单的按日轮转文件
		filename := filepath.Join(opts.LogDir, "activity-"+time.Now().Format("2006-01-02")+".jsonl")
		f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		svc.logFile = f
	}

	// 启动消费者 goroutine
	go svc.processLogs()

	return svc, nil
}

func (s *ActivityService) Log(entry *model.ActivityLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.buffer.Add(entry)
	s.publish(entry)

	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.logChan <- entry:
	default:
		// 缓冲区满，丢弃日志以保护主流程
		logger.Warn("activity log buffer full, dropping entry", "kind", entry.Kind, "venue", entry.Venue)
	}
}

// Mail journals one delivered notification; used as the marketplace mail sink.
func (s *ActivityService) Mail(n model.Notification) {
	s.Log(&model.ActivityLog{
		Venue:     n.Venue.String(),
		Kind:      model.ActivityMail,
		ListingID: n.ListingID,
		ItemEntry: n.ItemEntry,
		Amount:    n.Amount,
		Actor:     "mail",
		Context: map[string]interface{}{
			"mail":      string(n.Kind),
			"recipient": n.Recipient,
			"new_price": n.NewPrice,
		},
	})
}

func (s *ActivityService) List(ctx context.Context, filter ActivityFilter) ([]*model.ActivityLog, error) {
	if s.repo != nil {
		records, err := s.repo.List(ctx, filter)
		if err == nil {
			return records, nil
		}
		logger.Warn("activity repo list failed, using memory buffer", "error", err)
	}
	return s.buffer.List(filter), nil
}

// Daily returns today's count and amount for a venue and kind.
func (s *ActivityService) Daily(ctx context.Context, venue string, kind model.ActivityKind) (int64, uint64, error) {
	if s.counters == nil {
		return 0, 0, nil
	}
	return s.counters.GetDaily(ctx, venue, kind)
}

// Subscribe streams new entries until cancel is called. Slow readers miss entries.
func (s *ActivityService) Subscribe(size int) (<-chan *model.ActivityLog, func()) {
	if size <= 0 {
		size = 64
	}
	ch := make(chan *model.ActivityLog, size)
	s.subMu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
			s.subMu.Unlock()
		})
	}
}

func (s *ActivityService) publish(entry *model.ActivityLog) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}

func (s *ActivityService) processLogs() {
	defer close(s.done)
	var encoder *json.Encoder
	if s.logFile != nil {
		encoder = json.NewEncoder(s.logFile)
	}
	for entry := range s.logChan {
		if s.repo != nil {
			if err := s.repo.Insert(context.Background(), entry); err != nil {
				logger.Error("failed to write activity log to DB", "error", err)
			}
		}
		if s.counters != nil {
			if err := s.counters.AddDaily(context.Background(), entry.Venue, entry.Kind, 1, entry.Amount); err != nil {
				logger.Warn("failed to bump activity counters", "error", err)
			}
		}
		if encoder != nil {
			if err := encoder.Encode(entry); err != nil {
				logger.Error("failed to write activity log", "error", err)
			}
		}
	}
}

// Close flushes queued entries and closes subscribers.
func (s *ActivityService) Close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	close(s.logChan)
	s.closeMu.Unlock()

	<-s.done
	if s.logFile != nil {
		s.logFile.Close()
	}
	s.subMu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subMu.Unlock()
}

type activityBuffer struct {
	mu        sync.Mutex
	maxSize   int
	records   []*model.ActivityLog
	nextIndex int
}

func newActivityBuffer(maxSize int) *activityBuffer {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &activityBuffer{
		maxSize: maxSize,
		records: make([]*model.ActivityLog, 0, maxSize),
	}
}

func (b *activityBuffer) Add(entry *model.ActivityLog) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) < b.maxSize {
		b.records = append(b.records, entry)
		return
	}
	b.records[b.nextIndex] = entry
	b.nextIndex = (b.nextIndex + 1) % b.maxSize
}

// List returns newest first.
func (b *activityBuffer) List(filter ActivityFilter) []*model.ActivityLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	limit := filter.Limit
	if limit <= 0 || limit > b.maxSize {
		limit = b.maxSize
	}
	results := make([]*model.ActivityLog, 0, limit)
	total := len(b.records)
	for i := 0; i < total; i++ {
		idx := (b.nextIndex + total - 1 - i) % total
		entry := b.records[idx]
		if !filter.Match(entry) {
			continue
		}
		results = append(results, entry)
		if len(results) >= limit {
			break
		}
	}
	return results
}
