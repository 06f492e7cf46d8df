package services

import (
	"context"
	"sync"
	"time"

	"github.com/Sosyalles/user-service-api/internal/models"
	"github.com/Sosyalles/user-service-api/internal/repository"
	"github.com/Sosyalles/user-service-api/pkg/logger"
	"gorm.io/datatypes"
)

const (
	AuditRegister       = "user.register"
	AuditLogin          = "user.login"
	AuditLoginFailed    = "user.login_failed"
	AuditPasswordChange = "user.password_change"
	AuditProfileUpdate  = "user.profile_update"
	AuditDetailUpdate   = "user.detail_update"
	AuditPhotosUpload   = "user.photos_upload"
	AuditPhotosDelete   = "user.photos_delete"
	AuditAccountDelete  = "user.delete"
	AuditStatusChange   = "admin.user_status"
)

const auditQueueSize = 1000

type AuditEntry struct {
	UserID    *uint
	Action    string
	Details   map[string]interface{}
	IPAddress string
	RequestID string
}

// AuditService persists account events from a buffered queue on a single
// background worker. LogAsync never blocks the request path.
type AuditService struct {
	store  *repository.Store
	queue  chan models.AuditLog
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

func NewAuditService(store *repository.Store) *AuditService {
	s := &AuditService{
		store: store,
		queue: make(chan models.AuditLog, auditQueueSize),
		done:  make(chan struct{}),
		now:   time.Now,
	}
	go s.processQueue()
	return s
}

func (s *AuditService) LogAsync(entry AuditEntry) {
	if s == nil {
		return
	}

	row := models.AuditLog{
		UserID:    entry.UserID,
		Action:    entry.Action,
		Details:   datatypes.JSONMap(entry.Details),
		IPAddress: entry.IPAddress,
		RequestID: entry.RequestID,
		CreatedAt: s.now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.queue <- row:
	default:
		logger.Warn("audit_queue_full", map[string]interface{}{
			"audit_action": entry.Action,
			"dropped":      true,
		})
	}
}

// Close stops accepting entries and waits until the queue is drained.
func (s *AuditService) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *AuditService) ListForUser(ctx context.Context, userID uint, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 10000 {
		limit = 10000
	}
	return s.store.AuditLogs.ListByUser(ctx, userID, limit)
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		if err := s.store.AuditLogs.Create(context.Background(), &row); err != nil {
			logger.Error("audit_log_insert_failed", err, map[string]interface{}{
				"audit_action": row.Action,
			})
		}
	}
}
