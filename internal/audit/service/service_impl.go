package service

import (
	"context"
	"time"

	auditdomain "github.com/billfold/billfold/internal/audit/domain"
	"github.com/billfold/billfold/pkg/db/option"
	"github.com/billfold/billfold/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p ServiceParam) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
	}
}

func (s *Service) Log(ctx context.Context, userID snowflake.ID, action, targetType, targetID string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	entry := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		UserID:     userID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   datatypes.JSONMap(metadata),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Warn("audit log write failed",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, userID snowflake.ID, page pagination.Pagination) ([]auditdomain.AuditLog, *pagination.PageInfo, error) {
	size := page.PageSize
	if size <= 0 {
		size = 50
	}
	if size > 200 {
		size = 200
	}

	// Fetch one extra row so BuildCursorPageInfo can tell whether a next
	// page exists.
	fetch := pagination.Pagination{PageToken: page.PageToken, PageSize: size + 1}
	q := s.db.WithContext(ctx).
		Model(&auditdomain.AuditLog{}).
		Order("created_at desc, id desc")
	q = option.ApplyOperator(option.Condition{Field: "user_id", Operator: option.EQ, Value: userID}).Apply(q)
	q = option.ApplyPagination(fetch).Apply(q)

	var entries []*auditdomain.AuditLog
	if err := q.Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	info := pagination.BuildCursorPageInfo(entries, size, func(e *auditdomain.AuditLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        e.ID.String(),
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(entries) > size {
		entries = entries[:size]
	}

	out := make([]auditdomain.AuditLog, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e)
	}
	return out, info, nil
}
