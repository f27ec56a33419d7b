package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	studentdomain "github.com/pesantrenhub/sppbill/internal/student/domain"
	"github.com/pesantrenhub/sppbill/pkg/db"
	"github.com/pesantrenhub/sppbill/pkg/db/option"
	"github.com/pesantrenhub/sppbill/pkg/db/pagination"
	"github.com/pesantrenhub/sppbill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	studentrepo repository.Repository[studentdomain.Student]
}

func NewService(p ServiceParam) studentdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("student.service"),

		genID:       p.GenID,
		studentrepo: repository.ProvideStore[studentdomain.Student](p.DB),
	}
}

func (s *Service) List(ctx context.Context, filter studentdomain.ListStudentFilter) ([]*studentdomain.Student, error) {
	stmt := s.db.WithContext(ctx).Model(&studentdomain.Student{})
	if filter.Class != "" {
		stmt = stmt.Where("class = ?", filter.Class)
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("active = ?", true)
	}

	var students []*studentdomain.Student
	if err := stmt.Order("name asc, id asc").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

// ListPage is the cursor-paged variant used by the HTTP listing. Pages walk
// the table in id order so the cursor stays stable under concurrent inserts.
func (s *Service) ListPage(ctx context.Context, filter studentdomain.ListStudentFilter, page pagination.Pagination) ([]*studentdomain.Student, *pagination.PageInfo, error) {
	stmt := s.db.WithContext(ctx).Model(&studentdomain.Student{})
	if filter.Class != "" {
		stmt = stmt.Where("class = ?", filter.Class)
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("active = ?", true)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, nil, studentdomain.ErrInvalidPageToken
		}
		after, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, nil, studentdomain.ErrInvalidPageToken
		}
		stmt = stmt.Where("id > ?", after)
	}

	size := page.PageSize
	if size <= 0 {
		size = 10
	}
	for _, opt := range []option.QueryOption{option.WithOrder("id asc"), option.ApplyPagination(page)} {
		stmt = opt.Apply(stmt)
	}

	var students []*studentdomain.Student
	if err := stmt.Find(&students).Error; err != nil {
		return nil, nil, err
	}

	info, students := pagination.BuildCursorPageInfo(students, size, func(st *studentdomain.Student) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: st.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})
	return students, info, nil
}

func (s *Service) ListActive(ctx context.Context) ([]*studentdomain.Student, error) {
	return s.List(ctx, studentdomain.ListStudentFilter{ActiveOnly: true})
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*studentdomain.Student, error) {
	student, err := s.studentrepo.FindOne(ctx, &studentdomain.Student{ID: id})
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, studentdomain.ErrNotFound
	}
	return student, nil
}

func (s *Service) Create(ctx context.Context, req studentdomain.CreateStudentRequest) (*studentdomain.Student, error) {
	nis := strings.TrimSpace(req.NIS)
	name := strings.TrimSpace(req.Name)
	if nis == "" {
		return nil, studentdomain.ErrInvalidNIS
	}
	if name == "" {
		return nil, studentdomain.ErrInvalidName
	}

	student := &studentdomain.Student{
		ID:     s.genID.Generate(),
		NIS:    nis,
		Name:   name,
		Class:  strings.TrimSpace(req.Class),
		Active: true,
	}
	if err := s.studentrepo.Create(ctx, student); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, studentdomain.ErrNISExists
		}
		return nil, err
	}
	return student, nil
}
