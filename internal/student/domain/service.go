package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/pesantrenhub/sppbill/pkg/db/pagination"
)

var (
	ErrNotFound         = errors.New("student_not_found")
	ErrNISExists        = errors.New("student_nis_exists")
	ErrInvalidNIS       = errors.New("invalid_nis")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidID        = errors.New("invalid_student_id")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)

type Service interface {
	List(ctx context.Context, filter ListStudentFilter) ([]*Student, error)
	ListPage(ctx context.Context, filter ListStudentFilter, page pagination.Pagination) ([]*Student, *pagination.PageInfo, error)
	ListActive(ctx context.Context) ([]*Student, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Student, error)
	Create(ctx context.Context, req CreateStudentRequest) (*Student, error)
}
