package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortOrder represents sort direction on creation time
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PageRequest represents pagination request parameters
type PageRequest struct {
	Page int       `form:"page" json:"page"`
	Size int       `form:"size" json:"size"`
	Sort SortOrder `form:"sort" json:"sort"`
}

// DefaultPageRequest returns a PageRequest with default values
func DefaultPageRequest() PageRequest {
	return PageRequest{
		Page: DefaultPage,
		Size: DefaultPageSize,
		Sort: SortAsc,
	}
}

// Normalize clamps out-of-range values onto the defaults
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	switch SortOrder(strings.ToLower(string(p.Sort))) {
	case SortDesc:
		p.Sort = SortDesc
	default:
		p.Sort = SortAsc
	}
	return p
}

// Offset calculates the row offset for database queries
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

// Descending reports whether the newest rows come first
func (p PageRequest) Descending() bool {
	return p.Sort == SortDesc
}

// ParsePagination parses pagination parameters from Gin context
func ParsePagination(c *gin.Context) PageRequest {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))

	return PageRequest{
		Page: page,
		Size: size,
		Sort: SortOrder(c.DefaultQuery("sort", string(SortAsc))),
	}.Normalize()
}

// Page represents one page of a list response
type Page[T any] struct {
	Content          []T   `json:"content"`
	Page             int   `json:"page"`
	Size             int   `json:"size"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	NumberOfElements int   `json:"numberOfElements"`
}

// NewPage creates a page from the rows of the requested window and the total row count
func NewPage[T any](content []T, req PageRequest, totalElements int64) Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := 0
	if req.Size > 0 {
		totalPages = int((totalElements + int64(req.Size) - 1) / int64(req.Size))
	}

	return Page[T]{
		Content:          content,
		Page:             req.Page,
		Size:             req.Size,
		TotalElements:    totalElements,
		TotalPages:       totalPages,
		NumberOfElements: len(content),
	}
}

// MapPage converts the content of a page while keeping its counters
func MapPage[S, T any](p Page[S], fn func(S) T) Page[T] {
	out := make([]T, len(p.Content))
	for i, item := range p.Content {
		out[i] = fn(item)
	}
	return Page[T]{
		Content:          out,
		Page:             p.Page,
		Size:             p.Size,
		TotalElements:    p.TotalElements,
		TotalPages:       p.TotalPages,
		NumberOfElements: len(out),
	}
}
