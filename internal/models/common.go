package models

import "github.com/golang-jwt/jwt/v5"

// Pagination is the shared list-response metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata from a total count.
func NewPagination(page, pageSize, total int) *Pagination {
	if pageSize <= 0 {
		pageSize = 20
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return &Pagination{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: pages}
}

// UserRole scopes what an operator may do against the scheduling API.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleScheduler UserRole = "SCHEDULER"
	RoleViewer    UserRole = "VIEWER"
)

// JWTClaims is the verified token payload attached to request contexts.
// Issuing tokens is the identity provider's job, not this service's.
type JWTClaims struct {
	UserID string   `json:"sub"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
