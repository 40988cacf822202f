package dto

import (
	"time"

	"github.com/ainside/licensing-api/internal/domain/registration"
	"github.com/google/uuid"
)

type DeviceResetRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	NewHWID string `json:"newHwid" binding:"required"`
	Reason  string `json:"reason"`
}

type DeviceResetResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
	OldHWID string `json:"oldHwid"`
	NewHWID string `json:"newHwid"`
}

type ListRegistrationsRequest struct {
	Status *registration.Status `form:"status" binding:"omitempty,oneof=active revoked"`
	Email  *string              `form:"email" binding:"omitempty,email"`
	Limit  int                  `form:"limit,default=50" binding:"omitempty,gte=0"`
	Offset int                  `form:"offset,default=0" binding:"omitempty,gte=0"`
}

type RegistrationResponse struct {
	ID        uuid.UUID           `json:"id"`
	OrderID   string              `json:"orderId"`
	Email     string              `json:"email"`
	Name      string              `json:"name,omitempty"`
	HWID      string              `json:"hwid"`
	Status    registration.Status `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func NewRegistrationResponse(reg *registration.Registration) *RegistrationResponse {
	return &RegistrationResponse{
		ID:        reg.ID,
		OrderID:   reg.OrderID,
		Email:     reg.Email,
		Name:      reg.Name,
		HWID:      reg.HWID,
		Status:    reg.Status,
		CreatedAt: reg.CreatedAt,
		UpdatedAt: reg.UpdatedAt,
	}
}

type PaginatedRegistrationsResponse struct {
	Registrations []*RegistrationResponse `json:"registrations"`
	TotalCount    int64                   `json:"totalCount"`
	Limit         int                     `json:"limit"`
	Offset        int                     `json:"offset"`
}
