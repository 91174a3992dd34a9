package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erpledger/internal/model"
	"erpledger/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreatePartnerRequest struct {
	Name            string `json:"name" binding:"required"`
	Type            string `json:"type" binding:"required,oneof=CUSTOMER VENDOR"`
	CompanyName     string `json:"company_name"`
	GSTIN           string `json:"gstin"`
	ContactPerson   string `json:"contact_person"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	BillingAddress  string `json:"billing_address"`
	ShippingAddress string `json:"shipping_address"`
}

type UpdatePartnerRequest struct {
	Name            *string `json:"name"`
	CompanyName     *string `json:"company_name"`
	GSTIN           *string `json:"gstin"`
	ContactPerson   *string `json:"contact_person"`
	Phone           *string `json:"phone"`
	Email           *string `json:"email"`
	BillingAddress  *string `json:"billing_address"`
	ShippingAddress *string `json:"shipping_address"`
	IsActive        *bool   `json:"is_active"`
}

type PartnerResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	CompanyName     string `json:"company_name,omitempty"`
	GSTIN           string `json:"gstin,omitempty"`
	ContactPerson   string `json:"contact_person,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	BillingAddress  string `json:"billing_address,omitempty"`
	ShippingAddress string `json:"shipping_address,omitempty"`
	IsActive        bool   `json:"is_active"`
	CreatedAt       string `json:"created_at"`
}

// --- Interface ---

type PartnerService interface {
	CreatePartner(ctx context.Context, req CreatePartnerRequest, userID string) (PartnerResponse, error)
	UpdatePartner(ctx context.Context, id string, req UpdatePartnerRequest, userID string) (PartnerResponse, error)
	GetPartner(ctx context.Context, id string) (PartnerResponse, error)
	ListPartners(ctx context.Context, partnerType, search string, page, limit int) ([]PartnerResponse, int64, error)
	DeletePartner(ctx context.Context, id string, userID string) error
}

type partnerService struct {
	partnerRepo repository.PartnerRepository
	audit       AuditService
}

func NewPartnerService(partnerRepo repository.PartnerRepository, audit AuditService) PartnerService {
	return &partnerService{partnerRepo: partnerRepo, audit: audit}
}

// --- Implementation ---

func (s *partnerService) CreatePartner(ctx context.Context, req CreatePartnerRequest, userID string) (PartnerResponse, error) {
	partner := model.Partner{
		Name:            req.Name,
		Type:            req.Type,
		CompanyName:     req.CompanyName,
		GSTIN:           req.GSTIN,
		ContactPerson:   req.ContactPerson,
		Phone:           req.Phone,
		Email:           req.Email,
		BillingAddress:  req.BillingAddress,
		ShippingAddress: req.ShippingAddress,
		IsActive:        true,
	}

	if err := s.partnerRepo.Create(ctx, &partner); err != nil {
		return PartnerResponse{}, fmt.Errorf("failed to create partner: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionCreatePartner, partner.ID.String(), partner.Name, req)

	return toPartnerResponse(partner), nil
}

func (s *partnerService) UpdatePartner(ctx context.Context, id string, req UpdatePartnerRequest, userID string) (PartnerResponse, error) {
	partnerID, err := uuid.Parse(id)
	if err != nil {
		return PartnerResponse{}, fmt.Errorf("invalid partner id: %w", err)
	}

	partner, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return PartnerResponse{}, fmt.Errorf("partner not found: %w", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return PartnerResponse{}, errors.New("partner name cannot be blank")
		}
		partner.Name = *req.Name
	}
	if req.CompanyName != nil {
		partner.CompanyName = *req.CompanyName
	}
	if req.GSTIN != nil {
		partner.GSTIN = *req.GSTIN
	}
	if req.ContactPerson != nil {
		partner.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		partner.Phone = *req.Phone
	}
	if req.Email != nil {
		partner.Email = *req.Email
	}
	if req.BillingAddress != nil {
		partner.BillingAddress = *req.BillingAddress
	}
	if req.ShippingAddress != nil {
		partner.ShippingAddress = *req.ShippingAddress
	}
	if req.IsActive != nil {
		partner.IsActive = *req.IsActive
	}

	if err := s.partnerRepo.Update(ctx, partner); err != nil {
		return PartnerResponse{}, fmt.Errorf("failed to update partner: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionUpdatePartner, partner.ID.String(), partner.Name, req)

	return toPartnerResponse(*partner), nil
}

func (s *partnerService) GetPartner(ctx context.Context, id string) (PartnerResponse, error) {
	partnerID, err := uuid.Parse(id)
	if err != nil {
		return PartnerResponse{}, fmt.Errorf("invalid partner id: %w", err)
	}
	partner, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return PartnerResponse{}, fmt.Errorf("partner not found: %w", err)
	}
	return toPartnerResponse(*partner), nil
}

func (s *partnerService) ListPartners(ctx context.Context, partnerType, search string, page, limit int) ([]PartnerResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	partners, total, err := s.partnerRepo.List(ctx, partnerType, search, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PartnerResponse, 0, len(partners))
	for _, p := range partners {
		res = append(res, toPartnerResponse(p))
	}
	return res, total, nil
}

func (s *partnerService) DeletePartner(ctx context.Context, id string, userID string) error {
	partnerID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid partner id: %w", err)
	}
	partner, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return fmt.Errorf("partner not found: %w", err)
	}

	if err := s.partnerRepo.Delete(ctx, partnerID); err != nil {
		return fmt.Errorf("failed to delete partner: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionDeletePartner, partner.ID.String(), partner.Name, nil)

	return nil
}

// --- Helpers ---

func toPartnerResponse(partner model.Partner) PartnerResponse {
	return PartnerResponse{
		ID:              partner.ID.String(),
		Name:            partner.Name,
		Type:            partner.Type,
		CompanyName:     partner.CompanyName,
		GSTIN:           partner.GSTIN,
		ContactPerson:   partner.ContactPerson,
		Phone:           partner.Phone,
		Email:           partner.Email,
		BillingAddress:  partner.BillingAddress,
		ShippingAddress: partner.ShippingAddress,
		IsActive:        partner.IsActive,
		CreatedAt:       partner.CreatedAt.Format(time.RFC3339),
	}
}
