package shipment

import (
	"context"
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/client"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service handles shipment registration, updates and duplicate
// detection
type Service struct {
	shipmentRepo shipment.Repository
	clientRepo   client.Repository
}

// NewService creates a new shipment Service
func NewService(shipmentRepo shipment.Repository, clientRepo client.Repository) *Service {
	return &Service{
		shipmentRepo: shipmentRepo,
		clientRepo:   clientRepo,
	}
}

// FeeDetailRequest is one fee amount on a shipment
type FeeDetailRequest struct {
	FeeItemID      uuid.UUID        `json:"fee_item_id" binding:"required"`
	AmountUSD      decimal.Decimal  `json:"amount_usd" binding:"required"`
	IsTaxInclusive bool             `json:"is_tax_inclusive"`
	PreTaxAmount   *decimal.Decimal `json:"pre_tax_amount,omitempty"`
}

// CreateShipmentRequest represents a request to register a shipment
type CreateShipmentRequest struct {
	ClientID            uuid.UUID          `json:"client_id" binding:"required"`
	Direction           string             `json:"direction" binding:"required,oneof=IMPORT EXPORT"`
	DeliveryDate        *time.Time         `json:"delivery_date"`
	InvoiceNo           string             `json:"invoice_no"`
	MBL                 string             `json:"mbl"`
	HBL                 string             `json:"hbl"`
	Term                string             `json:"term"`
	NoOfPkgs            int                `json:"no_of_pkgs"`
	GrossWeight         decimal.Decimal    `json:"gross_weight"`
	ChargeableWeight    decimal.Decimal    `json:"chargeable_weight"`
	CDNo                string             `json:"cd_no"`
	CDType              string             `json:"cd_type"`
	AirOceanRate        string             `json:"air_ocean_rate"`
	OriginDestination   string             `json:"origin_destination"`
	BackToBackInvoiceNo string             `json:"back_to_back_invoice_no"`
	Note                string             `json:"note"`
	FeeDetails          []FeeDetailRequest `json:"fee_details"`
	CreatedBy           *uuid.UUID         `json:"-"` // Set from JWT context, not from request body
}

// UpdateShipmentRequest represents a request to update shipment fields
type UpdateShipmentRequest struct {
	DeliveryDate        *time.Time         `json:"delivery_date"`
	InvoiceNo           string             `json:"invoice_no"`
	MBL                 string             `json:"mbl"`
	HBL                 string             `json:"hbl"`
	Term                string             `json:"term"`
	NoOfPkgs            int                `json:"no_of_pkgs"`
	GrossWeight         decimal.Decimal    `json:"gross_weight"`
	ChargeableWeight    decimal.Decimal    `json:"chargeable_weight"`
	CDNo                string             `json:"cd_no"`
	CDType              string             `json:"cd_type"`
	AirOceanRate        string             `json:"air_ocean_rate"`
	OriginDestination   string             `json:"origin_destination"`
	BackToBackInvoiceNo string             `json:"back_to_back_invoice_no"`
	Note                string             `json:"note"`
	FeeDetails          []FeeDetailRequest `json:"fee_details"`
}

// DuplicateWarningResponse reports one identifier collision
type DuplicateWarningResponse struct {
	Field              string    `json:"field"`
	Value              string    `json:"value"`
	ExistingShipmentID uuid.UUID `json:"existing_shipment_id"`
}

// ShipmentResponse represents a shipment in API responses
type ShipmentResponse struct {
	ID                  uuid.UUID                  `json:"id"`
	ClientID            uuid.UUID                  `json:"client_id"`
	Direction           string                     `json:"direction"`
	DeliveryDate        *time.Time                 `json:"delivery_date,omitempty"`
	InvoiceNo           string                     `json:"invoice_no,omitempty"`
	MBL                 string                     `json:"mbl,omitempty"`
	HBL                 string                     `json:"hbl,omitempty"`
	Term                string                     `json:"term,omitempty"`
	NoOfPkgs            int                        `json:"no_of_pkgs"`
	GrossWeight         decimal.Decimal            `json:"gross_weight"`
	ChargeableWeight    decimal.Decimal            `json:"chargeable_weight"`
	CDNo                string                     `json:"cd_no,omitempty"`
	CDType              string                     `json:"cd_type,omitempty"`
	AirOceanRate        string                     `json:"air_ocean_rate,omitempty"`
	OriginDestination   string                     `json:"origin_destination,omitempty"`
	BackToBackInvoiceNo string                     `json:"back_to_back_invoice_no,omitempty"`
	Status              string                     `json:"status"`
	IsDuplicate         bool                       `json:"is_duplicate"`
	Note                string                     `json:"note,omitempty"`
	FeeDetails          []FeeDetailResponse        `json:"fee_details"`
	DuplicateWarnings   []DuplicateWarningResponse `json:"duplicate_warnings,omitempty"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
}

// FeeDetailResponse represents one fee amount in API responses
type FeeDetailResponse struct {
	ID             uuid.UUID        `json:"id"`
	FeeItemID      uuid.UUID        `json:"fee_item_id"`
	AmountUSD      decimal.Decimal  `json:"amount_usd"`
	IsTaxInclusive bool             `json:"is_tax_inclusive"`
	PreTaxAmount   *decimal.Decimal `json:"pre_tax_amount,omitempty"`
}

// ListFilter defines filtering options for shipment list queries
type ListFilter struct {
	ClientID  *uuid.UUID `form:"client_id"`
	Direction string     `form:"direction"`
	Status    string     `form:"status"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
}

// Create registers a shipment. Identifier collisions with the client's
// existing shipments never block creation; they are recorded and
// returned as warnings.
func (s *Service) Create(ctx context.Context, req CreateShipmentRequest) (*ShipmentResponse, error) {
	if _, err := s.clientRepo.FindByID(ctx, req.ClientID); err != nil {
		return nil, err
	}

	sh, err := shipment.NewShipment(req.ClientID, shipment.Direction(req.Direction), req.CreatedBy)
	if err != nil {
		return nil, err
	}
	applyFields(sh, req)

	for _, fd := range req.FeeDetails {
		if _, err := sh.AddFeeDetail(fd.FeeItemID, fd.AmountUSD, fd.IsTaxInclusive, fd.PreTaxAmount); err != nil {
			return nil, err
		}
	}

	warnings, err := s.detectDuplicates(ctx, sh)
	if err != nil {
		return nil, err
	}
	if len(warnings) > 0 {
		sh.MarkDuplicate()
	}

	if err := s.shipmentRepo.Save(ctx, sh); err != nil {
		return nil, err
	}

	for _, w := range warnings {
		detection := shipment.NewDuplicateDetection(sh.ID, w.ExistingShipmentID, w.Field, w.Value)
		if err := s.shipmentRepo.SaveDetection(ctx, detection); err != nil {
			return nil, err
		}
	}

	if len(warnings) > 0 {
		logger.L(ctx).Warn("shipment registered with duplicate identifiers",
			zap.String("shipment_id", sh.ID.String()),
			zap.Int("warnings", len(warnings)))
	}

	return toResponse(sh, warnings), nil
}

// Update replaces the mutable fields of an ACTIVE shipment and re-runs
// duplicate detection
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateShipmentRequest) (*ShipmentResponse, error) {
	sh, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sh.Status != shipment.StatusActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Only ACTIVE shipments can be edited")
	}

	applyFields(sh, CreateShipmentRequest{
		DeliveryDate:        req.DeliveryDate,
		InvoiceNo:           req.InvoiceNo,
		MBL:                 req.MBL,
		HBL:                 req.HBL,
		Term:                req.Term,
		NoOfPkgs:            req.NoOfPkgs,
		GrossWeight:         req.GrossWeight,
		ChargeableWeight:    req.ChargeableWeight,
		CDNo:                req.CDNo,
		CDType:              req.CDType,
		AirOceanRate:        req.AirOceanRate,
		OriginDestination:   req.OriginDestination,
		BackToBackInvoiceNo: req.BackToBackInvoiceNo,
		Note:                req.Note,
	})

	if req.FeeDetails != nil {
		sh.FeeDetails = sh.FeeDetails[:0]
		for _, fd := range req.FeeDetails {
			if _, err := sh.AddFeeDetail(fd.FeeItemID, fd.AmountUSD, fd.IsTaxInclusive, fd.PreTaxAmount); err != nil {
				return nil, err
			}
		}
	}

	warnings, err := s.detectDuplicates(ctx, sh)
	if err != nil {
		return nil, err
	}
	if len(warnings) > 0 {
		sh.MarkDuplicate()
	}

	if err := s.shipmentRepo.Save(ctx, sh); err != nil {
		return nil, err
	}

	for _, w := range warnings {
		detection := shipment.NewDuplicateDetection(sh.ID, w.ExistingShipmentID, w.Field, w.Value)
		if err := s.shipmentRepo.SaveDetection(ctx, detection); err != nil {
			return nil, err
		}
	}

	return toResponse(sh, warnings), nil
}

// Get retrieves a shipment with fresh duplicate warnings
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ShipmentResponse, error) {
	sh, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	warnings, err := s.detectDuplicates(ctx, sh)
	if err != nil {
		return nil, err
	}
	return toResponse(sh, warnings), nil
}

// List retrieves shipments matching the filter
func (s *Service) List(ctx context.Context, filter ListFilter) ([]ShipmentResponse, int64, error) {
	domainFilter := shipment.Filter{
		ClientID: filter.ClientID,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	if filter.Direction != "" {
		d := shipment.Direction(filter.Direction)
		domainFilter.Direction = &d
	}
	if filter.Status != "" {
		st := shipment.Status(filter.Status)
		domainFilter.Status = &st
	}

	shipments, total, err := s.shipmentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ShipmentResponse, len(shipments))
	for i := range shipments {
		responses[i] = *toResponse(&shipments[i], nil)
	}
	return responses, total, nil
}

// Cancel soft-deletes a shipment. Shipments claimed by a debit note
// cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	sh, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := sh.Cancel(); err != nil {
		return err
	}
	return s.shipmentRepo.Save(ctx, sh)
}

// detectDuplicates checks every non-empty identifier against the
// client's other shipments
func (s *Service) detectDuplicates(ctx context.Context, sh *shipment.Shipment) ([]shipment.DuplicateWarning, error) {
	var warnings []shipment.DuplicateWarning
	for _, pair := range sh.IdentifierValues() {
		matches, err := s.shipmentRepo.FindIdentifierMatches(ctx, sh.ClientID, pair.Field, pair.Value, sh.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			warnings = append(warnings, shipment.DuplicateWarning{
				Field:              pair.Field,
				Value:              pair.Value,
				ExistingShipmentID: m.ID,
			})
		}
	}
	return warnings, nil
}

func applyFields(sh *shipment.Shipment, req CreateShipmentRequest) {
	sh.DeliveryDate = req.DeliveryDate
	sh.InvoiceNo = req.InvoiceNo
	sh.MBL = req.MBL
	sh.HBL = req.HBL
	sh.Term = req.Term
	sh.NoOfPkgs = req.NoOfPkgs
	sh.GrossWeight = req.GrossWeight
	sh.ChargeableWeight = req.ChargeableWeight
	sh.CDNo = req.CDNo
	sh.CDType = req.CDType
	sh.AirOceanRate = req.AirOceanRate
	sh.OriginDestination = req.OriginDestination
	sh.BackToBackInvoiceNo = req.BackToBackInvoiceNo
	sh.Note = req.Note
}

func toResponse(sh *shipment.Shipment, warnings []shipment.DuplicateWarning) *ShipmentResponse {
	fees := make([]FeeDetailResponse, len(sh.FeeDetails))
	for i, fd := range sh.FeeDetails {
		fees[i] = FeeDetailResponse{
			ID:             fd.ID,
			FeeItemID:      fd.FeeItemID,
			AmountUSD:      fd.AmountUSD,
			IsTaxInclusive: fd.IsTaxInclusive,
			PreTaxAmount:   fd.PreTaxAmount,
		}
	}

	var warningResponses []DuplicateWarningResponse
	for _, w := range warnings {
		warningResponses = append(warningResponses, DuplicateWarningResponse{
			Field:              string(w.Field),
			Value:              w.Value,
			ExistingShipmentID: w.ExistingShipmentID,
		})
	}

	return &ShipmentResponse{
		ID:                  sh.ID,
		ClientID:            sh.ClientID,
		Direction:           string(sh.Direction),
		DeliveryDate:        sh.DeliveryDate,
		InvoiceNo:           sh.InvoiceNo,
		MBL:                 sh.MBL,
		HBL:                 sh.HBL,
		Term:                sh.Term,
		NoOfPkgs:            sh.NoOfPkgs,
		GrossWeight:         sh.GrossWeight,
		ChargeableWeight:    sh.ChargeableWeight,
		CDNo:                sh.CDNo,
		CDType:              sh.CDType,
		AirOceanRate:        sh.AirOceanRate,
		OriginDestination:   sh.OriginDestination,
		BackToBackInvoiceNo: sh.BackToBackInvoiceNo,
		Status:              string(sh.Status),
		IsDuplicate:         sh.IsDuplicate,
		Note:                sh.Note,
		FeeDetails:          fees,
		DuplicateWarnings:   warningResponses,
		CreatedAt:           sh.CreatedAt,
		UpdatedAt:           sh.UpdatedAt,
	}
}
