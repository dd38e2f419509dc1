package billing

import (
	"context"
	"errors"
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/client"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/fee"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// numberAttempts bounds retries when two debit notes race for the same
// sequential number. The unique index on number is the arbiter.
const numberAttempts = 3

// DebitNoteService assembles debit notes from billable shipments and
// drives their review workflow
type DebitNoteService struct {
	txScope       TransactionScope
	debitNoteRepo billing.Repository
	shipmentRepo  shipment.Repository
	clientRepo    client.Repository
	feeItemRepo   fee.ItemRepository
	aggregator    *billing.FeeAggregator
}

// NewDebitNoteService creates a new DebitNoteService. The transaction
// scope carries every write that must move together: a note and the
// shipments it claims or releases.
func NewDebitNoteService(
	txScope TransactionScope,
	debitNoteRepo billing.Repository,
	shipmentRepo shipment.Repository,
	clientRepo client.Repository,
	feeItemRepo fee.ItemRepository,
	aggregator *billing.FeeAggregator,
) *DebitNoteService {
	return &DebitNoteService{
		txScope:       txScope,
		debitNoteRepo: debitNoteRepo,
		shipmentRepo:  shipmentRepo,
		clientRepo:    clientRepo,
		feeItemRepo:   feeItemRepo,
		aggregator:    aggregator,
	}
}

// CreateDebitNoteRequest represents a request to assemble a debit note
// from a client's billable shipments in a period
type CreateDebitNoteRequest struct {
	ClientID     uuid.UUID       `json:"client_id" binding:"required"`
	PeriodFrom   time.Time       `json:"period_from" binding:"required"`
	PeriodTo     time.Time       `json:"period_to" binding:"required"`
	ExchangeRate decimal.Decimal `json:"exchange_rate" binding:"required"`
	SheetScope   string          `json:"sheet_scope" binding:"omitempty,oneof=IMPORT EXPORT ALL"`
	Notes        string          `json:"notes"`
	CreatedBy    *uuid.UUID      `json:"-"` // Set from JWT context, not from request body
}

// WorkflowRequest carries an optional reviewer comment
type WorkflowRequest struct {
	Comment string `json:"comment"`
}

// RejectRequest carries the mandatory rejection reason
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DebitNoteLineResponse is one line in API responses
type DebitNoteLineResponse struct {
	ID            uuid.UUID       `json:"id"`
	ShipmentID    uuid.UUID       `json:"shipment_id"`
	LineNo        int             `json:"line_no"`
	TotalUSD      decimal.Decimal `json:"total_usd"`
	TotalVND      decimal.Decimal `json:"total_vnd"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	GrandTotalVND decimal.Decimal `json:"grand_total_vnd"`
	FreightUSD    decimal.Decimal `json:"freight_usd"`
	LocalUSD      decimal.Decimal `json:"local_usd"`
	PayOnBehalf   decimal.Decimal `json:"pay_on_behalf"`
}

// WorkflowEventResponse is one audit entry in API responses
type WorkflowEventResponse struct {
	ID         uuid.UUID `json:"id"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// DebitNoteResponse represents a debit note in API responses
type DebitNoteResponse struct {
	ID              uuid.UUID               `json:"id"`
	Number          string                  `json:"number"`
	ClientID        uuid.UUID               `json:"client_id"`
	PeriodFrom      time.Time               `json:"period_from"`
	PeriodTo        time.Time               `json:"period_to"`
	BillingDate     time.Time               `json:"billing_date"`
	ExchangeRate    decimal.Decimal         `json:"exchange_rate"`
	TotalUSD        decimal.Decimal         `json:"total_usd"`
	TotalVND        decimal.Decimal         `json:"total_vnd"`
	TotalVAT        decimal.Decimal         `json:"total_vat"`
	GrandTotalVND   decimal.Decimal         `json:"grand_total_vnd"`
	Status          string                  `json:"status"`
	SheetScope      string                  `json:"sheet_scope"`
	CreatedBy       uuid.UUID               `json:"created_by"`
	ApprovedBy      *uuid.UUID              `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time              `json:"approved_at,omitempty"`
	RejectionReason string                  `json:"rejection_reason,omitempty"`
	TotalLines      int                     `json:"total_lines"`
	Notes           string                  `json:"notes,omitempty"`
	Lines           []DebitNoteLineResponse `json:"lines,omitempty"`
	Events          []WorkflowEventResponse `json:"events,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// DebitNoteListFilter defines filtering options for debit note listings
type DebitNoteListFilter struct {
	ClientID *uuid.UUID `form:"client_id"`
	Status   string     `form:"status"`
	From     *time.Time `form:"from"`
	To       *time.Time `form:"to"`
	Limit    int        `form:"limit"`
	Offset   int        `form:"offset"`
}

// Create assembles a DRAFT debit note from the client's billable
// shipments in the period. Each covered shipment is claimed (BILLED)
// and its totals are snapshotted into an immutable line.
func (s *DebitNoteService) Create(ctx context.Context, req CreateDebitNoteRequest) (*DebitNoteResponse, error) {
	if req.CreatedBy == nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Creator cannot be empty")
	}
	if _, err := s.clientRepo.FindByID(ctx, req.ClientID); err != nil {
		return nil, err
	}

	scope := billing.SheetScope(req.SheetScope)
	if req.SheetScope == "" {
		scope = billing.SheetScopeAll
	}

	shipments, err := s.shipmentRepo.FindBillable(ctx, req.ClientID, req.PeriodFrom, req.PeriodTo, scopeDirection(scope))
	if err != nil {
		return nil, err
	}
	if len(shipments) == 0 {
		return nil, shared.NewDomainError("NO_BILLABLE_SHIPMENTS",
			"No billable shipments found for the client in the given period")
	}

	catalog, err := s.feeCatalog(ctx)
	if err != nil {
		return nil, err
	}

	dn, err := billing.NewDebitNote(req.ClientID, req.PeriodFrom, req.PeriodTo, req.ExchangeRate, scope, *req.CreatedBy, req.Notes)
	if err != nil {
		return nil, err
	}
	for i := range shipments {
		totals, err := s.aggregator.Aggregate(shipments[i].FeeDetails, catalog, req.ExchangeRate)
		if err != nil {
			return nil, err
		}
		if _, err := dn.AddLine(shipments[i].ID, totals); err != nil {
			return nil, err
		}
	}

	for i := range shipments {
		if err := shipments[i].MarkBilled(); err != nil {
			return nil, err
		}
	}

	if err := s.saveWithNumber(ctx, dn, shipments); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("debit note assembled",
		zap.String("number", dn.Number),
		zap.String("client_id", dn.ClientID.String()),
		zap.Int("lines", dn.TotalLines))

	return toDebitNoteResponse(dn), nil
}

// saveWithNumber assigns the next sequential number and persists the
// note together with its claimed shipments in one transaction, retrying
// on a number collision. Each attempt is its own transaction because a
// unique violation aborts the one it happened in.
func (s *DebitNoteService) saveWithNumber(ctx context.Context, dn *billing.DebitNote, shipments []shipment.Shipment) error {
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			seq, seqErr := repos.DebitNotes().NextSequence(ctx, dn.BillingDate)
			if seqErr != nil {
				return seqErr
			}
			dn.Number = billing.NumberFor(seq, dn.BillingDate)

			if saveErr := repos.DebitNotes().Save(ctx, dn); saveErr != nil {
				return saveErr
			}
			for i := range shipments {
				if saveErr := repos.Shipments().Save(ctx, &shipments[i]); saveErr != nil {
					return saveErr
				}
			}
			return nil
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return err
		}
	}
	return err
}

// Get retrieves a debit note with its lines and workflow history
func (s *DebitNoteService) Get(ctx context.Context, id uuid.UUID) (*DebitNoteResponse, error) {
	dn, err := s.debitNoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDebitNoteResponse(dn), nil
}

// WorkflowHistory returns the audit trail of a debit note
func (s *DebitNoteService) WorkflowHistory(ctx context.Context, id uuid.UUID) ([]WorkflowEventResponse, error) {
	dn, err := s.debitNoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDebitNoteResponse(dn).Events, nil
}

// GetByNumber retrieves a debit note by its document number
func (s *DebitNoteService) GetByNumber(ctx context.Context, number string) (*DebitNoteResponse, error) {
	dn, err := s.debitNoteRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return toDebitNoteResponse(dn), nil
}

// List retrieves debit notes matching the filter
func (s *DebitNoteService) List(ctx context.Context, filter DebitNoteListFilter) ([]DebitNoteResponse, int64, error) {
	domainFilter := billing.DebitNoteFilter{
		ClientID: filter.ClientID,
		From:     filter.From,
		To:       filter.To,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	if filter.Status != "" {
		st := billing.DebitNoteStatus(filter.Status)
		domainFilter.Status = &st
	}

	notes, total, err := s.debitNoteRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]DebitNoteResponse, len(notes))
	for i, dn := range notes {
		r := toDebitNoteResponse(dn)
		r.Lines = nil // listings stay light
		r.Events = nil
		responses[i] = *r
	}
	return responses, total, nil
}

// Submit moves a debit note into review
func (s *DebitNoteService) Submit(ctx context.Context, id, actor uuid.UUID, req WorkflowRequest) (*DebitNoteResponse, error) {
	return s.applyTransition(ctx, id, func(dn *billing.DebitNote) error {
		return dn.Submit(actor, req.Comment)
	})
}

// Approve clears a debit note for export. The approver must differ
// from the creator.
func (s *DebitNoteService) Approve(ctx context.Context, id, actor uuid.UUID, req WorkflowRequest) (*DebitNoteResponse, error) {
	return s.applyTransition(ctx, id, func(dn *billing.DebitNote) error {
		return dn.Approve(actor, req.Comment)
	})
}

// Reject sends a debit note back with a reason and releases its
// shipments so they can be billed again
func (s *DebitNoteService) Reject(ctx context.Context, id, actor uuid.UUID, req RejectRequest) (*DebitNoteResponse, error) {
	dn, err := s.debitNoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := dn.Reject(actor, req.Reason); err != nil {
		return nil, err
	}

	shipments, err := s.shipmentRepo.FindByIDs(ctx, dn.ShipmentIDs())
	if err != nil {
		return nil, err
	}
	for i := range shipments {
		if err := shipments[i].Release(); err != nil {
			return nil, err
		}
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.DebitNotes().Save(ctx, dn); err != nil {
			return err
		}
		for i := range shipments {
			if err := repos.Shipments().Save(ctx, &shipments[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("debit note rejected",
		zap.String("number", dn.Number),
		zap.Int("released_shipments", len(shipments)))

	return toDebitNoteResponse(dn), nil
}

func (s *DebitNoteService) applyTransition(ctx context.Context, id uuid.UUID, transition func(*billing.DebitNote) error) (*DebitNoteResponse, error) {
	dn, err := s.debitNoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transition(dn); err != nil {
		return nil, err
	}
	if err := s.debitNoteRepo.Save(ctx, dn); err != nil {
		return nil, err
	}
	return toDebitNoteResponse(dn), nil
}

func (s *DebitNoteService) feeCatalog(ctx context.Context) (map[uuid.UUID]*fee.Item, error) {
	items, err := s.feeItemRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}
	catalog := make(map[uuid.UUID]*fee.Item, len(items))
	for i := range items {
		catalog[items[i].ID] = &items[i]
	}
	return catalog, nil
}

// scopeDirection maps a sheet scope to the shipment direction filter;
// ALL covers both directions
func scopeDirection(scope billing.SheetScope) *shipment.Direction {
	switch scope {
	case billing.SheetScopeImport:
		d := shipment.DirectionImport
		return &d
	case billing.SheetScopeExport:
		d := shipment.DirectionExport
		return &d
	}
	return nil
}

func toDebitNoteResponse(dn *billing.DebitNote) *DebitNoteResponse {
	lines := make([]DebitNoteLineResponse, len(dn.Lines))
	for i, l := range dn.Lines {
		lines[i] = DebitNoteLineResponse{
			ID:            l.ID,
			ShipmentID:    l.ShipmentID,
			LineNo:        l.LineNo,
			TotalUSD:      l.TotalUSD,
			TotalVND:      l.TotalVND,
			VATAmount:     l.VATAmount,
			GrandTotalVND: l.GrandTotalVND,
			FreightUSD:    l.FreightUSD,
			LocalUSD:      l.LocalUSD,
			PayOnBehalf:   l.PayOnBehalf,
		}
	}
	events := make([]WorkflowEventResponse, len(dn.Events))
	for i, e := range dn.Events {
		events[i] = WorkflowEventResponse{
			ID:         e.ID,
			Action:     string(e.Action),
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			ActorID:    e.ActorID,
			Comment:    e.Comment,
			CreatedAt:  e.CreatedAt,
		}
	}
	return &DebitNoteResponse{
		ID:              dn.ID,
		Number:          dn.Number,
		ClientID:        dn.ClientID,
		PeriodFrom:      dn.PeriodFrom,
		PeriodTo:        dn.PeriodTo,
		BillingDate:     dn.BillingDate,
		ExchangeRate:    dn.ExchangeRate,
		TotalUSD:        dn.TotalUSD,
		TotalVND:        dn.TotalVND,
		TotalVAT:        dn.TotalVAT,
		GrandTotalVND:   dn.GrandTotalVND,
		Status:          string(dn.Status),
		SheetScope:      string(dn.SheetScope),
		CreatedBy:       dn.CreatedBy,
		ApprovedBy:      dn.ApprovedBy,
		ApprovedAt:      dn.ApprovedAt,
		RejectionReason: dn.RejectionReason,
		TotalLines:      dn.TotalLines,
		Notes:           dn.Notes,
		Lines:           lines,
		Events:          events,
		CreatedAt:       dn.CreatedAt,
		UpdatedAt:       dn.UpdatedAt,
	}
}
