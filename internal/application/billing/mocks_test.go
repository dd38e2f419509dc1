package billing

import (
	"context"
	"io"
	"time"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/client"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/fee"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockDebitNoteRepository is a mock implementation of billing.Repository
type MockDebitNoteRepository struct {
	mock.Mock
}

func (m *MockDebitNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.DebitNote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.DebitNote), args.Error(1)
}

func (m *MockDebitNoteRepository) FindByNumber(ctx context.Context, number string) (*billing.DebitNote, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.DebitNote), args.Error(1)
}

func (m *MockDebitNoteRepository) FindAll(ctx context.Context, filter billing.DebitNoteFilter) ([]*billing.DebitNote, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*billing.DebitNote), args.Get(1).(int64), args.Error(2)
}

func (m *MockDebitNoteRepository) NextSequence(ctx context.Context, at time.Time) (int, error) {
	args := m.Called(ctx, at)
	return args.Int(0), args.Error(1)
}

func (m *MockDebitNoteRepository) Save(ctx context.Context, dn *billing.DebitNote) error {
	args := m.Called(ctx, dn)
	return args.Error(0)
}

// MockExportRecordRepository is a mock implementation of billing.ExportRecordRepository
type MockExportRecordRepository struct {
	mock.Mock
}

func (m *MockExportRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.ExportRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ExportRecord), args.Error(1)
}

func (m *MockExportRecordRepository) FindByDebitNote(ctx context.Context, debitNoteID uuid.UUID) ([]*billing.ExportRecord, error) {
	args := m.Called(ctx, debitNoteID)
	return args.Get(0).([]*billing.ExportRecord), args.Error(1)
}

func (m *MockExportRecordRepository) FindLatestCompleted(ctx context.Context, debitNoteID uuid.UUID) (*billing.ExportRecord, error) {
	args := m.Called(ctx, debitNoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ExportRecord), args.Error(1)
}

func (m *MockExportRecordRepository) Save(ctx context.Context, record *billing.ExportRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockShipmentRepository is a mock implementation of shipment.Repository
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipment.Shipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipment.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindAll(ctx context.Context, filter shipment.Filter) ([]shipment.Shipment, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]shipment.Shipment), args.Get(1).(int64), args.Error(2)
}

func (m *MockShipmentRepository) FindBillable(ctx context.Context, clientID uuid.UUID, from, to time.Time, direction *shipment.Direction) ([]shipment.Shipment, error) {
	args := m.Called(ctx, clientID, from, to, direction)
	return args.Get(0).([]shipment.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]shipment.Shipment, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]shipment.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindIdentifierMatches(ctx context.Context, clientID uuid.UUID, field shipment.IdentifierField, value string, excludeID uuid.UUID) ([]shipment.Shipment, error) {
	args := m.Called(ctx, clientID, field, value, excludeID)
	return args.Get(0).([]shipment.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) Save(ctx context.Context, s *shipment.Shipment) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockShipmentRepository) SaveDetection(ctx context.Context, d *shipment.DuplicateDetection) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

// MockClientRepository is a mock implementation of client.Repository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*client.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Client), args.Error(1)
}

func (m *MockClientRepository) FindByCode(ctx context.Context, code string) (*client.Client, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Client), args.Error(1)
}

func (m *MockClientRepository) FindActiveTemplates(ctx context.Context, clientID uuid.UUID) ([]client.Template, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]client.Template), args.Error(1)
}

func (m *MockClientRepository) FindActiveFeeMappings(ctx context.Context, clientID uuid.UUID, sheetType client.SheetType) ([]client.FeeMapping, error) {
	args := m.Called(ctx, clientID, sheetType)
	return args.Get(0).([]client.FeeMapping), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, c *client.Client) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockClientRepository) SaveTemplate(ctx context.Context, t *client.Template) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// MockFeeItemRepository is a mock implementation of fee.ItemRepository
type MockFeeItemRepository struct {
	mock.Mock
}

func (m *MockFeeItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*fee.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.Item), args.Error(1)
}

func (m *MockFeeItemRepository) FindByCode(ctx context.Context, code string) (*fee.Item, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.Item), args.Error(1)
}

func (m *MockFeeItemRepository) FindAllActive(ctx context.Context) ([]fee.Item, error) {
	args := m.Called(ctx)
	return args.Get(0).([]fee.Item), args.Error(1)
}

func (m *MockFeeItemRepository) Save(ctx context.Context, item *fee.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// MockArtifactStore is a mock implementation of storage.ArtifactStore
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Put(ctx context.Context, key string, content io.Reader) (int64, error) {
	args := m.Called(ctx, key, content)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockArtifactStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockArtifactStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockArtifactStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
