package shipment

import (
	"context"
	"strings"
	"testing"

	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shared"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	csvimport "github.com/byununivn-max/eximuni-debit-note/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_ImportCSV_Success(t *testing.T) {
	shipmentRepo := new(MockShipmentRepository)
	clientRepo := new(MockClientRepository)
	service := NewService(shipmentRepo, clientRepo)

	ctx := context.Background()
	testClient := newTestClient(t)
	creator := uuid.New()

	clientRepo.On("FindByCode", ctx, "ACME").Return(testClient, nil).Once()
	clientRepo.On("FindByID", ctx, testClient.ID).Return(testClient, nil)
	shipmentRepo.On("FindIdentifierMatches", ctx, testClient.ID, mock.Anything, mock.Anything, mock.Anything).
		Return([]shipment.Shipment{}, nil)
	shipmentRepo.On("Save", ctx, mock.AnythingOfType("*shipment.Shipment")).Return(nil)

	csv := strings.Join([]string{
		"client_code,direction,delivery_date,invoice_no,mbl,hbl,packages,gross_weight",
		"ACME,IMPORT,2026-03-10,INV-001,MBL-100,HBL-100,10,1200.5",
		"ACME,EXPORT,2026-03-12,INV-002,MBL-101,HBL-101,2,80",
	}, "\n")

	summary, err := service.ImportCSV(ctx, strings.NewReader(csv), &creator)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalRows)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, summary.Errors)
	clientRepo.AssertNumberOfCalls(t, "FindByCode", 1)
	shipmentRepo.AssertNumberOfCalls(t, "Save", 2)
}

func TestService_ImportCSV_UnknownClientCode(t *testing.T) {
	shipmentRepo := new(MockShipmentRepository)
	clientRepo := new(MockClientRepository)
	service := NewService(shipmentRepo, clientRepo)

	ctx := context.Background()
	clientRepo.On("FindByCode", ctx, "GHOST").Return(nil, shared.ErrNotFound)

	csv := "client_code,direction\nGHOST,IMPORT\n"
	summary, err := service.ImportCSV(ctx, strings.NewReader(csv), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalRows)
	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, csvimport.ErrCodeImportReferenceNotFound, summary.Errors[0].Code)
	shipmentRepo.AssertNotCalled(t, "Save")
}

func TestService_ImportCSV_MixedRows(t *testing.T) {
	shipmentRepo := new(MockShipmentRepository)
	clientRepo := new(MockClientRepository)
	service := NewService(shipmentRepo, clientRepo)

	ctx := context.Background()
	testClient := newTestClient(t)

	clientRepo.On("FindByCode", ctx, "ACME").Return(testClient, nil)
	clientRepo.On("FindByID", ctx, testClient.ID).Return(testClient, nil)
	shipmentRepo.On("FindIdentifierMatches", ctx, testClient.ID, mock.Anything, mock.Anything, mock.Anything).
		Return([]shipment.Shipment{}, nil)
	shipmentRepo.On("Save", ctx, mock.AnythingOfType("*shipment.Shipment")).Return(nil)

	csv := strings.Join([]string{
		"client_code,direction,packages",
		"ACME,IMPORT,5",
		"ACME,SIDEWAYS,5",
		"ACME,EXPORT,not-a-number",
	}, "\n")

	summary, err := service.ImportCSV(ctx, strings.NewReader(csv), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalRows)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, summary.Errors, 2)
	shipmentRepo.AssertNumberOfCalls(t, "Save", 1)
}

func TestService_ImportCSV_CountsDuplicates(t *testing.T) {
	shipmentRepo := new(MockShipmentRepository)
	clientRepo := new(MockClientRepository)
	service := NewService(shipmentRepo, clientRepo)

	ctx := context.Background()
	testClient := newTestClient(t)

	existing, err := shipment.NewShipment(testClient.ID, shipment.DirectionImport, nil)
	require.NoError(t, err)
	existing.HBL = "HBL-DUP"

	clientRepo.On("FindByCode", ctx, "ACME").Return(testClient, nil)
	clientRepo.On("FindByID", ctx, testClient.ID).Return(testClient, nil)
	shipmentRepo.On("FindIdentifierMatches", ctx, testClient.ID, shipment.FieldHBL, "HBL-DUP", mock.Anything).
		Return([]shipment.Shipment{*existing}, nil)
	shipmentRepo.On("Save", ctx, mock.AnythingOfType("*shipment.Shipment")).Return(nil)
	shipmentRepo.On("SaveDetection", ctx, mock.AnythingOfType("*shipment.DuplicateDetection")).Return(nil)

	csv := "client_code,direction,hbl\nACME,IMPORT,HBL-DUP\n"
	summary, err := service.ImportCSV(ctx, strings.NewReader(csv), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Duplicates)
}

func TestService_ImportCSV_BadFile(t *testing.T) {
	service := NewService(new(MockShipmentRepository), new(MockClientRepository))

	_, err := service.ImportCSV(context.Background(), strings.NewReader(""), nil)
	assert.ErrorIs(t, err, csvimport.ErrEmptyFile)

	_, err = service.ImportCSV(context.Background(), strings.NewReader("invoice_no\nINV-1\n"), nil)
	assert.ErrorIs(t, err, csvimport.ErrMissingColumns)
}
