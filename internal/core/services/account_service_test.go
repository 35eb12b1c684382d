package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/stonefin/ledger-engine/internal/apperrors"
	"github.com/stonefin/ledger-engine/internal/core/domain"
	portsrepo "github.com/stonefin/ledger-engine/internal/core/ports/repositories"
	portssvc "github.com/stonefin/ledger-engine/internal/core/ports/services"
	"github.com/stonefin/ledger-engine/internal/core/services"
	"github.com/stonefin/ledger-engine/internal/dto"
)

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepository = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tenantID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, params portsrepo.ListAccountsParams) ([]domain.Account, *string, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var nextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		nextToken = &tokenVal
	}
	return args.Get(0).([]domain.Account), nextToken, args.Error(2)
}

func (m *MockAccountRepository) CloseAccount(ctx context.Context, tenantID, accountID string, closedAt time.Time) error {
	args := m.Called(ctx, tenantID, accountID, closedAt)
	return args.Error(0)
}

// --- Test Suite Setup ---
type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockEntryRepo   *MockEntryRepository
	service         portssvc.AccountService
	tenantID        string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockEntryRepo = new(MockEntryRepository)
	suite.service = services.NewAccountService(suite.mockAccountRepo, suite.mockEntryRepo)
	suite.tenantID = uuid.NewString()
}

// --- Test Cases ---

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		AccountType: domain.Asset,
		AccountCode: "1000-CASH",
		Currency:    "usd",
		Metadata:    domain.Metadata{"team": "billing"},
	}

	suite.mockAccountRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, suite.tenantID, req)

	suite.Require().NoError(err)
	suite.NotEmpty(account.AccountID)
	suite.Equal(suite.tenantID, account.TenantID)
	suite.Equal("USD", account.Currency) // normalized
	suite.True(account.IsOpen())
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_InvalidType() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{AccountType: "SAVINGS", AccountCode: "X", Currency: "USD"}

	_, err := suite.service.CreateAccount(ctx, suite.tenantID, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_InvalidCurrency() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{AccountType: domain.Asset, AccountCode: "X", Currency: "DOLLARS"}

	_, err := suite.service.CreateAccount(ctx, suite.tenantID, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DuplicateCode() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{AccountType: domain.Asset, AccountCode: "1000-CASH", Currency: "USD"}

	suite.mockAccountRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).
		Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.CreateAccount(ctx, suite.tenantID, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AccountServiceTestSuite) TestGetAccount_DerivesBalance() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:   uuid.NewString(),
		TenantID:    suite.tenantID,
		AccountType: domain.Liability,
		Currency:    "USD",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, account.AccountID).Return(account, nil).Once()
	// Liability: balance = credits - debits.
	suite.mockEntryRepo.On("SumAccountEntries", ctx, suite.tenantID, account.AccountID, (*time.Time)(nil)).
		Return(decimal.NewFromInt(30), decimal.NewFromInt(100), nil).Once()

	got, balance, err := suite.service.GetAccount(ctx, suite.tenantID, account.AccountID)

	suite.Require().NoError(err)
	suite.Equal(account.AccountID, got.AccountID)
	suite.True(balance.Equal(decimal.NewFromInt(70)))
}

func (suite *AccountServiceTestSuite) TestGetAccount_NotFound() {
	ctx := context.Background()
	accountID := uuid.NewString()
	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, accountID).
		Return(nil, apperrors.ErrNotFound).Once()

	_, _, err := suite.service.GetAccount(ctx, suite.tenantID, accountID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "SumAccountEntries", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCloseAccount_Success() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:   uuid.NewString(),
		TenantID:    suite.tenantID,
		AccountType: domain.Asset,
		Currency:    "USD",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, account.AccountID).Return(account, nil).Once()
	suite.mockEntryRepo.On("SumAccountEntries", ctx, suite.tenantID, account.AccountID, (*time.Time)(nil)).
		Return(decimal.NewFromInt(500), decimal.NewFromInt(500), nil).Once()
	suite.mockAccountRepo.On("CloseAccount", ctx, suite.tenantID, account.AccountID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	closed, err := suite.service.CloseAccount(ctx, suite.tenantID, account.AccountID, false)

	suite.Require().NoError(err)
	suite.NotNil(closed.ClosedAt)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCloseAccount_NonzeroBalanceRejected() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:   uuid.NewString(),
		TenantID:    suite.tenantID,
		AccountType: domain.Asset,
		Currency:    "USD",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, account.AccountID).Return(account, nil).Once()
	suite.mockEntryRepo.On("SumAccountEntries", ctx, suite.tenantID, account.AccountID, (*time.Time)(nil)).
		Return(decimal.NewFromInt(500), decimal.NewFromInt(300), nil).Once()

	_, err := suite.service.CloseAccount(ctx, suite.tenantID, account.AccountID, false)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrFailedPrecondition)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "CloseAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCloseAccount_ForceOverridesBalance() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:   uuid.NewString(),
		TenantID:    suite.tenantID,
		AccountType: domain.Asset,
		Currency:    "USD",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, account.AccountID).Return(account, nil).Once()
	suite.mockEntryRepo.On("SumAccountEntries", ctx, suite.tenantID, account.AccountID, (*time.Time)(nil)).
		Return(decimal.NewFromInt(500), decimal.NewFromInt(300), nil).Once()
	suite.mockAccountRepo.On("CloseAccount", ctx, suite.tenantID, account.AccountID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	closed, err := suite.service.CloseAccount(ctx, suite.tenantID, account.AccountID, true)

	suite.Require().NoError(err)
	suite.NotNil(closed.ClosedAt)
}

func (suite *AccountServiceTestSuite) TestCloseAccount_AlreadyClosed() {
	ctx := context.Background()
	closedAt := time.Now().UTC()
	account := &domain.Account{
		AccountID:   uuid.NewString(),
		TenantID:    suite.tenantID,
		AccountType: domain.Asset,
		Currency:    "USD",
		ClosedAt:    &closedAt,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.tenantID, account.AccountID).Return(account, nil).Once()
	suite.mockEntryRepo.On("SumAccountEntries", ctx, suite.tenantID, account.AccountID, (*time.Time)(nil)).
		Return(decimal.Zero, decimal.Zero, nil).Once()

	_, err := suite.service.CloseAccount(ctx, suite.tenantID, account.AccountID, false)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrFailedPrecondition)
}

func (suite *AccountServiceTestSuite) TestListAccounts_PropagatesPage() {
	ctx := context.Background()
	accounts := []domain.Account{
		{AccountID: uuid.NewString(), TenantID: suite.tenantID, AccountType: domain.Asset, Currency: "USD", AccountCode: "1000"},
		{AccountID: uuid.NewString(), TenantID: suite.tenantID, AccountType: domain.Revenue, Currency: "USD", AccountCode: "4000"},
	}

	suite.mockAccountRepo.On("ListAccounts", ctx, mock.AnythingOfType("repositories.ListAccountsParams")).
		Return(accounts, "page-2", nil).Once()

	resp, err := suite.service.ListAccounts(ctx, suite.tenantID, dto.ListAccountsParams{Limit: 20})

	suite.Require().NoError(err)
	suite.Len(resp.Accounts, 2)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal("page-2", *resp.NextToken)
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
