package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/stonefin/ledger-engine/internal/apperrors"
	"github.com/stonefin/ledger-engine/internal/core/domain"
	portssvc "github.com/stonefin/ledger-engine/internal/core/ports/services"
	"github.com/stonefin/ledger-engine/internal/dto"
	"github.com/stonefin/ledger-engine/internal/handlers"
	"github.com/stonefin/ledger-engine/internal/middleware"
	"github.com/stonefin/ledger-engine/pkg/config"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountService = (*MockAccountService)(nil)

func (m *MockAccountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) GetAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, decimal.Zero, args.Error(2)
	}
	return args.Get(0).(*domain.Account), args.Get(1).(decimal.Decimal), args.Error(2)
}
func (m *MockAccountService) GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tenantID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}
func (m *MockAccountService) ListAccounts(ctx context.Context, tenantID string, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error) {
	args := m.Called(ctx, tenantID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListAccountsResponse), args.Error(1)
}
func (m *MockAccountService) CloseAccount(ctx context.Context, tenantID, accountID string, force bool) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// --- Mock PostingService ---
type MockPostingService struct {
	mock.Mock
}

var _ portssvc.PostingService = (*MockPostingService)(nil)

func (m *MockPostingService) PostTransaction(ctx context.Context, tenantID string, req dto.PostTransactionRequest) (*domain.Journal, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}
func (m *MockPostingService) ReverseTransaction(ctx context.Context, tenantID, journalID string, req dto.ReverseTransactionRequest) (*domain.Journal, error) {
	args := m.Called(ctx, tenantID, journalID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}
func (m *MockPostingService) GetTransaction(ctx context.Context, tenantID, journalID string) (*domain.Journal, error) {
	args := m.Called(ctx, tenantID, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}
func (m *MockPostingService) ListTransactions(ctx context.Context, tenantID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	args := m.Called(ctx, tenantID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListTransactionsResponse), args.Error(1)
}

// --- Mock ReportingService ---
type MockReportingService struct {
	mock.Mock
}

var _ portssvc.ReportingService = (*MockReportingService)(nil)

func (m *MockReportingService) GetBalance(ctx context.Context, tenantID, accountID string, asOf *time.Time) (*dto.BalanceResponse, error) {
	args := m.Called(ctx, tenantID, accountID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BalanceResponse), args.Error(1)
}
func (m *MockReportingService) GetStatement(ctx context.Context, tenantID, accountID string, start, end time.Time) (*domain.Statement, error) {
	args := m.Called(ctx, tenantID, accountID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statement), args.Error(1)
}

// --- Test Suite Setup ---
type HandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	mockAccountSvc   *MockAccountService
	mockPostingSvc   *MockPostingService
	mockReportingSvc *MockReportingService
	tenantID         string
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.mockAccountSvc = new(MockAccountService)
	suite.mockPostingSvc = new(MockPostingService)
	suite.mockReportingSvc = new(MockReportingService)
	suite.tenantID = uuid.NewString()

	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, &config.Config{IsProduction: true}, &portssvc.ServiceContainer{
		Account:   suite.mockAccountSvc,
		Posting:   suite.mockPostingSvc,
		Reporting: suite.mockReportingSvc,
	})
}

func (suite *HandlerTestSuite) request(method, path string, body interface{}, withTenant bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if withTenant {
		req.Header.Set(middleware.TenantHeader, suite.tenantID)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *HandlerTestSuite) TestCreateAccount_Created() {
	account := &domain.Account{
		AccountID:   uuid.NewString(),
		TenantID:    suite.tenantID,
		AccountType: domain.Asset,
		AccountCode: "1000-CASH",
		Currency:    "USD",
		CreatedAt:   time.Now().UTC(),
	}
	suite.mockAccountSvc.On("CreateAccount", mock.Anything, suite.tenantID, mock.AnythingOfType("dto.CreateAccountRequest")).
		Return(account, nil).Once()

	w := suite.request(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{
		AccountType: domain.Asset,
		AccountCode: "1000-CASH",
		Currency:    "USD",
	}, true)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(account.AccountID, resp.AccountID)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestCreateAccount_MissingTenantHeader() {
	w := suite.request(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{
		AccountType: domain.Asset,
		AccountCode: "1000-CASH",
		Currency:    "USD",
	}, false)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestCreateAccount_InvalidTypeRejectedByBinding() {
	w := suite.request(http.MethodPost, "/api/v1/accounts", map[string]interface{}{
		"accountType": "SAVINGS",
		"accountCode": "1000",
		"currency":    "USD",
	}, true)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestGetAccount_ReturnsBalance() {
	account := &domain.Account{
		AccountID:   uuid.NewString(),
		TenantID:    suite.tenantID,
		AccountType: domain.Asset,
		AccountCode: "1000-CASH",
		Currency:    "USD",
	}
	suite.mockAccountSvc.On("GetAccount", mock.Anything, suite.tenantID, account.AccountID).
		Return(account, decimal.RequireFromString("123.45"), nil).Once()

	w := suite.request(http.MethodGet, "/api/v1/accounts/"+account.AccountID, nil, true)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().NotNil(resp.Balance)
	suite.True(resp.Balance.Equal(decimal.RequireFromString("123.45")))
}

func (suite *HandlerTestSuite) TestGetAccount_NotFound() {
	accountID := uuid.NewString()
	suite.mockAccountSvc.On("GetAccount", mock.Anything, suite.tenantID, accountID).
		Return(nil, decimal.Zero, apperrors.ErrNotFound).Once()

	w := suite.request(http.MethodGet, "/api/v1/accounts/"+accountID, nil, true)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestCloseAccount_NonzeroBalance() {
	accountID := uuid.NewString()
	suite.mockAccountSvc.On("CloseAccount", mock.Anything, suite.tenantID, accountID, false).
		Return(nil, apperrors.ErrFailedPrecondition).Once()

	w := suite.request(http.MethodPost, "/api/v1/accounts/"+accountID+"/close", dto.CloseAccountRequest{}, true)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlerTestSuite) TestPostTransaction_Created() {
	journalID := uuid.NewString()
	journal := &domain.Journal{
		JournalID:     journalID,
		TenantID:      suite.tenantID,
		EffectiveDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		TotalDebit:    decimal.NewFromInt(100),
		TotalCredit:   decimal.NewFromInt(100),
	}
	suite.mockPostingSvc.On("PostTransaction", mock.Anything, suite.tenantID, mock.AnythingOfType("dto.PostTransactionRequest")).
		Return(journal, nil).Once()

	w := suite.request(http.MethodPost, "/api/v1/transactions", dto.PostTransactionRequest{
		Lines: []dto.TransactionLine{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(100), Direction: domain.Debit},
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(100), Direction: domain.Credit},
		},
		EffectiveDate: "2026-03-15",
		Currency:      "USD",
	}, true)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.JournalResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(journalID, resp.JournalID)
}

func (suite *HandlerTestSuite) TestPostTransaction_SingleLineRejectedByBinding() {
	w := suite.request(http.MethodPost, "/api/v1/transactions", dto.PostTransactionRequest{
		Lines: []dto.TransactionLine{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(100), Direction: domain.Debit},
		},
		EffectiveDate: "2026-03-15",
		Currency:      "USD",
	}, true)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockPostingSvc.AssertNotCalled(suite.T(), "PostTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestPostTransaction_UnbalancedMapsTo400() {
	suite.mockPostingSvc.On("PostTransaction", mock.Anything, suite.tenantID, mock.AnythingOfType("dto.PostTransactionRequest")).
		Return(nil, apperrors.ErrValidation).Once()

	w := suite.request(http.MethodPost, "/api/v1/transactions", dto.PostTransactionRequest{
		Lines: []dto.TransactionLine{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(100), Direction: domain.Debit},
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(99), Direction: domain.Credit},
		},
		EffectiveDate: "2026-03-15",
		Currency:      "USD",
	}, true)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestReverseTransaction_ConflictMapsTo409() {
	journalID := uuid.NewString()
	suite.mockPostingSvc.On("ReverseTransaction", mock.Anything, suite.tenantID, journalID, mock.AnythingOfType("dto.ReverseTransactionRequest")).
		Return(nil, apperrors.ErrConflict).Once()

	w := suite.request(http.MethodPost, "/api/v1/transactions/"+journalID+"/reverse", dto.ReverseTransactionRequest{}, true)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestGetBalance_OK() {
	accountID := uuid.NewString()
	suite.mockReportingSvc.On("GetBalance", mock.Anything, suite.tenantID, accountID, (*time.Time)(nil)).
		Return(&dto.BalanceResponse{AccountID: accountID, Currency: "USD", Balance: decimal.NewFromInt(70)}, nil).Once()

	w := suite.request(http.MethodGet, "/api/v1/accounts/"+accountID+"/balance", nil, true)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.BalanceResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Balance.Equal(decimal.NewFromInt(70)))
}

func (suite *HandlerTestSuite) TestGetStatement_MissingDatesRejected() {
	accountID := uuid.NewString()

	w := suite.request(http.MethodGet, "/api/v1/accounts/"+accountID+"/statement", nil, true)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockReportingSvc.AssertNotCalled(suite.T(), "GetStatement", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestGetStatement_OK() {
	accountID := uuid.NewString()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	statement := &domain.Statement{
		AccountID:      accountID,
		StartDate:      start,
		EndDate:        end,
		OpeningBalance: decimal.NewFromInt(100),
		ClosingBalance: decimal.NewFromInt(100),
	}
	suite.mockReportingSvc.On("GetStatement", mock.Anything, suite.tenantID, accountID, start, end).
		Return(statement, nil).Once()

	w := suite.request(http.MethodGet, "/api/v1/accounts/"+accountID+"/statement?startDate=2026-03-01&endDate=2026-03-31", nil, true)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.StatementResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("2026-03-01", resp.StartDate)
	suite.True(resp.OpeningBalance.Equal(resp.ClosingBalance))
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
