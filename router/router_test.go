package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/api"
	"fintrack/config"
	"fintrack/database"
	"fintrack/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "router.db"), LogLevel: "silent"},
		JWT:      config.JWTConfig{Secret: "router-test-secret", ExpireTime: time.Hour},
	}

	db, err := database.Open(cfg.Database)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedSystemCategories(db, "Transferência"))

	oldDB := database.DB
	database.DB = db
	middleware.InitJWT(cfg)
	t.Cleanup(func() {
		database.DB = oldDB
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return &testServer{t: t, engine: SetupRouter(testContext(t), cfg)}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) decode(w *httptest.ResponseRecorder, v interface{}) {
	s.t.Helper()
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// signup 注册并登录，返回 token
func (s *testServer) signup(email string) string {
	s.t.Helper()
	w := s.do("POST", "/auth/register", "", gin.H{"name": email, "email": email, "password": "password123"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do("POST", "/auth/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp api.LoginResponse
	s.decode(w, &resp)
	return resp.Token
}

func (s *testServer) create(path, token string, body gin.H) uint {
	s.t.Helper()
	w := s.do("POST", path, token, body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		ID uint `json:"id"`
	}
	s.decode(w, &resp)
	return resp.ID
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	w := s.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_UnauthorizedProblem(t *testing.T) {
	s := newTestServer(t)

	w := s.do("GET", "/accounts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, api.ProblemContentType, w.Header().Get("Content-Type"))
	var p api.Problem
	s.decode(w, &p)
	assert.Equal(t, 401, p.Status)
	assert.Equal(t, "Unauthorized", p.Title)
	assert.Equal(t, "/accounts", p.Instance)

	w = s.do("GET", "/accounts", "not-a-token", nil)
	s.decode(w, &p)
	assert.Equal(t, "invalid or expired token", p.Detail)
}

func TestRouter_PasswordResetRateLimited(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"email": "ana@example.com", "code": "123456", "newPassword": "newpass1"}

	for i := 0; i < 10; i++ {
		w := s.do("POST", "/auth/password/reset", "", body)
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	}
	w := s.do("POST", "/auth/password/reset", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	var p api.Problem
	s.decode(w, &p)
	assert.Equal(t, "too many reset attempts, try again later", p.Detail)

	// 登录额度不受影响
	w = s.do("POST", "/auth/login", "", gin.H{"email": "ana@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_NoRoute(t *testing.T) {
	s := newTestServer(t)
	w := s.do("GET", "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var p api.Problem
	s.decode(w, &p)
	assert.Equal(t, "route not found", p.Detail)
}

func TestRouter_LedgerFlow(t *testing.T) {
	s := newTestServer(t)
	ana := s.signup("ana@example.com")
	bob := s.signup("bob@example.com")

	contaA := s.create("/accounts", ana, gin.H{"name": "Conta A", "type": "checking", "initialBalance": 1000})
	contaB := s.create("/accounts", ana, gin.H{"name": "Conta B", "type": "savings"})
	salary := s.create("/categories", ana, gin.H{"name": "Salário", "type": "income"})
	food := s.create("/categories", ana, gin.H{"name": "Alimentação", "type": "expense"})
	health := s.create("/categories", bob, gin.H{"name": "Saúde", "type": "expense"})

	// 收入
	w := s.do("POST", "/transactions", ana, gin.H{
		"accountId": contaA, "categoryId": salary, "type": "income", "amount": 4500, "date": "2025-01-05", "description": "Salário janeiro",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var income api.TransactionView
	s.decode(w, &income)
	assert.Equal(t, 4500.0, income.Amount)
	assert.Equal(t, "2025-01-05", income.Date)

	// 转账
	w = s.do("POST", "/transfers", ana, gin.H{"fromAccountId": contaA, "toAccountId": contaB, "amount": 200, "date": "2025-01-08"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var transfer api.TransferView
	s.decode(w, &transfer)
	assert.Equal(t, "expense", string(transfer.FromAccount.Type))
	assert.Equal(t, "income", string(transfer.ToAccount.Type))
	assert.Equal(t, transfer.ID, *transfer.ToAccount.TransferID)

	w = s.do("GET", fmt.Sprintf("/accounts/%d", contaA), ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var acc api.AccountView
	s.decode(w, &acc)
	assert.Equal(t, 5300.0, acc.CurrentBalance)

	// 他人的类别
	w = s.do("GET", fmt.Sprintf("/categories/%d", health), ana, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 类型不匹配的更新
	w = s.do("PUT", fmt.Sprintf("/transactions/%d", income.ID), ana, gin.H{"categoryId": food})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var p api.Problem
	s.decode(w, &p)
	assert.Equal(t, "transaction type must match category type", p.Detail)

	// 分页与总数
	w = s.do("GET", "/transactions?limit=1", ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-Total-Count"))
	var page []api.TransactionView
	s.decode(w, &page)
	assert.Len(t, page, 1)

	w = s.do("GET", "/transactions/summary", ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sum api.SummaryView
	s.decode(w, &sum)
	assert.Equal(t, api.SummaryView{Income: 4700, Expense: 200, Balance: 4500}, sum)

	w = s.do("GET", "/transactions/summary?excludeTransfers=true", ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	s.decode(w, &sum)
	assert.Equal(t, api.SummaryView{Income: 4500, Expense: 0, Balance: 4500}, sum)

	w = s.do("GET", "/transactions/descriptions?q=sal", ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var desc api.DescriptionsView
	s.decode(w, &desc)
	assert.Equal(t, []string{"Salário janeiro"}, desc.Items)

	w = s.do("GET", "/transactions/export?format=csv", ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, 4, strings.Count(w.Body.String(), "\n"))

	// 删除任一转账腿会删除整笔转账
	w = s.do("DELETE", fmt.Sprintf("/transactions/%d", transfer.FromAccount.ID), ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msg api.MessageResponse
	s.decode(w, &msg)
	assert.Equal(t, "transfer removed", msg.Message)

	w = s.do("GET", fmt.Sprintf("/transactions/%d", transfer.ToAccount.ID), ana, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 账户仍有交易时不可删除
	w = s.do("DELETE", fmt.Sprintf("/accounts/%d", contaA), ana, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do("DELETE", fmt.Sprintf("/accounts/%d", contaB), ana, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SystemCategoryVisible(t *testing.T) {
	s := newTestServer(t)
	ana := s.signup("ana@example.com")

	w := s.do("GET", "/categories", ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []struct {
		ID     uint   `json:"id"`
		Name   string `json:"name"`
		System bool   `json:"system"`
	}
	s.decode(w, &list)
	require.Len(t, list, 1)
	assert.True(t, list[0].System)

	w = s.do("DELETE", fmt.Sprintf("/categories/%d", list[0].ID), ana, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do("GET", fmt.Sprintf("/categories/%d/subcategories", list[0].ID), ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
