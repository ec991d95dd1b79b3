package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"captable/internal/events"
	"captable/internal/handlers"
	"captable/internal/logger"
	"captable/internal/middleware"
	"captable/internal/models"
	"captable/internal/services"
	"captable/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB         *gorm.DB
	Router     *gin.Engine
	Dispatcher *events.Dispatcher
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Company{},
		&models.Shareholder{},
		&models.ShareClass{},
		&models.Shareholding{},
		&models.Transaction{},
		&models.Settlement{},
		&models.OptionGrant{},
		&models.CapTableSnapshot{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	dispatcher := events.NewDispatcher()
	companyService := services.NewCompanyService(db)
	shareholderService := services.NewShareholderService(db, companyService)
	shareClassService := services.NewShareClassService(db, companyService)
	capTableService := services.NewCapTableService(db, companyService)
	transactionService := services.NewTransactionService(db, companyService, capTableService, dispatcher)
	optionGrantService := services.NewOptionGrantService(db, companyService)
	snapshotService := services.NewSnapshotService(db, companyService)
	auditService := services.NewAuditService(db)

	dispatcher.Subscribe(events.TransactionConfirmed, snapshotService.HandleTransactionConfirmed)

	// Handlers
	companyHandler := handlers.NewCompanyHandler(companyService, auditService)
	shareholderHandler := handlers.NewShareholderHandler(shareholderService, auditService)
	shareClassHandler := handlers.NewShareClassHandler(shareClassService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	capTableHandler := handlers.NewCapTableHandler(capTableService, auditService)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService, auditService)
	optionGrantHandler := handlers.NewOptionGrantHandler(optionGrantService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware())

	companies := v1.Group("/companies")
	companies.POST("", companyHandler.CreateCompany)
	companies.GET("/:companyId", companyHandler.GetCompany)
	companies.PATCH("/:companyId/status", companyHandler.UpdateCompanyStatus)

	shareholders := companies.Group("/:companyId/shareholders")
	shareholders.POST("", shareholderHandler.CreateShareholder)
	shareholders.GET("", shareholderHandler.GetShareholders)
	shareholders.GET("/:id", shareholderHandler.GetShareholderByID)
	shareholders.PATCH("/:id/status", shareholderHandler.UpdateShareholderStatus)

	shareClasses := companies.Group("/:companyId/share-classes")
	shareClasses.POST("", shareClassHandler.CreateShareClass)
	shareClasses.GET("", shareClassHandler.GetShareClasses)
	shareClasses.GET("/:id", shareClassHandler.GetShareClassByID)

	transactions := companies.Group("/:companyId/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.POST("/:id/submit", transactionHandler.SubmitTransaction)
	transactions.POST("/:id/approve", transactionHandler.ApproveTransaction)
	transactions.POST("/:id/confirm", transactionHandler.ConfirmTransaction)
	transactions.POST("/:id/cancel", transactionHandler.CancelTransaction)

	capTable := companies.Group("/:companyId/cap-table")
	capTable.GET("", capTableHandler.GetCapTable)
	capTable.GET("/fully-diluted", capTableHandler.GetFullyDiluted)
	capTable.GET("/export", capTableHandler.ExportCapTable)
	capTable.GET("/concentration", capTableHandler.GetConcentrationReport)

	snapshots := companies.Group("/:companyId/snapshots")
	snapshots.POST("", snapshotHandler.CreateSnapshot)
	snapshots.GET("", snapshotHandler.GetSnapshots)
	snapshots.GET("/at", snapshotHandler.GetSnapshotAtDate)
	snapshots.GET("/timeline", snapshotHandler.GetDilutionTimeline)

	grants := companies.Group("/:companyId/grants")
	grants.POST("", optionGrantHandler.CreateGrant)
	grants.GET("", optionGrantHandler.GetGrants)
	grants.GET("/:id/vesting", optionGrantHandler.GetVestingSummary)
	grants.POST("/:id/exercise", optionGrantHandler.ExerciseGrant)

	return &testApp{DB: db, Router: router, Dispatcher: dispatcher}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

const actingUserID = "0198b000-0000-7000-8000-00000000000a"

// authToken issues a valid access token for the acting user.
func authToken(t *testing.T) string {
	t.Helper()
	token, err := middleware.GenerateAccessToken(actingUserID, "admin@test.com")
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	return token
}

// createCompany creates a company through the API and returns its ID.
func (app *testApp) createCompany(t *testing.T, token string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/companies",
		`{"name":"Acme Inc","legal_name":"Acme Incorporated","country_code":"US"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create company failed: %d %s", rec.Code, rec.Body.String())
	}
	company := parseJSON(t, rec)["company"].(map[string]interface{})
	return company["id"].(string)
}

// createShareholder creates a shareholder through the API and returns its ID.
func (app *testApp) createShareholder(t *testing.T, token, companyID, name string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"kind":"individual","email":"holder@test.com","country_code":"US","tax_id":"TAX-12345678"}`, name)
	rec := app.request("POST", "/api/v1/companies/"+companyID+"/shareholders", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create shareholder failed: %d %s", rec.Code, rec.Body.String())
	}
	holder := parseJSON(t, rec)["shareholder"].(map[string]interface{})
	return holder["id"].(string)
}

// createShareClass creates a common share class through the API and returns its ID.
func (app *testApp) createShareClass(t *testing.T, token, companyID, name, authorized string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"kind":"common","votes_per_share":"1","total_authorized":%q}`, name, authorized)
	rec := app.request("POST", "/api/v1/companies/"+companyID+"/share-classes", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create share class failed: %d %s", rec.Code, rec.Body.String())
	}
	class := parseJSON(t, rec)["share_class"].(map[string]interface{})
	return class["id"].(string)
}

// confirmIssuance creates, submits, and confirms an issuance and returns the
// transaction ID.
func (app *testApp) confirmIssuance(t *testing.T, token, companyID, shareholderID, classID, quantity string) string {
	t.Helper()

	base := "/api/v1/companies/" + companyID + "/transactions"
	body := fmt.Sprintf(`{"type":"ISSUANCE","to_shareholder_id":%q,"share_class_id":%q,"quantity":%q}`,
		shareholderID, classID, quantity)
	rec := app.request("POST", base, body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create issuance failed: %d %s", rec.Code, rec.Body.String())
	}
	txn := parseJSON(t, rec)["transaction"].(map[string]interface{})
	txnID := txn["id"].(string)

	for _, step := range []string{"submit", "confirm"} {
		rec = app.request("POST", base+"/"+txnID+"/"+step, "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s issuance failed: %d %s", step, rec.Code, rec.Body.String())
		}
	}
	return txnID
}
