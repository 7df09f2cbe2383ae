package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/swivelcare/swivel-api/internal/config"
	"github.com/swivelcare/swivel-api/internal/database"
	"github.com/swivelcare/swivel-api/internal/handlers"
	"github.com/swivelcare/swivel-api/internal/middleware"
	"github.com/swivelcare/swivel-api/internal/services"
	"github.com/swivelcare/swivel-api/tests/fixtures"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv wires the full stack over an in-memory database, mirroring the
// server's route layout.
type testEnv struct {
	db      database.Database
	router  *gin.Engine
	jwt     *services.JWTService
	staging services.PendingRequestStore
	auth    *services.AuthService
	orgs    *services.OrganizationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gormDB))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	db := database.Wrap(gormDB)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Name: "swivel-api-test"},
		Security: config.SecurityConfig{
			JWTSecret:     "test-jwt-secret-key-long-enough-for-hs256",
			JWTExpiry:     time.Hour,
			RefreshExpiry: 24 * time.Hour,
			VerifyExpiry:  48 * time.Hour,
			BcryptCost:    bcrypt.MinCost,
		},
		Staging: config.StagingConfig{TTL: time.Hour},
	}

	jwtService := services.NewJWTService(cfg.Security.JWTSecret, cfg.Security.JWTExpiry, cfg.Security.RefreshExpiry, cfg.Security.VerifyExpiry)
	staging := services.NewPendingRequestStore(nil, cfg.Staging.TTL)
	authService := services.NewAuthService(db, staging, jwtService, cfg.Security.BcryptCost)
	provisioningService := services.NewProvisioningService(db, staging)
	orgService := services.NewOrganizationService(db)
	formService := services.NewFormConfigService(db)
	clientService := services.NewClientService(db, formService)
	bucketService := services.NewBucketService(db)

	authHandler := handlers.NewAuthHandler(authService, provisioningService, orgService, jwtService, cfg)
	orgHandler := handlers.NewOrganizationHandler(provisioningService, orgService)
	formHandler := handlers.NewFormConfigHandler(formService)
	clientHandler := handlers.NewClientHandler(clientService)
	bucketHandler := handlers.NewBucketHandler(bucketService)
	adminHandler := handlers.NewAdminHandler(orgService)

	jwtMW := middleware.NewJWTMiddleware(jwtService)
	tenantMW := middleware.NewTenantMiddleware(orgService)

	router := gin.New()
	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/resend-verification", authHandler.ResendVerification)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	authed := api.Group("/")
	authed.Use(jwtMW.AuthRequired())
	{
		authed.POST("/create-organization", orgHandler.CreateOrganization)
		authed.GET("/profile", authHandler.GetProfile)
	}

	protected := api.Group("/")
	protected.Use(jwtMW.AuthRequired())
	protected.Use(tenantMW.RequireProfile())
	protected.Use(tenantMW.EnforceTenantIsolation())
	{
		protected.GET("/organization", orgHandler.GetOrganization)
		protected.GET("/form-config", formHandler.GetConfig)
		protected.POST("/form-config", formHandler.SaveConfig)

		clients := protected.Group("/clients")
		{
			clients.POST("", clientHandler.CreateClient)
			clients.GET("", clientHandler.ListClients)
			clients.GET("/:id", clientHandler.GetClient)
			clients.PUT("/:id", clientHandler.UpdateClient)
			clients.DELETE("/:id", clientHandler.DeleteClient)
			clients.POST("/:id/buckets", bucketHandler.CreateBucket)
			clients.GET("/:id/buckets", bucketHandler.ListBuckets)
		}

		buckets := protected.Group("/buckets")
		{
			buckets.GET("/:bucketId", bucketHandler.GetBucket)
			buckets.POST("/:bucketId/transactions", bucketHandler.RecordTransaction)
		}

		admin := protected.Group("/admin")
		admin.Use(jwtMW.AdminRequired())
		{
			admin.GET("/organizations", adminHandler.ListOrganizations)
			admin.GET("/organizations/orphans", adminHandler.ListOrphanOrganizations)
			admin.GET("/users", adminHandler.ListUsers)
		}
	}

	return &testEnv{
		db:      db,
		router:  router,
		jwt:     jwtService,
		staging: staging,
		auth:    authService,
		orgs:    orgService,
	}
}

// do performs an in-process request and decodes the JSON body into a generic
// map.
func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var parsed map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed), "body: %s", rec.Body.String())
	}
	return rec.Code, parsed
}

// provisionedUser creates a verified user with an organization directly in
// the database and returns an access token for it.
func (env *testEnv) provisionedUser(t *testing.T, email, orgName string) (userID, orgID, token string) {
	t.Helper()

	user := fixtures.VerifiedUser(email)
	require.NoError(t, env.db.DB().Create(user).Error)

	org := fixtures.Organization(orgName)
	require.NoError(t, env.db.DB().Create(org).Error)

	profile := fixtures.AdminProfile(user.ID, org.ID)
	require.NoError(t, env.db.DB().Create(profile).Error)

	token, err := env.jwt.GenerateAccessToken(user.ID, org.ID, user.Email, profile.Role)
	require.NoError(t, err)

	return user.ID, org.ID, token
}

// verifiedUserWithoutOrg creates a verified user with no profile and returns
// an access token for it.
func (env *testEnv) verifiedUserWithoutOrg(t *testing.T, email string) (userID, token string) {
	t.Helper()

	user := fixtures.VerifiedUser(email)
	require.NoError(t, env.db.DB().Create(user).Error)

	token, err := env.jwt.GenerateAccessToken(user.ID, "", user.Email, "")
	require.NoError(t, err)

	return user.ID, token
}

func dataField(t *testing.T, body map[string]interface{}, key string) interface{} {
	t.Helper()

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	return data[key]
}
