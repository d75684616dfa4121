package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/middlewares"
	"bitbucket.org/mmdatafocus/orders_backend/models"
	"bitbucket.org/mmdatafocus/orders_backend/models/reports"
	"bitbucket.org/mmdatafocus/orders_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func apiError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorIllegalStatusTransition),
		errors.Is(err, utils.ErrorConflictRetryExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorOverAllocation),
		errors.Is(err, utils.ErrorAllocationTargetMismatch),
		errors.Is(err, utils.ErrorCounterExhausted):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func queryStringPtr(c *gin.Context, name string) *string {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	return &v
}

// bindJSON parses the request body and answers a field->tag error map when
// validation fails.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return false
	}
	return true
}

func queryIntPtr(c *gin.Context, name string) *int {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func signinHandler(c *gin.Context) {
	var input models.SigninInput
	if !bindJSON(c, &input) {
		return
	}
	token, err := models.Signin(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// signoutHandler revokes the presented token; it stays rejected until it
// would have expired on its own.
func signoutHandler(c *gin.Context) {
	token, ok := utils.GetTokenFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := models.Signout(c.Request.Context(), token); err != nil {
		apiError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func meHandler(c *gin.Context) {
	userId, _ := utils.GetUserIdFromContext(c.Request.Context())
	result, err := models.GetUser(c.Request.Context(), userId)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func createUserHandler(c *gin.Context) {
	var input models.NewUser
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.CreateUser(c.Request.Context(), &input)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func createCustomerHandler(c *gin.Context) {
	var input models.NewCustomer
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.CreateCustomer(c.Request.Context(), &input)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func updateCustomerHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewCustomer
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.UpdateCustomer(c.Request.Context(), id, &input)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func deleteCustomerHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.DeleteCustomer(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func getCustomerHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetCustomer(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func listCustomersHandler(c *gin.Context) {
	result, err := models.GetCustomers(c.Request.Context(), queryStringPtr(c, "name"))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func createSupplierHandler(c *gin.Context) {
	var input models.NewSupplier
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.CreateSupplier(c.Request.Context(), &input)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func updateSupplierHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewSupplier
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.UpdateSupplier(c.Request.Context(), id, &input)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func deleteSupplierHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.DeleteSupplier(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func getSupplierHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetSupplier(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func listSuppliersHandler(c *gin.Context) {
	result, err := models.GetSuppliers(c.Request.Context(), queryStringPtr(c, "name"))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func createPartHandler(c *gin.Context) {
	var input models.NewPart
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.CreatePart(c.Request.Context(), &input)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func deletePartHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.DeletePart(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func getPartHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetPart(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func listPartsHandler(c *gin.Context) {
	result, err := models.GetParts(c.Request.Context(), queryIntPtr(c, "supplier_id"), queryStringPtr(c, "name"))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func appendPartPriceHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewPartPrice
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.AppendPartPrice(c.Request.Context(), id, &input)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func latestPartPriceHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.LatestPartPrice(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"price": nil})
		return
	}
	c.JSON(http.StatusOK, result)
}

func createSalesOrderHandler(c *gin.Context) {
	var input models.NewSalesOrder
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.CreateSalesOrder(c.Request.Context(), &input)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func getSalesOrderHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetSalesOrder(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func deleteSalesOrderHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.DeleteSalesOrder(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func listSalesOrdersHandler(c *gin.Context) {
	result, err := models.PaginateSalesOrder(c.Request.Context(),
		queryIntPtr(c, "limit"),
		queryStringPtr(c, "after"),
		queryStringPtr(c, "order_number"),
		queryIntPtr(c, "customer_id"),
		queryIntPtr(c, "created_by"),
		queryStringPtr(c, "status"))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// States are addressed by history index; "latest" is a reserved index. An
// index past the end answers 200 with a null state, not 404.
func getSalesOrderStateHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if c.Param("index") == "latest" {
		result, err := models.GetLatestSalesOrderState(c.Request.Context(), id)
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": result})
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	result, err := models.GetSalesOrderState(c.Request.Context(), id, index)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": result})
}

type appendStateRequest struct {
	Status         string `json:"status" binding:"required"`
	AdditionalInfo string `json:"additional_info"`
}

func appendSalesOrderStateHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input appendStateRequest
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.AppendSalesOrderState(c.Request.Context(), id, input.Status, input.AdditionalInfo)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func applyAllocationHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewSalesOrderState
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.ApplyAllocation(c.Request.Context(), id, &input)
	if err != nil {
		apiError(c, err)
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{
		"sales_order":    result,
		"correlation_id": cid,
	})
}

func revertAllocationHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := models.RevertAllocations(c.Request.Context(), id); err != nil {
		apiError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func createPurchaseOrderHandler(c *gin.Context) {
	var input models.NewPurchaseOrder
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.CreatePurchaseOrder(c.Request.Context(), &input)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func getPurchaseOrderHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func deletePurchaseOrderHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	result, err := models.DeletePurchaseOrder(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func listPurchaseOrdersHandler(c *gin.Context) {
	result, err := models.PaginatePurchaseOrder(c.Request.Context(),
		queryIntPtr(c, "limit"),
		queryStringPtr(c, "after"),
		queryStringPtr(c, "order_number"),
		queryIntPtr(c, "supplier_id"),
		queryIntPtr(c, "created_by"),
		queryStringPtr(c, "status"))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func getPurchaseOrderStateHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if c.Param("index") == "latest" {
		result, err := models.GetLatestPurchaseOrderState(c.Request.Context(), id)
		if err != nil {
			apiError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": result})
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	result, err := models.GetPurchaseOrderState(c.Request.Context(), id, index)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": result})
}

func appendPurchaseOrderStateHandler(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewPurchaseOrderState
	if !bindJSON(c, &input) {
		return
	}
	result, err := models.AppendPurchaseOrderState(c.Request.Context(), id, &input)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func statisticsHandler(c *gin.Context) {
	result, err := models.GetOrderStatistics(c.Request.Context())
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func fulfilledValueHandler(c *gin.Context) {
	total, err := models.SumFulfilledSalesOrderValue(c.Request.Context())
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fulfilled_value": total})
}

func orderValueReportHandler(c *gin.Context) {
	minTotal := decimal.Zero
	if raw := c.Query("min_total"); raw != "" {
		parsed, err := utils.ParseDecimal(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_total must be a decimal"})
			return
		}
		minTotal = parsed
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=orderValue.xlsx")
	if err := reports.WriteOrderValueReport(c.Request.Context(), c.Writer, minTotal); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type outboxReplayRequest struct {
	RecordId int `json:"record_id"`
}

// outboxReplayHandler re-queues a parked outbox row so the dispatcher picks
// it up again.
func outboxReplayHandler(c *gin.Context) {
	var req outboxReplayRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RecordId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record_id is required"})
		return
	}

	db := config.GetDB()
	result := db.WithContext(c.Request.Context()).
		Model(&models.AllocationEventRecord{}).
		Where("id = ? AND publish_status = ?", req.RecordId, models.OutboxPublishStatusFailed).
		Updates(map[string]any{
			"publish_status": models.OutboxPublishStatusPending,
			"attempts":       0,
		})
	if result.Error != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no failed record with that id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"record_id": req.RecordId, "publish_status": models.OutboxPublishStatusPending})
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until the DB is ready, app endpoints answer 503.
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/signin", signinHandler)

	authed := r.Group("/", middlewares.RequireAuth())
	{
		authed.POST("/signout", signoutHandler)
		authed.GET("/me", meHandler)
		authed.POST("/users", createUserHandler)

		authed.POST("/customers", createCustomerHandler)
		authed.PUT("/customers/:id", updateCustomerHandler)
		authed.DELETE("/customers/:id", deleteCustomerHandler)

		authed.POST("/suppliers", createSupplierHandler)
		authed.PUT("/suppliers/:id", updateSupplierHandler)
		authed.DELETE("/suppliers/:id", deleteSupplierHandler)

		authed.POST("/parts", createPartHandler)
		authed.DELETE("/parts/:id", deletePartHandler)
		authed.POST("/parts/:id/prices", appendPartPriceHandler)

		authed.POST("/sales-orders", createSalesOrderHandler)
		authed.DELETE("/sales-orders/:id", deleteSalesOrderHandler)
		authed.POST("/sales-orders/:id/states", appendSalesOrderStateHandler)
		authed.POST("/sales-orders/:id/allocations", applyAllocationHandler)
		authed.DELETE("/sales-orders/:id/allocations", revertAllocationHandler)

		authed.POST("/purchase-orders", createPurchaseOrderHandler)
		authed.DELETE("/purchase-orders/:id", deletePurchaseOrderHandler)
		authed.POST("/purchase-orders/:id/states", appendPurchaseOrderStateHandler)

		authed.POST("/internal/ops/outbox/replay", outboxReplayHandler)
	}

	r.GET("/customers", listCustomersHandler)
	r.GET("/customers/:id", getCustomerHandler)
	r.GET("/suppliers", listSuppliersHandler)
	r.GET("/suppliers/:id", getSupplierHandler)
	r.GET("/parts", listPartsHandler)
	r.GET("/parts/:id", getPartHandler)
	r.GET("/parts/:id/prices/latest", latestPartPriceHandler)
	r.GET("/sales-orders", listSalesOrdersHandler)
	r.GET("/sales-orders/:id", getSalesOrderHandler)
	r.GET("/sales-orders/:id/states/:index", getSalesOrderStateHandler)
	r.GET("/purchase-orders", listPurchaseOrdersHandler)
	r.GET("/purchase-orders/:id", getPurchaseOrderHandler)
	r.GET("/purchase-orders/:id/states/:index", getPurchaseOrderStateHandler)
	r.GET("/statistics", statisticsHandler)
	r.GET("/statistics/fulfilled-value", fulfilledValueHandler)
	r.GET("/reports/order-value", orderValueReportHandler)

	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running migrations
	// as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Start the outbox dispatcher (publishes AFTER commit).
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	go runOutboxDispatcher(dispatcherCtx, logger)

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on port ", port)

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work mid-drain.
	cancelDispatcher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger logs only requests that accumulated gin errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			entry := logger.WithField("path", c.Request.URL.Path)
			if name, ok := utils.GetUserNameFromContext(c.Request.Context()); ok {
				entry = entry.WithField("user", name)
			}
			entry.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
