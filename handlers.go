package main

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"wealthify/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/forgot-password", forgotPasswordHandler)
	r.POST("/reset-password", resetPasswordHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/transactions", createTransactionHandler)
	authGroup.GET("/transactions", listTransactionsHandler)
	authGroup.POST("/expenses", createExpensesHandler)
	authGroup.GET("/expenses", listExpensesHandler)
	authGroup.POST("/assets", createAssetHandler)
	authGroup.GET("/assets", listAssetsHandler)
	authGroup.PUT("/assets/:id", updateAssetHandler)
	authGroup.DELETE("/assets/:id", deleteAssetHandler)
	authGroup.PUT("/savings-goal", updateSavingsGoalHandler)
	authGroup.POST("/feedback", submitFeedbackHandler)
	authGroup.GET("/feedback", listFeedbackHandler)
	authGroup.GET("/dashboard", dashboardHandler)
	authGroup.GET("/portfolio/overview", portfolioOverviewHandler)
	authGroup.POST("/portfolio/snapshot", portfolioSnapshotHandler)
	authGroup.GET("/portfolio/history", portfolioHistoryHandler)
	authGroup.POST("/predict/expense", predictExpenseHandler)
	authGroup.POST("/predict/savings", predictSavingsHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		if purpose, _ := claims["purpose"].(string); purpose != "" {
			// reset tokens must not double as access tokens
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		sub, _ := claims["sub"].(string)
		userID, err := strconv.ParseUint(sub, 10, 64)
		if err != nil || userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			c.Abort()
			return
		}
		c.Set("user_id", uint(userID))
		c.Next()
	}
}

// getUserFromContext fetches the currently authenticated user using the id set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	idVal, _ := c.Get("user_id")
	userID, ok := idVal.(uint)
	if !ok {
		return nil, false
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func userResponse(u models.User) gin.H {
	return gin.H{
		"id":         strconv.FormatUint(uint64(u.ID), 10),
		"email":      u.Email,
		"name":       u.Username,
		"created_at": u.CreatedAt.Format(time.RFC3339),
	}
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := RegisterUser(req.Username, req.Email, req.Password)
	if err != nil {
		// Conflicts are 409; rejected input is 400.
		status := http.StatusBadRequest
		if errors.Is(err, ErrUserExists) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	token, err := issueAccessToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": userResponse(user)})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	token, err := issueAccessToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": userResponse(user)})
}

func forgotPasswordHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := issueResetToken(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate reset token"})
		return
	}
	resetURL := os.Getenv("FRONTEND_URL") + "/reset-password?token=" + token
	if err := mailer.SendPasswordReset(req.Email, resetURL); err != nil {
		logger.Error().Err(err).Msg("reset email delivery failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send reset email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reset email sent."})
}

func resetPasswordHandler(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email, err := verifyResetToken(req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token."})
		return
	}
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	if err := db.Model(&user).Update("password_hash", hashed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully."})
}

func meHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, userResponse(*user))
}

// createTransactionHandler logs one income or expense entry for the authenticated user
func createTransactionHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Type        string  `json:"type" binding:"required"`
		Description string  `json:"description" binding:"required"`
		Amount      float64 `json:"amount" binding:"required"`
		Category    string  `json:"category" binding:"required"`
		Date        string  `json:"date" binding:"required"` // YYYY-MM-DD
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type != models.TransactionIncome && req.Type != models.TransactionExpense {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be income or expense"})
		return
	}
	if req.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	tx := models.Transaction{
		UserID:      user.ID,
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Date:        date,
	}
	if err := db.Create(&tx).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(tx))
}

func listTransactionsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	var items []models.Transaction
	if err := db.Where("user_id = ?", user.ID).
		Order("created_at DESC").Limit(limit).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]TransactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toTransactionResponse(t))
	}
	c.JSON(http.StatusOK, out)
}

type expenseRequest struct {
	Month         string  `json:"month" binding:"required"` // e.g. Apr-2025
	Rent          float64 `json:"rent"`
	LoanRepayment float64 `json:"loan_repayment"`
	Insurance     float64 `json:"insurance"`
	Groceries     float64 `json:"groceries"`
	Transport     float64 `json:"transport"`
	EatingOut     float64 `json:"eating_out"`
	Entertainment float64 `json:"entertainment"`
	Utilities     float64 `json:"utilities"`
	Healthcare    float64 `json:"healthcare"`
	Education     float64 `json:"education"`
	Miscellaneous float64 `json:"miscellaneous"`
	TotalExpense  float64 `json:"total_expense"`
}

func (r expenseRequest) toModel(userID uint) models.Expense {
	e := models.Expense{
		UserID:        userID,
		Month:         r.Month,
		Rent:          r.Rent,
		LoanRepayment: r.LoanRepayment,
		Insurance:     r.Insurance,
		Groceries:     r.Groceries,
		Transport:     r.Transport,
		EatingOut:     r.EatingOut,
		Entertainment: r.Entertainment,
		Utilities:     r.Utilities,
		Healthcare:    r.Healthcare,
		Education:     r.Education,
		Miscellaneous: r.Miscellaneous,
		TotalExpense:  r.TotalExpense,
	}
	if e.TotalExpense == 0 {
		for _, v := range e.CategoryValues() {
			e.TotalExpense += v
		}
	}
	return e
}

// createExpensesHandler records one or more monthly categorized expense rows
func createExpensesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Expenses []expenseRequest `json:"expenses" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, r := range req.Expenses {
		if _, err := time.Parse(monthLayout, r.Month); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must look like Apr-2025"})
			return
		}
		e := r.toModel(user.ID)
		if err := db.Create(&e).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expenses added successfully"})
}

func listExpensesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	q := db.Where("user_id = ?", user.ID)
	if month := c.Query("month"); month != "" {
		q = q.Where("month = ?", month)
	}
	var items []models.Expense
	if err := q.Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

type assetRequest struct {
	Name     string  `json:"name" binding:"required"`
	Symbol   string  `json:"symbol" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required"`
	BuyPrice float64 `json:"buy_price" binding:"required"`
	BuyDate  string  `json:"buy_date"`
	Type     string  `json:"type"`
}

func (r assetRequest) apply(a *models.Asset) error {
	a.Name = r.Name
	a.Symbol = r.Symbol
	a.Quantity = r.Quantity
	a.BuyPrice = r.BuyPrice
	a.Type = r.Type
	if a.Type == "" {
		a.Type = models.AssetCrypto
	}
	if r.BuyDate != "" {
		t, err := time.Parse(time.RFC3339, r.BuyDate)
		if err != nil {
			// accept bare dates too
			t, err = time.Parse(dateLayout, r.BuyDate)
			if err != nil {
				return err
			}
		}
		a.BuyDate = t
	} else if a.BuyDate.IsZero() {
		a.BuyDate = time.Now()
	}
	return nil
}

func createAssetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req assetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	asset := models.Asset{UserID: user.ID}
	if err := req.apply(&asset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "buy_date must be RFC3339 or YYYY-MM-DD"})
		return
	}
	if err := db.Create(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, toAssetResponse(asset))
}

func listAssetsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var assets []models.Asset
	if err := db.Where("user_id = ?", user.ID).Find(&assets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]AssetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAssetResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

func updateAssetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req assetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var asset models.Asset
	if err := db.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).First(&asset).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		return
	}
	if err := req.apply(&asset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "buy_date must be RFC3339 or YYYY-MM-DD"})
		return
	}
	if err := db.Save(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, toAssetResponse(asset))
}

func deleteAssetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var asset models.Asset
	if err := db.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).First(&asset).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		return
	}
	if err := db.Delete(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Asset deleted"})
}

func updateSavingsGoalHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	// Pointer so an explicit 0 goal still satisfies the required binding.
	var req struct {
		NewGoal *float64 `json:"new_goal" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := db.Model(user).Update("savings_goal", *req.NewGoal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Savings goal updated", "savings_goal": *req.NewGoal})
}

func submitFeedbackHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fb := models.Feedback{UserID: user.ID, Message: req.Message}
	if err := db.Create(&fb).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback submitted"})
}

// listFeedbackHandler returns all feedback; admin only.
func listFeedbackHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if !user.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
		return
	}
	var items []models.Feedback
	if err := db.Order("created_at DESC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(items))
	for _, f := range items {
		out = append(out, gin.H{
			"user_id":    strconv.FormatUint(uint64(f.UserID), 10),
			"message":    f.Message,
			"created_at": f.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func dashboardHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	data, err := computeDashboard(db, user.ID, time.Now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Error().Err(err).Uint("user_id", user.ID).Msg("dashboard aggregation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, data)
}

func portfolioOverviewHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	overview, err := computePortfolioOverview(c.Request.Context(), db, user.ID)
	if err != nil {
		logger.Error().Err(err).Uint("user_id", user.ID).Msg("portfolio valuation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

func portfolioSnapshotHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	value, err := recordSnapshot(c.Request.Context(), db, user.ID)
	if err != nil {
		logger.Error().Err(err).Uint("user_id", user.ID).Msg("snapshot failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Snapshot saved", "value": value})
}

func portfolioHistoryHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	history, err := portfolioHistory(db, user.ID)
	if err != nil {
		logger.Error().Err(err).Uint("user_id", user.ID).Msg("history query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, history)
}

func predictExpenseHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if expenseScorer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction service not configured"})
		return
	}
	var req struct {
		Month string `json:"month" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prediction, err := predictExpense(c.Request.Context(), db, user.ID, req.Month)
	if err != nil {
		if errors.Is(err, ErrNotEnoughHistory) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error().Err(err).Uint("user_id", user.ID).Msg("expense prediction failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "prediction failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"prediction": prediction, "month": req.Month})
}

func predictSavingsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if savingsScorer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction service not configured"})
		return
	}
	var req struct {
		Month  string  `json:"month" binding:"required"`
		Income float64 `json:"income" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prediction, err := predictSavings(c.Request.Context(), db, user.ID, req.Month, req.Income)
	if err != nil {
		logger.Error().Err(err).Uint("user_id", user.ID).Msg("savings prediction failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "prediction failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"prediction": prediction, "month": req.Month})
}
