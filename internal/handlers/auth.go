package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/arnold/goalsteps-api/internal/database"
	"github.com/arnold/goalsteps-api/internal/middleware"
	"github.com/arnold/goalsteps-api/internal/models"
)

const minPasswordLen = 6

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// credentials lowercases the email and requires both fields.
func credentials(email, password string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	return email, email != "" && password != ""
}

// issueToken answers with a fresh JWT for user.
func issueToken(c *fiber.Ctx, status int, user models.User) error {
	token, err := middleware.GenerateToken(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "token signing failed", "user", user.ID, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate token")
	}
	return c.Status(status).JSON(models.AuthResponse{Token: token, User: user})
}

func Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	email, ok := credentials(req.Email, req.Password)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Email and password are required")
	}
	if len(req.Password) < minPasswordLen {
		return errorJSON(c, fiber.StatusBadRequest, "Password must be at least 6 characters")
	}

	var existing models.User
	err := database.DB.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		return errorJSON(c, fiber.StatusConflict, "Email already registered")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		slog.ErrorContext(c.UserContext(), "user lookup failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to hash password")
	}

	user := models.User{Email: email, Password: string(hash), Name: strings.TrimSpace(req.Name)}
	if err := database.DB.Create(&user).Error; err != nil {
		slog.ErrorContext(c.UserContext(), "user create failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create user")
	}
	slog.InfoContext(c.UserContext(), "user registered", "user", user.ID)
	return issueToken(c, fiber.StatusCreated, user)
}

func Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	email, ok := credentials(req.Email, req.Password)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Email and password are required")
	}

	var user models.User
	err := database.DB.Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.ErrorContext(c.UserContext(), "user lookup failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to log in")
	}
	// unknown email and wrong password get the same answer
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		slog.WarnContext(c.UserContext(), "login failed", "email", email, "ip", c.IP())
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	return issueToken(c, fiber.StatusOK, user)
}

func GetMe(c *fiber.Ctx) error {
	var user models.User
	if err := database.DB.First(&user, "id = ?", middleware.GetUserID(c)).Error; err != nil {
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(user)
}

// RegisterDeviceToken stores the caller's FCM token for step push
// notifications.
func RegisterDeviceToken(c *fiber.Ctx) error {
	var req models.DeviceTokenRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Token is required")
	}

	userID := middleware.GetUserID(c)
	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", req.Token).Error; err != nil {
		slog.ErrorContext(c.UserContext(), "device token save failed", "user", userID, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to save device token")
	}
	return c.JSON(fiber.Map{"success": true})
}
