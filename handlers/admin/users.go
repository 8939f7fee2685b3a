package admin

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/database"
	"github.com/sahilchouksey/educonnect-api/handlers"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/middleware"
	"github.com/sahilchouksey/educonnect-api/utils/response"
	"github.com/sahilchouksey/educonnect-api/utils/validation"
	"gorm.io/gorm"
)

var userValidator = validation.NewValidator()

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
	Role    string `query:"role"`
	Search  string `query:"search"`
	Sort    string `query:"sort"`
	SortDir string `query:"sort_dir"`
}

// UpdateRoleRequest represents the request body for changing a user's role
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor admin"`
}

var userSortColumns = map[string]bool{
	"created_at": true,
	"name":       true,
	"email":      true,
	"role":       true,
}

// ListUsers retrieves all users with pagination and filters
// GET /api/admin/users
func ListUsers(c *fiber.Ctx, store database.Storage) error {
	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	meta := response.CalculatePagination(req.Page, req.Limit, 0)
	if !userSortColumns[req.Sort] {
		req.Sort = "created_at"
	}
	if req.SortDir != "asc" {
		req.SortDir = "desc"
	}

	query := store.GetDB().WithContext(c.UserContext()).Model(&model.User{})
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	offset := (meta.CurrentPage - 1) * meta.PerPage
	if err := query.Offset(offset).Limit(meta.PerPage).Order(req.Sort + " " + req.SortDir).Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, response.CalculatePagination(meta.CurrentPage, meta.PerPage, total))
}

// UpdateUserRole changes a user's role and invalidates their issued tokens
// PATCH /api/admin/users/:id/role
func UpdateUserRole(c *fiber.Ctx, store database.Storage) error {
	userID, ok := handlers.ParseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	if admin, ok := middleware.GetUser(c); ok && admin.ID == userID {
		return response.BadRequest(c, "Cannot change your own role")
	}

	var req UpdateRoleRequest
	if ok, err := handlers.ParseBody(c, userValidator, &req); !ok {
		return err
	}

	db := store.GetDB().WithContext(c.UserContext())

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if user.Role != req.Role {
		err := db.Model(&user).Updates(map[string]interface{}{
			"role":          req.Role,
			"token_version": gorm.Expr("token_version + 1"),
		}).Error
		if err != nil {
			return response.InternalServerError(c, "Failed to update user")
		}
		user.Role = req.Role
	}

	return response.SuccessWithMessage(c, "User updated successfully", user)
}
