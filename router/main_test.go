package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sahilchouksey/educonnect-api/database"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/auth"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testServer struct {
	app     *fiber.App
	db      *gorm.DB
	manager *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	store := database.NewGORMStore(db)
	if err := store.Init(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	manager := auth.NewJWTManager(auth.DefaultJWTConfig("router-test-secret", "educonnect-test"))
	app := fiber.New()
	SetupRoutes(app, Deps{Store: store, JWTManager: manager})

	return &testServer{app: app, db: db, manager: manager}
}

func (s *testServer) user(t *testing.T, name, role string) (*model.User, string) {
	t.Helper()
	user := &model.User{Email: name + "@example.com", PasswordHash: "x", Name: name, Role: role}
	if err := s.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	pair, err := s.manager.GeneratePair(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	return user, pair.AccessToken
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

func TestApprovePaymentFlow(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", model.RoleAdmin)
	_, donorToken := s.user(t, "donor", model.RoleStudent)

	status, env := s.do(t, http.MethodPost, "/api/projects", donorToken, map[string]interface{}{
		"title": "Mangrove restoration", "sdg_id": 14, "target_amount": 2000,
	})
	if status != http.StatusCreated {
		t.Fatalf("create project status = %d", status)
	}
	var project model.Project
	json.Unmarshal(env.Data, &project)

	status, env = s.do(t, http.MethodPost, "/api/contributions", donorToken, map[string]interface{}{
		"project_id": project.ID, "amount": 500, "type": "monetary", "transaction_code": "RKT55",
	})
	if status != http.StatusCreated {
		t.Fatalf("contribute status = %d", status)
	}
	var contribution model.Contribution
	json.Unmarshal(env.Data, &contribution)

	approve := map[string]interface{}{"type": "contribution", "id": contribution.ID}

	if status, _ := s.do(t, http.MethodPost, "/api/admin/approve-payment", donorToken, approve); status != http.StatusForbidden {
		t.Errorf("non-admin approve status = %d, want 403", status)
	}
	if status, _ := s.do(t, http.MethodPost, "/api/admin/approve-payment", "", approve); status != http.StatusUnauthorized {
		t.Errorf("anonymous approve status = %d, want 401", status)
	}
	if status, env := s.do(t, http.MethodPost, "/api/admin/approve-payment", adminToken, map[string]interface{}{"type": "refund", "id": contribution.ID}); status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "INVALID_PAYMENT_TYPE" {
		t.Errorf("bad type status = %d, env = %+v, want 400 INVALID_PAYMENT_TYPE", status, env.Error)
	}

	status, env = s.do(t, http.MethodGet, "/api/admin/pending-payments", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("pending status = %d", status)
	}
	var pending []model.PendingPayment
	json.Unmarshal(env.Data, &pending)
	if len(pending) != 1 || pending[0].ID != contribution.ID {
		t.Errorf("pending = %+v", pending)
	}

	if status, _ := s.do(t, http.MethodPost, "/api/admin/approve-payment", adminToken, approve); status != http.StatusOK {
		t.Fatalf("approve status = %d", status)
	}
	if status, env := s.do(t, http.MethodPost, "/api/admin/approve-payment", adminToken, approve); status != http.StatusConflict || env.Error.Code != "ALREADY_PROCESSED" {
		t.Errorf("second approve status = %d, want 409 ALREADY_PROCESSED", status)
	}

	status, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), "", nil)
	if status != http.StatusOK {
		t.Fatalf("get project status = %d", status)
	}
	json.Unmarshal(env.Data, &project)
	if project.CurrentAmount != 500 || project.Progress != 25 {
		t.Errorf("project = %.2f/%d%%, want 500.00/25%%", project.CurrentAmount, project.Progress)
	}

	status, env = s.do(t, http.MethodGet, "/api/notifications/unread-count", donorToken, nil)
	if status != http.StatusOK {
		t.Fatalf("unread status = %d", status)
	}
	var unread struct {
		UnreadCount int64 `json:"unread_count"`
	}
	json.Unmarshal(env.Data, &unread)
	if unread.UnreadCount != 1 {
		t.Errorf("unread = %d, want 1", unread.UnreadCount)
	}
}

func TestEnrollmentErrorsMapToStatus(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", model.RoleAdmin)
	_, studentToken := s.user(t, "student", model.RoleStudent)

	if status, _ := s.do(t, http.MethodPost, "/api/courses", studentToken, map[string]interface{}{"title": "Data Science"}); status != http.StatusForbidden {
		t.Errorf("student create course status = %d, want 403", status)
	}

	status, env := s.do(t, http.MethodPost, "/api/courses", adminToken, map[string]interface{}{
		"title": "Data Science", "price": 2500, "total_lessons": 12,
	})
	if status != http.StatusCreated {
		t.Fatalf("create course status = %d", status)
	}
	var course model.Course
	json.Unmarshal(env.Data, &course)

	var audits int64
	s.db.Model(&model.AdminAuditLog{}).Where("action = ?", "course_create").Count(&audits)
	if audits != 1 {
		t.Errorf("course_create audit entries = %d, want 1", audits)
	}

	if status, _ := s.do(t, http.MethodPost, "/api/enrollments", studentToken, map[string]interface{}{"course_id": course.ID}); status != http.StatusUnprocessableEntity {
		t.Errorf("paid enrollment without code status = %d, want 422", status)
	}

	status, env = s.do(t, http.MethodPost, "/api/enrollments", studentToken, map[string]interface{}{"course_id": course.ID, "transaction_code": "SFC81"})
	if status != http.StatusCreated {
		t.Fatalf("enroll status = %d", status)
	}
	var enrollment model.Enrollment
	json.Unmarshal(env.Data, &enrollment)

	if status, env := s.do(t, http.MethodPost, "/api/enrollments", studentToken, map[string]interface{}{"course_id": course.ID, "transaction_code": "SFC82"}); status != http.StatusConflict || env.Error.Code != "DUPLICATE_ENROLLMENT" {
		t.Errorf("duplicate enroll status = %d, want 409", status)
	}

	progressPath := fmt.Sprintf("/api/enrollments/%d/progress", enrollment.ID)
	if status, _ := s.do(t, http.MethodPatch, progressPath, studentToken, map[string]interface{}{"completed_lessons": 3}); status != http.StatusConflict {
		t.Errorf("progress before approval status = %d, want 409", status)
	}
	if status, _ := s.do(t, http.MethodPost, "/api/enrollments", studentToken, map[string]interface{}{"course_id": 9999, "transaction_code": "X"}); status != http.StatusNotFound {
		t.Errorf("unknown course status = %d, want 404", status)
	}
}

func TestNotificationOwnership(t *testing.T) {
	s := newTestServer(t)
	alice, aliceToken := s.user(t, "alice", model.RoleStudent)
	_, bobToken := s.user(t, "bob", model.RoleStudent)

	status, env := s.do(t, http.MethodPost, "/api/notifications", bobToken, map[string]interface{}{"userId": alice.ID, "message": "Welcome to the cohort"})
	if status != http.StatusCreated {
		t.Fatalf("create notification status = %d", status)
	}
	var note model.NotificationResponse
	json.Unmarshal(env.Data, &note)
	if note.UserID != alice.ID {
		t.Errorf("notification user = %d, want %d", note.UserID, alice.ID)
	}

	path := fmt.Sprintf("/api/notifications/%d/read", note.ID)
	if status, _ := s.do(t, http.MethodPatch, path, bobToken, nil); status != http.StatusForbidden {
		t.Errorf("bob marking alice's notification status = %d, want 403", status)
	}
	if status, _ := s.do(t, http.MethodPatch, path, aliceToken, nil); status != http.StatusOK {
		t.Errorf("alice mark read status = %d, want 200", status)
	}
	if status, _ := s.do(t, http.MethodPost, "/api/notifications", bobToken, map[string]interface{}{"userId": 4242, "message": "hi"}); status != http.StatusNotFound {
		t.Errorf("unknown recipient status = %d, want 404", status)
	}
	if status, _ := s.do(t, http.MethodPost, "/api/notifications", "", map[string]interface{}{"userId": alice.ID, "message": "hi"}); status != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", status)
	}
}

func TestHealthAndWebsocketUpgrade(t *testing.T) {
	s := newTestServer(t)

	if status, _ := s.do(t, http.MethodGet, "/ping", "", nil); status != http.StatusOK {
		t.Errorf("ping status = %d, want 200", status)
	}
	if status, _ := s.do(t, http.MethodGet, "/ws", "", nil); status != http.StatusUpgradeRequired {
		t.Errorf("plain GET /ws status = %d, want 426", status)
	}
}
