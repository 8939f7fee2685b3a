package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sahilchouksey/educonnect-api/database"
	"github.com/sahilchouksey/educonnect-api/model"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database with the full schema. A
// single connection serializes transactions the way row locks would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, role string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "x",
		Name:         name,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createProject(t *testing.T, db *gorm.DB, creatorID uint, target float64) *model.Project {
	t.Helper()
	project, err := NewProjectService(db).CreateProject(context.Background(), creatorID, CreateProjectInput{
		Title:        "Clean water for Kibera",
		SDGID:        6,
		TargetAmount: target,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func createCourse(t *testing.T, db *gorm.DB, price float64, lessons int) *model.Course {
	t.Helper()
	title := "Intro to Go"
	course, err := NewCourseService(db).CreateCourse(context.Background(), CourseInput{
		Title:        &title,
		Price:        &price,
		TotalLessons: &lessons,
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course
}

func loadProject(t *testing.T, db *gorm.DB, id uint) model.Project {
	t.Helper()
	var project model.Project
	if err := db.First(&project, id).Error; err != nil {
		t.Fatalf("load project: %v", err)
	}
	return project
}

type pushed struct {
	userID       uint
	notification model.NotificationResponse
}

// fakePusher records pushes and reports delivery for connected users only
type fakePusher struct {
	mu        sync.Mutex
	connected map[uint]bool
	pushes    []pushed
}

func newFakePusher(connected ...uint) *fakePusher {
	p := &fakePusher{connected: make(map[uint]bool)}
	for _, id := range connected {
		p.connected[id] = true
	}
	return p
}

func (p *fakePusher) Push(userID uint, n model.NotificationResponse) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected[userID] {
		return false
	}
	p.pushes = append(p.pushes, pushed{userID: userID, notification: n})
	return true
}

func (p *fakePusher) pushesFor(userID uint) []model.NotificationResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.NotificationResponse
	for _, rec := range p.pushes {
		if rec.userID == userID {
			out = append(out, rec.notification)
		}
	}
	return out
}
