package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/uniportal/PortalBack/internal/models"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestPostgresConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	conversations := NewConversationRepository(pool)
	messages := NewMessageRepository(pool)

	studentID := time.Now().UnixNano()
	doctorID := studentID + 1
	t.Cleanup(func() { cleanupConversations(t, ctx, pool, studentID) })

	student := models.Participant{ID: studentID, Name: "Integration Student", AcademicNumber: "2030001"}
	first, err := conversations.GetOrCreate(ctx, student, doctorID, "Dr. Integration", "int@u.edu")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	second, err := conversations.GetOrCreate(ctx, student, doctorID, "Dr. Integration", "int@u.edu")
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected idempotent conversation id, got %d and %d", first.ID, second.ID)
	}

	if _, err := messages.Append(ctx, first.ID, "Please see me", models.RoleDoctor, "Dr. Integration"); err != nil {
		t.Fatalf("Append doctor: %v", err)
	}
	if _, err := messages.Append(ctx, first.ID, "On my way", models.RoleStudent, "Integration Student"); err != nil {
		t.Fatalf("Append student: %v", err)
	}

	listed, err := messages.ListFor(ctx, first.ID)
	if err != nil {
		t.Fatalf("ListFor: %v", err)
	}
	if len(listed) != 2 || listed[0].SenderType != models.RoleDoctor || listed[1].SenderType != models.RoleStudent {
		t.Fatalf("unexpected message order: %+v", listed)
	}

	doctorUnread, err := messages.UnreadCountFor(ctx, models.RoleDoctor, doctorID)
	if err != nil {
		t.Fatalf("UnreadCountFor doctor: %v", err)
	}
	if doctorUnread != 1 {
		t.Fatalf("expected doctor unread 1, got %d", doctorUnread)
	}

	marked, err := messages.MarkRead(ctx, first.ID, models.RoleDoctor)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if marked != 1 {
		t.Fatalf("expected 1 marked message, got %d", marked)
	}

	if err := conversations.Touch(ctx, first.ID, "On my way", listed[1].CreatedAt); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	summaries, err := conversations.ListForStudent(ctx, studentID)
	if err != nil {
		t.Fatalf("ListForStudent: %v", err)
	}
	if len(summaries) != 1 || summaries[0].LastMessage != "On my way" {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
}

func TestPostgresUnknownConversationIsNotFound(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	messages := NewMessageRepository(pool)
	conversations := NewConversationRepository(pool)

	if _, err := conversations.GetByID(ctx, -1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound from GetByID, got %v", err)
	}
	if _, err := messages.ListFor(ctx, -1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound from ListFor, got %v", err)
	}
	if err := conversations.Touch(ctx, -1, "x", time.Now()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound from Touch, got %v", err)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func cleanupConversations(t *testing.T, ctx context.Context, pool *pgxpool.Pool, studentIDs ...int64) {
	t.Helper()

	if _, err := pool.Exec(ctx, "DELETE FROM messages WHERE conversation_id IN (SELECT id FROM conversations WHERE student_id = ANY($1))", studentIDs); err != nil {
		t.Fatalf("cleanup messages: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM conversations WHERE student_id = ANY($1)", studentIDs); err != nil {
		t.Fatalf("cleanup conversations: %v", err)
	}
}
