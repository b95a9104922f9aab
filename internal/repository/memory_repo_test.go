package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniportal/PortalBack/internal/models"
)

func fixedClock(ts time.Time) Clock {
	return func() time.Time { return ts }
}

func newMemoryRepos() (*MemoryConversationRepository, *MemoryMessageRepository) {
	conversations := NewMemoryConversationRepository()
	return conversations, NewMemoryMessageRepository(conversations)
}

func TestMemoryGetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conversations, _ := newMemoryRepos()
	student := models.Participant{ID: 1, Name: "Alice", AcademicNumber: "2024001"}

	first, err := conversations.GetOrCreate(ctx, student, 9, "Dr. X", "x@u.edu")
	require.NoError(t, err)
	second, err := conversations.GetOrCreate(ctx, student, 9, "Dr. Renamed", "other@u.edu")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Dr. X", second.DoctorName)
	assert.Equal(t, "", first.LastMessage)
	assert.Equal(t, 0, first.UnreadCount)
	assert.Equal(t, first.CreatedAt, first.LastMessageDate)
	assert.Equal(t, "2024001", first.StudentAcademicNumber)
}

func TestMemoryGetOrCreateConcurrentCallersShareConversation(t *testing.T) {
	ctx := context.Background()
	conversations, _ := newMemoryRepos()
	student := models.Participant{ID: 4, Name: "Bob"}

	const callers = 16
	ids := make([]int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conversation, err := conversations.GetOrCreate(ctx, student, 2, "Dr. Y", "")
			if err == nil {
				ids[i] = conversation.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	listed, err := conversations.ListForStudent(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestMemoryListOrdersByLastActivity(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	conversations, _ := newMemoryRepos()
	conversations.WithClock(fixedClock(base))
	student := models.Participant{ID: 1, Name: "Alice"}

	older, err := conversations.GetOrCreate(ctx, student, 1, "Dr. A", "")
	require.NoError(t, err)
	newer, err := conversations.GetOrCreate(ctx, student, 2, "Dr. B", "")
	require.NoError(t, err)

	listed, err := conversations.ListForStudent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, newer.ID, listed[0].ID, "equal timestamps fall back to newest id first")

	require.NoError(t, conversations.Touch(ctx, older.ID, "ping", base.Add(time.Hour)))

	listed, err = conversations.ListForStudent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, older.ID, listed[0].ID)
	assert.Equal(t, "ping", listed[0].LastMessage)

	forDoctor, err := conversations.ListForDoctor(ctx, 2)
	require.NoError(t, err)
	require.Len(t, forDoctor, 1)
	assert.Equal(t, newer.ID, forDoctor[0].ID)
}

func TestMemoryTouchUnknownConversation(t *testing.T) {
	conversations, _ := newMemoryRepos()

	err := conversations.Touch(context.Background(), 404, "x", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, conversations.SetStudentUnread(context.Background(), 404, 1), ErrNotFound)
}

func TestMemoryAppendKeepsInsertionOrderOnTimestampCollision(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	conversations, messages := newMemoryRepos()
	messages.WithClock(fixedClock(ts))

	conversation, err := conversations.GetOrCreate(ctx, models.Participant{ID: 1}, 1, "Dr. A", "")
	require.NoError(t, err)

	texts := []string{"one", "two", "three", "four"}
	for i, text := range texts {
		sender := models.RoleStudent
		if i%2 == 1 {
			sender = models.RoleDoctor
		}
		_, err := messages.Append(ctx, conversation.ID, text, sender, "someone")
		require.NoError(t, err)
	}

	listed, err := messages.ListFor(ctx, conversation.ID)
	require.NoError(t, err)
	require.Len(t, listed, len(texts))
	for i, message := range listed {
		assert.Equal(t, texts[i], message.Text)
		assert.False(t, message.IsRead)
		if i > 0 {
			assert.Greater(t, message.ID, listed[i-1].ID)
		}
	}
}

func TestMemoryMessageLogUnknownConversation(t *testing.T) {
	ctx := context.Background()
	_, messages := newMemoryRepos()

	_, err := messages.Append(ctx, 12, "hi", models.RoleStudent, "Alice")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = messages.ListFor(ctx, 12)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = messages.MarkRead(ctx, 12, models.RoleDoctor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListForEmptyConversationIsEmptyNotError(t *testing.T) {
	ctx := context.Background()
	conversations, messages := newMemoryRepos()
	conversation, err := conversations.GetOrCreate(ctx, models.Participant{ID: 1}, 1, "Dr. A", "")
	require.NoError(t, err)

	listed, err := messages.ListFor(ctx, conversation.ID)
	require.NoError(t, err)
	assert.NotNil(t, listed)
	assert.Empty(t, listed)
}

func TestMemoryMarkReadOnlyFlipsOtherSide(t *testing.T) {
	ctx := context.Background()
	conversations, messages := newMemoryRepos()
	conversation, err := conversations.GetOrCreate(ctx, models.Participant{ID: 1}, 1, "Dr. A", "")
	require.NoError(t, err)

	_, err = messages.Append(ctx, conversation.ID, "question", models.RoleStudent, "Alice")
	require.NoError(t, err)
	_, err = messages.Append(ctx, conversation.ID, "answer", models.RoleDoctor, "Dr. A")
	require.NoError(t, err)
	_, err = messages.Append(ctx, conversation.ID, "follow up", models.RoleStudent, "Alice")
	require.NoError(t, err)

	marked, err := messages.MarkRead(ctx, conversation.ID, models.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	again, err := messages.MarkRead(ctx, conversation.ID, models.RoleDoctor)
	require.NoError(t, err)
	assert.Zero(t, again)

	listed, err := messages.ListFor(ctx, conversation.ID)
	require.NoError(t, err)
	for _, message := range listed {
		if message.SenderType == models.RoleStudent {
			assert.True(t, message.IsRead, message.Text)
		} else {
			assert.False(t, message.IsRead, message.Text)
		}
	}

	unread, err := messages.CountUnread(ctx, conversation.ID, models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestMemoryUnreadCountForSpansParticipantConversations(t *testing.T) {
	ctx := context.Background()
	conversations, messages := newMemoryRepos()

	first, err := conversations.GetOrCreate(ctx, models.Participant{ID: 1}, 7, "Dr. A", "")
	require.NoError(t, err)
	second, err := conversations.GetOrCreate(ctx, models.Participant{ID: 2}, 7, "Dr. A", "")
	require.NoError(t, err)
	other, err := conversations.GetOrCreate(ctx, models.Participant{ID: 3}, 8, "Dr. B", "")
	require.NoError(t, err)

	for _, id := range []int64{first.ID, second.ID, second.ID, other.ID} {
		_, err := messages.Append(ctx, id, "hello", models.RoleStudent, "student")
		require.NoError(t, err)
	}
	_, err = messages.Append(ctx, first.ID, "reply", models.RoleDoctor, "Dr. A")
	require.NoError(t, err)

	doctorUnread, err := messages.UnreadCountFor(ctx, models.RoleDoctor, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, doctorUnread)

	studentUnread, err := messages.UnreadCountFor(ctx, models.RoleStudent, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, studentUnread)

	none, err := messages.UnreadCountFor(ctx, models.RoleStudent, 99)
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestMemoryInstancesDoNotShareState(t *testing.T) {
	ctx := context.Background()
	a, _ := newMemoryRepos()
	b, _ := newMemoryRepos()

	_, err := a.GetOrCreate(ctx, models.Participant{ID: 1}, 1, "Dr. A", "")
	require.NoError(t, err)

	listed, err := b.ListForStudent(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
