package faqrepo

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// Set FAQ_TEST_POSTGRES_DSN to run these against a real database.
func newPostgresRepositoryForTest(t *testing.T) (*PostgresRepository, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("FAQ_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FAQ_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../../migrations/001_init.sql")
	require.NoError(t, err)
	for _, stmt := range strings.Split(string(schema), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
	return NewPostgresRepository(pool), pool
}

func newStoredQuestion(t *testing.T, repo faq.QuestionRepository, userID string, createdOn time.Time) faq.Question {
	t.Helper()
	q := faq.Question{
		ID:                uuid.NewString(),
		QuestionText:      "Is fever normal after vaccine?",
		AskingUserID:      userID,
		EligibleDoctorIDs: []string{"d1", "d2"},
		Answers:           []faq.Answer{},
		Status:            faq.StatusActive,
		CreatedOn:         createdOn,
	}
	require.NoError(t, repo.Create(context.Background(), q))
	return q
}

func TestPostgresRepository_ConcurrentAppendsKeepEveryAnswer(t *testing.T) {
	repo, pool := newPostgresRepositoryForTest(t)
	ctx := context.Background()
	q := newStoredQuestion(t, repo, "u-"+uuid.NewString(), time.Now().UTC().Truncate(time.Microsecond))
	t.Cleanup(func() { _, _ = pool.Exec(context.Background(), `DELETE FROM faqs WHERE id = $1`, q.ID) })

	const replies = 10
	var wg sync.WaitGroup
	errs := make(chan error, replies)
	for i := 0; i < replies; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, found, err := repo.AppendAnswer(ctx, q.ID, faq.Answer{DoctorID: fmt.Sprintf("d%d", i), Answer: "rest"})
			if err == nil && !found {
				err = fmt.Errorf("question %s not found", q.ID)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, found, err := repo.FindByID(ctx, q.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, stored.Answers, replies)
	require.Equal(t, []string{"d1", "d2"}, stored.EligibleDoctorIDs)

	_, found, err = repo.AppendAnswer(ctx, "missing-"+uuid.NewString(), faq.Answer{DoctorID: "d1", Answer: "x"})
	require.NoError(t, err)
	require.False(t, found)
}

func TestPostgresRepository_SoftDeleteReturnsPreImage(t *testing.T) {
	repo, pool := newPostgresRepositoryForTest(t)
	ctx := context.Background()
	userID := "u-" + uuid.NewString()
	base := time.Now().UTC().Truncate(time.Microsecond)
	older := newStoredQuestion(t, repo, userID, base)
	newer := newStoredQuestion(t, repo, userID, base.Add(time.Minute))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM faqs WHERE asking_user_id = $1`, userID)
	})

	modifiedOn := base.Add(time.Hour)
	before, found, err := repo.SoftDelete(ctx, older.ID, "staff-1", modifiedOn)
	require.NoError(t, err)
	require.True(t, found)
	require.False(t, before.IsDeleted)
	require.Empty(t, before.ModifiedBy)
	require.Nil(t, before.ModifiedOn)

	after, found, err := repo.FindByID(ctx, older.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, after.IsDeleted)
	require.Equal(t, "staff-1", after.ModifiedBy)
	require.NotNil(t, after.ModifiedOn)
	require.True(t, modifiedOn.Equal(*after.ModifiedOn))

	again, found, err := repo.SoftDelete(ctx, older.ID, "staff-2", modifiedOn)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, again.IsDeleted)

	_, found, err = repo.SoftDelete(ctx, "missing-"+uuid.NewString(), "staff-1", modifiedOn)
	require.NoError(t, err)
	require.False(t, found)

	active := faq.StatusActive
	filter := faq.QuestionFilter{ExcludeDeleted: true, Status: &active, AskingUserID: userID}
	list, err := repo.Find(ctx, filter, faq.Page{})
	require.NoError(t, err)
	require.Equal(t, []string{newer.ID}, ids(list))
	count, err := repo.Count(ctx, faq.QuestionFilter{AskingUserID: userID})
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}
