package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rosterapp/roster/internal/domain"
	"github.com/rosterapp/roster/internal/errors"
	"github.com/rosterapp/roster/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStudentStore(t *testing.T) (*StudentStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStudentStore(dir, logger.Discard().Logger)
	require.NoError(t, err)
	return s, dir
}

func sampleStudent(owner string) *domain.Student {
	return &domain.Student{
		Owner:       owner,
		FullName:    "Ivan Petrov",
		StudyGroup:  "CS-101",
		Email:       "ivan@example.com",
		Rating:      4.5,
		EnrolledOn:  time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		EnrolledAt:  domain.TimeOfDay(9*time.Hour + 30*time.Minute),
		Scholarship: true,
		CourseYear:  domain.CourseYearSecond,
	}
}

func TestStudentStore_MissingFileIsEmpty(t *testing.T) {
	s, _ := newTestStudentStore(t)
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.All())
}

func TestStudentStore_CorruptFileFailsOpen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, studentsFileName), []byte("{not json"), 0644))

	_, err := NewStudentStore(dir, logger.Discard().Logger)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataAccess))
}

func TestStudentStore_CreateAssignsIDAndPersists(t *testing.T) {
	s, dir := newTestStudentStore(t)

	st := sampleStudent("alice")
	require.NoError(t, s.Create(st))

	assert.Contains(t, st.ID, "stu-")
	assert.False(t, st.CreatedAt.IsZero())
	assert.False(t, st.UpdatedAt.IsZero())

	// Reopen from disk and verify the record round-tripped.
	reopened, err := NewStudentStore(dir, logger.Discard().Logger)
	require.NoError(t, err)

	got, err := reopened.Get(st.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
	assert.Equal(t, "Ivan Petrov", got.FullName)
	assert.Equal(t, 4.5, got.Rating)
	assert.Equal(t, domain.CourseYearSecond, got.CourseYear)
	assert.Equal(t, "09:30:00", got.EnrolledAt.String())
	assert.True(t, got.Scholarship)
	assert.WithinDuration(t, st.EnrolledOn, got.EnrolledOn, time.Second)
}

func TestStudentStore_ReopenPreservesInsertionOrder(t *testing.T) {
	s, dir := newTestStudentStore(t)

	names := []string{"Anna Volkova", "Boris Smirnov", "Carol Petrova", "Dmitri Orlov"}
	for _, name := range names {
		st := sampleStudent("alice")
		st.FullName = name
		require.NoError(t, s.Create(st))
	}

	reopened, err := NewStudentStore(dir, logger.Discard().Logger)
	require.NoError(t, err)

	got := reopened.All()
	require.Len(t, got, len(names))
	for i, name := range names {
		assert.Equal(t, name, got[i].FullName, "position %d", i)
	}
}

func TestStudentStore_LoadsCaseInsensitiveFieldNames(t *testing.T) {
	dir := t.TempDir()
	legacy := `[{"ID":"stu-legacy","OWNER":"alice","FULL_NAME":"Old Record","COURSE_YEAR":"first"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, studentsFileName), []byte(legacy), 0644))

	s, err := NewStudentStore(dir, logger.Discard().Logger)
	require.NoError(t, err)

	got, err := s.Get("stu-legacy")
	require.NoError(t, err)
	assert.Equal(t, "Old Record", got.FullName)
	assert.Equal(t, domain.CourseYearFirst, got.CourseYear)
}

func TestStudentStore_ListForFiltersByOwner(t *testing.T) {
	s, _ := newTestStudentStore(t)

	require.NoError(t, s.Create(sampleStudent("alice")))
	require.NoError(t, s.Create(sampleStudent("alice")))
	require.NoError(t, s.Create(sampleStudent("bob")))

	assert.Len(t, s.ListFor("alice"), 2)
	assert.Len(t, s.ListFor("ALICE"), 2)
	assert.Len(t, s.ListFor("bob"), 1)
	assert.Empty(t, s.ListFor("carol"))
	assert.Empty(t, s.ListFor(""))
	assert.Empty(t, s.ListFor("   "))
	assert.Len(t, s.All(), 3)
}

func TestStudentStore_ListForReturnsCopies(t *testing.T) {
	s, _ := newTestStudentStore(t)
	require.NoError(t, s.Create(sampleStudent("alice")))

	listed := s.ListFor("alice")
	require.Len(t, listed, 1)
	listed[0].FullName = "Mutated"

	again := s.ListFor("alice")
	require.Len(t, again, 1)
	assert.Equal(t, "Ivan Petrov", again[0].FullName)
}

func TestStudentStore_UpdateReplacesRecord(t *testing.T) {
	s, _ := newTestStudentStore(t)

	st := sampleStudent("alice")
	require.NoError(t, s.Create(st))
	created := st.CreatedAt

	st.FullName = "Ivan Sidorov"
	st.Rating = 3.0
	require.NoError(t, s.Update(st))

	got, err := s.Get(st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ivan Sidorov", got.FullName)
	assert.Equal(t, 3.0, got.Rating)
	assert.WithinDuration(t, created, got.CreatedAt, time.Second)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestStudentStore_UpdateUnknownIDFails(t *testing.T) {
	s, _ := newTestStudentStore(t)

	st := sampleStudent("alice")
	st.ID = "stu-missing"
	err := s.Update(st)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	// A blank id is just another id that matches nothing.
	st.ID = ""
	err = s.Update(st)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestStudentStore_DeleteByOwner(t *testing.T) {
	s, _ := newTestStudentStore(t)

	st := sampleStudent("alice")
	require.NoError(t, s.Create(st))

	// Owner comparison is case-insensitive.
	require.NoError(t, s.Delete(st.ID, "ALICE"))
	assert.Equal(t, 0, s.Count())
}

func TestStudentStore_DeleteMissingIsNoOp(t *testing.T) {
	s, _ := newTestStudentStore(t)
	assert.NoError(t, s.Delete("stu-gone", "alice"))
}

func TestStudentStore_DeleteForeignRecordForbidden(t *testing.T) {
	s, _ := newTestStudentStore(t)

	st := sampleStudent("alice")
	require.NoError(t, s.Create(st))

	err := s.Delete(st.ID, "bob")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
	assert.Equal(t, 1, s.Count())
}

func TestStudentStore_DeleteBlankOwnerFails(t *testing.T) {
	s, _ := newTestStudentStore(t)
	err := s.Delete("stu-whatever", "  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestStudentStore_ConcurrentCreates(t *testing.T) {
	s, dir := newTestStudentStore(t)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st := sampleStudent("alice")
			st.FullName = fmt.Sprintf("Student %d", i)
			errs[i] = s.Create(st)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "create %d", i)
	}
	assert.Equal(t, n, s.Count())

	seen := map[string]bool{}
	for _, st := range s.All() {
		assert.False(t, seen[st.ID], "duplicate id %s", st.ID)
		seen[st.ID] = true
	}

	// Disk agrees with memory.
	reopened, err := NewStudentStore(dir, logger.Discard().Logger)
	require.NoError(t, err)
	assert.Equal(t, n, reopened.Count())
}

func TestStudentStore_ReloadPicksUpExternalEdit(t *testing.T) {
	s, dir := newTestStudentStore(t)
	require.NoError(t, s.Create(sampleStudent("alice")))

	external := `[{"id":"stu-ext","owner":"bob","full_name":"External","course_year":"third"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, studentsFileName), []byte(external), 0644))

	require.NoError(t, s.Reload())
	assert.Equal(t, 1, s.Count())

	got, err := s.Get("stu-ext")
	require.NoError(t, err)
	assert.Equal(t, "External", got.FullName)
}

func TestStudentStore_SaveLeavesNoTempFiles(t *testing.T) {
	s, dir := newTestStudentStore(t)
	require.NoError(t, s.Create(sampleStudent("alice")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestStudentStore_CreateRejectsBadInput(t *testing.T) {
	s, _ := newTestStudentStore(t)

	err := s.Create(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	st := sampleStudent("  ")
	err = s.Create(st)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
