package service_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rosterapp/roster/internal/domain"
	"github.com/rosterapp/roster/internal/errors"
	"github.com/rosterapp/roster/internal/logger"
	"github.com/rosterapp/roster/internal/report"
	"github.com/rosterapp/roster/internal/service"
	"github.com/rosterapp/roster/internal/store"
	"github.com/rosterapp/roster/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStudentService(t *testing.T) (*service.StudentService, string) {
	t.Helper()
	discard := logger.Discard().Logger

	records, err := store.NewStudentStore(t.TempDir(), discard)
	require.NoError(t, err)

	renderer, err := report.NewRenderer(discard)
	require.NoError(t, err)

	reportDir := t.TempDir()
	return service.NewStudentService(records, renderer, validation.New(), discard, reportDir), reportDir
}

func validRecord(owner string) *domain.Student {
	return &domain.Student{
		Owner:      owner,
		FullName:   "Ivan Petrov",
		StudyGroup: "CS-101",
		Rating:     4.5,
		CourseYear: domain.CourseYearSecond,
	}
}

func photoPayload(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			img.Set(x, y, color.RGBA{R: 80, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestCreate_ValidRecord(t *testing.T) {
	svc, _ := newStudentService(t)

	st := validRecord("alice")
	require.NoError(t, svc.Create(st))
	assert.NotEmpty(t, st.ID)
	assert.Len(t, svc.List("alice"), 1)
}

func TestCreate_InvalidRecordRejected(t *testing.T) {
	svc, _ := newStudentService(t)

	st := validRecord("alice")
	st.Rating = 5.5
	err := svc.Create(st)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Empty(t, svc.List("alice"))
}

func TestCreate_ComputesBlurHash(t *testing.T) {
	svc, _ := newStudentService(t)

	st := validRecord("alice")
	st.PhotoBase64 = photoPayload(t)
	require.NoError(t, svc.Create(st))
	assert.NotEmpty(t, st.PhotoBlurHash)

	stored, err := svc.Get(st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.PhotoBlurHash, stored.PhotoBlurHash)
}

func TestCreate_BadPhotoRejected(t *testing.T) {
	svc, _ := newStudentService(t)

	st := validRecord("alice")
	st.PhotoBase64 = "bm90IGFuIGltYWdl" // valid base64, not an image
	err := svc.Create(st)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestUpdate_ClearsBlurHashWhenPhotoRemoved(t *testing.T) {
	svc, _ := newStudentService(t)

	st := validRecord("alice")
	st.PhotoBase64 = photoPayload(t)
	require.NoError(t, svc.Create(st))
	require.NotEmpty(t, st.PhotoBlurHash)

	st.PhotoBase64 = ""
	require.NoError(t, svc.Update(st))

	stored, err := svc.Get(st.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PhotoBlurHash)
}

func TestDelete_ForeignOwnerForbidden(t *testing.T) {
	svc, _ := newStudentService(t)

	st := validRecord("alice")
	require.NoError(t, svc.Create(st))

	err := svc.Delete(st.ID, "bob")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestWriteStudentReport(t *testing.T) {
	svc, reportDir := newStudentService(t)

	st := validRecord("alice")
	require.NoError(t, svc.Create(st))

	path, err := svc.WriteStudentReport(st.ID, report.Config{GeneratedBy: "alice"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(reportDir, "student-"+st.ID+".html"), path)

	doc, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Ivan Petrov")
}

func TestWriteStudentReport_UnknownID(t *testing.T) {
	svc, _ := newStudentService(t)

	_, err := svc.WriteStudentReport("stu-missing", report.Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestWriteListingReport_PerOwnerAndAll(t *testing.T) {
	svc, reportDir := newStudentService(t)

	require.NoError(t, svc.Create(validRecord("alice")))
	bob := validRecord("bob")
	bob.FullName = "Boris Ivanov"
	require.NoError(t, svc.Create(bob))

	all, err := svc.WriteListingReport("", report.Config{IncludeStatistics: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(reportDir, "listing.html"), all)

	doc, err := os.ReadFile(all)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Ivan Petrov")
	assert.Contains(t, string(doc), "Boris Ivanov")

	mine, err := svc.WriteListingReport("ALICE", report.Config{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(reportDir, "listing-alice.html"), mine)

	doc, err = os.ReadFile(mine)
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "Boris Ivanov")
}

func TestWriteListingReport_EmptyRoster(t *testing.T) {
	svc, _ := newStudentService(t)

	_, err := svc.WriteListingReport("", report.Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestWriteAggregateReport(t *testing.T) {
	svc, reportDir := newStudentService(t)
	require.NoError(t, svc.Create(validRecord("alice")))

	path, err := svc.WriteAggregateReport(report.Config{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(reportDir, "statistics.html"), path)

	doc, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Rating Distribution")
}
