package routes_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"learnify/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressView struct {
	CourseID          uint    `json:"course_id"`
	TotalLectures     int     `json:"total_lectures"`
	CompletedLectures int     `json:"completed_lectures"`
	Percent           float64 `json:"percent"`
}

func TestCatalogAndEnrollment(t *testing.T) {
	env := setup(t)
	admin := env.register(t, "admin@example.com", models.RoleAdmin)
	learner := env.register(t, "learner@example.com", models.RoleLearner)

	goCourse := env.createCourse(t, admin, "Go Basics", "2")
	env.createCourse(t, admin, "Cooking", "1")
	assert.Equal(t, []string{"go", "backend"}, goCourse.Tags)

	resp := env.do(t, http.MethodGet, "/api/courses", learner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []courseView
	decode(t, resp, &list)
	require.Len(t, list, 2)
	assert.False(t, list[0].Enrolled)

	resp = env.do(t, http.MethodGet, "/api/courses?filter_by=name&filter_value=go", learner, nil)
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Go Basics", list[0].Name)

	resp = env.do(t, http.MethodGet, "/api/courses?filter_by=price&filter_value=1", learner, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d/lectures", goCourse.ID), learner, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// enrolling twice is fine
	for i := 0; i < 2; i++ {
		resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", goCourse.ID), learner, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp = env.do(t, http.MethodPost, "/api/courses/999/enroll", learner, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/courses/enrolled", learner, nil)
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, goCourse.ID, list[0].ID)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d", goCourse.ID), learner, nil)
	var one courseView
	decode(t, resp, &one)
	assert.True(t, one.Enrolled)
	assert.Equal(t, 2, one.TotalLectures)
}

func TestLectureUploadAndProgress(t *testing.T) {
	env := setup(t)
	admin := env.register(t, "admin@example.com", models.RoleAdmin)
	learner := env.register(t, "learner@example.com", models.RoleLearner)
	course := env.createCourse(t, admin, "Go Basics", "2")
	base := fmt.Sprintf("/api/admin/courses/%d", course.ID)

	resp := env.multipart(t, http.MethodPost, base+"/lectures", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.multipart(t, http.MethodPost, base+"/lectures", admin, nil,
		filePart{"videos", "a.mp4", []byte("a")},
		filePart{"videos", "b.mp4", []byte("b")},
		filePart{"videos", "c.mp4", []byte("c")},
	)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.multipart(t, http.MethodPost, base+"/lectures", admin, nil,
		filePart{"videos", "intro.mp4", []byte("video one")},
		filePart{"documents", "intro notes.pdf", []byte("doc one")},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var upload struct {
		Uploaded []string `json:"uploaded"`
		Slots    []struct {
			Number    int    `json:"number"`
			VideoName string `json:"video_name"`
			Uploaded  bool   `json:"uploaded"`
		} `json:"slots"`
		UploadComplete bool `json:"upload_complete"`
	}
	decode(t, resp, &upload)
	require.Len(t, upload.Uploaded, 2)
	require.Len(t, upload.Slots, 2)
	assert.Equal(t, "intro.mp4", upload.Slots[0].VideoName)
	assert.False(t, upload.Slots[1].Uploaded)
	assert.Equal(t, "Lecture Video 2", upload.Slots[1].VideoName)
	assert.False(t, upload.UploadComplete)

	// uploaded media is served back
	req := httptest.NewRequest(http.MethodGet, upload.Uploaded[0], nil)
	media, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, media.StatusCode)

	t.Run("num_videos below uploaded count", func(t *testing.T) {
		resp := env.multipart(t, http.MethodPut, base, admin, map[string]string{"num_videos": "0"})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("additional lecture", func(t *testing.T) {
		resp := env.multipart(t, http.MethodPut, base, admin, map[string]string{"extra_count": "1"},
			filePart{"extra_document_0", "bonus.pdf", []byte("bonus")})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated courseView
		decode(t, resp, &updated)
		assert.Equal(t, 3, updated.TotalLectures)
	})

	path := fmt.Sprintf("/api/courses/%d", course.ID)

	resp = env.do(t, http.MethodPost, path+"/lectures/1/toggle", learner, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path+"/enroll", learner, nil).StatusCode)

	var toggled struct {
		Completed bool         `json:"completed"`
		Progress  progressView `json:"course_progress"`
	}
	resp = env.do(t, http.MethodPost, path+"/lectures/1/toggle", learner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &toggled)
	assert.True(t, toggled.Completed)
	assert.Equal(t, 33.33, toggled.Progress.Percent)

	resp = env.do(t, http.MethodPost, path+"/lectures/1/toggle", learner, nil)
	decode(t, resp, &toggled)
	assert.False(t, toggled.Completed)
	assert.Equal(t, 0.0, toggled.Progress.Percent)

	for _, n := range []int{0, 4} {
		resp = env.do(t, http.MethodPost, fmt.Sprintf("%s/lectures/%d/toggle", path, n), learner, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "lecture %d", n)
	}

	resp = env.do(t, http.MethodGet, path+"/lectures", learner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lectures struct {
		Lectures []struct {
			Number int    `json:"number"`
			Type   string `json:"type"`
		} `json:"lectures"`
	}
	decode(t, resp, &lectures)
	// lecture 2 has no media yet, the additional lecture keeps number 3
	require.Len(t, lectures.Lectures, 2)
	assert.Equal(t, 1, lectures.Lectures[0].Number)
	assert.Equal(t, 3, lectures.Lectures[1].Number)
	assert.Equal(t, "additional", lectures.Lectures[1].Type)

	for _, n := range []int{1, 2, 3} {
		resp = env.do(t, http.MethodPost, fmt.Sprintf("%s/lectures/%d/toggle", path, n), learner, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp = env.do(t, http.MethodGet, "/api/progress", learner, nil)
	var progress []progressView
	decode(t, resp, &progress)
	require.Len(t, progress, 1)
	assert.Equal(t, 100.0, progress[0].Percent)

	resp = env.do(t, http.MethodGet, "/api/progress/completion-map", learner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadSameFileNameTwice(t *testing.T) {
	env := setup(t)
	admin := env.register(t, "admin@example.com", models.RoleAdmin)
	course := env.createCourse(t, admin, "Go Basics", "2")

	resp := env.multipart(t, http.MethodPost, fmt.Sprintf("/api/admin/courses/%d/lectures", course.ID), admin, nil,
		filePart{"videos", "lecture.mp4", []byte("first lecture")},
		filePart{"videos", "lecture.mp4", []byte("second lecture")},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var upload struct {
		Uploaded []string `json:"uploaded"`
		Slots    []struct {
			VideoName string `json:"video_name"`
		} `json:"slots"`
	}
	decode(t, resp, &upload)
	require.Len(t, upload.Uploaded, 2)
	assert.NotEqual(t, upload.Uploaded[0], upload.Uploaded[1])
	assert.Equal(t, "lecture.mp4", upload.Slots[0].VideoName)
	assert.Equal(t, "lecture.mp4", upload.Slots[1].VideoName)

	for i, want := range []string{"first lecture", "second lecture"} {
		media, err := env.app.Test(httptest.NewRequest(http.MethodGet, upload.Uploaded[i], nil), -1)
		require.NoError(t, err)
		body, err := io.ReadAll(media.Body)
		require.NoError(t, err)
		assert.Equal(t, want, string(body))
	}
}

func TestCertificates(t *testing.T) {
	env := setup(t)
	admin := env.register(t, "admin@example.com", models.RoleAdmin)
	learner := env.register(t, "learner@example.com", models.RoleLearner)
	course := env.createCourse(t, admin, "Go Basics", "1")
	path := fmt.Sprintf("/api/courses/%d", course.ID)
	certPath := fmt.Sprintf("/api/certificates/%d", course.ID)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path+"/enroll", learner, nil).StatusCode)
	resp := env.do(t, http.MethodGet, certPath, learner, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path+"/lectures/1/toggle", learner, nil).StatusCode)

	resp = env.do(t, http.MethodGet, "/api/certificates", learner, nil)
	var done []progressView
	decode(t, resp, &done)
	require.Len(t, done, 1)

	resp = env.do(t, http.MethodGet, certPath, learner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
}

func TestShrinkingCourseDoesNotUnlockCertificate(t *testing.T) {
	env := setup(t)
	admin := env.register(t, "admin@example.com", models.RoleAdmin)
	learner := env.register(t, "learner@example.com", models.RoleLearner)
	course := env.createCourse(t, admin, "Go Basics", "3")
	path := fmt.Sprintf("/api/courses/%d", course.ID)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path+"/enroll", learner, nil).StatusCode)
	for _, n := range []int{2, 3} {
		resp := env.do(t, http.MethodPost, fmt.Sprintf("%s/lectures/%d/toggle", path, n), learner, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := env.multipart(t, http.MethodPut, fmt.Sprintf("/api/admin/courses/%d", course.ID), admin,
		map[string]string{"num_videos": "2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/progress", learner, nil)
	var progress []progressView
	decode(t, resp, &progress)
	require.Len(t, progress, 1)
	assert.Equal(t, 1, progress[0].CompletedLectures)
	assert.Equal(t, 50.0, progress[0].Percent)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/certificates/%d", course.ID), learner, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var rows int64
	env.db.Model(&models.LectureCompletion{}).Where("course_id = ? AND lecture > 2", course.ID).Count(&rows)
	assert.Zero(t, rows)
}

func TestUpdateCourseExtraCountIsBoundedByFiles(t *testing.T) {
	env := setup(t)
	admin := env.register(t, "admin@example.com", models.RoleAdmin)
	course := env.createCourse(t, admin, "Go Basics", "1")

	resp := env.multipart(t, http.MethodPut, fmt.Sprintf("/api/admin/courses/%d", course.ID), admin,
		map[string]string{"extra_count": "2000000000"},
		filePart{"extra_video_5", "bonus.mp4", []byte("bonus")},
		filePart{"extra_document_2000000000", "ignored.pdf", []byte("ignored")},
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		TotalLectures      int `json:"total_lectures"`
		AdditionalLectures []struct {
			Video string `json:"video"`
		} `json:"additional_lectures"`
	}
	decode(t, resp, &updated)
	assert.Equal(t, 2, updated.TotalLectures)
	require.Len(t, updated.AdditionalLectures, 1)
	assert.NotEmpty(t, updated.AdditionalLectures[0].Video)
}

func TestAdminCourseManagement(t *testing.T) {
	env := setup(t)
	admin := env.register(t, "admin@example.com", models.RoleAdmin)
	learner := env.register(t, "learner@example.com", models.RoleLearner)

	resp := env.multipart(t, http.MethodPost, "/api/admin/courses", admin, map[string]string{
		"name": "Go Basics", "description": "d", "category": "c", "tags": "go",
		"num_videos": "1",
	}, filePart{"image", "cover.png", []byte("not really a png")})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var course courseView
	decode(t, resp, &course)
	require.True(t, strings.HasPrefix(course.ImageURL, "/media/images/"))
	imagePath := filepath.Join(env.mediaDir, filepath.FromSlash(strings.TrimPrefix(course.ImageURL, "/media/")))
	_, err := os.Stat(imagePath)
	require.NoError(t, err)

	resp = env.multipart(t, http.MethodPost, "/api/admin/courses", admin, map[string]string{
		"name": " ", "description": "d", "category": "c", "tags": "go", "num_videos": "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/courses?page=1&page_size=10", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/courses/%d/lectures", course.ID), admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/enroll", course.ID), learner, nil).StatusCode)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/courses/%d", course.ID), admin, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, err = os.Stat(imagePath)
	assert.True(t, os.IsNotExist(err))

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/courses/%d", course.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/courses/enrolled", learner, nil)
	var enrolled []courseView
	decode(t, resp, &enrolled)
	assert.Empty(t, enrolled)
}
