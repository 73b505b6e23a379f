package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"learnify/backend/config"
	"learnify/backend/notify"
	"learnify/backend/routes"
	"learnify/backend/services"
	"learnify/backend/storage"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	cfg      *config.Config
	hub      *notify.Hub
	mediaDir string
}

type envelope struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DBDriver:           config.DriverSQLite,
		DBPath:             filepath.Join(dir, "learnify.db"),
		JWTSecret:          "testsecret",
		JWTTTL:             time.Hour,
		StorageMode:        config.StorageLocal,
		StorageDir:         filepath.Join(dir, "media"),
		NotifyPollInterval: time.Second,
	}
	log := utils.NopLogger()

	db, err := utils.InitDB(cfg)
	require.NoError(t, err)
	store, err := storage.New(context.Background(), cfg, log)
	require.NoError(t, err)
	renderer, err := services.NewCertificateRenderer()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := notify.NewHub(log)
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler(log)})
	routes.SetupRoutes(app, routes.Deps{
		DB:           db,
		Cfg:          cfg,
		Log:          log,
		Store:        store,
		Hub:          hub,
		Certificates: renderer,
		Shutdown:     ctx,
	})
	return &testEnv{app: app, db: db, cfg: cfg, hub: hub, mediaDir: cfg.StorageDir}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type filePart struct {
	field, name string
	content     []byte
}

func (e *testEnv) multipart(t *testing.T, method, path, token string, fields map[string]string, files ...filePart) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

// register creates an account and returns its token.
func (e *testEnv) register(t *testing.T, email, role string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
		"role":     role,
		"name":     "Test " + role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var data struct {
		Token string `json:"token"`
	}
	decode(t, resp, &data)
	require.NotEmpty(t, data.Token)
	return data.Token
}

type courseView struct {
	ID            uint     `json:"id"`
	Name          string   `json:"name"`
	Tags          []string `json:"tags"`
	ImageURL      string   `json:"image_url"`
	NumVideos     int      `json:"num_videos"`
	VideoURLs     []string `json:"video_urls"`
	TotalLectures int      `json:"total_lectures"`
	Enrolled      bool     `json:"enrolled"`
	HasQuiz       bool     `json:"has_quiz"`
}

func (e *testEnv) createCourse(t *testing.T, adminToken, name string, numVideos string) courseView {
	t.Helper()
	resp := e.multipart(t, http.MethodPost, "/api/admin/courses", adminToken, map[string]string{
		"name":        name,
		"description": "About " + name,
		"category":    "Programming",
		"tags":        "go, backend",
		"num_videos":  numVideos,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var course courseView
	decode(t, resp, &course)
	require.NotZero(t, course.ID)
	return course
}
