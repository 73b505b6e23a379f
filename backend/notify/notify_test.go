package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"learnify/backend/config"
	"learnify/backend/models"
	"learnify/backend/services"
	"learnify/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := utils.InitDB(&config.Config{
		DBDriver: config.DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "notify.db"),
	})
	require.NoError(t, err)
	return db
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *recordingMailer) Send(_ context.Context, _, toEmail, _, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail+":"+text)
	return m.err
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, Event) (int, error) {
	return 0, errors.New("bus down")
}

func TestHubDeliversToUserStreamsOnly(t *testing.T) {
	hub := NewHub(utils.NopLogger())
	a1 := hub.Subscribe(1)
	a2 := hub.Subscribe(1)
	b := hub.Subscribe(2)
	assert.Equal(t, 2, hub.Subscribers(1))

	n := hub.Deliver(Event{UserID: 1, Name: EventNotification})
	assert.Equal(t, 2, n)
	assert.Len(t, a1.Outbound, 1)
	assert.Len(t, a2.Outbound, 1)
	assert.Len(t, b.Outbound, 0)

	hub.Unsubscribe(a1)
	hub.Unsubscribe(a2)
	assert.Equal(t, 0, hub.Subscribers(1))
	assert.Equal(t, 0, hub.Deliver(Event{UserID: 1}))
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(utils.NopLogger())
	c := hub.Subscribe(7)
	for i := 0; i < cap(c.Outbound); i++ {
		require.Equal(t, 1, hub.Deliver(Event{UserID: 7}))
	}
	assert.Equal(t, 0, hub.Deliver(Event{UserID: 7}))
}

func TestDispatcherRunOnce(t *testing.T) {
	db := openTestDB(t)
	user := models.User{Email: "learner@example.com", PasswordHash: "x", Name: "Lea"}
	require.NoError(t, db.Create(&user).Error)

	_, err := services.CreateNotification(db, user.ID, "Study Go", "2024-05-17", "09:00", time.UTC)
	require.NoError(t, err)
	_, err = services.CreateNotification(db, user.ID, "Later", "2024-05-17", "18:00", time.UTC)
	require.NoError(t, err)

	hub := NewHub(utils.NopLogger())
	stream := hub.Subscribe(user.ID)
	mailer := &recordingMailer{err: errors.New("smtp down")}
	d := NewDispatcher(db, hub, mailer, time.Second, utils.NopLogger())

	now := time.Date(2024, time.May, 17, 12, 0, 0, 0, time.UTC)
	sent, err := d.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	select {
	case ev := <-stream.Outbound:
		assert.Equal(t, EventNotification, ev.Name)
		assert.Equal(t, "Study Go", ev.Data.Text)
		assert.NotEmpty(t, ev.ID)
	default:
		t.Fatal("expected an event on the stream")
	}
	// mail failure does not keep the notification around
	assert.Equal(t, []string{"learner@example.com:Study Go"}, mailer.sent)

	left, err := services.ListNotifications(db, user.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "Later", left[0].Text)

	sent, err = d.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestDispatcherKeepsNotificationUntilAStreamIsOpen(t *testing.T) {
	db := openTestDB(t)
	user := models.User{Email: "offline@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	_, err := services.CreateNotification(db, user.ID, "Study Go", "2024-05-17", "09:00", time.UTC)
	require.NoError(t, err)

	hub := NewHub(utils.NopLogger())
	d := NewDispatcher(db, hub, nil, time.Second, utils.NopLogger())
	now := time.Date(2024, time.May, 17, 12, 0, 0, 0, time.UTC)

	sent, err := d.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	left, err := services.ListNotifications(db, user.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)

	stream := hub.Subscribe(user.ID)
	sent, err = d.RunOnce(context.Background(), now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, stream.Outbound, 1)
	assert.Equal(t, "Study Go", (<-stream.Outbound).Data.Text)

	left, err = services.ListNotifications(db, user.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDispatcherRemovesOfflineNotificationOnceMailed(t *testing.T) {
	db := openTestDB(t)
	user := models.User{Email: "offline@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	_, err := services.CreateNotification(db, user.ID, "Study Go", "2024-05-17", "09:00", time.UTC)
	require.NoError(t, err)

	mailer := &recordingMailer{err: errors.New("smtp down")}
	d := NewDispatcher(db, NewHub(utils.NopLogger()), mailer, time.Second, utils.NopLogger())
	now := time.Date(2024, time.May, 17, 12, 0, 0, 0, time.UTC)

	sent, err := d.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	mailer.err = nil
	sent, err = d.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, mailer.sent, 2)
}

func TestDispatcherAcknowledge(t *testing.T) {
	db := openTestDB(t)
	user := models.User{Email: "x@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	n, err := services.CreateNotification(db, user.ID, "Study Go", "2024-05-17", "09:00", time.UTC)
	require.NoError(t, err)

	d := NewDispatcher(db, NewHub(utils.NopLogger()), nil, time.Second, utils.NopLogger())
	require.NoError(t, d.Acknowledge(context.Background(), NewNotificationEvent(*n, time.Now())))

	left, err := services.ListNotifications(db, user.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDispatcherKeepsNotificationWhenPublishFails(t *testing.T) {
	db := openTestDB(t)
	user := models.User{Email: "x@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	_, err := services.CreateNotification(db, user.ID, "Retry me", "2024-05-17", "09:00", time.UTC)
	require.NoError(t, err)

	d := NewDispatcher(db, failingPublisher{}, nil, time.Second, utils.NopLogger())
	sent, err := d.RunOnce(context.Background(), time.Date(2024, time.May, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	left, err := services.ListNotifications(db, user.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestDispatcherRunStopsOnCancel(t *testing.T) {
	db := openTestDB(t)
	d := NewDispatcher(db, NewHub(utils.NopLogger()), nil, 10*time.Millisecond, utils.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestSendgridMailer(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendgridMailer("sg-key", "Learnify", "noreply@learnify.local", utils.NopLogger())
	m.host = srv.URL
	require.NoError(t, m.Send(context.Background(), "Lea", "lea@example.com", "Reminder", "Study Go"))

	personalizations := got["personalizations"].([]interface{})
	p := personalizations[0].(map[string]interface{})
	assert.Equal(t, "[Learnify] Reminder", p["subject"])

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer bad.Close()
	m.host = bad.URL
	assert.Error(t, m.Send(context.Background(), "Lea", "lea@example.com", "Reminder", "Study Go"))
}

func TestNewMailerWithoutKeyIsNop(t *testing.T) {
	assert.IsType(t, NopMailer{}, NewMailer("", "", "", utils.NopLogger()))
	assert.IsType(t, &SendgridMailer{}, NewMailer("k", "n", "e@x.y", utils.NopLogger()))
}

// Requires a running redis; set LEARNIFY_TEST_REDIS_ADDR to enable.
func TestRedisBusRoundTrip(t *testing.T) {
	addr := os.Getenv("LEARNIFY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LEARNIFY_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewRedisBus(ctx, addr, "learnify:test:"+time.Now().Format("150405.000"), utils.NopLogger())
	require.NoError(t, err)
	defer bus.Close()

	hub := NewHub(utils.NopLogger())
	stream := hub.Subscribe(5)
	acked := make(chan string, 1)
	ack := func(_ context.Context, ev Event) error {
		acked <- ev.ID
		return nil
	}
	require.NoError(t, bus.StartForwarder(ctx, hub, ack))
	n, err := bus.Publish(ctx, Event{ID: "e1", UserID: 5, Name: EventNotification})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	select {
	case ev := <-stream.Outbound:
		assert.Equal(t, "e1", ev.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("event not forwarded")
	}
	select {
	case id := <-acked:
		assert.Equal(t, "e1", id)
	case <-time.After(3 * time.Second):
		t.Fatal("delivery not acknowledged")
	}
}
