package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"emergency-ops-backend/internal/db"
	"emergency-ops-backend/internal/model"
)

type sentNotification struct {
	endpoint string
	payload  []byte
}

// mockSender records sends and answers with a configurable status.
type mockSender struct {
	mu        sync.Mutex
	sent      []sentNotification
	statusFor map[string]int
	onSend    func()
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	m.mu.Lock()
	m.sent = append(m.sent, sentNotification{endpoint: sub.Endpoint, payload: payload})
	status := http.StatusCreated
	if s, ok := m.statusFor[sub.Endpoint]; ok {
		status = s
	}
	m.mu.Unlock()

	if m.onSend != nil {
		m.onSend()
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}, nil
}

func (m *mockSender) endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.endpoint
	}
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func seedSubscriptions(t *testing.T, gdb *gorm.DB) {
	er := model.Ward{Name: "ER"}
	icu := model.Ward{Name: "ICU"}
	require.NoError(t, gdb.Create(&er).Error)
	require.NoError(t, gdb.Create(&icu).Error)

	subs := []model.PushSubscription{
		{Endpoint: "https://push.example/er-nurse", P256DH: "k1", Auth: "a1", Wards: []*model.Ward{&er}},
		{Endpoint: "https://push.example/icu-nurse", P256DH: "k2", Auth: "a2", Wards: []*model.Ward{&icu}},
		{Endpoint: "https://push.example/charge-doc", P256DH: "k3", Auth: "a3", CriticalAlerts: true},
	}
	for i := range subs {
		require.NoError(t, gdb.Create(&subs[i]).Error)
	}
}

func TestProcess_BedFreedTargetsWard(t *testing.T) {
	gdb := newTestDB(t)
	seedSubscriptions(t, gdb)

	sender := &mockSender{}
	wp := NewWorkerPool(1, 8, gdb, &webpush.Options{}, zap.NewNop())
	wp.SetSender(sender)

	wp.process(context.Background(), Event{
		Kind:  EventBedFreed,
		Ward:  "ER",
		Title: "Bed available in ER",
		Body:  "Bed ER-01 was freed",
	})

	assert.Equal(t, []string{"https://push.example/er-nurse"}, sender.endpoints())
	require.Len(t, sender.sent, 1)
	assert.Contains(t, string(sender.sent[0].payload), "Bed available in ER")
}

func TestProcess_CriticalIntakeTargetsOptIns(t *testing.T) {
	gdb := newTestDB(t)
	seedSubscriptions(t, gdb)

	sender := &mockSender{}
	wp := NewWorkerPool(1, 8, gdb, &webpush.Options{}, zap.NewNop())
	wp.SetSender(sender)

	wp.process(context.Background(), Event{
		Kind:  EventCriticalIntake,
		Title: "Critical intake (triage 1)",
		Body:  "chest pain",
	})

	assert.Equal(t, []string{"https://push.example/charge-doc"}, sender.endpoints())
}

func TestProcess_ExpiredSubscriptionIsPruned(t *testing.T) {
	gdb := newTestDB(t)
	seedSubscriptions(t, gdb)

	sender := &mockSender{statusFor: map[string]int{
		"https://push.example/charge-doc": http.StatusGone,
	}}
	wp := NewWorkerPool(1, 8, gdb, &webpush.Options{}, zap.NewNop())
	wp.SetSender(sender)

	wp.process(context.Background(), Event{Kind: EventCriticalIntake, Title: "t", Body: "b"})

	var count int64
	require.NoError(t, gdb.Model(&model.PushSubscription{}).
		Where("endpoint = ?", "https://push.example/charge-doc").
		Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDispatchThroughWorkers(t *testing.T) {
	gdb := newTestDB(t)
	seedSubscriptions(t, gdb)

	var wg sync.WaitGroup
	wg.Add(1)
	sender := &mockSender{onSend: wg.Done}

	wp := NewWorkerPool(2, 8, gdb, &webpush.Options{}, zap.NewNop())
	wp.SetSender(sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(Event{Kind: EventBedFreed, Ward: "ICU", Title: "t", Body: "b"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification dispatch")
	}

	assert.Equal(t, []string{"https://push.example/icu-nurse"}, sender.endpoints())
}
