package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitQuestAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// Broadcaster fans events out to live connections.
type Broadcaster interface {
	Broadcast(evt *notification.Event)
}

type DeviceLister interface {
	ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error)
}

// NotificationDispatcher delivers gamification events through push and the
// realtime feed on a small worker pool.
type NotificationDispatcher struct {
	devices      DeviceLister
	pushProvider PushNotificationProvider
	broadcaster  Broadcaster
	workers      int
	jobQueue     chan *notification.Event
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewNotificationDispatcher(devices DeviceLister, workers int) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		devices:  devices,
		workers:  max(workers, 1),
		jobQueue: make(chan *notification.Event, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()
	return dispatcher
}

// Allow injecting the real FCM provider from main.go
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) SetBroadcaster(b Broadcaster) {
	d.broadcaster = b
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case evt := <-d.jobQueue:
			d.processJob(evt)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(evt *notification.Event) {
	if d.broadcaster != nil {
		d.broadcaster.Broadcast(evt)
	}

	// Leaderboard snapshots are feed-only.
	if evt.Kind == notification.EventLeaderboard || d.pushProvider == nil || d.devices == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := d.devices.ListDeviceTokens(ctx, evt.UserID)
	if err != nil {
		log.Printf("Dispatcher: failed to load devices for user %s: %v", evt.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	data := map[string]any{"kind": string(evt.Kind)}
	for k, v := range evt.Data {
		data[k] = v
	}
	if err := d.pushProvider.SendPush(ctx, tokens, evt.Title, evt.Body, data); err != nil {
		log.Printf("Push failed for user %s: %v", evt.UserID, err)
	}
}

// Publish queues evt without blocking. A full queue drops the event.
func (d *NotificationDispatcher) Publish(evt *notification.Event) {
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}

	select {
	case d.jobQueue <- evt:
	case <-d.stopChan:
	default:
		eventsDropped.Inc()
		log.Printf("Dispatcher: queue full, dropped %s event for user %s", evt.Kind, evt.UserID)
	}
}

// Stop the dispatcher gracefully
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		log.Println("Stopping notification dispatcher...")
		close(d.stopChan)
		d.wg.Wait()
		log.Println("Notification dispatcher stopped")
	})
}
