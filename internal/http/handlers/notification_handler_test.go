package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/snapquest/go-snapquest-backend/internal/domain"
	"github.com/snapquest/go-snapquest-backend/internal/services"
)

func newNotifRouter(notif NotificationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(stubReactionSvc{}, notif, nil)
	r := gin.New()
	r.GET("/notifications", h.ListNotifications)
	r.GET("/notifications/unread_count", h.UnreadCount)
	r.POST("/notifications/:id/read", h.MarkNotificationRead)
	r.POST("/notifications/read_all", h.MarkAllNotificationsRead)
	return r
}

func TestListNotifications_PaginationEnvelope(t *testing.T) {
	notif := stubNotifSvc{list: func(_ context.Context, playerID string, page, size int) ([]domain.Notification, int64, error) {
		if playerID != "p1" || page != 2 || size != 10 {
			t.Fatalf("args: %q %d %d", playerID, page, size)
		}
		return []domain.Notification{
			{ID: "n1", Type: domain.NotificationTypeReactionBatched, Title: "3 new reactions", CreatedAt: time.Now().UTC()},
		}, 11, nil
	}}
	r := newNotifRouter(notif)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications?page=2&page_size=10", nil)
	req.Header.Set("X-User-ID", "p1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp ListNotificationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Notifications) != 1 || resp.Notifications[0].ID != "n1" {
		t.Fatalf("items: %+v", resp.Notifications)
	}
	p := resp.Pagination
	if p.Page != 2 || p.PageSize != 10 || p.Total != 11 || p.TotalPages != 2 || p.HasNext {
		t.Fatalf("pagination: %+v", p)
	}
}

func TestListNotifications_ClampsBadParams(t *testing.T) {
	notif := stubNotifSvc{list: func(_ context.Context, _ string, page, size int) ([]domain.Notification, int64, error) {
		if page != 1 || size != 100 {
			t.Fatalf("clamped args: %d %d", page, size)
		}
		return nil, 0, nil
	}}
	r := newNotifRouter(notif)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications?page=-3&page_size=9999", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListNotifications_Error(t *testing.T) {
	notif := stubNotifSvc{list: func(context.Context, string, int, int) ([]domain.Notification, int64, error) {
		return nil, 0, errors.New("db unavailable")
	}}
	r := newNotifRouter(notif)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUnreadCount(t *testing.T) {
	notif := stubNotifSvc{unread: func(_ context.Context, playerID string) (int64, error) {
		if playerID != "p1" {
			t.Fatalf("playerID = %q", playerID)
		}
		return 7, nil
	}}
	r := newNotifRouter(notif)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications/unread_count", nil)
	req.Header.Set("X-User-ID", "p1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp UnreadCountResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Unread != 7 {
		t.Fatalf("unread = %d", resp.Unread)
	}
}

func TestMarkNotificationRead_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusNoContent},
		{"not found", services.ErrNotificationNotFound, http.StatusNotFound},
		{"internal", errors.New("db unavailable"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		notif := stubNotifSvc{mark: func(_ context.Context, _, notificationID string) error {
			if notificationID != "n1" {
				t.Fatalf("id = %q", notificationID)
			}
			return tc.err
		}}
		r := newNotifRouter(notif)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notifications/n1/read", nil))
		if w.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d", tc.name, w.Code, tc.want)
		}
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	notif := stubNotifSvc{markAll: func(context.Context, string) (int64, error) { return 5, nil }}
	r := newNotifRouter(notif)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notifications/read_all", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp MarkAllReadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Marked != 5 {
		t.Fatalf("marked = %d", resp.Marked)
	}
}
