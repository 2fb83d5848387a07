package session_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"taskdash/internal/api"
	"taskdash/internal/auth"
	"taskdash/internal/client"
	"taskdash/internal/service"
	"taskdash/internal/session"
	"taskdash/internal/state"
	"taskdash/internal/tasks"
	"taskdash/internal/testutil"
)

func signedToken(t *testing.T, uid string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uid,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

// TestSignInLoadsTasks follows sign-in through the auth store, the task
// store and the HTTP API, then signs out.
func TestSignInLoadsTasks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token := signedToken(t, "u1")

	store := testutil.NewFakeStore()
	store.Seed(service.Task{Title: "Buy milk", Description: "2% lactose-free", Status: service.StatusToDo, DueDate: "2025-01-10", OwnerID: "u1"})
	store.Seed(service.Task{Title: "Other", Description: "d", Status: service.StatusToDo, DueDate: "2025-01-10", OwnerID: "u2"})

	verifier := auth.NewStaticVerifier(map[string]service.Identity{token: {UID: "u1"}})
	srv, err := api.NewServer(api.Options{Tasks: tasks.NewManager(store), Verifier: verifier, StrictValidation: true})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	sess := session.NewManager(session.WithVerifier(verifier))
	taskStore := state.NewTaskStore(client.New(ts.URL, sess.TokenSource()))
	authStore := state.NewAuthStore(taskStore)

	loaded := make(chan state.TaskState, 1)
	taskStore.Subscribe(func(st state.TaskState) {
		if st.Status == state.StatusSucceeded || st.Status == state.StatusFailed {
			select {
			case loaded <- st:
			default:
			}
		}
	})

	unbind := authStore.Bind(context.Background(), sess)
	defer unbind()

	if _, err := sess.SignIn(context.Background(), token); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	select {
	case st := <-loaded:
		if st.Status != state.StatusSucceeded || len(st.Tasks) != 1 || st.Tasks[0].Title != "Buy milk" {
			t.Fatalf("unexpected state %+v", st)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tasks were not loaded after sign-in")
	}

	if _, err := taskStore.Create(context.Background(), service.TaskInput{
		Title: "Walk dog", Description: "around the block", Status: service.StatusInProgress, DueDate: "2025-01-11",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := len(taskStore.State().Tasks); got != 2 {
		t.Errorf("expected 2 cached tasks, got %d", got)
	}

	sess.SignOut()
	if authStore.Current() != nil || len(taskStore.State().Tasks) != 0 {
		t.Errorf("sign-out should clear identity and tasks, got %+v", taskStore.State())
	}
}
