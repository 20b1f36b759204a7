package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xKaaZz/Waeleaks/pkg/httpclient"
)

func TestTelegramMessengerPostsForm(t *testing.T) {
	var gotPath, gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotPath = r.URL.Path
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	m := NewTelegramMessenger(httpclient.NewRestyClient(5*time.Second), srv.URL+"/")
	if err := m.Send(context.Background(), "4242", "123:ABC", "New chapter of Kingdom! Chapter 800 is available"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/bot123:ABC/sendMessage" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotChat != "4242" || gotText != "New chapter of Kingdom! Chapter 800 is available" {
		t.Fatalf("form chat_id=%q text=%q", gotChat, gotText)
	}
}

func TestTelegramMessengerNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"ok":false,"description":"bot was blocked by the user"}`))
	}))
	defer srv.Close()

	m := NewTelegramMessenger(httpclient.NewRestyClient(5*time.Second), srv.URL)
	if err := m.Send(context.Background(), "4242", "tok", "hi"); err == nil {
		t.Fatalf("expected error for 403")
	}
}

func TestTelegramMessengerRequiresEndpoint(t *testing.T) {
	m := NewTelegramMessenger(httpclient.NewRestyClient(time.Second), "")
	if err := m.Send(context.Background(), "", "tok", "hi"); err == nil {
		t.Fatalf("expected error for missing recipient")
	}
}

func TestTelegramMessengerRedactsCredentialFromTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	m := NewTelegramMessenger(httpclient.NewRestyClient(time.Second), base)
	err := m.Send(context.Background(), "4242", "123:SECRET", "hello")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if strings.Contains(err.Error(), "123:SECRET") {
		t.Fatalf("credential leaked: %v", err)
	}
}
