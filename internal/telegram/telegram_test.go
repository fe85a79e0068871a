package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tasteit/internal/bot"
	"tasteit/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testToken = "123:SECRET"

type apiCall struct {
	method string
	body   map[string]any
}

// fakeAPI serves Bot API methods from a per-method reply function.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	replies map[string]func(body map[string]any) (int, string)
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{replies: map[string]func(map[string]any) (int, string){}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := "/bot" + testToken + "/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		method := strings.TrimPrefix(r.URL.Path, prefix)
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		f.mu.Lock()
		f.calls = append(f.calls, apiCall{method: method, body: body})
		reply, ok := f.replies[method]
		f.mu.Unlock()

		status, payload := http.StatusOK, `{"ok":true,"result":true}`
		if ok {
			status, payload = reply(body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) on(method string, reply func(map[string]any) (int, string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[method] = reply
}

func (f *fakeAPI) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Options{Token: testToken, BaseURL: srv.URL, Retries: 2, HTTPClient: srv.Client()})
}

func TestSendMessage(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on("sendMessage", func(map[string]any) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"message_id":17,"chat":{"id":5,"type":"private"}}}`
	})
	c := newTestClient(srv)

	kb := model.Keyboard{{{Text: "➡️", Data: "s:NEXT"}, {Text: "🌐", URL: "https://example.com"}}}
	id, err := c.SendMessage(context.Background(), 5, "<b>hi</b>", kb)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if id != 17 {
		t.Errorf("id = %d, want 17", id)
	}

	body := api.callsTo("sendMessage")[0].body
	if body["parse_mode"] != "HTML" || body["text"] != "<b>hi</b>" {
		t.Errorf("body = %v", body)
	}
	rows := body["reply_markup"].(map[string]any)["inline_keyboard"].([]any)
	buttons := rows[0].([]any)
	if buttons[0].(map[string]any)["callback_data"] != "s:NEXT" || buttons[1].(map[string]any)["url"] != "https://example.com" {
		t.Errorf("keyboard = %v", rows)
	}
}

func TestSendMessageWithoutKeyboard(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on("sendMessage", func(map[string]any) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"message_id":1,"chat":{"id":5,"type":"private"}}}`
	})
	if _, err := newTestClient(srv).SendMessage(context.Background(), 5, "plain", nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := api.callsTo("sendMessage")[0].body["reply_markup"]; ok {
		t.Error("reply_markup sent without keyboard")
	}
}

func TestEditNotModifiedIsIgnored(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on("editMessageText", func(map[string]any) (int, string) {
		return http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: message is not modified"}`
	})
	if err := newTestClient(srv).EditMessageText(context.Background(), 5, 9, "same", nil); err != nil {
		t.Errorf("EditMessageText: %v", err)
	}
}

func TestClientErrors(t *testing.T) {
	t.Run("bad request is not retried", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		api.on("deleteMessage", func(map[string]any) (int, string) {
			return http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: message to delete not found"}`
		})
		err := newTestClient(srv).DeleteMessage(context.Background(), 5, 9)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Code != 400 {
			t.Fatalf("err = %v", err)
		}
		if n := len(api.callsTo("deleteMessage")); n != 1 {
			t.Errorf("calls = %d, want 1", n)
		}
	})

	t.Run("server error is retried", func(t *testing.T) {
		api, srv := newFakeAPI(t)
		var n int
		api.on("answerCallbackQuery", func(map[string]any) (int, string) {
			n++
			if n == 1 {
				return http.StatusBadGateway, `{"ok":false,"error_code":502,"description":"Bad Gateway"}`
			}
			return http.StatusOK, `{"ok":true,"result":true}`
		})
		if err := newTestClient(srv).AnswerCallbackQuery(context.Background(), "q1"); err != nil {
			t.Fatalf("AnswerCallbackQuery: %v", err)
		}
		if got := len(api.callsTo("answerCallbackQuery")); got != 2 {
			t.Errorf("calls = %d, want 2", got)
		}
	})

	t.Run("token is not leaked", func(t *testing.T) {
		c := NewClient(Options{Token: testToken, BaseURL: "http://127.0.0.1:1", Retries: 1, Timeout: time.Second})
		err := c.DeleteMessage(context.Background(), 5, 9)
		if err == nil {
			t.Fatal("expected an error")
		}
		if strings.Contains(err.Error(), "SECRET") {
			t.Errorf("token leaked: %v", err)
		}
	})
}

func TestToUpdate(t *testing.T) {
	tests := []struct {
		name string
		in   Update
		want model.Update
		ok   bool
	}{
		{
			name: "text",
			in: Update{UpdateID: 1, Message: &Message{
				MessageID: 10, Text: "/search", Chat: Chat{ID: 5, Type: "private"},
				From: &User{ID: 8, LanguageCode: "it"},
			}},
			want: model.Update{ID: 1, ChatID: 5, UserID: 8, ChatKind: model.ChatPrivate, UserLanguage: "it",
				Kind: model.EventText, Text: "/search", MessageRef: "10"},
			ok: true,
		},
		{
			name: "location",
			in: Update{UpdateID: 2, Message: &Message{
				MessageID: 11, Chat: Chat{ID: -3, Type: "group"},
				Location: &Location{Latitude: 45.1, Longitude: 9.2},
			}},
			want: model.Update{ID: 2, ChatID: -3, ChatKind: model.ChatGroup, Kind: model.EventLocation,
				Location: &model.Location{Latitude: 45.1, Longitude: 9.2}, MessageRef: "11"},
			ok: true,
		},
		{
			name: "callback",
			in: Update{UpdateID: 3, CallbackQuery: &CallbackQuery{
				ID: "q", Data: "f:LIST:4", From: User{ID: 8},
				Message: &Message{MessageID: 12, Chat: Chat{ID: -3, Type: "supergroup"}},
			}},
			want: model.Update{ID: 3, ChatID: -3, UserID: 8, ChatKind: model.ChatSupergroup,
				Kind: model.EventCallback, Callback: "f:LIST:4", MessageRef: "12"},
			ok: true,
		},
		{
			name: "sticker",
			in:   Update{UpdateID: 4, Message: &Message{MessageID: 13, Chat: Chat{ID: 5, Type: "private"}}},
		},
		{
			name: "empty",
			in:   Update{UpdateID: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToUpdate(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Location != nil && tt.want.Location != nil && *got.Location == *tt.want.Location {
				got.Location, tt.want.Location = nil, nil
			}
			if got != tt.want {
				t.Errorf("got %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestTransportApply(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on("sendMessage", func(map[string]any) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"message_id":21,"chat":{"id":5,"type":"group"}}}`
	})
	api.on("sendPoll", func(map[string]any) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"message_id":22,"chat":{"id":5,"type":"group"}}}`
	})
	tr := NewTransport(newTestClient(srv))
	ctx := context.Background()

	ref, err := tr.Apply(ctx, 5, model.SendTracked("hello", nil))
	if err != nil || ref != "21" {
		t.Fatalf("send: ref %q err %v", ref, err)
	}
	if _, err := tr.Apply(ctx, 5, model.EditMessage("21", "edited", nil)); err != nil {
		t.Errorf("edit: %v", err)
	}
	if _, err := tr.Apply(ctx, 5, model.DeleteMessage("not-a-number")); err == nil {
		t.Error("expected invalid ref error")
	}
	ref, err = tr.Apply(ctx, 5, model.StartPoll("Where?", []string{"A", "B"}, 300))
	if err != nil || ref != "22" {
		t.Fatalf("poll: ref %q err %v", ref, err)
	}

	poll := api.callsTo("sendPoll")[0].body
	if poll["open_period"] != float64(300) || poll["is_anonymous"] != false {
		t.Errorf("poll body = %v", poll)
	}
	if edit := api.callsTo("editMessageText")[0].body; edit["message_id"] != float64(21) {
		t.Errorf("edit body = %v", edit)
	}
}

type chanSink chan model.Update

func (s chanSink) Dispatch(u model.Update) error {
	s <- u
	return nil
}

func TestWebhook(t *testing.T) {
	sink := make(chanSink, 1)
	s := NewServer(ServerOptions{Secret: "s3cret", Version: "1.2.3", Sink: sink})

	body := `{"update_id":7,"message":{"message_id":3,"chat":{"id":5,"type":"private"},"text":"/start"}}`

	t.Run("wrong secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(body))
		req.Header.Set(SecretHeader, "nope")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader("{"))
		req.Header.Set(SecretHeader, "s3cret")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("delivered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(body))
		req.Header.Set(SecretHeader, "s3cret")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		select {
		case u := <-sink:
			if u.ID != 7 || u.Text != "/start" || u.ChatID != 5 {
				t.Errorf("update = %+v", u)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("update not dispatched")
		}
	})

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var got map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got["status"] != "healthy" || got["version"] != "1.2.3" {
			t.Errorf("health = %v", got)
		}
	})
}

type orderSink struct {
	mu  sync.Mutex
	ids []int64
}

func (s *orderSink) Dispatch(u model.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, u.ID)
	return nil
}

func TestWebhookKeepsReceiptOrder(t *testing.T) {
	api, srv := newFakeAPI(t)
	answered := make(chan struct{})
	api.on("answerCallbackQuery", func(map[string]any) (int, string) {
		defer close(answered)
		time.Sleep(200 * time.Millisecond)
		return http.StatusOK, `{"ok":true,"result":true}`
	})
	sink := &orderSink{}
	s := NewServer(ServerOptions{Secret: "s3cret", Client: newTestClient(srv), Sink: sink})

	post := func(body string) {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(body))
		req.Header.Set(SecretHeader, "s3cret")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	}
	post(`{"update_id":1,"callback_query":{"id":"q1","from":{"id":9},"data":"s:FOOD","message":{"message_id":4,"chat":{"id":5,"type":"private"}}}}`)
	post(`{"update_id":2,"message":{"message_id":5,"from":{"id":9},"chat":{"id":5,"type":"private"},"text":"sushi"}}`)

	sink.mu.Lock()
	got := append([]int64(nil), sink.ids...)
	sink.mu.Unlock()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("dispatch order = %v, want [1 2]", got)
	}

	select {
	case <-answered:
	case <-time.After(2 * time.Second):
		t.Fatal("callback query not answered")
	}
}

type cancelSink struct {
	cancel context.CancelFunc
	mu     sync.Mutex
	got    []int64
}

func (s *cancelSink) Dispatch(u model.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, u.ID)
	if u.ID == 6 {
		s.cancel()
	}
	return nil
}

func TestPollerAdvancesOffset(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.on("getUpdates", func(body map[string]any) (int, string) {
		switch body["offset"] {
		case nil:
			return http.StatusOK, `{"ok":true,"result":[{"update_id":5,"message":{"message_id":1,"chat":{"id":5,"type":"private"},"text":"hi"}}]}`
		case float64(6):
			return http.StatusOK, `{"ok":true,"result":[{"update_id":6,"callback_query":{"id":"q","from":{"id":1},"data":"s:NEXT","message":{"message_id":2,"chat":{"id":5,"type":"private"}}}}]}`
		}
		return http.StatusOK, `{"ok":true,"result":[]}`
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sink := &cancelSink{cancel: cancel}
	p := NewPoller(newTestClient(srv), sink, time.Second, nil)

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.got) != 2 || sink.got[0] != 5 || sink.got[1] != 6 {
		t.Errorf("dispatched = %v", sink.got)
	}
	if len(api.callsTo("answerCallbackQuery")) != 1 {
		t.Error("callback query not answered")
	}
	if len(api.callsTo("deleteWebhook")) != 1 {
		t.Error("webhook not removed before polling")
	}
}

func TestFormatIncident(t *testing.T) {
	in := bot.Incident{
		ID:     "01HZX",
		Time:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ChatID: 5,
		Flow:   model.FlowSearch,
		State:  bot.Searching,
		Op:     "search restaurants",
		Err:    errors.New("status <502>"),
	}
	got := FormatIncident(in)
	if !strings.HasPrefix(got, "<pre>") || !strings.HasSuffix(got, "</pre>") {
		t.Errorf("not preformatted: %q", got)
	}
	for _, want := range []string{"incident: 01HZX", "2024-05-01T12:00:00Z", "flow: search", "status &lt;502&gt;"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestReporterWithoutChatOnlyLogs(t *testing.T) {
	api, srv := newFakeAPI(t)
	r := NewReporter(newTestClient(srv), 0, nil)
	r.Report(context.Background(), bot.Incident{ID: "x"})
	if len(api.callsTo("sendMessage")) != 0 {
		t.Error("report sent without operator chat")
	}
}
