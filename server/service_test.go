package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DipperMason/desk-calculator/internal/config"
	"github.com/DipperMason/desk-calculator/internal/store"
	"github.com/golang-jwt/jwt"
)

type viewResponse struct {
	ID      string `json:"id"`
	Display string `json:"display"`
	Error   string `json:"error"`
	State   struct {
		Accumulator float64 `json:"accumulator"`
		Operand     float64 `json:"operand"`
		Operator    string  `json:"operator"`
		Mode        string  `json:"mode"`
	} `json:"state"`
}

type historyResponse struct {
	ID         int64   `json:"id"`
	Expression string  `json:"expression"`
	Op         string  `json:"op"`
	Result     float64 `json:"result"`
	Display    string  `json:"display"`
	Verified   bool    `json:"verified"`
}

func newTestService(t *testing.T, withStore bool) (*Service, http.Handler) {
	t.Helper()
	var st *store.Store
	if withStore {
		var err error
		st, err = store.Open(filepath.Join(t.TempDir(), "tape.db"))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { st.Close() })
	}
	svc := New(st, config.Default(), nil)
	svc.SetLogger(log.New(io.Discard, "", 0))
	return svc, svc.Router()
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func login(t *testing.T, h http.Handler, user string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/token", "", url.Values{"user": {user}}.Encode())
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /token = %d %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decode(t, rec, &resp)
	return resp["token"]
}

func createSession(t *testing.T, h http.Handler, token string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/sessions", token, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /sessions = %d %s", rec.Code, rec.Body.String())
	}
	var v viewResponse
	decode(t, rec, &v)
	if v.ID == "" || v.Display != "" {
		t.Fatalf("new session = %+v", v)
	}
	return v.ID
}

func TestTokenRequired(t *testing.T) {
	_, h := newTestService(t, false)
	if rec := do(t, h, http.MethodPost, "/sessions", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("без токена = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/sessions", "garbage", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("мусорный токен = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/token", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("токен без имени = %d", rec.Code)
	}
}

func TestExpiredAndForeignTokens(t *testing.T) {
	_, h := newTestService(t, false)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": "anna",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	token, _ := expired.SignedString([]byte(config.Default().Secret))
	if rec := do(t, h, http.MethodPost, "/sessions", token, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("просроченный токен = %d", rec.Code)
	}

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"name": "anna"})
	token, _ = foreign.SignedString([]byte("другой ключ"))
	if rec := do(t, h, http.MethodPost, "/sessions", token, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("чужой ключ = %d", rec.Code)
	}
}

func TestKeysScenario(t *testing.T) {
	_, h := newTestService(t, false)
	token := login(t, h, "anna")
	id := createSession(t, h, token)

	rec := do(t, h, http.MethodPost, "/sessions/"+id+"/keys", token, `{"keys": "2 + 3 ="}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("keys = %d %s", rec.Code, rec.Body.String())
	}
	var v viewResponse
	decode(t, rec, &v)
	if v.Display != "5.00" || v.State.Accumulator != 5 || v.State.Operator != "+" || v.State.Mode != "clear_on_next_digit" {
		t.Errorf("view = %+v", v)
	}

	rec = do(t, h, http.MethodGet, "/sessions/"+id, token, "")
	decode(t, rec, &v)
	if v.Display != "5.00" {
		t.Errorf("GET display = %q", v.Display)
	}
}

func TestDivisionByZeroResponse(t *testing.T) {
	_, h := newTestService(t, false)
	token := login(t, h, "anna")
	id := createSession(t, h, token)

	rec := do(t, h, http.MethodPost, "/sessions/"+id+"/keys", token, `{"keys": "8 / 0 ="}`)
	var v viewResponse
	decode(t, rec, &v)
	if v.Display != "ERROR" || v.Error == "" || v.State.Accumulator != 8 {
		t.Errorf("view = %+v", v)
	}
}

func TestOverflowResponse(t *testing.T) {
	for _, withStore := range []bool{false, true} {
		_, h := newTestService(t, withStore)
		token := login(t, h, "anna")
		id := createSession(t, h, token)

		keys := "1" + strings.Repeat("0", 300) + " * 1" + strings.Repeat("0", 100) + " ="
		rec := do(t, h, http.MethodPost, "/sessions/"+id+"/keys", token, `{"keys": "`+keys+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("keys = %d %s", rec.Code, rec.Body.String())
		}
		var v viewResponse
		decode(t, rec, &v)
		if v.Display != "ERROR" || v.Error == "" || v.State.Mode != "clear_on_next_digit" {
			t.Errorf("view = %+v", v)
		}

		rec = do(t, h, http.MethodGet, "/sessions/"+id, token, "")
		if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
			t.Errorf("GET session = %d %q", rec.Code, rec.Body.String())
		}

		rec = do(t, h, http.MethodGet, "/sessions/"+id+"/history", token, "")
		var items []historyResponse
		decode(t, rec, &items)
		if len(items) != 0 {
			t.Errorf("history = %+v, want empty", items)
		}
	}
}

func TestSessionExpires(t *testing.T) {
	svc, h := newTestService(t, false)
	now := time.Now()
	svc.now = func() time.Time { return now }
	token := login(t, h, "anna")
	id := createSession(t, h, token)

	now = now.Add(svc.ttl / 2)
	if rec := do(t, h, http.MethodGet, "/sessions/"+id, token, ""); rec.Code != http.StatusOK {
		t.Fatalf("GET before ttl = %d", rec.Code)
	}
	// обращение продлевает сессию
	now = now.Add(svc.ttl - time.Second)
	if rec := do(t, h, http.MethodGet, "/sessions/"+id, token, ""); rec.Code != http.StatusOK {
		t.Fatalf("GET after renewal = %d", rec.Code)
	}

	now = now.Add(svc.ttl + time.Second)
	if rec := do(t, h, http.MethodGet, "/sessions/"+id, token, ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET expired = %d, want 404", rec.Code)
	}
	if len(svc.sessions) != 0 {
		t.Errorf("sessions = %d, want 0", len(svc.sessions))
	}
}

func TestStoredTapeNotKeptInMemory(t *testing.T) {
	svc, h := newTestService(t, true)
	token := login(t, h, "anna")
	id := createSession(t, h, token)
	do(t, h, http.MethodPost, "/sessions/"+id+"/keys", token, `{"keys": "2 + 3 ="}`)

	if n := len(svc.sessions[id].tape); n != 0 {
		t.Errorf("in-memory tape = %d entries, want 0", n)
	}
	var items []historyResponse
	decode(t, do(t, h, http.MethodGet, "/sessions/"+id+"/history", token, ""), &items)
	if len(items) != 1 {
		t.Errorf("history = %+v, want 1 item", items)
	}
}

func TestBadKeys(t *testing.T) {
	_, h := newTestService(t, false)
	token := login(t, h, "anna")
	id := createSession(t, h, token)

	if rec := do(t, h, http.MethodPost, "/sessions/"+id+"/keys", token, `{"keys": "2 ? 3"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("неизвестная клавиша = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/sessions/"+id+"/keys", token, `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("не json = %d", rec.Code)
	}
}

func TestButtons(t *testing.T) {
	_, h := newTestService(t, false)
	token := login(t, h, "anna")
	id := createSession(t, h, token)

	var v viewResponse
	for _, b := range []string{"btn9", "btnmul", "btn4", "btneql"} {
		rec := do(t, h, http.MethodPost, "/sessions/"+id+"/buttons/"+b, token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s = %d %s", b, rec.Code, rec.Body.String())
		}
		decode(t, rec, &v)
	}
	if v.Display != "36.00" {
		t.Errorf("display = %q, want 36.00", v.Display)
	}
	if rec := do(t, h, http.MethodPost, "/sessions/"+id+"/buttons/btnpow", token, ""); rec.Code != http.StatusNotFound {
		t.Errorf("неизвестная кнопка = %d", rec.Code)
	}
}

func TestSessionsArePrivate(t *testing.T) {
	_, h := newTestService(t, false)
	anna := login(t, h, "anna")
	boris := login(t, h, "boris")
	id := createSession(t, h, anna)

	if rec := do(t, h, http.MethodGet, "/sessions/"+id, boris, ""); rec.Code != http.StatusNotFound {
		t.Errorf("чужая сессия = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/sessions/"+id, anna, ""); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/sessions/"+id, anna, ""); rec.Code != http.StatusNotFound {
		t.Errorf("удаленная сессия = %d", rec.Code)
	}
}

func testHistory(t *testing.T, withStore bool) {
	_, h := newTestService(t, withStore)
	token := login(t, h, "anna")
	id := createSession(t, h, token)

	do(t, h, http.MethodPost, "/sessions/"+id+"/keys", token, `{"keys": "7 - 2 = * 3 ="}`)

	rec := do(t, h, http.MethodGet, "/sessions/"+id+"/history", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history = %d %s", rec.Code, rec.Body.String())
	}
	var items []historyResponse
	decode(t, rec, &items)
	if len(items) != 3 {
		t.Fatalf("history = %+v, want 3 items", items)
	}
	// "7 - 2 =" -> 5; "*" берет 5.00 с дисплея -> 25; "3 =" -> 75
	want := []struct {
		expr   string
		result float64
	}{
		{"(7) - (2)", 5},
		{"(5) * (5)", 25},
		{"(25) * (3)", 75},
	}
	for i, w := range want {
		if items[i].Expression != w.expr || items[i].Result != w.result || !items[i].Verified {
			t.Errorf("item %d = %+v, want %s = %v", i, items[i], w.expr, w.result)
		}
	}
}

func TestHistoryInMemory(t *testing.T) { testHistory(t, false) }

func TestHistoryStored(t *testing.T) { testHistory(t, true) }

func TestLayoutEndpoint(t *testing.T) {
	_, h := newTestService(t, false)
	rec := do(t, h, http.MethodGet, "/layout", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("layout = %d", rec.Code)
	}
	var l struct {
		Display string `json:"display"`
		Buttons []struct {
			ID string `json:"id"`
		} `json:"buttons"`
	}
	decode(t, rec, &l)
	if l.Display != "textDisplay" || len(l.Buttons) != 18 {
		t.Errorf("layout = %+v", l)
	}
}
