// Package server - HTTP-интерфейс калькулятора: сессии с собственными
// регистрами, нажатия клавиш и лента вычислений
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/DipperMason/desk-calculator/internal/agent"
	"github.com/DipperMason/desk-calculator/internal/config"
	"github.com/DipperMason/desk-calculator/internal/layout"
	"github.com/DipperMason/desk-calculator/internal/store"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ctxKey struct{}

// Service хранит сессии калькулятора и обслуживает HTTP-запросы
type Service struct {
	store  *store.Store
	secret []byte
	ttl    time.Duration
	agent  *agent.CalculatorAgent
	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	layout   *layout.Layout
	sessions map[string]*session
}

type session struct {
	mu   sync.Mutex
	id   string
	user string
	calc *agent.Calculator
	// лента в памяти ведется только без базы данных
	tape []agent.Entry

	// сессия живет ttl после последнего обращения; защищено Service.mu
	expires time.Time
}

// SessionView - состояние сессии в ответах сервера
type SessionView struct {
	ID      string      `json:"id"`
	Display string      `json:"display"`
	State   agent.State `json:"state"`
	Error   string      `json:"error,omitempty"`
}

// HistoryItem - запись ленты с результатом перепроверки
type HistoryItem struct {
	store.Record
	Expression string `json:"expression"`
	Verified   bool   `json:"verified"`
}

// New создает сервис. st может быть nil - тогда лента живет только в памяти.
func New(st *store.Store, cfg config.Config, l *layout.Layout) *Service {
	if l == nil {
		l = layout.Default()
	}
	return &Service{
		store:    st,
		secret:   []byte(cfg.Secret),
		ttl:      cfg.TokenTTL,
		agent:    &agent.CalculatorAgent{},
		logger:   log.Default(),
		now:      time.Now,
		layout:   l,
		sessions: make(map[string]*session),
	}
}

// SetLogger заменяет журнал сервиса
func (s *Service) SetLogger(l *log.Logger) { s.logger = l }

// SetLayout подменяет раскладку, например после изменения файла
func (s *Service) SetLayout(l *layout.Layout) {
	s.mu.Lock()
	s.layout = l
	s.mu.Unlock()
}

func (s *Service) currentLayout() *layout.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// Router возвращает обработчик со всеми маршрутами
func (s *Service) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/token", s.handleToken).Methods(http.MethodPost)
	r.HandleFunc("/layout", s.handleLayout).Methods(http.MethodGet)

	api := r.PathPrefix("/sessions").Subrouter()
	api.Use(s.authorize)
	api.HandleFunc("", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/keys", s.handleKeys).Methods(http.MethodPost)
	api.HandleFunc("/{id}/buttons/{button}", s.handleButton).Methods(http.MethodPost)
	api.HandleFunc("/{id}/history", s.handleHistory).Methods(http.MethodGet)
	return r
}

// выдача токена (регистрация)
func (s *Service) handleToken(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.FormValue("user"))
	if user == "" {
		http.Error(w, "не указан пользователь", http.StatusBadRequest)
		return
	}
	token, err := s.IssueToken(user)
	if err != nil {
		s.logger.Printf("Ошибка подписи токена: %v\n", err)
		http.Error(w, "не удалось выдать токен", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// IssueToken подписывает токен пользователя
func (s *Service) IssueToken(user string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": user,
		"nbf":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
		"iat":  now.Unix(),
	})
	return token.SignedString(s.secret)
}

// проверка токена из заголовка Authorization
func (s *Service) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if tokenString == "" {
			http.Error(w, "Not Authorized", http.StatusUnauthorized)
			return
		}
		user, err := s.userFromToken(tokenString)
		if err != nil {
			s.logger.Printf("Неверный токен: %v\n", err)
			http.Error(w, "Неверный токен", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

func (s *Service) userFromToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("недействительный токен")
	}
	name, ok := claims["name"].(string)
	if !ok || name == "" {
		return "", errors.New("в токене нет имени пользователя")
	}
	return name, nil
}

func userFrom(ctx context.Context) string {
	user, _ := ctx.Value(ctxKey{}).(string)
	return user
}

func (s *Service) handleLayout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentLayout())
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := s.newSession(userFrom(r.Context()))
	s.logger.Printf("Создана сессия %s для %s\n", sess.id, sess.user)
	writeJSON(w, http.StatusCreated, sess.view(nil))
}

func (s *Service) newSession(user string) *session {
	sess := &session{id: uuid.NewString(), user: user}
	sess.calc = agent.New(
		agent.WithLogger(s.logger),
		agent.WithTape(func(e agent.Entry) {
			if s.store == nil {
				sess.tape = append(sess.tape, e)
				return
			}
			if _, err := s.store.SaveEntry(context.Background(), sess.id, sess.user, e); err != nil {
				s.logger.Printf("Ошибка при записи данных в базу данных: %v\n", err)
			}
		}),
	)

	s.mu.Lock()
	now := s.now()
	s.expireLocked(now)
	sess.expires = now.Add(s.ttl)
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// expireLocked удаляет сессии, к которым не обращались дольше ttl
func (s *Service) expireLocked(now time.Time) {
	for id, sess := range s.sessions {
		if now.After(sess.expires) {
			delete(s.sessions, id)
			s.logger.Printf("Сессия %s истекла\n", id)
		}
	}
}

// lookup находит сессию текущего пользователя; чужие сессии не видны
func (s *Service) lookup(r *http.Request) (*session, bool) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.user != userFrom(r.Context()) {
		return nil, false
	}
	now := s.now()
	if now.After(sess.expires) {
		delete(s.sessions, id)
		s.logger.Printf("Сессия %s истекла\n", id)
		return nil, false
	}
	sess.expires = now.Add(s.ttl)
	return sess, true
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(r)
	if !ok {
		http.Error(w, "сессия не найдена", http.StatusNotFound)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, sess.view(nil))
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(r)
	if !ok {
		http.Error(w, "сессия не найдена", http.StatusNotFound)
		return
	}
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(r.Context(), sess.id); err != nil {
			s.logger.Printf("Ошибка очистки ленты %s: %v\n", sess.id, err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type keysRequest struct {
	Keys string `json:"keys"`
}

func (s *Service) handleKeys(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(r)
	if !ok {
		http.Error(w, "сессия не найдена", http.StatusNotFound)
		return
	}
	var req keysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return
	}
	events, err := agent.ParseKeys(req.Keys)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	calcErr := sess.calc.HandleAll(events)
	writeJSON(w, http.StatusOK, sess.view(calcErr))
}

// нажатие кнопки по id из раскладки, например btn7 или btnsum
func (s *Service) handleButton(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(r)
	if !ok {
		http.Error(w, "сессия не найдена", http.StatusNotFound)
		return
	}
	b, ok := s.currentLayout().Lookup(mux.Vars(r)["button"])
	if !ok {
		http.Error(w, "кнопка не найдена", http.StatusNotFound)
		return
	}
	ev, err := b.Event()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	calcErr := sess.calc.Handle(ev)
	writeJSON(w, http.StatusOK, sess.view(calcErr))
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(r)
	if !ok {
		http.Error(w, "сессия не найдена", http.StatusNotFound)
		return
	}

	var records []store.Record
	if s.store != nil {
		var err error
		records, err = s.store.History(r.Context(), sess.id)
		if err != nil {
			s.logger.Printf("Ошибка при выполнении запроса: %v\n", err)
			http.Error(w, "не удалось прочитать ленту", http.StatusInternalServerError)
			return
		}
	} else {
		sess.mu.Lock()
		for i, e := range sess.tape {
			records = append(records, store.Record{ID: int64(i + 1), Session: sess.id, User: sess.user, Entry: e})
		}
		sess.mu.Unlock()
	}

	items := make([]HistoryItem, 0, len(records))
	for _, rec := range records {
		ok, err := s.agent.Verify(rec.Entry)
		if err != nil {
			s.logger.Printf("Ошибка перепроверки записи %d: %v\n", rec.ID, err)
		}
		items = append(items, HistoryItem{Record: rec, Expression: rec.Expression(), Verified: ok})
	}
	writeJSON(w, http.StatusOK, items)
}

func (sess *session) view(err error) SessionView {
	v := SessionView{ID: sess.id, Display: sess.calc.Text(), State: sess.calc.State()}
	if err != nil {
		v.Error = err.Error()
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Ошибка кодирования ответа: %v\n", err)
		http.Error(w, "не удалось сформировать ответ", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}
