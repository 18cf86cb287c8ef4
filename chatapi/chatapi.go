// Package chatapi exposes the assistant over a small REST surface:
// create a chat, post messages to it, reset it. Conversation identity
// travels as a chat ID that scopes history in the message store.
package chatapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"

	"github.com/abrachat/abrachat/assistants"
	"github.com/abrachat/abrachat/chatmodel"
	"github.com/abrachat/abrachat/store"
)

var logger = xlog.NewPackageLogger("github.com/abrachat/abrachat", "chatapi")

// Runner executes one conversation turn. Implemented by assistants.Assistant.
type Runner interface {
	Name() string
	Run(ctx context.Context, input string, options ...assistants.Option) (*assistants.Response, error)
}

// Server serves the chat REST API.
type Server struct {
	assistant Runner
	store     store.MessageStore
	users     map[string]string

	httpServer *http.Server
}

// NewServer creates a chat API server. The users map holds bcrypt
// password hashes for basic auth; an empty map disables authentication.
func NewServer(assistant Runner, st store.MessageStore, users map[string]string) *Server {
	return &Server{
		assistant: assistant,
		store:     st,
		users:     users,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1/chats", func(r chi.Router) {
		r.Use(s.basicAuth)
		r.Post("/", s.handleCreateChat)
		r.Post("/{chatID}/messages", s.handleSendMessage)
		r.Delete("/{chatID}", s.handleResetChat)
	})

	return r
}

// Serve starts the HTTP server on addr and blocks until Shutdown.
func (s *Server) Serve(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.KV(xlog.INFO, "status", "listening", "addr", addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "chat API server failed")
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return errors.Wrap(s.httpServer.Shutdown(ctx), "failed to shutdown chat API server")
}

// CreateChatResponse is the result of creating a chat.
type CreateChatResponse struct {
	ChatID string `json:"chat_id"`
}

// SendMessageRequest is one user message for a chat.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessageResponse is the assistant's reply for one turn.
type SendMessageResponse struct {
	ChatID    string `json:"chat_id"`
	Content   string `json:"content"`
	ToolCalls int    `json:"tool_calls"`
	Usage     Usage  `json:"usage"`
}

// Usage is the token accounting of one turn.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	chatID := chatmodel.NewChatID()
	logger.ContextKV(r.Context(), xlog.DEBUG, "status", "chat_created", "chat_id", chatID)
	writeJSON(w, http.StatusCreated, &CreateChatResponse{ChatID: chatID})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := chatmodel.SetChatID(r.Context(), chatID)
	resp, err := s.assistant.Run(ctx, req.Message)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"assistant", s.assistant.Name(),
			"chat_id", chatID,
			"err", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, &SendMessageResponse{
		ChatID:    chatID,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	})
}

func (s *Server) handleResetChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if s.store != nil {
		ctx := chatmodel.SetChatID(r.Context(), chatID)
		if err := s.store.Reset(ctx); err != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"chat_id", chatID,
				"reason", "store_reset",
				"err", err.Error(),
			)
			writeError(w, http.StatusInternalServerError, "failed to reset chat")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
