package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/iztleu/scrum-master-bot/internal/service"
)

// requestTimeout bounds every REST request.
const requestTimeout = 10 * time.Second

type contextKey string

// userIDKey carries the authenticated telegram user id.
const userIDKey contextKey = "telegram-user-id"

// Server exposes the team and voting operations over HTTP for clients
// that are not inside the chat.
type Server struct {
	authService   *service.AuthService
	teamService   *service.TeamService
	votingService *service.VotingService
	logger        *zap.Logger
}

// NewServer creates a new API server
func NewServer(
	authService *service.AuthService,
	teamService *service.TeamService,
	votingService *service.VotingService,
	logger *zap.Logger,
) *Server {
	return &Server{
		authService:   authService,
		teamService:   teamService,
		votingService: votingService,
		logger:        logger,
	}
}

// Routes builds the router: public auth endpoints plus the
// token-protected API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Post("/auth/send-verify-code", s.handleSendVerifyCode)
	r.Post("/auth/authenticate", s.handleAuthenticate)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/teams/create", s.handleCreateTeam)
		r.Get("/teams/my", s.handleMyTeams)
		r.Post("/teams/rename", s.handleRenameTeam)

		r.Post("/members/send-invite-request", s.handleSendInviteRequest)
		r.Post("/members/accept-invite", s.handleAcceptInvite)
		r.Post("/members/decline-invite", s.handleDeclineInvite)
		r.Post("/members/leave-team", s.handleLeaveTeam)

		r.Post("/voting/start", s.handleStartVoting)
		r.Post("/voting/vote", s.handleVote)
		r.Post("/voting/finish-voting", s.handleFinishVoting)
		r.Post("/voting/resend", s.handleResendVoting)
		r.Get("/voting/get-active-voting", s.handleGetActiveVoting)
	})

	return r
}

// logRequests logs every request with its status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// requireAuth validates the bearer token and stores the telegram user
// id in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.respondError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		telegramUserID, err := s.authService.ParseToken(token)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, telegramUserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requesterID returns the authenticated telegram user id.
func requesterID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}
