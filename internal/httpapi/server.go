package httpapi

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chessduel/chessduel/internal/game"
)

// Server exposes the game manager over HTTP:
//
//	POST   /games                create a session
//	GET    /games/{id}           current position
//	POST   /games/{id}/moves     submit one caller move
//	DELETE /games/{id}           abort and forget a session
type Server struct {
	manager *game.Manager
	logger  *zap.Logger
}

func New(manager *game.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{manager: manager, logger: logger}
}

// Handler is the fasthttp entry point.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		method := string(ctx.Method())

		switch {
		case path == "/healthz" && method == fasthttp.MethodGet:
			ctx.SetStatusCode(fasthttp.StatusOK)
			ctx.SetBodyString("ok")
		case path == "/games" && method == fasthttp.MethodPost:
			s.createGame(ctx)
		default:
			id, rest, ok := splitGamePath(path)
			if !ok {
				s.writeError(ctx, fasthttp.StatusNotFound, "not_found", "unknown route")
				return
			}
			switch {
			case rest == "" && method == fasthttp.MethodGet:
				s.position(ctx, id)
			case rest == "" && method == fasthttp.MethodDelete:
				s.abort(ctx, id)
			case rest == "moves" && method == fasthttp.MethodPost:
				s.playMove(ctx, id)
			default:
				s.writeError(ctx, fasthttp.StatusNotFound, "not_found", "unknown route")
			}
		}
	}
}

// splitGamePath matches /games/{id} and /games/{id}/{rest}.
func splitGamePath(path string) (id, rest string, ok bool) {
	trimmed, found := strings.CutPrefix(path, "/games/")
	if !found || trimmed == "" {
		return "", "", false
	}
	id, rest, _ = strings.Cut(trimmed, "/")
	if id == "" || strings.Contains(rest, "/") {
		return "", "", false
	}
	return id, rest, true
}

type gameResponse struct {
	ID     string   `json:"id"`
	FEN    string   `json:"fen"`
	Status string   `json:"status"`
	Moves  []string `json:"moves,omitempty"`
}

type moveRequest struct {
	Move string `json:"move"`
}

type moveResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	StatusLine string `json:"status_line"`
	EngineMove string `json:"engine_move,omitempty"`
	FEN        string `json:"fen"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) createGame(ctx *fasthttp.RequestCtx) {
	snap, err := s.manager.Start(ctx)
	if err != nil {
		s.writeGameError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusCreated, gameResponse{
		ID:     snap.ID,
		FEN:    snap.FEN,
		Status: string(snap.Status),
	})
}

func (s *Server) position(ctx *fasthttp.RequestCtx, id string) {
	snap, err := s.manager.Snapshot(ctx, id)
	if err != nil {
		s.writeGameError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, gameResponse{
		ID:     snap.ID,
		FEN:    snap.FEN,
		Status: string(snap.Status),
		Moves:  snap.Moves,
	})
}

func (s *Server) playMove(ctx *fasthttp.RequestCtx, id string) {
	var req moveRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		s.writeError(ctx, fasthttp.StatusBadRequest, "bad_request", "body must be JSON with a move field")
		return
	}
	if strings.TrimSpace(req.Move) == "" {
		s.writeError(ctx, fasthttp.StatusBadRequest, "bad_request", "move is required")
		return
	}

	res, err := s.manager.Play(ctx, id, req.Move)
	if err != nil {
		s.writeGameError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, moveResponse{
		ID:         id,
		Status:     string(res.Status),
		StatusLine: game.StatusLine(res),
		EngineMove: res.EngineMove.UCI(),
		FEN:        res.FEN,
	})
}

func (s *Server) abort(ctx *fasthttp.RequestCtx, id string) {
	if err := s.manager.Abort(ctx, id); err != nil {
		s.writeGameError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) writeGameError(ctx *fasthttp.RequestCtx, err error) {
	code := game.ErrorCode(err)
	status := fasthttp.StatusInternalServerError
	switch code {
	case "invalid_notation", "illegal_move":
		status = fasthttp.StatusBadRequest
	case "session_not_found":
		status = fasthttp.StatusNotFound
	case "game_finished":
		status = fasthttp.StatusConflict
	case "engine_timeout", "engine_protocol", "engine_unavailable":
		status = fasthttp.StatusBadGateway
	}
	if status == fasthttp.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("code", code), zap.Error(err))
	}
	s.writeError(ctx, status, code, err.Error())
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, code, message string) {
	s.writeJSON(ctx, status, errorResponse{Error: code, Message: message})
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(raw)
}
