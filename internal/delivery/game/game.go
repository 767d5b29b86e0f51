package game

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"goban/internal/adapters"
	"goban/internal/bootstrap"
	"goban/internal/domain/game"
	errs "goban/internal/errors"
	"goban/internal/httpresponse"
	repo "goban/internal/repository"
	gameuc "goban/internal/usecase/game"
	"goban/internal/utils"
)

type GameHandler struct {
	cfg    bootstrap.Config
	log    *zap.SugaredLogger
	gameUC *gameuc.GameUseCase

	watchersMu sync.RWMutex
	watchers   map[string]map[*websocket.Conn]bool
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewGameHandler(cfg bootstrap.Config, log *zap.SugaredLogger, mongoAdapter *adapters.AdapterMongo, redisAdapter *adapters.AdapterRedis) *GameHandler {
	store := repo.NewGameRepository(cfg, log, redisAdapter.GetClient(), mongoAdapter.Database)
	return &GameHandler{
		cfg:      cfg,
		log:      log,
		gameUC:   gameuc.NewGameUseCase(store, log, cfg.DefaultBoardSize, cfg.MaxBoardSize),
		watchers: make(map[string]map[*websocket.Conn]bool),
	}
}

func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	var req game.CreateGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
		return
	}

	resp, err := g.gameUC.CreateGame(r.Context(), req)
	if err != nil {
		g.writeError(w, err)
		return
	}

	g.log.Info("New Game Created with key: " + resp.PublicKey)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (g *GameHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	gameKey := r.URL.Query().Get("game_key")
	if gameKey == "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: "отсутствует параметр game_key"})
		return
	}

	state, err := g.gameUC.GetState(r.Context(), gameKey)
	if err != nil {
		g.writeError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (g *GameHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req game.MoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
		return
	}

	state, err := g.gameUC.PlaceStone(r.Context(), req.GameKey, req.Index)
	if err != nil {
		g.writeError(w, err)
		return
	}

	g.broadcast(req.GameKey, state)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (g *GameHandler) HandleJump(w http.ResponseWriter, r *http.Request) {
	var req game.JumpRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
		return
	}

	state, err := g.gameUC.JumpTo(r.Context(), req.GameKey, req.Destination)
	if err != nil {
		g.writeError(w, err)
		return
	}

	g.broadcast(req.GameKey, state)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (g *GameHandler) HandleFinishGame(w http.ResponseWriter, r *http.Request) {
	gameKey := r.URL.Query().Get("game_key")
	if gameKey == "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: "отсутствует параметр game_key"})
		return
	}

	rec, err := g.gameUC.FinishGame(r.Context(), gameKey)
	if err != nil {
		g.writeError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, rec)
}

func (g *GameHandler) HandleArchiveList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	resp, err := g.gameUC.GetArchiveOfGames(r.Context(), page)
	if err != nil {
		g.writeError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (g *GameHandler) HandleArchiveGame(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: "отсутствует параметр id"})
		return
	}

	rec, err := g.gameUC.GetGameFromArchiveById(r.Context(), id)
	if err != nil {
		g.writeError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, rec)
}

// HandleLiveGame подключает зрителя к партии по вебсокету: каждое сообщение
// это Command (place/jump), новое состояние рассылается всем подключённым.
func (g *GameHandler) HandleLiveGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gameKey := r.URL.Query().Get("game_key")
	if gameKey == "" {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: "отсутствует параметр game_key"})
		return
	}

	state, err := g.gameUC.GetState(ctx, gameKey)
	if err != nil {
		g.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("upgrade error:", err)
		return
	}

	g.addWatcher(gameKey, conn)
	defer g.removeWatcher(gameKey, conn)

	if err = conn.WriteJSON(state); err != nil {
		g.log.Error("write error:", err)
		return
	}

	for {
		var cmd game.Command
		if err = conn.ReadJSON(&cmd); err != nil {
			g.log.Error("read error:", err)
			return
		}

		var next game.StateResponse
		switch cmd.Action {
		case game.ActionPlace:
			next, err = g.gameUC.PlaceStone(ctx, gameKey, cmd.Index)
		case game.ActionJump:
			next, err = g.gameUC.JumpTo(ctx, gameKey, cmd.Destination)
		default:
			err = errs.ErrInternal
		}

		if err != nil {
			conn.WriteJSON(httpresponse.ErrorResponse{ErrorDescription: err.Error()})
			continue
		}

		g.broadcast(gameKey, next)
	}
}

func (g *GameHandler) addWatcher(gameKey string, conn *websocket.Conn) {
	g.watchersMu.Lock()
	defer g.watchersMu.Unlock()
	if g.watchers[gameKey] == nil {
		g.watchers[gameKey] = make(map[*websocket.Conn]bool)
	}
	g.watchers[gameKey][conn] = true
}

func (g *GameHandler) removeWatcher(gameKey string, conn *websocket.Conn) {
	g.watchersMu.Lock()
	defer g.watchersMu.Unlock()
	delete(g.watchers[gameKey], conn)
	if len(g.watchers[gameKey]) == 0 {
		delete(g.watchers, gameKey)
	}
	conn.Close()
}

func (g *GameHandler) broadcast(gameKey string, state game.StateResponse) {
	g.watchersMu.RLock()
	defer g.watchersMu.RUnlock()
	for conn := range g.watchers[gameKey] {
		if err := conn.WriteJSON(state); err != nil {
			g.log.Error("Write to watcher error:", err)
		}
	}
}

func (g *GameHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, errs.ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrInternal), errors.Is(err, errs.ErrCorruptSnapshot):
		status = http.StatusInternalServerError
	}
	g.log.Error(err)
	httpresponse.WriteResponseWithStatus(w, status,
		httpresponse.ErrorResponse{ErrorDescription: err.Error()})
}
