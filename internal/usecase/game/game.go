package game

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"goban/internal/domain/board"
	"goban/internal/domain/game"
	"goban/internal/domain/history"
	"goban/internal/errors"
	"goban/internal/statuses"
)

type GameStore interface {
	GenerateGameKeys(ctx context.Context) (gameKeySecret string, gameKeyPublic string)
	PutGame(ctx context.Context, gameData game.Game) bool
	GetGameByPublicKey(ctx context.Context, gameKeyPublic string) (game.Game, error)
	SetGameStatus(ctx context.Context, gameKeySecret string, status string, finishedAt time.Time) error
	SaveSnapshot(ctx context.Context, gameKeySecret string, snap history.Snapshot) error
	LoadSnapshot(ctx context.Context, gameKeySecret string) (history.Snapshot, error)
	DeleteSnapshot(ctx context.Context, gameKeySecret string) error
	ArchiveGame(ctx context.Context, rec game.ArchiveRecord) error
	GetArchiveGames(ctx context.Context, pageNum int) (*game.ArchiveResponse, error)
	GetArchiveGameByID(ctx context.Context, id string) (*game.ArchiveRecord, error)
}

// GameUseCase владеет всеми живыми партиями: на каждую игру один slot с
// мьютексом, все place/jump по одной партии сериализуются через него.
// Сам движок (board, history) чистый и неизменяемый, гонок внутри него нет.
type GameUseCase struct {
	store GameStore
	log   *zap.SugaredLogger

	defaultBoardSize int
	maxBoardSize     int

	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	mu   sync.Mutex
	meta game.Game
	game history.Game
}

func NewGameUseCase(store GameStore, log *zap.SugaredLogger, defaultBoardSize, maxBoardSize int) *GameUseCase {
	return &GameUseCase{
		store:            store,
		log:              log,
		defaultBoardSize: defaultBoardSize,
		maxBoardSize:     maxBoardSize,
		slots:            make(map[string]*slot),
	}
}

func (g *GameUseCase) CreateGame(ctx context.Context, req game.CreateGameRequest) (game.GameCreateResponse, error) {
	size := req.BoardSize
	if size == 0 {
		size = g.defaultBoardSize
	}
	if size < 2 || size > g.maxBoardSize {
		return game.GameCreateResponse{}, errors.ErrCreateGameFailed
	}

	gameKeySecret, gameKeyPublic := g.store.GenerateGameKeys(ctx)

	newGame := game.Game{
		GameKeySecret: gameKeySecret,
		GameKeyPublic: gameKeyPublic,
		BoardSize:     size,
		Status:        statuses.StatusActive,
		CreatedAt:     time.Now(),
	}

	if ok := g.store.PutGame(ctx, newGame); !ok {
		return game.GameCreateResponse{}, errors.ErrCreateGameFailed
	}

	live := history.New(size)
	if err := g.store.SaveSnapshot(ctx, gameKeySecret, live.Snapshot()); err != nil {
		return game.GameCreateResponse{}, err
	}

	g.mu.Lock()
	g.slots[gameKeyPublic] = &slot{meta: newGame, game: live}
	g.mu.Unlock()

	return game.GameCreateResponse{
		PublicKey: gameKeyPublic,
		SecretKey: gameKeySecret,
		BoardSize: size,
	}, nil
}

// GetState is the synchronous query of §6: it renders the snapshot under
// the cursor without touching the game.
func (g *GameUseCase) GetState(ctx context.Context, gameKeyPublic string) (game.StateResponse, error) {
	s, err := g.resolveSlot(ctx, gameKeyPublic)
	if err != nil {
		return game.StateResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return stateResponse(s.meta, s.game), nil
}

// PlaceStone checks legality and commits the move. Illegal moves never reach
// the raw place operation: occupied cells, suicide and ko are rejected here
// with sentinel errors the delivery layer can translate.
func (g *GameUseCase) PlaceStone(ctx context.Context, gameKeyPublic string, index int) (game.StateResponse, error) {
	s, err := g.resolveSlot(ctx, gameKeyPublic)
	if err != nil {
		return game.StateResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.meta.Status != statuses.StatusActive {
		return game.StateResponse{}, errors.ErrGameFinished
	}

	current := s.game.State()
	if index < 0 || index >= len(current.Positions) {
		return game.StateResponse{}, errors.ErrOutOfBounds
	}
	if current.At(index) != board.Empty {
		return game.StateResponse{}, errors.ErrCellOccupied
	}
	if !s.game.Legal(index) {
		return game.StateResponse{}, errors.ErrIllegalMove
	}

	next := s.game.Place(index)
	if err := g.store.SaveSnapshot(ctx, s.meta.GameKeySecret, next.Snapshot()); err != nil {
		return game.StateResponse{}, err
	}
	s.game = next

	return stateResponse(s.meta, s.game), nil
}

// JumpTo moves the cursor for time travel. The destination is validated
// against the history bounds before the jump is trusted.
func (g *GameUseCase) JumpTo(ctx context.Context, gameKeyPublic string, destination int) (game.StateResponse, error) {
	s, err := g.resolveSlot(ctx, gameKeyPublic)
	if err != nil {
		return game.StateResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.meta.Status != statuses.StatusActive {
		return game.StateResponse{}, errors.ErrGameFinished
	}
	if !s.game.Contains(destination) {
		return game.StateResponse{}, errors.ErrBadHistoryIndex
	}

	next := s.game.Jump(destination)
	if err := g.store.SaveSnapshot(ctx, s.meta.GameKeySecret, next.Snapshot()); err != nil {
		return game.StateResponse{}, err
	}
	s.game = next

	return stateResponse(s.meta, s.game), nil
}

// FinishGame moves a live game into the Mongo archive and drops its Redis
// snapshot and in-memory slot.
func (g *GameUseCase) FinishGame(ctx context.Context, gameKeyPublic string) (*game.ArchiveRecord, error) {
	s, err := g.resolveSlot(ctx, gameKeyPublic)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.meta.Status != statuses.StatusActive {
		return nil, errors.ErrGameFinished
	}

	finishedAt := time.Now()
	tip := s.game.Jump(0).State()
	rec := game.ArchiveRecord{
		ID:            s.meta.GameKeySecret,
		GameKeyPublic: s.meta.GameKeyPublic,
		BoardSize:     s.meta.BoardSize,
		CreatedAt:     s.meta.CreatedAt,
		FinishedAt:    finishedAt,
		Moves:         s.game.Len() - 1,
		Captures:      tip.Captures,
		History:       s.game.Snapshot(),
	}

	if err := g.store.ArchiveGame(ctx, rec); err != nil {
		return nil, err
	}
	if err := g.store.SetGameStatus(ctx, s.meta.GameKeySecret, statuses.StatusFinished, finishedAt); err != nil {
		return nil, err
	}
	if err := g.store.DeleteSnapshot(ctx, s.meta.GameKeySecret); err != nil {
		g.log.Errorf("не удалось удалить снапшот игры %s: %v", s.meta.GameKeyPublic, err)
	}
	s.meta.Status = statuses.StatusFinished

	g.mu.Lock()
	delete(g.slots, gameKeyPublic)
	g.mu.Unlock()

	return &rec, nil
}

func (g *GameUseCase) GetArchiveOfGames(ctx context.Context, pageNum int) (*game.ArchiveResponse, error) {
	return g.store.GetArchiveGames(ctx, pageNum)
}

func (g *GameUseCase) GetGameFromArchiveById(ctx context.Context, id string) (*game.ArchiveRecord, error) {
	return g.store.GetArchiveGameByID(ctx, id)
}

// resolveSlot returns the in-memory slot for a game, reviving it from the
// Redis snapshot after a restart. Двойная проверка под g.mu, чтобы две
// горутины не оживили одну партию дважды.
func (g *GameUseCase) resolveSlot(ctx context.Context, gameKeyPublic string) (*slot, error) {
	g.mu.Lock()
	if s, ok := g.slots[gameKeyPublic]; ok {
		g.mu.Unlock()
		return s, nil
	}
	g.mu.Unlock()

	meta, err := g.store.GetGameByPublicKey(ctx, gameKeyPublic)
	if err != nil {
		return nil, err
	}

	snap, err := g.store.LoadSnapshot(ctx, meta.GameKeySecret)
	if err != nil {
		return nil, err
	}
	live, err := history.FromSnapshot(snap)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.slots[gameKeyPublic]; ok {
		return s, nil
	}
	s := &slot{meta: meta, game: live}
	g.slots[gameKeyPublic] = s
	return s, nil
}

func stateResponse(meta game.Game, live history.Game) game.StateResponse {
	viewed := live.State()
	positions := make([]board.Cell, len(viewed.Positions))
	copy(positions, viewed.Positions)
	return game.StateResponse{
		PublicKey:  meta.GameKeyPublic,
		BoardSize:  viewed.Size(),
		Positions:  positions,
		Current:    viewed.Current,
		Captures:   viewed.Captures,
		HistoryLen: live.Len(),
		Cursor:     live.Cursor(),
		AtLiveTip:  live.AtTip(),
		Status:     meta.Status,
	}
}
