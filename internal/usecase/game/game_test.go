package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goban/internal/domain/board"
	"goban/internal/domain/game"
	"goban/internal/domain/history"
	"goban/internal/errors"
	"goban/internal/statuses"
)

// stubStore keeps everything in maps, no Redis or Mongo involved.
type stubStore struct {
	seq       int
	games     map[string]game.Game // by public key
	snapshots map[string]history.Snapshot
	archive   map[string]game.ArchiveRecord
}

func newStubStore() *stubStore {
	return &stubStore{
		games:     make(map[string]game.Game),
		snapshots: make(map[string]history.Snapshot),
		archive:   make(map[string]game.ArchiveRecord),
	}
}

func (s *stubStore) GenerateGameKeys(ctx context.Context) (string, string) {
	s.seq++
	return fmt.Sprintf("secret-%d", s.seq), fmt.Sprintf("%05d", s.seq)
}

func (s *stubStore) PutGame(ctx context.Context, g game.Game) bool {
	s.games[g.GameKeyPublic] = g
	return true
}

func (s *stubStore) GetGameByPublicKey(ctx context.Context, publicKey string) (game.Game, error) {
	g, ok := s.games[publicKey]
	if !ok {
		return game.Game{}, errors.ErrGameNotFound
	}
	return g, nil
}

func (s *stubStore) SetGameStatus(ctx context.Context, secretKey, status string, finishedAt time.Time) error {
	for k, g := range s.games {
		if g.GameKeySecret == secretKey {
			g.Status = status
			g.FinishedAt = &finishedAt
			s.games[k] = g
			return nil
		}
	}
	return errors.ErrGameNotFound
}

func (s *stubStore) SaveSnapshot(ctx context.Context, secretKey string, snap history.Snapshot) error {
	s.snapshots[secretKey] = snap
	return nil
}

func (s *stubStore) LoadSnapshot(ctx context.Context, secretKey string) (history.Snapshot, error) {
	snap, ok := s.snapshots[secretKey]
	if !ok {
		return history.Snapshot{}, errors.ErrGameNotFound
	}
	return snap, nil
}

func (s *stubStore) DeleteSnapshot(ctx context.Context, secretKey string) error {
	delete(s.snapshots, secretKey)
	return nil
}

func (s *stubStore) ArchiveGame(ctx context.Context, rec game.ArchiveRecord) error {
	s.archive[rec.ID] = rec
	return nil
}

func (s *stubStore) GetArchiveGames(ctx context.Context, pageNum int) (*game.ArchiveResponse, error) {
	resp := &game.ArchiveResponse{Page: pageNum, Total: int64(len(s.archive))}
	for _, rec := range s.archive {
		resp.Games = append(resp.Games, rec)
	}
	return resp, nil
}

func (s *stubStore) GetArchiveGameByID(ctx context.Context, id string) (*game.ArchiveRecord, error) {
	rec, ok := s.archive[id]
	if !ok {
		return nil, errors.ErrGameNotFound
	}
	return &rec, nil
}

func newTestUseCase(store GameStore) *GameUseCase {
	return NewGameUseCase(store, zap.NewNop().Sugar(), 9, 19)
}

func TestCreateGameDefaultsBoardSize(t *testing.T) {
	uc := newTestUseCase(newStubStore())

	resp, err := uc.CreateGame(context.Background(), game.CreateGameRequest{})
	require.NoError(t, err)
	assert.Equal(t, 9, resp.BoardSize)
	require.NotEmpty(t, resp.PublicKey)

	state, err := uc.GetState(context.Background(), resp.PublicKey)
	require.NoError(t, err)
	assert.Len(t, state.Positions, 81)
	assert.Equal(t, board.Black, state.Current)
	assert.Equal(t, 1, state.HistoryLen)
	assert.True(t, state.AtLiveTip)
	assert.Equal(t, statuses.StatusActive, state.Status)
}

func TestCreateGameRejectsBadSize(t *testing.T) {
	uc := newTestUseCase(newStubStore())

	_, err := uc.CreateGame(context.Background(), game.CreateGameRequest{BoardSize: 1})
	assert.ErrorIs(t, err, errors.ErrCreateGameFailed)

	_, err = uc.CreateGame(context.Background(), game.CreateGameRequest{BoardSize: 25})
	assert.ErrorIs(t, err, errors.ErrCreateGameFailed)
}

func TestPlaceStone(t *testing.T) {
	uc := newTestUseCase(newStubStore())
	resp, err := uc.CreateGame(context.Background(), game.CreateGameRequest{BoardSize: 3})
	require.NoError(t, err)

	state, err := uc.PlaceStone(context.Background(), resp.PublicKey, 4)
	require.NoError(t, err)
	assert.Equal(t, board.Black, state.Positions[4])
	assert.Equal(t, board.White, state.Current)
	assert.Equal(t, 2, state.HistoryLen)
}

func TestPlaceStoneRejections(t *testing.T) {
	uc := newTestUseCase(newStubStore())
	resp, err := uc.CreateGame(context.Background(), game.CreateGameRequest{BoardSize: 3})
	require.NoError(t, err)

	_, err = uc.PlaceStone(context.Background(), resp.PublicKey, 9)
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)
	_, err = uc.PlaceStone(context.Background(), resp.PublicKey, -1)
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)

	_, err = uc.PlaceStone(context.Background(), resp.PublicKey, 4)
	require.NoError(t, err)
	_, err = uc.PlaceStone(context.Background(), resp.PublicKey, 4)
	assert.ErrorIs(t, err, errors.ErrCellOccupied)

	_, err = uc.PlaceStone(context.Background(), "00000", 0)
	assert.ErrorIs(t, err, errors.ErrGameNotFound)
}

func TestJumpAndForkDropAbandonedFuture(t *testing.T) {
	uc := newTestUseCase(newStubStore())
	ctx := context.Background()
	resp, err := uc.CreateGame(ctx, game.CreateGameRequest{BoardSize: 3})
	require.NoError(t, err)

	_, err = uc.PlaceStone(ctx, resp.PublicKey, 0)
	require.NoError(t, err)
	_, err = uc.PlaceStone(ctx, resp.PublicKey, 1)
	require.NoError(t, err)

	state, err := uc.JumpTo(ctx, resp.PublicKey, 1)
	require.NoError(t, err)
	assert.False(t, state.AtLiveTip)
	assert.Equal(t, 1, state.Cursor)
	assert.Equal(t, board.Empty, state.Positions[1])

	_, err = uc.JumpTo(ctx, resp.PublicKey, 3)
	assert.ErrorIs(t, err, errors.ErrBadHistoryIndex)
	_, err = uc.JumpTo(ctx, resp.PublicKey, -1)
	assert.ErrorIs(t, err, errors.ErrBadHistoryIndex)

	state, err = uc.PlaceStone(ctx, resp.PublicKey, 5)
	require.NoError(t, err)
	assert.True(t, state.AtLiveTip)
	assert.Equal(t, 3, state.HistoryLen, "the abandoned move is gone")
	assert.Equal(t, board.White, state.Positions[5])
	assert.Equal(t, board.Empty, state.Positions[1])
}

func TestReviveFromSnapshotAfterRestart(t *testing.T) {
	store := newStubStore()
	ctx := context.Background()

	uc := newTestUseCase(store)
	resp, err := uc.CreateGame(ctx, game.CreateGameRequest{BoardSize: 3})
	require.NoError(t, err)
	_, err = uc.PlaceStone(ctx, resp.PublicKey, 0)
	require.NoError(t, err)

	// новый процесс: слоты пустые, состояние поднимается из стора
	revived := newTestUseCase(store)
	state, err := revived.GetState(ctx, resp.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, board.Black, state.Positions[0])
	assert.Equal(t, 2, state.HistoryLen)
}

func TestFinishGameArchives(t *testing.T) {
	store := newStubStore()
	uc := newTestUseCase(store)
	ctx := context.Background()

	resp, err := uc.CreateGame(ctx, game.CreateGameRequest{BoardSize: 3})
	require.NoError(t, err)
	_, err = uc.PlaceStone(ctx, resp.PublicKey, 0)
	require.NoError(t, err)

	rec, err := uc.FinishGame(ctx, resp.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Moves)
	assert.Equal(t, resp.PublicKey, rec.GameKeyPublic)

	archived, err := uc.GetGameFromArchiveById(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.GameKeyPublic, archived.GameKeyPublic)

	// живой партии больше нет
	_, err = uc.PlaceStone(ctx, resp.PublicKey, 1)
	assert.ErrorIs(t, err, errors.ErrGameNotFound)
}
