package repo

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"goban/internal/bootstrap"
	"goban/internal/domain/game"
	"goban/internal/domain/history"
	errs "goban/internal/errors"
)

type GameRepository struct {
	cfg   bootstrap.Config
	log   *zap.SugaredLogger
	redis *redis.Client
	mongo *mongo.Database
}

func NewGameRepository(cfg bootstrap.Config, log *zap.SugaredLogger, redis *redis.Client, mongo *mongo.Database) *GameRepository {
	return &GameRepository{
		cfg:   cfg,
		log:   log,
		redis: redis,
		mongo: mongo,
	}
}

func (g *GameRepository) GenerateGameKeys(ctx context.Context) (gameKeySecret string, gameKeyPublic string) {
	gameKeySecret = uuid.New().String()
	for {
		gameKeyPublic = generateHash(gameKeySecret)

		if g.CheckPublicKeyIsUniq(ctx, gameKeyPublic) {
			return gameKeySecret, gameKeyPublic
		}
		gameKeySecret = uuid.New().String()
	}
}

func generateHash(s string) string {
	h := md5.New()
	h.Write([]byte(s))
	hashBytes := h.Sum(nil)
	number := binary.BigEndian.Uint32(hashBytes[:4])
	code := number % 100000
	return fmt.Sprintf("%05d", code)
}

func (g *GameRepository) CheckPublicKeyIsUniq(ctx context.Context, gameKeyPublic string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	collection := g.mongo.Collection("games")
	filter := bson.M{
		"game_key_public": gameKeyPublic,
	}
	err := collection.FindOne(ctx, filter).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return true
	}
	return false
}

func (g *GameRepository) PutGame(ctx context.Context, gameData game.Game) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("games")

	_, err := collection.InsertOne(ctx, gameData)
	if err != nil {
		g.log.Errorf("failed to insert game to database: %v", err)
		return false
	}

	g.log.Infof("game inserted successfully with key: %s", gameData.GameKeySecret)

	return true
}

func (g *GameRepository) GetGameByPublicKey(ctx context.Context, gameKeyPublic string) (game.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	collection := g.mongo.Collection("games")
	filter := bson.M{
		"game_key_public": gameKeyPublic,
	}

	foundGame := game.Game{}

	err := collection.FindOne(ctx, filter).Decode(&foundGame)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return foundGame, errs.ErrGameNotFound
	} else if err != nil {
		g.log.Error(err)
		return foundGame, err
	}

	return foundGame, nil
}

func (g *GameRepository) SetGameStatus(ctx context.Context, gameKeySecret string, status string, finishedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("games")
	filter := bson.M{"game_key_secret": gameKeySecret}
	update := bson.M{
		"$set": bson.M{
			"status":      status,
			"finished_at": finishedAt,
		},
	}

	opts := options.Update().SetUpsert(false)
	res, err := collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		g.log.Errorf("failed to update game status: %v", err)
		return err
	}
	if res.MatchedCount == 0 {
		g.log.Infof("игра с ключом %s не найдена", gameKeySecret)
		return errs.ErrGameNotFound
	}
	return nil
}

// SaveSnapshot паркует живую партию в Redis целиком: вся ветка истории плюс
// курсор, ключом служит секретный ключ игры.
func (g *GameRepository) SaveSnapshot(ctx context.Context, gameKeySecret string, snap history.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return g.redis.Set(ctx, snapshotKey(gameKeySecret), raw, 0).Err()
}

func (g *GameRepository) LoadSnapshot(ctx context.Context, gameKeySecret string) (history.Snapshot, error) {
	var snap history.Snapshot
	raw, err := g.redis.Get(ctx, snapshotKey(gameKeySecret)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, errs.ErrGameNotFound
	} else if err != nil {
		g.log.Error(err)
		return snap, err
	}
	if err = json.Unmarshal(raw, &snap); err != nil {
		g.log.Errorf("снапшот игры %s не читается: %v", gameKeySecret, err)
		return snap, errs.ErrCorruptSnapshot
	}
	return snap, nil
}

func (g *GameRepository) DeleteSnapshot(ctx context.Context, gameKeySecret string) error {
	return g.redis.Del(ctx, snapshotKey(gameKeySecret)).Err()
}

func snapshotKey(gameKeySecret string) string {
	return "game:snapshot:" + gameKeySecret
}

func (g *GameRepository) ArchiveGame(ctx context.Context, rec game.ArchiveRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("archive")
	_, err := collection.InsertOne(ctx, rec)
	if err != nil {
		g.log.Errorf("failed to archive game %s: %v", rec.GameKeyPublic, err)
		return err
	}

	g.log.Infof("game %s archived", rec.GameKeyPublic)
	return nil
}

func (g *GameRepository) GetArchiveGames(ctx context.Context, pageNum int) (*game.ArchiveResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if pageNum < 1 {
		pageNum = 1
	}
	limit := int64(g.cfg.PageLimitArchive)
	skip := int64(pageNum-1) * limit

	collection := g.mongo.Collection("archive")

	total, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		g.log.Error(err)
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.M{"finished_at": -1}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		g.log.Error(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	resp := &game.ArchiveResponse{Page: pageNum, Total: total}
	for cursor.Next(ctx) {
		var rec game.ArchiveRecord
		if err = cursor.Decode(&rec); err != nil {
			g.log.Error(err)
			return nil, err
		}
		resp.Games = append(resp.Games, rec)
	}

	return resp, nil
}

func (g *GameRepository) GetArchiveGameByID(ctx context.Context, id string) (*game.ArchiveRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection("archive")

	var rec game.ArchiveRecord
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrGameNotFound
	} else if err != nil {
		g.log.Error(err)
		return nil, err
	}

	return &rec, nil
}
