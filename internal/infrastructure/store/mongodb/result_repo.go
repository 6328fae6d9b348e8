package mongodb

import (
	"context"
	"errors"
	"fmt"

	"docify/internal/domain/entity"
	"docify/internal/domain/repository"
	"docify/internal/infrastructure/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoResultRepo struct {
	col *mongo.Collection
}

func NewMongoResultRepo(db *mongo.Database) repository.SalvageRepository {
	col := db.Collection("results")

	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "id", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "timestamp", Value: -1}}},
	})

	return &MongoResultRepo{col: col}
}

func (r *MongoResultRepo) Save(ctx context.Context, result *entity.GenerationResult) error {
	metrics.IncSalvageOp("put")

	_, err := r.col.InsertOne(ctx, result)
	if err != nil {
		metrics.IncError("mongo_result_repo", "save_error")
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (r *MongoResultRepo) GetByID(ctx context.Context, id string) (*entity.GenerationResult, error) {
	metrics.IncSalvageOp("get")

	var result entity.GenerationResult
	err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrResultNotFound
		}
		metrics.IncError("mongo_result_repo", "get_error")
		return nil, err
	}
	return &result, nil
}

func (r *MongoResultRepo) Update(ctx context.Context, result *entity.GenerationResult) error {
	metrics.IncSalvageOp("put")

	res, err := r.col.ReplaceOne(ctx, bson.M{"id": result.ID}, result)
	if err != nil {
		metrics.IncError("mongo_result_repo", "update_error")
		return err
	}
	if res.MatchedCount == 0 {
		return entity.ErrResultNotFound
	}
	return nil
}

func (r *MongoResultRepo) List(ctx context.Context, limit int) ([]*entity.GenerationResult, error) {
	metrics.IncSalvageOp("list")

	opts := options.Find().SetSort(bson.D{bson.E{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		metrics.IncError("mongo_result_repo", "list_error")
		return nil, err
	}
	defer func() {
		_ = cur.Close(ctx)
	}()

	var results []*entity.GenerationResult
	for cur.Next(ctx) {
		var res entity.GenerationResult
		if err := cur.Decode(&res); err != nil {
			metrics.IncError("mongo_result_repo", "list_decode_error")
			return nil, err
		}
		results = append(results, &res)
	}
	return results, cur.Err()
}
