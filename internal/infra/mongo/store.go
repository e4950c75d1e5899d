// Package mongo stores users, results and question pools in MongoDB, the
// document layout the original service used.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"strengths-service/internal/domain"
)

const (
	usersCollection   = "users"
	resultsCollection = "responses"
	poolsCollection   = "question_pools"
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Answers are embedded: always read together with the result.
type resultDocument struct {
	ID           string         `bson:"_id"`
	UserID       string         `bson:"user,omitempty"`
	TempID       string         `bson:"tempId,omitempty"`
	Responses    []answerDoc    `bson:"responses"`
	DomainScores map[string]int `bson:"domainScores"`
	TotalScore   float64        `bson:"totalScore"`
	Date         time.Time      `bson:"date"`
}

type answerDoc struct {
	QuestionID string `bson:"questionId"`
	Domain     string `bson:"domain"`
	Value      int    `bson:"value"`
}

type poolDocument struct {
	ID        string            `bson:"_id"`
	Questions []domain.Question `bson:"questions"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// Store implements the user, result and pool repositories on one database.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	result *mongo.Collection
	pools  *mongo.Collection
}

// Connect dials uri and returns a store bound to database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return NewStore(client, database), nil
}

func NewStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client: client,
		users:  db.Collection(usersCollection),
		result: db.Collection(resultsCollection),
		pools:  db.Collection(poolsCollection),
	}
}

// EnsureIndexes creates the unique and lookup indexes the queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_unique")},
	})
	if err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	_, err = s.result.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "tempId", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("result indexes: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	_, err := s.users.InsertOne(ctx, userDocument{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), "username") {
			return domain.ErrUsernameTaken
		}
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (domain.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (domain.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return domain.User{
		ID:           doc.ID,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (s *Store) SaveResult(ctx context.Context, result domain.Result) error {
	doc := resultDocument{
		ID:           result.ID,
		UserID:       result.UserID,
		TempID:       result.TempID,
		Responses:    make([]answerDoc, 0, len(result.Responses)),
		DomainScores: result.DomainScores,
		TotalScore:   result.TotalScore,
		Date:         result.Date,
	}
	for _, a := range result.Responses {
		doc.Responses = append(doc.Responses, answerDoc(a))
	}
	if _, err := s.result.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *Store) ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error) {
	cursor, err := s.result.Find(ctx, bson.M{"user": userID}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find results: %w", err)
	}
	var docs []resultDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	out := make([]domain.Result, 0, len(docs))
	for _, d := range docs {
		r := domain.Result{
			ID:           d.ID,
			UserID:       d.UserID,
			TempID:       d.TempID,
			Responses:    make([]domain.Answer, 0, len(d.Responses)),
			DomainScores: d.DomainScores,
			TotalScore:   d.TotalScore,
			Date:         d.Date.UTC(),
		}
		for _, a := range d.Responses {
			r.Responses = append(r.Responses, domain.Answer(a))
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) AttachTempID(ctx context.Context, tempID, userID string) (int64, error) {
	if tempID == "" {
		return 0, nil
	}
	res, err := s.result.UpdateMany(ctx,
		bson.M{"tempId": tempID},
		bson.M{"$set": bson.M{"user": userID}, "$unset": bson.M{"tempId": ""}},
	)
	if err != nil {
		return 0, fmt.Errorf("attach results: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *Store) LoadPool(ctx context.Context, poolID string) (domain.QuestionPool, error) {
	var doc poolDocument
	err := s.pools.FindOne(ctx, bson.M{"_id": poolID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.QuestionPool{}, domain.ErrPoolNotFound
	}
	if err != nil {
		return domain.QuestionPool{}, fmt.Errorf("load pool: %w", err)
	}
	return domain.QuestionPool{ID: doc.ID, Questions: doc.Questions}, nil
}

func (s *Store) SavePool(ctx context.Context, pool domain.QuestionPool) error {
	_, err := s.pools.ReplaceOne(ctx,
		bson.M{"_id": pool.ID},
		poolDocument{ID: pool.ID, Questions: pool.Questions, UpdatedAt: time.Now().UTC()},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save pool: %w", err)
	}
	return nil
}
