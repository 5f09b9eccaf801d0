// mongo — Store поверх MongoDB: один документ на профиль,
// значения лежат во вложенном поле values.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pribylovaa/clinicare/internal/storage"
)

const (
	profilesCollection = "profiles"
	defaultDBName      = "clinicare"
)

type Store struct {
	client   *mongodriver.Client
	profiles *mongodriver.Collection
	profile  string
}

type profileDoc struct {
	Values map[string]string `bson:"values"`
}

// New подключается к MongoDB и проверяет соединение.
func New(ctx context.Context, uri, profile string) (*Store, error) {
	const op = "storage.mongo.New"

	if uri == "" {
		return nil, fmt.Errorf("%s: empty uri", op)
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db := cli.Database(databaseFromURI(uri))

	return &Store{
		client:   cli,
		profiles: db.Collection(profilesCollection),
		profile:  profile,
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const op = "storage.mongo.Get"

	if err := checkKey(key); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var doc profileDoc
	err := s.profiles.FindOne(ctx,
		bson.D{{Key: "_id", Value: s.profile}},
		options.FindOne().SetProjection(bson.D{{Key: field(key), Value: 1}}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	value, ok := doc.Values[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return value, nil
}

// Put пишет все пары одним $set, изменение одного документа атомарно.
func (s *Store) Put(ctx context.Context, values map[string]string) error {
	const op = "storage.mongo.Put"

	if len(values) == 0 {
		return nil
	}

	set := make(bson.D, 0, len(values))
	for key, value := range values {
		if err := checkKey(key); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		set = append(set, bson.E{Key: field(key), Value: value})
	}

	_, err := s.profiles.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: s.profile}},
		bson.D{{Key: "$set", Value: set}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "storage.mongo.Delete"

	if err := checkKey(key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err := s.profiles.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: s.profile}},
		bson.D{{Key: "$unset", Value: bson.D{{Key: field(key), Value: ""}}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	const op = "storage.mongo.Clear"

	if _, err := s.profiles.DeleteOne(ctx, bson.D{{Key: "_id", Value: s.profile}}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close отключает клиента.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func field(key string) string {
	return "values." + key
}

// checkKey отсекает ключи, которые MongoDB трактует как путь или оператор.
func checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, ".$") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// databaseFromURI берёт имя базы из пути URI, иначе defaultDBName.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}

// Проверка на соответствие интерфейсу Store.
var _ storage.Store = (*Store)(nil)
