package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/npezzotti/go-hangout/internal/types"
)

const (
	usersCollection    = "users"
	messagesCollection = "messages"
)

// MongoHangoutStore persists user documents and message history in MongoDB.
// All mutations are single-document updates, so the store relies on
// document-level atomicity only; the sender and target writes of one command
// are two separate documents and are ordered by the caller.
type MongoHangoutStore struct {
	client    *mongo.Client
	users     *mongo.Collection
	messages  *mongo.Collection
	opTimeout time.Duration
}

func NewMongoHangoutStore(uri, database string, opTimeout time.Duration) (*MongoHangoutStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("go-hangout"))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	db := client.Database(database)
	s := &MongoHangoutStore{
		client:    client,
		users:     db.Collection(usersCollection),
		messages:  db.Collection(messagesCollection),
		opTimeout: opTimeout,
	}

	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func (s *MongoHangoutStore) createIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_username_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pair_key", Value: 1}, {Key: "timestamp", Value: 1}},
		Options: options.Index().SetName("messages_pair_key_timestamp"),
	})
	if err != nil {
		return fmt.Errorf("create messages index: %w", err)
	}

	return nil
}

func (s *MongoHangoutStore) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}

func (s *MongoHangoutStore) Ping() error {
	ctx, cancel := s.opCtx()
	defer cancel()

	return s.client.Ping(ctx, nil)
}

func (s *MongoHangoutStore) EnsureAccount(username, email string) (types.User, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	filter := bson.D{{Key: "username", Value: username}}
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "username", Value: username},
		{Key: "email", Value: email},
		{Key: "browsers", Value: bson.A{}},
		{Key: "hangouts", Value: bson.A{}},
		{Key: "unread", Value: bson.A{}},
	}}}

	if _, err := s.users.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return types.User{}, fmt.Errorf("ensure account %q: %w", username, err)
	}

	return s.getAccount(ctx, username)
}

func (s *MongoHangoutStore) GetAccount(username string) (types.User, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	return s.getAccount(ctx, username)
}

func (s *MongoHangoutStore) getAccount(ctx context.Context, username string) (types.User, error) {
	var user types.User
	err := s.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.User{}, fmt.Errorf("account %q: %w", username, ErrNotFound)
		}
		return types.User{}, fmt.Errorf("get account %q: %w", username, err)
	}

	return user, nil
}

func (s *MongoHangoutStore) EnsureBrowser(username, browserId string) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	filter := bson.D{
		{Key: "username", Value: username},
		{Key: "browsers.browser_id", Value: bson.D{{Key: "$ne", Value: browserId}}},
	}
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "browsers", Value: types.Browser{
		BrowserId:   browserId,
		Undelivered: []types.Hangout{},
		Delayed:     []types.Hangout{},
	}}}}}

	// Matching zero documents means the browser already exists.
	if _, err := s.users.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("ensure browser %s-%s: %w", username, browserId, err)
	}

	return nil
}

func (s *MongoHangoutStore) UpsertHangout(owner string, record types.Hangout) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	// Replace in place, but only over an equal or older timestamp so a
	// replayed command never regresses a newer record.
	replace := bson.D{
		{Key: "username", Value: owner},
		{Key: "hangouts", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "username", Value: record.Username},
			{Key: "timestamp", Value: bson.D{{Key: "$lte", Value: record.Timestamp}}},
		}}}},
	}
	res, err := s.users.UpdateOne(ctx, replace, bson.D{
		{Key: "$set", Value: bson.D{{Key: "hangouts.$", Value: record}}},
	})
	if err != nil {
		return fmt.Errorf("upsert hangout %s->%s: %w", owner, record.Username, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// No replaceable entry: append unless one already exists (in which case
	// it carries a newer timestamp and wins).
	appendFilter := bson.D{
		{Key: "username", Value: owner},
		{Key: "hangouts.username", Value: bson.D{{Key: "$ne", Value: record.Username}}},
	}
	if _, err := s.users.UpdateOne(ctx, appendFilter, bson.D{
		{Key: "$push", Value: bson.D{{Key: "hangouts", Value: record}}},
	}); err != nil {
		return fmt.Errorf("append hangout %s->%s: %w", owner, record.Username, err)
	}

	return nil
}

func (s *MongoHangoutStore) AppendMessageHistory(owner, counterpart string, msg types.Message) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	entry := messageEntry{
		PairKey:   PairKey(owner, counterpart),
		Owner:     owner,
		Partner:   counterpart,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	}

	if _, err := s.messages.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("append message %s: %w", entry.PairKey, err)
	}

	return nil
}

func (s *MongoHangoutStore) EnqueueForBrowser(owner, browserId string, queue Queue, record types.Hangout) error {
	if queue != QueueUndelivered && queue != QueueDelayed {
		return fmt.Errorf("enqueue %s-%s: %w: %q", owner, browserId, ErrUnknownQueue, queue)
	}

	ctx, cancel := s.opCtx()
	defer cancel()

	filter := bson.D{
		{Key: "username", Value: owner},
		{Key: "browsers.browser_id", Value: browserId},
	}
	update := bson.D{{Key: "$push", Value: bson.D{
		{Key: "browsers.$." + string(queue), Value: record},
	}}}

	res, err := s.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("enqueue %s-%s %s: %w", owner, browserId, queue, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("enqueue %s-%s %s: %w", owner, browserId, queue, ErrNotFound)
	}

	return nil
}

func (s *MongoHangoutStore) DrainBrowserQueue(owner, browserId string, queue Queue) ([]types.Hangout, error) {
	if queue != QueueUndelivered && queue != QueueDelayed {
		return nil, fmt.Errorf("drain %s-%s: %w: %q", owner, browserId, ErrUnknownQueue, queue)
	}

	ctx, cancel := s.opCtx()
	defer cancel()

	filter := bson.D{
		{Key: "username", Value: owner},
		{Key: "browsers.browser_id", Value: browserId},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "browsers.$." + string(queue), Value: bson.A{}},
	}}}

	// Read-and-clear in one document update: the returned pre-image holds
	// the drained batch.
	var user types.User
	err := s.users.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("drain %s-%s %s: %w", owner, browserId, queue, ErrNotFound)
		}
		return nil, fmt.Errorf("drain %s-%s %s: %w", owner, browserId, queue, err)
	}

	for _, b := range user.Browsers {
		if b.BrowserId != browserId {
			continue
		}
		if queue == QueueUndelivered {
			return b.Undelivered, nil
		}
		return b.Delayed, nil
	}

	return nil, nil
}

func (s *MongoHangoutStore) AppendUnread(owner string, record types.Hangout) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	filter := bson.D{{Key: "username", Value: owner}}
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "unread", Value: record}}}}

	if _, err := s.users.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("append unread %s: %w", owner, err)
	}

	return nil
}

func (s *MongoHangoutStore) ClearUnread(owner, counterpart string) error {
	ctx, cancel := s.opCtx()
	defer cancel()

	filter := bson.D{{Key: "username", Value: owner}}
	update := bson.D{{Key: "$pull", Value: bson.D{
		{Key: "unread", Value: bson.D{{Key: "username", Value: counterpart}}},
	}}}

	if _, err := s.users.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("clear unread %s->%s: %w", owner, counterpart, err)
	}

	return nil
}

func (s *MongoHangoutStore) GetMessages(owner, counterpart string, limit int) ([]types.Message, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.messages.Find(ctx, bson.D{{Key: "pair_key", Value: PairKey(owner, counterpart)}}, opts)
	if err != nil {
		return nil, fmt.Errorf("get messages %s-%s: %w", owner, counterpart, err)
	}
	defer cur.Close(ctx)

	var msgs []types.Message
	for cur.Next(ctx) {
		var entry messageEntry
		if err := cur.Decode(&entry); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		msgs = append(msgs, types.Message{Text: entry.Text, Timestamp: entry.Timestamp})
	}

	return msgs, cur.Err()
}

func (s *MongoHangoutStore) Close() error {
	ctx, cancel := s.opCtx()
	defer cancel()

	return s.client.Disconnect(ctx)
}
