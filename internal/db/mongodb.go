package db

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phrasedash/go-socket-phrasedash/internal/game"
)

type racePhrase struct {
	Text            string `bson:"text"`
	TotalCharacters int    `bson:"totalCharacters"`
	TotalWords      int    `bson:"totalWords"`
}

var client *mongo.Client

// Connect opens the mongo client used by the phrase source.
func Connect(uri string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	return err
}

// Disconnect closes the client if it was connected.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// GetRandomPhrase samples one phrase document from the corpus.
func GetRandomPhrase(ctx context.Context) (string, error) {
	collection := client.Database("phrasedash").Collection("phrases")

	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: 1}}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return "", err
	}
	defer cursor.Close(ctx)

	var phrase racePhrase
	if cursor.Next(ctx) {
		if err := cursor.Decode(&phrase); err != nil {
			return "", err
		}
		return phrase.Text, nil
	}
	return "", mongo.ErrNoDocuments
}

// PhraseBuffer prefetches corpus phrases in the background so the
// coordinator never waits on the database inside an event.
type PhraseBuffer struct {
	phrases chan string
}

// NewPhraseBuffer starts the refill goroutine, which runs until ctx ends.
func NewPhraseBuffer(ctx context.Context, size int) *PhraseBuffer {
	b := &PhraseBuffer{phrases: make(chan string, size)}
	go b.refill(ctx)
	return b
}

func (b *PhraseBuffer) refill(ctx context.Context) {
	for {
		lookupCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		phrase, err := GetRandomPhrase(lookupCtx)
		cancel()

		if err != nil {
			log.Warn().Err(err).Msg("phrase lookup failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
				continue
			}
		}

		select {
		case <-ctx.Done():
			return
		case b.phrases <- phrase:
		}
	}
}

// Next hands out a prefetched phrase, falling back to the built-in corpus
// when the buffer is empty. Satisfies game.PhraseFunc.
func (b *PhraseBuffer) Next() string {
	select {
	case phrase := <-b.phrases:
		return phrase
	default:
		return game.RandomPhrase()
	}
}
