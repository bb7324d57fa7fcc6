package store

import "fmt"

// messageEntry is one row of the per-pair chat log. PairKey is the keyspace
// name "{owner}-{counterpart}-messages" so each direction of a conversation
// has its own history.
type messageEntry struct {
	PairKey   string `bson:"pair_key"`
	Owner     string `bson:"owner"`
	Partner   string `bson:"partner"`
	Text      string `bson:"text"`
	Timestamp int64  `bson:"timestamp"`
}

// PairKey derives the message-history keyspace for one direction of a pair.
func PairKey(owner, counterpart string) string {
	return fmt.Sprintf("%s-%s-messages", owner, counterpart)
}
