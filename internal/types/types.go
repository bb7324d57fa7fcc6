package types

// Hangout is the relationship record one user keeps about another. The
// Username and Email identify the counterpart, never the owner. State holds
// the owner's view of the relationship as of Timestamp, and Message carries
// the last exchanged message, if any.
type Hangout struct {
	Username  string   `json:"username" bson:"username"`
	Email     string   `json:"email" bson:"email"`
	State     string   `json:"state" bson:"state"`
	Message   *Message `json:"message,omitempty" bson:"message,omitempty"`
	Timestamp int64    `json:"timestamp" bson:"timestamp"`
}

type Message struct {
	Text      string `json:"text" bson:"text"`
	Timestamp int64  `json:"timestamp" bson:"timestamp"`
}

// Browser is one connected device/session identity for a user. Its queues
// hold records owed to this browser while it is offline: Undelivered holds
// hangout pushes from counterparts, Delayed holds acknowledgements of the
// owner's own commands issued from another browser.
type Browser struct {
	BrowserId   string    `json:"browser_id" bson:"browser_id"`
	Undelivered []Hangout `json:"undelivered" bson:"undelivered"`
	Delayed     []Hangout `json:"delayed" bson:"delayed"`
}

type User struct {
	Username string    `json:"username" bson:"username"`
	Email    string    `json:"email" bson:"email"`
	Browsers []Browser `json:"browsers" bson:"browsers"`
	Hangouts []Hangout `json:"hangouts" bson:"hangouts"`
	Unread   []Hangout `json:"unread" bson:"unread"`
}
