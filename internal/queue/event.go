// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// CatalogEvent is published after every successful product or category
// mutation. It carries enough for downstream consumers to audit the change
// and drop stale cached responses without querying the primary database.
type CatalogEvent struct {
	Entity     string `json:"entity"` // "product" | "category"
	EntityID   uint64 `json:"entity_id"`
	Slug       string `json:"slug"`
	Action     string `json:"action"` // "created" | "updated" | "deleted"
	ActorID    uint64 `json:"actor_id"`
	OccurredAt string `json:"occurred_at"`
}

// QueueName is the durable queue both the publisher and consumer declare.
const QueueName = "catalog.events"
