package mq

import (
	"context"
	"encoding/json"
	"log"

	"rentora/models"
	"rentora/rdx"
	"rentora/search"
)

const indexingChannel = "indexing-events"

// Emit publishes an indexing event to Redis. Indexing happens off the
// request path in the worker.
func Emit(ctx context.Context, eventName string, content models.Index) {
	data, err := json.Marshal(content)
	if err != nil {
		log.Printf("[Emit] marshal %s: %v", eventName, err)
		return
	}
	if err := rdx.Conn.Publish(ctx, indexingChannel, data).Err(); err != nil {
		log.Printf("[Emit] publish %s: %v", eventName, err)
	}
}

// StartIndexingWorker consumes indexing events and keeps the Redis
// inverted index in sync with the catalog. Run it in its own goroutine.
func StartIndexingWorker() {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, indexingChannel)
	ch := sub.Channel()

	log.Println("[IndexingWorker] listening for indexing events")

	for msg := range ch {
		var event models.Index
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("[IndexingWorker] parse event: %v", err)
			continue
		}
		if err := search.ApplyIndexEvent(ctx, event); err != nil {
			log.Printf("[IndexingWorker] apply %+v: %v", event, err)
		}
	}
}
