package search

import (
	"context"
	"regexp"
	"strings"

	"github.com/redis/go-redis/v9"

	"rentora/models"
	"rentora/rdx"
)

var tokenRegex = regexp.MustCompile(`(?i)[A-Za-z0-9_]+`)

var stopWords = map[string]bool{
	"the": true, "and": true, "of": true, "in": true, "to": true,
	"for": true, "on": true, "with": true, "a": true, "an": true,
}

// Tokenize lowercases, splits and dedupes a query, dropping stopwords.
func Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	matches := tokenRegex.FindAllString(text, -1)

	out := make([]string, 0, len(matches))
	seen := map[string]struct{}{}
	for _, m := range matches {
		t := strings.ToLower(m)
		if stopWords[t] {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func invertedKey(token string) string { return "inverted:item:" + token }

const autocompleteKey = "autocomplete:items"

// ApplyIndexEvent keeps the Redis inverted index and autocomplete set in
// step with catalog changes.
func ApplyIndexEvent(ctx context.Context, event models.Index) error {
	if event.EntityType != "item" {
		return nil
	}
	switch event.Method {
	case "DELETE":
		return removeFromIndex(ctx, event.EntityId)
	default:
		return addToIndex(ctx, event.EntityId, event.ItemName)
	}
}

func addToIndex(ctx context.Context, itemID, name string) error {
	pipe := rdx.Conn.Pipeline()
	for _, token := range Tokenize(name) {
		pipe.SAdd(ctx, invertedKey(token), itemID)
	}
	pipe.ZAdd(ctx, autocompleteKey, redis.Z{Score: 0, Member: strings.ToLower(name)})
	_, err := pipe.Exec(ctx)
	return err
}

// removeFromIndex walks the inverted keys and drops the item everywhere.
// Token keys are enumerated with SCAN since the deleted item's name is
// no longer known.
func removeFromIndex(ctx context.Context, itemID string) error {
	iter := rdx.Conn.Scan(ctx, 0, "inverted:item:*", 0).Iterator()
	pipe := rdx.Conn.Pipeline()
	for iter.Next(ctx) {
		pipe.SRem(ctx, iter.Val(), itemID)
	}
	if err := iter.Err(); err != nil {
		return err
	}
	_, err := pipe.Exec(ctx)
	return err
}

// IndexedIDs returns the item ids matching every token of the query.
func IndexedIDs(ctx context.Context, query string, limit int) ([]string, error) {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = invertedKey(t)
	}

	ids, err := rdx.Conn.SInter(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// SuggestNames returns autocomplete completions for a name prefix.
func SuggestNames(ctx context.Context, prefix string, limit int64) ([]string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return []string{}, nil
	}
	rng := &redis.ZRangeBy{
		Min:   "[" + prefix,
		Max:   "[" + prefix + "\xff",
		Count: limit,
	}
	names, err := rdx.Conn.ZRangeByLex(ctx, autocompleteKey, rng).Result()
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
