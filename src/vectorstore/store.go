// Package vectorstore persists question/SQL example pairs with their
// embeddings in Redis and retrieves the closest matches by cosine
// similarity. The corpus is small (curated examples, not user traffic) so a
// full scan per lookup is acceptable.
package vectorstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talentbase/nl2sql/src/models"
)

const examplePrefix = "nl2sql:example:"

type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// storedExample is the Redis JSON shape. Older entries written by a
// previous ingestion tool used texte_complet/requete field names; the
// custom unmarshaller accepts both.
type storedExample struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	SQL       string    `json:"sql"`
	Embedding []float32 `json:"embedding"`
	StoredAt  time.Time `json:"stored_at"`
}

func (e *storedExample) UnmarshalJSON(data []byte) error {
	type alias storedExample
	aux := struct {
		*alias
		TexteComplet string `json:"texte_complet"`
		Requete      string `json:"requete"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.Question == "" {
		e.Question = aux.TexteComplet
	}
	if e.SQL == "" {
		e.SQL = aux.Requete
	}
	return nil
}

// Store writes an example keyed by the md5 of its question, so re-storing
// the same question overwrites the previous entry.
func (s *Store) Store(ctx context.Context, question string, vector []float32, sql string) error {
	if question == "" || sql == "" {
		return &models.VectorSearchError{Message: "question ou requête vide, stockage refusé"}
	}
	if len(vector) == 0 {
		return &models.VectorSearchError{Message: "embedding vide, stockage refusé"}
	}

	id := ExampleID(question)
	entry := storedExample{
		ID:        id,
		Question:  question,
		SQL:       sql,
		Embedding: vector,
		StoredAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return &models.VectorSearchError{Message: "sérialisation de l'exemple impossible", Err: err}
	}
	if err := s.client.Set(ctx, examplePrefix+id, data, 0).Err(); err != nil {
		return &models.VectorSearchError{Message: "écriture dans le store vectoriel échouée", Err: err}
	}
	return nil
}

// FindSimilar scans every stored example and returns the topK closest by
// cosine similarity, best first. Corrupt entries are skipped.
func (s *Store) FindSimilar(ctx context.Context, vector []float32, topK int) ([]models.SimilarQueryMatch, error) {
	if len(vector) == 0 {
		return nil, &models.VectorSearchError{Message: "vecteur de recherche vide"}
	}
	if topK <= 0 {
		topK = 5
	}

	var matches []models.SimilarQueryMatch
	iter := s.client.Scan(ctx, 0, examplePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var entry storedExample
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if len(entry.Embedding) != len(vector) {
			continue
		}
		score := cosineSimilarity(vector, entry.Embedding)
		matches = append(matches, models.SimilarQueryMatch{
			Score:    score,
			Question: entry.Question,
			SQL:      entry.SQL,
			ID:       entry.ID,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, &models.VectorSearchError{Message: "parcours du store vectoriel échoué", Err: err}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Store) HealthCheck(ctx context.Context) map[string]any {
	status := map[string]any{}
	if err := s.client.Ping(ctx).Err(); err != nil {
		status["status"] = "unhealthy"
		status["error"] = err.Error()
		return status
	}
	count := 0
	iter := s.client.Scan(ctx, 0, examplePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	status["status"] = "healthy"
	status["examples"] = count
	return status
}

// ExampleID derives the deterministic storage ID for a question.
func ExampleID(question string) string {
	sum := md5.Sum([]byte(question))
	return hex.EncodeToString(sum[:])
}

// CheckExactMatch returns the best match when it clears the threshold.
// Matches must already be sorted best first.
func CheckExactMatch(matches []models.SimilarQueryMatch, threshold float64) (*models.SimilarQueryMatch, bool) {
	if len(matches) == 0 {
		return nil, false
	}
	if matches[0].Score >= threshold {
		m := matches[0]
		return &m, true
	}
	return nil, false
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}
