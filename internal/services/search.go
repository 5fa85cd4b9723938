package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"cv-intelligence/internal/models"
)

// IndexedCandidate pairs a stored candidate with the profile text to embed.
type IndexedCandidate struct {
	Candidate   models.Candidate
	ProfileText string
}

// CandidateHit is one search result: a candidate id and its best chunk
// similarity.
type CandidateHit struct {
	CandidateID uuid.UUID
	Similarity  float32
}

// CandidateSearchService is the optional semantic-search subsystem. The batch
// lifecycle never depends on it; indexing and deletion are best effort.
type CandidateSearchService interface {
	InitCollection() error
	IndexBatch(ctx context.Context, batchID uuid.UUID, ownerID string, candidates []IndexedCandidate) error
	Search(ctx context.Context, batchID uuid.UUID, query string, limit int) ([]CandidateHit, error)
	DeleteBatch(ctx context.Context, batchID uuid.UUID) error
}

type candidateSearchService struct {
	client         *qdrant.Client
	gemini         GeminiService
	collectionName string
	vectorSize     uint64
}

func NewCandidateSearchService(urlStr, apiKey, collectionName string, gemini GeminiService) (CandidateSearchService, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port unless the URL says otherwise.
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &candidateSearchService{
		client:         client,
		gemini:         gemini,
		collectionName: collectionName,
		vectorSize:     768, // text-embedding-004 output size
	}, nil
}

// InitCollection implements CandidateSearchService.
func (s *candidateSearchService) InitCollection() error {
	ctx := context.Background()

	exists, err := s.client.CollectionExists(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", s.collectionName)
	return nil
}

// IndexBatch implements CandidateSearchService. Each candidate profile is
// chunked and every chunk is upserted as its own point carrying the
// candidate and batch ids in the payload.
func (s *candidateSearchService) IndexBatch(ctx context.Context, batchID uuid.UUID, ownerID string, candidates []IndexedCandidate) error {
	var points []*qdrant.PointStruct

	for _, ic := range candidates {
		for _, chunk := range chunkText(ic.ProfileText, 1000) {
			embedding, err := s.gemini.GenerateEmbedding(ctx, chunk)
			if err != nil {
				return fmt.Errorf("failed to embed candidate %s: %w", ic.Candidate.ID, err)
			}

			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewID(uuid.New().String()),
				Vectors: qdrant.NewVectors(embedding...),
				Payload: qdrant.NewValueMap(map[string]interface{}{
					"candidate_id": ic.Candidate.ID.String(),
					"batch_id":     batchID.String(),
					"owner_id":     ownerID,
					"text":         chunk,
				}),
			})
		}
	}

	if len(points) == 0 {
		return nil
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Search implements CandidateSearchService. Results collapse to the best
// chunk score per candidate, ordered by similarity.
func (s *candidateSearchService) Search(ctx context.Context, batchID uuid.UUID, query string, limit int) ([]CandidateHit, error) {
	embedding, err := s.gemini.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("batch_id", batchID.String()),
		},
	}

	// Over-fetch so per-candidate dedup still fills the requested limit.
	fetchLimit := uint64(limit * 4)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(fetchLimit),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	best := make(map[uuid.UUID]float32)
	var order []uuid.UUID
	for _, point := range results {
		raw, ok := point.Payload["candidate_id"]
		if !ok {
			continue
		}
		val, ok := raw.GetKind().(*qdrant.Value_StringValue)
		if !ok {
			continue
		}
		id, err := uuid.Parse(val.StringValue)
		if err != nil {
			continue
		}
		if _, seen := best[id]; !seen {
			best[id] = point.Score
			order = append(order, id)
		}
	}

	var hits []CandidateHit
	for _, id := range order {
		hits = append(hits, CandidateHit{CandidateID: id, Similarity: best[id]})
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// DeleteBatch implements CandidateSearchService.
func (s *candidateSearchService) DeleteBatch(ctx context.Context, batchID uuid.UUID) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("batch_id", batchID.String()),
		},
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete batch vectors: %w", err)
	}
	return nil
}

// chunkText splits text into chunks of roughly maxChunkSize characters,
// preferring paragraph boundaries.
func chunkText(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}

	var chunks []string
	var current strings.Builder

	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+1 > maxChunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(para)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
