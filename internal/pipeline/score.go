package pipeline

import (
	"fmt"
	"sort"

	"arxiv-similarity-search/internal/models"
	"arxiv-similarity-search/internal/pipeline/rank"
)

const maxPapers = 5

// Rerank blend: cosine similarity dominates, keyword overlap refines.
const (
	similarityWeight = 0.7
	overlapWeight    = 0.3
)

// rankCandidates scores candidates against the query abstract with TF-IDF
// cosine similarity, reranks the scores with a keyword-overlap blend, and
// returns the top topK records with dense 1-based ranks.
func rankCandidates(abstract string, keywords []string, candidates []models.PaperRecord, topK int) ([]models.PaperRecord, error) {
	if topK <= 0 || topK > maxPapers {
		topK = maxPapers
	}

	corpus := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		corpus = append(corpus, c.Title+" "+c.Abstract)
	}
	corpus = append(corpus, abstract)

	embedder := rank.NewEmbedder()
	if err := embedder.Prepare(corpus); err != nil {
		return nil, fmt.Errorf("preparing embedder: %w", err)
	}

	query, err := embedder.Embed(abstract)
	if err != nil {
		return nil, fmt.Errorf("embedding query abstract: %w", err)
	}

	scored := make([]models.PaperRecord, len(candidates))
	copy(scored, candidates)
	for i := range scored {
		vec, err := embedder.Embed(scored[i].Title + " " + scored[i].Abstract)
		if err != nil {
			return nil, fmt.Errorf("embedding candidate %q: %w", scored[i].ArxivID, err)
		}
		scored[i].Similarity = rank.Dot(query, vec)
		scored[i].RerankScore = similarityWeight*scored[i].Similarity +
			overlapWeight*rank.Overlap(keywords, scored[i].Abstract)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankScore > scored[j].RerankScore
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored, nil
}

// comparativeAnalysis summarizes how the top papers relate to the query.
func comparativeAnalysis(papers []models.PaperRecord) map[string]any {
	if len(papers) == 0 {
		return nil
	}

	total := 0.0
	best := papers[0]
	for _, p := range papers {
		total += p.Similarity
		if p.Similarity > best.Similarity {
			best = p
		}
	}

	return map[string]any{
		"average_similarity": total / float64(len(papers)),
		"best_match":         best.Title,
		"score_spread":       papers[0].RerankScore - papers[len(papers)-1].RerankScore,
	}
}
