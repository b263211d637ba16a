package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testOpts = Options{Limit: 8, RankWeight: 0.8, SimilarityWeight: 0.2, Threshold: 0.3}

func candidate(doc string, ord int, rel, sim float64, content string) domain.PassageCandidate {
	return domain.PassageCandidate{
		DocumentChunk: domain.DocumentChunk{DocumentID: doc, Ordinal: ord, Content: content},
		Relevance:     rel,
		Similarity:    sim,
	}
}

func TestRankLexicalOrderingAndQualification(t *testing.T) {
	candidates := []domain.PassageCandidate{
		candidate("doc", 3, 0.5, 0.1, "ставка по вкладу"),
		candidate("doc", 1, 0.5, 0.1, "ставка по кредиту"),
		candidate("doc", 2, 0, 0.35, "ставки"),
		candidate("doc", 0, 0, 0.2, "нерелевантный текст"),
	}

	got := RankLexical(candidates, "ставка", 8, testOpts, NewRegexSentenceSplitter())
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 3, 2}, []int{got[0].Ordinal, got[1].Ordinal, got[2].Ordinal})
	assert.InDelta(t, 0.42, got[0].Score, 1e-9)
	assert.InDelta(t, 0.07, got[2].Score, 1e-9)
}

func TestRankLexicalPrefixStable(t *testing.T) {
	var candidates []domain.PassageCandidate
	for i := 0; i < 12; i++ {
		// Repeating scores force tie-breaks on ordinal.
		candidates = append(candidates, candidate("d", 11-i, float64(i%3)/10+0.1, 0.4, "условия вклада"))
	}
	full := RankLexical(candidates, "вклад", 12, testOpts, NewRegexSentenceSplitter())
	for limit := 1; limit <= 12; limit++ {
		prefix := RankLexical(candidates, "вклад", limit, testOpts, NewRegexSentenceSplitter())
		assert.Equal(t, full[:limit], prefix, "limit %d", limit)
	}
}

func TestRankLexicalEmpty(t *testing.T) {
	assert.Nil(t, RankLexical(nil, "ставка", 8, testOpts, NewRegexSentenceSplitter()))
	assert.Nil(t, RankLexical([]domain.PassageCandidate{candidate("d", 0, 1, 1, "x")}, "  ", 8, testOpts, NewRegexSentenceSplitter()))
}

func TestBuildSnippet(t *testing.T) {
	splitter := NewRegexSentenceSplitter()
	content := "Вклад Надёжный открывается онлайн. Ставка по вкладу зависит от срока и суммы. Досрочное расторжение возможно."

	tests := []struct {
		name  string
		terms []string
		want  string
	}{
		{
			name:  "single_sentence",
			terms: []string{"ставка"},
			want:  "[Ставка] по вкладу зависит от срока и суммы.",
		},
		{
			name:  "short_sentence_borrows_next",
			terms: []string{"вклад", "ставка"},
			want:  "[Вклад] Надёжный открывается онлайн. [Ставка] по вкладу зависит от срока и суммы.",
		},
		{
			name:  "no_hits_uses_opening",
			terms: []string{"ипотека"},
			want:  content,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSnippet(content, tt.terms, splitter))
		})
	}
}

func TestBuildSnippetFragmentBounds(t *testing.T) {
	words := make([]string, 0, 40)
	for i := 0; i < 30; i++ {
		words = append(words, "слово")
	}
	words[20] = "ставка,"
	long := strings.Join(words, " ") + ". Вторая ставка здесь и ещё слова."

	snippet := BuildSnippet(long, []string{"ставка"}, NewRegexSentenceSplitter())
	fragments := strings.Split(snippet, fragmentSeparator)
	require.Len(t, fragments, 2)
	for _, f := range fragments {
		n := len(strings.Fields(f))
		assert.GreaterOrEqual(t, n, snippetMinWords)
		assert.LessOrEqual(t, n, snippetMaxWords)
	}
	assert.Contains(t, fragments[0], "[ставка],")
}

type fakeStore struct {
	candidates []domain.PassageCandidate
	hits       []domain.ChunkHit
	vectorErr  error
	lastVector domain.VectorQuery
}

func (f *fakeStore) SearchPassages(ctx context.Context, q domain.LexicalQuery) ([]domain.PassageCandidate, error) {
	return f.candidates, nil
}

func (f *fakeStore) NearestChunks(ctx context.Context, q domain.VectorQuery) ([]domain.ChunkHit, error) {
	f.lastVector = q
	return f.hits, f.vectorErr
}

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

func TestRetrieveVectorMode(t *testing.T) {
	store := &fakeStore{hits: []domain.ChunkHit{
		{DocumentChunk: domain.DocumentChunk{DocumentID: "b", Ordinal: 2, Content: "Вклад в юанях."}, Distance: 0.3},
		{DocumentChunk: domain.DocumentChunk{DocumentID: "a", Ordinal: 1, Content: "Вклад в рублях."}, Distance: 0.1},
	}}
	r := New(store, &fakeEmbedder{}, testOpts, zap.NewNop())

	got, mode, err := r.Retrieve(context.Background(), Request{Product: domain.ProductDeposit, Currency: domain.CurrencyCNY, Text: "вклад", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, ModeVector, mode)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].DocumentID)
	assert.Equal(t, domain.CurrencyCNY, store.lastVector.Currency)
	assert.Equal(t, domain.ProductDeposit, store.lastVector.Product)
}

func TestRetrieveFallsBackToLexical(t *testing.T) {
	store := &fakeStore{
		candidates: []domain.PassageCandidate{candidate("doc", 0, 0.6, 0.5, "Ставка зависит от срока вклада.")},
		vectorErr:  errors.New("vector index unavailable"),
	}
	r := New(store, &fakeEmbedder{}, testOpts, zap.NewNop())

	got, mode, err := r.Retrieve(context.Background(), Request{Text: "ставка"})
	require.NoError(t, err)
	assert.Equal(t, ModeLexical, mode)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Snippet, "[Ставка]")

	r = New(store, &fakeEmbedder{err: errors.New("provider down")}, testOpts, zap.NewNop())
	_, mode, err = r.Retrieve(context.Background(), Request{Text: "ставка"})
	require.NoError(t, err)
	assert.Equal(t, ModeLexical, mode)
}

func TestVectorWithoutEmbedder(t *testing.T) {
	r := New(&fakeStore{}, nil, testOpts, zap.NewNop())
	assert.False(t, r.VectorEnabled())
	_, err := r.Vector(context.Background(), "", "", "вклад", 3)
	assert.True(t, apperrors.IsServiceUnavailable(err))
}

func TestCachedEmbedder(t *testing.T) {
	inner := &fakeEmbedder{}
	c, err := NewCachedEmbedder(inner, 4, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "Ставка  по вкладу")
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), "ставка по вкладу")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, c.Len())
}
