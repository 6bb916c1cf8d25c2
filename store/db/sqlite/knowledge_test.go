package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omadigital23/assistant/internal/profile"
	"github.com/omadigital23/assistant/server/queryengine"
	"github.com/omadigital23/assistant/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	driver, err := NewDB(&profile.Profile{Mode: "dev", Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))
	return driver.(*DB)
}

func seedEntries(t *testing.T, d *DB) {
	t.Helper()
	entries := []*store.KnowledgeEntry{
		{ID: "svc-web-en", Title: "Website development", Content: "We build fast websites and online shops.", Category: store.CategoryServices, Language: store.LanguageEnglish, Keywords: []string{"website", "web", "shop"}, Active: true},
		{ID: "svc-web-fr", Title: "Création de sites web", Content: "Nous créons des sites web rapides.", Category: store.CategoryServices, Language: store.LanguageFrench, Keywords: []string{"site", "web"}, Active: true},
		{ID: "price-en", Title: "Pricing", Content: "Every project gets a tailored quote.", Category: store.CategoryPricing, Language: store.LanguageEnglish, Keywords: []string{"price", "quote", "cost"}, Active: true},
		{ID: "old-en", Title: "Legacy website offer", Content: "Retired website plan.", Category: store.CategoryServices, Language: store.LanguageEnglish, Keywords: []string{"website"}, Active: false},
	}
	for _, e := range entries {
		_, err := d.UpsertKnowledge(context.Background(), e)
		require.NoError(t, err)
	}
}

func ids(entries []*store.KnowledgeEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestSearchFullText(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedEntries(t, d)

	en := store.LanguageEnglish
	results, err := d.SearchFullText(ctx, &store.FullTextSearch{Text: "website development", Language: &en, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc-web-en"}, ids(results), "inactive entries are excluded")
	assert.Equal(t, []string{"website", "web", "shop"}, results[0].Keywords)

	results, err = d.SearchFullText(ctx, &store.FullTextSearch{Text: "websites rapides", Limit: 5})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"svc-web-en", "svc-web-fr"}, ids(results))

	results, err = d.SearchFullText(ctx, &store.FullTextSearch{Text: `"  `, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchFullText_FallbackWithoutFTS(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedEntries(t, d)

	_, err := d.db.ExecContext(ctx, "DROP TABLE knowledge_fts")
	require.NoError(t, err)

	en := store.LanguageEnglish
	results, err := d.SearchFullText(ctx, &store.FullTextSearch{Text: "tailored quote", Language: &en, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"price-en"}, ids(results))
}

func TestSearchKeywords(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedEntries(t, d)

	results, err := d.SearchKeywords(ctx, &store.KeywordSearch{Keywords: []string{"web", "shop"}, Limit: 5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "svc-web-en", results[0].ID, "larger overlap ranks first")

	fr := store.LanguageFrench
	results, err = d.SearchKeywords(ctx, &store.KeywordSearch{Keywords: []string{"web"}, Language: &fr, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc-web-fr"}, ids(results))

	results, err = d.SearchKeywords(ctx, &store.KeywordSearch{Keywords: nil, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchCategory(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedEntries(t, d)

	results, err := d.SearchCategory(ctx, &store.CategorySearch{Category: store.CategoryPricing, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"price-en"}, ids(results))

	results, err = d.SearchCategory(ctx, &store.CategorySearch{Category: store.CategoryContact, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_MissingTable(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	_, err := d.db.ExecContext(ctx, "DROP TABLE knowledge_entry")
	require.NoError(t, err)

	_, err = d.SearchCategory(ctx, &store.CategorySearch{Category: store.CategoryServices, Limit: 5})
	require.Error(t, err)
	assert.True(t, store.IsIndexMissing(err))
}

func TestUpsertKnowledge_UpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedEntries(t, d)

	_, err := d.UpsertKnowledge(ctx, &store.KnowledgeEntry{
		ID: "price-en", Title: "Pricing", Content: "Quotes are free and fast.", Category: store.CategoryPricing,
		Language: store.LanguageEnglish, Keywords: []string{"price"}, Active: true,
	})
	require.NoError(t, err)

	all, err := d.ListKnowledge(ctx, &store.FindKnowledge{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	en := store.LanguageEnglish
	results, err := d.SearchFullText(ctx, &store.FullTextSearch{Text: "free", Language: &en, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"price-en"}, ids(results), "fts index follows updates")
}

func TestConversationLog(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	created, err := d.CreateConversationLog(ctx, &store.ConversationLog{
		UID:         "log-1",
		Question:    "What are your services?",
		Answer:      "We build websites.",
		Source:      "retrieval-only",
		Confidence:  0.9,
		Language:    store.LanguageEnglish,
		Intent:      "services",
		DocumentIDs: []string{"svc-web-en"},
		LatencyMs:   12,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	uid := "log-1"
	logs, err := d.ListConversationLogs(ctx, &store.FindConversationLog{UID: &uid})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, []string{"svc-web-en"}, logs[0].DocumentIDs)
	assert.Equal(t, store.LanguageEnglish, logs[0].Language)
}

var hostingFR = &store.KnowledgeEntry{
	ID: "host-fr", Title: "Hébergement et sécurité", Content: "Nous hébergeons vos sites avec une sécurité renforcée.",
	Category: store.CategoryTechnical, Language: store.LanguageFrench, Keywords: []string{"hébergement", "Sécurité"}, Active: true,
}

func TestSearchKeywords_AccentedKeywords(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	_, err := d.UpsertKnowledge(ctx, hostingFR)
	require.NoError(t, err)

	q := queryengine.NewNormalizer(nil, store.LanguageFrench).Normalize("Parlez-moi de votre hébergement et sécurité", store.LanguageFrench)
	require.Contains(t, q.Keywords, "hebergement")

	results, err := d.SearchKeywords(ctx, &store.KeywordSearch{Keywords: q.Keywords, Limit: 5})
	require.NoError(t, err)
	require.Equal(t, []string{"host-fr"}, ids(results))
	assert.Equal(t, []string{"hebergement", "securite"}, results[0].Keywords, "keywords are stored folded")

	results, err = d.SearchKeywords(ctx, &store.KeywordSearch{Keywords: []string{"Hébergement"}, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"host-fr"}, ids(results), "query keywords are folded too")
}

func TestSearchFullText_FallbackMatchesAccentedContent(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	_, err := d.UpsertKnowledge(ctx, hostingFR)
	require.NoError(t, err)

	_, err = d.db.ExecContext(ctx, "DROP TABLE knowledge_fts")
	require.NoError(t, err)

	results, err := d.SearchFullText(ctx, &store.FullTextSearch{Text: "securite renforcee", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"host-fr"}, ids(results))
}

func TestMigrate_RefoldsLegacyRows(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	_, err := d.db.ExecContext(ctx, `INSERT INTO knowledge_entry (id, title, content, category, language, keywords, active)
		VALUES ('legacy-fr', 'Sécurité', 'Protection des données.', 'technical', 'fr', '["Sécurité","Données"]', 1)`)
	require.NoError(t, err)

	results, err := d.SearchKeywords(ctx, &store.KeywordSearch{Keywords: []string{"securite"}, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, d.Migrate(ctx))

	results, err = d.SearchKeywords(ctx, &store.KeywordSearch{Keywords: []string{"securite", "donnees"}, Limit: 5})
	require.NoError(t, err)
	require.Equal(t, []string{"legacy-fr"}, ids(results))
	assert.Equal(t, []string{"securite", "donnees"}, results[0].Keywords)
}
