package resources_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/linguist/internal/resources"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestParseCatalog(t *testing.T) {
	t.Run("should parse providers and models in order", func(t *testing.T) {
		input := "# providers\nOpenaiChat: gpt-4o-mini, gpt-4o\n\nBing: gpt-4\nEmpty:\n"

		catalog, err := resources.ParseCatalog(strings.NewReader(input))

		require.NoError(t, err)
		require.Equal(t, []string{"OpenaiChat", "Bing", "Empty"}, catalog.Names())
		require.Equal(t, []string{"gpt-4o-mini", "gpt-4o"}, catalog.Models("OpenaiChat"))
		require.Empty(t, catalog.Models("Empty"))
		require.False(t, catalog.HasModels("Empty"))
	})

	t.Run("should reject a line without a provider name", func(t *testing.T) {
		_, err := resources.ParseCatalog(strings.NewReader("Bing: gpt-4\njust-text\n"))

		require.Error(t, err)
		require.Contains(t, err.Error(), "line 2")
	})
}

func TestParsePhrases(t *testing.T) {
	phrases, err := resources.ParsePhrases(strings.NewReader("I cannot help\n\n  as an AI  \n"))

	require.NoError(t, err)
	require.Equal(t, []string{"I cannot help", "as an AI"}, phrases)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("should load a complete resource directory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, resources.CatalogFile, "Echo: echo4\n")
		writeFile(t, dir, resources.EndpointsFile, "providers:\n  Echo:\n    kind: echo\n  Main:\n    kind: openai\n    base_url: http://localhost:1337/v1\n    api_key_env: MAIN_KEY\n")
		writeFile(t, dir, resources.DenialsFile, "sorry\n")
		writeFile(t, dir, resources.PromptFile, "Check {submission} against {reference}")
		writeFile(t, dir, resources.SynthesisFile, "Summarize {report}")
		writeFile(t, dir, resources.RulesFile, "rules:\n  - id: \"148\"\n  - id: \"230\"\n    reference: refs/230.txt\n    prompt: special.txt\n")
		writeFile(t, dir, "references/148.txt", "Article 148 text")
		writeFile(t, dir, "refs/230.txt", "Article 230 text")
		writeFile(t, dir, "special.txt", "Special {submission}")

		b := resources.Load(ctx, dir)

		require.NoError(t, b.CatalogErr)
		require.Equal(t, []string{"Echo"}, b.Catalog.Names())
		require.NoError(t, b.EndpointsErr)
		require.Equal(t, "openai", b.Endpoints["Main"].Kind)
		require.Equal(t, "MAIN_KEY", b.Endpoints["Main"].APIKeyEnv)
		require.Equal(t, []string{"sorry"}, b.Denials)
		require.True(t, b.RuleTemplate.Usable())
		require.True(t, b.Synthesis.Usable())
		require.Empty(t, b.RulePromptError())

		require.Len(t, b.Rules, 2)
		require.Equal(t, "148", b.Rules[0].ID)
		require.Equal(t, "Article 148 text", b.Rules[0].Reference)
		require.Equal(t, "Check {submission} against {reference}", b.Rules[0].Template.Text)
		require.Equal(t, "230", b.Rules[1].ID)
		require.Equal(t, "Special {submission}", b.Rules[1].Template.Text)
		require.Equal(t, filepath.Join(dir, resources.QRCodeFile), b.QRCodePath)
	})

	t.Run("should degrade missing files to errors", func(t *testing.T) {
		dir := t.TempDir()

		b := resources.Load(ctx, dir)

		require.ErrorIs(t, b.CatalogErr, resources.ErrResourceMissing)
		require.Equal(t, 0, b.Catalog.Len())
		require.ErrorIs(t, b.DenialsErr, resources.ErrResourceMissing)
		require.ErrorIs(t, b.RuleTemplate.Err, resources.ErrResourceMissing)
		require.ErrorIs(t, b.Synthesis.Err, resources.ErrResourceMissing)
		require.ErrorIs(t, b.RulesErr, resources.ErrResourceMissing)
		require.NotNil(t, b.Endpoints)
		require.Contains(t, b.RulePromptError(), "Error:")
	})

	t.Run("should tag a rule whose reference is missing", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, resources.PromptFile, "{submission}")
		writeFile(t, dir, resources.RulesFile, "rules:\n  - id: \"148\"\n  - id: \"282\"\n")
		writeFile(t, dir, "references/148.txt", "text")

		b := resources.Load(ctx, dir)

		require.NoError(t, b.RulesErr)
		require.Len(t, b.Rules, 2)
		require.NoError(t, b.Rules[0].LoadErr)
		require.ErrorIs(t, b.Rules[1].LoadErr, resources.ErrResourceMissing)
	})

	t.Run("should reject duplicate rule ids", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, resources.RulesFile, "rules:\n  - id: a\n  - id: a\n")

		b := resources.Load(ctx, dir)

		require.Error(t, b.RulesErr)
		require.Contains(t, b.RulesErr.Error(), "duplicate")
	})
}
