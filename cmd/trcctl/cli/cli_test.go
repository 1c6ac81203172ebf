package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trc-platform/trc/cmd/trcctl/cli" //nolint:revive
	"github.com/trc-platform/trc/config"
	"github.com/trc-platform/trc/entries/work"
	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/platform"
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/search"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sharedPlatform hands the same in-memory collection to every command run.
func sharedPlatform(t *testing.T, options ...platform.Option) (*platform.Platform, Opener) {
	conf := config.Default()

	p, err := platform.Open(context.Background(), conf, append(options, platform.WithMemoryStores())...)
	require.NoError(t, err, "error in test setup")

	return p, func(context.Context, config.Config, ...platform.Option) (*platform.Platform, error) {
		return p, nil
	}
}

func memoryOpener(ctx context.Context, conf config.Config, options ...platform.Option) (*platform.Platform, error) {
	return platform.Open(ctx, conf, append(options, platform.WithMemoryStores())...)
}

func givenWork(t *testing.T, p *platform.Platform, title string) repository.Document[work.Work] {
	editor, err := p.Works.Create()
	require.NoError(t, err)
	require.NoError(t, editor.AddTitle(work.Title{Type: work.TitleCanonical, Title: title}))

	doc, err := editor.Execute(context.Background())
	require.NoError(t, err, "error in arranging test data")

	return doc
}

func run(open Opener, args ...string) (string, error) {
	out, _, err := runWithStderr(open, args...)

	return out, err
}

func runWithStderr(open Opener, args ...string) (string, string, error) {
	cmd := NewRootCmd(open)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), errOut.String(), err
}

func Test_Version(t *testing.T) {
	out, err := run(memoryOpener, "version")

	require.NoError(t, err)
	assert.Equal(t, "trcctl v"+Version+"\n", out)
}

func Test_Get_PrintsEntry(t *testing.T) {
	// setup
	p, open := sharedPlatform(t)

	// arrange
	doc := givenWork(t, p, "Middlemarch")

	// act
	out, err := run(open, "get", work.EntryType, doc.ID)

	// assert
	require.NoError(t, err)

	var printed platform.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	assert.Equal(t, doc.ID, printed.ID)
	assert.Equal(t, work.EntryType, printed.Type)
	assert.Equal(t, uint(1), printed.Version)
	assert.Equal(t, entry.NewID(work.EntryType, doc.ID).Token(), printed.Token)
}

func Test_Get_When_EntryTypeIsUnknown(t *testing.T) {
	_, open := sharedPlatform(t)

	_, err := run(open, "get", "letter", "l1")

	assert.ErrorIs(t, err, platform.ErrUnknownEntryType)
}

func Test_List_PagesEntries(t *testing.T) {
	// setup
	p, open := sharedPlatform(t)

	// arrange
	givenWork(t, p, "Middlemarch")
	romola := givenWork(t, p, "Romola")

	// act
	out, err := run(open, "list", work.EntryType, "--limit", "1", "--offset", "1")

	// assert
	require.NoError(t, err)

	var printed []platform.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	require.Len(t, printed, 1)
	assert.Equal(t, romola.ID, printed[0].ID)
}

func Test_Resolve_AcceptsTokensAndURIs(t *testing.T) {
	// setup
	p, open := sharedPlatform(t)

	// arrange
	doc := givenWork(t, p, "Middlemarch")
	id := entry.NewID(work.EntryType, doc.ID)
	uri, err := p.Registry().URIOf(id)
	require.NoError(t, err)

	for _, ref := range []string{id.Token(), uri} {
		// act
		out, err := run(open, "resolve", ref)

		// assert
		require.NoError(t, err)

		var printed platform.Entry
		require.NoError(t, json.Unmarshal([]byte(out), &printed))
		assert.Equal(t, doc.ID, printed.ID, ref)
	}
}

func Test_Resolve_When_TokenIsMalformed(t *testing.T) {
	_, open := sharedPlatform(t)

	_, err := run(open, "resolve", "%%%")

	assert.ErrorIs(t, err, entry.ErrInvalidToken)
}

func Test_Delete_RemovesEntry(t *testing.T) {
	// setup
	p, open := sharedPlatform(t)

	// arrange
	doc := givenWork(t, p, "Middlemarch")

	// act
	out, err := run(open, "delete", work.EntryType, doc.ID)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "deleted work:"+doc.ID+"\n", out)

	_, err = run(open, "get", work.EntryType, doc.ID)
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}

// discardIndexer accepts every document.
type discardIndexer struct{}

func (discardIndexer) Index(context.Context, string, []search.Document) error { return nil }
func (discardIndexer) Delete(context.Context, string, []string) error        { return nil }

func Test_Reindex_PrintsCountsPerType(t *testing.T) {
	// setup
	p, open := sharedPlatform(t, platform.WithIndexer(discardIndexer{}))

	// arrange
	givenWork(t, p, "Middlemarch")

	// act
	out, err := run(open, "reindex", work.EntryType)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "work: 1\n", out)
}

func Test_Reindex_When_SearchIsDisabled(t *testing.T) {
	// setup
	p, open := sharedPlatform(t)

	// arrange
	givenWork(t, p, "Middlemarch")

	// act
	out, err := run(open, "reindex")

	// assert
	assert.ErrorIs(t, err, platform.ErrSearchDisabled)
	assert.Empty(t, out)
}

func Test_Search_When_SolrIsNotConfigured(t *testing.T) {
	_, open := sharedPlatform(t)

	_, err := run(open, "search", work.EntryType, "title:middlemarch")

	assert.ErrorIs(t, err, platform.ErrSearchDisabled)
}

func Test_Migrate_IsANoOpForMemoryStores(t *testing.T) {
	out, err := run(memoryOpener, "migrate")

	require.NoError(t, err)
	assert.Equal(t, "created schemas for 6 entry types\n", out)
}

func Test_MetricsTextfile_IsWrittenAfterCommand(t *testing.T) {
	// setup
	path := filepath.Join(t.TempDir(), "trcctl.prom")

	// act
	_, err := run(memoryOpener, "list", work.EntryType, "--metrics-textfile", path)

	// assert
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "trc_"+repository.MetricOperationsTotal)
}

func Test_Config_When_LogLevelIsInvalid(t *testing.T) {
	_, err := run(memoryOpener, "version", "--log-level", "verbose")

	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func Test_MetricsTextfile_When_BackendIsOTel(t *testing.T) {
	// setup
	path := filepath.Join(t.TempDir(), "trcctl.prom")

	// act
	_, err := run(memoryOpener, "list", work.EntryType, "--metrics-backend", "otel", "--metrics-textfile", path)

	// assert
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), repository.MetricOperationsTotal)
}

func Test_Config_When_MetricsBackendIsUnknown(t *testing.T) {
	_, err := run(memoryOpener, "version", "--metrics-backend", "statsd")

	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func Test_Config_When_LogFormatIsUnknown(t *testing.T) {
	_, err := run(memoryOpener, "version", "--log-format", "logfmt")

	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func Test_LogFormat_JSON_WritesLogLines(t *testing.T) {
	// act
	_, stderr, err := runWithStderr(memoryOpener, "list", work.EntryType, "--log-format", "json")

	// assert
	require.NoError(t, err)
	assert.Contains(t, stderr, `"level":"INFO"`)
	assert.Contains(t, stderr, `"msg":"collection opened"`)
}

func Test_Tracing_ExportsCommandAndRepositorySpans(t *testing.T) {
	// act
	_, stderr, err := runWithStderr(memoryOpener, "list", work.EntryType, "--tracing", "--log-format", "json")

	// assert
	require.NoError(t, err)
	assert.Contains(t, stderr, "trcctl list")
	assert.Contains(t, stderr, "repository.list")
}

func Test_Tracing_When_Disabled(t *testing.T) {
	// act
	_, stderr, err := runWithStderr(memoryOpener, "list", work.EntryType, "--log-format", "json")

	// assert
	require.NoError(t, err)
	assert.NotContains(t, stderr, "repository.list")
}
