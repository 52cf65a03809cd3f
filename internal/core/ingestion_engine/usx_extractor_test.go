package ingestion_engine

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type zipEntry struct {
	name, body string
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const genesisUSX = `<?xml version="1.0" encoding="utf-8"?>
<usx version="3.0">
  <book code="GEN" style="id">Genesis</book>
  <para style="h">Genesis</para>
  <para style="p">
    <verse number="1" style="v" sid="GEN 1:1"/>In the beginning <char style="w">God</char> created
  </para>
  <table><row><cell><para style="p">nested</para></cell></row></table>
</usx>`

const exodusUSX = `<usx version="3.0"><para style="p">Exodus</para></usx>`

func collectUSX(t *testing.T, doc string) []string {
	t.Helper()
	var got []string
	err := WalkUSX(strings.NewReader(doc), func(text string) error {
		got = append(got, text)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestWalkUSX_RootLevelParagraphsOnly(t *testing.T) {
	got := collectUSX(t, genesisUSX)
	assert.Equal(t, []string{"Genesis", "In the beginning", "God", "created"}, got)
}

func TestWalkUSX_TextRunsSpanCommentsAndCDATA(t *testing.T) {
	doc := "<usx><para>e<!-- c -->\u0301x</para><para>e<![CDATA[\u0301]]>y<?pi data?>z</para></usx>"
	assert.Equal(t, []string{"e\u0301x", "e\u0301yz"}, collectUSX(t, doc))
}

func TestWalkUSX_ElementsEndTextRuns(t *testing.T) {
	doc := `<usx><para>one<char style="w">two</char>three<verse number="1"/>four</para></usx>`
	assert.Equal(t, []string{"one", "two", "three", "four"}, collectUSX(t, doc))
}

func TestWalkUSX_Errors(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		err := WalkUSX(strings.NewReader("   "), func(string) error { return nil })
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("malformed", func(t *testing.T) {
		err := WalkUSX(strings.NewReader(`<usx><para>open`), func(string) error { return nil })
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("callback error stops the walk", func(t *testing.T) {
		stop := errors.New("stop")
		calls := 0
		err := WalkUSX(strings.NewReader(genesisUSX), func(string) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})
}

func TestWalkUSX_DeclaredCharset(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><usx><para>caf\xe9</para></usx>"
	assert.Equal(t, []string{"café"}, collectUSX(t, doc))
}

func TestWalkArchive_OrderAndSuffix(t *testing.T) {
	data := buildZip(t,
		zipEntry{"metadata.xml", `<DBLMetadata><para>ignored</para></DBLMetadata>`},
		zipEntry{"release/USX_1/GEN.usx", genesisUSX},
		zipEntry{"release/USX_1/EXO.usx", exodusUSX},
	)

	type hit struct{ entry, text string }
	var got []hit
	err := WalkArchive(data, DefaultSuffix, func(entry, text string) error {
		got = append(got, hit{entry, text})
		return nil
	}, nil)
	require.NoError(t, err)

	require.Len(t, got, 5)
	assert.Equal(t, hit{"release/USX_1/GEN.usx", "Genesis"}, got[0])
	assert.Equal(t, hit{"release/USX_1/EXO.usx", "Exodus"}, got[4])
}

func TestWalkArchive_Errors(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		err := WalkArchive([]byte("plain text"), DefaultSuffix, func(string, string) error { return nil }, nil)
		assert.Error(t, err)
	})

	t.Run("bad entry names the entry", func(t *testing.T) {
		data := buildZip(t, zipEntry{"GEN.usx", `<usx><para>`})
		err := WalkArchive(data, DefaultSuffix, func(string, string) error { return nil }, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GEN.usx")
	})
}

func drain(t *testing.T, e *ArchiveExtractor, data []byte, contentType string) ([]string, error) {
	t.Helper()
	g, ctx := errgroup.WithContext(context.Background())
	ch, err := e.ExtractText(ctx, g, data, contentType)
	require.NoError(t, err)

	var got []string
	for s := range ch {
		got = append(got, s)
	}
	return got, g.Wait()
}

func TestArchiveExtractor_Stream(t *testing.T) {
	e := NewArchiveExtractor("", nil)

	t.Run("bundle", func(t *testing.T) {
		data := buildZip(t, zipEntry{"a.usx", exodusUSX}, zipEntry{"b.usx", exodusUSX})
		got, err := drain(t, e, data, ContentTypeArchive)
		require.NoError(t, err)
		assert.Equal(t, []string{"Exodus", "Exodus"}, got)
	})

	t.Run("single usx", func(t *testing.T) {
		got, err := drain(t, e, []byte(exodusUSX), ContentTypeUSX)
		require.NoError(t, err)
		assert.Equal(t, []string{"Exodus"}, got)
	})

	t.Run("custom suffix", func(t *testing.T) {
		data := buildZip(t, zipEntry{"a.usx", exodusUSX}, zipEntry{"b.xml", `<usx><para>xml</para></usx>`})
		got, err := drain(t, NewArchiveExtractor(".xml", nil), data, ContentTypeArchive)
		require.NoError(t, err)
		assert.Equal(t, []string{"xml"}, got)
	})

	t.Run("broken bundle", func(t *testing.T) {
		_, err := drain(t, e, []byte("nope"), ContentTypeArchive)
		assert.Error(t, err)
	})
}
