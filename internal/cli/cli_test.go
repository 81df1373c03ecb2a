package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"todo-web/internal/models"
	"todo-web/internal/persistence"
	"todo-web/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, dir string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--backend", "file", "--data-dir", dir}, args...)
	code := Execute(full, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func persisted(t *testing.T, dir string) []models.TodoItem {
	t.Helper()
	blobs, err := storage.NewFileStorage(dir)
	require.NoError(t, err)
	data, err := blobs.Load(persistence.DefaultKey)
	require.NoError(t, err)
	items, err := persistence.Decode(data)
	require.NoError(t, err)
	return items
}

func TestList(t *testing.T) {
	t.Run("shows the seed items", func(t *testing.T) {
		res := run(t, t.TempDir(), "ls")

		assert.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, "Todos (1/2 done)")
		assert.Contains(t, res.stdout, "☑ 1  Ditch redux")
		assert.Contains(t, res.stdout, "☐ 2  Learn MobX")
	})

	t.Run("hints when empty", func(t *testing.T) {
		dir := t.TempDir()
		require.Equal(t, 0, run(t, dir, "rm", "1").code)
		require.Equal(t, 0, run(t, dir, "rm", "2").code)

		res := run(t, dir, "ls")
		assert.Contains(t, res.stdout, "Please add some todos")
	})

	t.Run("listing does not write", func(t *testing.T) {
		dir := t.TempDir()
		run(t, dir, "ls")

		_, err := os.Stat(filepath.Join(dir, persistence.DefaultKey+".blob"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestAdd(t *testing.T) {
	dir := t.TempDir()

	res := run(t, dir, "add", "buy", "milk")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, `Added "buy milk"`)

	items := persisted(t, dir)
	require.Len(t, items, 3)
	assert.Equal(t, "buy milk", items[2].Content)
	assert.False(t, items[2].Done)

	res = run(t, dir, "ls")
	assert.Contains(t, res.stdout, "buy milk")
}

func TestAddBlank(t *testing.T) {
	dir := t.TempDir()

	res := run(t, dir, "add", "  ")

	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, ErrBlankContent.Error())
}

func TestDone(t *testing.T) {
	dir := t.TempDir()

	res := run(t, dir, "done", "2")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, `Marked "Learn MobX" done`)
	assert.True(t, persisted(t, dir)[1].Done)

	res = run(t, dir, "done", "2")
	assert.Contains(t, res.stdout, `Marked "Learn MobX" not done`)
	assert.False(t, persisted(t, dir)[1].Done)
}

func TestDoneErrors(t *testing.T) {
	dir := t.TempDir()

	res := run(t, dir, "done", "99")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "no such todo: id 99")

	res = run(t, dir, "done", "abc")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `invalid todo id "abc"`)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()

	res := run(t, dir, "rm", "1")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, `Removed "Ditch redux"`)
	assert.Equal(t, []models.TodoItem{{ID: 2, Content: "Learn MobX"}}, persisted(t, dir))

	res = run(t, dir, "rm", "1")
	assert.Equal(t, 0, res.code, "removing an unknown id is not an error")
	assert.Contains(t, res.stdout, "Nothing to remove for id 1")
}

func TestEdit(t *testing.T) {
	dir := t.TempDir()

	res := run(t, dir, "edit", "2", "Learn", "Go")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, `Changed "Learn MobX" to "Learn Go"`)

	items := persisted(t, dir)
	require.Len(t, items, 2)
	assert.Equal(t, models.TodoItem{ID: 2, Content: "Learn Go"}, items[1])

	res = run(t, dir, "edit", "7", "nope")
	assert.Equal(t, 1, res.code)
}

func TestCustomKey(t *testing.T) {
	dir := t.TempDir()

	require.Equal(t, 0, run(t, dir, "--key", "work", "add", "ship it").code)

	_, err := os.Stat(filepath.Join(dir, "work.blob"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, persistence.DefaultKey+".blob"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSQLBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")
	var stdout, stderr bytes.Buffer

	code := Execute([]string{"--backend", "sql", "--sqlite-path", path, "add", "in sqlite"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	stdout.Reset()
	code = Execute([]string{"--backend", "sql", "--sqlite-path", path, "ls"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "in sqlite")
}

func TestUnknownBackend(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := Execute([]string{"--backend", "s3", "ls"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), `unsupported backend "s3"`)
}
