package fs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arctir/vkernel/internal/kresult"
	"github.com/arctir/vkernel/internal/memory"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	return New(memory.New(1 << 20))
}

func TestEndToEndFileLifecycle(t *testing.T) {
	tr := newTestTree(t)
	require.Equal(t, kresult.OK, tr.CreateFile("story.txt"))
	require.Equal(t, kresult.OK, tr.WriteFile("story.txt", "Chapter 1"))
	require.Equal(t, kresult.OK, tr.EditFile("story.txt", "\nChapter 2"))
	require.Equal(t, kresult.OK, tr.CopyFile("story.txt", "copy.txt"))
	require.Equal(t, kresult.OK, tr.MoveFile("copy.txt", "final.txt"))
	require.Equal(t, kresult.OK, tr.DeleteFile("story.txt"))
	require.True(t, tr.FileExists("final.txt"))

	body, res := tr.ReadFile("final.txt")
	require.Equal(t, kresult.OK, res)
	require.Equal(t, "Chapter 1\nChapter 2\n", body)
}

func TestWriteThenReadRoundTripsWithTrailingNewline(t *testing.T) {
	tr := newTestTree(t)
	require.Equal(t, kresult.OK, tr.CreateFile("a.txt"))
	require.Equal(t, kresult.OK, tr.WriteFile("a.txt", "hello"))
	body, res := tr.ReadFile("a.txt")
	require.Equal(t, kresult.OK, res)
	require.Equal(t, "hello\n", body)
}

func TestCopyThenDeleteObservationallyEqualsMove(t *testing.T) {
	a := newTestTree(t)
	b := newTestTree(t)
	require.Equal(t, kresult.OK, a.CreateFile("src.txt"))
	require.Equal(t, kresult.OK, a.WriteFile("src.txt", "payload"))
	require.Equal(t, kresult.OK, b.CreateFile("src.txt"))
	require.Equal(t, kresult.OK, b.WriteFile("src.txt", "payload"))

	require.Equal(t, kresult.OK, a.CopyFile("src.txt", "dst.txt"))
	require.Equal(t, kresult.OK, a.DeleteFile("src.txt"))
	require.Equal(t, kresult.OK, b.MoveFile("src.txt", "dst.txt"))

	aBody, _ := a.ReadFile("dst.txt")
	bBody, _ := b.ReadFile("dst.txt")
	require.Equal(t, bBody, aBody)
	require.False(t, a.FileExists("src.txt"))
	require.False(t, b.FileExists("src.txt"))
}

func TestCreateDeleteThenExistsIsNotFound(t *testing.T) {
	tr := newTestTree(t)
	require.Equal(t, kresult.OK, tr.CreateFile("f.txt"))
	require.Equal(t, kresult.OK, tr.DeleteFile("f.txt"))
	require.False(t, tr.FileExists("f.txt"))
}

func TestCreateFileCollisionIsAlreadyExists(t *testing.T) {
	tr := newTestTree(t)
	require.Equal(t, kresult.OK, tr.CreateFile("f.txt"))
	require.Equal(t, kresult.AlreadyExists, tr.CreateFile("f.txt"))
}

func TestChangeDirPastRootReturnsAtRootAndDoesNotMutateCursor(t *testing.T) {
	tr := newTestTree(t)
	before := tr.GetWorkingDir()
	require.Equal(t, kresult.AtRoot, tr.ChangeDir(".."))
	require.Equal(t, before, tr.GetWorkingDir())
}

func TestMoveDirIntoDescendantIsRejectedAndTreeUnchanged(t *testing.T) {
	tr := newTestTree(t)
	require.Equal(t, kresult.OK, tr.MakeDir("a"))
	require.Equal(t, kresult.OK, tr.MakeDir("a/b"))

	before, res := tr.ListDir("a")
	require.Equal(t, kresult.OK, res)

	require.Equal(t, kresult.InvalidArgument, tr.MoveDir("a", "a/b/c"))

	after, res := tr.ListDir("a")
	require.Equal(t, kresult.OK, res)
	require.Equal(t, before, after)
}

func TestRemoveDirResetsCursorWhenInsideRemovedSubtree(t *testing.T) {
	tr := newTestTree(t)
	require.Equal(t, kresult.OK, tr.MakeDir("a"))
	require.Equal(t, kresult.OK, tr.MakeDir("a/b"))
	require.Equal(t, kresult.OK, tr.ChangeDir("a/b"))
	require.Equal(t, kresult.OK, tr.RemoveDir("/a"))
	require.Equal(t, "/", tr.GetWorkingDir())
}

func TestListDirOrdersDirsBeforeFilesInInsertionOrder(t *testing.T) {
	tr := newTestTree(t)
	require.Equal(t, kresult.OK, tr.CreateFile("z.txt"))
	require.Equal(t, kresult.OK, tr.MakeDir("sub"))
	require.Equal(t, kresult.OK, tr.CreateFile("a.txt"))

	entries, res := tr.ListDir(".")
	require.Equal(t, kresult.OK, res)
	require.Len(t, entries, 3)
	require.True(t, entries[0].IsDir)
	require.Equal(t, "sub", entries[0].Name)
	require.Equal(t, "z.txt", entries[1].Name)
	require.Equal(t, "a.txt", entries[2].Name)
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	defer os.RemoveAll(dir)
	store, err := OpenStore(dir)
	require.NoError(t, err)
	defer store.Close()

	tr := newTestTree(t)
	require.Equal(t, kresult.OK, tr.MakeDir("docs"))
	require.Equal(t, kresult.OK, tr.CreateFile("docs/readme.txt"))
	require.Equal(t, kresult.OK, tr.WriteFile("docs/readme.txt", "hello world"))

	require.Equal(t, kresult.OK, tr.SaveToDisk(store, "snap1"))

	tr2 := newTestTree(t)
	require.Equal(t, kresult.OK, tr2.LoadFromDisk(store, "snap1"))

	body, res := tr2.ReadFile("docs/readme.txt")
	require.Equal(t, kresult.OK, res)
	require.Equal(t, "hello world\n", body)

	names := ListDataFiles(store)
	require.Contains(t, names, "snap1")
}

func TestResolvePathsWithDotDotAndRepeatedSlashes(t *testing.T) {
	tr := newTestTree(t)
	require.Equal(t, kresult.OK, tr.MakeDir("a"))
	require.Equal(t, kresult.OK, tr.MakeDir("a/b"))
	require.Equal(t, kresult.OK, tr.ChangeDir("a/b"))
	require.Equal(t, kresult.OK, tr.CreateFile("../../top.txt"))
	require.True(t, tr.FileExists("//a//..//top.txt"))
}
