package wal

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Seq  int    `json:"seq"`
	Note string `json:"note"`
}

func replayAll(t *testing.T, w *WAL) []entry {
	t.Helper()
	var out []entry
	require.NoError(t, w.Replay(func(raw json.RawMessage) error {
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	}))
	return out
}

func TestWAL_AppendReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	w, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, w.Append(entry{Seq: 1, Note: "a"}))
	require.NoError(t, w.Append(entry{Seq: 2, Note: "b"}))
	require.NoError(t, w.Close())

	w, err = Open(path)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []entry{{1, "a"}, {2, "b"}}, replayAll(t, w))
}

func TestWAL_TruncatesTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(entry{Seq: 1, Note: "a"}))
	require.NoError(t, w.Close())

	// 模擬寫到一半當機
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, FileModeDefault)
	require.NoError(t, err)
	_, err = f.WriteString(`{"seq":2,"no`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w, err = Open(path)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []entry{{1, "a"}}, replayAll(t, w))

	// 截斷後可以繼續追加
	require.NoError(t, w.Append(entry{Seq: 2, Note: "b"}))
	assert.Equal(t, []entry{{1, "a"}, {2, "b"}}, replayAll(t, w))
}

func TestWAL_CallbackErrorStopsReplay(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Append(entry{Seq: 1}))
	require.NoError(t, w.Append(entry{Seq: 2}))

	stop := errors.New("stop")
	calls := 0
	err = w.Replay(func(json.RawMessage) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestWAL_AppendAfterClose(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "wal.log"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Error(t, w.Append(entry{Seq: 1}))
}

// flakyFile 寫入只寫一半或 Sync 失敗的檔案
type flakyFile struct {
	*os.File
	shortWrite bool
	failSync   bool
}

func (f *flakyFile) Write(p []byte) (int, error) {
	if f.shortWrite {
		n, _ := f.File.Write(p[:len(p)/2])
		return n, errors.New("no space left on device")
	}
	return f.File.Write(p)
}

func (f *flakyFile) Sync() error {
	if f.failSync {
		return errors.New("sync failed")
	}
	return f.File.Sync()
}

func openFlaky(t *testing.T) (*WAL, *flakyFile, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wal.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModeDefault)
	require.NoError(t, err)
	ff := &flakyFile{File: f}
	return &WAL{file: ff}, ff, path
}

func TestWAL_ShortWriteIsRolledBack(t *testing.T) {
	w, ff, path := openFlaky(t)
	require.NoError(t, w.Append(entry{Seq: 1, Note: "a"}))

	ff.shortWrite = true
	require.Error(t, w.Append(entry{Seq: 2, Note: "lost"}))

	// 下一筆成功的紀錄不可接在殘留的半筆後面
	ff.shortWrite = false
	require.NoError(t, w.Append(entry{Seq: 3, Note: "c"}))
	require.NoError(t, w.Close())

	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, []entry{{1, "a"}, {3, "c"}}, replayAll(t, w))
}

func TestWAL_FailedSyncIsRolledBack(t *testing.T) {
	w, ff, path := openFlaky(t)
	require.NoError(t, w.Append(entry{Seq: 1, Note: "a"}))

	ff.failSync = true
	require.Error(t, w.Append(entry{Seq: 2, Note: "rejected"}))
	ff.failSync = false
	require.NoError(t, w.Close())

	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, []entry{{1, "a"}}, replayAll(t, w))
}
