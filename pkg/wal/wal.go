package wal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// rw-r--r-- (擁有者讀寫，其他人唯讀)
const FileModeDefault fs.FileMode = 0644

// file WAL 需要的檔案操作 (*os.File 即符合)
type file interface {
	io.ReadWriteSeeker
	io.Closer
	Sync() error
	Truncate(size int64) error
	Stat() (fs.FileInfo, error)
}

// WAL 以 JSON Lines 格式追加寫入的 Write-Ahead Log
type WAL struct {
	file   file
	mu     sync.Mutex
	// 寫入失敗且無法回滾時設定，之後的 Append 一律拒絕
	broken error
}

// Open 開啟或建立一個 WAL 檔案
// O_RDWR讀寫模式
// O_APPEND 每次寫入時自動跳到文件末尾
// O_CREATE 如果文件不存在則建立
func Open(path string) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModeDefault)
	if err != nil {
		return nil, fmt.Errorf("open wal %s: %w", path, err)
	}
	return &WAL{file: f}, nil
}

// Append 寫入一筆資料並刷入硬碟，回傳 nil 才代表資料已落地
//
// 寫入或 Sync 失敗時會把檔案截回寫入前的大小，
// 失敗的紀錄不會在重播時出現，也不會汙染下一筆紀錄。
func (w *WAL) Append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode wal record: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.broken != nil {
		return fmt.Errorf("wal unusable: %w", w.broken)
	}

	info, err := w.file.Stat()
	if err != nil {
		return fmt.Errorf("stat wal: %w", err)
	}
	size := info.Size()

	if _, err := w.file.Write(data); err != nil {
		return w.rollback(size, fmt.Errorf("write wal record: %w", err))
	}
	if err := w.file.Sync(); err != nil {
		return w.rollback(size, fmt.Errorf("sync wal: %w", err))
	}
	return nil
}

// rollback 截回 size，截斷本身失敗時標記 WAL 不可再寫入
func (w *WAL) rollback(size int64, cause error) error {
	if err := w.file.Truncate(size); err != nil {
		w.broken = errors.Join(cause, fmt.Errorf("truncate wal: %w", err))
		return w.broken
	}
	return cause
}

// Close 關閉檔案
func (w *WAL) Close() error {
	return w.file.Close()
}

// Replay 從頭依序讀取每筆資料交給 callback
//
// 檔尾若有寫到一半的紀錄 (當機)，會截斷到最後一筆完整紀錄後結束。
func (w *WAL) Replay(callback func(raw json.RawMessage) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// 確保從頭讀取
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(w.file)
	var good int64
	for {
		var raw json.RawMessage
		err := decoder.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return w.file.Truncate(good)
		}
		if err != nil {
			return fmt.Errorf("decode wal record at offset %d: %w", good, err)
		}
		if err := callback(raw); err != nil {
			return err
		}
		good = decoder.InputOffset()
	}
}
