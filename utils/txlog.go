package utils

import (
	"fmt"
	"os"
	"sync"

	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

const txHashBuffer = 1024

// TxHashWriter appends broadcast transaction hashes to a file from a
// background goroutine so the send loop never blocks on disk.
type TxHashWriter struct {
	ch     chan string
	file   *os.File
	wg     sync.WaitGroup
	closed sync.Once
}

// NewTxHashWriter opens path for appending and starts the writer goroutine
func NewTxHashWriter(path string) (*TxHashWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open tx hash file: %w", err)
	}

	w := &TxHashWriter{
		ch:   make(chan string, txHashBuffer),
		file: f,
	}
	log.Info("📝 TxHash writer enabled", "path", path)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for hash := range w.ch {
			if _, err := w.file.WriteString(hash + "\n"); err != nil {
				log.Warn("⚠️  Failed to write tx hash", "err", err)
			}
		}
	}()
	return w, nil
}

// Record queues hash for writing; it drops the hash when the buffer is full
func (w *TxHashWriter) Record(hash ethcmn.Hash) {
	if w == nil {
		return
	}
	select {
	case w.ch <- hash.Hex():
	default:
		log.Warn("⚠️  TxHash channel full, dropping hash", "hash", hash)
	}
}

// Close drains pending hashes and closes the file
func (w *TxHashWriter) Close() error {
	if w == nil {
		return nil
	}
	var err error
	w.closed.Do(func() {
		close(w.ch)
		w.wg.Wait()
		err = w.file.Close()
	})
	return err
}
