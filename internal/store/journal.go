package store

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/wal"
)

// journal is an append-only mutation log backing one record store. Records
// are JSON snapshots of rows after each committed mutation; replaying the
// journal in order rebuilds the store.
type journal struct {
	log     *wal.Log
	nextIdx uint64
}

func openJournal(dir string) (*journal, error) {
	log, err := wal.Open(dir, wal.DefaultOptions)
	if err != nil {
		return nil, fmt.Errorf("wal.Open: %w", err)
	}
	last, err := log.LastIndex()
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("wal.LastIndex: %w", err)
	}
	return &journal{log: log, nextIdx: last + 1}, nil
}

// append writes one record. The caller holds the store lock, so indexes are
// assigned without further synchronization.
func (j *journal) append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := j.log.Write(j.nextIdx, data); err != nil {
		return fmt.Errorf("wal.Write(%d): %w", j.nextIdx, err)
	}
	j.nextIdx++
	return nil
}

// replay feeds every stored record to fn in append order.
func (j *journal) replay(fn func(data []byte) error) error {
	empty, err := j.log.IsEmpty()
	if err != nil {
		return fmt.Errorf("wal.IsEmpty: %w", err)
	}
	if empty {
		return nil
	}

	first, err := j.log.FirstIndex()
	if err != nil {
		return fmt.Errorf("wal.FirstIndex: %w", err)
	}
	last, err := j.log.LastIndex()
	if err != nil {
		return fmt.Errorf("wal.LastIndex: %w", err)
	}

	for idx := first; idx <= last; idx++ {
		data, err := j.log.Read(idx)
		if err != nil {
			return fmt.Errorf("wal.Read(%d): %w", idx, err)
		}
		if err := fn(data); err != nil {
			return fmt.Errorf("replay record %d: %w", idx, err)
		}
	}
	return nil
}

func (j *journal) Close() error {
	return j.log.Close()
}

func unmarshalRecord(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	return nil
}
