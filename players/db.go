package players

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	xdr "github.com/nullstyle/go-xdr/xdr3"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	playerPrefix  = []byte("player/")
	historyPrefix = []byte("history/")
	checkpointKey = []byte("checkpoint")
)

type playerRecord struct {
	Username     string
	PasswordHash []byte
	URL          string
	Cash         float64
	Online       bool
}

type historyRecord struct {
	Tick uint64
	Cash float64
}

type database struct {
	db *leveldb.DB
}

func newDatabase(dbPath string) (*database, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database @ %s: %w", dbPath, err)
	}
	return &database{db}, nil
}

func (db *database) Close() error {
	return db.db.Close()
}

func playerKey(username string) []byte {
	return append(append([]byte{}, playerPrefix...), username...)
}

// historyKey sorts history points of a player by tick.
func historyKey(username string, tick uint) []byte {
	key := make([]byte, 0, len(historyPrefix)+len(username)+9)
	key = append(key, historyPrefix...)
	key = append(key, username...)
	key = append(key, '/')
	return binary.BigEndian.AppendUint64(key, uint64(tick))
}

func (db *database) SavePlayer(rec playerRecord) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	if err := db.db.Put(playerKey(rec.Username), data, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("storing player %s: %w", rec.Username, err)
	}
	return nil
}

// SaveCheckpoint writes the players, one history point each, and the tick
// in a single batch.
func (db *database) SaveCheckpoint(tick uint, records []playerRecord) error {
	batch := new(leveldb.Batch)
	for _, rec := range records {
		data, err := encode(rec)
		if err != nil {
			return err
		}
		batch.Put(playerKey(rec.Username), data)

		point, err := encode(historyRecord{Tick: uint64(tick), Cash: rec.Cash})
		if err != nil {
			return err
		}
		batch.Put(historyKey(rec.Username, tick), point)
	}
	batch.Put(checkpointKey, binary.BigEndian.AppendUint64(nil, uint64(tick)))

	if err := db.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("writing checkpoint %d: %w", tick, err)
	}
	return nil
}

func (db *database) Players() ([]playerRecord, error) {
	iter := db.db.NewIterator(util.BytesPrefix(playerPrefix), nil)
	defer iter.Release()

	var records []playerRecord
	for iter.Next() {
		var rec playerRecord
		if err := decode(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("player %q: %w", iter.Key(), err)
		}
		records = append(records, rec)
	}
	return records, iter.Error()
}

// Histories returns the history points of every player, ordered by tick.
func (db *database) Histories() (map[string][]Point, error) {
	iter := db.db.NewIterator(util.BytesPrefix(historyPrefix), nil)
	defer iter.Release()

	histories := make(map[string][]Point)
	for iter.Next() {
		// The key ends with '/' and the 8 bytes of the tick.
		key := bytes.TrimPrefix(iter.Key(), historyPrefix)
		if len(key) < 10 || key[len(key)-9] != '/' {
			return nil, fmt.Errorf("malformed history key %q", iter.Key())
		}
		var rec historyRecord
		if err := decode(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("history %q: %w", iter.Key(), err)
		}
		username := string(key[:len(key)-9])
		histories[username] = append(histories[username], Point{Tick: uint(rec.Tick), Cash: rec.Cash})
	}
	return histories, iter.Error()
}

func (db *database) LastCheckpoint() (uint, error) {
	data, err := db.db.Get(checkpointKey, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("getting last checkpoint: %w", err)
	case len(data) != 8:
		return 0, fmt.Errorf("malformed checkpoint: %x", data)
	}
	return uint(binary.BigEndian.Uint64(data)), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, v); err != nil {
		return nil, fmt.Errorf("serialization failure: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	if _, err := xdr.Unmarshal(bytes.NewReader(data), v); err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}
	return nil
}
