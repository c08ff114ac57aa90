package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/boltdb/bolt"
)

// BoltStore persists dispatch Records to a Bolt database file.
type BoltStore struct {
	db *bolt.DB

	dbFile string

	bucketName string
}

func NewBoltStore(file string, mode os.FileMode, bucketName string) (*BoltStore, error) {
	db, err := bolt.Open(file, mode, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v: %w", file, err)
	}

	store := BoltStore{
		db:         db,
		dbFile:     file,
		bucketName: bucketName,
	}

	if err := store.createBucket(); err != nil {
		log.Printf("[audit] bucket %s already exists, reusing it", bucketName)
	}

	return &store, nil
}

func (s *BoltStore) Put(record *Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(s.bucketName))

		buf, err := json.Marshal(record)
		if err != nil {
			return err
		}

		return bucket.Put([]byte(record.Id), buf)
	})
}

func (s *BoltStore) Get(id Id) (*Record, error) {
	var record Record

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(s.bucketName))

		value := bucket.Get([]byte(id))
		if value == nil {
			return fmt.Errorf("dispatch record %v not found", id)
		}

		return json.Unmarshal(value, &record)
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (s *BoltStore) List() ([]*Record, error) {
	var records []*Record

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(s.bucketName))

		return bucket.ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (s *BoltStore) createBucket() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucket([]byte(s.bucketName))
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucketName, err)
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
