package state

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/exmirror/gallerysync/model"
)

var (
	bucketGalleries = []byte("galleries")
	bucketTitles    = []byte("titles")
	bucketImages    = []byte("images")
)

// BoltStore implements Store on top of an embedded bbolt database. Every
// update commits its own transaction, so a crash between galleries loses at
// most the in-flight items.
type BoltStore struct {
	db *bolt.DB
}

// Open opens (or creates) the store file at path.
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketGalleries, bucketTitles, bucketImages} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	log.Debug().Str("path", path).Msg("store opened")
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) GetGallery(url string) (*model.GalleryRecord, error) {
	var rec *model.GalleryRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketGalleries).Get([]byte(url))
		if raw == nil {
			return ErrNotFound
		}
		rec = new(model.GalleryRecord)
		return json.Unmarshal(raw, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *BoltStore) GetGalleryByTitle(title string) (*model.GalleryRecord, error) {
	var rec *model.GalleryRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		url := tx.Bucket(bucketTitles).Get([]byte(title))
		if url == nil {
			return ErrNotFound
		}
		raw := tx.Bucket(bucketGalleries).Get(url)
		if raw == nil {
			return ErrNotFound
		}
		rec = new(model.GalleryRecord)
		return json.Unmarshal(raw, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *BoltStore) PutGallery(rec *model.GalleryRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketGalleries).Put([]byte(rec.URL), raw); err != nil {
			return err
		}
		return tx.Bucket(bucketTitles).Put([]byte(rec.Title), []byte(rec.URL))
	})
}

func (s *BoltStore) HasGallery(url string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketGalleries).Get([]byte(url)) != nil
		return nil
	})
	return found, err
}

func (s *BoltStore) GetImageURL(pageRef string) (string, bool, error) {
	var hosted string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketImages).Get([]byte(pageRef))
		if raw != nil {
			hosted = string(raw)
			found = true
		}
		return nil
	})
	return hosted, found, err
}

func (s *BoltStore) PutImageURL(pageRef, hostedURL string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketImages).Put([]byte(pageRef), []byte(hostedURL))
	})
}

// dumpFormat is the portable structured-text layout used by Dump and Load.
type dumpFormat struct {
	Galleries map[string]model.GalleryRecord `json:"galleries"`
	Images    map[string]string              `json:"images"`
}

func (s *BoltStore) Dump(w io.Writer) error {
	out := dumpFormat{
		Galleries: make(map[string]model.GalleryRecord),
		Images:    make(map[string]string),
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		err := tx.Bucket(bucketGalleries).ForEach(func(k, v []byte) error {
			var rec model.GalleryRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt record for %s: %w", k, err)
			}
			out.Galleries[string(k)] = rec
			return nil
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketImages).ForEach(func(k, v []byte) error {
			out.Images[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (s *BoltStore) Load(r io.Reader) error {
	var in dumpFormat
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return fmt.Errorf("failed to decode dump: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		galleries := tx.Bucket(bucketGalleries)
		titles := tx.Bucket(bucketTitles)
		for url, rec := range in.Galleries {
			rec.URL = url
			raw, err := json.Marshal(&rec)
			if err != nil {
				return err
			}
			if err := galleries.Put([]byte(url), raw); err != nil {
				return err
			}
			if err := titles.Put([]byte(rec.Title), []byte(url)); err != nil {
				return err
			}
		}
		images := tx.Bucket(bucketImages)
		for ref, hosted := range in.Images {
			if err := images.Put([]byte(ref), []byte(hosted)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Flush() error {
	return s.db.Sync()
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
