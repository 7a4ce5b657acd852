package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/snooze/internal/config"
	"github.com/pders01/snooze/internal/hackorsnooze"
	"github.com/pders01/snooze/internal/validation"
)

var (
	credentialsBucket = []byte("credentials")
	storiesBucket     = []byte("stories")
	metaBucket        = []byte("metadata")

	currentKey   = []byte("current")
	fetchedAtKey = []byte("stories_fetched_at")
)

// ErrNoCredentials is returned when nobody is logged in.
var ErrNoCredentials = errors.New("no stored credentials")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return open(dbPath, 1*time.Second)
}

// Open prepares the configured database path and opens it.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	path, err := validation.PrepareDataFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	return open(path, timeout)
}

func open(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{credentialsBucket, storiesBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) SaveCredentials(creds Credentials) error {
	if creds.Username == "" || creds.Token == "" {
		return errors.New("credentials need a username and a token")
	}
	if creds.SavedAt.IsZero() {
		creds.SavedAt = time.Now().UTC()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(creds)
		if err != nil {
			return err
		}
		return tx.Bucket(credentialsBucket).Put(currentKey, data)
	})
}

// LoadCredentials returns ErrNoCredentials when none are stored.
func (s *Store) LoadCredentials() (Credentials, error) {
	var creds Credentials
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(credentialsBucket).Get(currentKey)
		if data == nil {
			return ErrNoCredentials
		}
		return json.Unmarshal(data, &creds)
	})
	if err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func (s *Store) ClearCredentials() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Delete(currentKey)
	})
}

// SaveStories replaces the stored snapshot with stories.
func (s *Store) SaveStories(stories []hackorsnooze.StoryRecord, fetchedAt time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(storiesBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(storiesBucket)
		if err != nil {
			return err
		}
		for i, story := range stories {
			data, err := json.Marshal(story)
			if err != nil {
				return err
			}
			// zero-padded keys keep cursor order equal to server order
			if err := b.Put(fmt.Appendf(nil, "%08d", i), data); err != nil {
				return err
			}
		}

		stamp, err := fetchedAt.UTC().MarshalText()
		if err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(fetchedAtKey, stamp)
	})
}

// LoadStories returns the last saved snapshot. An empty store yields an
// empty snapshot with a zero FetchedAt.
func (s *Store) LoadStories() (Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		err := tx.Bucket(storiesBucket).ForEach(func(_ []byte, v []byte) error {
			var story hackorsnooze.StoryRecord
			if err := json.Unmarshal(v, &story); err != nil {
				return err
			}
			snap.Stories = append(snap.Stories, story)
			return nil
		})
		if err != nil {
			return err
		}

		if stamp := tx.Bucket(metaBucket).Get(fetchedAtKey); stamp != nil {
			return snap.FetchedAt.UnmarshalText(stamp)
		}
		return nil
	})
	return snap, err
}
