// checkpoint provides CheckpointIO which saves and restores MCMC chain
// state using a bolt database, so an interrupted run can be resumed.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is key name for all chains
var MAIN = []byte("main")

// ChainState stores the state of a chain: both walkers with their
// cached energies and the iteration counters.
type ChainState struct {
	X            []float64
	Xp           []float64
	Ux           float64
	Uxp          float64
	Iter         int
	Accepted     int
	EvalFailures int
	Final        bool
}

// CheckpointIO saves and loads chain checkpoints.
type CheckpointIO struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewCheckpointIO creates a new CheckpointIO.
func NewCheckpointIO(db *bolt.DB, key []byte, seconds float64) (s *CheckpointIO) {
	s = &CheckpointIO{
		db:      db,
		key:     key,
		seconds: seconds,
	}
	return
}

// Save saves chain state to the database.
func (s *CheckpointIO) Save(state *ChainState) error {
	// Even if saving fails, we do not want to run this code too often.
	s.SetNow()
	stateB, err := json.Marshal(state)
	if err != nil {
		log.Error("Error serializing checkpoint", err)
		return err
	}
	err = SaveData(s.db, s.key, stateB)
	if err != nil {
		log.Error("Error saving checkpoint", err)
	}
	return err
}

// GetState returns chain state from the last checkpoint, nil if there
// is no checkpoint for the key.
func (s *CheckpointIO) GetState() (*ChainState, error) {
	var state *ChainState

	b, err := LoadData(s.db, s.key)

	if err != nil || b == nil {
		return nil, err
	}

	err = json.Unmarshal(b, &state)

	if err != nil {
		return nil, err
	}

	if state == nil || len(state.X) == 0 {
		return nil, nil
	}

	if state.Final {
		log.Noticef("Found finished chain checkpoint (iter=%v, U=%v)", state.Iter, state.Ux)
	} else {
		log.Noticef("Found unfinished chain checkpoint (iter=%v, U=%v)", state.Iter, state.Ux)
	}

	return state, nil
}

// Old returns true if last checkpoint save time too long ago.
func (s *CheckpointIO) Old() bool {
	if time.Since(s.last).Seconds() > s.seconds {
		return true
	}
	return false
}

// SetNow sets last checkpoint time to now.
func (s *CheckpointIO) SetNow() {
	s.last = time.Now()
}

// SaveData saves values in bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}

		err = b.Put(key, data)
		return err
	})
	return err
}

// LoadData loads data from bolt database.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}

		v := b.Get(key)
		if v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
