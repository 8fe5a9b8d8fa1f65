package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// Namespace of the ledger inside the shared database.
var ledgerNamespace = []byte("L/")

// Key layout within the namespace.
var (
	keyMeta     = []byte("s/meta")
	prefixStake = []byte("n/") // n/<nonce u64 BE> -> Stake JSON
	prefixOwner = []byte("o/") // o/<owner(20)><nonce u64 BE> -> empty
	prefixEvent = []byte("e/") // e/<seq u64 BE> -> Event JSON
)

func stakeKey(nonce uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, prefixStake...), nonce)
}

func ownerPrefix(owner types.Address) []byte {
	key := make([]byte, 0, len(prefixOwner)+types.AddressSize+8)
	key = append(key, prefixOwner...)
	return append(key, owner[:]...)
}

func ownerKey(owner types.Address, nonce uint64) []byte {
	return binary.BigEndian.AppendUint64(ownerPrefix(owner), nonce)
}

func eventKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, prefixEvent...), seq)
}

// state reads and writes ledger records in one database view. Nothing is
// cached: every read goes to the view, so writes made by nested operations
// are always seen.
type state struct {
	db storage.DB
}

func newState(db storage.DB) *state {
	return &state{db: storage.NewPrefixDB(db, ledgerNamespace)}
}

func (s *state) hasMeta() (bool, error) {
	return s.db.Has(keyMeta)
}

func (s *state) meta() (*Meta, error) {
	data, err := s.db.Get(keyMeta)
	if storage.IsNotFound(err) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	return &m, nil
}

func (s *state) putMeta(m *Meta) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	return s.db.Put(keyMeta, data)
}

// stake returns the record at nonce, or ErrStakeNotFound.
func (s *state) stake(nonce uint64) (*Stake, error) {
	data, err := s.db.Get(stakeKey(nonce))
	if storage.IsNotFound(err) {
		return nil, fmt.Errorf("%w: nonce %d", ErrStakeNotFound, nonce)
	}
	if err != nil {
		return nil, fmt.Errorf("read stake %d: %w", nonce, err)
	}
	var st Stake
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode stake %d: %w", nonce, err)
	}
	return &st, nil
}

func (s *state) putStake(st *Stake) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode stake %d: %w", st.Nonce, err)
	}
	if err := s.db.Put(stakeKey(st.Nonce), data); err != nil {
		return err
	}
	if st.Pruned {
		return nil
	}
	return s.db.Put(ownerKey(st.Owner, st.Nonce), []byte{})
}

// forEachStake visits stakes in nonce order.
func (s *state) forEachStake(fn func(*Stake) error) error {
	return s.db.ForEach(prefixStake, func(_, value []byte) error {
		var st Stake
		if err := json.Unmarshal(value, &st); err != nil {
			return fmt.Errorf("decode stake: %w", err)
		}
		return fn(&st)
	})
}

func (s *state) ownerNonces(owner types.Address) ([]uint64, error) {
	prefix := ownerPrefix(owner)
	var nonces []uint64
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		if len(key) != len(prefix)+8 {
			return nil
		}
		nonces = append(nonces, binary.BigEndian.Uint64(key[len(prefix):]))
		return nil
	})
	return nonces, err
}

// bumpHeight advances the operation height and returns the new value.
func (s *state) bumpHeight() (uint64, error) {
	m, err := s.meta()
	if err != nil {
		return 0, err
	}
	m.Height++
	if err := s.putMeta(m); err != nil {
		return 0, err
	}
	return m.Height, nil
}

// appendEvent assigns the next sequence number and height to ev and
// stores it.
func (s *state) appendEvent(ev *Event) error {
	m, err := s.meta()
	if err != nil {
		return err
	}
	ev.Seq = m.EventSeq
	ev.Height = m.Height
	m.EventSeq++
	if err := s.putMeta(m); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return s.db.Put(eventKey(ev.Seq), data)
}

func (s *state) forEachEvent(fromSeq uint64, fn func(*Event) error) error {
	return s.db.ForEach(prefixEvent, func(key, value []byte) error {
		if len(key) != len(prefixEvent)+8 {
			return nil
		}
		if binary.BigEndian.Uint64(key[len(prefixEvent):]) < fromSeq {
			return nil
		}
		var ev Event
		if err := json.Unmarshal(value, &ev); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		return fn(&ev)
	})
}
