// Package attachstore etkinlik başına üretilen takvim dosyası (ICS) için
// put/get/delete arayüzünü ve dosya sistemi tabanlı implementasyonu sağlar.
package attachstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound etkinlik için kayıtlı ek bulunamadı.
var ErrNotFound = errors.New("ek dosya bulunamadı")

// Metadata ek dosya üst verisi.
type Metadata struct {
	EventID     uint
	FileName    string
	ContentType string
}

// Ref depodaki bir ek dosyaya işaret eder.
type Ref struct {
	Key         string `json:"key"`
	EventID     uint   `json:"event_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Path        string `json:"-"`
}

// Store ek dosya deposu. Put aynı etkinlik için önceki dosyanın üzerine
// yazar (etkinlik başına tek güncel ek).
type Store interface {
	Put(ctx context.Context, data []byte, meta Metadata) (*Ref, error)
	Get(ctx context.Context, eventID uint) (*Ref, error)
	Read(ctx context.Context, ref *Ref) ([]byte, error)
	Delete(ctx context.Context, ref *Ref) error
}

// FileStore dizin altına yazan Store implementasyonu. Etkinlik -> ref
// eşlemesi bellekte tutulur; kalıcı blob deposu dış katmanın işidir.
type FileStore struct {
	dir string

	mu    sync.Mutex
	index map[uint]*Ref
}

// NewFileStore verilen dizini kullanan FileStore oluşturur.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, index: make(map[uint]*Ref)}, nil
}

// Put dosyayı yazar; etkinliğin önceki eki varsa yerine geçer.
func (s *FileStore) Put(ctx context.Context, data []byte, meta Metadata) (*Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := uuid.NewString()
	path := filepath.Join(s.dir, key+filepath.Ext(meta.FileName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}

	ref := &Ref{Key: key, EventID: meta.EventID, FileName: meta.FileName, ContentType: meta.ContentType, Path: path}

	s.mu.Lock()
	prev := s.index[meta.EventID]
	s.index[meta.EventID] = ref
	s.mu.Unlock()

	if prev != nil && prev.Path != path {
		_ = os.Remove(prev.Path)
	}
	return ref, nil
}

// Get etkinliğin güncel ekini döndürür.
func (s *FileStore) Get(ctx context.Context, eventID uint) (*Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	ref, ok := s.index[eventID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return ref, nil
}

// Read ek dosyanın içeriğini okur.
func (s *FileStore) Read(ctx context.Context, ref *Ref) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(ref.Path)
}

// Delete ek dosyayı depodan kaldırır.
func (s *FileStore) Delete(ctx context.Context, ref *Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if cur, ok := s.index[ref.EventID]; ok && cur.Key == ref.Key {
		delete(s.index, ref.EventID)
	}
	s.mu.Unlock()
	if err := os.Remove(ref.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var _ Store = (*FileStore)(nil)
