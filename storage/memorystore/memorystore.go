// Package memorystore implements storage.Store in a purely in-memory manner.
// Intended for tests and local development.
package memorystore

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"github.com/dpup/bookstore/storage"
)

// New returns a store that provides transient, in-memory storage.
func New() storage.Store {
	return &store{
		data: map[string]map[string][]byte{},
	}
}

type store struct {
	// data[tableName][entityID] = JSON
	data map[string]map[string][]byte
	mu   sync.RWMutex
}

func (s *store) Create(ctx context.Context, models ...storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range models {
		n := storage.Name(m)
		if s.data[n] != nil && s.data[n][m.PK()] != nil {
			return storage.ErrAlreadyExists
		}
	}
	return s.write(models...)
}

func (s *store) Read(ctx context.Context, id string, model storage.Model) error {
	if err := storage.ValidateReceiver(model); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id, model)
}

func (s *store) Update(ctx context.Context, models ...storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range models {
		n := storage.Name(m)
		if s.data[n] == nil || s.data[n][m.PK()] == nil {
			return storage.ErrNotFound
		}
	}
	return s.write(models...)
}

func (s *store) Upsert(ctx context.Context, models ...storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(models...)
}

func (s *store) Delete(ctx context.Context, model storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := storage.Name(model)
	id := model.PK()
	if s.data[n] == nil || s.data[n][id] == nil {
		return storage.ErrNotFound
	}
	delete(s.data[n], id)
	return nil
}

func (s *store) Exists(ctx context.Context, id string, model storage.Model) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := storage.Name(model)
	return s.data[n] != nil && s.data[n][id] != nil, nil
}

// List always performs a full scan of all items.
func (s *store) List(ctx context.Context, models interface{}, filter storage.Model) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	modelsVal := reflect.ValueOf(models)
	if modelsVal.Kind() != reflect.Ptr || modelsVal.Elem().Kind() != reflect.Slice {
		return storage.ErrSliceRequired
	}

	sliceVal := modelsVal.Elem()
	elemType := sliceVal.Type().Elem()

	// Pointer elements and pointer filters are normalized to the underlying
	// struct type so both []T and []*T destinations work.
	baseType := elemType
	ptrElems := baseType.Kind() == reflect.Ptr
	if ptrElems {
		baseType = baseType.Elem()
	}
	filterType := reflect.TypeOf(filter)
	if filterType.Kind() == reflect.Ptr {
		filterType = filterType.Elem()
	}
	if baseType != filterType || baseType.Kind() != reflect.Struct {
		return storage.ErrTypeMismatch
	}

	n := storage.Name(filter)
	if s.data[n] == nil {
		return nil
	}

	// Return models sorted by primary key.
	pks := make([]string, 0, len(s.data[n]))
	for pk := range s.data[n] {
		pks = append(pks, pk)
	}
	sort.Strings(pks)

	filterValue := reflect.Indirect(reflect.ValueOf(filter))
	if !filterValue.IsValid() {
		// Nil pointer filter matches everything.
		filterValue = reflect.New(baseType).Elem()
	}

	for _, pk := range pks {
		newElemPtr := reflect.New(baseType)
		newElem := newElemPtr.Elem()
		if err := s.read(pk, newElemPtr.Interface().(storage.Model)); err != nil {
			return err
		}
		// Skip if any non-zero field in filter differs from the corresponding
		// field in the model.
		skip := false
		for i := 0; i < newElem.NumField(); i++ {
			if shouldFilter(filterValue.Field(i)) {
				fieldVal := newElem.Field(i).Interface()
				testVal := filterValue.Field(i).Interface()
				if !reflect.DeepEqual(fieldVal, testVal) {
					skip = true
					break
				}
			}
		}
		if !skip {
			if ptrElems {
				sliceVal.Set(reflect.Append(sliceVal, newElemPtr))
			} else {
				sliceVal.Set(reflect.Append(sliceVal, newElem))
			}
		}
	}

	return nil
}

// write stores models without locking; callers hold the mutex.
func (s *store) write(models ...storage.Model) error {
	for _, m := range models {
		n := storage.Name(m)
		if s.data[n] == nil {
			s.data[n] = map[string][]byte{}
		}
		jsonBytes, err := json.Marshal(m)
		if err != nil {
			return storage.ErrInvalidModel
		}
		s.data[n][m.PK()] = jsonBytes
	}
	return nil
}

// read fetches a model without locking; callers hold the mutex.
func (s *store) read(id string, model storage.Model) error {
	n := storage.Name(model)
	if s.data[n] == nil || s.data[n][id] == nil {
		return storage.ErrNotFound
	}
	if err := json.Unmarshal(s.data[n][id], model); err != nil {
		return storage.ErrInvalidModel
	}
	return nil
}

// shouldFilter returns true for non-zero values and non-nil pointers.
func shouldFilter(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return !v.IsNil()
	default:
		return !reflect.DeepEqual(v.Interface(), reflect.Zero(v.Type()).Interface())
	}
}
