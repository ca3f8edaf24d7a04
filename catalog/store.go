package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/davidbalbert/chatline/sync"
	"gopkg.in/yaml.v3"
)

// Store holds the current index. Readers always see a complete index;
// Replace swaps in a new one and wakes anyone waiting in AwaitChange.
type Store struct {
	n *sync.Notifier[*Index]
}

func NewStore(idx *Index) *Store {
	if idx == nil {
		idx = NewIndex(nil)
	}

	s := &Store{n: sync.NewNotifier[*Index]()}
	s.n.NotifyChange(idx)

	return s
}

func (s *Store) Index() *Index {
	idx, _ := s.n.LastChange()
	return idx
}

func (s *Store) Replace(idx *Index) {
	s.n.NotifyChange(idx)
}

// Seq identifies the current index for AwaitChange.
func (s *Store) Seq() int64 {
	_, seq := s.n.LastChange()
	return seq
}

func (s *Store) AwaitChange(ctx context.Context, seq int64) (*Index, int64) {
	return s.n.AwaitChange(ctx, seq)
}

// Reload reads path and replaces the current index with its contents.
func (s *Store) Reload(path string) error {
	items, err := LoadFile(path)
	if err != nil {
		return err
	}

	s.Replace(NewIndex(items))

	return nil
}

// Catalog files are either a bare list of items or a map with an "items"
// key:
//
//	items:
//	  - name: Iron Sword
//	    id: iron_sword
func Parse(data []byte) ([]Item, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}

	if node.Kind == 0 {
		return nil, nil
	}

	doc := &node
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}

	var items []Item
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&items); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var wrapper struct {
			Items []Item `yaml:"items"`
		}
		if err := doc.Decode(&wrapper); err != nil {
			return nil, err
		}
		items = wrapper.Items
	default:
		return nil, fmt.Errorf("catalog must be a list of items or a map with an items key")
	}

	for i, item := range items {
		if item.Name == "" {
			return nil, fmt.Errorf("item %d: missing name", i)
		}
	}

	return items, nil
}

func LoadFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	items, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return items, nil
}
