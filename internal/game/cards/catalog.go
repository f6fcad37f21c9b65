package cards

import (
	"sort"
	"sync"
)

// Catalog is the read-only source of card templates and wonders.
type Catalog interface {
	CardTemplate(id string) (*CardTemplate, bool)
	Wonder(id string) (*Wonder, bool)
}

// MemoryCatalog is a map-backed Catalog. It remembers insertion order so
// deck building is reproducible for a given seed.
type MemoryCatalog struct {
	templates     map[string]*CardTemplate
	templateOrder []string
	wonders       map[string]*Wonder
	wonderOrder   []string
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		templates: make(map[string]*CardTemplate),
		wonders:   make(map[string]*Wonder),
	}
}

// AddTemplate registers t, replacing any template with the same id.
func (c *MemoryCatalog) AddTemplate(t *CardTemplate) {
	if _, exists := c.templates[t.ID]; !exists {
		c.templateOrder = append(c.templateOrder, t.ID)
	}
	c.templates[t.ID] = t
}

// AddWonder registers w, replacing any wonder with the same id.
func (c *MemoryCatalog) AddWonder(w *Wonder) {
	if _, exists := c.wonders[w.ID]; !exists {
		c.wonderOrder = append(c.wonderOrder, w.ID)
	}
	c.wonders[w.ID] = w
}

func (c *MemoryCatalog) CardTemplate(id string) (*CardTemplate, bool) {
	t, ok := c.templates[id]
	return t, ok
}

func (c *MemoryCatalog) Wonder(id string) (*Wonder, bool) {
	w, ok := c.wonders[id]
	return w, ok
}

// Templates returns every template in insertion order.
func (c *MemoryCatalog) Templates() []*CardTemplate {
	out := make([]*CardTemplate, 0, len(c.templateOrder))
	for _, id := range c.templateOrder {
		out = append(out, c.templates[id])
	}
	return out
}

// Wonders returns every wonder in insertion order.
func (c *MemoryCatalog) Wonders() []*Wonder {
	out := make([]*Wonder, 0, len(c.wonderOrder))
	for _, id := range c.wonderOrder {
		out = append(out, c.wonders[id])
	}
	return out
}

// InstanceStore maps instance ids to the card instances minted for one game.
type InstanceStore struct {
	mu        sync.RWMutex
	instances map[string]*CardInstance
}

// NewInstanceStore creates an empty store.
func NewInstanceStore() *InstanceStore {
	return &InstanceStore{instances: make(map[string]*CardInstance)}
}

// Put stores inst under its instance id.
func (s *InstanceStore) Put(inst *CardInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[inst.InstanceID] = inst
}

// Get returns the instance with the given id.
func (s *InstanceStore) Get(id string) (*CardInstance, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[id]
	return inst, ok
}

// Len returns the number of stored instances.
func (s *InstanceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}

// IDs returns all instance ids sorted.
func (s *InstanceStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.instances))
	for id := range s.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset removes every instance.
func (s *InstanceStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = make(map[string]*CardInstance)
}

// Lookup is the read-only data context handed to validators, the reducer
// and scoring.
type Lookup struct {
	Catalog   Catalog
	Instances *InstanceStore
}

// Instance returns the dealt card with the given id.
func (l Lookup) Instance(id string) (*CardInstance, bool) {
	return l.Instances.Get(id)
}

// Template returns the template with the given id.
func (l Lookup) Template(id string) (*CardTemplate, bool) {
	if l.Catalog == nil {
		return nil, false
	}
	return l.Catalog.CardTemplate(id)
}

// InstanceTemplate resolves a dealt card to its template.
func (l Lookup) InstanceTemplate(instanceID string) (*CardTemplate, bool) {
	inst, ok := l.Instance(instanceID)
	if !ok {
		return nil, false
	}
	return l.Template(inst.TemplateID)
}

// Effects returns the effects carried by inst, falling back to its template
// when the instance carries none.
func (l Lookup) Effects(inst *CardInstance) []Effect {
	if len(inst.Effects) > 0 {
		return inst.Effects
	}
	if t, ok := l.Template(inst.TemplateID); ok {
		return t.Effects
	}
	return nil
}

// CardType returns the type of a dealt card, or "" when unknown.
func (l Lookup) CardType(instanceID string) CardType {
	inst, ok := l.Instance(instanceID)
	if !ok {
		return ""
	}
	return inst.Type
}

// Wonder returns the wonder with the given id.
func (l Lookup) Wonder(id string) (*Wonder, bool) {
	if l.Catalog == nil {
		return nil, false
	}
	return l.Catalog.Wonder(id)
}

// Board returns the side of a wonder a player was assigned.
func (l Lookup) Board(wonderID string, side WonderSide) (*WonderBoard, bool) {
	w, ok := l.Wonder(wonderID)
	if !ok {
		return nil, false
	}
	return w.Side(side), true
}

// BuiltStages returns the first n stages of the board, clamped to its length.
func (b *WonderBoard) BuiltStages(n int) []WonderStage {
	if n > len(b.Stages) {
		n = len(b.Stages)
	}
	if n < 0 {
		n = 0
	}
	return b.Stages[:n]
}
