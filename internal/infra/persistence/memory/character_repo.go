package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/paimon-guide/guide-app/pkg/constant"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
	"github.com/paimon-guide/guide-app/pkg/domain/repository"
)

type characterRepo struct {
	mu         sync.RWMutex
	characters map[string]*model.Character
}

// NewCharacterRepository 创建内存版角色目录，可选地带初始数据
func NewCharacterRepository(initial ...*model.Character) repository.CharacterRepository {
	r := &characterRepo{characters: make(map[string]*model.Character)}
	for _, c := range initial {
		copied := *c
		r.characters[c.ID] = &copied
	}
	return r
}

func (r *characterRepo) ListAll(ctx context.Context) ([]*model.Character, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Character, 0, len(r.characters))
	for _, c := range r.characters {
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *characterRepo) FindByID(ctx context.Context, id string) (*model.Character, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.characters[id]
	if !ok {
		return nil, constant.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *characterRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.characters)), nil
}

func (r *characterRepo) InsertMany(ctx context.Context, characters []*model.Character) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range characters {
		copied := *c
		r.characters[c.ID] = &copied
	}
	return nil
}
