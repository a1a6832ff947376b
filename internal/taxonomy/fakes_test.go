package taxonomy

import (
	"context"
	"errors"
	"slices"
	"strings"

	"wisdomia/internal/models"
)

const testKey = models.SettingManagedCategories

var errBoom = errors.New("boom")

// memDB is an in-memory settings row plus posts with transactional
// rollback. It is not safe for concurrent use.
type memDB struct {
	setting *models.Setting
	posts   []models.Post

	getErr     error
	casErr     error
	cascadeErr error
	countErr   error

	commits int
}

func (m *memDB) Get(_ context.Context, key string) (*models.Setting, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.setting == nil || key != testKey {
		return nil, nil
	}
	st := *m.setting
	return &st, nil
}

func (m *memDB) Atomically(_ context.Context, fn func(tx Tx) error) error {
	var saved *models.Setting
	if m.setting != nil {
		st := *m.setting
		saved = &st
	}
	savedPosts := slices.Clone(m.posts)

	if err := fn(memTx{m}); err != nil {
		m.setting = saved
		m.posts = savedPosts
		return err
	}
	m.commits++
	return nil
}

func (m *memDB) CountPublishedByCategory(context.Context) ([]models.CategoryCount, error) {
	if m.countErr != nil {
		return nil, m.countErr
	}
	idx := map[string]int{}
	var out []models.CategoryCount
	for _, p := range m.posts {
		if !p.Published {
			continue
		}
		key := strings.ToLower(p.Category)
		i, ok := idx[key]
		if !ok {
			idx[key] = len(out)
			out = append(out, models.CategoryCount{Category: p.Category})
			i = len(out) - 1
		}
		out[i].Count++
	}
	return out, nil
}

// setRaw stores value as the managed row at version.
func (m *memDB) setRaw(value string, version int64) {
	m.setting = &models.Setting{Key: testKey, Value: value, Version: version}
}

func (m *memDB) post(slug string) models.Post {
	for _, p := range m.posts {
		if p.Slug == slug {
			return p
		}
	}
	return models.Post{}
}

type memTx struct{ m *memDB }

func (t memTx) CompareAndSet(_ context.Context, key, value string, expected int64) (int64, error) {
	if t.m.casErr != nil {
		return 0, t.m.casErr
	}
	current := int64(0)
	if t.m.setting != nil {
		current = t.m.setting.Version
	}
	if current != expected {
		return 0, ErrStale
	}
	t.m.setting = &models.Setting{Key: key, Value: value, Version: current + 1}
	return current + 1, nil
}

func (t memTx) ReplaceCategory(_ context.Context, previous string, ref models.CategoryRef) (int64, error) {
	if t.m.cascadeErr != nil {
		return 0, t.m.cascadeErr
	}
	var n int64
	for i := range t.m.posts {
		p := &t.m.posts[i]
		if !p.InCategory(previous) || sameRef(p, ref) {
			continue
		}
		p.ApplyCategory(ref)
		n++
	}
	return n, nil
}

func (t memTx) ReassignUnlisted(_ context.Context, keep []string, ref models.CategoryRef) (int64, error) {
	if t.m.cascadeErr != nil {
		return 0, t.m.cascadeErr
	}
	var n int64
	for i := range t.m.posts {
		p := &t.m.posts[i]
		if slices.ContainsFunc(keep, p.InCategory) {
			continue
		}
		p.ApplyCategory(ref)
		n++
	}
	return n, nil
}

func sameRef(p *models.Post, ref models.CategoryRef) bool {
	return p.Category == ref.Name &&
		ptrEq(p.CategoryBn, ref.NameBn) &&
		ptrEq(p.TopicSlug, nilIfEmpty(ref.TopicSlug))
}

func ptrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strPtr(s string) *string { return &s }

// recorder collects invalidation calls.
type recorder struct {
	calls []string
}

func (r *recorder) InvalidateTaxonomy(_ context.Context, key, action string) {
	r.calls = append(r.calls, action+":"+key)
}

// memPages is an in-memory PageStore. invalidate bumps the generation and
// drops the tagged entries.
type memPages struct {
	data map[string][]byte
	tags map[string][]string
	gen  int64
}

func newMemPages() *memPages {
	return &memPages{data: map[string][]byte{}, tags: map[string][]string{}}
}

func (p *memPages) Get(_ context.Context, key string) ([]byte, bool) {
	d, ok := p.data[key]
	return d, ok
}

func (p *memPages) Generation(context.Context, ...string) int64 { return p.gen }

func (p *memPages) SetTagged(_ context.Context, key string, data []byte, gen int64, tags ...string) {
	if gen != p.gen {
		return
	}
	p.data[key] = data
	for _, t := range tags {
		p.tags[t] = append(p.tags[t], key)
	}
}

func (p *memPages) invalidate() {
	p.gen++
	for _, keys := range p.tags {
		for _, k := range keys {
			delete(p.data, k)
		}
	}
	p.tags = map[string][]string{}
}

// names returns the category names of list in order.
func names(list []models.ManagedCategory) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Name
	}
	return out
}
