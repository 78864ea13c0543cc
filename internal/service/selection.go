package service

import (
	"slices"

	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/pkg/rng"
)

// StatBuckets are the stat dimensions every day's quests should cover. The
// last bucket is satisfied by either category.
var StatBuckets = [][]model.Category{
	{model.CategoryProductivity},
	{model.CategoryLearning},
	{model.CategorySocial},
	{model.CategoryCreativity},
	{model.CategoryWellness, model.CategoryFitness},
}

// HasStatCoverage reports whether the quests touch every stat bucket.
func HasStatCoverage(quests []model.DailyQuest) bool {
	found := make(map[model.Category]bool)
	for _, q := range quests {
		found[q.Quest.Category] = true
	}
	for _, bucket := range StatBuckets {
		if !slices.ContainsFunc(bucket, func(c model.Category) bool { return found[c] }) {
			return false
		}
	}
	return true
}

// categoryLoad is how often a category was assigned and completed recently.
type categoryLoad struct {
	total     int
	completed int
}

func (l categoryLoad) rate() float64 {
	if l.total == 0 {
		return 0
	}
	return float64(l.completed) / float64(l.total)
}

// compareLoad orders less-assigned categories first, then lower completion rate.
func compareLoad(a, b categoryLoad) int {
	if a.total != b.total {
		return a.total - b.total
	}
	switch ra, rb := a.rate(), b.rate(); {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	return 0
}

func shuffled[T any](src rng.Source, items []T) []T {
	out := slices.Clone(items)
	src.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

type questPicker struct {
	src          rng.Source
	target       int
	load         map[model.Category]categoryLoad
	byCategory   map[model.Category][]model.QuestPoolItem
	selected     []model.QuestPoolItem
	selectedIDs  map[string]bool
	selectedCats map[model.Category]bool
}

// SelectQuests picks up to target pool items for a day. The first pass takes
// one quest per stat bucket from its least-loaded category; the second fills
// the remaining slots preferring categories not yet picked. Ties are broken
// by shuffling before a stable sort. Never returns more than the pool holds.
func SelectQuests(pool []model.QuestPoolItem, history []model.DailyQuest, target int, src rng.Source) []model.QuestPoolItem {
	if len(pool) == 0 || target <= 0 {
		return nil
	}

	p := &questPicker{
		src:          src,
		target:       target,
		load:         make(map[model.Category]categoryLoad),
		byCategory:   make(map[model.Category][]model.QuestPoolItem),
		selectedIDs:  make(map[string]bool),
		selectedCats: make(map[model.Category]bool),
	}

	for _, q := range history {
		l := p.load[q.Quest.Category]
		l.total++
		if q.Completed {
			l.completed++
		}
		p.load[q.Quest.Category] = l
	}

	for _, q := range shuffled(src, pool) {
		p.byCategory[q.Category] = append(p.byCategory[q.Category], q)
	}

	for _, bucket := range StatBuckets {
		p.pickFromBucket(bucket)
	}
	p.fill(pool)

	return p.selected
}

func (p *questPicker) full() bool {
	return len(p.selected) >= p.target
}

func (p *questPicker) add(q model.QuestPoolItem) {
	p.selected = append(p.selected, q)
	p.selectedIDs[q.ID] = true
	p.selectedCats[q.Category] = true
}

func (p *questPicker) unselected(category model.Category) []model.QuestPoolItem {
	var out []model.QuestPoolItem
	for _, q := range p.byCategory[category] {
		if !p.selectedIDs[q.ID] {
			out = append(out, q)
		}
	}
	return out
}

func (p *questPicker) pickFromBucket(bucket []model.Category) {
	if p.full() {
		return
	}

	var available []model.Category
	for _, c := range bucket {
		if len(p.unselected(c)) > 0 {
			available = append(available, c)
		}
	}
	if len(available) == 0 {
		return
	}

	ranked := shuffled(p.src, available)
	slices.SortStableFunc(ranked, func(a, b model.Category) int {
		return compareLoad(p.load[a], p.load[b])
	})

	p.add(rng.Pick(p.src, p.unselected(ranked[0])))
}

func (p *questPicker) fill(pool []model.QuestPoolItem) {
	if p.full() {
		return
	}

	var remaining []model.QuestPoolItem
	for _, q := range shuffled(p.src, pool) {
		if !p.selectedIDs[q.ID] {
			remaining = append(remaining, q)
		}
	}

	slices.SortStableFunc(remaining, func(a, b model.QuestPoolItem) int {
		pa, pb := p.selectedCats[a.Category], p.selectedCats[b.Category]
		if pa != pb {
			if pa {
				return 1
			}
			return -1
		}
		return compareLoad(p.load[a.Category], p.load[b.Category])
	})

	for _, q := range remaining {
		if p.full() {
			return
		}
		p.add(q)
	}
}
