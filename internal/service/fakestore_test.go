package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radurbae/onepercent/internal/loot"
	"github.com/radurbae/onepercent/internal/model"
	"github.com/radurbae/onepercent/internal/repository"
)

type checkinKey struct {
	userID  int64
	habitID string
	date    time.Time
}

type userItemKey struct {
	userID int64
	itemID string
}

type dayKey struct {
	userID int64
	date   time.Time
}

// memStore is an in-memory implementation of every service store.
type memStore struct {
	mu sync.Mutex

	profiles     map[int64]*model.PlayerProfile
	ledger       []model.LedgerEntry
	habits       map[string]*model.Habit
	habitOrder   []string
	checkins     map[checkinKey]model.Checkin
	items        map[string]*model.Item
	userItems    map[userItemKey]*model.UserItem
	achievements map[int64]map[string]time.Time
	pool         []model.QuestPoolItem
	dailyQuests  map[string]*model.DailyQuest
	refreshed    map[dayKey]bool

	summaries    map[dayKey]model.DailySummary

	insertQuestsErr error
	ledgerErr       error
	equippedErr     error
	seq             int
}

func newMemStore() *memStore {
	return &memStore{
		profiles:     make(map[int64]*model.PlayerProfile),
		habits:       make(map[string]*model.Habit),
		checkins:     make(map[checkinKey]model.Checkin),
		items:        make(map[string]*model.Item),
		userItems:    make(map[userItemKey]*model.UserItem),
		achievements: make(map[int64]map[string]time.Time),
		dailyQuests:  make(map[string]*model.DailyQuest),
		refreshed:    make(map[dayKey]bool),
		summaries:    make(map[dayKey]model.DailySummary),
	}
}

func (m *memStore) next() int {
	m.seq++
	return m.seq
}

// ========== Profiles ==========

func (m *memStore) CreateProfile(_ context.Context, userID int64, username string) (*model.PlayerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[userID]; ok {
		return nil, repository.ErrProfileExists
	}
	p := &model.PlayerProfile{UserID: userID, Username: username, Level: 1, Rank: model.RankE}
	m.profiles[userID] = p
	cp := *p
	return &cp, nil
}

func (m *memStore) GetProfile(_ context.Context, userID int64) (*model.PlayerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdateProgress(_ context.Context, userID int64, progress model.Progress) (*model.PlayerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	p.XP, p.Gold, p.Level, p.Rank = progress.XP, progress.Gold, progress.Level, progress.Rank
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdateUsername(_ context.Context, userID int64, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.Username = username
	return nil
}

// ========== Ledger ==========

func (m *memStore) ApplyCredit(_ context.Context, userID int64, progress model.Progress, entry model.LedgerEntry) (*model.PlayerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ledgerErr != nil {
		return nil, m.ledgerErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	p.XP, p.Gold, p.Level, p.Rank = progress.XP, progress.Gold, progress.Level, progress.Rank
	entry.CreatedAt = time.Unix(int64(m.next()), 0)
	m.ledger = append(m.ledger, entry)
	cp := *p
	return &cp, nil
}

func (m *memStore) ListLedger(_ context.Context, userID int64, limit int) ([]model.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LedgerEntry
	for i := len(m.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if m.ledger[i].UserID == userID {
			out = append(out, m.ledger[i])
		}
	}
	return out, nil
}

func (m *memStore) ledgerFor(userID int64) []model.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LedgerEntry
	for _, e := range m.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// ========== Habits ==========

func (m *memStore) CreateHabit(_ context.Context, habit model.Habit) (*model.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	habit.CreatedAt = time.Unix(int64(m.next()), 0)
	m.habits[habit.ID] = &habit
	m.habitOrder = append(m.habitOrder, habit.ID)
	cp := habit
	return &cp, nil
}

func (m *memStore) GetHabit(_ context.Context, userID int64, habitID string) (*model.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[habitID]
	if !ok || h.UserID != userID {
		return nil, repository.ErrHabitNotFound
	}
	cp := *h
	return &cp, nil
}

func (m *memStore) ListHabits(_ context.Context, userID int64) ([]model.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Habit
	for _, id := range m.habitOrder {
		if h := m.habits[id]; h.UserID == userID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *memStore) UpsertCheckin(_ context.Context, c model.Checkin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkins[checkinKey{c.UserID, c.HabitID, c.Date}] = c
	return nil
}

func (m *memStore) GetCheckin(_ context.Context, userID int64, habitID string, date time.Time) (*model.Checkin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.checkins[checkinKey{userID, habitID, date}]
	if !ok {
		return nil, repository.ErrCheckinNotFound
	}
	return &c, nil
}

func (m *memStore) ListCheckins(_ context.Context, userID int64, q model.CheckinQuery) ([]model.Checkin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Checkin
	for _, c := range m.checkins {
		if c.UserID != userID {
			continue
		}
		if q.HabitID != "" && c.HabitID != q.HabitID {
			continue
		}
		if !q.Since.IsZero() && c.Date.Before(q.Since) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].HabitID < out[j].HabitID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memStore) UpsertDailySummary(_ context.Context, summary model.DailySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[dayKey{summary.UserID, summary.Date}] = summary
	return nil
}

func (m *memStore) ListDailySummaries(_ context.Context, userID int64, since time.Time) ([]model.DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.DailySummary
	for k, v := range m.summaries {
		if k.userID == userID && !k.date.Before(since) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b model.DailySummary) int { return a.Date.Compare(b.Date) })
	return out, nil
}

// ========== Inventory ==========

func (m *memStore) addItem(item model.Item) *model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	m.items[item.ID] = &item
	cp := item
	return &cp
}

func (m *memStore) GetItem(_ context.Context, itemID string) (*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *memStore) GetItemByName(_ context.Context, itemType model.ItemType, name string) (*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.Type == itemType && it.Name == name {
			cp := *it
			return &cp, nil
		}
	}
	return nil, repository.ErrItemNotFound
}

func (m *memStore) ListUnlockableItems(_ context.Context) (map[string][]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]model.Item)
	for _, it := range m.items {
		if it.UnlockKey != nil {
			out[*it.UnlockKey] = append(out[*it.UnlockKey], *it)
		}
	}
	return out, nil
}

func (m *memStore) EnsureItem(ctx context.Context, item model.Item) (*model.Item, error) {
	if existing, err := m.GetItemByName(ctx, item.Type, item.Name); err == nil {
		return existing, nil
	}
	return m.addItem(item), nil
}

func (m *memStore) ListUserItems(_ context.Context, userID int64) ([]model.UserItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.UserItem
	for k, ui := range m.userItems {
		if k.userID == userID {
			cp := *ui
			cp.Item = *m.items[k.itemID]
			out = append(out, cp)
		}
	}
	slices.SortFunc(out, func(a, b model.UserItem) int { return a.AcquiredAt.Compare(b.AcquiredAt) })
	return out, nil
}

func (m *memStore) ListEquippedItems(ctx context.Context, userID int64) ([]model.Item, error) {
	if m.equippedErr != nil {
		return nil, m.equippedErr
	}
	owned, _ := m.ListUserItems(ctx, userID)
	var out []model.Item
	for _, ui := range owned {
		if ui.Equipped {
			out = append(out, ui.Item)
		}
	}
	return out, nil
}

func (m *memStore) HasItem(_ context.Context, userID int64, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.userItems[userItemKey{userID, itemID}]
	return ok, nil
}

func (m *memStore) slotTakenLocked(userID int64, slot model.ItemType) bool {
	for k, ui := range m.userItems {
		if k.userID == userID && ui.Equipped && m.items[k.itemID].Type == slot {
			return true
		}
	}
	return false
}

func (m *memStore) GrantItem(_ context.Context, userID int64, item model.Item, equipIfFree bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userItemKey{userID, item.ID}
	if _, ok := m.userItems[key]; ok {
		return false, nil
	}
	equipped := equipIfFree && !m.slotTakenLocked(userID, item.Type)
	m.userItems[key] = &model.UserItem{
		UserID:     userID,
		ItemID:     item.ID,
		Equipped:   equipped,
		AcquiredAt: time.Unix(int64(m.next()), 0),
	}
	if equipped {
		name := item.Name
		m.setProfileSlotLocked(userID, item.Type, &name)
	}
	return true, nil
}

func (m *memStore) setProfileSlotLocked(userID int64, slot model.ItemType, name *string) {
	p, ok := m.profiles[userID]
	if !ok {
		return
	}
	switch slot {
	case model.ItemTitle:
		p.EquippedTitle = name
	case model.ItemBadge:
		p.EquippedBadge = name
	case model.ItemTheme:
		p.EquippedTheme = name
	}
}

func (m *memStore) EquipItem(_ context.Context, userID int64, item model.Item) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.userItems[userItemKey{userID, item.ID}]
	if !ok {
		return false, nil
	}
	for k, ui := range m.userItems {
		if k.userID == userID && m.items[k.itemID].Type == item.Type {
			ui.Equipped = false
		}
	}
	target.Equipped = true
	name := item.Name
	m.setProfileSlotLocked(userID, item.Type, &name)
	return true, nil
}

func (m *memStore) UnequipItem(_ context.Context, userID int64, item model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ui, ok := m.userItems[userItemKey{userID, item.ID}]
	if !ok || !ui.Equipped {
		return nil
	}
	ui.Equipped = false
	m.setProfileSlotLocked(userID, item.Type, nil)
	return nil
}

// ========== Achievements ==========

func (m *memStore) ListAchievements(_ context.Context, userID int64) ([]model.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Achievement
	for key, at := range m.achievements[userID] {
		out = append(out, model.Achievement{UserID: userID, Key: key, UnlockedAt: at})
	}
	slices.SortFunc(out, func(a, b model.Achievement) int { return a.UnlockedAt.Compare(b.UnlockedAt) })
	return out, nil
}

func (m *memStore) UnlockAchievement(_ context.Context, userID int64, key string, items []model.Item) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.achievements[userID] == nil {
		m.achievements[userID] = make(map[string]time.Time)
	}
	if _, ok := m.achievements[userID][key]; ok {
		return false, nil
	}
	m.achievements[userID][key] = time.Unix(int64(m.next()), 0)
	for _, it := range items {
		k := userItemKey{userID, it.ID}
		if _, ok := m.userItems[k]; !ok {
			m.userItems[k] = &model.UserItem{UserID: userID, ItemID: it.ID, AcquiredAt: time.Unix(int64(m.next()), 0)}
		}
	}
	return true, nil
}

// ========== Quests ==========

func (m *memStore) ListActiveQuestPool(_ context.Context) ([]model.QuestPoolItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.QuestPoolItem
	for _, q := range m.pool {
		if q.Active {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memStore) listQuestsLocked(match func(*model.DailyQuest) bool) []model.DailyQuest {
	var out []model.DailyQuest
	for _, dq := range m.dailyQuests {
		if match(dq) {
			out = append(out, *dq)
		}
	}
	slices.SortFunc(out, func(a, b model.DailyQuest) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return compareStrings(a.Quest.Title, b.Quest.Title)
	})
	return out
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (m *memStore) ListDailyQuests(_ context.Context, userID int64, date time.Time) ([]model.DailyQuest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listQuestsLocked(func(dq *model.DailyQuest) bool {
		return dq.UserID == userID && dq.Date.Equal(date)
	}), nil
}

func (m *memStore) ListDailyQuestsSince(_ context.Context, userID int64, since, until time.Time) ([]model.DailyQuest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listQuestsLocked(func(dq *model.DailyQuest) bool {
		return dq.UserID == userID && !dq.Date.Before(since) && dq.Date.Before(until)
	}), nil
}

func (m *memStore) GetDailyQuest(_ context.Context, userID int64, questID string) (*model.DailyQuest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dq, ok := m.dailyQuests[questID]
	if !ok || dq.UserID != userID {
		return nil, repository.ErrQuestNotFound
	}
	cp := *dq
	return &cp, nil
}

func (m *memStore) InsertDailyQuests(_ context.Context, quests []model.DailyQuest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertQuestsErr != nil {
		return m.insertQuestsErr
	}
	for _, q := range quests {
		cp := q
		for _, p := range m.pool {
			if p.ID == q.QuestPoolID {
				cp.Quest = p
			}
		}
		m.dailyQuests[q.ID] = &cp
	}
	return nil
}

func (m *memStore) DeleteDailyQuests(_ context.Context, userID int64, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, dq := range m.dailyQuests {
		if dq.UserID == userID && dq.Date.Equal(date) {
			delete(m.dailyQuests, id)
		}
	}
	return nil
}

func (m *memStore) MarkDailyQuestCompleted(_ context.Context, userID int64, questID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dq, ok := m.dailyQuests[questID]
	if !ok || dq.UserID != userID || dq.Completed {
		return false, nil
	}
	dq.Completed = true
	dq.CompletedAt = &at
	return true, nil
}

func (m *memStore) CountCompletedByCategory(_ context.Context, userID int64) (map[model.Category]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.Category]int)
	for _, dq := range m.dailyQuests {
		if dq.UserID == userID && dq.Completed {
			out[dq.Quest.Category]++
		}
	}
	return out, nil
}

func (m *memStore) IsRefreshed(_ context.Context, userID int64, date time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshed[dayKey{userID, date}], nil
}

func (m *memStore) MarkRefreshed(_ context.Context, userID int64, date, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshed[dayKey{userID, date}] = true
	return nil
}

// ========== Fixtures ==========

// seedPool adds perCategory active quests to every category.
func (m *memStore) seedPool(perCategory int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range model.Categories() {
		for i := 0; i < perCategory; i++ {
			m.pool = append(m.pool, model.QuestPoolItem{
				ID:         uuid.NewString(),
				Title:      string(c) + "-" + string(rune('a'+i)),
				Category:   c,
				XPReward:   20,
				GoldReward: 10,
				Active:     true,
			})
		}
	}
}

// seedUnlockItems adds one catalog item per achievement key.
func (m *memStore) seedUnlockItems() {
	for _, def := range Achievements {
		key := def.Key
		m.addItem(model.Item{Name: def.Name + " Badge", Type: model.ItemBadge, Rarity: model.RarityRare, UnlockKey: &key})
	}
}

// ownedKeys returns the loot keys of everything the user owns.
func (m *memStore) ownedKeys(userID int64) loot.Owned {
	owned, _ := m.ListUserItems(context.Background(), userID)
	keys := loot.NewOwned()
	for _, ui := range owned {
		keys[loot.Key(ui.Item.Type, ui.Item.Name)] = struct{}{}
	}
	return keys
}

var errStoreDown = errors.New("store unavailable")
