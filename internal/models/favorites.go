package models

// FavoritesList is an ordered list of movies, unique by ID. Insertion order is display order.
//
// Methods never modify the receiver's backing array, so a list handed out to readers stays stable.
type FavoritesList []Movie

// Index returns the position of id in the list, or -1.
func (l FavoritesList) Index(id ItemID) int {
	for i, m := range l {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether a movie with id is in the list.
func (l FavoritesList) Contains(id ItemID) bool {
	return l.Index(id) >= 0
}

// Toggle removes m when present and appends its summary otherwise.
//
// It returns the new list and whether m was added.
func (l FavoritesList) Toggle(m Movie) (FavoritesList, bool) {
	if i := l.Index(m.ID); i >= 0 {
		next := make(FavoritesList, 0, len(l)-1)
		next = append(next, l[:i]...)
		return append(next, l[i+1:]...), false
	}

	next := make(FavoritesList, 0, len(l)+1)
	next = append(next, l...)
	return append(next, m.Summary()), true
}

// IDs returns the ids in display order.
func (l FavoritesList) IDs() []ItemID {
	ids := make([]ItemID, len(l))
	for i, m := range l {
		ids[i] = m.ID
	}
	return ids
}

// Clone returns a copy that shares nothing with l. A nil list clones to an empty one.
func (l FavoritesList) Clone() FavoritesList {
	out := make(FavoritesList, len(l))
	copy(out, l)
	return out
}

// Dedup drops entries with an empty id and every repeat of an id, keeping the first occurrence.
func (l FavoritesList) Dedup() FavoritesList {
	seen := make(map[ItemID]struct{}, len(l))
	out := make(FavoritesList, 0, len(l))
	for _, m := range l {
		if m.ID.IsZero() {
			continue
		}
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Find returns the movie with id.
func (l FavoritesList) Find(id ItemID) (Movie, bool) {
	if i := l.Index(id); i >= 0 {
		return l[i], true
	}
	return Movie{}, false
}
