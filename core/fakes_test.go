package core

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// fakeStore is an in-memory stand-in for the three pgx repositories. It
// mimics the SQL semantics the real queries have: bounded, time-descending
// sub-scans and join-style duplication for duplicate follow edges.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	logins  map[string]Login
	authors map[int64]Author
	msgs    []fakeMessage
	follows [][2]int64 // {idAuthor, idFollower}

	autocompleteCalls int
}

type fakeMessage struct {
	authorID int64
	body     string
	at       time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		logins:  make(map[string]Login),
		authors: make(map[int64]Author),
	}
}

func (f *fakeStore) CreateAccount(_ context.Context, username, name, passwordHash, salt string) (Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.logins[username]; exists {
		return Author{}, ErrUsernameTaken
	}
	f.nextID++
	f.logins[username] = Login{ID: f.nextID, Username: username, Password: passwordHash, Salt: salt}
	a := Author{ID: f.nextID, Name: name}
	f.authors[a.ID] = a
	return a, nil
}

func (f *fakeStore) FindLogin(_ context.Context, username string) (*Login, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.logins[username]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (f *fakeStore) FindAuthor(_ context.Context, id int64) (*Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.authors[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeStore) Autocomplete(_ context.Context, motif string, limit int) ([]Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autocompleteCalls++

	ids := make([]int64, 0, len(f.authors))
	for id := range f.authors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Author, 0, limit)
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		if strings.HasPrefix(f.authors[id].Name, motif) {
			out = append(out, f.authors[id])
		}
	}
	return out, nil
}

func (f *fakeStore) Save(_ context.Context, authorID int64, body string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, fakeMessage{authorID: authorID, body: body, at: at})
	return nil
}

func (f *fakeStore) RecentFromFollowed(_ context.Context, followerID int64, limit int) ([]TimeMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []TimeMessage
	for _, m := range f.msgs {
		// One row per matching edge, like the SQL join.
		for _, edge := range f.follows {
			if edge[0] == m.authorID && edge[1] == followerID {
				out = append(out, f.toTimeMessage(m))
			}
		}
	}
	return sortAndLimit(out, limit), nil
}

func (f *fakeStore) RecentByAuthor(_ context.Context, authorID int64, limit int) ([]TimeMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []TimeMessage
	for _, m := range f.msgs {
		if m.authorID == authorID {
			out = append(out, f.toTimeMessage(m))
		}
	}
	return sortAndLimit(out, limit), nil
}

func (f *fakeStore) SaveFollow(_ context.Context, idAuthor, idFollower int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.follows = append(f.follows, [2]int64{idAuthor, idFollower})
	return nil
}

func (f *fakeStore) toTimeMessage(m fakeMessage) TimeMessage {
	return TimeMessage{Name: f.authors[m.authorID].Name, Message: m.body, Time: m.at}
}

func sortAndLimit(msgs []TimeMessage, limit int) []TimeMessage {
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Time.After(msgs[j].Time) })
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs
}

// followAdapter exposes fakeStore as a FollowRepository without colliding
// with MessageRepository's Save.
type followAdapter struct{ *fakeStore }

func (a followAdapter) Save(ctx context.Context, idAuthor, idFollower int64) error {
	return a.SaveFollow(ctx, idAuthor, idFollower)
}
