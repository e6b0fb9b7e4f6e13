// Package history remembers where each entry was stopped so that playback can resume there.
package history

import (
	"slices"
	"time"

	"github.com/avsync-cli/avsync/filesystem"
	"github.com/avsync-cli/avsync/where"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// finishedMargin is how close to the end a stop counts as finished, in seconds.
const finishedMargin = 5.0

var cacher = gache.New[map[string]*Record](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every saved record keyed by absolute path.
func Get() (map[string]*Record, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Record), nil
	}
	return cached, nil
}

// List returns the saved records, most recent first.
func List() ([]*Record, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}
	records := lo.Values(saved)
	slices.SortFunc(records, func(a, b *Record) int {
		return b.Updated.Compare(a.Updated)
	})
	return records, nil
}

// Resume returns the saved position of path, if any.
func Resume(path string) mo.Option[float64] {
	saved, err := Get()
	if err != nil {
		return mo.None[float64]()
	}
	record, ok := saved[(&Record{Path: path}).encode()]
	if !ok || record.Position <= 0 {
		return mo.None[float64]()
	}
	return mo.Some(record.Position)
}

// Save stores the position an entry stopped at. Stopping within a few seconds of the
// end forgets the entry instead, so that it starts over next time.
func Save(record Record) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	key := record.encode()
	if record.Length > 0 && record.Position >= record.Length-finishedMargin {
		if _, ok := saved[key]; !ok {
			return nil
		}
		delete(saved, key)
		return cacher.Set(saved)
	}

	if record.Updated.IsZero() {
		record.Updated = time.Now()
	}
	saved[key] = &record
	return cacher.Set(saved)
}

// Remove forgets a record.
func Remove(record *Record) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, record.encode())
	return cacher.Set(saved)
}

// Clear forgets every record.
func Clear() error {
	return cacher.Set(make(map[string]*Record))
}
