package native

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Artifact is the cache record of a built workspace.
type Artifact struct {
	Key      string `gorm:"primaryKey"`
	Script   string
	Binary   string // path of the executable in the cache filesystem
	Size     int64
	BuiltAt  time.Time
	LastUsed time.Time
	Hits     int `gorm:"default:0"`
}

// Cache indexes built artifacts in a sqlite database. The executables
// themselves live in the cache filesystem.
type Cache struct {
	db *gorm.DB
	fs billy.Filesystem
}

// OpenCache opens (or creates) the index at dsn.
func OpenCache(fsys billy.Filesystem, dsn string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening build cache %s", dsn)
	}
	if err := db.AutoMigrate(&Artifact{}); err != nil {
		return nil, errors.Wrap(err, "migrating build cache")
	}
	return &Cache{db: db, fs: fsys}, nil
}

// Lookup returns the artifact stored under key. A record whose binary has
// disappeared is dropped and reported as a miss.
func (c *Cache) Lookup(key string) (*Artifact, bool, error) {
	var a Artifact
	res := c.db.Limit(1).Find(&a, "key = ?", key)
	if res.Error != nil {
		return nil, false, errors.Wrap(res.Error, "reading build cache")
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	if _, err := c.fs.Stat(a.Binary); err != nil {
		if err := c.db.Delete(&Artifact{}, "key = ?", key).Error; err != nil {
			return nil, false, errors.Wrap(err, "dropping stale cache record")
		}
		return nil, false, nil
	}
	return &a, true, nil
}

// Store records a freshly built artifact.
func (c *Cache) Store(a *Artifact) error {
	now := time.Now()
	if a.BuiltAt.IsZero() {
		a.BuiltAt = now
	}
	a.LastUsed = now
	if info, err := c.fs.Stat(a.Binary); err == nil {
		a.Size = info.Size()
	}
	return errors.Wrap(c.db.Save(a).Error, "writing build cache")
}

// Touch counts a cache hit.
func (c *Cache) Touch(a *Artifact) error {
	a.Hits++
	a.LastUsed = time.Now()
	err := c.db.Model(&Artifact{}).Where("key = ?", a.Key).Updates(map[string]interface{}{
		"hits":      a.Hits,
		"last_used": a.LastUsed,
	}).Error
	return errors.Wrap(err, "updating build cache")
}

// List returns every record, most recently used first.
func (c *Cache) List() ([]Artifact, error) {
	var all []Artifact
	if err := c.db.Order("last_used desc").Find(&all).Error; err != nil {
		return nil, errors.Wrap(err, "listing build cache")
	}
	return all, nil
}

// Clean removes every record and its workspace. It returns the number of
// artifacts removed.
func (c *Cache) Clean() (int, error) {
	all, err := c.List()
	if err != nil {
		return 0, err
	}
	for _, a := range all {
		if err := util.RemoveAll(c.fs, a.Key); err != nil {
			return 0, errors.Wrapf(err, "removing workspace %s", a.Key)
		}
	}
	if err := c.db.Where("1 = 1").Delete(&Artifact{}).Error; err != nil {
		return 0, errors.Wrap(err, "clearing build cache")
	}
	return len(all), nil
}

// Close releases the database.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
