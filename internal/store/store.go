package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"iml-cli/internal/model"

	"github.com/sirupsen/logrus"
)

const workspaceDirName = ".iml"

// DB is the whole workspace state. It is loaded and saved as a unit.
type DB struct {
	Version          int                   `json:"version"`
	CurrentActorID   string                `json:"currentActorId,omitempty"`
	CurrentProjectID string                `json:"currentProjectId,omitempty"`
	Actors           []model.Actor         `json:"actors"`
	Projects         []model.Project       `json:"projects"`
	Lists            []model.MaterialsList `json:"lists"`
}

type Store struct {
	Dir string
	Log logrus.FieldLogger
}

func (s Store) log() logrus.FieldLogger {
	if s.Log != nil {
		return s.Log
	}
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// DiscoverDir walks up from start looking for a .iml workspace directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, workspaceDirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, workspaceDirName), nil
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store: empty dir")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

// Path is the SQLite file backing the workspace.
func (s Store) Path() string {
	return filepath.Join(s.Dir, "iml.sqlite")
}

func (s Store) Load(ctx context.Context) (*DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	return s.LoadSQLite(ctx)
}

func (s Store) Save(ctx context.Context, db *DB) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	if err := s.SaveSQLite(ctx, db); err != nil {
		return err
	}
	s.log().WithFields(logrus.Fields{
		"dir":      s.Dir,
		"projects": len(db.Projects),
		"lists":    len(db.Lists),
	}).Debug("state saved")
	return nil
}

// NextID returns a fresh prefixed id (proj-xxxxxxxx, iml-xxxxxxxx, act-xxxxxxxx).
func (s Store) NextID(db *DB, prefix string) string {
	for i := 0; i < 20; i++ {
		id, err := newRandomID(prefix)
		if err != nil {
			break
		}
		if !idExists(db, id) {
			return id
		}
	}
	// crypto/rand failed or kept colliding: fall back to sequential ids.
	for n := len(db.Actors) + len(db.Projects) + len(db.Lists) + 1; ; n++ {
		id := fmt.Sprintf("%s-%d", prefix, n)
		if !idExists(db, id) {
			return id
		}
	}
}

func (db *DB) FindActor(id string) (*model.Actor, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Actors {
		if db.Actors[i].ID == id {
			return &db.Actors[i], true
		}
	}
	return nil, false
}

func (db *DB) FindProject(id string) (*model.Project, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Projects {
		if db.Projects[i].ID == id {
			return &db.Projects[i], true
		}
	}
	return nil, false
}

func (db *DB) FindList(id string) (*model.MaterialsList, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Lists {
		if db.Lists[i].ID == id {
			return &db.Lists[i], true
		}
	}
	return nil, false
}

// ListsForProject returns the project's lists ordered by creation time.
func (db *DB) ListsForProject(projectID string) []model.MaterialsList {
	projectID = strings.TrimSpace(projectID)
	out := []model.MaterialsList{}
	for _, l := range db.Lists {
		if l.ProjectID == projectID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// PutList replaces the stored list with the same id.
func (db *DB) PutList(l model.MaterialsList) bool {
	for i := range db.Lists {
		if db.Lists[i].ID == l.ID {
			db.Lists[i] = l
			return true
		}
	}
	return false
}
