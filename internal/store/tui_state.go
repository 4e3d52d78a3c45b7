package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
)

const tuiStateFileName = "tui_state.json"

const maxRecentLists = 10

// TUIState stores small, user-facing UI state for restoring the last list on relaunch.
//
// It lives inside the workspace directory and is best effort: callers should
// tolerate missing or invalid data.
type TUIState struct {
	Version int `json:"version"`

	ListID  string `json:"listId,omitempty"`
	Section int    `json:"section,omitempty"`
	Item    int    `json:"item,omitempty"`

	// RecentListIDs is newest first.
	RecentListIDs []string `json:"recentListIds,omitempty"`
}

// Touch records listID as the most recently opened list.
func (st *TUIState) Touch(listID string) {
	listID = strings.TrimSpace(listID)
	if listID == "" {
		return
	}
	out := []string{listID}
	for _, id := range st.RecentListIDs {
		if id != listID {
			out = append(out, id)
		}
	}
	if len(out) > maxRecentLists {
		out = out[:maxRecentLists]
	}
	st.RecentListIDs = out
	if st.ListID != listID {
		st.Section, st.Item = 0, 0
	}
	st.ListID = listID
}

func (s Store) tuiStatePath() string {
	return filepath.Join(s.Dir, tuiStateFileName)
}

func (s Store) LoadTUIState() (*TUIState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &TUIState{Version: 1}, nil
	}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.tuiStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &TUIState{Version: 1}, nil
		}
		return nil, err
	}
	var st TUIState
	if err := json.Unmarshal(b, &st); err != nil {
		// Corrupted: treat as missing.
		return &TUIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s Store) SaveTUIState(st *TUIState) error {
	if st == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	path := s.tuiStatePath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
