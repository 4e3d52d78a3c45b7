// Package tui is the interactive list editor: a bubbletea program over
// editor.Editor that saves every committed change to the workspace store.
package tui

import (
	"context"

	"iml-cli/internal/editor"
	"iml-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Store        store.Store
	ListID       string
	ActorID      string
	DeletePolicy editor.DeletePolicy
	Log          logrus.FieldLogger
	// Style is light, dark, ascii or auto.
	Style string
}

// Run opens the list and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	applyColorProfilePreference()
	applyThemePreference(cfg.Style)

	m, err := newModel(ctx, cfg)
	if err != nil {
		return err
	}

	w, err := watchStore(ctx, cfg.Store, m.sess.log)
	if err != nil {
		m.sess.log.WithError(err).Warn("live reload disabled")
	} else {
		defer w.Close()
		m.changes = w.C
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(appModel); ok {
		fm.saveUIState()
	}
	return err
}
