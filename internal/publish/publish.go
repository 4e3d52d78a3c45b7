package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"iml-cli/internal/store"
	"iml-cli/internal/submittal"
)

type WriteOptions struct {
	Overwrite bool
	// Submittal also writes <listId>.submittal.md next to each list.
	Submittal bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteList writes toDir/<listId>.md (and its submittal when asked).
func WriteList(db *store.DB, listID, toDir string, opt WriteOptions) (WriteResult, error) {
	if db == nil {
		return WriteResult{}, errors.New("missing db")
	}
	listID = strings.TrimSpace(listID)
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	md, err := RenderListMarkdown(db, listID)
	if err != nil {
		return WriteResult{}, err
	}
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	outPath := filepath.Join(toDir, listID+".md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	written := []string{outPath}

	if opt.Submittal {
		l, _ := db.FindList(listID)
		subPath := filepath.Join(toDir, listID+".submittal.md")
		if err := writeFile(subPath, []byte(RenderSubmittalMarkdown(submittal.Derive(*l))), opt.Overwrite); err != nil {
			return WriteResult{}, err
		}
		written = append(written, subPath)
	}
	return WriteResult{Written: written}, nil
}

// WriteProject writes an index page plus every list of the project.
func WriteProject(db *store.DB, projectID, toDir string, opt WriteOptions) (WriteResult, error) {
	if db == nil {
		return WriteResult{}, errors.New("missing db")
	}
	projectID = strings.TrimSpace(projectID)
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	outDir := filepath.Join(filepath.Clean(toDir), projectID)

	index, err := RenderProjectIndexMarkdown(db, projectID)
	if err != nil {
		return WriteResult{}, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	indexPath := filepath.Join(outDir, "index.md")
	if err := writeFile(indexPath, []byte(index), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}

	written := []string{indexPath}
	for _, l := range db.ListsForProject(projectID) {
		res, err := WriteList(db, l.ID, outDir, opt)
		if err != nil {
			return WriteResult{}, err
		}
		written = append(written, res.Written...)
	}
	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
