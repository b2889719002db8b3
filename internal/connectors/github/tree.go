package github

import (
	"path"
	"sort"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// Git tree entry types.
const (
	entryTypeTree = "tree"
	entryTypeBlob = "blob"
)

// treeToDocuments converts a recursive git tree into document descriptors.
// Entries are sorted by path so a directory always precedes its contents.
// Submodule entries ("commit") are skipped.
func treeToDocuments(entries []*gh.TreeEntry) []domain.RemoteDocument {
	sorted := make([]*gh.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		switch entry.GetType() {
		case entryTypeTree, entryTypeBlob:
			sorted = append(sorted, entry)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].GetPath() < sorted[j].GetPath()
	})

	docs := make([]domain.RemoteDocument, 0, len(sorted))
	for _, entry := range sorted {
		entryPath := entry.GetPath()

		var parentID *string
		if dir := path.Dir(entryPath); dir != "." {
			parentID = &dir
		}

		docs = append(docs, domain.RemoteDocument{
			ID:              entryPath,
			ParentID:        parentID,
			Title:           path.Base(entryPath),
			CanHaveChildren: entry.GetType() == entryTypeTree,
		})
	}
	return docs
}
