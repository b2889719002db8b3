package googledrive

import (
	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// MimeTypeFolder is the Drive MIME type for folders.
const MimeTypeFolder = "application/vnd.google-apps.folder"

// fileToDocument converts a Drive file to a document descriptor.
// Items whose parent is the drive root become root nodes; Drive reports
// the root folder as a parent like any other, so it has to be masked out.
func fileToDocument(file *drive.File, rootID string) domain.RemoteDocument {
	var parentID *string
	if len(file.Parents) > 0 && file.Parents[0] != rootID {
		parentID = &file.Parents[0]
	}

	return domain.RemoteDocument{
		ID:              file.Id,
		ParentID:        parentID,
		Title:           file.Name,
		CanHaveChildren: file.MimeType == MimeTypeFolder,
	}
}
