package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"garden31/tend-sync/internal/fileutils"
	"garden31/tend-sync/internal/pipeerror"
)

// Resolver finds the most recent export file inside one SharePoint folder.
//
// Resolution first asks for the folder's children in a single path-based
// call. If that fails for any reason it falls back to walking the folder
// path from the drive root one segment at a time, which survives folders
// whose path-addressing misbehaves (renamed parents, odd characters).
type Resolver struct {
	client     *Client
	driveID    string
	folderPath string
	suffix     string
}

// NewResolver builds a Resolver for folderPath within driveID, keeping only
// files whose name ends with suffix (matched case-insensitively).
func NewResolver(client *Client, driveID, folderPath, suffix string) *Resolver {
	return &Resolver{
		client:     client,
		driveID:    driveID,
		folderPath: folderPath,
		suffix:     suffix,
	}
}

// Resolve returns the most recently modified matching file in the target
// folder, or (nil, nil) when the folder holds no matching file — an empty
// folder is a clean no-work outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context) (*DriveItem, error) {
	items, err := r.client.ChildrenByPath(ctx, r.driveID, r.folderPath)
	if err != nil {
		log.WithError(err).WithField("path", r.folderPath).
			Warn("Direct folder lookup failed, falling back to segment walk")
		items, err = r.walk(ctx)
		if err != nil {
			return nil, err
		}
	}

	matches := filterSuffix(items, r.suffix)
	if len(matches) == 0 {
		log.WithFields(logrus.Fields{
			"path":   r.folderPath,
			"suffix": r.suffix,
		}).Info("No matching export file in folder")
		return nil, nil
	}
	latest := Latest(matches)
	log.WithFields(logrus.Fields{
		"name":     latest.Name,
		"modified": latest.LastModifiedDateTime,
	}).Info("Resolved latest export file")
	return latest, nil
}

// walk descends from the drive root one path segment at a time, matching
// each segment against the current listing's folder names. A missing
// segment fails the run with the entries present at that level, so a
// renamed or moved folder is diagnosable from the error.
func (r *Resolver) walk(ctx context.Context) ([]DriveItem, error) {
	listing, err := r.client.RootChildren(ctx, r.driveID)
	if err != nil {
		return nil, fmt.Errorf("error listing drive root: %w", err)
	}

	remaining := splitPath(r.folderPath)
	for _, segment := range remaining {
		next := findFolder(listing, segment)
		if next == nil {
			return nil, &pipeerror.SegmentNotFoundError{
				Segment:  segment,
				Siblings: describeItems(listing),
			}
		}
		listing, err = r.client.ChildrenByID(ctx, r.driveID, next.ID)
		if err != nil {
			return nil, fmt.Errorf("error listing folder %q: %w", segment, err)
		}
	}
	return listing, nil
}

// Fetch downloads item into a temporary file and returns its path together
// with a cleanup that removes it. cleanup is safe to call on every exit
// path, including after a failed download.
func (r *Resolver) Fetch(ctx context.Context, item *DriveItem) (string, func(), error) {
	driveID := item.ParentReference.DriveID
	if driveID == "" {
		driveID = r.driveID
	}
	body, err := r.client.Download(ctx, driveID, item.ID)
	if err != nil {
		return "", func() {}, err
	}
	defer func() {
		if err := body.Close(); err != nil {
			log.WithError(err).Warn("Failed to close download stream")
		}
	}()
	return fileutils.WriteToTemp("tend-export-*.csv", body)
}

// Latest selects the item with the greatest last-modified timestamp.
// Equal timestamps break deterministically toward the greater name
// (byte-order comparison) rather than relying on listing order.
func Latest(items []DriveItem) *DriveItem {
	best := &items[0]
	for i := 1; i < len(items); i++ {
		it := &items[i]
		if it.LastModifiedDateTime.After(best.LastModifiedDateTime) ||
			(it.LastModifiedDateTime.Equal(best.LastModifiedDateTime) && it.Name > best.Name) {
			best = it
		}
	}
	return best
}

func filterSuffix(items []DriveItem, suffix string) []DriveItem {
	var matches []DriveItem
	for _, it := range items {
		if it.IsFolder() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(it.Name), strings.ToLower(suffix)) {
			matches = append(matches, it)
		}
	}
	return matches
}

func findFolder(items []DriveItem, name string) *DriveItem {
	for i := range items {
		if items[i].Name == name && items[i].IsFolder() {
			return &items[i]
		}
	}
	return nil
}

func describeItems(items []DriveItem) []string {
	described := make([]string, 0, len(items))
	for _, it := range items {
		kind := "file"
		if it.IsFolder() {
			kind = "folder"
		}
		described = append(described, fmt.Sprintf("%s (%s)", it.Name, kind))
	}
	return described
}

func splitPath(p string) []string {
	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
