package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden31/tend-sync/internal/pipeerror"
)

func folder(id, name string) DriveItem {
	return DriveItem{ID: id, Name: name, Folder: &FolderFacet{}}
}

func file(id, name string, modified time.Time) DriveItem {
	return DriveItem{
		ID: id, Name: name, LastModifiedDateTime: modified,
		File: &FileFacet{MimeType: "text/csv"},
	}
}

// fakeDrive simulates the drive endpoints the resolver touches.
type fakeDrive struct {
	directStatus int         // status for the path-based children call
	leaf         []DriveItem // children of the target folder
	root         []DriveItem
	children     map[string][]DriveItem // children by folder item id
	content      map[string]string      // download body by item id
}

func (f *fakeDrive) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	writePage := func(w http.ResponseWriter, items []DriveItem) {
		require.NoError(t, json.NewEncoder(w).Encode(driveItemPage{Value: items}))
	}
	mux.HandleFunc("/drives/d1/root:/Exports/Tend:/children", func(w http.ResponseWriter, r *http.Request) {
		if f.directStatus != 0 && f.directStatus != http.StatusOK {
			w.WriteHeader(f.directStatus)
			return
		}
		writePage(w, f.leaf)
	})
	mux.HandleFunc("/drives/d1/root/children", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, f.root)
	})
	mux.HandleFunc("/drives/d1/items/", func(w http.ResponseWriter, r *http.Request) {
		// /drives/d1/items/{id}/{children|content}
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/drives/d1/items/"), "/")
		if len(parts) != 2 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch parts[1] {
		case "children":
			writePage(w, f.children[parts[0]])
		case "content":
			_, _ = w.Write([]byte(f.content[parts[0]]))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	return httptest.NewServer(mux)
}

func newTestResolver(t *testing.T, drive *fakeDrive) *Resolver {
	t.Helper()
	server := drive.server(t)
	t.Cleanup(server.Close)
	client := NewClientWithHTTP(server.URL, server.Client())
	return NewResolver(client, "d1", "Exports/Tend", ".csv")
}

func TestResolveDirectLookup(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	drive := &fakeDrive{
		leaf: []DriveItem{
			file("f1", "ExportTask (2).csv", now.Add(-time.Hour)),
			file("f2", "ExportTask (3).csv", now),
			folder("sub", "Archive"),
		},
	}
	item, err := newTestResolver(t, drive).Resolve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "f2", item.ID)
}

func TestResolveFallbackWalk(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	leaf := []DriveItem{
		file("f1", "ExportTask (2).csv", now.Add(-time.Hour)),
		file("f2", "ExportTask (3).csv", now),
	}
	drive := &fakeDrive{
		directStatus: http.StatusNotFound,
		root:         []DriveItem{folder("exp", "Exports"), file("readme", "README.md", now)},
		children: map[string][]DriveItem{
			"exp":  {folder("tend", "Tend")},
			"tend": leaf,
		},
	}
	// The walk must land on the same leaf listing the direct lookup would
	// have returned.
	item, err := newTestResolver(t, drive).Resolve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "f2", item.ID)
}

func TestResolveSegmentNotFound(t *testing.T) {
	drive := &fakeDrive{
		directStatus: http.StatusNotFound,
		root: []DriveItem{
			folder("docs", "Documents"),
			file("readme", "README.md", time.Now()),
			// A file named like the segment must not satisfy the walk.
			file("decoy", "Exports", time.Now()),
		},
	}
	_, err := newTestResolver(t, drive).Resolve(context.Background())
	require.Error(t, err)

	var segErr *pipeerror.SegmentNotFoundError
	require.ErrorAs(t, err, &segErr)
	assert.Equal(t, "Exports", segErr.Segment)
	assert.Contains(t, segErr.Siblings, "Documents (folder)")
	assert.Contains(t, segErr.Siblings, "README.md (file)")
	assert.Contains(t, segErr.Siblings, "Exports (file)")
}

func TestResolveSuffixFilter(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	drive := &fakeDrive{
		leaf: []DriveItem{
			// Most recent file has the wrong suffix and must lose.
			file("x1", "notes.xlsx", now.Add(time.Hour)),
			file("f1", "ExportTask.CSV", now), // suffix match is case-insensitive
		},
	}
	item, err := newTestResolver(t, drive).Resolve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "f1", item.ID)
}

func TestResolveNoMatch(t *testing.T) {
	drive := &fakeDrive{
		leaf: []DriveItem{file("x1", "notes.xlsx", time.Now()), folder("sub", "Archive")},
	}
	item, err := newTestResolver(t, drive).Resolve(context.Background())
	require.NoError(t, err, "no matching file is a clean outcome, not an error")
	assert.Nil(t, item)
}

func TestLatestTieBreak(t *testing.T) {
	ts := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	items := []DriveItem{
		file("a", "ExportTask (2).csv", ts),
		file("b", "ExportTask (3).csv", ts),
		file("c", "ExportTask (1).csv", ts),
	}
	assert.Equal(t, "b", Latest(items).ID, "equal timestamps break toward the greater name")
}

func TestFetch(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	drive := &fakeDrive{
		leaf:    []DriveItem{file("f2", "ExportTask.csv", now)},
		content: map[string]string{"f2": "Task Id,Task Type\nT-1,Transplant\n"},
	}
	resolver := newTestResolver(t, drive)

	item, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)

	path, cleanup, err := resolver.Fetch(context.Background(), item)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, drive.content["f2"], string(data))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "cleanup must remove the temp file")
}
