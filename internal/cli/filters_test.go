package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/trailscope/internal/apperrors"
	"github.com/runnerr0/trailscope/internal/filter"
)

func TestFilterAdd_SavesFilter(t *testing.T) {
	s := newTestSession(t)

	cmd := &FilterAddCommand{
		Label:   "google",
		Text:    "Google searches",
		Color:   "#FF0000",
		Where:   []string{"url.domain is google.com", "entry.title contains Search"},
		globals: &GlobalFlags{},
	}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})
	assert.Contains(t, output, "Saved filter google (#FF0000) with 2 elements")

	f, err := s.store.GetFilter(context.Background(), "google")
	require.NoError(t, err)
	assert.Equal(t, "Google searches", f.Text)
	assert.Equal(t, 2, f.Query.Len())
}

func TestFilterAdd_Invalid(t *testing.T) {
	s := newTestSession(t)

	tests := []struct {
		name string
		cmd  *FilterAddCommand
	}{
		{"bad label", &FilterAddCommand{Label: "has space", Where: []string{"url.domain is a.com"}}},
		{"bad colour", &FilterAddCommand{Label: "x", Color: "red", Where: []string{"url.domain is a.com"}}},
		{"unknown attribute", &FilterAddCommand{Label: "x", Where: []string{"url.colour is red"}}},
		{"unknown operator", &FilterAddCommand{Label: "x", Where: []string{"url.domain like a.com"}}},
		{"malformed element", &FilterAddCommand{Label: "x", Where: []string{"domain"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.globals = &GlobalFlags{}
			assert.Error(t, tt.cmd.executeWithSession(s))
		})
	}

	filters, err := s.store.ListFilters(context.Background())
	require.NoError(t, err)
	assert.Empty(t, filters)
}

func TestFilterAdd_DuplicateLabel(t *testing.T) {
	s := newTestSession(t)
	saveFilter(t, s, "google", "url.domain is google.com")

	cmd := &FilterAddCommand{Label: "google", Where: []string{"url.domain is bing.com"}, globals: &GlobalFlags{}}
	err := cmd.executeWithSession(s)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestFilterAdd_MissingListIsSaved(t *testing.T) {
	s := newTestSession(t)

	cmd := &FilterAddCommand{Label: "work", Where: []string{"url.hostname in_list work.txt"}, globals: &GlobalFlags{}}
	captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s), "the list can be created later")
	})

	_, err := s.store.GetFilter(context.Background(), "work")
	assert.NoError(t, err)
}

func TestFilters_ListHumanAndJSON(t *testing.T) {
	s := newTestSession(t)

	list := &FiltersCommand{globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, list.executeWithSession(s))
	})
	assert.Contains(t, output, "No filters saved")

	saveFilter(t, s, "google", "url.domain is google.com")
	saveFilter(t, s, "deleted", "entry.deleted is true")

	output = captureOutput(t, func() {
		require.NoError(t, list.executeWithSession(s))
	})
	assert.Contains(t, output, "google  "+filter.DefaultColor)
	assert.Contains(t, output, `"google.com"`)
	assert.Less(t, strings.Index(output, "deleted"), strings.Index(output, "google"), "sorted by label")

	list.globals.JSON = true
	output = captureOutput(t, func() {
		require.NoError(t, list.executeWithSession(s))
	})
	var got []struct {
		Label    string          `json:"label"`
		Query    json.RawMessage `json:"query"`
		Elements []string        `json:"elements"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "deleted", got[0].Label)
	assert.Len(t, got[1].Elements, 1)

	q, err := filter.Decode(got[1].Query)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Len())
}

func TestFilterDelete(t *testing.T) {
	s := newTestSession(t)
	saveFilter(t, s, "google", "url.domain is google.com")

	cmd := &FilterDeleteCommand{globals: &GlobalFlags{}}
	cmd.Args.Label = "google"
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})
	assert.Contains(t, output, "Deleted filter google")

	err := cmd.executeWithSession(s)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLists(t *testing.T) {
	s := newTestSession(t)
	dir, err := s.cfg.ListsDir()
	require.NoError(t, err)

	cmd := &ListsCommand{globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})
	assert.Contains(t, output, "(none)")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "work.txt"), []byte("intranet\n\nmail.corp\n"), 0644))
	output = captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})
	assert.Contains(t, output, "work.txt")
	assert.Contains(t, output, "2 values")
}
