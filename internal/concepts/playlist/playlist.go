// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

// Package playlist implements the Playlist concept: named, ordered song
// lists owned by a user.
package playlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tomtom215/songpassport/internal/docstore"
	"github.com/tomtom215/songpassport/internal/engine"
)

const collectionName = "Playlist.playlists"

// Playlist is the stored state of one playlist.
type Playlist struct {
	ID    string   `json:"_id"`
	Owner string   `json:"owner"`
	Name  string   `json:"name"`
	Songs []string `json:"songs"`
}

// Summary is one row of GetPlaylistsForUser.
type Summary struct {
	Playlist string `json:"playlist"`
	Name     string `json:"name"`
}

// Concept stores playlists in a document collection.
type Concept struct {
	playlists docstore.Collection

	// names serializes the per-owner name uniqueness check with the write
	// that depends on it.
	names sync.Mutex
}

// New creates the concept on store.
func New(store docstore.Store) *Concept {
	return &Concept{playlists: store.Collection(collectionName)}
}

// CreatePlaylist creates an empty playlist and returns its id.
func (c *Concept) CreatePlaylist(ctx context.Context, owner, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", engine.Failf("Playlist name cannot be empty.")
	}

	c.names.Lock()
	defer c.names.Unlock()

	taken, err := c.findByName(ctx, owner, name)
	if err != nil {
		return "", err
	}
	if taken != nil {
		return "", engine.Failf("Playlist with name '%s' already exists for this user.", name)
	}

	id := uuid.NewString()
	p := &Playlist{ID: id, Owner: owner, Name: name, Songs: []string{}}
	if err := c.playlists.Insert(ctx, id, p); err != nil {
		return "", fmt.Errorf("insert playlist: %w", err)
	}
	return id, nil
}

// DeletePlaylist removes a playlist owned by user.
func (c *Concept) DeletePlaylist(ctx context.Context, id, user string) error {
	if _, err := c.owned(ctx, id, user); err != nil {
		return err
	}
	if err := c.playlists.Delete(ctx, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return notFound(id)
		}
		return fmt.Errorf("delete playlist: %w", err)
	}
	return nil
}

// RenamePlaylist changes the name of a playlist owned by user. Renaming a
// playlist to its current name succeeds.
func (c *Concept) RenamePlaylist(ctx context.Context, id, newName, user string) error {
	if strings.TrimSpace(newName) == "" {
		return engine.Failf("New playlist name cannot be empty.")
	}
	if _, err := c.owned(ctx, id, user); err != nil {
		return err
	}

	c.names.Lock()
	defer c.names.Unlock()

	taken, err := c.findByName(ctx, user, newName)
	if err != nil {
		return err
	}
	if taken != nil && taken.ID != id {
		return engine.Failf("User '%s' already has another playlist named '%s'.", user, newName)
	}

	return c.update(ctx, id, user, func(p *Playlist) error {
		p.Name = newName
		return nil
	})
}

// AddSong appends song to the playlist.
func (c *Concept) AddSong(ctx context.Context, id, song, user string) error {
	return c.update(ctx, id, user, func(p *Playlist) error {
		p.Songs = append(p.Songs, song)
		return nil
	})
}

// RemoveSong removes every occurrence of song from the playlist.
func (c *Concept) RemoveSong(ctx context.Context, id, song, user string) error {
	return c.update(ctx, id, user, func(p *Playlist) error {
		kept := make([]string, 0, len(p.Songs))
		for _, s := range p.Songs {
			if s != song {
				kept = append(kept, s)
			}
		}
		if len(kept) == len(p.Songs) {
			return engine.Failf("Song '%s' is not found in playlist '%s'.", song, id)
		}
		p.Songs = kept
		return nil
	})
}

// ReorderSongs replaces the song sequence with a permutation of itself.
func (c *Concept) ReorderSongs(ctx context.Context, id string, songs []string, user string) error {
	return c.update(ctx, id, user, func(p *Playlist) error {
		if !sameMultiset(p.Songs, songs) {
			return engine.Failf("Multiset of new songs is not identical to existing songs.")
		}
		p.Songs = append([]string{}, songs...)
		return nil
	})
}

// GetPlaylistsForUser lists the playlists owned by user.
func (c *Concept) GetPlaylistsForUser(ctx context.Context, user string) ([]Summary, error) {
	docs, err := docstore.FindAll[Playlist](ctx, c.playlists, docstore.Filter{"owner": user})
	if err != nil {
		return nil, fmt.Errorf("find playlists: %w", err)
	}
	out := make([]Summary, 0, len(docs))
	for _, p := range docs {
		out = append(out, Summary{Playlist: p.ID, Name: p.Name})
	}
	return out, nil
}

// GetPlaylist returns the playlist, or nil when it does not exist.
func (c *Concept) GetPlaylist(ctx context.Context, id string) (*Playlist, error) {
	var p Playlist
	if err := c.playlists.Get(ctx, id, &p); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	if p.Songs == nil {
		p.Songs = []string{}
	}
	return &p, nil
}

func (c *Concept) findByName(ctx context.Context, owner, name string) (*Playlist, error) {
	p, err := docstore.FindOne[Playlist](ctx, c.playlists, docstore.Filter{"owner": owner, "name": name})
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find playlist by name: %w", err)
	}
	return &p, nil
}

// owned loads a playlist and checks that user owns it.
func (c *Concept) owned(ctx context.Context, id, user string) (*Playlist, error) {
	p, err := c.GetPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound(id)
	}
	if p.Owner != user {
		return nil, notOwner(user, id)
	}
	return p, nil
}

// update applies mutate atomically after checking ownership.
func (c *Concept) update(ctx context.Context, id, user string, mutate func(*Playlist) error) error {
	var p Playlist
	err := c.playlists.Update(ctx, id, &p, func() error {
		if p.Owner != user {
			return notOwner(user, id)
		}
		if p.Songs == nil {
			p.Songs = []string{}
		}
		return mutate(&p)
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return notFound(id)
	}
	if _, ok := engine.AsActionError(err); ok {
		return err
	}
	if err != nil {
		return fmt.Errorf("update playlist: %w", err)
	}
	return nil
}

func notFound(id string) error {
	return engine.Failf("Playlist with ID '%s' not found.", id)
}

func notOwner(user, id string) error {
	return engine.Failf("User '%s' is not the owner of playlist '%s'.", user, id)
}

// sameMultiset reports whether a and b hold the same songs with the same
// multiplicities.
func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
		if counts[s] < 0 {
			return false
		}
	}
	return true
}
