// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package playlist

import (
	"context"

	"github.com/tomtom215/songpassport/internal/engine"
)

// Concept name used in action references and request paths.
const Name = "Playlist"

// Action references.
var (
	CreatePlaylist = engine.Ref(Name, "createPlaylist")
	DeletePlaylist = engine.Ref(Name, "deletePlaylist")
	RenamePlaylist = engine.Ref(Name, "renamePlaylist")
	AddSong        = engine.Ref(Name, "addSong")
	RemoveSong     = engine.Ref(Name, "removeSong")
	ReorderSongs   = engine.Ref(Name, "reorderSongs")
)

// RegisterActions adds the concept's actions to e.
func (c *Concept) RegisterActions(e *engine.Engine) error {
	actions := map[engine.ActionRef]engine.ActionFunc{
		CreatePlaylist: c.createPlaylistAction,
		DeletePlaylist: c.deletePlaylistAction,
		RenamePlaylist: c.renamePlaylistAction,
		AddSong:        c.addSongAction,
		RemoveSong:     c.removeSongAction,
		ReorderSongs:   c.reorderSongsAction,
	}
	for ref, fn := range actions {
		if err := e.Register(ref, fn); err != nil {
			return err
		}
	}
	return nil
}

func (c *Concept) createPlaylistAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	owner, err := in.String("owner")
	if err != nil {
		return nil, err
	}
	name, err := in.OptionalString("name")
	if err != nil {
		return nil, err
	}
	id, err := c.CreatePlaylist(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return engine.Args{"playlist": id}, nil
}

func (c *Concept) deletePlaylistAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	id, user, err := playlistAndUser(in)
	if err != nil {
		return nil, err
	}
	return engine.Args{}, c.DeletePlaylist(ctx, id, user)
}

func (c *Concept) renamePlaylistAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	id, user, err := playlistAndUser(in)
	if err != nil {
		return nil, err
	}
	newName, err := in.OptionalString("newName")
	if err != nil {
		return nil, err
	}
	return engine.Args{}, c.RenamePlaylist(ctx, id, newName, user)
}

func (c *Concept) addSongAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	id, user, err := playlistAndUser(in)
	if err != nil {
		return nil, err
	}
	song, err := in.String("song")
	if err != nil {
		return nil, err
	}
	return engine.Args{}, c.AddSong(ctx, id, song, user)
}

func (c *Concept) removeSongAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	id, user, err := playlistAndUser(in)
	if err != nil {
		return nil, err
	}
	song, err := in.String("song")
	if err != nil {
		return nil, err
	}
	return engine.Args{}, c.RemoveSong(ctx, id, song, user)
}

func (c *Concept) reorderSongsAction(ctx context.Context, in engine.Args) (engine.Args, error) {
	id, user, err := playlistAndUser(in)
	if err != nil {
		return nil, err
	}
	songs, err := in.Strings("songs")
	if err != nil {
		return nil, err
	}
	return engine.Args{}, c.ReorderSongs(ctx, id, songs, user)
}

func playlistAndUser(in engine.Args) (string, string, error) {
	id, err := in.String("playlist")
	if err != nil {
		return "", "", err
	}
	user, err := in.String("user")
	if err != nil {
		return "", "", err
	}
	return id, user, nil
}

// GetPlaylistsForUserQuery returns [{playlist, name}] for input {user}.
func (c *Concept) GetPlaylistsForUserQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	user, err := in.String("user")
	if err != nil {
		return nil, err
	}
	summaries, err := c.GetPlaylistsForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	rows := make([]engine.Args, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, engine.Args{"playlist": s.Playlist, "name": s.Name})
	}
	return rows, nil
}

// GetPlaylistQuery returns [{_id, name, owner, songs}] for input {playlist},
// or no rows when the playlist does not exist.
func (c *Concept) GetPlaylistQuery(ctx context.Context, in engine.Args) ([]engine.Args, error) {
	id, err := in.String("playlist")
	if err != nil {
		return nil, err
	}
	p, err := c.GetPlaylist(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	return []engine.Args{{"_id": p.ID, "name": p.Name, "owner": p.Owner, "songs": p.Songs}}, nil
}
