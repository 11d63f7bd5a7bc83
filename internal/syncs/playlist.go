// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package syncs

import (
	"context"

	"github.com/tomtom215/songpassport/internal/concepts/playlist"
	"github.com/tomtom215/songpassport/internal/engine"
)

func playlistSyncs(c Concepts) []*engine.Sync {
	g := c.gate()
	var syncs []*engine.Sync

	for _, r := range []route{
		{
			name:    "CreatePlaylist",
			path:    "/Playlist/createPlaylist",
			action:  playlist.CreatePlaylist,
			fields:  []engine.Var{name},
			input:   engine.P{"owner": user, "name": name},
			outputs: []engine.Var{playlistID},
		},
		{
			name:   "DeletePlaylist",
			path:   "/Playlist/deletePlaylist",
			action: playlist.DeletePlaylist,
			fields: []engine.Var{playlistID},
			input:  engine.P{"playlist": playlistID, "user": user},
		},
		{
			name:   "RenamePlaylist",
			path:   "/Playlist/renamePlaylist",
			action: playlist.RenamePlaylist,
			fields: []engine.Var{playlistID, newName},
			input:  engine.P{"playlist": playlistID, "newName": newName, "user": user},
		},
		{
			name:   "AddSong",
			path:   "/Playlist/addSong",
			action: playlist.AddSong,
			fields: []engine.Var{playlistID, song},
			input:  engine.P{"playlist": playlistID, "song": song, "user": user},
		},
		{
			name:   "RemoveSong",
			path:   "/Playlist/removeSong",
			action: playlist.RemoveSong,
			fields: []engine.Var{playlistID, song},
			input:  engine.P{"playlist": playlistID, "song": song, "user": user},
		},
		{
			name:   "ReorderSongs",
			path:   "/Playlist/reorderSongs",
			action: playlist.ReorderSongs,
			fields: []engine.Var{playlistID, songs},
			input:  engine.P{"playlist": playlistID, "songs": songs, "user": user},
		},
	} {
		syncs = append(syncs, g.route(r)...)
	}

	syncs = append(syncs, g.query(query{
		name: "GetPlaylistsForUser",
		path: "/Playlist/_getPlaylistsForUser",
		lookup: func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
			return frames.QueryAll(ctx, c.Playlists.GetPlaylistsForUserQuery, engine.P{"user": user}, playlists)
		},
		response: []engine.Var{playlists},
	})...)

	syncs = append(syncs, g.query(query{
		name:   "GetPlaylist",
		path:   "/Playlist/_getPlaylist",
		fields: []engine.Var{playlistID},
		lookup: func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
			return frames.Query(ctx, c.Playlists.GetPlaylistQuery,
				engine.P{"playlist": playlistID},
				engine.P{"name": name, "owner": owner, "songs": songs})
		},
		missing: chain(
			func(ctx context.Context, frames engine.Frames) (engine.Frames, error) {
				return frames.Absent(ctx, c.Playlists.GetPlaylistQuery, engine.P{"playlist": playlistID})
			},
			bindEach(errMsg, func(f engine.Frame) any {
				return "Playlist with ID '" + stringAt(f, playlistID) + "' not found."
			}),
		),
		response: []engine.Var{playlistID, name, owner, songs},
	})...)

	return syncs
}
