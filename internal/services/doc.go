// Package services implements the external collaborators of the playlist splitter: the Spotify playlist provider and the Last.fm tag lookup.
//
// # Provider
//
// The [Provider] interface is the narrow capability the pipeline needs: read one page of a playlist,
// create a playlist, append tracks, and identify the acting user. [PageFetcher] and [PlaylistWriter]
// split it so read-only stages can ask for less.
//
// # Spotify Implementation
//
// [SpotifyService] wraps github.com/zmb3/spotify/v2. It authenticates in one of two ways:
//   - [SpotifyService.OAuthenticate] with a user token saved by the auth command. The [oauth2] token source refreshes it.
//   - [SpotifyService.AuthenticateClient] with the client credentials grant. Enough for reading playlists, not for changing them.
//
// The API and accounts base URLs are options so tests can point the client at an httptest server.
//
// # Tag Lookup
//
// [LastFMScraper] fetches "<base>/<artist>/_/<title>/+tags" with resty and collects the text of
// every "a.link-block-target" anchor with goquery. A 404 yields an empty list.
//
// [CachedTagLookup] decorates any [TagLookup] with a [TagCache], normally the SQLite tag cache.
//
// # Error Handling
//
// Services wrap sentinel errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no token, a read-only token used for writes, or a 401 from the API
//   - [shared.ErrAPIRequest] : any other failed Spotify request
//   - [shared.ErrTagLookup] : a failed tag page fetch
package services
