// Package web serves the dashboard page mounted at / by `tunesmith serve`.
//
// The page is plain HTML, CSS and JavaScript embedded in the binary. At startup every file is minified
// (html, css, js, svg) and gzipped once, then served from memory. Setting DEV=1 serves static/ from disk
// instead so edits show up without rebuilding.
//
// The page talks only to the JSON API in internal/server. Its sections are selected by a single view
// value (home, tracks, playlists, artists, albums, generate) and rendered by one function.
package web
